package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/accviz/accviz/pkg/pipeline"
	"github.com/accviz/accviz/pkg/placement"
)

// stepsCommand creates the steps command for walking through a placement.
func (c *CLI) stepsCommand() *cobra.Command {
	var noCache bool
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "steps [local.csv] [global.csv]",
		Short: "Walk through the placement step by step",
		Long: `Walk through the placement construction interactively.

Each step shows the action taken (seed, add, or merge), the entities it
placed, and a snapshot of every structure on the canvas at that point.
Useful for understanding why an entity landed where it did.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.applyConfigDefaults(cmd, &opts)
			return c.runSteps(cmd.Context(), args[0], args[1], opts, noCache)
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVarP(&opts.Linkage, "linkage", "l", "", "linkage method: average (default), single, complete")
	cmd.Flags().Float64Var(&opts.Unit, "unit", 0, "scale constant in diameter = unit / similarity")

	return cmd
}

func (c *CLI) runSteps(ctx context.Context, localPath, globalPath string, opts pipeline.Options, noCache bool) error {
	local, global, err := loadMatrices(localPath, globalPath)
	if err != nil {
		return err
	}
	opts.LocalMatrix = local
	opts.GlobalMatrix = global
	opts.Logger = c.Logger

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	localTree, globalTree, _, err := runner.ClusterWithCacheInfo(ctx, opts)
	if err != nil {
		return err
	}
	pl, err := runner.Place(ctx, localTree, globalTree, opts)
	if err != nil {
		return err
	}
	if len(pl.Steps) == 0 {
		printInfo("Placement has no steps")
		return nil
	}

	p := tea.NewProgram(NewStepsModel(pl))
	_, err = p.Run()
	return err
}

// =============================================================================
// StepsModel - Interactive placement walkthrough
// =============================================================================

var (
	stepActionStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	stepAddedStyle  = lipgloss.NewStyle().Foreground(colorGreen)
	stepDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
)

// StepsModel is the bubbletea model for the placement walkthrough.
type StepsModel struct {
	Result *placement.Result
	Cursor int
}

// NewStepsModel creates a walkthrough model positioned at the first step.
func NewStepsModel(pl *placement.Result) StepsModel {
	return StepsModel{Result: pl}
}

func (m StepsModel) Init() tea.Cmd {
	return nil
}

func (m StepsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "left", "h", "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "right", "l", "down", "j", "enter", " ":
			if m.Cursor < len(m.Result.Steps)-1 {
				m.Cursor++
			}
		case "home", "g":
			m.Cursor = 0
		case "end", "G":
			m.Cursor = len(m.Result.Steps) - 1
		}
	}
	return m, nil
}

func (m StepsModel) View() string {
	step := m.Result.Steps[m.Cursor]

	var b strings.Builder
	b.WriteString(StyleTitle.Render("Placement Walkthrough"))
	b.WriteString("\n")
	b.WriteString(stepDimStyle.Render("←/→ navigate  g/G first/last  q quit"))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("%s %s",
		stepDimStyle.Render(fmt.Sprintf("Step %d/%d", m.Cursor+1, len(m.Result.Steps))),
		stepActionStyle.Render(string(step.Action))))
	if len(step.Added) > 0 {
		b.WriteString("  " + stepAddedStyle.Render(strings.Join(step.Added, ", ")))
	}
	b.WriteString("\n\n")

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	rows := make([][]string, 0, len(step.Structures))
	for _, s := range step.Structures {
		rows = append(rows, []string{
			strings.Join(s.PlacedLabels(), " "),
			fmt.Sprintf("%.3f", s.SimLocal),
			fmt.Sprintf("%.3f", s.SimGlobal),
			fmt.Sprintf("%.3f", s.Radius()),
			fmt.Sprintf("%.1f°", s.Theta),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Entities", "Local", "Global", "Radius", "Span").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})
	b.WriteString(t.Render())
	b.WriteString("\n\n")

	latest := touchedStructure(step)
	b.WriteString(stepDimStyle.Render("Coordinates"))
	b.WriteString("\n")
	for _, label := range latest.PlacedLabels() {
		pt := latest.Points[label]
		b.WriteString(fmt.Sprintf("  %-12s %s\n",
			label,
			StyleValue.Render(fmt.Sprintf("(%7.3f, %7.3f)  r=%.3f  θ=%6.1f°",
				pt.X, pt.Y, pt.Radius(), pt.Angle()))))
	}

	return b.String()
}

// touchedStructure returns the structure the step changed: the one holding
// the first added entity, or the newest structure for steps without adds.
func touchedStructure(step placement.Step) *placement.Cluster {
	if len(step.Added) > 0 {
		for _, s := range step.Structures {
			if _, ok := s.Points[step.Added[0]]; ok {
				return s
			}
		}
	}
	return step.Structures[len(step.Structures)-1]
}
