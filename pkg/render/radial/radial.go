// Package radial renders placement results as concentric-arc diagrams.
//
// Entities appear as points in the plane produced by the placement engine:
// angular separation reflects local similarity, radial distance reflects
// global similarity. Reference circles mark each occupied radius, and
// optional spokes connect every entity to the origin.
package radial

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/accviz/accviz/pkg/placement"
)

// Style names a color palette.
type Style string

const (
	StyleSimple Style = "simple"
	StyleDark   Style = "dark"
)

// ParseStyle parses a style name.
func ParseStyle(s string) (Style, error) {
	switch Style(strings.ToLower(s)) {
	case StyleSimple:
		return StyleSimple, nil
	case StyleDark:
		return StyleDark, nil
	default:
		return "", fmt.Errorf("unknown style %q (want simple or dark)", s)
	}
}

type palette struct {
	background string
	circle     string
	spoke      string
	point      string
	text       string
}

var palettes = map[Style]palette{
	StyleSimple: {
		background: "#ffffff",
		circle:     "#d0d7de",
		spoke:      "#d0d7de",
		point:      "#1f6feb",
		text:       "#24292f",
	},
	StyleDark: {
		background: "#0d1117",
		circle:     "#30363d",
		spoke:      "#30363d",
		point:      "#58a6ff",
		text:       "#c9d1d9",
	},
}

// Option configures SVG rendering.
type Option func(*renderer)

// WithStyle selects the color palette. Default simple.
func WithStyle(s Style) Option { return func(r *renderer) { r.style = s } }

// WithSpokes draws a line from the origin to every entity.
func WithSpokes() Option { return func(r *renderer) { r.spokes = true } }

// WithSize sets the output edge length in pixels. Default 800.
func WithSize(px int) Option { return func(r *renderer) { r.size = px } }

type renderer struct {
	style  Style
	spokes bool
	size   int
}

// RenderSVG renders the final placement as an SVG document. Output is
// deterministic: entities and circles are emitted in sorted order.
func RenderSVG(res *placement.Result, opts ...Option) []byte {
	r := renderer{style: StyleSimple, size: 800}
	for _, opt := range opts {
		opt(&r)
	}
	pal := palettes[r.style]

	final := res.Final
	labels := final.PlacedLabels()

	maxR := 0.0
	for _, p := range final.Points {
		if rad := p.Radius(); rad > maxR {
			maxR = rad
		}
	}
	if maxR == 0 {
		maxR = 1
	}
	// World units → pixels, leaving a margin for labels.
	scale := float64(r.size) / 2 * 0.85 / maxR
	cx := float64(r.size) / 2
	toScreen := func(p placement.Point) (float64, float64) {
		return cx + p.X*scale, cx - p.Y*scale
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" width="%d" height="%d">`+"\n",
		r.size, r.size, r.size, r.size)
	fmt.Fprintf(&buf, `  <rect width="%d" height="%d" fill="%s"/>`+"\n", r.size, r.size, pal.background)

	// One reference circle per occupied radius.
	for _, radius := range occupiedRadii(final) {
		fmt.Fprintf(&buf, `  <circle cx="%.1f" cy="%.1f" r="%.1f" fill="none" stroke="%s" stroke-dasharray="4 4"/>`+"\n",
			cx, cx, radius*scale, pal.circle)
	}

	if r.spokes {
		for _, l := range labels {
			x, y := toScreen(final.Points[l])
			fmt.Fprintf(&buf, `  <line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s"/>`+"\n",
				cx, cx, x, y, pal.spoke)
		}
	}

	for _, l := range labels {
		p := final.Points[l]
		x, y := toScreen(p)
		fmt.Fprintf(&buf, `  <circle cx="%.1f" cy="%.1f" r="5" fill="%s"/>`+"\n", x, y, pal.point)

		// Label sits just outside the point, along the radial direction.
		lx, ly := x, y-12.0
		if rad := p.Radius(); rad > 0 {
			lx = x + p.X/rad*14
			ly = y - p.Y/rad*14
		}
		fmt.Fprintf(&buf, `  <text x="%.1f" y="%.1f" font-family="sans-serif" font-size="14" fill="%s" text-anchor="middle" dominant-baseline="middle">%s</text>`+"\n",
			lx, ly, pal.text, escape(l))
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// occupiedRadii returns the distinct point radii, ascending. Radii within a
// rounding hair of each other collapse into one circle.
func occupiedRadii(c *placement.Cluster) []float64 {
	seen := make(map[int64]float64)
	for _, p := range c.Points {
		key := int64(math.Round(p.Radius() * 1e6))
		seen[key] = p.Radius()
	}
	out := make([]float64, 0, len(seen))
	for _, r := range seen {
		out = append(out, r)
	}
	sort.Float64s(out)
	return out
}

func escape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
