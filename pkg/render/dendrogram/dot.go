// Package dendrogram renders clustering trees as node-link diagrams via
// Graphviz: internal nodes carry the join similarity, leaves carry entity
// labels.
package dendrogram

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/accviz/accviz/pkg/dendro"
	"github.com/accviz/accviz/pkg/render"
)

// Options configures dendrogram rendering.
type Options struct {
	// Title is drawn above the tree when set.
	Title string
}

// ToDOT converts a tree to Graphviz DOT format. The resulting DOT string
// can be rendered with [RenderSVG] or [RenderPNG].
func ToDOT(t *dendro.Tree, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph dendrogram {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	if opts.Title != "" {
		fmt.Fprintf(&buf, "  label=%q;\n  labelloc=t;\n  fontsize=20;\n", opts.Title)
	}
	buf.WriteString("  node [fontsize=16];\n")
	buf.WriteString("  edge [arrowhead=none];\n")
	buf.WriteString("\n")

	t.WalkPost(func(id dendro.NodeID) {
		if t.IsLeaf(id) {
			fmt.Fprintf(&buf, "  n%d [shape=box, style=\"rounded,filled\", fillcolor=white, label=%q];\n",
				id, t.Label(id))
			return
		}
		fmt.Fprintf(&buf, "  n%d [shape=ellipse, label=\"%.3f\"];\n", id, t.Sim(id))
	})

	buf.WriteString("\n")
	t.WalkPost(func(id dendro.NodeID) {
		if t.IsLeaf(id) {
			return
		}
		fmt.Fprintf(&buf, "  n%d -> n%d;\n", id, t.Left(id))
		fmt.Fprintf(&buf, "  n%d -> n%d;\n", id, t.Right(id))
	})

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
// A scale of 2.0 produces a 2x resolution image for high-DPI displays.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(svg, scale)
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the Graphviz svg element so the viewBox starts
// at the origin and the pixel size matches it.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
