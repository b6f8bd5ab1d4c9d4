/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"kinboard/internal/domain"
	"kinboard/internal/geom"
	"kinboard/internal/storage"
	"kinboard/internal/textlayout"
)

// SVGOptions controls SVG export behavior.
// The coordinate system matches the model (canvas units); the viewBox is
// the content bounding box plus Margin on every side.
//
//nolint:revive // clarity is preferred
type SVGOptions struct {
	Margin           float64
	ShapeStroke      domain.Stroke
	NodeStroke       domain.Stroke
	NodeFill         domain.Color
	ConnectionStroke domain.Stroke
	Canvases         []int
}

// ExportWorkspaceSVGCanvases exports each canvas of the workspace as a separate SVG file.
// Files will be named canvas-<n>.svg under outDir or the workspace exports folder.
func ExportWorkspaceSVGCanvases(wh *storage.WorkspaceHandle, outDir string, opt SVGOptions) error {
	if wh == nil {
		return fmt.Errorf("workspace handle is nil")
	}

	// Defaults
	shapeStroke := opt.ShapeStroke
	if shapeStroke.Width == 0 {
		shapeStroke = domain.Stroke{Color: domain.Color{R: 0, G: 0, B: 0, A: 255}, Width: 1.5}
	}
	nodeStroke := opt.NodeStroke
	if nodeStroke.Width == 0 {
		nodeStroke = domain.Stroke{Color: domain.Color{R: 60, G: 60, B: 60, A: 255}, Width: 1}
	}
	nodeFill := opt.NodeFill
	if nodeFill.IsZero() {
		nodeFill = domain.Color{R: 255, G: 250, B: 205, A: 255}
	}
	connStroke := opt.ConnectionStroke
	if connStroke.Width == 0 {
		connStroke = domain.Stroke{Color: domain.Color{R: 100, G: 100, B: 100, A: 255}, Width: 1}
	}
	margin := opt.Margin
	if margin <= 0 {
		margin = 40
	}

	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(wh.Root, "exports", outDir)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}

	wrap := textlayout.NewWordWrap(textlayout.BasicProvider{})

	canvases := canvasIndexes(len(wh.Workspace.Canvases), opt.Canvases)
	for _, cidx := range canvases {
		if cidx < 0 || cidx >= len(wh.Workspace.Canvases) {
			continue
		}
		cv := &wh.Workspace.Canvases[cidx]
		bounds := contentBounds(cv, margin)

		var buf bytes.Buffer
		var werr error
		wf := func(format string, args ...any) {
			if werr != nil {
				return
			}
			_, werr = fmt.Fprintf(&buf, format, args...)
		}

		wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
		wf("<svg xmlns=\"http://www.w3.org/2000/svg\" version=\"1.1\" width=\"%dpx\" height=\"%dpx\" viewBox=\"%g %g %g %g\">\n",
			int(math.Round(bounds.W)), int(math.Round(bounds.H)), bounds.X, bounds.Y, bounds.W, bounds.H)
		// Background white
		wf("  <rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" fill=\"#ffffff\"/>\n", bounds.X, bounds.Y, bounds.W, bounds.H)

		sc := svgColor(shapeStroke.Color)
		for _, s := range cv.Shapes {
			writeShapeSVG(wf, s, sc, shapeStroke.Width)
		}

		// Connections go under the cards so line ends hide behind them.
		cc := svgColor(connStroke.Color)
		for _, conn := range cv.Connections {
			from, okF := connectionAnchor(cv, conn.SourceID)
			to, okT := connectionAnchor(cv, conn.TargetID)
			if !okF || !okT {
				continue
			}
			wf("  <line x1=\"%g\" y1=\"%g\" x2=\"%g\" y2=\"%g\" stroke=\"%s\" stroke-width=\"%g\"/>\n",
				from.X, from.Y, to.X, to.Y, cc, connStroke.Width)
		}

		nc := svgColor(nodeStroke.Color)
		nf := svgColor(nodeFill)
		for i := range cv.Nodes {
			writeNodeSVG(wf, wrap, &cv.Nodes[i], nf, nc, nodeStroke.Width)
		}

		wf("</svg>\n")

		if werr != nil {
			return fmt.Errorf("build svg: %w", werr)
		}

		name := filepath.Join(outDir, fmt.Sprintf("canvas-%d.svg", cidx+1))
		if err := os.WriteFile(name, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write svg: %w", err)
		}
	}
	return nil
}

func writeShapeSVG(wf func(string, ...any), s domain.Shape, stroke string, width float64) {
	switch v := s.(type) {
	case *domain.Rectangle:
		b := v.BBox()
		wf("  <rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" fill=\"none\" stroke=\"%s\" stroke-width=\"%g\"/>\n",
			b.X, b.Y, b.W, b.H, stroke, width)
	case *domain.Circle:
		wf("  <circle cx=\"%g\" cy=\"%g\" r=\"%g\" fill=\"none\" stroke=\"%s\" stroke-width=\"%g\"/>\n",
			v.Center.X, v.Center.Y, v.Radius, stroke, width)
	case *domain.Line:
		if len(v.Points) >= 2 {
			wf("  <line x1=\"%g\" y1=\"%g\" x2=\"%g\" y2=\"%g\" stroke=\"%s\" stroke-width=\"%g\"/>\n",
				v.Points[0].X, v.Points[0].Y, v.Points[1].X, v.Points[1].Y, stroke, width)
		}
	case *domain.Arrow:
		if len(v.Points) >= 2 {
			from, to := v.Points[0], v.Points[1]
			wf("  <line x1=\"%g\" y1=\"%g\" x2=\"%g\" y2=\"%g\" stroke=\"%s\" stroke-width=\"%g\"/>\n",
				from.X, from.Y, to.X, to.Y, stroke, width)
			l, r := arrowHead(from, to, 12)
			wf("  <polyline points=\"%g,%g %g,%g %g,%g\" fill=\"none\" stroke=\"%s\" stroke-width=\"%g\"/>\n",
				l.X, l.Y, to.X, to.Y, r.X, r.Y, stroke, width)
		}
	case *domain.Pen:
		if len(v.Points) >= 2 {
			wf("  <polyline points=\"%s\" fill=\"none\" stroke=\"%s\" stroke-width=\"%g\"/>\n",
				svgPoints(v.Points), stroke, width)
		}
	case *domain.Image:
		// The raster itself stays in assets/; export a labeled placeholder.
		b := v.BBox()
		wf("  <rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" fill=\"#eeeeee\" stroke=\"%s\" stroke-width=\"%g\"/>\n",
			b.X, b.Y, b.W, b.H, stroke, width)
		wf("  <text x=\"%g\" y=\"%g\" font-family=\"Helvetica, Arial, sans-serif\" font-size=\"10\" fill=\"#666\">%s</text>\n",
			b.X+4, b.Y+14, escText(v.Source))
	}
}

func writeNodeSVG(wf func(string, ...any), wrap *textlayout.WordWrapLayouter, n *domain.Node, fill, stroke string, width float64) {
	wf("  <rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" rx=\"6\" ry=\"6\" fill=\"%s\" stroke=\"%s\" stroke-width=\"%g\"/>\n",
		n.X, n.Y, n.Width, n.Height, fill, stroke, width)

	pad := 10.0
	cy := n.Y + pad + 12
	wf("  <text x=\"%g\" y=\"%g\" font-family=\"Helvetica, Arial, sans-serif\" font-size=\"13\" font-weight=\"bold\" fill=\"#000\">%s</text>\n",
		n.X+pad, cy, escText(n.Title))
	if n.Body == "" {
		return
	}
	cy += 18
	box, err := wrap.Layout([]textlayout.Span{{Text: n.Body}}, float32(n.Width-2*pad))
	if err != nil {
		return
	}
	lineH := float64(box.Metrics.Ascent + box.Metrics.Descent + box.Metrics.LineGap)
	for _, line := range box.Lines {
		if cy > n.Y+n.Height-pad {
			break
		}
		var text string
		for _, sp := range line.Spans {
			text += sp.Text
		}
		wf("  <text x=\"%g\" y=\"%g\" font-family=\"Helvetica, Arial, sans-serif\" font-size=\"11\" fill=\"#222\">%s</text>\n",
			n.X+pad, cy, escText(text))
		cy += lineH
	}
}

// contentBounds returns the union of all entity bounding boxes expanded by
// margin. An empty canvas gets a fixed default so exports never degenerate.
func contentBounds(cv *domain.Canvas, margin float64) geom.Rect {
	var b geom.Rect
	first := true
	add := func(r geom.Rect) {
		if first {
			b = r
			first = false
			return
		}
		b = b.Union(r)
	}
	for _, s := range cv.Shapes {
		add(s.BBox())
	}
	for i := range cv.Nodes {
		add(cv.Nodes[i].BBox())
	}
	if first {
		b = geom.R(0, 0, 800, 600)
	}
	return geom.R(b.X-margin, b.Y-margin, b.W+2*margin, b.H+2*margin)
}

// connectionAnchor resolves a connection endpoint id to its anchor point.
func connectionAnchor(cv *domain.Canvas, id string) (geom.Pt, bool) {
	if n := cv.NodeByID(id); n != nil {
		return n.Anchor(), true
	}
	if s := cv.ShapeByID(id); s != nil {
		return s.Anchor(), true
	}
	return geom.Pt{}, false
}

// arrowHead returns the two wing points of an arrowhead at to, pointing
// along the from->to direction.
func arrowHead(from, to geom.Pt, size float64) (geom.Pt, geom.Pt) {
	ang := math.Atan2(to.Y-from.Y, to.X-from.X)
	spread := math.Pi / 7
	l := geom.Pt{X: to.X - size*math.Cos(ang-spread), Y: to.Y - size*math.Sin(ang-spread)}
	r := geom.Pt{X: to.X - size*math.Cos(ang+spread), Y: to.Y - size*math.Sin(ang+spread)}
	return l, r
}

func svgPoints(pts []geom.Pt) string {
	var buf bytes.Buffer
	for i, p := range pts {
		if i > 0 {
			buf.WriteByte(' ')
		}
		fmt.Fprintf(&buf, "%g,%g", p.X, p.Y)
	}
	return buf.String()
}

func svgColor(c domain.Color) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func escText(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '&':
			out = append(out, '&', 'a', 'm', 'p', ';')
		case '<':
			out = append(out, '&', 'l', 't', ';')
		case '>':
			out = append(out, '&', 'g', 't', ';')
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}
