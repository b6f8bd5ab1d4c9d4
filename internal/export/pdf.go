/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"

	"kinboard/internal/domain"
	"kinboard/internal/geom"
	"kinboard/internal/storage"
	"kinboard/internal/textlayout"
)

// PDFOptions controls PDF export behavior.
// Units are points (pt); canvas units map 1:1 to points.
// Vector text uses built-in Helvetica for portability; font embedding can
// be added later with TTFs.
//
// Coordinates:
// - Each canvas becomes one page sized to its content bounding box plus Margin.
// - Page origin is top-left; content is shifted so the box lands at the origin.
//
//nolint:revive // keep options grouped and explicit for clarity
type PDFOptions struct {
	Margin           float64
	ShapeStroke      domain.Stroke
	NodeStroke       domain.Stroke
	NodeFill         domain.Color
	ConnectionStroke domain.Stroke
	Canvases         []int // if empty, export all canvases
}

// ExportWorkspacePDF exports the workspace to a single multi-page PDF placed
// at outPath, one page per canvas.
func ExportWorkspacePDF(wh *storage.WorkspaceHandle, outPath string, opt PDFOptions) error {
	if wh == nil {
		return fmt.Errorf("workspace handle is nil")
	}
	if len(wh.Workspace.Canvases) == 0 {
		return fmt.Errorf("workspace has no canvases")
	}

	// Default styles
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

	canvases := canvasIndexes(len(wh.Workspace.Canvases), opt.Canvases)
	if len(canvases) == 0 {
		return fmt.Errorf("no canvases selected")
	}
	first := canvases[0]
	if first < 0 || first >= len(wh.Workspace.Canvases) {
		return fmt.Errorf("canvas index out of range")
	}

	// Size the document from the first exported canvas; every page gets its
	// own explicit format anyway.
	firstBounds := contentBounds(&wh.Workspace.Canvases[first], margin)
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: firstBounds.W, Ht: firstBounds.H},
		OrientationStr: "",
	})
	pdf.SetTitle(fmt.Sprintf("%s — Board PDF", wh.Workspace.Name), false)
	pdf.SetAuthor("Kinboard", false)
	pdf.SetFont("Helvetica", "", 12)

	wrap := textlayout.NewWordWrap(textlayout.BasicProvider{})

	for _, cidx := range canvases {
		if cidx < 0 || cidx >= len(wh.Workspace.Canvases) {
			continue
		}
		cv := &wh.Workspace.Canvases[cidx]
		bounds := contentBounds(cv, margin)
		pdf.AddPageFormat("", gofpdf.SizeType{Wd: bounds.W, Ht: bounds.H})

		// tx maps a canvas point onto the page.
		tx := func(p geom.Pt) (float64, float64) {
			return p.X - bounds.X, p.Y - bounds.Y
		}

		setDrawColor(pdf, shapeStroke.Color)
		pdf.SetLineWidth(shapeStroke.Width)
		for _, s := range cv.Shapes {
			drawShapePDF(pdf, tx, s)
		}

		setDrawColor(pdf, connStroke.Color)
		pdf.SetLineWidth(connStroke.Width)
		for _, conn := range cv.Connections {
			from, okF := connectionAnchor(cv, conn.SourceID)
			to, okT := connectionAnchor(cv, conn.TargetID)
			if !okF || !okT {
				continue
			}
			x0, y0 := tx(from)
			x1, y1 := tx(to)
			pdf.Line(x0, y0, x1, y1)
		}

		setDrawColor(pdf, nodeStroke.Color)
		setFillColor(pdf, nodeFill)
		pdf.SetLineWidth(nodeStroke.Width)
		for i := range cv.Nodes {
			drawNodePDF(pdf, wrap, tx, &cv.Nodes[i])
		}
	}

	// Ensure output path is under the workspace exports folder if relative
	if !filepath.IsAbs(outPath) {
		outPath = filepath.Join(wh.Root, "exports", outPath)
	}
	dir := filepath.Dir(outPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func drawShapePDF(pdf *gofpdf.Fpdf, tx func(geom.Pt) (float64, float64), s domain.Shape) {
	switch v := s.(type) {
	case *domain.Rectangle:
		b := v.BBox()
		x, y := tx(geom.Pt{X: b.X, Y: b.Y})
		pdf.Rect(x, y, b.W, b.H, "D")
	case *domain.Circle:
		cx, cy := tx(v.Center)
		pdf.Ellipse(cx, cy, v.Radius, v.Radius, 0, "D")
	case *domain.Line:
		drawPolylinePDF(pdf, tx, v.Points)
	case *domain.Arrow:
		drawPolylinePDF(pdf, tx, v.Points)
		if len(v.Points) >= 2 {
			from, to := v.Points[0], v.Points[1]
			l, r := arrowHead(from, to, 12)
			hx, hy := tx(to)
			lx, ly := tx(l)
			rx, ry := tx(r)
			pdf.Line(lx, ly, hx, hy)
			pdf.Line(rx, ry, hx, hy)
		}
	case *domain.Pen:
		drawPolylinePDF(pdf, tx, v.Points)
	case *domain.Image:
		b := v.BBox()
		x, y := tx(geom.Pt{X: b.X, Y: b.Y})
		pdf.Rect(x, y, b.W, b.H, "D")
		pdf.SetFont("Helvetica", "", 8)
		pdf.Text(x+4, y+12, v.Source)
		pdf.SetFont("Helvetica", "", 12)
	}
}

func drawNodePDF(pdf *gofpdf.Fpdf, wrap *textlayout.WordWrapLayouter, tx func(geom.Pt) (float64, float64), n *domain.Node) {
	x, y := tx(geom.Pt{X: n.X, Y: n.Y})
	pdf.Rect(x, y, n.Width, n.Height, "FD")

	pad := 10.0
	cy := y + pad + 12
	pdf.SetFont("Helvetica", "B", 13)
	pdf.Text(x+pad, cy, n.Title)
	pdf.SetFont("Helvetica", "", 11)
	if n.Body == "" {
		return
	}
	cy += 18
	box, err := wrap.Layout([]textlayout.Span{{Text: n.Body}}, float32(n.Width-2*pad))
	if err != nil {
		return
	}
	for _, line := range box.Lines {
		if cy > y+n.Height-pad {
			break
		}
		var text string
		for _, sp := range line.Spans {
			text += sp.Text
		}
		pdf.Text(x+pad, cy, text)
		cy += 11 * 1.2
	}
}

func drawPolylinePDF(pdf *gofpdf.Fpdf, tx func(geom.Pt) (float64, float64), pts []geom.Pt) {
	for i := 1; i < len(pts); i++ {
		x0, y0 := tx(pts[i-1])
		x1, y1 := tx(pts[i])
		pdf.Line(x0, y0, x1, y1)
	}
}

func canvasIndexes(total int, specific []int) []int {
	if len(specific) == 0 {
		out := make([]int, total)
		for i := range out {
			out[i] = i
		}
		return out
	}
	return specific
}

func setDrawColor(pdf *gofpdf.Fpdf, c domain.Color) {
	pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
}

func setFillColor(pdf *gofpdf.Fpdf, c domain.Color) {
	pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
}
