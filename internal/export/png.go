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
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"kinboard/internal/domain"
	"kinboard/internal/geom"
	"kinboard/internal/storage"
)

// PNGOptions controls PNG export behavior.
// - Scale: output pixels per canvas unit (default 1)
// - Margin: whitespace around the content bounding box, in canvas units
// - Canvases: if empty, export all
// - Styles control colors and stroke widths; reasonable defaults are applied for zero values.
//
//nolint:revive // clarity is preferred
type PNGOptions struct {
	Scale            float64
	Margin           float64
	ShapeStroke      domain.Stroke
	NodeStroke       domain.Stroke
	NodeFill         domain.Color
	ConnectionStroke domain.Stroke
	Canvases         []int
}

// ExportWorkspacePNGCanvases exports each canvas of the workspace as a separate PNG file.
// Output files will be named canvas-<n>.png under outDir or the workspace exports folder.
func ExportWorkspacePNGCanvases(wh *storage.WorkspaceHandle, outDir string, opt PNGOptions) error {
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
	scale := opt.Scale
	if scale <= 0 {
		scale = 1
	}

	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(wh.Root, "exports", outDir)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}

	canvases := canvasIndexes(len(wh.Workspace.Canvases), opt.Canvases)
	for _, cidx := range canvases {
		if cidx < 0 || cidx >= len(wh.Workspace.Canvases) {
			continue
		}
		cv := &wh.Workspace.Canvases[cidx]
		bounds := contentBounds(cv, margin)

		pixW := int(math.Round(bounds.W * scale))
		pixH := int(math.Round(bounds.H * scale))
		img := image.NewRGBA(image.Rect(0, 0, pixW, pixH))
		// Background white
		draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{255, 255, 255, 255}}, image.Point{}, draw.Src)

		// px maps a canvas point to device pixels.
		px := func(p geom.Pt) (int, int) {
			return int(math.Round((p.X - bounds.X) * scale)), int(math.Round((p.Y - bounds.Y) * scale))
		}

		sc := toRGBA(shapeStroke.Color)
		for _, s := range cv.Shapes {
			drawShapePNG(img, px, s, sc, scale)
		}

		cc := toRGBA(connStroke.Color)
		for _, conn := range cv.Connections {
			from, okF := connectionAnchor(cv, conn.SourceID)
			to, okT := connectionAnchor(cv, conn.TargetID)
			if !okF || !okT {
				continue
			}
			x0, y0 := px(from)
			x1, y1 := px(to)
			drawLine(img, x0, y0, x1, y1, cc)
		}

		nc := toRGBA(nodeStroke.Color)
		nf := toRGBA(nodeFill)
		for i := range cv.Nodes {
			n := &cv.Nodes[i]
			x0, y0 := px(geom.Pt{X: n.X, Y: n.Y})
			x1, y1 := px(geom.Pt{X: n.X + n.Width, Y: n.Y + n.Height})
			fillRect(img, x0, y0, x1-1, y1-1, nf)
			strokeRect(img, x0, y0, x1-1, y1-1, nc)
			drawLabel(img, x0+8, y0+16, n.Title, color.RGBA{0, 0, 0, 255})
		}

		name := filepath.Join(outDir, fmt.Sprintf("canvas-%d.png", cidx+1))
		f, err := os.Create(name)
		if err != nil {
			return fmt.Errorf("create png: %w", err)
		}
		if err := png.Encode(f, img); err != nil {
			_ = f.Close()
			return fmt.Errorf("encode png: %w", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close png: %w", err)
		}
	}
	return nil
}

func drawShapePNG(img *image.RGBA, px func(geom.Pt) (int, int), s domain.Shape, col color.RGBA, scale float64) {
	switch v := s.(type) {
	case *domain.Rectangle:
		b := v.BBox()
		x0, y0 := px(geom.Pt{X: b.X, Y: b.Y})
		x1, y1 := px(geom.Pt{X: b.X + b.W, Y: b.Y + b.H})
		strokeRect(img, x0, y0, x1-1, y1-1, col)
	case *domain.Circle:
		cx, cy := px(v.Center)
		strokeCircle(img, cx, cy, int(math.Round(v.Radius*scale)), col)
	case *domain.Line:
		drawPolyline(img, px, v.Points, col)
	case *domain.Arrow:
		drawPolyline(img, px, v.Points, col)
		if len(v.Points) >= 2 {
			from, to := v.Points[0], v.Points[1]
			l, r := arrowHead(from, to, 12/scale)
			tx, ty := px(to)
			lx, ly := px(l)
			rx, ry := px(r)
			drawLine(img, lx, ly, tx, ty, col)
			drawLine(img, rx, ry, tx, ty, col)
		}
	case *domain.Pen:
		drawPolyline(img, px, v.Points, col)
	case *domain.Image:
		b := v.BBox()
		x0, y0 := px(geom.Pt{X: b.X, Y: b.Y})
		x1, y1 := px(geom.Pt{X: b.X + b.W, Y: b.Y + b.H})
		fillRect(img, x0, y0, x1-1, y1-1, color.RGBA{238, 238, 238, 255})
		strokeRect(img, x0, y0, x1-1, y1-1, col)
		drawLabel(img, x0+4, y0+12, v.Source, color.RGBA{102, 102, 102, 255})
	}
}

func drawPolyline(img *image.RGBA, px func(geom.Pt) (int, int), pts []geom.Pt, col color.RGBA) {
	for i := 1; i < len(pts); i++ {
		x0, y0 := px(pts[i-1])
		x1, y1 := px(pts[i])
		drawLine(img, x0, y0, x1, y1, col)
	}
}

// drawLabel renders a single line of text with the built-in 7x13 face.
// (x, y) is the baseline origin in device pixels.
func drawLabel(img *image.RGBA, x, y int, text string, col color.RGBA) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

func toRGBA(c domain.Color) color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

// strokeRect draws a 1px axis-aligned rectangle border inclusive of endpoints.
func strokeRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	// top and bottom
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y0, col)
		img.SetRGBA(x, y1, col)
	}
	// left and right
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x0, y, col)
		img.SetRGBA(x1, y, col)
	}
}

func fillRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			img.SetRGBA(x, y, col)
		}
	}
}

// drawLine is a Bresenham segment; SetRGBA clips out-of-bounds pixels.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		img.SetRGBA(x0, y0, col)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func strokeCircle(img *image.RGBA, cx, cy, r int, col color.RGBA) {
	if r <= 0 {
		img.SetRGBA(cx, cy, col)
		return
	}
	x, y := r, 0
	err := 1 - r
	for x >= y {
		img.SetRGBA(cx+x, cy+y, col)
		img.SetRGBA(cx+y, cy+x, col)
		img.SetRGBA(cx-y, cy+x, col)
		img.SetRGBA(cx-x, cy+y, col)
		img.SetRGBA(cx-x, cy-y, col)
		img.SetRGBA(cx-y, cy-x, col)
		img.SetRGBA(cx+y, cy-x, col)
		img.SetRGBA(cx+x, cy-y, col)
		y++
		if err < 0 {
			err += 2*y + 1
		} else {
			x--
			err += 2*(y-x) + 1
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
