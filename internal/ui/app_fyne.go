//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"encoding/json"
	"fmt"
	"image/color"
	"image/png"
	"log/slog"
	"math"
	"os"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	board "kinboard/internal/canvas"
	"kinboard/internal/crash"
	"kinboard/internal/domain"
	"kinboard/internal/export"
	"kinboard/internal/geom"
	applog "kinboard/internal/log"
	"kinboard/internal/storage"
	"kinboard/internal/telemetry"
	"kinboard/internal/undo"
	"kinboard/internal/version"
)

// Run starts the Fyne-based desktop UI. workspaceDir names the board
// workspace to open; when the directory holds no manifest yet a fresh
// workspace is initialized in place.
func Run(workspaceDir string) error {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("ui")
	l.Info("starting UI")

	var wh *storage.WorkspaceHandle
	defer func() { crash.Recover(wh) }()

	if workspaceDir == "" {
		workspaceDir = "."
	}
	var err error
	wh, err = storage.Open(workspaceDir)
	if err != nil {
		wh, err = storage.InitWorkspace(workspaceDir, domain.Workspace{Name: "My Board"})
		if err != nil {
			return fmt.Errorf("open or init workspace: %w", err)
		}
	}

	fyneApp := app.NewWithID("kinboard")
	w := fyneApp.NewWindow("Kinboard")
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 1200)
	winH := prefs.IntWithFallback("window.height", 800)
	if winW < 800 {
		winW = 800
	}
	if winH < 600 {
		winH = 600
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	status := widget.NewLabel("Ready")
	store := storage.NewCanvasStore(wh)
	if len(wh.Workspace.Canvases) == 0 {
		store.AddCanvas("Canvas 1")
	}

	currentCanvasIdx := 0
	bc := NewBoardCanvas(board.New(&wh.Workspace.Canvases[currentCanvasIdx], store))

	// Undo manager; snapshots capture the whole canvas document.
	undoMgr := undo.NewManager(undo.Config{
		MaxBytes:     32 * 1024 * 1024,
		MaxPerCanvas: 20,
		MinInterval:  300 * time.Millisecond,
	})

	marshalCanvas := func() []byte {
		blob, err := json.Marshal(&wh.Workspace.Canvases[currentCanvasIdx])
		if err != nil {
			l.Error("snapshot marshal failed", slog.Any("err", err))
			return nil
		}
		return blob
	}

	// preChange holds the canvas state before the next mutation, so a
	// pushed snapshot restores the document to where it was.
	preChange := marshalCanvas()
	recordChange := func() {
		cv := &wh.Workspace.Canvases[currentCanvasIdx]
		if preChange != nil {
			undoMgr.PushSnapshot(undo.Snapshot{CanvasID: cv.ID, Blob: preChange, TS: time.Now()})
		}
		preChange = marshalCanvas()
	}

	applySnapshot := func(blob []byte) {
		var cv domain.Canvas
		if err := json.Unmarshal(blob, &cv); err != nil {
			l.Error("snapshot restore failed", slog.Any("err", err))
			return
		}
		wh.Workspace.Canvases[currentCanvasIdx] = cv
		preChange = marshalCanvas()
		bc.SetEngine(board.New(&wh.Workspace.Canvases[currentCanvasIdx], store))
	}

	saveWorkspace := func() {
		if err := storage.Save(wh); err != nil {
			l.Error("save failed", slog.Any("err", err))
			status.SetText("Save failed: " + err.Error())
			return
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := storage.UpdateIndex(ctx, wh.Root, wh.Workspace); err != nil {
				l.Warn("index update failed", slog.Any("err", err))
			}
		}()
		status.SetText("Saved")
	}

	onChange := func() {
		recordChange()
		saveWorkspace()
		bc.Refresh()
	}
	bc.Engine().OnCanvasChange = onChange

	switchCanvas := func(idx int) {
		if idx < 0 || idx >= len(wh.Workspace.Canvases) {
			return
		}
		currentCanvasIdx = idx
		preChange = marshalCanvas()
		eng := board.New(&wh.Workspace.Canvases[idx], store)
		eng.OnCanvasChange = onChange
		bc.SetEngine(eng)
		status.SetText("Canvas: " + wh.Workspace.Canvases[idx].Name)
	}

	// Canvas list (left panel)
	canvasList := widget.NewList(
		func() int { return len(wh.Workspace.Canvases) },
		func() fyne.CanvasObject { return widget.NewLabel("canvas") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			o.(*widget.Label).SetText(wh.Workspace.Canvases[i].Name)
		},
	)
	canvasList.OnSelected = func(id widget.ListItemID) { switchCanvas(id) }

	addCanvasBtn := widget.NewButton("New Canvas", func() {
		entry := widget.NewEntry()
		entry.SetText(fmt.Sprintf("Canvas %d", len(wh.Workspace.Canvases)+1))
		dialog.ShowForm("New Canvas", "Create", "Cancel",
			[]*widget.FormItem{widget.NewFormItem("Name", entry)},
			func(ok bool) {
				if !ok {
					return
				}
				store.AddCanvas(entry.Text)
				saveWorkspace()
				canvasList.Refresh()
			}, w)
	})

	// Tool palette
	toolBtn := func(label string, t board.Tool) *widget.Button {
		return widget.NewButton(label, func() {
			bc.Engine().SetTool(t)
			status.SetText("Tool: " + label)
			telemetry.Event("canvas.tool", map[string]any{"tool": t.String()})
		})
	}
	deleteBtn := widget.NewButton("Delete", func() {
		if err := bc.Engine().DeleteSelection(); err != nil {
			status.SetText("Delete failed: " + err.Error())
			return
		}
		bc.Refresh()
	})
	tools := container.NewHBox(
		toolBtn("Select", board.ToolSelect),
		toolBtn("Rect", board.ToolRect),
		toolBtn("Circle", board.ToolCircle),
		toolBtn("Line", board.ToolLine),
		toolBtn("Arrow", board.ToolArrow),
		toolBtn("Pen", board.ToolPen),
		toolBtn("Note", board.ToolNote),
		toolBtn("Connect", board.ToolConnect),
		widget.NewSeparator(),
		deleteBtn,
	)

	// Search panel
	searchEntry := widget.NewEntry()
	searchEntry.SetPlaceHolder("Search notes…")
	searchResults := widget.NewLabel("")
	searchResults.Wrapping = fyne.TextWrapWord
	runSearch := func() {
		q := searchEntry.Text
		if q == "" {
			searchResults.SetText("")
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		res, err := storage.Search(ctx, wh.Root, storage.SearchQuery{Text: q, Limit: 20})
		if err != nil {
			searchResults.SetText("Search failed: " + err.Error())
			return
		}
		out := ""
		for _, r := range res {
			out += fmt.Sprintf("%s  %s\n", r.Path, r.Snippet)
		}
		if out == "" {
			out = "No matches"
		}
		searchResults.SetText(out)
	}
	searchEntry.OnSubmitted = func(string) { runSearch() }

	left := container.NewBorder(
		container.NewVBox(addCanvasBtn, searchEntry, widget.NewButton("Search", runSearch)),
		nil, nil, nil,
		container.NewVSplit(canvasList, container.NewScroll(searchResults)),
	)

	// Menus
	exportPDF := fyne.NewMenuItem("Export PDF…", func() {
		if err := export.ExportWorkspacePDF(wh, "board.pdf", export.PDFOptions{}); err != nil {
			dialog.ShowError(err, w)
			return
		}
		status.SetText("Exported exports/board.pdf")
	})
	exportPNG := fyne.NewMenuItem("Export PNG…", func() {
		if err := export.ExportWorkspacePNGCanvases(wh, "png", export.PNGOptions{}); err != nil {
			dialog.ShowError(err, w)
			return
		}
		status.SetText("Exported exports/png/")
	})
	exportSVG := fyne.NewMenuItem("Export SVG…", func() {
		if err := export.ExportWorkspaceSVGCanvases(wh, "svg", export.SVGOptions{}); err != nil {
			dialog.ShowError(err, w)
			return
		}
		status.SetText("Exported exports/svg/")
	})
	saveItem := fyne.NewMenuItem("Save", saveWorkspace)
	undoItem := fyne.NewMenuItem("Undo", func() {
		cv := &wh.Workspace.Canvases[currentCanvasIdx]
		if s, ok := undoMgr.Undo(cv.ID); ok {
			applySnapshot(s.Blob)
			saveWorkspace()
		}
	})
	redoItem := fyne.NewMenuItem("Redo", func() {
		cv := &wh.Workspace.Canvases[currentCanvasIdx]
		if s, ok := undoMgr.Redo(cv.ID); ok {
			applySnapshot(s.Blob)
			saveWorkspace()
		}
	})
	rebuildItem := fyne.NewMenuItem("Rebuild Index", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := storage.RebuildIndex(ctx, wh.Root, wh.Workspace); err != nil {
			dialog.ShowError(err, w)
			return
		}
		status.SetText("Index rebuilt")
	})
	aboutItem := fyne.NewMenuItem("About", func() {
		dialog.ShowInformation("Kinboard", "Kinboard "+version.String(), w)
	})
	w.SetMainMenu(fyne.NewMainMenu(
		fyne.NewMenu("File", saveItem, fyne.NewMenuItemSeparator(), exportPDF, exportPNG, exportSVG),
		fyne.NewMenu("Edit", undoItem, redoItem),
		fyne.NewMenu("Tools", rebuildItem),
		fyne.NewMenu("Help", aboutItem),
	))

	// Image drop onto the board
	w.SetOnDropped(func(pos fyne.Position, uris []fyne.URI) {
		for _, u := range uris {
			data, err := os.ReadFile(u.Path())
			if err != nil {
				l.Warn("drop read failed", slog.Any("err", err))
				continue
			}
			img, decoded, err := bc.Engine().DropImage(u.Name(), data, geom.Pt{X: float64(pos.X), Y: float64(pos.Y)})
			if err != nil {
				status.SetText("Drop rejected: " + err.Error())
				continue
			}
			// Persist the (possibly downscaled) raster under assets/
			f, err := os.Create(wh.AssetPath(img.Source))
			if err == nil {
				_ = png.Encode(f, decoded)
				_ = f.Close()
			}
			bc.Refresh()
		}
	})

	// Losing the foreground abandons any gesture in progress so a missed
	// pointer-up can never leave a half-drawn shape behind.
	fyneApp.Lifecycle().SetOnExitedForeground(func() {
		bc.Engine().Cancel()
		bc.Refresh()
	})

	content := container.NewBorder(tools, status, left, nil, bc)
	w.SetContent(content)
	w.SetOnClosed(func() {
		prefs.SetInt("window.width", int(w.Canvas().Size().Width))
		prefs.SetInt("window.height", int(w.Canvas().Size().Height))
	})

	w.ShowAndRun()
	return nil
}

// BoardCanvas is the interactive whiteboard widget. All pointer math is
// delegated to the interaction engine; the widget only translates Fyne
// events into pointer/wheel calls and renders the document each frame.
type BoardCanvas struct {
	widget.BaseWidget
	eng *board.Engine

	dragging bool
	lastDrag fyne.Position
}

func NewBoardCanvas(eng *board.Engine) *BoardCanvas {
	bc := &BoardCanvas{eng: eng}
	bc.ExtendBaseWidget(bc)
	return bc
}

// Engine returns the active interaction engine.
func (b *BoardCanvas) Engine() *board.Engine { return b.eng }

// SetEngine swaps the engine (canvas switch, undo restore) and refreshes.
func (b *BoardCanvas) SetEngine(eng *board.Engine) {
	old := b.eng
	b.eng = eng
	if old != nil && old.OnCanvasChange != nil && eng.OnCanvasChange == nil {
		eng.OnCanvasChange = old.OnCanvasChange
	}
	b.Refresh()
}

func (b *BoardCanvas) PreferredSize() fyne.Size { return fyne.NewSize(800, 600) }

func pt(pos fyne.Position) geom.Pt {
	return geom.Pt{X: float64(pos.X), Y: float64(pos.Y)}
}

// Tapped runs a full click through the engine: press then release at the
// same point. Selection, note placement and connect-click all route here.
func (b *BoardCanvas) Tapped(e *fyne.PointEvent) {
	b.eng.PointerDown(pt(e.Position))
	b.eng.PointerUp(pt(e.Position))
	b.Refresh()
}

func (b *BoardCanvas) Dragged(e *fyne.DragEvent) {
	if !b.dragging {
		b.dragging = true
		start := fyne.NewPos(e.Position.X-e.Dragged.DX, e.Position.Y-e.Dragged.DY)
		b.eng.PointerDown(pt(start))
	}
	b.lastDrag = e.Position
	b.eng.PointerMove(pt(e.Position), 1)
	b.Refresh()
}

func (b *BoardCanvas) DragEnd() {
	if b.dragging {
		b.dragging = false
		b.eng.PointerUp(pt(b.lastDrag))
		b.Refresh()
	}
}

// Scrolled zooms about the cursor. Fyne reports wheel-up as positive DY;
// the engine treats positive delta as zoom out, so the sign flips here.
func (b *BoardCanvas) Scrolled(e *fyne.ScrollEvent) {
	b.eng.Wheel(pt(e.Position), float64(-e.Scrolled.DY))
	b.Refresh()
}

func (b *BoardCanvas) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.RGBA{R: 30, G: 30, B: 34, A: 255})
	return &boardCanvasRenderer{bc: b, bg: bg, objects: []fyne.CanvasObject{bg}}
}

// boardCanvasRenderer rebuilds its object list from the document on every
// layout. Boards stay small (hundreds of entities) so the rebuild is cheap
// compared to tracking incremental diffs.
type boardCanvasRenderer struct {
	bc      *BoardCanvas
	bg      *canvas.Rectangle
	objects []fyne.CanvasObject
}

func (r *boardCanvasRenderer) Destroy()                     {}
func (r *boardCanvasRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *boardCanvasRenderer) MinSize() fyne.Size           { return r.bc.PreferredSize() }
func (r *boardCanvasRenderer) Refresh()                     { r.Layout(r.bc.Size()); canvas.Refresh(r.bc) }

var (
	shapeStrokeCol = color.RGBA{R: 230, G: 230, B: 230, A: 255}
	nodeFillCol    = color.RGBA{R: 255, G: 250, B: 205, A: 255}
	nodeStrokeCol  = color.RGBA{R: 60, G: 60, B: 60, A: 255}
	connCol        = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	selectionCol   = color.RGBA{R: 0, G: 170, B: 255, A: 255}
	previewCol     = color.RGBA{R: 0, G: 200, B: 120, A: 255}
	guideCol       = color.RGBA{R: 255, G: 100, B: 220, A: 255}
)

func (r *boardCanvasRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	r.bg.Move(fyne.NewPos(0, 0))

	eng := r.bc.eng
	doc := eng.Doc()
	vp := eng.Viewport()
	objs := []fyne.CanvasObject{r.bg}

	toPos := func(p geom.Pt) fyne.Position {
		s := vp.ToScreen(p)
		return fyne.NewPos(float32(s.X), float32(s.Y))
	}
	line := func(a, b geom.Pt, col color.RGBA, width float32) {
		ln := canvas.NewLine(col)
		ln.StrokeWidth = width
		ln.Position1 = toPos(a)
		ln.Position2 = toPos(b)
		objs = append(objs, ln)
	}
	boxAt := func(b geom.Rect, fill color.Color, stroke color.RGBA) *canvas.Rectangle {
		rect := canvas.NewRectangle(fill)
		rect.StrokeColor = stroke
		rect.StrokeWidth = 1
		p0 := toPos(geom.Pt{X: b.X, Y: b.Y})
		rect.Move(p0)
		rect.Resize(fyne.NewSize(float32(b.W*vp.Scale), float32(b.H*vp.Scale)))
		objs = append(objs, rect)
		return rect
	}

	drawShape := func(s domain.Shape) {
		switch v := s.(type) {
		case *domain.Rectangle:
			boxAt(v.BBox(), color.Transparent, shapeStrokeCol)
		case *domain.Image:
			boxAt(v.BBox(), color.RGBA{R: 90, G: 90, B: 96, A: 255}, shapeStrokeCol)
		case *domain.Circle:
			c := canvas.NewCircle(color.Transparent)
			c.StrokeColor = shapeStrokeCol
			c.StrokeWidth = 1
			b := v.BBox()
			c.Move(toPos(geom.Pt{X: b.X, Y: b.Y}))
			c.Resize(fyne.NewSize(float32(b.W*vp.Scale), float32(b.H*vp.Scale)))
			objs = append(objs, c)
		case *domain.Line:
			if len(v.Points) >= 2 {
				line(v.Points[0], v.Points[1], shapeStrokeCol, 1)
			}
		case *domain.Arrow:
			if len(v.Points) >= 2 {
				line(v.Points[0], v.Points[1], shapeStrokeCol, 1)
				l, rr := arrowHeadPts(v.Points[0], v.Points[1], 12/vp.Scale)
				line(l, v.Points[1], shapeStrokeCol, 1)
				line(rr, v.Points[1], shapeStrokeCol, 1)
			}
		case *domain.Pen:
			for i := 1; i < len(v.Points); i++ {
				line(v.Points[i-1], v.Points[i], shapeStrokeCol, 1)
			}
		}
	}

	for _, s := range doc.Shapes {
		drawShape(s)
	}
	if d := eng.Draft(); d != nil {
		drawShape(d)
	}

	for _, conn := range doc.Connections {
		var from, to geom.Pt
		okF, okT := false, false
		if n := doc.NodeByID(conn.SourceID); n != nil {
			from, okF = n.Anchor(), true
		} else if s := doc.ShapeByID(conn.SourceID); s != nil {
			from, okF = s.Anchor(), true
		}
		if n := doc.NodeByID(conn.TargetID); n != nil {
			to, okT = n.Anchor(), true
		} else if s := doc.ShapeByID(conn.TargetID); s != nil {
			to, okT = s.Anchor(), true
		}
		if okF && okT {
			line(from, to, connCol, 1)
		}
	}
	if from, to, ok := eng.ConnectionPreview(); ok {
		line(from, to, previewCol, 2)
	}

	for i := range doc.Nodes {
		n := &doc.Nodes[i]
		boxAt(n.BBox(), nodeFillCol, nodeStrokeCol)
		title := canvas.NewText(n.Title, color.Black)
		title.TextSize = float32(13 * vp.Scale)
		title.TextStyle = fyne.TextStyle{Bold: true}
		title.Move(toPos(geom.Pt{X: n.X + 10, Y: n.Y + 8}))
		objs = append(objs, title)
	}

	for _, g := range eng.Guides() {
		line(g.From, g.To, guideCol, 1)
	}

	// Selection overlay: the 8 resize handles in screen space.
	for _, hr := range eng.HandleRects() {
		h := canvas.NewRectangle(selectionCol)
		h.Move(fyne.NewPos(float32(hr.X), float32(hr.Y)))
		h.Resize(fyne.NewSize(float32(hr.W), float32(hr.H)))
		objs = append(objs, h)
	}

	r.objects = objs
}

// arrowHeadPts returns the two barb endpoints of an arrow head whose tip is
// at "to", pointing away from "from", in canvas units.
func arrowHeadPts(from, to geom.Pt, size float64) (geom.Pt, geom.Pt) {
	ang := math.Atan2(to.Y-from.Y, to.X-from.X)
	spread := math.Pi / 7
	left := geom.Pt{X: to.X - size*math.Cos(ang-spread), Y: to.Y - size*math.Sin(ang-spread)}
	right := geom.Pt{X: to.X - size*math.Cos(ang+spread), Y: to.Y - size*math.Sin(ang+spread)}
	return left, right
}
