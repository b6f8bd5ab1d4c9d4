/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package canvas implements the whiteboard interaction engine: the tool
// state machine, drawing, resizing, connection gestures and hit testing.
// The engine owns no rendering; a frontend feeds it pointer events in
// screen coordinates and mirrors the model it mutates.
//
// All methods must be called from a single goroutine (the UI event loop).
// Async work such as image decoding applies its result through a single
// engine call so partial state is never observable.
package canvas

import (
	"log/slog"

	"github.com/google/uuid"

	"kinboard/internal/domain"
	"kinboard/internal/geom"
	applog "kinboard/internal/log"
)

// Tool is the active canvas tool.
type Tool int

const (
	ToolSelect Tool = iota
	ToolRect
	ToolCircle
	ToolLine
	ToolArrow
	ToolPen
	ToolNote
	ToolConnect
)

func (t Tool) String() string {
	switch t {
	case ToolSelect:
		return "select"
	case ToolRect:
		return "rect"
	case ToolCircle:
		return "circle"
	case ToolLine:
		return "line"
	case ToolArrow:
		return "arrow"
	case ToolPen:
		return "pen"
	case ToolNote:
		return "note"
	case ToolConnect:
		return "connect"
	}
	return "unknown"
}

func (t Tool) isDraw() bool {
	switch t {
	case ToolRect, ToolCircle, ToolLine, ToolArrow, ToolPen:
		return true
	}
	return false
}

// Store is the data-store collaborator for nodes and connections. Shapes
// live in the canvas document itself and are persisted by the host on
// change notification. DeleteNode must cascade-delete connections that
// reference the node in the same logical transaction.
type Store interface {
	CreateNode(canvasID string, x, y float64, title, body string) (domain.Node, error)
	UpdateNode(id string, patch domain.NodePatch) error
	DeleteNode(id string) error
	CreateConnection(canvasID, sourceID, targetID string) (domain.Connection, error)
	DeleteConnection(id string) error
	NodesForCanvas(canvasID string) []domain.Node
	ConnectionsForCanvas(canvasID string) []domain.Connection
}

type gestureKind int

const (
	gestureNone gestureKind = iota
	gesturePan
	gestureDraw
	gestureMove
	gestureResize
	gestureConnect
)

// Engine drives one canvas. Create it with New, feed it pointer events,
// and render doc + Draft + ConnectionPreview.
type Engine struct {
	doc   *domain.Canvas
	store Store
	vp    geom.Viewport

	tool    Tool
	gesture gestureKind

	// selection and in-progress state
	selected   EntityRef
	hasSel     bool
	draft      domain.Shape
	moveStart  geom.Pt
	moveOrig   moveSnapshot
	moved      bool
	resize     *resizeState
	connSource string
	connSeeded bool
	connFrom   geom.Pt
	connTo     geom.Pt
	connActive bool
	guides     []GuideLine

	// OnCanvasChange is invoked once per committed mutation. The host is
	// responsible for persistence/autosave.
	OnCanvasChange func()

	log *slog.Logger
}

// moveSnapshot restores entity geometry when a move gesture is abandoned.
type moveSnapshot struct {
	node  domain.Node
	shape domain.Shape // deep copy
}

// New creates an engine over the given canvas document and collaborator.
// The document's saved viewport is adopted as the live one.
func New(doc *domain.Canvas, store Store) *Engine {
	vp := doc.Viewport
	if vp.Scale == 0 {
		vp = geom.NewViewport()
	}
	return &Engine{
		doc:   doc,
		store: store,
		vp:    vp,
		tool:  ToolSelect,
		log:   applog.WithComponent("canvas").With(slog.String("canvas", doc.ID)),
	}
}

// Doc returns the canvas document the engine mutates.
func (e *Engine) Doc() *domain.Canvas { return e.doc }

// Viewport returns the live viewport state.
func (e *Engine) Viewport() geom.Viewport { return e.vp }

// Tool returns the active tool.
func (e *Engine) Tool() Tool { return e.tool }

// Draft returns the in-progress shape being drawn, or nil. It is not part
// of the committed collection until pointer-up.
func (e *Engine) Draft() domain.Shape { return e.draft }

// Selection returns the currently selected entity, if any.
func (e *Engine) Selection() (EntityRef, bool) { return e.selected, e.hasSel }

// ConnectionPreview returns the live connection polyline endpoints while a
// connection gesture is in progress.
func (e *Engine) ConnectionPreview() (from, to geom.Pt, ok bool) {
	return e.connFrom, e.connTo, e.connActive
}

// SetTool makes an explicit tool selection, legal from any state. Any
// gesture in progress is abandoned. Entering Connect clears the tracked
// connection source unless one was seeded externally.
func (e *Engine) SetTool(t Tool) {
	e.abortGesture()
	if t == ToolConnect && !e.connSeeded {
		e.connSource = ""
	}
	if t != ToolConnect {
		e.connSource = ""
		e.connSeeded = false
	}
	e.tool = t
	e.log.Debug("tool changed", slog.String("tool", t.String()))
}

// SeedConnectionSource arms the Connect tool with an externally supplied
// source (e.g. a "link from this card" action on a node).
func (e *Engine) SeedConnectionSource(id string) {
	e.abortGesture()
	e.connSource = id
	e.connSeeded = true
	e.tool = ToolConnect
}

// Wheel applies one zoom notch at the pointer position.
func (e *Engine) Wheel(screen geom.Pt, delta float64) {
	e.vp.ZoomAt(screen, delta)
	e.doc.Viewport = e.vp
}

// PointerDown starts a gesture according to the active tool.
func (e *Engine) PointerDown(screen geom.Pt) {
	pt := e.vp.ToCanvas(screen)
	switch {
	case e.tool.isDraw():
		e.beginDraw(pt)
	case e.tool == ToolNote:
		e.placeNote(pt)
	case e.tool == ToolConnect:
		e.beginConnect(pt)
	default: // Select
		e.beginSelect(screen, pt)
	}
}

// PointerMove advances the gesture in progress. buttons carries the
// pressed-buttons bitmask from the frontend; zero while a gesture is
// active means an up event was lost, which aborts defensively.
func (e *Engine) PointerMove(screen geom.Pt, buttons int) {
	if e.gesture == gestureNone {
		return
	}
	if buttons == 0 {
		e.Cancel()
		return
	}
	pt := e.vp.ToCanvas(screen)
	switch e.gesture {
	case gesturePan:
		e.vp.Pan(screen.X-e.moveStart.X, screen.Y-e.moveStart.Y)
		e.moveStart = screen
		e.doc.Viewport = e.vp
	case gestureDraw:
		e.updateDraw(pt)
	case gestureMove:
		e.updateMove(pt)
	case gestureResize:
		e.updateResize(screen)
	case gestureConnect:
		e.updateConnect(pt)
	}
}

// PointerUp commits or discards the gesture in progress.
func (e *Engine) PointerUp(screen geom.Pt) {
	pt := e.vp.ToCanvas(screen)
	switch e.gesture {
	case gestureDraw:
		e.commitDraw()
	case gestureMove:
		e.commitMove()
	case gestureResize:
		e.commitResize()
	case gestureConnect:
		e.commitConnect(pt)
	}
	e.gesture = gestureNone
	e.guides = nil
}

// Cancel is the global abandon trigger (window blur, pointer leaving the
// document with no buttons pressed, escape). It deterministically resets
// the engine to Select with no dangling in-progress state.
func (e *Engine) Cancel() {
	e.abortGesture()
	e.tool = ToolSelect
	e.connSource = ""
	e.connSeeded = false
}

// abortGesture discards in-progress state without committing, restoring
// any live-mutated geometry.
func (e *Engine) abortGesture() {
	switch e.gesture {
	case gestureDraw:
		e.draft = nil
	case gestureMove:
		e.restoreMove()
	case gestureResize:
		e.restoreResize()
	case gestureConnect:
		e.connActive = false
	}
	e.gesture = gestureNone
	e.guides = nil
}

// beginSelect handles pointer-down with the Select tool: resize handle
// first, then entity selection (arming a move), then background pan.
func (e *Engine) beginSelect(screen, pt geom.Pt) {
	if e.hasSel {
		if h, ok := e.handleAt(screen); ok {
			e.beginResize(e.selected, h, screen)
			return
		}
	}
	if ref, ok := e.hitTest(pt, ""); ok {
		e.selected = ref
		e.hasSel = true
		e.armMove(pt, ref)
		return
	}
	e.hasSel = false
	e.gesture = gesturePan
	e.moveStart = screen
}

func (e *Engine) armMove(pt geom.Pt, ref EntityRef) {
	e.gesture = gestureMove
	e.moveStart = pt
	e.moved = false
	e.moveOrig = moveSnapshot{}
	if ref.Kind == EntityNode {
		if n := e.doc.NodeByID(ref.ID); n != nil {
			e.moveOrig.node = *n
		}
	} else if s := e.doc.ShapeByID(ref.ID); s != nil {
		e.moveOrig.shape = cloneShape(s)
	}
}

func (e *Engine) updateMove(pt geom.Pt) {
	dx := pt.X - e.moveStart.X
	dy := pt.Y - e.moveStart.Y
	if dx == 0 && dy == 0 {
		return
	}
	e.moved = true
	if e.selected.Kind == EntityNode {
		if n := e.doc.NodeByID(e.selected.ID); n != nil {
			n.X = e.moveOrig.node.X + dx
			n.Y = e.moveOrig.node.Y + dy
		}
		e.refreshGuides()
		return
	}
	if s := e.doc.ShapeByID(e.selected.ID); s != nil {
		setShapeFrom(s, e.moveOrig.shape)
		translateShape(s, dx, dy)
	}
	e.refreshGuides()
}

func (e *Engine) commitMove() {
	if !e.moved {
		return // a plain click selects without transforming
	}
	if e.selected.Kind == EntityNode {
		if n := e.doc.NodeByID(e.selected.ID); n != nil {
			x, y := n.X, n.Y
			if err := e.store.UpdateNode(n.ID, domain.NodePatch{X: &x, Y: &y}); err != nil {
				e.log.Error("commit node move failed", slog.Any("err", err))
				return
			}
		}
	}
	e.fireChange()
}

func (e *Engine) restoreMove() {
	if !e.moved {
		return
	}
	if e.selected.Kind == EntityNode {
		if n := e.doc.NodeByID(e.selected.ID); n != nil {
			*n = e.moveOrig.node
		}
		return
	}
	if s := e.doc.ShapeByID(e.selected.ID); s != nil && e.moveOrig.shape != nil {
		setShapeFrom(s, e.moveOrig.shape)
	}
}

// placeNote creates a node at the press position and returns to Select.
// There is no drag phase.
func (e *Engine) placeNote(pt geom.Pt) {
	n, err := e.store.CreateNode(e.doc.ID, pt.X, pt.Y, "New note", "")
	if err != nil {
		e.log.Error("create note failed", slog.Any("err", err))
		e.tool = ToolSelect
		return
	}
	e.selected = EntityRef{Kind: EntityNode, ID: n.ID}
	e.hasSel = true
	e.tool = ToolSelect
	e.fireChange()
}

// DeleteSelection removes the selected entity, cascading connections.
func (e *Engine) DeleteSelection() error {
	if !e.hasSel {
		return nil
	}
	ref := e.selected
	e.hasSel = false
	if ref.Kind == EntityNode {
		if err := e.store.DeleteNode(ref.ID); err != nil {
			return err
		}
		e.fireChange()
		return nil
	}
	// Shapes live in the document; cascade referencing connections through
	// the store so no dangling endpoint survives.
	for _, c := range e.store.ConnectionsForCanvas(e.doc.ID) {
		if c.SourceID == ref.ID || c.TargetID == ref.ID {
			if err := e.store.DeleteConnection(c.ID); err != nil {
				return err
			}
		}
	}
	for i, s := range e.doc.Shapes {
		if s.ShapeID() == ref.ID {
			e.doc.Shapes = append(e.doc.Shapes[:i], e.doc.Shapes[i+1:]...)
			break
		}
	}
	e.fireChange()
	return nil
}

func (e *Engine) fireChange() {
	if e.OnCanvasChange != nil {
		e.OnCanvasChange()
	}
}

func newID() string { return uuid.NewString() }
