/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package canvas

import (
	"fmt"
	"testing"

	"kinboard/internal/domain"
	"kinboard/internal/geom"
)

// memStore implements Store over the canvas document itself, the way the
// storage package does, so engine tests exercise the full commit path.
type memStore struct {
	doc  *domain.Canvas
	seq  int
	fail error
}

func (m *memStore) nextID() string {
	m.seq++
	return fmt.Sprintf("id%d", m.seq)
}

func (m *memStore) CreateNode(canvasID string, x, y float64, title, body string) (domain.Node, error) {
	if m.fail != nil {
		return domain.Node{}, m.fail
	}
	n := domain.Node{
		ID: m.nextID(), X: x, Y: y,
		Width: domain.NodeMinWidth, Height: domain.NodeMinHeight,
		Title: title, Body: body,
	}
	m.doc.Nodes = append(m.doc.Nodes, n)
	return n, nil
}

func (m *memStore) UpdateNode(id string, patch domain.NodePatch) error {
	n := m.doc.NodeByID(id)
	if n == nil {
		return fmt.Errorf("no node %s", id)
	}
	patch.Apply(n)
	return nil
}

func (m *memStore) DeleteNode(id string) error {
	for i := range m.doc.Nodes {
		if m.doc.Nodes[i].ID == id {
			m.doc.Nodes = append(m.doc.Nodes[:i], m.doc.Nodes[i+1:]...)
			break
		}
	}
	kept := m.doc.Connections[:0]
	for _, c := range m.doc.Connections {
		if c.SourceID != id && c.TargetID != id {
			kept = append(kept, c)
		}
	}
	m.doc.Connections = kept
	return nil
}

func (m *memStore) CreateConnection(canvasID, src, dst string) (domain.Connection, error) {
	if src == dst {
		return domain.Connection{}, fmt.Errorf("self connection")
	}
	if !m.doc.HasEntity(src) || !m.doc.HasEntity(dst) {
		return domain.Connection{}, fmt.Errorf("missing endpoint")
	}
	c := domain.Connection{ID: m.nextID(), SourceID: src, TargetID: dst}
	m.doc.Connections = append(m.doc.Connections, c)
	return c, nil
}

func (m *memStore) DeleteConnection(id string) error {
	for i := range m.doc.Connections {
		if m.doc.Connections[i].ID == id {
			m.doc.Connections = append(m.doc.Connections[:i], m.doc.Connections[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("no connection %s", id)
}

func (m *memStore) NodesForCanvas(string) []domain.Node {
	return append([]domain.Node(nil), m.doc.Nodes...)
}

func (m *memStore) ConnectionsForCanvas(string) []domain.Connection {
	return append([]domain.Connection(nil), m.doc.Connections...)
}

func newTestEngine(t *testing.T) (*Engine, *memStore, *int) {
	t.Helper()
	doc := &domain.Canvas{ID: "cv1", Name: "test", Viewport: geom.NewViewport()}
	st := &memStore{doc: doc}
	e := New(doc, st)
	changes := 0
	e.OnCanvasChange = func() { changes++ }
	return e, st, &changes
}

func TestDrawRectangleCommit(t *testing.T) {
	e, _, changes := newTestEngine(t)
	e.SetTool(ToolRect)
	e.PointerDown(geom.Pt{X: 100, Y: 100})
	e.PointerMove(geom.Pt{X: 200, Y: 180}, 1)
	e.PointerMove(geom.Pt{X: 300, Y: 250}, 1)
	if e.Draft() == nil {
		t.Fatalf("expected live draft during drag")
	}
	if len(e.Doc().Shapes) != 0 {
		t.Fatalf("draft must not be in the committed collection")
	}
	e.PointerUp(geom.Pt{X: 300, Y: 250})
	if len(e.Doc().Shapes) != 1 {
		t.Fatalf("expected 1 committed shape, got %d", len(e.Doc().Shapes))
	}
	r := e.Doc().Shapes[0].(*domain.Rectangle)
	if r.X != 100 || r.Y != 100 || r.W != 200 || r.H != 150 {
		t.Fatalf("unexpected rect geometry: %+v", r.Rect)
	}
	if e.Tool() != ToolSelect {
		t.Fatalf("tool must return to select after commit")
	}
	if *changes != 1 {
		t.Fatalf("expected exactly 1 change event, got %d", *changes)
	}
}

func TestDrawPreservesNegativeExtents(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.SetTool(ToolRect)
	e.PointerDown(geom.Pt{X: 300, Y: 250})
	e.PointerMove(geom.Pt{X: 100, Y: 100}, 1)
	e.PointerUp(geom.Pt{X: 100, Y: 100})
	r := e.Doc().Shapes[0].(*domain.Rectangle)
	if r.X != 300 || r.Y != 250 || r.W != -200 || r.H != -150 {
		t.Fatalf("press corner or signed extents lost: %+v", r.Rect)
	}
	if bb := r.BBox(); bb.X != 100 || bb.Y != 100 || bb.W != 200 || bb.H != 150 {
		t.Fatalf("unexpected normalized bbox: %+v", bb)
	}
}

func TestDegenerateDrawsCommit(t *testing.T) {
	e, _, changes := newTestEngine(t)
	e.SetTool(ToolRect)
	e.PointerDown(geom.Pt{X: 50, Y: 50})
	e.PointerUp(geom.Pt{X: 50, Y: 50})
	e.SetTool(ToolPen)
	e.PointerDown(geom.Pt{X: 60, Y: 60})
	e.PointerUp(geom.Pt{X: 60, Y: 60})
	if len(e.Doc().Shapes) != 2 {
		t.Fatalf("degenerate draws must commit, got %d shapes", len(e.Doc().Shapes))
	}
	p := e.Doc().Shapes[1].(*domain.Pen)
	if len(p.Points) != 1 {
		t.Fatalf("expected single-point pen stroke, got %d points", len(p.Points))
	}
	if *changes != 2 {
		t.Fatalf("expected 2 change events, got %d", *changes)
	}
}

func TestDrawCircleFromCenter(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.SetTool(ToolCircle)
	e.PointerDown(geom.Pt{X: 100, Y: 100})
	e.PointerMove(geom.Pt{X: 130, Y: 140}, 1)
	e.PointerUp(geom.Pt{X: 130, Y: 140})
	c := e.Doc().Shapes[0].(*domain.Circle)
	if c.Center != (geom.Pt{X: 100, Y: 100}) || c.Radius != 50 {
		t.Fatalf("unexpected circle: %+v", c)
	}
}

func TestCancelDiscardsDraft(t *testing.T) {
	e, _, changes := newTestEngine(t)
	e.SetTool(ToolLine)
	e.PointerDown(geom.Pt{X: 10, Y: 10})
	e.PointerMove(geom.Pt{X: 90, Y: 90}, 1)
	e.Cancel()
	if e.Draft() != nil || len(e.Doc().Shapes) != 0 {
		t.Fatalf("abandoned draft must vanish")
	}
	if e.Tool() != ToolSelect {
		t.Fatalf("cancel must reset tool to select")
	}
	if *changes != 0 {
		t.Fatalf("no change event for an abandoned gesture")
	}
}

func TestLostButtonAbortsGesture(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.SetTool(ToolRect)
	e.PointerDown(geom.Pt{X: 10, Y: 10})
	e.PointerMove(geom.Pt{X: 50, Y: 50}, 0) // up event was lost off-window
	if e.Draft() != nil {
		t.Fatalf("gesture must abort when no button is held")
	}
}

func TestPlaceNote(t *testing.T) {
	e, st, changes := newTestEngine(t)
	e.SetTool(ToolNote)
	e.PointerDown(geom.Pt{X: 400, Y: 300})
	e.PointerUp(geom.Pt{X: 400, Y: 300})
	nodes := st.NodesForCanvas("cv1")
	if len(nodes) != 1 {
		t.Fatalf("expected 1 node, got %d", len(nodes))
	}
	if nodes[0].Width != domain.NodeMinWidth || nodes[0].Height != domain.NodeMinHeight {
		t.Fatalf("note must get default minimum size: %+v", nodes[0])
	}
	if e.Tool() != ToolSelect {
		t.Fatalf("note placement is one-shot")
	}
	if ref, ok := e.Selection(); !ok || ref.ID != nodes[0].ID {
		t.Fatalf("new note must be selected")
	}
	if *changes != 1 {
		t.Fatalf("expected 1 change event, got %d", *changes)
	}
}

func TestClickSelectsWithoutTransform(t *testing.T) {
	e, st, changes := newTestEngine(t)
	st.CreateNode("cv1", 100, 100, "a", "")
	e.PointerDown(geom.Pt{X: 150, Y: 150})
	e.PointerUp(geom.Pt{X: 150, Y: 150})
	if ref, ok := e.Selection(); !ok || ref.Kind != EntityNode {
		t.Fatalf("expected node selection")
	}
	if *changes != 0 {
		t.Fatalf("plain click must not commit anything, got %d events", *changes)
	}
}

func TestMoveNodeCommitsOnce(t *testing.T) {
	e, st, changes := newTestEngine(t)
	n, _ := st.CreateNode("cv1", 100, 100, "a", "")
	e.PointerDown(geom.Pt{X: 150, Y: 150})
	e.PointerMove(geom.Pt{X: 170, Y: 160}, 1)
	e.PointerMove(geom.Pt{X: 200, Y: 180}, 1)
	e.PointerUp(geom.Pt{X: 200, Y: 180})
	got := e.Doc().NodeByID(n.ID)
	if got.X != 150 || got.Y != 130 {
		t.Fatalf("unexpected node position: %+v", got)
	}
	if *changes != 1 {
		t.Fatalf("expected 1 change event for the whole drag, got %d", *changes)
	}
}

func TestCancelRestoresMovedShape(t *testing.T) {
	e, _, changes := newTestEngine(t)
	e.Doc().Shapes = append(e.Doc().Shapes,
		&domain.Circle{ID: "c1", Center: geom.Pt{X: 100, Y: 100}, Radius: 30})
	e.PointerDown(geom.Pt{X: 100, Y: 100})
	e.PointerMove(geom.Pt{X: 180, Y: 150}, 1)
	e.Cancel()
	c := e.Doc().ShapeByID("c1").(*domain.Circle)
	if c.Center != (geom.Pt{X: 100, Y: 100}) {
		t.Fatalf("abandoned move must restore geometry: %+v", c.Center)
	}
	if *changes != 0 {
		t.Fatalf("no change event for an abandoned move")
	}
}

func TestPanOnEmptyBackground(t *testing.T) {
	e, _, changes := newTestEngine(t)
	e.PointerDown(geom.Pt{X: 500, Y: 500})
	e.PointerMove(geom.Pt{X: 520, Y: 470}, 1)
	e.PointerUp(geom.Pt{X: 520, Y: 470})
	vp := e.Viewport()
	if vp.Offset.X != 20 || vp.Offset.Y != -30 {
		t.Fatalf("unexpected pan offset: %+v", vp.Offset)
	}
	if *changes != 0 {
		t.Fatalf("panning is view state, not a model mutation")
	}
}

func TestWheelZoomKeepsPointerAnchored(t *testing.T) {
	e, _, _ := newTestEngine(t)
	pointer := geom.Pt{X: 300, Y: 200}
	before := e.Viewport().ToCanvas(pointer)
	e.Wheel(pointer, -1)
	after := e.Viewport().ToCanvas(pointer)
	if before.Dist(after) > 1e-9 {
		t.Fatalf("canvas point under pointer drifted: %+v vs %+v", before, after)
	}
	if e.Doc().Viewport.Scale != e.Viewport().Scale {
		t.Fatalf("zoom must persist into the document viewport")
	}
}

func TestResizeBoxClampsAgainstOppositeEdge(t *testing.T) {
	b := geom.R(100, 100, 300, 300)
	// dragging the west edge right past the minimum pins the east edge
	got := resizeBox(b, HandleW, 200, 0, domain.NodeMinWidth, domain.NodeMinHeight)
	if got.W != 250 || got.X != 150 {
		t.Fatalf("expected width 250 at x=150, got %+v", got)
	}
	if got.X+got.W != 400 {
		t.Fatalf("east edge must stay fixed, got right edge %v", got.X+got.W)
	}
	got = resizeBox(b, HandleSE, -400, -400, domain.ShapeMinWidth, domain.ShapeMinHeight)
	if got.W != 5 || got.H != 5 || got.X != 100 || got.Y != 100 {
		t.Fatalf("south-east clamp must hold the origin corner: %+v", got)
	}
	got = resizeBox(b, HandleN, 0, 50, domain.NodeMinWidth, domain.NodeMinHeight)
	if got.Y != 150 || got.H != 250 || got.W != 300 || got.X != 100 {
		t.Fatalf("north handle must only move the top edge: %+v", got)
	}
}

func TestResizeNodeThroughHandles(t *testing.T) {
	e, st, changes := newTestEngine(t)
	n, _ := st.CreateNode("cv1", 100, 100, "a", "")
	// select it first
	e.PointerDown(geom.Pt{X: 150, Y: 150})
	e.PointerUp(geom.Pt{X: 150, Y: 150})
	rects := e.HandleRects()
	se, ok := rects[HandleSE]
	if !ok {
		t.Fatalf("expected handle rects for selection")
	}
	grab := se.Center()
	e.PointerDown(grab)
	e.PointerMove(geom.Pt{X: grab.X + 60, Y: grab.Y + 40}, 1)
	e.PointerUp(geom.Pt{X: grab.X + 60, Y: grab.Y + 40})
	got := e.Doc().NodeByID(n.ID)
	if got.Width != domain.NodeMinWidth+60 || got.Height != domain.NodeMinHeight+40 {
		t.Fatalf("unexpected node size: %+v", got)
	}
	if got.X != 100 || got.Y != 100 {
		t.Fatalf("anchored corner must not move: %+v", got)
	}
	if *changes != 1 {
		t.Fatalf("expected 1 change event, got %d", *changes)
	}
}

func TestResizeDeltaScalesWithZoom(t *testing.T) {
	e, st, _ := newTestEngine(t)
	n, _ := st.CreateNode("cv1", 100, 100, "a", "")
	for i := 0; i < 10; i++ { // zoom out to scale 0.25
		e.Wheel(geom.Pt{X: 0, Y: 0}, 1)
	}
	for i := 0; i < 20; i++ {
		e.Wheel(geom.Pt{X: 0, Y: 0}, 1)
	}
	scale := e.Viewport().Scale
	if scale != geom.MinScale {
		t.Fatalf("expected min scale, got %v", scale)
	}
	// select, then drag the SE handle 10 screen px
	center := e.Viewport().ToScreen(e.Doc().NodeByID(n.ID).Anchor())
	e.PointerDown(center)
	e.PointerUp(center)
	grab := e.HandleRects()[HandleSE].Center()
	e.PointerDown(grab)
	e.PointerMove(geom.Pt{X: grab.X + 10, Y: grab.Y}, 1)
	e.PointerUp(geom.Pt{X: grab.X + 10, Y: grab.Y})
	got := e.Doc().NodeByID(n.ID)
	want := domain.NodeMinWidth + 10/scale
	if got.Width != want {
		t.Fatalf("screen delta must divide by scale: got %v want %v", got.Width, want)
	}
}

func TestCancelRestoresResize(t *testing.T) {
	e, st, changes := newTestEngine(t)
	n, _ := st.CreateNode("cv1", 100, 100, "a", "")
	e.PointerDown(geom.Pt{X: 150, Y: 150})
	e.PointerUp(geom.Pt{X: 150, Y: 150})
	grab := e.HandleRects()[HandleE].Center()
	e.PointerDown(grab)
	e.PointerMove(geom.Pt{X: grab.X + 80, Y: grab.Y}, 1)
	e.Cancel()
	got := e.Doc().NodeByID(n.ID)
	if got.Width != domain.NodeMinWidth {
		t.Fatalf("abandoned resize must restore geometry: %+v", got)
	}
	if *changes != 0 {
		t.Fatalf("no change event for an abandoned resize")
	}
}

func TestHitTestPrefersNodesThenTopmostShape(t *testing.T) {
	e, st, _ := newTestEngine(t)
	e.Doc().Shapes = append(e.Doc().Shapes,
		&domain.Rectangle{ID: "under", Rect: geom.R(0, 0, 500, 500)},
		&domain.Rectangle{ID: "over", Rect: geom.R(100, 100, 200, 200)})
	n, _ := st.CreateNode("cv1", 120, 120, "a", "")
	if ref, ok := e.hitTest(geom.Pt{X: 150, Y: 150}, ""); !ok || ref.ID != n.ID {
		t.Fatalf("node must win over overlapping shapes, got %+v", ref)
	}
	if ref, ok := e.hitTest(geom.Pt{X: 120, Y: 110}, ""); !ok || ref.ID != "over" {
		t.Fatalf("later shape must win, got %+v", ref)
	}
}

func TestHitToleranceGrowsWhenZoomedOut(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.Doc().Shapes = append(e.Doc().Shapes,
		&domain.Line{ID: "l1", Points: []geom.Pt{{X: 0, Y: 0}, {X: 100, Y: 0}}})
	if _, ok := e.hitTest(geom.Pt{X: 50, Y: 25}, ""); ok {
		t.Fatalf("25 units off the stroke must miss at scale 1")
	}
	for i := 0; i < 30; i++ {
		e.Wheel(geom.Pt{X: 0, Y: 0}, 1)
	}
	// at scale 0.25 the 10px margin covers 40 canvas units
	if _, ok := e.hitTest(geom.Pt{X: 50, Y: 25}, ""); !ok {
		t.Fatalf("tolerance must widen in canvas units when zoomed out")
	}
}

func TestConnectCreatesConnection(t *testing.T) {
	e, st, changes := newTestEngine(t)
	a, _ := st.CreateNode("cv1", 0, 0, "a", "")
	b, _ := st.CreateNode("cv1", 600, 0, "b", "")
	e.SetTool(ToolConnect)
	e.PointerDown(geom.Pt{X: 100, Y: 50})
	e.PointerMove(geom.Pt{X: 650, Y: 80}, 1)
	from, to, ok := e.ConnectionPreview()
	if !ok {
		t.Fatalf("expected live preview")
	}
	if from != e.Doc().NodeByID(a.ID).Anchor() {
		t.Fatalf("preview must start at the source anchor, got %+v", from)
	}
	if to != e.Doc().NodeByID(b.ID).Anchor() {
		t.Fatalf("terminal must snap to the hovered target anchor, got %+v", to)
	}
	e.PointerUp(geom.Pt{X: 650, Y: 80})
	conns := st.ConnectionsForCanvas("cv1")
	if len(conns) != 1 || conns[0].SourceID != a.ID || conns[0].TargetID != b.ID {
		t.Fatalf("unexpected connections: %+v", conns)
	}
	if e.Tool() != ToolSelect {
		t.Fatalf("successful connection must return to select")
	}
	if _, _, ok := e.ConnectionPreview(); ok {
		t.Fatalf("preview must clear after commit")
	}
	if *changes != 1 {
		t.Fatalf("expected 1 change event, got %d", *changes)
	}
}

func TestConnectMissKeepsToolForRetry(t *testing.T) {
	e, st, changes := newTestEngine(t)
	st.CreateNode("cv1", 0, 0, "a", "")
	e.SetTool(ToolConnect)
	e.PointerDown(geom.Pt{X: 100, Y: 50})
	e.PointerMove(geom.Pt{X: 900, Y: 900}, 1)
	e.PointerUp(geom.Pt{X: 900, Y: 900})
	if len(st.ConnectionsForCanvas("cv1")) != 0 {
		t.Fatalf("release over empty canvas must not connect")
	}
	if e.Tool() != ToolConnect {
		t.Fatalf("failed attempt must stay in connect for a retry")
	}
	if *changes != 0 {
		t.Fatalf("no change event without a committed connection")
	}
}

func TestConnectMissForgetsUnseededSource(t *testing.T) {
	e, st, _ := newTestEngine(t)
	st.CreateNode("cv1", 0, 0, "a", "")
	e.SetTool(ToolConnect)
	e.PointerDown(geom.Pt{X: 100, Y: 50})
	e.PointerMove(geom.Pt{X: 900, Y: 900}, 1)
	e.PointerUp(geom.Pt{X: 900, Y: 900})
	// The retry must press an entity again; pressing empty canvas after a
	// miss must not revive the previous source.
	e.PointerDown(geom.Pt{X: 800, Y: 800})
	if _, _, ok := e.ConnectionPreview(); ok {
		t.Fatalf("press on empty canvas must not start from the stale source")
	}
	e.PointerUp(geom.Pt{X: 800, Y: 800})
	if len(st.ConnectionsForCanvas("cv1")) != 0 {
		t.Fatalf("unexpected connection after missed attempts")
	}
}

func TestSeededSourceSurvivesMiss(t *testing.T) {
	e, st, _ := newTestEngine(t)
	a, _ := st.CreateNode("cv1", 0, 0, "a", "")
	b, _ := st.CreateNode("cv1", 600, 0, "b", "")
	e.SeedConnectionSource(a.ID)
	e.PointerDown(geom.Pt{X: 400, Y: 400})
	e.PointerUp(geom.Pt{X: 900, Y: 900})
	// The external seed still stands, so the next attempt starts from it.
	e.PointerDown(geom.Pt{X: 400, Y: 400})
	e.PointerMove(geom.Pt{X: 650, Y: 80}, 1)
	e.PointerUp(geom.Pt{X: 650, Y: 80})
	conns := st.ConnectionsForCanvas("cv1")
	if len(conns) != 1 || conns[0].SourceID != a.ID || conns[0].TargetID != b.ID {
		t.Fatalf("unexpected connections: %+v", conns)
	}
}

func TestConnectNeverSnapsToSource(t *testing.T) {
	e, st, _ := newTestEngine(t)
	a, _ := st.CreateNode("cv1", 0, 0, "a", "")
	e.SetTool(ToolConnect)
	e.PointerDown(geom.Pt{X: 100, Y: 50})
	e.PointerMove(geom.Pt{X: 120, Y: 60}, 1)
	_, to, _ := e.ConnectionPreview()
	if to == e.Doc().NodeByID(a.ID).Anchor() {
		t.Fatalf("terminal must follow the pointer over the source itself")
	}
	e.PointerUp(geom.Pt{X: 120, Y: 60})
	if len(st.ConnectionsForCanvas("cv1")) != 0 {
		t.Fatalf("releasing over the source must not self-connect")
	}
}

func TestConnectOnEmptyWithoutSourceDoesNotStart(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.SetTool(ToolConnect)
	e.PointerDown(geom.Pt{X: 500, Y: 500})
	if _, _, ok := e.ConnectionPreview(); ok {
		t.Fatalf("gesture must not start without a source")
	}
}

func TestSeededConnectionSource(t *testing.T) {
	e, st, _ := newTestEngine(t)
	a, _ := st.CreateNode("cv1", 0, 0, "a", "")
	b, _ := st.CreateNode("cv1", 600, 0, "b", "")
	e.SeedConnectionSource(a.ID)
	if e.Tool() != ToolConnect {
		t.Fatalf("seeding must arm the connect tool")
	}
	// press on empty canvas: the seeded source carries the gesture
	e.PointerDown(geom.Pt{X: 400, Y: 400})
	e.PointerMove(geom.Pt{X: 650, Y: 80}, 1)
	e.PointerUp(geom.Pt{X: 650, Y: 80})
	conns := st.ConnectionsForCanvas("cv1")
	if len(conns) != 1 || conns[0].SourceID != a.ID || conns[0].TargetID != b.ID {
		t.Fatalf("unexpected connections: %+v", conns)
	}
}

func TestEnteringConnectClearsUnseededSource(t *testing.T) {
	e, st, _ := newTestEngine(t)
	a, _ := st.CreateNode("cv1", 0, 0, "a", "")
	e.SeedConnectionSource(a.ID)
	e.SetTool(ToolSelect)
	e.SetTool(ToolConnect)
	e.PointerDown(geom.Pt{X: 700, Y: 700})
	if _, _, ok := e.ConnectionPreview(); ok {
		t.Fatalf("tool change must clear the stale seeded source")
	}
}

func TestConnectLostButtonAborts(t *testing.T) {
	e, st, _ := newTestEngine(t)
	st.CreateNode("cv1", 0, 0, "a", "")
	e.SetTool(ToolConnect)
	e.PointerDown(geom.Pt{X: 100, Y: 50})
	e.PointerMove(geom.Pt{X: 300, Y: 300}, 0)
	if _, _, ok := e.ConnectionPreview(); ok {
		t.Fatalf("lost up event must clear the preview")
	}
	if e.Tool() != ToolSelect {
		t.Fatalf("defensive abort resets to select")
	}
}

func TestDeleteShapeCascadesConnections(t *testing.T) {
	e, st, changes := newTestEngine(t)
	e.Doc().Shapes = append(e.Doc().Shapes,
		&domain.Rectangle{ID: "s1", Rect: geom.R(0, 0, 50, 50)})
	n, _ := st.CreateNode("cv1", 600, 0, "b", "")
	if _, err := st.CreateConnection("cv1", "s1", n.ID); err != nil {
		t.Fatalf("setup connection: %v", err)
	}
	e.PointerDown(geom.Pt{X: 25, Y: 25})
	e.PointerUp(geom.Pt{X: 25, Y: 25})
	if err := e.DeleteSelection(); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if e.Doc().ShapeByID("s1") != nil {
		t.Fatalf("shape must be gone")
	}
	if len(st.ConnectionsForCanvas("cv1")) != 0 {
		t.Fatalf("connections referencing a deleted shape must cascade")
	}
	if *changes != 1 {
		t.Fatalf("cascade delete is one logical mutation, got %d events", *changes)
	}
}

func TestDeleteNodeCascades(t *testing.T) {
	e, st, changes := newTestEngine(t)
	a, _ := st.CreateNode("cv1", 0, 0, "a", "")
	b, _ := st.CreateNode("cv1", 600, 0, "b", "")
	st.CreateConnection("cv1", a.ID, b.ID)
	e.PointerDown(geom.Pt{X: 100, Y: 50})
	e.PointerUp(geom.Pt{X: 100, Y: 50})
	if err := e.DeleteSelection(); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if e.Doc().NodeByID(a.ID) != nil {
		t.Fatalf("node must be gone")
	}
	if len(st.ConnectionsForCanvas("cv1")) != 0 {
		t.Fatalf("store must cascade node connections")
	}
	if *changes != 1 {
		t.Fatalf("expected 1 change event, got %d", *changes)
	}
}

func TestResizeCircleKeepsRepresentation(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.Doc().Shapes = append(e.Doc().Shapes,
		&domain.Circle{ID: "c1", Center: geom.Pt{X: 100, Y: 100}, Radius: 40})
	e.PointerDown(geom.Pt{X: 100, Y: 100})
	e.PointerUp(geom.Pt{X: 100, Y: 100})
	grab := e.HandleRects()[HandleE].Center()
	e.PointerDown(grab)
	e.PointerMove(geom.Pt{X: grab.X + 20, Y: grab.Y}, 1)
	e.PointerUp(geom.Pt{X: grab.X + 20, Y: grab.Y})
	c := e.Doc().ShapeByID("c1").(*domain.Circle)
	if c.Radius != 40 { // min(100, 80)/2
		t.Fatalf("circle radius must follow the smaller bbox side, got %v", c.Radius)
	}
	if c.Center.X != 110 || c.Center.Y != 100 {
		t.Fatalf("circle center must recenter in the new box: %+v", c.Center)
	}
}
