/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package canvas

import (
	"strings"

	"kinboard/internal/domain"
	"kinboard/internal/geom"
)

// handleSizePx is the edge length of a resize handle square on screen.
const handleSizePx = 8.0

// Handle names one of the eight resize grips around a selection.
type Handle string

const (
	HandleNW Handle = "nw"
	HandleN  Handle = "n"
	HandleNE Handle = "ne"
	HandleE  Handle = "e"
	HandleSE Handle = "se"
	HandleS  Handle = "s"
	HandleSW Handle = "sw"
	HandleW  Handle = "w"
)

var allHandles = []Handle{HandleNW, HandleN, HandleNE, HandleE, HandleSE, HandleS, HandleSW, HandleW}

func (h Handle) north() bool { return strings.Contains(string(h), "n") }
func (h Handle) south() bool { return strings.Contains(string(h), "s") }
func (h Handle) east() bool  { return strings.Contains(string(h), "e") }
func (h Handle) west() bool  { return strings.Contains(string(h), "w") }

type resizeState struct {
	ref       EntityRef
	handle    Handle
	start     geom.Pt   // press position in screen space
	orig      geom.Rect // bbox at press, canvas space
	origNode  domain.Node
	origShape domain.Shape // deep copy for restore and rescale base
	minW      float64
	minH      float64
}

// HandleRects returns the screen-space rectangles of the eight resize
// handles for the current selection, keyed by handle. Frontends draw these
// and the engine hit-tests them on pointer-down.
func (e *Engine) HandleRects() map[Handle]geom.Rect {
	if !e.hasSel {
		return nil
	}
	bb, ok := e.entityBBox(e.selected)
	if !ok {
		return nil
	}
	tl := e.vp.ToScreen(geom.Pt{X: bb.X, Y: bb.Y})
	br := e.vp.ToScreen(geom.Pt{X: bb.X + bb.W, Y: bb.Y + bb.H})
	cx := (tl.X + br.X) / 2
	cy := (tl.Y + br.Y) / 2
	centers := map[Handle]geom.Pt{
		HandleNW: {X: tl.X, Y: tl.Y}, HandleN: {X: cx, Y: tl.Y}, HandleNE: {X: br.X, Y: tl.Y},
		HandleE: {X: br.X, Y: cy}, HandleSE: {X: br.X, Y: br.Y}, HandleS: {X: cx, Y: br.Y},
		HandleSW: {X: tl.X, Y: br.Y}, HandleW: {X: tl.X, Y: cy},
	}
	out := make(map[Handle]geom.Rect, len(centers))
	for h, c := range centers {
		out[h] = geom.R(c.X-handleSizePx/2, c.Y-handleSizePx/2, handleSizePx, handleSizePx)
	}
	return out
}

// handleAt returns the handle under a screen point, if any.
func (e *Engine) handleAt(screen geom.Pt) (Handle, bool) {
	rects := e.HandleRects()
	for _, h := range allHandles {
		if r, ok := rects[h]; ok && r.Contains(screen) {
			return h, true
		}
	}
	return "", false
}

func (e *Engine) beginResize(ref EntityRef, h Handle, screen geom.Pt) {
	bb, ok := e.entityBBox(ref)
	if !ok {
		return
	}
	st := &resizeState{ref: ref, handle: h, start: screen, orig: bb}
	if ref.Kind == EntityNode {
		st.origNode = *e.doc.NodeByID(ref.ID)
		st.minW, st.minH = domain.NodeMinWidth, domain.NodeMinHeight
	} else {
		st.origShape = cloneShape(e.doc.ShapeByID(ref.ID))
		st.minW, st.minH = domain.ShapeMinWidth, domain.ShapeMinHeight
	}
	e.resize = st
	e.gesture = gestureResize
}

// updateResize recomputes the entity box from the original press geometry
// and the accumulated screen delta, so precision never drifts across
// intermediate events. The screen delta is divided by the scale to land in
// canvas units.
func (e *Engine) updateResize(screen geom.Pt) {
	st := e.resize
	if st == nil {
		return
	}
	dx := (screen.X - st.start.X) / e.vp.Scale
	dy := (screen.Y - st.start.Y) / e.vp.Scale
	nb := resizeBox(st.orig, st.handle, dx, dy, st.minW, st.minH)
	if st.ref.Kind == EntityNode {
		if n := e.doc.NodeByID(st.ref.ID); n != nil {
			n.X, n.Y, n.Width, n.Height = nb.X, nb.Y, nb.W, nb.H
		}
		return
	}
	if s := e.doc.ShapeByID(st.ref.ID); s != nil {
		setShapeFrom(s, st.origShape)
		applyBBox(s, nb)
	}
}

// resizeBox applies a drag on one handle to a bounding box. Each moving
// edge follows its axis delta; when a dimension would drop below the
// minimum it clamps with the opposite edge held fixed, so the box never
// slides across the canvas while pinned at minimum size.
func resizeBox(b geom.Rect, h Handle, dx, dy, minW, minH float64) geom.Rect {
	x, y, w, ht := b.X, b.Y, b.W, b.H
	if h.east() {
		w += dx
	}
	if h.west() {
		x += dx
		w -= dx
	}
	if h.south() {
		ht += dy
	}
	if h.north() {
		y += dy
		ht -= dy
	}
	if w < minW {
		if h.west() {
			x = b.X + b.W - minW
		}
		w = minW
	}
	if ht < minH {
		if h.north() {
			y = b.Y + b.H - minH
		}
		ht = minH
	}
	return geom.R(x, y, w, ht)
}

func (e *Engine) commitResize() {
	st := e.resize
	e.resize = nil
	if st == nil {
		return
	}
	if st.ref.Kind == EntityNode {
		n := e.doc.NodeByID(st.ref.ID)
		if n == nil {
			return
		}
		x, y, w, h := n.X, n.Y, n.Width, n.Height
		patch := domain.NodePatch{X: &x, Y: &y, Width: &w, Height: &h}
		if err := e.store.UpdateNode(n.ID, patch); err != nil {
			e.log.Error("commit node resize failed", "err", err)
			return
		}
	}
	e.fireChange()
}

// restoreResize puts the original geometry back when the gesture aborts.
func (e *Engine) restoreResize() {
	st := e.resize
	e.resize = nil
	if st == nil {
		return
	}
	if st.ref.Kind == EntityNode {
		if n := e.doc.NodeByID(st.ref.ID); n != nil {
			*n = st.origNode
		}
		return
	}
	if s := e.doc.ShapeByID(st.ref.ID); s != nil && st.origShape != nil {
		setShapeFrom(s, st.origShape)
	}
}
