/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package canvas

// Alignment guides for move gestures. The computation is UI-agnostic and
// deterministic: given the bounding box of the entity being dragged and the
// boxes of its siblings, it reports which edges or centers line up within a
// threshold, as lines the frontend can render. Snapping is independent per
// axis.

import (
	"math"

	"kinboard/internal/geom"
)

// GuideLine describes one alignment line in canvas coordinates. From and To
// span the union extent of the two aligned boxes so the frontend can draw
// the line across both.
type GuideLine struct {
	Vertical bool // a vertical line at X=Position; horizontal otherwise
	Center   bool // centers aligned; edges otherwise
	Position float64
	From, To geom.Pt
}

// AlignGuides compares a moving box against sibling boxes and returns the
// box adjusted onto the best alignment per axis plus the guide lines that
// justify the adjustment. threshold is the maximum distance, in canvas
// units, at which an alignment is taken; callers working from screen-space
// tolerances divide by the viewport scale first.
func AlignGuides(moving geom.Rect, others []geom.Rect, threshold float64) (geom.Rect, []GuideLine) {
	if threshold <= 0 {
		threshold = 6
	}
	m := moving.Normalized()
	mL, mR, mT, mB := m.X, m.X+m.W, m.Y, m.Y+m.H
	mCX, mCY := m.X+m.W/2, m.Y+m.H/2

	bestX := axisBest{dist: math.Inf(1)}
	bestY := axisBest{dist: math.Inf(1)}

	for _, ob := range others {
		o := ob.Normalized()
		oL, oR, oT, oB := o.X, o.X+o.W, o.Y, o.Y+o.H
		oCX, oCY := o.X+o.W/2, o.Y+o.H/2

		// X axis: matching edges, abutting edges, centers.
		bestX.consider(mL-oL, threshold, verticalGuide(oL, m, o, false))
		bestX.consider(mR-oR, threshold, verticalGuide(oR, m, o, false))
		bestX.consider(mL-oR, threshold, verticalGuide(oR, m, o, false))
		bestX.consider(mR-oL, threshold, verticalGuide(oL, m, o, false))
		bestX.consider(mCX-oCX, threshold, verticalGuide(oCX, m, o, true))

		// Y axis.
		bestY.consider(mT-oT, threshold, horizontalGuide(oT, m, o, false))
		bestY.consider(mB-oB, threshold, horizontalGuide(oB, m, o, false))
		bestY.consider(mT-oB, threshold, horizontalGuide(oB, m, o, false))
		bestY.consider(mB-oT, threshold, horizontalGuide(oT, m, o, false))
		bestY.consider(mCY-oCY, threshold, horizontalGuide(oCY, m, o, true))
	}

	snapped := moving
	var guides []GuideLine
	if bestX.dist <= threshold {
		snapped.X = moving.X - bestX.delta
		guides = append(guides, bestX.guide)
	}
	if bestY.dist <= threshold {
		snapped.Y = moving.Y - bestY.delta
		guides = append(guides, bestY.guide)
	}
	return snapped, guides
}

type axisBest struct {
	delta float64
	dist  float64
	guide GuideLine
}

func (b *axisBest) consider(delta, threshold float64, g GuideLine) {
	d := math.Abs(delta)
	if d > threshold || d >= b.dist {
		return
	}
	b.dist = d
	b.delta = delta
	b.guide = g
}

func verticalGuide(x float64, a, b geom.Rect, center bool) GuideLine {
	minY := math.Min(a.Y, b.Y)
	maxY := math.Max(a.Y+a.H, b.Y+b.H)
	return GuideLine{
		Vertical: true,
		Center:   center,
		Position: x,
		From:     geom.Pt{X: x, Y: minY},
		To:       geom.Pt{X: x, Y: maxY},
	}
}

func horizontalGuide(y float64, a, b geom.Rect, center bool) GuideLine {
	minX := math.Min(a.X, b.X)
	maxX := math.Max(a.X+a.W, b.X+b.W)
	return GuideLine{
		Center:   center,
		Position: y,
		From:     geom.Pt{X: minX, Y: y},
		To:       geom.Pt{X: maxX, Y: y},
	}
}

// Guides returns the alignment guide lines for the move gesture in
// progress, empty otherwise. They are advisory; entity positions follow the
// pointer exactly.
func (e *Engine) Guides() []GuideLine { return e.guides }

// refreshGuides recomputes guides for the entity being moved. The 6px
// screen-space threshold widens in canvas units when zoomed out, matching
// hit tolerance behavior.
func (e *Engine) refreshGuides() {
	e.guides = nil
	b, ok := e.entityBBox(e.selected)
	if !ok {
		return
	}
	var others []geom.Rect
	for i := range e.doc.Nodes {
		if e.doc.Nodes[i].ID != e.selected.ID {
			others = append(others, e.doc.Nodes[i].BBox())
		}
	}
	for _, s := range e.doc.Shapes {
		if s.ShapeID() != e.selected.ID {
			others = append(others, s.BBox())
		}
	}
	_, e.guides = AlignGuides(b, others, 6/e.vp.Scale)
}
