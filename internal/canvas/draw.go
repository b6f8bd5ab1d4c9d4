/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package canvas

import (
	"log/slog"

	"kinboard/internal/domain"
	"kinboard/internal/geom"
)

// beginDraw starts a draft shape for the active drawing tool. The draft is
// a first-class in-progress entity: it renders live but is not part of the
// committed collection until pointer-up.
func (e *Engine) beginDraw(pt geom.Pt) {
	id := newID()
	switch e.tool {
	case ToolRect:
		e.draft = &domain.Rectangle{ID: id, Rect: geom.R(pt.X, pt.Y, 0, 0)}
	case ToolCircle:
		e.draft = &domain.Circle{ID: id, Center: pt, Radius: 0}
	case ToolLine:
		e.draft = &domain.Line{ID: id, Points: []geom.Pt{pt, pt}}
	case ToolArrow:
		e.draft = &domain.Arrow{ID: id, Points: []geom.Pt{pt, pt}}
	case ToolPen:
		e.draft = &domain.Pen{ID: id, Points: []geom.Pt{pt}}
	default:
		return
	}
	e.moveStart = pt
	e.gesture = gestureDraw
}

// updateDraw advances the draft geometry. Rectangles keep the press corner
// fixed with signed extents; circles grow from the press center; lines and
// arrows move the terminal point; pens accumulate every sample.
func (e *Engine) updateDraw(pt geom.Pt) {
	switch v := e.draft.(type) {
	case *domain.Rectangle:
		v.W = pt.X - e.moveStart.X
		v.H = pt.Y - e.moveStart.Y
	case *domain.Circle:
		v.Radius = pt.Dist(e.moveStart)
	case *domain.Line:
		v.Points[1] = pt
	case *domain.Arrow:
		v.Points[1] = pt
	case *domain.Pen:
		v.Points = append(v.Points, pt)
	}
}

// commitDraw merges the draft into the committed collection. Degenerate
// geometry commits as-is: a zero-size rect or a one-point pen stroke is a
// valid shape, never an error.
func (e *Engine) commitDraw() {
	if e.draft == nil {
		return
	}
	e.doc.Shapes = append(e.doc.Shapes, e.draft)
	e.selected = EntityRef{Kind: EntityShape, ID: e.draft.ShapeID()}
	e.hasSel = true
	e.log.Debug("shape committed", slog.String("kind", string(e.draft.Kind())))
	e.draft = nil
	e.tool = ToolSelect
	e.fireChange()
}
