/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package canvas

import (
	"kinboard/internal/domain"
	"kinboard/internal/geom"
)

// cloneShape deep-copies a shape so a gesture can restore the original
// geometry when abandoned.
func cloneShape(s domain.Shape) domain.Shape {
	switch v := s.(type) {
	case *domain.Rectangle:
		c := *v
		return &c
	case *domain.Circle:
		c := *v
		return &c
	case *domain.Line:
		c := *v
		c.Points = append([]geom.Pt(nil), v.Points...)
		return &c
	case *domain.Arrow:
		c := *v
		c.Points = append([]geom.Pt(nil), v.Points...)
		return &c
	case *domain.Pen:
		c := *v
		c.Points = append([]geom.Pt(nil), v.Points...)
		return &c
	case *domain.Image:
		c := *v
		return &c
	}
	return nil
}

// setShapeFrom copies the geometry of src (a clone of dst taken earlier)
// back onto dst. Both must be the same concrete kind.
func setShapeFrom(dst, src domain.Shape) {
	switch d := dst.(type) {
	case *domain.Rectangle:
		d.Rect = src.(*domain.Rectangle).Rect
	case *domain.Circle:
		s := src.(*domain.Circle)
		d.Center, d.Radius = s.Center, s.Radius
	case *domain.Line:
		d.Points = append(d.Points[:0], src.(*domain.Line).Points...)
	case *domain.Arrow:
		d.Points = append(d.Points[:0], src.(*domain.Arrow).Points...)
	case *domain.Pen:
		d.Points = append(d.Points[:0], src.(*domain.Pen).Points...)
	case *domain.Image:
		s := src.(*domain.Image)
		d.Rect, d.Source = s.Rect, s.Source
	}
}

// translateShape moves a shape by a canvas-space delta.
func translateShape(s domain.Shape, dx, dy float64) {
	switch v := s.(type) {
	case *domain.Rectangle:
		v.X += dx
		v.Y += dy
	case *domain.Circle:
		v.Center.X += dx
		v.Center.Y += dy
	case *domain.Line:
		translatePoints(v.Points, dx, dy)
	case *domain.Arrow:
		translatePoints(v.Points, dx, dy)
	case *domain.Pen:
		translatePoints(v.Points, dx, dy)
	case *domain.Image:
		v.X += dx
		v.Y += dy
	}
}

func translatePoints(pts []geom.Pt, dx, dy float64) {
	for i := range pts {
		pts[i].X += dx
		pts[i].Y += dy
	}
}

// applyBBox reshapes a shape to fit a new bounding box, preserving each
// kind's own representation. Polylines scale proportionally from the old
// box; a degenerate old extent collapses onto the new origin.
func applyBBox(s domain.Shape, nb geom.Rect) {
	switch v := s.(type) {
	case *domain.Rectangle:
		v.Rect = nb
	case *domain.Image:
		v.Rect = nb
	case *domain.Circle:
		v.Center = nb.Center()
		r := nb.W
		if nb.H < r {
			r = nb.H
		}
		v.Radius = r / 2
	case *domain.Line:
		scalePointsInto(v.Points, s.BBox(), nb)
	case *domain.Arrow:
		scalePointsInto(v.Points, s.BBox(), nb)
	case *domain.Pen:
		scalePointsInto(v.Points, s.BBox(), nb)
	}
}

func scalePointsInto(pts []geom.Pt, ob, nb geom.Rect) {
	sx, sy := 0.0, 0.0
	if ob.W != 0 {
		sx = nb.W / ob.W
	}
	if ob.H != 0 {
		sy = nb.H / ob.H
	}
	for i := range pts {
		pts[i].X = nb.X + (pts[i].X-ob.X)*sx
		pts[i].Y = nb.Y + (pts[i].Y-ob.Y)*sy
	}
}
