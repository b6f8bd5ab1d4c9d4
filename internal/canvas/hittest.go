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

// hitTolerancePx is the click forgiveness margin in screen pixels. It is
// divided by the viewport scale so forgiveness stays constant on screen
// regardless of zoom level.
const hitTolerancePx = 10.0

// EntityKind distinguishes nodes from shapes in a hit or selection result.
type EntityKind int

const (
	EntityNode EntityKind = iota
	EntityShape
)

// EntityRef identifies a hit or selected entity.
type EntityRef struct {
	Kind EntityKind
	ID   string
}

// hitTest resolves the topmost entity at a canvas-space point. Nodes are
// tested before shapes, and within each collection later entries win (they
// render on top). excludeID skips one entity, used while dragging a
// connection so the source never snaps to itself.
func (e *Engine) hitTest(pt geom.Pt, excludeID string) (EntityRef, bool) {
	tol := e.vp.Tolerance(hitTolerancePx)
	for i := len(e.doc.Nodes) - 1; i >= 0; i-- {
		n := e.doc.Nodes[i]
		if n.ID == excludeID {
			continue
		}
		if n.BBox().Inset(-tol, -tol).Contains(pt) {
			return EntityRef{Kind: EntityNode, ID: n.ID}, true
		}
	}
	for i := len(e.doc.Shapes) - 1; i >= 0; i-- {
		s := e.doc.Shapes[i]
		if s.ShapeID() == excludeID {
			continue
		}
		if shapeHit(s, pt, tol) {
			return EntityRef{Kind: EntityShape, ID: s.ShapeID()}, true
		}
	}
	return EntityRef{}, false
}

// shapeHit tests one shape with geometry appropriate to its kind: discs by
// center distance, rectangles and images by containment, stroked polylines
// by distance to the nearest segment.
func shapeHit(s domain.Shape, pt geom.Pt, tol float64) bool {
	switch v := s.(type) {
	case *domain.Circle:
		return pt.Dist(v.Center) <= v.Radius+tol
	case *domain.Rectangle:
		return v.Rect.Inset(-tol, -tol).Contains(pt)
	case *domain.Image:
		return v.Rect.Inset(-tol, -tol).Contains(pt)
	case *domain.Line:
		return polylineHit(v.Points, pt, tol)
	case *domain.Arrow:
		return polylineHit(v.Points, pt, tol)
	case *domain.Pen:
		return polylineHit(v.Points, pt, tol)
	}
	return false
}

func polylineHit(pts []geom.Pt, pt geom.Pt, tol float64) bool {
	if len(pts) == 0 {
		return false
	}
	if len(pts) == 1 {
		return pt.Dist(pts[0]) <= tol
	}
	// cheap reject before walking segments
	if !pointsBounds(pts).Inset(-tol, -tol).Contains(pt) {
		return false
	}
	for i := 1; i < len(pts); i++ {
		if geom.SegmentDist(pt, pts[i-1], pts[i]) <= tol {
			return true
		}
	}
	return false
}

func pointsBounds(pts []geom.Pt) geom.Rect {
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return geom.R(minX, minY, maxX-minX, maxY-minY)
}

// entityAnchor resolves the connection attachment point for an entity id.
func (e *Engine) entityAnchor(id string) (geom.Pt, bool) {
	if n := e.doc.NodeByID(id); n != nil {
		return n.Anchor(), true
	}
	if s := e.doc.ShapeByID(id); s != nil {
		return s.Anchor(), true
	}
	return geom.Pt{}, false
}

// entityBBox resolves the bounding box for a selection reference.
func (e *Engine) entityBBox(ref EntityRef) (geom.Rect, bool) {
	if ref.Kind == EntityNode {
		if n := e.doc.NodeByID(ref.ID); n != nil {
			return n.BBox(), true
		}
		return geom.Rect{}, false
	}
	if s := e.doc.ShapeByID(ref.ID); s != nil {
		return s.BBox(), true
	}
	return geom.Rect{}, false
}
