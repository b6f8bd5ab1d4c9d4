/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"encoding/json"
	"fmt"

	"kinboard/internal/geom"
)

// ShapeKind identifies a vector shape variant. The values are stable JSON
// discriminators; do not renumber or rename.
type ShapeKind string

const (
	KindRectangle ShapeKind = "rectangle"
	KindCircle    ShapeKind = "circle"
	KindLine      ShapeKind = "line"
	KindArrow     ShapeKind = "arrow"
	KindPen       ShapeKind = "pen"
	KindImage     ShapeKind = "image"
)

// Shape is the closed set of vector shapes on a canvas. Each kind carries
// its own geometry payload; code that consumes shapes switches on the
// concrete type so a new kind fails to compile everywhere it matters
// instead of falling through a string comparison.
type Shape interface {
	ShapeID() string
	Kind() ShapeKind
	// BBox returns the normalized bounding box in canvas units.
	BBox() geom.Rect
	// Anchor is the point connections attach to.
	Anchor() geom.Pt

	isShape()
}

// Rectangle keeps the press corner in X,Y; W and H follow the pointer and
// may be negative. The raw extents are preserved in the model and only
// normalized for containment and rendering.
type Rectangle struct {
	ID string `json:"id"`
	geom.Rect
}

func (r *Rectangle) ShapeID() string  { return r.ID }
func (r *Rectangle) Kind() ShapeKind  { return KindRectangle }
func (r *Rectangle) BBox() geom.Rect  { return r.Rect.Normalized() }
func (r *Rectangle) Anchor() geom.Pt  { return r.Rect.Center() }
func (*Rectangle) isShape()           {}

// Circle is stored as center plus radius.
type Circle struct {
	ID     string  `json:"id"`
	Center geom.Pt `json:"center"`
	Radius float64 `json:"radius"`
}

func (c *Circle) ShapeID() string { return c.ID }
func (c *Circle) Kind() ShapeKind { return KindCircle }
func (c *Circle) BBox() geom.Rect {
	return geom.R(c.Center.X-c.Radius, c.Center.Y-c.Radius, 2*c.Radius, 2*c.Radius)
}
func (c *Circle) Anchor() geom.Pt { return c.Center }
func (*Circle) isShape()          {}

// Line is a two-point segment; the first point is fixed at press position
// and the terminal point follows the pointer.
type Line struct {
	ID     string    `json:"id"`
	Points []geom.Pt `json:"points"`
}

func (l *Line) ShapeID() string { return l.ID }
func (l *Line) Kind() ShapeKind { return KindLine }
func (l *Line) BBox() geom.Rect { return pointsBBox(l.Points) }
func (l *Line) Anchor() geom.Pt { return pointsBBox(l.Points).Center() }
func (*Line) isShape()          {}

// Arrow has line geometry plus an arrowhead at the terminal point.
type Arrow struct {
	ID     string    `json:"id"`
	Points []geom.Pt `json:"points"`
}

func (a *Arrow) ShapeID() string { return a.ID }
func (a *Arrow) Kind() ShapeKind { return KindArrow }
func (a *Arrow) BBox() geom.Rect { return pointsBBox(a.Points) }
func (a *Arrow) Anchor() geom.Pt { return pointsBBox(a.Points).Center() }
func (*Arrow) isShape()          {}

// Pen is a freehand polyline; points accumulate on every move event.
type Pen struct {
	ID     string    `json:"id"`
	Points []geom.Pt `json:"points"`
}

func (p *Pen) ShapeID() string { return p.ID }
func (p *Pen) Kind() ShapeKind { return KindPen }
func (p *Pen) BBox() geom.Rect { return pointsBBox(p.Points) }
func (p *Pen) Anchor() geom.Pt { return pointsBBox(p.Points).Center() }
func (*Pen) isShape()          {}

// Image is a placed raster with rectangle geometry. Source names the asset
// file under the workspace assets directory.
type Image struct {
	ID string `json:"id"`
	geom.Rect
	Source string `json:"source"`
}

func (i *Image) ShapeID() string { return i.ID }
func (i *Image) Kind() ShapeKind { return KindImage }
func (i *Image) BBox() geom.Rect { return i.Rect.Normalized() }
func (i *Image) Anchor() geom.Pt { return i.Rect.Center() }
func (*Image) isShape()          {}

func pointsBBox(pts []geom.Pt) geom.Rect {
	if len(pts) == 0 {
		return geom.Rect{}
	}
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

// ShapeList serializes the shape variants through a {kind, data} envelope
// so the manifest stays stable while the in-memory model stays typed.
type ShapeList []Shape

type shapeEnvelope struct {
	Kind ShapeKind       `json:"kind"`
	Data json.RawMessage `json:"data"`
}

func (sl ShapeList) MarshalJSON() ([]byte, error) {
	envs := make([]shapeEnvelope, 0, len(sl))
	for _, s := range sl {
		data, err := json.Marshal(s)
		if err != nil {
			return nil, err
		}
		envs = append(envs, shapeEnvelope{Kind: s.Kind(), Data: data})
	}
	return json.Marshal(envs)
}

func (sl *ShapeList) UnmarshalJSON(b []byte) error {
	var envs []shapeEnvelope
	if err := json.Unmarshal(b, &envs); err != nil {
		return err
	}
	out := make(ShapeList, 0, len(envs))
	for _, e := range envs {
		var s Shape
		switch e.Kind {
		case KindRectangle:
			s = &Rectangle{}
		case KindCircle:
			s = &Circle{}
		case KindLine:
			s = &Line{}
		case KindArrow:
			s = &Arrow{}
		case KindPen:
			s = &Pen{}
		case KindImage:
			s = &Image{}
		default:
			return fmt.Errorf("unknown shape kind %q", e.Kind)
		}
		if err := json.Unmarshal(e.Data, s); err != nil {
			return fmt.Errorf("decode %s shape: %w", e.Kind, err)
		}
		out = append(out, s)
	}
	*sl = out
	return nil
}
