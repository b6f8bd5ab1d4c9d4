/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package geom provides the 2D primitives shared by the board model, the
// interaction engine and the exporters. All values are in canvas units
// unless a name says otherwise.
package geom

import "math"

// Pt is a 2D point.
type Pt struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by q.
func (p Pt) Add(q Pt) Pt { return Pt{p.X + q.X, p.Y + q.Y} }

// Sub returns p minus q.
func (p Pt) Sub(q Pt) Pt { return Pt{p.X - q.X, p.Y - q.Y} }

// Scale returns p with both components multiplied by s.
func (p Pt) Scale(s float64) Pt { return Pt{p.X * s, p.Y * s} }

// Dist returns the Euclidean distance between p and q.
func (p Pt) Dist(q Pt) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return math.Hypot(dx, dy)
}

// Rect is an axis-aligned rectangle. W and H may be negative: interactive
// drawing keeps the press corner fixed and lets the extent follow the
// pointer in any direction. Use Normalized before containment math.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"width"`
	H float64 `json:"height"`
}

func R(x, y, w, h float64) Rect { return Rect{X: x, Y: y, W: w, H: h} }

// Normalized returns an equivalent rectangle with non-negative extents.
func (r Rect) Normalized() Rect {
	if r.W < 0 {
		r.X += r.W
		r.W = -r.W
	}
	if r.H < 0 {
		r.Y += r.H
		r.H = -r.H
	}
	return r
}

// Contains reports whether p lies inside the normalized rectangle,
// edges inclusive.
func (r Rect) Contains(p Pt) bool {
	n := r.Normalized()
	return p.X >= n.X && p.Y >= n.Y && p.X <= n.X+n.W && p.Y <= n.Y+n.H
}

// Inset returns the normalized rectangle grown (negative) or shrunk
// (positive) by dx,dy on every side.
func (r Rect) Inset(dx, dy float64) Rect {
	n := r.Normalized()
	return Rect{X: n.X + dx, Y: n.Y + dy, W: n.W - 2*dx, H: n.H - 2*dy}
}

// Center returns the midpoint of the rectangle.
func (r Rect) Center() Pt {
	n := r.Normalized()
	return Pt{n.X + n.W/2, n.Y + n.H/2}
}

// Union returns the minimal rectangle containing both normalized inputs.
func (r Rect) Union(o Rect) Rect {
	a := r.Normalized()
	b := o.Normalized()
	minX := math.Min(a.X, b.X)
	minY := math.Min(a.Y, b.Y)
	maxX := math.Max(a.X+a.W, b.X+b.W)
	maxY := math.Max(a.Y+a.H, b.Y+b.H)
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// SegmentDist returns the distance from p to the segment a-b.
func SegmentDist(p, a, b Pt) float64 {
	abx := b.X - a.X
	aby := b.Y - a.Y
	l2 := abx*abx + aby*aby
	if l2 == 0 {
		return p.Dist(a)
	}
	t := ((p.X-a.X)*abx + (p.Y-a.Y)*aby) / l2
	t = math.Max(0, math.Min(1, t))
	return p.Dist(Pt{a.X + t*abx, a.Y + t*aby})
}
