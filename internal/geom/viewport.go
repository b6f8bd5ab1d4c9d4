/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geom

// Zoom bounds and the per-wheel-notch factor.
const (
	MinScale = 0.25
	MaxScale = 2.0
	zoomStep = 1.05
)

// Viewport maps between screen pixels and canvas units.
//
//	canvas = (screen - Offset) / Scale
//	screen = canvas * Scale + Offset
//
// Scale is always kept within [MinScale, MaxScale]; Offset is unbounded.
type Viewport struct {
	Scale  float64 `json:"scale"`
	Offset Pt      `json:"offset"`
}

// NewViewport returns an identity viewport.
func NewViewport() Viewport { return Viewport{Scale: 1} }

// ToCanvas converts a screen-space point into canvas space.
func (v Viewport) ToCanvas(screen Pt) Pt {
	return Pt{(screen.X - v.Offset.X) / v.Scale, (screen.Y - v.Offset.Y) / v.Scale}
}

// ToScreen converts a canvas-space point into screen space.
func (v Viewport) ToScreen(canvas Pt) Pt {
	return Pt{canvas.X*v.Scale + v.Offset.X, canvas.Y*v.Scale + v.Offset.Y}
}

// ZoomAt applies one wheel notch centered on the given screen position.
// Positive wheelDelta zooms out, negative zooms in. The canvas point under
// the pointer is invariant across the zoom: the offset is recomputed so
// that anchor*newScale+offset' lands back on pointer.
func (v *Viewport) ZoomAt(pointer Pt, wheelDelta float64) {
	newScale := v.Scale * zoomStep
	if wheelDelta > 0 {
		newScale = v.Scale / zoomStep
	}
	newScale = clampScale(newScale)
	anchor := v.ToCanvas(pointer)
	v.Scale = newScale
	v.Offset = Pt{pointer.X - anchor.X*newScale, pointer.Y - anchor.Y*newScale}
}

// Pan translates the viewport by a screen-space delta.
func (v *Viewport) Pan(dx, dy float64) {
	v.Offset.X += dx
	v.Offset.Y += dy
}

// Tolerance converts a screen-pixel margin into canvas units so that click
// forgiveness stays constant regardless of zoom level.
func (v Viewport) Tolerance(screenPx float64) float64 {
	return screenPx / v.Scale
}

func clampScale(s float64) float64 {
	if s < MinScale {
		return MinScale
	}
	if s > MaxScale {
		return MaxScale
	}
	return s
}
