/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package canvas

import (
	"testing"

	"kinboard/internal/domain"
	"kinboard/internal/geom"
)

func TestAlignGuidesEdgeAlignment(t *testing.T) {
	sibling := geom.R(0, 0, 200, 100)
	moving := geom.R(3, 4, 80, 40) // near the sibling's top-left corner

	snapped, guides := AlignGuides(moving, []geom.Rect{sibling}, 6)
	if snapped.X != 0 {
		t.Fatalf("expected X aligned to 0, got %v", snapped.X)
	}
	if snapped.Y != 0 {
		t.Fatalf("expected Y aligned to 0, got %v", snapped.Y)
	}
	var vOK, hOK bool
	for _, g := range guides {
		if g.Vertical && g.Position == 0 {
			vOK = true
		}
		if !g.Vertical && g.Position == 0 {
			hOK = true
		}
	}
	if !vOK || !hOK {
		t.Fatalf("expected guides at x=0 (%v) and y=0 (%v)", vOK, hOK)
	}
}

func TestAlignGuidesCenterAlignment(t *testing.T) {
	sibling := geom.R(0, 0, 200, 100)
	// Moving box whose center is within threshold of the sibling's center.
	moving := geom.R(100-50-2, 50-30-3, 100, 60)

	snapped, guides := AlignGuides(moving, []geom.Rect{sibling}, 5)
	if snapped.X != 50 {
		t.Fatalf("expected X aligned to 50, got %v", snapped.X)
	}
	if snapped.Y != 20 {
		t.Fatalf("expected Y aligned to 20, got %v", snapped.Y)
	}
	var vOK, hOK bool
	for _, g := range guides {
		if g.Vertical && g.Center && g.Position == 100 {
			vOK = true
		}
		if !g.Vertical && g.Center && g.Position == 50 {
			hOK = true
		}
	}
	if !vOK || !hOK {
		t.Fatalf("expected center guides present, got %+v", guides)
	}
}

func TestAlignGuidesThresholdBounds(t *testing.T) {
	sibling := geom.R(0, 0, 200, 100)
	moving := geom.R(10, 10, 50, 20) // 10 units away, beyond threshold

	snapped, guides := AlignGuides(moving, []geom.Rect{sibling}, 5)
	if snapped != moving {
		t.Fatalf("expected no adjustment outside threshold; got %+v", snapped)
	}
	if len(guides) != 0 {
		t.Fatalf("expected no guides when nothing aligns")
	}
}

func TestAlignGuidesAxesIndependent(t *testing.T) {
	siblings := []geom.Rect{
		geom.R(0, 0, 100, 100),
		geom.R(300, 0, 100, 100),
	}
	// Left edge near x=0 of the first sibling, bottom near its y=100 edge.
	moving := geom.R(2, 97, 80, 80)

	snapped, _ := AlignGuides(moving, siblings, 5)
	if snapped.X != 0 {
		t.Fatalf("expected X aligned to 0, got %v", snapped.X)
	}
	if snapped.Y != 100 {
		t.Fatalf("expected Y aligned to 100, got %v", snapped.Y)
	}
}

func TestMoveShowsGuidesAndUpReleasesThem(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.doc.Nodes = append(e.doc.Nodes,
		domain.Node{ID: "a", X: 0, Y: 0, Width: 250, Height: 180},
		domain.Node{ID: "b", X: 400, Y: 3, Width: 250, Height: 180},
	)

	// Drag node b; its top edge passes within threshold of node a's top.
	e.PointerDown(geom.Pt{X: 500, Y: 90})
	e.PointerMove(geom.Pt{X: 500, Y: 88}, 1)
	if len(e.Guides()) == 0 {
		t.Fatal("expected alignment guides while edges are near")
	}
	e.PointerUp(geom.Pt{X: 500, Y: 88})
	if len(e.Guides()) != 0 {
		t.Fatal("expected guides cleared after pointer up")
	}
}
