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

	"kinboard/internal/geom"
)

// beginConnect resolves the connection source at the press position. A hit
// entity wins; failing that an externally seeded source is used; with
// neither the gesture does not start.
func (e *Engine) beginConnect(pt geom.Pt) {
	if ref, ok := e.hitTest(pt, ""); ok {
		e.connSource = ref.ID
	} else if e.connSource == "" {
		return
	}
	anchor, ok := e.entityAnchor(e.connSource)
	if !ok {
		e.connSource = ""
		return
	}
	e.connFrom = anchor
	e.connTo = pt
	e.connActive = true
	e.gesture = gestureConnect
}

// updateConnect tracks the preview terminal. While hovering a valid target
// the terminal snaps to the target's anchor instead of the raw pointer.
func (e *Engine) updateConnect(pt geom.Pt) {
	e.connTo = pt
	if ref, ok := e.hitTest(pt, e.connSource); ok {
		if a, ok := e.entityAnchor(ref.ID); ok {
			e.connTo = a
		}
	}
}

// commitConnect finishes the gesture at pointer-up. Releasing over a valid
// target (any entity other than the source) creates the connection and
// returns to Select; releasing over empty canvas clears the preview but
// stays in Connect so the user can retry.
func (e *Engine) commitConnect(pt geom.Pt) {
	src := e.connSource
	e.connActive = false
	ref, ok := e.hitTest(pt, src)
	if !ok {
		// A retry must press an entity again; only an externally seeded
		// source survives the miss.
		if !e.connSeeded {
			e.connSource = ""
		}
		return
	}
	c, err := e.store.CreateConnection(e.doc.ID, src, ref.ID)
	if err != nil {
		e.log.Warn("connection rejected", slog.Any("err", err))
		return
	}
	e.log.Debug("connection created", slog.String("id", c.ID))
	e.connSource = ""
	e.connSeeded = false
	e.tool = ToolSelect
	e.fireChange()
}
