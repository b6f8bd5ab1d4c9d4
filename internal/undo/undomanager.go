/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package undo

import (
	"sync"
	"time"
)

// Snapshot represents a reversible state blob for a canvas.
// Blob content is opaque to the manager; size is estimated as len(Blob).
// TS is when the snapshot was captured.
type Snapshot struct {
	CanvasID string
	Blob     []byte
	TS       time.Time
}

// Config controls memory and depth caps and coalescing behavior.
type Config struct {
	// MaxBytes is a soft cap; older entries are pruned when exceeded.
	MaxBytes int
	// MaxPerCanvas limits number of snapshots per canvas kept in memory (0 means unlimited).
	MaxPerCanvas int
	// MinInterval coalesces snapshots captured within the interval for the same canvas,
	// replacing the previous one instead of pushing a new entry.
	MinInterval time.Duration
}

// Manager provides an in-memory undo/redo stack per canvas with performance safeguards.
// It is safe for concurrent use.
type Manager struct {
	cfg Config
	mu  sync.Mutex
	// per-canvas stacks
	undo map[string][]Snapshot
	redo map[string][]Snapshot
	// accounting
	totalBytes int
}

func NewManager(cfg Config) *Manager {
	// Set conservative defaults if not provided
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 16 * 1024 * 1024 // 16 MiB
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 250 * time.Millisecond
	}
	return &Manager{cfg: cfg, undo: make(map[string][]Snapshot), redo: make(map[string][]Snapshot)}
}

// PushSnapshot records a snapshot for a canvas. If within MinInterval from the last
// snapshot on the same canvas, it replaces the last one. Clears redo stack for that canvas.
func (m *Manager) PushSnapshot(s Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stack := m.undo[s.CanvasID]
	if n := len(stack); n > 0 {
		last := stack[n-1]
		if s.TS.Sub(last.TS) < m.cfg.MinInterval {
			// Coalesce: adjust accounting and replace
			m.totalBytes -= len(last.Blob)
			m.totalBytes += len(s.Blob)
			stack[n-1] = s
			m.undo[s.CanvasID] = stack
			m.redo[s.CanvasID] = nil
			m.enforceCapsLocked(s.CanvasID)
			return
		}
	}
	// Push new
	stack = append(stack, s)
	m.undo[s.CanvasID] = stack
	m.totalBytes += len(s.Blob)
	// Any new change invalidates redo for the canvas
	m.redo[s.CanvasID] = nil
	m.enforceCapsLocked(s.CanvasID)
}

// Undo pops from the canvas undo stack and pushes to redo stack, returning the snapshot.
func (m *Manager) Undo(canvasID string) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stack := m.undo[canvasID]
	if len(stack) == 0 {
		return Snapshot{}, false
	}
	s := stack[len(stack)-1]
	m.undo[canvasID] = stack[:len(stack)-1]
	m.totalBytes -= len(s.Blob)
	m.redo[canvasID] = append(m.redo[canvasID], s)
	return s, true
}

// Redo pops from redo and pushes back to undo.
func (m *Manager) Redo(canvasID string) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.redo[canvasID]
	if len(r) == 0 {
		return Snapshot{}, false
	}
	s := r[len(r)-1]
	m.redo[canvasID] = r[:len(r)-1]
	m.undo[canvasID] = append(m.undo[canvasID], s)
	m.totalBytes += len(s.Blob)
	m.enforceCapsLocked(canvasID)
	return s, true
}

// ClearCanvas clears undo/redo stacks for a canvas to free memory.
func (m *Manager) ClearCanvas(canvasID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.undo[canvasID] {
		m.totalBytes -= len(s.Blob)
	}
	delete(m.undo, canvasID)
	delete(m.redo, canvasID)
	if m.totalBytes < 0 {
		m.totalBytes = 0
	}
}

// Stats returns current sizes for diagnostics.
func (m *Manager) Stats() (totalBytes int, canvases int, totalSnapshots int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	canvases = len(m.undo)
	for _, v := range m.undo {
		totalSnapshots += len(v)
	}
	return m.totalBytes, canvases, totalSnapshots
}

func (m *Manager) enforceCapsLocked(canvasID string) {
	// Per-canvas depth cap
	if m.cfg.MaxPerCanvas > 0 {
		stack := m.undo[canvasID]
		if len(stack) > m.cfg.MaxPerCanvas {
			// drop the oldest extras
			toDrop := len(stack) - m.cfg.MaxPerCanvas
			for i := 0; i < toDrop; i++ {
				m.totalBytes -= len(stack[i].Blob)
			}
			m.undo[canvasID] = append([]Snapshot{}, stack[toDrop:]...)
		}
	}
	// Global memory cap: prune oldest across all canvases
	for m.cfg.MaxBytes > 0 && m.totalBytes > m.cfg.MaxBytes {
		oldestCanvas := ""
		oldestIdx := -1
		var oldestTS time.Time
		for id, stack := range m.undo {
			if len(stack) == 0 {
				continue
			}
			if oldestIdx == -1 || stack[0].TS.Before(oldestTS) {
				oldestCanvas = id
				oldestIdx = 0
				oldestTS = stack[0].TS
			}
		}
		if oldestIdx == -1 {
			break
		}
		stack := m.undo[oldestCanvas]
		m.totalBytes -= len(stack[0].Blob)
		m.undo[oldestCanvas] = stack[1:]
		if len(m.undo[oldestCanvas]) == 0 {
			delete(m.undo, oldestCanvas)
		}
	}
}
