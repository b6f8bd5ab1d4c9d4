/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"kinboard/internal/domain"
)

// ErrNotFound is returned for lookups of unknown canvases, nodes or
// connections.
var ErrNotFound = errors.New("not found")

// CanvasStore is the data-store collaborator the interaction engine talks
// to. It mutates the in-memory workspace manifest; persistence happens
// through the host's change notification and Save, so every engine commit
// stays one logical transaction.
type CanvasStore struct {
	wh *WorkspaceHandle
}

// NewCanvasStore wraps a workspace handle for engine use.
func NewCanvasStore(wh *WorkspaceHandle) *CanvasStore {
	return &CanvasStore{wh: wh}
}

// CreateNode adds a note card at the given position with the default
// minimum size. Title and body may be empty.
func (s *CanvasStore) CreateNode(canvasID string, x, y float64, title, body string) (domain.Node, error) {
	cv := s.wh.Workspace.CanvasByID(canvasID)
	if cv == nil {
		return domain.Node{}, fmt.Errorf("canvas %s: %w", canvasID, ErrNotFound)
	}
	n := domain.Node{
		ID: uuid.NewString(), X: x, Y: y,
		Width: domain.NodeMinWidth, Height: domain.NodeMinHeight,
		Title: title, Body: body,
	}
	cv.Nodes = append(cv.Nodes, n)
	return n, nil
}

// UpdateNode applies a partial update. Width and height are clamped to the
// node minimums so no caller can shrink a card below its floor.
func (s *CanvasStore) UpdateNode(id string, patch domain.NodePatch) error {
	n := s.findNode(id)
	if n == nil {
		return fmt.Errorf("node %s: %w", id, ErrNotFound)
	}
	patch.Apply(n)
	if n.Width < domain.NodeMinWidth {
		n.Width = domain.NodeMinWidth
	}
	if n.Height < domain.NodeMinHeight {
		n.Height = domain.NodeMinHeight
	}
	return nil
}

// DeleteNode removes the node and cascades every connection referencing it
// in the same logical transaction.
func (s *CanvasStore) DeleteNode(id string) error {
	for ci := range s.wh.Workspace.Canvases {
		cv := &s.wh.Workspace.Canvases[ci]
		for i := range cv.Nodes {
			if cv.Nodes[i].ID != id {
				continue
			}
			cv.Nodes = append(cv.Nodes[:i], cv.Nodes[i+1:]...)
			dropConnectionsFor(cv, id)
			return nil
		}
	}
	return fmt.Errorf("node %s: %w", id, ErrNotFound)
}

// CreateConnection links two entities on a canvas. Both endpoints must
// exist on the canvas and differ; the source/target pair must not already
// be connected.
func (s *CanvasStore) CreateConnection(canvasID, sourceID, targetID string) (domain.Connection, error) {
	cv := s.wh.Workspace.CanvasByID(canvasID)
	if cv == nil {
		return domain.Connection{}, fmt.Errorf("canvas %s: %w", canvasID, ErrNotFound)
	}
	if sourceID == targetID {
		return domain.Connection{}, errors.New("connection endpoints must differ")
	}
	if !cv.HasEntity(sourceID) {
		return domain.Connection{}, fmt.Errorf("source %s: %w", sourceID, ErrNotFound)
	}
	if !cv.HasEntity(targetID) {
		return domain.Connection{}, fmt.Errorf("target %s: %w", targetID, ErrNotFound)
	}
	for _, c := range cv.Connections {
		if c.SourceID == sourceID && c.TargetID == targetID {
			return domain.Connection{}, fmt.Errorf("connection %s -> %s already exists", sourceID, targetID)
		}
	}
	c := domain.Connection{ID: uuid.NewString(), SourceID: sourceID, TargetID: targetID}
	cv.Connections = append(cv.Connections, c)
	return c, nil
}

// DeleteConnection removes one connection by id.
func (s *CanvasStore) DeleteConnection(id string) error {
	for ci := range s.wh.Workspace.Canvases {
		cv := &s.wh.Workspace.Canvases[ci]
		for i := range cv.Connections {
			if cv.Connections[i].ID == id {
				cv.Connections = append(cv.Connections[:i], cv.Connections[i+1:]...)
				return nil
			}
		}
	}
	return fmt.Errorf("connection %s: %w", id, ErrNotFound)
}

// NodesForCanvas returns a copy of the canvas node collection.
func (s *CanvasStore) NodesForCanvas(canvasID string) []domain.Node {
	cv := s.wh.Workspace.CanvasByID(canvasID)
	if cv == nil {
		return nil
	}
	return append([]domain.Node(nil), cv.Nodes...)
}

// ConnectionsForCanvas returns a copy of the canvas connection collection.
func (s *CanvasStore) ConnectionsForCanvas(canvasID string) []domain.Connection {
	cv := s.wh.Workspace.CanvasByID(canvasID)
	if cv == nil {
		return nil
	}
	return append([]domain.Connection(nil), cv.Connections...)
}

// AddCanvas appends a new empty canvas to the workspace.
func (s *CanvasStore) AddCanvas(name string) *domain.Canvas {
	cv := domain.Canvas{ID: uuid.NewString(), Name: name}
	cv.Viewport.Scale = 1
	s.wh.Workspace.Canvases = append(s.wh.Workspace.Canvases, cv)
	return &s.wh.Workspace.Canvases[len(s.wh.Workspace.Canvases)-1]
}

func (s *CanvasStore) findNode(id string) *domain.Node {
	for ci := range s.wh.Workspace.Canvases {
		if n := s.wh.Workspace.Canvases[ci].NodeByID(id); n != nil {
			return n
		}
	}
	return nil
}

func dropConnectionsFor(cv *domain.Canvas, id string) {
	kept := cv.Connections[:0]
	for _, c := range cv.Connections {
		if c.SourceID != id && c.TargetID != id {
			kept = append(kept, c)
		}
	}
	cv.Connections = kept
}
