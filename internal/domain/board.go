/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the board data model: workspaces, canvases, note cards
// (nodes) and connections. The model serializes to a human-readable JSON
// manifest (board.json); the interaction engine mutates it in place.

import "kinboard/internal/geom"

// Minimum entity sizes in canvas units. Nodes carry rich content and keep a
// large floor; vector shapes only need to stay grabbable.
const (
	NodeMinWidth   = 250.0
	NodeMinHeight  = 180.0
	ShapeMinWidth  = 5.0
	ShapeMinHeight = 5.0
)

// Workspace is the root manifest document.
type Workspace struct {
	Name     string   `json:"name"`
	Metadata Metadata `json:"metadata,omitempty"`
	Canvases []Canvas `json:"canvases"`
}

// Metadata contains optional descriptive metadata for a workspace.
type Metadata struct {
	Owner string `json:"owner,omitempty"`
	Notes string `json:"notes,omitempty"`
}

// Canvas is one whiteboard: its saved viewport plus the three entity
// collections. Shapes and nodes share a single id namespace so a
// connection endpoint can reference either.
type Canvas struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Viewport    geom.Viewport `json:"viewport"`
	Shapes      ShapeList     `json:"shapes"`
	Nodes       []Node        `json:"nodes"`
	Connections []Connection  `json:"connections"`
}

// Node is a rich content card with a title and a plain-text body. Width
// and height never drop below NodeMinWidth x NodeMinHeight.
type Node struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Title  string  `json:"title"`
	Body   string  `json:"body,omitempty"`
}

// BBox returns the node's bounding box in canvas units.
func (n Node) BBox() geom.Rect { return geom.R(n.X, n.Y, n.Width, n.Height) }

// Anchor is the point connections attach to.
func (n Node) Anchor() geom.Pt { return n.BBox().Center() }

// Connection links two entities (shape or node) by id. SourceID and
// TargetID always differ and always resolve while the connection lives;
// deleting an endpoint cascades to the connection.
type Connection struct {
	ID       string `json:"id"`
	SourceID string `json:"sourceId"`
	TargetID string `json:"targetId"`
}

// NodePatch is a partial node update; nil fields are left untouched.
type NodePatch struct {
	X      *float64
	Y      *float64
	Width  *float64
	Height *float64
	Title  *string
	Body   *string
}

// Apply writes the non-nil patch fields onto n.
func (p NodePatch) Apply(n *Node) {
	if p.X != nil {
		n.X = *p.X
	}
	if p.Y != nil {
		n.Y = *p.Y
	}
	if p.Width != nil {
		n.Width = *p.Width
	}
	if p.Height != nil {
		n.Height = *p.Height
	}
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Body != nil {
		n.Body = *p.Body
	}
}

// NodeByID returns a pointer into the canvas node slice, or nil. The
// pointer stays valid until the slice is appended to; gestures never
// append while mutating.
func (c *Canvas) NodeByID(id string) *Node {
	for i := range c.Nodes {
		if c.Nodes[i].ID == id {
			return &c.Nodes[i]
		}
	}
	return nil
}

// ShapeByID returns the shape with the given id, or nil.
func (c *Canvas) ShapeByID(id string) Shape {
	for _, s := range c.Shapes {
		if s.ShapeID() == id {
			return s
		}
	}
	return nil
}

// HasEntity reports whether any shape or node carries the id.
func (c *Canvas) HasEntity(id string) bool {
	return c.NodeByID(id) != nil || c.ShapeByID(id) != nil
}

// CanvasByID returns a pointer to the canvas with the given id, or nil.
func (w *Workspace) CanvasByID(id string) *Canvas {
	for i := range w.Canvases {
		if w.Canvases[i].ID == id {
			return &w.Canvases[i]
		}
	}
	return nil
}
