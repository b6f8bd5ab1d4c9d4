/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"os"
	"path/filepath"
	"testing"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"kinboard/internal/domain"
	"kinboard/internal/geom"
)

func TestManifestConformsToSchema(t *testing.T) {
	root := t.TempDir()
	wh, err := InitWorkspace(root, domain.Workspace{Name: "Schema Test"})
	if err != nil {
		t.Fatalf("InitWorkspace error: %v", err)
	}
	// Populate one of everything so the schema sees real content
	store := NewCanvasStore(wh)
	cv := &wh.Workspace.Canvases[0]
	n, err := store.CreateNode(cv.ID, 10, 20, "Aunt June", "birthday in May")
	if err != nil {
		t.Fatalf("create node: %v", err)
	}
	cv.Shapes = append(cv.Shapes, &domain.Rectangle{ID: "r1", Rect: geom.R(0, 0, 40, 30)})
	if _, err := store.CreateConnection(cv.ID, n.ID, "r1"); err != nil {
		t.Fatalf("create connection: %v", err)
	}
	if err := Save(wh); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	data, err := os.ReadFile(wh.ManifestPath)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}

	schemaPath := filepath.Join("..", "..", "docs", "board.schema.json")
	schemaBytes, err := os.ReadFile(schemaPath)
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}

	schemaLoader := gojsonschema.NewBytesLoader(schemaBytes)
	docLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		t.Fatalf("schema validate error: %v", err)
	}
	if !result.Valid() {
		for _, e := range result.Errors() {
			t.Logf("schema error: %s", e)
		}
		t.Fatalf("manifest does not conform to schema")
	}
}
