/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"kinboard/internal/domain"

	_ "modernc.org/sqlite"
)

func TestIndexInitCreatesWALAndMetaVersion(t *testing.T) {
	root := t.TempDir()
	wh, err := InitWorkspace(root, domain.Workspace{Name: "Index Test"})
	if err != nil {
		t.Fatalf("InitWorkspace error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := BuildIndexIfEmpty(ctx, root, wh.Workspace); err != nil {
		t.Fatalf("BuildIndexIfEmpty: %v", err)
	}
	idxPath := IndexPath(root)
	if _, err := os.Stat(idxPath); err != nil {
		t.Fatalf("index file missing at %s: %v", idxPath, err)
	}
	// Open DB and verify journal mode and tables
	uriPath := filepath.ToSlash(idxPath)
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(2000)", uriPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()

	var mode string
	if err := db.QueryRowContext(ctx, "PRAGMA journal_mode;").Scan(&mode); err != nil {
		t.Fatalf("read journal_mode: %v", err)
	}
	if mode != "wal" && mode != "WAL" {
		t.Fatalf("expected WAL mode, got %s", mode)
	}
	var cnt int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('meta','version')").Scan(&cnt); err != nil {
		t.Fatalf("query sqlite_master: %v", err)
	}
	if cnt != 2 {
		t.Fatalf("expected 2 meta tables, got %d", cnt)
	}
	// Check core schema tables exist (including virtual table)
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('documents','fts_documents','links','assets','snapshots')").Scan(&cnt); err != nil {
		t.Fatalf("query core tables: %v", err)
	}
	if cnt != 5 {
		t.Fatalf("expected 5 core tables, got %d", cnt)
	}
	// Insert a document with a high doc_id to avoid collisions and verify FTS triggers populate index
	if _, err := db.ExecContext(ctx, `INSERT INTO documents(doc_id, type, path, canvas_id, entity_id, text) VALUES(10001,'node_body','canvas:c1/node:n1/body','c1','n1','hello world');`); err != nil {
		t.Fatalf("insert document: %v", err)
	}
	var ftsCount int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM fts_documents WHERE fts_documents MATCH 'hello' ").Scan(&ftsCount); err != nil {
		t.Fatalf("fts query: %v", err)
	}
	if ftsCount == 0 {
		t.Fatalf("expected FTS to find inserted document")
	}
}

func TestIndexDerivedFromWorkspace(t *testing.T) {
	root := t.TempDir()
	wh, err := InitWorkspace(root, domain.Workspace{Name: "Family Board"})
	if err != nil {
		t.Fatalf("InitWorkspace error: %v", err)
	}
	store := NewCanvasStore(wh)
	cv := &wh.Workspace.Canvases[0]
	a, _ := store.CreateNode(cv.ID, 0, 0, "Grandma Rosa", "calls every sunday")
	b, _ := store.CreateNode(cv.ID, 600, 0, "Cousin Leo", "moved to Hamburg")
	if _, err := store.CreateConnection(cv.ID, a.ID, b.ID); err != nil {
		t.Fatalf("create connection: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := UpdateIndex(ctx, root, wh.Workspace); err != nil {
		t.Fatalf("UpdateIndex: %v", err)
	}

	res, err := Search(ctx, root, SearchQuery{Text: "sunday"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res) != 1 || res[0].EntityID != a.ID {
		t.Fatalf("expected body match on node %s, got %+v", a.ID, res)
	}
	// The connection surfaces in the link graph
	linked, err := LinkedFromEntity(ctx, root, b.ID, 10, 0)
	if err != nil {
		t.Fatalf("linked-from: %v", err)
	}
	if len(linked) != 1 || linked[0].EntityID != a.ID {
		t.Fatalf("expected %s linked from %s, got %+v", a.ID, b.ID, linked)
	}
}
