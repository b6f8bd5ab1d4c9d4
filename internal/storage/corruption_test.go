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
	"os"
	"path/filepath"
	"testing"
	"time"

	"kinboard/internal/domain"
)

func TestDetectAndRebuildIndex_OnCorruption(t *testing.T) {
	root := t.TempDir()
	wh, err := InitWorkspace(root, domain.Workspace{Name: "CorruptTest"})
	if err != nil || wh == nil {
		t.Fatalf("InitWorkspace error: %v", err)
	}
	store := NewCanvasStore(wh)
	cv := &wh.Workspace.Canvases[0]
	if _, err := store.CreateNode(cv.ID, 0, 0, "Bob", "hello there"); err != nil {
		t.Fatalf("create node: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := BuildIndexIfEmpty(ctx, root, wh.Workspace); err != nil {
		t.Fatalf("BuildIndexIfEmpty: %v", err)
	}
	// Corrupt the DB file by writing junk
	idx := IndexPath(root)
	if err := os.WriteFile(idx, []byte("THIS IS NOT SQLITE"), 0o644); err != nil {
		t.Fatalf("write corrupt: %v", err)
	}
	rebuilt, err := DetectAndRebuildIndex(ctx, root, wh.Workspace)
	if err != nil {
		t.Fatalf("DetectAndRebuildIndex: %v", err)
	}
	if !rebuilt {
		t.Fatalf("expected rebuild to occur")
	}
	// Verify DB looks healthy and searchable again
	st, err := os.Stat(IndexPath(root))
	if err != nil || st.Size() == 0 {
		t.Fatalf("rebuilt index missing or empty: %v", err)
	}
	res, err := Search(ctx, root, SearchQuery{Text: "hello"})
	if err != nil {
		t.Fatalf("search after rebuild: %v", err)
	}
	if len(res) == 0 {
		t.Fatalf("rebuilt index must contain the node body")
	}
	// Backup file should exist
	bdir := filepath.Join(root, IndexDirName, "backups")
	entries, _ := os.ReadDir(bdir)
	if len(entries) == 0 {
		t.Fatalf("expected backup file in %s", bdir)
	}
}
