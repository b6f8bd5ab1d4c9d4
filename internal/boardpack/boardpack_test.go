/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package boardpack

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"kinboard/internal/domain"
	"kinboard/internal/storage"
)

func TestExportAndImportPack(t *testing.T) {
	// Create a workspace with an asset
	root := t.TempDir()
	wh, err := storage.InitWorkspace(root, domain.Workspace{Name: "Pack Test"})
	if err != nil {
		t.Fatalf("init workspace: %v", err)
	}
	assetsDir := filepath.Join(wh.Root, storage.AssetsDirName)
	if err := os.WriteFile(filepath.Join(assetsDir, "mum.png"), []byte("not a real png"), 0o644); err != nil {
		t.Fatalf("write asset: %v", err)
	}
	sub := filepath.Join(assetsDir, "scans")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir scans: %v", err)
	}
	if err := os.WriteFile(filepath.Join(sub, "letter.jpg"), []byte("jpg bytes"), 0o644); err != nil {
		t.Fatalf("write scan: %v", err)
	}

	// Export pack
	zipPath := filepath.Join(t.TempDir(), "out.zip")
	if err := ExportWorkspacePack(root, zipPath); err != nil {
		t.Fatalf("export pack: %v", err)
	}
	st, err := os.Stat(zipPath)
	if err != nil || st.Size() == 0 {
		t.Fatalf("zip not created or empty: %v", err)
	}
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	_ = r.Close()

	// Import into a fresh directory
	dest := t.TempDir()
	installed, err := ImportPack(dest, zipPath)
	if err != nil {
		t.Fatalf("import pack: %v", err)
	}
	if installed < 3 {
		t.Fatalf("expected manifest and assets installed, got %d", installed)
	}
	if _, err := os.Stat(filepath.Join(dest, storage.ManifestFileName)); err != nil {
		t.Fatalf("expected board.json imported: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dest, storage.AssetsDirName, "scans", "letter.jpg")); err != nil {
		t.Fatalf("expected nested asset imported: %v", err)
	}
	// Imported workspace opens
	if _, err := storage.Open(dest); err != nil {
		t.Fatalf("imported workspace must open: %v", err)
	}
}

func TestImportSkipsExistingFiles(t *testing.T) {
	root := t.TempDir()
	if _, err := storage.InitWorkspace(root, domain.Workspace{Name: "A"}); err != nil {
		t.Fatalf("init workspace: %v", err)
	}
	zipPath := filepath.Join(t.TempDir(), "pack.zip")
	if err := ExportWorkspacePack(root, zipPath); err != nil {
		t.Fatalf("export: %v", err)
	}
	// Importing over the same root must not clobber board.json
	installed, err := ImportPack(root, zipPath)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if installed != 0 {
		t.Fatalf("expected all files skipped, installed=%d", installed)
	}
}

func TestExportRequiresWorkspace(t *testing.T) {
	if err := ExportWorkspacePack(t.TempDir(), filepath.Join(t.TempDir(), "x.zip")); err == nil {
		t.Fatalf("expected error for directory without a manifest")
	}
}
