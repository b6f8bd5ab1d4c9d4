package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"kinboard/internal/domain"
)

func TestInitWorkspaceCreatesStructureAndManifest(t *testing.T) {
	root := t.TempDir()
	ws := domain.Workspace{Name: "Test Board"}

	wh, err := InitWorkspace(root, ws)
	if err != nil {
		t.Fatalf("InitWorkspace error: %v", err)
	}
	if wh == nil {
		t.Fatalf("InitWorkspace returned nil handle")
	}

	if wh.ManifestPath == "" {
		t.Fatalf("ManifestPath not set")
	}
	b, err := os.ReadFile(wh.ManifestPath)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	var got domain.Workspace
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal manifest: %v", err)
	}
	if got.Name != ws.Name {
		t.Fatalf("manifest name mismatch: got %q want %q", got.Name, ws.Name)
	}
	// An empty workspace gets a first canvas with an identity viewport
	if len(got.Canvases) != 1 || got.Canvases[0].Viewport.Scale != 1 {
		t.Fatalf("expected one seeded canvas at scale 1, got %+v", got.Canvases)
	}

	wantDirs := []string{AssetsDirName, "exports", BackupsDirName}
	for _, d := range wantDirs {
		p := filepath.Join(root, d)
		if fi, err := os.Stat(p); err != nil || !fi.IsDir() {
			t.Fatalf("expected directory %s to exist", p)
		}
	}
}

func TestSaveCreatesTimestampedBackup(t *testing.T) {
	root := t.TempDir()
	wh, err := InitWorkspace(root, domain.Workspace{Name: "Backup Test"})
	if err != nil {
		t.Fatalf("InitWorkspace error: %v", err)
	}

	// Change something and save again to force a backup
	wh.Workspace.Metadata.Notes = "changed"
	if err := Save(wh); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	ents, err := os.ReadDir(filepath.Join(root, BackupsDirName))
	if err != nil {
		t.Fatalf("read backups dir: %v", err)
	}
	var bakCount int
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, ManifestFileName+".") && strings.HasSuffix(name, ".bak") {
			bakCount++
		}
	}
	if bakCount == 0 {
		t.Fatalf("expected at least one backup file, found 0")
	}
}

func TestOpenFallsBackToLatestBackupOnCorruption(t *testing.T) {
	root := t.TempDir()
	wh, err := InitWorkspace(root, domain.Workspace{Name: "Open From Backup"})
	if err != nil {
		t.Fatalf("InitWorkspace error: %v", err)
	}

	// Force a backup to exist by saving
	wh.Workspace.Metadata.Notes = "touch"
	if err := Save(wh); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	if err := os.WriteFile(wh.ManifestPath, []byte("{ this is not json"), 0o644); err != nil {
		t.Fatalf("corrupt manifest: %v", err)
	}

	opened, err := Open(root)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if opened.Workspace.Name != "Open From Backup" {
		t.Fatalf("opened workspace name mismatch: got %q", opened.Workspace.Name)
	}
}

func TestManifestRoundTripsShapes(t *testing.T) {
	root := t.TempDir()
	wh, err := InitWorkspace(root, domain.Workspace{Name: "Shapes"})
	if err != nil {
		t.Fatalf("InitWorkspace error: %v", err)
	}
	cv := &wh.Workspace.Canvases[0]
	cv.Shapes = append(cv.Shapes,
		&domain.Rectangle{ID: "r1"},
		&domain.Circle{ID: "c1", Radius: 10})
	if err := Save(wh); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	opened, err := Open(root)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	got := opened.Workspace.Canvases[0].Shapes
	if len(got) != 2 {
		t.Fatalf("expected 2 shapes, got %d", len(got))
	}
	if _, ok := got[1].(*domain.Circle); !ok {
		t.Fatalf("shape kind lost across save/open: %T", got[1])
	}
}

func TestAutosaveCrashSnapshotWritesFile(t *testing.T) {
	root := t.TempDir()
	wh, err := InitWorkspace(root, domain.Workspace{Name: "Crash Snapshot"})
	if err != nil {
		t.Fatalf("InitWorkspace error: %v", err)
	}

	path, err := AutosaveCrashSnapshot(wh)
	if err != nil {
		t.Fatalf("AutosaveCrashSnapshot error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("snapshot file does not exist: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	var got domain.Workspace
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if got.Name != "Crash Snapshot" {
		t.Fatalf("snapshot content mismatch: got %q", got.Name)
	}
	// The real manifest must be untouched
	if _, err := os.Stat(wh.ManifestPath); err != nil {
		t.Fatalf("manifest missing after crash snapshot: %v", err)
	}
}
