/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

// Package boardpack bundles a workspace into a single .zip archive for
// sharing and restores one into an empty directory. The archive carries
// board.json plus the assets directory; the derived index is rebuilt on
// open and is never packed.
package boardpack

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "kinboard/internal/log"
	"kinboard/internal/storage"
)

// ExportWorkspacePack zips the workspace manifest and assets into destZipPath.
// The produced archive preserves the directory structure and adds a small
// manifest file at the root named boardpack.manifest.txt for quick human
// inspection.
func ExportWorkspacePack(workspaceRoot string, destZipPath string) error {
	l := applog.WithOperation(applog.WithComponent("boardpack"), "export").With(slog.String("workspace", workspaceRoot))
	if strings.TrimSpace(workspaceRoot) == "" {
		return errors.New("workspaceRoot is required")
	}
	if strings.TrimSpace(destZipPath) == "" {
		return errors.New("destZipPath is required")
	}
	manifestPath := filepath.Join(workspaceRoot, storage.ManifestFileName)
	if _, err := os.Stat(manifestPath); err != nil {
		return fmt.Errorf("workspace manifest: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(destZipPath), 0o755); err != nil {
		return fmt.Errorf("ensure zip dir: %w", err)
	}
	// On Windows, remove destination if present before create
	_ = os.Remove(destZipPath)

	zf, err := os.Create(destZipPath)
	if err != nil {
		return fmt.Errorf("create zip: %w", err)
	}
	defer func() { _ = zf.Close() }()
	zw := zip.NewWriter(zf)
	defer func() { _ = zw.Close() }()

	manifest := fmt.Sprintf("Kinboard Board Pack\nCreated: %s\nWorkspace: %s\n\nContents: board.json plus the workspace assets directory.\n",
		time.Now().Format(time.RFC3339), workspaceRoot)
	w, err := zw.Create("boardpack.manifest.txt")
	if err != nil {
		return fmt.Errorf("add manifest: %w", err)
	}
	if _, err := w.Write([]byte(manifest)); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	added := 0
	addFile := func(path, zipName string) error {
		fw, err := zw.Create(zipName)
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		if _, err := io.Copy(fw, f); err != nil {
			return err
		}
		added++
		return nil
	}

	if err := addFile(manifestPath, storage.ManifestFileName); err != nil {
		l.Error("zip build failed", slog.Any("err", err))
		return fmt.Errorf("build zip: %w", err)
	}

	assetsDir := filepath.Join(workspaceRoot, storage.AssetsDirName)
	err = filepath.Walk(assetsDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(workspaceRoot, path)
		if err != nil {
			return err
		}
		// Normalize to forward slashes inside zip
		return addFile(path, filepath.ToSlash(rel))
	})
	if err != nil {
		l.Error("zip build failed", slog.Any("err", err))
		return fmt.Errorf("build zip: %w", err)
	}
	l.Info("board pack exported", slog.Int("files", added), slog.String("zip", destZipPath))
	return nil
}

// ImportPack extracts the given .zip pack into destRoot. Existing files are
// not overwritten; if a file already exists, it is skipped. Returns the
// count of files installed (skipped files are not counted).
func ImportPack(destRoot string, packZipPath string) (int, error) {
	l := applog.WithOperation(applog.WithComponent("boardpack"), "import").With(slog.String("dest", destRoot))
	if strings.TrimSpace(destRoot) == "" {
		return 0, errors.New("destRoot is required")
	}
	if strings.TrimSpace(packZipPath) == "" {
		return 0, errors.New("packZipPath is required")
	}
	if err := os.MkdirAll(destRoot, 0o755); err != nil {
		return 0, fmt.Errorf("ensure dest dir: %w", err)
	}

	r, err := zip.OpenReader(packZipPath)
	if err != nil {
		return 0, fmt.Errorf("open pack: %w", err)
	}
	defer func() { _ = r.Close() }()

	installed := 0
	for _, f := range r.File {
		name := f.Name
		// Skip top-level manifest file
		if name == "boardpack.manifest.txt" {
			continue
		}
		// Reject entries that would escape the destination
		if strings.Contains(name, "..") || filepath.IsAbs(name) {
			l.Warn("skip suspicious entry", slog.String("name", name))
			continue
		}
		targetPath := filepath.Join(destRoot, filepath.FromSlash(name))
		if _, err := os.Stat(targetPath); err == nil {
			l.Warn("skip existing file", slog.String("path", targetPath))
			continue
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(targetPath, 0o755); err != nil {
				return installed, err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
			return installed, err
		}
		rc, err := f.Open()
		if err != nil {
			return installed, err
		}
		out, err := os.OpenFile(targetPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			_ = rc.Close()
			return installed, err
		}
		if _, err := io.Copy(out, rc); err != nil {
			_ = out.Close()
			_ = rc.Close()
			return installed, err
		}
		_ = out.Close()
		_ = rc.Close()
		installed++
	}
	l.Info("board pack imported", slog.Int("files", installed))
	return installed, nil
}
