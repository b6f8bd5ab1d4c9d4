/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0
 */

package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"kinboard/internal/storage"
	"kinboard/internal/stylepack"
)

// PresetName represents a named export preset.
type PresetName string

const (
	PresetWeb   PresetName = "web"
	PresetPrint PresetName = "print"
)

// BatchOptions controls batch export across multiple formats and canvases.
//
// Path semantics:
//   - If OutDir is empty or relative, it will be created under <workspace>/exports/<preset>/.
//   - For the PDF single-file output, the name is board.pdf in OutDir.
//   - For PNG/SVG per-canvas outputs, files are canvas-<n>.(png|svg) in subfolders png/ or svg/
//     inside OutDir. This keeps assets grouped by preset and format.
//
//nolint:revive // keep fields explicit for clarity
type BatchOptions struct {
	Preset        PresetName
	Formats       []string // allowed: pdf, png, svg; empty means preset defaults
	Canvases      []int    // zero-based indices; empty means all canvases
	ScaleOverride float64  // when > 0 overrides the PNG raster scale
	OutDir        string   // base directory for outputs (created per preset if relative)

	// Style applies a preset pack to every format; nil keeps the exporter
	// defaults.
	Style *stylepack.Pack
}

// BatchExport runs exports according to the given preset.
func BatchExport(wh *storage.WorkspaceHandle, opt BatchOptions) error {
	if wh == nil {
		return fmt.Errorf("workspace handle is nil")
	}
	if len(wh.Workspace.Canvases) == 0 {
		return fmt.Errorf("workspace has no canvases")
	}

	formats := opt.Formats
	if len(formats) == 0 {
		formats = presetDefaultFormats(opt.Preset)
	}
	// normalize format strings
	for i := range formats {
		formats[i] = strings.ToLower(strings.TrimSpace(formats[i]))
	}

	// Resolve output base directory
	baseOut := opt.OutDir
	if baseOut == "" {
		baseOut = string(opt.Preset)
	}
	if !filepath.IsAbs(baseOut) {
		baseOut = filepath.Join(wh.Root, "exports", baseOut)
	}

	for _, f := range formats {
		switch f {
		case "pdf":
			// Single file for the whole board
			out := filepath.Join(baseOut, "pdf", "board.pdf")
			po := PDFOptions{Canvases: opt.Canvases}
			if s := opt.Style; s != nil {
				po.ShapeStroke = s.ShapeStroke
				po.NodeStroke = s.NodeStroke
				po.NodeFill = s.NodeFill
				po.ConnectionStroke = s.ConnectionStroke
			}
			if err := ExportWorkspacePDF(wh, out, po); err != nil {
				return fmt.Errorf("pdf: %w", err)
			}
		case "png":
			outDir := filepath.Join(baseOut, "png")
			po := PNGOptions{Canvases: opt.Canvases}
			if opt.ScaleOverride > 0 {
				po.Scale = opt.ScaleOverride
			}
			if s := opt.Style; s != nil {
				po.ShapeStroke = s.ShapeStroke
				po.NodeStroke = s.NodeStroke
				po.NodeFill = s.NodeFill
				po.ConnectionStroke = s.ConnectionStroke
			}
			if err := ExportWorkspacePNGCanvases(wh, outDir, po); err != nil {
				return fmt.Errorf("png: %w", err)
			}
		case "svg":
			outDir := filepath.Join(baseOut, "svg")
			so := SVGOptions{Canvases: opt.Canvases}
			if s := opt.Style; s != nil {
				so.ShapeStroke = s.ShapeStroke
				so.NodeStroke = s.NodeStroke
				so.NodeFill = s.NodeFill
				so.ConnectionStroke = s.ConnectionStroke
			}
			if err := ExportWorkspaceSVGCanvases(wh, outDir, so); err != nil {
				return fmt.Errorf("svg: %w", err)
			}
		default:
			return fmt.Errorf("unknown format: %s", f)
		}
	}
	return nil
}

func presetDefaultFormats(p PresetName) []string {
	switch p {
	case PresetWeb:
		return []string{"png", "svg"}
	case PresetPrint:
		return []string{"pdf", "png"}
	default:
		return []string{"pdf"}
	}
}
