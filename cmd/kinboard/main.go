/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"kinboard/internal/backend"
	"kinboard/internal/boardpack"
	"kinboard/internal/crash"
	"kinboard/internal/domain"
	"kinboard/internal/export"
	applog "kinboard/internal/log"
	"kinboard/internal/storage"
	"kinboard/internal/stylepack"
	"kinboard/internal/telemetry"
	"kinboard/internal/ui"
	"kinboard/internal/version"
)

func usage() {
	fmt.Println("Kinboard — relationship whiteboard")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  kinboard version|-v|--version             Show version")
	fmt.Println("  kinboard init <dir> <name>                Create a new workspace at <dir> with name <name>")
	fmt.Println("  kinboard open <dir>                       Open workspace at <dir> and print summary")
	fmt.Println("  kinboard save <dir>                       Save workspace at <dir> (creates backup)")
	fmt.Println("  kinboard export <dir> <pdf|png|svg|all> [canvas]")
	fmt.Println("                                            Export canvases under <dir>/exports; optional 1-based canvas number")
	fmt.Println("  kinboard pack <dir> <out.zip>             Archive board and assets into a shareable pack")
	fmt.Println("  kinboard unpack <dir> <in.zip>            Install a pack into workspace <dir>")
	fmt.Println("  kinboard index <dir>                      Rebuild the full-text search index")
	fmt.Println("  kinboard search <dir> <text>              Search note titles and bodies")
	fmt.Println("  kinboard serve                            Start the thin sync backend (Postgres)")
	fmt.Println("  kinboard ui [<dir>]                       Launch desktop UI (build with -tags fyne for full UI)")
}

func main() {
	// initialize structured logging using environment defaults
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")
	var wh *storage.WorkspaceHandle
	defer func() { crash.Recover(wh) }()

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) > 1 {
		switch args[1] {
		case "version", "--version", "-v":
			fmt.Println("Kinboard — relationship whiteboard")
			fmt.Println(version.String())
			return
		case "init":
			if len(args) < 4 {
				fmt.Println("init requires <dir> and <name>")
				usage()
				os.Exit(2)
			}
			dir := args[2]
			name := args[3]
			abs, _ := filepath.Abs(dir)
			l.Info("init workspace", slog.String("root", abs), slog.String("name", name))
			h, err := storage.InitWorkspace(abs, domain.Workspace{Name: name})
			if err != nil {
				l.Error("init failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			wh = h
			fmt.Println("Created workspace at", abs)
			return
		case "open":
			h := mustOpen(l, args, 3, "open requires <dir>")
			wh = h
			fmt.Printf("Opened workspace: %s\n", h.Workspace.Name)
			fmt.Printf("Canvases: %d\n", len(h.Workspace.Canvases))
			for i := range h.Workspace.Canvases {
				cv := &h.Workspace.Canvases[i]
				fmt.Printf("  %-24s shapes=%d nodes=%d connections=%d\n",
					cv.Name, len(cv.Shapes), len(cv.Nodes), len(cv.Connections))
			}
			fmt.Println("Root:", h.Root)
			return
		case "save":
			h := mustOpen(l, args, 3, "save requires <dir>")
			wh = h
			h.Workspace.Metadata.Notes = fmt.Sprintf("Saved at %s", time.Now().Format(time.RFC3339))
			if err := storage.Save(h); err != nil {
				l.Error("save failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			fmt.Println("Saved workspace and created a backup of previous manifest (if any).")
			return
		case "export":
			if len(args) < 4 {
				fmt.Println("export requires <dir> and a format (pdf|png|svg|all)")
				usage()
				os.Exit(2)
			}
			h := mustOpen(l, args, 3, "export requires <dir>")
			wh = h
			format := args[3]

			// Optional trailing canvas number (1-based) restricts the export.
			var canvases []int
			if len(args) > 4 {
				n, convErr := strconv.Atoi(args[4])
				if convErr != nil || n < 1 || n > len(h.Workspace.Canvases) {
					fmt.Println("canvas number out of range:", args[4])
					os.Exit(2)
				}
				canvases = []int{n - 1}
			}

			// A style.yaml in the workspace root overrides the built-in pack.
			style := stylepack.Default()
			stylePath := filepath.Join(h.Root, "style.yaml")
			if _, statErr := os.Stat(stylePath); statErr == nil {
				p, loadErr := stylepack.Load(stylePath)
				if loadErr != nil {
					fmt.Println("Error:", loadErr)
					os.Exit(1)
				}
				style = p
			}

			var err error
			switch format {
			case "pdf":
				err = export.ExportWorkspacePDF(h, "board.pdf", export.PDFOptions{Canvases: canvases})
			case "png":
				err = export.ExportWorkspacePNGCanvases(h, "png", export.PNGOptions{Canvases: canvases})
			case "svg":
				err = export.ExportWorkspaceSVGCanvases(h, "svg", export.SVGOptions{Canvases: canvases})
			case "all":
				err = export.BatchExport(h, export.BatchOptions{
					Preset:   export.PresetPrint,
					Formats:  []string{"pdf", "png", "svg"},
					Canvases: canvases,
					Style:    &style,
				})
			default:
				fmt.Println("unknown export format:", format)
				os.Exit(2)
			}
			telemetry.Event("export", map[string]any{"format": format})
			if err != nil {
				l.Error("export failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			fmt.Println("Exported to", filepath.Join(h.Root, "exports"))
			return
		case "pack":
			if len(args) < 4 {
				fmt.Println("pack requires <dir> and <out.zip>")
				usage()
				os.Exit(2)
			}
			abs, _ := filepath.Abs(args[2])
			if err := boardpack.ExportWorkspacePack(abs, args[3]); err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			fmt.Println("Wrote pack", args[3])
			return
		case "unpack":
			if len(args) < 4 {
				fmt.Println("unpack requires <dir> and <in.zip>")
				usage()
				os.Exit(2)
			}
			abs, _ := filepath.Abs(args[2])
			n, err := boardpack.ImportPack(abs, args[3])
			if err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			fmt.Printf("Installed %d file(s) into %s\n", n, abs)
			return
		case "index":
			h := mustOpen(l, args, 3, "index requires <dir>")
			wh = h
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()
			if err := storage.RebuildIndex(ctx, h.Root, h.Workspace); err != nil {
				l.Error("index rebuild failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			fmt.Println("Index rebuilt.")
			return
		case "search":
			if len(args) < 4 {
				fmt.Println("search requires <dir> and <text>")
				usage()
				os.Exit(2)
			}
			h := mustOpen(l, args, 3, "search requires <dir>")
			wh = h
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			res, err := storage.Search(ctx, h.Root, storage.SearchQuery{Text: args[3]})
			if err != nil {
				l.Error("search failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			for _, r := range res {
				fmt.Printf("%-12s %-40s %s\n", r.Type, r.Path, r.Snippet)
			}
			fmt.Printf("%d result(s)\n", len(res))
			return
		case "serve":
			if err := backend.Start(); err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			return
		case "ui":
			var dir string
			if len(args) >= 3 {
				dir = args[2]
			}
			if err := ui.Run(dir); err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			return
		}
	}

	usage()
}

func mustOpen(l *slog.Logger, args []string, minArgs int, hint string) *storage.WorkspaceHandle {
	if len(args) < minArgs {
		fmt.Println(hint)
		usage()
		os.Exit(2)
	}
	abs, _ := filepath.Abs(args[2])
	l.Info("open workspace", slog.String("root", abs))
	h, err := storage.Open(abs)
	if err != nil {
		l.Error("open failed", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	return h
}
