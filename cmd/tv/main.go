package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/vanderheijden86/treestack/pkg/config"
	"github.com/vanderheijden86/treestack/pkg/export"
	"github.com/vanderheijden86/treestack/pkg/loader"
	"github.com/vanderheijden86/treestack/pkg/model"
	"github.com/vanderheijden86/treestack/pkg/tree"
	"github.com/vanderheijden86/treestack/pkg/ui"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// docList collects -doc values. The flag may repeat and each value may
// hold a comma separated list.
type docList []string

func (d *docList) String() string {
	return strings.Join(*d, ",")
}

func (d *docList) Set(value string) error {
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*d = append(*d, part)
		}
	}
	return nil
}

func main() {
	var docs docList
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	configPath := flag.String("config", "", "Path to config file (default: discover .treestack/config.yaml)")
	flag.Var(&docs, "doc", "Tree document to load (.json, .yaml, .jsonl); repeatable or comma separated")
	watch := flag.Bool("watch", false, "Reload documents when they change on disk")
	exportMD := flag.String("export-md", "", "Export the visible tree to a Markdown file")
	exportSVG := flag.String("export-svg", "", "Export the visible tree to an SVG file")
	exportPNG := flag.String("export-png", "", "Export the visible tree to a PNG file")
	robotTree := flag.Bool("robot-tree", false, "Output the visible tree as JSON for scripts")
	includeHidden := flag.Bool("include-hidden", false, "Include hidden nodes in exports")
	flag.Parse()

	if *help {
		fmt.Println("Usage: tv [options]")
		fmt.Println("\nA terminal editor for keyed trees.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *versionFlag {
		fmt.Printf("tv %s\n", Version)
		os.Exit(0)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	paths := documentPaths(cfg, docs)
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "No documents found. Pass -doc or list documents in .treestack/config.yaml.")
		os.Exit(1)
	}

	results, err := loader.LoadAll(context.Background(), paths)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading documents: %v\n", err)
		os.Exit(1)
	}
	nodes, err := loader.Merge(results)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error merging documents: %v\n", err)
		os.Exit(1)
	}
	title := documentTitle(results)

	opts := export.Options{IncludeHidden: *includeHidden}
	exports := exportTargets{MD: *exportMD, SVG: *exportSVG, PNG: *exportPNG}
	if !exports.empty() {
		visible, err := visibleForest(nodes)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := runExports(exports, visible, title, opts, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Headless callers get JSON instead of an alt-screen program.
	if *robotTree || !term.IsTerminal(int(os.Stdout.Fd())) {
		visible, err := visibleForest(nodes)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := export.WriteJSON(os.Stdout, visible, title, opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding tree: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	closeLog := setupLogging()
	defer closeLog()

	var worker *ui.ReloadWorker
	if *watch || cfg.Watch {
		worker, err = ui.NewReloadWorker(ui.WorkerConfig{Paths: paths})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error watching documents: %v\n", err)
			os.Exit(1)
		}
		defer worker.Stop()
	}

	m, err := ui.NewModel(nodes, ui.Options{
		Config:    cfg,
		Documents: paths,
		Title:     title,
		Worker:    worker,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if worker != nil {
		worker.SetProgram(p)
		if err := worker.Start(); err != nil {
			log.Printf("warning: live reload disabled: %v", err)
		}
	}
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running tree viewer: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads an explicit config file, or discovers one from the
// working directory.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadOrDefault("")
}

// documentPaths prefers documents named on the command line over the
// configured and discovered ones.
func documentPaths(cfg *config.Config, docs []string) []string {
	if len(docs) == 0 {
		return config.DiscoverDocuments(*cfg)
	}
	paths := make([]string, 0, len(docs))
	seen := make(map[string]bool)
	for _, d := range docs {
		abs, err := filepath.Abs(d)
		if err != nil {
			abs = d
		}
		if !seen[abs] {
			seen[abs] = true
			paths = append(paths, abs)
		}
	}
	return paths
}

// documentTitle uses the title of a single document, else the file name.
func documentTitle(results []*loader.Result) string {
	if len(results) != 1 {
		return ""
	}
	if t := results[0].Document.Title; t != "" {
		return t
	}
	base := filepath.Base(results[0].Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// visibleForest runs the forest through the cache so that computed
// visibility is set before exporting.
func visibleForest(nodes []model.Node) ([]model.Node, error) {
	c, err := tree.NewCache(nodes)
	if err != nil {
		return nil, err
	}
	return c.ToTree(true), nil
}

type exportTargets struct {
	MD  string
	SVG string
	PNG string
}

func (e exportTargets) empty() bool {
	return e.MD == "" && e.SVG == "" && e.PNG == ""
}

// runExports writes every requested export and reports progress to out.
func runExports(targets exportTargets, nodes []model.Node, title string, opts export.Options, out io.Writer) error {
	if targets.MD != "" {
		fmt.Fprintf(out, "Exporting to %s...\n", targets.MD)
		if err := export.SaveMarkdownToFile(nodes, title, targets.MD, opts); err != nil {
			return err
		}
	}
	if targets.SVG != "" {
		fmt.Fprintf(out, "Exporting to %s...\n", targets.SVG)
		f, err := os.Create(targets.SVG)
		if err != nil {
			return err
		}
		if err := export.WriteSVG(f, nodes, title, opts); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	if targets.PNG != "" {
		fmt.Fprintf(out, "Exporting to %s...\n", targets.PNG)
		if err := export.SavePNG(targets.PNG, nodes, title, opts); err != nil {
			return err
		}
	}
	fmt.Fprintln(out, "Done!")
	return nil
}

// setupLogging sends log output to $TREESTACK_LOG while the alt screen is
// up, or discards it.
func setupLogging() func() {
	path := os.Getenv("TREESTACK_LOG")
	if path == "" {
		log.SetOutput(io.Discard)
		return func() {}
	}
	f, err := tea.LogToFile(path, "tv")
	if err != nil {
		log.SetOutput(io.Discard)
		return func() {}
	}
	return func() { f.Close() }
}
