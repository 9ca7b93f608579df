package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vanderheijden86/treestack/pkg/config"
	"github.com/vanderheijden86/treestack/pkg/export"
	"github.com/vanderheijden86/treestack/pkg/loader"
	"github.com/vanderheijden86/treestack/pkg/model"
	"github.com/vanderheijden86/treestack/pkg/tree"
)

func TestDocListSplitsCommas(t *testing.T) {
	var d docList
	for _, v := range []string{"a.json, b.yaml", "c.jsonl", " ,"} {
		if err := d.Set(v); err != nil {
			t.Fatal(err)
		}
	}
	if got := d.String(); got != "a.json,b.yaml,c.jsonl" {
		t.Errorf("docList = %q", got)
	}
}

func TestDocumentPathsPrefersFlags(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Root = dir
	cfg.Documents = []string{"configured.json"}

	got := documentPaths(&cfg, nil)
	if len(got) != 1 || got[0] != filepath.Join(dir, "configured.json") {
		t.Errorf("configured paths = %v", got)
	}

	got = documentPaths(&cfg, []string{"x.json", "x.json"})
	if len(got) != 1 || !filepath.IsAbs(got[0]) || filepath.Base(got[0]) != "x.json" {
		t.Errorf("flag paths = %v", got)
	}
}

func TestDocumentTitle(t *testing.T) {
	tests := []struct {
		results []*loader.Result
		want    string
	}{
		{[]*loader.Result{{Path: "/tmp/plan.tree.json", Document: model.Document{Title: "Roadmap"}}}, "Roadmap"},
		{[]*loader.Result{{Path: "/tmp/plan.yaml"}}, "plan"},
		{[]*loader.Result{{Path: "/a.json"}, {Path: "/b.json"}}, ""},
	}
	for _, tt := range tests {
		if got := documentTitle(tt.results); got != tt.want {
			t.Errorf("documentTitle = %q, want %q", got, tt.want)
		}
	}
}

func TestVisibleForestComputesVisibility(t *testing.T) {
	child := tree.NewNode[model.Item]("child", "Child")
	parent := tree.NewNode("parent", "Parent", child)
	parent.IsVisible = false

	nodes, err := visibleForest([]model.Node{parent})
	if err != nil {
		t.Fatal(err)
	}
	if nodes[0].Children[0].IsVisibleComputed {
		t.Error("child of a hidden parent should not be visible")
	}

	dup := tree.NewNode[model.Item]("parent", "Again")
	if _, err := visibleForest([]model.Node{parent, dup}); err == nil {
		t.Error("expected duplicate key error")
	}
}

func TestRunExports(t *testing.T) {
	dir := t.TempDir()
	a := tree.NewNode[model.Item]("a", "Alpha")
	nodes, err := visibleForest([]model.Node{tree.NewNode("root", "Root", a)})
	if err != nil {
		t.Fatal(err)
	}
	targets := exportTargets{
		MD:  filepath.Join(dir, "out.md"),
		SVG: filepath.Join(dir, "out.svg"),
		PNG: filepath.Join(dir, "out.png"),
	}
	if targets.empty() {
		t.Fatal("targets should not be empty")
	}

	var out bytes.Buffer
	if err := runExports(targets, nodes, "Plan", export.Options{}, &out); err != nil {
		t.Fatalf("runExports: %v", err)
	}
	if !strings.HasSuffix(out.String(), "Done!\n") {
		t.Errorf("unexpected progress output %q", out.String())
	}
	for _, path := range []string{targets.MD, targets.SVG, targets.PNG} {
		info, err := os.Stat(path)
		if err != nil || info.Size() == 0 {
			t.Errorf("%s not written: %v", path, err)
		}
	}
	md, _ := os.ReadFile(targets.MD)
	if !strings.Contains(string(md), "Alpha") {
		t.Error("markdown should list the nodes")
	}
}

func TestLoadConfigExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.DirName, config.FileName)
	cfg := config.Default()
	cfg.Documents = []string{"plan.json"}
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}

	got, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Root != dir {
		t.Errorf("Root = %q, want %q", got.Root, dir)
	}

	if _, err := loadConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing config")
	}
}
