// Package state persists per-project view state (expanded, selected and
// hidden keys) next to the document so a tree reopens the way it was left.
//
// File format (JSON), stored as <dir>/tree-state.json:
//
//	{
//	  "version": 1,
//	  "expanded": ["q1", "auth"],
//	  "selected": ["auth"],
//	  "hidden":   ["billing"]
//	}
//
// Missing or corrupted files fall back to the document's own flags.
// Keys that no longer exist in the tree are ignored on apply.
package state

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/treestack/pkg/loader"
	"github.com/vanderheijden86/treestack/pkg/tree"
)

// Version is the current schema version for the state file
const Version = 1

// DefaultDir is the state directory used when none is configured.
const DefaultDir = ".treestack"

const fileName = "tree-state.json"

// TreeState is the persisted view state.
type TreeState struct {
	Version  int      `json:"version"`
	Expanded []string `json:"expanded"`
	Selected []string `json:"selected"`
	Hidden   []string `json:"hidden"`
}

// Path returns the state file inside dir.
func Path(dir string) string {
	if dir == "" {
		dir = DefaultDir
	}
	return filepath.Join(dir, fileName)
}

// Capture records the current view state of a.
func Capture[T any](a *tree.Actions[T]) *TreeState {
	return &TreeState{
		Version:  Version,
		Expanded: a.Expanded(),
		Selected: a.Selected(),
		Hidden:   a.Hidden(),
	}
}

// Apply restores s onto a. Stale keys are dropped; the number of keys
// that were dropped is returned.
func Apply[T any](s *TreeState, a *tree.Actions[T]) (int, error) {
	if s == nil {
		return 0, nil
	}
	c := a.Cache()
	stale := 0
	known := func(keys []string) []string {
		out := make([]string, 0, len(keys))
		for _, k := range keys {
			if c.Has(k) {
				out = append(out, k)
			} else {
				stale++
			}
		}
		return out
	}

	if _, err := a.OnExpandedChange(known(s.Expanded)...); err != nil {
		return stale, err
	}
	if _, err := a.OnSelectionChange(known(s.Selected)...); err != nil {
		return stale, err
	}
	a.RevealAll()
	for _, key := range known(s.Hidden) {
		if err := c.SetNode(key, tree.WithVisible(false)); err != nil {
			return stale, err
		}
	}
	return stale, nil
}

// Load reads the state file from dir. A missing file returns (nil, nil).
// A corrupted file or a newer schema is logged and also returns (nil, nil)
// so callers fall back to the document's flags.
func Load(dir string) (*TreeState, error) {
	path := Path(dir)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var s TreeState
	if err := json.Unmarshal(data, &s); err != nil {
		log.Printf("warning: invalid tree state file, using defaults: %v", err)
		return nil, nil
	}
	if s.Version > Version {
		log.Printf("warning: tree state %s has version %d (max %d), using defaults", path, s.Version, Version)
		return nil, nil
	}
	return &s, nil
}

// Save writes s into dir, creating the directory and adding it to the
// project's .gitignore on first use.
func Save(dir string, s *TreeState) error {
	if dir == "" {
		dir = DefaultDir
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal tree state: %w", err)
	}

	_, statErr := os.Stat(dir)
	firstUse := os.IsNotExist(statErr)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create state directory %s: %w", dir, err)
	}
	if firstUse {
		if err := ensureIgnored(dir); err != nil {
			log.Printf("warning: could not update .gitignore: %v", err)
		}
	}

	path := Path(dir)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write tree state to %s: %w", path, err)
	}
	return nil
}

// ensureIgnored adds dir to the .gitignore of its parent directory.
func ensureIgnored(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	return loader.EnsureInGitignore(filepath.Dir(abs), filepath.Base(abs))
}
