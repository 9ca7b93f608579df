// Package config loads the project configuration (.treestack/config.yaml).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// DirName is the per-project directory holding config and view state.
const DirName = ".treestack"

// FileName is the config file inside DirName.
const FileName = "config.yaml"

// Built-in side panel views.
const (
	ViewDetail = "detail"
	ViewJSON   = "json"
	ViewHelp   = "help"
)

// SidePanel is the id of the drawer shown next to the tree.
const SidePanel = "side"

// Config represents a project configuration file
type Config struct {
	// Documents lists tree documents to load, relative to the project root
	Documents []string `yaml:"documents,omitempty" json:"documents,omitempty"`

	// StateDir holds persisted view state (default: .treestack)
	StateDir string `yaml:"state_dir,omitempty" json:"state_dir,omitempty"`

	// Watch reloads documents when they change on disk
	Watch bool `yaml:"watch,omitempty" json:"watch,omitempty"`

	// UI controls layout
	UI UIConfig `yaml:"ui,omitempty" json:"ui,omitempty"`

	// Panels configures drawers by id
	Panels map[string]PanelConfig `yaml:"panels,omitempty" json:"panels,omitempty"`

	// Discovery finds documents by scanning directories
	Discovery DiscoveryConfig `yaml:"discovery,omitempty" json:"discovery,omitempty"`

	// Root is the directory relative paths resolve against. Not persisted.
	Root string `yaml:"-" json:"-"`
}

// UIConfig controls the terminal layout.
type UIConfig struct {
	// ShowHidden renders hidden nodes dimmed instead of omitting them
	ShowHidden bool `yaml:"show_hidden,omitempty" json:"show_hidden,omitempty"`

	// SplitRatio is the share of the width given to the tree when a
	// drawer is open (default: 0.55)
	SplitRatio float64 `yaml:"split_ratio,omitempty" json:"split_ratio,omitempty"`

	// OpenPanel opens the side panel at startup
	OpenPanel bool `yaml:"open_panel,omitempty" json:"open_panel,omitempty"`

	// Kinds are offered by the kind picker, in order. Kinds already used
	// in the document are offered too.
	Kinds []string `yaml:"kinds,omitempty" json:"kinds,omitempty"`
}

// PanelConfig describes a drawer and its view stack.
type PanelConfig struct {
	Default string   `yaml:"default" json:"default"`
	Views   []string `yaml:"views,omitempty" json:"views,omitempty"`

	// Style is the glamour style of the detail view: empty follows the
	// theme, "auto" detects the terminal, else a standard style name
	Style string `yaml:"style,omitempty" json:"style,omitempty"`
}

// MarkdownStyles lists the accepted PanelConfig.Style values.
var MarkdownStyles = []string{"", "auto", "ascii", "dark", "light", "notty", "pink", "dracula", "tokyo-night"}

// DiscoveryConfig controls scanning for documents.
type DiscoveryConfig struct {
	// ScanPaths are directories to search
	ScanPaths []string `yaml:"scan_paths,omitempty" json:"scan_paths,omitempty"`

	// Patterns are file name globs (default: *.tree.json, *.tree.yaml, ...)
	Patterns []string `yaml:"patterns,omitempty" json:"patterns,omitempty"`

	// MaxDepth limits directory traversal depth (default: 3)
	MaxDepth int `yaml:"max_depth,omitempty" json:"max_depth,omitempty"`
}

// DefaultPatterns returns the file globs scanned when none are configured.
func DefaultPatterns() []string {
	return []string{"*.tree.json", "*.tree.yaml", "*.tree.yml", "*.tree.jsonl"}
}

// DefaultKinds returns the kinds offered when none are configured.
func DefaultKinds() []string {
	return []string{"epic", "task", "bug", "milestone", "note"}
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		StateDir: DirName,
		UI:       UIConfig{SplitRatio: 0.55, Kinds: DefaultKinds()},
		Panels: map[string]PanelConfig{
			SidePanel: {Default: ViewDetail, Views: []string{ViewDetail, ViewJSON, ViewHelp}},
		},
	}
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.UI.SplitRatio <= 0 || c.UI.SplitRatio >= 1 {
		return fmt.Errorf("ui.split_ratio must be between 0 and 1, got %v", c.UI.SplitRatio)
	}

	seen := make(map[string]bool)
	for i, doc := range c.Documents {
		if doc == "" {
			return fmt.Errorf("documents[%d]: path is required", i)
		}
		if seen[doc] {
			return fmt.Errorf("documents[%d]: duplicate path %q", i, doc)
		}
		seen[doc] = true
	}

	kinds := make(map[string]bool)
	for i, k := range c.UI.Kinds {
		if k == "" {
			return fmt.Errorf("ui.kinds[%d]: kind is required", i)
		}
		if kinds[k] {
			return fmt.Errorf("ui.kinds[%d]: duplicate kind %q", i, k)
		}
		kinds[k] = true
	}

	if _, ok := c.Panels[SidePanel]; !ok {
		return fmt.Errorf("panels: %q is required", SidePanel)
	}
	for id, p := range c.Panels {
		if p.Default == "" {
			return fmt.Errorf("panels.%s: default view is required", id)
		}
		if slices.Contains(p.Views, "") {
			return fmt.Errorf("panels.%s: empty view name", id)
		}
		if !slices.Contains(MarkdownStyles, p.Style) {
			return fmt.Errorf("panels.%s: unknown style %q", id, p.Style)
		}
	}

	if c.Discovery.MaxDepth < 0 {
		return fmt.Errorf("discovery.max_depth cannot be negative")
	}
	return nil
}

// Load reads a configuration file. Fields missing from the file keep
// their defaults; Root is set to the project directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	applyDefaults(&cfg)

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	cfg.Root = projectRootOf(abs)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadOrDefault loads the config discovered from dir, falling back to
// Default rooted at dir when there is none.
func LoadOrDefault(dir string) (*Config, error) {
	path, err := Find(dir)
	if errors.Is(err, os.ErrNotExist) {
		cfg := Default()
		if dir == "" {
			if dir, err = os.Getwd(); err != nil {
				return nil, err
			}
		}
		cfg.Root = dir
		return &cfg, nil
	}
	if err != nil {
		return nil, err
	}
	return Load(path)
}

func applyDefaults(cfg *Config) {
	if cfg.StateDir == "" {
		cfg.StateDir = DirName
	}
	if cfg.UI.SplitRatio == 0 {
		cfg.UI.SplitRatio = Default().UI.SplitRatio
	}
	if cfg.Panels == nil {
		cfg.Panels = Default().Panels
	}
	if cfg.UI.Kinds == nil {
		cfg.UI.Kinds = DefaultKinds()
	}
	if len(cfg.Discovery.ScanPaths) > 0 {
		if len(cfg.Discovery.Patterns) == 0 {
			cfg.Discovery.Patterns = DefaultPatterns()
		}
		if cfg.Discovery.MaxDepth == 0 {
			cfg.Discovery.MaxDepth = 3
		}
	}
}

// projectRootOf maps a config path to its project directory: the parent
// of .treestack/ for the standard layout, else the file's own directory.
func projectRootOf(path string) string {
	dir := filepath.Dir(path)
	if filepath.Base(dir) == DirName {
		return filepath.Dir(dir)
	}
	return dir
}

// Resolve makes path absolute relative to the project root.
func (c *Config) Resolve(path string) string {
	path = expandHome(path)
	if filepath.IsAbs(path) || c.Root == "" {
		return path
	}
	return filepath.Join(c.Root, path)
}

// StatePath returns the resolved state directory.
func (c *Config) StatePath() string {
	return c.Resolve(c.StateDir)
}

// Panel returns the drawer config for id.
func (c *Config) Panel(id string) (PanelConfig, bool) {
	p, ok := c.Panels[id]
	return p, ok
}

// Save writes the config as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
