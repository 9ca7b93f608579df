package config

import (
	"os"
	"path/filepath"
	"strings"
)

// DiscoverDocuments returns the configured documents followed by any found
// under the discovery scan paths. Paths are resolved and deduplicated.
func DiscoverDocuments(cfg Config) []string {
	seen := make(map[string]bool)
	var result []string

	// Start with configured documents
	for _, doc := range cfg.Documents {
		resolved := cfg.Resolve(doc)
		if !seen[resolved] {
			seen[resolved] = true
			result = append(result, resolved)
		}
	}

	patterns := cfg.Discovery.Patterns
	if len(patterns) == 0 {
		patterns = DefaultPatterns()
	}
	maxDepth := cfg.Discovery.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 3
	}

	for _, scanPath := range cfg.Discovery.ScanPaths {
		for _, f := range scanForDocuments(cfg.Resolve(scanPath), patterns, maxDepth) {
			if !seen[f] {
				seen[f] = true
				result = append(result, f)
			}
		}
	}

	return result
}

// scanForDocuments walks a directory tree up to maxDepth levels deep,
// collecting files whose name matches one of patterns.
func scanForDocuments(root string, patterns []string, maxDepth int) []string {
	var results []string

	rootDepth := strings.Count(filepath.Clean(root), string(filepath.Separator))

	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		depth := strings.Count(filepath.Clean(path), string(filepath.Separator)) - rootDepth

		if d.IsDir() {
			if depth > maxDepth {
				return filepath.SkipDir
			}
			// Skip hidden directories, including our own state dir
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if depth > maxDepth {
			return nil
		}
		for _, pattern := range patterns {
			if ok, _ := filepath.Match(pattern, d.Name()); ok {
				results = append(results, path)
				break
			}
		}
		return nil
	})

	return results
}

// Find searches for .treestack/config.yaml starting from dir and walking up.
// It returns os.ErrNotExist when there is none.
func Find(dir string) (string, error) {
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return "", err
		}
	}
	root, ok := findProjectRoot(dir)
	if !ok {
		return "", os.ErrNotExist
	}
	candidate := filepath.Join(root, DirName, FileName)
	if _, err := os.Stat(candidate); err != nil {
		return "", os.ErrNotExist
	}
	return candidate, nil
}

// DetectProject attempts to find the current project by walking up from
// the current directory looking for .treestack/.
func DetectProject() (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}
	return findProjectRoot(dir)
}

// findProjectRoot walks up from dir looking for a .treestack/ directory.
func findProjectRoot(dir string) (string, bool) {
	home, _ := os.UserHomeDir()

	for {
		stateDir := filepath.Join(dir, DirName)
		if info, err := os.Stat(stateDir); err == nil && info.IsDir() {
			return dir, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break // Reached filesystem root
		}
		// Don't go above home directory
		if home != "" && dir == home {
			break
		}
		dir = parent
	}
	return "", false
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
