package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const stateDir = ".treestack"

func TestMatchesDirPattern(t *testing.T) {
	tests := []struct {
		line    string
		matches bool
	}{
		// Should match
		{".treestack", true},
		{".treestack/", true},
		{".treestack/*", true},
		{".treestack/**", true},
		{".treestack/**/*", true},
		{"/.treestack", true}, // Leading slash should be normalized
		{"/.treestack/", true},

		// Should not match
		{"", false},
		{"#.treestack", false}, // Comment
		{".treestack2", false},
		{".treestackx", false},
		{"bv/", false},
		{".beads/", false},
		{"node_modules/", false},
		{".treestack-backup", false},
		{"*.treestack", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got := matchesDirPattern(tt.line, stateDir)
			if got != tt.matches {
				t.Errorf("matchesDirPattern(%q) = %v, want %v", tt.line, got, tt.matches)
			}
		})
	}
}

func TestIsIgnored(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected bool
	}{
		{
			name:     "empty file",
			content:  "",
			expected: false,
		},
		{
			name:     "has .treestack",
			content:  "node_modules/\n.treestack\n*.log\n",
			expected: true,
		},
		{
			name:     "has .treestack/",
			content:  "node_modules/\n.treestack/\n*.log\n",
			expected: true,
		},
		{
			name:     "has .treestack/*",
			content:  ".treestack/*\n",
			expected: true,
		},
		{
			name:     "has /.treestack/",
			content:  "/.treestack/\n",
			expected: true,
		},
		{
			name:     "commented out",
			content:  "# .treestack/\n",
			expected: false,
		},
		{
			name:     "different pattern",
			content:  ".beads/\nnode_modules/\n",
			expected: false,
		},
		{
			name:     "similar but not matching",
			content:  ".treestack2/\n.treestackx\nbv/\n",
			expected: false,
		},
		{
			name:     "with whitespace",
			content:  "  .treestack/  \n",
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			gitignorePath := filepath.Join(tmpDir, ".gitignore")

			if err := os.WriteFile(gitignorePath, []byte(tt.content), 0644); err != nil {
				t.Fatalf("failed to write test file: %v", err)
			}

			got, err := isIgnored(gitignorePath, stateDir)
			if err != nil {
				t.Fatalf("isIgnored() error = %v", err)
			}
			if got != tt.expected {
				t.Errorf("isIgnored() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestIsIgnored_FileNotExists(t *testing.T) {
	tmpDir := t.TempDir()
	gitignorePath := filepath.Join(tmpDir, ".gitignore")

	_, err := isIgnored(gitignorePath, stateDir)
	if !os.IsNotExist(err) {
		t.Errorf("expected IsNotExist error, got %v", err)
	}
}

func TestAppendToGitignore(t *testing.T) {
	tests := []struct {
		name            string
		existingContent string
		pattern         string
		wantContains    []string
		wantPrefix      string // expected prefix of the file (for checking no leading blank line)
	}{
		{
			name:            "new file",
			existingContent: "",
			pattern:         ".treestack/",
			wantContains:    []string{"# treestack local view state", ".treestack/"},
			wantPrefix:      "#", // should start with comment, not blank line
		},
		{
			name:            "existing file with newline",
			existingContent: "node_modules/\n",
			pattern:         ".treestack/",
			wantContains:    []string{"node_modules/", "# treestack local view state", ".treestack/"},
			wantPrefix:      "node_modules/",
		},
		{
			name:            "existing file without trailing newline",
			existingContent: "node_modules/",
			pattern:         ".treestack/",
			wantContains:    []string{"node_modules/", "# treestack local view state", ".treestack/"},
			wantPrefix:      "node_modules/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			gitignorePath := filepath.Join(tmpDir, ".gitignore")

			// Create existing file if content is provided
			if tt.existingContent != "" {
				if err := os.WriteFile(gitignorePath, []byte(tt.existingContent), 0644); err != nil {
					t.Fatalf("failed to write existing file: %v", err)
				}
			}

			if err := appendToGitignore(gitignorePath, tt.pattern); err != nil {
				t.Fatalf("appendToGitignore() error = %v", err)
			}

			content, err := os.ReadFile(gitignorePath)
			if err != nil {
				t.Fatalf("failed to read result: %v", err)
			}

			for _, want := range tt.wantContains {
				if !strings.Contains(string(content), want) {
					t.Errorf("result missing %q, got:\n%s", want, content)
				}
			}

			// Check prefix (no unexpected leading blank lines)
			if tt.wantPrefix != "" && !strings.HasPrefix(string(content), tt.wantPrefix) {
				t.Errorf("expected file to start with %q, got:\n%s", tt.wantPrefix, content)
			}
		})
	}
}

func TestEnsureInGitignore(t *testing.T) {
	t.Run("creates gitignore if not exists", func(t *testing.T) {
		tmpDir := t.TempDir()

		if err := EnsureInGitignore(tmpDir, stateDir); err != nil {
			t.Fatalf("EnsureInGitignore() error = %v", err)
		}

		content, err := os.ReadFile(filepath.Join(tmpDir, ".gitignore"))
		if err != nil {
			t.Fatalf("failed to read .gitignore: %v", err)
		}

		if !strings.Contains(string(content), ".treestack/") {
			t.Errorf("expected .treestack/ in .gitignore, got:\n%s", content)
		}
	})

	t.Run("adds to existing gitignore", func(t *testing.T) {
		tmpDir := t.TempDir()
		gitignorePath := filepath.Join(tmpDir, ".gitignore")

		// Create existing .gitignore
		if err := os.WriteFile(gitignorePath, []byte("node_modules/\n"), 0644); err != nil {
			t.Fatalf("failed to write .gitignore: %v", err)
		}

		if err := EnsureInGitignore(tmpDir, stateDir); err != nil {
			t.Fatalf("EnsureInGitignore() error = %v", err)
		}

		content, err := os.ReadFile(gitignorePath)
		if err != nil {
			t.Fatalf("failed to read .gitignore: %v", err)
		}

		if !strings.Contains(string(content), "node_modules/") {
			t.Error("existing content was lost")
		}
		if !strings.Contains(string(content), ".treestack/") {
			t.Errorf("expected .treestack/ in .gitignore, got:\n%s", content)
		}
	})

	t.Run("idempotent - doesn't duplicate", func(t *testing.T) {
		tmpDir := t.TempDir()
		gitignorePath := filepath.Join(tmpDir, ".gitignore")

		// Create existing .gitignore with .treestack/ already present
		if err := os.WriteFile(gitignorePath, []byte(".treestack/\n"), 0644); err != nil {
			t.Fatalf("failed to write .gitignore: %v", err)
		}

		if err := EnsureInGitignore(tmpDir, stateDir); err != nil {
			t.Fatalf("EnsureInGitignore() error = %v", err)
		}

		content, err := os.ReadFile(gitignorePath)
		if err != nil {
			t.Fatalf("failed to read .gitignore: %v", err)
		}

		// Count occurrences of .treestack/
		count := strings.Count(string(content), ".treestack/")
		if count != 1 {
			t.Errorf("expected exactly 1 occurrence of .treestack/, got %d:\n%s", count, content)
		}
	})

	t.Run("recognizes existing .treestack pattern", func(t *testing.T) {
		tmpDir := t.TempDir()
		gitignorePath := filepath.Join(tmpDir, ".gitignore")

		// Create existing .gitignore with .treestack (without slash)
		if err := os.WriteFile(gitignorePath, []byte(".treestack\n"), 0644); err != nil {
			t.Fatalf("failed to write .gitignore: %v", err)
		}

		if err := EnsureInGitignore(tmpDir, stateDir); err != nil {
			t.Fatalf("EnsureInGitignore() error = %v", err)
		}

		content, err := os.ReadFile(gitignorePath)
		if err != nil {
			t.Fatalf("failed to read .gitignore: %v", err)
		}

		
		if strings.Contains(string(content), "# treestack local view state") {
			t.Errorf("should not add when .treestack already present, got:\n%s", content)
		}
	})
}

func TestEnsureInGitignore_UsesCurrentDir(t *testing.T) {
	// Save current directory
	origDir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatal(err)
	}

	// Call with empty string - should use current directory
	if err := EnsureInGitignore("", stateDir); err != nil {
		t.Fatalf("EnsureInGitignore() error = %v", err)
	}

	content, err := os.ReadFile(filepath.Join(tmpDir, ".gitignore"))
	if err != nil {
		t.Fatalf("failed to read .gitignore: %v", err)
	}

	if !strings.Contains(string(content), ".treestack/") {
		t.Errorf("expected .treestack/ in .gitignore, got:\n%s", content)
	}
}
