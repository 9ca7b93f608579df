package loader

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// gitignoreComment precedes the entry we append.
const gitignoreComment = "# treestack local view state"

// EnsureInGitignore ensures that dir (e.g. ".treestack") is listed in the
// project's .gitignore so saved view state never ends up in commits.
//
// The function is idempotent. It creates .gitignore when missing, leaves
// it alone when dir is already covered (dir, dir/, dir/*, dir/**), and
// otherwise appends "dir/" while preserving existing content.
func EnsureInGitignore(projectDir, dir string) error {
	if projectDir == "" {
		var err error
		projectDir, err = os.Getwd()
		if err != nil {
			return err
		}
	}
	dir = strings.Trim(filepath.ToSlash(dir), "/")

	gitignorePath := filepath.Join(projectDir, ".gitignore")

	covered, err := isIgnored(gitignorePath, dir)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if covered {
		return nil
	}

	return appendToGitignore(gitignorePath, dir+"/")
}

// isIgnored scans .gitignore for a line that covers dir.
func isIgnored(path, dir string) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if matchesDirPattern(line, dir) {
			return true, nil
		}
	}

	return false, scanner.Err()
}

func matchesDirPattern(line, dir string) bool {
	normalized := strings.TrimPrefix(line, "/")
	for _, suffix := range []string{"", "/", "/*", "/**", "/**/*"} {
		if normalized == dir+suffix {
			return true
		}
	}
	return false
}

// appendToGitignore appends pattern, creating the file if needed and
// keeping a blank line between existing content and our block.
func appendToGitignore(path string, pattern string) error {
	content, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	var toWrite string
	if len(content) == 0 {
		toWrite = gitignoreComment + "\n" + pattern + "\n"
	} else {
		if content[len(content)-1] != '\n' {
			toWrite = "\n"
		}
		toWrite += "\n" + gitignoreComment + "\n" + pattern + "\n"
	}

	_, err = file.WriteString(toWrite)
	return err
}
