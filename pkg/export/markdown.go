package export

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/vanderheijden86/treestack/pkg/model"
)

// GenerateMarkdown creates a markdown outline of the forest: a summary,
// a nested checklist and a section per node with a description.
func GenerateMarkdown(nodes []model.Node, title string, opts Options) (string, error) {
	var sb strings.Builder
	rows := Flatten(nodes, opts)

	// Header
	sb.WriteString(fmt.Sprintf("# %s\n\n", title))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", time.Now().Format(time.RFC1123)))

	// Summary
	selected, disabled, hidden := 0, 0, 0
	for _, r := range rows {
		if r.Selected {
			selected++
		}
		if r.Disabled {
			disabled++
		}
		if r.Hidden {
			hidden++
		}
	}
	sb.WriteString("## Summary\n\n")
	sb.WriteString(fmt.Sprintf("- **Nodes**: %d\n", len(rows)))
	sb.WriteString(fmt.Sprintf("- **Selected**: %d\n", selected))
	sb.WriteString(fmt.Sprintf("- **Disabled**: %d\n", disabled))
	if opts.IncludeHidden {
		sb.WriteString(fmt.Sprintf("- **Hidden**: %d\n", hidden))
	}
	sb.WriteString("\n")

	// Outline
	sb.WriteString("## Outline\n\n")
	for _, r := range rows {
		box := "[ ]"
		if r.Selected {
			box = "[x]"
		}
		label := escapeMarkdown(r.Label)
		if r.Disabled {
			label = "~~" + label + "~~"
		}
		if r.Hidden {
			label += " _(hidden)_"
		}
		sb.WriteString(fmt.Sprintf("%s- %s %s `%s`\n", strings.Repeat("  ", r.Depth), box, label, r.Key))
	}
	sb.WriteString("\n")

	// Details
	var details strings.Builder
	for _, r := range rows {
		v := r.Node.Values
		if v.Description == "" && len(v.Tags) == 0 && v.Kind == "" {
			continue
		}
		details.WriteString(fmt.Sprintf("### %s\n\n", escapeMarkdown(r.Label)))
		details.WriteString("| Key | Kind | Tags |\n")
		details.WriteString("|---|---|---|\n")
		details.WriteString(fmt.Sprintf("| `%s` | %s | %s |\n\n", r.Key, v.Kind, strings.Join(v.Tags, ", ")))
		if v.Description != "" {
			details.WriteString(v.Description + "\n\n")
		}
	}
	if details.Len() > 0 {
		sb.WriteString("---\n\n## Details\n\n")
		sb.WriteString(details.String())
	}

	return sb.String(), nil
}

// WriteMarkdown writes the outline to w.
func WriteMarkdown(w io.Writer, nodes []model.Node, title string, opts Options) error {
	content, err := GenerateMarkdown(nodes, title, opts)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, content)
	return err
}

// SaveMarkdownToFile writes the generated markdown to a file
func SaveMarkdownToFile(nodes []model.Node, title, filename string, opts Options) error {
	if title == "" {
		title = "Tree Export"
	}
	content, err := GenerateMarkdown(nodes, title, opts)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, []byte(content), 0644)
}

var markdownEscaper = strings.NewReplacer(
	`*`, `\*`,
	`_`, `\_`,
	"`", "\\`",
	`[`, `\[`,
	`]`, `\]`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
