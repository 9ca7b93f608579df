package ui

import (
	"log"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/lipgloss"
)

// MarkdownRenderer renders the detail view of the side panel.
type MarkdownRenderer struct {
	renderer *glamour.TermRenderer
	width    int
	style    string // glamour standard style; empty follows the theme
	theme    Theme
}

// NewMarkdownRenderer creates a renderer that wraps at width. An empty
// style derives colors from theme; "auto" lets glamour detect the
// terminal; anything else names a glamour standard style.
func NewMarkdownRenderer(width int, style string, theme Theme) *MarkdownRenderer {
	mr := &MarkdownRenderer{width: width, style: style, theme: theme}
	mr.rebuild()
	return mr
}

func (mr *MarkdownRenderer) rebuild() {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(mr.width)}
	switch mr.style {
	case "":
		opts = append(opts, glamour.WithStyles(buildStyleFromTheme(mr.theme, mr.IsDarkMode())))
	case "auto":
		opts = append(opts, glamour.WithAutoStyle())
	default:
		opts = append(opts, glamour.WithStandardStyle(mr.style))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		log.Printf("warning: markdown style %q: %v", mr.style, err)
		mr.renderer = nil
		return
	}
	mr.renderer = r
}

// Render renders markdown. Without a renderer the input is returned as is.
func (mr *MarkdownRenderer) Render(md string) (string, error) {
	if mr.renderer == nil {
		return md, nil
	}
	return mr.renderer.Render(md)
}

// Width returns the wrap width.
func (mr *MarkdownRenderer) Width() int { return mr.width }

// SetWidth rebuilds the renderer for a new wrap width.
func (mr *MarkdownRenderer) SetWidth(width int) {
	if width <= 0 || width == mr.width {
		return
	}
	mr.width = width
	mr.rebuild()
}

// IsDarkMode reports whether the terminal has a dark background.
func (mr *MarkdownRenderer) IsDarkMode() bool {
	if mr.theme.Renderer != nil {
		return mr.theme.Renderer.HasDarkBackground()
	}
	return lipgloss.HasDarkBackground()
}

func extractHex(c lipgloss.AdaptiveColor, dark bool) string {
	if dark {
		return c.Dark
	}
	return c.Light
}

func buildStyleFromTheme(theme Theme, dark bool) ansi.StyleConfig {
	str := func(s string) *string { return &s }
	boolp := func(b bool) *bool { return &b }
	margin := uint(0)

	text := str(extractHex(theme.Text, dark))
	primary := str(extractHex(theme.Primary, dark))
	highlight := str(extractHex(theme.Highlight, dark))
	muted := str(extractHex(theme.Muted, dark))

	return ansi.StyleConfig{
		Document: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{Color: text},
			Margin:         &margin,
		},
		Heading: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{Color: primary, Bold: boolp(true)},
		},
		H1: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{Prefix: "# ", Color: primary, Bold: boolp(true)},
		},
		H2: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{Prefix: "## "},
		},
		H3: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{Prefix: "### "},
		},
		Strong:   ansi.StylePrimitive{Bold: boolp(true)},
		Emph:     ansi.StylePrimitive{Italic: boolp(true)},
		Link:     ansi.StylePrimitive{Color: highlight, Underline: boolp(true)},
		LinkText: ansi.StylePrimitive{Color: highlight},
		Code: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{Color: highlight},
		},
		BlockQuote: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{Color: muted},
			Indent:         func() *uint { u := uint(1); return &u }(),
			IndentToken:    str("│ "),
		},
		List: ansi.StyleList{LevelIndent: 2},
		Item: ansi.StylePrimitive{BlockPrefix: "• "},
		Table: ansi.StyleTable{
			StyleBlock: ansi.StyleBlock{StylePrimitive: ansi.StylePrimitive{Color: text}},
		},
	}
}
