package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Context identifies which part of the UI has the keyboard.
type Context string

const (
	ContextTree       Context = "tree"
	ContextSearch     Context = "search"
	ContextPanel      Context = "panel"
	ContextInput      Context = "input"
	ContextKindPicker Context = "kind-picker"
	ContextConfirm    Context = "confirm"
)

// ContextHelpContent contains compact help content for each context.
// Content should fit on one screen (~20 lines) without scrolling.
var ContextHelpContent = map[Context]string{
	ContextTree:       contextHelpTree,
	ContextSearch:     contextHelpSearch,
	ContextPanel:      contextHelpPanel,
	ContextInput:      contextHelpInput,
	ContextKindPicker: contextHelpKindPicker,
	ContextConfirm:    contextHelpConfirm,
}

// GetContextHelp returns the help content for a given context.
// Falls back to the tree help if the context has no specific content.
func GetContextHelp(ctx Context) string {
	if content, ok := ContextHelpContent[ctx]; ok {
		return content
	}
	return contextHelpTree
}

// RenderContextHelp renders the context-specific help modal.
// This is a compact modal (~60 chars wide) that shows quick reference info.
func RenderContextHelp(ctx Context, theme Theme, width, height int) string {
	content := GetContextHelp(ctx)

	r := theme.Renderer

	modalWidth := 60
	if modalWidth > width-4 {
		modalWidth = max(width-4, 20)
	}

	titleStyle := r.NewStyle().
		Bold(true).
		Foreground(theme.Primary)

	contentStyle := r.NewStyle().
		Foreground(theme.Subtext)

	footerStyle := r.NewStyle().
		Foreground(theme.Muted).
		Italic(true)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Quick Reference"))
	b.WriteString("\n")
	b.WriteString(r.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", modalWidth-4)))
	b.WriteString("\n\n")
	b.WriteString(contentStyle.Render(content))
	b.WriteString("\n\n")
	b.WriteString(footerStyle.Render("Press F1 or Esc to close"))

	modalStyle := r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Secondary).
		Padding(1, 2).
		Width(modalWidth)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, modalStyle.Render(b.String()))
}

const contextHelpTree = `## Tree

**Navigation**
  j/k       Move down/up
  h/l       Collapse / expand (or parent / child)
  g/G       Jump to top/bottom
  PgUp/PgDn Page up/down
  e         Toggle expand
  E/C       Expand / collapse all

**Selection & visibility**
  Space     Toggle selection
  a/A       Select all / clear selection
  v         Hide or show node
  V/H       Reveal all / hide all
  .         Show hidden nodes

**Editing**
  i/I/o     Insert after / before / into
  r         Rename
  t         Set kind
  x         Toggle disabled
  d         Delete (selection or node)
  K/J       Move up / down
  >/<       Indent / outdent
  m/M       Move selection after / into cursor

**Other**
  /         Search     n/N  next/prev match
  ?         Side panel
  y         Copy key   w    Save
  Ctrl+R    Reload     q    Quit`

const contextHelpSearch = `## Search

  type      Filter by label or key
  Enter     Keep matches, leave input
  Esc       Clear search
  n/N       Next/prev match

Matches under collapsed or hidden
parents are revealed when focused.`

const contextHelpPanel = `## Side Panel

  ?         Close panel
  Tab       Next view (detail, json, help)
  Esc       Previous view, close at the bottom
  R         Reset to the default view
  Ctrl+j/k  Scroll panel content`

const contextHelpInput = `## Text Input

  Enter     Confirm
  Esc       Cancel

Keys are derived from the label and
made unique automatically.`

const contextHelpKindPicker = `## Kind Picker

  j/k       Move selection
  Enter     Apply kind
  Esc       Cancel`

const contextHelpConfirm = `## Confirm

  ←/→       Choose
  Enter     Confirm
  Esc       Cancel`
