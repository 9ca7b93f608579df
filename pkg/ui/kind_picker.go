package ui

import (
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/treestack/pkg/model"
	"github.com/vanderheijden86/treestack/pkg/tree"
)

// KindPickerModel is the modal list shown by `t`. Kinds are free text: the
// list is the configured kinds followed by any other kind the document
// already uses, with "" first to clear the field.
type KindPickerModel struct {
	kinds   []string
	current string
	cursor  int
	width   int
	height  int
	theme   Theme
}

// NewKindPickerModel builds the picker for a node whose kind is current.
func NewKindPickerModel(configured []string, nodes []model.Node, current string, theme Theme) KindPickerModel {
	kinds := []string{""}
	add := func(k string) {
		if k != "" && !slices.Contains(kinds, k) {
			kinds = append(kinds, k)
		}
	}
	for _, k := range configured {
		add(k)
	}
	tree.Walk(nodes, func(n model.Node, _ int) bool {
		add(n.Values.Kind)
		return true
	})
	add(current)

	return KindPickerModel{
		kinds:   kinds,
		current: current,
		cursor:  max(slices.Index(kinds, current), 0),
		theme:   theme,
	}
}

// Kinds returns the offered kinds in display order.
func (m *KindPickerModel) Kinds() []string { return m.kinds }

// SetSize sets the area the picker is centred in.
func (m *KindPickerModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// MoveUp moves the cursor up, wrapping to the bottom.
func (m *KindPickerModel) MoveUp() {
	m.cursor = (m.cursor - 1 + len(m.kinds)) % len(m.kinds)
}

// MoveDown moves the cursor down, wrapping to the top.
func (m *KindPickerModel) MoveDown() {
	m.cursor = (m.cursor + 1) % len(m.kinds)
}

// JumpTo moves the cursor to the next kind after the cursor that starts
// with r. It reports whether one was found.
func (m *KindPickerModel) JumpTo(r rune) bool {
	prefix := strings.ToLower(string(r))
	for i := 1; i <= len(m.kinds); i++ {
		j := (m.cursor + i) % len(m.kinds)
		if m.kinds[j] != "" && strings.HasPrefix(strings.ToLower(m.kinds[j]), prefix) {
			m.cursor = j
			return true
		}
	}
	return false
}

// SelectedKind returns the kind under the cursor.
func (m *KindPickerModel) SelectedKind() string {
	return m.kinds[m.cursor]
}

func (m *KindPickerModel) View() string {
	t := m.theme
	r := t.Renderer

	rows := make([]string, 0, len(m.kinds)+3)
	rows = append(rows, r.NewStyle().Foreground(t.Primary).Bold(true).Render("Set Kind"), "")
	for i, kind := range m.kinds {
		icon, color := t.GetKindIcon(kind)
		if icon == "" {
			icon = "·"
		}
		name := kind
		if name == "" {
			name = "(none)"
		}
		style := r.NewStyle().Foreground(t.Text)
		cursor := "  "
		if i == m.cursor {
			style = style.Foreground(t.Primary).Bold(true)
			cursor = "▸ "
		}
		line := cursor + r.NewStyle().Foreground(color).Render(icon) + " " + style.Render(name)
		if kind == m.current {
			line += t.MutedText.Render(" (current)")
		}
		rows = append(rows, line)
	}
	rows = append(rows, "", t.MutedText.Render("j/k move • a-z jump • enter set • esc cancel"))

	box := t.FocusedPanel.Padding(1, 2).Render(strings.Join(rows, "\n"))
	return lipgloss.Place(max(m.width, lipgloss.Width(box)), max(m.height, lipgloss.Height(box)),
		lipgloss.Center, lipgloss.Center, box)
}
