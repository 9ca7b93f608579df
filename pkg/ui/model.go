// Package ui provides the terminal user interface for treestack.
package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/treestack/pkg/config"
	"github.com/vanderheijden86/treestack/pkg/loader"
	"github.com/vanderheijden86/treestack/pkg/model"
	"github.com/vanderheijden86/treestack/pkg/tree"
	"github.com/vanderheijden86/treestack/pkg/viewstack"
)

// SplitViewThreshold is the minimum width at which the side panel is
// shown next to the tree rather than in place of it.
const SplitViewThreshold = 100

type mode int

const (
	modeTree mode = iota
	modeInput
	modeKindPicker
	modeConfirm
)

type inputAction int

const (
	inputInsertAfter inputAction = iota
	inputInsertBefore
	inputInsertInto
	inputRename
)

// deleteConfirm is the pending delete confirmation dialog.
type deleteConfirm struct {
	form  *huh.Form
	value bool
	keys  []string
}

func newDeleteConfirm(keys []string, label string) *deleteConfirm {
	c := &deleteConfirm{keys: keys}
	title := fmt.Sprintf("Delete %q and its subtree?", label)
	if len(keys) > 1 {
		title = fmt.Sprintf("Delete %d nodes and their subtrees?", len(keys))
	}
	c.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("Delete").
				Negative("Cancel").
				Value(&c.value),
		),
	).WithShowHelp(false)
	return c
}

// Options configures a Model.
type Options struct {
	Config    *config.Config // nil uses config.Default without persistence
	Documents []string // Source paths; saving needs exactly one
	Title     string
	Theme     *Theme
	Worker    *ReloadWorker
}

// Model is the root bubbletea model.
type Model struct {
	tree   TreeModel
	panel  *PanelModel
	bus    *viewstack.Bus
	theme  Theme
	cfg    config.Config
	docs   []string
	title  string
	worker *ReloadWorker

	// Modal state
	mode         mode
	input        textinput.Model
	inputAction  inputAction
	picker       KindPickerModel
	confirm      *deleteConfirm
	showQuickRef bool

	// Layout
	width  int
	height int
	ready  bool

	// Status line
	statusMsg   string
	statusIsErr bool
	modified    bool
}

// NewModel creates the UI over nodes.
func NewModel(nodes []model.Node, opts Options) (Model, error) {
	cfg := config.Default()
	if opts.Config != nil {
		cfg = *opts.Config
	}
	theme := DefaultTheme(lipgloss.DefaultRenderer())
	if opts.Theme != nil {
		theme = *opts.Theme
	}

	t := NewTreeModel(theme)
	// View state is only persisted for a configured project
	if opts.Config != nil && cfg.StateDir != "" {
		t.SetStateDir(cfg.StatePath())
	}
	t.SetShowHidden(cfg.UI.ShowHidden)
	if err := t.Build(nodes); err != nil {
		return Model{}, err
	}

	panelCfg, ok := cfg.Panel(config.SidePanel)
	if !ok {
		panelCfg = config.Default().Panels[config.SidePanel]
	}
	bus := viewstack.NewBus()
	panel := NewPanelModel(bus, panelCfg, theme)
	if cfg.UI.OpenPanel {
		bus.Open(panel.ID())
	}

	ti := textinput.New()
	ti.CharLimit = 200
	ti.Prompt = ""

	if opts.Worker != nil {
		opts.Worker.Prime(t.Nodes())
	}

	return Model{
		tree:   t,
		panel:  panel,
		bus:    bus,
		theme:  theme,
		cfg:    cfg,
		docs:   opts.Documents,
		title:  opts.Title,
		worker: opts.Worker,
		input:  ti,
	}, nil
}

func (m Model) Init() tea.Cmd {
	return nil
}

// Tree returns the tree view model.
func (m *Model) Tree() *TreeModel { return &m.tree }

// Panel returns the side panel.
func (m *Model) Panel() *PanelModel { return m.panel }

// Status returns the status line text.
func (m Model) Status() string { return m.statusMsg }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case DocumentReadyMsg:
		if err := m.tree.Reload(msg.Nodes); err != nil {
			m.setError(fmt.Errorf("reload: %w", err))
		} else {
			m.setStatus("Reloaded from disk")
			m.modified = false
			if m.worker != nil {
				m.worker.Prime(msg.Nodes)
			}
		}

	case DocumentErrorMsg:
		m.setError(msg.Err)

	case tea.KeyMsg:
		switch m.mode {
		case modeInput:
			cmd = m.handleInputKey(msg)
		case modeKindPicker:
			m.handleKindPickerKey(msg)
		case modeConfirm:
			cmd = m.handleConfirmKey(msg)
		default:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			if m.showQuickRef {
				if s := msg.String(); s == "esc" || s == "f1" || s == "q" {
					m.showQuickRef = false
				}
				break
			}
			if m.tree.IsSearchMode() {
				m.handleSearchKey(msg)
				break
			}
			var quit bool
			cmd, quit = m.handleTreeKey(msg)
			if quit {
				return m, tea.Quit
			}
		}

	default:
		if m.mode == modeConfirm && m.confirm != nil {
			cmd = m.updateConfirm(msg)
		}
	}

	m.layout()
	return m, cmd
}

// handleTreeKey handles keys while the tree has focus. It reports whether
// the program should quit.
func (m *Model) handleTreeKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	var err error
	edited := false

	switch msg.String() {
	case "q":
		return nil, true

	// Navigation
	case "j", "down":
		m.tree.MoveDown()
	case "k", "up":
		m.tree.MoveUp()
	case "g", "home":
		m.tree.JumpToTop()
	case "G", "end":
		m.tree.JumpToBottom()
	case "pgdown", "ctrl+d":
		m.tree.PageDown()
	case "pgup", "ctrl+u":
		m.tree.PageUp()
	case "h", "left":
		err = m.tree.CollapseOrJumpToParent()
	case "l", "right":
		err = m.tree.ExpandOrMoveToChild()
	case "p":
		m.tree.JumpToParent()

	// Expansion
	case "enter", "e":
		err = m.tree.ToggleExpand()
	case "E":
		err = m.tree.ExpandAll()
	case "C":
		err = m.tree.CollapseAll()

	// Selection
	case " ":
		err = m.tree.ToggleSelect()
	case "a":
		err = m.tree.SelectAll()
	case "A":
		err = m.tree.UnselectAll()

	// Visibility
	case "v":
		err = m.tree.ToggleVisible()
	case "V":
		err = m.tree.RevealAll()
	case "H":
		err = m.tree.HideAll()
	case ".":
		m.tree.SetShowHidden(!m.tree.ShowHidden())
		if m.tree.ShowHidden() {
			m.setStatus("Showing hidden nodes")
		} else {
			m.setStatus("Hiding hidden nodes")
		}

	// Structure
	case "K":
		err, edited = m.tree.MoveNodeUp(), true
	case "J":
		err, edited = m.tree.MoveNodeDown(), true
	case ">":
		err, edited = m.tree.Indent(), true
	case "<":
		err, edited = m.tree.Outdent(), true
	case "m":
		err, edited = m.tree.MoveSelection(tree.After), true
	case "M":
		err, edited = m.tree.MoveSelection(tree.Into), true
	case "x":
		err, edited = m.tree.ToggleDisabled(), true
	case "i":
		return m.startInput(inputInsertAfter, "New node after", ""), false
	case "I":
		return m.startInput(inputInsertBefore, "New node before", ""), false
	case "o":
		return m.startInput(inputInsertInto, "New child", ""), false
	case "r":
		if n, ok := m.tree.SelectedNode(); ok {
			return m.startInput(inputRename, "Rename", n.Label), false
		}
	case "t":
		if n, ok := m.tree.SelectedNode(); ok {
			m.picker = NewKindPickerModel(m.cfg.UI.Kinds, m.tree.Nodes(), n.Values.Kind, m.theme)
			m.picker.SetSize(m.width, m.height)
			m.mode = modeKindPicker
		}
	case "d", "delete":
		return m.startConfirm(), false

	// Search
	case "/":
		m.tree.EnterSearchMode()
	case "n":
		m.tree.NextSearchMatch()
	case "N":
		m.tree.PrevSearchMatch()

	// Side panel
	case "?":
		m.panel.Toggle()
	case "tab":
		if m.panel.IsOpen() {
			m.panel.Next()
		}
	case "esc":
		switch {
		case m.panel.IsOpen():
			m.panel.Back()
		case m.tree.SearchQuery() != "":
			m.tree.ClearSearch()
		}
	case "R":
		m.panel.Reset()
	case "ctrl+j":
		m.panel.ScrollDown()
	case "ctrl+k":
		m.panel.ScrollUp()
	case "f1":
		m.showQuickRef = true

	// Misc
	case "y":
		if key := m.tree.SelectedKey(); key != "" {
			if cerr := clipboard.WriteAll(key); cerr != nil {
				m.setError(fmt.Errorf("clipboard: %w", cerr))
			} else {
				m.setStatus(fmt.Sprintf("Copied %s", key))
			}
		}
	case "w":
		m.save()
	case "ctrl+r":
		return m.reloadCmd(), false
	}

	if err != nil {
		m.setError(err)
	} else if edited {
		m.modified = true
	}
	return nil, false
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) {
	switch msg.Type {
	case tea.KeyEsc:
		m.tree.ClearSearch()
	case tea.KeyEnter:
		m.tree.ExitSearchMode()
	case tea.KeyBackspace:
		m.tree.SearchBackspace()
	case tea.KeySpace:
		m.tree.SearchAddChar(' ')
	case tea.KeyRunes:
		for _, r := range msg.Runes {
			m.tree.SearchAddChar(r)
		}
	}
}

func (m *Model) startInput(action inputAction, placeholder, value string) tea.Cmd {
	m.mode = modeInput
	m.inputAction = action
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *Model) handleInputKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.endInput()
		return nil
	case tea.KeyEnter:
		m.commitInput(m.input.Value())
		m.endInput()
		return nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) endInput() {
	m.input.Blur()
	m.input.SetValue("")
	m.mode = modeTree
}

// commitInput applies the pending insert or rename with value.
func (m *Model) commitInput(value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	var err error
	switch m.inputAction {
	case inputInsertAfter:
		_, err = m.tree.Insert(value, tree.After)
	case inputInsertBefore:
		_, err = m.tree.Insert(value, tree.Before)
	case inputInsertInto:
		_, err = m.tree.Insert(value, tree.Into)
	case inputRename:
		err = m.tree.Rename(value)
	}
	if err != nil {
		m.setError(err)
		return
	}
	m.modified = true
}

func (m *Model) handleKindPickerKey(msg tea.KeyMsg) {
	switch msg.String() {
	case "j", "down":
		m.picker.MoveDown()
	case "k", "up":
		m.picker.MoveUp()
	case "enter":
		if err := m.tree.SetKind(m.picker.SelectedKind()); err != nil {
			m.setError(err)
		} else {
			m.modified = true
		}
		m.mode = modeTree
	case "esc", "q":
		m.mode = modeTree
	default:
		if msg.Type == tea.KeyRunes && len(msg.Runes) == 1 {
			m.picker.JumpTo(msg.Runes[0])
		}
	}
}

// startConfirm opens the delete dialog for the selection, or for the
// cursor node when nothing is selected.
func (m *Model) startConfirm() tea.Cmd {
	keys := m.tree.targets()
	if len(keys) == 0 {
		return nil
	}
	label := keys[0]
	if n, err := m.tree.Actions().Cache().Node(keys[0]); err == nil && n.Label != "" {
		label = n.Label
	}
	m.confirm = newDeleteConfirm(keys, label)
	m.mode = modeConfirm
	return m.confirm.form.Init()
}

func (m *Model) handleConfirmKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyEsc {
		m.resolveConfirm(false)
		return nil
	}
	return m.updateConfirm(msg)
}

func (m *Model) updateConfirm(msg tea.Msg) tea.Cmd {
	form, cmd := m.confirm.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.confirm.form = f
	}
	switch m.confirm.form.State {
	case huh.StateCompleted:
		m.resolveConfirm(m.confirm.value)
	case huh.StateAborted:
		m.resolveConfirm(false)
	}
	return cmd
}

// resolveConfirm closes the delete dialog, deleting when ok.
func (m *Model) resolveConfirm(ok bool) {
	c := m.confirm
	m.confirm = nil
	m.mode = modeTree
	if c == nil || !ok {
		return
	}
	if err := m.tree.Delete(c.keys...); err != nil {
		m.setError(err)
		return
	}
	m.modified = true
	m.setStatus(fmt.Sprintf("Deleted %d node(s)", len(c.keys)))
}

// save writes the tree back to its single source document.
func (m *Model) save() {
	switch len(m.docs) {
	case 0:
		m.setError(fmt.Errorf("no document to save to"))
		return
	case 1:
	default:
		m.setError(fmt.Errorf("cannot save: tree was merged from %d documents", len(m.docs)))
		return
	}
	nodes := m.tree.Nodes()
	if err := loader.Save(m.docs[0], model.NewDocument(m.title, nodes)); err != nil {
		m.setError(fmt.Errorf("save: %w", err))
		return
	}
	if m.worker != nil {
		m.worker.Prime(nodes)
	}
	m.modified = false
	m.setStatus(fmt.Sprintf("Saved %s", m.docs[0]))
}

// reloadCmd loads the documents again off the UI thread.
func (m *Model) reloadCmd() tea.Cmd {
	if len(m.docs) == 0 {
		return nil
	}
	paths := append([]string(nil), m.docs...)
	return func() tea.Msg {
		results, err := loader.LoadAll(context.Background(), paths)
		if err != nil {
			return DocumentErrorMsg{Err: err, Recoverable: true}
		}
		nodes, err := loader.Merge(results)
		if err != nil {
			return DocumentErrorMsg{Err: err, Recoverable: true}
		}
		return DocumentReadyMsg{Nodes: nodes, Hash: ComputeHash(nodes)}
	}
}

func (m *Model) setStatus(s string) {
	m.statusMsg = s
	m.statusIsErr = false
}

func (m *Model) setError(err error) {
	m.statusMsg = err.Error()
	m.statusIsErr = true
}

// helpContext reports which part of the UI has the keyboard.
func (m *Model) helpContext() Context {
	switch {
	case m.mode == modeInput:
		return ContextInput
	case m.mode == modeKindPicker:
		return ContextKindPicker
	case m.mode == modeConfirm:
		return ContextConfirm
	case m.tree.IsSearchMode():
		return ContextSearch
	default:
		return ContextTree
	}
}

// isSplit reports whether tree and panel are shown side by side.
func (m *Model) isSplit() bool {
	return m.panel.IsOpen() && m.width >= SplitViewThreshold
}

// layout sizes the tree and panel for the current window and keeps the
// panel in sync with the cursor.
func (m *Model) layout() {
	bodyHeight := max(m.height-1, 1)
	switch {
	case m.isSplit():
		treeWidth := int(float64(m.width) * m.cfg.UI.SplitRatio)
		m.tree.SetSize(treeWidth, bodyHeight)
		m.panel.SetSize(m.width-treeWidth, bodyHeight)
	case m.panel.IsOpen():
		m.tree.SetSize(m.width, bodyHeight)
		m.panel.SetSize(m.width, bodyHeight)
	default:
		m.tree.SetSize(m.width, bodyHeight)
	}
	m.panel.SetNode(m.tree.SelectedNode())
	m.panel.SetHelpContext(m.helpContext())
	m.picker.SetSize(m.width, m.height)
}

func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	bodyHeight := max(m.height-1, 1)

	var body string
	switch {
	case m.mode == modeKindPicker:
		body = m.picker.View()
	case m.mode == modeConfirm && m.confirm != nil:
		box := m.theme.FocusedPanel.Padding(1, 2).Render(m.confirm.form.View())
		body = lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, box)
	case m.showQuickRef:
		body = RenderContextHelp(m.helpContext(), m.theme, m.width, bodyHeight)
	case m.isSplit():
		treeWidth := int(float64(m.width) * m.cfg.UI.SplitRatio)
		treeView := m.theme.Renderer.NewStyle().Width(treeWidth).Height(bodyHeight).MaxHeight(bodyHeight).Render(m.tree.View())
		body = lipgloss.JoinHorizontal(lipgloss.Top, treeView, m.panel.View(false))
	case m.panel.IsOpen():
		body = m.panel.View(true)
	default:
		body = m.theme.Renderer.NewStyle().Height(bodyHeight).MaxHeight(bodyHeight).Render(m.tree.View())
	}

	return lipgloss.JoinVertical(lipgloss.Left, body, m.renderFooter())
}

func (m *Model) renderFooter() string {
	r := m.theme.Renderer

	if m.mode == modeInput {
		prompt := r.NewStyle().Foreground(m.theme.Primary).Bold(true).Render(" " + m.input.Placeholder + ": ")
		return prompt + m.input.View()
	}

	badgeStyle := r.NewStyle().Foreground(m.theme.Bg).Background(m.theme.Primary).Bold(true).Padding(0, 1)
	statsStyle := r.NewStyle().Foreground(m.theme.Text).Background(m.theme.Border).Padding(0, 1)
	helpStyle := r.NewStyle().Foreground(m.theme.Subtext).Padding(0, 1)

	title := m.title
	if title == "" {
		title = "TREE"
	}
	if m.modified {
		title += " ●"
	}
	badge := badgeStyle.Render(title)

	a := m.tree.Actions()
	stats := statsStyle.Render(fmt.Sprintf("%d nodes  %d selected  %d hidden",
		a.Cache().Len(), len(a.Selected()), len(a.Hidden())))

	status := ""
	if m.statusMsg != "" {
		style := r.NewStyle().Foreground(m.theme.Highlight).Padding(0, 1)
		if m.statusIsErr {
			style = style.Foreground(m.theme.Danger)
		}
		status = style.Render(m.statusMsg)
	}

	var keys string
	switch {
	case m.tree.IsSearchMode():
		keys = "type to search • enter: keep • esc: clear"
	case m.panel.IsOpen():
		keys = "tab: next view • esc: back • R: reset • ?: close • q: quit"
	default:
		keys = "space: select • i/o: insert • d: delete • /: search • ?: panel • F1: help • q: quit"
	}
	keysSection := helpStyle.Render(keys)

	left := badge + stats + status
	remaining := max(m.width-lipgloss.Width(left)-lipgloss.Width(keysSection), 0)
	filler := r.NewStyle().Width(remaining).Render("")
	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, filler, keysSection)
}
