// tree.go - interactive tree view over a tree.Actions cache
package ui

import (
	"fmt"
	"log"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/treestack/pkg/export"
	"github.com/vanderheijden86/treestack/pkg/model"
	"github.com/vanderheijden86/treestack/pkg/state"
	"github.com/vanderheijden86/treestack/pkg/tree"
)

// TreeModel manages the tree view: the cache of nodes, the flattened list
// of rows that are currently on screen, and the cursor over those rows.
//
// Rows are the nodes reachable through expanded ancestors whose computed
// visibility is on (or every node, when hidden nodes are shown).
type TreeModel struct {
	actions *tree.Actions[model.Item]
	nodes   []model.Node // last forest returned by actions
	rows    []export.Row // flattened rows for navigation
	cursor  int

	theme          Theme
	width          int
	height         int
	viewportOffset int // index of the first rendered row
	showHidden     bool
	built          bool

	// Persistence; empty disables saving
	stateDir string

	// Search
	searchMode       bool
	searchQuery      string
	searchMatches    []string
	searchMatchIndex int
}

// NewTreeModel creates an empty tree model
func NewTreeModel(theme Theme) TreeModel {
	a, _ := tree.NewActions[model.Item](nil)
	return TreeModel{
		actions: a,
		theme:   theme,
	}
}

// SetSize sets the available rendering area.
func (t *TreeModel) SetSize(width, height int) {
	t.width = width
	t.height = height
	t.ensureCursorVisible()
}

// SetStateDir enables view state persistence into dir.
func (t *TreeModel) SetStateDir(dir string) {
	t.stateDir = dir
}

// SetShowHidden controls whether hidden nodes are listed (dimmed).
func (t *TreeModel) SetShowHidden(show bool) {
	t.showHidden = show
	t.rebuildFlatList()
}

// ShowHidden reports whether hidden nodes are listed.
func (t *TreeModel) ShowHidden() bool { return t.showHidden }

// Build replaces the forest and restores saved view state.
func (t *TreeModel) Build(nodes []model.Node) error {
	a, err := tree.NewActions(nodes)
	if err != nil {
		return err
	}
	t.actions = a
	t.built = true
	t.cursor = 0
	t.viewportOffset = 0
	t.loadState()
	t.nodes = t.actions.Tree()
	t.rebuildFlatList()
	return nil
}

// Reload swaps in a new forest, e.g. after the document changed on disk,
// keeping expansion, selection, visibility and the cursor where possible.
// On error the current forest is left untouched.
func (t *TreeModel) Reload(nodes []model.Node) error {
	if !t.built {
		return t.Build(nodes)
	}
	a, err := tree.NewActions(nodes)
	if err != nil {
		return err
	}
	if _, err := state.Apply(state.Capture(t.actions), a); err != nil {
		return err
	}
	t.actions = a
	t.nodes = t.actions.Tree()
	t.rebuildFlatList()
	return nil
}

// Actions exposes the underlying actions.
func (t *TreeModel) Actions() *tree.Actions[model.Item] { return t.actions }

// Nodes returns the current forest.
func (t *TreeModel) Nodes() []model.Node { return t.nodes }

// Rows returns the rows currently navigable.
func (t *TreeModel) Rows() []export.Row { return t.rows }

// apply stores the forest returned by an Actions verb.
func (t *TreeModel) apply(nodes []model.Node, err error) error {
	if err != nil {
		return err
	}
	t.nodes = nodes
	t.rebuildFlatList()
	return nil
}

// applyAndSave is apply followed by persisting the view state.
func (t *TreeModel) applyAndSave(nodes []model.Node, err error) error {
	if err := t.apply(nodes, err); err != nil {
		return err
	}
	t.saveState()
	return nil
}

// saveState persists expand, selection and visibility state. Errors are
// logged but do not interrupt the user.
func (t *TreeModel) saveState() {
	if t.stateDir == "" || !t.built {
		return
	}
	if err := state.Save(t.stateDir, state.Capture(t.actions)); err != nil {
		log.Printf("warning: failed to save tree state: %v", err)
	}
}

// loadState restores view state from disk. Missing or corrupt state
// leaves the document's own flags in place.
func (t *TreeModel) loadState() {
	if t.stateDir == "" {
		return
	}
	s, err := state.Load(t.stateDir)
	if err != nil {
		log.Printf("warning: failed to load tree state: %v", err)
		return
	}
	if s == nil {
		return
	}
	if stale, err := state.Apply(s, t.actions); err != nil {
		log.Printf("warning: failed to apply tree state: %v", err)
	} else if stale > 0 {
		log.Printf("tree state: ignored %d stale keys", stale)
	}
}

// ── Navigation ──

// SelectedNode returns the node under the cursor.
func (t *TreeModel) SelectedNode() (model.Node, bool) {
	if t.cursor >= 0 && t.cursor < len(t.rows) {
		return t.rows[t.cursor].Node, true
	}
	return model.Node{}, false
}

// SelectedKey returns the key under the cursor, or empty string.
func (t *TreeModel) SelectedKey() string {
	if n, ok := t.SelectedNode(); ok {
		return n.Key
	}
	return ""
}

// SelectByKey moves the cursor to key. Returns false when the key has no
// row (unknown, collapsed away or hidden).
func (t *TreeModel) SelectByKey(key string) bool {
	for i, r := range t.rows {
		if r.Key == key {
			t.cursor = i
			t.ensureCursorVisible()
			return true
		}
	}
	return false
}

// Cursor returns the cursor row index.
func (t *TreeModel) Cursor() int { return t.cursor }

// MoveDown moves the cursor down one row.
func (t *TreeModel) MoveDown() {
	if t.cursor < len(t.rows)-1 {
		t.cursor++
	}
	t.ensureCursorVisible()
}

// MoveUp moves the cursor up one row.
func (t *TreeModel) MoveUp() {
	if t.cursor > 0 {
		t.cursor--
	}
	t.ensureCursorVisible()
}

// JumpToTop moves cursor to the first row.
func (t *TreeModel) JumpToTop() {
	t.cursor = 0
	t.ensureCursorVisible()
}

// JumpToBottom moves cursor to the last row.
func (t *TreeModel) JumpToBottom() {
	if len(t.rows) > 0 {
		t.cursor = len(t.rows) - 1
	}
	t.ensureCursorVisible()
}

// PageDown moves the cursor down by a page.
func (t *TreeModel) PageDown() {
	t.cursor = min(t.cursor+t.effectiveVisibleCount(), max(len(t.rows)-1, 0))
	t.ensureCursorVisible()
}

// PageUp moves the cursor up by a page.
func (t *TreeModel) PageUp() {
	t.cursor = max(t.cursor-t.effectiveVisibleCount(), 0)
	t.ensureCursorVisible()
}

// JumpToParent moves the cursor to the parent row.
func (t *TreeModel) JumpToParent() {
	n, ok := t.SelectedNode()
	if !ok || n.ParentKey == "" {
		return
	}
	t.SelectByKey(n.ParentKey)
}

// ── Expansion ──

// ToggleExpand expands or collapses the node under the cursor.
func (t *TreeModel) ToggleExpand() error {
	n, ok := t.SelectedNode()
	if !ok || !n.HasChildren() {
		return nil
	}
	return t.setExpanded(n.Key, !n.IsExpanded)
}

// setExpanded flips one key in the expanded set.
func (t *TreeModel) setExpanded(key string, expanded bool) error {
	keys := slices.DeleteFunc(t.actions.Expanded(), func(k string) bool { return k == key })
	if expanded {
		keys = append(keys, key)
	}
	return t.applyAndSave(t.actions.OnExpandedChange(keys...))
}

// ExpandOrMoveToChild handles the l key: expand a collapsed parent, or
// step into the first child of an expanded one.
func (t *TreeModel) ExpandOrMoveToChild() error {
	n, ok := t.SelectedNode()
	if !ok || !n.HasChildren() {
		return nil
	}
	if !n.IsExpanded {
		return t.setExpanded(n.Key, true)
	}
	if t.cursor+1 < len(t.rows) && t.rows[t.cursor+1].Node.ParentKey == n.Key {
		t.MoveDown()
	}
	return nil
}

// CollapseOrJumpToParent handles the h key: collapse an expanded parent,
// otherwise move to the parent row.
func (t *TreeModel) CollapseOrJumpToParent() error {
	n, ok := t.SelectedNode()
	if !ok {
		return nil
	}
	if n.HasChildren() && n.IsExpanded {
		return t.setExpanded(n.Key, false)
	}
	t.JumpToParent()
	return nil
}

// ExpandAll expands every node.
func (t *TreeModel) ExpandAll() error {
	return t.applyAndSave(t.actions.ExpandAll(), nil)
}

// CollapseAll collapses every node.
func (t *TreeModel) CollapseAll() error {
	return t.applyAndSave(t.actions.CollapseAll(), nil)
}

// ── Selection ──

// ToggleSelect adds or removes the cursor node from the selection.
func (t *TreeModel) ToggleSelect() error {
	n, ok := t.SelectedNode()
	if !ok {
		return nil
	}
	keys := t.actions.Selected()
	if n.IsSelected {
		keys = slices.DeleteFunc(keys, func(k string) bool { return k == n.Key })
	} else {
		keys = append(keys, n.Key)
	}
	return t.applyAndSave(t.actions.OnSelectionChange(keys...))
}

// SelectAll selects every node.
func (t *TreeModel) SelectAll() error {
	return t.applyAndSave(t.actions.SelectAll(), nil)
}

// UnselectAll clears the selection.
func (t *TreeModel) UnselectAll() error {
	return t.applyAndSave(t.actions.UnselectAll(), nil)
}

// Selected returns the selected keys in tree order.
func (t *TreeModel) Selected() []string { return t.actions.Selected() }

// targets returns the selection, or the cursor node when nothing is
// selected.
func (t *TreeModel) targets() []string {
	if keys := t.actions.Selected(); len(keys) > 0 {
		return keys
	}
	if key := t.SelectedKey(); key != "" {
		return []string{key}
	}
	return nil
}

// ── Visibility ──

// ToggleVisible hides or shows the node under the cursor.
func (t *TreeModel) ToggleVisible() error {
	n, ok := t.SelectedNode()
	if !ok {
		return nil
	}
	hidden := t.actions.Hidden()
	if n.IsVisible {
		hidden = append(hidden, n.Key)
	} else {
		hidden = slices.DeleteFunc(hidden, func(k string) bool { return k == n.Key })
	}
	var visible []string
	for _, key := range t.actions.Cache().Keys() {
		if !slices.Contains(hidden, key) {
			visible = append(visible, key)
		}
	}
	return t.applyAndSave(t.actions.OnVisibilityChange(visible...))
}

// RevealAll makes every node visible.
func (t *TreeModel) RevealAll() error {
	return t.applyAndSave(t.actions.RevealAll(), nil)
}

// HideAll hides every node.
func (t *TreeModel) HideAll() error {
	return t.applyAndSave(t.actions.HideAll(), nil)
}

// ── Structure ──

// siblingKeys returns the siblings of key, including key itself.
func (t *TreeModel) siblingKeys(key string) ([]string, int, error) {
	c := t.actions.Cache()
	parent, err := c.Parent(key)
	if err != nil {
		return nil, 0, err
	}
	siblings, err := c.Children(parent)
	if err != nil {
		return nil, 0, err
	}
	return siblings, slices.Index(siblings, key), nil
}

// MoveNodeUp swaps the cursor node with its previous sibling.
func (t *TreeModel) MoveNodeUp() error {
	key := t.SelectedKey()
	if key == "" {
		return nil
	}
	siblings, i, err := t.siblingKeys(key)
	if err != nil || i <= 0 {
		return err
	}
	return t.moved(key)(t.actions.MoveBefore(siblings[i-1], key))
}

// MoveNodeDown swaps the cursor node with its next sibling.
func (t *TreeModel) MoveNodeDown() error {
	key := t.SelectedKey()
	if key == "" {
		return nil
	}
	siblings, i, err := t.siblingKeys(key)
	if err != nil || i < 0 || i >= len(siblings)-1 {
		return err
	}
	return t.moved(key)(t.actions.MoveAfter(siblings[i+1], key))
}

// Indent makes the cursor node the last child of its previous sibling.
func (t *TreeModel) Indent() error {
	key := t.SelectedKey()
	if key == "" {
		return nil
	}
	siblings, i, err := t.siblingKeys(key)
	if err != nil || i <= 0 {
		return err
	}
	if _, err := t.actions.MoveInto(siblings[i-1], key); err != nil {
		return err
	}
	return t.moved(key)(t.actions.Reveal(key))
}

// Outdent makes the cursor node the next sibling of its parent.
func (t *TreeModel) Outdent() error {
	n, ok := t.SelectedNode()
	if !ok || n.ParentKey == "" {
		return nil
	}
	return t.moved(n.Key)(t.actions.MoveAfter(n.ParentKey, n.Key))
}

// MoveSelection moves the selected nodes relative to the cursor node.
func (t *TreeModel) MoveSelection(pos tree.Position) error {
	target := t.SelectedKey()
	keys := t.actions.Selected()
	if target == "" || len(keys) == 0 {
		return nil
	}
	var err error
	switch pos {
	case tree.Before:
		_, err = t.actions.MoveBefore(target, keys...)
	case tree.After:
		_, err = t.actions.MoveAfter(target, keys...)
	case tree.Into:
		if _, err = t.actions.MoveInto(target, keys...); err == nil {
			_, err = t.actions.Reveal(keys[0])
		}
	}
	if err != nil {
		return err
	}
	return t.moved(keys[0])(t.actions.Tree(), nil)
}

// moved returns an apply func that keeps the cursor on key.
func (t *TreeModel) moved(key string) func([]model.Node, error) error {
	return func(nodes []model.Node, err error) error {
		if err := t.applyAndSave(nodes, err); err != nil {
			return err
		}
		t.SelectByKey(key)
		return nil
	}
}

// Insert adds a node labeled label relative to the cursor node and moves
// the cursor onto it. With an empty tree the node becomes a root.
func (t *TreeModel) Insert(label string, pos tree.Position) (string, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", fmt.Errorf("label cannot be empty")
	}
	key := t.newKey(label)
	node := tree.NewNode[model.Item](key, label)
	target := t.SelectedKey()

	var err error
	switch pos {
	case tree.Before:
		_, err = t.actions.InsertBefore(target, node)
	case tree.After:
		_, err = t.actions.InsertAfter(target, node)
	case tree.Into:
		_, err = t.actions.InsertInto(target, node)
	}
	if err != nil {
		return "", err
	}
	if err := t.moved(key)(t.actions.Reveal(key)); err != nil {
		return "", err
	}
	return key, nil
}

// newKey derives an unused key from label.
func (t *TreeModel) newKey(label string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(label) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	base := strings.TrimSuffix(b.String(), "-")
	if base == "" {
		base = "node"
	}
	key := base
	for i := 2; t.actions.Cache().Has(key); i++ {
		key = fmt.Sprintf("%s-%d", base, i)
	}
	return key
}

// Rename sets the label of the cursor node.
func (t *TreeModel) Rename(label string) error {
	key := t.SelectedKey()
	label = strings.TrimSpace(label)
	if key == "" || label == "" {
		return nil
	}
	return t.apply(t.actions.UpdateNode(key, func(n *model.Node) { n.Label = label }))
}

// SetKind sets the kind of the cursor node.
func (t *TreeModel) SetKind(kind string) error {
	key := t.SelectedKey()
	if key == "" {
		return nil
	}
	return t.apply(t.actions.UpdateNode(key, func(n *model.Node) { n.Values.Kind = kind }))
}

// ToggleDisabled flips the disabled flag of the cursor node.
func (t *TreeModel) ToggleDisabled() error {
	key := t.SelectedKey()
	if key == "" {
		return nil
	}
	return t.apply(t.actions.UpdateNode(key, func(n *model.Node) { n.IsDisabled = !n.IsDisabled }))
}

// Delete removes keys and their subtrees.
func (t *TreeModel) Delete(keys ...string) error {
	return t.applyAndSave(t.actions.Remove(keys...))
}

// ── Search ──

// EnterSearchMode activates the search input.
func (t *TreeModel) EnterSearchMode() {
	t.searchMode = true
	t.searchQuery = ""
	t.searchMatches = nil
	t.searchMatchIndex = 0
}

// ExitSearchMode leaves the input but keeps the matches.
func (t *TreeModel) ExitSearchMode() {
	t.searchMode = false
}

// ClearSearch drops search state entirely.
func (t *TreeModel) ClearSearch() {
	t.searchMode = false
	t.searchQuery = ""
	t.searchMatches = nil
	t.searchMatchIndex = 0
}

// IsSearchMode returns whether the search input is active.
func (t *TreeModel) IsSearchMode() bool { return t.searchMode }

// SearchQuery returns the current query.
func (t *TreeModel) SearchQuery() string { return t.searchQuery }

// SearchMatchCount returns the number of matching nodes.
func (t *TreeModel) SearchMatchCount() int { return len(t.searchMatches) }

// SearchAddChar appends to the query and searches again.
func (t *TreeModel) SearchAddChar(ch rune) {
	t.searchQuery += string(ch)
	t.executeSearch()
}

// SearchBackspace removes the last rune from the query.
func (t *TreeModel) SearchBackspace() {
	if runes := []rune(t.searchQuery); len(runes) > 0 {
		t.searchQuery = string(runes[:len(runes)-1])
	}
	if t.searchQuery == "" {
		t.searchMatches = nil
		t.searchMatchIndex = 0
		return
	}
	t.executeSearch()
}

// executeSearch matches labels and keys over all nodes, including those
// under collapsed parents, and reveals the first match.
func (t *TreeModel) executeSearch() {
	t.searchMatches = nil
	t.searchMatchIndex = 0
	if t.searchQuery == "" {
		return
	}
	query := strings.ToLower(t.searchQuery)
	tree.Walk(t.nodes, func(n model.Node, _ int) bool {
		if !t.showHidden && !n.IsVisibleComputed {
			return false
		}
		if strings.Contains(strings.ToLower(n.Label), query) ||
			strings.Contains(strings.ToLower(n.Key), query) {
			t.searchMatches = append(t.searchMatches, n.Key)
		}
		return true
	})
	if len(t.searchMatches) > 0 {
		t.focusMatch()
	}
}

// NextSearchMatch cycles forward through matches.
func (t *TreeModel) NextSearchMatch() {
	if len(t.searchMatches) == 0 {
		return
	}
	t.searchMatchIndex = (t.searchMatchIndex + 1) % len(t.searchMatches)
	t.focusMatch()
}

// PrevSearchMatch cycles backward through matches.
func (t *TreeModel) PrevSearchMatch() {
	if len(t.searchMatches) == 0 {
		return
	}
	t.searchMatchIndex--
	if t.searchMatchIndex < 0 {
		t.searchMatchIndex = len(t.searchMatches) - 1
	}
	t.focusMatch()
}

func (t *TreeModel) focusMatch() {
	key := t.searchMatches[t.searchMatchIndex]
	if err := t.moved(key)(t.actions.Reveal(key)); err != nil {
		log.Printf("warning: reveal %s: %v", key, err)
	}
}

// ── Flat list ──

// rebuildFlatList recomputes the rows, keeping the cursor on the same key
// when it is still listed.
func (t *TreeModel) rebuildFlatList() {
	key := t.SelectedKey()
	t.rows = export.Flatten(t.nodes, export.Options{ExpandedOnly: true, IncludeHidden: t.showHidden})
	if key != "" {
		for i, r := range t.rows {
			if r.Key == key {
				t.cursor = i
				t.ensureCursorVisible()
				return
			}
		}
	}
	if t.cursor >= len(t.rows) {
		t.cursor = len(t.rows) - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
	t.ensureCursorVisible()
}

// IsBuilt returns whether Build has been called.
func (t *TreeModel) IsBuilt() bool { return t.built }

// NodeCount returns the number of listed rows.
func (t *TreeModel) NodeCount() int { return len(t.rows) }

// RootCount returns the number of roots.
func (t *TreeModel) RootCount() int { return len(t.actions.Cache().Roots()) }

func (t *TreeModel) effectiveVisibleCount() int {
	visibleCount := t.height
	if visibleCount <= 0 {
		visibleCount = 20
	}
	// Reserve a line for the position indicator when scrolling
	if len(t.rows) > visibleCount {
		visibleCount--
	}
	if t.searchMode {
		visibleCount--
	}
	return max(visibleCount, 1)
}

// ensureCursorVisible scrolls just enough to keep the cursor on screen.
func (t *TreeModel) ensureCursorVisible() {
	if len(t.rows) == 0 {
		t.viewportOffset = 0
		return
	}
	visibleCount := t.effectiveVisibleCount()
	if t.cursor < t.viewportOffset {
		t.viewportOffset = t.cursor
	}
	if t.cursor >= t.viewportOffset+visibleCount {
		t.viewportOffset = t.cursor - visibleCount + 1
	}
	t.viewportOffset = max(0, min(t.viewportOffset, len(t.rows)-visibleCount))
}

// visibleRange returns the [start, end) rows to render.
func (t *TreeModel) visibleRange() (start, end int) {
	start = t.viewportOffset
	end = min(start+t.effectiveVisibleCount(), len(t.rows))
	return start, end
}

// ── Rendering ──

// View renders the tree view.
func (t *TreeModel) View() string {
	if !t.built || len(t.rows) == 0 {
		return t.renderEmptyState()
	}

	var sb strings.Builder
	start, end := t.visibleRange()
	for i := start; i < end; i++ {
		line := t.renderRow(t.rows[i])
		if i == t.cursor {
			line = t.theme.Selected.Render(line)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	if len(t.rows) > end-start {
		indicator := fmt.Sprintf(" %d-%d of %d", start+1, end, len(t.rows))
		sb.WriteString(t.theme.MutedText.Render(indicator))
		sb.WriteString("\n")
	}

	if t.searchMode || t.searchQuery != "" {
		sb.WriteString(t.renderSearchBar())
	}
	return sb.String()
}

func (t *TreeModel) renderEmptyState() string {
	r := t.theme.Renderer
	titleStyle := r.NewStyle().Foreground(t.theme.Primary).Bold(true)

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Tree"))
	sb.WriteString("\n\n")
	if t.built && t.actions.Cache().Len() > 0 {
		sb.WriteString(t.theme.MutedText.Render("All nodes are hidden."))
		sb.WriteString("\n")
		sb.WriteString(t.theme.MutedText.Render("Press V to reveal all or . to show hidden nodes."))
	} else {
		sb.WriteString(t.theme.MutedText.Render("No nodes to display."))
		sb.WriteString("\n")
		sb.WriteString(t.theme.MutedText.Render("Press i to insert a root node."))
	}
	return sb.String()
}

// renderRow renders one row: prefix, expand indicator, checkbox, kind
// icon, label and key.
func (t *TreeModel) renderRow(row export.Row) string {
	r := t.theme.Renderer
	n := row.Node
	var sb strings.Builder

	prefix := row.Prefix()
	sb.WriteString(t.theme.MutedText.Render(prefix))

	sb.WriteString(r.NewStyle().Foreground(t.theme.Secondary).Render(expandIndicator(n)))
	sb.WriteString(" ")

	box := "[ ]"
	if n.IsSelected {
		box = "[x]"
	}
	sb.WriteString(r.NewStyle().Foreground(t.theme.Highlight).Render(box))
	sb.WriteString(" ")

	if icon, color := t.theme.GetKindIcon(n.Values.Kind); icon != "" {
		sb.WriteString(r.NewStyle().Foreground(color).Render(icon))
		sb.WriteString(" ")
	}

	maxLabel := t.width - lipgloss.Width(prefix) - runewidth.StringWidth(n.Key) - 12
	label := truncateLabel(row.Label, max(maxLabel, 10))
	labelStyle := r.NewStyle()
	if n.IsDisabled {
		labelStyle = labelStyle.Strikethrough(true).Foreground(t.theme.Muted)
	}
	if row.Hidden {
		labelStyle = labelStyle.Faint(true)
	}
	if slices.Contains(t.searchMatches, n.Key) {
		labelStyle = labelStyle.Foreground(t.theme.Primary).Bold(true)
	}
	sb.WriteString(labelStyle.Render(label))
	sb.WriteString(" ")
	sb.WriteString(t.theme.MutedText.Render(n.Key))
	if row.Hidden {
		sb.WriteString(t.theme.MutedText.Render(" (hidden)"))
	}
	return sb.String()
}

func expandIndicator(n model.Node) string {
	if !n.HasChildren() {
		return "•"
	}
	if n.IsExpanded {
		return "▾"
	}
	return "▸"
}

// truncateLabel shortens s to maxWidth display cells with an ellipsis.
func truncateLabel(s string, maxWidth int) string {
	if maxWidth <= 1 {
		return "…"
	}
	return runewidth.Truncate(s, maxWidth, "…")
}

func (t *TreeModel) renderSearchBar() string {
	r := t.theme.Renderer
	style := r.NewStyle().Foreground(t.theme.Primary).Bold(true)
	info := ""
	switch {
	case len(t.searchMatches) > 0:
		info = fmt.Sprintf(" [%d/%d]", t.searchMatchIndex+1, len(t.searchMatches))
	case t.searchQuery != "":
		info = " [no matches]"
	}
	cursor := ""
	if t.searchMode {
		cursor = "█"
	}
	return style.Render("/") + t.searchQuery + cursor + t.theme.MutedText.Render(info)
}
