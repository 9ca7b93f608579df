package ui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/goccy/go-json"

	"github.com/vanderheijden86/treestack/pkg/config"
	"github.com/vanderheijden86/treestack/pkg/model"
	"github.com/vanderheijden86/treestack/pkg/viewstack"
)

// PanelModel is the side drawer next to the tree. Which view it shows is
// driven entirely through the bus; the panel only renders the current
// view of its drawer for the node under the tree cursor.
type PanelModel struct {
	bus      *viewstack.Bus
	drawer   *viewstack.Drawer
	detach   func()
	views    []string
	viewport viewport.Model
	markdown *MarkdownRenderer
	theme    Theme
	width    int
	height   int

	node    model.Node
	hasNode bool
	help    Context

	// What the viewport currently holds
	renderedKey string
}

// NewPanelModel creates a closed panel attached to bus.
func NewPanelModel(bus *viewstack.Bus, cfg config.PanelConfig, theme Theme) *PanelModel {
	p := &PanelModel{
		bus:      bus,
		drawer:   viewstack.NewDrawer(config.SidePanel, cfg.Default, cfg.Views...),
		views:    slices.Clone(cfg.Views),
		viewport: viewport.New(40, 10),
		theme:    theme,
		help:     ContextTree,
	}
	p.markdown = NewMarkdownRenderer(40, cfg.Style, theme)
	p.detach = p.drawer.Attach(bus)
	return p
}

// Close detaches the panel from the bus.
func (p *PanelModel) Close() {
	if p.detach != nil {
		p.detach()
		p.detach = nil
	}
}

// ID returns the drawer id the panel answers to.
func (p *PanelModel) ID() string { return p.drawer.ID() }

// IsOpen reports whether the panel is showing.
func (p *PanelModel) IsOpen() bool { return p.drawer.IsOpen() }

// Current returns the view on top of the panel's stack.
func (p *PanelModel) Current() string {
	v, _ := p.drawer.Stack().Current()
	return v
}

// History returns the panel's view stack, bottom first.
func (p *PanelModel) History() []string { return p.drawer.Stack().Views() }

// SetSize sets the panel's outer dimensions.
func (p *PanelModel) SetSize(width, height int) {
	if width == p.width && height == p.height {
		return
	}
	p.width = width
	p.height = height
	p.viewport.Width = max(width-4, 10)
	p.viewport.Height = max(height-4, 3)
	p.markdown.SetWidth(p.viewport.Width)
	p.renderedKey = ""
}

// SetNode sets the node the detail and json views describe.
func (p *PanelModel) SetNode(n model.Node, ok bool) {
	p.node = n
	p.hasNode = ok
}

// SetHelpContext picks which quick reference the help view shows.
func (p *PanelModel) SetHelpContext(ctx Context) {
	p.help = ctx
}

// Toggle opens or closes the panel.
func (p *PanelModel) Toggle() { p.bus.Toggle(p.ID()) }

// Next pushes the view after the current one, wrapping around.
func (p *PanelModel) Next() {
	if len(p.views) == 0 {
		return
	}
	i := slices.Index(p.views, p.Current())
	p.bus.Push(p.views[(i+1)%len(p.views)])
}

// Back pops the current view; at the bottom of the stack it closes the
// panel instead.
func (p *PanelModel) Back() {
	if p.drawer.Stack().Len() <= 1 {
		p.bus.Close(p.ID())
		return
	}
	p.bus.Back(p.ID())
}

// Reset returns the panel to its default view.
func (p *PanelModel) Reset() { p.bus.Reset(p.ID()) }

// ScrollDown scrolls the panel content.
func (p *PanelModel) ScrollDown() { p.viewport.LineDown(1) }

// ScrollUp scrolls the panel content.
func (p *PanelModel) ScrollUp() { p.viewport.LineUp(1) }

// Sync re-renders the viewport when the view or its subject changed.
func (p *PanelModel) Sync() {
	key := p.contentKey()
	if key == p.renderedKey {
		return
	}
	p.renderedKey = key
	p.viewport.SetContent(p.content())
	p.viewport.GotoTop()
}

func (p *PanelModel) contentKey() string {
	subject := "-"
	if p.hasNode {
		data, _ := json.Marshal(model.FromNode(p.node))
		subject = string(data)
	}
	return fmt.Sprintf("%s|%s|%s", p.Current(), p.help, subject)
}

// content renders the current view as text.
func (p *PanelModel) content() string {
	switch p.Current() {
	case config.ViewHelp:
		return p.render(GetContextHelp(p.help))
	case config.ViewJSON:
		if !p.hasNode {
			return "No node selected"
		}
		data, err := json.MarshalIndent(model.FromNode(p.node), "", "  ")
		if err != nil {
			return fmt.Sprintf("Error encoding node: %v", err)
		}
		return string(data)
	case config.ViewDetail:
		if !p.hasNode {
			return "No node selected"
		}
		return p.render(nodeMarkdown(p.node))
	default:
		return fmt.Sprintf("Unknown view %q", p.Current())
	}
}

func (p *PanelModel) render(md string) string {
	out, err := p.markdown.Render(md)
	if err != nil {
		return md
	}
	return out
}

// nodeMarkdown describes n as markdown for the detail view.
func nodeMarkdown(n model.Node) string {
	var sb strings.Builder
	title := n.Label
	if title == "" {
		title = n.Key
	}
	sb.WriteString(fmt.Sprintf("# %s\n\n", title))

	sb.WriteString("| Key | Kind | Children | State |\n|---|---|---|---|\n")
	kind := n.Values.Kind
	if kind == "" {
		kind = "-"
	}
	sb.WriteString(fmt.Sprintf("| `%s` | %s | %d | %s |\n\n", n.Key, kind, len(n.Children), nodeState(n)))

	if len(n.Values.Tags) > 0 {
		sb.WriteString("**Tags:** " + strings.Join(n.Values.Tags, ", ") + "\n\n")
	}
	if n.Values.Description != "" {
		sb.WriteString("### Description\n")
		sb.WriteString(n.Values.Description + "\n\n")
	}
	if len(n.Children) > 0 {
		sb.WriteString("### Children\n")
		for _, c := range n.Children {
			label := c.Label
			if label == "" {
				label = c.Key
			}
			sb.WriteString(fmt.Sprintf("- %s (`%s`)\n", label, c.Key))
		}
	}
	return sb.String()
}

func nodeState(n model.Node) string {
	var parts []string
	if n.IsSelected {
		parts = append(parts, "selected")
	}
	if n.IsExpanded {
		parts = append(parts, "expanded")
	}
	if n.IsDisabled {
		parts = append(parts, "disabled")
	}
	if !n.IsVisible {
		parts = append(parts, "hidden")
	} else if !n.IsVisibleComputed {
		parts = append(parts, "hidden by ancestor")
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}

// View renders the panel inside a bordered box.
func (p *PanelModel) View(focused bool) string {
	p.Sync()
	style := p.theme.Panel
	if focused {
		style = p.theme.FocusedPanel
	}

	tabs := make([]string, 0, len(p.views))
	for _, v := range p.views {
		if v == p.Current() {
			tabs = append(tabs, p.theme.Renderer.NewStyle().Foreground(p.theme.Primary).Bold(true).Render("["+v+"]"))
		} else {
			tabs = append(tabs, p.theme.MutedText.Render(" "+v+" "))
		}
	}
	header := strings.Join(tabs, " ")

	return style.
		Width(max(p.width-2, 1)).
		Height(max(p.height-2, 1)).
		Render(header + "\n" + p.viewport.View())
}
