package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"
)

var (
	itemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fff"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#22c55e"))

	descStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666"))

	versionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#60a5fa"))

	filterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#22c55e")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#444")).
			MarginTop(1)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888"))
)

// SelectorItem is one row in the interactive package picker.
type SelectorItem struct {
	Name        string
	Version     string
	Description string
}

type selectorItems []SelectorItem

func (s selectorItems) String(i int) string { return s[i].Name }
func (s selectorItems) Len() int            { return len(s) }

type SelectorModel struct {
	items        []SelectorItem
	filtered     []int
	selected     map[string]bool
	filter       string
	cursor       int
	confirmed    bool
	width        int
	height       int
	scrollOffset int
}

func NewSelector(items []SelectorItem) SelectorModel {
	m := SelectorModel{
		items:    items,
		selected: make(map[string]bool),
	}
	m.refilter()
	return m
}

func (m *SelectorModel) refilter() {
	if m.filter == "" {
		m.filtered = make([]int, len(m.items))
		for i := range m.items {
			m.filtered[i] = i
		}
	} else {
		matches := fuzzy.FindFrom(m.filter, selectorItems(m.items))
		m.filtered = make([]int, len(matches))
		for i, match := range matches {
			m.filtered[i] = match.Index
		}
	}
	m.cursor = 0
	m.scrollOffset = 0
}

func (m SelectorModel) Init() tea.Cmd {
	return nil
}

func (m SelectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.scrollOffset {
					m.scrollOffset = m.cursor
				}
			}

		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.filtered)-1 {
				m.cursor++
				visibleItems := m.getVisibleItems()
				if m.cursor >= m.scrollOffset+visibleItems {
					m.scrollOffset = m.cursor - visibleItems + 1
				}
			}

		case key.Matches(msg, keys.Space):
			if m.cursor < len(m.filtered) {
				name := m.items[m.filtered[m.cursor]].Name
				m.selected[name] = !m.selected[name]
			}

		case key.Matches(msg, keys.Enter):
			// Enter with nothing toggled selects the row under the cursor.
			if len(m.selectedNames()) == 0 && m.cursor < len(m.filtered) {
				m.selected[m.items[m.filtered[m.cursor]].Name] = true
			}
			m.confirmed = true
			return m, tea.Quit

		case key.Matches(msg, keys.Backspace):
			if len(m.filter) > 0 {
				m.filter = m.filter[:len(m.filter)-1]
				m.refilter()
			}

		default:
			if msg.Type == tea.KeyRunes {
				m.filter += string(msg.Runes)
				m.refilter()
			}
		}
	}

	return m, nil
}

func (m SelectorModel) getVisibleItems() int {
	if m.height == 0 {
		return 15
	}
	available := m.height - 7
	if available < 5 {
		available = 5
	}
	if available > 20 {
		available = 20
	}
	return available
}

func (m SelectorModel) View() string {
	var lines []string

	filterLine := "Filter: "
	if m.filter == "" {
		filterLine += descStyle.Render("(type to filter)")
	} else {
		filterLine += filterStyle.Render(m.filter)
	}
	lines = append(lines, filterLine)
	lines = append(lines, "")

	visibleItems := m.getVisibleItems()

	if m.scrollOffset > len(m.filtered)-visibleItems {
		m.scrollOffset = len(m.filtered) - visibleItems
	}
	if m.scrollOffset < 0 {
		m.scrollOffset = 0
	}

	endIdx := m.scrollOffset + visibleItems
	if endIdx > len(m.filtered) {
		endIdx = len(m.filtered)
	}

	for i := m.scrollOffset; i < endIdx; i++ {
		item := m.items[m.filtered[i]]
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}

		checkbox := "[ ]"
		style := itemStyle
		if m.selected[item.Name] {
			checkbox = "[✓]"
			style = selectedStyle
		}

		line := fmt.Sprintf("%s%s %s", cursor, checkbox, style.Render(item.Name))
		if item.Version != "" {
			line += " " + versionStyle.Render(item.Version)
		}
		if item.Description != "" {
			line += " " + descStyle.Render(item.Description)
		}
		lines = append(lines, line)
	}

	clearLine := strings.Repeat(" ", 80)
	for len(lines) < visibleItems+2 {
		lines = append(lines, clearLine)
	}

	lines = append(lines, "")
	lines = append(lines, countStyle.Render(fmt.Sprintf("Selected: %d packages", len(m.selectedNames()))))
	lines = append(lines, helpStyle.Render("↑↓: navigate • Space: toggle • Enter: confirm • Esc: quit"))

	return strings.Join(lines, "\n")
}

func (m SelectorModel) selectedNames() []string {
	var names []string
	for _, item := range m.items {
		if m.selected[item.Name] {
			names = append(names, item.Name)
		}
	}
	return names
}

// Selected returns the chosen package names in the original item order.
func (m SelectorModel) Selected() []string {
	return m.selectedNames()
}

func (m SelectorModel) Confirmed() bool {
	return m.confirmed
}

type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Space     key.Binding
	Enter     key.Binding
	Backspace key.Binding
	Quit      key.Binding
}

var keys = keyMap{
	Up:        key.NewBinding(key.WithKeys("up", "ctrl+p")),
	Down:      key.NewBinding(key.WithKeys("down", "ctrl+n")),
	Space:     key.NewBinding(key.WithKeys(" ")),
	Enter:     key.NewBinding(key.WithKeys("enter")),
	Backspace: key.NewBinding(key.WithKeys("backspace")),
	Quit:      key.NewBinding(key.WithKeys("esc", "ctrl+c")),
}

// RunSelector shows an interactive picker over the given items and returns
// the names the user confirmed, in item order.
func RunSelector(items []SelectorItem) ([]string, bool, error) {
	model := NewSelector(items)
	p := tea.NewProgram(model, tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return nil, false, err
	}

	m := finalModel.(SelectorModel)
	if !m.Confirmed() {
		return nil, false, nil
	}
	return m.Selected(), true, nil
}
