package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testItems() []SelectorItem {
	return []SelectorItem{
		{Name: "ripgrep", Version: "14.1.0", Description: "Fast line-oriented search"},
		{Name: "fzf", Version: "0.46.1", Description: "Fuzzy finder"},
		{Name: "fd", Version: "9.0.0", Description: "Alternative to find"},
		{Name: "bat", Version: "0.24.0", Description: "cat with wings"},
	}
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func send(m SelectorModel, keys ...string) SelectorModel {
	for _, k := range keys {
		updated, _ := m.Update(keyMsg(k))
		m = updated.(SelectorModel)
	}
	return m
}

func TestSelectorShowsAllItemsInitially(t *testing.T) {
	m := NewSelector(testItems())
	assert.Equal(t, 4, len(m.filtered))
	assert.Equal(t, 0, m.cursor)
}

func TestSelectorToggleWithSpace(t *testing.T) {
	m := send(NewSelector(testItems()), "space")
	assert.Equal(t, []string{"ripgrep"}, m.Selected())

	m = send(m, "space")
	assert.Empty(t, m.Selected())
}

func TestSelectorNavigateAndToggle(t *testing.T) {
	m := send(NewSelector(testItems()), "down", "space", "down", "space")
	assert.Equal(t, []string{"fzf", "fd"}, m.Selected())
}

func TestSelectorCursorStopsAtBounds(t *testing.T) {
	m := send(NewSelector(testItems()), "up")
	assert.Equal(t, 0, m.cursor)

	m = send(m, "down", "down", "down", "down", "down")
	assert.Equal(t, 3, m.cursor)
}

func TestSelectorFilterNarrowsItems(t *testing.T) {
	m := send(NewSelector(testItems()), "f", "z")
	require.Equal(t, 1, len(m.filtered))
	assert.Equal(t, "fzf", m.items[m.filtered[0]].Name)
}

func TestSelectorBackspaceWidensFilter(t *testing.T) {
	m := send(NewSelector(testItems()), "f", "z", "backspace")
	// "f" fuzzy-matches both fzf and fd.
	assert.Greater(t, len(m.filtered), 1)
}

func TestSelectorFilterResetsCursor(t *testing.T) {
	m := send(NewSelector(testItems()), "down", "down", "b")
	assert.Equal(t, 0, m.cursor)
}

func TestSelectorSelectionSurvivesFiltering(t *testing.T) {
	m := send(NewSelector(testItems()), "space", "f", "z", "space", "backspace", "backspace")
	assert.Equal(t, []string{"ripgrep", "fzf"}, m.Selected())
}

func TestSelectorEnterConfirms(t *testing.T) {
	m := send(NewSelector(testItems()), "down", "space", "enter")
	assert.True(t, m.Confirmed())
	assert.Equal(t, []string{"fzf"}, m.Selected())
}

func TestSelectorEnterWithNoSelectionPicksCursorRow(t *testing.T) {
	m := send(NewSelector(testItems()), "down", "enter")
	assert.True(t, m.Confirmed())
	assert.Equal(t, []string{"fzf"}, m.Selected())
}

func TestSelectorEscDoesNotConfirm(t *testing.T) {
	m := send(NewSelector(testItems()), "space")
	updated, cmd := m.Update(keyMsg("esc"))
	m = updated.(SelectorModel)
	assert.NotNil(t, cmd)
	assert.False(t, m.Confirmed())
}

func TestSelectorViewRendersItems(t *testing.T) {
	m := NewSelector(testItems())
	view := m.View()
	assert.Contains(t, view, "ripgrep")
	assert.Contains(t, view, "14.1.0")
	assert.Contains(t, view, "Selected: 0 packages")
}

func TestSelectorViewMarksSelection(t *testing.T) {
	m := send(NewSelector(testItems()), "space")
	assert.Contains(t, m.View(), "Selected: 1 packages")
}
