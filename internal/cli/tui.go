package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sacredwitness/prereq/pkg/graph"
)

var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// SelectModel is the bubbletea model for reviewing the download selection.
//
// The tree shows every occurrence of every requirement; the checkbox of each
// row is the shared state of its dedup class, so toggling one occurrence of
// an item flips every occurrence at once. Owned items are locked and skipped
// by toggle.
type SelectModel struct {
	Rows      []treeRow
	Selection *graph.Selection
	Cursor    int
	Accepted  bool
	Height    int
	Offset    int
}

// NewSelectModel builds the selection model for a resolved graph.
func NewSelectModel(g *graph.Graph, sel *graph.Selection) SelectModel {
	return SelectModel{
		Rows:      flattenTree(g),
		Selection: sel,
		Height:    20,
	}
}

func (m SelectModel) Init() tea.Cmd {
	return nil
}

func (m SelectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Rows)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case " ", "space":
			m.toggleCursor()
		case "enter":
			m.Accepted = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

// toggleCursor flips the dedup class under the cursor. Locked classes stay
// as they are; the Toggle error is deliberately ignored for them.
func (m *SelectModel) toggleCursor() {
	if len(m.Rows) == 0 {
		return
	}
	c := m.Rows[m.Cursor].node.Class()
	_ = m.Selection.Toggle(c, !m.Selection.IsSelected(c))
}

func (m SelectModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Downloads"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  space toggle  ⏎ queue  q cancel"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Rows) {
		end = len(m.Rows)
	}
	for i := m.Offset; i < end; i++ {
		line := renderRow(m.Rows[i], m.Selection, i == m.Cursor)
		if i == m.Cursor {
			line = listSelectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]  %d class(es) selected",
		m.Cursor+1, len(m.Rows), len(m.Selection.Selected()))))

	return b.String()
}
