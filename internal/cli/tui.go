package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/SebastianScherer88/graphit/pkg/pipeline"
)

var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// rootEntry is one row of the roots listing.
type rootEntry struct {
	ID     string
	Handle string
	Kind   string
	Module string
	Calls  int
}

// rootEntries describes the roots of a in root order.
func rootEntries(a *pipeline.Analysis) []rootEntry {
	entries := make([]rootEntry, 0, len(a.Roots))
	for _, id := range a.Roots {
		e := rootEntry{ID: id, Handle: id, Calls: len(a.Resolution.Edges(id))}
		if m, ok := a.Catalog.Lookup(id); ok {
			e.Handle = m.Handle
			e.Kind = m.Kind
			e.Module = m.Module
		}
		entries = append(entries, e)
	}
	return entries
}

// rootTable renders entries as a bordered table. cursor < 0 disables the
// selection column.
func rootTable(entries []rootEntry, cursor int) *table.Table {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	headers := []string{"Handle", "Kind", "Module", "Calls"}
	if cursor >= 0 {
		headers = append([]string{""}, headers...)
	}

	rows := make([][]string, 0, len(entries))
	for i, e := range entries {
		row := []string{e.Handle, e.Kind, e.Module, strconv.Itoa(e.Calls)}
		if cursor >= 0 {
			marker := "  "
			if i == cursor {
				marker = "▸ "
			}
			row = append([]string{marker}, row...)
		}
		rows = append(rows, row)
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			base := lipgloss.NewStyle()
			if row >= len(entries) {
				return base
			}
			if row == cursor {
				return base.Foreground(colorGreen).Bold(true)
			}
			if entries[row].Calls == 0 {
				return base.Foreground(colorDim)
			}
			return base
		})
}

// =============================================================================
// RootListModel - Interactive root selection
// =============================================================================

// RootListModel is the bubbletea model for picking a root to draw.
type RootListModel struct {
	Roots    []rootEntry
	Cursor   int
	Selected *rootEntry
	Height   int
	Offset   int
}

// NewRootListModel creates a new root list model.
func NewRootListModel(roots []rootEntry) RootListModel {
	return RootListModel{Roots: roots, Height: 15}
}

func (m RootListModel) Init() tea.Cmd {
	return nil
}

func (m RootListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			if m.Cursor < len(m.Roots)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Roots) == 0 {
				return m, tea.Quit
			}
			r := m.Roots[m.Cursor]
			m.Selected = &r
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

func (m RootListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Root"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ draw  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Roots) {
		end = len(m.Roots)
	}
	b.WriteString(rootTable(m.Roots[m.Offset:end], m.Cursor-m.Offset).Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Roots))))

	return b.String()
}
