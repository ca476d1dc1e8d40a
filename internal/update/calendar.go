package update

import (
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/markplan/markplan/internal/model"
)

func (m Model) handleCalendarKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "h", "left":
		m.shiftCalendarFocus(-1)
		m.refreshFromService()
	case "l", "right":
		m.shiftCalendarFocus(1)
		m.refreshFromService()
	case "t":
		now := m.now().UTC()
		m.Calendar.FocusMonth = model.MonthKey{Year: now.Year(), Month: now.Month()}
		m.refreshFromService()
	default:
		var cmd tea.Cmd
		m.calTable, cmd = m.calTable.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) shiftCalendarFocus(deltaMonths int) {
	focus := time.Date(m.Calendar.FocusMonth.Year, m.Calendar.FocusMonth.Month, 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, deltaMonths, 0)
	m.Calendar.FocusMonth = model.MonthKey{Year: focus.Year(), Month: focus.Month()}
	m.Status = StatusBar{Text: "calendar focus: " + m.Calendar.FocusMonth.String(), IsError: false}
}

// syncCalendarTable rebuilds the calendar rows for the focused month. Draft
// and final dues of the same task show as separate rows so both milestones
// are visible in date order.
func (m *Model) syncCalendarTable(tasks []model.Task) {
	focus := m.Calendar.FocusMonth
	rows := make([]table.Row, 0)
	appendRow := func(due *model.Date, name, stage string, virtual bool) {
		if due == nil || due.MonthKey() != focus {
			return
		}
		if virtual {
			name = name + " ↻"
		}
		rows = append(rows, table.Row{due.String(), name, stage})
	}
	for _, t := range tasks {
		appendRow(t.DraftDue, t.Name, "draft", t.IsRecurring)
		appendRow(t.FinalDue, t.Name, "final", t.IsRecurring)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i][0] < rows[j][0] })
	m.calTable.SetRows(rows)
}
