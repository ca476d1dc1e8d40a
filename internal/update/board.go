package update

import (
	"context"
	"sort"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/markplan/markplan/internal/model"
)

const unscheduledGroup = "Unscheduled"

// displayMonth picks the month a task is shown under: draft due wins, final
// due backs it up, everything else lands in the unscheduled group.
func displayMonth(t model.Task) string {
	if t.DraftDue != nil {
		return t.DraftDue.MonthKey().String()
	}
	if t.FinalDue != nil {
		return t.FinalDue.MonthKey().String()
	}
	return unscheduledGroup
}

func buildBoard(tasks []model.Task, cursor int) BoardState {
	byMonth := make(map[string][]BoardItem)
	for _, t := range tasks {
		item := BoardItem{
			ID:        t.ID,
			Name:      t.Name,
			DraftDone: t.DraftComplete,
			FinalDone: t.FinalComplete,
			Virtual:   t.IsRecurring,
			Notes:     t.Notes,
			Files:     len(t.Attachments),
		}
		if t.DraftDue != nil {
			item.DraftDue = t.DraftDue.String()
		}
		if t.FinalDue != nil {
			item.FinalDue = t.FinalDue.String()
		}
		month := displayMonth(t)
		byMonth[month] = append(byMonth[month], item)
	}

	months := make([]string, 0, len(byMonth))
	for month := range byMonth {
		if month != unscheduledGroup {
			months = append(months, month)
		}
	}
	sort.Strings(months)
	if _, ok := byMonth[unscheduledGroup]; ok {
		months = append(months, unscheduledGroup)
	}

	groups := make([]BoardGroup, 0, len(months))
	for _, month := range months {
		items := byMonth[month]
		sort.SliceStable(items, func(i, j int) bool {
			if items[i].DraftDue != items[j].DraftDue {
				return items[i].DraftDue < items[j].DraftDue
			}
			return items[i].Name < items[j].Name
		})
		groups = append(groups, BoardGroup{Month: month, Items: items})
	}
	return BoardState{Groups: groups, Cursor: cursor}
}

func buildFiles(tasks []model.Task, cursor int) FilesState {
	items := make([]FileItem, 0)
	for _, t := range tasks {
		for _, att := range t.Attachments {
			items = append(items, FileItem{
				TaskID:   t.ID,
				TaskName: t.Name,
				Name:     att.Name,
				URL:      att.URL,
				Failed:   att.Error,
			})
		}
	}
	if cursor >= len(items) {
		cursor = len(items) - 1
	}
	if cursor < 0 {
		cursor = 0
	}
	return FilesState{Items: items, Cursor: cursor}
}

func (m Model) handleBoardKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.Board.Cursor > 0 {
			m.Board.Cursor--
		}
		m.ensureSelection()
	case "down", "j":
		if m.Board.Cursor < len(m.boardItems())-1 {
			m.Board.Cursor++
		}
		m.ensureSelection()
	case " ":
		return m.mutateSelected("draft toggled", func(ctx context.Context, id string) error {
			_, err := m.svc.ToggleDraftComplete(ctx, id)
			return err
		})
	case "f":
		return m.mutateSelected("final toggled", func(ctx context.Context, id string) error {
			_, err := m.svc.ToggleFinalComplete(ctx, id)
			return err
		})
	case "x":
		return m.mutateSelected("task deleted", func(ctx context.Context, id string) error {
			return m.svc.Delete(ctx, id)
		})
	case "y":
		return m.mutateSelected("task duplicated", func(ctx context.Context, id string) error {
			_, err := m.svc.Duplicate(ctx, id)
			return err
		})
	}
	return m, nil
}

// mutateSelected runs a lifecycle mutation against the selected task and
// surfaces the outcome on the status bar; failures additionally raise a
// dismissable notification so no mutation fails silently.
func (m Model) mutateSelected(okText string, mutate func(ctx context.Context, id string) error) (Model, tea.Cmd) {
	selected, ok := m.selectedItem()
	if !ok {
		m.Status = StatusBar{Text: "no task selected", IsError: true}
		return m, nil
	}
	if err := mutate(context.Background(), selected.ID); err != nil {
		return m.reportError(err), nil
	}
	m.refreshFromService()
	m.Status = StatusBar{Text: okText, IsError: false}
	return m, nil
}

func (m Model) reportError(err error) Model {
	m.LastError = err
	m.Status = StatusBar{Text: err.Error(), IsError: true}
	m.Notifications = append(m.Notifications, Notification{Text: err.Error(), IsError: true, At: m.now()})
	return m
}
