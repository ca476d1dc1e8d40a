package update

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"

	"github.com/markplan/markplan/internal/model"
	"github.com/markplan/markplan/internal/task"
)

type View string

const (
	ViewBoard    View = "Board"
	ViewCalendar View = "Calendar"
	ViewFiles    View = "Files"
)

// TaskService is the slice of the lifecycle manager the dashboard drives.
type TaskService interface {
	Tasks() []model.Task
	Create(ctx context.Context, in task.CreateInput) (model.Task, error)
	Update(ctx context.Context, id string, p task.Patch) (model.Task, error)
	Delete(ctx context.Context, id string) error
	ToggleDraftComplete(ctx context.Context, id string) (model.Task, error)
	ToggleFinalComplete(ctx context.Context, id string) (model.Task, error)
	Duplicate(ctx context.Context, id string) (model.Task, error)
}

type StatusBar struct {
	Text    string
	IsError bool
}

type Notification struct {
	Text    string
	IsError bool
	At      time.Time
}

type GlobalKeyMap struct {
	Board    string
	Calendar string
	Files    string
	Help     string
	Quit     string
}

// BoardItem is one row of the board: a task carrying its display state,
// virtual occurrences included.
type BoardItem struct {
	ID        string
	Name      string
	DraftDue  string
	FinalDue  string
	DraftDone bool
	FinalDone bool
	Virtual   bool
	Notes     string
	Files     int
}

// BoardGroup is one display month on the board.
type BoardGroup struct {
	Month string
	Items []BoardItem
}

type BoardState struct {
	Groups []BoardGroup
	Cursor int
}

type CalendarState struct {
	FocusMonth model.MonthKey
}

type FileItem struct {
	TaskID   string
	TaskName string
	Name     string
	URL      string
	Failed   bool
}

type FilesState struct {
	Items  []FileItem
	Cursor int
}

type CommandPaletteState struct {
	Active bool
}

type Model struct {
	CurrentView    View
	SelectedTaskID string
	Board          BoardState
	Calendar       CalendarState
	Files          FilesState
	Palette        CommandPaletteState
	HelpVisible    bool
	Status         StatusBar
	Notifications  []Notification
	Keys           GlobalKeyMap
	Quitting       bool
	LastError      error

	svc          TaskService
	now          func() time.Time
	darkMode     bool
	commandInput textinput.Model
	calTable     table.Model
	notesView    viewport.Model
}

type TasksChangedMsg struct{}

type SwitchViewMsg struct {
	View View
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

type DismissNotificationMsg struct{}

func NewModel(svc TaskService) Model {
	return NewModelWithConfig(svc, DefaultRuntimeConfig())
}

func NewModelWithConfig(svc TaskService, cfg RuntimeConfig) Model {
	m := Model{
		CurrentView: ViewBoard,
		svc:         svc,
		now:         time.Now,
		darkMode:    cfg.DarkMode,
		Keys: GlobalKeyMap{
			Board:    "1",
			Calendar: "2",
			Files:    "3",
			Help:     "?",
			Quit:     "q",
		},
	}
	m.initBubbleComponents()
	m.refreshFromService()
	return m
}

func (m *Model) initBubbleComponents() {
	input := textinput.New()
	input.Placeholder = "add <name> due:YYYY-MM-DD repeat:monthly | done selected | delete <id> | dup <id>"
	input.CharLimit = 200
	input.Width = 80
	m.commandInput = input

	m.calTable = table.New(
		table.WithColumns([]table.Column{
			{Title: "Date", Width: 12},
			{Title: "Task", Width: 38},
			{Title: "Stage", Width: 10},
		}),
		table.WithHeight(12),
	)
	m.notesView = viewport.New(56, 8)
}

// refreshFromService rebuilds every view's items from the current augmented
// task set.
func (m *Model) refreshFromService() {
	if m.svc == nil {
		return
	}
	tasks := m.svc.Tasks()
	m.Board = buildBoard(tasks, m.Board.Cursor)
	if m.Calendar.FocusMonth == (model.MonthKey{}) {
		now := m.now().UTC()
		m.Calendar.FocusMonth = model.MonthKey{Year: now.Year(), Month: now.Month()}
	}
	m.Files = buildFiles(tasks, m.Files.Cursor)
	m.syncCalendarTable(tasks)
	m.ensureSelection()
}

func (m *Model) ensureSelection() {
	items := m.boardItems()
	if len(items) == 0 {
		m.SelectedTaskID = ""
		m.Board.Cursor = 0
		return
	}
	if m.Board.Cursor >= len(items) {
		m.Board.Cursor = len(items) - 1
	}
	if m.Board.Cursor < 0 {
		m.Board.Cursor = 0
	}
	m.SelectedTaskID = items[m.Board.Cursor].ID
}

func (m Model) boardItems() []BoardItem {
	out := make([]BoardItem, 0)
	for _, group := range m.Board.Groups {
		out = append(out, group.Items...)
	}
	return out
}

func (m Model) selectedItem() (BoardItem, bool) {
	items := m.boardItems()
	if m.Board.Cursor < 0 || m.Board.Cursor >= len(items) {
		return BoardItem{}, false
	}
	return items[m.Board.Cursor], true
}
