package update

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/markplan/markplan/internal/views"
)

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		if m.Palette.Active {
			return m.handlePaletteKey(typed)
		}

		switch typed.String() {
		case "/":
			m.Palette.Active = true
			m.commandInput.Focus()
			m.commandInput.SetValue("")
			m.Status = StatusBar{Text: "command palette active", IsError: false}
			return m, nil
		case m.Keys.Board:
			m.CurrentView = ViewBoard
			return m, nil
		case m.Keys.Calendar:
			m.CurrentView = ViewCalendar
			return m, nil
		case m.Keys.Files:
			m.CurrentView = ViewFiles
			return m, nil
		case m.Keys.Help:
			m.HelpVisible = !m.HelpVisible
			return m, nil
		case "n":
			if len(m.Notifications) > 0 {
				m.Notifications = m.Notifications[1:]
				return m, nil
			}
		case "ctrl+c", m.Keys.Quit:
			m.Quitting = true
			return m, tea.Quit
		}

		switch m.CurrentView {
		case ViewBoard:
			return m.handleBoardKey(typed)
		case ViewCalendar:
			return m.handleCalendarKey(typed)
		case ViewFiles:
			return m.handleFilesKey(typed)
		}
	case TasksChangedMsg:
		m.refreshFromService()
		return m, nil
	case SwitchViewMsg:
		if isKnownView(typed.View) {
			m.CurrentView = typed.View
		}
		return m, nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		return m.reportError(typed.Err), nil
	case DismissNotificationMsg:
		if len(m.Notifications) > 0 {
			m.Notifications = m.Notifications[1:]
		}
		return m, nil
	}
	return m, nil
}

func isKnownView(v View) bool {
	switch v {
	case ViewBoard, ViewCalendar, ViewFiles:
		return true
	default:
		return false
	}
}

func (m Model) handleFilesKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.Files.Cursor > 0 {
			m.Files.Cursor--
		}
	case "down", "j":
		if m.Files.Cursor < len(m.Files.Items)-1 {
			m.Files.Cursor++
		}
	}
	return m, nil
}

func (m Model) View() string {
	if m.Quitting {
		return "bye\n"
	}

	data := views.AppData{
		Header:     "markplan: " + string(m.CurrentView),
		StatusLine: m.Status.Text,
		Footer:     "1 board · 2 calendar · 3 files · / palette · ? help · q quit",
	}
	if m.Status.IsError {
		data.StatusLine = "error: " + m.Status.Text
	}

	switch m.CurrentView {
	case ViewCalendar:
		data.LeftPane = "Month " + m.Calendar.FocusMonth.String() + "\n\n" + m.calTable.View()
		data.RightPane = m.renderSelectedNotes()
	case ViewFiles:
		data.LeftPane = m.renderFilesView()
		data.RightPane = m.renderSelectedNotes()
	default:
		data.LeftPane = m.renderBoardView()
		data.RightPane = m.renderSelectedNotes()
	}

	if m.Palette.Active {
		data.Footer = m.commandInput.View()
	}
	if m.HelpVisible {
		data.RightPane = m.renderHelpView()
	}
	if len(m.Notifications) > 0 {
		latest := m.Notifications[0]
		data.Notification = latest.Text + "  (n to dismiss)"
	}
	return views.RenderApp(data)
}
