package update

import (
	"fmt"
	"strings"

	"github.com/markplan/markplan/internal/views"
)

func (m Model) renderBoardView() string {
	if len(m.Board.Groups) == 0 {
		return "No tasks yet. Open the palette with / and try: add <name> due:2026-03-10"
	}
	var b strings.Builder
	index := 0
	for _, group := range m.Board.Groups {
		b.WriteString(group.Month + "\n")
		for _, item := range group.Items {
			cursor := "  "
			if index == m.Board.Cursor {
				cursor = "> "
			}
			marks := stageMarks(item)
			name := item.Name
			if item.Virtual {
				name += " ↻"
			}
			line := fmt.Sprintf("%s%s %s", cursor, marks, name)
			if item.DraftDue != "" {
				line += "  draft " + item.DraftDue
			}
			if item.FinalDue != "" {
				line += "  final " + item.FinalDue
			}
			if item.Files > 0 {
				line += fmt.Sprintf("  [%d files]", item.Files)
			}
			b.WriteString(line + "\n")
			index++
		}
		b.WriteString("\n")
	}
	b.WriteString("space draft · f final · x delete · y duplicate")
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func stageMarks(item BoardItem) string {
	draft, final := "○", "○"
	if item.DraftDone {
		draft = "●"
	}
	if item.FinalDone {
		final = "●"
	}
	return draft + final
}

func (m Model) renderFilesView() string {
	if len(m.Files.Items) == 0 {
		return "No files attached yet."
	}
	var b strings.Builder
	for i, item := range m.Files.Items {
		cursor := "  "
		if i == m.Files.Cursor {
			cursor = "> "
		}
		line := cursor + item.Name + " - " + item.TaskName
		if item.Failed {
			line += "  (upload failed)"
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m Model) renderSelectedNotes() string {
	selected, ok := m.selectedItem()
	if !ok {
		return "Nothing selected."
	}
	header := selected.Name
	if selected.Virtual {
		header += " (generated occurrence)"
	}
	if strings.TrimSpace(selected.Notes) == "" {
		return header + "\n\nNo notes."
	}
	notes := m.notesView
	notes.SetContent(views.RenderMarkdown(selected.Notes, m.darkMode))
	return header + "\n\n" + notes.View()
}

func (m Model) renderHelpView() string {
	lines := []string{
		"Keys",
		"",
		"1/2/3     switch board, calendar, files",
		"j/k       move cursor",
		"space     toggle draft complete",
		"f         toggle final complete (forces draft)",
		"x         delete task (templates cascade)",
		"y         duplicate task",
		"h/l       previous/next month (calendar)",
		"t         jump to current month (calendar)",
		"/         command palette",
		"n         dismiss notification",
		"q         quit",
	}
	return strings.Join(lines, "\n")
}
