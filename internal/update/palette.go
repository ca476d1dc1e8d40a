package update

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/markplan/markplan/internal/commands"
	"github.com/markplan/markplan/internal/model"
	"github.com/markplan/markplan/internal/task"
)

func (m Model) handlePaletteKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.Palette.Active = false
		m.commandInput.Blur()
		m.Status = StatusBar{Text: "command palette closed", IsError: false}
		return m, nil
	case "enter":
		m.Palette.Active = false
		m.commandInput.Blur()
		input := m.commandInput.Value()
		m.commandInput.SetValue("")
		return m.executePaletteCommand(input), nil
	default:
		var cmd tea.Cmd
		m.commandInput, cmd = m.commandInput.Update(msg)
		return m, cmd
	}
}

func (m Model) executePaletteCommand(input string) Model {
	cmd, err := commands.Parse(input)
	if err != nil {
		return m.reportError(err)
	}

	ctx := context.Background()
	result, err := commands.Execute(cmd, commands.Handlers{
		Add: func(args commands.AddArgs) (commands.Result, error) {
			created, err := m.svc.Create(ctx, task.CreateInput{
				Name:     args.Name,
				DraftDue: args.Due,
				Repeat:   args.Repeat,
			})
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: "added " + created.Name}, nil
		},
		Done: func(args commands.TargetArgs) (commands.Result, error) {
			id, err := m.resolveTarget(args.Target)
			if err != nil {
				return commands.Result{}, err
			}
			if _, err := m.svc.ToggleFinalComplete(ctx, id); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: "completion toggled"}, nil
		},
		Delete: func(args commands.TargetArgs) (commands.Result, error) {
			id, err := m.resolveTarget(args.Target)
			if err != nil {
				return commands.Result{}, err
			}
			if err := m.svc.Delete(ctx, id); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: "task deleted"}, nil
		},
		Dup: func(args commands.TargetArgs) (commands.Result, error) {
			id, err := m.resolveTarget(args.Target)
			if err != nil {
				return commands.Result{}, err
			}
			if _, err := m.svc.Duplicate(ctx, id); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: "task duplicated"}, nil
		},
		Show: func(args commands.ShowArgs) (commands.Result, error) {
			switch args.Subject {
			case "board":
				m.CurrentView = ViewBoard
			case "calendar":
				m.CurrentView = ViewCalendar
			case "files":
				m.CurrentView = ViewFiles
			default:
				return commands.Result{}, fmt.Errorf("unknown subject %q", args.Subject)
			}
			if args.Month != "" {
				focus, err := model.ParseDate(args.Month + "-01")
				if err != nil {
					return commands.Result{}, fmt.Errorf("bad month %q", args.Month)
				}
				m.Calendar.FocusMonth = focus.MonthKey()
			}
			return commands.Result{Message: "showing " + args.Subject}, nil
		},
	})
	if err != nil {
		return m.reportError(err)
	}
	m.refreshFromService()
	m.Status = StatusBar{Text: result.Message, IsError: false}
	return m
}

// resolveTarget maps "selected" to the board selection, anything else is
// taken as a task id.
func (m Model) resolveTarget(target string) (string, error) {
	if target != "selected" {
		return target, nil
	}
	selected, ok := m.selectedItem()
	if !ok {
		return "", errors.New("no task selected")
	}
	return selected.ID, nil
}
