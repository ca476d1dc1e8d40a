// Package commands parses the dashboard's palette input into typed commands.
package commands

import (
	"fmt"
	"strings"

	"github.com/markplan/markplan/internal/model"
)

type Type string

const (
	TypeAdd    Type = "add"
	TypeDone   Type = "done"
	TypeDelete Type = "delete"
	TypeDup    Type = "dup"
	TypeShow   Type = "show"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type AddArgs struct {
	Name   string
	Due    *model.Date
	Repeat model.Repeat
}

// TargetArgs addresses a task: "selected" or an explicit task id.
type TargetArgs struct {
	Target string
}

type ShowArgs struct {
	Subject string
	Month   string
}

type Command struct {
	Type   Type
	Raw    string
	Add    *AddArgs
	Done   *TargetArgs
	Delete *TargetArgs
	Dup    *TargetArgs
	Show   *ShowArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeAdd:
		return parseAdd(input, args)
	case TypeDone:
		return parseTarget(input, TypeDone, args)
	case TypeDelete:
		return parseTarget(input, TypeDelete, args)
	case TypeDup:
		return parseTarget(input, TypeDup, args)
	case TypeShow:
		return parseShow(input, args)
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

// parseAdd accepts "add <name> [due:2026-03-10] [repeat:monthly]".
func parseAdd(raw string, args []string) (Command, error) {
	out := AddArgs{Repeat: model.RepeatNone}
	nameParts := make([]string, 0, len(args))
	for _, arg := range args {
		lower := strings.ToLower(arg)
		switch {
		case strings.HasPrefix(lower, "due:"):
			d, err := model.ParseDate(strings.TrimPrefix(arg, "due:"))
			if err != nil {
				return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("bad due date in %q", arg)}
			}
			out.Due = &d
		case strings.HasPrefix(lower, "repeat:"):
			repeat := model.Repeat(strings.TrimPrefix(lower, "repeat:"))
			if !repeat.IsValid() {
				return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("bad repeat cadence in %q", arg)}
			}
			out.Repeat = repeat
		default:
			nameParts = append(nameParts, arg)
		}
	}
	out.Name = strings.TrimSpace(strings.Join(nameParts, " "))
	if out.Name == "" {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "add requires a task name"}
	}
	return Command{Type: TypeAdd, Raw: raw, Add: &out}, nil
}

func parseTarget(raw string, kind Type, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("%s requires a target", kind)}
	}
	target := TargetArgs{Target: args[0]}
	cmd := Command{Type: kind, Raw: raw}
	switch kind {
	case TypeDone:
		cmd.Done = &target
	case TypeDelete:
		cmd.Delete = &target
	case TypeDup:
		cmd.Dup = &target
	}
	return cmd, nil
}

func parseShow(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "show requires a subject"}
	}
	subject := strings.ToLower(args[0])
	month := ""
	for _, arg := range args[1:] {
		if strings.HasPrefix(strings.ToLower(arg), "month:") {
			month = strings.TrimSpace(strings.TrimPrefix(arg, "month:"))
		}
	}
	return Command{Type: TypeShow, Raw: raw, Show: &ShowArgs{Subject: subject, Month: month}}, nil
}
