package commands

import (
	"errors"
	"testing"

	"github.com/markplan/markplan/internal/model"
)

func TestParseSupportedCommands(t *testing.T) {
	cases := []struct {
		in       string
		typeWant Type
	}{
		{"/add newsletter due:2026-03-10", TypeAdd},
		{"done selected", TypeDone},
		{"delete task-7", TypeDelete},
		{"dup selected", TypeDup},
		{"show board month:2026-03", TypeShow},
	}

	for _, tc := range cases {
		cmd, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("parse %q failed: %v", tc.in, err)
		}
		if cmd.Type != tc.typeWant {
			t.Fatalf("parse %q type = %s, want %s", tc.in, cmd.Type, tc.typeWant)
		}
	}
}

func TestParseAddExtractsDueAndRepeat(t *testing.T) {
	cmd, err := Parse("add monthly status report due:2026-01-10 repeat:monthly")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Add.Name != "monthly status report" {
		t.Fatalf("unexpected name: %q", cmd.Add.Name)
	}
	if cmd.Add.Due == nil || cmd.Add.Due.String() != "2026-01-10" {
		t.Fatalf("unexpected due: %v", cmd.Add.Due)
	}
	if cmd.Add.Repeat != model.RepeatMonthly {
		t.Fatalf("unexpected repeat: %q", cmd.Add.Repeat)
	}
}

func TestParseAddRejectsBadArguments(t *testing.T) {
	for _, in := range []string{"add", "add x due:tomorrow", "add x repeat:fortnightly"} {
		_, err := Parse(in)
		var ce *CommandError
		if !errors.As(err, &ce) || ce.Code != ErrCodeInvalidArgument {
			t.Fatalf("parse %q: expected invalid argument, got %v", in, err)
		}
	}
}

func TestParseUnknownCommand(t *testing.T) {
	_, err := Parse("/archive everything")
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeUnknownCommand {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestParseEmptyInput(t *testing.T) {
	for _, in := range []string{"", "   ", "/"} {
		_, err := Parse(in)
		var ce *CommandError
		if !errors.As(err, &ce) || ce.Code != ErrCodeEmptyInput {
			t.Fatalf("parse %q: expected empty input error, got %v", in, err)
		}
	}
}

func TestExecuteRoutesToHandler(t *testing.T) {
	cmd, err := Parse("done selected")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	called := ""
	res, err := Execute(cmd, Handlers{
		Done: func(args TargetArgs) (Result, error) {
			called = args.Target
			return Result{Message: "completed"}, nil
		},
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if called != "selected" || res.Message != "completed" {
		t.Fatalf("handler not routed: %q %q", called, res.Message)
	}
}

func TestExecuteMissingHandler(t *testing.T) {
	cmd, err := Parse("dup selected")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, err = Execute(cmd, Handlers{})
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeHandlerMissing {
		t.Fatalf("expected handler missing error, got %v", err)
	}
}
