package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidRepeat = errors.New("model: invalid repeat cadence")

type Repeat string

const (
	RepeatNone      Repeat = "none"
	RepeatDaily     Repeat = "daily"
	RepeatWeekly    Repeat = "weekly"
	RepeatBiweekly  Repeat = "biweekly"
	RepeatMonthly   Repeat = "monthly"
	RepeatMonthly15 Repeat = "monthly-15th"
)

func (r Repeat) IsValid() bool {
	switch r {
	case RepeatNone, RepeatDaily, RepeatWeekly, RepeatBiweekly, RepeatMonthly, RepeatMonthly15:
		return true
	default:
		return false
	}
}

// Attachment is a file reference on a task. Data holds the inline payload
// before upload; after upload Data is dropped and URL carries the durable
// location. Error marks an upload that failed without failing the task write.
type Attachment struct {
	ID          string
	Name        string
	ContentType string
	Data        []byte
	URL         string
	Error       bool
}

// Task is the central entity. A task with Repeat != none and IsRecurring
// false is a template anchoring generated occurrences; a task with
// IsRecurring true is a generated occurrence pointing back at its template
// through RecurringParentID and never recurs itself.
type Task struct {
	ID                string
	Name              string
	Notes             string
	DraftDue          *Date
	FinalDue          *Date
	DraftComplete     bool
	FinalComplete     bool
	CompletedAt       *time.Time
	Attachments       []Attachment
	Repeat            Repeat
	IsRecurring       bool
	RecurringParentID string
	SortOrder         int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("model: task id is required")
	}
	if strings.TrimSpace(t.Name) == "" {
		return errors.New("model: task name is required")
	}
	if !t.Repeat.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidRepeat, t.Repeat)
	}
	if t.IsRecurring {
		if t.Repeat != RepeatNone {
			return errors.New("model: generated occurrence must not itself recur")
		}
		if strings.TrimSpace(t.RecurringParentID) == "" {
			return errors.New("model: generated occurrence requires a parent template id")
		}
	}
	if !t.IsRecurring && t.RecurringParentID != "" {
		return errors.New("model: parent template id is only valid on generated occurrences")
	}
	done := t.DraftComplete && t.FinalComplete
	if done && t.CompletedAt == nil {
		return errors.New("model: completed_at is required when both completion flags are set")
	}
	if !done && t.CompletedAt != nil {
		return errors.New("model: completed_at must be nil unless both completion flags are set")
	}
	if t.CreatedAt.IsZero() {
		return errors.New("model: task created_at is required")
	}
	return nil
}

// IsTemplate reports whether the task anchors generated occurrences.
func (t Task) IsTemplate() bool {
	return t.Repeat != RepeatNone && !t.IsRecurring
}

func (t Task) IsDone() bool {
	return t.CompletedAt != nil
}

// DeriveCompletedAt is the single derivation point for the completed_at
// invariant: non-nil iff both completion flags are set. A prior timestamp is
// kept so re-saving an already-complete task does not move it.
func DeriveCompletedAt(draftDone, finalDone bool, prior *time.Time, now time.Time) *time.Time {
	if !draftDone || !finalDone {
		return nil
	}
	if prior != nil {
		return prior
	}
	ts := now.UTC()
	return &ts
}
