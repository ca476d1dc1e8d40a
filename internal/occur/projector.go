// Package occur projects virtual occurrences of repeating template tasks
// into the calendar months that currently hold real scheduled work. The
// projection is pure: it never mutates its input, performs no I/O, and is
// recomputed from scratch on every snapshot of the task collection.
package occur

import (
	"sort"

	"github.com/markplan/markplan/internal/model"
)

// Project returns all tasks plus one synthesized virtual occurrence per
// (template, target month) pair that is not the template's own month and is
// not already materialized. A target month is any month holding at least one
// non-generated, non-completed task with a due date; generated occurrences
// never anchor further projection.
func Project(all []model.Task) []model.Task {
	months := targetMonths(all)
	out := make([]model.Task, len(all), len(all)+8)
	copy(out, all)
	if len(months) == 0 {
		return out
	}

	materialized := materializedKeys(all)
	for _, task := range all {
		if !task.IsTemplate() || task.IsDone() {
			continue
		}
		for _, month := range months {
			if task.DraftDue != nil && task.DraftDue.MonthKey() == month {
				// The template itself is the occurrence for its native month.
				continue
			}
			draft := mapInto(task.Repeat, task.DraftDue, month)
			final := mapInto(task.Repeat, task.FinalDue, month)
			if draft == nil && final == nil {
				continue
			}
			key := Key(task.ID, draft, final)
			if materialized[key] {
				continue
			}
			out = append(out, synthesize(task, draft, final))
		}
	}
	return out
}

// Key is the dedup identity of an occurrence: the template it came from and
// the exact due dates it was projected with.
func Key(parentID string, draftDue, finalDue *model.Date) string {
	return parentID + "|" + dateKey(draftDue) + "|" + dateKey(finalDue)
}

// VirtualID is deterministic so that a re-projection of the same snapshot
// yields the same ids: lookups by id (selection, promotion) stay stable
// between renders. It carries the full dedup identity, not just the month:
// when a template's dates change, the projected id changes with them, so a
// previously materialized occurrence can never share an id with a freshly
// projected one.
func VirtualID(parentID string, draftDue, finalDue *model.Date) string {
	return "virt-" + Key(parentID, draftDue, finalDue)
}

func dateKey(d *model.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func targetMonths(all []model.Task) []model.MonthKey {
	seen := make(map[model.MonthKey]bool)
	for _, task := range all {
		if task.IsRecurring || task.IsDone() {
			continue
		}
		if task.DraftDue != nil {
			seen[task.DraftDue.MonthKey()] = true
		}
		if task.FinalDue != nil {
			seen[task.FinalDue.MonthKey()] = true
		}
	}
	months := make([]model.MonthKey, 0, len(seen))
	for key := range seen {
		months = append(months, key)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].String() < months[j].String() })
	return months
}

func materializedKeys(all []model.Task) map[string]bool {
	keys := make(map[string]bool)
	for _, task := range all {
		if task.IsRecurring && task.RecurringParentID != "" {
			keys[Key(task.RecurringParentID, task.DraftDue, task.FinalDue)] = true
		}
	}
	return keys
}

// mapInto maps a template due date into the target month per the cadence.
// Biweekly is deliberately the same mapping as weekly: same weekday, once
// per target month, with no every-other-week phase tracked across months.
func mapInto(repeat model.Repeat, due *model.Date, month model.MonthKey) *model.Date {
	if due == nil {
		return nil
	}
	var day int
	switch repeat {
	case model.RepeatDaily:
		day = 1
	case model.RepeatWeekly, model.RepeatBiweekly:
		first := model.NewDate(month.Year, month.Month, 1)
		day = 1 + int((due.Weekday()-first.Weekday()+7)%7)
	case model.RepeatMonthly:
		day = due.Day
		if last := model.DaysIn(month.Year, month.Month); day > last {
			day = last
		}
	case model.RepeatMonthly15:
		day = 15
	default:
		return nil
	}
	if day < 1 || day > model.DaysIn(month.Year, month.Month) {
		return nil
	}
	mapped := model.NewDate(month.Year, month.Month, day)
	return &mapped
}

func synthesize(tmpl model.Task, draft, final *model.Date) model.Task {
	return model.Task{
		ID:                VirtualID(tmpl.ID, draft, final),
		Name:              tmpl.Name,
		Notes:             tmpl.Notes,
		DraftDue:          draft,
		FinalDue:          final,
		Attachments:       nil, // occurrences always start without files
		Repeat:            model.RepeatNone,
		IsRecurring:       true,
		RecurringParentID: tmpl.ID,
		SortOrder:         tmpl.SortOrder,
		CreatedAt:         tmpl.CreatedAt,
		UpdatedAt:         tmpl.UpdatedAt,
	}
}
