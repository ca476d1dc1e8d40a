package model

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-02-28")
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	if d.Year != 2026 || d.Month != time.February || d.Day != 28 {
		t.Fatalf("unexpected date: %+v", d)
	}
	if d.String() != "2026-02-28" {
		t.Fatalf("unexpected round trip: %s", d.String())
	}
	if _, err := ParseDate("02/28/2026"); err == nil {
		t.Fatal("expected error for wrong layout")
	}
}

func TestMonthKey(t *testing.T) {
	d := MustDate("2026-03-10")
	key := d.MonthKey()
	if key.String() != "2026-03" {
		t.Fatalf("unexpected month key: %s", key)
	}
	other := MustDate("2026-03-31")
	if other.MonthKey() != key {
		t.Fatal("dates in the same month must share a key")
	}
}

func TestDaysIn(t *testing.T) {
	if got := DaysIn(2026, time.February); got != 28 {
		t.Fatalf("feb 2026: expected 28 days, got %d", got)
	}
	if got := DaysIn(2028, time.February); got != 29 {
		t.Fatalf("feb 2028: expected 29 days, got %d", got)
	}
	if got := DaysIn(2026, time.April); got != 30 {
		t.Fatalf("apr 2026: expected 30 days, got %d", got)
	}
}

func TestWeekdayAndOrdering(t *testing.T) {
	d := MustDate("2026-01-10")
	if d.Weekday() != time.Saturday {
		t.Fatalf("expected Saturday, got %s", d.Weekday())
	}
	if !MustDate("2026-01-09").Before(d) {
		t.Fatal("expected 01-09 before 01-10")
	}
}
