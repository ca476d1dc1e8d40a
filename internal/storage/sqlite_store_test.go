package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/markplan/markplan/internal/model"
)

func setupStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "markplan-test.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := MigrateUp(db); err != nil {
		t.Fatalf("migrate up: %v", err)
	}

	store, err := NewSQLiteStore(db)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func sampleTask(id string) model.Task {
	draft := model.MustDate("2026-03-10")
	final := model.MustDate("2026-03-20")
	return model.Task{
		ID:        id,
		Name:      "Spring campaign brief",
		Notes:     "Outline in **markdown**.",
		DraftDue:  &draft,
		FinalDue:  &final,
		Repeat:    model.RepeatNone,
		SortOrder: 2,
		CreatedAt: time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC),
	}
}

func TestUpsertAndList(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	task := sampleTask("task-1")
	task.Attachments = []model.Attachment{
		{ID: "att-1", Name: "brief.pdf", ContentType: "application/pdf", URL: "/blobs/task-1/att-1-brief.pdf"},
	}
	if err := store.Upsert(ctx, task); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	listed, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected one task, got %d", len(listed))
	}
	got := listed[0]
	if got.Name != task.Name || got.Notes != task.Notes || got.SortOrder != 2 {
		t.Fatalf("unexpected round trip: %#v", got)
	}
	if got.DraftDue == nil || got.DraftDue.String() != "2026-03-10" {
		t.Fatalf("unexpected draft due: %v", got.DraftDue)
	}
	if len(got.Attachments) != 1 || got.Attachments[0].URL != task.Attachments[0].URL {
		t.Fatalf("unexpected attachments: %#v", got.Attachments)
	}
	if len(got.Attachments[0].Data) != 0 {
		t.Fatal("inline payloads must not survive persistence")
	}

	task.Name = "Spring campaign brief v2"
	if err := store.Upsert(ctx, task); err != nil {
		t.Fatalf("upsert existing: %v", err)
	}
	listed, err = store.List(ctx)
	if err != nil {
		t.Fatalf("list after update: %v", err)
	}
	if len(listed) != 1 || listed[0].Name != "Spring campaign brief v2" {
		t.Fatalf("upsert must replace, got %#v", listed)
	}
}

func TestBatchUpsertAndDelete(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	batch := []model.Task{sampleTask("task-1"), sampleTask("task-2"), sampleTask("task-3")}
	if err := store.BatchUpsert(ctx, batch); err != nil {
		t.Fatalf("batch upsert: %v", err)
	}

	listed, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("expected three tasks, got %d", len(listed))
	}

	if err := store.Delete(ctx, "task-2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, "no-such-task"); err != nil {
		t.Fatalf("delete of missing id must not fail: %v", err)
	}

	listed, err = store.List(ctx)
	if err != nil {
		t.Fatalf("list after delete: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected two tasks, got %d", len(listed))
	}
}

func TestSubscribeDeliversSnapshots(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	var snapshots [][]model.Task
	unsubscribe := store.Subscribe(func(tasks []model.Task) {
		snapshots = append(snapshots, tasks)
	})

	if err := store.Upsert(ctx, sampleTask("task-1")); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := store.Upsert(ctx, sampleTask("task-2")); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if len(snapshots) != 2 {
		t.Fatalf("expected two snapshot deliveries, got %d", len(snapshots))
	}
	if len(snapshots[0]) != 1 || len(snapshots[1]) != 2 {
		t.Fatalf("snapshots must be full collections: %d then %d", len(snapshots[0]), len(snapshots[1]))
	}

	unsubscribe()
	if err := store.Delete(ctx, "task-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(snapshots) != 2 {
		t.Fatalf("unsubscribed fn must not be called, got %d deliveries", len(snapshots))
	}
}

func TestNullableFieldsRoundTrip(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	task := sampleTask("task-1")
	task.DraftDue = nil
	task.FinalDue = nil
	task.DraftComplete = true
	task.FinalComplete = true
	done := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	task.CompletedAt = &done
	task.IsRecurring = true
	task.RecurringParentID = "tmpl-1"

	if err := store.Upsert(ctx, task); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	listed, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	got := listed[0]
	if got.DraftDue != nil || got.FinalDue != nil {
		t.Fatalf("expected nil due dates, got %#v", got)
	}
	if got.CompletedAt == nil || !got.CompletedAt.Equal(done) {
		t.Fatalf("unexpected completed_at: %v", got.CompletedAt)
	}
	if !got.IsRecurring || got.RecurringParentID != "tmpl-1" {
		t.Fatalf("recurrence flags lost: %#v", got)
	}
}

func TestMigrateDown(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "markplan-test.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("migrate up: %v", err)
	}
	if err := MigrateDown(db); err != nil {
		t.Fatalf("migrate down: %v", err)
	}
	if _, err := db.Exec(`SELECT COUNT(*) FROM tasks`); err == nil {
		t.Fatal("expected tasks table to be gone after migrate down")
	}
	if err := Migrate(db, DirectionUp); err != nil {
		t.Fatalf("re-migrate up: %v", err)
	}
	if _, err := db.Exec(`SELECT COUNT(*) FROM tasks`); err != nil {
		t.Fatalf("expected tasks table back after re-migrate: %v", err)
	}
}
