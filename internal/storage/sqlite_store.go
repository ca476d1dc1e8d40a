package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/markplan/markplan/internal/model"
)

const sqliteTimeLayout = time.RFC3339Nano

type SQLiteStore struct {
	db *sql.DB

	mu      sync.Mutex
	subs    map[int]func([]model.Task)
	nextSub int
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return &SQLiteStore{db: db, subs: make(map[int]func([]model.Task))}, nil
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	store, err := NewSQLiteStore(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for migrations.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

func (s *SQLiteStore) Upsert(ctx context.Context, task model.Task) error {
	if err := s.exec(ctx, s.db, task); err != nil {
		return err
	}
	s.notify(ctx)
	return nil
}

func (s *SQLiteStore) BatchUpsert(ctx context.Context, tasks []model.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch upsert: %w", err)
	}
	for _, task := range tasks {
		if err := s.exec(ctx, tx, task); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch upsert: %w", err)
	}
	s.notify(ctx)
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	s.notify(ctx)
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, notes, draft_due, final_due, draft_complete, final_complete,
		       completed_at, attachments, repeat, is_recurring, recurring_parent_id,
		       sort_order, created_at, updated_at
		FROM tasks ORDER BY sort_order ASC, created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Task, 0)
	for rows.Next() {
		task, scanErr := scanTask(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Subscribe(fn func([]model.Task)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// notify fans the full post-mutation snapshot out to every subscriber. A
// snapshot that cannot be read is skipped; the mutation itself already
// succeeded and the next one re-delivers.
func (s *SQLiteStore) notify(ctx context.Context) {
	snapshot, err := s.List(ctx)
	if err != nil {
		return
	}
	s.mu.Lock()
	fns := make([]func([]model.Task), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(snapshot)
	}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLiteStore) exec(ctx context.Context, db execer, task model.Task) error {
	attachments, err := marshalAttachments(task.Attachments)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO tasks (id, name, notes, draft_due, final_due, draft_complete, final_complete,
		                   completed_at, attachments, repeat, is_recurring, recurring_parent_id,
		                   sort_order, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			notes = excluded.notes,
			draft_due = excluded.draft_due,
			final_due = excluded.final_due,
			draft_complete = excluded.draft_complete,
			final_complete = excluded.final_complete,
			completed_at = excluded.completed_at,
			attachments = excluded.attachments,
			repeat = excluded.repeat,
			is_recurring = excluded.is_recurring,
			recurring_parent_id = excluded.recurring_parent_id,
			sort_order = excluded.sort_order,
			updated_at = excluded.updated_at`,
		task.ID, task.Name, task.Notes, nullDate(task.DraftDue), nullDate(task.FinalDue),
		boolInt(task.DraftComplete), boolInt(task.FinalComplete), nullTime(task.CompletedAt),
		attachments, string(task.Repeat), boolInt(task.IsRecurring), task.RecurringParentID,
		task.SortOrder, mustTime(task.CreatedAt), mustTime(task.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert task %s: %w", task.ID, err)
	}
	return nil
}

// attachmentRow is the persisted shape of an attachment. Inline payloads are
// never written; by the time a task reaches storage its files live in blob
// storage and only the reference survives.
type attachmentRow struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	URL         string `json:"url"`
	Error       bool   `json:"error,omitempty"`
}

func marshalAttachments(in []model.Attachment) (string, error) {
	rows := make([]attachmentRow, 0, len(in))
	for _, att := range in {
		rows = append(rows, attachmentRow{
			ID:          att.ID,
			Name:        att.Name,
			ContentType: att.ContentType,
			URL:         att.URL,
			Error:       att.Error,
		})
	}
	raw, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("marshal attachments: %w", err)
	}
	return string(raw), nil
}

func unmarshalAttachments(raw string) ([]model.Attachment, error) {
	if raw == "" || raw == "[]" {
		return nil, nil
	}
	var rows []attachmentRow
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		return nil, fmt.Errorf("unmarshal attachments: %w", err)
	}
	out := make([]model.Attachment, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.Attachment{
			ID:          row.ID,
			Name:        row.Name,
			ContentType: row.ContentType,
			URL:         row.URL,
			Error:       row.Error,
		})
	}
	return out, nil
}

func nullDate(d *model.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func nullTime(v *time.Time) any {
	if v == nil {
		return nil
	}
	return v.UTC().Format(sqliteTimeLayout)
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

func parseNullableDate(v sql.NullString) (*model.Date, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	d, err := model.ParseDate(v.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func parseNullableTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	tm, err := time.Parse(sqliteTimeLayout, v.String)
	if err != nil {
		return nil, err
	}
	return &tm, nil
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (model.Task, error) {
	var out model.Task
	var draftDue, finalDue, completed sql.NullString
	var draftDone, finalDone, recurring int
	var attachments, repeat, created, updated string
	if err := s.Scan(&out.ID, &out.Name, &out.Notes, &draftDue, &finalDue, &draftDone, &finalDone,
		&completed, &attachments, &repeat, &recurring, &out.RecurringParentID,
		&out.SortOrder, &created, &updated); err != nil {
		return model.Task{}, err
	}

	var err error
	if out.DraftDue, err = parseNullableDate(draftDue); err != nil {
		return model.Task{}, err
	}
	if out.FinalDue, err = parseNullableDate(finalDue); err != nil {
		return model.Task{}, err
	}
	if out.CompletedAt, err = parseNullableTime(completed); err != nil {
		return model.Task{}, err
	}
	if out.Attachments, err = unmarshalAttachments(attachments); err != nil {
		return model.Task{}, err
	}
	if out.CreatedAt, err = time.Parse(sqliteTimeLayout, created); err != nil {
		return model.Task{}, err
	}
	if out.UpdatedAt, err = time.Parse(sqliteTimeLayout, updated); err != nil {
		return model.Task{}, err
	}
	out.DraftComplete = draftDone == 1
	out.FinalComplete = finalDone == 1
	out.IsRecurring = recurring == 1
	out.Repeat = model.Repeat(repeat)
	return out, nil
}
