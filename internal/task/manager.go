// Package task owns the authoritative task collection: every mutation the
// dashboard performs flows through the Manager, which promotes virtual
// occurrences to persisted rows on first touch and cascades template
// deletes to their materialized children.
package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/markplan/markplan/internal/blob"
	"github.com/markplan/markplan/internal/model"
	"github.com/markplan/markplan/internal/occur"
	"github.com/markplan/markplan/internal/storage"
)

type origin int

const (
	originMissing origin = iota
	originPersisted
	originVirtual
)

type Manager struct {
	store storage.Store
	blobs blob.Store
	now   func() time.Time
	newID func() string

	mu          sync.RWMutex
	snapshot    []model.Task
	unsubscribe func()
}

type Option func(*Manager)

// WithClock fixes the manager's clock, for tests.
func WithClock(fn func() time.Time) Option {
	return func(m *Manager) { m.now = fn }
}

// WithIDGenerator fixes the id source, for tests.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) { m.newID = fn }
}

func New(store storage.Store, blobs blob.Store, opts ...Option) *Manager {
	m := &Manager{
		store: store,
		blobs: blobs,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start loads the initial snapshot and subscribes to store changes. Close
// releases the subscription.
func (m *Manager) Start(ctx context.Context) error {
	tasks, err := m.store.List(ctx)
	if err != nil {
		return fmt.Errorf("task: load initial snapshot: %w", err)
	}
	m.setSnapshot(tasks)
	m.mu.Lock()
	m.unsubscribe = m.store.Subscribe(m.setSnapshot)
	m.mu.Unlock()
	return nil
}

func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

func (m *Manager) setSnapshot(tasks []model.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = tasks
}

// Tasks returns the persisted collection augmented with the virtual
// occurrences the projector synthesizes for it.
func (m *Manager) Tasks() []model.Task {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return occur.Project(m.snapshot)
}

// lookup resolves an id against the persisted snapshot first, then against
// the projected virtual set. The distinction drives promotion: only a
// virtual hit turns a mutation into a first persist.
func (m *Manager) lookup(id string) (model.Task, origin) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.snapshot {
		if t.ID == id {
			return t, originPersisted
		}
	}
	projected := occur.Project(m.snapshot)
	for _, t := range projected[len(m.snapshot):] {
		if t.ID == id {
			return t, originVirtual
		}
	}
	return model.Task{}, originMissing
}

type CreateInput struct {
	Name        string
	Notes       string
	DraftDue    *model.Date
	FinalDue    *model.Date
	Repeat      model.Repeat
	SortOrder   int
	Attachments []model.Attachment
}

func (m *Manager) Create(ctx context.Context, in CreateInput) (model.Task, error) {
	if strings.TrimSpace(in.Name) == "" {
		return model.Task{}, errors.New("task: name is required")
	}
	repeat := in.Repeat
	if repeat == "" {
		repeat = model.RepeatNone
	}
	now := m.now().UTC()
	created := model.Task{
		ID:          m.newID(),
		Name:        in.Name,
		Notes:       in.Notes,
		DraftDue:    in.DraftDue,
		FinalDue:    in.FinalDue,
		Repeat:      repeat,
		SortOrder:   in.SortOrder,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	created.Attachments = m.uploadAll(ctx, created.ID, in.Attachments)
	if err := created.Validate(); err != nil {
		return model.Task{}, err
	}
	if err := m.store.Upsert(ctx, created); err != nil {
		return model.Task{}, fmt.Errorf("task: create: %w", err)
	}
	return created, nil
}

// Patch carries the fields a mutation wants to change. Clear flags
// distinguish "set the date to nothing" from "leave the date alone".
type Patch struct {
	Name           *string
	Notes          *string
	DraftDue       *model.Date
	ClearDraftDue  bool
	FinalDue       *model.Date
	ClearFinalDue  bool
	DraftComplete  *bool
	FinalComplete  *bool
	Repeat         *model.Repeat
	SortOrder      *int
	AddAttachments []model.Attachment
}

// Update merges the patch into a persisted task, or promotes a virtual
// occurrence by persisting its full field set with the patch applied: the
// only path by which an occurrence becomes real. An unknown id is a no-op
// and returns the zero Task.
func (m *Manager) Update(ctx context.Context, id string, p Patch) (model.Task, error) {
	current, from := m.lookup(id)
	if from == originMissing {
		return model.Task{}, nil
	}
	next := m.applyPatch(ctx, current, p)
	if err := m.store.Upsert(ctx, next); err != nil {
		return model.Task{}, fmt.Errorf("task: update %s: %w", id, err)
	}
	return next, nil
}

func (m *Manager) applyPatch(ctx context.Context, current model.Task, p Patch) model.Task {
	next := current
	if p.Name != nil {
		next.Name = *p.Name
	}
	if p.Notes != nil {
		next.Notes = *p.Notes
	}
	if p.ClearDraftDue {
		next.DraftDue = nil
	} else if p.DraftDue != nil {
		next.DraftDue = p.DraftDue
	}
	if p.ClearFinalDue {
		next.FinalDue = nil
	} else if p.FinalDue != nil {
		next.FinalDue = p.FinalDue
	}
	if p.DraftComplete != nil {
		next.DraftComplete = *p.DraftComplete
	}
	if p.FinalComplete != nil {
		next.FinalComplete = *p.FinalComplete
	}
	if p.Repeat != nil {
		next.Repeat = *p.Repeat
	}
	if p.SortOrder != nil {
		next.SortOrder = *p.SortOrder
	}
	if len(p.AddAttachments) > 0 {
		next.Attachments = append(append([]model.Attachment(nil), next.Attachments...),
			m.uploadAll(ctx, next.ID, p.AddAttachments)...)
	}
	now := m.now().UTC()
	next.CompletedAt = model.DeriveCompletedAt(next.DraftComplete, next.FinalComplete, current.CompletedAt, now)
	next.UpdatedAt = now
	return next
}

// Delete removes a persisted task; deleting a template cascades to every
// persisted task generated from it. A virtual-only occurrence is not
// removed but materialized as completed, so it cannot reappear on the next
// projection pass merely because the UI "deleted" something that never
// existed as a row.
func (m *Manager) Delete(ctx context.Context, id string) error {
	current, from := m.lookup(id)
	switch from {
	case originMissing:
		return nil
	case originVirtual:
		done := true
		if _, err := m.Update(ctx, id, Patch{DraftComplete: &done, FinalComplete: &done}); err != nil {
			return err
		}
		return nil
	}

	if current.IsTemplate() {
		m.mu.RLock()
		children := make([]string, 0)
		for _, t := range m.snapshot {
			if t.RecurringParentID == id {
				children = append(children, t.ID)
			}
		}
		m.mu.RUnlock()
		for _, childID := range children {
			if err := m.store.Delete(ctx, childID); err != nil {
				return fmt.Errorf("task: cascade delete %s: %w", childID, err)
			}
		}
	}
	if err := m.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("task: delete %s: %w", id, err)
	}
	return nil
}

// ToggleDraftComplete flips the draft flag. Virtual targets promote.
func (m *Manager) ToggleDraftComplete(ctx context.Context, id string) (model.Task, error) {
	current, from := m.lookup(id)
	if from == originMissing {
		return model.Task{}, nil
	}
	flipped := !current.DraftComplete
	return m.Update(ctx, id, Patch{DraftComplete: &flipped})
}

// ToggleFinalComplete flips the final flag. Finalizing also forces the
// draft flag on (a task cannot be final without a draft); clearing the
// final flag leaves the draft flag alone.
func (m *Manager) ToggleFinalComplete(ctx context.Context, id string) (model.Task, error) {
	current, from := m.lookup(id)
	if from == originMissing {
		return model.Task{}, nil
	}
	flipped := !current.FinalComplete
	p := Patch{FinalComplete: &flipped}
	if flipped {
		forced := true
		p.DraftComplete = &forced
	}
	return m.Update(ctx, id, p)
}

// Duplicate produces a fresh one-off copy of a persisted or virtual task:
// completion reset, never repeating, never marked as generated. Attachment
// references are carried over; they are durable URLs.
func (m *Manager) Duplicate(ctx context.Context, id string) (model.Task, error) {
	current, from := m.lookup(id)
	if from == originMissing {
		return model.Task{}, nil
	}
	now := m.now().UTC()
	copyTask := current
	copyTask.ID = m.newID()
	copyTask.Name = current.Name + " (Copy)"
	copyTask.DraftComplete = false
	copyTask.FinalComplete = false
	copyTask.CompletedAt = nil
	copyTask.Repeat = model.RepeatNone
	copyTask.IsRecurring = false
	copyTask.RecurringParentID = ""
	copyTask.Attachments = append([]model.Attachment(nil), current.Attachments...)
	copyTask.CreatedAt = now
	copyTask.UpdatedAt = now
	if err := m.store.Upsert(ctx, copyTask); err != nil {
		return model.Task{}, fmt.Errorf("task: duplicate %s: %w", id, err)
	}
	return copyTask, nil
}

// uploadAll moves inline payloads to blob storage. A failed upload flags
// the attachment instead of failing the task mutation; the task write goes
// through regardless.
func (m *Manager) uploadAll(ctx context.Context, ownerID string, in []model.Attachment) []model.Attachment {
	if len(in) == 0 {
		return nil
	}
	out := make([]model.Attachment, 0, len(in))
	for _, att := range in {
		if att.ID == "" {
			att.ID = m.newID()
		}
		if len(att.Data) == 0 || m.blobs == nil {
			att.Data = nil
			out = append(out, att)
			continue
		}
		uploaded, err := m.blobs.Upload(ctx, ownerID, att)
		if err != nil {
			att.Data = nil
			att.Error = true
			out = append(out, att)
			continue
		}
		out = append(out, uploaded)
	}
	return out
}
