package storage

import (
	"context"

	"github.com/markplan/markplan/internal/model"
)

// Store is the persistence collaborator for the authoritative task
// collection. Subscribers receive the complete task snapshot after every
// successful mutation, never an incremental diff.
type Store interface {
	Upsert(ctx context.Context, task model.Task) error
	BatchUpsert(ctx context.Context, tasks []model.Task) error
	// Delete removes a task row. Deleting an id that does not exist is not
	// an error; cascade deletes drive this path.
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]model.Task, error)
	// Subscribe registers fn for snapshot delivery and returns the
	// unsubscribe function. No initial snapshot is delivered; callers that
	// need one call List first.
	Subscribe(fn func([]model.Task)) (unsubscribe func())
}
