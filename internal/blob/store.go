// Package blob stores attachment payloads outside the task collection and
// hands back durable references.
package blob

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/markplan/markplan/internal/model"
)

var ErrEmptyPayload = errors.New("blob: empty attachment payload")

type Store interface {
	// Upload persists the attachment payload and returns the attachment
	// with Data dropped and URL set to the durable location.
	Upload(ctx context.Context, ownerID string, att model.Attachment) (model.Attachment, error)
}

// FSStore keeps attachment payloads on the local filesystem under
// <root>/<ownerID>/<attachmentID>-<name>.
type FSStore struct {
	root string
}

func NewFSStore(root string) (*FSStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("blob: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &FSStore{root: root}, nil
}

func (s *FSStore) Upload(ctx context.Context, ownerID string, att model.Attachment) (model.Attachment, error) {
	if err := ctx.Err(); err != nil {
		return model.Attachment{}, err
	}
	if len(att.Data) == 0 {
		return model.Attachment{}, ErrEmptyPayload
	}
	dir := filepath.Join(s.root, ownerID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return model.Attachment{}, fmt.Errorf("create owner dir: %w", err)
	}
	path := filepath.Join(dir, att.ID+"-"+sanitizeName(att.Name))
	if err := os.WriteFile(path, att.Data, 0o644); err != nil {
		return model.Attachment{}, fmt.Errorf("write blob: %w", err)
	}

	out := att
	out.Data = nil
	out.URL = path
	out.Error = false
	return out, nil
}

func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "attachment"
	}
	name = filepath.Base(name)
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		default:
			return r
		}
	}, name)
}
