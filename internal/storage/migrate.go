package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
)

//go:embed migrations/*.sql
var schemaFS embed.FS

// Direction selects which side of a migration pair to run.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Migrate runs every embedded schema script for the direction in lexical
// order, each in its own transaction so a failing script leaves the prior
// ones applied.
func Migrate(db *sql.DB, dir Direction) error {
	scripts, err := fs.Glob(schemaFS, fmt.Sprintf("migrations/*.%s.sql", dir))
	if err != nil {
		return fmt.Errorf("storage: list %s scripts: %w", dir, err)
	}
	sort.Strings(scripts)
	for _, script := range scripts {
		body, err := schemaFS.ReadFile(script)
		if err != nil {
			return fmt.Errorf("storage: read %s: %w", script, err)
		}
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("storage: begin %s: %w", script, err)
		}
		if _, err := tx.Exec(string(body)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("storage: exec %s: %w", script, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("storage: commit %s: %w", script, err)
		}
	}
	return nil
}

func MigrateUp(db *sql.DB) error   { return Migrate(db, DirectionUp) }
func MigrateDown(db *sql.DB) error { return Migrate(db, DirectionDown) }
