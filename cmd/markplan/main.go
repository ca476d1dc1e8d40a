package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/markplan/markplan/internal/blob"
	"github.com/markplan/markplan/internal/model"
	"github.com/markplan/markplan/internal/storage"
	"github.com/markplan/markplan/internal/task"
	"github.com/markplan/markplan/internal/update"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "markplan failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := update.RuntimeConfigFromEnv(update.DefaultRuntimeConfig())

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	store, err := storage.OpenSQLite(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := storage.MigrateUp(store.DB()); err != nil {
		return err
	}

	blobs, err := blob.NewFSStore(cfg.BlobDir)
	if err != nil {
		return err
	}

	manager := task.New(store, blobs)
	if err := manager.Start(context.Background()); err != nil {
		return err
	}
	defer manager.Close()

	program := tea.NewProgram(update.NewModelWithConfig(manager, cfg))

	// The store delivers a full snapshot on every mutation; the manager
	// consumes it directly and the program only needs a refresh nudge.
	// Send must not run on the event loop goroutine: mutations originate
	// inside Update and a synchronous Send would deadlock there.
	unsubscribe := store.Subscribe(func([]model.Task) {
		go program.Send(update.TasksChangedMsg{})
	})
	defer unsubscribe()

	_, err = program.Run()
	return err
}
