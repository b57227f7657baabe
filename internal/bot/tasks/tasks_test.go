package tasks

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/edgard/relaybot/internal/config"
	"github.com/edgard/relaybot/internal/database"
)

func newDeps(t *testing.T) TaskDeps {
	t.Helper()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "relay.db"))
	if err != nil {
		t.Fatalf("NewDB() error = %v", err)
	}
	t.Cleanup(func() { database.CloseDB(db) })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Defaults()
	cfg.Quarantine.Dir = t.TempDir()

	return TaskDeps{
		Logger: logger,
		Store:  database.NewStore(db, logger),
		Config: cfg,
	}
}

func TestRegisterAllTasks(t *testing.T) {
	t.Parallel()
	deps := newDeps(t)

	tasks := RegisterAllTasks(deps)
	for name := range deps.Config.Scheduler.Tasks {
		if tasks[name] == nil {
			t.Errorf("configured task %q has no implementation", name)
		}
	}
}

func TestSQLMaintenanceTask(t *testing.T) {
	t.Parallel()
	deps := newDeps(t)

	if err := newSQLMaintenanceTask(deps)(context.Background()); err != nil {
		t.Errorf("sql maintenance error = %v", err)
	}
}

func TestQuarantineCleanupTask(t *testing.T) {
	t.Parallel()
	deps := newDeps(t)
	dir := deps.Config.Quarantine.Dir
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	deps.Now = func() time.Time { return now }

	write := func(name string, age time.Duration) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
		mtime := now.Add(-age)
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatal(err)
		}
		return path
	}
	old := write("1_old.pdf", 48*time.Hour)
	fresh := write("2_fresh.pdf", time.Hour)

	deps.Config.Quarantine.Retention = 0
	if err := newQuarantineCleanupTask(deps)(context.Background()); err != nil {
		t.Fatalf("cleanup without retention error = %v", err)
	}
	if _, err := os.Stat(old); err != nil {
		t.Errorf("file removed without retention: %v", err)
	}

	deps.Config.Quarantine.Retention = 24 * time.Hour
	if err := newQuarantineCleanupTask(deps)(context.Background()); err != nil {
		t.Fatalf("cleanup error = %v", err)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Errorf("old file still present, stat error = %v", err)
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Errorf("fresh file removed: %v", err)
	}
}
