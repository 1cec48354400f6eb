package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"maker_go/internal/event"
	"maker_go/internal/infra"
	"maker_go/internal/monitoring"
	"maker_go/internal/storage"
)

// Bootstrap orchestrates the application startup sequence.
type Bootstrap struct {
	Config      *infra.Config
	EventStore  *storage.EventStore
	Checkpoints *storage.CheckpointManager
	RunID       string

	unlock func()
}

// NewBootstrap creates a Bootstrap instance.
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization: config, logging,
// data directories, the event store and metrics registration.
func (b *Bootstrap) Initialize() error {
	slog.Info("bootstrapping maker-go")

	// Warm the event pool so the first ticks do not allocate.
	event.Warmup()

	cfg, err := infra.LoadConfig(infra.ResolveConfigPath())
	if err != nil {
		return err
	}
	b.Config = cfg

	slog.SetDefault(infra.NewLogger(cfg))

	// Data isolation per mode: _workspace/data/{mode}/events.db so a
	// sim run can never touch the live event log.
	mode := strings.ToLower(cfg.Trading.Mode)
	workDir := infra.GetWorkspaceDir()
	dataDir := filepath.Join(workDir, "data", mode)

	if err := infra.EnsureDir(dataDir); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	// One process per data directory; a second writer would corrupt
	// the single-writer event log.
	unlock, err := infra.CreateLockFile(workDir)
	if err != nil {
		return err
	}
	b.unlock = unlock

	dbPath := filepath.Join(dataDir, "events.db")
	evStore, err := storage.NewEventStore(dbPath)
	if err != nil {
		return err
	}
	b.EventStore = evStore
	slog.Info("event store initialized", slog.String("path", dbPath), slog.String("mode", mode))

	b.Checkpoints = storage.NewCheckpointManager(filepath.Join(dataDir, "checkpoints"))

	b.RunID = uuid.NewString()
	now := time.Now().UnixMicro()
	ctx := context.Background()
	if err := evStore.UpsertMetadata(ctx, "run_id", b.RunID, now); err != nil {
		return fmt.Errorf("failed to record run id: %w", err)
	}
	if err := evStore.UpsertMetadata(ctx, "version", cfg.App.Version, now); err != nil {
		return fmt.Errorf("failed to record version: %w", err)
	}
	slog.Info("session registered", slog.String("run_id", b.RunID))

	monitoring.InitMetrics()

	return nil
}

// Close releases the store and the instance lock.
func (b *Bootstrap) Close() {
	if b.EventStore != nil {
		b.EventStore.Close()
	}
	if b.unlock != nil {
		b.unlock()
	}
}
