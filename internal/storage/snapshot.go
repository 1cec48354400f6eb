package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"maker_go/internal/strategy"
)

// Checkpoint is a point-in-time capture of the trading session, taken
// so a post-mortem does not require replaying the whole event log.
type Checkpoint struct {
	Seq    uint64             `json:"seq"` // last processed sequence number
	TsUnix int64              `json:"ts"`
	Trader strategy.StateDump `json:"trader"`
}

// CheckpointManager saves and loads session checkpoints.
type CheckpointManager struct {
	dir string
}

// NewCheckpointManager creates a manager writing under dir.
func NewCheckpointManager(dir string) *CheckpointManager {
	return &CheckpointManager{dir: dir}
}

// NewCheckpoint captures the given state with the current wall time.
func NewCheckpoint(seq uint64, dump strategy.StateDump) *Checkpoint {
	return &Checkpoint{Seq: seq, TsUnix: time.Now().Unix(), Trader: dump}
}

// Save writes a checkpoint to disk.
func (cm *CheckpointManager) Save(cp *Checkpoint) error {
	if err := os.MkdirAll(cm.dir, 0755); err != nil {
		return fmt.Errorf("failed to create checkpoint dir: %w", err)
	}

	filename := fmt.Sprintf("checkpoint_%d_%d.json", cp.Seq, cp.TsUnix)
	path := filepath.Join(cm.dir, filename)

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}

	slog.Info("checkpoint saved", slog.Uint64("seq", cp.Seq), slog.String("path", path))
	return nil
}

// LoadLatest loads the checkpoint with the highest sequence number.
// Returns nil when none exists.
func (cm *CheckpointManager) LoadLatest() (*Checkpoint, error) {
	entries, err := os.ReadDir(cm.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read checkpoint dir: %w", err)
	}

	var latestPath string
	var latestSeq uint64
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		var seq uint64
		var ts int64
		if _, err := fmt.Sscanf(entry.Name(), "checkpoint_%d_%d.json", &seq, &ts); err != nil {
			continue
		}
		if seq > latestSeq || latestPath == "" {
			latestSeq = seq
			latestPath = filepath.Join(cm.dir, entry.Name())
		}
	}
	if latestPath == "" {
		return nil, nil
	}

	data, err := os.ReadFile(latestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}

	slog.Info("checkpoint loaded", slog.Uint64("seq", cp.Seq), slog.String("path", latestPath))
	return &cp, nil
}

// Cleanup removes old checkpoints, keeping only the latest keepCount.
func (cm *CheckpointManager) Cleanup(keepCount int) error {
	entries, err := os.ReadDir(cm.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	type cpFile struct {
		path string
		seq  uint64
	}
	var files []cpFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		var seq uint64
		var ts int64
		if _, err := fmt.Sscanf(entry.Name(), "checkpoint_%d_%d.json", &seq, &ts); err == nil {
			files = append(files, cpFile{path: filepath.Join(cm.dir, entry.Name()), seq: seq})
		}
	}
	if len(files) <= keepCount {
		return nil
	}

	// Small N, a simple selection sort is fine.
	for i := 0; i < len(files); i++ {
		for j := i + 1; j < len(files); j++ {
			if files[j].seq > files[i].seq {
				files[i], files[j] = files[j], files[i]
			}
		}
	}

	for i := keepCount; i < len(files); i++ {
		if err := os.Remove(files[i].path); err != nil {
			slog.Warn("failed to remove old checkpoint", slog.String("path", files[i].path))
		}
	}
	return nil
}
