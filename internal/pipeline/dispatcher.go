package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/JonMunkholm/Ingest/internal/config"
	"github.com/JonMunkholm/Ingest/internal/logging"
)

// Dispatcher sweeps the root folder and routes newly-arrived files into
// their contract/dataset folders. It only touches the filesystem.
type Dispatcher struct {
	cfg config.PipelineConfig
}

// NewDispatcher creates a Dispatcher for the configured root folder.
func NewDispatcher(cfg config.PipelineConfig) *Dispatcher {
	return &Dispatcher{cfg: cfg}
}

// Run sweeps the top-level files under the root folder once.
//
// Files that resolve to an existing dataset folder are moved there; files
// that don't are moved to the quarantine folder with a collision-safe name.
// Any other per-file error is logged and counted, and the sweep continues.
// Run fails only when the root folder is missing.
func (d *Dispatcher) Run(ctx context.Context) (*DispatchStats, error) {
	stats := &DispatchStats{}

	if fi, err := os.Stat(d.cfg.RootFolder); err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrRootNotFound, d.cfg.RootFolder)
	}

	ctx = logging.WithRunID(ctx, uuid.NewString())
	logger := logging.FromContext(ctx)

	quarantine := d.cfg.QuarantineDir()
	if err := os.MkdirAll(quarantine, 0755); err != nil {
		return nil, fmt.Errorf("create quarantine folder: %w", err)
	}

	files, err := listFiles(d.cfg.RootFolder)
	if err != nil {
		return nil, fmt.Errorf("list root folder: %w", err)
	}

	logger.Info("dispatch run started", "root", d.cfg.RootFolder, "files", len(files))

	for _, name := range files {
		if err := d.dispatchFile(ctx, name, stats); err != nil {
			logger.Error("dispatch failed", "file", name, "error", err)
			stats.Errors++
		}
	}

	logger.Info("dispatch run complete",
		"dispatched", stats.Dispatched,
		"invalid", stats.Invalid,
		"errors", stats.Errors,
	)
	return stats, nil
}

// dispatchFile routes one file. A returned error lands in the errors
// bucket; resolution misses and missing target folders are quarantined
// here and counted as invalid.
func (d *Dispatcher) dispatchFile(ctx context.Context, name string, stats *DispatchStats) error {
	logger := logging.FromContext(ctx)
	src := filepath.Join(d.cfg.RootFolder, name)

	contract, dataset, err := Resolve(name, d.cfg)
	if err != nil && !errors.Is(err, ErrNoMatch) {
		return err
	}

	if err == nil {
		target := filepath.Join(d.cfg.RootFolder, contract, dataset)
		if fi, statErr := os.Stat(target); statErr == nil && fi.IsDir() {
			if mvErr := os.Rename(src, filepath.Join(target, name)); mvErr != nil {
				return fmt.Errorf("move to dataset folder: %w", mvErr)
			}
			stats.Dispatched++
			logger.Info("file dispatched", "file", name, "contract", contract, "dataset", dataset)
			return nil
		}
		logger.Warn("target folder missing", "file", name, "contract", contract, "dataset", dataset)
	}

	dst := collisionFreePath(d.cfg.QuarantineDir(), name)
	if mvErr := os.Rename(src, dst); mvErr != nil {
		return fmt.Errorf("move to quarantine: %w", mvErr)
	}
	stats.Invalid++
	logger.Warn("file quarantined", "file", name, "dest", dst)
	return nil
}
