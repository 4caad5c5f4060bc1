package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/Ingest/internal/config"
	"github.com/JonMunkholm/Ingest/internal/database"
	"github.com/JonMunkholm/Ingest/internal/format"
	"github.com/JonMunkholm/Ingest/internal/logging"
	"github.com/JonMunkholm/Ingest/internal/schema"
)

// maxInsertParams caps the parameter count of one INSERT statement; the
// Postgres wire protocol limits bind parameters to 65535.
const maxInsertParams = 65535

// Loader sweeps every dataset folder, loading each file into its table
// with a full-replace load. Files move to Imported/ on success or to
// Error/ on failure; neither outcome stops the sweep.
type Loader struct {
	cfg config.PipelineConfig
	db  database.DB
}

// NewLoader creates a Loader over the configured root folder and database.
func NewLoader(cfg config.PipelineConfig, db database.DB) *Loader {
	return &Loader{cfg: cfg, db: db}
}

// Run sweeps all contract/dataset folders once. Run fails only when the
// root folder is missing; every per-file problem is a counter and a log
// line.
func (l *Loader) Run(ctx context.Context) (*LoadStats, error) {
	stats := &LoadStats{}

	if fi, err := os.Stat(l.cfg.RootFolder); err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrRootNotFound, l.cfg.RootFolder)
	}

	ctx = logging.WithRunID(ctx, uuid.NewString())
	logger := logging.FromContext(ctx)

	contracts, err := listDirs(l.cfg.RootFolder, func(name string) bool {
		return l.cfg.ReservedPrefix == "" || !strings.HasPrefix(name, l.cfg.ReservedPrefix)
	})
	if err != nil {
		return nil, fmt.Errorf("list root folder: %w", err)
	}

	logger.Info("load run started", "root", l.cfg.RootFolder, "contracts", len(contracts))

	for _, contract := range contracts {
		datasets, err := listDirs(filepath.Join(l.cfg.RootFolder, contract), func(name string) bool {
			return name != l.cfg.ImportedFolder && name != l.cfg.ErrorFolder
		})
		if err != nil {
			logger.Error("list contract folder failed", "contract", contract, "error", err)
			continue
		}
		for _, dataset := range datasets {
			l.loadDataset(ctx, contract, dataset, stats)
		}
	}

	logger.Info("load run complete",
		"processed", stats.FilesProcessed,
		"imported", stats.FilesImported,
		"failed", stats.FilesFailed,
		"tables_created", stats.TablesCreated,
		"tables_updated", stats.TablesUpdated,
	)
	return stats, nil
}

// loadDataset processes every file directly inside one dataset folder.
func (l *Loader) loadDataset(ctx context.Context, contract, dataset string, stats *LoadStats) {
	dir := filepath.Join(l.cfg.RootFolder, contract, dataset)
	table := contract + "_" + dataset
	importedDir := filepath.Join(dir, l.cfg.ImportedFolder)
	errorDir := filepath.Join(dir, l.cfg.ErrorFolder)

	logger := logging.WithFields(ctx, "contract", contract, "dataset", dataset, "table", table)

	if err := os.MkdirAll(importedDir, 0755); err != nil {
		logger.Error("create archive folder failed", "error", err)
		return
	}
	if err := os.MkdirAll(errorDir, 0755); err != nil {
		logger.Error("create error folder failed", "error", err)
		return
	}

	files, err := listFiles(dir)
	if err != nil {
		logger.Error("list dataset folder failed", "error", err)
		return
	}

	for _, name := range files {
		stats.FilesProcessed++
		src := filepath.Join(dir, name)

		if err := l.loadFile(ctx, src, table, stats); err != nil {
			logger.Error("load failed", "file", name, "error", err)
			dst := collisionFreePath(errorDir, name)
			if mvErr := os.Rename(src, dst); mvErr != nil {
				logger.Error("quarantine move failed", "file", name, "error", mvErr)
			}
			stats.FilesFailed++
			continue
		}

		if err := os.Rename(src, filepath.Join(importedDir, name)); err != nil {
			logger.Error("archive move failed", "file", name, "error", err)
			stats.FilesFailed++
			continue
		}

		stats.FilesImported++
		logger.Info("file imported", "file", name)
	}
}

// loadFile reads one file, synchronizes the table schema, and replaces the
// table's rows, all inside a single transaction. Created/updated counters
// are bumped only after the commit lands.
func (l *Loader) loadFile(ctx context.Context, path, table string, stats *LoadStats) error {
	rs, err := format.Read(path)
	if err != nil {
		return err
	}
	if len(rs.Columns) == 0 || len(rs.Rows) == 0 {
		return format.ErrEmptyFile
	}

	tx, err := l.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	res, err := schema.Sync(ctx, tx, table, rs.Columns)
	if err != nil {
		return err
	}

	if err := l.insertRows(ctx, tx, table, rs); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	if res == schema.Created {
		stats.TablesCreated++
	} else {
		stats.TablesUpdated++
	}
	return nil
}

// insertRows bulk-inserts every row in batches, substituting the empty
// string for missing cells. Cells beyond the header width are ignored.
func (l *Loader) insertRows(ctx context.Context, tx database.Tx, table string, rs *format.RowSet) error {
	cols := make([]string, len(rs.Columns))
	for i, c := range rs.Columns {
		cols[i] = pgx.Identifier{c}.Sanitize()
	}
	prefix := fmt.Sprintf("INSERT INTO %s (%s) VALUES ",
		pgx.Identifier{table}.Sanitize(), strings.Join(cols, ", "))

	batch := l.cfg.BatchSize
	if max := maxInsertParams / len(rs.Columns); batch > max {
		batch = max
	}
	if batch < 1 {
		batch = 1
	}

	for start := 0; start < len(rs.Rows); start += batch {
		end := start + batch
		if end > len(rs.Rows) {
			end = len(rs.Rows)
		}
		chunk := rs.Rows[start:end]

		var sb strings.Builder
		sb.WriteString(prefix)
		args := make([]any, 0, len(chunk)*len(rs.Columns))

		for ri, row := range chunk {
			if ri > 0 {
				sb.WriteString(", ")
			}
			sb.WriteByte('(')
			for ci := range rs.Columns {
				if ci > 0 {
					sb.WriteString(", ")
				}
				fmt.Fprintf(&sb, "$%d", len(args)+1)
				args = append(args, rs.Cell(row, ci))
			}
			sb.WriteByte(')')
		}

		if err := tx.Exec(ctx, sb.String(), args...); err != nil {
			return fmt.Errorf("insert rows: %w", err)
		}
	}
	return nil
}
