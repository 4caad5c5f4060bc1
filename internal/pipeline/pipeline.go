// Package pipeline implements the two-stage ingestion pipeline.
//
// The Dispatcher routes files dropped at the root folder into their
// contract/dataset folders by filename convention. The Loader reads each
// dataset folder, synchronizes the destination table's schema, and performs
// a transactional replace-and-insert, archiving or quarantining each file
// by outcome.
//
// Both stages isolate per-file failures: one bad file is counted and
// quarantined, never aborting the rest of the run. The only fatal
// condition is a missing root folder.
package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrRootNotFound aborts a run before any file is touched.
	ErrRootNotFound = errors.New("root folder does not exist")

	// ErrNoMatch means a filename resolved to no known contract/dataset.
	ErrNoMatch = errors.New("filename matches no contract/dataset")
)

// DispatchStats summarizes one Dispatcher run. Counters reset at the start
// of each run; the record is never persisted.
type DispatchStats struct {
	Dispatched int `json:"dispatched"`
	Invalid    int `json:"invalid"`
	Errors     int `json:"errors"`
}

// String renders the stats for CLI output.
func (s *DispatchStats) String() string {
	return fmt.Sprintf("dispatched=%d invalid=%d errors=%d", s.Dispatched, s.Invalid, s.Errors)
}

// LoadStats summarizes one Loader run.
type LoadStats struct {
	FilesProcessed int `json:"files_processed"`
	FilesImported  int `json:"files_imported"`
	FilesFailed    int `json:"files_failed"`
	TablesCreated  int `json:"tables_created"`
	TablesUpdated  int `json:"tables_updated"`
}

// String renders the stats for CLI output.
func (s *LoadStats) String() string {
	return fmt.Sprintf("processed=%d imported=%d failed=%d tables_created=%d tables_updated=%d",
		s.FilesProcessed, s.FilesImported, s.FilesFailed, s.TablesCreated, s.TablesUpdated)
}
