package pipeline

import (
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/Ingest/internal/config"
)

// Resolve maps a raw filename to its (contract, dataset) pair given the
// current folder tree under the root.
//
// Filenames follow {Contract}_{Dataset}_<anything>.<ext> or
// {Contract}_{Dataset}.<ext>, case-insensitively. Contract and dataset
// names may themselves contain underscores; candidates are checked
// longest-first so the most specific name wins (assessment_result matches
// before assessment).
//
// The folder tree is re-listed on every call: contracts and datasets may be
// created between runs, and a stale snapshot would misroute files.
func Resolve(filename string, cfg config.PipelineConfig) (contract, dataset string, err error) {
	lower := strings.ToLower(filename)

	contracts, err := listDirs(cfg.RootFolder, func(name string) bool {
		return cfg.ReservedPrefix == "" || !strings.HasPrefix(name, cfg.ReservedPrefix)
	})
	if err != nil {
		return "", "", err
	}
	byLengthDesc(contracts)

	for _, c := range contracts {
		prefix := strings.ToLower(c) + "_"
		if !strings.HasPrefix(lower, prefix) {
			continue
		}

		datasets, err := listDirs(filepath.Join(cfg.RootFolder, c), func(name string) bool {
			return name != cfg.ImportedFolder && name != cfg.ErrorFolder
		})
		if err != nil {
			return "", "", err
		}
		byLengthDesc(datasets)

		for _, d := range datasets {
			base := prefix + strings.ToLower(d)
			if strings.HasPrefix(lower, base+"_") || strings.HasPrefix(lower, base+".") {
				return c, d, nil
			}
		}
	}

	return "", "", ErrNoMatch
}
