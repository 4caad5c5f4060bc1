package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// listDirs returns the names of subdirectories of dir that pass keep.
func listDirs(dir string, keep func(string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if keep == nil || keep(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// listFiles returns the names of regular files directly under dir.
// Subdirectories are never recursed into.
func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// byLengthDesc orders names longest-first so the most specific contract or
// dataset name wins when one name is a prefix of another. Equal lengths
// fall back to lexical order to keep runs deterministic.
func byLengthDesc(names []string) {
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
}

// collisionFreePath returns dir/name, or the first dir/name_N.ext not yet
// taken. Quarantined files are never overwritten and never dropped.
func collisionFreePath(dir, name string) string {
	path := filepath.Join(dir, name)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for i := 1; ; i++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path
		}
		path = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, i, ext))
	}
}
