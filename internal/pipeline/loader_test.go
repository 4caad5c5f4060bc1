package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/JonMunkholm/Ingest/internal/database"
)

// ============================================================================
// In-memory database fake
// ============================================================================

// fakeDB understands the exact statements the loader and schema sync emit
// and tracks table columns and row counts in memory.
type fakeDB struct {
	tables map[string][]string // table -> column names
	rows   map[string]int      // table -> row count
	failOn string              // Exec containing this substring errors
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		tables: make(map[string][]string),
		rows:   make(map[string]int),
	}
}

func (f *fakeDB) Begin(context.Context) (database.Tx, error) {
	return &fakeDBTx{db: f}, nil
}

type fakeDBTx struct {
	db *fakeDB
}

var (
	createRe = regexp.MustCompile(`^CREATE TABLE "(.+?)" \((.+)\)$`)
	alterRe  = regexp.MustCompile(`^ALTER TABLE "(.+?)" ADD COLUMN "(.+?)" text$`)
	truncRe  = regexp.MustCompile(`^TRUNCATE "(.+?)"$`)
	insertRe = regexp.MustCompile(`^INSERT INTO "(.+?)" \((.+?)\) VALUES `)
)

func (t *fakeDBTx) Exec(_ context.Context, sql string, args ...any) error {
	if t.db.failOn != "" && strings.Contains(sql, t.db.failOn) {
		return errors.New("forced failure: " + t.db.failOn)
	}

	switch {
	case createRe.MatchString(sql):
		m := createRe.FindStringSubmatch(sql)
		var cols []string
		for _, def := range strings.Split(m[2], ", ") {
			cols = append(cols, strings.TrimSuffix(strings.Trim(def, `"`), `" text`))
		}
		t.db.tables[m[1]] = cols
		t.db.rows[m[1]] = 0

	case alterRe.MatchString(sql):
		m := alterRe.FindStringSubmatch(sql)
		t.db.tables[m[1]] = append(t.db.tables[m[1]], m[2])

	case truncRe.MatchString(sql):
		m := truncRe.FindStringSubmatch(sql)
		t.db.rows[m[1]] = 0

	case insertRe.MatchString(sql):
		m := insertRe.FindStringSubmatch(sql)
		nCols := strings.Count(m[2], `"`) / 2
		t.db.rows[m[1]] += len(args) / nCols
	}
	return nil
}

func (t *fakeDBTx) Query(_ context.Context, sql string, args ...any) (database.Rows, error) {
	table, _ := args[0].(string)
	if strings.Contains(sql, "information_schema.tables") {
		_, ok := t.db.tables[table]
		return &fakeBoolRows{value: ok}, nil
	}
	if strings.Contains(sql, "information_schema.columns") {
		return &fakeStringRows{values: t.db.tables[table]}, nil
	}
	return nil, errors.New("unexpected query: " + sql)
}

func (t *fakeDBTx) Commit(context.Context) error   { return nil }
func (t *fakeDBTx) Rollback(context.Context) error { return nil }

type fakeBoolRows struct {
	value bool
	done  bool
}

func (r *fakeBoolRows) Next() bool {
	if r.done {
		return false
	}
	r.done = true
	return true
}

func (r *fakeBoolRows) Scan(dest ...any) error {
	*(dest[0].(*bool)) = r.value
	return nil
}

func (r *fakeBoolRows) Err() error { return nil }
func (r *fakeBoolRows) Close()     {}

type fakeStringRows struct {
	values []string
	pos    int
}

func (r *fakeStringRows) Next() bool { return r.pos < len(r.values) }

func (r *fakeStringRows) Scan(dest ...any) error {
	*(dest[0].(*string)) = r.values[r.pos]
	r.pos++
	return nil
}

func (r *fakeStringRows) Err() error { return nil }
func (r *fakeStringRows) Close()     {}

// ============================================================================
// Loader tests
// ============================================================================

func writeDatasetFile(t *testing.T, root, contract, dataset, name string, data []byte) string {
	t.Helper()
	dir := filepath.Join(root, contract, dataset)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoader_ImportsFileCreatingTable(t *testing.T) {
	root := t.TempDir()
	// Windows-1252 content with a semicolon separator.
	writeDatasetFile(t, root, "Contract_A", "dataset_sales", "Contract_A_dataset_sales_2024.csv",
		[]byte("name;city\nren\xe9;Paris\nmika;Oslo\n"))

	db := newFakeDB()
	stats, err := NewLoader(testCfg(root), db).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if stats.FilesProcessed != 1 || stats.FilesImported != 1 || stats.FilesFailed != 0 {
		t.Errorf("stats = %+v, want processed=1 imported=1 failed=0", stats)
	}
	if stats.TablesCreated != 1 || stats.TablesUpdated != 0 {
		t.Errorf("stats = %+v, want tables_created=1 tables_updated=0", stats)
	}

	cols := db.tables["Contract_A_dataset_sales"]
	if len(cols) != 2 || cols[0] != "name" || cols[1] != "city" {
		t.Errorf("table columns = %v, want [name city]", cols)
	}
	if db.rows["Contract_A_dataset_sales"] != 2 {
		t.Errorf("row count = %d, want 2", db.rows["Contract_A_dataset_sales"])
	}

	imported := filepath.Join(root, "Contract_A", "dataset_sales", "Imported", "Contract_A_dataset_sales_2024.csv")
	if !fileExists(t, imported) {
		t.Error("file not archived to Imported/")
	}
}

// Loading {x,y} then {x,z} leaves the table with all of {x,y,z}; no column
// is ever dropped, and the second load replaces the rows.
func TestLoader_SchemaMonotonicity(t *testing.T) {
	root := t.TempDir()
	db := newFakeDB()
	loader := NewLoader(testCfg(root), db)

	writeDatasetFile(t, root, "acme", "sales", "acme_sales_a.csv", []byte("x,y\n1,2\n3,4\n"))
	if _, err := loader.Run(context.Background()); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}

	writeDatasetFile(t, root, "acme", "sales", "acme_sales_b.csv", []byte("x,z\n5,6\n"))
	stats, err := loader.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}

	if stats.TablesCreated != 0 || stats.TablesUpdated != 1 {
		t.Errorf("stats = %+v, want tables_created=0 tables_updated=1", stats)
	}

	cols := db.tables["acme_sales"]
	want := []string{"x", "y", "z"}
	if len(cols) != len(want) {
		t.Fatalf("table columns = %v, want %v", cols, want)
	}
	for i := range want {
		if cols[i] != want[i] {
			t.Errorf("columns[%d] = %q, want %q", i, cols[i], want[i])
		}
	}
	if db.rows["acme_sales"] != 1 {
		t.Errorf("row count = %d, want 1 (full replace)", db.rows["acme_sales"])
	}
}

func TestLoader_PartialFailureIsolation(t *testing.T) {
	root := t.TempDir()
	writeDatasetFile(t, root, "acme", "sales", "acme_sales_jan.csv", []byte("a,b\n1,2\n"))
	writeDatasetFile(t, root, "acme", "sales", "acme_sales_feb.csv", []byte("a,b\n3,4\n"))
	writeDatasetFile(t, root, "acme", "sales", "acme_sales_notes.pdf", []byte("not tabular"))

	stats, err := NewLoader(testCfg(root), newFakeDB()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if stats.FilesProcessed != 3 || stats.FilesImported != 2 || stats.FilesFailed != 1 {
		t.Errorf("stats = %+v, want processed=3 imported=2 failed=1", stats)
	}
	if !fileExists(t, filepath.Join(root, "acme", "sales", "Error", "acme_sales_notes.pdf")) {
		t.Error("unsupported file not quarantined to Error/")
	}
}

func TestLoader_HeaderOnlyFileFails(t *testing.T) {
	root := t.TempDir()
	writeDatasetFile(t, root, "acme", "sales", "acme_sales_jan.csv", []byte("a,b\n"))

	db := newFakeDB()
	stats, err := NewLoader(testCfg(root), db).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if stats.FilesFailed != 1 || stats.FilesImported != 0 {
		t.Errorf("stats = %+v, want failed=1 imported=0", stats)
	}
	if len(db.tables) != 0 {
		t.Errorf("tables = %v, want none for a rowless file", db.tables)
	}
}

func TestLoader_ErrorQuarantineCollisionSafe(t *testing.T) {
	root := t.TempDir()
	loader := NewLoader(testCfg(root), newFakeDB())

	writeDatasetFile(t, root, "acme", "sales", "bad.pdf", []byte("x"))
	if _, err := loader.Run(context.Background()); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}

	writeDatasetFile(t, root, "acme", "sales", "bad.pdf", []byte("y"))
	if _, err := loader.Run(context.Background()); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}

	errDir := filepath.Join(root, "acme", "sales", "Error")
	if !fileExists(t, filepath.Join(errDir, "bad.pdf")) || !fileExists(t, filepath.Join(errDir, "bad_1.pdf")) {
		t.Error("quarantined files were overwritten instead of renamed")
	}
}

func TestLoader_InsertFailureQuarantines(t *testing.T) {
	root := t.TempDir()
	writeDatasetFile(t, root, "acme", "sales", "acme_sales_jan.csv", []byte("a,b\n1,2\n"))

	db := newFakeDB()
	db.failOn = "INSERT"
	stats, err := NewLoader(testCfg(root), db).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if stats.FilesFailed != 1 || stats.FilesImported != 0 {
		t.Errorf("stats = %+v, want failed=1 imported=0", stats)
	}
	if stats.TablesCreated != 0 || stats.TablesUpdated != 0 {
		t.Errorf("stats = %+v, want no table counters without a commit", stats)
	}
	if !fileExists(t, filepath.Join(root, "acme", "sales", "Error", "acme_sales_jan.csv")) {
		t.Error("file not quarantined after insert failure")
	}
}

// A second sweep over a fully-loaded tree processes nothing: Imported/ and
// Error/ are never treated as dataset folders.
func TestLoader_IdempotentRerun(t *testing.T) {
	root := t.TempDir()
	writeDatasetFile(t, root, "acme", "sales", "acme_sales_jan.csv", []byte("a,b\n1,2\n"))

	db := newFakeDB()
	loader := NewLoader(testCfg(root), db)
	if _, err := loader.Run(context.Background()); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}

	stats, err := loader.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if stats.FilesProcessed != 0 {
		t.Errorf("second run processed = %d, want 0", stats.FilesProcessed)
	}
}

func TestLoader_MissingRootIsFatal(t *testing.T) {
	cfg := testCfg(filepath.Join(t.TempDir(), "nope"))

	_, err := NewLoader(cfg, newFakeDB()).Run(context.Background())
	if !errors.Is(err, ErrRootNotFound) {
		t.Errorf("Run() error = %v, want ErrRootNotFound", err)
	}
}
