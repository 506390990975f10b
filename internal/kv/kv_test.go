package kv

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

// backends returns a fresh instance of every Store implementation.
func backends(t *testing.T) map[string]Store {
	t.Helper()

	file, err := OpenFile(filepath.Join(t.TempDir(), "file"))
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "sqlite", SQLiteFileName))
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return map[string]Store{
		"memory": NewMemory(),
		"file":   file,
		"sqlite": db,
	}
}

func TestStoreContract(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := s.Get("tasks"); err != nil || ok {
				t.Fatalf("Get on empty store: ok=%v err=%v, want absent", ok, err)
			}

			if err := s.Set("tasks", []byte(`[1]`)); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			got, ok, err := s.Get("tasks")
			if err != nil || !ok {
				t.Fatalf("Get after Set: ok=%v err=%v", ok, err)
			}
			if string(got) != "[1]" {
				t.Errorf("Get: got %s, want [1]", got)
			}

			if err := s.Set("tasks", []byte(`[2]`)); err != nil {
				t.Fatalf("overwrite failed: %v", err)
			}
			got, _, _ = s.Get("tasks")
			if string(got) != "[2]" {
				t.Errorf("Get after overwrite: got %s, want [2]", got)
			}

			if _, ok, _ := s.Get("other"); ok {
				t.Error("keys should be independent")
			}
		})
	}
}

func TestInvalidKeys(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, key := range []string{"", "..", "a/b", `a\b`, "tasks key"} {
				if err := s.Set(key, []byte("x")); !errors.Is(err, ErrInvalidKey) {
					t.Errorf("Set(%q): got %v, want ErrInvalidKey", key, err)
				}
				if _, _, err := s.Get(key); !errors.Is(err, ErrInvalidKey) {
					t.Errorf("Get(%q): got %v, want ErrInvalidKey", key, err)
				}
			}
		})
	}
}

func TestMemoryCopiesValues(t *testing.T) {
	m := NewMemory()
	value := []byte("abc")
	if err := m.Set("k", value); err != nil {
		t.Fatal(err)
	}
	value[0] = 'x'
	got, _, _ := m.Get("k")
	if string(got) != "abc" {
		t.Errorf("stored value aliased caller slice: got %s", got)
	}
	got[0] = 'y'
	again, _, _ := m.Get("k")
	if string(again) != "abc" {
		t.Errorf("returned value aliased stored slice: got %s", again)
	}
}

func TestMemoryFailSet(t *testing.T) {
	m := NewMemory()
	boom := errors.New("disk full")
	m.FailSet = boom
	if err := m.Set("k", []byte("v")); !errors.Is(err, boom) {
		t.Errorf("Set: got %v, want %v", err, boom)
	}
}

func TestFileLayout(t *testing.T) {
	dir := t.TempDir()
	f, err := OpenFile(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Set("tasks", []byte("[]")); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "tasks.json"))
	if err != nil {
		t.Fatalf("slot file missing: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("slot file: got %s, want []", data)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
}

func TestSQLitePersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), SQLiteFileName)
	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Set("tasks", []byte("[]")); err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	got, ok, err := reopened.Get("tasks")
	if err != nil || !ok || string(got) != "[]" {
		t.Errorf("Get after reopen: got %q ok=%v err=%v", got, ok, err)
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		backend string
		want    string
	}{
		{"", "*kv.File"},
		{"file", "*kv.File"},
		{"FILE", "*kv.File"},
		{"memory", "*kv.Memory"},
		{"sqlite", "*kv.SQLite"},
	}
	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			s, err := Open(tt.backend, dir)
			if err != nil {
				t.Fatalf("Open(%q) failed: %v", tt.backend, err)
			}
			defer s.Close()
			if got := typeName(s); got != tt.want {
				t.Errorf("Open(%q): got %s, want %s", tt.backend, got, tt.want)
			}
		})
	}

	if _, err := Open("redis", dir); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("Open(redis): got %v, want ErrUnknownBackend", err)
	}
}

func typeName(s Store) string {
	switch s.(type) {
	case *File:
		return "*kv.File"
	case *Memory:
		return "*kv.Memory"
	case *SQLite:
		return "*kv.SQLite"
	}
	return "unknown"
}

func TestSQLiteSpecialCharactersInPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("? and # are not valid in Windows file names")
	}
	parent := t.TempDir()
	for _, name := range []string{"my?data", "tasks#1", "100%done", "with space"} {
		t.Run(name, func(t *testing.T) {
			dir := filepath.Join(parent, name)
			s, err := Open(BackendSQLite, dir)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			if err := s.Set("tasks", []byte("[]")); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if err := s.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}

			if _, err := os.Stat(filepath.Join(dir, SQLiteFileName)); err != nil {
				t.Errorf("database not created inside %s: %v", dir, err)
			}
			entries, err := os.ReadDir(parent)
			if err != nil {
				t.Fatal(err)
			}
			for _, e := range entries {
				if e.Name() != filepath.Base(dir) && !strings.ContainsAny(e.Name(), "?#% ") {
					t.Errorf("stray file in parent directory: %s", e.Name())
				}
			}
		})
	}
}

func TestSQLiteDSN(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix paths")
	}
	tests := []struct {
		path string
		want string
	}{
		{"/data/daily.db", "file:///data/daily.db"},
		{"/my?data/daily.db", "file:///my%3Fdata/daily.db"},
		{"/a#b/daily.db", "file:///a%23b/daily.db"},
		{"/100%/daily.db", "file:///100%25/daily.db"},
	}
	for _, tt := range tests {
		if got := sqliteDSN(tt.path); got != tt.want {
			t.Errorf("sqliteDSN(%q): got %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestSQLiteCloseLogsCheckpointFailure(t *testing.T) {
	var logs bytes.Buffer
	db, err := OpenSQLite(filepath.Join(t.TempDir(), SQLiteFileName), WithLogger(log.New(&logs)))
	if err != nil {
		t.Fatal(err)
	}
	// Closing the pool underneath makes the checkpoint fail.
	db.conn.Close()

	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !strings.Contains(logs.String(), "failed to checkpoint WAL") {
		t.Errorf("expected checkpoint warning in logs, got %q", logs.String())
	}
}
