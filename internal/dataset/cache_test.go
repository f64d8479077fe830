package dataset

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ni-sh-a-char/financer/internal/testutil"
)

func TestCache_HitReturnsSameTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stocks.csv")
	if err := os.WriteFile(path, []byte(testutil.SampleStocksCSV), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cache := NewCache()
	first, err := cache.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	second, err := cache.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if first != second {
		t.Error("unchanged file should hit the cache")
	}
	if cache.Len() != 1 {
		t.Errorf("cache entries = %d, want 1", cache.Len())
	}
}

func TestCache_ReloadsWhenFileChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stocks.csv")
	if err := os.WriteFile(path, []byte(testutil.SampleStocksCSV), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cache := NewCache()
	first, err := cache.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	// rewrite with an extra row and force a distinct mtime
	updated := testutil.SampleStocksCSV + "2013-02-12,14.45,14.51,14.10,14.27,8126000,AAL\n"
	if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	later := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	second, err := cache.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile after change: %v", err)
	}
	if first == second {
		t.Error("changed file must not be served from cache")
	}
	if second.NumRows() != first.NumRows()+1 {
		t.Errorf("reloaded rows = %d, want %d", second.NumRows(), first.NumRows()+1)
	}
}

func TestCache_MissingFile(t *testing.T) {
	cache := NewCache()
	if _, err := cache.LoadFile(filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Error("expected error for missing file")
	}
}
