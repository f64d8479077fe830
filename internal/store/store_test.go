package store

import (
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ni-sh-a-char/financer/internal/monitoring"
	"github.com/ni-sh-a-char/financer/internal/testutil"
)

func init() {
	monitoring.SetLogger(nil)
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	testutil.AssertNoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenRunsMigrations(t *testing.T) {
	s := openTestStore(t)

	version, dirty, err := s.MigrationVersion()
	testutil.AssertNoError(t, err)
	if version == 0 || dirty {
		t.Errorf("version = %d, dirty = %v", version, dirty)
	}

	// migrated tables must be queryable
	n, err := s.CountKPIs(context.Background())
	testutil.AssertNoError(t, err)
	if n != 0 {
		t.Errorf("fresh db has %d kpi rows", n)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	testutil.AssertNoError(t, err)
	s.Close()

	s, err = Open(path)
	testutil.AssertNoError(t, err)
	s.Close()
}

func TestUploadRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	id := uuid.New()
	content := []byte("age,job\n30,unemployed\n")

	testutil.AssertNoError(t, s.SaveUpload(ctx, id, "bank.csv", content))

	got, err := s.GetUpload(ctx, id)
	testutil.AssertNoError(t, err)
	if got.Name != "bank.csv" {
		t.Errorf("name = %q", got.Name)
	}
	if string(got.Content) != string(content) {
		t.Errorf("content = %q", got.Content)
	}
}

func TestSaveUploadReplacesSameSession(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	id := uuid.New()

	testutil.AssertNoError(t, s.SaveUpload(ctx, id, "first.csv", []byte("a\n1\n")))
	testutil.AssertNoError(t, s.SaveUpload(ctx, id, "second.csv", []byte("b\n2\n")))

	got, err := s.GetUpload(ctx, id)
	testutil.AssertNoError(t, err)
	if got.Name != "second.csv" {
		t.Errorf("name = %q, want second.csv", got.Name)
	}
}

func TestGetUploadMissing(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetUpload(context.Background(), uuid.New())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteUpload(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	id := uuid.New()
	testutil.AssertNoError(t, s.SaveUpload(ctx, id, "x.csv", []byte("a\n1\n")))
	testutil.AssertNoError(t, s.DeleteUpload(ctx, id))

	if _, err := s.GetUpload(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	// absent row is fine
	testutil.AssertNoError(t, s.DeleteUpload(ctx, id))
}

func TestPruneUploads(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	testutil.AssertNoError(t, s.SaveUpload(ctx, uuid.New(), "old.csv", []byte("a\n1\n")))

	pruned, err := s.PruneUploads(ctx, time.Now().Add(time.Hour))
	testutil.AssertNoError(t, err)
	if pruned != 1 {
		t.Errorf("pruned = %d, want 1", pruned)
	}
}

func TestKPIRecordAndHistory(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		err := s.RecordKPI(ctx, KPIRecord{
			Job:          "management",
			AvgAge:       40.5,
			MarriedCount: 10 + i,
			AvgBalance:   decimal.NewFromFloat(1234.56),
			Iteration:    i,
		})
		testutil.AssertNoError(t, err)
	}

	recs, err := s.RecentKPIs(ctx, 2)
	testutil.AssertNoError(t, err)
	if len(recs) != 2 {
		t.Fatalf("rows = %d, want 2", len(recs))
	}
	// newest first
	if recs[0].Iteration != 3 || recs[1].Iteration != 2 {
		t.Errorf("iterations = %d,%d", recs[0].Iteration, recs[1].Iteration)
	}
	if !recs[0].AvgBalance.Equal(decimal.NewFromFloat(1234.56)) {
		t.Errorf("avg_balance = %s", recs[0].AvgBalance)
	}

	n, err := s.CountKPIs(ctx)
	testutil.AssertNoError(t, err)
	if n != 3 {
		t.Errorf("count = %d, want 3", n)
	}
}

func TestBackupHandler(t *testing.T) {
	s := openTestStore(t)
	testutil.AssertNoError(t, s.RecordKPI(context.Background(), KPIRecord{
		Job: "services", AvgBalance: decimal.New(1, 0), Iteration: 1,
	}))

	rec := httptest.NewRecorder()
	s.BackupHandler()(rec, httptest.NewRequest("GET", "/debug/backup", nil))

	testutil.AssertStatusCode(t, rec.Code, 200)
	if rec.Header().Get("Content-Encoding") != "gzip" {
		t.Errorf("Content-Encoding = %q", rec.Header().Get("Content-Encoding"))
	}

	zr, err := gzip.NewReader(rec.Body)
	testutil.AssertNoError(t, err)
	raw, err := io.ReadAll(zr)
	testutil.AssertNoError(t, err)
	if len(raw) < 16 || string(raw[:15]) != "SQLite format 3" {
		t.Errorf("backup does not look like a sqlite file (%d bytes)", len(raw))
	}
}
