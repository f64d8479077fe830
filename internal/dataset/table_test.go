package dataset

import (
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ni-sh-a-char/financer/internal/testutil"
)

func loadSample(t *testing.T, csv string) *Table {
	t.Helper()
	table, err := ReadCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	return table
}

func TestColumnPartitionIsDisjointAndComplete(t *testing.T) {
	table := loadSample(t, testutil.SampleBankCSV)

	numeric := table.NumericColumns()
	text := table.TextColumns()

	seen := make(map[string]string)
	for _, c := range numeric {
		seen[c] = "numeric"
	}
	for _, c := range text {
		if prev, ok := seen[c]; ok {
			t.Errorf("column %q in both %s and text partitions", c, prev)
		}
		seen[c] = "text"
	}

	all := table.Columns()
	if len(seen) != len(all) {
		t.Errorf("partition covers %d columns, table has %d", len(seen), len(all))
	}
	for _, c := range all {
		if _, ok := seen[c]; !ok {
			t.Errorf("column %q missing from both partitions", c)
		}
	}

	got := append([]string{}, numeric...)
	sort.Strings(got)
	if diff := cmp.Diff([]string{"age", "balance"}, got); diff != "" {
		t.Errorf("numeric columns mismatch (-want +got):\n%s", diff)
	}
}

func TestColorOptionsEndWithNoneSentinel(t *testing.T) {
	table := loadSample(t, testutil.SampleBankCSV)

	opts := table.ColorOptions()
	if len(opts) == 0 || opts[len(opts)-1] != NoneColumn {
		t.Errorf("color options = %v, want trailing %q", opts, NoneColumn)
	}
	if len(opts) != len(table.TextColumns())+1 {
		t.Errorf("color options should be text columns plus sentinel, got %v", opts)
	}
}

func TestFilterEqualYieldsExactSubset(t *testing.T) {
	table := loadSample(t, testutil.SampleStocksCSV)

	filtered, err := table.FilterEqual("Name", "AAL")
	if err != nil {
		t.Fatalf("FilterEqual: %v", err)
	}
	if filtered.NumRows() != 2 {
		t.Fatalf("filtered rows = %d, want 2", filtered.NumRows())
	}
	names, err := filtered.Strings("Name")
	if err != nil {
		t.Fatalf("Strings: %v", err)
	}
	for _, n := range names {
		if n != "AAL" {
			t.Errorf("row has Name=%q after filtering for AAL", n)
		}
	}
}

func TestUniqueTickers(t *testing.T) {
	table := loadSample(t, testutil.SampleStocksCSV)

	tickers, err := table.Unique("Name")
	if err != nil {
		t.Fatalf("Unique: %v", err)
	}
	if diff := cmp.Diff([]string{"AAL", "AAP", "ABT"}, tickers); diff != "" {
		t.Errorf("tickers mismatch (-want +got):\n%s", diff)
	}
}

func TestUnique_MissingColumn(t *testing.T) {
	table := loadSample(t, testutil.SampleStocksCSV)
	if _, err := table.Unique("Ticker"); err == nil {
		t.Error("expected error for missing column")
	}
}

func TestRowsLimit(t *testing.T) {
	table := loadSample(t, testutil.SampleMPGCSV)

	header, rows := table.Rows(3)
	if len(header) != 8 {
		t.Errorf("header has %d columns, want 8", len(header))
	}
	if len(rows) != 3 {
		t.Errorf("rows = %d, want 3", len(rows))
	}

	_, all := table.Rows(0)
	if len(all) != table.NumRows() {
		t.Errorf("unlimited rows = %d, want %d", len(all), table.NumRows())
	}
}

func TestFloatRejectsTextColumn(t *testing.T) {
	table := loadSample(t, testutil.SampleBankCSV)

	if _, err := table.Float("job"); err == nil {
		t.Error("expected error for text column")
	}
	if _, err := table.Float("age"); err != nil {
		t.Errorf("Float(age): %v", err)
	}
}

func TestWithFloatColumn(t *testing.T) {
	table := loadSample(t, testutil.SampleBankCSV)

	ages, err := table.Float("age")
	if err != nil {
		t.Fatalf("Float: %v", err)
	}
	doubled := make([]float64, len(ages))
	for i, v := range ages {
		doubled[i] = v * 2
	}

	derived, err := table.WithFloatColumn("age_new", doubled)
	if err != nil {
		t.Fatalf("WithFloatColumn: %v", err)
	}
	got, err := derived.Float("age_new")
	if err != nil {
		t.Fatalf("Float(age_new): %v", err)
	}
	for i := range ages {
		if got[i] != ages[i]*2 {
			t.Errorf("age_new[%d] = %v, want %v", i, got[i], ages[i]*2)
		}
	}

	// original table is untouched
	if table.HasColumn("age_new") {
		t.Error("WithFloatColumn mutated the source table")
	}

	if _, err := table.WithFloatColumn("bad", []float64{1}); err == nil {
		t.Error("expected length-mismatch error")
	}
}
