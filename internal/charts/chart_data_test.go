package charts

import (
	"math"
	"strings"
	"testing"

	"github.com/ni-sh-a-char/financer/internal/dataset"
	"github.com/ni-sh-a-char/financer/internal/testutil"
)

func bankTable(t *testing.T) *dataset.Table {
	t.Helper()
	tbl, err := dataset.ReadCSV(strings.NewReader(testutil.SampleBankCSV))
	testutil.AssertNoError(t, err)
	return tbl
}

func mpgTable(t *testing.T) *dataset.Table {
	t.Helper()
	tbl, err := dataset.ReadCSV(strings.NewReader(testutil.SampleMPGCSV))
	testutil.AssertNoError(t, err)
	return tbl
}

func TestParseKind(t *testing.T) {
	for _, s := range []string{"scatter", "line", "histogram", "box", "heatmap", "density-heatmap", "distribution", "joint"} {
		k, err := ParseKind(s)
		testutil.AssertNoError(t, err)
		if string(k) != s {
			t.Errorf("ParseKind(%q) = %q", s, k)
		}
	}
	if _, err := ParseKind("pie"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestClampBins(t *testing.T) {
	cases := []struct{ in, want int }{
		{0, MinHistogramBins},
		{5, 5},
		{42, 42},
		{100, 100},
		{1000, MaxHistogramBins},
	}
	for _, c := range cases {
		if got := ClampBins(c.in); got != c.want {
			t.Errorf("ClampBins(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestPrepareXYSingleSeries(t *testing.T) {
	tbl := bankTable(t)
	data, err := PrepareXY(tbl, "age", "balance", dataset.NoneColumn)
	testutil.AssertNoError(t, err)

	if len(data.Series) != 1 {
		t.Fatalf("series = %d, want 1", len(data.Series))
	}
	if len(data.Series[0].Points) != 8 {
		t.Errorf("points = %d, want 8", len(data.Series[0].Points))
	}
	if data.XName != "age" || data.YName != "balance" {
		t.Errorf("axis names = %q/%q", data.XName, data.YName)
	}
	first := data.Series[0].Points[0]
	if first.X != 30 || first.Y != 1787 {
		t.Errorf("first point = %+v", first)
	}
}

func TestPrepareXYGrouped(t *testing.T) {
	tbl := bankTable(t)
	data, err := PrepareXY(tbl, "age", "balance", "marital")
	testutil.AssertNoError(t, err)

	byName := map[string]int{}
	total := 0
	for _, s := range data.Series {
		byName[s.Name] = len(s.Points)
		total += len(s.Points)
	}
	if total != 8 {
		t.Errorf("total points = %d, want 8", total)
	}
	if byName["married"] != 6 || byName["single"] != 1 || byName["divorced"] != 1 {
		t.Errorf("group sizes = %v", byName)
	}
}

func TestPrepareXYSameColumn(t *testing.T) {
	tbl := bankTable(t)
	data, err := PrepareXY(tbl, "age", "age", "")
	testutil.AssertNoError(t, err)
	for _, p := range data.Series[0].Points {
		if p.X != p.Y {
			t.Fatalf("point %+v not on diagonal", p)
		}
	}
}

func TestPrepareXYNonNumeric(t *testing.T) {
	tbl := bankTable(t)
	if _, err := PrepareXY(tbl, "job", "balance", ""); err == nil {
		t.Error("expected error for text x column")
	}
}

func TestPrepareHistogram(t *testing.T) {
	tbl := bankTable(t)
	data, err := PrepareHistogram(tbl, "age", 10)
	testutil.AssertNoError(t, err)

	if data.Bins != 10 {
		t.Errorf("bins = %d, want 10", data.Bins)
	}
	if len(data.Labels) != 10 || len(data.Counts) != 10 {
		t.Fatalf("labels/counts = %d/%d, want 10/10", len(data.Labels), len(data.Counts))
	}
	total := 0.0
	for _, c := range data.Counts {
		total += c
	}
	if total != 8 {
		t.Errorf("total count = %v, want 8 (max value must land in last bin)", total)
	}
	wantMean := (30 + 33 + 35 + 30 + 59 + 39 + 41 + 43) / 8.0
	if math.Abs(data.Mean-wantMean) > 1e-9 {
		t.Errorf("mean = %v, want %v", data.Mean, wantMean)
	}
}

func TestPrepareHistogramClampsBins(t *testing.T) {
	tbl := bankTable(t)
	data, err := PrepareHistogram(tbl, "age", 1)
	testutil.AssertNoError(t, err)
	if data.Bins != MinHistogramBins {
		t.Errorf("bins = %d, want %d", data.Bins, MinHistogramBins)
	}
}

func TestPrepareHistogramSingleValue(t *testing.T) {
	csv := "v\n7\n7\n7\n"
	tbl, err := dataset.ReadCSV(strings.NewReader(csv))
	testutil.AssertNoError(t, err)

	data, err := PrepareHistogram(tbl, "v", 20)
	testutil.AssertNoError(t, err)
	if data.Bins != 1 || data.Counts[0] != 3 {
		t.Errorf("degenerate histogram = %+v", data)
	}
	if data.Mean != 7 {
		t.Errorf("mean = %v, want 7", data.Mean)
	}
}

func TestPrepareBoxGrouped(t *testing.T) {
	tbl := bankTable(t)
	data, err := PrepareBox(tbl, "balance", "marital")
	testutil.AssertNoError(t, err)

	if len(data.Boxes) != 3 {
		t.Fatalf("boxes = %d, want 3", len(data.Boxes))
	}
	// first-seen category order
	if data.Boxes[0].Name != "married" || data.Boxes[1].Name != "single" || data.Boxes[2].Name != "divorced" {
		t.Errorf("box order = %q,%q,%q", data.Boxes[0].Name, data.Boxes[1].Name, data.Boxes[2].Name)
	}
	single := data.Boxes[1]
	if single.Min != 1350 || single.Max != 1350 || single.Med != 1350 {
		t.Errorf("single-element box = %+v", single)
	}
	married := data.Boxes[0]
	if married.Min != 0 || married.Max != 9374 {
		t.Errorf("married box range = %v..%v", married.Min, married.Max)
	}
	if married.Q1 > married.Med || married.Med > married.Q3 {
		t.Errorf("quartiles out of order: %+v", married)
	}
}

func TestPrepareBoxUngrouped(t *testing.T) {
	tbl := bankTable(t)
	data, err := PrepareBox(tbl, "age", dataset.NoneColumn)
	testutil.AssertNoError(t, err)
	if len(data.Boxes) != 1 {
		t.Fatalf("boxes = %d, want 1", len(data.Boxes))
	}
	if data.Boxes[0].Name != "age" {
		t.Errorf("box name = %q", data.Boxes[0].Name)
	}
}

func TestPrepareCorrelationHeatmap(t *testing.T) {
	tbl := mpgTable(t)
	data, err := PrepareCorrelationHeatmap(tbl)
	testutil.AssertNoError(t, err)

	n := len(data.XLabels)
	if n != 8 {
		t.Fatalf("numeric columns = %d, want 8", n)
	}
	for i := 0; i < n; i++ {
		if math.Abs(data.Values[i][i]-1) > 1e-9 {
			t.Errorf("diagonal [%d][%d] = %v, want 1", i, i, data.Values[i][i])
		}
		for j := 0; j < n; j++ {
			if math.Abs(data.Values[i][j]-data.Values[j][i]) > 1e-9 {
				t.Errorf("matrix not symmetric at %d,%d", i, j)
			}
		}
	}
	if data.Min < -1-1e-9 || data.Max > 1+1e-9 {
		t.Errorf("range %v..%v outside [-1,1]", data.Min, data.Max)
	}
}

func TestPrepareCorrelationHeatmapNeedsNumeric(t *testing.T) {
	csv := "a,b\nx,y\nz,w\n"
	tbl, err := dataset.ReadCSV(strings.NewReader(csv))
	testutil.AssertNoError(t, err)
	if _, err := PrepareCorrelationHeatmap(tbl); err == nil {
		t.Error("expected error with no numeric columns")
	}
}

func TestPrepareDensityHeatmap(t *testing.T) {
	tbl := bankTable(t)
	data, err := PrepareDensityHeatmap(tbl, "age", "marital", 5)
	testutil.AssertNoError(t, err)

	if len(data.YLabels) != 3 {
		t.Fatalf("y labels = %v", data.YLabels)
	}
	if len(data.XLabels) != 5 {
		t.Fatalf("x labels = %d, want 5", len(data.XLabels))
	}
	total := 0.0
	for _, row := range data.Values {
		if len(row) != 5 {
			t.Fatalf("row width = %d, want 5", len(row))
		}
		for _, v := range row {
			total += v
		}
	}
	if total != 8 {
		t.Errorf("total count = %v, want 8", total)
	}
	if data.Max < 1 {
		t.Errorf("max = %v, want >= 1", data.Max)
	}
}

func TestHeatmapTranspose(t *testing.T) {
	h := &HeatmapData{
		XLabels: []string{"a", "b", "c"},
		YLabels: []string{"p", "q"},
		Values:  [][]float64{{1, 2, 3}, {4, 5, 6}},
		Min:     0,
		Max:     6,
	}

	got := h.Transpose()
	if len(got.XLabels) != 2 || got.XLabels[0] != "p" {
		t.Fatalf("x labels = %v", got.XLabels)
	}
	if len(got.YLabels) != 3 || got.YLabels[2] != "c" {
		t.Fatalf("y labels = %v", got.YLabels)
	}
	if got.Values[0][0] != 1 || got.Values[2][1] != 6 {
		t.Errorf("values = %v", got.Values)
	}
	if got.Min != 0 || got.Max != 6 {
		t.Errorf("range = [%v,%v]", got.Min, got.Max)
	}
}

func TestPrepareTimeline(t *testing.T) {
	tbl, err := dataset.ReadCSV(strings.NewReader(testutil.SampleStocksCSV))
	testutil.AssertNoError(t, err)
	sub, err := tbl.FilterEqual("Name", "AAL")
	testutil.AssertNoError(t, err)

	data, err := PrepareTimeline(sub, "date", []string{"open", "close"})
	testutil.AssertNoError(t, err)

	if len(data.Index) != 2 {
		t.Fatalf("index = %v", data.Index)
	}
	if data.Index[0] != "2013-02-08" {
		t.Errorf("index[0] = %q", data.Index[0])
	}
	if len(data.Values) != 2 || len(data.Values[0]) != 2 {
		t.Fatalf("values shape = %dx%d", len(data.Values), len(data.Values[0]))
	}
	if data.Values[0][0] != 15.07 {
		t.Errorf("open[0] = %v", data.Values[0][0])
	}
}

func TestPrepareTimelineNoFeatures(t *testing.T) {
	tbl := bankTable(t)
	if _, err := PrepareTimeline(tbl, "job", nil); err == nil {
		t.Error("expected error with no features")
	}
}
