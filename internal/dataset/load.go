package dataset

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/xuri/excelize/v2"

	"github.com/ni-sh-a-char/financer/internal/httputil"
	"github.com/ni-sh-a-char/financer/internal/monitoring"
)

// ReadCSV parses CSV from r into a Table with detected column types.
func ReadCSV(r io.Reader) (*Table, error) {
	df := dataframe.ReadCSV(r, dataframe.HasHeader(true), dataframe.DetectTypes(true))
	return FromDataFrame(df)
}

// ReadUpload parses an uploaded file. CSV is attempted first; on failure the
// bytes are re-parsed as an Excel workbook. If both fail the error is
// ErrNotTabular — the caller only learns that the file was unusable, the
// underlying parse errors are logged.
func ReadUpload(name string, r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("dataset: read upload %s: %w", name, err)
	}

	t, csvErr := ReadCSV(bytes.NewReader(data))
	if csvErr == nil {
		return t, nil
	}

	t, xlsErr := readExcel(data)
	if xlsErr == nil {
		return t, nil
	}

	monitoring.Logf("upload %s: csv parse: %v; excel parse: %v", name, csvErr, xlsErr)
	return nil, ErrNotTabular
}

// readExcel parses the first sheet of an xlsx workbook into a Table.
func readExcel(data []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("dataset: open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("dataset: workbook has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("dataset: read sheet %s: %w", sheet, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("dataset: sheet %s has no data rows", sheet)
	}

	// Trailing empty cells are omitted by the xlsx reader; pad rows to the
	// header width so the dataframe loader sees a rectangle.
	width := len(rows[0])
	for i, row := range rows {
		for len(row) < width {
			row = append(row, "")
		}
		rows[i] = row[:width]
	}

	df := dataframe.LoadRecords(rows, dataframe.HasHeader(true), dataframe.DetectTypes(true))
	return FromDataFrame(df)
}

// LoadFile reads a CSV file from disk.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %s: %w", path, err)
	}
	defer f.Close()
	t, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("dataset: parse %s: %w", path, err)
	}
	return t, nil
}

// FetchURL retrieves a remote CSV. There is no retry: the real-time branch
// treats the remote dataset as a best-effort dependency.
func FetchURL(ctx context.Context, client httputil.HTTPClient, url string) (*Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dataset: build request for %s: %w", url, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dataset: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dataset: fetch %s: unexpected status %d", url, resp.StatusCode)
	}
	t, err := ReadCSV(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("dataset: parse %s: %w", url, err)
	}
	return t, nil
}
