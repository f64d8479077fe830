package security

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidatePathWithinDirectory(t *testing.T) {
	tmpDir := t.TempDir()

	safeDir := filepath.Join(tmpDir, "data")
	if err := os.MkdirAll(safeDir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	inside := filepath.Join(safeDir, "all_stocks_5yr.csv")
	if err := os.WriteFile(inside, []byte("date,Name\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"file inside safe dir", inside, false},
		{"relative escape", filepath.Join(safeDir, "..", "outside.csv"), true},
		{"absolute outside", filepath.Join(tmpDir, "outside.csv"), true},
		{"nested missing file", filepath.Join(safeDir, "sub", "new.csv"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePathWithinDirectory(tt.path, safeDir)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePathWithinDirectory(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"portfolio.xlsx", "portfolio.xlsx"},
		{"my data (final).csv", "my_data_final_.csv"},
		{"../../etc/passwd", "etc_passwd"},
		{"", "unknown"},
		{"___", "unknown"},
	}

	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
