package csv

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.ngs.io/vertint/internal/domain"
)

func TestRead(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []float64
		wantErr bool
	}{
		{
			name:  "single column",
			input: "level\n85000\n50000\n25000\n",
			want:  []float64{85000, 50000, 25000},
		},
		{
			name:  "extra columns and comments",
			input: "name, level\n# surface layer\nlow, 100\nhigh, 5000\n",
			want:  []float64{100, 5000},
		},
		{name: "missing column", input: "height\n100\n", wantErr: true},
		{name: "not a number", input: "level\nabc\n", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(strings.NewReader(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %d levels, got %d", len(tt.want), len(got))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("level %d: expected %v, got %v", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestRead_Empty(t *testing.T) {
	if _, err := Read(strings.NewReader("level\n")); !errors.Is(err, domain.ErrNoLevels) {
		t.Errorf("Expected ErrNoLevels, got %v", err)
	}
}

func TestLevelStore(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "era5_levels.csv"), []byte("level\n100000\n50000\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	s := NewLevelStore(dir)
	names, err := s.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(names) != 1 || names[0] != "era5" {
		t.Errorf("Expected [era5], got %v", names)
	}

	levels, err := s.Load("ERA5")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(levels) != 2 || levels[1] != 50000 {
		t.Errorf("Unexpected levels %v", levels)
	}

	if _, err := s.Load("../era5"); err == nil {
		t.Error("Expected error for path traversal")
	}
	if _, err := s.Load("missing"); err == nil {
		t.Error("Expected error for unknown list")
	}
}
