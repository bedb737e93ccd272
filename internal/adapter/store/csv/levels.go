// Package csv provides CSV-based target level lists.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.ngs.io/vertint/internal/domain"
)

const (
	levelColumn = "level"
	levelSuffix = "_levels.csv"
)

// LevelStore provides access to named level lists stored as "<name>_levels.csv" files
// with a "level" column.
type LevelStore struct {
	dataDir string
}

// NewLevelStore creates a new CSV-based level store.
func NewLevelStore(dataDir string) *LevelStore {
	return &LevelStore{
		dataDir: dataDir,
	}
}

// Load loads the level list with the given name.
func (s *LevelStore) Load(name string) ([]float64, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return nil, fmt.Errorf("invalid level list name %q", name)
	}
	return LoadFile(filepath.Join(s.dataDir, strings.ToLower(name)+levelSuffix))
}

// List returns the names of the available level lists.
func (s *LevelStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	names := make([]string, 0)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if name := entry.Name(); strings.HasSuffix(name, levelSuffix) {
			names = append(names, strings.TrimSuffix(name, levelSuffix))
		}
	}
	return names, nil
}

// LoadFile reads a level list from a CSV file. The header must contain a "level" column;
// other columns are ignored. Levels keep their file order.
func LoadFile(path string) ([]float64, error) {
	//nolint:gosec // G304: Path comes from the command line or the configured data directory.
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open level file: %w", err)
	}
	defer func() { _ = file.Close() }()
	return Read(file)
}

// Read parses a level list from CSV.
func Read(r io.Reader) ([]float64, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.Comment = '#'
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	col := -1
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), levelColumn) {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("invalid CSV header: no %q column in %v", levelColumn, header)
	}

	levels := make([]float64, 0)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}
		if col >= len(record) {
			return nil, fmt.Errorf("invalid CSV record on line %d: missing %q column", line, levelColumn)
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(record[col]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid level on line %d: %w", line, err)
		}
		levels = append(levels, value)
	}

	if len(levels) == 0 {
		return nil, domain.ErrNoLevels
	}
	return levels, nil
}
