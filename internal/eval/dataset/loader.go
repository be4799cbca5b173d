package dataset

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/parquet-go/parquet-go"
)

// Loader handles loading of recorded intake datasets
type Loader struct {
	datasetPath string
}

// NewLoader creates a new dataset loader. The path may be a .parquet file,
// a .jsonl file, a single .json record or a glob such as "intakes/**/*.json".
func NewLoader(datasetPath string) *Loader {
	return &Loader{
		datasetPath: datasetPath,
	}
}

// Load loads every record in the dataset
func (l *Loader) Load() ([]IntakeRecord, error) {
	return l.LoadSample(-1)
}

// LoadSample loads at most limit records. A negative limit loads everything.
func (l *Loader) LoadSample(limit int) ([]IntakeRecord, error) {
	if isGlob(l.datasetPath) {
		return l.loadGlob(limit)
	}

	ext := strings.ToLower(filepath.Ext(l.datasetPath))
	switch ext {
	case ".parquet":
		return l.loadParquet(limit)
	case ".jsonl":
		return l.loadJSONL(limit)
	case ".json":
		record, err := loadJSONFile(l.datasetPath)
		if err != nil {
			return nil, err
		}
		return []IntakeRecord{record}, nil
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .parquet, .jsonl, .json, glob)", ext)
	}
}

func isGlob(path string) bool {
	return strings.ContainsAny(path, "*?[{")
}

func reachedLimit(n, limit int) bool {
	return limit >= 0 && n >= limit
}

// loadJSONL loads records from a JSONL file
func (l *Loader) loadJSONL(limit int) ([]IntakeRecord, error) {
	slog.Debug("Opening JSONL file", "path", l.datasetPath)

	file, err := os.Open(l.datasetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer file.Close()

	var records []IntakeRecord
	scanner := bufio.NewScanner(file)

	const maxCapacity = 1024 * 1024 // 1MB per line
	scanner.Buffer(make([]byte, 64*1024), maxCapacity)

	lineNum := 0
	for scanner.Scan() && !reachedLimit(len(records), limit) {
		lineNum++
		line := scanner.Bytes()

		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		var record IntakeRecord
		if err := json.Unmarshal(line, &record); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}
		if record.ID == "" {
			record.ID = fmt.Sprintf("line-%d", lineNum)
		}

		records = append(records, record)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading dataset: %w", err)
	}

	slog.Debug("Finished reading JSONL file", "total_records", len(records), "total_lines", lineNum)

	return records, nil
}

// loadParquet loads records from a Parquet file
func (l *Loader) loadParquet(limit int) ([]IntakeRecord, error) {
	slog.Debug("Opening Parquet file", "path", l.datasetPath)

	file, err := os.Open(l.datasetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	slog.Debug("Parquet file opened", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[IntakeRecord](pf)
	defer reader.Close()

	var records []IntakeRecord
	rows := make([]IntakeRecord, 128)

	for !reachedLimit(len(records), limit) {
		n, err := reader.Read(rows)
		if n > 0 {
			if limit >= 0 && n > limit-len(records) {
				n = limit - len(records)
			}
			records = append(records, rows[:n]...)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}

	slog.Debug("Finished reading Parquet file", "total_records", len(records))

	return records, nil
}

// loadGlob loads one record per JSON file matched by the pattern, in
// lexical path order
func (l *Loader) loadGlob(limit int) ([]IntakeRecord, error) {
	matches, err := doublestar.FilepathGlob(l.datasetPath, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("invalid dataset glob %q: %w", l.datasetPath, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no files match %s", l.datasetPath)
	}
	slices.Sort(matches)

	slog.Debug("Dataset glob matched", "pattern", l.datasetPath, "files", len(matches))

	var records []IntakeRecord
	for _, path := range matches {
		if reachedLimit(len(records), limit) {
			break
		}
		record, err := loadJSONFile(path)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func loadJSONFile(path string) (IntakeRecord, error) {
	var record IntakeRecord

	data, err := os.ReadFile(path)
	if err != nil {
		return record, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &record); err != nil {
		return record, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if record.ID == "" {
		record.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return record, nil
}
