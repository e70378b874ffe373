package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrTableNotFound is returned by a Source when the named table does not exist.
var ErrTableNotFound = errors.New("table not found")

// Source is a tabular data source holding named tables. Table returns the raw rows,
// header row first.
type Source interface {
	Table(name string) ([][]string, error)
}

// Open picks a Source for path: a directory of CSV files or a workbook file.
func Open(path string) (Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &LoadError{Kind: MissingTable, Err: err}
		}
		return nil, &LoadError{Kind: Malformed, Err: err}
	}
	if info.IsDir() {
		return NewCSVSource(path), nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		wb, err := OpenWorkbook(path)
		if err != nil {
			return nil, err
		}
		return wb, nil
	default:
		return nil, &LoadError{Kind: Malformed, Err: fmt.Errorf("unsupported catalog source %q", path)}
	}
}

// CSVSource reads each table from <dir>/<TableName>.csv, falling back to the snake_case
// file name (bank_accounts.csv).
type CSVSource struct {
	dir string
}

// NewCSVSource reads tables from CSV files in dir.
func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{dir: dir}
}

// Table reads <name>.csv, falling back to the snake_case file name.
func (s *CSVSource) Table(name string) ([][]string, error) {
	for _, fileName := range []string{name + ".csv", snakeCase(name) + ".csv"} {
		f, err := os.Open(filepath.Join(s.dir, fileName))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", fileName, err)
		}

		rows, err := csv.NewReader(f).ReadAll()
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", fileName, err)
		}
		return rows, nil
	}
	return nil, fmt.Errorf("%s.csv in %s: %w", name, s.dir, ErrTableNotFound)
}

// WorkbookSource holds every sheet of a spreadsheet, keyed by sheet name.
type WorkbookSource struct {
	sheets map[string][][]string
}

// OpenWorkbook reads all sheets of the workbook at path into memory.
func OpenWorkbook(path string) (*WorkbookSource, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &LoadError{Kind: Malformed, Err: fmt.Errorf("open workbook: %w", err)}
	}
	defer f.Close()

	sheets := make(map[string][][]string)
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, &LoadError{Kind: Malformed, Table: name, Err: fmt.Errorf("read sheet: %w", err)}
		}
		sheets[name] = rows
	}
	return &WorkbookSource{sheets: sheets}, nil
}

// Table returns every row of the sheet called name.
func (w *WorkbookSource) Table(name string) ([][]string, error) {
	rows, ok := w.sheets[name]
	if !ok {
		return nil, fmt.Errorf("sheet %s: %w", name, ErrTableNotFound)
	}
	// GetRows trims trailing empty cells, so short rows are padded later.
	return rows, nil
}

func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
