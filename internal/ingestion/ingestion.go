// Package ingestion loads campaign records from files, directories, SQL
// databases and S3 into a table.Table. Cells are typed on the way in: empty
// fields become null, anything that parses as a float becomes a number, the
// rest stay strings. Date parsing happens later in preprocess.
package ingestion

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ignite/insight-engine/internal/pkg/logger"
	"github.com/ignite/insight-engine/internal/table"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrNoFiles           = errors.New("no matching files")
	ErrFileNotFound      = errors.New("file not found")
)

// Format is a supported input encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// FormatOf maps a file name or object key to its format by extension.
func FormatOf(name string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%q: %w", ext, ErrUnsupportedFormat)
	}
}

// ParseFormat accepts a format name or a MIME type such as "text/csv".
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	switch s {
	case "csv", "text/csv", "application/csv":
		return FormatCSV, nil
	case "json", "application/json":
		return FormatJSON, nil
	case "xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrUnsupportedFormat)
	}
}

// Read decodes one document in the given format.
func Read(r io.Reader, format Format) (*table.Table, error) {
	switch format {
	case FormatCSV:
		return readCSV(r)
	case FormatXLSX:
		return readXLSX(r)
	case FormatJSON:
		return readJSON(r)
	default:
		return nil, fmt.Errorf("%q: %w", format, ErrUnsupportedFormat)
	}
}

// ReadBytes is Read over an in-memory document.
func ReadBytes(data []byte, format Format) (*table.Table, error) {
	return Read(bytes.NewReader(data), format)
}

// LoadFile reads a CSV, XLSX or JSON file chosen by extension.
func LoadFile(path string) (*table.Table, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrFileNotFound)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	t, err := Read(f, format)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", filepath.Base(path), err)
	}
	logger.Info("loaded file", "file", filepath.Base(path), "rows", t.Len(), "columns", len(t.Columns()))
	return t, nil
}

// LoadDirectory loads every file in dir matching pattern (default "*.csv"),
// in name order, and concatenates them.
func LoadDirectory(dir, pattern string) (*table.Table, error) {
	if pattern == "" {
		pattern = "*.csv"
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", dir, ErrFileNotFound)
	}
	files, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%q in %s: %w", pattern, dir, ErrNoFiles)
	}
	sort.Strings(files)

	parts := make([]*table.Table, 0, len(files))
	for _, f := range files {
		t, err := LoadFile(f)
		if err != nil {
			return nil, err
		}
		parts = append(parts, t)
	}
	combined := Concat(parts...)
	logger.Info("combined files", "files", len(files), "rows", combined.Len())
	return combined, nil
}

// Load reads a single file, or every matching file when path is a directory.
func Load(path, pattern string) (*table.Table, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, ErrFileNotFound)
	}
	if info.IsDir() {
		return LoadDirectory(path, pattern)
	}
	return LoadFile(path)
}

// Concat stacks tables row-wise. Columns are the union in first-seen order;
// cells a part does not have are null.
func Concat(parts ...*table.Table) *table.Table {
	var cols []string
	seen := map[string]bool{}
	for _, p := range parts {
		for _, c := range p.Columns() {
			if !seen[c] {
				seen[c] = true
				cols = append(cols, c)
			}
		}
	}
	out := table.New(cols...)
	for _, p := range parts {
		pc := p.Columns()
		for r := 0; r < p.Len(); r++ {
			row := p.Row(r)
			rec := make(map[string]table.Value, len(pc))
			for i, c := range pc {
				rec[c] = row[i]
			}
			out.AppendRecord(rec)
		}
	}
	return out
}

// fromRows builds a table from a header row plus data rows of raw text.
// Short rows are padded with nulls; cells beyond the header are dropped.
func fromRows(rows [][]string) (*table.Table, error) {
	if len(rows) == 0 {
		return table.New(), nil
	}
	header := make([]string, len(rows[0]))
	seen := map[string]int{}
	for i, h := range rows[0] {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		// repeated names get a ".N" suffix
		if n := seen[name]; n > 0 {
			seen[name]++
			name = fmt.Sprintf("%s.%d", name, n)
		} else {
			seen[name] = 1
		}
		header[i] = name
	}
	t := table.New(header...)
	width := len(t.Columns())
	for _, raw := range rows[1:] {
		if isBlank(raw) {
			continue
		}
		cells := make([]table.Value, 0, width)
		for i := 0; i < len(raw) && i < width; i++ {
			cells = append(cells, table.Parse(strings.TrimSpace(raw[i])))
		}
		if err := t.AppendRow(cells...); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
