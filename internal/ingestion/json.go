package ingestion

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/ignite/insight-engine/internal/table"
)

// readJSON accepts an array of records ([{"col": v}, ...]) or a column
// object ({"col": [v, ...]} or {"col": {"0": v, ...}}). Column order follows
// the document.
func readJSON(r io.Reader) (*table.Table, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}
	switch tok {
	case json.Delim('['):
		return readRecords(dec)
	case json.Delim('{'):
		return readColumns(dec)
	default:
		return nil, fmt.Errorf("read json: expected array or object, got %v", tok)
	}
}

func readRecords(dec *json.Decoder) (*table.Table, error) {
	var (
		cols    []string
		seen    = map[string]bool{}
		records []map[string]table.Value
	)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		if tok != json.Delim('{') {
			return nil, fmt.Errorf("read record: expected object, got %v", tok)
		}
		rec := map[string]table.Value{}
		for dec.More() {
			key, err := objectKey(dec)
			if err != nil {
				return nil, err
			}
			var v any
			if err := dec.Decode(&v); err != nil {
				return nil, fmt.Errorf("read %q: %w", key, err)
			}
			if !seen[key] {
				seen[key] = true
				cols = append(cols, key)
			}
			rec[key] = jsonValue(v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		records = append(records, rec)
	}

	t := table.New(cols...)
	for _, rec := range records {
		t.AppendRecord(rec)
	}
	return t, nil
}

func readColumns(dec *json.Decoder) (*table.Table, error) {
	var (
		cols   []string
		values [][]table.Value
		n      int
	)
	for dec.More() {
		key, err := objectKey(dec)
		if err != nil {
			return nil, err
		}
		var raw any
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("read column %q: %w", key, err)
		}
		var col []table.Value
		switch v := raw.(type) {
		case []any:
			for _, x := range v {
				col = append(col, jsonValue(x))
			}
		case map[string]any:
			col = indexedColumn(v)
		default:
			return nil, fmt.Errorf("read column %q: expected array or object", key)
		}
		cols = append(cols, key)
		values = append(values, col)
		n = max(n, len(col))
	}

	t := table.New(cols...)
	for r := 0; r < n; r++ {
		row := make([]table.Value, len(cols))
		for c := range cols {
			if r < len(values[c]) {
				row[c] = values[c][r]
			}
		}
		if err := t.AppendRow(row...); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// indexedColumn orders {"0": v, "1": v, ...} by numeric index, falling back
// to key order for non-numeric keys.
func indexedColumn(m map[string]any) []table.Value {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA == nil && errB == nil {
			return a < b
		}
		return keys[i] < keys[j]
	})
	out := make([]table.Value, len(keys))
	for i, k := range keys {
		out[i] = jsonValue(m[k])
	}
	return out
}

func objectKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", fmt.Errorf("read key: %w", err)
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("read key: unexpected %v", tok)
	}
	return key, nil
}

func jsonValue(v any) table.Value {
	switch x := v.(type) {
	case nil:
		return table.Null()
	case json.Number:
		return table.Parse(x.String())
	case string:
		return table.String(x)
	case bool:
		return table.String(strconv.FormatBool(x))
	default:
		b, _ := json.Marshal(x)
		return table.String(string(b))
	}
}
