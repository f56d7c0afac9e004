package adapter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"

	"github.com/kailas-cloud/dbconsole/internal/domain"
)

// cell is one raw JSON value from a result row.
type cell json.RawMessage

// String renders the cell for display: strings unquoted, numbers as sent,
// null as empty, nested values as compact JSON.
func (c cell) String() string {
	raw := bytes.TrimSpace(c)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case 'n':
		return ""
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return string(raw)
		}
		return s
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return string(raw)
		}
		return buf.String()
	default:
		return string(raw)
	}
}

// decimalRe is the plain decimal form; ParseFloat alone would also take
// hex floats, underscores, Inf and NaN.
var decimalRe = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// Float parses the cell as a decimal number, accepting numeric strings.
func (c cell) Float() (float64, error) {
	s := c.String()
	if s == "" {
		return 0, errors.New("empty value")
	}
	if !decimalRe.MatchString(s) {
		return 0, fmt.Errorf("not a decimal number: %q", s)
	}
	return strconv.ParseFloat(s, 64)
}

// rawTable is the shape-independent form every result is decoded into first.
type rawTable struct {
	headers []string
	rows    [][]cell
	// fromObjects marks a result that was a plain array of objects.
	fromObjects bool
}

// rowsObject is the explicit `{headers, rows}` result shape.
type rowsObject struct {
	Headers []string          `json:"headers"`
	Rows    []json.RawMessage `json:"rows"`
}

// decodeResult reconciles the shapes the engine sends.
// allowArrays also accepts a bare array of positional rows.
func decodeResult(raw json.RawMessage, allowArrays bool) (*rawTable, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, fmt.Errorf("%w: empty result", domain.ErrMalformedResponse)
	}

	switch raw[0] {
	case '{':
		return decodeRowsObject(raw, allowArrays)
	case '[':
		return decodeArray(raw, allowArrays)
	default:
		return nil, fmt.Errorf("%w: unexpected result of kind %q", domain.ErrMalformedResponse, raw[0])
	}
}

// decodeRowsObject decodes `{headers, rows}`. With lenient set, a row that
// is neither an array nor an object becomes an empty row for the caller to skip.
func decodeRowsObject(raw json.RawMessage, lenient bool) (*rawTable, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedResponse, err)
	}
	if _, ok := fields["rows"]; !ok {
		return nil, fmt.Errorf("%w: result object has no rows", domain.ErrMalformedResponse)
	}

	var obj rowsObject
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedResponse, err)
	}

	t := &rawTable{headers: obj.Headers, rows: make([][]cell, 0, len(obj.Rows))}
	if t.headers == nil {
		t.headers = []string{}
	}
	if err := appendRows(t, obj.Rows, lenient); err != nil {
		return nil, err
	}
	return t, nil
}

func appendRows(t *rawTable, items []json.RawMessage, lenient bool) error {
	for i, it := range items {
		row, err := decodeRow(it)
		switch {
		case err != nil && lenient:
			row = nil
		case err != nil:
			return fmt.Errorf("%w: row %d: %w", domain.ErrMalformedResponse, i, err)
		}
		t.rows = append(t.rows, row)
	}
	return nil
}

func decodeArray(raw json.RawMessage, allowArrays bool) (*rawTable, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedResponse, err)
	}

	t := &rawTable{headers: []string{}, rows: make([][]cell, 0, len(items))}
	if len(items) == 0 {
		return t, nil
	}

	first := bytes.TrimSpace(items[0])
	switch {
	case len(first) > 0 && first[0] == '{':
		t.fromObjects = true
		return decodeObjects(t, items)
	case len(first) > 0 && first[0] == '[' && allowArrays:
		if err := appendRows(t, items, true); err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, fmt.Errorf("%w: result array holds neither objects nor rows", domain.ErrMalformedResponse)
	}
}

// decodeObjects derives headers from the first object's key order and
// projects every object onto them. Missing keys render empty.
func decodeObjects(t *rawTable, items []json.RawMessage) (*rawTable, error) {
	for i, it := range items {
		keys, values, err := orderedObject(it)
		if err != nil {
			return nil, fmt.Errorf("%w: object %d: %w", domain.ErrMalformedResponse, i, err)
		}
		if i == 0 {
			t.headers = keys
		}
		byKey := make(map[string]cell, len(keys))
		for j, k := range keys {
			byKey[k] = values[j]
		}
		row := make([]cell, len(t.headers))
		for j, h := range t.headers {
			row[j] = byKey[h]
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

// decodeRow accepts a positional array or an object (values in key order).
func decodeRow(raw json.RawMessage) ([]cell, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '{' {
		_, values, err := orderedObject(raw)
		return values, err
	}
	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil {
		return nil, err
	}
	row := make([]cell, len(parts))
	for i, p := range parts {
		row[i] = cell(p)
	}
	return row, nil
}

// orderedObject decodes a JSON object keeping key order, which maps lose.
func orderedObject(raw json.RawMessage) ([]string, []cell, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, errors.New("expected object")
	}

	var (
		keys   []string
		values []cell
	)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, errors.New("expected object key")
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, nil, err
		}
		keys = append(keys, key)
		values = append(values, cell(v))
	}
	if _, err := dec.Token(); err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, err
	}
	if keys == nil {
		keys = []string{}
	}
	return keys, values, nil
}
