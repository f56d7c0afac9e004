package dbconsole

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

const tagKey = "dbconsole"

// rowSchema holds parsed struct tag metadata for one destination type.
type rowSchema struct {
	typ    reflect.Type
	fields []columnMapping
}

type columnMapping struct {
	structIdx int
	column    string
	required  bool
}

// ScanRows decodes table rows into values of T by column name.
//
//	type Usuario struct {
//	    ID     int     `dbconsole:"id,required"`
//	    Nombre string  `dbconsole:"nombre"`
//	    Edad   int     // matched to "edad" case-insensitively
//	    Extra  string  `dbconsole:"-"`
//	}
//	users, err := dbconsole.ScanRows[Usuario](res.Table)
//
// Empty cells leave the field at its zero value. Columns without a field are ignored.
func ScanRows[T any](t Table) ([]T, error) {
	schema, err := parseRowSchema[T]()
	if err != nil {
		return nil, err
	}

	cols := make([]int, len(schema.fields))
	for i, f := range schema.fields {
		cols[i] = columnIndex(t.Headers, f.column)
		if cols[i] == -1 && f.required {
			return nil, fmt.Errorf("dbconsole: required column %q missing from result", f.column)
		}
	}

	out := make([]T, 0, len(t.Rows))
	for r, row := range t.Rows {
		v := reflect.New(schema.typ).Elem()
		for i, f := range schema.fields {
			c := cols[i]
			if c == -1 || c >= len(row) || row[c] == "" {
				continue
			}
			if err := setCell(v.Field(f.structIdx), row[c]); err != nil {
				return nil, fmt.Errorf("dbconsole: row %d column %q: %w", r, f.column, err)
			}
		}
		out = append(out, v.Interface().(T))
	}
	return out, nil
}

// parseRowSchema reflects on T and extracts dbconsole struct tag metadata.
func parseRowSchema[T any]() (*rowSchema, error) {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("dbconsole: type %v is not a struct", t)
	}

	schema := &rowSchema{typ: t}
	seen := make(map[string]string)
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get(tagKey)
		if tag == "-" {
			continue
		}
		m, err := applyTag(i, f.Name, tag)
		if err != nil {
			return nil, err
		}
		key := strings.ToLower(m.column)
		if prev, ok := seen[key]; ok {
			return nil, fmt.Errorf("dbconsole: column %q mapped by both %s and %s", m.column, prev, f.Name)
		}
		seen[key] = f.Name
		if !settable(f.Type.Kind()) {
			return nil, fmt.Errorf("dbconsole: field %s has unsupported type %s", f.Name, f.Type)
		}
		schema.fields = append(schema.fields, m)
	}
	return schema, nil
}

// applyTag processes a single struct field's dbconsole tag.
func applyTag(idx int, fieldName, tag string) (columnMapping, error) {
	parts := strings.SplitN(tag, ",", 2)
	m := columnMapping{structIdx: idx, column: parts[0]}
	if m.column == "" {
		m.column = fieldName
	}
	if len(parts) == 2 {
		switch parts[1] {
		case "required":
			m.required = true
		case "":
		default:
			return columnMapping{}, fmt.Errorf("dbconsole: unknown modifier %q on field %s", parts[1], fieldName)
		}
	}
	return m, nil
}

// columnIndex finds column in headers, exact match first, then case-insensitive.
func columnIndex(headers []string, column string) int {
	for i, h := range headers {
		if h == column {
			return i
		}
	}
	for i, h := range headers {
		if strings.EqualFold(h, column) {
			return i
		}
	}
	return -1
}

func settable(k reflect.Kind) bool {
	switch k {
	case reflect.String, reflect.Bool,
		reflect.Float32, reflect.Float64,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	default:
		return false
	}
}

func setCell(v reflect.Value, s string) error {
	switch v.Kind() {
	case reflect.String:
		v.SetString(s)
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		v.SetBool(b)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetFloat(f)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetUint(n)
	}
	return nil
}
