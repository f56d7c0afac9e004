package dbconsole

import (
	"strings"
	"testing"
)

type usuario struct {
	ID     int     `dbconsole:"id,required"`
	Nombre string  `dbconsole:"nombre"`
	Edad   int
	Lat    float64 `dbconsole:"latitud"`
	Activo bool    `dbconsole:"activo"`
	Notas  string  `dbconsole:"-"`
}

func TestScanRows(t *testing.T) {
	tbl := Table{
		Headers: []string{"ID", "nombre", "edad", "latitud", "activo", "ciudad"},
		Rows: [][]string{
			{"1", "Ana", "31", "-12.0464", "true", "Lima"},
			{"2", "Luis", "", "", "false", "Cusco"},
		},
	}

	got, err := ScanRows[usuario](tbl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("rows = %d, want 2", len(got))
	}
	want := usuario{ID: 1, Nombre: "Ana", Edad: 31, Lat: -12.0464, Activo: true}
	if got[0] != want {
		t.Errorf("row 0 = %+v, want %+v", got[0], want)
	}
	if got[1].Edad != 0 || got[1].Lat != 0 || got[1].Nombre != "Luis" {
		t.Errorf("row 1 = %+v", got[1])
	}
}

func TestScanRows_ShortRow(t *testing.T) {
	tbl := Table{Headers: []string{"id", "nombre"}, Rows: [][]string{{"7"}}}
	got, err := ScanRows[usuario](tbl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0].ID != 7 || got[0].Nombre != "" {
		t.Errorf("row = %+v", got[0])
	}
}

func TestScanRows_Errors(t *testing.T) {
	tests := []struct {
		name string
		tbl  Table
		want string
	}{
		{
			name: "missing required column",
			tbl:  Table{Headers: []string{"nombre"}, Rows: [][]string{{"Ana"}}},
			want: `required column "id"`,
		},
		{
			name: "bad number",
			tbl:  Table{Headers: []string{"id", "edad"}, Rows: [][]string{{"1", "treinta"}}},
			want: `row 0 column "Edad"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ScanRows[usuario](tt.tbl)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestScanRows_InvalidSchema(t *testing.T) {
	type dup struct {
		A string `dbconsole:"x"`
		B string `dbconsole:"X"`
	}
	if _, err := ScanRows[dup](Table{}); err == nil {
		t.Error("expected error for duplicate column mapping")
	}

	type badModifier struct {
		A string `dbconsole:"a,index"`
	}
	if _, err := ScanRows[badModifier](Table{}); err == nil {
		t.Error("expected error for unknown modifier")
	}

	type nested struct {
		A []string `dbconsole:"a"`
	}
	if _, err := ScanRows[nested](Table{}); err == nil {
		t.Error("expected error for slice field")
	}

	if _, err := ScanRows[int](Table{}); err == nil {
		t.Error("expected error for non-struct type")
	}
}
