package table

import "testing"

func TestCSV(t *testing.T) {
	r := Result{
		Headers: []string{"id", "name"},
		Rows:    [][]string{{"1", "Ana"}, {"2", "López, Carlos"}},
	}
	got, err := r.CSV()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "id,name\n1,Ana\n2,\"López, Carlos\"\n"
	if string(got) != want {
		t.Errorf("CSV() = %q, want %q", got, want)
	}
	if r.RowCount() != 2 {
		t.Errorf("RowCount() = %d", r.RowCount())
	}
}

func TestCSV_Empty(t *testing.T) {
	r := Result{Headers: []string{"a"}}
	got, err := r.CSV()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != "a\n" {
		t.Errorf("CSV() = %q", got)
	}
}
