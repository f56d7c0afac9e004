package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/kailas-cloud/dbconsole/internal/domain"
	"github.com/kailas-cloud/dbconsole/internal/domain/envelope"
)

// --- Mocks ---

type mockEngine struct {
	resp     envelope.Upload
	err      error
	called   bool
	fileName string
	table    string
	body     string
}

func (m *mockEngine) Upload(_ context.Context, fileName, table string, r io.Reader) (envelope.Upload, error) {
	m.called = true
	m.fileName = fileName
	m.table = table
	b, _ := io.ReadAll(r)
	m.body = string(b)
	return m.resp, m.err
}

// --- Tests ---

func TestUpload_DefaultsAndPreviewCap(t *testing.T) {
	rows := make([][]string, 15)
	for i := range rows {
		rows[i] = []string{fmt.Sprint(i)}
	}
	eng := &mockEngine{resp: envelope.Upload{OK: true, RecordCount: 15, Inserted: 15, Headers: []string{"id"}, Rows: rows}}
	svc := New(eng, nil)

	up, err := svc.Upload(context.Background(), "datos.CSV", "  ", 2048, strings.NewReader("id\n1\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eng.table != DefaultTable || up.TableName != DefaultTable {
		t.Errorf("table = %q / %q, want %q", eng.table, up.TableName, DefaultTable)
	}
	if eng.body != "id\n1\n" {
		t.Errorf("body = %q", eng.body)
	}
	if len(up.Rows) != PreviewRows {
		t.Errorf("preview rows = %d, want %d", len(up.Rows), PreviewRows)
	}
	if up.FileSize != "2 KB" {
		t.Errorf("file size = %q, want 2 KB", up.FileSize)
	}
}

func TestUpload_RejectsNonCSV(t *testing.T) {
	eng := &mockEngine{}
	_, err := New(eng, nil).Upload(context.Background(), "datos.xlsx", "t", 10, strings.NewReader("x"))
	if !errors.Is(err, domain.ErrUnsupportedFile) {
		t.Fatalf("err = %v, want ErrUnsupportedFile", err)
	}
	if eng.called {
		t.Error("engine must not be called")
	}
}

func TestUpload_RejectsBadTableName(t *testing.T) {
	_, err := New(&mockEngine{}, nil).Upload(context.Background(), "a.csv", "drop table;", 10, strings.NewReader("x"))
	if !errors.Is(err, domain.ErrInvalidParameter) {
		t.Errorf("err = %v, want ErrInvalidParameter", err)
	}
}

func TestUpload_RemoteError(t *testing.T) {
	eng := &mockEngine{resp: envelope.Upload{OK: false, Error: "La tabla 'usuarios' ya existe."}}
	_, err := New(eng, nil).Upload(context.Background(), "u.csv", "usuarios", 10, strings.NewReader("x"))
	if msg, ok := domain.RemoteMessage(err); !ok || msg != "La tabla 'usuarios' ya existe." {
		t.Errorf("err = %v", err)
	}
}

func TestUpload_TransportError(t *testing.T) {
	eng := &mockEngine{err: fmt.Errorf("engine /upload: timeout: %w", domain.ErrRemoteFailure)}
	_, err := New(eng, nil).Upload(context.Background(), "u.csv", "usuarios", 10, strings.NewReader("x"))
	if !errors.Is(err, domain.ErrRemoteFailure) {
		t.Errorf("err = %v, want ErrRemoteFailure", err)
	}
}

func TestPreview(t *testing.T) {
	svc := New(&mockEngine{}, nil)
	res, total, err := svc.Preview(strings.NewReader(string(svc.SampleCSV())), 3)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(res.Rows) != 3 || res.Rows[0][1] != "Juan Pérez" {
		t.Errorf("rows = %v", res.Rows)
	}
	if len(res.Headers) != 6 || res.Headers[5] != "longitud" {
		t.Errorf("headers = %v", res.Headers)
	}
}

func TestPreview_Empty(t *testing.T) {
	_, _, err := New(&mockEngine{}, nil).Preview(strings.NewReader(""), 10)
	if !errors.Is(err, domain.ErrInvalidParameter) {
		t.Errorf("err = %v, want ErrInvalidParameter", err)
	}
}

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 Bytes"},
		{512, "512 Bytes"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{1234567, "1.18 MB"},
		{5 << 30, "5 GB"},
	}
	for _, tc := range tests {
		if got := FormatFileSize(tc.in); got != tc.want {
			t.Errorf("FormatFileSize(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
