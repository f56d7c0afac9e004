package engine

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/dbconsole/internal/domain"
	"github.com/kailas-cloud/dbconsole/internal/domain/index"
	"github.com/kailas-cloud/dbconsole/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterEngineMetrics()
	os.Exit(m.Run())
}

func newTestClient(url string) *Client {
	return NewClient(&Config{BaseURL: url + "/", Timeout: 2 * time.Second, Logger: zap.NewNop()})
}

func TestClient_Query(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/query" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		var body struct {
			Query string `json:"query"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body.Query != "SELECT * FROM usuarios" {
			t.Errorf("query = %q", body.Query)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{"headers":["id"],"rows":[["1"]]}}`))
	}))
	defer server.Close()

	before := testutil.ToFloat64(metrics.EngineRequestsTotal.WithLabelValues(EndpointQuery, "ok"))

	env, err := newTestClient(server.URL).Query(context.Background(), "SELECT * FROM usuarios")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if !env.OK {
		t.Error("expected ok envelope")
	}
	if string(env.Result) != `{"headers":["id"],"rows":[["1"]]}` {
		t.Errorf("result = %s", env.Result)
	}

	after := testutil.ToFloat64(metrics.EngineRequestsTotal.WithLabelValues(EndpointQuery, "ok"))
	if after-before != 1 {
		t.Errorf("engine_requests_total delta = %f, want 1", after-before)
	}
}

func TestClient_Query_RemoteErrorPassesThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":false,"error":"syntax error"}`))
	}))
	defer server.Close()

	env, err := newTestClient(server.URL).Query(context.Background(), "SELEC")
	if err != nil {
		t.Fatalf("unexpected transport error: %v", err)
	}
	if env.OK || env.Error != "syntax error" {
		t.Errorf("envelope = %+v", env)
	}
}

func TestClient_Non2xxEnvelopeIsNotTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"ok":false,"error":"Error procesando archivo: bad csv"}`))
	}))
	defer server.Close()

	up, err := newTestClient(server.URL).Upload(context.Background(), "data.csv", "t", strings.NewReader("a,b\n1,2\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if up.OK || up.Error != "Error procesando archivo: bad csv" {
		t.Errorf("upload = %+v", up)
	}
}

func TestClient_Non2xxWithoutEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Query(context.Background(), "SELECT 1")
	if !errors.Is(err, domain.ErrRemoteFailure) {
		t.Fatalf("err = %v, want ErrRemoteFailure", err)
	}
	if _, ok := domain.RemoteMessage(err); ok {
		t.Error("transport failure must not carry an engine message")
	}
}

func TestClient_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Query(context.Background(), "SELECT 1")
	if !errors.Is(err, domain.ErrMalformedResponse) {
		t.Errorf("err = %v, want ErrMalformedResponse", err)
	}
}

func TestClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	before := testutil.ToFloat64(metrics.EngineErrorsTotal.WithLabelValues(EndpointQuery, "transport"))

	_, err := newTestClient(url).Query(context.Background(), "SELECT 1")
	if !errors.Is(err, domain.ErrRemoteFailure) {
		t.Fatalf("err = %v, want ErrRemoteFailure", err)
	}

	after := testutil.ToFloat64(metrics.EngineErrorsTotal.WithLabelValues(EndpointQuery, "transport"))
	if after-before != 1 {
		t.Errorf("engine_errors_total delta = %f, want 1", after-before)
	}
}

func TestClient_CreateIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/create_index" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["index_type"] != "btree" || body["table_name"] != "Restaurantes" {
			t.Errorf("body = %v", body)
		}
		_, _ = w.Write([]byte(`{"ok":true,"message":"Índice btree creado en tabla Restaurantes"}`))
	}))
	defer server.Close()

	env, err := newTestClient(server.URL).CreateIndex(context.Background(), "Restaurantes", index.BTree)
	if err != nil {
		t.Fatalf("CreateIndex failed: %v", err)
	}
	if !env.OK || env.Message != "Índice btree creado en tabla Restaurantes" {
		t.Errorf("envelope = %+v", env)
	}
}

func TestClient_UploadMultipart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		if got := r.FormValue("table_name"); got != "usuarios" {
			t.Errorf("table_name = %q", got)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		defer f.Close()
		content, _ := io.ReadAll(f)
		if hdr.Filename != "usuarios.csv" || string(content) != "id,nombre\n1,Ana\n" {
			t.Errorf("file = %s %q", hdr.Filename, content)
		}
		_, _ = w.Write([]byte(`{"ok":true,"fileName":"usuarios.csv","tableName":"usuarios","recordCount":1,"inserted":1,"failed":0,"headers":["id","nombre"],"rows":[["1","Ana"]]}`))
	}))
	defer server.Close()

	up, err := newTestClient(server.URL).Upload(context.Background(), "usuarios.csv", "usuarios", strings.NewReader("id,nombre\n1,Ana\n"))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if !up.OK || up.RecordCount != 1 || up.Inserted != 1 || up.TableName != "usuarios" {
		t.Errorf("upload = %+v", up)
	}
}

func TestClient_Health(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/health" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"status":"ok","message":"Backend funcionando correctamente"}`))
	}))
	defer server.Close()

	h, err := newTestClient(server.URL).Health(context.Background())
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if h.Status != "ok" {
		t.Errorf("status = %q", h.Status)
	}
}

func TestClient_RateLimitHonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true,"result":[]}`))
	}))
	defer server.Close()

	c := NewClient(&Config{BaseURL: server.URL, RateLimitRPS: 0.001, RateLimitBurst: 1, Logger: zap.NewNop()})
	if _, err := c.Query(context.Background(), "SELECT 1"); err != nil {
		t.Fatalf("first query: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Query(ctx, "SELECT 1")
	if !errors.Is(err, domain.ErrRemoteFailure) {
		t.Errorf("err = %v, want throttled ErrRemoteFailure", err)
	}
}
