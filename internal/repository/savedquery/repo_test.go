package savedquery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/dbconsole/internal/db"
	"github.com/kailas-cloud/dbconsole/internal/db/memory"
	"github.com/kailas-cloud/dbconsole/internal/domain"
)

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) Set(ctx context.Context, key string, value []byte) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	return nil
}

func newCounter() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_saved_query_total"}, []string{"result"})
}

func TestRepo_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	total := newCounter()
	r := New(memory.NewStore(), "", total, nil)

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	if err := r.Save(ctx, "SELECT * FROM usuarios", at); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := r.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Query != "SELECT * FROM usuarios" || !got.SavedAt.Equal(at) {
		t.Errorf("saved = %+v", got)
	}
	if v := testutil.ToFloat64(total.WithLabelValues("hit")); v != 1 {
		t.Errorf("hits = %f, want 1", v)
	}
}

func TestRepo_GetMissing(t *testing.T) {
	total := newCounter()
	r := New(&mockKVStore{}, "", total, nil)

	_, err := r.Get(context.Background())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if v := testutil.ToFloat64(total.WithLabelValues("miss")); v != 1 {
		t.Errorf("misses = %f, want 1", v)
	}
}

func TestRepo_KeyPrefix(t *testing.T) {
	var gotKey string
	r := New(&mockKVStore{setFn: func(_ context.Context, key string, _ []byte) error {
		gotKey = key
		return nil
	}}, "console:", nil, nil)

	if err := r.Save(context.Background(), "SELECT 1", time.Now()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if gotKey != "console:saved_query" {
		t.Errorf("key = %q", gotKey)
	}
}

func TestRepo_StoreErrors(t *testing.T) {
	boom := &db.Error{Op: db.OpGet, Err: errors.New("connection reset")}
	r := New(&mockKVStore{
		getFn: func(context.Context, string) ([]byte, error) { return nil, boom },
		setFn: func(context.Context, string, []byte) error { return boom },
	}, "", nil, nil)

	if _, err := r.Get(context.Background()); !errors.Is(err, boom) || errors.Is(err, domain.ErrNotFound) {
		t.Errorf("get err = %v", err)
	}
	if err := r.Save(context.Background(), "q", time.Now()); !errors.Is(err, boom) {
		t.Errorf("save err = %v", err)
	}
}

func TestRepo_LegacyPlainValue(t *testing.T) {
	r := New(&mockKVStore{getFn: func(context.Context, string) ([]byte, error) {
		return []byte("SELECT nombre FROM usuarios"), nil
	}}, "", nil, nil)

	got, err := r.Get(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Query != "SELECT nombre FROM usuarios" {
		t.Errorf("query = %q", got.Query)
	}
}
