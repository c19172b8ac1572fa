package openrouter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/pagination"
)

type fakeLister struct {
	ids   []string
	err   error
	calls int
}

func (f *fakeLister) List(ctx context.Context, opts ...option.RequestOption) (*pagination.Page[openaisdk.Model], error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	page := &pagination.Page[openaisdk.Model]{}
	for _, id := range f.ids {
		page.Data = append(page.Data, openaisdk.Model{ID: id})
	}
	return page, nil
}

func TestModelCatalogOnline(t *testing.T) {
	t.Parallel()

	lister := &fakeLister{ids: []string{"openai/o4-mini", "anthropic/claude-sonnet-4"}}
	catalog := newModelCatalog(lister, time.Minute)

	if !catalog.Online(context.Background(), "openai/o4-mini") {
		t.Fatal("expected listed model to be online")
	}
	if catalog.Online(context.Background(), "missing/model") {
		t.Fatal("expected unlisted model to be offline")
	}
	if lister.calls != 1 {
		t.Fatalf("expected cached listing, got %d calls", lister.calls)
	}
}

func TestModelCatalogRefreshAfterTTL(t *testing.T) {
	t.Parallel()

	lister := &fakeLister{ids: []string{"m1"}}
	catalog := newModelCatalog(lister, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	catalog.now = func() time.Time { return now }

	catalog.Online(context.Background(), "m1")
	now = now.Add(2 * time.Minute)
	lister.ids = []string{"m2"}

	if catalog.Online(context.Background(), "m1") {
		t.Fatal("expected m1 to be offline after refresh")
	}
	if !catalog.Online(context.Background(), "m2") {
		t.Fatal("expected m2 to be online after refresh")
	}
	if lister.calls != 2 {
		t.Fatalf("expected 2 list calls, got %d", lister.calls)
	}
}

func TestModelCatalogListErrorIsOffline(t *testing.T) {
	t.Parallel()

	catalog := newModelCatalog(&fakeLister{err: errors.New("boom")}, time.Minute)
	if catalog.Online(context.Background(), "m1") {
		t.Fatal("expected offline when listing fails")
	}
}

func TestModelCatalogOverHTTP(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models") {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("Authorization = %q, want %q", got, "Bearer key")
		}
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"object":"list","data":[{"id":"openai/o4-mini","object":"model","created":0,"owned_by":"openai"}]}`)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL, APIKey: "key"},
		option.WithHTTPClient(server.Client()),
		option.WithMaxRetries(0),
	)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	catalog := NewModelCatalog(client, time.Minute)
	if !catalog.Online(context.Background(), "openai/o4-mini") {
		t.Fatal("expected model to be online")
	}
	if catalog.Online(context.Background(), "other/model") {
		t.Fatal("expected other model to be offline")
	}
	if hits.Load() != 1 {
		t.Fatalf("expected 1 request, got %d", hits.Load())
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Config{BaseURL: "https://openrouter.ai/api/v1"}); err == nil {
		t.Fatal("expected error for empty api key")
	}
}
