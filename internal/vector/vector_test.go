package vector_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/srimichael20/AutoClose-AI/internal/vector"
)

type fakeEmbedder struct {
	calls int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	return []float32{0.1, 0.2, 0.3}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEmbeddingCacheFIFO(t *testing.T) {
	cache := vector.NewEmbeddingCache(2)

	cache.Put("first", []float32{1})
	cache.Put("second", []float32{2})
	cache.Put("third", []float32{3})

	if cache.Len() != 2 {
		t.Errorf("len = %d, want 2", cache.Len())
	}
	if _, ok := cache.Get("first"); ok {
		t.Error("oldest entry should have been evicted")
	}
	if vec, ok := cache.Get("third"); !ok || vec[0] != 3 {
		t.Errorf("newest entry missing or wrong: %v %v", vec, ok)
	}
}

func TestStoreCachesEmbeddings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/collections/documents/points/search":
			fmt.Fprint(w, `{"result": []}`)
		default:
			fmt.Fprint(w, `{"status": "ok"}`)
		}
	}))
	defer server.Close()

	embedder := &fakeEmbedder{}
	client := vector.NewQdrantClient(server.URL, "documents", time.Second)
	cache := vector.NewEmbeddingCache(16)
	store := vector.NewStore(embedder, client, cache, discardLogger())

	ctx := context.Background()
	if err := store.Add(ctx, "office supplies invoice", map[string]any{"category": "expense"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := store.Search(ctx, "office supplies invoice", 3); err != nil {
		t.Fatalf("Search: %v", err)
	}

	if embedder.calls != 1 {
		t.Errorf("embedder calls = %d, want 1 (second lookup cached)", embedder.calls)
	}
}

func TestStoreSearchParsesNeighbors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/collections/documents/points/search" {
			var req map[string]any
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode search request: %v", err)
			}
			if req["with_payload"] != true {
				t.Error("expected with_payload: true")
			}
			fmt.Fprint(w, `{"result": [
				{"score": 0.91, "payload": {"content": "Staples receipt", "category": "expense", "amount": 150.0}}
			]}`)
			return
		}
		fmt.Fprint(w, `{"status": "ok"}`)
	}))
	defer server.Close()

	store := vector.NewStore(
		&fakeEmbedder{},
		vector.NewQdrantClient(server.URL, "documents", time.Second),
		nil,
		discardLogger(),
	)

	neighbors, err := store.Search(context.Background(), "receipt", 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(neighbors) != 1 {
		t.Fatalf("neighbors = %d, want 1", len(neighbors))
	}
	if neighbors[0].Content != "Staples receipt" {
		t.Errorf("content = %q", neighbors[0].Content)
	}
	if neighbors[0].Metadata["category"] != "expense" {
		t.Errorf("category = %v", neighbors[0].Metadata["category"])
	}
	if neighbors[0].Metadata["score"] != 0.91 {
		t.Errorf("score = %v", neighbors[0].Metadata["score"])
	}
}

func TestEmbedderRequestShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("path = %q, want /api/embed", r.URL.Path)
		}
		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "nomic-embed-text" {
			t.Errorf("model = %q", req.Model)
		}
		if len(req.Input) != 1 || req.Input[0] != "hello" {
			t.Errorf("input = %v", req.Input)
		}
		fmt.Fprint(w, `{"embeddings": [[0.5, 0.25]]}`)
	}))
	defer server.Close()

	embedder := vector.NewEmbedder(server.URL, "nomic-embed-text", time.Second)
	vec, err := embedder.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 2 || vec[0] != 0.5 {
		t.Errorf("vec = %v", vec)
	}
}
