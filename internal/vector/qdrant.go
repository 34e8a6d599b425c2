// Package vector indexes document content in Qdrant for semantic
// similarity lookups during classification.
package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Neighbor is a similar indexed document returned from a search.
type Neighbor struct {
	Content  string
	Metadata map[string]any
}

// QdrantClient talks to a Qdrant instance over its REST API.
type QdrantClient struct {
	baseURL    string
	collection string
	httpClient *http.Client

	ensureMu   sync.Mutex
	ensured    bool
	ensuredDim int
}

func NewQdrantClient(baseURL, collection string, timeout time.Duration) *QdrantClient {
	return &QdrantClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Upsert indexes a single document vector with its payload.
func (c *QdrantClient) Upsert(ctx context.Context, vec []float32, payload map[string]any) error {
	if len(vec) == 0 {
		return fmt.Errorf("empty vector")
	}

	if err := c.ensureCollection(ctx, len(vec)); err != nil {
		return err
	}

	reqBody := map[string]any{
		"points": []map[string]any{
			{
				"id":      uuid.NewString(),
				"vector":  vec,
				"payload": payload,
			},
		},
	}

	url := fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, c.collection)
	return c.send(ctx, http.MethodPut, url, reqBody, nil)
}

// Search returns up to limit neighbors of vec with their payloads.
func (c *QdrantClient) Search(ctx context.Context, vec []float32, limit int) ([]Neighbor, error) {
	reqBody := map[string]any{
		"vector":       vec,
		"limit":        limit,
		"with_payload": true,
	}

	var searchResp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}

	url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, c.collection)
	if err := c.send(ctx, http.MethodPost, url, reqBody, &searchResp); err != nil {
		return nil, err
	}

	neighbors := make([]Neighbor, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		payload := r.Payload
		content, _ := payload["content"].(string)
		meta := make(map[string]any, len(payload))
		for k, v := range payload {
			if k != "content" {
				meta[k] = v
			}
		}
		meta["score"] = r.Score
		neighbors = append(neighbors, Neighbor{Content: content, Metadata: meta})
	}

	return neighbors, nil
}

func (c *QdrantClient) ensureCollection(ctx context.Context, dim int) error {
	c.ensureMu.Lock()
	if c.ensured && c.ensuredDim == dim {
		c.ensureMu.Unlock()
		return nil
	}
	c.ensureMu.Unlock()

	reqBody := map[string]any{
		"vectors": map[string]any{
			"size":     dim,
			"distance": "Cosine",
		},
	}

	url := fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection)
	err := c.send(ctx, http.MethodPut, url, reqBody, nil)
	if err != nil && !strings.Contains(err.Error(), "409") {
		return fmt.Errorf("ensure collection: %w", err)
	}

	c.ensureMu.Lock()
	c.ensured = true
	c.ensuredDim = dim
	c.ensureMu.Unlock()
	return nil
}

func (c *QdrantClient) send(ctx context.Context, method, url string, reqBody any, out any) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("qdrant status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}
