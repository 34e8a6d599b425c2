package llm_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/srimichael20/AutoClose-AI/internal/llm"
	"github.com/srimichael20/AutoClose-AI/internal/resilience"
)

type flakyClient struct {
	failures int
	calls    int
}

func (c *flakyClient) Complete(ctx context.Context, prompt string) (string, error) {
	c.calls++
	if c.calls <= c.failures {
		return "", errors.New("model unavailable")
	}
	return "ok: " + prompt, nil
}

func TestWithResilienceRetries(t *testing.T) {
	cfg := resilience.Config{RetryAttempts: 3, RetryDelay: "1ms", RetryMaxDelay: "2ms"}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	exec := resilience.NewExecutor(&cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))

	inner := &flakyClient{failures: 2}
	client := llm.WithResilience(inner, exec)

	content, err := client.Complete(context.Background(), "classify this")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if content != "ok: classify this" {
		t.Errorf("content = %q", content)
	}
	if inner.calls != 3 {
		t.Errorf("calls = %d, want 3", inner.calls)
	}
}

func TestWithResilienceNilExecutor(t *testing.T) {
	inner := &flakyClient{}
	if got := llm.WithResilience(inner, nil); got != llm.Client(inner) {
		t.Error("nil executor should return the inner client unchanged")
	}
}
