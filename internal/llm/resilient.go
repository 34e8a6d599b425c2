package llm

import (
	"context"

	"github.com/srimichael20/AutoClose-AI/internal/resilience"
)

type resilientClient struct {
	inner Client
	exec  *resilience.Executor
}

// WithResilience wraps client so completions run through the executor's
// retry and breaker policy under the "llm.complete" operation.
func WithResilience(client Client, exec *resilience.Executor) Client {
	if exec == nil {
		return client
	}
	return &resilientClient{inner: client, exec: exec}
}

func (c *resilientClient) Complete(ctx context.Context, prompt string) (string, error) {
	var content string
	err := c.exec.Execute(ctx, "llm.complete", func(ctx context.Context) error {
		var err error
		content, err = c.inner.Complete(ctx, prompt)
		return err
	})
	return content, err
}
