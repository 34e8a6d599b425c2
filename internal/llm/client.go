// Package llm provides the language model client used by workflow stages.
package llm

import (
	"context"
	"fmt"

	"github.com/JaimeStill/go-agents/pkg/agent"
	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
)

// Client produces completions for text prompts.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type agentClient struct {
	config *gaconfig.AgentConfig
}

// NewClient creates a Client backed by the configured model provider.
// Agents are constructed per call; construction validates provider config.
func NewClient(config *gaconfig.AgentConfig) Client {
	return &agentClient{config: config}
}

func (c *agentClient) Complete(ctx context.Context, prompt string) (string, error) {
	a, err := agent.New(c.config)
	if err != nil {
		return "", fmt.Errorf("create agent: %w", err)
	}

	resp, err := a.Chat(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("chat: %w", err)
	}

	return resp.Content(), nil
}
