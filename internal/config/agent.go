package config

import (
	"fmt"
	"os"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
)

// AgentEnv maps agent config fields to environment variable names, letting
// the chat and vision agents carry separate overrides.
type AgentEnv struct {
	ProviderName string
	BaseURL      string
	Token        string
	ModelName    string
	Name         string
}

var agentEnv = &AgentEnv{
	ProviderName: "AUTOCLOSE_AGENT_PROVIDER_NAME",
	BaseURL:      "AUTOCLOSE_AGENT_BASE_URL",
	Token:        "AUTOCLOSE_AGENT_TOKEN",
	ModelName:    "AUTOCLOSE_AGENT_MODEL_NAME",
	Name:         "AUTOCLOSE_AGENT_NAME",
}

var visionAgentEnv = &AgentEnv{
	ProviderName: "AUTOCLOSE_VISION_AGENT_PROVIDER_NAME",
	BaseURL:      "AUTOCLOSE_VISION_AGENT_BASE_URL",
	Token:        "AUTOCLOSE_VISION_AGENT_TOKEN",
	ModelName:    "AUTOCLOSE_VISION_AGENT_MODEL_NAME",
	Name:         "AUTOCLOSE_VISION_AGENT_NAME",
}

// FinalizeAgent applies the three-phase finalize pattern to a go-agents
// AgentConfig: defaults from go-agents DefaultAgentConfig, environment
// variable overrides, and validation.
func FinalizeAgent(c *gaconfig.AgentConfig, env *AgentEnv) error {
	loadAgentDefaults(c)
	if env != nil {
		loadAgentEnv(c, env)
	}
	return validateAgent(c)
}

func loadAgentDefaults(c *gaconfig.AgentConfig) {
	defaults := gaconfig.DefaultAgentConfig()
	defaults.Merge(c)
	*c = defaults
}

func loadAgentEnv(c *gaconfig.AgentConfig, env *AgentEnv) {
	if c.Provider == nil {
		c.Provider = &gaconfig.ProviderConfig{}
	}
	if c.Provider.Options == nil {
		c.Provider.Options = make(map[string]any)
	}
	if c.Model == nil {
		c.Model = &gaconfig.ModelConfig{}
	}

	if v := os.Getenv(env.Name); v != "" {
		c.Name = v
	}
	if v := os.Getenv(env.ProviderName); v != "" {
		c.Provider.Name = v
	}
	if v := os.Getenv(env.BaseURL); v != "" {
		c.Provider.BaseURL = v
	}
	if v := os.Getenv(env.ModelName); v != "" {
		c.Model.Name = v
	}
	if v := os.Getenv(env.Token); v != "" {
		c.Provider.Options["token"] = v
	}
}

func validateAgent(c *gaconfig.AgentConfig) error {
	if c.Name == "" {
		return fmt.Errorf("name required")
	}
	if c.Provider == nil {
		return fmt.Errorf("provider required")
	}
	if c.Provider.Name == "" {
		return fmt.Errorf("provider name required")
	}
	if c.Model == nil {
		return fmt.Errorf("model required")
	}
	return nil
}
