package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// AgentDef describes one routable agent. An agent with an UpstreamURL is an
// independently-deployed process the gateway reverse-proxies to; one without
// is hosted by the in-process agent loop.
type AgentDef struct {
	Name        string `json:"name"`
	UpstreamURL string `json:"upstream_url,omitempty"`
	PromptFile  string `json:"prompt_file,omitempty"`
	Model       string `json:"model,omitempty"`
}

// LoadAgents reads agent definitions from a JSON file. A missing file is not
// an error: the gateway then serves a single default in-process agent.
func LoadAgents(path string) ([]AgentDef, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []AgentDef{{Name: "default"}}, nil
		}
		return nil, fmt.Errorf("read agents config: %w", err)
	}
	var defs []AgentDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return nil, fmt.Errorf("parse agents config: %w", err)
	}
	out := make([]AgentDef, 0, len(defs))
	seen := map[string]struct{}{}
	for _, def := range defs {
		def.Name = strings.ToLower(strings.TrimSpace(def.Name))
		if def.Name == "" {
			return nil, fmt.Errorf("agents config: agent with empty name")
		}
		if _, dup := seen[def.Name]; dup {
			return nil, fmt.Errorf("agents config: duplicate agent %q", def.Name)
		}
		seen[def.Name] = struct{}{}
		def.UpstreamURL = strings.TrimSpace(def.UpstreamURL)
		out = append(out, def)
	}
	if len(out) == 0 {
		return []AgentDef{{Name: "default"}}, nil
	}
	return out, nil
}
