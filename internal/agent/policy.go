package agent

import (
	"strings"
	"time"
)

// Policy bounds one autonomous generation turn.
type Policy struct {
	// MaxLoopSteps caps think/act iterations in one turn.
	MaxLoopSteps int
	// MaxTurnDuration bounds the total execution time of a turn.
	MaxTurnDuration time.Duration
	// MaxInputChars blocks overly large inbound messages.
	MaxInputChars int
	// MaxToolCallsPerTurn caps tool executions in a single turn.
	MaxToolCallsPerTurn int
	// AllowedTools restricts executable tools. Empty means all registered.
	AllowedTools []string
	// AllowedToolClasses restricts tool classes. Empty means all.
	AllowedToolClasses []string
}

func defaultPolicy() Policy {
	return Policy{
		MaxLoopSteps:        6,
		MaxTurnDuration:     120 * time.Second,
		MaxInputChars:       12000,
		MaxToolCallsPerTurn: 6,
	}
}

func mergePolicy(base, override Policy) Policy {
	policy := base
	if override.MaxLoopSteps > 0 {
		policy.MaxLoopSteps = override.MaxLoopSteps
	}
	if override.MaxTurnDuration > 0 {
		policy.MaxTurnDuration = override.MaxTurnDuration
	}
	if override.MaxInputChars > 0 {
		policy.MaxInputChars = override.MaxInputChars
	}
	if override.MaxToolCallsPerTurn > 0 {
		policy.MaxToolCallsPerTurn = override.MaxToolCallsPerTurn
	}
	if len(override.AllowedTools) > 0 {
		policy.AllowedTools = cleanToolList(override.AllowedTools)
	}
	if len(override.AllowedToolClasses) > 0 {
		policy.AllowedToolClasses = cleanToolList(override.AllowedToolClasses)
	}
	return policy
}

func cleanToolList(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	cleaned := make([]string, 0, len(items))
	seen := map[string]struct{}{}
	for _, item := range items {
		name := strings.TrimSpace(item)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		cleaned = append(cleaned, name)
	}
	return cleaned
}

func isToolAllowed(policy Policy, toolName string) bool {
	if len(policy.AllowedTools) == 0 {
		return true
	}
	for _, allowed := range policy.AllowedTools {
		if strings.EqualFold(strings.TrimSpace(allowed), strings.TrimSpace(toolName)) {
			return true
		}
	}
	return false
}

func isToolClassAllowed(policy Policy, className string) bool {
	if len(policy.AllowedToolClasses) == 0 {
		return true
	}
	normalized := strings.ToLower(strings.TrimSpace(className))
	for _, allowed := range policy.AllowedToolClasses {
		if strings.ToLower(strings.TrimSpace(allowed)) == normalized {
			return true
		}
	}
	return false
}
