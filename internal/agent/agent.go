// Package agent runs the bounded think-act loop: the model sees the tool
// catalog, decides between calling one tool or answering, and accumulates a
// work log of tool results until it produces a final reply or hits a policy
// limit.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/relaymesh/relay/internal/agent/tools"
	"github.com/relaymesh/relay/internal/llm"
)

type Agent struct {
	logger        *slog.Logger
	llm           llm.Responder
	registry      *tools.Registry
	defaultPolicy Policy
}

func New(logger *slog.Logger, responder llm.Responder, registry *tools.Registry) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{
		logger:        logger,
		llm:           responder,
		registry:      registry,
		defaultPolicy: defaultPolicy(),
	}
}

func (a *Agent) SetDefaultPolicy(policy Policy) {
	a.defaultPolicy = mergePolicy(defaultPolicy(), policy)
}

// Result is the outcome of one agent turn.
type Result struct {
	Reply       string
	Steps       int
	ToolCalls   []ToolCall
	Blocked     bool
	BlockReason string
	Error       error
}

// ToolCall records one tool invocation attempted during the loop.
type ToolCall struct {
	ToolName   string
	ToolArgs   string
	Status     string
	ToolOutput string
}

type loopToolStep struct {
	ToolName   string
	ToolArgs   string
	ToolStatus string
	ToolOutput string
}

type parsedDecision struct {
	IsTool     bool
	ToolName   string
	ToolArgs   json.RawMessage
	FinalReply string
}

// Execute runs one bounded multi-step turn. Tool results, including skipped
// envelopes for unconfigured integrations, flow back into the work log so
// the model can explain a missing capability instead of failing the turn.
func (a *Agent) Execute(ctx context.Context, input llm.MessageInput) Result {
	result := Result{}
	policy := a.defaultPolicy

	if policy.MaxTurnDuration > 0 {
		timeoutCtx, cancel := context.WithTimeout(ctx, policy.MaxTurnDuration)
		defer cancel()
		ctx = timeoutCtx
	}

	if policy.MaxInputChars > 0 && utf8.RuneCountInString(input.Text) > policy.MaxInputChars {
		result.Blocked = true
		result.BlockReason = "input exceeds max size policy"
		result.Reply = "That message is too long for one turn."
		return result
	}

	toolDesc := "No tools registered."
	if a.registry != nil {
		toolDesc = a.registry.DescribeAll()
	}
	systemPrompt := strings.TrimSpace(input.SystemPrompt)
	if systemPrompt == "" {
		systemPrompt = "You are a content generation agent."
	}
	systemPrompt = fmt.Sprintf(
		"CURRENT TIME (UTC): %s\n\n%s\n\nAVAILABLE TOOLS:\n%s\n"+
			"To call a tool, reply with JSON: {\"tool\":\"<name>\",\"args\":{...}}. "+
			"To answer, reply with JSON: {\"final\":\"<answer>\"} or plain text.",
		time.Now().UTC().Format(time.RFC1123), systemPrompt, toolDesc)

	maxSteps := policy.MaxLoopSteps
	if maxSteps < 1 {
		maxSteps = 1
	}

	toolCalls := 0
	toolSteps := make([]loopToolStep, 0, maxSteps)
	seenSignatures := map[string]int{}
	for step := 1; step <= maxSteps; step++ {
		result.Steps = step
		llmInput := input
		llmInput.SystemPrompt = systemPrompt
		llmInput.Text = buildLoopInput(input.Text, toolSteps, step, maxSteps)

		response, err := a.llm.Reply(ctx, llmInput)
		if err != nil {
			result.Error = fmt.Errorf("llm error: %w", err)
			return result
		}

		decision := parseDecision(response)
		if !decision.IsTool {
			reply := strings.TrimSpace(decision.FinalReply)
			if reply == "" && len(toolSteps) > 0 {
				last := toolSteps[len(toolSteps)-1]
				reply = fmt.Sprintf("Executed `%s`. Result:\n%s", last.ToolName, last.ToolOutput)
			}
			result.Reply = reply
			return result
		}

		toolName := strings.TrimSpace(decision.ToolName)
		toolArgs := decision.ToolArgs
		callIndex := len(result.ToolCalls)
		result.ToolCalls = append(result.ToolCalls, ToolCall{
			ToolName: toolName,
			ToolArgs: compactLoopText(string(toolArgs), 800),
			Status:   "selected",
		})

		if policy.MaxToolCallsPerTurn > 0 && toolCalls+1 > policy.MaxToolCallsPerTurn {
			result.Blocked = true
			result.BlockReason = "tool call exceeds per-turn policy"
			result.Reply = "I cannot run more tools for this request under current policy."
			result.ToolCalls[callIndex].Status = "blocked"
			return result
		}
		if !isToolAllowed(policy, toolName) {
			result.Blocked = true
			result.BlockReason = fmt.Sprintf("tool %s is not allowed by policy", toolName)
			result.Reply = "I cannot run that tool in this context."
			result.ToolCalls[callIndex].Status = "blocked"
			return result
		}
		if toolDef, exists := a.registry.Get(toolName); exists {
			if !isToolClassAllowed(policy, toolClassName(toolDef)) {
				result.Blocked = true
				result.BlockReason = fmt.Sprintf("tool class of %s is not allowed by policy", toolName)
				result.Reply = "I cannot run that action type in this context."
				result.ToolCalls[callIndex].Status = "blocked"
				return result
			}
		}

		signature := loopToolSignature(toolName, toolArgs)
		if seenSignatures[signature] > 0 {
			// Break repeat loops: same tool, same args, after it already ran.
			reason := "repeated tool call with unchanged args; choose a different approach"
			result.ToolCalls[callIndex].Status = "blocked"
			toolSteps = append(toolSteps, loopToolStep{
				ToolName:   toolName,
				ToolArgs:   compactLoopText(string(toolArgs), 500),
				ToolStatus: "blocked",
				ToolOutput: reason,
			})
			continue
		}

		output := a.registry.ExecuteTool(ctx, toolName, toolArgs)
		toolCalls++
		seenSignatures[signature]++
		a.logger.Info("tool executed", "agent", input.Agent, "tool", toolName, "step", step)

		result.ToolCalls[callIndex].Status = "executed"
		result.ToolCalls[callIndex].ToolOutput = compactLoopText(output, 1200)
		toolSteps = append(toolSteps, loopToolStep{
			ToolName:   toolName,
			ToolArgs:   compactLoopText(string(toolArgs), 500),
			ToolStatus: "executed",
			ToolOutput: compactLoopText(output, 1000),
		})
	}

	result.Blocked = true
	result.BlockReason = "max loop steps reached"
	if len(toolSteps) > 0 {
		result.Reply = "I ran several steps but could not finalize in time. Ask me to continue."
	} else {
		result.Reply = "I could not complete this in one turn."
	}
	return result
}

func buildLoopInput(userText string, toolSteps []loopToolStep, step, maxSteps int) string {
	builder := strings.Builder{}
	builder.WriteString("USER REQUEST:\n")
	builder.WriteString(strings.TrimSpace(userText))
	builder.WriteString("\n\n")
	if len(toolSteps) > 0 {
		builder.WriteString("WORK LOG:\n")
		for idx, record := range toolSteps {
			builder.WriteString(fmt.Sprintf("%d. tool=%s status=%s args=%s\n", idx+1, record.ToolName, record.ToolStatus, record.ToolArgs))
			if strings.TrimSpace(record.ToolOutput) != "" {
				builder.WriteString(fmt.Sprintf("   result=%s\n", record.ToolOutput))
			}
		}
		builder.WriteString("\nIf a tool reported skipped:true, that capability is not configured; explain that instead of retrying.\n\n")
	}
	builder.WriteString(fmt.Sprintf("STEP %d OF %d.\n", step, maxSteps))
	builder.WriteString("Decide the best next action: call one tool, or return the final answer.")
	return builder.String()
}

func parseDecision(response string) parsedDecision {
	jsonStr := findFirstJSON(response)
	if jsonStr == "" {
		return parsedDecision{FinalReply: strings.TrimSpace(response)}
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(jsonStr), &envelope); err != nil {
		return parsedDecision{FinalReply: strings.TrimSpace(response)}
	}

	var toolName string
	if rawTool, ok := envelope["tool"]; ok {
		_ = json.Unmarshal(rawTool, &toolName)
	}
	if strings.TrimSpace(toolName) != "" {
		decision := parsedDecision{
			IsTool:   true,
			ToolName: strings.TrimSpace(toolName),
			ToolArgs: json.RawMessage("{}"),
		}
		if args, ok := envelope["args"]; ok && len(strings.TrimSpace(string(args))) > 0 {
			decision.ToolArgs = args
		}
		return decision
	}

	reply := firstStringField(envelope, "final", "reply", "answer")
	if strings.TrimSpace(reply) == "" {
		reply = strings.TrimSpace(response)
	}
	return parsedDecision{FinalReply: reply}
}

// findFirstJSON locates the first outermost JSON object in the text.
func findFirstJSON(input string) string {
	start := strings.Index(input, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(input); i++ {
		char := input[i]
		if inString {
			if escaped {
				escaped = false
			} else if char == '\\' {
				escaped = true
			} else if char == '"' {
				inString = false
			}
			continue
		}
		switch char {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				candidate := input[start : i+1]
				if json.Valid([]byte(candidate)) {
					return candidate
				}
				return ""
			}
		}
	}
	return ""
}

func firstStringField(fields map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			continue
		}
		if value = strings.TrimSpace(value); value != "" {
			return value
		}
	}
	return ""
}

func compactLoopText(input string, maxLen int) string {
	clean := strings.Join(strings.Fields(strings.TrimSpace(input)), " ")
	if maxLen < 1 || len(clean) <= maxLen {
		return clean
	}
	return strings.TrimSpace(clean[:maxLen]) + "..."
}

func loopToolSignature(name string, args json.RawMessage) string {
	return strings.ToLower(strings.TrimSpace(name)) + "|" + compactLoopText(string(args), 2000)
}

func toolClassName(tool tools.Tool) string {
	metadata, ok := tool.(tools.MetadataProvider)
	if !ok {
		return string(tools.ToolClassGeneral)
	}
	name := strings.ToLower(strings.TrimSpace(string(metadata.ToolClass())))
	if name == "" {
		return string(tools.ToolClassGeneral)
	}
	return name
}
