package app

import (
	"context"
	"strings"

	"github.com/relaymesh/relay/internal/agent"
	"github.com/relaymesh/relay/internal/config"
	"github.com/relaymesh/relay/internal/gateway"
	"github.com/relaymesh/relay/internal/llm"
	"github.com/relaymesh/relay/internal/watcher"
)

const defaultSystemPrompt = "You are a careful assistant for a content operations team. " +
	"Use the available tools to look up records and assemble context before answering."

// loopEngine adapts the in-process agent loop to the gateway's Engine
// interface, resolving each agent's system prompt from the prompt store.
type loopEngine struct {
	loop    *agent.Agent
	prompts *watcher.PromptStore
}

func (e *loopEngine) Respond(ctx context.Context, def config.AgentDef, req gateway.ChatRequest) (gateway.ChatResponse, error) {
	prompt := e.prompts.Get(def.Name)
	if strings.TrimSpace(prompt) == "" {
		prompt = defaultSystemPrompt
	}

	result := e.loop.Execute(ctx, llm.MessageInput{
		Agent:        def.Name,
		Session:      req.Session,
		SystemPrompt: prompt,
		Text:         req.Message,
	})
	if result.Error != nil {
		return gateway.ChatResponse{}, result.Error
	}
	return gateway.ChatResponse{
		Agent:     def.Name,
		Reply:     result.Reply,
		ToolCalls: len(result.ToolCalls),
	}, nil
}
