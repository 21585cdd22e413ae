package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/relaymesh/relay/internal/hydrate"
)

type ChatTurn struct {
	ID        string
	Agent     string
	Prompt    string
	Reply     string
	ToolCalls int
	CreatedAt time.Time
}

// RecordChatTurn stores one gateway turn for later inspection.
func (s *Store) RecordChatTurn(ctx context.Context, agent, prompt, reply string, toolCalls int) error {
	agent = strings.ToLower(strings.TrimSpace(agent))
	if agent == "" {
		return fmt.Errorf("chat turn requires an agent name")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_turns (id, agent, prompt, reply, tool_calls) VALUES (?, ?, ?, ?, ?)`,
		"turn_"+uuid.NewString(), agent, prompt, reply, toolCalls)
	if err != nil {
		return fmt.Errorf("insert chat turn: %w", err)
	}
	return nil
}

// ListChatTurns returns the most recent turns for an agent, newest first.
func (s *Store) ListChatTurns(ctx context.Context, agent string, limit int) ([]ChatTurn, error) {
	if limit < 1 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, agent, prompt, reply, tool_calls, created_at
		 FROM chat_turns WHERE agent = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		strings.ToLower(strings.TrimSpace(agent)), limit)
	if err != nil {
		return nil, fmt.Errorf("list chat turns: %w", err)
	}
	defer rows.Close()

	turns := []ChatTurn{}
	for rows.Next() {
		var turn ChatTurn
		var createdAt string
		if err := rows.Scan(&turn.ID, &turn.Agent, &turn.Prompt, &turn.Reply, &turn.ToolCalls, &createdAt); err != nil {
			return nil, fmt.Errorf("scan chat turn: %w", err)
		}
		turn.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt)
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}

type GenerationRun struct {
	ID          string
	InitiatorID string
	Mode        string
	Status      string
	Counts      hydrate.Counts
	Detail      string
	CreatedAt   time.Time
}

type RecordGenerationRunInput struct {
	InitiatorID string
	Mode        string
	Status      string
	Counts      hydrate.Counts
	Detail      string
}

// RecordGenerationRun stores the outcome of one background generation,
// including the per-category resolution counts for observability.
func (s *Store) RecordGenerationRun(ctx context.Context, input RecordGenerationRunInput) (GenerationRun, error) {
	run := GenerationRun{
		ID:          "run_" + uuid.NewString(),
		InitiatorID: strings.TrimSpace(input.InitiatorID),
		Mode:        strings.TrimSpace(input.Mode),
		Status:      strings.TrimSpace(strings.ToLower(input.Status)),
		Counts:      input.Counts,
		Detail:      strings.TrimSpace(input.Detail),
		CreatedAt:   time.Now().UTC(),
	}
	if run.InitiatorID == "" || run.Status == "" {
		return GenerationRun{}, fmt.Errorf("generation run requires initiator id and status")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO generation_runs (id, initiator_id, mode, status, personas, domains, entities, refs, detail)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.InitiatorID, run.Mode, run.Status,
		run.Counts.Personas, run.Counts.Domains, run.Counts.Entities, run.Counts.References, run.Detail)
	if err != nil {
		return GenerationRun{}, fmt.Errorf("insert generation run: %w", err)
	}
	return run, nil
}

// ListGenerationRuns returns runs for one initiator, newest first.
func (s *Store) ListGenerationRuns(ctx context.Context, initiatorID string, limit int) ([]GenerationRun, error) {
	if limit < 1 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, initiator_id, mode, status, personas, domains, entities, refs, detail, created_at
		 FROM generation_runs WHERE initiator_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		strings.TrimSpace(initiatorID), limit)
	if err != nil {
		return nil, fmt.Errorf("list generation runs: %w", err)
	}
	defer rows.Close()

	runs := []GenerationRun{}
	for rows.Next() {
		var run GenerationRun
		var createdAt string
		if err := rows.Scan(&run.ID, &run.InitiatorID, &run.Mode, &run.Status,
			&run.Counts.Personas, &run.Counts.Domains, &run.Counts.Entities, &run.Counts.References,
			&run.Detail, &createdAt); err != nil {
			return nil, fmt.Errorf("scan generation run: %w", err)
		}
		run.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
