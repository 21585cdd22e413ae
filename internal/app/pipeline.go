package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/relaymesh/relay/internal/actions/executor"
	"github.com/relaymesh/relay/internal/hydrate"
	"github.com/relaymesh/relay/internal/llm"
	"github.com/relaymesh/relay/internal/orchestrator"
	"github.com/relaymesh/relay/internal/records"
	"github.com/relaymesh/relay/internal/store"
)

const (
	statusGenerated = "Generated"
	statusFailed    = "Failed"

	generationPrompt = "You are a content generator. Produce the requested content using only " +
		"the knowledge in the provided context document. Follow the goal, content type and " +
		"output type it declares. Reply with the finished content only."
)

// generationHandler is the background pipeline for one queued request:
// hydrate the context document, draft content with the model, write the
// result back to the record store, fire the completion workflow, and record
// the run locally. The scheduler's in-flight mark is always released.
func (r *Runtime) generationHandler(responder llm.Responder, actions *executor.Registry) orchestrator.Handler {
	return func(ctx context.Context, job orchestrator.Job) error {
		defer func() {
			if r.Scheduler != nil {
				r.Scheduler.MarkDone(job.InitiatorID)
			}
		}()

		result, err := r.Hydrator.Hydrate(ctx, job.InitiatorID, job.BaseID)
		if err != nil {
			r.finishRun(ctx, job, hydrate.Result{}, statusFailed, err.Error())
			return fmt.Errorf("hydrate %s: %w", job.InitiatorID, err)
		}

		draft, err := responder.Reply(ctx, llm.MessageInput{
			Agent:        "generator",
			SystemPrompt: generationPrompt,
			Text:         "GOAL: " + job.Goal + "\n\nCONTEXT:\n" + result.XML,
		})
		if err != nil {
			r.finishRun(ctx, job, result, statusFailed, err.Error())
			return fmt.Errorf("generate %s: %w", job.InitiatorID, err)
		}
		draft = strings.TrimSpace(draft)
		if draft == "" {
			r.finishRun(ctx, job, result, statusFailed, "model returned empty content")
			return fmt.Errorf("generate %s: empty content", job.InitiatorID)
		}

		if err := r.writeOutput(ctx, job, draft); err != nil {
			r.finishRun(ctx, job, result, statusFailed, err.Error())
			return fmt.Errorf("write output %s: %w", job.InitiatorID, err)
		}

		r.notifyCompletion(ctx, actions, job)
		r.finishRun(ctx, job, result, statusGenerated, "")
		return nil
	}
}

func (r *Runtime) writeOutput(ctx context.Context, job orchestrator.Job, draft string) error {
	baseID := job.BaseID
	if baseID == "" {
		baseID = r.Config.RecordsBaseID
	}
	_, err := r.Records.UpdateRecords(ctx, baseID, r.Config.RootTable, []records.RecordUpdate{{
		ID: job.InitiatorID,
		Fields: map[string]any{
			r.Config.RootOutputField: draft,
			r.Config.RootStatusField: statusGenerated,
		},
	}})
	return err
}

// notifyCompletion fires the completion webhook. Best effort: the content is
// already written, so a failed notification only warrants a warning.
func (r *Runtime) notifyCompletion(ctx context.Context, actions *executor.Registry, job orchestrator.Job) {
	if r.Config.WebhookBase == "" {
		return
	}
	_, err := actions.Execute(ctx, executor.Request{
		Type:   "trigger_workflow",
		Target: "content-generated",
		Payload: map[string]any{
			"initiator_id": job.InitiatorID,
			"job_id":       job.ID,
		},
	})
	if err != nil {
		r.Logger.Warn("completion webhook failed", "initiator_id", job.InitiatorID, "error", err)
	}
}

func (r *Runtime) finishRun(ctx context.Context, job orchestrator.Job, result hydrate.Result, status, detail string) {
	_, err := r.Store.RecordGenerationRun(ctx, store.RecordGenerationRunInput{
		InitiatorID: job.InitiatorID,
		Mode:        string(result.Mode),
		Status:      status,
		Counts:      result.Counts,
		Detail:      detail,
	})
	if err != nil {
		r.Logger.Warn("record generation run failed", "initiator_id", job.InitiatorID, "error", err)
	}
}
