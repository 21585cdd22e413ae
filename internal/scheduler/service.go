// Package scheduler polls the record store for queued content requests and
// feeds them to the orchestrator. The cadence comes from a cron expression
// when configured, otherwise from a fixed interval.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/relaymesh/relay/internal/capability"
	"github.com/relaymesh/relay/internal/config"
	"github.com/relaymesh/relay/internal/orchestrator"
	"github.com/relaymesh/relay/internal/records"
)

// Lister is the slice of the record client the poller needs.
type Lister interface {
	ListByFormula(ctx context.Context, baseID, table, formula string, opts records.ListOptions) ([]records.Record, error)
}

// Enqueuer accepts generation jobs.
type Enqueuer interface {
	Enqueue(job orchestrator.Job) (orchestrator.Job, error)
}

type Service struct {
	cfg      config.Config
	client   Lister
	engine   Enqueuer
	logger   *slog.Logger
	schedule cron.Schedule
	interval time.Duration

	// in-flight dedupe, so a record still queued on the next poll is not
	// enqueued twice while its first job is waiting for a worker
	pendingMu sync.Mutex
	pending   map[string]struct{}
}

func New(cfg config.Config, client Lister, engine Enqueuer, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	interval := time.Duration(cfg.PollIntervalSec) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}

	var schedule cron.Schedule
	if expr := strings.TrimSpace(cfg.PollCron); expr != "" {
		parsed, err := cron.ParseStandard(expr)
		if err != nil {
			return nil, fmt.Errorf("parse poll cron %q: %w", expr, err)
		}
		schedule = parsed
	}

	return &Service{
		cfg:      cfg,
		client:   client,
		engine:   engine,
		logger:   logger,
		schedule: schedule,
		interval: interval,
		pending:  map[string]struct{}{},
	}, nil
}

// Run polls until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	if !s.cfg.PollEnabled {
		s.logger.Info("store polling disabled")
		<-ctx.Done()
		return nil
	}
	s.logger.Info("store polling started", "cron", s.cfg.PollCron, "interval", s.interval.String())
	for {
		wait := s.nextWait(time.Now())
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
		if err := s.PollOnce(ctx); err != nil {
			s.logger.Error("store poll failed", "error", err)
		}
	}
}

func (s *Service) nextWait(now time.Time) time.Duration {
	if s.schedule != nil {
		wait := s.schedule.Next(now).Sub(now)
		if wait > 0 {
			return wait
		}
	}
	return s.interval
}

// PollOnce lists queued roots and enqueues a job per record. A full queue
// stops the batch; the remaining records surface again on the next poll.
func (s *Service) PollOnce(ctx context.Context) error {
	if skipped := capability.Check(
		capability.Requirement{Name: "RELAY_RECORDS_TOKEN", Value: s.cfg.RecordsToken},
		capability.Requirement{Name: "RELAY_RECORDS_BASE_ID", Value: s.cfg.RecordsBaseID},
	); skipped != nil {
		s.logger.Warn("store poll skipped", "reason", skipped.Reason)
		return nil
	}

	formula := fmt.Sprintf("{%s}='%s'", s.cfg.RootStatusField, s.cfg.PollQueuedStatus)
	queued, err := s.client.ListByFormula(ctx, s.cfg.RecordsBaseID, s.cfg.RootTable, formula, records.ListOptions{
		MaxRecords: s.cfg.PollBatchLimit,
	})
	if err != nil {
		return fmt.Errorf("list queued requests: %w", err)
	}

	for _, record := range queued {
		if s.inFlight(record.ID) {
			continue
		}
		job := orchestrator.Job{
			InitiatorID: record.ID,
			BaseID:      s.cfg.RecordsBaseID,
			Goal:        records.StringField(record.Fields, s.cfg.RootGoalField),
		}
		if _, err := s.engine.Enqueue(job); err != nil {
			if errors.Is(err, orchestrator.ErrQueueFull) {
				s.logger.Warn("job queue full, deferring remaining queued requests")
				return nil
			}
			return fmt.Errorf("enqueue %s: %w", record.ID, err)
		}
		s.pendingMu.Lock()
		s.pending[record.ID] = struct{}{}
		s.pendingMu.Unlock()
	}
	return nil
}

func (s *Service) inFlight(initiatorID string) bool {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	_, ok := s.pending[initiatorID]
	return ok
}

// MarkDone clears the in-flight marker once a job's write-back moved the
// record out of the queued status.
func (s *Service) MarkDone(initiatorID string) {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	delete(s.pending, initiatorID)
}
