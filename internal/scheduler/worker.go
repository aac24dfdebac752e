package scheduler

import (
	"context"
	"fmt"

	"dealflow_backend/internal/automation"
	"dealflow_backend/platform/apperr"
	"dealflow_backend/platform/config"
	"dealflow_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// LeadEvaluator runs the rule set for a single lead.
// *automation.Module satisfies it.
type LeadEvaluator interface {
	EvaluateLead(ctx context.Context, leadID uuid.UUID) (automation.Result, error)
}

type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	evaluator LeadEvaluator
	log       *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, evaluator LeadEvaluator, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:    server,
		mux:       mux,
		evaluator: evaluator,
		log:       log,
	}

	mux.HandleFunc(TaskLeadSweep, w.handleLeadSweep)

	return w, nil
}

// handleLeadSweep evaluates one lead. Mutation errors are returned so asynq
// retries the task; the persisted guards and existence checks keep retries
// from duplicating work.
func (w *Worker) handleLeadSweep(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseLeadSweepPayload(task)
	if err != nil {
		return err
	}

	leadID, err := uuid.Parse(payload.LeadID)
	if err != nil {
		return err
	}

	res, err := w.evaluator.EvaluateLead(ctx, leadID)
	if err != nil {
		switch apperr.GetKind(err) {
		case apperr.KindConflict:
			// Another trigger is already evaluating this lead.
			return nil
		case apperr.KindNotFound:
			// Lead deleted between enqueue and execution.
			return nil
		}
		return err
	}

	if len(res.Created) > 0 || len(res.Updated) > 0 {
		w.log.Info("lead sweep applied",
			"leadId", leadID,
			"reason", payload.Reason,
			"created", len(res.Created),
			"updated", len(res.Updated))
	}

	return res.Err()
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
