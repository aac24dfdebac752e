package scheduler

import (
	"context"
	"time"

	"dealflow_backend/internal/automation"
	"dealflow_backend/platform/config"
	"dealflow_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// staleLeadLister finds leads whose re-engagement escalation is overdue.
// *automation.GuardRepository satisfies it.
type staleLeadLister interface {
	ListLeadsDueForEscalation(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error)
}

// StaleLeadDispatcher periodically scans for leads whose last contact has
// crossed the re-engagement threshold without a reactive trigger catching
// them, and schedules a sweep evaluation for each through the Client.
type StaleLeadDispatcher struct {
	client    *Client
	guards    staleLeadLister
	threshold time.Duration
	interval  time.Duration
	batchSize int
	log       *logger.Logger
}

func NewStaleLeadDispatcher(cfg config.SchedulerConfig, auto config.AutomationConfig, pool *pgxpool.Pool, log *logger.Logger) (*StaleLeadDispatcher, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}

	return &StaleLeadDispatcher{
		client:    client,
		guards:    automation.NewGuardRepository(pool),
		threshold: auto.GetReengagementThreshold(),
		interval:  auto.GetSweepInterval(),
		batchSize: auto.GetSweepBatchSize(),
		log:       log,
	}, nil
}

func (d *StaleLeadDispatcher) Close() error {
	if d == nil || d.client == nil {
		return nil
	}
	return d.client.Close()
}

func (d *StaleLeadDispatcher) Run(ctx context.Context) {
	if d == nil || d.client == nil || d.guards == nil {
		return
	}

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		d.sweep(ctx)
	}
}

func (d *StaleLeadDispatcher) sweep(ctx context.Context) {
	now := time.Now()
	cutoff := now.Add(-d.threshold)

	ids, err := d.guards.ListLeadsDueForEscalation(ctx, cutoff, d.batchSize)
	if err != nil {
		d.log.Warn("stale lead scan failed", "error", err)
		return
	}
	if len(ids) == 0 {
		return
	}

	for _, id := range ids {
		err := d.client.ScheduleLeadSweep(ctx, LeadSweepPayload{
			LeadID: id.String(),
			Reason: "stale_contact",
		}, now)
		if err != nil {
			d.log.Warn("stale lead enqueue failed", "leadId", id, "error", err)
		}
	}

	d.log.Info("stale lead sweep dispatched", "count", len(ids))
}
