package automation

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"dealflow_backend/internal/events"
	apphttp "dealflow_backend/internal/http"
	leadsrepo "dealflow_backend/internal/leads/repository"
	taskrepo "dealflow_backend/internal/tasks/repository"
	"dealflow_backend/platform/apperr"
	"dealflow_backend/platform/config"
	"dealflow_backend/platform/logger"
)

// LeadReader loads the lead under evaluation.
// *leads/repository.Repository satisfies it.
type LeadReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (leadsrepo.Lead, error)
}

// TaskLister loads the lead's current task list.
// *tasks/repository.Repository satisfies it.
type TaskLister interface {
	ListByLead(ctx context.Context, leadID uuid.UUID) ([]taskrepo.Task, error)
}

// Module wires the rule evaluator to the event bus and the HTTP surface.
// It owns the per-lead single-flight state: no two concurrent triggers
// evaluate the same lead at the same time.
type Module struct {
	leads     LeadReader
	taskList  TaskLister
	guards    *GuardRepository
	evaluator *Evaluator
	handler   *handler
	log       *logger.Logger

	// Idempotency protection: tracks leads with an evaluation in flight.
	activeRuns map[uuid.UUID]bool
	runsMu     sync.Mutex
}

// NewModule creates the automation module. leads and tasks are the sibling
// modules' repositories; the guard store is owned here.
func NewModule(pool *pgxpool.Pool, leads LeadReader, tasks *taskrepo.Repository, cfg config.AutomationConfig, log *logger.Logger) *Module {
	guards := NewGuardRepository(pool)
	evaluator := NewEvaluator(tasks, guards, cfg.GetReengagementThreshold(), cfg.GetEscalationSkipWindow(), log)

	m := &Module{
		leads:      leads,
		taskList:   tasks,
		guards:     guards,
		evaluator:  evaluator,
		log:        log,
		activeRuns: make(map[uuid.UUID]bool),
	}
	m.handler = newHandler(m)
	return m
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "automation"
}

// Guards exposes the guard repository for the stale-lead sweep.
func (m *Module) Guards() *GuardRepository {
	return m.guards
}

// RegisterRoutes mounts the manual evaluation trigger.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.POST("/leads/:id/evaluate", m.handler.Evaluate)
}

// SubscribeEvents registers the reactive triggers. Every lead or task change
// schedules a fresh evaluation of the affected lead.
func (m *Module) SubscribeEvents(bus events.Bus) {
	bus.Subscribe("leads.lead.created", events.HandlerFunc(func(ctx context.Context, evt events.Event) error {
		e, ok := evt.(events.LeadCreated)
		if !ok {
			return nil
		}
		return m.evaluateFromEvent(ctx, e.LeadID)
	}))

	bus.Subscribe("leads.lead.updated", events.HandlerFunc(func(ctx context.Context, evt events.Event) error {
		e, ok := evt.(events.LeadUpdated)
		if !ok {
			return nil
		}
		return m.evaluateFromEvent(ctx, e.LeadID)
	}))

	bus.Subscribe("tasks.task.status_changed", events.HandlerFunc(func(ctx context.Context, evt events.Event) error {
		e, ok := evt.(events.TaskStatusChanged)
		if !ok {
			return nil
		}
		return m.evaluateFromEvent(ctx, e.LeadID)
	}))
}

// evaluateFromEvent runs an evaluation triggered by a domain event. A lead
// already being evaluated is skipped, not queued: the in-flight pass sees
// the current store state, and the periodic sweep covers anything missed.
func (m *Module) evaluateFromEvent(ctx context.Context, leadID uuid.UUID) error {
	res, err := m.EvaluateLead(ctx, leadID)
	if err != nil {
		if apperr.GetKind(err) == apperr.KindConflict {
			m.log.Debug("automation: evaluation already in flight, skipping",
				"leadId", leadID)
			return nil
		}
		return err
	}
	return res.Err()
}

// EvaluateLead loads the lead with its tasks and runs the rule set once.
// Returns a Conflict error when an evaluation for the lead is already in
// flight.
func (m *Module) EvaluateLead(ctx context.Context, leadID uuid.UUID) (Result, error) {
	if !m.markRunning(leadID) {
		return Result{}, apperr.Conflict("evaluation already in progress for lead")
	}
	defer m.markComplete(leadID)

	lead, err := m.leads.GetByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, leadsrepo.ErrNotFound) {
			return Result{}, apperr.NotFound("lead not found")
		}
		return Result{}, err
	}

	tasks, err := m.taskList.ListByLead(ctx, leadID)
	if err != nil {
		return Result{}, err
	}

	return m.evaluator.Evaluate(ctx, lead, tasks), nil
}

// markRunning attempts to mark a lead evaluation as active. Returns false
// if one is already running.
func (m *Module) markRunning(leadID uuid.UUID) bool {
	m.runsMu.Lock()
	defer m.runsMu.Unlock()

	if m.activeRuns[leadID] {
		return false
	}
	m.activeRuns[leadID] = true
	return true
}

// markComplete removes the active run marker.
func (m *Module) markComplete(leadID uuid.UUID) {
	m.runsMu.Lock()
	defer m.runsMu.Unlock()

	delete(m.activeRuns, leadID)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
