package automation

import (
	"context"
	"testing"

	"github.com/google/uuid"

	leadsrepo "dealflow_backend/internal/leads/repository"
	taskrepo "dealflow_backend/internal/tasks/repository"
	"dealflow_backend/platform/apperr"
	"dealflow_backend/platform/logger"
)

type fakeLeadReader struct {
	lead leadsrepo.Lead
	err  error
}

func (f fakeLeadReader) GetByID(context.Context, uuid.UUID) (leadsrepo.Lead, error) {
	return f.lead, f.err
}

type fakeTaskLister struct {
	tasks []taskrepo.Task
}

func (f fakeTaskLister) ListByLead(context.Context, uuid.UUID) ([]taskrepo.Task, error) {
	return f.tasks, nil
}

func newGuardOnlyModule() *Module {
	return &Module{
		log:        logger.New("development"),
		activeRuns: make(map[uuid.UUID]bool),
	}
}

func TestMarkRunning(t *testing.T) {
	m := newGuardOnlyModule()
	leadID := uuid.New()

	if !m.markRunning(leadID) {
		t.Fatalf("expected first lock acquisition to succeed")
	}
	if m.markRunning(leadID) {
		t.Fatalf("expected second lock acquisition to fail")
	}

	m.markComplete(leadID)

	if !m.markRunning(leadID) {
		t.Fatalf("expected lock acquisition to succeed after completion")
	}
}

func TestMarkRunningIsPerLead(t *testing.T) {
	m := newGuardOnlyModule()

	if !m.markRunning(uuid.New()) || !m.markRunning(uuid.New()) {
		t.Fatalf("expected independent leads to lock independently")
	}
}

func TestEvaluateLeadConflictsWhileInFlight(t *testing.T) {
	store := &fakeTaskStore{}
	guards := newFakeGuardStore()
	lead := newLead(withSector("logistics"))

	m := &Module{
		leads:      fakeLeadReader{lead: lead},
		taskList:   fakeTaskLister{},
		evaluator:  newTestEvaluator(store, guards),
		log:        logger.New("development"),
		activeRuns: make(map[uuid.UUID]bool),
	}

	// Simulate an evaluation already in flight for the lead.
	if !m.markRunning(lead.ID) {
		t.Fatalf("setup: could not acquire lock")
	}

	_, err := m.EvaluateLead(context.Background(), lead.ID)
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}

	m.markComplete(lead.ID)

	res, err := m.EvaluateLead(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("unexpected error after release: %v", err)
	}
	if len(res.Created) != 5 {
		t.Fatalf("expected starter set after release, got %d", len(res.Created))
	}

	// The lock is released when the evaluation finishes.
	if !m.markRunning(lead.ID) {
		t.Fatalf("expected lock to be free after evaluation")
	}
}
