package automation

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	leadsrepo "dealflow_backend/internal/leads/repository"
	"dealflow_backend/internal/tasks/domain"
	taskrepo "dealflow_backend/internal/tasks/repository"
	"dealflow_backend/platform/logger"
)

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type fakeTaskStore struct {
	tasks     []taskrepo.Task
	failTypes map[domain.Type]bool
	updateErr error
	updates   int
}

func (f *fakeTaskStore) Create(_ context.Context, p taskrepo.CreateTaskParams) (taskrepo.Task, error) {
	if f.failTypes[p.Type] {
		return taskrepo.Task{}, errors.New("create failed")
	}
	task := taskrepo.Task{
		ID:           uuid.New(),
		LeadID:       p.LeadID,
		Type:         p.Type,
		Status:       domain.StatusOpen,
		Priority:     p.Priority,
		DueDate:      p.DueDate,
		Dependencies: p.Dependencies,
		CreatedAt:    testNow,
		UpdatedAt:    testNow,
	}
	f.tasks = append(f.tasks, task)
	return task, nil
}

func (f *fakeTaskStore) Update(_ context.Context, id uuid.UUID, p taskrepo.UpdateTaskParams) (taskrepo.Task, error) {
	if f.updateErr != nil {
		return taskrepo.Task{}, f.updateErr
	}
	for i := range f.tasks {
		if f.tasks[i].ID != id {
			continue
		}
		if p.Status != nil {
			f.tasks[i].Status = *p.Status
		}
		if p.Priority != nil {
			f.tasks[i].Priority = *p.Priority
		}
		if p.DueDate != nil {
			f.tasks[i].DueDate = *p.DueDate
		}
		f.updates++
		return f.tasks[i], nil
	}
	return taskrepo.Task{}, taskrepo.ErrNotFound
}

type fakeGuardStore struct {
	fired   map[string]bool
	markErr error
}

func newFakeGuardStore() *fakeGuardStore {
	return &fakeGuardStore{fired: make(map[string]bool)}
}

func guardKey(leadID uuid.UUID, rule Rule) string {
	return leadID.String() + ":" + string(rule)
}

func (f *fakeGuardStore) HasFired(_ context.Context, leadID uuid.UUID, rule Rule) (bool, error) {
	return f.fired[guardKey(leadID, rule)], nil
}

func (f *fakeGuardStore) MarkFired(_ context.Context, leadID uuid.UUID, rule Rule) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.fired[guardKey(leadID, rule)] = true
	return nil
}

func newTestEvaluator(store *fakeTaskStore, guards *fakeGuardStore) *Evaluator {
	e := NewEvaluator(store, guards, 72*time.Hour, 24*time.Hour, logger.New("development"))
	e.now = func() time.Time { return testNow }
	return e
}

func strPtr(s string) *string { return &s }

func newLead(opts ...func(*leadsrepo.Lead)) leadsrepo.Lead {
	lead := leadsrepo.Lead{
		ID:          uuid.New(),
		CompanyName: "Meridian Logistics BV",
		Status:      "open",
		Stage:       "prospect",
	}
	for _, opt := range opts {
		opt(&lead)
	}
	return lead
}

func withSector(sector string) func(*leadsrepo.Lead) {
	return func(l *leadsrepo.Lead) { l.Sector = strPtr(sector) }
}

func withPriority(p string) func(*leadsrepo.Lead) {
	return func(l *leadsrepo.Lead) { l.Priority = strPtr(p) }
}

func withStage(stage string) func(*leadsrepo.Lead) {
	return func(l *leadsrepo.Lead) { l.Stage = stage }
}

func withLastContacted(at time.Time) func(*leadsrepo.Lead) {
	return func(l *leadsrepo.Lead) { l.LastContacted = &at }
}

func findByType(tasks []taskrepo.Task, typ domain.Type) *taskrepo.Task {
	for i := range tasks {
		if tasks[i].Type == typ {
			return &tasks[i]
		}
	}
	return nil
}

func makeTask(leadID uuid.UUID, typ domain.Type, status domain.Status, priority domain.Priority, due time.Time) taskrepo.Task {
	return taskrepo.Task{
		ID:       uuid.New(),
		LeadID:   leadID,
		Type:     typ,
		Status:   status,
		Priority: priority,
		DueDate:  due,
	}
}

func TestStarterFanOutCreatesFullSet(t *testing.T) {
	store := &fakeTaskStore{}
	guards := newFakeGuardStore()
	e := newTestEvaluator(store, guards)
	lead := newLead(withSector("logistics"))

	res := e.Evaluate(context.Background(), lead, nil)

	if err := res.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Created) != 5 {
		t.Fatalf("expected 5 created tasks, got %d", len(res.Created))
	}

	wantOffsets := map[domain.Type]int{
		domain.TypeOutreachCall:   0,
		domain.TypeVideoCall:      0,
		domain.TypeMarketReport:   1,
		domain.TypeCompanyProfile: 1,
		domain.TypeCompetitorScan: 2,
	}
	for typ, offset := range wantOffsets {
		task := findByType(res.Created, typ)
		if task == nil {
			t.Fatalf("expected task of type %s", typ)
		}
		wantDue := testNow.AddDate(0, 0, offset)
		if !task.DueDate.Equal(wantDue) {
			t.Fatalf("type %s: expected due %v, got %v", typ, wantDue, task.DueDate)
		}
		if task.Priority != domain.PriorityMedium {
			t.Fatalf("type %s: expected medium priority, got %s", typ, task.Priority)
		}
	}

	if !guards.fired[guardKey(lead.ID, RuleStarterFanOut)] {
		t.Fatalf("expected starter fan-out guard to be persisted")
	}
}

func TestStarterFanOutRequiresSector(t *testing.T) {
	store := &fakeTaskStore{}
	e := newTestEvaluator(store, newFakeGuardStore())

	res := e.Evaluate(context.Background(), newLead(), nil)

	if len(res.Created) != 0 {
		t.Fatalf("expected no tasks without sector, got %d", len(res.Created))
	}

	empty := newLead()
	empty.Sector = strPtr("")
	res = e.Evaluate(context.Background(), empty, nil)
	if len(res.Created) != 0 {
		t.Fatalf("expected no tasks for empty sector, got %d", len(res.Created))
	}
}

func TestStarterFanOutSkipsWhenAnyStarterTaskExists(t *testing.T) {
	store := &fakeTaskStore{}
	e := newTestEvaluator(store, newFakeGuardStore())
	lead := newLead(withSector("logistics"))

	// A completed starter task still suppresses the fan-out.
	existing := []taskrepo.Task{
		makeTask(lead.ID, domain.TypeOutreachCall, domain.StatusDone, domain.PriorityMedium, testNow),
	}

	res := e.Evaluate(context.Background(), lead, existing)

	if len(res.Created) != 0 {
		t.Fatalf("expected no tasks when a starter task exists, got %d", len(res.Created))
	}
}

func TestStarterFanOutHonorsPersistedGuard(t *testing.T) {
	store := &fakeTaskStore{}
	guards := newFakeGuardStore()
	e := newTestEvaluator(store, guards)
	lead := newLead(withSector("logistics"))
	guards.fired[guardKey(lead.ID, RuleStarterFanOut)] = true

	res := e.Evaluate(context.Background(), lead, nil)

	if len(res.Created) != 0 {
		t.Fatalf("expected guard to suppress fan-out, got %d created", len(res.Created))
	}
}

func TestEvaluateTwiceCreatesNothingNew(t *testing.T) {
	store := &fakeTaskStore{}
	guards := newFakeGuardStore()
	e := newTestEvaluator(store, guards)
	lead := newLead(withSector("logistics"), withStage("qualified"))

	first := e.Evaluate(context.Background(), lead, nil)
	if len(first.Created) == 0 {
		t.Fatalf("expected first pass to create tasks")
	}

	second := e.Evaluate(context.Background(), lead, store.tasks)
	if len(second.Created) != 0 || len(second.Updated) != 0 {
		t.Fatalf("expected second pass to be a no-op, created %d updated %d",
			len(second.Created), len(second.Updated))
	}
}

func TestHighPriorityLeadCompressesOffsets(t *testing.T) {
	store := &fakeTaskStore{}
	e := newTestEvaluator(store, newFakeGuardStore())
	lead := newLead(withSector("logistics"), withPriority("high"))

	res := e.Evaluate(context.Background(), lead, nil)

	// Base offsets 0,0,1,1,2 compress to 0,0,0,0,1; the floor is today.
	call := findByType(res.Created, domain.TypeOutreachCall)
	if call == nil || !call.DueDate.Equal(testNow) {
		t.Fatalf("expected outreach call due today")
	}
	report := findByType(res.Created, domain.TypeMarketReport)
	if report == nil || !report.DueDate.Equal(testNow) {
		t.Fatalf("expected market report compressed to today")
	}
	scan := findByType(res.Created, domain.TypeCompetitorScan)
	if scan == nil || !scan.DueDate.Equal(testNow.AddDate(0, 0, 1)) {
		t.Fatalf("expected competitor scan compressed to one day out")
	}

	// Created tasks inherit the lead's priority.
	if call.Priority != domain.PriorityHigh {
		t.Fatalf("expected high priority task, got %s", call.Priority)
	}
}

func TestQualificationCreatesFinancialPair(t *testing.T) {
	store := &fakeTaskStore{}
	guards := newFakeGuardStore()
	e := newTestEvaluator(store, guards)
	lead := newLead(withStage("qualified"))

	res := e.Evaluate(context.Background(), lead, nil)

	if err := res.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Created) != 2 {
		t.Fatalf("expected 2 created tasks, got %d", len(res.Created))
	}

	pull := findByType(res.Created, domain.TypeFinancialDataPull)
	if pull == nil {
		t.Fatalf("expected financial data pull task")
	}
	if pull.Priority != domain.PriorityHigh {
		t.Fatalf("expected high priority data pull, got %s", pull.Priority)
	}
	if !pull.DueDate.Equal(testNow.AddDate(0, 0, 2)) {
		t.Fatalf("expected data pull due in 2 days, got %v", pull.DueDate)
	}

	fin := findByType(res.Created, domain.TypeFourYearFinancials)
	if fin == nil {
		t.Fatalf("expected four-year financials task")
	}
	if !fin.DueDate.Equal(testNow.AddDate(0, 0, 3)) {
		t.Fatalf("expected financials due in 3 days, got %v", fin.DueDate)
	}
	if len(fin.Dependencies) != 1 || fin.Dependencies[0] != string(domain.TypeFinancialDataPull) {
		t.Fatalf("expected dependency on data pull, got %v", fin.Dependencies)
	}

	if !guards.fired[guardKey(lead.ID, RuleQualification)] {
		t.Fatalf("expected qualification guard to be persisted")
	}
}

func TestQualificationSkipsLeadsNotQualified(t *testing.T) {
	store := &fakeTaskStore{}
	e := newTestEvaluator(store, newFakeGuardStore())

	for _, lead := range []leadsrepo.Lead{
		newLead(withStage("contacted")),
		func() leadsrepo.Lead {
			l := newLead(withStage("qualified"))
			l.Status = "won"
			return l
		}(),
	} {
		res := e.Evaluate(context.Background(), lead, nil)
		if len(res.Created) != 0 {
			t.Fatalf("expected no tasks for status=%s stage=%s, got %d",
				lead.Status, lead.Stage, len(res.Created))
		}
	}
}

func TestQualificationCreatesOnlyMissingTask(t *testing.T) {
	store := &fakeTaskStore{}
	guards := newFakeGuardStore()
	e := newTestEvaluator(store, guards)
	lead := newLead(withStage("qualified"))

	existing := []taskrepo.Task{
		makeTask(lead.ID, domain.TypeFourYearFinancials, domain.StatusOpen, domain.PriorityHigh, testNow),
	}

	res := e.Evaluate(context.Background(), lead, existing)

	if len(res.Created) != 1 {
		t.Fatalf("expected 1 created task, got %d", len(res.Created))
	}
	if res.Created[0].Type != domain.TypeFinancialDataPull {
		t.Fatalf("expected data pull, got %s", res.Created[0].Type)
	}
	if !guards.fired[guardKey(lead.ID, RuleQualification)] {
		t.Fatalf("expected guard even when one task pre-existed")
	}
}

func TestQualificationRetriesAfterPartialFailure(t *testing.T) {
	store := &fakeTaskStore{failTypes: map[domain.Type]bool{domain.TypeFourYearFinancials: true}}
	guards := newFakeGuardStore()
	e := newTestEvaluator(store, guards)
	lead := newLead(withStage("qualified"))

	first := e.Evaluate(context.Background(), lead, nil)
	if first.Err() == nil {
		t.Fatalf("expected error from failed create")
	}
	if len(first.Created) != 1 {
		t.Fatalf("expected data pull to still be created, got %d", len(first.Created))
	}
	if guards.fired[guardKey(lead.ID, RuleQualification)] {
		t.Fatalf("guard must not be persisted on partial failure")
	}

	// Next pass creates only the missing task, then persists the guard.
	store.failTypes = nil
	second := e.Evaluate(context.Background(), lead, store.tasks)
	if len(second.Created) != 1 || second.Created[0].Type != domain.TypeFourYearFinancials {
		t.Fatalf("expected retry to create four-year financials, got %+v", second.Created)
	}
	if !guards.fired[guardKey(lead.ID, RuleQualification)] {
		t.Fatalf("expected guard after successful retry")
	}
}

func TestCompletionChainAfterDataPull(t *testing.T) {
	store := &fakeTaskStore{}
	e := newTestEvaluator(store, newFakeGuardStore())
	lead := newLead(withStage("contacted"))

	existing := []taskrepo.Task{
		makeTask(lead.ID, domain.TypeFinancialDataPull, domain.StatusDone, domain.PriorityHigh, testNow),
	}

	res := e.Evaluate(context.Background(), lead, existing)

	if len(res.Created) != 1 {
		t.Fatalf("expected 1 created task, got %d", len(res.Created))
	}
	fin := res.Created[0]
	if fin.Type != domain.TypeFourYearFinancials {
		t.Fatalf("expected four-year financials, got %s", fin.Type)
	}
	if len(fin.Dependencies) != 1 || fin.Dependencies[0] != string(domain.TypeFinancialDataPull) {
		t.Fatalf("expected dependency on data pull, got %v", fin.Dependencies)
	}
}

func TestCompletionChainValuationPair(t *testing.T) {
	store := &fakeTaskStore{}
	e := newTestEvaluator(store, newFakeGuardStore())
	lead := newLead(withStage("contacted"))

	existing := []taskrepo.Task{
		makeTask(lead.ID, domain.TypeMarketReport, domain.StatusDone, domain.PriorityMedium, testNow),
		makeTask(lead.ID, domain.TypeFourYearFinancials, domain.StatusDone, domain.PriorityHigh, testNow),
	}

	res := e.Evaluate(context.Background(), lead, existing)

	if len(res.Created) != 2 {
		t.Fatalf("expected valuation pair, got %d tasks", len(res.Created))
	}
	for _, typ := range []domain.Type{domain.TypeInitialValuation, domain.TypeOpportunityProfiling} {
		task := findByType(res.Created, typ)
		if task == nil {
			t.Fatalf("expected task of type %s", typ)
		}
		if !task.DueDate.Equal(testNow.AddDate(0, 0, 5)) {
			t.Fatalf("type %s: expected due in 5 days, got %v", typ, task.DueDate)
		}
		if len(task.Dependencies) != 2 {
			t.Fatalf("type %s: expected both predecessors as dependencies, got %v", typ, task.Dependencies)
		}
	}

	// Re-running with the new tasks present creates nothing.
	res = e.Evaluate(context.Background(), lead, store.tasks)
	if len(res.Created) != 0 {
		t.Fatalf("expected chain to be idempotent, got %d created", len(res.Created))
	}
}

func TestCompletionChainNeedsBothPredecessors(t *testing.T) {
	store := &fakeTaskStore{}
	e := newTestEvaluator(store, newFakeGuardStore())
	lead := newLead(withStage("contacted"))

	existing := []taskrepo.Task{
		makeTask(lead.ID, domain.TypeMarketReport, domain.StatusDone, domain.PriorityMedium, testNow),
		makeTask(lead.ID, domain.TypeFourYearFinancials, domain.StatusOpen, domain.PriorityHigh, testNow),
	}

	res := e.Evaluate(context.Background(), lead, existing)

	if len(res.Created) != 0 {
		t.Fatalf("expected no valuation tasks with one open predecessor, got %d", len(res.Created))
	}
}

func TestReengagementCreatesContactTasks(t *testing.T) {
	store := &fakeTaskStore{}
	guards := newFakeGuardStore()
	e := newTestEvaluator(store, guards)
	lead := newLead(withLastContacted(testNow.Add(-73 * time.Hour)))

	res := e.Evaluate(context.Background(), lead, nil)

	if len(res.Created) != 2 {
		t.Fatalf("expected both contact tasks, got %d", len(res.Created))
	}
	for _, typ := range []domain.Type{domain.TypeVideoCall, domain.TypeOutreachCall} {
		task := findByType(res.Created, typ)
		if task == nil {
			t.Fatalf("expected task of type %s", typ)
		}
		if !task.DueDate.Equal(testNow) {
			t.Fatalf("type %s: expected immediate due date, got %v", typ, task.DueDate)
		}
		// Medium default bumped one step.
		if task.Priority != domain.PriorityHigh {
			t.Fatalf("type %s: expected high priority, got %s", typ, task.Priority)
		}
	}

	if !guards.fired[guardKey(lead.ID, RuleReengagement)] {
		t.Fatalf("expected re-engagement guard to be persisted")
	}
}

func TestReengagementThresholdBoundary(t *testing.T) {
	store := &fakeTaskStore{}
	e := newTestEvaluator(store, newFakeGuardStore())

	res := e.Evaluate(context.Background(), newLead(withLastContacted(testNow.Add(-71*time.Hour))), nil)
	if len(res.Created) != 0 {
		t.Fatalf("expected no escalation below threshold, got %d", len(res.Created))
	}

	res = e.Evaluate(context.Background(), newLead(withLastContacted(testNow.Add(-72*time.Hour))), nil)
	if len(res.Created) != 2 {
		t.Fatalf("expected escalation at exactly 72h, got %d", len(res.Created))
	}
}

func TestTerminalLeadsAreNeverEvaluated(t *testing.T) {
	store := &fakeTaskStore{}
	e := newTestEvaluator(store, newFakeGuardStore())

	lead := newLead(withSector("logistics"), withLastContacted(testNow.Add(-80*time.Hour)))
	lead.Status = "lost"

	res := e.Evaluate(context.Background(), lead, nil)

	if len(res.Created) != 0 || len(res.Updated) != 0 {
		t.Fatalf("expected no mutations for a lost lead, created %d updated %d",
			len(res.Created), len(res.Updated))
	}
}

func TestReengagementIgnoresNeverContactedLeads(t *testing.T) {
	store := &fakeTaskStore{}
	e := newTestEvaluator(store, newFakeGuardStore())

	res := e.Evaluate(context.Background(), newLead(), nil)

	if len(res.Created) != 0 {
		t.Fatalf("expected no escalation without prior contact, got %d", len(res.Created))
	}
}

func TestReengagementBumpsExistingContactTask(t *testing.T) {
	store := &fakeTaskStore{}
	e := newTestEvaluator(store, newFakeGuardStore())
	lead := newLead(withLastContacted(testNow.Add(-80 * time.Hour)))

	call := makeTask(lead.ID, domain.TypeOutreachCall, domain.StatusOpen, domain.PriorityMedium, testNow.Add(48*time.Hour))
	store.tasks = append(store.tasks, call)

	res := e.Evaluate(context.Background(), lead, store.tasks)

	if len(res.Updated) != 1 {
		t.Fatalf("expected 1 updated task, got %d", len(res.Updated))
	}
	got := res.Updated[0]
	if got.ID != call.ID {
		t.Fatalf("expected existing call to be updated")
	}
	if got.Priority != domain.PriorityHigh {
		t.Fatalf("expected bump to high, got %s", got.Priority)
	}
	if !got.DueDate.Equal(testNow) {
		t.Fatalf("expected due date pulled to now, got %v", got.DueDate)
	}

	// The missing video call is still created.
	if len(res.Created) != 1 || res.Created[0].Type != domain.TypeVideoCall {
		t.Fatalf("expected video call created, got %+v", res.Created)
	}
}

func TestReengagementSkipWindow(t *testing.T) {
	store := &fakeTaskStore{}
	e := newTestEvaluator(store, newFakeGuardStore())
	lead := newLead(withLastContacted(testNow.Add(-80 * time.Hour)))

	// Both contact tasks due inside 24h: nothing to do.
	store.tasks = append(store.tasks,
		makeTask(lead.ID, domain.TypeOutreachCall, domain.StatusOpen, domain.PriorityMedium, testNow.Add(12*time.Hour)),
		makeTask(lead.ID, domain.TypeVideoCall, domain.StatusSnoozed, domain.PriorityMedium, testNow.Add(23*time.Hour)),
	)

	res := e.Evaluate(context.Background(), lead, store.tasks)

	if len(res.Created) != 0 || len(res.Updated) != 0 {
		t.Fatalf("expected skip window to suppress changes, created %d updated %d",
			len(res.Created), len(res.Updated))
	}
}

func TestReengagementUrgentStaysUrgent(t *testing.T) {
	store := &fakeTaskStore{}
	e := newTestEvaluator(store, newFakeGuardStore())
	lead := newLead(withLastContacted(testNow.Add(-80 * time.Hour)))

	call := makeTask(lead.ID, domain.TypeOutreachCall, domain.StatusOpen, domain.PriorityUrgent, testNow.Add(48*time.Hour))
	store.tasks = append(store.tasks, call)

	res := e.Evaluate(context.Background(), lead, store.tasks)

	updated := findByType(res.Updated, domain.TypeOutreachCall)
	if updated == nil {
		t.Fatalf("expected outreach call to be rescheduled")
	}
	if updated.Priority != domain.PriorityUrgent {
		t.Fatalf("expected urgent to saturate, got %s", updated.Priority)
	}
	if !updated.DueDate.Equal(testNow) {
		t.Fatalf("expected due date pulled to now, got %v", updated.DueDate)
	}
}

func TestReengagementDoneTasksDoNotCount(t *testing.T) {
	store := &fakeTaskStore{}
	e := newTestEvaluator(store, newFakeGuardStore())
	lead := newLead(withLastContacted(testNow.Add(-80 * time.Hour)))

	done := []taskrepo.Task{
		makeTask(lead.ID, domain.TypeOutreachCall, domain.StatusDone, domain.PriorityMedium, testNow.Add(-time.Hour)),
		makeTask(lead.ID, domain.TypeVideoCall, domain.StatusDone, domain.PriorityMedium, testNow.Add(-time.Hour)),
	}

	res := e.Evaluate(context.Background(), lead, done)

	if len(res.Created) != 2 {
		t.Fatalf("expected fresh contact tasks despite done ones, got %d", len(res.Created))
	}
}

func TestGuardNotPersistedWhenMarkFails(t *testing.T) {
	store := &fakeTaskStore{}
	guards := newFakeGuardStore()
	guards.markErr = errors.New("insert failed")
	e := newTestEvaluator(store, guards)
	lead := newLead(withSector("logistics"))

	res := e.Evaluate(context.Background(), lead, nil)

	if res.Err() == nil {
		t.Fatalf("expected guard persistence failure to surface")
	}
	if len(res.Created) != 5 {
		t.Fatalf("mutations should still have been applied, got %d", len(res.Created))
	}
}

// recordHandler captures log records so tests can assert on structured
// attributes.
type recordHandler struct {
	records []slog.Record
}

func (h *recordHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordHandler) Handle(_ context.Context, r slog.Record) error {
	h.records = append(h.records, r)
	return nil
}

func (h *recordHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordHandler) WithGroup(string) slog.Handler      { return h }

func (h *recordHandler) ruleFiredCounts(t *testing.T, rule Rule) (created, updated int64) {
	t.Helper()
	for _, r := range h.records {
		if r.Message != "rule_fired" {
			continue
		}
		var match bool
		r.Attrs(func(a slog.Attr) bool {
			if a.Key == "rule" && a.Value.String() == string(rule) {
				match = true
			}
			return true
		})
		if !match {
			continue
		}
		r.Attrs(func(a slog.Attr) bool {
			switch a.Key {
			case "created":
				created = a.Value.Int64()
			case "updated":
				updated = a.Value.Int64()
			}
			return true
		})
		return created, updated
	}
	t.Fatalf("no rule_fired record for %s", rule)
	return 0, 0
}

func TestRuleFiredLogsPerRuleCounts(t *testing.T) {
	handler := &recordHandler{}
	store := &fakeTaskStore{}
	e := NewEvaluator(store, newFakeGuardStore(), 72*time.Hour, 24*time.Hour,
		&logger.Logger{Logger: slog.New(handler)})
	e.now = func() time.Time { return testNow }

	// Qualified and stale, no sector: qualification and re-engagement each
	// create two tasks, the fan-out stays silent.
	lead := newLead(withStage("qualified"), withLastContacted(testNow.Add(-80*time.Hour)))

	res := e.Evaluate(context.Background(), lead, nil)

	if len(res.Created) != 4 {
		t.Fatalf("expected 4 created tasks across both rules, got %d", len(res.Created))
	}

	created, updated := handler.ruleFiredCounts(t, RuleQualification)
	if created != 2 || updated != 0 {
		t.Fatalf("qualification counts = created %d, updated %d; want 2, 0", created, updated)
	}

	created, updated = handler.ruleFiredCounts(t, RuleReengagement)
	if created != 2 || updated != 0 {
		t.Fatalf("re-engagement counts = created %d, updated %d; want 2, 0", created, updated)
	}
}
