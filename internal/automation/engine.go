// Package automation implements the lead task automation engine: a rule
// evaluator that inspects a lead and its follow-up tasks and decides which
// tasks to create, re-prioritize, or reschedule without user action.
package automation

import (
	"context"
	"errors"
	"time"

	leadsdomain "dealflow_backend/internal/leads/domain"
	leadsrepo "dealflow_backend/internal/leads/repository"
	"dealflow_backend/internal/tasks/domain"
	taskrepo "dealflow_backend/internal/tasks/repository"
	"dealflow_backend/platform/logger"

	"github.com/google/uuid"
)

// Rule identifies one of the fixed automation rules.
type Rule string

const (
	// RuleStarterFanOut creates the onboarding task set once the lead's
	// sector becomes known.
	RuleStarterFanOut Rule = "starter_fan_out"
	// RuleQualification ensures the financial diligence chain exists once
	// the lead qualifies.
	RuleQualification Rule = "qualification"
	// RuleCompletionChain creates successor tasks when their predecessors
	// complete. Naturally idempotent; never guarded.
	RuleCompletionChain Rule = "completion_chain"
	// RuleReengagement escalates contact tasks for stalled leads.
	RuleReengagement Rule = "reengagement"
)

// TaskStore is the narrow mutation surface the evaluator needs.
// *tasks/repository.Repository satisfies it.
type TaskStore interface {
	Create(ctx context.Context, params taskrepo.CreateTaskParams) (taskrepo.Task, error)
	Update(ctx context.Context, id uuid.UUID, params taskrepo.UpdateTaskParams) (taskrepo.Task, error)
}

// GuardStore persists per-lead, per-rule "already fired" state so that
// restarts or concurrent observers cannot re-fire a committed rule.
type GuardStore interface {
	HasFired(ctx context.Context, leadID uuid.UUID, rule Rule) (bool, error)
	MarkFired(ctx context.Context, leadID uuid.UUID, rule Rule) error
}

// Result reports the side effects of one evaluation pass. Mutations are
// independent: a failed create or update is recorded in Errors and the pass
// continues, so partial application is visible to the caller.
type Result struct {
	Created []taskrepo.Task
	Updated []taskrepo.Task
	Errors  []error
}

// Err joins all mutation errors into one, or returns nil.
func (r Result) Err() error {
	return errors.Join(r.Errors...)
}

// Evaluator applies the fixed rule set to a (lead, tasks) snapshot.
type Evaluator struct {
	tasks      TaskStore
	guards     GuardStore
	threshold  time.Duration
	skipWindow time.Duration
	log        *logger.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewEvaluator creates an evaluator. threshold is the re-engagement
// staleness cutoff (72h in production); skipWindow is the due-date window
// inside which an existing contact task is left untouched (24h).
func NewEvaluator(tasks TaskStore, guards GuardStore, threshold, skipWindow time.Duration, log *logger.Logger) *Evaluator {
	return &Evaluator{
		tasks:      tasks,
		guards:     guards,
		threshold:  threshold,
		skipWindow: skipWindow,
		log:        log,
		now:        time.Now,
	}
}

// Evaluate runs the rules in fixed order against the snapshot and issues the
// resulting task-store mutations. Each rule checks for existence before
// creating, so concurrent invocations cannot duplicate tasks even when the
// guard has not been persisted yet.
func (e *Evaluator) Evaluate(ctx context.Context, lead leadsrepo.Lead, tasks []taskrepo.Task) Result {
	snap := newSnapshot(tasks)
	res := &Result{}

	if leadsdomain.IsTerminal(lead.Status) {
		e.log.Info("automation: skipping terminal lead",
			"leadId", lead.ID,
			"status", lead.Status)
		return *res
	}

	e.runStarterFanOut(ctx, lead, snap, res)
	e.runQualification(ctx, lead, snap, res)
	e.runCompletionChain(ctx, lead, snap, res)
	e.runReengagement(ctx, lead, snap, res)

	return *res
}

// Rule A: once the lead's sector is known and no starter task of any status
// exists, create the fixed onboarding set with staggered due offsets.
func (e *Evaluator) runStarterFanOut(ctx context.Context, lead leadsrepo.Lead, snap *snapshot, res *Result) {
	if lead.Sector == nil || *lead.Sector == "" {
		return
	}
	for _, typ := range domain.StarterSet {
		if snap.existsAny(typ) {
			return
		}
	}

	fired, err := e.guards.HasFired(ctx, lead.ID, RuleStarterFanOut)
	if err != nil {
		res.Errors = append(res.Errors, err)
		return
	}
	if fired {
		return
	}

	leadPriority := priorityOf(lead)
	complete := true
	createdBefore, updatedBefore := len(res.Created), len(res.Updated)
	for _, typ := range domain.StarterSet {
		tpl := domain.TemplateFor(typ)
		if _, err := e.createTask(ctx, RuleStarterFanOut, lead, snap, res, taskrepo.CreateTaskParams{
			LeadID:   lead.ID,
			Type:     typ,
			Priority: leadPriority.OrDefault(tpl.DefaultPriority),
			DueDate:  e.dueIn(tpl.DueOffsetDays, leadPriority),
		}); err != nil {
			complete = false
		}
	}

	e.finishGuardedRule(ctx, RuleStarterFanOut, lead, complete, res, createdBefore, updatedBefore)
}

// Rule B: a qualified lead gets the financial diligence pair: a data pull
// and its dependent four-year financials.
func (e *Evaluator) runQualification(ctx context.Context, lead leadsrepo.Lead, snap *snapshot, res *Result) {
	if !leadsdomain.IsQualified(lead.Status, lead.Stage) {
		return
	}

	fired, err := e.guards.HasFired(ctx, lead.ID, RuleQualification)
	if err != nil {
		res.Errors = append(res.Errors, err)
		return
	}
	if fired {
		return
	}

	leadPriority := priorityOf(lead)
	complete := true
	createdBefore, updatedBefore := len(res.Created), len(res.Updated)

	if !snap.existsAny(domain.TypeFinancialDataPull) {
		tpl := domain.TemplateFor(domain.TypeFinancialDataPull)
		if _, err := e.createTask(ctx, RuleQualification, lead, snap, res, taskrepo.CreateTaskParams{
			LeadID:   lead.ID,
			Type:     domain.TypeFinancialDataPull,
			Priority: leadPriority.OrDefault(tpl.DefaultPriority),
			DueDate:  e.dueIn(tpl.DueOffsetDays, leadPriority),
		}); err != nil {
			complete = false
		}
	}

	if !snap.existsAny(domain.TypeFourYearFinancials) {
		tpl := domain.TemplateFor(domain.TypeFourYearFinancials)
		if _, err := e.createTask(ctx, RuleQualification, lead, snap, res, taskrepo.CreateTaskParams{
			LeadID:       lead.ID,
			Type:         domain.TypeFourYearFinancials,
			Priority:     leadPriority.OrDefault(tpl.DefaultPriority),
			DueDate:      e.dueIn(tpl.DueOffsetDays, leadPriority),
			Dependencies: []string{string(domain.TypeFinancialDataPull)},
		}); err != nil {
			complete = false
		}
	}

	e.finishGuardedRule(ctx, RuleQualification, lead, complete, res, createdBefore, updatedBefore)
}

// Rule C: completion-chained creation. No guard: the absence check makes it
// idempotent, and it must re-run on every task-list change.
func (e *Evaluator) runCompletionChain(ctx context.Context, lead leadsrepo.Lead, snap *snapshot, res *Result) {
	leadPriority := priorityOf(lead)

	if snap.isDone(domain.TypeFinancialDataPull) && !snap.existsAny(domain.TypeFourYearFinancials) {
		tpl := domain.TemplateFor(domain.TypeFourYearFinancials)
		_, _ = e.createTask(ctx, RuleCompletionChain, lead, snap, res, taskrepo.CreateTaskParams{
			LeadID:       lead.ID,
			Type:         domain.TypeFourYearFinancials,
			Priority:     leadPriority.OrDefault(tpl.DefaultPriority),
			DueDate:      e.dueIn(tpl.DueOffsetDays, leadPriority),
			Dependencies: []string{string(domain.TypeFinancialDataPull)},
		})
	}

	if snap.isDone(domain.TypeMarketReport) && snap.isDone(domain.TypeFourYearFinancials) {
		successors := []domain.Type{domain.TypeInitialValuation, domain.TypeOpportunityProfiling}
		deps := []string{string(domain.TypeMarketReport), string(domain.TypeFourYearFinancials)}
		for _, typ := range successors {
			if snap.existsAny(typ) {
				continue
			}
			tpl := domain.TemplateFor(typ)
			_, _ = e.createTask(ctx, RuleCompletionChain, lead, snap, res, taskrepo.CreateTaskParams{
				LeadID:       lead.ID,
				Type:         typ,
				Priority:     leadPriority.OrDefault(tpl.DefaultPriority),
				DueDate:      e.dueIn(tpl.DueOffsetDays, leadPriority),
				Dependencies: deps,
			})
		}
	}
}

// Rule D: re-engagement escalation for leads not contacted within the
// threshold. Contact tasks already due inside the skip window are urgent
// enough; others get a one-step priority bump and an immediate due date.
func (e *Evaluator) runReengagement(ctx context.Context, lead leadsrepo.Lead, snap *snapshot, res *Result) {
	now := e.now()
	elapsed := leadsdomain.HoursSinceContact(lead.LastContacted, now)
	if elapsed < e.threshold.Hours() {
		return
	}

	fired, err := e.guards.HasFired(ctx, lead.ID, RuleReengagement)
	if err != nil {
		res.Errors = append(res.Errors, err)
		return
	}
	if fired {
		return
	}

	complete := true
	createdBefore, updatedBefore := len(res.Created), len(res.Updated)
	for _, typ := range domain.ContactTypes {
		existing := snap.effective(typ)
		if existing != nil {
			if existing.DueDate.Sub(now) <= e.skipWindow {
				continue
			}

			bumped := existing.Priority.Bump()
			updated, err := e.tasks.Update(ctx, existing.ID, taskrepo.UpdateTaskParams{
				Priority: &bumped,
				DueDate:  &now,
			})
			if err != nil {
				complete = false
				res.Errors = append(res.Errors, err)
				e.log.MutationError(string(RuleReengagement), lead.ID.String(), err)
				continue
			}
			snap.replace(updated)
			res.Updated = append(res.Updated, updated)
			continue
		}

		if _, err := e.createTask(ctx, RuleReengagement, lead, snap, res, taskrepo.CreateTaskParams{
			LeadID:   lead.ID,
			Type:     typ,
			Priority: priorityOf(lead).OrDefault(domain.PriorityMedium).Bump(),
			DueDate:  now,
		}); err != nil {
			complete = false
		}
	}

	e.finishGuardedRule(ctx, RuleReengagement, lead, complete, res, createdBefore, updatedBefore)
}

// createTask issues a create mutation and folds the outcome into the
// snapshot and result.
func (e *Evaluator) createTask(ctx context.Context, rule Rule, lead leadsrepo.Lead, snap *snapshot, res *Result, params taskrepo.CreateTaskParams) (taskrepo.Task, error) {
	task, err := e.tasks.Create(ctx, params)
	if err != nil {
		res.Errors = append(res.Errors, err)
		e.log.MutationError(string(rule), lead.ID.String(), err)
		return taskrepo.Task{}, err
	}
	snap.add(task)
	res.Created = append(res.Created, task)
	return task, nil
}

// finishGuardedRule persists the guard only when every mutation of the rule
// succeeded. On partial failure the guard stays clear so the next pass
// retries; the existence checks prevent duplicates on retry.
func (e *Evaluator) finishGuardedRule(ctx context.Context, rule Rule, lead leadsrepo.Lead, complete bool, res *Result, createdBefore, updatedBefore int) {
	if !complete {
		return
	}
	if err := e.guards.MarkFired(ctx, lead.ID, rule); err != nil {
		res.Errors = append(res.Errors, err)
		e.log.MutationError(string(rule), lead.ID.String(), err)
		return
	}
	e.log.RuleFired(string(rule), lead.ID.String(), len(res.Created)-createdBefore, len(res.Updated)-updatedBefore)
}

// dueIn computes a due date offsetDays from now, compressed for
// high-urgency leads.
func (e *Evaluator) dueIn(offsetDays int, leadPriority domain.Priority) time.Time {
	return e.now().AddDate(0, 0, domain.CompressOffset(offsetDays, leadPriority))
}

func priorityOf(lead leadsrepo.Lead) domain.Priority {
	if lead.Priority == nil {
		return ""
	}
	return domain.Priority(*lead.Priority)
}

// snapshot is the evaluator's working view of a lead's tasks. Creates made
// earlier in a pass are visible to later rules.
type snapshot struct {
	tasks []taskrepo.Task
}

func newSnapshot(tasks []taskrepo.Task) *snapshot {
	return &snapshot{tasks: append([]taskrepo.Task(nil), tasks...)}
}

// existsAny reports whether a task of the type exists in any status.
func (s *snapshot) existsAny(typ domain.Type) bool {
	for i := range s.tasks {
		if s.tasks[i].Type == typ {
			return true
		}
	}
	return false
}

// effective returns the open or snoozed task of the type, if any.
func (s *snapshot) effective(typ domain.Type) *taskrepo.Task {
	for i := range s.tasks {
		if s.tasks[i].Type == typ && s.tasks[i].Status.IsEffective() {
			return &s.tasks[i]
		}
	}
	return nil
}

// isDone reports whether any task of the type is completed.
func (s *snapshot) isDone(typ domain.Type) bool {
	for i := range s.tasks {
		if s.tasks[i].Type == typ && s.tasks[i].Status == domain.StatusDone {
			return true
		}
	}
	return false
}

func (s *snapshot) add(task taskrepo.Task) {
	s.tasks = append(s.tasks, task)
}

func (s *snapshot) replace(task taskrepo.Task) {
	for i := range s.tasks {
		if s.tasks[i].ID == task.ID {
			s.tasks[i] = task
			return
		}
	}
	s.tasks = append(s.tasks, task)
}
