// Package service provides business logic for follow-up tasks.
package service

import (
	"context"
	"time"

	"dealflow_backend/internal/events"
	"dealflow_backend/internal/tasks/domain"
	"dealflow_backend/internal/tasks/repository"
	"dealflow_backend/internal/tasks/transport"
	"dealflow_backend/platform/apperr"
	"dealflow_backend/platform/logger"

	"github.com/google/uuid"
)

// Service provides task CRUD operations for the surrounding CRM. Status
// changes publish TaskStatusChanged so the automation engine can react to
// completions.
type Service struct {
	repo *repository.Repository
	bus  events.Bus
	log  *logger.Logger
}

// New creates a new tasks service.
func New(repo *repository.Repository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// Repository exposes the underlying task store for the automation engine.
func (s *Service) Repository() *repository.Repository {
	return s.repo
}

// ListByLead returns all tasks attached to a lead.
func (s *Service) ListByLead(ctx context.Context, leadID uuid.UUID) (transport.TaskListResponse, error) {
	items, err := s.repo.ListByLead(ctx, leadID)
	if err != nil {
		return transport.TaskListResponse{}, err
	}
	return toListResponse(items), nil
}

// Create creates a manual task. The due date defaults to the type's template
// offset when absent; the priority defaults to the template priority.
func (s *Service) Create(ctx context.Context, req transport.CreateTaskRequest) (transport.TaskResponse, error) {
	leadID, err := uuid.Parse(req.LeadID)
	if err != nil {
		return transport.TaskResponse{}, apperr.Validation("invalid lead ID")
	}

	taskType := domain.Type(req.Type)
	if !domain.IsKnownType(taskType) {
		return transport.TaskResponse{}, apperr.Validation("unknown task type")
	}

	tpl := domain.TemplateFor(taskType)
	priority := domain.Priority(req.Priority).OrDefault(tpl.DefaultPriority)

	dueDate := time.Now().AddDate(0, 0, tpl.DueOffsetDays)
	if req.DueDate != nil {
		dueDate = *req.DueDate
	}

	task, err := s.repo.Create(ctx, repository.CreateTaskParams{
		LeadID:   leadID,
		Type:     taskType,
		Priority: priority,
		DueDate:  dueDate,
	})
	if err != nil {
		return transport.TaskResponse{}, err
	}

	return toResponse(task), nil
}

// Complete marks a task done. Done is terminal.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (transport.TaskResponse, error) {
	return s.transition(ctx, id, domain.StatusDone, nil)
}

// Snooze defers an open task until the given time.
func (s *Service) Snooze(ctx context.Context, id uuid.UUID, until time.Time) (transport.TaskResponse, error) {
	return s.transition(ctx, id, domain.StatusSnoozed, &until)
}

// Reopen returns a snoozed task to the open state.
func (s *Service) Reopen(ctx context.Context, id uuid.UUID) (transport.TaskResponse, error) {
	return s.transition(ctx, id, domain.StatusOpen, nil)
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, next domain.Status, dueDate *time.Time) (transport.TaskResponse, error) {
	task, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return transport.TaskResponse{}, apperr.NotFound("task not found")
		}
		return transport.TaskResponse{}, err
	}

	if !task.Status.CanTransition(next) {
		return transport.TaskResponse{}, apperr.Conflict("task cannot move from " + string(task.Status) + " to " + string(next))
	}

	updated, err := s.repo.Update(ctx, id, repository.UpdateTaskParams{
		Status:  &next,
		DueDate: dueDate,
	})
	if err != nil {
		return transport.TaskResponse{}, err
	}

	s.bus.Publish(ctx, events.TaskStatusChanged{
		BaseEvent: events.NewBaseEvent(),
		TaskID:    updated.ID,
		LeadID:    updated.LeadID,
		TaskType:  string(updated.Type),
		OldStatus: string(task.Status),
		NewStatus: string(updated.Status),
	})

	return toResponse(updated), nil
}

func toResponse(task repository.Task) transport.TaskResponse {
	deps := task.Dependencies
	if deps == nil {
		deps = []string{}
	}
	return transport.TaskResponse{
		ID:           task.ID.String(),
		LeadID:       task.LeadID.String(),
		Type:         string(task.Type),
		Status:       string(task.Status),
		Priority:     string(task.Priority),
		DueDate:      task.DueDate,
		Dependencies: deps,
		CreatedAt:    task.CreatedAt,
		UpdatedAt:    task.UpdatedAt,
	}
}

func toListResponse(items []repository.Task) transport.TaskListResponse {
	responses := make([]transport.TaskResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, toResponse(item))
	}
	return transport.TaskListResponse{Items: responses, Total: len(responses)}
}
