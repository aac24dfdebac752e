// Package service provides business logic for lead management.
package service

import (
	"context"
	"time"

	"dealflow_backend/internal/events"
	"dealflow_backend/internal/leads/domain"
	"dealflow_backend/internal/leads/repository"
	"dealflow_backend/internal/leads/transport"
	"dealflow_backend/platform/apperr"
	"dealflow_backend/platform/logger"

	"github.com/google/uuid"
)

// Service provides lead CRUD for the surrounding CRM. Every mutation
// publishes an event so the automation engine re-evaluates the lead.
type Service struct {
	repo *repository.Repository
	bus  events.Bus
	log  *logger.Logger
}

// New creates a new leads service.
func New(repo *repository.Repository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// Repository exposes the lead read model for the automation engine.
func (s *Service) Repository() *repository.Repository {
	return s.repo
}

// Create registers a new prospect and announces it on the bus.
func (s *Service) Create(ctx context.Context, req transport.CreateLeadRequest) (transport.LeadResponse, error) {
	params := repository.CreateLeadParams{CompanyName: req.CompanyName}
	if req.Sector != "" {
		params.Sector = &req.Sector
	}
	if req.Priority != "" {
		params.Priority = &req.Priority
	}

	lead, err := s.repo.Create(ctx, params)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Sector:    req.Sector,
	})

	return toResponse(lead), nil
}

// GetByID retrieves a lead by ID.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return transport.LeadResponse{}, apperr.NotFound("lead not found")
		}
		return transport.LeadResponse{}, err
	}
	return toResponse(lead), nil
}

// List retrieves leads with pagination.
func (s *Service) List(ctx context.Context, req transport.ListLeadsRequest) (transport.LeadListResponse, error) {
	page := req.Page
	pageSize := req.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	items, err := s.repo.List(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return transport.LeadListResponse{}, err
	}

	responses := make([]transport.LeadResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, toResponse(item))
	}
	return transport.LeadListResponse{Items: responses, Page: page, PageSize: pageSize}, nil
}

// Update applies a partial update and announces the change on the bus.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateLeadRequest) (transport.LeadResponse, error) {
	if req.Status != nil && !domain.IsKnownStatus(*req.Status) {
		return transport.LeadResponse{}, apperr.Validation("unknown lead status")
	}
	if req.Stage != nil && !domain.IsKnownStage(*req.Stage) {
		return transport.LeadResponse{}, apperr.Validation("unknown pipeline stage")
	}

	lead, err := s.repo.Update(ctx, id, repository.UpdateLeadParams{
		CompanyName: req.CompanyName,
		Sector:      req.Sector,
		Status:      req.Status,
		Stage:       req.Stage,
		Priority:    req.Priority,
	})
	if err != nil {
		if err == repository.ErrNotFound {
			return transport.LeadResponse{}, apperr.NotFound("lead not found")
		}
		return transport.LeadResponse{}, err
	}

	s.bus.Publish(ctx, events.LeadUpdated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Status:    lead.Status,
		Stage:     lead.Stage,
	})

	return toResponse(lead), nil
}

// TouchContact records a contact moment, resetting the re-engagement clock.
func (s *Service) TouchContact(ctx context.Context, id uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.repo.TouchContact(ctx, id, time.Now())
	if err != nil {
		if err == repository.ErrNotFound {
			return transport.LeadResponse{}, apperr.NotFound("lead not found")
		}
		return transport.LeadResponse{}, err
	}

	s.bus.Publish(ctx, events.LeadUpdated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Status:    lead.Status,
		Stage:     lead.Stage,
	})

	return toResponse(lead), nil
}

func toResponse(lead repository.Lead) transport.LeadResponse {
	resp := transport.LeadResponse{
		ID:            lead.ID.String(),
		CompanyName:   lead.CompanyName,
		Status:        lead.Status,
		Stage:         lead.Stage,
		LastContacted: lead.LastContacted,
		CreatedAt:     lead.CreatedAt,
		UpdatedAt:     lead.UpdatedAt,
	}
	if lead.Sector != nil {
		resp.Sector = *lead.Sector
	}
	if lead.Priority != nil {
		resp.Priority = *lead.Priority
	}
	return resp
}
