// Package tasks provides the follow-up task bounded context module.
// Tasks are units of work attached to exactly one lead; they are created by
// the automation engine or by hand, and completed or snoozed by users.
package tasks

import (
	"dealflow_backend/internal/events"
	apphttp "dealflow_backend/internal/http"
	"dealflow_backend/internal/tasks/handler"
	"dealflow_backend/internal/tasks/repository"
	"dealflow_backend/internal/tasks/service"
	"dealflow_backend/platform/logger"
	"dealflow_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the tasks bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the tasks module with all its dependencies.
func NewModule(pool *pgxpool.Pool, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "tasks"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the task store for direct access by the automation engine.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts task routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/tasks")
	group.POST("", m.handler.Create)
	group.POST("/:id/complete", m.handler.Complete)
	group.POST("/:id/snooze", m.handler.Snooze)
	group.POST("/:id/reopen", m.handler.Reopen)

	// Read side lives under the lead it belongs to.
	ctx.V1.GET("/leads/:id/tasks", m.handler.ListByLead)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
