// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"dealflow_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadCreated is published when a new lead is created.
type LeadCreated struct {
	BaseEvent
	LeadID uuid.UUID `json:"leadId"`
	Sector string    `json:"sector,omitempty"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// LeadUpdated is published whenever lead fields change (sector, status,
// stage, priority, or last-contacted). The automation engine re-evaluates
// the lead on every such change.
type LeadUpdated struct {
	BaseEvent
	LeadID uuid.UUID `json:"leadId"`
	Status string    `json:"status"`
	Stage  string    `json:"stage"`
}

func (e LeadUpdated) EventName() string { return "leads.lead.updated" }

// =============================================================================
// Tasks Domain Events
// =============================================================================

// TaskStatusChanged is published when a follow-up task transitions between
// statuses (completed, snoozed, reopened). Completion-chained rules react
// to these.
type TaskStatusChanged struct {
	BaseEvent
	TaskID    uuid.UUID `json:"taskId"`
	LeadID    uuid.UUID `json:"leadId"`
	TaskType  string    `json:"taskType"`
	OldStatus string    `json:"oldStatus"`
	NewStatus string    `json:"newStatus"`
}

func (e TaskStatusChanged) EventName() string { return "tasks.task.status_changed" }
