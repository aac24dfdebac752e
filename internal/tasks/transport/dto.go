// Package transport defines request/response DTOs for the tasks module.
package transport

import "time"

// CreateTaskRequest creates a manual follow-up task for a lead.
type CreateTaskRequest struct {
	LeadID   string     `json:"leadId" binding:"required" validate:"required,uuid"`
	Type     string     `json:"type" binding:"required" validate:"required"`
	Priority string     `json:"priority,omitempty" validate:"omitempty,oneof=low medium high urgent"`
	DueDate  *time.Time `json:"dueDate,omitempty"`
}

// SnoozeTaskRequest defers an open task until the given time.
type SnoozeTaskRequest struct {
	Until time.Time `json:"until" binding:"required" validate:"required"`
}

// TaskResponse is the API representation of a task.
type TaskResponse struct {
	ID           string    `json:"id"`
	LeadID       string    `json:"leadId"`
	Type         string    `json:"type"`
	Status       string    `json:"status"`
	Priority     string    `json:"priority"`
	DueDate      time.Time `json:"dueDate"`
	Dependencies []string  `json:"dependencies"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TaskListResponse is a list of tasks for a lead.
type TaskListResponse struct {
	Items []TaskResponse `json:"items"`
	Total int            `json:"total"`
}
