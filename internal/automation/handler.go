package automation

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	taskrepo "dealflow_backend/internal/tasks/repository"
	"dealflow_backend/platform/httpkit"
)

// handler exposes the manual evaluation trigger.
type handler struct {
	module *Module
}

func newHandler(m *Module) *handler {
	return &handler{module: m}
}

// EvaluationResponse summarizes the side effects of one evaluation pass.
type EvaluationResponse struct {
	LeadID  string       `json:"leadId"`
	Created []TaskEffect `json:"created"`
	Updated []TaskEffect `json:"updated"`
	Errors  []string     `json:"errors,omitempty"`
}

// TaskEffect describes a task the pass created or changed.
type TaskEffect struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Priority string `json:"priority"`
	DueDate  string `json:"dueDate"`
}

// Evaluate runs the rule set against a lead on demand.
// POST /api/v1/leads/:id/evaluate
func (h *handler) Evaluate(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead ID", nil)
		return
	}

	res, err := h.module.EvaluateLead(c.Request.Context(), leadID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, toEvaluationResponse(leadID, res))
}

func toEvaluationResponse(leadID uuid.UUID, res Result) EvaluationResponse {
	out := EvaluationResponse{
		LeadID:  leadID.String(),
		Created: make([]TaskEffect, 0, len(res.Created)),
		Updated: make([]TaskEffect, 0, len(res.Updated)),
	}
	for _, t := range res.Created {
		out.Created = append(out.Created, toTaskEffect(t))
	}
	for _, t := range res.Updated {
		out.Updated = append(out.Updated, toTaskEffect(t))
	}
	for _, e := range res.Errors {
		out.Errors = append(out.Errors, e.Error())
	}
	return out
}

func toTaskEffect(t taskrepo.Task) TaskEffect {
	return TaskEffect{
		ID:       t.ID.String(),
		Type:     string(t.Type),
		Priority: string(t.Priority),
		DueDate:  t.DueDate.Format(time.RFC3339),
	}
}
