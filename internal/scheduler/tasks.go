// Package scheduler runs the asynchronous side of the automation engine:
// asynq task definitions, the worker that evaluates leads off-queue, and the
// dispatcher that sweeps for stale leads the event triggers missed.
package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskLeadSweep = "automation.lead.sweep"

type LeadSweepPayload struct {
	LeadID string `json:"leadId"`
	Reason string `json:"reason,omitempty"`
}

func NewLeadSweepTask(payload LeadSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLeadSweep, data), nil
}

func ParseLeadSweepPayload(task *asynq.Task) (LeadSweepPayload, error) {
	var payload LeadSweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return LeadSweepPayload{}, err
	}
	return payload, nil
}
