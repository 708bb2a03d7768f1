package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskLeadProcess = "outreach:lead.process"

// LeadProcessPayload asks the worker to run one lead through the engine.
// Trigger records what caused the enqueue, for logs.
type LeadProcessPayload struct {
	LeadID  string `json:"leadId"`
	Trigger string `json:"trigger"`
}

func NewLeadProcessTask(payload LeadProcessPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLeadProcess, data), nil
}

func ParseLeadProcessPayload(task *asynq.Task) (LeadProcessPayload, error) {
	var payload LeadProcessPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return LeadProcessPayload{}, err
	}
	return payload, nil
}
