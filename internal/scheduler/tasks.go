// Package scheduler enqueues and processes background sync tasks over
// asynq.
package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskAccountSync = "sync.account_to_leadgen"

const TaskActivitySync = "sync.activities"

const TaskEnrichment = "sync.enrichment"

type AccountSyncPayload struct {
	AccountID string `json:"accountId"`
}

type ActivitySyncPayload struct {
	AccountID string `json:"accountId"`
}

type EnrichmentPayload struct {
	AccountID string `json:"accountId"`
}

func NewAccountSyncTask(payload AccountSyncPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAccountSync, data), nil
}

func ParseAccountSyncPayload(task *asynq.Task) (AccountSyncPayload, error) {
	var payload AccountSyncPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return AccountSyncPayload{}, err
	}
	return payload, nil
}

func NewActivitySyncTask(payload ActivitySyncPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskActivitySync, data), nil
}

func ParseActivitySyncPayload(task *asynq.Task) (ActivitySyncPayload, error) {
	var payload ActivitySyncPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ActivitySyncPayload{}, err
	}
	return payload, nil
}

func NewEnrichmentTask(payload EnrichmentPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskEnrichment, data), nil
}

func ParseEnrichmentPayload(task *asynq.Task) (EnrichmentPayload, error) {
	var payload EnrichmentPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return EnrichmentPayload{}, err
	}
	return payload, nil
}
