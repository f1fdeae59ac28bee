// Package scheduler runs deferred offer work on asynq: an expiry check is
// enqueued when an offer is sent with a validity date, and a worker process
// flips overdue offers to expired.
package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskOfferExpiry = "offers.expiry"

// OfferExpiryPayload identifies the offer to re-check when the task fires.
type OfferExpiryPayload struct {
	OfferID        string `json:"offerId"`
	OrganizationID string `json:"organizationId"`
}

func NewOfferExpiryTask(payload OfferExpiryPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOfferExpiry, data), nil
}

func ParseOfferExpiryPayload(task *asynq.Task) (OfferExpiryPayload, error) {
	var payload OfferExpiryPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return OfferExpiryPayload{}, err
	}
	return payload, nil
}
