package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTokenSweep deletes expired token records from the credential
	// store. The request path never deletes, so without the sweep expired
	// records accumulate forever.
	TaskTokenSweep = "auth:token_sweep"
)

// TokenSweepPayload configures a sweep run.
type TokenSweepPayload struct {
	// GraceMinutes keeps records around for a while past expiry so a
	// support investigation can still see recently expired tokens.
	GraceMinutes int `json:"grace_minutes"`
}

// NewTokenSweepTask constructs an Asynq task for the sweep.
func NewTokenSweepTask(graceMinutes int) (*asynq.Task, error) {
	if graceMinutes < 0 {
		return nil, fmt.Errorf("jobs: negative grace %d", graceMinutes)
	}
	data, err := json.Marshal(TokenSweepPayload{GraceMinutes: graceMinutes})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTokenSweep, data), nil
}
