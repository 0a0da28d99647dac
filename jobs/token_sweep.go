package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// TokenSweeper is the slice of the credential store the sweep needs.
type TokenSweeper interface {
	DeleteExpiredTokens(ctx context.Context, before time.Time) (int64, error)
}

// TokenSweepJob removes expired token records on a schedule.
type TokenSweepJob struct {
	store  TokenSweeper
	logger *slog.Logger
}

// NewTokenSweepJob constructs the job.
func NewTokenSweepJob(store TokenSweeper, logger *slog.Logger) *TokenSweepJob {
	return &TokenSweepJob{store: store, logger: logger}
}

// Handle processes one sweep task.
func (j *TokenSweepJob) Handle(ctx context.Context, task *asynq.Task) error {
	var payload TokenSweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}
	cutoff := time.Now().UTC().Add(-time.Duration(payload.GraceMinutes) * time.Minute)
	deleted, err := j.store.DeleteExpiredTokens(ctx, cutoff)
	if err != nil {
		if j.logger != nil {
			j.logger.Error("token sweep", slog.Any("error", err))
		}
		return err
	}
	if j.logger != nil {
		j.logger.Info("token sweep complete",
			slog.Int64("deleted", deleted),
			slog.Time("cutoff", cutoff))
	}
	return nil
}
