package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/wealthpulse/signals/internal/modules/snapshot"
)

// SnapshotJob runs the daily evidence-to-recommendation pass.
type SnapshotJob struct {
	log     zerolog.Logger
	runner  *snapshot.Runner
	timeout time.Duration
}

// NewSnapshotJob creates the daily snapshot job.
func NewSnapshotJob(runner *snapshot.Runner, log zerolog.Logger) *SnapshotJob {
	return &SnapshotJob{
		log:     log.With().Str("job", "snapshot").Logger(),
		runner:  runner,
		timeout: 10 * time.Minute,
	}
}

// Name returns the job name
func (j *SnapshotJob) Name() string {
	return "snapshot"
}

// Run executes one snapshot pass as of now.
func (j *SnapshotJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	asOf := time.Now().UTC()
	summary, err := j.runner.Run(ctx, asOf)
	if err != nil {
		j.log.Error().Err(err).Time("as_of", asOf).Msg("Snapshot pass failed")
		return err
	}

	j.log.Info().
		Str("fresh_run_id", summary.FreshRunID).
		Int("fresh", summary.FreshCount).
		Int("institutional", summary.InstCount).
		Msg("Snapshot pass finished")
	return nil
}
