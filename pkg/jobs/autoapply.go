package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/arnavshah/autoscheduler-api-go/pkg/planner"
)

// Trigger marks runs started by the cron job
const Trigger = "cron"

// runTimeout bounds a single auto-apply pass
const runTimeout = 5 * time.Minute

// AutoApply returns the cron job that applies the schedule to every project
func AutoApply(p *planner.Planner, log zerolog.Logger) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()

		start := time.Now()
		if err := p.ApplyAll(ctx, Trigger); err != nil {
			log.Error().Err(err).Dur("took", time.Since(start)).Msg("auto-apply finished with errors")
			return
		}
		log.Info().Dur("took", time.Since(start)).Msg("auto-apply finished")
	}
}

// Start registers the auto-apply job under a standard 5-field cron spec and
// starts the cron runner. Callers stop it with Stop().
func Start(spec string, p *planner.Planner, log zerolog.Logger) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(spec, AutoApply(p, log)); err != nil {
		return nil, fmt.Errorf("invalid auto-schedule spec %q: %w", spec, err)
	}
	c.Start()
	log.Info().Str("spec", spec).Msg("auto-apply scheduled")
	return c, nil
}
