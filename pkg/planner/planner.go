package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/arnavshah/autoscheduler-api-go/pkg/models"
	"github.com/arnavshah/autoscheduler-api-go/pkg/scheduler"
	"github.com/arnavshah/autoscheduler-api-go/pkg/store"
)

// Planner runs the scheduler against stored projects. Preview and Apply
// call the scheduler identically; only Apply writes the result back.
type Planner struct {
	Store     *store.Store
	Scheduler *scheduler.Scheduler
	Log       zerolog.Logger
	// Now defaults to time.Now
	Now func() time.Time
}

// Outcome is the result of a preview or apply
type Outcome struct {
	Result        models.SchedulingResult
	FairnessScore float64
	RunID         string
	Applied       bool
}

// Response converts the outcome into its API shape
func (o Outcome) Response() models.ScheduleResponse {
	return models.ScheduleResponse{
		SchedulingResult: o.Result,
		FairnessScore:    o.FairnessScore,
		RunID:            o.RunID,
		Applied:          o.Applied,
	}
}

func (p *Planner) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// Preview schedules the project without writing anything
func (p *Planner) Preview(ctx context.Context, projectID string, orgDeadline *time.Time) (Outcome, error) {
	items, people, err := p.Store.Load(ctx, projectID)
	if err != nil {
		return Outcome{}, err
	}
	res, err := p.Scheduler.Schedule(items, people, p.now(), orgDeadline)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Result: res, FairnessScore: scheduler.FairnessScore(res.WorkloadSummary)}, nil
}

// Apply schedules the project and persists every placement
func (p *Planner) Apply(ctx context.Context, projectID string, orgDeadline *time.Time, trigger string) (Outcome, error) {
	out, err := p.Preview(ctx, projectID, orgDeadline)
	if err != nil {
		return Outcome{}, err
	}
	runID, err := p.Store.ApplySchedule(ctx, projectID, out.Result, out.FairnessScore, trigger)
	if err != nil {
		return Outcome{}, err
	}
	out.RunID = runID
	out.Applied = true

	p.Log.Info().
		Str("project", projectID).
		Str("run_id", runID).
		Str("trigger", trigger).
		Int("scheduled", len(out.Result.Scheduled)).
		Int("conflicts", len(out.Result.Conflicts)).
		Float64("fairness", out.FairnessScore).
		Msg("schedule applied")
	return out, nil
}

// ApplyAll applies the schedule to every stored project. A failing project
// is logged and does not stop the others.
func (p *Planner) ApplyAll(ctx context.Context, trigger string) error {
	ids, err := p.Store.ProjectIDs(ctx)
	if err != nil {
		return fmt.Errorf("list projects: %w", err)
	}

	var errs []error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if _, err := p.Apply(ctx, id, nil, trigger); err != nil {
			p.Log.Error().Err(err).Str("project", id).Msg("auto-apply failed")
			errs = append(errs, fmt.Errorf("project %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}
