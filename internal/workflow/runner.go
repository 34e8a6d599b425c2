package workflow

import (
	"context"
	"fmt"
	"time"
)

// Callback phases reported by the sequential runner.
const (
	PhaseRunning = "running"
	PhaseDone    = "done"
)

// StepEvent carries per-stage progress to the sequential runner's callback.
type StepEvent struct {
	Step   Step
	Phase  string
	Record Record
}

// RunSequential executes the pipeline for synchronous hosts. The stages
// run on a dedicated goroutine while the calling goroutine blocks, draining
// progress events and invoking onStep with each, strictly in pipeline order
// and never concurrently. A fatal intake or vision failure short-circuits
// the remaining stages and returns the partial Record.
func RunSequential(ctx context.Context, rt *Runtime, rec Record, onStep func(StepEvent)) (Record, error) {
	type outcome struct {
		rec Record
		err error
	}

	events := make(chan StepEvent)
	result := make(chan outcome, 1)

	go func() {
		defer close(events)
		final, err := runStages(ctx, rt, rec, events)
		result <- outcome{rec: final, err: err}
	}()

	for event := range events {
		if onStep != nil {
			onStep(event)
		}
	}

	out := <-result
	return out.rec, out.err
}

func runStages(ctx context.Context, rt *Runtime, rec Record, events chan<- StepEvent) (Record, error) {
	rec, err := runStage(ctx, rt, NewIntakeStage(rt), rec, events)
	if err != nil || rec.Status == StatusFailed {
		return rec, err
	}

	if NextAfterIntake(rec) == StepVision {
		rec, err = runStage(ctx, rt, NewVisionStage(rt), rec, events)
		if err != nil || rec.Status == StatusFailed {
			return rec, err
		}
	}

	for _, stage := range []Stage{
		NewClassifyStage(rt),
		NewIntegrateStage(rt),
		NewSummarizeStage(rt),
	} {
		rec, err = runStage(ctx, rt, stage, rec, events)
		if err != nil {
			return rec, err
		}
	}

	return rec, nil
}

func runStage(ctx context.Context, rt *Runtime, stage Stage, rec Record, events chan<- StepEvent) (Record, error) {
	events <- StepEvent{Step: stage.Step(), Phase: PhaseRunning, Record: rec}

	started := time.Now()
	update, err := stage.Process(ctx, rec)
	if err != nil {
		return rec, fmt.Errorf("%s: %w", stage.Step(), err)
	}

	next := rec.Apply(update)
	rt.Metrics.ObserveStage(string(stage.Step()), time.Since(started))

	if rt.Checkpoint != nil {
		rt.Checkpoint(next)
	}

	events <- StepEvent{Step: stage.Step(), Phase: PhaseDone, Record: next}
	return next, nil
}
