package workflow

import (
	"context"
	"fmt"
	"time"

	gaoconfig "github.com/JaimeStill/go-agents-orchestration/pkg/config"
	"github.com/JaimeStill/go-agents-orchestration/pkg/state"
)

const keyRecord = "record"

// Execute runs the full pipeline for one document in graph-driven mode.
// The graph runs intake → vision? → classification → integration → summary
// with the vision edge conditional on the branch rule. The final Record is
// returned even when a stage marked the run failed; only unexpected
// internal faults produce an error.
func Execute(ctx context.Context, rt *Runtime, rec Record) (Record, error) {
	graph, err := buildGraph(rt)
	if err != nil {
		return rec, fmt.Errorf("build graph: %w", err)
	}

	initial := state.New(nil).Set(keyRecord, rec)

	final, err := graph.Execute(ctx, initial)
	if err != nil {
		return rec, fmt.Errorf("%w: %w", ErrGraphFailed, err)
	}

	return recordFrom(final)
}

func buildGraph(rt *Runtime) (state.StateGraph, error) {
	cfg := gaoconfig.DefaultGraphConfig("autoclose-pipeline")
	cfg.Observer = "noop"

	graph, err := state.NewGraph(cfg)
	if err != nil {
		return nil, err
	}

	stages := []Stage{
		NewIntakeStage(rt),
		NewVisionStage(rt),
		NewClassifyStage(rt),
		NewIntegrateStage(rt),
		NewSummarizeStage(rt),
	}

	for _, stage := range stages {
		if err := graph.AddNode(string(stage.Step()), stageNode(rt, stage)); err != nil {
			return nil, err
		}
	}

	// intake → vision (branch rule) or classification
	if err := graph.AddEdge(string(StepIntake), string(StepVision), wantsVision); err != nil {
		return nil, err
	}
	if err := graph.AddEdge(string(StepIntake), string(StepClassification), state.Not(wantsVision)); err != nil {
		return nil, err
	}

	// remaining transitions are fixed
	if err := graph.AddEdge(string(StepVision), string(StepClassification), nil); err != nil {
		return nil, err
	}
	if err := graph.AddEdge(string(StepClassification), string(StepIntegration), nil); err != nil {
		return nil, err
	}
	if err := graph.AddEdge(string(StepIntegration), string(StepSummary), nil); err != nil {
		return nil, err
	}

	if err := graph.SetEntryPoint(string(StepIntake)); err != nil {
		return nil, err
	}
	if err := graph.SetExitPoint(string(StepSummary)); err != nil {
		return nil, err
	}

	return graph, nil
}

func stageNode(rt *Runtime, stage Stage) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		rec, err := recordFrom(s)
		if err != nil {
			return s, fmt.Errorf("%s: %w", stage.Step(), err)
		}

		started := time.Now()
		update, err := stage.Process(ctx, rec)
		if err != nil {
			return s, fmt.Errorf("%s: %w", stage.Step(), err)
		}

		next := rec.Apply(update)
		rt.Metrics.ObserveStage(string(stage.Step()), time.Since(started))

		if rt.Checkpoint != nil {
			rt.Checkpoint(next)
		}

		rt.Logger.InfoContext(ctx, "stage complete",
			"job_id", next.JobID,
			"document_id", next.DocumentID,
			"stage", stage.Step(),
			"status", next.Status,
		)

		return s.Set(keyRecord, next), nil
	})
}

// wantsVision gates the intake → vision edge: vision runs only when intake
// succeeded and flagged it as required. A failed intake routes to
// classification so a downstream record is still produced.
func wantsVision(s state.State) bool {
	rec, err := recordFrom(s)
	if err != nil {
		return false
	}
	return NextAfterIntake(rec) == StepVision
}

func recordFrom(s state.State) (Record, error) {
	val, ok := s.Get(keyRecord)
	if !ok {
		return Record{}, fmt.Errorf("missing %s in state", keyRecord)
	}

	rec, ok := val.(Record)
	if !ok {
		return Record{}, fmt.Errorf("%s is not a Record", keyRecord)
	}

	return rec, nil
}
