package workflow

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/chakritw/motorsmith/forge/contract"
	workerx "github.com/chakritw/motorsmith/forge/worker"
)

// Engine threads one run's state through its fixed stage list. Stage N+1
// never starts before stage N returns; a stage's errors never abort the
// run, downstream stages operate on whatever partial state exists.
type Engine struct {
	stages []Stage
	mode   contractx.ExecutionMode
}

// NewEngine builds the fixed five-stage pipeline: powertrain, chassis,
// electrical, assembly, validation. Sequential mode runs the chassis pair
// in order; parallel and hybrid fan it out (with a single multi-worker
// stage the two coincide).
func NewEngine(workers map[contractx.ComponentKind]*workerx.Worker, mode contractx.ExecutionMode) (*Engine, error) {
	for _, kind := range contractx.AllKinds() {
		if workers[kind] == nil {
			return nil, fmt.Errorf("%w: no worker for %s", contractx.ErrUnknownKind, kind)
		}
	}
	switch mode {
	case contractx.ModeSequential, contractx.ModeParallel, contractx.ModeHybrid:
	case "":
		mode = contractx.ModeHybrid
	default:
		return nil, fmt.Errorf("unsupported execution mode %q", mode)
	}

	fanOut := mode != contractx.ModeSequential
	stages := []Stage{
		NewWorkerStage("powertrain", PhasePowertrainDone, rankPowertrainDone, false, workers[contractx.KindEngine]),
		NewWorkerStage("chassis", PhaseChassisDone, rankChassisDone, fanOut, workers[contractx.KindBody], workers[contractx.KindTires]),
		NewWorkerStage("electrical", PhaseElectricalDone, rankElectricalDone, false, workers[contractx.KindElectrical]),
		AssemblyStage{},
		ValidationStage{},
	}
	return &Engine{stages: stages, mode: mode}, nil
}

func (e *Engine) Mode() contractx.ExecutionMode { return e.mode }

// Run always returns a FinalResult, even when every stage failed.
func (e *Engine) Run(ctx context.Context, req contractx.BuildRequest) contractx.FinalResult {
	st := NewState(req)
	st.Advance(PhaseReady, rankReady)
	log.Info().
		Str("request", req.ID).
		Str("mode", string(e.mode)).
		Msg("workflow run started")

	for _, stage := range e.stages {
		stage.Run(ctx, st)
		log.Debug().
			Str("stage", stage.Name()).
			Str("status", string(st.Status())).
			Msg("stage returned")
	}

	res := st.Result
	if res == nil {
		// The terminal stage always sets Result; this only covers a
		// misconfigured stage list.
		res = &contractx.FinalResult{
			Components: map[contractx.ComponentKind]contractx.ComponentRecord{},
			Validation: contractx.ValidationReport{Compliant: false},
			Errors:     st.Errors(),
		}
	}
	res.ExecutionMode = e.mode

	log.Info().
		Str("request", req.ID).
		Str("status", string(st.Status())).
		Bool("compliant", res.Validation.Compliant).
		Int("errors", len(res.Errors)).
		Msg("workflow run finished")
	return *res
}
