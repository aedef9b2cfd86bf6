package workflow

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	contractx "github.com/chakritw/motorsmith/forge/contract"
	workerx "github.com/chakritw/motorsmith/forge/worker"
)

// Stage is one step of the fixed pipeline. Run mutates the shared state
// and never panics; errors inside a stage are data on the state.
type Stage interface {
	Name() string
	Run(ctx context.Context, st *State)
}

// WorkerStage runs its workers against the state, sequentially or fanned
// out. Each worker writes a disjoint slot, so merge order is irrelevant.
type WorkerStage struct {
	name      string
	workers   []*workerx.Worker
	parallel  bool
	donePhase Phase
	rank      int
}

func NewWorkerStage(name string, donePhase Phase, rank int, parallel bool, workers ...*workerx.Worker) *WorkerStage {
	return &WorkerStage{
		name:      name,
		workers:   workers,
		parallel:  parallel,
		donePhase: donePhase,
		rank:      rank,
	}
}

func (s *WorkerStage) Name() string { return s.name }

func (s *WorkerStage) Run(ctx context.Context, st *State) {
	for _, w := range s.workers {
		st.MarkPending(w.Kind())
	}

	if s.parallel && len(s.workers) > 1 {
		// Fan out and join. One worker's failure never cancels a
		// sibling: each goroutine runs to completion and is merged.
		var wg sync.WaitGroup
		for _, w := range s.workers {
			wg.Add(1)
			go func(w *workerx.Worker) {
				defer wg.Done()
				s.runWorker(ctx, st, w)
			}(w)
		}
		wg.Wait()
	} else {
		for _, w := range s.workers {
			s.runWorker(ctx, st, w)
		}
	}

	if s.failedCount(st) == 0 {
		st.Advance(s.donePhase, s.rank)
	} else {
		st.Advance(PhaseError, s.rank)
	}
	st.Completed = append(st.Completed, s.name)
}

func (s *WorkerStage) runWorker(ctx context.Context, st *State, w *workerx.Worker) {
	reqs := baseRequirements(st.Request)
	inbound := st.Bus.For(w.Name())

	rec, outbound := w.CreateRecord(ctx, reqs, inbound)
	switch rec.Status {
	case contractx.RecordFailed:
		st.MarkFailed(w.Kind(), rec, rec.FailureReason)
		st.AddError(fmt.Sprintf("stage %s: worker %s: %s", s.name, w.Name(), rec.FailureReason))
	case contractx.RecordInvalid:
		// The record exists but violates its contract; keep it in the
		// slot and surface the violation on the error list.
		st.MarkReady(w.Kind(), rec)
		st.AddError(fmt.Sprintf("stage %s: worker %s: %s", s.name, w.Name(), rec.FailureReason))
	default:
		st.MarkReady(w.Kind(), rec)
		st.Bus.Append(outbound...)
	}
	log.Debug().
		Str("stage", s.name).
		Str("worker", w.Name()).
		Str("record_status", string(rec.Status)).
		Msg("worker finished")
}

func (s *WorkerStage) failedCount(st *State) int {
	failed := 0
	for _, w := range s.workers {
		slot := st.Slot(w.Kind())
		if slot.State == SlotFailed || slot.Record.Status == contractx.RecordInvalid {
			failed++
		}
	}
	return failed
}

func baseRequirements(req contractx.BuildRequest) workerx.Requirements {
	return workerx.Requirements{
		"id":    req.ID,
		"year":  req.Year,
		"make":  req.Make,
		"model": req.Model,
	}
}

// AssemblyStage collects the ready slots into the final result skeleton.
// Components are assembled even when some slots never became ready; the
// missing ones are reported, not fatal.
type AssemblyStage struct{}

func (AssemblyStage) Name() string { return "assembly" }

func (AssemblyStage) Run(_ context.Context, st *State) {
	components := make(map[contractx.ComponentKind]contractx.ComponentRecord, 4)
	missing := missingSlots(st)
	for _, kind := range contractx.AllKinds() {
		slot := st.Slot(kind)
		if slot.State == SlotReady {
			components[kind] = slot.Record
		}
	}

	st.Result = &contractx.FinalResult{
		Components: components,
		Identifying: contractx.Identifying{
			ID:    st.Request.ID,
			Year:  st.Request.Year,
			Make:  st.Request.Make,
			Model: st.Request.Model,
		},
	}

	if len(missing) > 0 {
		st.AddError(fmt.Sprintf("%v: missing components: %s", contractx.ErrAssembly, strings.Join(missing, ", ")))
		st.Advance(PhaseAssemblyError, rankAssembled)
	} else {
		st.Advance(PhaseAssembled, rankAssembled)
	}
	st.Completed = append(st.Completed, "assembly")
}

// ValidationStage is the terminal stage: it fills in the validation
// report and error list, then settles the run on completed or
// validation_error.
type ValidationStage struct{}

func (ValidationStage) Name() string { return "validation" }

func (ValidationStage) Run(_ context.Context, st *State) {
	if st.Result == nil {
		st.Result = &contractx.FinalResult{
			Components: map[contractx.ComponentKind]contractx.ComponentRecord{},
			Identifying: contractx.Identifying{
				ID:    st.Request.ID,
				Year:  st.Request.Year,
				Make:  st.Request.Make,
				Model: st.Request.Model,
			},
		}
	}

	missing := missingSlots(st)
	compliant := len(missing) == 0
	for _, rec := range st.Result.Components {
		if rec.Status != contractx.RecordValid {
			compliant = false
		}
	}

	st.Completed = append(st.Completed, "validation")
	st.Result.Validation = contractx.ValidationReport{
		Compliant: compliant,
		Missing:   missing,
	}
	st.Result.Errors = st.Errors()

	if compliant {
		st.Advance(PhaseCompleted, rankTerminal)
	} else {
		st.Advance(PhaseValidationError, rankTerminal)
	}
}

func missingSlots(st *State) []string {
	var missing []string
	for _, kind := range contractx.AllKinds() {
		if st.Slot(kind).State != SlotReady {
			missing = append(missing, string(kind))
		}
	}
	sort.Strings(missing)
	return missing
}
