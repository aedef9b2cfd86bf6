package workflow

import (
	"fmt"
	"sync"

	contractx "github.com/chakritw/motorsmith/forge/contract"
)

// Phase labels form a fixed total order; the run status only ever moves
// forward through it. Error flavors occupy the rank of the stage that
// raised them, so downstream stages still advance past them.
type Phase string

const (
	PhaseInitialized     Phase = "initialized"
	PhaseReady           Phase = "ready"
	PhasePowertrainDone  Phase = "phase1_done"
	PhaseChassisDone     Phase = "phase2_done"
	PhaseElectricalDone  Phase = "phase3_done"
	PhaseAssembled       Phase = "assembled"
	PhaseCompleted       Phase = "completed"
	PhaseError           Phase = "error"
	PhaseAssemblyError   Phase = "assembly_error"
	PhaseValidationError Phase = "validation_error"
)

const (
	rankReady          = 1
	rankPowertrainDone = 2
	rankChassisDone    = 3
	rankElectricalDone = 4
	rankAssembled      = 5
	rankTerminal       = 6
)

type SlotState string

const (
	SlotEmpty   SlotState = "empty"
	SlotPending SlotState = "pending"
	SlotReady   SlotState = "ready"
	SlotFailed  SlotState = "failed"
)

// Slot tracks one component's outcome. It transitions
// empty -> pending -> {ready | failed} exactly once per run.
type Slot struct {
	State  SlotState
	Record contractx.ComponentRecord
	Reason string
}

// State is the mutable aggregate one run threads through its stages. It
// belongs exclusively to that run; the mutex only serializes sibling
// workers inside a parallel stage.
type State struct {
	Request   contractx.BuildRequest
	Bus       *Bus
	Completed []string
	Result    *contractx.FinalResult

	mu     sync.Mutex
	status Phase
	rank   int
	slots  map[contractx.ComponentKind]*Slot
	errs   []string
}

func NewState(req contractx.BuildRequest) *State {
	slots := make(map[contractx.ComponentKind]*Slot, 4)
	for _, kind := range contractx.AllKinds() {
		slots[kind] = &Slot{State: SlotEmpty}
	}
	return &State{
		Request: req,
		Bus:     NewBus(),
		status:  PhaseInitialized,
		slots:   slots,
	}
}

func (s *State) Status() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Advance moves the status forward. A phase ranked below the current one
// is ignored, which keeps the order total even when an error flavor and a
// done flavor race for the same position.
func (s *State) Advance(p Phase, rank int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rank >= s.rank {
		s.status = p
		s.rank = rank
	}
}

// Slot returns a copy of one slot.
func (s *State) Slot(kind contractx.ComponentKind) Slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slot, ok := s.slots[kind]; ok {
		return *slot
	}
	return Slot{State: SlotEmpty}
}

func (s *State) MarkPending(kind contractx.ComponentKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot := s.slots[kind]
	if slot == nil {
		return
	}
	if slot.State != SlotEmpty {
		s.errs = append(s.errs, fmt.Sprintf("slot %s: pending from %s", kind, slot.State))
		return
	}
	slot.State = SlotPending
}

func (s *State) MarkReady(kind contractx.ComponentKind, rec contractx.ComponentRecord) {
	s.markDone(kind, SlotReady, rec, "")
}

func (s *State) MarkFailed(kind contractx.ComponentKind, rec contractx.ComponentRecord, reason string) {
	s.markDone(kind, SlotFailed, rec, reason)
}

func (s *State) markDone(kind contractx.ComponentKind, to SlotState, rec contractx.ComponentRecord, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot := s.slots[kind]
	if slot == nil {
		return
	}
	if slot.State != SlotPending {
		s.errs = append(s.errs, fmt.Sprintf("slot %s: %s from %s", kind, to, slot.State))
		return
	}
	slot.State = to
	slot.Record = rec
	slot.Reason = reason
}

func (s *State) AddError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, msg)
}

// Errors returns a snapshot of the accumulated error list.
func (s *State) Errors() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.errs...)
}
