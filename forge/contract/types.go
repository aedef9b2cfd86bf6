package contract

import "time"

type ComponentKind string

const (
	KindEngine     ComponentKind = "engine"
	KindBody       ComponentKind = "body"
	KindTires      ComponentKind = "tires"
	KindElectrical ComponentKind = "electrical"
)

// AllKinds returns the component kinds in build order.
func AllKinds() []ComponentKind {
	return []ComponentKind{KindEngine, KindBody, KindTires, KindElectrical}
}

type ExecutionMode string

const (
	ModeSequential ExecutionMode = "sequential"
	ModeParallel   ExecutionMode = "parallel"
	ModeHybrid     ExecutionMode = "hybrid"
)

// BuildRequest identifies one vehicle to design. It is created by the
// caller and never mutated.
type BuildRequest struct {
	ID    string `json:"id"`
	Year  string `json:"year"`
	Make  string `json:"make"`
	Model string `json:"model"`
}

type RecordStatus string

const (
	RecordValid   RecordStatus = "valid"
	RecordInvalid RecordStatus = "invalid"
	RecordFailed  RecordStatus = "failed"
)

// ComponentRecord is one designed component. Fields holds the values the
// kind's contract knows about; Extra carries passthrough values the
// generator produced beyond the contract.
type ComponentRecord struct {
	Kind          ComponentKind  `json:"kind"`
	Fields        map[string]any `json:"fields,omitempty"`
	Extra         map[string]any `json:"extra,omitempty"`
	Status        RecordStatus   `json:"status"`
	FailureReason string         `json:"failure_reason,omitempty"`
	Fallback      bool           `json:"fallback,omitempty"`
}

// HandoffPayload carries derived data and constraints from one worker's
// output to a named downstream worker. It is immutable once appended to
// the bus and may be read by multiple consumers.
type HandoffPayload struct {
	From        string         `json:"from"`
	To          string         `json:"to"`
	Data        map[string]any `json:"data,omitempty"`
	Constraints map[string]any `json:"constraints,omitempty"`
	Context     string         `json:"context,omitempty"`
}

type Identifying struct {
	ID    string `json:"id"`
	Year  string `json:"year"`
	Make  string `json:"make"`
	Model string `json:"model"`
}

type ValidationReport struct {
	Compliant bool     `json:"compliant"`
	Missing   []string `json:"missing,omitempty"`
}

// FinalResult is produced exactly once per run, even when every stage
// failed. Degraded runs are distinguishable via Validation.Compliant and
// a non-empty error list, never via a panic.
type FinalResult struct {
	Components    map[ComponentKind]ComponentRecord `json:"components"`
	Identifying   Identifying                       `json:"identifying"`
	Validation    ValidationReport                  `json:"validation"`
	Errors        []string                          `json:"errors,omitempty"`
	ExecutionMode ExecutionMode                     `json:"execution_mode"`
}

// Status is the supervisor's introspection snapshot.
type Status struct {
	Initialized      bool      `json:"initialized"`
	WorkersReady     int       `json:"workers_ready"`
	BackendReachable bool      `json:"backend_reachable"`
	LastCheck        time.Time `json:"last_check"`
}
