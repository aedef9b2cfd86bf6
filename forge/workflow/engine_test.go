package workflow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	contractx "github.com/chakritw/motorsmith/forge/contract"
	validatex "github.com/chakritw/motorsmith/forge/validate"
	workerx "github.com/chakritw/motorsmith/forge/worker"
)

// routingBackend answers by prompt content so one fake serves all four
// workers. A marker mapped to an error fails that worker's call.
type routingBackend struct {
	responses map[string]string
	failures  map[string]error

	mu      sync.Mutex
	prompts []string
}

func (r *routingBackend) Generate(ctx context.Context, prompt string) (string, error) {
	r.mu.Lock()
	r.prompts = append(r.prompts, prompt)
	r.mu.Unlock()
	for marker, err := range r.failures {
		if strings.Contains(prompt, marker) {
			return "", err
		}
	}
	for marker, resp := range r.responses {
		if strings.Contains(prompt, marker) {
			return resp, nil
		}
	}
	return "", errors.New("no route for prompt")
}

func (r *routingBackend) ListModels(ctx context.Context) ([]string, error) {
	return []string{"fake/model"}, nil
}

func (r *routingBackend) Ping(ctx context.Context) bool { return true }

func (r *routingBackend) promptFor(marker string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.prompts {
		if strings.Contains(p, marker) {
			return p
		}
	}
	return ""
}

const (
	engineMarker     = "powertrain engineer"
	bodyMarker       = "body designer"
	tiresMarker      = "tire specialist"
	electricalMarker = "electrical systems engineer"
)

func goodBackend() *routingBackend {
	return &routingBackend{responses: map[string]string{
		engineMarker:     `{"engine_type":"v-type","displacement":"3.0L","horsepower":310,"torque":420,"cylinders":6,"fuel_type":"gasoline"}`,
		bodyMarker:       `{"style":"sedan","color":"blue","doors":4,"material":"steel"}`,
		tiresMarker:      `{"size":"225/45R17","type":"performance","brand":"Apex","count":4,"pressure_psi":34}`,
		electricalMarker: `{"battery_voltage":12,"alternator_output":150,"wiring_harness":"standard","ecu":"base"}`,
	}}
}

func buildWorkers(t *testing.T, backend contractx.TextBackend) map[contractx.ComponentKind]*workerx.Worker {
	t.Helper()
	prompts := map[contractx.ComponentKind]string{
		contractx.KindEngine:     "You are a powertrain engineer.",
		contractx.KindBody:       "You are a body designer.",
		contractx.KindTires:      "You are a tire specialist.",
		contractx.KindElectrical: "You are an electrical systems engineer.",
	}
	derivations := map[contractx.ComponentKind]workerx.DeriveFunc{
		contractx.KindEngine: workerx.DeriveEngineHandoffs,
		contractx.KindBody:   workerx.DeriveBodyHandoffs,
		contractx.KindTires:  workerx.DeriveTireHandoffs,
	}
	contracts := validatex.Builtin()

	workers := make(map[contractx.ComponentKind]*workerx.Worker, 4)
	for _, kind := range contractx.AllKinds() {
		w, err := workerx.New(workerx.Config{
			Kind:     kind,
			Backend:  backend,
			Prompt:   prompts[kind],
			Contract: contracts[kind],
			Derive:   derivations[kind],
		})
		if err != nil {
			t.Fatal(err)
		}
		workers[kind] = w
	}
	return workers
}

func testRequest() contractx.BuildRequest {
	return contractx.BuildRequest{ID: "run-1", Year: "2026", Make: "Apex", Model: "Meridian"}
}

func TestEngineRunCompliant(t *testing.T) {
	t.Parallel()

	backend := goodBackend()
	eng, err := NewEngine(buildWorkers(t, backend), contractx.ModeHybrid)
	if err != nil {
		t.Fatal(err)
	}

	res := eng.Run(context.Background(), testRequest())
	if !res.Validation.Compliant {
		t.Fatalf("not compliant: missing=%v errors=%v", res.Validation.Missing, res.Errors)
	}
	if len(res.Components) != 4 {
		t.Fatalf("components = %d, want 4", len(res.Components))
	}
	if len(res.Errors) != 0 {
		t.Fatalf("errors = %v", res.Errors)
	}
	if res.ExecutionMode != contractx.ModeHybrid {
		t.Fatalf("mode = %s", res.ExecutionMode)
	}
	if res.Identifying.ID != "run-1" || res.Identifying.Model != "Meridian" {
		t.Fatalf("identifying = %+v", res.Identifying)
	}

	// Upstream constraints must reach the electrical worker's prompt.
	prompt := backend.promptFor(electricalMarker)
	if !strings.Contains(prompt, "door_count") {
		t.Fatalf("electrical prompt missing body handoff: %s", prompt)
	}
	if !strings.Contains(prompt, "tpms_sensor_count") {
		t.Fatalf("electrical prompt missing tire handoff: %s", prompt)
	}
}

func TestEngineRunSequentialMode(t *testing.T) {
	t.Parallel()

	eng, err := NewEngine(buildWorkers(t, goodBackend()), contractx.ModeSequential)
	if err != nil {
		t.Fatal(err)
	}
	res := eng.Run(context.Background(), testRequest())
	if !res.Validation.Compliant {
		t.Fatalf("not compliant: %v", res.Errors)
	}
	if res.ExecutionMode != contractx.ModeSequential {
		t.Fatalf("mode = %s", res.ExecutionMode)
	}
}

func TestChassisFanOutSurvivesPartialFailure(t *testing.T) {
	t.Parallel()

	backend := goodBackend()
	backend.failures = map[string]error{bodyMarker: errors.New("backend refused")}

	eng, err := NewEngine(buildWorkers(t, backend), contractx.ModeParallel)
	if err != nil {
		t.Fatal(err)
	}
	res := eng.Run(context.Background(), testRequest())

	if res.Validation.Compliant {
		t.Fatal("expected non-compliant result")
	}
	if got := res.Validation.Missing; len(got) != 1 || got[0] != "body" {
		t.Fatalf("missing = %v, want [body]", got)
	}
	if _, ok := res.Components[contractx.KindTires]; !ok {
		t.Fatal("tire record lost to its sibling's failure")
	}
	if _, ok := res.Components[contractx.KindElectrical]; !ok {
		t.Fatal("electrical stage did not run after chassis failure")
	}
	found := false
	for _, e := range res.Errors {
		if strings.Contains(e, "chassis") && strings.Contains(e, "body") {
			found = true
		}
	}
	if !found {
		t.Fatalf("errors %v do not attribute the failure", res.Errors)
	}
}

func TestEngineRunTotalBackendOutage(t *testing.T) {
	t.Parallel()

	backend := &routingBackend{failures: map[string]error{"": errors.New("connection refused")}}
	eng, err := NewEngine(buildWorkers(t, backend), contractx.ModeHybrid)
	if err != nil {
		t.Fatal(err)
	}
	res := eng.Run(context.Background(), testRequest())

	if res.Validation.Compliant {
		t.Fatal("expected non-compliant result")
	}
	if len(res.Validation.Missing) != 4 {
		t.Fatalf("missing = %v, want all four", res.Validation.Missing)
	}
	if len(res.Components) != 0 {
		t.Fatalf("components = %v, want none", res.Components)
	}
	found := false
	for _, e := range res.Errors {
		if strings.Contains(e, "powertrain") {
			found = true
		}
	}
	if !found {
		t.Fatalf("errors %v do not mention the powertrain stage", res.Errors)
	}
}

func TestNewEngineRejectsUnknownMode(t *testing.T) {
	t.Parallel()

	if _, err := NewEngine(buildWorkers(t, goodBackend()), "turbo"); err == nil {
		t.Fatal("expected an error for an unknown mode")
	}
}

func TestNewEngineRequiresAllWorkers(t *testing.T) {
	t.Parallel()

	workers := buildWorkers(t, goodBackend())
	delete(workers, contractx.KindTires)
	if _, err := NewEngine(workers, contractx.ModeHybrid); err == nil {
		t.Fatal("expected an error for a missing worker")
	}
}

func TestEngineDefaultsToHybrid(t *testing.T) {
	t.Parallel()

	eng, err := NewEngine(buildWorkers(t, goodBackend()), "")
	if err != nil {
		t.Fatal(err)
	}
	if eng.Mode() != contractx.ModeHybrid {
		t.Fatalf("mode = %s, want hybrid", eng.Mode())
	}
}
