package supervisor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	catalogx "github.com/chakritw/motorsmith/forge/catalog"
	contractx "github.com/chakritw/motorsmith/forge/contract"
	extractx "github.com/chakritw/motorsmith/forge/extract"
	promptx "github.com/chakritw/motorsmith/forge/prompt"
	validatex "github.com/chakritw/motorsmith/forge/validate"
	workerx "github.com/chakritw/motorsmith/forge/worker"
	workflowx "github.com/chakritw/motorsmith/forge/workflow"
)

const defaultHistorySize = 100

// Supervisor wires the worker set and exposes the public entry points.
// The execution-history buffer is the only state shared across concurrent
// runs.
type Supervisor struct {
	backend     contractx.TextBackend
	workers     map[contractx.ComponentKind]*workerx.Worker
	history     *history
	defaultMode contractx.ExecutionMode
	now         func() time.Time
	cfg         settings
}

type Option func(*settings)

type settings struct {
	historySize   int
	defaultMode   contractx.ExecutionMode
	workerTimeout time.Duration
	catalog       *catalogx.Catalog
	extractor     *extractx.Extractor
	now           func() time.Time
}

// WithHistorySize bounds the execution-history ring buffer.
func WithHistorySize(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.historySize = n
		}
	}
}

// WithMode sets the default execution mode.
func WithMode(mode contractx.ExecutionMode) Option {
	return func(s *settings) {
		if mode != "" {
			s.defaultMode = mode
		}
	}
}

// WithWorkerTimeout bounds each backend call.
func WithWorkerTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.workerTimeout = d
		}
	}
}

// WithCatalog injects an alternate lookup catalog.
func WithCatalog(c *catalogx.Catalog) Option {
	return func(s *settings) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithClock is for tests.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// New builds the four component workers with their contracts, prompts,
// and static handoff derivations.
func New(backend contractx.TextBackend, opts ...Option) (*Supervisor, error) {
	if backend == nil {
		return nil, errors.New("text backend is required")
	}

	cfg := settings{
		historySize: defaultHistorySize,
		defaultMode: contractx.ModeHybrid,
		catalog:     catalogx.New(),
		extractor:   extractx.New(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	workers, err := buildWorkers(backend, cfg)
	if err != nil {
		return nil, err
	}

	return &Supervisor{
		backend:     backend,
		workers:     workers,
		history:     newHistory(cfg.historySize),
		defaultMode: cfg.defaultMode,
		now:         cfg.now,
		cfg:         cfg,
	}, nil
}

func buildWorkers(backend contractx.TextBackend, cfg settings) (map[contractx.ComponentKind]*workerx.Worker, error) {
	prompts := promptx.LoadPromptSet()
	contracts := validatex.Builtin()
	derivations := map[contractx.ComponentKind]workerx.DeriveFunc{
		contractx.KindEngine: workerx.DeriveEngineHandoffs,
		contractx.KindBody:   workerx.DeriveBodyHandoffs,
		contractx.KindTires:  workerx.DeriveTireHandoffs,
	}

	workers := make(map[contractx.ComponentKind]*workerx.Worker, 4)
	for _, kind := range contractx.AllKinds() {
		w, err := workerx.New(workerx.Config{
			Kind:      kind,
			Backend:   backend,
			Prompt:    prompts.For(kind),
			Contract:  contracts[kind],
			Extractor: cfg.extractor,
			Catalog:   cfg.catalog,
			Timeout:   cfg.workerTimeout,
			Derive:    derivations[kind],
		})
		if err != nil {
			return nil, fmt.Errorf("build %s worker: %w", kind, err)
		}
		workers[kind] = w
	}
	return workers, nil
}

// gatedBackend bounds concurrent Generate calls with a weighted
// semaphore shared by every worker in a batch. ListModels and Ping pass
// through ungated.
type gatedBackend struct {
	contractx.TextBackend
	sem *semaphore.Weighted
}

func (g *gatedBackend) Generate(ctx context.Context, prompt string) (string, error) {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer g.sem.Release(1)
	return g.TextBackend.Generate(ctx, prompt)
}

// Run executes one build request through the full pipeline.
func (s *Supervisor) Run(ctx context.Context, req contractx.BuildRequest, mode contractx.ExecutionMode) contractx.FinalResult {
	if mode == "" {
		mode = s.defaultMode
	}
	return s.execute(ctx, s.workers, req, mode)
}

func (s *Supervisor) execute(ctx context.Context, workers map[contractx.ComponentKind]*workerx.Worker, req contractx.BuildRequest, mode contractx.ExecutionMode) contractx.FinalResult {
	eng, err := workflowx.NewEngine(workers, mode)
	if err != nil {
		return errorResult(req, mode, err)
	}

	started := s.now()
	res := eng.Run(ctx, req)
	s.history.append(Entry{
		ID:         uuid.NewString(),
		RequestID:  req.ID,
		Mode:       mode,
		Compliant:  res.Validation.Compliant,
		ErrorCount: len(res.Errors),
		StartedAt:  started.UTC(),
		Duration:   s.now().Sub(started),
	})
	return res
}

func errorResult(req contractx.BuildRequest, mode contractx.ExecutionMode, err error) contractx.FinalResult {
	return contractx.FinalResult{
		Components:    map[contractx.ComponentKind]contractx.ComponentRecord{},
		Identifying:   contractx.Identifying{ID: req.ID, Year: req.Year, Make: req.Make, Model: req.Model},
		Validation:    contractx.ValidationReport{Compliant: false},
		Errors:        []string{err.Error()},
		ExecutionMode: mode,
	}
}

// RunBatch executes the requests with at most maxConcurrent backend
// calls in flight. The cap holds at the Generate boundary, not the run
// boundary: a fan-out stage makes several calls inside one run, so the
// batch workers share a semaphore-gated view of the backend.
func (s *Supervisor) RunBatch(ctx context.Context, reqs []contractx.BuildRequest, maxConcurrent int) []contractx.FinalResult {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	results := make([]contractx.FinalResult, len(reqs))

	gated := &gatedBackend{
		TextBackend: s.backend,
		sem:         semaphore.NewWeighted(int64(maxConcurrent)),
	}
	workers, err := buildWorkers(gated, s.cfg)
	if err != nil {
		for i, req := range reqs {
			results[i] = errorResult(req, s.defaultMode, err)
		}
		return results
	}

	g := new(errgroup.Group)
	g.SetLimit(maxConcurrent)
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			results[i] = s.execute(ctx, workers, req, s.defaultMode)
			return nil
		})
	}
	// Workers surface failures as data, so the group never errors.
	_ = g.Wait()
	return results
}

// TestWorker runs a single worker in isolation, bypassing the pipeline.
func (s *Supervisor) TestWorker(ctx context.Context, kind contractx.ComponentKind, requirements map[string]any) contractx.ComponentRecord {
	w, ok := s.workers[kind]
	if !ok {
		return contractx.ComponentRecord{
			Kind:          kind,
			Status:        contractx.RecordFailed,
			FailureReason: fmt.Sprintf("%v: %s", contractx.ErrUnknownKind, kind),
		}
	}
	rec, _ := w.CreateRecord(ctx, requirements, nil)
	return rec
}

// Status reports the introspection snapshot.
func (s *Supervisor) Status(ctx context.Context) contractx.Status {
	reachable := s.backend.Ping(ctx)
	if !reachable {
		log.Warn().Msg("generation backend unreachable")
	}
	return contractx.Status{
		Initialized:      true,
		WorkersReady:     len(s.workers),
		BackendReachable: reachable,
		LastCheck:        s.now().UTC(),
	}
}

// History returns a snapshot of the execution history, oldest first.
func (s *Supervisor) History() []Entry {
	return s.history.snapshot()
}
