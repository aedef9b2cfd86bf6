package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	catalogx "github.com/chakritw/motorsmith/forge/catalog"
	contractx "github.com/chakritw/motorsmith/forge/contract"
	extractx "github.com/chakritw/motorsmith/forge/extract"
	validatex "github.com/chakritw/motorsmith/forge/validate"
)

// Requirements is the structured input a worker turns into one record.
type Requirements map[string]any

// DeriveFunc produces outbound handoff payloads from a worker's own valid
// output. It must be pure.
type DeriveFunc func(from string, fields map[string]any) []contractx.HandoffPayload

const defaultTimeout = 30 * time.Second

type Config struct {
	Kind      contractx.ComponentKind
	Backend   contractx.TextBackend
	Prompt    string
	Contract  validatex.FieldContract
	Extractor *extractx.Extractor
	Catalog   *catalogx.Catalog
	Timeout   time.Duration
	Derive    DeriveFunc
}

// Worker composes a backend call, the extractor, and the validator into
// CreateRecord. One worker owns one component kind.
type Worker struct {
	kind      contractx.ComponentKind
	backend   contractx.TextBackend
	prompt    string
	contract  validatex.FieldContract
	extractor *extractx.Extractor
	catalog   *catalogx.Catalog
	timeout   time.Duration
	derive    DeriveFunc
}

func New(cfg Config) (*Worker, error) {
	if cfg.Kind == "" {
		return nil, errors.New("component kind is required")
	}
	if cfg.Backend == nil {
		return nil, errors.New("text backend is required")
	}
	if cfg.Extractor == nil {
		cfg.Extractor = extractx.New()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Worker{
		kind:      cfg.Kind,
		backend:   cfg.Backend,
		prompt:    cfg.Prompt,
		contract:  cfg.Contract,
		extractor: cfg.Extractor,
		catalog:   cfg.Catalog,
		timeout:   cfg.Timeout,
		derive:    cfg.Derive,
	}, nil
}

func (w *Worker) Kind() contractx.ComponentKind { return w.kind }

func (w *Worker) Name() string { return string(w.kind) }

// CreateRecord merges requirements with inbound handoffs, calls the
// backend under a hard timeout, extracts and validates the response, and
// derives outbound handoffs from a valid record. Failures come back as a
// failed record, never as an error.
func (w *Worker) CreateRecord(ctx context.Context, reqs Requirements, inbound []contractx.HandoffPayload) (contractx.ComponentRecord, []contractx.HandoffPayload) {
	merged := w.mergeRequirements(reqs, inbound)
	w.enrich(merged)

	genCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	text, err := w.backend.Generate(genCtx, w.renderPrompt(merged))
	if err != nil {
		return w.failed(fmt.Sprintf("%v: %v", contractx.ErrBackend, err)), nil
	}

	res := w.extractor.Extract(w.kind, text)
	if res.Question != "" {
		return w.failed("clarification required: " + res.Question), nil
	}
	if res.Fallback {
		log.Warn().Str("worker", w.Name()).Msg("record synthesized from fallback tier")
	}

	fields := validatex.Unwrap(res.Fields, w.kind)
	rec := contractx.ComponentRecord{
		Kind:     w.kind,
		Fallback: res.Fallback,
	}
	rec.Fields, rec.Extra = w.splitExtras(fields)

	vres := validatex.Validate(fields, w.contract)
	if !vres.Valid {
		rec.Status = contractx.RecordInvalid
		rec.FailureReason = vres.Describe()
		return rec, nil
	}

	rec.Status = contractx.RecordValid
	var outbound []contractx.HandoffPayload
	if w.derive != nil {
		outbound = w.derive(w.Name(), rec.Fields)
	}
	return rec, outbound
}

func (w *Worker) failed(reason string) contractx.ComponentRecord {
	return contractx.ComponentRecord{
		Kind:          w.kind,
		Status:        contractx.RecordFailed,
		FailureReason: reason,
	}
}

// mergeRequirements folds inbound payloads addressed to this worker into
// a copy of the caller's requirements: data keys merge directly,
// constraints accumulate under a "constraints" key.
func (w *Worker) mergeRequirements(reqs Requirements, inbound []contractx.HandoffPayload) Requirements {
	merged := make(Requirements, len(reqs)+4)
	for k, v := range reqs {
		merged[k] = v
	}
	var constraints map[string]any
	for _, p := range inbound {
		if p.To != w.Name() {
			continue
		}
		for k, v := range p.Data {
			merged[k] = v
		}
		if len(p.Constraints) > 0 {
			if constraints == nil {
				constraints = make(map[string]any, len(p.Constraints))
			}
			for k, v := range p.Constraints {
				constraints[k] = v
			}
		}
	}
	if constraints != nil {
		merged["constraints"] = constraints
	}
	return merged
}

// enrich adds catalog-derived values to the requirement payload so the
// generator sees deterministic sizing it would otherwise guess at.
func (w *Worker) enrich(merged Requirements) {
	if w.catalog == nil {
		return
	}
	switch w.kind {
	case contractx.KindTires:
		if size, ok := merged["size"].(string); ok {
			if geo, err := w.catalog.TireGeometry(size); err == nil {
				merged["geometry"] = geo
			}
		}
	case contractx.KindBody:
		if style, ok := merged["style"].(string); ok {
			if spec, ok := w.catalog.ClassSpec(style); ok {
				merged["base_spec"] = spec
			}
		}
	}
}

func (w *Worker) renderPrompt(merged Requirements) string {
	payload, err := json.Marshal(merged)
	if err != nil {
		payload = []byte(fmt.Sprintf("%v", merged))
	}
	return w.prompt + "\n\nRequirements:\n" + string(payload)
}

// splitExtras separates contract fields from passthrough values.
func (w *Worker) splitExtras(fields map[string]any) (map[string]any, map[string]any) {
	known := make(map[string]bool, len(w.contract.Required)+len(w.contract.Enums))
	for _, f := range w.contract.Required {
		known[f] = true
	}
	for f := range w.contract.Enums {
		known[f] = true
	}
	if len(known) == 0 {
		return fields, nil
	}

	kept := make(map[string]any, len(known))
	var extra map[string]any
	for k, v := range fields {
		if known[k] {
			kept[k] = v
			continue
		}
		if extra == nil {
			extra = make(map[string]any, 4)
		}
		extra[k] = v
	}
	return kept, extra
}
