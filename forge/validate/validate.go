package validate

import (
	"fmt"
	"sort"
	"strings"

	contractx "github.com/chakritw/motorsmith/forge/contract"
)

// FieldContract declares what a kind's record must carry. Validation is
// shallow: top-level required-field presence and enum membership only,
// nested sub-objects pass through unexamined.
type FieldContract struct {
	Kind     contractx.ComponentKind
	Required []string
	Enums    map[string][]string
}

type Result struct {
	Valid   bool
	Missing []string
	BadEnum []string
}

// Describe renders the failure for error lists; empty when valid.
func (r Result) Describe() string {
	if r.Valid {
		return ""
	}
	var parts []string
	if len(r.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing fields: %s", strings.Join(r.Missing, ", ")))
	}
	if len(r.BadEnum) > 0 {
		parts = append(parts, fmt.Sprintf("invalid enum values: %s", strings.Join(r.BadEnum, ", ")))
	}
	return strings.Join(parts, "; ")
}

// Validate checks fields against the contract. Some generators nest the
// payload one level under a kind-named key; that level is unwrapped first.
func Validate(fields map[string]any, fc FieldContract) Result {
	fields = Unwrap(fields, fc.Kind)

	var missing []string
	for _, f := range fc.Required {
		if _, ok := fields[f]; !ok {
			missing = append(missing, f)
		}
	}

	var bad []string
	for field, allowed := range fc.Enums {
		v, ok := fields[field]
		if !ok {
			continue
		}
		s, isString := v.(string)
		if !isString || !containsFold(allowed, s) {
			bad = append(bad, field)
		}
	}
	sort.Strings(bad)

	return Result{
		Valid:   len(missing) == 0 && len(bad) == 0,
		Missing: missing,
		BadEnum: bad,
	}
}

// Unwrap removes one kind-named nesting level if present.
func Unwrap(fields map[string]any, kind contractx.ComponentKind) map[string]any {
	if inner, ok := fields[string(kind)].(map[string]any); ok {
		return inner
	}
	return fields
}

func containsFold(allowed []string, s string) bool {
	for _, a := range allowed {
		if strings.EqualFold(a, s) {
			return true
		}
	}
	return false
}
