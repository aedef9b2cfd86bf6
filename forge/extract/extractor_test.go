package extract

import (
	"encoding/json"
	"reflect"
	"testing"

	contractx "github.com/chakritw/motorsmith/forge/contract"
)

func TestExtractTotality(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"no structure at all",
		"{{{",
		"}}}",
		`{"x": }`,
		"null",
		"[1,2,3]",
		"```json\nnot an object\n```",
		"{\"a\"",
	}
	e := New()
	for _, in := range inputs {
		res := e.Extract(contractx.KindEngine, in)
		if res.Question != "" {
			t.Fatalf("input %q: unexpected question %q", in, res.Question)
		}
		if res.Fields == nil {
			t.Fatalf("input %q: extraction produced no record", in)
		}
	}
}

func TestExtractWholeObjectRoundTrip(t *testing.T) {
	t.Parallel()

	record := map[string]any{
		"engine_type": "v-type",
		"horsepower":  420.0,
		"fuel_type":   "gasoline",
		"internals":   map[string]any{"valves": 32.0},
	}
	raw, err := json.Marshal(record)
	if err != nil {
		t.Fatal(err)
	}

	res := New().Extract(contractx.KindEngine, string(raw))
	if res.Fallback {
		t.Fatal("whole-object parse fell through to fallback")
	}
	if !reflect.DeepEqual(res.Fields, record) {
		t.Fatalf("round trip mismatch: got %v want %v", res.Fields, record)
	}
}

func TestExtractFencedBlock(t *testing.T) {
	t.Parallel()

	res := New().Extract(contractx.KindBody, "Here you go: ```json\n{\"x\":\"y\"}\n``` thanks")
	if res.Fallback {
		t.Fatal("fenced block fell through to fallback")
	}
	if got := res.Fields["x"]; got != "y" {
		t.Fatalf("x = %v, want y", got)
	}
}

func TestExtractBalancesMissingClosers(t *testing.T) {
	t.Parallel()

	res := New().Extract(contractx.KindEngine, `{"a":1,"b":2`)
	want := map[string]any{"a": 1.0, "b": 2.0}
	if !reflect.DeepEqual(res.Fields, want) {
		t.Fatalf("got %v, want %v", res.Fields, want)
	}
}

func TestBalanceBracesIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		`{"a":1,"b":2`,
		`{"a":{"b":1}`,
		`{"a":1}}}`,
		`{"a":"has } inside"}`,
		`{"a":1}`,
		"",
	}
	for _, in := range inputs {
		once := BalanceBraces(in)
		twice := BalanceBraces(once)
		if once != twice {
			t.Fatalf("not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestExtractRepairsUnitSuffixedNumbers(t *testing.T) {
	t.Parallel()

	res := New().Extract(contractx.KindEngine, `So: {"displacement": 2.5L, "horsepower": 300}`)
	if got := res.Fields["displacement"]; got != "2.5L" {
		t.Fatalf("displacement = %v, want quoted 2.5L", got)
	}
	if got := res.Fields["horsepower"]; got != 300.0 {
		t.Fatalf("horsepower = %v, want 300", got)
	}
}

func TestExtractRepairsBarePhrases(t *testing.T) {
	t.Parallel()

	res := New().Extract(contractx.KindBody, `{"color": deep ocean blue, "doors": 4}`)
	if got := res.Fields["color"]; got != "deep ocean blue" {
		t.Fatalf("color = %v, want quoted phrase", got)
	}
}

func TestExtractStripsTrailingCommas(t *testing.T) {
	t.Parallel()

	res := New().Extract(contractx.KindBody, "reply: {\"a\": 1,}")
	if got := res.Fields["a"]; got != 1.0 {
		t.Fatalf("a = %v, want 1", got)
	}
}

func TestExtractTruncatesTrailingProse(t *testing.T) {
	t.Parallel()

	res := New().Extract(contractx.KindBody, `{"a":1} and that is everything you asked for`)
	want := map[string]any{"a": 1.0}
	if !reflect.DeepEqual(res.Fields, want) {
		t.Fatalf("got %v, want %v", res.Fields, want)
	}
}

func TestExtractLineScanSurvivesRepairCorruption(t *testing.T) {
	t.Parallel()

	// The colon-phrase inside the string value trips the textual repair
	// tier; the line scanner still recovers the object untouched.
	text := "The note:\n{\"note\": \"bias: front to rear, 60/40\",\n\"a\": 1}"
	res := New().Extract(contractx.KindBody, text)
	if res.Fallback {
		t.Fatal("line scan fell through to fallback")
	}
	if got := res.Fields["note"]; got != "bias: front to rear, 60/40" {
		t.Fatalf("note = %v", got)
	}
	if got := res.Fields["a"]; got != 1.0 {
		t.Fatalf("a = %v, want 1", got)
	}
}

func TestExtractFallbackScavengesFields(t *testing.T) {
	t.Parallel()

	res := New().Extract(contractx.KindEngine, "I estimate horsepower: 450 and torque: 520 but cannot format this.")
	if !res.Fallback {
		t.Fatal("expected fallback record")
	}
	if got := res.Fields["horsepower"]; got != 450.0 {
		t.Fatalf("horsepower = %v, want scavenged 450", got)
	}
	if got := res.Fields["torque"]; got != 520.0 {
		t.Fatalf("torque = %v, want scavenged 520", got)
	}
	if got := res.Fields["fuel_type"]; got != "gasoline" {
		t.Fatalf("fuel_type = %v, want default", got)
	}
}

func TestExtractClarifyingQuestionShortCircuits(t *testing.T) {
	t.Parallel()

	for _, text := range []string{
		`{"clarifying_question": "What fuel type should this use?"}`,
		"I need more detail. {\"clarifying_question\": \"What fuel type should this use?\"}",
	} {
		res := New().Extract(contractx.KindEngine, text)
		if res.Question != "What fuel type should this use?" {
			t.Fatalf("text %q: question = %q", text, res.Question)
		}
		if res.Fields != nil {
			t.Fatalf("text %q: expected no fields alongside a question", text)
		}
	}
}

func TestExtractCustomDefaults(t *testing.T) {
	t.Parallel()

	e := New(WithDefaults(contractx.KindEngine, map[string]any{"engine_type": "rotary"}))
	res := e.Extract(contractx.KindEngine, "nothing usable")
	if got := res.Fields["engine_type"]; got != "rotary" {
		t.Fatalf("engine_type = %v, want injected default", got)
	}
}
