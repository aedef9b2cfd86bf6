package workflow

import (
	"testing"

	contractx "github.com/chakritw/motorsmith/forge/contract"
)

func TestBusFiltersByTarget(t *testing.T) {
	t.Parallel()

	b := NewBus()
	b.Append(
		contractx.HandoffPayload{From: "engine", To: "body", Data: map[string]any{"n": 1.0}},
		contractx.HandoffPayload{From: "engine", To: "tires", Data: map[string]any{"n": 2.0}},
	)
	b.Append(contractx.HandoffPayload{From: "body", To: "electrical", Data: map[string]any{"n": 3.0}})

	if b.Len() != 3 {
		t.Fatalf("len = %d", b.Len())
	}
	body := b.For("body")
	if len(body) != 1 || body[0].From != "engine" {
		t.Fatalf("body payloads = %v", body)
	}
	if got := b.For("engine"); got != nil {
		t.Fatalf("engine payloads = %v, want none", got)
	}
}

func TestBusReadsAreNonConsuming(t *testing.T) {
	t.Parallel()

	b := NewBus()
	b.Append(contractx.HandoffPayload{From: "engine", To: "body"})

	first := b.For("body")
	second := b.For("body")
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("reads consumed the payload: %d then %d", len(first), len(second))
	}
}

func TestBusPreservesAppendOrder(t *testing.T) {
	t.Parallel()

	b := NewBus()
	for i, from := range []string{"a", "b", "c"} {
		b.Append(contractx.HandoffPayload{From: from, To: "x", Data: map[string]any{"i": float64(i)}})
	}
	got := b.For("x")
	if len(got) != 3 {
		t.Fatalf("len = %d", len(got))
	}
	for i, p := range got {
		if p.Data["i"] != float64(i) {
			t.Fatalf("payload %d out of order: %v", i, p.Data)
		}
	}
}
