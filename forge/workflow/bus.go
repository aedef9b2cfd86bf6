package workflow

import (
	"sync"

	contractx "github.com/chakritw/motorsmith/forge/contract"
)

// Bus is the per-run append-only log of handoff payloads. Payloads are
// addressed by destination and never removed on read, so several
// consumers can see the same payload without double-consumption bugs.
type Bus struct {
	mu       sync.Mutex
	payloads []contractx.HandoffPayload
}

func NewBus() *Bus {
	return &Bus{}
}

func (b *Bus) Append(payloads ...contractx.HandoffPayload) {
	if len(payloads) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.payloads = append(b.payloads, payloads...)
}

// For returns the payloads addressed to target, in append order.
func (b *Bus) For(target string) []contractx.HandoffPayload {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []contractx.HandoffPayload
	for _, p := range b.payloads {
		if p.To == target {
			out = append(out, p)
		}
	}
	return out
}

func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.payloads)
}
