package prompt

import (
	_ "embed"
	"strings"

	contractx "github.com/chakritw/motorsmith/forge/contract"
)

var (
	//go:embed template/engine.txt
	engineRaw string

	//go:embed template/body.txt
	bodyRaw string

	//go:embed template/tires.txt
	tiresRaw string

	//go:embed template/electrical.txt
	electricalRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Engine     string
	Body       string
	Tires      string
	Electrical string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
// Safe to call concurrently; the embed is compile-time, trimming is cheap.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Engine:     strings.TrimSpace(engineRaw),
		Body:       strings.TrimSpace(bodyRaw),
		Tires:      strings.TrimSpace(tiresRaw),
		Electrical: strings.TrimSpace(electricalRaw),
	}
}

// For returns the prompt for a component kind, empty for unknown kinds.
func (p PromptSet) For(kind contractx.ComponentKind) string {
	switch kind {
	case contractx.KindEngine:
		return p.Engine
	case contractx.KindBody:
		return p.Body
	case contractx.KindTires:
		return p.Tires
	case contractx.KindElectrical:
		return p.Electrical
	default:
		return ""
	}
}
