package extract

import (
	"regexp"

	contractx "github.com/chakritw/motorsmith/forge/contract"
)

// DefaultRecords returns the per-kind fallback records. Extractors receive
// a copy at construction so callers can override without touching shared
// state.
func DefaultRecords() map[contractx.ComponentKind]map[string]any {
	return map[contractx.ComponentKind]map[string]any{
		contractx.KindEngine: {
			"engine_type":  "inline",
			"displacement": "2.0L",
			"horsepower":   150.0,
			"torque":       200.0,
			"cylinders":    4.0,
			"fuel_type":    "gasoline",
		},
		contractx.KindBody: {
			"style":    "sedan",
			"color":    "white",
			"doors":    4.0,
			"material": "steel",
		},
		contractx.KindTires: {
			"size":         "205/55R16",
			"type":         "all-season",
			"brand":        "generic",
			"count":        4.0,
			"pressure_psi": 32.0,
		},
		contractx.KindElectrical: {
			"battery_voltage":   12.0,
			"alternator_output": 120.0,
			"wiring_harness":    "standard",
			"ecu":               "base",
		},
	}
}

var scavengeFields = []string{
	"horsepower",
	"torque",
	"cylinders",
	"doors",
	"count",
	"pressure_psi",
	"battery_voltage",
	"alternator_output",
}

// scavengePatterns builds the targeted patterns the fallback tier uses to
// pull a number that follows a known field name out of raw text.
func scavengePatterns() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(scavengeFields))
	for _, field := range scavengeFields {
		patterns[field] = regexp.MustCompile(`(?i)"?` + regexp.QuoteMeta(field) + `"?\s*[:=]\s*"?(\d+(?:\.\d+)?)`)
	}
	return patterns
}
