package validate

import contractx "github.com/chakritw/motorsmith/forge/contract"

// Builtin returns the vehicle component contracts.
func Builtin() map[contractx.ComponentKind]FieldContract {
	return map[contractx.ComponentKind]FieldContract{
		contractx.KindEngine: {
			Kind:     contractx.KindEngine,
			Required: []string{"engine_type", "displacement", "horsepower", "torque", "cylinders", "fuel_type"},
			Enums: map[string][]string{
				"engine_type": {"inline", "v-type", "flat", "rotary", "electric"},
				"fuel_type":   {"gasoline", "diesel", "hybrid", "electric"},
			},
		},
		contractx.KindBody: {
			Kind:     contractx.KindBody,
			Required: []string{"style", "color", "doors", "material"},
			Enums: map[string][]string{
				"style":    {"sedan", "coupe", "hatchback", "suv", "truck", "convertible", "wagon"},
				"material": {"steel", "aluminum", "carbon-fiber", "fiberglass", "composite"},
			},
		},
		contractx.KindTires: {
			Kind:     contractx.KindTires,
			Required: []string{"size", "type", "brand", "count", "pressure_psi"},
			Enums: map[string][]string{
				"type": {"all-season", "summer", "winter", "performance", "off-road"},
			},
		},
		contractx.KindElectrical: {
			Kind:     contractx.KindElectrical,
			Required: []string{"battery_voltage", "alternator_output", "wiring_harness", "ecu"},
			Enums: map[string][]string{
				"wiring_harness": {"standard", "extended", "performance"},
			},
		},
	}
}

// ForKind looks up one builtin contract.
func ForKind(kind contractx.ComponentKind) (FieldContract, bool) {
	fc, ok := Builtin()[kind]
	return fc, ok
}
