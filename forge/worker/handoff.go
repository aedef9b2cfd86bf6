package worker

import (
	"strconv"

	contractx "github.com/chakritw/motorsmith/forge/contract"
)

// Standard handoff derivations. Each is a pure function of one worker's
// validated output, targeting statically declared downstream workers.

// DeriveEngineHandoffs turns the power rating into a frame-strength
// constraint for the body and the torque figure into a traction
// constraint for the tires.
func DeriveEngineHandoffs(from string, fields map[string]any) []contractx.HandoffPayload {
	hp, _ := numberField(fields, "horsepower")
	torque, _ := numberField(fields, "torque")
	return []contractx.HandoffPayload{
		{
			From: from,
			To:   string(contractx.KindBody),
			Data: map[string]any{"engine_displacement": fields["displacement"]},
			Constraints: map[string]any{
				"min_frame_strength": frameStrengthFor(hp),
			},
			Context: "powertrain fitment",
		},
		{
			From: from,
			To:   string(contractx.KindTires),
			Data: map[string]any{"drive_torque": torque},
			Constraints: map[string]any{
				"min_traction_rating": tractionRatingFor(torque),
			},
			Context: "torque delivery",
		},
	}
}

// DeriveBodyHandoffs propagates the door count to the electrical worker
// as an actuator requirement.
func DeriveBodyHandoffs(from string, fields map[string]any) []contractx.HandoffPayload {
	doors, _ := numberField(fields, "doors")
	return []contractx.HandoffPayload{
		{
			From: from,
			To:   string(contractx.KindElectrical),
			Data: map[string]any{"door_count": doors},
			Constraints: map[string]any{
				"min_actuator_count": doors,
			},
			Context: "body wiring",
		},
	}
}

// DeriveTireHandoffs tells the electrical worker how many pressure
// sensors the monitoring system needs.
func DeriveTireHandoffs(from string, fields map[string]any) []contractx.HandoffPayload {
	count, ok := numberField(fields, "count")
	if !ok || count <= 0 {
		count = 4
	}
	return []contractx.HandoffPayload{
		{
			From:    from,
			To:      string(contractx.KindElectrical),
			Data:    map[string]any{"tpms_sensor_count": count},
			Context: "tire monitoring",
		},
	}
}

func frameStrengthFor(hp float64) string {
	switch {
	case hp >= 400:
		return "high-tensile"
	case hp >= 200:
		return "reinforced"
	default:
		return "standard"
	}
}

func tractionRatingFor(torque float64) string {
	switch {
	case torque >= 500:
		return "AA"
	case torque >= 300:
		return "A"
	default:
		return "B"
	}
}

func numberField(fields map[string]any, name string) (float64, bool) {
	switch v := fields[name].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
