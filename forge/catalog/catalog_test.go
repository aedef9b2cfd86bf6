package catalog

import (
	"math"
	"testing"

	contractx "github.com/chakritw/motorsmith/forge/contract"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.01
}

func TestTireGeometry(t *testing.T) {
	t.Parallel()

	geo, err := New().TireGeometry("225/45R17")
	if err != nil {
		t.Fatal(err)
	}
	if geo.SectionWidthMM != 225 || geo.AspectRatio != 45 || geo.RimDiameterIn != 17 {
		t.Fatalf("parsed geometry = %+v", geo)
	}
	if !almostEqual(geo.SidewallMM, 101.25) {
		t.Fatalf("sidewall = %v, want 101.25", geo.SidewallMM)
	}
	if !almostEqual(geo.OverallDiameterMM, 634.3) {
		t.Fatalf("diameter = %v, want 634.3", geo.OverallDiameterMM)
	}
	if !almostEqual(geo.CircumferenceMM, geo.OverallDiameterMM*math.Pi) {
		t.Fatalf("circumference = %v", geo.CircumferenceMM)
	}
}

func TestTireGeometryRejectsMalformedSize(t *testing.T) {
	t.Parallel()

	if _, err := New().TireGeometry("big and round"); err == nil {
		t.Fatal("expected an error for a malformed size string")
	}
}

func TestClassSpecLookup(t *testing.T) {
	t.Parallel()

	c := New(WithClassSpec(ClassSpec{Class: "kei", BaseWeightKG: 700, DragCoefficient: 0.36, SeatingCapacity: 4}))
	if _, ok := c.ClassSpec("sedan"); !ok {
		t.Fatal("builtin sedan spec missing")
	}
	spec, ok := c.ClassSpec("kei")
	if !ok || spec.BaseWeightKG != 700 {
		t.Fatalf("injected spec = %+v ok=%v", spec, ok)
	}
	if _, ok := c.ClassSpec("hovercraft"); ok {
		t.Fatal("unexpected spec for unknown class")
	}
}

func TestCurbLoadEstimate(t *testing.T) {
	t.Parallel()

	records := map[contractx.ComponentKind]contractx.ComponentRecord{
		contractx.KindEngine: {
			Kind:   contractx.KindEngine,
			Fields: map[string]any{"weight_kg": 180.0},
		},
		contractx.KindTires: {
			Kind:   contractx.KindTires,
			Fields: map[string]any{"weight_kg": "40"},
		},
		contractx.KindBody: {
			Kind:   contractx.KindBody,
			Fields: map[string]any{"material": "steel"},
		},
	}
	got := New().CurbLoadEstimate("sedan", records)
	if !almostEqual(got, 1450+180+40) {
		t.Fatalf("estimate = %v, want 1670", got)
	}
}
