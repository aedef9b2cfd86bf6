package catalog

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	contractx "github.com/chakritw/motorsmith/forge/contract"
)

// Catalog bundles the deterministic lookup helpers workers may call
// without a backend round trip. Tables are injected at construction and
// never mutated afterwards.
type Catalog struct {
	classSpecs map[string]ClassSpec
}

// ClassSpec is the base spec derived from a body style.
type ClassSpec struct {
	Class           string  `json:"class"`
	BaseWeightKG    float64 `json:"base_weight_kg"`
	DragCoefficient float64 `json:"drag_coefficient"`
	SeatingCapacity int     `json:"seating_capacity"`
}

// TireGeometry is the sizing derived from a standard tire size string.
type TireGeometry struct {
	SectionWidthMM    float64 `json:"section_width_mm"`
	AspectRatio       float64 `json:"aspect_ratio"`
	RimDiameterIn     float64 `json:"rim_diameter_in"`
	SidewallMM        float64 `json:"sidewall_mm"`
	OverallDiameterMM float64 `json:"overall_diameter_mm"`
	CircumferenceMM   float64 `json:"circumference_mm"`
}

type Option func(*Catalog)

// WithClassSpec adds or replaces one class entry.
func WithClassSpec(spec ClassSpec) Option {
	return func(c *Catalog) {
		c.classSpecs[spec.Class] = spec
	}
}

func New(opts ...Option) *Catalog {
	c := &Catalog{classSpecs: defaultClassSpecs()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func defaultClassSpecs() map[string]ClassSpec {
	return map[string]ClassSpec{
		"sedan":       {Class: "sedan", BaseWeightKG: 1450, DragCoefficient: 0.28, SeatingCapacity: 5},
		"coupe":       {Class: "coupe", BaseWeightKG: 1350, DragCoefficient: 0.30, SeatingCapacity: 4},
		"hatchback":   {Class: "hatchback", BaseWeightKG: 1250, DragCoefficient: 0.31, SeatingCapacity: 5},
		"suv":         {Class: "suv", BaseWeightKG: 1900, DragCoefficient: 0.35, SeatingCapacity: 7},
		"truck":       {Class: "truck", BaseWeightKG: 2200, DragCoefficient: 0.40, SeatingCapacity: 5},
		"wagon":       {Class: "wagon", BaseWeightKG: 1550, DragCoefficient: 0.30, SeatingCapacity: 5},
		"convertible": {Class: "convertible", BaseWeightKG: 1500, DragCoefficient: 0.33, SeatingCapacity: 4},
	}
}

// ClassSpec looks up the base spec for a body style.
func (c *Catalog) ClassSpec(class string) (ClassSpec, bool) {
	spec, ok := c.classSpecs[class]
	return spec, ok
}

var tireSizeRe = regexp.MustCompile(`^(\d{3})/(\d{2})R(\d{2})$`)

// TireGeometry derives geometric sizing from a size string like 225/45R17.
func (c *Catalog) TireGeometry(size string) (TireGeometry, error) {
	m := tireSizeRe.FindStringSubmatch(size)
	if m == nil {
		return TireGeometry{}, fmt.Errorf("unrecognized tire size %q", size)
	}
	width, _ := strconv.ParseFloat(m[1], 64)
	aspect, _ := strconv.ParseFloat(m[2], 64)
	rim, _ := strconv.ParseFloat(m[3], 64)

	sidewall := width * aspect / 100
	diameter := rim*25.4 + 2*sidewall
	return TireGeometry{
		SectionWidthMM:    width,
		AspectRatio:       aspect,
		RimDiameterIn:     rim,
		SidewallMM:        sidewall,
		OverallDiameterMM: diameter,
		CircumferenceMM:   diameter * math.Pi,
	}, nil
}

// CurbLoadEstimate sums the class base weight with any per-component
// weight_kg fields the records carry.
func (c *Catalog) CurbLoadEstimate(style string, records map[contractx.ComponentKind]contractx.ComponentRecord) float64 {
	total := 0.0
	if spec, ok := c.classSpecs[style]; ok {
		total = spec.BaseWeightKG
	}
	for _, rec := range records {
		if w, ok := numberField(rec.Fields, "weight_kg"); ok {
			total += w
		}
	}
	return total
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
