package diagnostics

import (
	"fmt"
	"math"
	"strconv"

	"github.com/abelzeko/panchayat-water/internal/entities"
)

// Standard is a regulatory band for one water-quality parameter. A value in
// [Min, Max] is acceptable. Outside it the value is flagged; it needs
// attention while inside [AttentionMin, AttentionMax] and is unsafe beyond
// that. Parameters without an attention tier are unsafe as soon as they
// leave the acceptable band.
type Standard struct {
	Name         string
	Unit         string
	Min, Max     float64
	HasAttention bool
	AttentionMin float64
	AttentionMax float64
}

var noFloor = math.Inf(-1)

// Drinking-water standards, in evaluation order (coliform sits between
// chlorine and nitrate and is a presence check). Fluoride has no lower
// attention bound: low fluoride needs attention but is never unsafe.
var (
	StandardPH        = Standard{Name: "pH", Min: 6.5, Max: 8.5, HasAttention: true, AttentionMin: 6.0, AttentionMax: 9.0}
	StandardTurbidity = Standard{Name: "Turbidity", Unit: "NTU", Min: noFloor, Max: 1, HasAttention: true, AttentionMin: noFloor, AttentionMax: 5}
	StandardTDS       = Standard{Name: "TDS", Unit: "mg/L", Min: noFloor, Max: 500, HasAttention: true, AttentionMin: noFloor, AttentionMax: 2000}
	StandardChloride  = Standard{Name: "Chloride", Unit: "mg/L", Min: noFloor, Max: 250, HasAttention: true, AttentionMin: noFloor, AttentionMax: 1000}
	StandardChlorine  = Standard{Name: "Chlorine", Unit: "mg/L", Min: 0.2, Max: 0.5}
	StandardNitrate   = Standard{Name: "Nitrate", Unit: "mg/L", Min: noFloor, Max: 45}
	StandardFluoride  = Standard{Name: "Fluoride", Unit: "mg/L", Min: 0.6, Max: 1.2, HasAttention: true, AttentionMin: noFloor, AttentionMax: 1.5}
	StandardIron      = Standard{Name: "Iron", Unit: "mg/L", Min: noFloor, Max: 0.3}
)

// ColiformFlag is the flagged-parameter entry for a positive coliform test
const ColiformFlag = "Coliform (Present)"

// classify reports whether v is outside the acceptable band and, if so,
// whether it is also outside the attention band.
func (s Standard) classify(v float64) (flagged, unsafe bool) {
	if v >= s.Min && v <= s.Max {
		return false, false
	}
	if !s.HasAttention {
		return true, true
	}
	return true, v < s.AttentionMin || v > s.AttentionMax
}

// Label renders a flagged value as "Name (value unit)".
func (s Standard) Label(v float64) string {
	value := strconv.FormatFloat(v, 'f', -1, 64)
	if s.Unit == "" {
		return fmt.Sprintf("%s (%s)", s.Name, value)
	}
	return fmt.Sprintf("%s (%s %s)", s.Name, value, s.Unit)
}

type qualityTally struct {
	flagged   []string
	unsafe    bool
	attention bool
}

func (t *qualityTally) check(s Standard, v float64) {
	flagged, unsafe := s.classify(v)
	if !flagged {
		return
	}
	t.flagged = append(t.flagged, s.Label(v))
	if unsafe {
		t.unsafe = true
	} else {
		t.attention = true
	}
}

// EvaluateWaterQuality checks each parameter of a lab reading against its
// standard. Flags keep evaluation order.
func EvaluateWaterQuality(r entities.WaterQualityReading) entities.WaterQualityResult {
	t := qualityTally{flagged: make([]string, 0, 9)}

	t.check(StandardPH, r.PH)
	t.check(StandardTurbidity, r.Turbidity)
	t.check(StandardTDS, r.TDS)
	t.check(StandardChloride, r.Chloride)
	t.check(StandardChlorine, r.Chlorine)
	if r.ColiformPresent {
		t.flagged = append(t.flagged, ColiformFlag)
		t.unsafe = true
	}
	t.check(StandardNitrate, r.Nitrate)
	t.check(StandardFluoride, r.Fluoride)
	t.check(StandardIron, r.Iron)

	status := entities.QualitySafe
	switch {
	case t.unsafe:
		status = entities.QualityUnsafe
	case t.attention:
		status = entities.QualityAttentionNeeded
	}
	return entities.WaterQualityResult{Status: status, FlaggedParameters: t.flagged}
}
