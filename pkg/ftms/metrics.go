package ftms

import (
	"fmt"
	"strings"
)

// Target names the Metrics attribute a wire field is decoded into.
type Target uint8

const (
	TargetNone Target = iota // skip-only field, consumed but never emitted
	TargetInstantSpeed
	TargetInstantCadence
	TargetInstantPower
	TargetResistanceLevel
	TargetTotalDistance
	TargetKcal
	TargetHeartRate
	TargetElapsedTime
)

var targetNames = map[Target]string{
	TargetNone:            "none",
	TargetInstantSpeed:    "instantSpeed",
	TargetInstantCadence:  "instantCadence",
	TargetInstantPower:    "instantPower",
	TargetResistanceLevel: "resistanceLevel",
	TargetTotalDistance:   "totalDistance",
	TargetKcal:            "kcal",
	TargetHeartRate:       "heartRate",
	TargetElapsedTime:     "elapsedTime",
}

func (t Target) String() string {
	if name, ok := targetNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Unknown Target (%d)", t)
}

// ParseTarget maps the attribute name used in config files back to a Target.
func ParseTarget(s string) (Target, error) {
	for t, name := range targetNames {
		if strings.EqualFold(name, s) {
			return t, nil
		}
	}
	return TargetNone, fmt.Errorf("unknown target %q", s)
}

// Metrics is the decoded content of one notification. A nil field was not
// reported by the machine.
type Metrics struct {
	InstantSpeed    *float64 `json:"instantSpeed,omitempty"`    // km/h
	InstantCadence  *uint16  `json:"instantCadence,omitempty"`  // steps/min or rpm
	InstantPower    *int16   `json:"instantPower,omitempty"`    // watts
	ResistanceLevel *float64 `json:"resistanceLevel,omitempty"` // unitless
	TotalDistance   *uint32  `json:"totalDistance,omitempty"`   // meters
	Kcal            *uint16  `json:"kcal,omitempty"`            // kilocalories
	HeartRate       *uint8   `json:"heartRate,omitempty"`       // bpm
	ElapsedTime     *uint16  `json:"elapsedTime,omitempty"`     // seconds
}

// Has reports whether the attribute named by t was populated.
func (m Metrics) Has(t Target) bool {
	switch t {
	case TargetInstantSpeed:
		return m.InstantSpeed != nil
	case TargetInstantCadence:
		return m.InstantCadence != nil
	case TargetInstantPower:
		return m.InstantPower != nil
	case TargetResistanceLevel:
		return m.ResistanceLevel != nil
	case TargetTotalDistance:
		return m.TotalDistance != nil
	case TargetKcal:
		return m.Kcal != nil
	case TargetHeartRate:
		return m.HeartRate != nil
	case TargetElapsedTime:
		return m.ElapsedTime != nil
	default:
		return false
	}
}

// Present lists the populated attributes in declaration order.
func (m Metrics) Present() []Target {
	var out []Target
	for t := TargetInstantSpeed; t <= TargetElapsedTime; t++ {
		if m.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

// Count returns the number of populated attributes.
func (m Metrics) Count() int {
	return len(m.Present())
}

// value returns the attribute as a float64 for encoding.
func (m Metrics) value(t Target) (float64, bool) {
	switch t {
	case TargetInstantSpeed:
		if m.InstantSpeed != nil {
			return *m.InstantSpeed, true
		}
	case TargetInstantCadence:
		if m.InstantCadence != nil {
			return float64(*m.InstantCadence), true
		}
	case TargetInstantPower:
		if m.InstantPower != nil {
			return float64(*m.InstantPower), true
		}
	case TargetResistanceLevel:
		if m.ResistanceLevel != nil {
			return *m.ResistanceLevel, true
		}
	case TargetTotalDistance:
		if m.TotalDistance != nil {
			return float64(*m.TotalDistance), true
		}
	case TargetKcal:
		if m.Kcal != nil {
			return float64(*m.Kcal), true
		}
	case TargetHeartRate:
		if m.HeartRate != nil {
			return float64(*m.HeartRate), true
		}
	case TargetElapsedTime:
		if m.ElapsedTime != nil {
			return float64(*m.ElapsedTime), true
		}
	}
	return 0, false
}

// set stores v, already scaled, into the attribute named by t. Integer
// attributes truncate toward zero.
func (m *Metrics) set(t Target, v float64) {
	switch t {
	case TargetInstantSpeed:
		m.InstantSpeed = &v
	case TargetInstantCadence:
		n := uint16(v)
		m.InstantCadence = &n
	case TargetInstantPower:
		n := int16(v)
		m.InstantPower = &n
	case TargetResistanceLevel:
		m.ResistanceLevel = &v
	case TargetTotalDistance:
		n := uint32(v)
		m.TotalDistance = &n
	case TargetKcal:
		n := uint16(v)
		m.Kcal = &n
	case TargetHeartRate:
		n := uint8(v)
		m.HeartRate = &n
	case TargetElapsedTime:
		n := uint16(v)
		m.ElapsedTime = &n
	}
}

// String renders the populated attributes, e.g. "instantSpeed=25.00 heartRate=120".
func (m Metrics) String() string {
	parts := make([]string, 0, 8)
	for _, t := range m.Present() {
		v, _ := m.value(t)
		switch t {
		case TargetInstantSpeed, TargetResistanceLevel:
			parts = append(parts, fmt.Sprintf("%s=%.2f", t, v))
		default:
			parts = append(parts, fmt.Sprintf("%s=%d", t, int64(v)))
		}
	}
	if len(parts) == 0 {
		return "(empty)"
	}
	return strings.Join(parts, " ")
}
