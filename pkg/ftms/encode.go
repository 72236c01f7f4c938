package ftms

import (
	"fmt"
	"math"
)

// Encode builds a frame carrying every attribute of m the layout can express.
// Fields without a value that share a flag bit with a reported attribute are
// zero-filled, and the mandatory field is zero when m doesn't set it.
func Encode(l Layout, m Metrics) ([]byte, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}

	var flags uint32
	for _, f := range l.Fields {
		if f.Bit == Always || f.Target == TargetNone {
			continue
		}
		if m.Has(f.Target) {
			flags |= 1 << uint(f.Bit)
		}
	}

	buf := make([]byte, l.FrameLen(flags))
	putUint(buf[:l.FlagsWidth], flags, l.FlagsOrder)
	cursor := l.FlagsWidth

	for _, f := range l.Fields {
		if !f.present(flags) {
			continue
		}
		v, ok := m.value(f.Target)
		if ok {
			raw, err := f.unscale(v)
			if err != nil {
				return nil, err
			}
			putUint(buf[cursor:cursor+f.Width], raw, f.Order)
		}
		cursor += f.Width
	}
	return buf, nil
}

// unscale converts a semantic value back to its raw wire representation.
func (f Field) unscale(v float64) (uint32, error) {
	scaled := math.Round(v * f.divisor())
	bits := uint(f.Width) * 8

	var raw uint32
	if f.Signed {
		lo := -math.Ldexp(1, int(bits)-1)
		hi := math.Ldexp(1, int(bits)-1) - 1
		if scaled < lo || scaled > hi {
			return 0, fmt.Errorf("%s value %v out of range for %d-byte signed field", f.Name, v, f.Width)
		}
		raw = uint32(int32(scaled)) & f.allOnes()
	} else {
		if scaled < 0 || scaled > float64(f.allOnes()) {
			return 0, fmt.Errorf("%s value %v out of range for %d-byte field", f.Name, v, f.Width)
		}
		raw = uint32(scaled)
	}

	if f.Sentinel != SentinelNone && raw == f.allOnes() {
		return 0, fmt.Errorf("%s value %v collides with the not-available marker", f.Name, v)
	}
	return raw, nil
}
