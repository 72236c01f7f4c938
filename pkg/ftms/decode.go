package ftms

import (
	"errors"
	"fmt"
)

// ErrMalformedFrame is returned when a buffer is shorter than its flags say it is.
var ErrMalformedFrame = errors.New("ftms: malformed frame")

// Frame is the full result of walking one notification.
type Frame struct {
	Flags    uint32
	Consumed int // bytes read, flags included
	Metrics  Metrics
}

// Decode walks buf with layout l and returns the reported attributes.
func Decode(l Layout, buf []byte) (Metrics, error) {
	frame, err := DecodeFrame(l, buf)
	if err != nil {
		return Metrics{}, err
	}
	return frame.Metrics, nil
}

// Decode is the method form of Decode.
func (l Layout) Decode(buf []byte) (Metrics, error) {
	return Decode(l, buf)
}

// DecodeFrame walks buf with layout l. Bits without a field in the table are
// ignored and do not move the cursor. Bytes after the last implied field are
// left unread. buf is never modified. A layout that fails Validate is
// rejected with ErrInvalidLayout before any byte is read.
func DecodeFrame(l Layout, buf []byte) (Frame, error) {
	if err := l.Validate(); err != nil {
		return Frame{}, err
	}
	if len(buf) < l.FlagsWidth {
		return Frame{}, fmt.Errorf("%w: %d bytes, flags need %d", ErrMalformedFrame, len(buf), l.FlagsWidth)
	}
	flags := readUint(buf[:l.FlagsWidth], l.FlagsOrder)
	cursor := l.FlagsWidth

	var m Metrics
	for _, f := range l.Fields {
		if !f.present(flags) {
			continue
		}
		end := cursor + f.Width
		if end > len(buf) {
			return Frame{}, fmt.Errorf("%w: field %s needs %d bytes at offset %d, buffer has %d",
				ErrMalformedFrame, f.Name, f.Width, cursor, len(buf))
		}
		raw := readUint(buf[cursor:end], f.Order)
		cursor = end

		if f.Target == TargetNone {
			continue
		}
		if f.Sentinel != SentinelNone && raw == f.allOnes() {
			if f.Sentinel == SentinelZero {
				m.set(f.Target, 0)
			}
			continue
		}
		m.set(f.Target, f.scale(raw))
	}

	return Frame{Flags: flags, Consumed: cursor, Metrics: m}, nil
}

// scale converts a raw wire value to its semantic unit.
func (f Field) scale(raw uint32) float64 {
	var v float64
	if f.Signed {
		shift := 32 - uint(f.Width)*8
		v = float64(int32(raw<<shift) >> shift)
	} else {
		v = float64(raw)
	}
	return v / f.divisor()
}

// readUint assembles an unsigned integer of len(b) bytes, 1 to 4.
func readUint(b []byte, order ByteOrder) uint32 {
	var v uint32
	if order == BigEndian {
		for _, c := range b {
			v = v<<8 | uint32(c)
		}
		return v
	}
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint32(b[i])
	}
	return v
}

// putUint is the inverse of readUint.
func putUint(b []byte, v uint32, order ByteOrder) {
	n := len(b)
	for i := 0; i < n; i++ {
		c := byte(v >> (8 * uint(i)))
		if order == BigEndian {
			b[n-1-i] = c
		} else {
			b[i] = c
		}
	}
}
