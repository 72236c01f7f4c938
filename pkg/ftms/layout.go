package ftms

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidLayout is returned by Layout.Validate for tables the decoder can't walk.
var ErrInvalidLayout = errors.New("ftms: invalid layout")

// Always marks a field that is present regardless of the flags.
const Always = -1

// ByteOrder of a single wire field. Order is a property of each field, not of
// the frame: some vendors mix little- and big-endian fields in one frame.
type ByteOrder uint8

const (
	LittleEndian ByteOrder = iota
	BigEndian
)

func (o ByteOrder) String() string {
	if o == BigEndian {
		return "be"
	}
	return "le"
}

// ParseByteOrder accepts "le"/"little" and "be"/"big".
func ParseByteOrder(s string) (ByteOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "le", "little", "little-endian":
		return LittleEndian, nil
	case "be", "big", "big-endian":
		return BigEndian, nil
	default:
		return LittleEndian, fmt.Errorf("unknown byte order %q", s)
	}
}

// Sentinel selects what happens when a field holds its all-ones "not
// available" pattern (0xFF, 0xFFFF, ...).
type Sentinel uint8

const (
	SentinelNone Sentinel = iota // all-ones is an ordinary value
	SentinelZero                 // all-ones decodes to 0
	SentinelOmit                 // all-ones leaves the attribute unset
)

func (s Sentinel) String() string {
	switch s {
	case SentinelNone:
		return "none"
	case SentinelZero:
		return "zero"
	case SentinelOmit:
		return "omit"
	default:
		return fmt.Sprintf("Unknown Sentinel (%d)", s)
	}
}

// ParseSentinel accepts "none", "zero" and "omit".
func ParseSentinel(s string) (Sentinel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return SentinelNone, nil
	case "zero":
		return SentinelZero, nil
	case "omit":
		return SentinelOmit, nil
	default:
		return SentinelNone, fmt.Errorf("unknown sentinel policy %q", s)
	}
}

// Field describes one wire field of a frame.
type Field struct {
	Name     string
	Bit      int // flag bit gating the field, or Always
	Width    int // bytes, 1..4
	Order    ByteOrder
	Signed   bool
	Divisor  float64 // raw / Divisor gives the semantic value; 0 means 1
	Target   Target
	Sentinel Sentinel
}

// Layout is the ordered field table of one wire dialect.
type Layout struct {
	Name       string
	FlagsWidth int // 2 or 3 bytes
	FlagsOrder ByteOrder
	Fields     []Field
}

// targetBits is the capacity of each integer attribute, and whether it is signed.
var targetBits = map[Target]struct {
	bits   int
	signed bool
}{
	TargetInstantCadence: {16, false},
	TargetInstantPower:   {16, true},
	TargetTotalDistance:  {32, false},
	TargetKcal:           {16, false},
	TargetHeartRate:      {8, false},
	TargetElapsedTime:    {16, false},
}

// Validate checks that the table can be walked safely.
func (l Layout) Validate() error {
	if l.FlagsWidth != 2 && l.FlagsWidth != 3 {
		return fmt.Errorf("%w %q: flags width %d, want 2 or 3", ErrInvalidLayout, l.Name, l.FlagsWidth)
	}
	if len(l.Fields) == 0 {
		return fmt.Errorf("%w %q: no fields", ErrInvalidLayout, l.Name)
	}
	prev := Always
	for i, f := range l.Fields {
		if f.Width < 1 || f.Width > 4 {
			return fmt.Errorf("%w %q: field %q width %d out of range", ErrInvalidLayout, l.Name, f.Name, f.Width)
		}
		if f.Bit == Always && i != 0 {
			return fmt.Errorf("%w %q: mandatory field %q must come first", ErrInvalidLayout, l.Name, f.Name)
		}
		if f.Bit < Always || f.Bit >= l.FlagsWidth*8 {
			return fmt.Errorf("%w %q: field %q bit %d outside %d-bit flags", ErrInvalidLayout, l.Name, f.Name, f.Bit, l.FlagsWidth*8)
		}
		if f.Bit < prev {
			return fmt.Errorf("%w %q: field %q bit %d is below preceding bit %d", ErrInvalidLayout, l.Name, f.Name, f.Bit, prev)
		}
		if f.Divisor < 0 {
			return fmt.Errorf("%w %q: field %q has negative divisor", ErrInvalidLayout, l.Name, f.Name)
		}
		if capacity, ok := targetBits[f.Target]; ok {
			if f.Signed && !capacity.signed {
				return fmt.Errorf("%w %q: signed field %q can't feed unsigned %s", ErrInvalidLayout, l.Name, f.Name, f.Target)
			}
			need := f.Width * 8
			if capacity.signed && !f.Signed {
				need++
			}
			if need > capacity.bits {
				return fmt.Errorf("%w %q: field %q (%d bytes) overflows %s", ErrInvalidLayout, l.Name, f.Name, f.Width, f.Target)
			}
		}
		prev = f.Bit
	}
	return nil
}

// FrameLen returns the number of bytes the given flags imply, flags included.
func (l Layout) FrameLen(flags uint32) int {
	n := l.FlagsWidth
	for _, f := range l.Fields {
		if f.present(flags) {
			n += f.Width
		}
	}
	return n
}

// FlagMask returns the union of all flag bits the layout knows about.
func (l Layout) FlagMask() uint32 {
	var mask uint32
	for _, f := range l.Fields {
		if f.Bit != Always {
			mask |= 1 << uint(f.Bit)
		}
	}
	return mask
}

// WithoutTargets returns a copy of l where the given attributes are consumed
// but not emitted. Use it to hide device-lifetime totals such as distance or
// energy from a session.
func (l Layout) WithoutTargets(targets ...Target) Layout {
	out := l
	out.Fields = make([]Field, len(l.Fields))
	copy(out.Fields, l.Fields)
	for i := range out.Fields {
		for _, t := range targets {
			if out.Fields[i].Target == t {
				out.Fields[i].Target = TargetNone
			}
		}
	}
	return out
}

func (f Field) present(flags uint32) bool {
	return f.Bit == Always || flags&(1<<uint(f.Bit)) != 0
}

func (f Field) divisor() float64 {
	if f.Divisor == 0 {
		return 1
	}
	return f.Divisor
}

// allOnes is the sentinel bit pattern for the field's width.
func (f Field) allOnes() uint32 {
	return uint32(1)<<(uint(f.Width)*8) - 1
}
