package ftms

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownDialect is returned by LookupDialect for unregistered names.
var ErrUnknownDialect = errors.New("ftms: unknown dialect")

const (
	DialectCrossTrainer = "cross-trainer"
	DialectIndoorBike   = "indoor-bike"
	DialectVendorBE     = "vendor-be"
)

// CrossTrainer is the Cross Trainer Data (0x2ACE) layout as observed on
// compliant machines: 24-bit flags, little-endian fields, and a single flag
// bit announcing both the instantaneous and the average step rate.
var CrossTrainer = Layout{
	Name:       DialectCrossTrainer,
	FlagsWidth: 3,
	Fields: []Field{
		{Name: "instantaneous speed", Bit: Always, Width: 2, Divisor: 100, Target: TargetInstantSpeed},
		{Name: "average speed", Bit: 1, Width: 2},
		{Name: "total distance", Bit: 2, Width: 3, Target: TargetTotalDistance},
		{Name: "step per minute", Bit: 3, Width: 2, Target: TargetInstantCadence},
		{Name: "average step rate", Bit: 3, Width: 2},
		{Name: "stride count", Bit: 4, Width: 2},
		{Name: "elevation gain", Bit: 5, Width: 2},
		{Name: "inclination", Bit: 6, Width: 2, Signed: true},
		{Name: "resistance level", Bit: 7, Width: 2, Signed: true, Divisor: 10, Target: TargetResistanceLevel},
		{Name: "instantaneous power", Bit: 8, Width: 2, Signed: true, Target: TargetInstantPower},
		{Name: "average power", Bit: 9, Width: 2, Signed: true},
		{Name: "total energy", Bit: 10, Width: 2, Target: TargetKcal, Sentinel: SentinelZero},
		{Name: "energy per hour", Bit: 11, Width: 2},
		{Name: "energy per minute", Bit: 12, Width: 1},
		{Name: "heart rate", Bit: 13, Width: 1, Target: TargetHeartRate, Sentinel: SentinelZero},
		{Name: "metabolic equivalent", Bit: 14, Width: 1},
		{Name: "elapsed time", Bit: 15, Width: 2, Target: TargetElapsedTime, Sentinel: SentinelZero},
		{Name: "remaining time", Bit: 16, Width: 2},
	},
}

// IndoorBike is the Indoor Bike Data (0x2AD2) layout.
var IndoorBike = Layout{
	Name:       DialectIndoorBike,
	FlagsWidth: 2,
	Fields: []Field{
		{Name: "instantaneous speed", Bit: Always, Width: 2, Divisor: 100, Target: TargetInstantSpeed},
		{Name: "average speed", Bit: 1, Width: 2},
		{Name: "instantaneous cadence", Bit: 2, Width: 2, Divisor: 2, Target: TargetInstantCadence},
		{Name: "average cadence", Bit: 3, Width: 2},
		{Name: "total distance", Bit: 4, Width: 3, Target: TargetTotalDistance},
		{Name: "resistance level", Bit: 5, Width: 2, Signed: true, Target: TargetResistanceLevel},
		{Name: "instantaneous power", Bit: 6, Width: 2, Signed: true, Target: TargetInstantPower},
		{Name: "average power", Bit: 7, Width: 2, Signed: true},
		{Name: "total energy", Bit: 8, Width: 2, Target: TargetKcal, Sentinel: SentinelZero},
		{Name: "energy per hour", Bit: 8, Width: 2},
		{Name: "energy per minute", Bit: 8, Width: 1},
		{Name: "heart rate", Bit: 9, Width: 1, Target: TargetHeartRate, Sentinel: SentinelZero},
		{Name: "metabolic equivalent", Bit: 10, Width: 1},
		{Name: "elapsed time", Bit: 11, Width: 2, Target: TargetElapsedTime, Sentinel: SentinelZero},
		{Name: "remaining time", Bit: 12, Width: 2},
	},
}

// VendorBE is the non-compliant cross trainer framing some machines send on
// 0x2ACE: 16-bit flags, big-endian data fields and speed in 0.1 km/h.
var VendorBE = Layout{
	Name:       DialectVendorBE,
	FlagsWidth: 2,
	Fields: []Field{
		{Name: "instantaneous speed", Bit: Always, Width: 2, Order: BigEndian, Divisor: 10, Target: TargetInstantSpeed},
		{Name: "average speed", Bit: 1, Width: 2, Order: BigEndian},
		{Name: "total distance", Bit: 2, Width: 3, Order: BigEndian, Target: TargetTotalDistance},
		{Name: "step per minute", Bit: 3, Width: 2, Order: BigEndian, Target: TargetInstantCadence},
		{Name: "average step rate", Bit: 3, Width: 2, Order: BigEndian},
		{Name: "stride count", Bit: 4, Width: 2, Order: BigEndian},
		{Name: "elevation gain", Bit: 5, Width: 2, Order: BigEndian},
		{Name: "inclination", Bit: 6, Width: 2, Order: BigEndian, Signed: true},
		{Name: "resistance level", Bit: 7, Width: 2, Order: BigEndian, Signed: true, Divisor: 10, Target: TargetResistanceLevel},
		{Name: "instantaneous power", Bit: 8, Width: 2, Order: BigEndian, Signed: true, Target: TargetInstantPower},
		{Name: "average power", Bit: 9, Width: 2, Order: BigEndian, Signed: true},
		{Name: "total energy", Bit: 10, Width: 2, Order: BigEndian, Target: TargetKcal, Sentinel: SentinelZero},
		{Name: "energy per hour", Bit: 11, Width: 2, Order: BigEndian},
		{Name: "energy per minute", Bit: 12, Width: 1},
		{Name: "heart rate", Bit: 13, Width: 1, Target: TargetHeartRate, Sentinel: SentinelZero},
		{Name: "metabolic equivalent", Bit: 14, Width: 1},
		{Name: "elapsed time", Bit: 15, Width: 2, Order: BigEndian, Target: TargetElapsedTime, Sentinel: SentinelZero},
	},
}

var (
	dialects = map[string]Layout{
		DialectCrossTrainer: CrossTrainer,
		DialectIndoorBike:   IndoorBike,
		DialectVendorBE:     VendorBE,
	}
	dialectLock = sync.RWMutex{}
)

// RegisterDialect makes a layout available by its name. Registering an
// existing name replaces it.
func RegisterDialect(l Layout) error {
	if err := l.Validate(); err != nil {
		return err
	}
	if l.Name == "" {
		return fmt.Errorf("%w: dialect has no name", ErrInvalidLayout)
	}

	dialectLock.Lock()
	defer dialectLock.Unlock()
	dialects[l.Name] = l
	return nil
}

// LookupDialect returns the layout registered under name.
func LookupDialect(name string) (Layout, error) {
	dialectLock.RLock()
	defer dialectLock.RUnlock()

	l, ok := dialects[name]
	if !ok {
		return Layout{}, fmt.Errorf("%w %q", ErrUnknownDialect, name)
	}
	return l, nil
}

// Dialects returns the registered dialect names, sorted.
func Dialects() []string {
	dialectLock.RLock()
	defer dialectLock.RUnlock()

	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
