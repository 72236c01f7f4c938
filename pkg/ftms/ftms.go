// Package ftms decodes Fitness Machine Service data notifications.
//
// A notification starts with a flags bitmask. Every set bit announces one or
// more fields that follow in ascending bit order, each with a fixed width. The
// decoder walks a Layout table once per frame, advancing a cursor over every
// field the flags claim is present, and returns a Metrics record holding only
// the attributes that were actually reported.
package ftms

import (
	"fmt"
	"strconv"
	"strings"

	"tinygo.org/x/bluetooth"
)

var (
	FitnessMachineServiceUUID = bluetooth.New16BitUUID(0x1826)
	CrossTrainerDataUUID      = bluetooth.New16BitUUID(0x2ACE)
	IndoorBikeDataUUID        = bluetooth.New16BitUUID(0x2AD2)
)

// ParseCharacteristic accepts a 16-bit assigned number ("2ACE", "0x2ACE") or a
// full 128-bit UUID.
func ParseCharacteristic(s string) (bluetooth.UUID, error) {
	s = strings.TrimSpace(s)
	short := strings.TrimPrefix(strings.ToLower(s), "0x")
	if len(short) == 4 {
		n, err := strconv.ParseUint(short, 16, 16)
		if err != nil {
			return bluetooth.UUID{}, fmt.Errorf("invalid characteristic %q: %w", s, err)
		}
		return bluetooth.New16BitUUID(uint16(n)), nil
	}
	return bluetooth.ParseUUID(s)
}
