// Package mobi registers MOBI ellipticals. Their firmware sends standard cross
// trainer data on 0x2ACE: 24-bit flags, little-endian fields, speed in 0.01 km/h.
package mobi

import (
	"github.com/mlsorensen/goftms"
	"github.com/mlsorensen/goftms/pkg/ftms"
	"github.com/mlsorensen/goftms/pkg/machines/standard"
)

func init() {
	goftms.Register("MOBI", standard.Factory(Options()))
}

// Options is the standard driver configuration for MOBI machines.
func Options() standard.Options {
	return standard.Options{
		Dialect:        ftms.CrossTrainer,
		Characteristic: ftms.CrossTrainerDataUUID,
		DisplayName:    "MOBI elliptical",
	}
}
