package mobi

import (
	"testing"

	"github.com/mlsorensen/goftms"
	"github.com/mlsorensen/goftms/pkg/ftms"
	"github.com/stretchr/testify/require"
)

func TestRegistered(t *testing.T) {
	machine, err := goftms.NewMachineForDevice(&goftms.FoundDevice{Name: "MOBI-E1"})
	require.NoError(t, err)
	require.Equal(t, "MOBI elliptical", machine.DisplayName())
	require.Equal(t, ftms.DialectCrossTrainer, machine.Dialect().Name)

	// flags 0x002004: distance and heart rate present
	buf := []byte{0x04, 0x20, 0x00, 0xC4, 0x09, 0xE8, 0x03, 0x00, 0x78}
	m, err := machine.Dialect().Decode(buf)
	require.NoError(t, err)
	require.Equal(t, 25.0, *m.InstantSpeed)
	require.Equal(t, uint32(1000), *m.TotalDistance)
	require.Equal(t, uint8(120), *m.HeartRate)
}

func TestReportsEnergy(t *testing.T) {
	machine, err := goftms.NewMachineForDevice(&goftms.FoundDevice{Name: "MOBI-E1"})
	require.NoError(t, err)

	// flags 0x000400: total energy 42 kcal
	m, err := machine.Dialect().Decode([]byte{0x00, 0x04, 0x00, 0xC4, 0x09, 0x2A, 0x00})
	require.NoError(t, err)
	require.Equal(t, uint16(42), *m.Kcal)
}
