package mock

import (
	"testing"
	"time"

	"github.com/mlsorensen/goftms"
	"github.com/stretchr/testify/require"
)

func TestMockStreamsMetrics(t *testing.T) {
	TickInterval = 10 * time.Millisecond

	machine, err := goftms.NewMachineForDevice(&goftms.FoundDevice{Name: "MOCK-Development"})
	require.NoError(t, err)

	updates, err := machine.Connect()
	require.NoError(t, err)
	require.True(t, machine.IsConnected())

	_, err = machine.Connect()
	require.Error(t, err)

	for i := 0; i < 3; i++ {
		select {
		case update := <-updates:
			require.NoError(t, update.Error)
			require.Equal(t, 8, update.Metrics.Count())
			require.NotNil(t, update.Metrics.HeartRate)
		case <-time.After(2 * time.Second):
			t.Fatal("no update from mock machine")
		}
	}

	require.NoError(t, machine.Disconnect())
	require.False(t, machine.IsConnected())

	// channel is closed once the simulation stops
	for range updates {
	}
}
