package standard

import (
	"context"
	"testing"
	"time"

	"github.com/mlsorensen/goftms"
	"github.com/mlsorensen/goftms/pkg/ftms"
	"github.com/stretchr/testify/require"
)

func connectedMachine(opts Options, buffer int) *Machine {
	m := New(&goftms.FoundDevice{Name: "TEST-1"}, opts)
	m.connected = true
	m.updateChan = make(chan goftms.MetricsUpdate, buffer)
	return m
}

func TestNewDefaults(t *testing.T) {
	m := New(&goftms.FoundDevice{Name: "Elliptical"}, Options{})
	require.Equal(t, ftms.DialectCrossTrainer, m.Dialect().Name)
	require.Equal(t, ftms.CrossTrainerDataUUID, m.opts.Characteristic)
	require.Equal(t, defaultIdleTimeout, m.opts.IdleTimeout)
	require.Equal(t, "Elliptical", m.DeviceName())
	require.False(t, m.IsConnected())

	bike := New(&goftms.FoundDevice{Name: "Bike"}, Options{Dialect: ftms.IndoorBike})
	require.Equal(t, ftms.IndoorBikeDataUUID, bike.opts.Characteristic)
}

func TestHandleNotification(t *testing.T) {
	m := connectedMachine(Options{}, 1)

	m.handleNotification([]byte{0x00, 0x20, 0x00, 0xC4, 0x09, 0x78})
	update := <-m.updateChan
	require.NoError(t, update.Error)
	require.Equal(t, 25.0, *update.Metrics.InstantSpeed)
	require.Equal(t, uint8(120), *update.Metrics.HeartRate)

	// truncated heart rate: dropped, subscription keeps going
	m.handleNotification([]byte{0x00, 0x20, 0x00, 0xC4, 0x09})
	require.Len(t, m.updateChan, 0)

	// full channel: second update is dropped rather than blocking
	m.handleNotification([]byte{0x00, 0x00, 0x00, 0xC4, 0x09})
	m.handleNotification([]byte{0x00, 0x00, 0x00, 0xC4, 0x09})
	require.Len(t, m.updateChan, 1)
}

func TestHandleNotificationAfterDisconnect(t *testing.T) {
	m := connectedMachine(Options{}, 1)
	m.connected = false

	m.handleNotification([]byte{0x00, 0x00, 0x00, 0xC4, 0x09})
	require.Len(t, m.updateChan, 0)
}

func TestRegisterConfig(t *testing.T) {
	cfg, err := ftms.ParseConfig([]byte(`
[[device]]
prefix = "STDTEST"
dialect = "vendor-be"
display_name = "Test Elliptical"
omit = ["kcal"]
`))
	require.NoError(t, err)
	require.NoError(t, RegisterConfig(cfg))

	machine, err := goftms.NewMachineForDevice(&goftms.FoundDevice{Name: "STDTEST-9"})
	require.NoError(t, err)
	require.Equal(t, "Test Elliptical", machine.DisplayName())
	require.Equal(t, ftms.DialectVendorBE, machine.Dialect().Name)

	for _, f := range machine.Dialect().Fields {
		require.NotEqual(t, ftms.TargetKcal, f.Target)
	}
}

func TestFallbackRegistration(t *testing.T) {
	machine, err := goftms.NewMachineForDevice(&goftms.FoundDevice{Name: "SomeGenericTrainer"})
	require.NoError(t, err)
	require.Equal(t, ftms.DialectCrossTrainer, machine.Dialect().Name)
}

func TestWatchdogInterval(t *testing.T) {
	require.Equal(t, 2500*time.Millisecond, watchdogInterval(5*time.Second))
	require.Equal(t, time.Millisecond, watchdogInterval(time.Nanosecond))
	require.Equal(t, time.Millisecond, watchdogInterval(0))
}

func TestAbortConnectReleasesSession(t *testing.T) {
	m := New(&goftms.FoundDevice{Name: "TEST-2"}, Options{})
	m.updateChan = make(chan goftms.MetricsUpdate, 1)
	m.disconnectCtx, m.disconnectFunc = context.WithCancel(context.Background())

	m.abortConnect()
	require.Error(t, m.disconnectCtx.Err())
	require.Nil(t, m.updateChan)
	require.False(t, m.IsConnected())
}
