package goftms

import (
	"testing"

	"github.com/mlsorensen/goftms/pkg/ftms"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

type fakeMachine struct {
	Machine
	name string
}

func (f *fakeMachine) DisplayName() string { return f.name }

func factoryNamed(name string) Factory {
	return func(*FoundDevice) Machine { return &fakeMachine{name: name} }
}

func TestNewMachineForDeviceLongestPrefix(t *testing.T) {
	Register("TESTFIT", factoryNamed("generic"))
	Register("TESTFIT-X7", factoryNamed("x7"))

	m, err := NewMachineForDevice(&FoundDevice{Name: "TESTFIT-X7-0042"})
	require.NoError(t, err)
	require.Equal(t, "x7", m.DisplayName())

	m, err = NewMachineForDevice(&FoundDevice{Name: "TESTFIT-A1"})
	require.NoError(t, err)
	require.Equal(t, "generic", m.DisplayName())

	_, err = NewMachineForDevice(&FoundDevice{Name: "UNRELATED"})
	require.Error(t, err)
}

func TestMatches(t *testing.T) {
	prefixes := []string{"MOBI", ""}

	require.True(t, matches("MOBI-123", false, prefixes))
	require.False(t, matches("Treadmill", false, prefixes))
	require.True(t, matches("Treadmill", true, prefixes))
	require.False(t, matches("", false, prefixes))
}

func TestGetPrefixes(t *testing.T) {
	require.Equal(t, []string{"A", "B"}, getPrefixes("A", "B"))

	Register("PREFIXTEST", factoryNamed("p"))
	require.Contains(t, getPrefixes(), "PREFIXTEST")
}

func TestDecodeNotification(t *testing.T) {
	log := logrus.NewEntry(logrus.New())

	m, ok := DecodeNotification(ftms.CrossTrainer, []byte{0x00, 0x00, 0x00, 0xC4, 0x09}, log)
	require.True(t, ok)
	require.Equal(t, 25.0, *m.InstantSpeed)

	_, ok = DecodeNotification(ftms.CrossTrainer, []byte{0x00, 0x20, 0x00, 0xC4, 0x09}, log)
	require.False(t, ok)
}
