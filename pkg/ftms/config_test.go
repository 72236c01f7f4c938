package ftms

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const acmeConfig = `
[[dialect]]
name = "acme-elliptical"
flags_width = 2

  [[dialect.field]]
  name = "speed"
  bit = -1
  width = 2
  order = "be"
  divisor = 10
  target = "instantSpeed"

  [[dialect.field]]
  name = "distance"
  bit = 0
  width = 3
  order = "be"
  target = "totalDistance"

  [[dialect.field]]
  name = "heart rate"
  bit = 3
  width = 1
  target = "heartRate"
  sentinel = "omit"

[[device]]
prefix = "ACME"
dialect = "acme-elliptical"
display_name = "ACME Elliptical"
omit = ["totalDistance"]

[[device]]
prefix = "KICKR"
dialect = "indoor-bike"
`

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(acmeConfig))
	require.NoError(t, err)
	require.Len(t, cfg.Dialects, 1)
	require.Len(t, cfg.Devices, 2)

	l := cfg.Dialects[0]
	require.Equal(t, "acme-elliptical", l.Name)
	require.Equal(t, BigEndian, l.Fields[0].Order)
	require.Equal(t, SentinelOmit, l.Fields[2].Sentinel)

	acme := cfg.Devices[0]
	require.Equal(t, "ACME Elliptical", acme.DisplayName)
	require.Equal(t, CrossTrainerDataUUID, acme.Characteristic)
	require.Equal(t, []Target{TargetTotalDistance}, acme.Omit)
	require.Equal(t, IndoorBikeDataUUID, cfg.Devices[1].Characteristic)

	require.NoError(t, cfg.Register())
	resolved, err := acme.Layout()
	require.NoError(t, err)

	// distance is still consumed so heart rate stays aligned
	m, err := resolved.Decode([]byte{0x09, 0x00, 0x00, 0xFA, 0x00, 0x10, 0x00, 0x61})
	require.NoError(t, err)
	require.Equal(t, 25.0, *m.InstantSpeed)
	require.Nil(t, m.TotalDistance)
	require.Equal(t, uint8(0x61), *m.HeartRate)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dialects.toml")
	require.NoError(t, os.WriteFile(path, []byte(acmeConfig), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Len(t, cfg.Devices, 2)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestParseConfigErrors(t *testing.T) {
	tests := map[string]string{
		"unknown target": `
[[dialect]]
name = "x"
flags_width = 2
  [[dialect.field]]
  bit = -1
  width = 2
  target = "watts"
`,
		"missing bit": `
[[dialect]]
name = "x"
flags_width = 2
  [[dialect.field]]
  width = 2
`,
		"bad order": `
[[dialect]]
name = "x"
flags_width = 2
  [[dialect.field]]
  bit = -1
  width = 2
  order = "middle"
`,
		"invalid layout": `
[[dialect]]
name = "x"
flags_width = 5
  [[dialect.field]]
  bit = -1
  width = 2
`,
		"unknown key": `
[[device]]
prefix = "A"
dialect = "cross-trainer"
colour = "red"
`,
		"unknown dialect": `
[[device]]
prefix = "A"
dialect = "nope"
`,
		"missing prefix": `
[[device]]
dialect = "cross-trainer"
`,
		"bad omit": `
[[device]]
prefix = "A"
dialect = "cross-trainer"
omit = ["everything"]
`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig([]byte(doc))
			require.Error(t, err)
		})
	}
}

func TestParseCharacteristic(t *testing.T) {
	for _, s := range []string{"2ACE", "0x2ace", " 2ace "} {
		uuid, err := ParseCharacteristic(s)
		require.NoError(t, err, s)
		require.Equal(t, CrossTrainerDataUUID, uuid, s)
	}

	uuid, err := ParseCharacteristic("00002ad2-0000-1000-8000-00805f9b34fb")
	require.NoError(t, err)
	require.Equal(t, IndoorBikeDataUUID, uuid)

	_, err = ParseCharacteristic("zzzz")
	require.Error(t, err)
}
