package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mlsorensen/goftms/pkg/ftms"
	"github.com/stretchr/testify/require"
)

func TestDecodeHex(t *testing.T) {
	data, err := decodeHex(" 00:00:00 C4-09 ")
	require.NoError(t, err)
	require.Equal(t, []byte{0x00, 0x00, 0x00, 0xC4, 0x09}, data)

	data, err = decodeHex("0x0000_09C4")
	require.NoError(t, err)
	require.Len(t, data, 4)
}

func TestDecodeHexOddLength(t *testing.T) {
	_, err := decodeHex("ABC")
	require.Error(t, err)
}

func TestRunDecode(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runDecode(&out, ftms.CrossTrainer, "002000 C409 78 AA"))

	var got result
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	require.Equal(t, "cross-trainer", got.Dialect)
	require.Equal(t, "0x002000", got.Flags)
	require.Equal(t, 7, got.Length)
	require.Equal(t, 6, got.Consumed)
	require.Equal(t, 25.0, *got.Metrics.InstantSpeed)
	require.Equal(t, uint8(120), *got.Metrics.HeartRate)
	require.Nil(t, got.Metrics.ElapsedTime)
}

func TestRunDecodeMalformed(t *testing.T) {
	var out bytes.Buffer
	err := runDecode(&out, ftms.CrossTrainer, "002000C409")
	require.ErrorIs(t, err, ftms.ErrMalformedFrame)
	require.Empty(t, out.String())
}

func TestRunInteractive(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader("0000C409\n\nnot-hex\n")
	require.NoError(t, runInteractive(in, &out, ftms.IndoorBike))
	require.Contains(t, out.String(), `"instantSpeed": 25`)
}

func TestResolveLayoutOmit(t *testing.T) {
	dialect, omit = ftms.DialectCrossTrainer, []string{"kcal"}
	defer func() { omit = nil }()

	layout, err := resolveLayout()
	require.NoError(t, err)
	for _, f := range layout.Fields {
		require.NotEqual(t, ftms.TargetKcal, f.Target)
	}
}
