package container

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func sample(t *testing.T) []byte {
	t.Helper()
	data, err := Append(nil, 3, 5, [][]byte{{1, 2, 3}, {4}, {5, 6}})
	require.NoError(t, err)
	return data
}

func TestAppendLayout(t *testing.T) {
	data := sample(t)
	want := []byte{
		3, 0, 0, 0,
		5, 0, 0, 0,
		3, 0, 0, 0,
		3, 0, 0, 0,
		1, 0, 0, 0,
		2, 0, 0, 0,
		1, 2, 3, 4, 5, 6,
	}
	require.Equal(t, want, data)
	require.Equal(t, len(want), Size([][]byte{{1, 2, 3}, {4}, {5, 6}}))
}

func TestParseRoundTrip(t *testing.T) {
	c, err := Parse(sample(t))
	require.NoError(t, err)
	require.Equal(t, 3, c.Width)
	require.Equal(t, 5, c.Height)
	require.Equal(t, [][]byte{{1, 2, 3}, {4}, {5, 6}}, c.Payloads)
}

func TestParseEmptyImage(t *testing.T) {
	data, err := Append(nil, 0, 0, nil)
	require.NoError(t, err)
	require.Len(t, data, HeaderSize)

	c, err := Parse(data)
	require.NoError(t, err)
	require.Empty(t, c.Payloads)
}

func TestParseRejects(t *testing.T) {
	valid := sample(t)

	setI32 := func(off int, v int32) []byte {
		d := append([]byte(nil), valid...)
		binary.LittleEndian.PutUint32(d[off:], uint32(v))
		return d
	}

	for _, tc := range []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "short_header", data: valid[:7]},
		{name: "truncated_last_byte", data: valid[:len(valid)-1]},
		{name: "trailing_byte", data: append(append([]byte(nil), valid...), 0)},
		{name: "length_exceeds_remaining", data: setI32(16, 1000)},
		{name: "negative_length", data: setI32(16, -1)},
		{name: "negative_width", data: setI32(0, -3)},
		{name: "negative_height", data: setI32(4, -5)},
		{name: "negative_count", data: setI32(8, -1)},
		{name: "more_bands_than_rows", data: setI32(4, 2)},
		{name: "rows_without_bands", data: setI32(8, 0)},
		{name: "huge_count", data: setI32(8, 1<<30)},
		{name: "truncated_table", data: valid[:HeaderSize+6]},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.data)
			require.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestAppendRejectsOversizedFields(t *testing.T) {
	_, err := Append(nil, 1<<31, 1, nil)
	require.Error(t, err)
}
