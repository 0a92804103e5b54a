// internal/tilemap/tilemap_test.go
package tilemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFields() []string {
	return []string{
		"60 Hz",
		"1.0240 MHz",
		"1.0238 MHz",
		"1.0243 MHz",
		"1.024051 MHz",
		"+23 ppm",
		"1.024012 MHz",
		"1.024098 MHz",
		"32000.6 Hz",
	}
}

func TestDecodeRow_Slowest(t *testing.T) {
	tm := make([]byte, 2*RowStride)
	copy(tm[RowStride:], "\x00Slowest:60 Hz")

	v, err := DecodeRow(tm, Field{Row: 1, Header: "Slowest:"})
	require.NoError(t, err)
	assert.Equal(t, "60 Hz", v)
}

func TestDecodeRow_HeaderMismatch(t *testing.T) {
	tm := make([]byte, RowStride)
	copy(tm, "\x00Fastest:60 Hz")

	_, err := DecodeRow(tm, Field{Row: 0, Header: "Slowest:"})
	assert.ErrorIs(t, err, ErrLayoutMismatch)
}

func TestDecodeRow_TrimAndTruncate(t *testing.T) {
	tm := make([]byte, RowStride)
	copy(tm, "\x00Meaning:  \x00 abc\x00junk   ")

	v, err := DecodeRow(tm, Field{Row: 0, Header: "Meaning:"})
	require.NoError(t, err)
	// leading NUL/space trimmed, then cut at the first embedded NUL
	assert.Equal(t, "abc", v)
}

func TestDecodeRow_ShortBuffer(t *testing.T) {
	_, err := DecodeRow(make([]byte, 40), Field{Row: 1, Header: "Slowest:"})
	assert.ErrorIs(t, err, ErrLayoutMismatch)
}

func TestDecodeRow_NonASCII(t *testing.T) {
	tm := make([]byte, RowStride)
	copy(tm, "\x00Slowest:\xff\xfe")

	_, err := DecodeRow(tm, Field{Row: 0, Header: "Slowest:"})
	assert.ErrorIs(t, err, ErrLayoutMismatch)
}

func TestDecode_RoundTrip(t *testing.T) {
	fields := sampleFields()

	tm, err := Render(SMPSpeedLayout, fields)
	require.NoError(t, err)
	require.Len(t, tm, SMPSpeedSize)

	res := Decode(tm, SMPSpeedLayout)
	require.True(t, res.OK(), "status=%s err=%v", res.Status, res.Err)
	assert.Equal(t, Record(fields), res.Record)
}

func TestDecode_PlaceholderIsNotReady(t *testing.T) {
	fields := sampleFields()
	fields[1] = "------"

	tm, err := Render(SMPSpeedLayout, fields)
	require.NoError(t, err)

	res := Decode(tm, SMPSpeedLayout)
	assert.Equal(t, StatusNotReady, res.Status)
	assert.Nil(t, res.Record)
	assert.NoError(t, res.Err)
}

func TestDecode_PlaceholderOnlyCheckedOnMeaning(t *testing.T) {
	fields := sampleFields()
	fields[2] = "------"

	tm, err := Render(SMPSpeedLayout, fields)
	require.NoError(t, err)

	res := Decode(tm, SMPSpeedLayout)
	require.True(t, res.OK())
	assert.Equal(t, "------", res.Record[2])
}

func TestDecode_AnyBadRowDiscardsRecord(t *testing.T) {
	tm, err := Render(SMPSpeedLayout, sampleFields())
	require.NoError(t, err)

	// corrupt the last row header
	tm[14*RowStride+HeaderColumn] = 'X'

	res := Decode(tm, SMPSpeedLayout)
	assert.Equal(t, StatusLayoutMismatch, res.Status)
	assert.ErrorIs(t, res.Err, ErrLayoutMismatch)
	assert.Nil(t, res.Record)
}

func TestDecode_EmptyMemory(t *testing.T) {
	res := Decode(make([]byte, SMPSpeedSize), SMPSpeedLayout)
	assert.Equal(t, StatusLayoutMismatch, res.Status)
}

func TestLayoutColumns(t *testing.T) {
	assert.Equal(t, []string{
		"SNES PPU", "Meaning", "Slowest", "Fastest",
		"S-SMP clock", "relative", "Slowest", "Fastest", "DSP sample rate",
	}, SMPSpeedLayout.Columns())
	assert.Equal(t, SMPSpeedSize, SMPSpeedLayout.Size())
}

func TestRender_Rejects(t *testing.T) {
	_, err := Render(SMPSpeedLayout, []string{"x"})
	assert.Error(t, err)

	fields := sampleFields()
	fields[0] = "this value is far too long for one row"
	_, err = Render(SMPSpeedLayout, fields)
	assert.Error(t, err)
}
