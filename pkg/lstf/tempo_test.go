package lstf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testHeader() Header {
	return Header{TicksPerBeat: 960, MicrosPerBeat: 500_000, TrackCount: 3}
}

func TestTempoMapSingleSegment(t *testing.T) {
	m, warnings, err := NewTempoMap(testHeader(), nil)
	require.NoError(t, err)
	require.Empty(t, warnings)

	micros, err := m.MicrosAt(0)
	require.NoError(t, err)
	require.Zero(t, micros)

	// One beat of 960 ticks at 500000 µs/beat.
	micros, err = m.MicrosAt(960)
	require.NoError(t, err)
	require.Equal(t, int64(500_000), micros)

	// Proportional inside the segment.
	micros, err = m.MicrosAt(480)
	require.NoError(t, err)
	require.Equal(t, int64(250_000), micros)
}

func TestTempoMapSetTempoMidStream(t *testing.T) {
	m, _, err := NewTempoMap(testHeader(), []TempoEvent{SetTempoAt(960, 250_000)})
	require.NoError(t, err)

	micros, err := m.MicrosAt(960)
	require.NoError(t, err)
	require.Equal(t, int64(500_000), micros)

	// Second beat runs twice as fast.
	micros, err = m.MicrosAt(1920)
	require.NoError(t, err)
	require.Equal(t, int64(750_000), micros)
}

func TestTempoMapSetTimebaseForwardOnly(t *testing.T) {
	// Halving ticks-per-beat from tick 960 doubles the per-tick rate for
	// later ticks without rescaling earlier ones.
	m, _, err := NewTempoMap(testHeader(), []TempoEvent{SetTimebaseAt(960, 480)})
	require.NoError(t, err)

	micros, err := m.MicrosAt(960)
	require.NoError(t, err)
	require.Equal(t, int64(500_000), micros)

	micros, err = m.MicrosAt(1440)
	require.NoError(t, err)
	require.Equal(t, int64(1_000_000), micros)
}

func TestTempoMapChangeOnExistingBoundaryReplaces(t *testing.T) {
	m, _, err := NewTempoMap(testHeader(), []TempoEvent{
		SetTempoAt(0, 1_000_000),
	})
	require.NoError(t, err)

	micros, err := m.MicrosAt(960)
	require.NoError(t, err)
	require.Equal(t, int64(1_000_000), micros)
}

func TestTempoMapIgnoresNonPositiveValues(t *testing.T) {
	m, warnings, err := NewTempoMap(testHeader(), []TempoEvent{
		SetTempoAt(480, 0),
		SetTimebaseAt(480, 0),
	})
	require.NoError(t, err)
	require.Len(t, warnings, 2)
	for _, w := range warnings {
		require.Equal(t, WarnTempoValueIgnored, w.Code)
	}

	micros, err := m.MicrosAt(960)
	require.NoError(t, err)
	require.Equal(t, int64(500_000), micros)
}

func TestTempoMapEmpty(t *testing.T) {
	var m *TempoMap
	_, err := m.MicrosAt(0)
	require.ErrorIs(t, err, ErrEmptyTempoMap)

	_, err = (&TempoMap{}).MicrosAt(10)
	require.ErrorIs(t, err, ErrEmptyTempoMap)
}

func TestTempoMapDurationBetween(t *testing.T) {
	m, _, err := NewTempoMap(testHeader(), nil)
	require.NoError(t, err)

	micros, err := m.DurationMicros(0, 120)
	require.NoError(t, err)
	require.Equal(t, int64(62_500), micros)

	_, err = m.DurationMicros(120, 0)
	require.Error(t, err)
}
