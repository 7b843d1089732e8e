package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/lstf/internal/textcodec"
	"github.com/dyluth/lstf/pkg/lstf"
)

func TestDemoTrackDecodes(t *testing.T) {
	data, err := buildDemoTrack()
	require.NoError(t, err)

	c, err := lstf.Decode(data)
	require.NoError(t, err)
	assert.Empty(t, c.Warnings())

	h := c.Header()
	assert.True(t, h.Loopable())
	assert.True(t, h.HasSnapshots())
	assert.Len(t, c.PadTrack(lstf.PadCentre), 3)
	assert.Len(t, c.PadTrack(lstf.PadRight), 1)
	assert.Len(t, c.GroupTrack(), 1)
	assert.Len(t, c.AudioTrack(), 2)
	assert.Equal(t, 1, c.Snapshots().Len())

	// The container re-encodes byte for byte.
	out, err := c.Encode()
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestDemoTrackSnapshotConsistency(t *testing.T) {
	data, err := buildDemoTrack()
	require.NoError(t, err)
	c, err := lstf.Decode(data)
	require.NoError(t, err)
	engine := lstf.NewEngine(c)

	// The embedded checkpoint must agree with full replay everywhere.
	for tick := uint64(0); tick <= 3000; tick += 120 {
		for pad := lstf.Pad(0); pad < lstf.NumPads; pad++ {
			direct, err := engine.PadStateAt(pad, tick)
			require.NoError(t, err)
			viaSnap, err := engine.PadStateVia(pad, tick)
			require.NoError(t, err)
			assert.Equal(t, direct, viaSnap, "pad %s tick %d", pad, tick)
		}
	}
}

func TestDemoTrackSurvivesTextWrapper(t *testing.T) {
	data, err := buildDemoTrack()
	require.NoError(t, err)

	unwrapped, err := textcodec.Decode(textcodec.Encode(data))
	require.NoError(t, err)
	assert.Equal(t, data, unwrapped)

	_, err = lstf.Decode(unwrapped)
	require.NoError(t, err)
}
