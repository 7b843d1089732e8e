package lstf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTrip(t *testing.T) {
	snap := Snapshot{
		StateID:    7,
		Tick:       3840,
		WallMicros: 2_000_000,
		Pads: [NumPads]Command{
			{Primitive: PrimitiveSwitch, Colour: RGB{0xFF, 0, 0}},
			{Primitive: PrimitiveFlash, Colour: RGB{0, 0xFF, 0}, PulseCount: 4, OnLength: 6, OffLength: 6},
			{Primitive: PrimitiveFade, Colour: RGB{0, 0, 0xFF}, PulseCount: 1, PulseTime: 25},
		},
	}
	payload, err := EncodeSnapshot(snap)
	require.NoError(t, err)
	require.Len(t, payload, snapshotWireSize)

	decoded, err := decodeSnapshot(payload)
	require.NoError(t, err)
	require.Equal(t, snap, decoded)
}

func TestSnapshotDecodeTruncated(t *testing.T) {
	_, err := decodeSnapshot(make([]byte, snapshotWireSize-1))
	require.ErrorIs(t, err, ErrTruncatedChunk)
}

func TestSnapshotEncodeRejectsOversizedTick(t *testing.T) {
	_, err := EncodeSnapshot(Snapshot{Tick: 1 << 32})
	require.Error(t, err)
}

func TestSnapshotStoreNearestAtOrBefore(t *testing.T) {
	store := newSnapshotStore([]Snapshot{
		{StateID: 2, Tick: 1920},
		{StateID: 1, Tick: 960},
		{StateID: 3, Tick: 3840},
	})
	require.Equal(t, 3, store.Len())

	require.Nil(t, store.NearestAtOrBefore(959))

	snap := store.NearestAtOrBefore(960)
	require.NotNil(t, snap)
	require.Equal(t, uint8(1), snap.StateID)

	snap = store.NearestAtOrBefore(2000)
	require.NotNil(t, snap)
	require.Equal(t, uint8(2), snap.StateID)

	snap = store.NearestAtOrBefore(100_000)
	require.NotNil(t, snap)
	require.Equal(t, uint8(3), snap.StateID)
}

func TestSnapshotStoreByStateID(t *testing.T) {
	store := newSnapshotStore([]Snapshot{
		{StateID: 5, Tick: 100},
		{StateID: 5, Tick: 200}, // duplicate id: last arrival wins
	})
	snap := store.ByStateID(5)
	require.NotNil(t, snap)
	require.Equal(t, uint64(200), snap.Tick)

	require.Nil(t, store.ByStateID(9))
}

func TestSnapshotStoreNilSafe(t *testing.T) {
	var store *SnapshotStore
	require.Zero(t, store.Len())
	require.Nil(t, store.NearestAtOrBefore(0))
	require.Nil(t, store.ByStateID(1))
}
