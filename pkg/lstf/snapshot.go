package lstf

import (
	"encoding/binary"
	"fmt"
	"sort"
)

const snapshotWireSize = 13 + NumPads*8

// Snapshot is a precomputed full-state checkpoint decoded from a STAT chunk.
// Snapshots let the resolution engine seek without replaying from tick 0;
// they are a cache, never a source of truth, and results derived through
// them must match full replay exactly.
type Snapshot struct {
	StateID    uint8
	Tick       uint64 // absolute tick (u32 on the wire)
	WallMicros uint64 // wall-clock position at Tick
	Pads       [NumPads]Command
}

// decodeSnapshot parses a STAT payload: state id, tick, wall clock, then a
// resolved 8-byte command per pad.
func decodeSnapshot(payload []byte) (Snapshot, error) {
	if len(payload) < snapshotWireSize {
		return Snapshot{}, fmt.Errorf("%w: STAT chunk needs %d bytes, got %d",
			ErrTruncatedChunk, snapshotWireSize, len(payload))
	}
	snap := Snapshot{
		StateID:    payload[0],
		Tick:       uint64(binary.LittleEndian.Uint32(payload[1:5])),
		WallMicros: binary.LittleEndian.Uint64(payload[5:13]),
	}
	offset := 13
	for p := 0; p < NumPads; p++ {
		snap.Pads[p] = Command{
			Primitive:  Primitive(payload[offset]),
			Colour:     RGB{R: payload[offset+1], G: payload[offset+2], B: payload[offset+3]},
			PulseCount: payload[offset+4],
			PulseTime:  payload[offset+5],
			OnLength:   payload[offset+6],
			OffLength:  payload[offset+7],
		}
		offset += 8
	}
	return snap, nil
}

// EncodeSnapshot builds a STAT payload for snap.
func EncodeSnapshot(snap Snapshot) ([]byte, error) {
	if snap.Tick > 0xFFFFFFFF {
		return nil, fmt.Errorf("snapshot tick %d exceeds the u32 wire field", snap.Tick)
	}
	payload := make([]byte, 0, snapshotWireSize)
	payload = append(payload, snap.StateID)
	payload = binary.LittleEndian.AppendUint32(payload, uint32(snap.Tick))
	payload = binary.LittleEndian.AppendUint64(payload, snap.WallMicros)
	for p := 0; p < NumPads; p++ {
		cmd := snap.Pads[p]
		payload = append(payload,
			byte(cmd.Primitive),
			cmd.Colour.R, cmd.Colour.G, cmd.Colour.B,
			cmd.PulseCount, cmd.PulseTime, cmd.OnLength, cmd.OffLength,
		)
	}
	return payload, nil
}

// SnapshotStore indexes snapshots by absolute tick for O(log n) seek.
type SnapshotStore struct {
	byTick []Snapshot // sorted by Tick
	byID   map[uint8]*Snapshot
}

// newSnapshotStore sorts snaps by tick and indexes state ids. Duplicate
// state ids keep the last arrival, matching the override convention of the
// rest of the format.
func newSnapshotStore(snaps []Snapshot) *SnapshotStore {
	store := &SnapshotStore{
		byTick: make([]Snapshot, len(snaps)),
		byID:   make(map[uint8]*Snapshot, len(snaps)),
	}
	copy(store.byTick, snaps)
	sort.SliceStable(store.byTick, func(i, j int) bool {
		return store.byTick[i].Tick < store.byTick[j].Tick
	})
	for i := range store.byTick {
		store.byID[store.byTick[i].StateID] = &store.byTick[i]
	}
	return store
}

// Len returns the number of indexed snapshots.
func (s *SnapshotStore) Len() int {
	if s == nil {
		return 0
	}
	return len(s.byTick)
}

// NearestAtOrBefore returns the snapshot with the largest tick <= tick, or
// nil when none qualifies.
func (s *SnapshotStore) NearestAtOrBefore(tick uint64) *Snapshot {
	if s == nil || len(s.byTick) == 0 {
		return nil
	}
	idx := sort.Search(len(s.byTick), func(i int) bool {
		return s.byTick[i].Tick > tick
	}) - 1
	if idx < 0 {
		return nil
	}
	return &s.byTick[idx]
}

// ByStateID resolves a KeyframeState reference. Returns nil for dangling
// ids; callers report the condition and fall back to replay.
func (s *SnapshotStore) ByStateID(id uint8) *Snapshot {
	if s == nil {
		return nil
	}
	return s.byID[id]
}
