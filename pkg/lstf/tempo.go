package lstf

import (
	"fmt"
	"sort"
)

// tempoSegment is one piecewise-constant stretch of the tempo map. A segment
// runs from startTick until the next segment's startTick (or forever for the
// last one) at a fixed microseconds-per-tick rate.
type tempoSegment struct {
	startTick     uint64
	startMicros   float64
	microsPerTick float64
}

// TempoMap converts absolute tick positions to wall-clock microseconds.
// Construction is sequential (each segment depends on the prior tempo state);
// once built, lookups are read-only and safe for concurrent use.
type TempoMap struct {
	segments []tempoSegment
}

// buildTempoMap folds tempo events into a piecewise map, seeded with the
// header's initial tempo and time base as the implicit entry at tick 0.
//
// A SetTimebase changes the ticks-per-beat divisor from its tick forward
// only: earlier ticks keep the rate that was in effect when they were
// recorded. Non-positive values are dropped with a warning.
func buildTempoMap(header Header, events []TempoEvent) (*TempoMap, []Warning) {
	segments := []tempoSegment{{
		startTick:     0,
		startMicros:   0,
		microsPerTick: float64(header.MicrosPerBeat) / float64(header.TicksPerBeat),
	}}

	sorted := make([]TempoEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Tick < sorted[j].Tick })

	var warnings []Warning
	tempo := header.MicrosPerBeat
	timebase := header.TicksPerBeat

	for _, ev := range sorted {
		switch ev.Op {
		case opSetTempo:
			if ev.MicrosPerBeat == 0 {
				warnings = append(warnings, Warning{
					Code:    WarnTempoValueIgnored,
					Chunk:   TagTempo,
					Message: fmt.Sprintf("non-positive tempo at tick %d", ev.Tick),
				})
				continue
			}
			tempo = ev.MicrosPerBeat
		case opSetTimebase:
			if ev.TicksPerBeat == 0 {
				warnings = append(warnings, Warning{
					Code:    WarnTempoValueIgnored,
					Chunk:   TagTempo,
					Message: fmt.Sprintf("non-positive timebase at tick %d", ev.Tick),
				})
				continue
			}
			timebase = ev.TicksPerBeat
		default:
			continue
		}

		rate := float64(tempo) / float64(timebase)
		last := &segments[len(segments)-1]
		if ev.Tick == last.startTick {
			// A change landing exactly on the previous boundary replaces it.
			last.microsPerTick = rate
			continue
		}
		startMicros := last.startMicros + float64(ev.Tick-last.startTick)*last.microsPerTick
		segments = append(segments, tempoSegment{
			startTick:     ev.Tick,
			startMicros:   startMicros,
			microsPerTick: rate,
		})
	}

	return &TempoMap{segments: segments}, warnings
}

// NewTempoMap builds a standalone map from a header seed plus explicit tempo
// events. Callers going through Decode never need this directly.
func NewTempoMap(header Header, events []TempoEvent) (*TempoMap, []Warning, error) {
	if err := header.Validate(); err != nil {
		return nil, nil, fmt.Errorf("tempo map seed: %w", err)
	}
	m, warnings := buildTempoMap(header, events)
	return m, warnings, nil
}

// MicrosAt returns microseconds since tick 0 for an absolute tick position.
// O(log n) over the segment boundaries.
func (m *TempoMap) MicrosAt(tick uint64) (int64, error) {
	if m == nil || len(m.segments) == 0 {
		return 0, ErrEmptyTempoMap
	}
	// Last segment whose start is at or before tick.
	idx := sort.Search(len(m.segments), func(i int) bool {
		return m.segments[i].startTick > tick
	}) - 1
	if idx < 0 {
		idx = 0
	}
	seg := m.segments[idx]
	return int64(seg.startMicros + float64(tick-seg.startTick)*seg.microsPerTick), nil
}

// DurationMicros returns the wall-clock span between two tick positions.
func (m *TempoMap) DurationMicros(startTick, endTick uint64) (int64, error) {
	if endTick < startTick {
		return 0, fmt.Errorf("end tick %d precedes start tick %d", endTick, startTick)
	}
	start, err := m.MicrosAt(startTick)
	if err != nil {
		return 0, err
	}
	end, err := m.MicrosAt(endTick)
	if err != nil {
		return 0, err
	}
	return end - start, nil
}
