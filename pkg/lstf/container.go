package lstf

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Option configures decoding behaviour.
type Option func(*Container)

// WithLogger attaches a structured logger; decode diagnostics go to Debug,
// recoverable conditions to Warn. The default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Container) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithLenientPalette makes out-of-range palette references resolve to slot 0
// with a warning instead of failing the query.
func WithLenientPalette() Option {
	return func(c *Container) { c.lenientPalette = true }
}

// Container is the decoded form of an LSTF stream: the header, the derived
// tables, the per-channel event tracks, and every chunk as received (so the
// container can be re-encoded byte for byte, unknown tags included).
//
// In streaming mode tracks grow monotonically through Apply; events are only
// appended, never revised. Every applied chunk bumps Revision so callers can
// key query caches to container content.
type Container struct {
	mu sync.RWMutex

	header    *Header
	revision  uuid.UUID
	chunks    []Chunk // every chunk in arrival order, raw
	warnings  []Warning

	tempoEvents []TempoEvent
	tempoMap    *TempoMap
	palette     *Palette

	padTracks   [NumPads][]PadEvent
	groupEvents []GroupEvent
	audioEvents []AudioEvent
	samples     map[uint16]SampleMeta
	snapshots   []Snapshot
	snapStore   *SnapshotStore
	meta        []MetaEntry

	// Streaming cursors: delta accumulation and track-local decode state
	// continue across chunk boundaries.
	padState    [NumPads]padDecodeState
	groupState  padDecodeState
	audioState  audioDecodeState
	tempoTick   uint64
	tempoWarned int

	logger         *zap.Logger
	lenientPalette bool
}

// newContainer builds an empty container ready for Apply.
func newContainer(opts ...Option) *Container {
	c := &Container{
		palette:  NewPalette(),
		samples:  make(map[uint16]SampleMeta),
		revision: uuid.New(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Decode parses a complete binary container. The first chunk must be a valid
// HEAD chunk; structural errors abort the decode.
func Decode(data []byte, opts ...Option) (*Container, error) {
	chunks, err := ParseChunks(data)
	if err != nil {
		return nil, err
	}
	c := newContainer(opts...)
	for _, chunk := range chunks {
		if err := c.Apply(chunk); err != nil {
			return nil, err
		}
	}
	if c.header == nil {
		return nil, ErrMissingHeader
	}
	return c, nil
}

// DecodeStream begins an incremental decode session. Feed bytes to the
// returned StreamReader and Apply the complete chunks it yields.
func DecodeStream(opts ...Option) (*Container, *StreamReader) {
	return newContainer(opts...), NewStreamReader()
}

// Apply folds one chunk into the container. The HEAD chunk must arrive
// first; later chunks of override-type semantics win over earlier ones.
// Unknown tags are retained opaque and skipped by semantic consumers.
func (c *Container) Apply(chunk Chunk) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.header == nil && chunk.Tag != TagHead {
		return fmt.Errorf("%w: %q chunk arrived before HEAD", ErrMissingHeader, chunk.Tag)
	}

	switch chunk.Tag {
	case TagHead:
		if c.header != nil {
			return ErrDuplicateHeader
		}
		header, err := parseHeader(chunk.Payload)
		if err != nil {
			return err
		}
		c.header = &header
		c.rebuildTempoMap()

	case TagTempo:
		events, err := decodeTempoEvents(chunk.Payload, &c.tempoTick)
		if err != nil {
			return err
		}
		c.tempoEvents = append(c.tempoEvents, events...)
		c.rebuildTempoMap()

	case TagPad0, TagPad1, TagPad2:
		pad := Pad(chunk.Tag[3] - '0')
		events, warnings, err := decodePadEvents(chunk.Payload, &c.padState[pad], chunk.Tag)
		if err != nil {
			return err
		}
		c.padTracks[pad] = append(c.padTracks[pad], events...)
		c.noteWarnings(warnings)

	case TagGroup:
		events, warnings, err := decodeGroupEvents(chunk.Payload, &c.groupState)
		if err != nil {
			return err
		}
		c.groupEvents = append(c.groupEvents, events...)
		c.noteWarnings(warnings)

	case TagAudio:
		events, warnings, err := decodeAudioEvents(chunk.Payload, &c.audioState)
		if err != nil {
			return err
		}
		c.audioEvents = append(c.audioEvents, events...)
		c.noteWarnings(warnings)

	case TagSamples:
		entries, err := decodeSampleTable(chunk.Payload)
		if err != nil {
			return err
		}
		for _, meta := range entries {
			if _, dup := c.samples[meta.SampleID]; dup {
				c.logger.Debug("replacing duplicate sample entry", zap.Uint16("sample_id", meta.SampleID))
			}
			c.samples[meta.SampleID] = meta
		}

	case TagState:
		snap, err := decodeSnapshot(chunk.Payload)
		if err != nil {
			return err
		}
		c.snapshots = append(c.snapshots, snap)
		c.snapStore = newSnapshotStore(c.snapshots)

	case TagPalette:
		entries, warnings, err := decodePaletteOverride(chunk.Payload)
		if err != nil {
			return err
		}
		for _, e := range entries {
			// Bounds already checked during decode; Set cannot fail here.
			_ = c.palette.Set(e.Index, e.Colour)
		}
		c.noteWarnings(warnings)

	case TagMeta:
		entries, err := decodeMeta(chunk.Payload)
		if err != nil {
			return err
		}
		c.meta = append(c.meta, entries...)

	default:
		c.noteWarnings([]Warning{{
			Code:    WarnUnknownChunkRetained,
			Chunk:   chunk.Tag,
			Message: fmt.Sprintf("%d payload bytes kept opaque", len(chunk.Payload)),
		}})
	}

	c.chunks = append(c.chunks, chunk)
	c.revision = uuid.New()
	return nil
}

// noteWarnings records and logs non-fatal conditions. Callers hold the lock.
func (c *Container) noteWarnings(warnings []Warning) {
	for _, w := range warnings {
		c.logger.Warn("decode warning",
			zap.String("code", string(w.Code)),
			zap.String("chunk", w.Chunk),
			zap.String("detail", w.Message))
	}
	c.warnings = append(c.warnings, warnings...)
}

// rebuildTempoMap re-derives the tick→time map from the header seed plus all
// tempo events seen so far. Each rebuild folds every accumulated event, so
// only warnings beyond the count already recorded are noted. Callers hold
// the lock.
func (c *Container) rebuildTempoMap() {
	if c.header == nil {
		return
	}
	m, warnings := buildTempoMap(*c.header, c.tempoEvents)
	c.tempoMap = m
	if len(warnings) > c.tempoWarned {
		c.noteWarnings(warnings[c.tempoWarned:])
		c.tempoWarned = len(warnings)
	}
}

// Header returns the decoded HEAD chunk.
func (c *Container) Header() Header {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.header == nil {
		return Header{}
	}
	return *c.header
}

// Revision identifies the container's current contents. It changes whenever
// a chunk is applied, so cached query results can be invalidated.
func (c *Container) Revision() uuid.UUID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.revision
}

// Warnings returns every non-fatal condition recorded so far.
func (c *Container) Warnings() []Warning {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Warning, len(c.warnings))
	copy(out, c.warnings)
	return out
}

// Chunks returns every chunk in arrival order, including opaque ones.
func (c *Container) Chunks() []Chunk {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Chunk, len(c.chunks))
	copy(out, c.chunks)
	return out
}

// PadTrack returns the decoded events for one pad.
func (c *Container) PadTrack(p Pad) []PadEvent {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if p < 0 || p >= NumPads {
		return nil
	}
	out := make([]PadEvent, len(c.padTracks[p]))
	copy(out, c.padTracks[p])
	return out
}

// GroupTrack returns the decoded group events.
func (c *Container) GroupTrack() []GroupEvent {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]GroupEvent, len(c.groupEvents))
	copy(out, c.groupEvents)
	return out
}

// AudioTrack returns the decoded audio events.
func (c *Container) AudioTrack() []AudioEvent {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]AudioEvent, len(c.audioEvents))
	copy(out, c.audioEvents)
	return out
}

// Sample looks up SAMP metadata by id.
func (c *Container) Sample(id uint16) (SampleMeta, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	meta, ok := c.samples[id]
	return meta, ok
}

// Samples returns the full sample table keyed by id.
func (c *Container) Samples() map[uint16]SampleMeta {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[uint16]SampleMeta, len(c.samples))
	for id, meta := range c.samples {
		out[id] = meta
	}
	return out
}

// Meta returns META annotations in arrival order.
func (c *Container) Meta() []MetaEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]MetaEntry, len(c.meta))
	copy(out, c.meta)
	return out
}

// TempoMap returns the current tick→time converter.
func (c *Container) TempoMap() *TempoMap {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tempoMap
}

// Palette returns the active colour table (defaults plus overrides so far).
func (c *Container) Palette() *Palette {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.palette
}

// Snapshots returns the snapshot store, or nil when no STAT chunks arrived.
func (c *Container) Snapshots() *SnapshotStore {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapStore
}

// Encode re-emits the container as wire bytes: every chunk in arrival order,
// opaque chunks included, so decode→encode round-trips exactly.
func (c *Container) Encode() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return EncodeChunks(c.chunks)
}
