package lstf

import "errors"

// Structural errors abort the decode of the chunk (or the whole container)
// that produced them. Semantic, recoverable conditions are reported as
// Warning values on the Container instead; nothing is silently absorbed.
var (
	// ErrBadMagic indicates the HEAD chunk does not start with the LSTF magic value.
	ErrBadMagic = errors.New("lstf: invalid magic value")

	// ErrBadVersion indicates an unsupported container format version.
	ErrBadVersion = errors.New("lstf: unsupported format version")

	// ErrMissingHeader indicates event chunks arrived before a valid HEAD chunk.
	ErrMissingHeader = errors.New("lstf: missing HEAD chunk")

	// ErrDuplicateHeader indicates a second HEAD chunk in the same container.
	ErrDuplicateHeader = errors.New("lstf: duplicate HEAD chunk")

	// ErrTruncatedChunk indicates a chunk length prefix exceeds the remaining data.
	ErrTruncatedChunk = errors.New("lstf: truncated chunk")

	// ErrMalformedVarint indicates a variable-length integer that does not
	// terminate within the 32-bit safety bound, or runs off the payload.
	ErrMalformedVarint = errors.New("lstf: malformed variable-length integer")

	// ErrUnknownOpcode indicates an unrecognized opcode inside the defined
	// 0x10-0x22 space. The payload length is ambiguous, so the chunk cannot
	// be skipped safely.
	ErrUnknownOpcode = errors.New("lstf: unknown opcode")

	// ErrPaletteIndexOutOfRange indicates a palette reference outside [0,31].
	ErrPaletteIndexOutOfRange = errors.New("lstf: palette index out of range")

	// ErrEmptyTempoMap indicates a tempo query against a map with no segments.
	ErrEmptyTempoMap = errors.New("lstf: tempo map has no segments")
)

// WarningCode classifies a non-fatal condition raised during decode or
// resolution.
type WarningCode string

const (
	// WarnReservedOpcodeSkipped reports a vendor-space opcode (0x30-0x3F)
	// recorded as raw bytes and skipped.
	WarnReservedOpcodeSkipped WarningCode = "reserved_opcode_skipped"

	// WarnDanglingSnapshotReference reports a KeyframeState event whose
	// state_id matched no STAT snapshot; the engine fell back to replay.
	WarnDanglingSnapshotReference WarningCode = "dangling_snapshot_reference"

	// WarnPaletteIndexSubstituted reports an out-of-range palette reference
	// replaced by slot 0 under lenient resolution.
	WarnPaletteIndexSubstituted WarningCode = "palette_index_substituted"

	// WarnPaletteOverrideIgnored reports a PAL0 entry targeting a slot
	// outside the 32-entry table.
	WarnPaletteOverrideIgnored WarningCode = "palette_override_ignored"

	// WarnTempoValueIgnored reports a non-positive tempo or timebase change
	// that was dropped from the tempo map.
	WarnTempoValueIgnored WarningCode = "tempo_value_ignored"

	// WarnUnknownChunkRetained reports an unrecognized chunk tag kept as an
	// opaque chunk for round-trip fidelity.
	WarnUnknownChunkRetained WarningCode = "unknown_chunk_retained"
)

// Warning is a non-fatal diagnostic surfaced alongside best-effort results.
type Warning struct {
	Code    WarningCode // Classification of the condition
	Chunk   string      // Tag of the chunk that produced it, if any
	Message string      // Human-readable detail
}

func (w Warning) String() string {
	if w.Chunk == "" {
		return string(w.Code) + ": " + w.Message
	}
	return string(w.Code) + " (" + w.Chunk + "): " + w.Message
}
