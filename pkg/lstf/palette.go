package lstf

import "fmt"

// PaletteSize is the fixed number of palette slots.
const PaletteSize = 32

// defaultPalette is the built-in 32-entry table every container starts from.
// Slot 0 is "off"; slots 4..31 sweep the hue wheel. PAL0 chunks overwrite
// slots index-by-index.
var defaultPalette = [PaletteSize]RGB{
	{0x00, 0x00, 0x00},
	{0xFF, 0xFF, 0xFF},
	{0xFF, 0xD8, 0xB0},
	{0xD6, 0xF0, 0xFF},
	{0xFF, 0x00, 0x00},
	{0xFF, 0x33, 0x00},
	{0xFF, 0x66, 0x00},
	{0xFF, 0x99, 0x00},
	{0xFF, 0xCC, 0x00},
	{0xFF, 0xFF, 0x00},
	{0xCC, 0xFF, 0x00},
	{0x99, 0xFF, 0x00},
	{0x66, 0xFF, 0x00},
	{0x33, 0xFF, 0x00},
	{0x00, 0xFF, 0x00},
	{0x00, 0xFF, 0x66},
	{0x00, 0xFF, 0xCC},
	{0x00, 0xFF, 0xFF},
	{0x00, 0xCC, 0xFF},
	{0x00, 0x99, 0xFF},
	{0x00, 0x66, 0xFF},
	{0x00, 0x33, 0xFF},
	{0x00, 0x00, 0xFF},
	{0x33, 0x00, 0xFF},
	{0x66, 0x00, 0xFF},
	{0x99, 0x00, 0xFF},
	{0xCC, 0x00, 0xFF},
	{0xFF, 0x00, 0xFF},
	{0xFF, 0x00, 0x99},
	{0xFF, 0x00, 0x66},
	{0xFF, 0x00, 0x33},
	{0xFF, 0x19, 0x19},
}

// Palette is the active 32-slot colour table: the built-in defaults plus any
// PAL0 overrides applied in chunk-arrival order, last write wins per slot.
type Palette struct {
	slots [PaletteSize]RGB
}

// NewPalette returns a palette holding the built-in default table.
func NewPalette() *Palette {
	p := &Palette{}
	p.slots = defaultPalette
	return p
}

// Slot returns the colour stored at index (bounds-checked).
func (p *Palette) Slot(index uint8) (RGB, error) {
	if index >= PaletteSize {
		return RGB{}, fmt.Errorf("%w: %d", ErrPaletteIndexOutOfRange, index)
	}
	return p.slots[index], nil
}

// Set overwrites one slot. Out-of-range indexes are rejected.
func (p *Palette) Set(index uint8, colour RGB) error {
	if index >= PaletteSize {
		return fmt.Errorf("%w: %d", ErrPaletteIndexOutOfRange, index)
	}
	p.slots[index] = colour
	return nil
}

// Resolve turns a ColourSpec into a concrete RGB triplet. Literals pass
// through unchanged; references are bounds-checked against the table.
func (p *Palette) Resolve(spec ColourSpec) (RGB, error) {
	if spec.Literal {
		return spec.Value, nil
	}
	return p.Slot(spec.Index)
}

// PaletteEntry is one slot override from a PAL0 chunk.
type PaletteEntry struct {
	Index  uint8
	Colour RGB
}

// decodePaletteOverride parses a PAL0 payload: u8 count, then count entries
// of (index, r, g, b). Entries targeting slots outside the table are skipped
// with a warning rather than failing the chunk.
func decodePaletteOverride(payload []byte) ([]PaletteEntry, []Warning, error) {
	if len(payload) == 0 {
		return nil, nil, nil
	}
	count := int(payload[0])
	offset := 1
	entries := make([]PaletteEntry, 0, count)
	var warnings []Warning
	for i := 0; i < count; i++ {
		if offset+4 > len(payload) {
			return nil, warnings, fmt.Errorf("%w: incomplete palette override entry %d", ErrTruncatedChunk, i)
		}
		entry := PaletteEntry{
			Index:  payload[offset],
			Colour: RGB{R: payload[offset+1], G: payload[offset+2], B: payload[offset+3]},
		}
		offset += 4
		if entry.Index >= PaletteSize {
			warnings = append(warnings, Warning{
				Code:    WarnPaletteOverrideIgnored,
				Chunk:   TagPalette,
				Message: fmt.Sprintf("entry %d targets slot %d (table has %d)", i, entry.Index, PaletteSize),
			})
			continue
		}
		entries = append(entries, entry)
	}
	return entries, warnings, nil
}

// EncodePaletteOverride builds a PAL0 payload from entries, in order.
func EncodePaletteOverride(entries []PaletteEntry) ([]byte, error) {
	if len(entries) > 0xFF {
		return nil, fmt.Errorf("palette override holds at most 255 entries, got %d", len(entries))
	}
	payload := make([]byte, 0, 1+4*len(entries))
	payload = append(payload, byte(len(entries)))
	for _, e := range entries {
		payload = append(payload, e.Index, e.Colour.R, e.Colour.G, e.Colour.B)
	}
	return payload, nil
}
