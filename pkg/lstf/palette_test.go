package lstf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPaletteDefaults(t *testing.T) {
	p := NewPalette()

	off, err := p.Slot(0)
	require.NoError(t, err)
	require.Equal(t, RGB{}, off, "slot 0 is off/black")

	white, err := p.Slot(1)
	require.NoError(t, err)
	require.Equal(t, RGB{0xFF, 0xFF, 0xFF}, white)

	red, err := p.Slot(4)
	require.NoError(t, err)
	require.Equal(t, RGB{0xFF, 0x00, 0x00}, red)
}

func TestPaletteResolve(t *testing.T) {
	p := NewPalette()

	rgb, err := p.Resolve(LiteralColour(1, 2, 3))
	require.NoError(t, err)
	require.Equal(t, RGB{1, 2, 3}, rgb)

	rgb, err = p.Resolve(PaletteRef(14))
	require.NoError(t, err)
	require.Equal(t, RGB{0x00, 0xFF, 0x00}, rgb)

	_, err = p.Resolve(PaletteRef(32))
	require.ErrorIs(t, err, ErrPaletteIndexOutOfRange)
}

func TestPaletteOverrideLastWins(t *testing.T) {
	// Two overrides of the same slot: applying them in arrival order must
	// leave the second one in place.
	first, err := EncodePaletteOverride([]PaletteEntry{{Index: 4, Colour: RGB{0xFF, 0, 0}}})
	require.NoError(t, err)
	second, err := EncodePaletteOverride([]PaletteEntry{{Index: 4, Colour: RGB{0, 0, 0xFF}}})
	require.NoError(t, err)

	p := NewPalette()
	for _, payload := range [][]byte{first, second} {
		entries, warnings, err := decodePaletteOverride(payload)
		require.NoError(t, err)
		require.Empty(t, warnings)
		for _, e := range entries {
			require.NoError(t, p.Set(e.Index, e.Colour))
		}
	}

	rgb, err := p.Resolve(PaletteRef(4))
	require.NoError(t, err)
	require.Equal(t, RGB{0, 0, 0xFF}, rgb)
}

func TestPaletteOverrideOutOfRangeEntrySkipped(t *testing.T) {
	payload := []byte{2,
		40, 1, 2, 3, // slot 40 does not exist
		5, 9, 9, 9,
	}
	entries, warnings, err := decodePaletteOverride(payload)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, uint8(5), entries[0].Index)
	require.Len(t, warnings, 1)
	require.Equal(t, WarnPaletteOverrideIgnored, warnings[0].Code)
}

func TestPaletteOverrideTruncated(t *testing.T) {
	_, _, err := decodePaletteOverride([]byte{1, 4, 0xFF})
	require.ErrorIs(t, err, ErrTruncatedChunk)
}

func TestPaletteOverrideRoundTrip(t *testing.T) {
	entries := []PaletteEntry{
		{Index: 0, Colour: RGB{1, 2, 3}},
		{Index: 31, Colour: RGB{0xFF, 0xEE, 0xDD}},
	}
	payload, err := EncodePaletteOverride(entries)
	require.NoError(t, err)

	decoded, warnings, err := decodePaletteOverride(payload)
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Equal(t, entries, decoded)
}
