package lstf

import "fmt"

// Pad identifies one of the three physical lighting zones.
type Pad int

const (
	PadCentre Pad = 0
	PadLeft   Pad = 1
	PadRight  Pad = 2

	// NumPads is the number of independently addressable pads.
	NumPads = 3
)

// String returns the conventional name of the pad.
func (p Pad) String() string {
	switch p {
	case PadCentre:
		return "centre"
	case PadLeft:
		return "left"
	case PadRight:
		return "right"
	default:
		return fmt.Sprintf("pad(%d)", int(p))
	}
}

// Opcode identifies an event kind inside a track payload.
//
// 0x10-0x22 is the defined space: unknown values there are a hard error
// because their payload length is ambiguous. 0x30-0x3F is vendor space,
// self-delimited by a length byte and recorded opaque.
type Opcode uint8

const (
	OpSwitchColour         Opcode = 0x10
	OpFadeToColour         Opcode = 0x11
	OpFlashColour          Opcode = 0x12
	OpBlackout             Opcode = 0x13
	OpSetDefaultTransition Opcode = 0x14
	OpKeyframeState        Opcode = 0x1F

	OpPlaySample Opcode = 0x20
	OpStopSample Opcode = 0x21
	OpSetGain    Opcode = 0x22

	// Tempo track opcodes live in their own space.
	opSetTempo    Opcode = 0x01
	opSetTimebase Opcode = 0x02

	vendorOpcodeLow  Opcode = 0x30
	vendorOpcodeHigh Opcode = 0x3F
)

// isVendor reports whether the opcode sits in the reserved vendor space.
func (op Opcode) isVendor() bool {
	return op >= vendorOpcodeLow && op <= vendorOpcodeHigh
}

// isCommand reports whether the opcode starts a hardware command (as opposed
// to decode-time state, keyframe markers or vendor extensions).
func (op Opcode) isCommand() bool {
	switch op {
	case OpSwitchColour, OpFadeToColour, OpFlashColour, OpBlackout:
		return true
	}
	return false
}

// String returns the mnemonic name of the opcode.
func (op Opcode) String() string {
	switch op {
	case OpSwitchColour:
		return "SwitchColour"
	case OpFadeToColour:
		return "FadeToColour"
	case OpFlashColour:
		return "FlashColour"
	case OpBlackout:
		return "Blackout"
	case OpSetDefaultTransition:
		return "SetDefaultTransition"
	case OpKeyframeState:
		return "KeyframeState"
	case OpPlaySample:
		return "PlaySample"
	case OpStopSample:
		return "StopSample"
	case OpSetGain:
		return "SetGain"
	}
	if op.isVendor() {
		return fmt.Sprintf("Vendor(%#02x)", uint8(op))
	}
	return fmt.Sprintf("Opcode(%#02x)", uint8(op))
}

// RGB is a concrete colour triplet.
type RGB struct {
	R, G, B uint8
}

// String formats the colour as a hex triplet.
func (c RGB) String() string { return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B) }

// ColourSpec is a tagged colour value: either a palette reference or a
// literal triplet. References stay unresolved until query time so palette
// overrides observed between decode and query are honoured.
type ColourSpec struct {
	Literal bool
	Index   uint8 // palette slot when !Literal, must be in [0,31]
	Value   RGB   // concrete colour when Literal
}

// PaletteRef builds a ColourSpec referencing a palette slot.
func PaletteRef(index uint8) ColourSpec { return ColourSpec{Index: index} }

// LiteralColour builds a ColourSpec carrying a concrete triplet.
func LiteralColour(r, g, b uint8) ColourSpec {
	return ColourSpec{Literal: true, Value: RGB{R: r, G: g, B: b}}
}

// String formats the spec for diagnostics.
func (s ColourSpec) String() string {
	if s.Literal {
		return s.Value.String()
	}
	return fmt.Sprintf("palette[%d]", s.Index)
}

// TransitionDefault is the sentinel transition_ticks value meaning "use the
// track's currently-set default transition". It is resolved at decode time,
// so events reaching the resolution engine always carry concrete ticks.
const TransitionDefault = 0xFFFF

// PadEvent is one decoded event on an individual pad track. Tick is the
// absolute start position derived from accumulated deltas. Which parameter
// fields are meaningful depends on Op; the rest are zero.
type PadEvent struct {
	Tick uint64
	Op   Opcode

	TransitionTicks uint16     // SwitchColour, Blackout (sentinel already resolved)
	RampTicks       uint16     // FadeToColour
	OnTicks         uint16     // FlashColour
	OffTicks        uint16     // FlashColour
	Pulses          uint8      // FadeToColour, FlashColour
	Colour          ColourSpec // SwitchColour, FadeToColour, FlashColour
	HoldTicks       uint16     // all command opcodes
	StateID         uint8      // KeyframeState
	DefaultTicks    uint16     // SetDefaultTransition
	Raw             []byte     // vendor opcodes: recorded payload, uninterpreted
}

// GroupEvent is one decoded event on a group track. It addresses up to three
// pads at once; disabled slots leave the corresponding pad's independent
// state untouched.
type GroupEvent struct {
	Tick uint64
	Op   Opcode

	Mask    uint8               // bit 0 = centre, bit 1 = left, bit 2 = right
	Colours [NumPads]ColourSpec // meaningful where the mask bit is set

	TransitionTicks uint16
	RampTicks       uint16
	OnTicks         uint16
	OffTicks        uint16
	Pulses          uint8
	HoldTicks       uint16
	StateID         uint8
	DefaultTicks    uint16
	Raw             []byte
}

// Covers reports whether the event addresses the given pad.
func (g GroupEvent) Covers(p Pad) bool {
	return p >= 0 && p < NumPads && g.Mask&(1<<uint(p)) != 0
}

// AudioEvent is one decoded event on the audio track. Tick is the absolute
// start offset of the trigger.
type AudioEvent struct {
	Tick uint64
	Op   Opcode

	SampleID     uint16 // PlaySample, StopSample
	FadeInTicks  uint16 // PlaySample
	FadeOutTicks uint16 // PlaySample, StopSample
	Gain         uint8  // SetGain (255 = unity)
	Raw          []byte // vendor opcodes
}

// TempoEvent is one decoded TEMP track entry.
type TempoEvent struct {
	Tick          uint64
	Op            Opcode // opSetTempo or opSetTimebase
	MicrosPerBeat uint32 // SetTempo
	TicksPerBeat  uint16 // SetTimebase
}

// SetTempoAt builds a tempo change event.
func SetTempoAt(tick uint64, microsPerBeat uint32) TempoEvent {
	return TempoEvent{Tick: tick, Op: opSetTempo, MicrosPerBeat: microsPerBeat}
}

// SetTimebaseAt builds a time-base change event.
func SetTimebaseAt(tick uint64, ticksPerBeat uint16) TempoEvent {
	return TempoEvent{Tick: tick, Op: opSetTimebase, TicksPerBeat: ticksPerBeat}
}
