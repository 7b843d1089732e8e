package lstf

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Primitive is the abstract hardware command family a channel is executing.
type Primitive uint8

const (
	PrimitiveNone Primitive = iota
	PrimitiveSwitch
	PrimitiveFade
	PrimitiveFlash
)

// String returns the primitive's name.
func (p Primitive) String() string {
	switch p {
	case PrimitiveNone:
		return "none"
	case PrimitiveSwitch:
		return "switch"
	case PrimitiveFade:
		return "fade"
	case PrimitiveFlash:
		return "flash"
	default:
		return fmt.Sprintf("primitive(%d)", uint8(p))
	}
}

// Phase describes where inside the governing event a query tick landed.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseTransition
	PhaseExecuting
	PhaseHold
)

// String returns the phase's name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseTransition:
		return "transition"
	case PhaseExecuting:
		return "executing"
	case PhaseHold:
		return "hold"
	default:
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
}

// Command is the resolved per-channel descriptor handed to an external
// transport. Timing fields are in device units, already clamped to the
// hardware's legal byte range; this package never produces wire bytes.
type Command struct {
	Primitive  Primitive
	Phase      Phase
	Colour     RGB
	PulseTime  uint8 // fade: ramp per pulse; transition: remaining ramp
	PulseCount uint8
	OnLength   uint8 // flash on period
	OffLength  uint8 // flash off period
	Hold       uint8 // post-execution dwell, clamped (law: never an error)
}

// DeviceProfile describes how wall-clock time maps onto the device's byte
// range timing units.
type DeviceProfile struct {
	UnitMicros int64 // wall-clock length of one device unit
	MaxUnit    uint8 // largest representable unit value
}

// DefaultDeviceProfile matches the reference hardware: one unit is roughly
// 10 ms, values clamp into [0,255].
var DefaultDeviceProfile = DeviceProfile{UnitMicros: 10_000, MaxUnit: 255}

// Units converts a wall-clock span to device units, clamped to [0, MaxUnit].
// Spans beyond the representable range clamp to the maximum; the remainder
// is extra dwell time, never an error.
func (p DeviceProfile) Units(micros int64) uint8 {
	if micros <= 0 {
		return 0
	}
	scaled := int64(math.Round(float64(micros) / float64(p.UnitMicros)))
	if scaled > int64(p.MaxUnit) {
		return p.MaxUnit
	}
	return uint8(scaled)
}

// ExecUnits is Units with a floor of 1, for fields where the hardware
// treats zero as invalid (active pulse timings).
func (p DeviceProfile) ExecUnits(micros int64) uint8 {
	u := p.Units(micros)
	if u == 0 {
		return 1
	}
	return u
}

// AudioState is the resolved audio-channel descriptor: scheduling metadata
// for an external audio engine, never decoded samples.
type AudioState struct {
	Active        bool
	SampleID      uint16
	StartTick     uint64
	PositionTicks uint64
	FadeInTicks   uint16
	FadeOutTicks  uint16
	Gain          uint8 // 255 = unity
	Meta          *SampleMeta
}

// cmdRef points into either a pad track or the group track, pre-merged per
// pad so queries binary-search one slice.
type cmdRef struct {
	tick  uint64
	group bool
	index int
}

// audioRef is one play trigger with its pre-computed stop tick.
type audioRef struct {
	eventIndex int
	stopTick   uint64 // tick of the matching StopSample, 0 = never stopped
	stopped    bool
}

// EngineOption configures a resolution engine.
type EngineOption func(*Engine)

// WithDeviceProfile overrides the tick→device-unit conversion profile.
func WithDeviceProfile(profile DeviceProfile) EngineOption {
	return func(e *Engine) { e.profile = profile }
}

// Engine answers state queries against one revision of a container. It
// captures immutable views at construction, so concurrent queries need no
// locking; build a new Engine after applying more chunks in streaming mode.
type Engine struct {
	revision uuid.UUID
	tempo    *TempoMap
	palette  *Palette
	snaps    *SnapshotStore
	profile  DeviceProfile
	lenient  bool
	logger   *zap.Logger

	pads    [NumPads][]PadEvent
	groups  []GroupEvent
	audio   []AudioEvent
	samples map[uint16]SampleMeta

	merged    [NumPads][]cmdRef
	keyframes [NumPads][]PadEvent // OpKeyframeState events, tick order
	plays     []audioRef
	gainAfter []uint8 // master gain in effect after audio event i
}

// NewEngine builds an engine over the container's current contents.
func NewEngine(c *Container, opts ...EngineOption) *Engine {
	c.mu.RLock()
	palette := *c.palette // value copy: later PAL0 chunks belong to a later revision
	samples := make(map[uint16]SampleMeta, len(c.samples))
	for id, meta := range c.samples {
		samples[id] = meta
	}
	e := &Engine{
		revision: c.revision,
		tempo:    c.tempoMap,
		palette:  &palette,
		snaps:    c.snapStore,
		profile:  DefaultDeviceProfile,
		lenient:  c.lenientPalette,
		logger:   c.logger,
		groups:   c.groupEvents,
		audio:    c.audioEvents,
		samples:  samples,
	}
	for p := Pad(0); p < NumPads; p++ {
		e.pads[p] = c.padTracks[p]
	}
	c.mu.RUnlock()

	for _, opt := range opts {
		opt(e)
	}

	for p := Pad(0); p < NumPads; p++ {
		e.merged[p] = mergeCommandRefs(e.pads[p], e.groups, p)
		for _, ev := range e.pads[p] {
			if ev.Op == OpKeyframeState {
				e.keyframes[p] = append(e.keyframes[p], ev)
			}
		}
	}
	e.indexAudio()
	return e
}

// Revision identifies the container contents this engine was built from.
func (e *Engine) Revision() uuid.UUID { return e.revision }

// mergeCommandRefs interleaves a pad's own command events with the group
// commands covering it, ordered by tick. At equal ticks the pad entry sorts
// first, so the group entry is "later" and wins the tie, per the
// most-recently-started-group-wins rule.
func mergeCommandRefs(pad []PadEvent, groups []GroupEvent, p Pad) []cmdRef {
	refs := make([]cmdRef, 0, len(pad)+len(groups))
	gi := 0
	appendGroupsThrough := func(tick uint64, inclusive bool) {
		for gi < len(groups) {
			g := groups[gi]
			if g.Tick > tick || (!inclusive && g.Tick == tick) {
				return
			}
			if g.Op.isCommand() && g.Covers(p) {
				refs = append(refs, cmdRef{tick: g.Tick, group: true, index: gi})
			}
			gi++
		}
	}
	for i, ev := range pad {
		if !ev.Op.isCommand() {
			continue
		}
		appendGroupsThrough(ev.Tick, false)
		refs = append(refs, cmdRef{tick: ev.Tick, index: i})
	}
	appendGroupsThrough(math.MaxUint64, true)
	return refs
}

// effective is the unified view of a winning command, pad or group.
type effective struct {
	tick       uint64
	op         Opcode
	transition uint16
	ramp       uint16
	on, off    uint16
	pulses     uint8
	colour     ColourSpec
	hold       uint16
}

func (e *Engine) effectiveOf(ref cmdRef, p Pad) effective {
	if ref.group {
		g := e.groups[ref.index]
		return effective{
			tick:       g.Tick,
			op:         g.Op,
			transition: g.TransitionTicks,
			ramp:       g.RampTicks,
			on:         g.OnTicks,
			off:        g.OffTicks,
			pulses:     g.Pulses,
			colour:     g.Colours[p],
			hold:       g.HoldTicks,
		}
	}
	ev := e.pads[p][ref.index]
	return effective{
		tick:       ev.Tick,
		op:         ev.Op,
		transition: ev.TransitionTicks,
		ramp:       ev.RampTicks,
		on:         ev.OnTicks,
		off:        ev.OffTicks,
		pulses:     ev.Pulses,
		colour:     ev.Colour,
		hold:       ev.HoldTicks,
	}
}

// targetColour resolves the steady-state colour a command settles on.
func (e *Engine) targetColour(eff effective) (RGB, error) {
	if eff.op == OpBlackout {
		return RGB{}, nil
	}
	return e.resolveColour(eff.colour)
}

// resolveColour applies palette indirection, honouring lenient mode.
func (e *Engine) resolveColour(spec ColourSpec) (RGB, error) {
	rgb, err := e.palette.Resolve(spec)
	if err == nil {
		return rgb, nil
	}
	if e.lenient {
		e.logger.Warn("palette reference out of range, substituting slot 0",
			zap.Uint8("index", spec.Index))
		fallback, _ := e.palette.Slot(0)
		return fallback, nil
	}
	return RGB{}, err
}

// PadStateAt resolves the effective command for one pad at an absolute tick.
//
// The governing event is the one with the latest start tick <= t across the
// pad's own track and group events covering the pad; ties go to the group
// event. Within it, the phase (transition, executing, hold, idle) decides
// the descriptor. With no governing event the pad is at its default: off.
func (e *Engine) PadStateAt(p Pad, tick uint64) (Command, error) {
	if p < 0 || p >= NumPads {
		return Command{}, fmt.Errorf("pad index %d out of range", int(p))
	}
	refs := e.merged[p]
	idx := sort.Search(len(refs), func(i int) bool { return refs[i].tick > tick }) - 1
	if idx < 0 {
		off, _ := e.palette.Slot(0)
		return Command{Primitive: PrimitiveNone, Phase: PhaseIdle, Colour: off}, nil
	}
	prior, err := e.priorColour(p, refs, idx)
	if err != nil {
		return Command{}, err
	}
	return e.describe(p, e.effectiveOf(refs[idx], p), tick, prior)
}

// priorColour is the steady-state colour the pad held before the winning
// event began: the target of the last command starting strictly earlier.
func (e *Engine) priorColour(p Pad, refs []cmdRef, winner int) (RGB, error) {
	winnerTick := refs[winner].tick
	for i := winner - 1; i >= 0; i-- {
		if refs[i].tick == winnerTick {
			// Superseded at the same tick; it never took effect.
			continue
		}
		return e.targetColour(e.effectiveOf(refs[i], p))
	}
	return RGB{}, nil
}

// describe computes the phase and descriptor for a governing event.
func (e *Engine) describe(p Pad, eff effective, tick uint64, prior RGB) (Command, error) {
	target, err := e.targetColour(eff)
	if err != nil {
		return Command{}, err
	}
	elapsed := tick - eff.tick
	pulses := eff.pulses
	if pulses == 0 {
		pulses = 1
	}

	var execSpan uint64 // ticks of active hardware effect after any transition
	switch eff.op {
	case OpFadeToColour:
		execSpan = uint64(eff.ramp) * uint64(pulses)
	case OpFlashColour:
		execSpan = (uint64(eff.on) + uint64(eff.off)) * uint64(pulses)
	}

	holdUnits, err := e.holdUnits(eff, execSpan)
	if err != nil {
		return Command{}, err
	}

	// Transition phase: switch/blackout ramping from the prior state.
	if (eff.op == OpSwitchColour || eff.op == OpBlackout) && eff.transition > 0 &&
		elapsed < uint64(eff.transition) {
		remaining, err := e.tempo.DurationMicros(tick, eff.tick+uint64(eff.transition))
		if err != nil {
			return Command{}, err
		}
		frac := float64(elapsed) / float64(eff.transition)
		return Command{
			Primitive:  PrimitiveFade,
			Phase:      PhaseTransition,
			Colour:     lerpRGB(prior, target, frac),
			PulseTime:  e.profile.ExecUnits(remaining),
			PulseCount: 1,
			Hold:       holdUnits,
		}, nil
	}

	// Executing phase: the pulse train is still running.
	if execSpan > 0 && elapsed < execSpan {
		switch eff.op {
		case OpFadeToColour:
			rampMicros, err := e.tempo.DurationMicros(eff.tick, eff.tick+uint64(eff.ramp))
			if err != nil {
				return Command{}, err
			}
			return Command{
				Primitive:  PrimitiveFade,
				Phase:      PhaseExecuting,
				Colour:     target,
				PulseTime:  e.profile.ExecUnits(rampMicros / int64(pulses)),
				PulseCount: pulses,
				Hold:       holdUnits,
			}, nil
		case OpFlashColour:
			onMicros, err := e.tempo.DurationMicros(eff.tick, eff.tick+uint64(eff.on))
			if err != nil {
				return Command{}, err
			}
			offMicros, err := e.tempo.DurationMicros(eff.tick, eff.tick+uint64(eff.off))
			if err != nil {
				return Command{}, err
			}
			return Command{
				Primitive:  PrimitiveFlash,
				Phase:      PhaseExecuting,
				Colour:     target,
				OnLength:   e.profile.ExecUnits(onMicros),
				OffLength:  e.profile.ExecUnits(offMicros),
				PulseCount: pulses,
				Hold:       holdUnits,
			}, nil
		}
	}

	// Hold, then idle: the resulting colour is sticky either way. There is
	// no implicit return to black.
	transitionSpan := uint64(0)
	if eff.op == OpSwitchColour || eff.op == OpBlackout {
		transitionSpan = uint64(eff.transition)
	}
	phase := PhaseIdle
	if elapsed < transitionSpan+execSpan+uint64(eff.hold) {
		phase = PhaseHold
	}
	return Command{
		Primitive: PrimitiveSwitch,
		Phase:     phase,
		Colour:    target,
		Hold:      holdUnits,
	}, nil
}

// holdUnits converts the post-execution dwell to device units. Durations
// past the representable range clamp to the maximum; tick accounting is
// unaffected.
func (e *Engine) holdUnits(eff effective, execSpan uint64) (uint8, error) {
	if eff.hold == 0 {
		return 0, nil
	}
	start := eff.tick + execSpan
	micros, err := e.tempo.DurationMicros(start, start+uint64(eff.hold))
	if err != nil {
		return 0, err
	}
	return e.profile.Units(micros), nil
}

// PadStateVia resolves like PadStateAt but replays from the nearest usable
// snapshot instead of seeking directly. A KeyframeState marker at or before
// the query tick selects its referenced snapshot; a dangling reference is
// reported and the engine falls back to the tick index, then to full
// replay. Results are identical to PadStateAt by construction; the method
// exists so callers (and tests) can exercise the snapshot path explicitly.
func (e *Engine) PadStateVia(p Pad, tick uint64) (Command, error) {
	if p < 0 || p >= NumPads {
		return Command{}, fmt.Errorf("pad index %d out of range", int(p))
	}
	snap := e.snapshotFor(p, tick)
	if snap == nil {
		return e.PadStateAt(p, tick)
	}

	refs := e.merged[p]
	idx := sort.Search(len(refs), func(i int) bool { return refs[i].tick > tick }) - 1
	if idx < 0 || refs[idx].tick <= snap.Tick {
		// No command started after the snapshot: the snapshot's event is
		// still governing, so the direct path answers with the same state.
		return e.PadStateAt(p, tick)
	}
	// The prior colour comes from the event stream, never the snapshot: a
	// snapshot captured mid-transition stores the blended colour, not the
	// settled state the next transition ramps from.
	prior, err := e.priorColour(p, refs, idx)
	if err != nil {
		return Command{}, err
	}
	return e.describe(p, e.effectiveOf(refs[idx], p), tick, prior)
}

// snapshotFor picks the snapshot to seek from: the one referenced by the
// latest KeyframeState marker at or before tick when it resolves, otherwise
// the nearest snapshot by tick.
func (e *Engine) snapshotFor(p Pad, tick uint64) *Snapshot {
	if e.snaps.Len() == 0 {
		return nil
	}
	kfs := e.keyframes[p]
	idx := sort.Search(len(kfs), func(i int) bool { return kfs[i].Tick > tick }) - 1
	if idx >= 0 {
		if snap := e.snaps.ByStateID(kfs[idx].StateID); snap != nil && snap.Tick <= tick {
			return snap
		}
		e.logger.Warn("dangling snapshot reference, falling back to replay",
			zap.Uint8("state_id", kfs[idx].StateID),
			zap.Uint64("tick", kfs[idx].Tick),
			zap.String("code", string(WarnDanglingSnapshotReference)))
	}
	return e.snaps.NearestAtOrBefore(tick)
}

// indexAudio precomputes stop ticks per play trigger and the running master
// gain, so audio queries are two binary searches.
func (e *Engine) indexAudio() {
	gain := uint8(255)
	openPlay := make(map[uint16]int) // sample id → index into e.plays
	e.gainAfter = make([]uint8, len(e.audio))
	for i, ev := range e.audio {
		switch ev.Op {
		case OpPlaySample:
			openPlay[ev.SampleID] = len(e.plays)
			e.plays = append(e.plays, audioRef{eventIndex: i})
		case OpStopSample:
			if pi, ok := openPlay[ev.SampleID]; ok {
				e.plays[pi].stopTick = ev.Tick
				e.plays[pi].stopped = true
				delete(openPlay, ev.SampleID)
			}
		case OpSetGain:
			gain = ev.Gain
		}
		e.gainAfter[i] = gain
	}
}

// AudioStateAt resolves the audio channel at an absolute tick: the most
// recently started sample trigger that has not been stopped or run past its
// declared length, plus the master gain in effect.
func (e *Engine) AudioStateAt(tick uint64) (AudioState, error) {
	state := AudioState{Gain: 255}

	// Master gain from the last audio event at or before tick.
	last := sort.Search(len(e.audio), func(i int) bool { return e.audio[i].Tick > tick }) - 1
	if last >= 0 {
		state.Gain = e.gainAfter[last]
	}

	idx := sort.Search(len(e.plays), func(i int) bool {
		return e.audio[e.plays[i].eventIndex].Tick > tick
	}) - 1
	if idx < 0 {
		return state, nil
	}
	ref := e.plays[idx]
	ev := e.audio[ref.eventIndex]
	if ref.stopped && ref.stopTick <= tick {
		return state, nil
	}
	position := tick - ev.Tick
	var meta *SampleMeta
	if m, ok := e.samples[ev.SampleID]; ok {
		meta = &m
		if m.LengthTicks > 0 && position >= uint64(m.LengthTicks) {
			return state, nil
		}
	}
	state.Active = true
	state.SampleID = ev.SampleID
	state.StartTick = ev.Tick
	state.PositionTicks = position
	state.FadeInTicks = ev.FadeInTicks
	state.FadeOutTicks = ev.FadeOutTicks
	state.Meta = meta
	return state, nil
}

// MicrosAt exposes the tempo map conversion for callers scheduling playback.
func (e *Engine) MicrosAt(tick uint64) (int64, error) {
	return e.tempo.MicrosAt(tick)
}

// lerpRGB interpolates channel-wise between two colours. frac is clamped to
// [0,1], same curve discipline as the hardware's own ramps.
func lerpRGB(from, to RGB, frac float64) RGB {
	if frac <= 0 {
		return from
	}
	if frac >= 1 {
		return to
	}
	lerp := func(a, b uint8) uint8 {
		return uint8(math.Round(float64(a) + (float64(b)-float64(a))*frac))
	}
	return RGB{R: lerp(from.R, to.R), G: lerp(from.G, to.G), B: lerp(from.B, to.B)}
}
