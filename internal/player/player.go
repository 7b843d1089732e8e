// Package player replays a decoded light program in wall-clock time against
// an abstract transport. It owns scheduling only: state resolution stays in
// pkg/lstf, and the transport owns whatever wire protocol the hardware
// speaks.
package player

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dyluth/lstf/pkg/lstf"
)

// Transport receives resolved pad commands as their start times arrive.
// Implementations must be safe for concurrent use: each pad runs its own
// scheduling goroutine.
type Transport interface {
	Send(pad lstf.Pad, cmd lstf.Command) error
}

// AudioTransport is optionally implemented by transports that can schedule
// sample playback alongside the light channels.
type AudioTransport interface {
	SendAudio(state lstf.AudioState) error
}

// Option configures a Player.
type Option func(*Player)

// WithLogger attaches a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Player) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithLoop forces looping on or off, overriding the program's header flag.
func WithLoop(loop bool) Option {
	return func(p *Player) { p.loop = loop }
}

// WithEngineOptions passes options through to the resolution engine, e.g. a
// non-default device profile.
func WithEngineOptions(opts ...lstf.EngineOption) Option {
	return func(p *Player) { p.engineOpts = opts }
}

// event is one scheduled state change on a single channel.
type event struct {
	tick   uint64
	micros int64
}

// Player replays one container revision. Build a new Player after applying
// more chunks in streaming mode.
type Player struct {
	session    uuid.UUID
	engine     *lstf.Engine
	transport  Transport
	logger     *zap.Logger
	loop       bool
	engineOpts []lstf.EngineOption

	padEvents   [lstf.NumPads][]event
	audioEvents []event
	cycleMicros int64
}

// New builds a player over the container's current contents.
func New(c *lstf.Container, transport Transport, opts ...Option) (*Player, error) {
	if transport == nil {
		return nil, fmt.Errorf("transport is required")
	}
	p := &Player{
		session:   uuid.New(),
		transport: transport,
		logger:    zap.NewNop(),
		loop:      c.Header().Loopable(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.engine = lstf.NewEngine(c, p.engineOpts...)

	if err := p.buildSchedule(c); err != nil {
		return nil, err
	}
	return p, nil
}

// Session identifies this playback instance in logs.
func (p *Player) Session() uuid.UUID { return p.session }

// buildSchedule collects every tick at which a channel's state can change
// and precomputes its wall-clock offset from tick 0.
func (p *Player) buildSchedule(c *lstf.Container) error {
	var endTick uint64
	note := func(tick uint64) {
		if tick > endTick {
			endTick = tick
		}
	}

	groups := c.GroupTrack()
	for pad := lstf.Pad(0); pad < lstf.NumPads; pad++ {
		ticks := make(map[uint64]struct{})
		for _, ev := range c.PadTrack(pad) {
			if span, ok := commandSpan(ev.Op, ev.TransitionTicks, ev.RampTicks, ev.OnTicks, ev.OffTicks, ev.Pulses, ev.HoldTicks); ok {
				ticks[ev.Tick] = struct{}{}
				note(ev.Tick + span)
			}
		}
		for _, g := range groups {
			if !g.Covers(pad) {
				continue
			}
			if span, ok := commandSpan(g.Op, g.TransitionTicks, g.RampTicks, g.OnTicks, g.OffTicks, g.Pulses, g.HoldTicks); ok {
				ticks[g.Tick] = struct{}{}
				note(g.Tick + span)
			}
		}
		events, err := p.toEvents(ticks)
		if err != nil {
			return err
		}
		p.padEvents[pad] = events
	}

	audioTicks := make(map[uint64]struct{})
	for _, ev := range c.AudioTrack() {
		audioTicks[ev.Tick] = struct{}{}
		note(ev.Tick)
	}
	events, err := p.toEvents(audioTicks)
	if err != nil {
		return err
	}
	p.audioEvents = events

	cycle, err := p.engine.MicrosAt(endTick)
	if err != nil {
		return fmt.Errorf("computing programme length: %w", err)
	}
	if cycle < 10_000 {
		cycle = 10_000 // floor so an empty or instant programme cannot spin
	}
	p.cycleMicros = cycle
	return nil
}

// commandSpan returns the total tick footprint of a command opcode and
// whether the opcode is schedulable at all.
func commandSpan(op lstf.Opcode, transition, ramp, on, off uint16, pulses uint8, hold uint16) (uint64, bool) {
	if pulses == 0 {
		pulses = 1
	}
	switch op {
	case lstf.OpSwitchColour, lstf.OpBlackout:
		return uint64(transition) + uint64(hold), true
	case lstf.OpFadeToColour:
		return uint64(ramp)*uint64(pulses) + uint64(hold), true
	case lstf.OpFlashColour:
		return (uint64(on)+uint64(off))*uint64(pulses) + uint64(hold), true
	}
	return 0, false
}

func (p *Player) toEvents(ticks map[uint64]struct{}) ([]event, error) {
	events := make([]event, 0, len(ticks))
	for tick := range ticks {
		micros, err := p.engine.MicrosAt(tick)
		if err != nil {
			return nil, err
		}
		events = append(events, event{tick: tick, micros: micros})
	}
	sort.Slice(events, func(i, j int) bool { return events[i].tick < events[j].tick })
	return events, nil
}

// Run replays the programme until it completes (or forever when looping),
// returning early when ctx is cancelled or the transport fails. The first
// transport error stops every channel.
func (p *Player) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p.logger.Info("playback starting",
		zap.String("session", p.session.String()),
		zap.Bool("loop", p.loop),
		zap.Int64("cycle_micros", p.cycleMicros))

	var wg sync.WaitGroup
	var once sync.Once
	var runErr error
	fail := func(err error) {
		once.Do(func() {
			runErr = err
			cancel()
		})
	}

	for pad := lstf.Pad(0); pad < lstf.NumPads; pad++ {
		if len(p.padEvents[pad]) == 0 {
			continue
		}
		wg.Add(1)
		go func(pad lstf.Pad) {
			defer wg.Done()
			if err := p.runPad(ctx, pad); err != nil {
				fail(err)
			}
		}(pad)
	}

	if audio, ok := p.transport.(AudioTransport); ok && len(p.audioEvents) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := p.runAudio(ctx, audio); err != nil {
				fail(err)
			}
		}()
	}

	wg.Wait()
	if runErr != nil {
		return runErr
	}
	p.logger.Info("playback finished", zap.String("session", p.session.String()))
	return nil
}

func (p *Player) runPad(ctx context.Context, pad lstf.Pad) error {
	cycleStart := time.Now()
	for {
		for _, ev := range p.padEvents[pad] {
			target := cycleStart.Add(time.Duration(ev.micros) * time.Microsecond)
			if !waitUntil(ctx, target) {
				return nil
			}
			cmd, err := p.engine.PadStateAt(pad, ev.tick)
			if err != nil {
				return fmt.Errorf("resolving pad %s at tick %d: %w", pad, ev.tick, err)
			}
			p.logger.Debug("pad command",
				zap.String("pad", pad.String()),
				zap.Uint64("tick", ev.tick),
				zap.String("primitive", cmd.Primitive.String()))
			if err := p.transport.Send(pad, cmd); err != nil {
				return fmt.Errorf("transport send for pad %s: %w", pad, err)
			}
		}
		if !p.loop {
			return nil
		}
		cycleStart = cycleStart.Add(time.Duration(p.cycleMicros) * time.Microsecond)
	}
}

func (p *Player) runAudio(ctx context.Context, transport AudioTransport) error {
	cycleStart := time.Now()
	for {
		for _, ev := range p.audioEvents {
			target := cycleStart.Add(time.Duration(ev.micros) * time.Microsecond)
			if !waitUntil(ctx, target) {
				return nil
			}
			state, err := p.engine.AudioStateAt(ev.tick)
			if err != nil {
				return fmt.Errorf("resolving audio at tick %d: %w", ev.tick, err)
			}
			if err := transport.SendAudio(state); err != nil {
				return fmt.Errorf("transport audio send: %w", err)
			}
		}
		if !p.loop {
			return nil
		}
		cycleStart = cycleStart.Add(time.Duration(p.cycleMicros) * time.Microsecond)
	}
}

// waitUntil sleeps until the target instant, reporting false when the
// context ends first.
func waitUntil(ctx context.Context, target time.Time) bool {
	remaining := time.Until(target)
	if remaining <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
