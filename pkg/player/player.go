// Package player implements per-instance media playback control: a shared
// registry of engine-backed players, command dispatch, position polling,
// track catalog maintenance and frame capture.
package player

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/user/mediactl/pkg/ports"
)

// Options configures players created by a Registry.
type Options struct {
	PollInterval   time.Duration
	EventBuffer    int
	CaptureTimeout time.Duration
	TaskBuffer     int
}

// DefaultOptions returns Options with default values.
func DefaultOptions() Options {
	return Options{
		PollInterval:   DefaultPollInterval,
		EventBuffer:    DefaultEventBuffer,
		CaptureTimeout: DefaultCaptureTimeout,
		TaskBuffer:     256,
	}
}

// Player owns one engine instance and serializes everything that touches
// its state on a single control loop: commands, engine callbacks and
// position ticks all run as tasks on that loop.
type Player struct {
	id       int
	engine   ports.Engine
	opts     Options
	logger   ports.Logger
	listener *engineListener

	tasks  chan func()
	quit   chan struct{}
	exited chan struct{}

	// Owned by the control loop.
	catalog        *Catalog
	poller         *PositionPoller
	capture        *FrameCapture
	emitter        *Emitter
	owner          any
	surface        ports.Surface
	released       bool
	firstFrameSent bool
}

func newPlayer(id int, engine ports.Engine, opts Options, logger ports.Logger) *Player {
	if opts.TaskBuffer <= 0 {
		opts.TaskBuffer = DefaultOptions().TaskBuffer
	}
	p := &Player{
		id:      id,
		engine:  engine,
		opts:    opts,
		logger:  logger,
		tasks:   make(chan func(), opts.TaskBuffer),
		quit:    make(chan struct{}),
		exited:  make(chan struct{}),
		catalog: &Catalog{tracks: []Track{}},
		capture: NewFrameCapture(opts.CaptureTimeout),
	}
	p.poller = NewPositionPoller(opts.PollInterval, p.scheduleOnLoop,
		engine.IsPlaying, engine.CurrentPosition,
		func(positionMs int64) { p.emit(EventCurrentPositionChanged, positionMs) })
	p.listener = &engineListener{p: p}
	engine.AddListener(p.listener)
	go p.run()
	return p
}

// ID returns the instance id.
func (p *Player) ID() int {
	return p.id
}

func (p *Player) run() {
	defer close(p.exited)
	for fn := range p.tasks {
		fn()
		if p.released {
			close(p.quit)
			return
		}
	}
}

// post queues fn on the control loop. It reports false once the player
// has been released.
func (p *Player) post(fn func()) bool {
	select {
	case <-p.quit:
		return false
	default:
	}
	select {
	case p.tasks <- fn:
		return true
	case <-p.quit:
		return false
	}
}

type result struct {
	value any
	err   error
}

// call runs fn on the control loop and waits for its reply. fn may reply
// later from another task.
func (p *Player) call(ctx context.Context, fn func(reply func(any, error))) (any, error) {
	ch := make(chan result, 1)
	var once sync.Once
	reply := func(v any, err error) {
		once.Do(func() { ch <- result{value: v, err: err} })
	}
	if !p.post(func() { fn(reply) }) {
		return nil, ErrReleased
	}
	select {
	case r := <-ch:
		return r.value, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.quit:
		select {
		case r := <-ch:
			return r.value, r.err
		default:
			return nil, ErrReleased
		}
	}
}

func (p *Player) scheduleOnLoop(d time.Duration, fn func()) {
	time.AfterFunc(d, func() { p.post(fn) })
}

// emit sends an event to the attached consumer, if any. Loop only.
func (p *Player) emit(method string, args any) {
	if p.released {
		return
	}
	if p.emitter == nil {
		p.logger.Debug("Dropped event %s: no consumer attached", method)
		return
	}
	p.emitter.Send(ports.Event{Method: method, Args: args})
}

// Attach binds a view's surface and event consumer to the player,
// replacing any previous view.
func (p *Player) Attach(ctx context.Context, owner any, surface ports.Surface, sink ports.EventSink) error {
	_, err := p.call(ctx, func(reply func(any, error)) {
		if p.emitter != nil {
			p.emitter.Close()
			p.emitter = nil
		}
		if sink != nil {
			p.emitter = NewEmitter(sink, p.opts.EventBuffer, p.logger)
		}
		p.owner = owner
		p.surface = surface
		p.engine.SetSurface(surface)
		p.logger.Debug("Attached view to player %d", p.id)
		reply(nil, nil)
	})
	return err
}

// Detach unbinds owner's view. It does nothing when another view has
// attached since.
func (p *Player) Detach(ctx context.Context, owner any) error {
	_, err := p.call(ctx, func(reply func(any, error)) {
		if p.owner != owner {
			reply(nil, nil)
			return
		}
		if p.emitter != nil {
			p.emitter.Close()
			p.emitter = nil
		}
		p.owner = nil
		p.surface = nil
		p.engine.SetSurface(nil)
		p.logger.Debug("Detached view from player %d", p.id)
		reply(nil, nil)
	})
	return err
}

// Prepare binds uri to the engine and prepares it.
func (p *Player) Prepare(ctx context.Context, uri string) (PrepareResult, error) {
	v, err := p.call(ctx, func(reply func(any, error)) {
		p.firstFrameSent = false
		if err := p.engine.Prepare(ctx, uri); err != nil {
			p.logger.Error("Failed to prepare %s: %s", uri, err)
			reply(nil, fmt.Errorf("%w: prepare %s: %w", ErrEngine, uri, err))
			return
		}
		reply(PrepareResult{
			DurationMs:    p.engine.Duration(),
			IsDeviceMuted: p.engine.IsDeviceMuted(),
		}, nil)
	})
	if err != nil {
		return PrepareResult{}, err
	}
	return v.(PrepareResult), nil
}

// Play starts playback. It does nothing when already playing.
func (p *Player) Play(ctx context.Context) error {
	return p.exec(ctx, func() error {
		if !p.engine.IsPlaying() {
			p.engine.Play()
		}
		return nil
	})
}

// Pause pauses playback. It does nothing when already paused.
func (p *Player) Pause(ctx context.Context) error {
	return p.exec(ctx, func() error {
		if p.engine.IsPlaying() {
			p.engine.Pause()
		}
		return nil
	})
}

// SeekTo requests a seek to positionMs.
func (p *Player) SeekTo(ctx context.Context, positionMs int64) error {
	return p.exec(ctx, func() error {
		p.engine.SeekTo(positionMs)
		return nil
	})
}

// SetDeviceMuted mutes or unmutes the device.
func (p *Player) SetDeviceMuted(ctx context.Context, muted bool) error {
	return p.exec(ctx, func() error {
		p.engine.SetDeviceMuted(muted)
		return nil
	})
}

// SetPlaybackSpeed sets the playback speed.
func (p *Player) SetPlaybackSpeed(ctx context.Context, speed float64) error {
	return p.exec(ctx, func() error {
		p.engine.SetPlaybackSpeed(speed)
		return nil
	})
}

// SetRepeat toggles single-item repeat.
func (p *Player) SetRepeat(ctx context.Context, enabled bool) error {
	return p.exec(ctx, func() error {
		mode := ports.RepeatOff
		if enabled {
			mode = ports.RepeatOne
		}
		p.engine.SetRepeatMode(mode)
		return nil
	})
}

// SelectTrack restricts the selection of the group's type to trackIndex.
func (p *Player) SelectTrack(ctx context.Context, groupIndex, trackIndex int) error {
	return p.exec(ctx, func() error {
		return p.override(groupIndex, []int{trackIndex})
	})
}

// DeselectTrack clears the selection of the group's type.
func (p *Player) DeselectTrack(ctx context.Context, groupIndex int) error {
	return p.exec(ctx, func() error {
		return p.override(groupIndex, nil)
	})
}

func (p *Player) override(groupIndex int, trackIndices []int) error {
	o, err := p.catalog.Override(groupIndex, trackIndices, p.engine.CurrentTracks())
	if err != nil {
		return err
	}
	if err := p.engine.SetTrackOverride(o); err != nil {
		return fmt.Errorf("%w: track override: %w", ErrEngine, err)
	}
	return nil
}

// PixelCopy captures the current surface contents as RGBA bytes.
func (p *Player) PixelCopy(ctx context.Context) ([]byte, error) {
	v, err := p.call(ctx, func(reply func(any, error)) {
		p.capture.Capture(p.surface, func(pix []byte, width, height int, err error) {
			// The copy completes on an arbitrary goroutine; reply from the loop.
			if !p.post(func() { reply(pix, err) }) {
				reply(nil, ErrReleased)
			}
		})
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Catalog returns the current track catalog.
func (p *Player) Catalog(ctx context.Context) (*Catalog, error) {
	v, err := p.call(ctx, func(reply func(any, error)) {
		reply(p.catalog, nil)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Catalog), nil
}

func (p *Player) exec(ctx context.Context, fn func() error) error {
	_, err := p.call(ctx, func(reply func(any, error)) {
		reply(nil, fn())
	})
	return err
}

// release tears the player down. The engine listener is removed before
// release returns, so no later engine callback can reach the consumer.
// A second release is a no-op.
func (p *Player) release(ctx context.Context) error {
	_, err := p.call(ctx, func(reply func(any, error)) {
		p.engine.RemoveListener(p.listener)
		p.poller.Stop()
		if p.emitter != nil {
			p.emitter.Close()
			p.emitter = nil
		}
		p.engine.Release()
		p.released = true
		p.logger.Info("Released player %d", p.id)
		reply(nil, nil)
	})
	if errors.Is(err, ErrReleased) {
		return nil
	}
	return err
}

// Done is closed once the control loop has exited.
func (p *Player) Done() <-chan struct{} {
	return p.exited
}

// engineListener re-marshals engine callbacks onto the control loop.
type engineListener struct {
	p *Player
}

func (l *engineListener) OnCues(cues []ports.Cue) {
	l.p.post(func() {
		// Only the most recent cue is forwarded; an empty group clears it.
		text := ""
		if len(cues) > 0 {
			text = cues[len(cues)-1].Text
		}
		l.p.emit(EventCue, text)
	})
}

func (l *engineListener) OnDeviceVolumeChanged(volume int, muted bool) {
	l.p.post(func() {
		l.p.emit(EventDeviceMutedChanged, muted)
	})
}

func (l *engineListener) OnIsPlayingChanged(isPlaying bool) {
	l.p.post(func() {
		l.p.emit(EventIsPlayingChanged, isPlaying)
		l.p.poller.IsPlayingChanged(isPlaying)
	})
}

func (l *engineListener) OnPlaybackStateChanged(state ports.PlaybackState) {
	l.p.post(func() {
		l.p.emit(EventPlaybackStateChanged, int(state))
	})
}

func (l *engineListener) OnPlayerErrorChanged(err error) {
	l.p.post(func() {
		if err != nil {
			l.p.logger.Warn("Player %d error: %s", l.p.id, err)
		}
		l.p.emit(EventPlayerErrorChanged, err != nil)
	})
}

func (l *engineListener) OnRenderedFirstFrame() {
	l.p.post(func() {
		if l.p.firstFrameSent {
			return
		}
		l.p.firstFrameSent = true
		l.p.emit(EventRenderedFirstFrame, nil)
	})
}

func (l *engineListener) OnTracksChanged(tracks ports.Tracks) {
	l.p.post(func() {
		l.p.catalog = RebuildCatalog(tracks)
		l.p.emit(EventTracksChanged, l.p.catalog.Payload())
	})
}
