// Package mp4engine provides a reference ports.Engine for local MP4 files.
//
// The engine reads the container structure to report duration and track
// groups and models playback with a wall clock: position advances with
// elapsed time scaled by the playback speed, and reaching the duration ends
// or repeats playback. Frames are not decoded; a slate showing the title and
// position is presented on the attached surface instead. Listener callbacks
// are delivered on the engine's own goroutine.
package mp4engine

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/user/mediactl/pkg/ports"
)

const defaultVolume = 100

// Engine implements ports.Engine for MP4 files.
type Engine struct {
	logger   ports.Logger
	renderer ports.SlateRenderer
	clock    func() time.Time

	mu            sync.Mutex
	surface       ports.Surface
	media         *Media
	state         ports.PlaybackState
	playWhenReady bool
	playing       bool
	speed         float64
	repeat        ports.RepeatMode
	muted         bool
	anchorPos     int64
	anchorAt      time.Time
	tracks        ports.Tracks
	hasError      bool
	rendered      bool
	endTimer      *time.Timer
	endGen        uint64
	released      bool

	// lmu guards listeners and is held while callbacks run, so
	// RemoveListener waits for an in-flight delivery.
	lmu       sync.Mutex
	listeners []ports.EngineListener

	qmu     sync.Mutex
	pending []func(ports.EngineListener)
	wake    chan struct{}
	done    chan struct{}
}

// New creates an idle engine. renderer draws the frames presented on the
// surface.
func New(logger ports.Logger, renderer ports.SlateRenderer) *Engine {
	e := &Engine{
		logger:   logger.WithComponent("mp4engine"),
		renderer: renderer,
		clock:    time.Now,
		state:    ports.StateIdle,
		speed:    1,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	go e.deliver()
	return e
}

// Factory returns a ports.EngineFactory producing engines with the given
// logger and renderer.
func Factory(logger ports.Logger, renderer ports.SlateRenderer) ports.EngineFactory {
	return func() ports.Engine { return New(logger, renderer) }
}

// Prepare opens and parses the source. Only file URIs and plain paths are
// supported.
func (e *Engine) Prepare(ctx context.Context, uri string) error {
	path, err := PathFromURI(uri)
	if err != nil {
		e.fail(err)
		return err
	}

	e.mu.Lock()
	if e.released {
		e.mu.Unlock()
		return fmt.Errorf("engine released")
	}
	e.stopLocked()
	wasPlaying := e.playing
	e.playing = false
	e.rendered = false
	e.state = ports.StateBuffering
	e.mu.Unlock()
	if wasPlaying {
		e.notify(func(l ports.EngineListener) { l.OnIsPlayingChanged(false) })
	}
	e.notify(func(l ports.EngineListener) { l.OnPlaybackStateChanged(ports.StateBuffering) })

	e.logger.Debug("Opening %s", path)
	media, err := open(ctx, path)
	if err != nil {
		e.fail(err)
		return err
	}

	e.mu.Lock()
	media.Title = filepath.Base(path)
	groups := cloneGroups(media.Groups)
	defaultSelection(groups)
	e.media = media
	e.tracks = ports.Tracks{Version: e.tracks.Version + 1, Groups: groups}
	tracks := e.tracks
	e.state = ports.StateReady
	e.anchorPos = 0
	e.anchorAt = e.clock()
	clearedError := e.hasError
	e.hasError = false
	started := e.startLocked()
	f := e.slateLocked()
	e.mu.Unlock()

	e.logger.Debug("Prepared %s: %d ms, %d track groups", path, media.DurationMs, len(groups))
	e.notify(func(l ports.EngineListener) { l.OnPlaybackStateChanged(ports.StateReady) })
	e.notify(func(l ports.EngineListener) { l.OnTracksChanged(tracks) })
	if clearedError {
		e.notify(func(l ports.EngineListener) { l.OnPlayerErrorChanged(nil) })
	}
	e.present(f)
	if started {
		e.notify(func(l ports.EngineListener) { l.OnIsPlayingChanged(true) })
	}
	return nil
}

func open(ctx context.Context, path string) (*Media, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer f.Close()
	return Probe(f)
}

// fail moves the engine to idle with an error flagged.
func (e *Engine) fail(err error) {
	e.mu.Lock()
	e.stopLocked()
	wasPlaying := e.playing
	e.playing = false
	e.state = ports.StateIdle
	e.hasError = true
	e.mu.Unlock()

	e.logger.Warn("Playback error: %s", err)
	if wasPlaying {
		e.notify(func(l ports.EngineListener) { l.OnIsPlayingChanged(false) })
	}
	e.notify(func(l ports.EngineListener) { l.OnPlaybackStateChanged(ports.StateIdle) })
	e.notify(func(l ports.EngineListener) { l.OnPlayerErrorChanged(err) })
}

// PathFromURI resolves a source uri to a local path. Bare paths and file
// uris are accepted.
func PathFromURI(uri string) (string, error) {
	if uri == "" {
		return "", fmt.Errorf("empty source uri")
	}
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("parse source uri: %w", err)
	}
	switch u.Scheme {
	case "":
		return uri, nil
	case "file":
		if u.Path == "" {
			return "", fmt.Errorf("file uri without path: %s", uri)
		}
		return u.Path, nil
	default:
		return "", fmt.Errorf("unsupported uri scheme %q", u.Scheme)
	}
}

// Play starts playback, immediately if ready.
func (e *Engine) Play() {
	e.mu.Lock()
	e.playWhenReady = true
	started := e.startLocked()
	e.mu.Unlock()
	if started {
		e.notify(func(l ports.EngineListener) { l.OnIsPlayingChanged(true) })
	}
}

// Pause pauses playback.
func (e *Engine) Pause() {
	e.mu.Lock()
	e.playWhenReady = false
	stopped := e.playing
	if stopped {
		e.anchorPos = e.positionLocked()
		e.anchorAt = e.clock()
		e.playing = false
		e.stopLocked()
	}
	f := e.slateLocked()
	e.mu.Unlock()
	e.present(f)
	if stopped {
		e.notify(func(l ports.EngineListener) { l.OnIsPlayingChanged(false) })
	}
}

// SeekTo moves the position, clamped to [0, duration].
func (e *Engine) SeekTo(positionMs int64) {
	e.mu.Lock()
	if e.media == nil {
		e.mu.Unlock()
		return
	}
	e.anchorPos = e.clampLocked(positionMs)
	e.anchorAt = e.clock()
	resumed := false
	if e.state == ports.StateEnded {
		e.state = ports.StateReady
		resumed = true
	}
	started := false
	if e.playing {
		e.scheduleEndLocked()
	} else {
		started = e.startLocked()
	}
	f := e.slateLocked()
	e.mu.Unlock()

	e.present(f)
	if resumed {
		e.notify(func(l ports.EngineListener) { l.OnPlaybackStateChanged(ports.StateReady) })
	}
	if started {
		e.notify(func(l ports.EngineListener) { l.OnIsPlayingChanged(true) })
	}
}

// SetPlaybackSpeed sets the speed multiplier. Non-positive values are ignored.
func (e *Engine) SetPlaybackSpeed(speed float64) {
	if speed <= 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.playing {
		e.anchorPos = e.positionLocked()
		e.anchorAt = e.clock()
	}
	e.speed = speed
	if e.playing {
		e.scheduleEndLocked()
	}
}

// SetRepeatMode sets the repeat mode.
func (e *Engine) SetRepeatMode(mode ports.RepeatMode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.repeat = mode
}

// SetDeviceMuted mutes or unmutes the device.
func (e *Engine) SetDeviceMuted(muted bool) {
	e.mu.Lock()
	changed := e.muted != muted
	e.muted = muted
	e.mu.Unlock()
	if changed {
		e.notify(func(l ports.EngineListener) { l.OnDeviceVolumeChanged(defaultVolume, muted) })
	}
}

func (e *Engine) IsDeviceMuted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.muted
}

func (e *Engine) IsPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playing
}

func (e *Engine) Duration() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.media == nil {
		return ports.TimeUnset
	}
	return e.media.DurationMs
}

func (e *Engine) CurrentPosition() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.positionLocked()
}

func (e *Engine) PlaybackState() ports.PlaybackState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) CurrentTracks() ports.Tracks {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracks
}

// SetTrackOverride restricts the selection for the group's type.
func (e *Engine) SetTrackOverride(override ports.TrackSelectionOverride) error {
	e.mu.Lock()
	groups, ok := applyOverride(e.tracks.Groups, override)
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("invalid override for group %q: %v", override.GroupID, override.TrackIndices)
	}
	e.tracks = ports.Tracks{Version: e.tracks.Version + 1, Groups: groups}
	tracks := e.tracks
	e.mu.Unlock()

	e.notify(func(l ports.EngineListener) { l.OnTracksChanged(tracks) })
	return nil
}

// SetSurface sets the output surface and presents the current slate on it.
func (e *Engine) SetSurface(surface ports.Surface) {
	e.mu.Lock()
	e.surface = surface
	f := e.slateLocked()
	e.mu.Unlock()
	e.present(f)
}

func (e *Engine) AddListener(listener ports.EngineListener) {
	e.lmu.Lock()
	defer e.lmu.Unlock()
	e.listeners = append(e.listeners, listener)
}

func (e *Engine) RemoveListener(listener ports.EngineListener) {
	e.lmu.Lock()
	defer e.lmu.Unlock()
	out := e.listeners[:0]
	for _, l := range e.listeners {
		if l != listener {
			out = append(out, l)
		}
	}
	e.listeners = out
}

// Release stops playback and the callback goroutine. It is safe to call
// more than once.
func (e *Engine) Release() {
	e.mu.Lock()
	if e.released {
		e.mu.Unlock()
		return
	}
	e.released = true
	e.stopLocked()
	e.playing = false
	e.surface = nil
	e.mu.Unlock()
	close(e.done)
}

func (e *Engine) startLocked() bool {
	if e.playing || !e.playWhenReady || e.state != ports.StateReady || e.released {
		return false
	}
	e.anchorAt = e.clock()
	e.playing = true
	e.scheduleEndLocked()
	return true
}

func (e *Engine) stopLocked() {
	e.endGen++
	if e.endTimer != nil {
		e.endTimer.Stop()
		e.endTimer = nil
	}
}

func (e *Engine) scheduleEndLocked() {
	e.stopLocked()
	if e.media == nil || e.media.DurationMs <= 0 {
		return
	}
	remaining := e.media.DurationMs - e.anchorPos
	if remaining < 0 {
		remaining = 0
	}
	d := time.Duration(float64(remaining)/e.speed) * time.Millisecond
	gen := e.endGen
	e.endTimer = time.AfterFunc(d, func() { e.reachEnd(gen) })
}

func (e *Engine) reachEnd(gen uint64) {
	e.mu.Lock()
	if gen != e.endGen || e.released || !e.playing {
		e.mu.Unlock()
		return
	}
	if e.repeat == ports.RepeatOne {
		e.anchorPos = 0
		e.anchorAt = e.clock()
		e.scheduleEndLocked()
		f := e.slateLocked()
		e.mu.Unlock()
		e.present(f)
		return
	}
	e.anchorPos = e.media.DurationMs
	e.playing = false
	e.state = ports.StateEnded
	e.endTimer = nil
	f := e.slateLocked()
	e.mu.Unlock()

	e.present(f)
	e.notify(func(l ports.EngineListener) { l.OnIsPlayingChanged(false) })
	e.notify(func(l ports.EngineListener) { l.OnPlaybackStateChanged(ports.StateEnded) })
}

func (e *Engine) positionLocked() int64 {
	pos := e.anchorPos
	if e.playing {
		elapsed := e.clock().Sub(e.anchorAt)
		pos += int64(float64(elapsed.Milliseconds()) * e.speed)
	}
	return e.clampLocked(pos)
}

func (e *Engine) clampLocked(pos int64) int64 {
	if pos < 0 {
		return 0
	}
	if e.media != nil && e.media.DurationMs > 0 && pos > e.media.DurationMs {
		return e.media.DurationMs
	}
	return pos
}

// notify queues a callback for every listener. It never blocks.
func (e *Engine) notify(fn func(ports.EngineListener)) {
	e.qmu.Lock()
	e.pending = append(e.pending, fn)
	e.qmu.Unlock()
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

func (e *Engine) deliver() {
	for {
		select {
		case <-e.done:
			return
		case <-e.wake:
		}
		for {
			e.qmu.Lock()
			batch := e.pending
			e.pending = nil
			e.qmu.Unlock()
			if len(batch) == 0 {
				break
			}
			for _, fn := range batch {
				select {
				case <-e.done:
					return
				default:
				}
				e.lmu.Lock()
				for _, l := range e.listeners {
					fn(l)
				}
				e.lmu.Unlock()
			}
		}
	}
}

// frame is a slate ready to be drawn outside the engine lock.
type frame struct {
	surface ports.Surface
	width   int
	height  int
	info    ports.SlateInfo
	first   bool
}

func (e *Engine) slateLocked() *frame {
	if e.surface == nil || e.media == nil || e.renderer == nil {
		return nil
	}
	w, h := e.surface.Size()
	if w <= 0 || h <= 0 {
		return nil
	}
	f := &frame{
		surface: e.surface,
		width:   w,
		height:  h,
		info: ports.SlateInfo{
			Title:      e.media.Title,
			PositionMs: e.positionLocked(),
			DurationMs: e.media.DurationMs,
			Playing:    e.playing,
		},
		first: !e.rendered,
	}
	e.rendered = true
	return f
}

// present draws f and reports the first frame after a prepare.
func (e *Engine) present(f *frame) {
	if f == nil {
		return
	}
	f.surface.Present(e.renderer.RenderSlate(f.width, f.height, f.info))
	if f.first {
		e.notify(func(l ports.EngineListener) { l.OnRenderedFirstFrame() })
	}
}

var _ ports.Engine = (*Engine)(nil)
