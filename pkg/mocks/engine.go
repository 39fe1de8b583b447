// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"
	"sync"

	"github.com/user/mediactl/pkg/ports"
)

// Engine is a mock implementation of ports.Engine.
//
// Without func overrides it behaves like a minimal engine: Prepare moves to
// ready, Play/Pause toggle IsPlaying and notify listeners synchronously, and
// SetTrackOverride rewrites the selection of the overridden type and
// reports the new track set.
type Engine struct {
	mu        sync.Mutex
	listeners []ports.EngineListener

	PrepareFunc          func(ctx context.Context, uri string) error
	SetTrackOverrideFunc func(override ports.TrackSelectionOverride) error

	DurationMs int64
	PositionMs int64
	Muted      bool
	Playing    bool
	State      ports.PlaybackState
	Tracks     ports.Tracks
	Speed      float64
	Repeat     ports.RepeatMode
	Surface    ports.Surface

	PreparedURIs []string
	Overrides    []ports.TrackSelectionOverride
	PlayCalls    int
	PauseCalls   int
	Seeks        []int64
	ReleaseCalls int
}

// NewEngine creates a mock engine in the idle state.
func NewEngine() *Engine {
	return &Engine{
		DurationMs: ports.TimeUnset,
		State:      ports.StateIdle,
		Speed:      1,
	}
}

func (m *Engine) Prepare(ctx context.Context, uri string) error {
	m.mu.Lock()
	m.PreparedURIs = append(m.PreparedURIs, uri)
	fn := m.PrepareFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, uri)
	}
	m.mu.Lock()
	m.State = ports.StateReady
	m.mu.Unlock()
	m.each(func(l ports.EngineListener) { l.OnPlaybackStateChanged(ports.StateReady) })
	return nil
}

func (m *Engine) Play() {
	m.mu.Lock()
	m.PlayCalls++
	changed := !m.Playing
	m.Playing = true
	m.mu.Unlock()
	if changed {
		m.each(func(l ports.EngineListener) { l.OnIsPlayingChanged(true) })
	}
}

func (m *Engine) Pause() {
	m.mu.Lock()
	m.PauseCalls++
	changed := m.Playing
	m.Playing = false
	m.mu.Unlock()
	if changed {
		m.each(func(l ports.EngineListener) { l.OnIsPlayingChanged(false) })
	}
}

func (m *Engine) SeekTo(positionMs int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Seeks = append(m.Seeks, positionMs)
	m.PositionMs = positionMs
}

func (m *Engine) SetPlaybackSpeed(speed float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Speed = speed
}

func (m *Engine) SetRepeatMode(mode ports.RepeatMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Repeat = mode
}

func (m *Engine) SetDeviceMuted(muted bool) {
	m.mu.Lock()
	changed := m.Muted != muted
	m.Muted = muted
	m.mu.Unlock()
	if changed {
		m.each(func(l ports.EngineListener) { l.OnDeviceVolumeChanged(0, muted) })
	}
}

func (m *Engine) IsDeviceMuted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Muted
}

func (m *Engine) IsPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Playing
}

func (m *Engine) Duration() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.DurationMs
}

func (m *Engine) CurrentPosition() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.PositionMs
}

func (m *Engine) PlaybackState() ports.PlaybackState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.State
}

func (m *Engine) CurrentTracks() ports.Tracks {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Tracks
}

func (m *Engine) SetTrackOverride(override ports.TrackSelectionOverride) error {
	m.mu.Lock()
	m.Overrides = append(m.Overrides, override)
	fn := m.SetTrackOverrideFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(override)
	}

	m.mu.Lock()
	var typ ports.MediaType = -1
	for _, g := range m.Tracks.Groups {
		if g.ID == override.GroupID {
			typ = g.Type
		}
	}
	groups := make([]ports.TrackGroup, len(m.Tracks.Groups))
	for gi, g := range m.Tracks.Groups {
		formats := append([]ports.TrackFormat{}, g.Tracks...)
		if g.Type == typ {
			for ti := range formats {
				formats[ti].Selected = false
				if g.ID == override.GroupID {
					for _, sel := range override.TrackIndices {
						if sel == ti {
							formats[ti].Selected = true
						}
					}
				}
			}
		}
		g.Tracks = formats
		groups[gi] = g
	}
	m.Tracks = ports.Tracks{Version: m.Tracks.Version + 1, Groups: groups}
	tracks := m.Tracks
	m.mu.Unlock()

	m.each(func(l ports.EngineListener) { l.OnTracksChanged(tracks) })
	return nil
}

func (m *Engine) SetSurface(surface ports.Surface) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Surface = surface
}

func (m *Engine) AddListener(listener ports.EngineListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, listener)
}

func (m *Engine) RemoveListener(listener ports.EngineListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.listeners[:0]
	for _, l := range m.listeners {
		if l != listener {
			out = append(out, l)
		}
	}
	m.listeners = out
}

func (m *Engine) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReleaseCalls++
}

// ListenerCount returns the number of registered listeners.
func (m *Engine) ListenerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.listeners)
}

// Releases returns how many times Release was called.
func (m *Engine) Releases() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ReleaseCalls
}

// OverrideLog returns the overrides applied so far.
func (m *Engine) OverrideLog() []ports.TrackSelectionOverride {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.TrackSelectionOverride{}, m.Overrides...)
}

// SetTracks replaces the track set without notifying listeners.
func (m *Engine) SetTracks(tracks ports.Tracks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Tracks = tracks
}

// SetPosition sets the reported position.
func (m *Engine) SetPosition(positionMs int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PositionMs = positionMs
}

// EmitTracksChanged replaces the track set and notifies listeners.
func (m *Engine) EmitTracksChanged(tracks ports.Tracks) {
	m.SetTracks(tracks)
	m.each(func(l ports.EngineListener) { l.OnTracksChanged(tracks) })
}

// EmitCues notifies listeners of a cue group.
func (m *Engine) EmitCues(cues ...ports.Cue) {
	m.each(func(l ports.EngineListener) { l.OnCues(cues) })
}

// EmitRenderedFirstFrame notifies listeners that a frame was rendered.
func (m *Engine) EmitRenderedFirstFrame() {
	m.each(func(l ports.EngineListener) { l.OnRenderedFirstFrame() })
}

// EmitPlayerError notifies listeners of an error change.
func (m *Engine) EmitPlayerError(err error) {
	m.each(func(l ports.EngineListener) { l.OnPlayerErrorChanged(err) })
}

// EmitPlaybackState sets the state and notifies listeners.
func (m *Engine) EmitPlaybackState(state ports.PlaybackState) {
	m.mu.Lock()
	m.State = state
	m.mu.Unlock()
	m.each(func(l ports.EngineListener) { l.OnPlaybackStateChanged(state) })
}

func (m *Engine) each(fn func(l ports.EngineListener)) {
	m.mu.Lock()
	ls := append([]ports.EngineListener{}, m.listeners...)
	m.mu.Unlock()
	for _, l := range ls {
		fn(l)
	}
}

var _ ports.Engine = (*Engine)(nil)
