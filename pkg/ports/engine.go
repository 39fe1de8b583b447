// Package ports defines interfaces for external dependencies.
package ports

import (
	"context"
	"math"
)

// TimeUnset is reported by an Engine when a time value (such as the
// duration) is not known.
const TimeUnset int64 = math.MinInt64 + 1

// NoValue marks an unknown integer format field (width, height).
const NoValue = -1

// PlaybackState mirrors the engine's playback state.
type PlaybackState int

const (
	StateIdle      PlaybackState = 1
	StateBuffering PlaybackState = 2
	StateReady     PlaybackState = 3
	StateEnded     PlaybackState = 4
)

// String returns the string representation of the playback state.
func (s PlaybackState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBuffering:
		return "buffering"
	case StateReady:
		return "ready"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// RepeatMode controls what the engine does when playback reaches the end.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota
	RepeatOne
)

// MediaType is the engine-native stream type of a track group.
type MediaType int

const (
	MediaTypeUnknown MediaType = iota
	MediaTypeVideo
	MediaTypeAudio
	MediaTypeText
	MediaTypeImage
	MediaTypeMetadata
)

// TrackFormat describes one track of a group as reported by the engine.
type TrackFormat struct {
	Codecs   string
	Language string
	Label    string
	Width    int // NoValue when unknown
	Height   int // NoValue when unknown
	Selected bool
}

// TrackGroup is an engine-native grouping of tracks sharing a stream type.
type TrackGroup struct {
	// ID identifies the group inside the engine. It is opaque to callers
	// and only used to address selection overrides.
	ID     string
	Type   MediaType
	Tracks []TrackFormat
}

// Tracks is a snapshot of the engine's current track groups.
// Version increases every time the engine changes the track set or the
// selection.
type Tracks struct {
	Version uint64
	Groups  []TrackGroup
}

// TrackSelectionOverride restricts the selection for the group's type to
// exactly TrackIndices within the group. An empty TrackIndices disables
// the type.
type TrackSelectionOverride struct {
	GroupID      string
	TrackIndices []int
}

// Cue is one subtitle cue.
type Cue struct {
	Text string
}

// Engine abstracts a decode/render engine instance.
type Engine interface {
	// Prepare binds the source URI and prepares it for playback.
	Prepare(ctx context.Context, uri string) error

	// Play starts or resumes playback once the engine is ready.
	Play()

	// Pause pauses playback.
	Pause()

	// SeekTo moves the playback position. Out-of-range values are clamped.
	SeekTo(positionMs int64)

	// SetPlaybackSpeed sets the playback speed multiplier.
	SetPlaybackSpeed(speed float64)

	// SetRepeatMode sets the repeat mode.
	SetRepeatMode(mode RepeatMode)

	// SetDeviceMuted mutes or unmutes the output device.
	SetDeviceMuted(muted bool)

	// IsDeviceMuted reports whether the output device is muted.
	IsDeviceMuted() bool

	// IsPlaying reports whether playback is currently advancing.
	IsPlaying() bool

	// Duration returns the media duration in milliseconds, or TimeUnset.
	Duration() int64

	// CurrentPosition returns the playback position in milliseconds.
	CurrentPosition() int64

	// PlaybackState returns the current playback state.
	PlaybackState() PlaybackState

	// CurrentTracks returns the current track groups.
	CurrentTracks() Tracks

	// SetTrackOverride applies a selection override.
	SetTrackOverride(override TrackSelectionOverride) error

	// SetSurface sets the video output target. nil clears it.
	SetSurface(surface Surface)

	// AddListener registers a listener for engine callbacks.
	AddListener(listener EngineListener)

	// RemoveListener unregisters a listener. No callbacks are delivered to
	// the listener after RemoveListener returns.
	RemoveListener(listener EngineListener)

	// Release frees the engine. The engine must not be used afterwards.
	Release()
}

// EngineListener receives low-level engine callbacks.
// Callbacks may arrive on any goroutine.
type EngineListener interface {
	OnCues(cues []Cue)
	OnDeviceVolumeChanged(volume int, muted bool)
	OnIsPlayingChanged(isPlaying bool)
	OnPlaybackStateChanged(state PlaybackState)
	// OnPlayerErrorChanged reports the current error, or nil when cleared.
	OnPlayerErrorChanged(err error)
	OnRenderedFirstFrame()
	OnTracksChanged(tracks Tracks)
}

// EngineFactory creates a new engine instance with default configuration.
type EngineFactory func() Engine
