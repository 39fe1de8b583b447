package player

// Outbound event names.
const (
	EventCue                    = "onCue"
	EventCurrentPositionChanged = "onCurrentPositionChanged"
	EventDeviceMutedChanged     = "onDeviceMutedChanged"
	EventIsPlayingChanged       = "onIsPlayingChanged"
	EventPlaybackStateChanged   = "onPlaybackStateChanged"
	EventPlayerErrorChanged     = "onPlayerErrorChanged"
	EventRenderedFirstFrame     = "onRenderedFirstFrame"
	EventTracksChanged          = "onTracksChanged"
)

// Command names.
const (
	CommandPrepare          = "prepare"
	CommandRelease          = "release"
	CommandPause            = "pause"
	CommandPlay             = "play"
	CommandSeekTo           = "seekTo"
	CommandPixelCopy        = "pixelCopy"
	CommandSetDeviceMuted   = "setDeviceMuted"
	CommandSetPlaybackSpeed = "setPlaybackSpeed"
	CommandSetRepeat        = "setRepeat"
	CommandSelectTrack      = "selectTrack"
	CommandDeselectTrack    = "deselectTrack"
)

// PrepareResult is the reply to a prepare command. DurationMs is
// non-positive when the duration is unknown.
type PrepareResult struct {
	DurationMs    int64 `json:"durationMs" yaml:"durationMs"`
	IsDeviceMuted bool  `json:"isDeviceMuted" yaml:"isDeviceMuted"`
}
