package player

import (
	"errors"
	"fmt"

	"github.com/user/mediactl/pkg/ports"
)

var (
	// ErrEngine is returned when the engine cannot open or decode the source,
	// or rejects a command.
	ErrEngine = errors.New("player: engine error")

	// ErrUnsupportedCommand is returned for an unknown command name.
	ErrUnsupportedCommand = errors.New("player: unsupported command")

	// ErrInvalidIndex is returned when a track selection addresses a group
	// or track outside the current catalog.
	ErrInvalidIndex = errors.New("player: invalid index")

	// ErrStaleCatalog is returned when a selection races a track-set change
	// that has not been folded into the catalog yet.
	ErrStaleCatalog = errors.New("player: stale catalog")

	// ErrCaptureFailure is returned when the surface copy fails.
	ErrCaptureFailure = errors.New("player: capture failure")

	// ErrInvalidArgument is returned when a command argument has the wrong
	// type or is out of range.
	ErrInvalidArgument = errors.New("player: invalid argument")

	// ErrReleased is returned when a command reaches a released player.
	ErrReleased = errors.New("player: released")
)

// CaptureError carries the platform-reported failure code of a capture.
type CaptureError struct {
	Code ports.CopyResult
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("%s: %d (%s)", ErrCaptureFailure, int(e.Code), e.Code)
}

func (e *CaptureError) Unwrap() error {
	return ErrCaptureFailure
}

// ErrorCode maps an error to its channel error code.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEngine):
		return "EngineError"
	case errors.Is(err, ErrUnsupportedCommand):
		return "UnsupportedCommand"
	case errors.Is(err, ErrInvalidIndex):
		return "InvalidIndex"
	case errors.Is(err, ErrStaleCatalog):
		return "StaleCatalog"
	case errors.Is(err, ErrCaptureFailure):
		return "CaptureFailure"
	case errors.Is(err, ErrInvalidArgument):
		return "InvalidArgument"
	case errors.Is(err, ErrReleased):
		return "Released"
	default:
		return "Error"
	}
}

// ErrorDetails returns the platform failure code for capture errors.
func ErrorDetails(err error) (ports.CopyResult, bool) {
	var ce *CaptureError
	if errors.As(err, &ce) {
		return ce.Code, true
	}
	return 0, false
}
