package ports

import "image"

// CopyResult is the platform-reported outcome of a pixel copy.
type CopyResult int

const (
	CopySuccess                 CopyResult = 0
	CopyErrorUnknown            CopyResult = 1
	CopyErrorTimeout            CopyResult = 2
	CopyErrorSourceNoData       CopyResult = 3
	CopyErrorSourceInvalid      CopyResult = 4
	CopyErrorDestinationInvalid CopyResult = 5
)

// String returns the string representation of the copy result.
func (r CopyResult) String() string {
	switch r {
	case CopySuccess:
		return "success"
	case CopyErrorUnknown:
		return "unknown"
	case CopyErrorTimeout:
		return "timeout"
	case CopyErrorSourceNoData:
		return "source_no_data"
	case CopyErrorSourceInvalid:
		return "source_invalid"
	case CopyErrorDestinationInvalid:
		return "destination_invalid"
	default:
		return "unknown"
	}
}

// Surface abstracts a drawable presentation target.
type Surface interface {
	// Size returns the current surface dimensions in pixels.
	Size() (width, height int)

	// Present draws a rendered video frame onto the surface.
	Present(frame image.Image)

	// CopyPixels copies the current surface contents into dst without
	// blocking the caller. done is called exactly once, possibly on
	// another goroutine.
	CopyPixels(dst *image.RGBA, done func(result CopyResult))
}
