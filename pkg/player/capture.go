package player

import (
	"image"
	"sync"
	"time"

	"github.com/user/mediactl/pkg/ports"
)

// DefaultCaptureTimeout bounds how long a surface copy may take.
const DefaultCaptureTimeout = 5 * time.Second

// FrameCapture copies the presentation surface into a fresh RGBA buffer.
type FrameCapture struct {
	timeout time.Duration
}

// NewFrameCapture creates a FrameCapture. A non-positive timeout uses
// DefaultCaptureTimeout.
func NewFrameCapture(timeout time.Duration) *FrameCapture {
	if timeout <= 0 {
		timeout = DefaultCaptureTimeout
	}
	return &FrameCapture{timeout: timeout}
}

// Capture requests a copy of surface and returns immediately. done receives
// the raw RGBA bytes (width*height*4, row-major) or a *CaptureError. done is
// called exactly once and may run on any goroutine.
func (f *FrameCapture) Capture(surface ports.Surface, done func(pix []byte, width, height int, err error)) {
	if surface == nil {
		done(nil, 0, 0, &CaptureError{Code: ports.CopyErrorSourceInvalid})
		return
	}
	width, height := surface.Size()
	if width <= 0 || height <= 0 {
		done(nil, width, height, &CaptureError{Code: ports.CopyErrorSourceInvalid})
		return
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))

	var once sync.Once
	finish := func(pix []byte, err error) {
		once.Do(func() { done(pix, width, height, err) })
	}
	timer := time.AfterFunc(f.timeout, func() {
		finish(nil, &CaptureError{Code: ports.CopyErrorTimeout})
	})

	surface.CopyPixels(dst, func(result ports.CopyResult) {
		timer.Stop()
		if result != ports.CopySuccess {
			finish(nil, &CaptureError{Code: result})
			return
		}
		finish(dst.Pix, nil)
	})
}
