// Package ggsurface provides an in-memory ports.Surface.
package ggsurface

import (
	"image"
	"sync"

	"golang.org/x/image/draw"

	"github.com/user/mediactl/pkg/ports"
)

// Surface keeps the last presented frame, scaled to the surface size.
type Surface struct {
	mu     sync.Mutex
	width  int
	height int
	frame  *image.RGBA
	frames int
}

// New creates a surface of the given size.
func New(width, height int) *Surface {
	return &Surface{width: width, height: height}
}

// Size returns the surface dimensions.
func (s *Surface) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// Resize changes the surface dimensions. The current frame is discarded.
func (s *Surface) Resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width, s.height = width, height
	s.frame = nil
}

// Present scales frame to the surface and keeps it as the current contents.
func (s *Surface) Present(frame image.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if frame == nil || s.width <= 0 || s.height <= 0 {
		return
	}
	dst := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	if frame.Bounds().Size() == dst.Rect.Size() {
		draw.Draw(dst, dst.Rect, frame, frame.Bounds().Min, draw.Src)
	} else {
		draw.ApproxBiLinear.Scale(dst, dst.Rect, frame, frame.Bounds(), draw.Src, nil)
	}
	s.frame = dst
	s.frames++
}

// Frames returns how many frames have been presented.
func (s *Surface) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// CopyPixels copies the current frame into dst on a separate goroutine.
func (s *Surface) CopyPixels(dst *image.RGBA, done func(ports.CopyResult)) {
	go func() {
		done(s.copyPixels(dst))
	}()
}

func (s *Surface) copyPixels(dst *image.RGBA) ports.CopyResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.width <= 0 || s.height <= 0:
		return ports.CopyErrorSourceInvalid
	case dst == nil || dst.Rect.Dx() != s.width || dst.Rect.Dy() != s.height:
		return ports.CopyErrorDestinationInvalid
	case s.frame == nil:
		return ports.CopyErrorSourceNoData
	}
	draw.Draw(dst, dst.Rect, s.frame, image.Point{}, draw.Src)
	return ports.CopySuccess
}

var _ ports.Surface = (*Surface)(nil)
