package mocks

import (
	"image"
	"image/color"
	"sync"

	"github.com/user/mediactl/pkg/ports"
)

// Surface is a mock implementation of ports.Surface.
// By default CopyPixels fills dst with Fill on a new goroutine and
// reports success.
type Surface struct {
	mu     sync.Mutex
	Width  int
	Height int
	Fill   color.RGBA
	Frames int

	CopyPixelsFunc func(dst *image.RGBA, done func(ports.CopyResult))
}

// NewSurface creates a mock surface of the given size.
func NewSurface(width, height int) *Surface {
	return &Surface{Width: width, Height: height, Fill: color.RGBA{R: 255, A: 255}}
}

func (m *Surface) Size() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Width, m.Height
}

func (m *Surface) Present(frame image.Image) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Frames++
}

func (m *Surface) CopyPixels(dst *image.RGBA, done func(ports.CopyResult)) {
	if m.CopyPixelsFunc != nil {
		m.CopyPixelsFunc(dst, done)
		return
	}
	m.mu.Lock()
	fill := m.Fill
	m.mu.Unlock()
	go func() {
		b := dst.Bounds()
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				dst.SetRGBA(x, y, fill)
			}
		}
		done(ports.CopySuccess)
	}()
}

var _ ports.Surface = (*Surface)(nil)
