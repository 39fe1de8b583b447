package player

import (
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/user/mediactl/pkg/mocks"
	"github.com/user/mediactl/pkg/ports"
)

type captureResult struct {
	pix    []byte
	width  int
	height int
	err    error
}

func capture(t *testing.T, fc *FrameCapture, surface ports.Surface) captureResult {
	t.Helper()
	ch := make(chan captureResult, 2)
	fc.Capture(surface, func(pix []byte, width, height int, err error) {
		ch <- captureResult{pix, width, height, err}
	})
	select {
	case r := <-ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("capture did not complete")
		return captureResult{}
	}
}

func TestFrameCapture_Success(t *testing.T) {
	surface := mocks.NewSurface(3, 2)
	surface.Fill = color.RGBA{R: 1, G: 2, B: 3, A: 255}

	r := capture(t, NewFrameCapture(time.Second), surface)
	if r.err != nil {
		t.Fatalf("unexpected error: %v", r.err)
	}
	if r.width != 3 || r.height != 2 {
		t.Errorf("size = %dx%d, want 3x2", r.width, r.height)
	}
	if len(r.pix) != 3*2*4 {
		t.Fatalf("len(pix) = %d, want 24", len(r.pix))
	}
	for i := 0; i < len(r.pix); i += 4 {
		if r.pix[i] != 1 || r.pix[i+1] != 2 || r.pix[i+2] != 3 || r.pix[i+3] != 255 {
			t.Fatalf("pixel %d = %v", i/4, r.pix[i:i+4])
		}
	}
}

func TestFrameCapture_Failures(t *testing.T) {
	never := mocks.NewSurface(4, 4)
	never.CopyPixelsFunc = func(dst *image.RGBA, done func(ports.CopyResult)) {}

	noData := mocks.NewSurface(4, 4)
	noData.CopyPixelsFunc = func(dst *image.RGBA, done func(ports.CopyResult)) {
		go done(ports.CopyErrorSourceNoData)
	}

	tests := []struct {
		name    string
		surface ports.Surface
		want    ports.CopyResult
	}{
		{"no surface", nil, ports.CopyErrorSourceInvalid},
		{"zero size surface", mocks.NewSurface(0, 0), ports.CopyErrorSourceInvalid},
		{"platform failure", noData, ports.CopyErrorSourceNoData},
		{"timeout", never, ports.CopyErrorTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := capture(t, NewFrameCapture(30*time.Millisecond), tt.surface)
			if !errors.Is(r.err, ErrCaptureFailure) {
				t.Fatalf("err = %v, want capture failure", r.err)
			}
			code, ok := ErrorDetails(r.err)
			if !ok || code != tt.want {
				t.Errorf("code = %v, want %v", code, tt.want)
			}
			if r.pix != nil {
				t.Error("expected no pixels on failure")
			}
		})
	}
}

func TestFrameCapture_LateCompletionIgnored(t *testing.T) {
	release := make(chan struct{})
	surface := mocks.NewSurface(2, 2)
	surface.CopyPixelsFunc = func(dst *image.RGBA, done func(ports.CopyResult)) {
		go func() {
			<-release
			done(ports.CopySuccess)
		}()
	}

	calls := make(chan error, 4)
	NewFrameCapture(20*time.Millisecond).Capture(surface, func(pix []byte, w, h int, err error) {
		calls <- err
	})

	if err := <-calls; !errors.Is(err, ErrCaptureFailure) {
		t.Fatalf("expected timeout failure, got %v", err)
	}
	close(release)

	select {
	case err := <-calls:
		t.Fatalf("done called twice, second with %v", err)
	case <-time.After(50 * time.Millisecond):
	}
}
