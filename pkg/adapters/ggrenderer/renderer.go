// Package ggrenderer provides slate rendering and image encoding using the gg library.
package ggrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"github.com/user/mediactl/pkg/ports"
)

var (
	backgroundColor = color.RGBA{R: 16, G: 18, B: 24, A: 255}
	textColor       = color.RGBA{R: 230, G: 232, B: 238, A: 255}
	trackColor      = color.RGBA{R: 60, G: 64, B: 76, A: 255}
	progressColor   = color.RGBA{R: 66, G: 133, B: 244, A: 255}
)

// Renderer implements ports.SlateRenderer and ports.ImageEncoder.
type Renderer struct{}

// New creates a new Renderer.
func New() *Renderer {
	return &Renderer{}
}

// RenderSlate draws the title, a progress bar and the position over a
// dark background.
func (r *Renderer) RenderSlate(width, height int, info ports.SlateInfo) image.Image {
	dc := gg.NewContext(width, height)
	dc.SetColor(backgroundColor)
	dc.Clear()

	w, h := float64(width), float64(height)
	margin := w * 0.08
	barY := h * 0.62
	barH := h * 0.02
	if barH < 2 {
		barH = 2
	}

	dc.SetColor(textColor)
	dc.DrawStringAnchored(info.Title, w/2, h*0.4, 0.5, 0.5)

	dc.SetColor(trackColor)
	dc.DrawRoundedRectangle(margin, barY, w-2*margin, barH, barH/2)
	dc.Fill()

	if info.DurationMs > 0 {
		ratio := float64(info.PositionMs) / float64(info.DurationMs)
		if ratio > 1 {
			ratio = 1
		}
		if ratio > 0 {
			dc.SetColor(progressColor)
			dc.DrawRoundedRectangle(margin, barY, (w-2*margin)*ratio, barH, barH/2)
			dc.Fill()
		}
	}

	label := FormatPosition(info.PositionMs)
	if info.DurationMs > 0 {
		label += " / " + FormatPosition(info.DurationMs)
	}
	if !info.Playing {
		label += "  (paused)"
	}
	dc.SetColor(textColor)
	dc.DrawStringAnchored(label, w/2, barY+barH+h*0.06, 0.5, 0.5)

	return dc.Image()
}

// FormatPosition formats milliseconds as m:ss or h:mm:ss.
func FormatPosition(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	s := ms / 1000
	if s >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", s/3600, (s/60)%60, s%60)
	}
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

// FrameImage wraps tightly packed RGBA bytes as an image.
func (r *Renderer) FrameImage(pix []byte, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", width, height)
	}
	if len(pix) != width*height*4 {
		return nil, fmt.Errorf("frame has %d bytes, want %d for %dx%d", len(pix), width*height*4, width, height)
	}
	return &image.RGBA{
		Pix:    pix,
		Stride: width * 4,
		Rect:   image.Rect(0, 0, width, height),
	}, nil
}

// DecodeImage decodes image data into an image.Image.
func (r *Renderer) DecodeImage(data []byte, format ports.ImageFormat) (image.Image, error) {
	reader := bytes.NewReader(data)

	switch format {
	case ports.FormatJPEG:
		return jpeg.Decode(reader)
	case ports.FormatPNG:
		return png.Decode(reader)
	default:
		img, _, err := image.Decode(reader)
		return img, err
	}
}

// EncodeImage encodes an image to the specified format.
func (r *Renderer) EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case ports.FormatJPEG:
		opts := &jpeg.Options{Quality: quality}
		if err := jpeg.Encode(&buf, img, opts); err != nil {
			return nil, fmt.Errorf("encode JPEG: %w", err)
		}
	case ports.FormatPNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode PNG: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format: %d", format)
	}

	return buf.Bytes(), nil
}

// ResizeImage scales an image to the given dimensions.
func (r *Renderer) ResizeImage(img image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

var (
	_ ports.SlateRenderer = (*Renderer)(nil)
	_ ports.ImageEncoder  = (*Renderer)(nil)
)
