package ports

import (
	"image"
)

// ImageEncoder converts captured frames into a portable image format.
type ImageEncoder interface {
	// FrameImage wraps raw RGBA pixel bytes as an image.
	FrameImage(pix []byte, width, height int) (*image.RGBA, error)

	// EncodeImage encodes an image to the specified format.
	EncodeImage(img image.Image, format ImageFormat, quality int) ([]byte, error)
}

// ImageFormat specifies image encoding format.
type ImageFormat int

const (
	FormatJPEG ImageFormat = iota
	FormatPNG
)

// ParseImageFormat maps a file extension (with or without the dot) to a
// format. Unknown extensions default to PNG.
func ParseImageFormat(ext string) ImageFormat {
	switch ext {
	case ".jpg", ".jpeg", "jpg", "jpeg":
		return FormatJPEG
	default:
		return FormatPNG
	}
}

// SlateInfo describes what a slate frame shows.
type SlateInfo struct {
	Title      string
	PositionMs int64
	DurationMs int64
	Playing    bool
}

// SlateRenderer draws placeholder frames for sources that are not decoded.
type SlateRenderer interface {
	RenderSlate(width, height int, info SlateInfo) image.Image
}
