// Package psd decodes Adobe Photoshop PSD and PSB files: the document
// header, the image-resources block (ICC profile, EXIF, thumbnail),
// the layer/mask section (skipped, never decoded), and the merged
// image's channel planes into an interleaved, row-padded pixel
// buffer.
//
// Reads are driven entirely by attacker-controlled length fields, so
// every size is bounds-checked against the file's actual length
// before it is used to allocate or index a buffer, the same
// discipline the exifreader package applies to the TIFF IFD walk.
package psd

import (
	"github.com/For0xLC/jpegview/settings"
)

// Options controls limits and collaborators used while decoding.
type Options struct {
	// Warnf is a hook for non-fatal diagnostics. Nil means discard.
	// The decoder does not call it: unknown resource IDs are skipped
	// silently and every failure is returned as an error.
	Warnf func(format string, args ...any)

	// Settings supplies the alpha-compositing background color. A nil
	// Settings behaves like settings.New("") -- opaque black.
	Settings *settings.Settings

	// MaxFileSize and MaxImagePixels bound resource use before any
	// allocation is attempted. Zero means use the package default.
	MaxFileSize    int64
	MaxImagePixels int64
}

const (
	defaultMaxFileSize    = 2 << 30  // 2 GiB, matches the original viewer's PSD ceiling
	defaultMaxImagePixels = 1 << 28  // ~268 megapixels
	maxImageDimension     = 1 << 16  // 65536, a single dimension ceiling
	maxJPEGFileSize       = 64 << 20 // thumbnail JPEG ceiling
)

func (o Options) warnf(format string, args ...any) {
	if o.Warnf != nil {
		o.Warnf(format, args...)
	}
}

func (o Options) maxFileSize() int64 {
	if o.MaxFileSize > 0 {
		return o.MaxFileSize
	}
	return defaultMaxFileSize
}

func (o Options) maxImagePixels() int64 {
	if o.MaxImagePixels > 0 {
		return o.MaxImagePixels
	}
	return defaultMaxImagePixels
}

func (o Options) colorTransparency() uint32 {
	return o.Settings.ColorTransparency()
}
