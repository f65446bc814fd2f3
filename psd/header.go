package psd

import (
	"github.com/For0xLC/jpegview/cursor"
	"github.com/For0xLC/jpegview/internal/errs"
)

// header is the fixed 26-byte PSD/PSB document header.
type header struct {
	version      uint16 // 1 = PSD, 2 = PSB
	realChannels uint16
	height       uint32
	width        uint32
	depth        uint16
	colorMode    ColorMode
}

func readHeader(cur *cursor.ByteCursor, opts Options) (header, error) {
	sig, err := cur.ReadN(4)
	if err != nil {
		return header{}, errs.New(errs.Truncated, err)
	}
	if string(sig) != "8BPS" {
		return header{}, errs.Newf(errs.MalformedHeader, "bad signature %q", sig)
	}

	version, err := cur.U16()
	if err != nil {
		return header{}, errs.New(errs.Truncated, err)
	}
	if version != 1 && version != 2 {
		return header{}, errs.Newf(errs.MalformedHeader, "unsupported version %d", version)
	}

	reserved, err := cur.ReadN(6)
	if err != nil {
		return header{}, errs.New(errs.Truncated, err)
	}
	for _, b := range reserved {
		if b != 0 {
			return header{}, errs.Newf(errs.MalformedHeader, "non-zero reserved header bytes")
		}
	}

	realChannels, err := cur.U16()
	if err != nil {
		return header{}, errs.New(errs.Truncated, err)
	}

	height, err := cur.U32()
	if err != nil {
		return header{}, errs.New(errs.Truncated, err)
	}
	width, err := cur.U32()
	if err != nil {
		return header{}, errs.New(errs.Truncated, err)
	}

	if height == 0 || width == 0 ||
		uint64(height) > maxImageDimension || uint64(width) > maxImageDimension {
		return header{}, errs.Newf(errs.MalformedHeader, "invalid dimensions %dx%d", width, height)
	}
	if uint64(height)*uint64(width) > uint64(opts.maxImagePixels()) {
		return header{}, errs.Limit("image pixels", uint64(height)*uint64(width), uint64(opts.maxImagePixels()))
	}

	depth, err := cur.U16()
	if err != nil {
		return header{}, errs.New(errs.Truncated, err)
	}
	if depth != 1 && depth != 8 && depth != 16 {
		return header{}, errs.Newf(errs.Unsupported, "unsupported bit depth %d", depth)
	}

	colorMode, err := cur.U16()
	if err != nil {
		return header{}, errs.New(errs.Truncated, err)
	}

	return header{
		version:      version,
		realChannels: realChannels,
		height:       height,
		width:        width,
		depth:        depth,
		colorMode:    ColorMode(colorMode),
	}, nil
}

// outputChannels applies the color-mode switch and the 2-to-1 collapse
// rule, then validates the result reduces to 1, 3 or 4.
func outputChannels(h header) (int, error) {
	if h.depth == 1 || h.colorMode == ModeBitmap {
		return 1, nil
	}

	var channels int
	switch h.colorMode {
	case ModeGrayscale, ModeDuotone:
		channels = minInt(int(h.realChannels), 1)
	case ModeMultichannel:
		channels = minInt(int(h.realChannels), 3)
	case ModeLab, ModeRGB, ModeCMYK:
		channels = minInt(int(h.realChannels), 4)
	default:
		channels = 0
	}
	if channels == 2 {
		channels = 1
	}
	if channels != 1 && channels != 3 && channels != 4 {
		return 0, errs.Newf(errs.Unsupported, "color mode %d with %d channels does not reduce to 1/3/4", h.colorMode, h.realChannels)
	}
	return channels, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// padTo4 rounds n up to the next multiple of 4, matching the output
// row stride the original viewer allocates.
func padTo4(n int) int {
	return (n + 3) &^ 3
}
