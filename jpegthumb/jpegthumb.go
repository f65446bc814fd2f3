// Package jpegthumb decodes the small JPEG thumbnail embedded in a PSD
// resource block or an EXIF IFD1, and answers the two questions the
// PSD thumbnail reader needs about it besides its pixels: a content
// hash cheap enough to call on every decode, and its COM comment if
// it carries one.
//
// Decoding itself is handed to github.com/gen2brain/jpegn rather than
// image/jpeg, since the JPEGView viewer always prefers the faster
// non-cgo decoder for anything that isn't the primary full-size image.
// Segment scanning for the comment uses github.com/garyhouston/jpegsegs,
// the one pack dependency that understands JPEG markers without also
// decoding pixels.
package jpegthumb

import (
	"bytes"
	"hash/fnv"
	"image"
	"image/draw"

	"github.com/garyhouston/jpegsegs"
	"github.com/gen2brain/jpegn"
)

// Subsampling reports the chroma subsampling layout of a decoded JPEG,
// mirroring the three ratios the original thumbnail reader cared about.
type Subsampling int

const (
	Subsampling444 Subsampling = iota
	Subsampling422
	Subsampling420
	SubsamplingUnknown
)

// ReadImage decodes stream as a JPEG and returns its pixels as
// interleaved BGR (matching the psd package's channel order), its
// dimensions, and its chroma subsampling.
func ReadImage(stream []byte) (pix []byte, width, height int, subsampling Subsampling, err error) {
	img, err := jpegn.Decode(bytes.NewReader(stream), &jpegn.Options{ToRGBA: true})
	if err != nil {
		return nil, 0, 0, SubsamplingUnknown, err
	}

	subsampling = detectSubsampling(img)

	bounds := img.Bounds()
	width, height = bounds.Dx(), bounds.Dy()

	rgba, ok := img.(*image.RGBA)
	if !ok {
		rgba = image.NewRGBA(bounds)
		draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
	}

	pix = make([]byte, width*height*3)
	for y := 0; y < height; y++ {
		srcRow := rgba.Pix[y*rgba.Stride : y*rgba.Stride+width*4]
		dstRow := pix[y*width*3 : (y+1)*width*3]
		for x := 0; x < width; x++ {
			r := srcRow[x*4+0]
			g := srcRow[x*4+1]
			b := srcRow[x*4+2]
			dstRow[x*3+0] = b
			dstRow[x*3+1] = g
			dstRow[x*3+2] = r
		}
	}

	return pix, width, height, subsampling, nil
}

func detectSubsampling(img image.Image) Subsampling {
	yc, ok := img.(*image.YCbCr)
	if !ok {
		return SubsamplingUnknown
	}
	switch yc.SubsampleRatio {
	case image.YCbCrSubsampleRatio444:
		return Subsampling444
	case image.YCbCrSubsampleRatio422:
		return Subsampling422
	case image.YCbCrSubsampleRatio420:
		return Subsampling420
	default:
		return SubsamplingUnknown
	}
}

// CalculateHash returns a cheap, stable content hash of a JPEG stream,
// used so the caller can tell whether a thumbnail changed without
// decoding it twice.
func CalculateHash(stream []byte) uint64 {
	h := fnv.New64a()
	h.Write(stream)
	return h.Sum64()
}

// GetComment scans stream's segments up to the first scan (SOS) marker
// and returns the payload of the first COM segment found, or "" if
// none exists.
func GetComment(stream []byte) string {
	scanner, err := jpegsegs.NewScanner(bytes.NewReader(stream))
	if err != nil {
		return ""
	}

	for {
		marker, data, err := scanner.Scan()
		if err != nil {
			return ""
		}
		if marker == jpegsegs.SOS || marker == jpegsegs.EOI {
			return ""
		}
		if marker == jpegsegs.COM {
			return string(data)
		}
	}
}
