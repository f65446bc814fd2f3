package psd

import (
	"os"

	"github.com/For0xLC/jpegview/compositor"
	"github.com/For0xLC/jpegview/cursor"
	"github.com/For0xLC/jpegview/icctransform"
	"github.com/For0xLC/jpegview/internal/errs"
)

// DecodedImage is the merged image a successful ReadImage produces.
type DecodedImage struct {
	Width, Height int
	Channels      int // 1, 3 or 4
	Stride        int // row stride in bytes, Width*Channels padded to 4
	Pix           []byte

	ICCProfile []byte // raw profile bytes, RGB mode only
	EXIFApp1   []byte // synthetic APP1 block, ready for exifreader.Parse
}

// ReadImage decodes f's merged image, following the seven-step
// algorithm: validate the header, compute the effective channel
// count, skip color-mode data, scan resources, locate and skip the
// layer/mask section from the header-derived offset (never from
// wherever the resource scan left the cursor), validate the
// compression method, then dispatch to the bitmap or multi-channel
// decoder.
func ReadImage(f *os.File, opts Options) (*DecodedImage, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, errs.New(errs.Truncated, err)
	}
	size := info.Size()
	if size > opts.maxFileSize() {
		return nil, errs.Limit("PSD file size", uint64(size), uint64(opts.maxFileSize()))
	}

	cur := cursor.FromFile(f, size)

	h, err := readHeader(cur, opts)
	if err != nil {
		return nil, err
	}
	outChannels, err := outputChannels(h)
	if err != nil {
		return nil, err
	}

	colorDataSize, err := cur.U32()
	if err != nil {
		return nil, errs.New(errs.Truncated, err)
	}
	if err := cur.SeekRel(int64(colorDataSize)); err != nil {
		return nil, errs.Newf(errs.Truncated, "color mode data size %d runs past end of file", colorDataSize)
	}

	resourceSectionSize, err := cur.U32()
	if err != nil {
		return nil, errs.New(errs.Truncated, err)
	}
	resourceStart := cur.Pos64()

	useAlphaDefault := outChannels == 4
	res, err := scanResources(cur, resourceStart+int64(resourceSectionSize), h.colorMode, useAlphaDefault, opts)
	if err != nil {
		return nil, err
	}

	// Layer/mask section start is computed from the header-declared
	// sizes, never from wherever the resource scan left the cursor:
	// a malformed or truncated resource stream can under-read, and
	// re-deriving the absolute offset makes that harmless.
	layerMaskStart := int64(headerSize) + 4 + int64(colorDataSize) + 4 + int64(resourceSectionSize)
	if err := cur.SeekStart(layerMaskStart); err != nil {
		return nil, errs.Newf(errs.Truncated, "layer/mask section start %d past end of file", layerMaskStart)
	}

	useAlpha, err := skipLayerMaskSection(cur, h.version, res.useAlpha)
	if err != nil {
		return nil, err
	}

	compression, err := cur.U16()
	if err != nil {
		return nil, errs.New(errs.Truncated, err)
	}
	if compressionMethod(compression) != compressionNone && compressionMethod(compression) != compressionRLE {
		return nil, errs.Newf(errs.Unsupported, "unsupported compression method %d", compression)
	}

	imageData, err := cur.ReadN(int(cur.Remaining()))
	if err != nil {
		return nil, errs.New(errs.Truncated, err)
	}

	width, height := int(h.width), int(h.height)

	if h.depth == 1 || h.colorMode == ModeBitmap {
		pix, err := decodeBitmap(imageData, width, height, h.version, compressionMethod(compression))
		if err != nil {
			return nil, err
		}
		return &DecodedImage{
			Width: width, Height: height, Channels: 1,
			Stride: padTo4(width), Pix: pix,
			ICCProfile: res.iccProfile, EXIFApp1: res.exifApp1,
		}, nil
	}

	channels := outChannels
	if !useAlpha && h.colorMode != ModeCMYK {
		channels = minInt(channels, 3)
	}

	stride := padTo4(width * channels)
	pix, err := decodeChannels(imageData, width, height, channels, stride, h, compressionMethod(compression))
	if err != nil {
		return nil, err
	}

	pix, channels, stride = applyColorTransform(pix, width, height, stride, channels, h.colorMode, res.iccProfile)

	if channels == 4 && h.colorMode != ModeCMYK {
		background := opts.colorTransparency()
		alphaComposite(pix, width, height, stride, background)
	}

	return &DecodedImage{
		Width: width, Height: height, Channels: channels,
		Stride: stride, Pix: pix,
		ICCProfile: res.iccProfile, EXIFApp1: res.exifApp1,
	}, nil
}

// skipLayerMaskSection reads the outer layer/mask section length (4
// bytes for v1, 8 for v2, a count of everything that follows it, not
// including itself) and seeks past the whole section, returning
// whether the merged image's 4th channel is still alpha (false
// whenever any layer is present).
func skipLayerMaskSection(cur *cursor.ByteCursor, version uint16, useAlpha bool) (bool, error) {
	fieldWidth := int64(4 * version)

	var nLayerSize int64
	if version == 2 {
		v, err := cur.U64()
		if err != nil {
			return false, errs.New(errs.Truncated, err)
		}
		nLayerSize = int64(v)
	} else {
		v, err := cur.U32()
		if err != nil {
			return false, errs.New(errs.Truncated, err)
		}
		nLayerSize = int64(v)
	}
	afterLengthField := cur.Pos64()

	if nLayerSize == 0 {
		return useAlpha, nil
	}
	if nLayerSize < fieldWidth+2 {
		return false, errs.Newf(errs.MalformedHeader, "layer/mask section size %d too small", nLayerSize)
	}

	// Skip the "length of layer info" sub-field without needing its
	// value, then read the layer count that follows it.
	if err := cur.SeekRel(fieldWidth); err != nil {
		return false, errs.New(errs.Truncated, err)
	}
	countBits, err := cur.U16()
	if err != nil {
		return false, errs.New(errs.Truncated, err)
	}
	layerCount := int16(countBits)

	sectionEnd := afterLengthField + nLayerSize
	if err := cur.SeekStart(sectionEnd); err != nil {
		return false, errs.Newf(errs.Truncated, "layer/mask section end %d past end of file", sectionEnd)
	}

	useAlpha = useAlpha && layerCount <= 0
	return useAlpha, nil
}

// applyColorTransform converts pix from its declared colorMode into
// BGR(A) in place, returning the (possibly adjusted) pixel buffer,
// channel count and stride. A Lab image whose transform cannot be
// built falls back to treating the L channel as grayscale, reducing
// the buffer to one channel; every other failure leaves pix untouched
// and untransformed, the same passthrough the RGB path already used.
func applyColorTransform(pix []byte, width, height, stride, channels int, colorMode ColorMode, iccProfile []byte) ([]byte, int, int) {
	if channels != 3 && channels != 4 {
		return pix, channels, stride
	}

	var format icctransform.Format
	if channels == 4 {
		format = icctransform.FormatBGRA
	} else {
		format = icctransform.FormatBGR
	}

	switch colorMode {
	case ModeLab:
		tr, err := icctransform.CreateLabTransform(format)
		if err != nil {
			return labToGray(pix, width, height, stride, channels)
		}
		defer tr.Close()
		tr.Do(pix, width, height, stride, format)
	case ModeRGB:
		if iccProfile == nil {
			return pix, channels, stride
		}
		tr, err := icctransform.CreateTransform(iccProfile, format)
		if err != nil {
			return pix, channels, stride
		}
		defer tr.Close()
		tr.Do(pix, width, height, stride, format)
	}
	return pix, channels, stride
}

// labToGray is the documented Lab fallback: when no Lab-to-BGR
// transform is available, the image is reported as 1-channel
// grayscale built from each pixel's L byte alone, rather than leaving
// raw L/a/b bytes mis-tagged as BGR.
func labToGray(pix []byte, width, height, stride, channels int) ([]byte, int, int) {
	grayStride := padTo4(width)
	gray := make([]byte, grayStride*height)
	for y := 0; y < height; y++ {
		srcRow := pix[y*stride : y*stride+width*channels]
		dstRow := gray[y*grayStride : y*grayStride+width]
		for x := 0; x < width; x++ {
			dstRow[x] = srcRow[x*channels]
		}
	}
	return gray, 1, grayStride
}

// alphaComposite flattens each BGRA pixel against background in
// place, writing the BGR result back into the same 4 bytes with the
// alpha byte zeroed. Channel count and stride are unchanged: the
// pixel buffer keeps its allocation-time shape, the same way the
// original reader never shrinks nChannels after compositing.
func alphaComposite(pix []byte, width, height, stride int, background uint32) {
	for y := 0; y < height; y++ {
		row := pix[y*stride : y*stride+width*4]
		for x := 0; x < width; x++ {
			px := row[x*4 : x*4+4]
			b, g, r, a := uint32(px[0]), uint32(px[1]), uint32(px[2]), uint32(px[3])
			pixel := compositor.Pixel(b<<24 | g<<16 | r<<8 | a)
			out := compositor.AlphaBlendBackground(pixel, compositor.Background(background))
			px[0] = byte(out >> 16)
			px[1] = byte(out >> 8)
			px[2] = byte(out)
			px[3] = 0
		}
	}
}
