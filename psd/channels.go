package psd

import (
	"encoding/binary"
	"errors"

	"github.com/For0xLC/jpegview/internal/errs"
)

var (
	errShortChannelTable = errors.New("row byte-count table runs past end of channel data")
	errShortChannelRow   = errors.New("channel row runs past end of channel data")
)

// targetChannelOrder returns, for each of the first `channels` planes
// stored on disk, the interleaved byte offset it is written to. Lab
// mode keeps planes in file order; every other multi-channel mode
// reverses RGB into BGR (and leaves a trailing alpha/K plane in
// place), matching the permutation the original decoder computes as
// (-channel-2) mod channels under unsigned wraparound.
func targetChannelOrder(channels int, colorMode ColorMode) []int {
	if colorMode == ModeLab {
		order := make([]int, channels)
		for i := range order {
			order[i] = i
		}
		return order
	}
	switch channels {
	case 1:
		return []int{0}
	case 3:
		return []int{2, 1, 0}
	case 4:
		return []int{2, 1, 0, 3}
	default:
		order := make([]int, channels)
		for i := range order {
			order[i] = i
		}
		return order
	}
}

func scale16to8(v uint16) uint8 {
	return uint8((uint32(v)*255 + 32768) / 65535)
}

// decodeChannels decodes the merged image's on-disk channel planes
// (the first `channels` of h.realChannels) into an interleaved,
// row-padded pixel buffer.
func decodeChannels(data []byte, width, height, channels, stride int, h header, method compressionMethod) ([]byte, error) {
	pix := make([]byte, stride*height)
	bytesPerSample := 1
	if h.depth == 16 {
		bytesPerSample = 2
	}
	targets := targetChannelOrder(channels, h.colorMode)

	if method == compressionNone {
		pos := 0
		for ch := 0; ch < channels; ch++ {
			target := targets[ch]
			for row := 0; row < height; row++ {
				rowLen := width * bytesPerSample
				if pos+rowLen > len(data) {
					return nil, errs.New(errs.Truncated, errShortChannelRow)
				}
				writeRow(pix, data[pos:pos+rowLen], row, stride, channels, target, bytesPerSample)
				pos += rowLen
			}
		}
		return pix, nil
	}

	realChannels := int(h.realChannels)
	entryWidth := 2 * int(h.version)
	tableSize := height * realChannels * entryWidth
	if tableSize > len(data) {
		return nil, errs.New(errs.Truncated, errShortChannelTable)
	}
	table := data[:tableSize]
	pos := tableSize

	for ch := 0; ch < channels; ch++ {
		target := targets[ch]
		for row := 0; row < height; row++ {
			entryIdx := (ch*height + row) * entryWidth
			var rowLen int
			if h.version == 2 {
				rowLen = int(binary.BigEndian.Uint32(table[entryIdx : entryIdx+4]))
			} else {
				rowLen = int(binary.BigEndian.Uint16(table[entryIdx : entryIdx+2]))
			}
			if pos+rowLen > len(data) {
				return nil, errs.New(errs.Truncated, errShortChannelRow)
			}
			rowSrc := data[pos : pos+rowLen]
			pos += rowLen

			decoded, _, err := packBitsDecode(rowSrc, width*bytesPerSample)
			if err != nil {
				return nil, err
			}
			writeRow(pix, decoded, row, stride, channels, target, bytesPerSample)
		}
	}
	return pix, nil
}

// writeRow scatters one decoded channel row into pix at byte offset
// target within each pixel, scaling 16-bit samples down to 8 bits.
func writeRow(pix, rowData []byte, row, stride, channels, target, bytesPerSample int) {
	base := row * stride
	if bytesPerSample == 1 {
		for col := 0; col < len(rowData); col++ {
			pix[base+col*channels+target] = rowData[col]
		}
		return
	}
	width := len(rowData) / 2
	for col := 0; col < width; col++ {
		v := binary.BigEndian.Uint16(rowData[col*2 : col*2+2])
		pix[base+col*channels+target] = scale16to8(v)
	}
}

// decodeBitmap decodes a 1-bit-per-pixel plane into an 8-bit grayscale
// buffer, inverting the bitmap's 1=black convention (bit set -> 0,
// bit clear -> 255).
func decodeBitmap(data []byte, width, height int, version uint16, method compressionMethod) ([]byte, error) {
	stride := padTo4(width)
	pix := make([]byte, stride*height)
	rowBytesPacked := (width + 7) / 8

	if method == compressionNone {
		if rowBytesPacked*height > len(data) {
			return nil, errs.New(errs.Truncated, errShortChannelRow)
		}
		for row := 0; row < height; row++ {
			src := data[row*rowBytesPacked : row*rowBytesPacked+rowBytesPacked]
			unpackBitsRow(pix[row*stride:row*stride+width], src, width)
		}
		return pix, nil
	}

	entryWidth := 2 * int(version)
	tableSize := height * entryWidth
	if tableSize > len(data) {
		return nil, errs.New(errs.Truncated, errShortChannelTable)
	}
	table := data[:tableSize]
	pos := tableSize

	for row := 0; row < height; row++ {
		entryIdx := row * entryWidth
		var rowLen int
		if version == 2 {
			rowLen = int(binary.BigEndian.Uint32(table[entryIdx : entryIdx+4]))
		} else {
			rowLen = int(binary.BigEndian.Uint16(table[entryIdx : entryIdx+2]))
		}
		if pos+rowLen > len(data) {
			return nil, errs.New(errs.Truncated, errShortChannelRow)
		}
		rowSrc := data[pos : pos+rowLen]
		pos += rowLen

		packed, _, err := packBitsDecode(rowSrc, rowBytesPacked)
		if err != nil {
			return nil, err
		}
		unpackBitsRow(pix[row*stride:row*stride+width], packed, width)
	}
	return pix, nil
}

func unpackBitsRow(dst, packed []byte, width int) {
	for col := 0; col < width; col++ {
		byteIdx := col / 8
		bitIdx := 7 - uint(col%8)
		bit := (packed[byteIdx] >> bitIdx) & 1
		if bit == 1 {
			dst[col] = 0
		} else {
			dst[col] = 255
		}
	}
}
