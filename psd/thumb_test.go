package psd

import (
	"bytes"
	"testing"

	"github.com/For0xLC/jpegview/cursor"
	qt "github.com/frankban/quicktest"
)

func resourceEntry(id uint16, payload []byte) []byte {
	var b []byte
	b = append(b, u32be(resourceSignature)...)
	b = append(b, u16be(id)...)
	b = append(b, 0x00, 0x00) // empty Pascal name, padded to even length
	b = append(b, u32be(uint32(len(payload)))...)
	b = append(b, payload...)
	if len(payload)%2 != 0 {
		b = append(b, 0x00)
	}
	return b
}

// scenario (f): a 0x040C thumbnail resource followed by a 0x0422 EXIF
// resource must yield both the extracted JPEG stream and the wrapped
// EXIF APP1 block.
func TestScanThumbnailResourcesExtractsThumbnailAndEXIF(t *testing.T) {
	c := qt.New(t)

	jpegLike := bytes.Repeat([]byte{0xAB}, 40)
	thumbPayload := append(make([]byte, thumbnailHeaderSize), jpegLike...)
	exifPayload := []byte{0x4D, 0x4D, 0x00, 0x2A, 0x00, 0x00, 0x00, 0x08}

	var data []byte
	data = append(data, resourceEntry(resourceThumbnail5, thumbPayload)...)
	data = append(data, resourceEntry(resourceEXIFData1, exifPayload)...)

	cur := cursor.FromBytes(data)
	jpegStream, exifApp1 := scanThumbnailResources(cur)

	c.Assert(jpegStream, qt.DeepEquals, jpegLike)
	// APP1 size field = len(exifPayload) + 8 = 16.
	c.Assert(exifApp1[:10], qt.DeepEquals, []byte{0xFF, 0xE1, 0x00, 0x10, 'E', 'x', 'i', 'f', 0x00, 0x00})
	c.Assert(exifApp1[10:], qt.DeepEquals, exifPayload)
}

// A later thumbnail resource (0x040C) must overwrite an earlier one
// (0x0409) seen first in the stream, since the original reader never
// guards against overwriting an already-set buffer.
func TestScanThumbnailResourcesLaterThumbnailSupersedes(t *testing.T) {
	c := qt.New(t)

	oldJPEG := bytes.Repeat([]byte{0x11}, 10)
	newJPEG := bytes.Repeat([]byte{0x22}, 20)

	var data []byte
	data = append(data, resourceEntry(resourceThumbnail4, append(make([]byte, thumbnailHeaderSize), oldJPEG...))...)
	data = append(data, resourceEntry(resourceThumbnail5, append(make([]byte, thumbnailHeaderSize), newJPEG...))...)

	cur := cursor.FromBytes(data)
	jpegStream, _ := scanThumbnailResources(cur)

	c.Assert(jpegStream, qt.DeepEquals, newJPEG)
}

// The first EXIF resource wins; a second one later in the stream is
// ignored.
func TestScanThumbnailResourcesFirstEXIFWins(t *testing.T) {
	c := qt.New(t)

	first := []byte{0x01, 0x02, 0x03}
	second := []byte{0x04, 0x05, 0x06}

	var data []byte
	data = append(data, resourceEntry(resourceEXIFData1, first)...)
	data = append(data, resourceEntry(resourceEXIFData3, second)...)

	cur := cursor.FromBytes(data)
	_, exifApp1 := scanThumbnailResources(cur)

	c.Assert(exifApp1[10:], qt.DeepEquals, first)
}

func TestScanThumbnailResourcesStopsOnGarbage(t *testing.T) {
	c := qt.New(t)

	data := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	cur := cursor.FromBytes(data)
	jpegStream, exifApp1 := scanThumbnailResources(cur)

	c.Assert(jpegStream, qt.IsNil)
	c.Assert(exifApp1, qt.IsNil)
}

func TestReadThumbNoThumbnailResourceIsUnsupported(t *testing.T) {
	c := qt.New(t)

	var data []byte
	data = append(data, psdHeader(1, 3, 2, 2, 8, ModeRGB)...)
	data = append(data, u32be(0)...) // color mode data size
	data = append(data, u32be(0)...) // resource section size field (value unused by ReadThumb)

	f := tempPSD(t, data)
	_, err := ReadThumb(f, Options{})
	c.Assert(err, qt.IsNotNil)
}
