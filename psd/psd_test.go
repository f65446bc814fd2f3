package psd

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
)

func tempPSD(t *testing.T, data []byte) *os.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.psd")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func u32be(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func u16be(v uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return b
}

// psdHeader builds the fixed 26-byte header.
func psdHeader(version uint16, channels uint16, height, width uint32, depth uint16, colorMode ColorMode) []byte {
	var b []byte
	b = append(b, "8BPS"...)
	b = append(b, u16be(version)...)
	b = append(b, make([]byte, 6)...)
	b = append(b, u16be(channels)...)
	b = append(b, u32be(height)...)
	b = append(b, u32be(width)...)
	b = append(b, u16be(depth)...)
	b = append(b, u16be(uint16(colorMode))...)
	return b
}

// scenario (a): 3x2 RGB, 8-bit, uncompressed, 3 channels on disk.
func TestReadImageMinimalRGBUncompressed(t *testing.T) {
	c := qt.New(t)

	var data []byte
	data = append(data, psdHeader(1, 3, 2, 3, 8, ModeRGB)...)
	data = append(data, u32be(0)...) // color mode data size
	data = append(data, u32be(0)...) // resource section size
	data = append(data, u32be(0)...) // layer info size
	data = append(data, u16be(0)...) // compression: none

	rPlane := []byte{0x10, 0x11, 0x12, 0x13, 0x14, 0x15}
	gPlane := []byte{0x20, 0x21, 0x22, 0x23, 0x24, 0x25}
	bPlane := []byte{0x30, 0x31, 0x32, 0x33, 0x34, 0x35}
	data = append(data, rPlane...)
	data = append(data, gPlane...)
	data = append(data, bPlane...)

	f := tempPSD(t, data)
	img, err := ReadImage(f, Options{})
	c.Assert(err, qt.IsNil)
	c.Assert(img.Width, qt.Equals, 3)
	c.Assert(img.Height, qt.Equals, 2)
	c.Assert(img.Channels, qt.Equals, 3)
	c.Assert(img.Stride, qt.Equals, 12)

	// pixel(0,0) = (B00,G00,R00)
	c.Assert(img.Pix[0], qt.Equals, byte(0x30))
	c.Assert(img.Pix[1], qt.Equals, byte(0x20))
	c.Assert(img.Pix[2], qt.Equals, byte(0x10))
	// pixel(1,0) (row 0, col 1) = (B01,G01,R01)
	c.Assert(img.Pix[3], qt.Equals, byte(0x31))
	c.Assert(img.Pix[4], qt.Equals, byte(0x21))
	c.Assert(img.Pix[5], qt.Equals, byte(0x11))
}

// scenario (b): 4x1 Bitmap, uncompressed, inverted convention.
func TestReadImageBitmap1Bit(t *testing.T) {
	c := qt.New(t)

	var data []byte
	data = append(data, psdHeader(1, 1, 1, 4, 1, ModeBitmap)...)
	data = append(data, u32be(0)...)
	data = append(data, u32be(0)...)
	data = append(data, u32be(0)...)
	data = append(data, u16be(0)...)
	data = append(data, 0xA0) // binary 1010 0000

	f := tempPSD(t, data)
	img, err := ReadImage(f, Options{})
	c.Assert(err, qt.IsNil)
	c.Assert(img.Channels, qt.Equals, 1)
	c.Assert(img.Stride, qt.Equals, 4)
	c.Assert(img.Pix[:4], qt.DeepEquals, []byte{0, 255, 0, 255})
}

// scenario (e): layer count > 0 forces alpha off on a 4-channel RGB image.
func TestReadImageLayerCountForcesAlphaOff(t *testing.T) {
	c := qt.New(t)

	var data []byte
	data = append(data, psdHeader(1, 4, 1, 2, 8, ModeRGB)...)
	data = append(data, u32be(0)...) // color mode data size
	data = append(data, u32be(0)...) // resource section size, no alpha-ids resource

	// layer-info size = 6: 4-byte sub-size field (value irrelevant) + 2-byte layer count (1).
	data = append(data, u32be(6)...)
	data = append(data, u32be(0)...) // layer info sub-size, skipped unread
	data = append(data, u16be(1)...) // layer count = 1

	data = append(data, u16be(0)...) // compression: none

	r := []byte{0x10, 0x11}
	g := []byte{0x20, 0x21}
	b := []byte{0x30, 0x31}
	a := []byte{0x40, 0x41}
	data = append(data, r...)
	data = append(data, g...)
	data = append(data, b...)
	data = append(data, a...)

	f := tempPSD(t, data)
	img, err := ReadImage(f, Options{})
	c.Assert(err, qt.IsNil)
	c.Assert(img.Channels, qt.Equals, 3)
	c.Assert(img.Pix[0], qt.Equals, byte(0x30))
	c.Assert(img.Pix[1], qt.Equals, byte(0x20))
	c.Assert(img.Pix[2], qt.Equals, byte(0x10))
}

// scenario (d): RLE row-byte-count table claims 5 bytes, only 3 follow.
func TestReadImageRLETruncatedRowIsTruncatedError(t *testing.T) {
	c := qt.New(t)

	var data []byte
	data = append(data, psdHeader(1, 1, 1, 4, 8, ModeGrayscale)...)
	data = append(data, u32be(0)...)
	data = append(data, u32be(0)...)
	data = append(data, u32be(0)...)
	data = append(data, u16be(1)...) // compression: RLE

	data = append(data, u16be(5)...)       // row byte count table: claims 5 bytes
	data = append(data, []byte{1, 2, 3}...) // only 3 bytes of PackBits follow

	f := tempPSD(t, data)
	img, err := ReadImage(f, Options{})
	c.Assert(img, qt.IsNil)
	c.Assert(err, qt.IsNotNil)

	var derr interface{ Error() string }
	c.Assert(err, qt.Implements, &derr)
}

func TestReadImageStrideIsAlwaysPaddedTo4(t *testing.T) {
	c := qt.New(t)

	for _, width := range []uint32{1, 2, 3, 4, 5, 9, 17} {
		var data []byte
		data = append(data, psdHeader(1, 3, 1, width, 8, ModeRGB)...)
		data = append(data, u32be(0)...)
		data = append(data, u32be(0)...)
		data = append(data, u32be(0)...)
		data = append(data, u16be(0)...)
		plane := make([]byte, width)
		data = append(data, plane...)
		data = append(data, plane...)
		data = append(data, plane...)

		f := tempPSD(t, data)
		img, err := ReadImage(f, Options{})
		c.Assert(err, qt.IsNil)
		want := (int(width)*3 + 3) &^ 3
		c.Assert(img.Stride, qt.Equals, want)
	}
}

func TestReadImageTruncatedHeaderNeverPanics(t *testing.T) {
	full := psdHeader(1, 3, 2, 3, 8, ModeRGB)
	for n := 0; n <= len(full); n++ {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("panic at prefix length %d: %v", n, r)
				}
			}()
			f := tempPSD(t, full[:n])
			_, _ = ReadImage(f, Options{})
		}()
	}
}
