package exifreader

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

// minimalApp1 is the literal little-endian IFD0-with-Orientation=6
// sample from the end-to-end test scenarios: APP1 marker + size,
// "Exif\0\0", an "II" TIFF header, a 1-entry IFD0 holding Orientation,
// and a zero next-IFD pointer.
func minimalApp1() []byte {
	return []byte{
		0xFF, 0xE1, 0x00, 0x1C,
		0x45, 0x78, 0x69, 0x66, 0x00, 0x00,
		0x49, 0x49, 0x2A, 0x00,
		0x08, 0x00, 0x00, 0x00,
		0x01, 0x00,
		0x12, 0x01, 0x03, 0x00, 0x01, 0x00, 0x00, 0x00, 0x06, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
	}
}

func TestParseMinimalOrientation(t *testing.T) {
	c := qt.New(t)

	rec := Parse(minimalApp1(), FormatJPEG, Options{})

	orientation, present := rec.Orientation()
	c.Assert(present, qt.IsTrue)
	c.Assert(orientation, qt.Equals, 6)

	_, present = rec.CameraModel()
	c.Assert(present, qt.IsFalse)
	_, present = rec.GPSLatitude()
	c.Assert(present, qt.IsFalse)
	_, present = rec.ExposureTime()
	c.Assert(present, qt.IsFalse)
}

// EXIF mutator idempotence: parsing an APP1, calling WriteOrientation,
// and re-parsing yields a record with the new orientation and every
// other field unchanged.
func TestWriteOrientationIdempotence(t *testing.T) {
	c := qt.New(t)

	buf := minimalApp1()
	rec := Parse(buf, FormatJPEG, Options{})

	ok := rec.WriteOrientation(1)
	c.Assert(ok, qt.IsTrue)
	c.Assert(buf[28], qt.Equals, byte(0x01))

	reparsed := Parse(buf, FormatJPEG, Options{})
	orientation, present := reparsed.Orientation()
	c.Assert(present, qt.IsTrue)
	c.Assert(orientation, qt.Equals, 1)

	_, present = reparsed.CameraModel()
	c.Assert(present, qt.IsFalse)
}

func TestWriteOrientationAbsentTagFails(t *testing.T) {
	c := qt.New(t)

	buf := []byte{
		0x49, 0x49, 0x2A, 0x00,
		0x08, 0x00, 0x00, 0x00,
		0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
	}
	rec := Parse(buf, FormatRAW, Options{})
	c.Assert(rec.WriteOrientation(3), qt.IsFalse)
}

func TestParseTruncatedBufferNeverPanics(t *testing.T) {
	c := qt.New(t)

	full := minimalApp1()
	for n := 0; n <= len(full); n++ {
		rec := Parse(full[:n], FormatJPEG, Options{})
		c.Assert(rec, qt.IsNotNil)
	}
}

func TestParseMalformedHeaderReturnsAbsentRecord(t *testing.T) {
	c := qt.New(t)

	rec := Parse([]byte("not an exif block at all"), FormatJPEG, Options{})
	_, present := rec.Orientation()
	c.Assert(present, qt.IsFalse)
}
