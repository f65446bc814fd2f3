package psd

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

// packBitsEncodeLiteral is a minimal reference encoder used only to build
// round-trip fixtures; it always emits literal runs, never repeat runs.
func packBitsEncodeLiteral(data []byte) []byte {
	var out []byte
	for i := 0; i < len(data); {
		n := len(data) - i
		if n > 128 {
			n = 128
		}
		out = append(out, byte(n-1))
		out = append(out, data[i:i+n]...)
		i += n
	}
	return out
}

func TestPackBitsDecodeLiteralRoundTrip(t *testing.T) {
	c := qt.New(t)

	want := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	encoded := packBitsEncodeLiteral(want)
	got, consumed, err := packBitsDecode(encoded, len(want))
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.DeepEquals, want)
	c.Assert(consumed, qt.Equals, len(encoded))
}

func TestPackBitsDecodeRepeatRun(t *testing.T) {
	c := qt.New(t)

	// opcode -3 (signed byte 0xFD) repeats the next byte 4 times: 257-253=4.
	src := []byte{0xFD, 0x7F}
	got, consumed, err := packBitsDecode(src, 4)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.DeepEquals, []byte{0x7F, 0x7F, 0x7F, 0x7F})
	c.Assert(consumed, qt.Equals, 2)
}

func TestPackBitsDecodeNoOpByteIsSkipped(t *testing.T) {
	c := qt.New(t)

	// 0x80 (-128) is a no-op, followed by a 2-byte literal run.
	src := []byte{0x80, 0x01, 0xAA, 0xBB}
	got, _, err := packBitsDecode(src, 2)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.DeepEquals, []byte{0xAA, 0xBB})
}

func TestPackBitsDecodeStopsExactlyAtOutLen(t *testing.T) {
	c := qt.New(t)

	// A single repeat run longer than outLen must be truncated to outLen,
	// matching the original decoder's per-row width-bounded loop.
	src := []byte{0xF0, 0x55} // repeat run of 17 bytes (257-240=17)
	got, _, err := packBitsDecode(src, 5)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.HasLen, 5)
	for _, b := range got {
		c.Assert(b, qt.Equals, byte(0x55))
	}
}

func TestPackBitsDecodeTruncatedLiteralErrors(t *testing.T) {
	c := qt.New(t)

	src := []byte{0x04, 0x01, 0x02} // claims 5 literal bytes, only 2 follow
	_, _, err := packBitsDecode(src, 5)
	c.Assert(err, qt.IsNotNil)
}

func TestPackBitsDecodeTruncatedRepeatErrors(t *testing.T) {
	c := qt.New(t)

	src := []byte{0xFE} // repeat opcode with no following value byte
	_, _, err := packBitsDecode(src, 2)
	c.Assert(err, qt.IsNotNil)
}

func TestScale16To8Endpoints(t *testing.T) {
	c := qt.New(t)

	c.Assert(scale16to8(0), qt.Equals, uint8(0))
	c.Assert(scale16to8(65535), qt.Equals, uint8(255))
}

func TestScale16To8IsMonotonic(t *testing.T) {
	c := qt.New(t)

	prev := scale16to8(0)
	for _, v := range []uint16{1, 100, 1000, 10000, 32768, 50000, 65000, 65535} {
		cur := scale16to8(v)
		c.Assert(cur >= prev, qt.IsTrue)
		prev = cur
	}
}
