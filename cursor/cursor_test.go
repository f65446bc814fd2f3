package cursor

import (
	"encoding/binary"
	"os"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestFromBytesReadHelpers(t *testing.T) {
	c := qt.New(t)

	b := []byte{0x00, 0x01, 0x00, 0x02, 0x00, 0x00, 0x00, 0x03, 0xFF}
	cur := FromBytes(b)
	cur.SetOrder(binary.BigEndian)

	v16, err := cur.U16()
	c.Assert(err, qt.IsNil)
	c.Assert(v16, qt.Equals, uint16(1))

	v32, err := cur.U32()
	c.Assert(err, qt.IsNil)
	c.Assert(v32, qt.Equals, uint32(2))

	v8, err := cur.U8()
	c.Assert(err, qt.IsNil)
	c.Assert(v8, qt.Equals, uint8(0))
}

func TestShortReadFails(t *testing.T) {
	c := qt.New(t)

	cur := FromBytes([]byte{0x01, 0x02})
	_, err := cur.U32()
	c.Assert(err, qt.IsNotNil)
}

func TestSeekStartBounds(t *testing.T) {
	c := qt.New(t)

	cur := FromBytes(make([]byte, 10))
	c.Assert(cur.SeekStart(5), qt.IsNil)
	c.Assert(cur.Tell(), qt.Equals, uint32(5))
	c.Assert(cur.SeekStart(11), qt.IsNotNil)
	c.Assert(cur.SeekStart(-1), qt.IsNotNil)
}

func TestSeekRelNegative(t *testing.T) {
	c := qt.New(t)

	cur := FromBytes(make([]byte, 10))
	c.Assert(cur.SeekStart(5), qt.IsNil)
	c.Assert(cur.SeekRel(-3), qt.IsNil)
	c.Assert(cur.Tell(), qt.Equals, uint32(2))
}

func TestFromFile(t *testing.T) {
	c := qt.New(t)

	f, err := os.CreateTemp(t.TempDir(), "cursor")
	c.Assert(err, qt.IsNil)
	defer f.Close()

	_, err = f.Write([]byte{0x00, 0x00, 0x00, 0x2A})
	c.Assert(err, qt.IsNil)

	info, err := f.Stat()
	c.Assert(err, qt.IsNil)

	cur := FromFile(f, info.Size())
	v, err := cur.U32()
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.Equals, uint32(42))
}

// No out-of-bounds reads: for every truncated prefix of a buffer, a
// multi-byte read at the end must fail rather than return a short
// value.
func TestNoOutOfBoundsReads(t *testing.T) {
	c := qt.New(t)

	full := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	for n := 0; n < len(full); n++ {
		cur := FromBytes(full[:n])
		read := 0
		for {
			if _, err := cur.U8(); err != nil {
				break
			}
			read++
			if read > n {
				c.Fatalf("read past end of %d-byte prefix", n)
			}
		}
		c.Assert(read, qt.Equals, n)
	}
}
