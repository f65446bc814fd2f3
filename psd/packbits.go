package psd

import (
	"github.com/For0xLC/jpegview/internal/errs"
)

// packBitsDecode decodes a single PackBits-compressed row from src,
// appending exactly outLen decoded bytes. It stops as soon as outLen
// bytes have been produced, leaving any trailing opcode in src
// unconsumed -- real PSD encoders never emit one, but a malformed file
// might, and silently ignoring it matches the original reader's
// per-row width-bounded loop.
func packBitsDecode(src []byte, outLen int) ([]byte, int, error) {
	out := make([]byte, 0, outLen)
	pos := 0

	for len(out) < outLen {
		if pos >= len(src) {
			return nil, pos, errs.New(errs.Truncated, errShortPackBits)
		}
		c := int8(src[pos])
		pos++

		switch {
		case c >= 0:
			n := int(c) + 1
			if pos+n > len(src) {
				return nil, pos, errs.New(errs.Truncated, errShortPackBits)
			}
			remaining := outLen - len(out)
			if n > remaining {
				n = remaining
			}
			out = append(out, src[pos:pos+n]...)
			pos += n
		case c != -128:
			n := 257 - int(uint8(c))
			if pos >= len(src) {
				return nil, pos, errs.New(errs.Truncated, errShortPackBits)
			}
			v := src[pos]
			pos++
			remaining := outLen - len(out)
			if n > remaining {
				n = remaining
			}
			for i := 0; i < n; i++ {
				out = append(out, v)
			}
		default:
			// c == -128 (0x80): no-op opcode.
		}
	}

	return out, pos, nil
}

var errShortPackBits = errPackBitsTruncated{}

type errPackBitsTruncated struct{}

func (errPackBitsTruncated) Error() string { return "packbits: run extends past end of channel data" }
