package psd

import (
	"encoding/binary"

	"github.com/For0xLC/jpegview/cursor"
	"github.com/For0xLC/jpegview/internal/errs"
)

// resources holds everything the resource scan extracts out of the
// image-resources block, keyed by the fields the merged-image decode
// and the exifreader handoff need.
type resources struct {
	iccProfile []byte
	exifApp1   []byte
	useAlpha   bool

	// thumbnail-only fields, populated by scanThumbnailResources.
	thumbJPEG []byte
}

// scanResources walks the "8BIM" resource TLV stream starting at the
// cursor's current position through sectionEnd, dispatching the
// handful of resource IDs the merged-image decode cares about.
// useAlphaDefault seeds the alpha-identifiers default: true only when the
// output has 4 channels.
func scanResources(cur *cursor.ByteCursor, sectionEnd int64, colorMode ColorMode, useAlphaDefault bool, opts Options) (*resources, error) {
	res := &resources{useAlpha: useAlphaDefault}

	for cur.Pos64() < sectionEnd {
		sig, err := cur.U32()
		if err != nil {
			break
		}
		if sig != resourceSignature {
			break
		}

		id, err := cur.U16()
		if err != nil {
			break
		}
		strLen, err := cur.U8()
		if err != nil {
			break
		}
		if err := cur.SeekRel(int64(strLen | 1)); err != nil {
			break
		}

		size, err := cur.U32()
		if err != nil {
			break
		}
		payloadStart := cur.Pos64()
		if payloadStart+int64(size) > cur.Len() {
			return res, errs.Newf(errs.Truncated, "resource %#x size %d runs past end of file", id, size)
		}

		switch id {
		case resourceICCProfile:
			if colorMode == ModeRGB {
				payload, err := cur.ReadN(int(size))
				if err != nil {
					return res, errs.New(errs.Truncated, err)
				}
				res.iccProfile = payload
			}

		case resourceAlphaIDs:
			if res.useAlpha {
				payload, err := cur.ReadN(int(size))
				if err != nil {
					return res, errs.New(errs.Truncated, err)
				}
				res.useAlpha = false
				for i := 0; i+4 <= len(payload); i += 4 {
					if binary.BigEndian.Uint32(payload[i:i+4]) == 0 {
						res.useAlpha = true
						break
					}
				}
			}

		case resourceVersionInfo:
			if size >= 5 {
				payload, err := cur.ReadN(5)
				if err != nil {
					return res, errs.New(errs.Truncated, err)
				}
				if payload[4] == 0 {
					return res, errs.Newf(errs.MalformedHeader, "version-info resource declares no real merged data")
				}
			}

		case resourceEXIFData1, resourceEXIFData3:
			if res.exifApp1 == nil && size < 65526 {
				payload, err := cur.ReadN(int(size))
				if err != nil {
					return res, errs.New(errs.Truncated, err)
				}
				res.exifApp1 = wrapEXIFPayload(payload)
			}
		}

		padded := int64((size + 1) &^ 1)
		if err := cur.SeekStart(payloadStart + padded); err != nil {
			break
		}
	}

	return res, nil
}

// wrapEXIFPayload prefixes a raw EXIF resource payload with a
// synthetic APP1 marker and size field so it can be handed to
// exifreader.Parse unchanged -- PSD EXIF resources store everything
// after the "Exif\0\0" literal but never the JPEG APP1 header itself.
func wrapEXIFPayload(payload []byte) []byte {
	out := make([]byte, 0, 10+len(payload))
	out = append(out, app1Prefix...)
	binary.BigEndian.PutUint16(out[2:4], uint16(len(payload)+8))
	out = append(out, payload...)
	return out
}
