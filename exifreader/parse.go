package exifreader

import (
	"bytes"
	"encoding/binary"
	"time"

	"golang.org/x/text/encoding/unicode"

	"github.com/For0xLC/jpegview/cursor"
)

var exifLiteral = []byte("Exif\x00\x00")

// ifdNamespace identifies which directory a tag entry was read from,
// mirroring the "IFD0"/"ExifIFDP"/"GPSInfoIFD"/"IFD1" namespaces a
// callback-style walker would report.
type ifdNamespace int

const (
	nsIFD0 ifdNamespace = iota
	nsEXIF
	nsGPS
	nsIFD1
)

// Parse walks the APP1 segment in app1 and returns a populated Record.
// A Record is always returned, even when the buffer is malformed or
// truncated; fields that could not be read are left absent rather than
// failing the call. The returned Record borrows app1: the buffer must
// remain live and unmoved for the Record's lifetime, since the
// mutators write back into it.
func Parse(app1 []byte, format ImageFormat, opts Options) *Record {
	r := newAbsentRecord(app1, format, opts)

	tiffStart, app1SizeOff, ok := locateTIFFHeader(app1, format)
	if !ok {
		return r
	}
	r.tiffStart = tiffStart
	r.app1SizeFieldOffset = app1SizeOff

	cur := cursor.FromBytes(app1)
	if err := cur.SeekStart(int64(tiffStart)); err != nil {
		return r
	}

	order, ok := readByteOrderMarker(cur)
	if !ok {
		return r
	}
	cur.SetOrder(order)
	r.byteOrder = order

	magic, err := cur.U16()
	if err != nil || magic != 0x002A {
		return r
	}

	ifd0OffRel, err := cur.U32()
	if err != nil {
		return r
	}
	if err := cur.SeekStart(int64(tiffStart) + int64(ifd0OffRel)); err != nil {
		return r
	}

	r.decodeIFD(cur, nsIFD0)

	r.ifd0NextOffset = int(cur.Pos64())
	ifd1OffRel, err := cur.U32()
	if err == nil && ifd1OffRel != 0 {
		if err := cur.SeekStart(int64(tiffStart) + int64(ifd1OffRel)); err == nil {
			r.decodeIFD(cur, nsIFD1)
		}
	}

	r.finalizeGPS()

	return r
}

// locateTIFFHeader finds the offset of the "II"/"MM" TIFF header
// within app1. For a native JPEG APP1 segment this follows the
// literal "Exif\x00\x00"; formats that synthesize the APP1 wrapper may
// hand over a buffer that starts directly at the TIFF header. It also
// returns the offset of the 2-byte APP1 size field when a real APP1
// marker is present, or -1 otherwise.
func locateTIFFHeader(app1 []byte, format ImageFormat) (tiffStart int, app1SizeOff int, ok bool) {
	app1SizeOff = -1
	if len(app1) >= 4 && app1[0] == 0xFF && app1[1] == 0xE1 {
		app1SizeOff = 2
	}
	if idx := bytes.Index(app1, exifLiteral); idx >= 0 {
		tiffStart = idx + len(exifLiteral)
	} else {
		tiffStart = 0
	}
	if tiffStart+8 > len(app1) {
		return 0, -1, false
	}
	switch binary.BigEndian.Uint16(app1[tiffStart:]) {
	case 0x4949, 0x4D4D:
		return tiffStart, app1SizeOff, true
	default:
		return 0, -1, false
	}
}

func readByteOrderMarker(cur *cursor.ByteCursor) (binary.ByteOrder, bool) {
	tag, err := cur.U16()
	if err != nil {
		return nil, false
	}
	switch tag {
	case 0x4D4D:
		return binary.BigEndian, true
	case 0x4949:
		return binary.LittleEndian, true
	default:
		return nil, false
	}
}

func (r *Record) decodeIFD(cur *cursor.ByteCursor, ns ifdNamespace) {
	numEntries, err := cur.U16()
	if err != nil {
		return
	}
	for i := 0; i < int(numEntries); i++ {
		if err := r.decodeEntry(cur, ns); err != nil {
			return
		}
	}
}

// decodeEntry reads one 12-byte IFD entry and dispatches its value to
// the matching Record field. It returns an error only when the
// underlying read ran past the buffer end, which aborts the rest of
// the enclosing IFD but never the whole Record.
func (r *Record) decodeEntry(cur *cursor.ByteCursor, ns ifdNamespace) error {
	tagID, err := cur.U16()
	if err != nil {
		return err
	}
	dataType, err := cur.U16()
	if err != nil {
		return err
	}
	count, err := cur.U32()
	if err != nil {
		return err
	}

	typ := exifType(dataType)
	size, known := exifTypeSize[typ]
	if !known {
		r.opts.warnf("exifreader: unknown tag type %d for tag 0x%x, skipping", dataType, tagID)
		return cur.SeekRel(4)
	}

	valLen := uint64(size) * uint64(count)
	valueFieldOff := cur.Pos64()

	var dataOff int64
	if valLen <= 4 {
		dataOff = valueFieldOff
		if err := cur.SeekRel(4); err != nil {
			return err
		}
	} else {
		offRel, err := cur.U32()
		if err != nil {
			return err
		}
		dataOff = int64(r.tiffStart) + int64(offRel)
	}

	r.handleTag(cur, ns, int(tagID), typ, count, valLen, dataOff)
	return nil
}

func (r *Record) handleTag(cur *cursor.ByteCursor, ns ifdNamespace, tagID int, typ exifType, count uint32, valLen uint64, dataOff int64) {
	switch ns {
	case nsIFD0:
		r.handleIFD0Tag(cur, tagID, typ, count, valLen, dataOff)
	case nsEXIF:
		r.handleEXIFTag(tagID, typ, count, valLen, dataOff)
	case nsGPS:
		r.handleGPSTag(tagID, typ, count, dataOff)
	case nsIFD1:
		r.handleIFD1Tag(tagID, typ, dataOff)
	}
}

func (r *Record) handleIFD0Tag(cur *cursor.ByteCursor, tagID int, typ exifType, count uint32, valLen uint64, dataOff int64) {
	switch tagID {
	case tagMake:
		r.make = r.readASCII(dataOff, count)
		r.updateCameraModel()
	case tagModel:
		r.model = r.readASCII(dataOff, count)
		r.updateCameraModel()
	case tagImageDescription:
		r.imageDescription = r.readASCII(dataOff, count)
	case tagSoftware:
		r.software = r.readASCII(dataOff, count)
	case tagXPComment:
		r.xpComment = r.readUTF16LE(dataOff, int(valLen))
	case tagDateTime:
		r.dateTime = r.parseDateTime(r.readASCII(dataOff, count))
	case tagOrientation:
		if v, ok := r.readScalarAsU32(dataOff, typ); ok {
			r.orientation = int(v)
			r.orientationValueOffset = int(dataOff)
		}
	case tagExifIFDPointer:
		if off, ok := r.readU32Scalar(dataOff); ok {
			r.recurseIFD(cur, nsEXIF, off)
		}
	case tagGPSInfoIFDPointer:
		if off, ok := r.readU32Scalar(dataOff); ok {
			r.recurseIFD(cur, nsGPS, off)
		}
	}
}

func (r *Record) handleEXIFTag(tagID int, typ exifType, count uint32, valLen uint64, dataOff int64) {
	switch tagID {
	case tagDateTimeOriginal:
		r.acquisitionDate = r.parseDateTime(r.readASCII(dataOff, count))
	case tagExposureTime:
		if v, ok := r.readRational(dataOff); ok {
			r.exposureTime, r.exposureTimePresent = v, true
		}
	case tagFNumber:
		if v, ok := r.readRational(dataOff); ok {
			r.fNumber = v.Float64()
		}
	case tagExposureProgram:
		if v, ok := r.readScalarAsU32(dataOff, typ); ok {
			r.exposureProgram = int(v)
		}
	case tagISOSpeedRatings:
		if v, ok := r.readScalarAsU32(dataOff, typ); ok {
			r.isoSpeed = int(v)
		}
	case tagExposureBias:
		if v, ok := r.readSignedRational(dataOff); ok {
			r.exposureBias = v.Float64()
		}
	case tagMeteringMode:
		if v, ok := r.readScalarAsU32(dataOff, typ); ok {
			r.meteringMode = int(v)
		}
	case tagFlash:
		if v, ok := r.readScalarAsU32(dataOff, typ); ok {
			r.flashPresent = true
			r.flashFired = v&0x1 != 0
		}
	case tagFocalLength:
		if v, ok := r.readRational(dataOff); ok {
			r.focalLength = v.Float64()
		}
	case tagUserComment:
		r.userComment = r.readUserComment(dataOff, int(valLen))
	case tagWhiteBalance:
		if v, ok := r.readScalarAsU32(dataOff, typ); ok {
			r.whiteBalance = int(v)
		}
	case tagSceneCaptureType:
		if v, ok := r.readScalarAsU32(dataOff, typ); ok {
			r.sceneCaptureType = int(v)
		}
	case tagLensModel:
		r.lensModel = r.readASCII(dataOff, count)
	}
}

func (r *Record) handleGPSTag(tagID int, typ exifType, count uint32, dataOff int64) {
	switch tagID {
	case tagGPSLatitudeRef:
		r.gpsLatRef = r.readASCII(dataOff, count)
	case tagGPSLatitude:
		r.gpsLatVals = r.readRationalTriple(dataOff)
		r.gpsLatSet = true
	case tagGPSLongitudeRef:
		r.gpsLongRef = r.readASCII(dataOff, count)
	case tagGPSLongitude:
		r.gpsLongVals = r.readRationalTriple(dataOff)
		r.gpsLongSet = true
	case tagGPSAltitudeRef:
		r.gpsAltRef = r.readASCII(dataOff, count)
	case tagGPSAltitude:
		if v, ok := r.readRational(dataOff); ok {
			alt := v.Float64()
			if r.gpsAltRef == "\x01" {
				alt = -alt
			}
			r.gpsAltitude = alt
		}
	}
}

func (r *Record) handleIFD1Tag(tagID int, typ exifType, dataOff int64) {
	switch tagID {
	case tagCompression:
		if v, ok := r.readScalarAsU32(dataOff, typ); ok {
			r.thumbIsJPEG = v == 6
		}
	case tagJPEGInterchangeFormat:
		if off, ok := r.readU32Scalar(dataOff); ok {
			r.thumbOffset = r.tiffStart + int(off)
			r.jpegOffsetFieldAbs = int(dataOff)
		}
	case tagJPEGInterchangeFormatLength:
		if v, ok := r.readU32Scalar(dataOff); ok {
			r.thumbLength = v
			r.jpegLengthFieldAbs = int(dataOff)
			if r.thumbIsJPEG && r.thumbOffset >= 0 {
				r.thumbPresent = true
			}
		}
	case tagImageWidth:
		if v, ok := r.readScalarAsU32(dataOff, typ); ok {
			r.thumbWidth = int(v)
			r.widthFieldAbs, r.widthFieldType = int(dataOff), typ
		}
	case tagImageLength:
		if v, ok := r.readScalarAsU32(dataOff, typ); ok {
			r.thumbHeight = int(v)
			r.heightFieldAbs, r.heightFieldType = int(dataOff), typ
		}
	}
}

// recurseIFD decodes the sub-IFD at the given TIFF-relative offset,
// then restores the cursor to the position it had before the call --
// a sub-IFD is reached through a pointer tag mid-walk of the parent
// directory, so the parent's walk must resume exactly where it left
// off.
func (r *Record) recurseIFD(cur *cursor.ByteCursor, ns ifdNamespace, offRel uint32) {
	savedPos := cur.Pos64()
	defer cur.SeekStart(savedPos)

	if err := cur.SeekStart(int64(r.tiffStart) + int64(offRel)); err != nil {
		r.opts.warnf("exifreader: sub-IFD offset 0x%x past end of buffer", offRel)
		return
	}
	r.decodeIFD(cur, ns)
}

func (r *Record) finalizeGPS() {
	if r.gpsLatSet && r.gpsLatRef != "" {
		r.gpsLatitude = NewGPSCoordinate(r.gpsLatRef, r.gpsLatVals[0], r.gpsLatVals[1], r.gpsLatVals[2])
	}
	if r.gpsLongSet && r.gpsLongRef != "" {
		r.gpsLongitude = NewGPSCoordinate(r.gpsLongRef, r.gpsLongVals[0], r.gpsLongVals[1], r.gpsLongVals[2])
	}
}

func (r *Record) parseDateTime(s string) time.Time {
	t, err := time.Parse("2006:01:02 15:04:05", s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// --- bounds-checked value readers over the borrowed app1 buffer ---

func (r *Record) bytesAt(off int64, n int) ([]byte, bool) {
	if off < 0 || n < 0 {
		return nil, false
	}
	end := off + int64(n)
	if end > int64(len(r.app1)) {
		return nil, false
	}
	return r.app1[off:end], true
}

func (r *Record) readU16Scalar(off int64) (uint16, bool) {
	b, ok := r.bytesAt(off, 2)
	if !ok {
		return 0, false
	}
	return r.byteOrder.Uint16(b), true
}

func (r *Record) readU32Scalar(off int64) (uint32, bool) {
	b, ok := r.bytesAt(off, 4)
	if !ok {
		return 0, false
	}
	return r.byteOrder.Uint32(b), true
}

// readScalarAsU32 reads a SHORT or LONG tag value uniformly as a u32,
// the shape most IFD1/EXIF scalar integer tags come in.
func (r *Record) readScalarAsU32(off int64, typ exifType) (uint32, bool) {
	switch typ {
	case typeUnsignedShort, typeSignedShort:
		v, ok := r.readU16Scalar(off)
		return uint32(v), ok
	case typeUnsignedByte, typeSignedByte, typeUndef:
		b, ok := r.bytesAt(off, 1)
		if !ok {
			return 0, false
		}
		return uint32(b[0]), true
	default:
		return r.readU32Scalar(off)
	}
}

func (r *Record) readASCII(off int64, count uint32) string {
	b, ok := r.bytesAt(off, int(count))
	if !ok {
		return ""
	}
	return string(trimNulls(b))
}

func (r *Record) readUTF16LE(off int64, byteLen int) string {
	b, ok := r.bytesAt(off, byteLen)
	if !ok {
		return ""
	}
	return decodeUTF16LE(b)
}

func (r *Record) readUserComment(off int64, byteLen int) string {
	b, ok := r.bytesAt(off, byteLen)
	if !ok || len(b) < 8 {
		return ""
	}
	header, payload := string(b[:8]), b[8:]
	switch {
	case hasCodePrefix(header, "UNICODE"):
		return decodeUTF16LE(payload)
	default:
		return string(trimNulls(payload))
	}
}

func hasCodePrefix(header, code string) bool {
	return len(header) >= len(code) && header[:len(code)] == code
}

func decodeUTF16LE(b []byte) string {
	decoded, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(b)
	if err != nil {
		return ""
	}
	return string(trimNulls(decoded))
}

func trimNulls(b []byte) []byte {
	for len(b) > 0 && b[len(b)-1] == 0 {
		b = b[:len(b)-1]
	}
	return b
}

func (r *Record) readRational(off int64) (Rational, bool) {
	b, ok := r.bytesAt(off, 8)
	if !ok {
		return Rational{}, false
	}
	return NewRational(r.byteOrder.Uint32(b[:4]), r.byteOrder.Uint32(b[4:]))
}

func (r *Record) readSignedRational(off int64) (SignedRational, bool) {
	b, ok := r.bytesAt(off, 8)
	if !ok {
		return SignedRational{}, false
	}
	return NewSignedRational(int32(r.byteOrder.Uint32(b[:4])), int32(r.byteOrder.Uint32(b[4:])))
}

// readRationalTriple reads three consecutive rationals (24 bytes),
// used for the GPS degrees/minutes/seconds tags. An absent component
// (denominator 0) reads as 0.0 rather than aborting the triple.
func (r *Record) readRationalTriple(off int64) [3]float64 {
	var out [3]float64
	for i := 0; i < 3; i++ {
		if v, ok := r.readRational(off + int64(i)*8); ok {
			out[i] = v.Float64()
		}
	}
	return out
}
