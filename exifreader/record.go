package exifreader

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"time"
)

// Record is the aggregate of everything recognised while walking an
// APP1 segment. A Record is always returned from Parse, even on a
// malformed or truncated input; fields that could not be read are left
// at their absent value rather than failing the whole parse.
//
// Record borrows the app1 slice passed to Parse rather than copying
// it: the three mutators rewrite bytes in that slice directly, so the
// buffer must outlive the Record.
type Record struct {
	app1      []byte
	format    ImageFormat
	opts      Options
	tiffStart int
	byteOrder binary.ByteOrder

	make, model      string
	cameraModel      string
	userComment      string
	imageDescription string
	software         string
	xpComment        string
	lensModel        string

	acquisitionDate time.Time
	dateTime        time.Time

	exposureTime        Rational
	exposureTimePresent bool

	exposureBias float64
	focalLength  float64
	fNumber      float64

	isoSpeed          int
	exposureProgram   int
	meteringMode      int
	whiteBalance      int
	sceneCaptureType  int
	orientation       int

	flashPresent bool
	flashFired   bool

	thumbPresent bool
	thumbIsJPEG  bool
	thumbOffset  int // absolute offset within app1, -1 if absent
	thumbLength  uint32
	thumbWidth   int
	thumbHeight  int

	gpsLatitude  *GPSCoordinate
	gpsLongitude *GPSCoordinate
	gpsAltitude  float64

	gpsLatRef, gpsLongRef string
	gpsLatSet, gpsLongSet bool
	gpsLatVals, gpsLongVals [3]float64
	gpsAltRef string

	orientationValueOffset int
	ifd0NextOffset          int
	app1SizeFieldOffset     int

	jpegOffsetFieldAbs int
	jpegLengthFieldAbs int
	widthFieldAbs       int
	heightFieldAbs      int
	widthFieldType      exifType
	heightFieldType     exifType
}

func newAbsentRecord(app1 []byte, format ImageFormat, opts Options) *Record {
	return &Record{
		app1:                   app1,
		format:                 format,
		opts:                   opts,
		exposureBias:           math.NaN(),
		focalLength:            math.NaN(),
		fNumber:                math.NaN(),
		gpsAltitude:            math.NaN(),
		orientationValueOffset: -1,
		ifd0NextOffset:         -1,
		app1SizeFieldOffset:    -1,
		thumbOffset:            -1,
		jpegOffsetFieldAbs:     -1,
		jpegLengthFieldAbs:     -1,
		widthFieldAbs:          -1,
		heightFieldAbs:         -1,
	}
}

// CameraModel returns the concatenation of the Make and Model tags.
func (r *Record) CameraModel() (string, bool) { return r.cameraModel, r.cameraModel != "" }

// UserComment returns the decoded UserComment tag.
func (r *Record) UserComment() (string, bool) { return r.userComment, r.userComment != "" }

// ImageDescription returns the ImageDescription tag.
func (r *Record) ImageDescription() (string, bool) {
	return r.imageDescription, r.imageDescription != ""
}

// Software returns the Software tag.
func (r *Record) Software() (string, bool) { return r.software, r.software != "" }

// XPComment returns the UTF-16LE-decoded XPComment tag.
func (r *Record) XPComment() (string, bool) { return r.xpComment, r.xpComment != "" }

// LensModel returns the LensModel tag.
func (r *Record) LensModel() (string, bool) { return r.lensModel, r.lensModel != "" }

// AcquisitionTime returns DateTimeOriginal. A year of 1600 or earlier
// is reported as absent.
func (r *Record) AcquisitionTime() (time.Time, bool) {
	return r.acquisitionDate, r.acquisitionDate.Year() > 1600
}

// ModificationTime returns the IFD0 DateTime tag.
func (r *Record) ModificationTime() (time.Time, bool) {
	return r.dateTime, r.dateTime.Year() > 1600
}

// ExposureTime returns the ExposureTime rational.
func (r *Record) ExposureTime() (Rational, bool) { return r.exposureTime, r.exposureTimePresent }

// ExposureBias returns the signed exposure bias, absent sentinel NaN.
func (r *Record) ExposureBias() (float64, bool) {
	return r.exposureBias, !math.IsNaN(r.exposureBias)
}

// FocalLength returns the focal length in millimetres.
func (r *Record) FocalLength() (float64, bool) { return r.focalLength, !math.IsNaN(r.focalLength) }

// FNumber returns the f-number.
func (r *Record) FNumber() (float64, bool) { return r.fNumber, !math.IsNaN(r.fNumber) }

// ISOSpeed returns the ISO speed rating; 0 means absent.
func (r *Record) ISOSpeed() (int, bool) { return r.isoSpeed, r.isoSpeed > 0 }

// ExposureProgram returns the exposure program; 0 means absent.
func (r *Record) ExposureProgram() (int, bool) { return r.exposureProgram, r.exposureProgram > 0 }

// MeteringMode returns the metering mode; 0 means absent.
func (r *Record) MeteringMode() (int, bool) { return r.meteringMode, r.meteringMode > 0 }

// WhiteBalance returns the white balance mode; 0 means absent.
func (r *Record) WhiteBalance() (int, bool) { return r.whiteBalance, r.whiteBalance > 0 }

// SceneCaptureType returns the scene capture type; 0 means absent.
func (r *Record) SceneCaptureType() (int, bool) {
	return r.sceneCaptureType, r.sceneCaptureType > 0
}

// Orientation returns the sensor orientation code; 0 means absent.
func (r *Record) Orientation() (int, bool) { return r.orientation, r.orientation > 0 }

// Flash reports whether the Flash tag was present and, if so, whether
// it fired.
func (r *Record) Flash() (fired bool, present bool) { return r.flashFired, r.flashPresent }

// Thumbnail reports the embedded thumbnail's descriptor: whether one
// is present, whether it is JPEG-compressed, its byte length, and its
// pixel dimensions.
func (r *Record) Thumbnail() (isJPEG bool, length uint32, width, height int, present bool) {
	return r.thumbIsJPEG, r.thumbLength, r.thumbWidth, r.thumbHeight, r.thumbPresent
}

// GPSLatitude returns the parsed latitude coordinate.
func (r *Record) GPSLatitude() (*GPSCoordinate, bool) { return r.gpsLatitude, r.gpsLatitude != nil }

// GPSLongitude returns the parsed longitude coordinate.
func (r *Record) GPSLongitude() (*GPSCoordinate, bool) {
	return r.gpsLongitude, r.gpsLongitude != nil
}

// GPSAltitude returns the GPS altitude in metres, signed per the
// altitude reference byte.
func (r *Record) GPSAltitude() (float64, bool) { return r.gpsAltitude, !math.IsNaN(r.gpsAltitude) }

// WriteOrientation overwrites the Orientation tag's 2-byte value in
// the borrowed APP1 buffer in place. It reports false if no
// Orientation tag was found while parsing.
func (r *Record) WriteOrientation(v uint16) bool {
	if r.orientationValueOffset < 0 || r.orientationValueOffset+2 > len(r.app1) {
		return false
	}
	r.byteOrder.PutUint16(r.app1[r.orientationValueOffset:], v)
	r.orientation = int(v)
	return true
}

// UpdateJPEGThumbnail replaces the embedded thumbnail with jpeg
// (SOI re-prepended if missing), rewrites IFD1's length/width/height
// fields, and patches the APP1 size field by blockLenDelta. The caller
// must ensure the APP1 buffer has room for the new stream at the
// existing thumbnail offset.
func (r *Record) UpdateJPEGThumbnail(jpeg []byte, blockLenDelta int, w, h int) error {
	if !r.thumbPresent || r.thumbOffset < 0 {
		return fmt.Errorf("exifreader: no thumbnail present to update")
	}
	stream := jpeg
	if len(stream) < 2 || stream[0] != 0xFF || stream[1] != 0xD8 {
		withSOI := make([]byte, len(stream)+2)
		withSOI[0], withSOI[1] = 0xFF, 0xD8
		copy(withSOI[2:], stream)
		stream = withSOI
	}
	if r.thumbOffset+len(stream) > len(r.app1) {
		return fmt.Errorf("exifreader: APP1 buffer too small for thumbnail (%d bytes needed at offset %d, have %d)",
			len(stream), r.thumbOffset, len(r.app1))
	}
	copy(r.app1[r.thumbOffset:], stream)

	if r.jpegLengthFieldAbs >= 0 {
		r.byteOrder.PutUint32(r.app1[r.jpegLengthFieldAbs:], uint32(len(stream)))
	}
	if r.widthFieldAbs >= 0 {
		r.putScalar(r.widthFieldAbs, r.widthFieldType, uint32(w))
	}
	if r.heightFieldAbs >= 0 {
		r.putScalar(r.heightFieldAbs, r.heightFieldType, uint32(h))
	}

	r.thumbLength = uint32(len(stream))
	r.thumbWidth, r.thumbHeight = w, h

	if r.app1SizeFieldOffset >= 0 {
		cur := binary.BigEndian.Uint16(r.app1[r.app1SizeFieldOffset:])
		newSize := int(cur) + blockLenDelta
		if newSize < 0 || newSize > 0xFFFF {
			return fmt.Errorf("exifreader: APP1 size %d out of range after thumbnail update", newSize)
		}
		binary.BigEndian.PutUint16(r.app1[r.app1SizeFieldOffset:], uint16(newSize))
	}
	return nil
}

// DeleteThumbnail truncates IFD0's next-IFD link to 0, dropping IFD1
// (and its thumbnail) from any subsequent walk of this buffer, and
// shrinks the APP1 size field by the thumbnail's current length.
func (r *Record) DeleteThumbnail() {
	if r.ifd0NextOffset >= 0 && r.ifd0NextOffset+4 <= len(r.app1) {
		r.byteOrder.PutUint32(r.app1[r.ifd0NextOffset:], 0)
	}
	if r.app1SizeFieldOffset >= 0 && r.thumbPresent {
		cur := binary.BigEndian.Uint16(r.app1[r.app1SizeFieldOffset:])
		newSize := int(cur) - int(r.thumbLength)
		if newSize < 2 {
			newSize = 2
		}
		binary.BigEndian.PutUint16(r.app1[r.app1SizeFieldOffset:], uint16(newSize))
	}
	r.thumbPresent = false
	r.thumbIsJPEG = false
	r.thumbLength = 0
	r.thumbWidth, r.thumbHeight = 0, 0
}

func (r *Record) putScalar(off int, typ exifType, v uint32) {
	switch typ {
	case typeUnsignedShort, typeSignedShort:
		r.byteOrder.PutUint16(r.app1[off:], uint16(v))
	default:
		r.byteOrder.PutUint32(r.app1[off:], v)
	}
}

func (r *Record) updateCameraModel() {
	make, model := strings.TrimSpace(r.make), strings.TrimSpace(r.model)
	switch {
	case make != "" && model != "":
		if strings.HasPrefix(model, make) {
			r.cameraModel = model
		} else {
			r.cameraModel = make + " " + model
		}
	case model != "":
		r.cameraModel = model
	default:
		r.cameraModel = make
	}
}
