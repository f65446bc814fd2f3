package exifreader

// exifType mirrors the TIFF tag data types; values and sizes match the
// TIFF 6.0 specification.
type exifType uint16

const (
	typeUnsignedByte  exifType = 1
	typeUnsignedASCII exifType = 2
	typeUnsignedShort exifType = 3
	typeUnsignedLong  exifType = 4
	typeUnsignedRat   exifType = 5
	typeSignedByte    exifType = 6
	typeUndef         exifType = 7
	typeSignedShort   exifType = 8
	typeSignedLong    exifType = 9
	typeSignedRat     exifType = 10
	typeSignedFloat   exifType = 11
	typeSignedDouble  exifType = 12
)

var exifTypeSize = map[exifType]uint32{
	typeUnsignedByte:  1,
	typeUnsignedASCII: 1,
	typeUnsignedShort: 2,
	typeUnsignedLong:  4,
	typeUnsignedRat:   8,
	typeSignedByte:    1,
	typeUndef:         1,
	typeSignedShort:   2,
	typeSignedLong:    4,
	typeSignedRat:     8,
	typeSignedFloat:   4,
	typeSignedDouble:  8,
}

// IFD0 tags.
const (
	tagImageWidth        = 0x0100
	tagImageLength       = 0x0101
	tagMake              = 0x010f
	tagModel             = 0x0110
	tagOrientation       = 0x0112
	tagSoftware          = 0x0131
	tagDateTime          = 0x0132
	tagImageDescription  = 0x010e
	tagXPComment         = 0x9c9c
	tagExifIFDPointer    = 0x8769
	tagGPSInfoIFDPointer = 0x8825
)

// EXIF sub-IFD tags.
const (
	tagDateTimeOriginal = 0x9003
	tagExposureTime     = 0x829a
	tagFNumber          = 0x829d
	tagExposureProgram  = 0x8822
	tagISOSpeedRatings  = 0x8827
	tagExposureBias     = 0x9204
	tagMeteringMode     = 0x9207
	tagFlash            = 0x9209
	tagFocalLength      = 0x920a
	tagUserComment      = 0x9286
	tagWhiteBalance     = 0xa403
	tagSceneCaptureType = 0xa406
	tagLensModel        = 0xa434
)

// GPS sub-IFD tags.
const (
	tagGPSLatitudeRef  = 0x0001
	tagGPSLatitude     = 0x0002
	tagGPSLongitudeRef = 0x0003
	tagGPSLongitude    = 0x0004
	tagGPSAltitudeRef  = 0x0005
	tagGPSAltitude     = 0x0006
)

// IFD1 (thumbnail) tags.
const (
	tagCompression                     = 0x0103
	tagJPEGInterchangeFormat           = 0x0201
	tagJPEGInterchangeFormatLength     = 0x0202
)
