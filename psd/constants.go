package psd

// ColorMode is the PSD header's color-mode field.
type ColorMode uint16

const (
	ModeBitmap       ColorMode = 0
	ModeGrayscale    ColorMode = 1
	ModeIndexed      ColorMode = 2
	ModeRGB          ColorMode = 3
	ModeCMYK         ColorMode = 4
	ModeMultichannel ColorMode = 7
	ModeDuotone      ColorMode = 8
	ModeLab          ColorMode = 9
)

// compressionMethod is the 2-byte field preceding the channel data.
type compressionMethod uint16

const (
	compressionNone compressionMethod = 0
	compressionRLE  compressionMethod = 1
)

const (
	resourceSignature = 0x3842494D // "8BIM"

	resourceICCProfile      = 0x040F
	resourceAlphaIDs        = 0x041D
	resourceVersionInfo     = 0x0421
	resourceEXIFData1       = 0x0422
	resourceEXIFData3       = 0x0423
	resourceThumbnail4      = 0x0409
	resourceThumbnail5      = 0x040C

	headerSize          = 26
	thumbnailHeaderSize = 28

	// synthesized APP1 prefix wrapped around an EXIF resource payload
	// so it can be handed to exifreader.Parse unchanged.
	app1Prefix = "\xFF\xE1\x00\x00Exif\x00\x00"
)
