package exifreader

// ImageFormat distinguishes a JPEG-native APP1 segment (real APP1
// marker and size bytes) from a synthetic wrapper built by a decoder
// for a format that has no native APP1 concept.
type ImageFormat int

const (
	FormatJPEG ImageFormat = iota
	FormatRAW
	FormatPNG
	FormatWEBP
	FormatPSD
)

// Options carries the diagnostic hook used while parsing. Warnf, when
// set, is called for conditions that are recoverable but worth
// surfacing (an unrecognised tag type, a sub-IFD offset past the end
// of the buffer); it never aborts the parse.
type Options struct {
	Warnf func(format string, args ...any)
}

func (o Options) warnf(format string, args ...any) {
	if o.Warnf != nil {
		o.Warnf(format, args...)
	}
}
