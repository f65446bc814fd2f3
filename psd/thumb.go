package psd

import (
	"os"

	"github.com/For0xLC/jpegview/cursor"
	"github.com/For0xLC/jpegview/internal/errs"
	"github.com/For0xLC/jpegview/jpegthumb"
)

// DecodedThumbnail is the embedded JPEG thumbnail a successful
// ReadThumb produces, enriched with the same content hash and COM
// comment the primary JPEG path computes, since the original reader
// runs both unconditionally on whichever JPEG stream it decodes.
type DecodedThumbnail struct {
	Width, Height int
	Channels      int
	Pix           []byte // interleaved BGR

	Subsampling jpegthumb.Subsampling
	ThumbHash   uint64
	JPEGComment string

	EXIFApp1 []byte
}

// ReadThumb extracts the Photoshop-4.0/5.0 thumbnail resource and any
// attached EXIF resource from f, without touching the layer/mask
// section or the merged image.
func ReadThumb(f *os.File, opts Options) (*DecodedThumbnail, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, errs.New(errs.Truncated, err)
	}
	size := info.Size()
	if size > opts.maxFileSize() {
		return nil, errs.Limit("PSD file size", uint64(size), uint64(opts.maxFileSize()))
	}

	cur := cursor.FromFile(f, size)
	if err := cur.SeekStart(headerSize); err != nil {
		return nil, errs.New(errs.Truncated, err)
	}

	colorDataSize, err := cur.U32()
	if err != nil {
		return nil, errs.New(errs.Truncated, err)
	}
	if err := cur.SeekRel(int64(colorDataSize)); err != nil {
		return nil, errs.Newf(errs.Truncated, "color mode data size %d runs past end of file", colorDataSize)
	}

	// Resource section size field itself is skipped: the thumbnail
	// scan runs to end of file or first non-"8BIM" tag, same as the
	// original reader, rather than needing an exact section end.
	if _, err := cur.U32(); err != nil {
		return nil, errs.New(errs.Truncated, err)
	}

	jpegStream, exifApp1 := scanThumbnailResources(cur)

	if jpegStream == nil {
		return nil, errs.Newf(errs.Unsupported, "no thumbnail resource found")
	}

	pix, width, height, subsampling, err := jpegthumb.ReadImage(jpegStream)
	if err != nil {
		return nil, errs.New(errs.MalformedHeader, err)
	}

	return &DecodedThumbnail{
		Width: width, Height: height, Channels: 3,
		Pix:         pix,
		Subsampling: subsampling,
		ThumbHash:   jpegthumb.CalculateHash(jpegStream),
		JPEGComment: jpegthumb.GetComment(jpegStream),
		EXIFApp1:    exifApp1,
	}, nil
}

// scanThumbnailResources walks the "8BIM" resource stream from the
// cursor's current position, extracting the last thumbnail resource
// seen (0x040C supersedes 0x0409 naturally, since each overwrites the
// previous) and the first EXIF resource seen.
func scanThumbnailResources(cur *cursor.ByteCursor) (jpegStream, exifApp1 []byte) {
	for {
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
		resSize, err := cur.U32()
		if err != nil {
			break
		}
		payloadStart := cur.Pos64()
		if payloadStart+int64(resSize) > cur.Len() {
			break
		}

		switch id {
		case resourceThumbnail4, resourceThumbnail5:
			if int64(resSize) >= thumbnailHeaderSize {
				if err := cur.SeekRel(thumbnailHeaderSize); err == nil {
					jpegSize := int64(resSize) - thumbnailHeaderSize
					if jpegSize <= maxJPEGFileSize {
						if payload, err := cur.ReadN(int(jpegSize)); err == nil {
							jpegStream = payload
						}
					}
				}
			}

		case resourceEXIFData1, resourceEXIFData3:
			if exifApp1 == nil && resSize < 65526 {
				if payload, err := cur.ReadN(int(resSize)); err == nil {
					exifApp1 = wrapEXIFPayload(payload)
				}
			}
		}

		padded := int64((resSize + 1) &^ 1)
		if err := cur.SeekStart(payloadStart + padded); err != nil {
			break
		}
	}

	return jpegStream, exifApp1
}
