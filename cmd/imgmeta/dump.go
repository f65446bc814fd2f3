package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/garyhouston/jpegsegs"
	"github.com/spf13/cobra"

	"github.com/For0xLC/jpegview/exifreader"
	"github.com/For0xLC/jpegview/psd"
	"github.com/For0xLC/jpegview/settings"
)

func newDumpCommand(newSettings func() (*settings.Settings, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump <file>",
		Short: "Print EXIF and PSD resource metadata for a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := newSettings()
			if err != nil {
				return err
			}
			return runDump(args[0], st)
		},
	}
	return cmd
}

func runDump(path string, st *settings.Settings) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sig := make([]byte, 4)
	if _, err := f.ReadAt(sig, 0); err != nil {
		return fmt.Errorf("reading signature: %w", err)
	}

	switch {
	case bytes.Equal(sig, []byte("8BPS")):
		return dumpPSD(f, st)
	case sig[0] == 0xFF && sig[1] == 0xD8:
		return dumpJPEG(f)
	default:
		return fmt.Errorf("unrecognised file signature %x", sig)
	}
}

func dumpPSD(f *os.File, st *settings.Settings) error {
	img, err := psd.ReadImage(f, psd.Options{Settings: st})
	if err != nil {
		return fmt.Errorf("decoding PSD image: %w", err)
	}
	fmt.Printf("size: %dx%d, channels: %d, stride: %d\n", img.Width, img.Height, img.Channels, img.Stride)
	if img.ICCProfile != nil {
		fmt.Printf("ICC profile: %d bytes\n", len(img.ICCProfile))
	}
	printEXIF(img.EXIFApp1, exifreader.FormatPSD)

	if _, err := f.Seek(0, 0); err != nil {
		return err
	}
	thumb, err := psd.ReadThumb(f, psd.Options{Settings: st})
	if err != nil {
		fmt.Println("thumbnail: none")
		return nil
	}
	fmt.Printf("thumbnail: %dx%d, hash %x\n", thumb.Width, thumb.Height, thumb.ThumbHash)
	if thumb.JPEGComment != "" {
		fmt.Printf("thumbnail comment: %q\n", thumb.JPEGComment)
	}
	if thumb.EXIFApp1 != nil {
		printEXIF(thumb.EXIFApp1, exifreader.FormatPSD)
	}
	return nil
}

func dumpJPEG(f *os.File) error {
	data, err := os.ReadFile(f.Name())
	if err != nil {
		return err
	}
	app1 := findJPEGApp1(data)
	if app1 == nil {
		fmt.Println("no EXIF APP1 segment found")
		return nil
	}
	printEXIF(app1, exifreader.FormatJPEG)
	return nil
}

// findJPEGApp1 scans the marker stream for the first APP1 segment and
// returns it re-prefixed with its marker and length bytes, the shape
// exifreader.Parse expects for FormatJPEG.
func findJPEGApp1(stream []byte) []byte {
	scanner, err := jpegsegs.NewScanner(bytes.NewReader(stream))
	if err != nil {
		return nil
	}
	for {
		marker, data, err := scanner.Scan()
		if err != nil {
			return nil
		}
		if marker == jpegsegs.SOS || marker == jpegsegs.EOI {
			return nil
		}
		if marker == jpegsegs.APP0+1 {
			out := make([]byte, 0, len(data)+4)
			out = append(out, 0xFF, 0xE1)
			size := len(data) + 2
			out = append(out, byte(size>>8), byte(size))
			out = append(out, data...)
			return out
		}
	}
}

func printEXIF(app1 []byte, format exifreader.ImageFormat) {
	rec := exifreader.Parse(app1, format, exifreader.Options{})

	if model, ok := rec.CameraModel(); ok {
		fmt.Printf("camera: %s\n", model)
	}
	if orientation, ok := rec.Orientation(); ok {
		fmt.Printf("orientation: %d\n", orientation)
	}
	if exp, ok := rec.ExposureTime(); ok {
		fmt.Printf("exposure time: %s\n", exp)
	}
	if fnum, ok := rec.FNumber(); ok {
		fmt.Printf("f-number: %.1f\n", fnum)
	}
	if iso, ok := rec.ISOSpeed(); ok {
		fmt.Printf("iso: %d\n", iso)
	}
	if t, ok := rec.AcquisitionTime(); ok {
		fmt.Printf("taken: %s\n", t.Format("2006-01-02 15:04:05"))
	}
	if lat, ok := rec.GPSLatitude(); ok {
		lon, _ := rec.GPSLongitude()
		fmt.Printf("gps: %v, %v\n", lat, lon)
	}
}
