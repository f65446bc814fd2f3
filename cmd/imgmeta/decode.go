package main

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/spf13/cobra"

	"github.com/For0xLC/jpegview/psd"
	"github.com/For0xLC/jpegview/settings"
)

func newDecodeCommand(newSettings func() (*settings.Settings, error)) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "decode <psd-file>",
		Short: "Decode a PSD/PSB merged image to PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := newSettings()
			if err != nil {
				return err
			}
			if outPath == "" {
				outPath = args[0] + ".png"
			}
			return runDecode(args[0], outPath, st)
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output PNG path (default: <input>.png)")
	return cmd
}

func runDecode(inPath, outPath string, st *settings.Settings) error {
	f, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer f.Close()

	img, err := psd.ReadImage(f, psd.Options{Settings: st})
	if err != nil {
		return fmt.Errorf("decoding PSD image: %w", err)
	}

	out := toImage(img)

	w, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer w.Close()

	if err := png.Encode(w, out); err != nil {
		return fmt.Errorf("encoding PNG: %w", err)
	}
	fmt.Printf("wrote %s (%dx%d)\n", outPath, img.Width, img.Height)
	return nil
}

// toImage converts a decoded PSD image's interleaved, row-padded BGR or
// BGRA pixel buffer into a standard library image.Image.
func toImage(img *psd.DecodedImage) image.Image {
	if img.Channels == 4 {
		out := image.NewNRGBA(image.Rect(0, 0, img.Width, img.Height))
		for y := 0; y < img.Height; y++ {
			srcRow := img.Pix[y*img.Stride : y*img.Stride+img.Width*4]
			dstRow := out.Pix[y*out.Stride : y*out.Stride+img.Width*4]
			for x := 0; x < img.Width; x++ {
				b, g, r, a := srcRow[x*4], srcRow[x*4+1], srcRow[x*4+2], srcRow[x*4+3]
				dstRow[x*4], dstRow[x*4+1], dstRow[x*4+2], dstRow[x*4+3] = r, g, b, a
			}
		}
		return out
	}

	if img.Channels == 1 {
		out := image.NewGray(image.Rect(0, 0, img.Width, img.Height))
		for y := 0; y < img.Height; y++ {
			copy(out.Pix[y*out.Stride:y*out.Stride+img.Width], img.Pix[y*img.Stride:y*img.Stride+img.Width])
		}
		return out
	}

	out := image.NewNRGBA(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		srcRow := img.Pix[y*img.Stride : y*img.Stride+img.Width*3]
		dstRow := out.Pix[y*out.Stride : y*out.Stride+img.Width*4]
		for x := 0; x < img.Width; x++ {
			b, g, r := srcRow[x*3], srcRow[x*3+1], srcRow[x*3+2]
			dstRow[x*4], dstRow[x*4+1], dstRow[x*4+2], dstRow[x*4+3] = r, g, b, 255
		}
	}
	return out
}
