package main

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/For0xLC/jpegview/psd"
)

func TestToImageBGRConvertsToRGB(t *testing.T) {
	c := qt.New(t)

	img := &psd.DecodedImage{
		Width: 1, Height: 1, Channels: 3, Stride: 4,
		Pix: []byte{0x30, 0x20, 0x10, 0x00},
	}
	out := toImage(img)
	r, g, b, _ := out.At(0, 0).RGBA()
	c.Assert(r>>8, qt.Equals, uint32(0x10))
	c.Assert(g>>8, qt.Equals, uint32(0x20))
	c.Assert(b>>8, qt.Equals, uint32(0x30))
}

func TestToImageGrayPassesThrough(t *testing.T) {
	c := qt.New(t)

	img := &psd.DecodedImage{
		Width: 2, Height: 1, Channels: 1, Stride: 4,
		Pix: []byte{0x7F, 0x00, 0x00, 0x00},
	}
	out := toImage(img)
	r, _, _, _ := out.At(0, 0).RGBA()
	c.Assert(r>>8, qt.Equals, uint32(0x7F))
}

func TestToImageBGRAPreservesAlpha(t *testing.T) {
	c := qt.New(t)

	img := &psd.DecodedImage{
		Width: 1, Height: 1, Channels: 4, Stride: 4,
		Pix: []byte{0x30, 0x20, 0x10, 0x80},
	}
	out := toImage(img)
	_, _, _, a := out.At(0, 0).RGBA()
	c.Assert(a>>8, qt.Equals, uint32(0x80))
}
