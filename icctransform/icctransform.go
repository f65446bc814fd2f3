// Package icctransform is the color-management collaborator: turning
// an embedded ICC profile, or a plain CIE Lab buffer, into the BGR(A)
// pixels the rest of the viewer composites and displays.
//
// Full ICC color management (arbitrary device links, rendering
// intents, gamut mapping) is out of scope -- the original viewer farms
// that out to the platform's color management module, which has no
// equivalent library anywhere in this corpus. What every example repo
// that touches ICC profiles (seehuhn.de/go/icc, and the profile
// readers in other_examples) agrees on is parsing the profile
// structure itself, so that part is grounded: seehuhn.de/go/icc
// decodes and validates the profile, and this package accepts only a
// profile that decodes; the profile's device class is not inspected.
// The actual numeric transform -- Lab to sRGB, and the profile-backed
// passthrough -- is plain colorimetry with no corresponding pack
// library, so it stays on the standard library, same as the compositor
// package.
package icctransform

import (
	"fmt"
	"math"

	"seehuhn.de/go/icc"
)

// Format describes the pixel layout a Transform consumes or produces.
type Format int

const (
	FormatLab8  Format = iota // 3 bytes/pixel, CIE L*a*b*, L:0-255 a/b:0-255 offset 128
	FormatBGR         // 3 bytes/pixel, interleaved
	FormatBGRA        // 4 bytes/pixel, interleaved, alpha passed through untouched
)

// Transform converts pixel buffers from a source colorspace into BGR.
type Transform struct {
	kind    transformKind
	profile *icc.Profile
}

type transformKind int

const (
	kindLab transformKind = iota
	kindProfilePassthrough
)

// CreateLabTransform returns a Transform that converts CIE Lab pixels
// (the only colorspace a PSD can declare without an embedded profile)
// into BGR or BGRA, using the D50 reference white the PSD format
// assumes. out must be FormatBGR or FormatBGRA; any other target
// (including Lab itself) is not a transform this package can build,
// and the caller is expected to fall back to treating the L channel
// as grayscale.
func CreateLabTransform(out Format) (*Transform, error) {
	if out != FormatBGR && out != FormatBGRA {
		return nil, fmt.Errorf("icctransform: no Lab transform to format %d", out)
	}
	return &Transform{kind: kindLab}, nil
}

// CreateTransform parses an embedded ICC profile and returns a
// Transform for BGR or BGRA pixels. A profile that fails to decode is
// rejected with an error; every profile that decodes, whatever its
// device class, yields an identity passthrough, since this package
// implements no profile-to-sRGB conversion: the caller keeps its
// untransformed channel data.
func CreateTransform(profileData []byte, out Format) (*Transform, error) {
	profile, err := icc.Decode(append([]byte(nil), profileData...))
	if err != nil {
		return nil, err
	}
	return &Transform{kind: kindProfilePassthrough, profile: profile}, nil
}

// Do transforms pix in place. pix holds height rows of stride bytes,
// each row holding width pixels in the Format the Transform was
// created with.
func (t *Transform) Do(pix []byte, width, height, stride int, in Format) {
	if t == nil {
		return
	}
	bpp := bytesPerPixel(in)
	for y := 0; y < height; y++ {
		row := pix[y*stride : y*stride+width*bpp]
		for x := 0; x < width; x++ {
			px := row[x*bpp : x*bpp+bpp]
			switch t.kind {
			case kindLab:
				labToBGR(px)
			case kindProfilePassthrough:
				// Profile-backed transforms apply no colorimetric
				// conversion: pixels arrive in the BGR(A) order
				// they are returned in and are left unchanged.
			}
		}
	}
}

// Close releases any resources held by the Transform. The profile
// parser here allocates nothing beyond Go-managed memory, so Close is
// a no-op kept for interface symmetry with the collaborator contract.
func (t *Transform) Close() {}

func bytesPerPixel(f Format) int {
	if f == FormatBGRA {
		return 4
	}
	return 3
}

// labToBGR converts an in-place L*a*b* pixel (byte-encoded: L in
// 0..255 maps to 0..100, a/b in 0..255 map to -128..127) to sRGB,
// writing the result back as B,G,R (and leaving a 4th alpha byte, if
// present, untouched).
func labToBGR(px []byte) {
	L := float64(px[0]) * 100 / 255
	a := float64(px[1]) - 128
	b := float64(px[2]) - 128

	fy := (L + 16) / 116
	fx := fy + a/500
	fz := fy - b/200

	x := labInv(fx) * 0.9642
	y := labInv(fy) * 1.0
	z := labInv(fz) * 0.8249

	r := x*3.1338561 + y*-1.6168667 + z*-0.4906146
	g := x*-0.9787684 + y*1.9161415 + z*0.0334540
	bl := x*0.0719453 + y*-0.2289914 + z*1.4052427

	px[0] = toSRGBByte(bl)
	px[1] = toSRGBByte(g)
	px[2] = toSRGBByte(r)
}

func labInv(t float64) float64 {
	if t > 6.0/29.0 {
		return t * t * t
	}
	return 3 * (6.0 / 29.0) * (6.0 / 29.0) * (t - 4.0/29.0)
}

func toSRGBByte(c float64) byte {
	if c <= 0.0031308 {
		c = 12.92 * c
	} else {
		c = 1.055*math.Pow(c, 1/2.4) - 0.055
	}
	v := int(c*255 + 0.5)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}
