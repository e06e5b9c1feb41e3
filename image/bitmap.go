// This file packs raster pixels into the column-major, MSB-first layout
// consumed by the "define downloaded bit image" command (GS *).

package image

import (
	"errors"
	"fmt"
)

// Threshold is the luminance below which a pixel is printed as a dot.
const Threshold = 128

// Alignment is the dot multiple both bitmap dimensions are padded to.
const Alignment = 32

var (
	ErrUnsupportedFormat = errors.New("unsupported pixel format")
	ErrBadDimensions     = errors.New("bad image dimensions")
	ErrTooWide           = errors.New("image too wide for printer")
	ErrBufferTooSmall    = errors.New("bitmap buffer too small")
)

// Sample returns 1 if the pixel is dark and 0 if it is light. Alpha is ignored.
// px must hold at least int(format) bytes and format must be valid.
func Sample(px []byte, format Format) byte {
	switch format {
	case Gray, GrayAlpha:
		if px[0] < Threshold {
			return 1
		}
	case RGB, RGBA:
		avg := (int(px[0]) + int(px[1]) + int(px[2])) / 3
		if avg < Threshold {
			return 1
		}
	default:
		panic(fmt.Sprintf("image: sample with invalid format %d", int(format)))
	}
	return 0
}

// Pad returns the padding needed on each side of size to reach the next
// multiple of 32. The odd unit, if any, goes to the right.
func Pad(size int) (left, right int) {
	rem := size % Alignment
	if rem == 0 {
		return 0, 0
	}
	padding := Alignment - rem
	left = padding / 2
	return left, padding - left
}

// PackedBitmap is a 1-bit image in printer order. Width and Height are
// multiples of 32 and Data holds Width*Height/8 bytes.
type PackedBitmap struct {
	Width, Height int
	Data          []byte
}

// ByteWidth is the width in bytes (dots / 8) as sent in the GS * header.
func (b *PackedBitmap) ByteWidth() int {
	return b.Width / 8
}

// ByteHeight is the height in bytes (dots / 8) as sent in the GS * header.
func (b *PackedBitmap) ByteHeight() int {
	return b.Height / 8
}

// Bit returns the packed bit for column x, row y.
func (b *PackedBitmap) Bit(x, y int) byte {
	i := bitIndex(x, y, b.Height)
	return (b.Data[i/8] >> (7 - uint(i%8))) & 1
}

func (b *PackedBitmap) String() string {
	return fmt.Sprintf("PackedBitmap(%d,%d)", b.Width, b.Height)
}

// PackedSize returns the padded dimensions and buffer size Pack would produce
// for a width x height raster.
func PackedSize(width, height int) (w, h, size int) {
	l, r := Pad(width)
	t, b := Pad(height)
	w = width + l + r
	h = height + t + b
	return w, h, w * h / 8
}

// Pack packs img into a newly allocated bitmap.
func Pack(img *Raster) (*PackedBitmap, error) {
	_, _, size := PackedSize(img.Width, img.Height)
	return PackInto(make([]byte, size), img)
}

// PackInto packs img into buf, which must be large enough for the padded
// bitmap. The returned bitmap's Data aliases buf.
//
// Horizontal padding is split around the image. Vertical padding all goes
// below the last row.
func PackInto(buf []byte, img *Raster) (*PackedBitmap, error) {
	if !img.Format.Valid() {
		return nil, fmt.Errorf("%w: %d components", ErrUnsupportedFormat, int(img.Format))
	}
	if img.Width <= 0 || img.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrBadDimensions, img.Width, img.Height)
	}
	if len(img.Pix) < img.Height*img.Stride() {
		return nil, fmt.Errorf("%w: %d bytes of pixels for %s", ErrBadDimensions, len(img.Pix), img)
	}

	lpad, _ := Pad(img.Width)
	w, h, size := PackedSize(img.Width, img.Height)
	if len(buf) < size {
		return nil, fmt.Errorf("%w: need %d bytes for %dx%d, have %d", ErrBufferTooSmall, size, w, h, len(buf))
	}
	data := buf[:size]

	for x := 0; x < w; x++ {
		sx := x - lpad
		for y := 0; y < h; y++ {
			var bit byte
			if sx >= 0 && sx < img.Width && y < img.Height {
				bit = Sample(img.PixelAt(sx, y), img.Format)
			}
			setBit(data, bitIndex(x, y, h), bit)
		}
	}

	return &PackedBitmap{Width: w, Height: h, Data: data}, nil
}

// bitIndex is the position of column x, row y in a column-major bitmap
// paddedHeight dots tall.
func bitIndex(x, y, paddedHeight int) int {
	return x*paddedHeight + y
}

// setBit writes bit i of data, counting from the most significant bit of data[0].
func setBit(data []byte, i int, bit byte) {
	mask := byte(0x80) >> uint(i%8)
	if bit != 0 {
		data[i/8] |= mask
	} else {
		data[i/8] &^= mask
	}
}
