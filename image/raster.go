package image

import "fmt"

// Format is the number of 8-bit components stored per pixel.
type Format int

const (
	Gray      Format = 1
	GrayAlpha Format = 2
	RGB       Format = 3
	RGBA      Format = 4
)

// Valid reports whether f is one of the supported component layouts.
func (f Format) Valid() bool {
	return f >= Gray && f <= RGBA
}

func (f Format) String() string {
	switch f {
	case Gray:
		return "gray"
	case GrayAlpha:
		return "gray+alpha"
	case RGB:
		return "rgb"
	case RGBA:
		return "rgba"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Raster is a decoded image stored row-major with Format components per pixel.
// It is treated as read-only once built.
type Raster struct {
	Width, Height int
	Format        Format
	Pix           []byte
}

// NewRaster checks that pix holds exactly width*height pixels of the given format.
func NewRaster(width, height int, format Format, pix []byte) (*Raster, error) {
	if !format.Valid() {
		return nil, fmt.Errorf("%w: %d components", ErrUnsupportedFormat, int(format))
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrBadDimensions, width, height)
	}
	if want := width * height * int(format); len(pix) != want {
		return nil, fmt.Errorf("%w: got %d bytes, want %d*%d*%d=%d",
			ErrBadDimensions, len(pix), width, height, int(format), want)
	}
	return &Raster{Width: width, Height: height, Format: format, Pix: pix}, nil
}

// Stride is the number of bytes in one row.
func (r *Raster) Stride() int {
	return r.Width * int(r.Format)
}

// Rows returns a view of n rows starting at row start. The pixel data is shared.
func (r *Raster) Rows(start, n int) *Raster {
	if start < 0 || n <= 0 || start+n > r.Height {
		panic(fmt.Sprintf("image: rows [%d,%d) out of range for height %d", start, start+n, r.Height))
	}
	stride := r.Stride()
	return &Raster{
		Width:  r.Width,
		Height: n,
		Format: r.Format,
		Pix:    r.Pix[start*stride : (start+n)*stride],
	}
}

// PixelAt returns the raw component bytes of the pixel at (x, y).
func (r *Raster) PixelAt(x, y int) []byte {
	c := int(r.Format)
	i := y*r.Stride() + x*c
	return r.Pix[i : i+c]
}

func (r *Raster) String() string {
	return fmt.Sprintf("Raster(%d,%d,%s)", r.Width, r.Height, r.Format)
}
