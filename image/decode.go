package image

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"

	"github.com/MaxHalford/halfgone"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var ErrDecode = errors.New("image decode failed")

// FileDecoder reads png, jpeg, gif, bmp, tiff and webp files.
type FileDecoder struct {
	// Images wider than MaxWidth dots are scaled down to it. Zero disables scaling.
	MaxWidth int

	// Dither applies Floyd-Steinberg dithering, producing a Gray raster.
	Dither bool
}

// Decode implements Decoder.
func (d *FileDecoder) Decode(path string) (*Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}
	size := img.Bounds().Size()
	slog.Debug("loaded image", "path", path, "format", format, "width", size.X, "height", size.Y)

	if d.MaxWidth > 0 && size.X > d.MaxWidth {
		img = resize.Resize(uint(d.MaxWidth), 0, img, resize.Lanczos3)
		slog.Debug("image scaled", "width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	}

	if d.Dither {
		var fs halfgone.FloydSteinbergDitherer
		img = fs.Apply(halfgone.ImageToGray(img))
	}

	return FromImage(img), nil
}

// FromImage copies a decoded image into a Raster. Gray images keep one
// component, YCbCr (jpeg) becomes RGB and everything else RGBA.
func FromImage(img image.Image) *Raster {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	switch src := img.(type) {
	case *image.Gray:
		pix := make([]byte, 0, w*h)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			i := src.PixOffset(b.Min.X, y)
			pix = append(pix, src.Pix[i:i+w]...)
		}
		return &Raster{Width: w, Height: h, Format: Gray, Pix: pix}

	case *image.Gray16:
		pix := make([]byte, 0, w*h)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				pix = append(pix, byte(src.Gray16At(x, y).Y>>8))
			}
		}
		return &Raster{Width: w, Height: h, Format: Gray, Pix: pix}

	case *image.YCbCr:
		pix := make([]byte, 0, w*h*3)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := src.YCbCrAt(x, y)
				r, g, bl := color.YCbCrToRGB(c.Y, c.Cb, c.Cr)
				pix = append(pix, r, g, bl)
			}
		}
		return &Raster{Width: w, Height: h, Format: RGB, Pix: pix}
	}

	nrgba, ok := img.(*image.NRGBA)
	if !ok {
		nrgba = image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)
		b = nrgba.Bounds()
	}
	pix := make([]byte, 0, w*h*4)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := nrgba.PixOffset(b.Min.X, y)
		pix = append(pix, nrgba.Pix[i:i+w*4]...)
	}
	return &Raster{Width: w, Height: h, Format: RGBA, Pix: pix}
}
