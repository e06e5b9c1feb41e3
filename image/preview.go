package image

import (
	"errors"
	"image"
	"image/color"
	"sort"
)

type slice struct {
	bitmap  *PackedBitmap
	yOrigin int
}

// Preview is a Target that keeps what would have been printed so it can be
// inspected or encoded as an image instead of going to paper.
type Preview struct {
	pending *PackedBitmap
	slices  []slice
	width   int
	height  int
}

// Upload implements Target. The bitmap is copied since callers reuse buffers.
func (p *Preview) Upload(b *PackedBitmap) error {
	data := make([]byte, len(b.Data))
	copy(data, b.Data)
	p.pending = &PackedBitmap{Width: b.Width, Height: b.Height, Data: data}
	return nil
}

// PrintDownloaded implements Target.
func (p *Preview) PrintDownloaded() error {
	if p.pending == nil {
		return errors.New("preview: nothing uploaded")
	}
	p.slices = append(p.slices, slice{bitmap: p.pending, yOrigin: p.height})
	p.height += p.pending.Height
	p.width = max(p.width, p.pending.Width)
	return nil
}

// Printed returns the number of bitmaps printed so far.
func (p *Preview) Printed() int {
	return len(p.slices)
}

func (p *Preview) ColorModel() color.Model {
	return color.GrayModel
}

func (p *Preview) Bounds() image.Rectangle {
	return image.Rect(0, 0, p.width, p.height)
}

// At renders set bits black and everything else white.
func (p *Preview) At(x, y int) color.Color {
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return color.White
	}

	i := sort.Search(len(p.slices), func(i int) bool {
		s := p.slices[i]
		return s.yOrigin+s.bitmap.Height > y
	})
	if i >= len(p.slices) {
		return color.White
	}

	s := p.slices[i]
	if x >= s.bitmap.Width {
		return color.White
	}
	if s.bitmap.Bit(x, y-s.yOrigin) == 1 {
		return color.Black
	}
	return color.White
}
