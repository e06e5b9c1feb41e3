package image

import (
	"errors"
	"testing"
)

type recordingTarget struct {
	uploads   []*PackedBitmap
	prints    int
	failAfter int // fail the upload with this 1-based index; 0 never fails
	failPrint bool
}

var errTarget = errors.New("target failure")

func (r *recordingTarget) Upload(b *PackedBitmap) error {
	if r.failAfter > 0 && len(r.uploads)+1 == r.failAfter {
		return errTarget
	}
	data := make([]byte, len(b.Data))
	copy(data, b.Data)
	r.uploads = append(r.uploads, &PackedBitmap{Width: b.Width, Height: b.Height, Data: data})
	return nil
}

func (r *recordingTarget) PrintDownloaded() error {
	if r.failPrint {
		return errTarget
	}
	r.prints++
	return nil
}

func TestConverterChunks(t *testing.T) {
	c := NewConverter()
	tests := []struct {
		height int
		want   int
	}{
		{1, 1},
		{254, 1},
		{255, 2},
		{256, 2},
		{640, 3},
		{1000, 4},
	}
	for _, tt := range tests {
		if got := c.Chunks(tt.height); got != tt.want {
			t.Errorf("Chunks(%d) = %d, want %d", tt.height, got, tt.want)
		}
	}
}

func TestConverterPrintSplitsTallImage(t *testing.T) {
	c := NewConverter()
	height := c.ChunkHeight*5/2 // 640
	img := uniformRaster(32, height, Gray, 255)
	// Mark the first row of the second chunk.
	img.Pix[c.PrintHeight()*32] = 0

	var target recordingTarget
	if err := c.Print(img, &target); err != nil {
		t.Fatal(err)
	}

	want := (height + c.PrintHeight() - 1) / c.PrintHeight()
	if len(target.uploads) != want || target.prints != want {
		t.Fatalf("uploads = %d, prints = %d, want %d each", len(target.uploads), target.prints, want)
	}

	heights := []int{256, 256, 160}
	for i, b := range target.uploads {
		if b.Width != 32 || b.Height != heights[i] {
			t.Errorf("chunk %d = %s, want 32x%d", i, b, heights[i])
		}
	}
	if target.uploads[1].Bit(0, 0) != 1 {
		t.Error("chunk 2 does not start at source row 254")
	}
	if target.uploads[0].Bit(0, 254) != 1 {
		t.Error("chunk 1 should cover source row 254 as well")
	}
}

func TestConverterPrintStopsOnUploadFailure(t *testing.T) {
	c := NewConverter()
	img := uniformRaster(32, c.ChunkHeight*5/2, Gray, 0)

	target := recordingTarget{failAfter: 2}
	err := c.Print(img, &target)
	if !errors.Is(err, errTarget) {
		t.Fatalf("err = %v, want errTarget", err)
	}
	if len(target.uploads) != 1 || target.prints != 1 {
		t.Errorf("uploads = %d, prints = %d, want 1 each", len(target.uploads), target.prints)
	}
}

func TestConverterPrintStopsOnPrintFailure(t *testing.T) {
	c := NewConverter()
	target := recordingTarget{failPrint: true}
	err := c.Print(uniformRaster(32, 600, Gray, 0), &target)
	if !errors.Is(err, errTarget) {
		t.Fatalf("err = %v, want errTarget", err)
	}
	if len(target.uploads) != 1 {
		t.Errorf("uploads = %d, want 1", len(target.uploads))
	}
}

func TestConverterValidation(t *testing.T) {
	c := NewConverter()
	var target recordingTarget

	if err := c.Print(uniformRaster(513, 10, Gray, 0), &target); !errors.Is(err, ErrTooWide) {
		t.Errorf("width 513: err = %v, want ErrTooWide", err)
	}
	if err := c.Print(uniformRaster(500, 10, Gray, 0), &target); err != nil {
		t.Errorf("width 500: %v", err)
	}
	if err := c.Print(&Raster{Width: 1, Height: 1, Format: 7, Pix: make([]byte, 7)}, &target); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("format 7: err = %v, want ErrUnsupportedFormat", err)
	}

	bad := &Converter{MaxWidth: 512, ChunkHeight: 100, Overlap: 2}
	if err := bad.Print(uniformRaster(32, 32, Gray, 0), &target); err == nil {
		t.Error("chunk height 100 accepted")
	}
	bad = &Converter{MaxWidth: 512, ChunkHeight: 256, Overlap: 256}
	if err := bad.Print(uniformRaster(32, 32, Gray, 0), &target); err == nil {
		t.Error("overlap equal to chunk height accepted")
	}
}

func TestConverterPrintToPreview(t *testing.T) {
	c := &Converter{MaxWidth: 64, ChunkHeight: 32, Overlap: 0}
	img := uniformRaster(64, 70, Gray, 255)
	img.Pix[0] = 0        // (0,0)
	img.Pix[69*64+63] = 0 // (63,69)

	var p Preview
	if err := c.Print(img, &p); err != nil {
		t.Fatal(err)
	}
	if p.Printed() != 3 {
		t.Fatalf("Printed() = %d, want 3", p.Printed())
	}
	if b := p.Bounds(); b.Dx() != 64 || b.Dy() != 96 {
		t.Fatalf("Bounds() = %v, want 64x96", b)
	}
	if r, _, _, _ := p.At(0, 0).RGBA(); r != 0 {
		t.Error("At(0,0) should be black")
	}
	if r, _, _, _ := p.At(63, 69).RGBA(); r != 0 {
		t.Error("At(63,69) should be black")
	}
	if r, _, _, _ := p.At(1, 0).RGBA(); r == 0 {
		t.Error("At(1,0) should be white")
	}
}

func TestPreviewPrintWithoutUpload(t *testing.T) {
	var p Preview
	if err := p.PrintDownloaded(); err == nil {
		t.Error("PrintDownloaded with nothing uploaded succeeded")
	}
}
