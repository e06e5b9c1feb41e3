package printer

import (
	"bytes"
	"errors"
	goimage "image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	imgInternal "github.com/AlexStarov/escpos-netimage/image"
)

var errWire = errors.New("wire cut")

// failingWriter records writes and fails the failAt-th call (1-based).
type failingWriter struct {
	buf    bytes.Buffer
	calls  int
	failAt int
}

func (w *failingWriter) Write(b []byte) (int, error) {
	w.calls++
	if w.calls == w.failAt {
		return 0, errWire
	}
	return w.buf.Write(b)
}

// trickleWriter accepts one byte per call.
type trickleWriter struct {
	buf bytes.Buffer
}

func (w *trickleWriter) Write(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	return w.buf.Write(b[:1])
}

type stuckWriter struct{}

func (stuckWriter) Write(b []byte) (int, error) { return 0, nil }

func newTestPrinter(t *testing.T, w io.Writer) *Printer {
	t.Helper()
	p, err := NewPrinter(w)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestNewPrinterNilWriter(t *testing.T) {
	if _, err := NewPrinter(nil); err == nil {
		t.Error("NewPrinter(nil) succeeded")
	}
}

func TestCut(t *testing.T) {
	var buf bytes.Buffer
	p := newTestPrinter(t, &buf)
	if err := p.Cut(); err != nil {
		t.Fatal(err)
	}
	if want := []byte{0x1D, 0x56, 0x00}; !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("Cut sent % X, want % X", buf.Bytes(), want)
	}
}

func TestFeed(t *testing.T) {
	var buf bytes.Buffer
	p := newTestPrinter(t, &buf)
	if err := p.Feed(3); err != nil {
		t.Fatal(err)
	}
	if err := p.Feed(255); err != nil {
		t.Fatal(err)
	}
	if want := []byte{0x1B, 0x64, 0x03, 0x1B, 0x64, 0xFF}; !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("Feed sent % X, want % X", buf.Bytes(), want)
	}

	buf.Reset()
	for _, n := range []int{-1, 256} {
		if err := p.Feed(n); err == nil {
			t.Errorf("Feed(%d) succeeded", n)
		}
	}
	if buf.Len() != 0 {
		t.Errorf("rejected Feed sent % X", buf.Bytes())
	}
}

func TestCutSendFailure(t *testing.T) {
	w := &failingWriter{failAt: 1}
	p := newTestPrinter(t, w)
	err := p.Cut()
	if !errors.Is(err, ErrSend) || !errors.Is(err, errWire) {
		t.Errorf("Cut() = %v, want ErrSend wrapping the writer error", err)
	}
}

func TestSendRetriesPartialWrites(t *testing.T) {
	w := &trickleWriter{}
	p := newTestPrinter(t, w)
	if err := p.Cut(); err != nil {
		t.Fatal(err)
	}
	if want := []byte{0x1D, 0x56, 0x00}; !bytes.Equal(w.buf.Bytes(), want) {
		t.Errorf("sent % X, want % X", w.buf.Bytes(), want)
	}
}

func TestSendNoProgress(t *testing.T) {
	p := newTestPrinter(t, stuckWriter{})
	err := p.Cut()
	if !errors.Is(err, ErrSend) || !errors.Is(err, io.ErrShortWrite) {
		t.Errorf("Cut() = %v, want ErrSend wrapping io.ErrShortWrite", err)
	}
}

func TestClose(t *testing.T) {
	var buf bytes.Buffer
	p := newTestPrinter(t, &buf)
	if err := p.Close(); err != nil {
		t.Fatalf("first Close() = %v", err)
	}
	if err := p.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("second Close() = %v, want ErrClosed", err)
	}
	if err := p.Cut(); !errors.Is(err, ErrClosed) {
		t.Errorf("Cut after Close = %v, want ErrClosed", err)
	}
	if buf.Len() != 0 {
		t.Errorf("closed printer sent % X", buf.Bytes())
	}
}

func TestUpload(t *testing.T) {
	var buf bytes.Buffer
	p := newTestPrinter(t, &buf)

	data := make([]byte, 32*64/8)
	for i := range data {
		data[i] = byte(i)
	}
	b := &imgInternal.PackedBitmap{Width: 32, Height: 64, Data: data}
	if err := p.Upload(b); err != nil {
		t.Fatal(err)
	}

	want := append([]byte{0x1D, 0x2A, 0x04, 0x08}, data...)
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("Upload sent %d bytes, header % X, want %d bytes", buf.Len(), buf.Bytes()[:4], len(want))
	}
}

func TestUploadWritesFourByteUnits(t *testing.T) {
	w := &failingWriter{}
	p := newTestPrinter(t, w)
	b := &imgInternal.PackedBitmap{Width: 32, Height: 32, Data: make([]byte, 128)}
	if err := p.Upload(b); err != nil {
		t.Fatal(err)
	}
	if want := 1 + 128/4; w.calls != want {
		t.Errorf("Upload made %d writes, want %d", w.calls, want)
	}
}

func TestUploadInvalidBitmap(t *testing.T) {
	tests := []struct {
		name string
		b    *imgInternal.PackedBitmap
	}{
		{"width not aligned", &imgInternal.PackedBitmap{Width: 30, Height: 32, Data: make([]byte, 120)}},
		{"height not aligned", &imgInternal.PackedBitmap{Width: 32, Height: 40, Data: make([]byte, 160)}},
		{"too wide", &imgInternal.PackedBitmap{Width: 544, Height: 32, Data: make([]byte, 544*4)}},
		{"too tall", &imgInternal.PackedBitmap{Width: 32, Height: 288, Data: make([]byte, 4*288)}},
		{"short data", &imgInternal.PackedBitmap{Width: 32, Height: 32, Data: make([]byte, 64)}},
		{"empty", &imgInternal.PackedBitmap{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			p := newTestPrinter(t, &buf)
			if err := p.Upload(tt.b); !errors.Is(err, ErrInvalidBitmap) {
				t.Errorf("Upload() = %v, want ErrInvalidBitmap", err)
			}
			if buf.Len() != 0 {
				t.Errorf("rejected bitmap sent %d bytes", buf.Len())
			}
		})
	}
}

func TestUploadFailure(t *testing.T) {
	b := &imgInternal.PackedBitmap{Width: 32, Height: 32, Data: make([]byte, 128)}
	for _, failAt := range []int{1, 2, 33} {
		w := &failingWriter{failAt: failAt}
		p := newTestPrinter(t, w)
		err := p.Upload(b)
		if !errors.Is(err, ErrImageUpload) || !errors.Is(err, ErrSend) {
			t.Errorf("failAt %d: Upload() = %v, want ErrImageUpload wrapping ErrSend", failAt, err)
		}
		if w.calls != failAt {
			t.Errorf("failAt %d: %d writes, want upload to stop at the failure", failAt, w.calls)
		}
	}
}

func TestPrintDownloaded(t *testing.T) {
	var buf bytes.Buffer
	p := newTestPrinter(t, &buf)
	if err := p.PrintDownloaded(); err != nil {
		t.Fatal(err)
	}
	if want := []byte{0x1D, 0x2F, 0x00}; !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("PrintDownloaded sent % X, want % X", buf.Bytes(), want)
	}

	p = newTestPrinter(t, &failingWriter{failAt: 1})
	if err := p.PrintDownloaded(); !errors.Is(err, ErrImagePrint) {
		t.Errorf("PrintDownloaded() = %v, want ErrImagePrint", err)
	}
}

func blackRaster(t *testing.T, w, h int) *imgInternal.Raster {
	t.Helper()
	img, err := imgInternal.NewRaster(w, h, imgInternal.Gray, make([]byte, w*h))
	if err != nil {
		t.Fatal(err)
	}
	return img
}

func TestPrintRasterPadsNarrowImage(t *testing.T) {
	var buf bytes.Buffer
	p := newTestPrinter(t, &buf)
	if err := p.PrintRaster(blackRaster(t, 33, 1)); err != nil {
		t.Fatal(err)
	}

	got := buf.Bytes()
	if want := 4 + 64*32/8 + 3; len(got) != want {
		t.Fatalf("sent %d bytes, want %d", len(got), want)
	}
	if want := []byte{0x1D, 0x2A, 0x08, 0x04}; !bytes.Equal(got[:4], want) {
		t.Errorf("header % X, want % X", got[:4], want)
	}
	if want := []byte{0x1D, 0x2F, 0x00}; !bytes.Equal(got[len(got)-3:], want) {
		t.Errorf("trailer % X, want % X", got[len(got)-3:], want)
	}
	// Column 15 is the first image column; its top row is black.
	if data := got[4:]; data[15*32/8] != 0x80 || data[14*32/8] != 0 {
		t.Errorf("column bytes %#x %#x, want 0 then 0x80", data[14*32/8], data[15*32/8])
	}
}

func TestPrintRasterChunks(t *testing.T) {
	var buf bytes.Buffer
	p := newTestPrinter(t, &buf)
	if err := p.PrintRaster(blackRaster(t, 32, 640)); err != nil {
		t.Fatal(err)
	}

	got := buf.Bytes()
	heights := []int{256, 256, 160}
	off := 0
	for i, h := range heights {
		header := []byte{0x1D, 0x2A, 0x04, byte(h / 8)}
		if !bytes.Equal(got[off:off+4], header) {
			t.Fatalf("chunk %d header % X, want % X", i, got[off:off+4], header)
		}
		off += 4 + 32*h/8
		if !bytes.Equal(got[off:off+3], []byte{0x1D, 0x2F, 0x00}) {
			t.Fatalf("chunk %d not followed by print command", i)
		}
		off += 3
	}
	if off != len(got) {
		t.Errorf("sent %d bytes, want %d", len(got), off)
	}
}

func TestPrintRasterStopsAtFailedChunk(t *testing.T) {
	// A 32x256 chunk takes 1 header write, 256 data writes and 1 print write,
	// so write 259 is the second chunk's header.
	w := &failingWriter{failAt: 259}
	p := newTestPrinter(t, w)

	err := p.PrintRaster(blackRaster(t, 32, 640))
	if !errors.Is(err, ErrImageUpload) || !errors.Is(err, errWire) {
		t.Fatalf("PrintRaster() = %v, want ErrImageUpload wrapping the writer error", err)
	}
	if w.calls != 259 {
		t.Errorf("%d writes, want none after the failure", w.calls)
	}
	if n := bytes.Count(w.buf.Bytes(), []byte{0x1D, 0x2F, 0x00}); n != 1 {
		t.Errorf("%d print commands sent, want 1", n)
	}
}

func TestPrintRasterTooWide(t *testing.T) {
	var buf bytes.Buffer
	p := newTestPrinter(t, &buf)
	err := p.PrintRaster(blackRaster(t, 513, 1))
	if !errors.Is(err, imgInternal.ErrTooWide) {
		t.Errorf("PrintRaster() = %v, want ErrTooWide", err)
	}
	if buf.Len() != 0 {
		t.Errorf("rejected image sent %d bytes", buf.Len())
	}
}

func TestPrintImage(t *testing.T) {
	img := goimage.NewGray(goimage.Rect(0, 0, 16, 16))
	img.Set(0, 0, color.White)

	path := filepath.Join(t.TempDir(), "logo.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	p := newTestPrinter(t, &buf)
	if err := p.PrintImage(path); err != nil {
		t.Fatal(err)
	}
	got := buf.Bytes()
	if want := 4 + 128 + 3; len(got) != want {
		t.Fatalf("sent %d bytes, want %d", len(got), want)
	}
	// 16 columns of padding on the left is 8 each side; column 8 starts white.
	if data := got[4:]; data[8*4] != 0x7F || data[9*4] != 0xFF {
		t.Errorf("column bytes %#x %#x, want 0x7f 0xff", data[8*4], data[9*4])
	}
}

func TestPrintImageMissingFile(t *testing.T) {
	var buf bytes.Buffer
	p := newTestPrinter(t, &buf)
	err := p.PrintImage(filepath.Join(t.TempDir(), "none.png"))
	if !errors.Is(err, imgInternal.ErrDecode) {
		t.Errorf("PrintImage() = %v, want ErrDecode", err)
	}
	if buf.Len() != 0 {
		t.Errorf("failed decode sent %d bytes", buf.Len())
	}
}
