package printer

import (
	"fmt"
	"log/slog"

	imgInternal "github.com/AlexStarov/escpos-netimage/image"
	utilInternal "github.com/AlexStarov/escpos-netimage/util"
)

// uploadUnit is the number of bitmap bytes sent per transport write.
const uploadUnit = 4

var _ imgInternal.Target = (*Printer)(nil)

// PrintImage loads the image at imgPath and prints it in chunks.
func (p *Printer) PrintImage(imgPath string) error {
	img, err := p.Decoder.Decode(imgPath)
	if err != nil {
		return err
	}
	slog.Info("printing image", "path", imgPath, "width", img.Width, "height", img.Height, "format", img.Format.String())
	return p.PrintRaster(img)
}

// PrintRaster prints an already decoded image in chunks. If a chunk fails the
// remaining chunks are not sent; chunks already printed stay on paper.
func (p *Printer) PrintRaster(img *imgInternal.Raster) error {
	return p.Converter.Print(img, p)
}

// Upload stores b in the printer's downloaded bit image memory
// (GS * x y d1...dk). The header goes out in one write, the data in 4-byte
// units. After a failure the printer's image memory is in an unknown state.
func (p *Printer) Upload(b *imgInternal.PackedBitmap) error {
	if err := p.checkBitmap(b); err != nil {
		return err
	}

	w8, err := utilInternal.IntLowHigh(b.ByteWidth(), 1)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBitmap, err)
	}
	h8, err := utilInternal.IntLowHigh(b.ByteHeight(), 1)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBitmap, err)
	}

	header := []byte{GS, '*'}
	header = append(header, w8...)
	header = append(header, h8...)
	if err := p.send(header); err != nil {
		return fmt.Errorf("%w: header: %w", ErrImageUpload, err)
	}

	for i := 0; i < len(b.Data); i += uploadUnit {
		if err := p.send(b.Data[i : i+uploadUnit]); err != nil {
			return fmt.Errorf("%w: at byte %d of %d: %w", ErrImageUpload, i, len(b.Data), err)
		}
	}
	slog.Debug("bit image uploaded", "bitmap", b.String(), "bytes", len(b.Data))
	return nil
}

// PrintDownloaded prints the bit image stored by Upload (GS / 0).
func (p *Printer) PrintDownloaded() error {
	if err := p.send([]byte{GS, '/', 0x00}); err != nil {
		return fmt.Errorf("%w: %w", ErrImagePrint, err)
	}
	return nil
}

func (p *Printer) checkBitmap(b *imgInternal.PackedBitmap) error {
	align := imgInternal.Alignment
	if b.Width <= 0 || b.Height <= 0 || b.Width%align != 0 || b.Height%align != 0 {
		return fmt.Errorf("%w: %s is not a multiple of %d dots", ErrInvalidBitmap, b, align)
	}
	if c := p.Converter; c != nil && (b.Width > c.MaxWidth || b.Height > c.ChunkHeight) {
		return fmt.Errorf("%w: %s exceeds %dx%d", ErrInvalidBitmap, b, c.MaxWidth, c.ChunkHeight)
	}
	if want := b.Width * b.Height / 8; len(b.Data) != want {
		return fmt.Errorf("%w: %s has %d bytes, want %d", ErrInvalidBitmap, b, len(b.Data), want)
	}
	return nil
}
