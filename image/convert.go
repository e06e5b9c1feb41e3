package image

import (
	"fmt"
	"log/slog"
)

// Defaults for an 80mm receipt printer.
const (
	DefaultMaxWidth     = 512 // dots
	DefaultChunkHeight  = 256 // dots per downloaded bit image
	DefaultChunkOverlap = 2   // rows of paper-feed slack between chunks
)

// Converter splits a raster into chunks that fit the printer's downloaded
// bit image memory and sends them one after another.
type Converter struct {
	// The maximum bitmap width of the printer, in dots
	MaxWidth int

	// The maximum bitmap height of a single upload, in dots
	ChunkHeight int

	// Rows subtracted from ChunkHeight when advancing to the next chunk
	Overlap int
}

// NewConverter returns a Converter with the default printer profile.
func NewConverter() *Converter {
	return &Converter{
		MaxWidth:    DefaultMaxWidth,
		ChunkHeight: DefaultChunkHeight,
		Overlap:     DefaultChunkOverlap,
	}
}

// PrintHeight is how far the source cursor advances per chunk.
func (c *Converter) PrintHeight() int {
	return c.ChunkHeight - c.Overlap
}

// Chunks returns the number of chunks Print sends for an image height rows tall.
func (c *Converter) Chunks(height int) int {
	ph := c.PrintHeight()
	return (height + ph - 1) / ph
}

func (c *Converter) validate(img *Raster) error {
	if c.MaxWidth <= 0 || c.MaxWidth%Alignment != 0 {
		return fmt.Errorf("max width %d is not a positive multiple of %d", c.MaxWidth, Alignment)
	}
	if c.ChunkHeight <= 0 || c.ChunkHeight%Alignment != 0 {
		return fmt.Errorf("chunk height %d is not a positive multiple of %d", c.ChunkHeight, Alignment)
	}
	if c.Overlap < 0 || c.Overlap >= c.ChunkHeight {
		return fmt.Errorf("chunk overlap %d out of range [0,%d)", c.Overlap, c.ChunkHeight)
	}
	if !img.Format.Valid() {
		return fmt.Errorf("%w: %d components", ErrUnsupportedFormat, int(img.Format))
	}
	if img.Width <= 0 || img.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrBadDimensions, img.Width, img.Height)
	}
	if w, _, _ := PackedSize(img.Width, 1); w > c.MaxWidth {
		return fmt.Errorf("%w: %d dots padded to %d, max %d", ErrTooWide, img.Width, w, c.MaxWidth)
	}
	return nil
}

// Print packs, uploads and prints img chunk by chunk. It stops at the first
// error; chunks printed before the failure stay printed.
func (c *Converter) Print(img *Raster, target Target) error {
	if err := c.validate(img); err != nil {
		return err
	}

	buf := make([]byte, c.MaxWidth/8*c.ChunkHeight)
	printHeight := c.PrintHeight()
	total := c.Chunks(img.Height)
	slog.Debug("printing image", "image", img.String(), "chunks", total, "printHeight", printHeight)

	for cursor := 0; cursor*printHeight < img.Height; cursor++ {
		start := cursor * printHeight
		chunkHeight := min(c.ChunkHeight, img.Height-start)

		bitmap, err := PackInto(buf, img.Rows(start, chunkHeight))
		if err != nil {
			return err
		}
		slog.Debug("chunk packed", "chunk", cursor+1, "of", total, "start", start, "rows", chunkHeight, "bitmap", bitmap.String())

		if err := target.Upload(bitmap); err != nil {
			return fmt.Errorf("chunk %d/%d: %w", cursor+1, total, err)
		}
		if err := target.PrintDownloaded(); err != nil {
			return fmt.Errorf("chunk %d/%d: %w", cursor+1, total, err)
		}
	}
	return nil
}
