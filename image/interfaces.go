package image

// Target receives packed bitmaps. Upload stores a bitmap in the printer's
// downloaded bit image slot and PrintDownloaded prints whatever is stored.
type Target interface {
	Upload(b *PackedBitmap) error
	PrintDownloaded() error
}

// Decoder loads an image file into raw pixel samples.
type Decoder interface {
	Decode(path string) (*Raster, error)
}
