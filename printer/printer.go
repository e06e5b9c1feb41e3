package printer

import (
	"fmt"
	"io"
	"log/slog"

	imgInternal "github.com/AlexStarov/escpos-netimage/image"
	utilInternal "github.com/AlexStarov/escpos-netimage/util"
)

// Control characters
const (
	ESC = 0x1B
	GS  = 0x1D
)

// Printer sends ESC/POS commands over a Transport. It owns the transport
// exclusively and is not safe for concurrent use.
type Printer struct {
	t      Transport
	closed bool

	// Converter chunks images for the printer's bit image memory.
	Converter *imgInternal.Converter

	// Decoder loads files for PrintImage.
	Decoder imgInternal.Decoder
}

// NewPrinter creates a new printer writing to w. Network connections to port
// 515 are submitted as an LPD job to the "lp" queue when the printer is closed.
func NewPrinter(w io.Writer) (*Printer, error) {
	return newPrinter(w, "lp")
}

func newPrinter(w io.Writer, lpdQueue string) (*Printer, error) {
	if w == nil {
		return nil, fmt.Errorf("printer: must supply valid writer")
	}
	conv := imgInternal.NewConverter()
	return &Printer{
		t:         newTransport(w, lpdQueue),
		Converter: conv,
		Decoder:   &imgInternal.FileDecoder{MaxWidth: conv.MaxWidth},
	}, nil
}

// Close releases the transport. A closed printer rejects every further call.
func (p *Printer) Close() error {
	if p.closed {
		return ErrClosed
	}
	p.closed = true
	slog.Debug("closing printer connection")
	return p.t.Close()
}

// send writes all of b, retrying partial writes.
func (p *Printer) send(b []byte) error {
	if p.closed {
		return ErrClosed
	}
	if err := writeAll(p.t, b); err != nil {
		return fmt.Errorf("%w: %w", ErrSend, err)
	}
	return nil
}

// Write sends raw bytes to the printer.
func (p *Printer) Write(buf []byte) (int, error) {
	if err := p.send(buf); err != nil {
		return 0, err
	}
	return len(buf), nil
}

// Cut feeds and cuts the paper (GS V 0).
func (p *Printer) Cut() error {
	return p.send([]byte{GS, 'V', 0x00})
}

// Feed prints the buffer and feeds n lines (ESC d n), 0 <= n <= 255.
func (p *Printer) Feed(lines int) error {
	n, err := utilInternal.IntLowHigh(lines, 1)
	if err != nil {
		return fmt.Errorf("feed: %w", err)
	}
	return p.send(append([]byte{ESC, 'd'}, n...))
}
