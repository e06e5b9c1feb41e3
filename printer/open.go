package printer

import (
	"fmt"

	"github.com/google/gousb"

	"github.com/AlexStarov/escpos-netimage/config"
	imgInternal "github.com/AlexStarov/escpos-netimage/image"
)

// Open connects to the printer described by s and applies its profile.
func Open(s config.Settings) (*Printer, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	var (
		p   *Printer
		err error
	)
	c := s.Connection
	switch c.Transport {
	case config.TransportTCP:
		p, err = dial(c.Address, c.Port, c.LPDQueue)
	case config.TransportUSB:
		p, err = NewUSBPrinter(gousb.ID(c.USBVendor), gousb.ID(c.USBProduct))
	case config.TransportSerial:
		p, err = NewSerialPrinter(c.SerialPort, c.BaudRate)
	case config.TransportSpooler:
		p, err = NewWinPrintSpoolerPrinter(c.SpoolerName)
	default:
		err = fmt.Errorf("unknown transport %q", c.Transport)
	}
	if err != nil {
		return nil, err
	}

	p.Converter = &imgInternal.Converter{
		MaxWidth:    s.Profile.MaxDotWidth,
		ChunkHeight: s.Profile.ChunkDotHeight,
		Overlap:     s.Profile.ChunkOverlap,
	}
	p.Decoder = &imgInternal.FileDecoder{
		MaxWidth: s.Profile.MaxDotWidth,
		Dither:   s.Dither,
	}
	return p, nil
}
