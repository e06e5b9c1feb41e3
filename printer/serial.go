package printer

import (
	"fmt"
	"log/slog"
	"slices"

	"go.bug.st/serial"
)

// NewSerialPrinter opens a printer on a serial port (COM3, /dev/ttyUSB0, ...)
// at baudRate with 8N1 framing.
func NewSerialPrinter(portName string, baudRate int) (*Printer, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("%w: listing serial ports: %w", ErrConnection, err)
	}
	slog.Debug("serial ports", "ports", ports)
	if !slices.Contains(ports, portName) {
		return nil, fmt.Errorf("%w: serial port %s not found", ErrConnection, portName)
	}

	mode := &serial.Mode{
		BaudRate: baudRate,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: serial port %s: %w", ErrConnection, portName, err)
	}
	slog.Info("connected to serial printer", "port", portName, "baud", baudRate)

	p, err := newPrinter(port, "")
	if err != nil {
		port.Close()
		return nil, err
	}
	return p, nil
}
