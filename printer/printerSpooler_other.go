//go:build !windows

package printer

import (
	"errors"
	"fmt"
)

var errNoSpooler = errors.New("print spooler is only available on windows")

// NewWinPrintSpoolerPrinter is only implemented on windows.
func NewWinPrintSpoolerPrinter(printerName string) (*Printer, error) {
	return nil, fmt.Errorf("%w: %q: %w", ErrConnection, printerName, errNoSpooler)
}
