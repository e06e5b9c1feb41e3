//go:build windows

package printer

import (
	"fmt"
	"log/slog"
	"unsafe"

	"golang.org/x/sys/windows"
)

// spoolerConn writes a RAW document through the Windows print spooler.
type spoolerConn struct {
	hPrinter windows.Handle
}

func (s *spoolerConn) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	var written uint32
	r1, _, err := procWritePrinter.Call(
		uintptr(s.hPrinter),
		uintptr(unsafe.Pointer(&p[0])),
		uintptr(len(p)),
		uintptr(unsafe.Pointer(&written)),
	)
	if r1 == 0 {
		return int(written), fmt.Errorf("WritePrinter: %w", err)
	}
	return int(written), nil
}

func (s *spoolerConn) Close() error {
	procEndPagePrinter.Call(uintptr(s.hPrinter))
	procEndDocPrinter.Call(uintptr(s.hPrinter))
	r1, _, err := procClosePrinter.Call(uintptr(s.hPrinter))
	if r1 == 0 {
		return fmt.Errorf("ClosePrinter: %w", err)
	}
	return nil
}

// NewWinPrintSpoolerPrinter opens an installed printer by name and starts a
// RAW document on it. The document is finished when the printer is closed.
func NewWinPrintSpoolerPrinter(printerName string) (*Printer, error) {
	var hPrinter windows.Handle
	pname, err := windows.UTF16PtrFromString(printerName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	r1, _, err := procOpenPrinter.Call(
		uintptr(unsafe.Pointer(pname)),
		uintptr(unsafe.Pointer(&hPrinter)),
		0,
	)
	if r1 == 0 {
		return nil, fmt.Errorf("%w: printer %q: %w", ErrConnection, printerName, err)
	}

	docName, _ := windows.UTF16PtrFromString("ESC/POS image")
	dataType, _ := windows.UTF16PtrFromString("RAW")
	di := docInfo1{
		pDocName:  docName,
		pDatatype: dataType,
	}

	r1, _, err = procStartDocPrinter.Call(
		uintptr(hPrinter),
		1,
		uintptr(unsafe.Pointer(&di)),
	)
	if r1 == 0 {
		procClosePrinter.Call(uintptr(hPrinter))
		return nil, fmt.Errorf("%w: StartDocPrinter: %w", ErrConnection, err)
	}
	procStartPagePrinter.Call(uintptr(hPrinter))
	slog.Info("opened spooler printer", "name", printerName)

	return newPrinter(&spoolerConn{hPrinter: hPrinter}, "")
}

var (
	modwinspool          = windows.NewLazySystemDLL("winspool.drv")
	procOpenPrinter      = modwinspool.NewProc("OpenPrinterW")
	procClosePrinter     = modwinspool.NewProc("ClosePrinter")
	procStartDocPrinter  = modwinspool.NewProc("StartDocPrinterW")
	procEndDocPrinter    = modwinspool.NewProc("EndDocPrinter")
	procStartPagePrinter = modwinspool.NewProc("StartPagePrinter")
	procEndPagePrinter   = modwinspool.NewProc("EndPagePrinter")
	procWritePrinter     = modwinspool.NewProc("WritePrinter")
)

// DOC_INFO_1
type docInfo1 struct {
	pDocName    *uint16
	pOutputFile *uint16
	pDatatype   *uint16
}
