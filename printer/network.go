package printer

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
)

// Dial connects to a network printer at a literal IPv4 or IPv6 address and
// returns a printer bound to that connection. Port 515 submits the output
// as an LPD job to the "lp" queue.
func Dial(address string, port int) (*Printer, error) {
	return dial(address, port, "lp")
}

func dial(address string, port int, lpdQueue string) (*Printer, error) {
	if net.ParseIP(address) == nil {
		return nil, fmt.Errorf("%w: %q is not an IP address", ErrInvalidAddress, address)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("%w: port %d out of range", ErrInvalidAddress, port)
	}

	target := net.JoinHostPort(address, strconv.Itoa(port))
	conn, err := net.Dial("tcp", target)
	if err != nil {
		return nil, classifyDialError(target, err)
	}
	slog.Info("connected to printer", "addr", target)

	p, err := newPrinter(conn, lpdQueue)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return p, nil
}

// classifyDialError tells a failure to create the socket apart from a
// failure to reach the printer.
func classifyDialError(target string, err error) error {
	var se *os.SyscallError
	if errors.As(err, &se) && se.Syscall == "socket" {
		return fmt.Errorf("%w: %s: %w", ErrSocketCreation, target, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrConnection, target, err)
}
