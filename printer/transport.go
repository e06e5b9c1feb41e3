package printer

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Transport is the byte stream a Printer writes to.
type Transport interface {
	Write([]byte) (int, error)
	Close() error
}

// -------------------- RAW --------------------

// RawTransport passes bytes straight to the device.
type RawTransport struct {
	conn io.WriteCloser
}

func (r *RawTransport) Write(b []byte) (int, error) { return r.conn.Write(b) }
func (r *RawTransport) Close() error                { return r.conn.Close() }

// -------------------- LPD --------------------

// LPDTransport buffers the whole job and submits it to an LPD queue
// (RFC 1179) when closed.
type LPDTransport struct {
	conn   net.Conn
	queue  string
	jobBuf bytes.Buffer
	closed bool
	mu     sync.Mutex
}

func NewLPDTransport(conn net.Conn, queue string) *LPDTransport {
	if queue == "" {
		queue = "lp"
	}
	return &LPDTransport{
		conn:  conn,
		queue: queue,
	}
}

func (l *LPDTransport) Write(data []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return 0, io.ErrClosedPipe
	}
	return l.jobBuf.Write(data)
}

func (l *LPDTransport) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true

	if l.jobBuf.Len() == 0 {
		return l.conn.Close()
	}

	slog.Debug("submitting LPD job", "queue", l.queue, "bytes", l.jobBuf.Len())
	if err := l.flushJob(); err != nil {
		_ = l.conn.Close()
		return err
	}
	return l.conn.Close()
}

func (l *LPDTransport) flushJob() error {
	host, _ := os.Hostname()
	if host == "" {
		host = "localhost"
	}
	user := os.Getenv("USER")
	if user == "" {
		user = "escpos"
	}

	jobID := int(time.Now().UnixNano() % 1000)
	hostShort := host
	if i := strings.IndexByte(hostShort, '.'); i > 0 {
		hostShort = hostShort[:i]
	}
	cfName := fmt.Sprintf("cfA%03d%s", jobID, hostShort)
	dfName := fmt.Sprintf("dfA%03d%s", jobID, hostShort)

	// H host, P user, J job name, l print data file literally (no filtering).
	control := fmt.Sprintf(
		"H%s\nP%s\nJescpos-%03d\nl%s\nN%s\n",
		host, user, jobID, dfName, dfName,
	)

	if err := requestPrintJob(l.conn, l.queue); err != nil {
		return fmt.Errorf("LPD: stage 1 failed: %w", err)
	}
	if err := sendFile(l.conn, 0x02, cfName, []byte(control), "stage 2"); err != nil {
		return fmt.Errorf("LPD: stage 2 failed: %w", err)
	}
	if err := sendFile(l.conn, 0x03, dfName, l.jobBuf.Bytes(), "stage 3"); err != nil {
		return fmt.Errorf("LPD: stage 3 failed: %w", err)
	}

	l.jobBuf.Reset()
	return nil
}

// -------------------- LPD helpers --------------------

func requestPrintJob(conn net.Conn, queue string) error {
	// \x02 <queue> \n
	if err := writeAll(conn, []byte("\x02"+queue+"\n")); err != nil {
		return err
	}
	return readAck(conn, "stage 1")
}

// sendFile sends a control (\x02) or data (\x03) subcommand followed by the
// file contents and a terminating NUL.
func sendFile(conn net.Conn, cmd byte, name string, data []byte, stage string) error {
	header := []byte{cmd}
	header = append(header, strconv.Itoa(len(data))+" "+name+"\n"...)
	if err := writeAll(conn, header); err != nil {
		return err
	}
	if err := readAck(conn, stage+" header"); err != nil {
		return err
	}
	if err := writeAll(conn, data); err != nil {
		return err
	}
	if err := writeAll(conn, []byte{0x00}); err != nil {
		return err
	}
	return readAck(conn, stage)
}

func readAck(conn net.Conn, stage string) error {
	ack := make([]byte, 1)
	if _, err := io.ReadFull(conn, ack); err != nil {
		return fmt.Errorf("reading ACK on %s: %w", stage, err)
	}
	if ack[0] != 0x00 {
		return fmt.Errorf("LPD request not acknowledged on %s (0x%02x)", stage, ack[0])
	}
	return nil
}

// -------------------- helpers --------------------

// writeAll keeps writing until all of b is accepted. Partial writes are
// retried; a write that makes no progress without an error is reported as
// io.ErrShortWrite.
func writeAll(w io.Writer, b []byte) error {
	sent := 0
	for sent < len(b) {
		n, err := w.Write(b[sent:])
		if err != nil {
			return err
		}
		if n <= 0 {
			return io.ErrShortWrite
		}
		sent += n
	}
	return nil
}

type nopCloser struct {
	io.Writer
}

func (n nopCloser) Close() error { return nil }

// newTransport picks the transport for w: LPD for network connections to
// port 515, raw otherwise.
func newTransport(w io.Writer, lpdQueue string) Transport {
	if conn, ok := w.(net.Conn); ok {
		if addr, ok := conn.RemoteAddr().(*net.TCPAddr); ok && addr.Port == 515 {
			return NewLPDTransport(conn, lpdQueue)
		}
		return &RawTransport{conn: conn}
	}
	if wc, ok := w.(io.WriteCloser); ok {
		return &RawTransport{conn: wc}
	}
	return &RawTransport{conn: nopCloser{w}}
}
