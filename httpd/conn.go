package httpd

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strconv"
)

const (
	inputBufBytes  = 1024
	outputBufBytes = 1024
	logBufBytes    = 256

	// maxLineBytes caps an individual request/header line. Nothing in the
	// wire protocol needs a line anywhere near this long; it exists purely
	// so a client can't make us buffer forever waiting for a delimiter.
	maxLineBytes = 16 * 1024
)

// Connection owns the buffered, timed reader and writer for one
// supervised socket (stdin/stdout), plus a buffered log sink to stderr.
// It's created once per process and lives for the whole connection: no
// sharing, no cloning.
type Connection struct {
	in     *bufio.Reader
	out    *bufio.Writer
	errOut *bufio.Writer
	remote string
}

// NewConnection builds a Connection over the process's stdin/stdout/stderr,
// tagging log lines with remote (normally $TCPREMOTEIP, or "0").
func NewConnection(remote string) *Connection {
	return &Connection{
		in:     bufio.NewReaderSize(NewSafeFile(os.Stdin), inputBufBytes),
		out:    bufio.NewWriterSize(NewSafeFile(os.Stdout), outputBufBytes),
		errOut: bufio.NewWriterSize(os.Stderr, logBufBytes),
		remote: remote,
	}
}

// newConnectionWithIO builds a Connection over arbitrary reader/writer/log
// streams, bypassing the timeout-wrapped stdin/stdout of NewConnection.
// Exercised by tests, which have no real socket to wait on.
func newConnectionWithIO(in io.Reader, out, errOut io.Writer, remote string) *Connection {
	return &Connection{
		in:     bufio.NewReaderSize(in, inputBufBytes),
		out:    bufio.NewWriterSize(out, outputBufBytes),
		errOut: bufio.NewWriterSize(errOut, logBufBytes),
		remote: remote,
	}
}

// readline returns one line with its trailing delimiter removed, accepting
// either CRLF or a bare LF (publicfile's "tolerant applications" provision).
// If the input ends before a delimiter is seen, it returns ConnectionClosed;
// a read timeout from the underlying SafeFile is returned as RequestTimeout.
func (c *Connection) readline() ([]byte, error) {
	line := make([]byte, 0, 256)
	for {
		b, err := c.in.ReadByte()
		if err != nil {
			var httpErr *HttpError
			if errors.As(err, &httpErr) && httpErr.Kind == KindRequestTimeout {
				return nil, httpErr
			}
			return nil, errConnectionClosed()
		}
		if b == '\n' {
			break
		}
		line = append(line, b)
		if len(line) > maxLineBytes {
			return nil, errBadRequest()
		}
	}
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	return line, nil
}

// write writes through the buffered writer; any underlying failure becomes
// ConnectionClosed since we have no one left to report write errors to.
func (c *Connection) write(p []byte) error {
	if _, err := c.out.Write(p); err != nil {
		return errConnectionClosed()
	}
	return nil
}

func (c *Connection) writeString(s string) error {
	return c.write([]byte(s))
}

func (c *Connection) writeDecimal(n int) error {
	return c.writeString(strconv.Itoa(n))
}

func (c *Connection) writeHex(n int) error {
	return c.writeString(strconv.FormatInt(int64(n), 16))
}

func (c *Connection) flushOutput() error {
	if err := c.out.Flush(); err != nil {
		return errConnectionClosed()
	}
	return nil
}

// log writes a single line to stderr: "<remote> read <path>[ [context]]: <msg>".
// Overlong paths are truncated at 100 bytes with a "..." suffix. Failures
// writing the log are swallowed; stderr belongs to the operator, not the
// client, and there's nothing useful we could do about a failed log write.
func (c *Connection) log(path []byte, context, msg string) {
	w := c.errOut
	if _, err := w.WriteString(c.remote); err != nil {
		return
	}
	if _, err := w.WriteString(" read "); err != nil {
		return
	}
	if len(path) > 100 {
		if _, err := w.Write(path[:100]); err != nil {
			return
		}
		if _, err := w.WriteString("..."); err != nil {
			return
		}
	} else {
		if _, err := w.Write(path); err != nil {
			return
		}
	}
	if context != "" {
		if _, err := w.WriteString(" [" + context + "]"); err != nil {
			return
		}
	}
	if _, err := w.WriteString(": " + msg + "\n"); err != nil {
		return
	}
	_ = w.Flush()
}

// logOther writes a single free-text line not tied to a specific path,
// e.g. "note: not modified" on a conditional-GET hit.
func (c *Connection) logOther(msg string) {
	w := c.errOut
	if _, err := w.WriteString(c.remote + " " + msg + "\n"); err != nil {
		return
	}
	_ = w.Flush()
}
