package httpd

import "io"

// chunkedCopy streams src to con as HTTP/1.1 chunked transfer encoding:
// hex-length, CRLF, payload, CRLF, repeated, finished by a zero-length
// chunk. It reads through a fixed-size buffer and writes each fill back to
// the connection, treating an empty fill as end of transfer.
//
// The teacher's chunk codec decoded an incoming request body; this server
// never receives one (spec.md §1 excludes message bodies), so the only
// chunk-format work left is the mirror image: encoding an outgoing
// response body.
func chunkedCopy(con *Connection, src io.Reader) error {
	buf := make([]byte, fileBufBytes)

	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			if err := con.writeHex(n); err != nil {
				return err
			}
			if err := con.write(crlf); err != nil {
				return err
			}
			if err := con.write(buf[:n]); err != nil {
				return err
			}
			if err := con.write(crlf); err != nil {
				return err
			}
		}
		if rerr == io.EOF || n == 0 {
			break
		}
		if rerr != nil {
			return errConnectionClosed()
		}
	}

	// Terminating zero-length chunk.
	if err := con.writeHex(0); err != nil {
		return err
	}
	if err := con.write(crlf); err != nil {
		return err
	}
	return con.write(crlf)
}

// identityCopy streams src to con verbatim, up to limit bytes -- used for
// the HTTP/1.0 Content-Length-framed path, which must never send more
// bytes than it promised even if the underlying file grows while we read.
func identityCopy(con *Connection, src io.Reader, limit int64) error {
	buf := make([]byte, fileBufBytes)
	var sent int64

	for sent < limit {
		want := int64(len(buf))
		if remaining := limit - sent; remaining < want {
			want = remaining
		}
		n, rerr := src.Read(buf[:want])
		if n > 0 {
			if err := con.write(buf[:n]); err != nil {
				return err
			}
			sent += int64(n)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return errConnectionClosed()
		}
		if n == 0 {
			break
		}
	}
	return nil
}

const fileBufBytes = 1024

var crlf = []byte("\r\n")
