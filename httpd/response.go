package httpd

import "time"

// httpDateLayout is RFC 7231's IMF-fixdate, the single format this server
// ever emits or compares: "Sun, 06 Nov 1994 08:49:37 GMT".
const httpDateLayout = "Mon, 02 Jan 2006 15:04:05 GMT"

func formatHTTPDate(t time.Time) string {
	return t.UTC().Format(httpDateLayout)
}

// contentEncoding names the Content-Encoding value, if any, a response
// carries. The zero value means "no encoding".
type contentEncoding int

const (
	encodingIdentity contentEncoding = iota
	encodingGzip
)

// startResponse writes the status line and the headers common to every
// response: Server and Date. The caller follows up with any
// response-specific headers and a terminating CRLF.
func startResponse(con *Connection, protocol Protocol, now time.Time, code, reason string) error {
	if err := con.write(protocol.statusLine()); err != nil {
		return err
	}
	if err := con.writeString(code + " " + reason); err != nil {
		return err
	}
	return con.writeString("\r\nServer: abstract screaming\r\nDate: " + formatHTTPDate(now) + "\r\n")
}

// send emits a 200 (or 304, on a conditional-GET hit) for resource,
// followed by identity or chunked body framing depending on protocol.
func send(con *Connection, req *Request, contentType string, encoding contentEncoding, resource OpenFile) error {
	mtime := formatHTTPDate(resource.Mtime)
	unmodified := req.IfModifiedSince != nil && string(req.IfModifiedSince) == mtime

	var err error
	if unmodified {
		con.logOther("note: not modified")
		err = startResponse(con, req.Protocol, time.Now(), "304", "not modified")
	} else {
		err = startResponse(con, req.Protocol, time.Now(), "200", "OK")
	}
	if err != nil {
		return err
	}

	if err := con.writeString("Content-Type: " + contentType + "\r\n"); err != nil {
		return err
	}
	if err := con.writeString("Last-Modified: " + mtime + "\r\n"); err != nil {
		return err
	}
	// A 304 carries no body and, per spec, no Content-Encoding either.
	if !unmodified && encoding == encodingGzip {
		if err := con.write([]byte("Content-Encoding: gzip\r\n")); err != nil {
			return err
		}
	}

	sendBody := req.Method == MethodGet && !unmodified

	var bodyErr error
	switch req.Protocol {
	case ProtocolHttp10:
		bodyErr = sendUnencoded(con, sendBody, resource)
	default:
		bodyErr = sendChunked(con, sendBody, resource)
	}

	if err := con.flushOutput(); err != nil {
		return err
	}
	return bodyErr
}

func sendUnencoded(con *Connection, sendBody bool, resource OpenFile) error {
	if err := con.writeString("Content-Length: "); err != nil {
		return err
	}
	if err := con.writeDecimal(int(resource.Length)); err != nil {
		return err
	}
	if err := con.writeString("\r\n\r\n"); err != nil {
		return err
	}
	if sendBody {
		if err := identityCopy(con, resource.File, resource.Length); err != nil {
			return err
		}
	}
	// HTTP/1.0 responses are never kept alive.
	return errConnectionClosed()
}

func sendChunked(con *Connection, sendBody bool, resource OpenFile) error {
	if err := con.write([]byte("Transfer-Encoding: chunked\r\n\r\n")); err != nil {
		return err
	}
	if sendBody {
		return chunkedCopy(con, resource.File)
	}
	return nil
}

// barf reports a pre-body error to the client: a status line, a
// Content-Length body framing, and (when sendContent is set) an
// HTML-wrapped reason. ConnectionClosed is swallowed -- there's no client
// left to tell.
func barf(con *Connection, protocol *Protocol, sendContent bool, httpErr *HttpError) error {
	code, reason, ok := httpErr.Status()
	if !ok {
		return nil
	}

	p := ProtocolHttp10
	if protocol != nil {
		p = *protocol
	}

	if err := startResponse(con, p, time.Now(), code, reason); err != nil {
		return nil
	}
	if err := con.writeString("Content-Length: "); err != nil {
		return nil
	}
	if err := con.writeDecimal(len(reason) + 28); err != nil {
		return nil
	}
	if err := con.writeString("\r\n"); err != nil {
		return nil
	}
	if protocol != nil && *protocol == ProtocolHttp11 {
		if err := con.write([]byte("Connection: close\r\n")); err != nil {
			return nil
		}
	}
	if err := con.write([]byte("Content-Type: text/html\r\n\r\n")); err != nil {
		return nil
	}
	if sendContent {
		if err := con.writeString("<html><body>" + reason + "</body></html>\r\n"); err != nil {
			return nil
		}
	}
	return con.flushOutput()
}

// redirect sends a 301 for a directory request; the connection stays open
// on HTTP/1.1 and is closed (by returning ConnectionClosed) on HTTP/1.0.
func redirect(con *Connection, protocol Protocol, sendContent bool, location []byte) error {
	const body = "<html><body>moved permanently</body></html>"

	if err := startResponse(con, protocol, time.Now(), "301", "moved permanently"); err != nil {
		return err
	}
	if err := con.writeString("Content-Length: "); err != nil {
		return err
	}
	if err := con.writeDecimal(len(body)); err != nil {
		return err
	}
	if err := con.writeString("\r\nLocation: "); err != nil {
		return err
	}
	if err := con.write(location); err != nil {
		return err
	}
	if err := con.write([]byte("\r\nContent-Type: text/html\r\n\r\n")); err != nil {
		return err
	}
	if sendContent {
		if err := con.writeString(body); err != nil {
			return err
		}
	}
	if err := con.flushOutput(); err != nil {
		return err
	}

	if protocol == ProtocolHttp10 {
		return errConnectionClosed()
	}
	return nil
}
