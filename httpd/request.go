package httpd

import "bytes"

// Method is the closed set of methods this server understands.
type Method int

const (
	MethodGet Method = iota
	MethodHead
)

// Protocol is the closed set of HTTP versions this server understands.
type Protocol int

const (
	ProtocolHttp10 Protocol = iota
	ProtocolHttp11
)

// Request is a parsed HTTP/1.x request line plus the handful of headers
// this server cares about. Method and Protocol are set the moment the
// request-line parses; Host is absent only for HTTP/1.0 (a missing Host on
// an HTTP/1.1 request is itself a BadRequest, raised by the server's
// resolveHost when the request is served); IfModifiedSince and AcceptGzip are
// derived only from headers seen after the request-line is accepted.
type Request struct {
	Method   Method
	Protocol Protocol

	// Host is the raw bytes taken from either the request-URI or the Host
	// header, not yet lowercased or port-stripped -- that normalization
	// happens at the point of use (see normalizeHost).
	Host []byte

	// Path is percent-encoded and un-sanitized, with "index.html" appended
	// if the request-line path was empty or ended in "/".
	Path []byte

	IfModifiedSince []byte
	AcceptGzip      bool
}

// readRequest consumes lines from c until a terminating blank line,
// producing a Request or an *HttpError describing why it couldn't.
func readRequest(c *Connection) (*Request, error) {
	line, err := readRequestLine(c)
	if err != nil {
		return nil, err
	}

	req, err := parseRequestLine(line)
	if err != nil {
		return nil, err
	}

	if err := readHeaders(c, req); err != nil {
		return nil, err
	}

	return req, nil
}

// readRequestLine skips any leading blank lines before the request-line
// itself, mimicking publicfile's tolerance of stray blank lines between
// requests on a kept-alive connection.
func readRequestLine(c *Connection) ([]byte, error) {
	for {
		line, err := c.readline()
		if err != nil {
			return nil, err
		}
		if len(line) > 0 {
			return line, nil
		}
	}
}

// parseRequestLine handles "METHOD SP TARGET SP VERSION", splitting on
// exactly two spaces.
func parseRequestLine(line []byte) (*Request, error) {
	parts := bytes.SplitN(line, []byte(" "), 3)
	if len(parts) != 3 {
		return nil, errBadRequest()
	}

	var method Method
	switch string(parts[0]) {
	case "GET":
		method = MethodGet
	case "HEAD":
		method = MethodHead
	default:
		return nil, errBadMethod()
	}

	var protocol Protocol
	switch string(parts[2]) {
	case "HTTP/1.0":
		protocol = ProtocolHttp10
	case "HTTP/1.1":
		protocol = ProtocolHttp11
	default:
		return nil, errBadProtocol()
	}

	host, path := splitTarget(parts[1])

	if len(path) == 0 || path[len(path)-1] == '/' {
		path = append(append([]byte{}, path...), []byte("index.html")...)
	}

	return &Request{
		Method:   method,
		Protocol: protocol,
		Host:     host,
		Path:     path,
	}, nil
}

// splitTarget separates an absolute-URI target ("http://host/path") from a
// path-only target, per the publicfile convention: case-insensitive
// "http://" prefix, split at the first '/' thereafter. An empty host
// (as in "http:///foo") is treated as no host at all.
func splitTarget(target []byte) (host, path []byte) {
	if !hasPrefixFold(target, "http://") {
		return nil, target
	}
	rest := target[len("http://"):]
	i := bytes.IndexByte(rest, '/')
	if i == -1 {
		i = len(rest)
	}
	h, p := rest[:i], rest[i:]
	if len(h) == 0 {
		return nil, p
	}
	return h, p
}

func hasPrefixFold(s []byte, prefix string) bool {
	if len(s) < len(prefix) {
		return false
	}
	return bytes.EqualFold(s[:len(prefix)], []byte(prefix))
}

func isHTTPWS(b byte) bool { return b == ' ' || b == '\t' }

// readHeaders reads the header block, folding continuation lines (a line
// starting with SP or TAB extends the previous header) into an
// accumulator, and dispatches each complete header by case-insensitive
// prefix match once it's known to be complete.
func readHeaders(c *Connection, req *Request) error {
	var hdr []byte

	for {
		line, err := c.readline()
		if err != nil {
			return err
		}

		if len(hdr) > 0 && (len(line) == 0 || !isHTTPWS(line[0])) {
			if err := dispatchHeader(hdr, req); err != nil {
				return err
			}
			hdr = nil
		}

		if len(line) == 0 {
			break
		}

		hdr = append(hdr, line...)
	}

	return nil
}

// dispatchHeader interprets one complete (possibly folded) header line
// against the fixed set of headers this server recognizes. Matching is a
// case-insensitive prefix check against the accumulator, exactly as
// publicfile does it -- including the byte-offset slicing for "host:" and
// "if-modified-since:" that assumes no space before the colon (see
// spec.md §9 Open Questions 1 and 2).
func dispatchHeader(hdr []byte, req *Request) error {
	switch {
	case hasPrefixFold(hdr, "content-length:"), hasPrefixFold(hdr, "transfer-encoding:"):
		return errNotImplemented("I can't receive messages")

	case hasPrefixFold(hdr, "expect"):
		return errSpanishInquisition()

	case hasPrefixFold(hdr, "if-match"), hasPrefixFold(hdr, "if-unmodified-since"):
		return errPreconditionFailed()

	case hasPrefixFold(hdr, "host"):
		if req.Host == nil && len(hdr) >= 5 {
			newHost := stripWS(hdr[5:])
			if len(newHost) > 0 {
				req.Host = newHost
			}
		}

	case hasPrefixFold(hdr, "if-modified-since"):
		if len(hdr) >= 18 {
			req.IfModifiedSince = trimLeadingWS(hdr[18:])
		}

	case hasPrefixFold(hdr, "accept-encoding:"):
		if len(hdr) >= 16 {
			scanForGzip(hdr[16:], req)
		}
	}
	return nil
}

func stripWS(b []byte) []byte {
	out := make([]byte, 0, len(b))
	for _, c := range b {
		if !isHTTPWS(c) {
			out = append(out, c)
		}
	}
	return out
}

func trimLeadingWS(b []byte) []byte {
	i := 0
	for i < len(b) && isHTTPWS(b[i]) {
		i++
	}
	return append([]byte{}, b[i:]...)
}

// scanForGzip looks for a case-insensitive "gzip" substring in 4-byte
// windows. This is deliberately out of spec -- it would accept
// "gzip;q=0" as acceptance -- but it matches publicfile's own lenient
// behavior (spec.md §9 Open Question 3), including being a silent no-op
// when fewer than 4 bytes remain.
func scanForGzip(b []byte, req *Request) {
	for i := 0; i+4 <= len(b); i++ {
		if bytes.EqualFold(b[i:i+4], []byte("gzip")) {
			req.AcceptGzip = true
			return
		}
	}
}

func (m Method) String() string {
	if m == MethodHead {
		return "HEAD"
	}
	return "GET"
}

func (p Protocol) statusLine() []byte {
	if p == ProtocolHttp11 {
		return []byte("HTTP/1.1 ")
	}
	return []byte("HTTP/1.0 ")
}
