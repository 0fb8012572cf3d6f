package httpd

import "errors"

// Serve runs the per-connection loop described in spec.md §4.7: read a
// request, serve it, and either loop (HTTP/1.1, success) or exit
// (HTTP/1.0, any protocol error, or a closed connection). Errors are
// reported to the client through barf, not to the caller: every exit from
// the loop returns nil.
func Serve(remote string) error {
	con := NewConnection(remote)

	for {
		req, err := readRequest(con)
		if err != nil {
			httpErr := asHTTPError(err)
			_ = barf(con, nil, true, httpErr)
			return nil
		}

		protocol := req.Protocol
		method := req.Method

		if err := serveRequest(con, req); err != nil {
			httpErr := asHTTPError(err)
			_ = barf(con, &protocol, method == MethodGet, httpErr)
			return nil
		}

		// Otherwise, carry on accepting requests on this connection.
	}
}

func asHTTPError(err error) *HttpError {
	var httpErr *HttpError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return errIOError(err)
}

// serveRequest resolves the request's target file, negotiates a gzip
// alternate, and writes the response. It returns ConnectionClosed to
// signal "the response was sent and the connection should end now"
// (HTTP/1.0 bodies, or a directory redirect on HTTP/1.0).
func serveRequest(con *Connection, req *Request) error {
	host, err := resolveHost(req)
	if err != nil {
		return err
	}

	decodedPath, err := percentDecode(req.Path)
	if err != nil {
		return err
	}

	filePath := sanitize(composePath(host, decodedPath))

	result, err := safeOpen(string(filePath))
	if err != nil {
		if msg, ok := asHTTPError(err).LogLine(); ok {
			con.log(filePath, "", msg)
		}
		return err
	}

	if result.IsDir {
		if req.Host == nil {
			return errNotFound("directory request without a host")
		}
		location := append(append([]byte{}, req.Host...), req.Path...)
		location = append(location, '/')
		location = append([]byte("http://"), location...)
		return redirect(con, req.Protocol, req.Method == MethodGet, location)
	}

	resource := result.File
	con.log(filePath, "", "success")

	contentType := filetype(filePath)
	encoding := encodingIdentity

	if req.AcceptGzip {
		gzPath := append(append([]byte{}, filePath...), []byte(".gz")...)
		gzResult, gzErr := safeOpen(string(gzPath))
		if gzErr == nil && !gzResult.IsDir && !gzResult.File.Mtime.Before(resource.Mtime) {
			resource.File.Close()
			resource = OpenFile{
				File:   gzResult.File.File,
				Mtime:  resource.Mtime, // Last-Modified stays keyed to the uncompressed file.
				Length: gzResult.File.Length,
			}
			encoding = encodingGzip
			con.log(gzPath, "gzipped", "success")
		}
	}
	defer resource.File.Close()

	return send(con, req, contentType, encoding, resource)
}

// resolveHost implements the host-resolution rule in spec.md §4.7: use the
// request's host if present; otherwise "0" for HTTP/1.0, or BadRequest for
// HTTP/1.1 (which must carry a host one way or another).
func resolveHost(req *Request) ([]byte, error) {
	if req.Host != nil {
		return normalizeHost(req.Host), nil
	}
	if req.Protocol == ProtocolHttp11 {
		return nil, errBadRequest()
	}
	return []byte("0"), nil
}

func composePath(host, path []byte) []byte {
	out := make([]byte, 0, 2+len(host)+1+len(path))
	out = append(out, '.', '/')
	out = append(out, host...)
	out = append(out, '/')
	out = append(out, path...)
	return out
}
