package httpd

import "bytes"

// percentDecode decodes URL percent-escaping. Every "%" must be followed by
// two hex digits; anything else is a client error. Unlike the original
// Rust implementation, which decodes in place to minimize allocation, this
// builds the result into a fresh slice -- the observable contract is the
// decoded bytes, not the allocation strategy.
func percentDecode(path []byte) ([]byte, error) {
	out := make([]byte, 0, len(path))
	for i := 0; i < len(path); i++ {
		c := path[i]
		if c != '%' {
			out = append(out, c)
			continue
		}
		if len(path)-i < 3 {
			return nil, errBadRequest()
		}
		hi, ok1 := fromHex(path[i+1])
		lo, ok2 := fromHex(path[i+2])
		if !ok1 || !ok2 {
			return nil, errBadRequest()
		}
		out = append(out, hi*16+lo)
		i += 2
	}
	return out, nil
}

func fromHex(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	default:
		return 0, false
	}
}

// sanitize rewrites a composed on-disk path ("./HOST/PATH"): NUL becomes
// '_', a '/' immediately preceded by another '/' is dropped, and a '.'
// immediately preceded by '/' becomes ':' -- which turns "/.hidden" into
// "/:hidden" and blocks dotfile access, including "..", as a side effect.
// The leading '.' of the "./" prefix is untouched because nothing precedes
// it at position 0.
func sanitize(path []byte) []byte {
	out := make([]byte, 0, len(path))
	for _, c := range path {
		switch c {
		case 0:
			out = append(out, '_')
		case '/':
			if len(out) == 0 || out[len(out)-1] != '/' {
				out = append(out, c)
			}
		case '.':
			if len(out) > 0 && out[len(out)-1] == '/' {
				out = append(out, ':')
			} else {
				out = append(out, c)
			}
		default:
			out = append(out, c)
		}
	}
	return out
}

// normalizeHost lowercases a Host value and truncates it at the first ':',
// stripping any port.
func normalizeHost(host []byte) []byte {
	lower := bytes.ToLower(host)
	if i := bytes.IndexByte(lower, ':'); i != -1 {
		return lower[:i]
	}
	return lower
}
