package httpd

import (
	"bytes"
	"os"
)

// filetype guesses a Content-Type from a file path's extension: a CT_<ext>
// environment variable override first, then a small canned table, then
// text/plain for anything else (including no extension at all).
func filetype(path []byte) string {
	ext := extensionOf(path)
	if ext == "" {
		return "text/plain"
	}
	if ct, ok := os.LookupEnv("CT_" + ext); ok {
		return ct
	}
	return cannedMapping(ext)
}

func extensionOf(path []byte) string {
	i := bytes.LastIndexByte(path, '.')
	if i == -1 || i == len(path)-1 {
		return ""
	}
	return string(path[i+1:])
}

func cannedMapping(ext string) string {
	switch ext {
	case "html":
		return "text/html"
	case "gif":
		return "image/gif"
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "pdf":
		return "application/pdf"
	case "css":
		return "text/css"
	default:
		return "text/plain"
	}
}
