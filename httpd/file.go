package httpd

import (
	"errors"
	"io/fs"
	"os"
	"time"
)

// OpenFile is the result of a pedantically checked open: the handle, its
// modification time, and its length as captured at open time. The mode
// bits were checked against the policy below at the moment of open; the
// length may still change under us while streaming.
type OpenFile struct {
	File   *os.File
	Mtime  time.Time
	Length int64
}

// openResult distinguishes "opened a regular file" from "opened a
// directory" -- the server turns the latter into a 301 redirect.
type openResult struct {
	IsDir bool
	File  OpenFile
}

// safeOpen opens path read-only, then inspects metadata on the freshly
// opened descriptor -- never on the path, which would reopen a race
// window between check and use. It is the Go analog of djb's
// file_open/safe_open pattern: world-readable, not "o+x but u-x", and
// either a directory or a regular file; anything else fails closed.
func safeOpen(path string) (openResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return openResult{}, mapOpenError(err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return openResult{}, mapOpenError(err)
	}

	mode := info.Mode().Perm()
	if mode&0o444 != 0o444 {
		f.Close()
		return openResult{}, errNotFound("not ugo+r")
	}
	if mode&0o101 == 0o001 {
		f.Close()
		return openResult{}, errNotFound("o+x but u-x")
	}

	switch {
	case info.IsDir():
		f.Close()
		return openResult{IsDir: true}, nil
	case info.Mode().IsRegular():
		return openResult{
			File: OpenFile{
				File:   f,
				Mtime:  info.ModTime(),
				Length: info.Size(),
			},
		}, nil
	default:
		f.Close()
		return openResult{}, errNotFound("not a regular file")
	}
}

func mapOpenError(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return errNotFound("no such file")
	case errors.Is(err, fs.ErrPermission):
		return errNotFound("permission denied")
	case errors.Is(err, os.ErrDeadlineExceeded):
		return errRequestTimeout()
	default:
		return errIOError(err)
	}
}
