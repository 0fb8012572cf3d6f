package httpd

import (
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// DefaultTimeout is the per-operation deadline for both directions,
// matching publicfile's 60-second default.
const DefaultTimeout = 60 * time.Second

// SafeFile wraps an *os.File so that every Read blocks at most Timeout
// waiting for at least one byte to arrive, and every Write blocks at most
// Timeout waiting for the kernel to accept at least one byte. A timeout is
// reported as an *HttpError with KindRequestTimeout.
//
// This is the Go analog of the original's nix::sys::select-based
// SafeFile wrapper: a single-FD readiness wait ahead of every blocking call.
type SafeFile struct {
	f       *os.File
	Timeout time.Duration
}

// NewSafeFile wraps f with the default 60-second timeout.
func NewSafeFile(f *os.File) *SafeFile {
	return &SafeFile{f: f, Timeout: DefaultTimeout}
}

func (s *SafeFile) waitReadable() error {
	return waitFD(s.f.Fd(), s.Timeout, false)
}

func (s *SafeFile) waitWritable() error {
	return waitFD(s.f.Fd(), s.Timeout, true)
}

// Read implements io.Reader with a readiness deadline.
func (s *SafeFile) Read(p []byte) (int, error) {
	if err := s.waitReadable(); err != nil {
		return 0, err
	}
	return s.f.Read(p)
}

// Write implements io.Writer with a readiness deadline.
func (s *SafeFile) Write(p []byte) (int, error) {
	if err := s.waitWritable(); err != nil {
		return 0, err
	}
	return s.f.Write(p)
}

// Flush is a no-op for a raw file on Unix: flushing is only meaningful for
// the buffered writer layered on top of this, which inherits our write
// timeout through Write.
func (s *SafeFile) Flush() error { return nil }

// waitFD blocks until fd is ready for read (write=false) or write (write=true),
// or returns a timeout error after d elapses.
func waitFD(fd uintptr, d time.Duration, write bool) error {
	var (
		rfds, wfds unix.FdSet
		target     = &rfds
	)
	if write {
		target = &wfds
	}

	n := int(fd)
	idx := n / 64
	bit := uint(n % 64)
	target.Bits[idx] |= 1 << bit

	tv := unix.NsecToTimeval(d.Nanoseconds())

	for {
		nReady, err := unix.Select(n+1, &rfds, &wfds, nil, &tv)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return errIOError(err)
		}
		if nReady == 0 {
			return errRequestTimeout()
		}
		return nil
	}
}
