package ole2

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// source is the positioned byte-read layer (L1): every higher layer reads
// through it rather than touching an io.ReaderAt directly, so there is one
// place that turns short reads and I/O errors into ErrIo-wrapped errors.
type source struct {
	r io.ReaderAt
}

func (s *source) readAt(buf []byte, off int64) error {
	n, err := s.r.ReadAt(buf, off)
	if n == len(buf) {
		return nil
	}
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("ole2: read at %d: %w", off, errors.Join(ErrIo, err))
}

// Spool copies r fully into memory and returns an io.ReaderAt over the copy.
// Use it when the underlying source cannot be opened as an io.ReaderAt (for
// example, data arriving over a pipe or network connection), since every
// other operation in this package requires random access.
func Spool(r io.Reader) (io.ReaderAt, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("ole2: spooling source: %w", err)
	}
	return bytes.NewReader(buf), nil
}
