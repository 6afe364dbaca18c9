// Package chunker reads a file as a sequence of fixed-size, offset-tagged
// chunks. Reads are strictly sequential: parallelism belongs to the caller,
// which fans out chunks that have already been produced. This keeps memory
// bounded to chunk size times the caller's concurrency and avoids seek
// contention on the underlying file.
package chunker

import (
	"errors"
	"fmt"
	"io"
	"os"
)

var ErrInvalidChunkSize = errors.New("chunk size must be positive")

// Chunk is an immutable byte range of a file. Data is owned by the receiver;
// the reader never reuses the slice.
type Chunk struct {
	Data   []byte
	Offset int64
}

// Reader yields the chunks of one file in order, starting at offset 0.
// Every Reader owns its own file handle and offset, so concurrent Readers
// over the same path do not interfere with each other.
type Reader struct {
	f    *os.File
	size int64
	off  int64
}

// New opens path for reading. The caller must Close the reader.
func New(path string, chunkSize int64) (*Reader, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChunkSize, chunkSize)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Reader{f: f, size: chunkSize}, nil
}

// Next returns the next chunk, or io.EOF after the last one. A zero-length
// file yields io.EOF immediately. The final chunk may be shorter than the
// configured size; it is never empty.
func (r *Reader) Next() (*Chunk, error) {
	buf := make([]byte, r.size)
	n, err := io.ReadFull(r.f, buf)
	if n == 0 {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read %s: %w", r.f.Name(), err)
	}
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("read %s: %w", r.f.Name(), err)
	}
	c := &Chunk{Data: buf[:n], Offset: r.off}
	r.off += int64(n)
	return c, nil
}

func (r *Reader) Close() error {
	return r.f.Close()
}
