// Copyright © 2023-2024 Wei Shen <shenwei356@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package bucket

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/shenwei356/xopen"
)

var be = binary.BigEndian

// ErrBrokenFile means the file is not complete.
var ErrBrokenFile = errors.New("bucket: broken file")

// ErrInvalidEncoding means the bucket encoding is not supported.
var ErrInvalidEncoding = errors.New("bucket: invalid encoding, available: raw, delta")

// Encoding is the format of entries in bucket files.
type Encoding uint8

const (
	// Raw stores big-endian 64-bit entries.
	Raw Encoding = iota
	// Delta stores differences between consecutive sorted entries as unsigned varints.
	Delta
)

// ParseEncoding parses "raw" or "delta".
func ParseEncoding(s string) (Encoding, error) {
	switch s {
	case "raw", "":
		return Raw, nil
	case "delta":
		return Delta, nil
	}
	return Raw, errors.Wrap(ErrInvalidEncoding, s)
}

func (e Encoding) String() string {
	if e == Delta {
		return "delta"
	}
	return "raw"
}

// FileName returns the path of a bucket file in an index directory.
func FileName(dir string, name int) string {
	return filepath.Join(dir, fmt.Sprintf("%d.bin", name))
}

// Exists tells whether the file of a bucket exists.
func Exists(dir string, name int) bool {
	_, err := os.Stat(FileName(dir, name))
	return err == nil
}

// Write writes sorted entries to a file:
//
//	int32 length
//	entries, as big-endian uint64 or varint deltas
//
// It returns the number of bytes written.
func Write(file string, entries []uint64, enc Encoding) (int, error) {
	if len(entries) > math.MaxInt32 {
		return 0, fmt.Errorf("bucket: too many entries for one file: %d", len(entries))
	}
	fh, err := xopen.Wopen(file)
	if err != nil {
		return 0, err
	}

	w := bufio.NewWriterSize(fh, 1<<20)
	N, err := write(w, entries, enc)
	if err == nil {
		err = w.Flush()
	}
	if err2 := fh.Close(); err == nil {
		err = err2
	}
	return N, errors.Wrap(err, file)
}

func write(w io.Writer, entries []uint64, enc Encoding) (int, error) {
	var buf [binary.MaxVarintLen64]byte
	var N int

	be.PutUint32(buf[:4], uint32(len(entries)))
	n, err := w.Write(buf[:4])
	if err != nil {
		return N, err
	}
	N += n

	var pre uint64
	for _, e := range entries {
		if enc == Delta {
			if e < pre {
				return N, fmt.Errorf("bucket: unsorted entries can not be delta-encoded")
			}
			n, err = w.Write(buf[:binary.PutUvarint(buf[:], e-pre)])
			pre = e
		} else {
			be.PutUint64(buf[:8], e)
			n, err = w.Write(buf[:8])
		}
		if err != nil {
			return N, err
		}
		N += n
	}
	return N, nil
}

// Reader streams the entries of a bucket file.
type Reader struct {
	file string
	fh   *xopen.Reader
	enc  Encoding

	n    int // number of entries
	read int
	pre  uint64
	buf  [8]byte
}

// NewReader opens a bucket file and reads its length.
func NewReader(file string, enc Encoding) (*Reader, error) {
	fh, err := xopen.Ropen(file)
	if err != nil {
		return nil, err
	}
	r := &Reader{file: file, fh: fh, enc: enc}

	if _, err = io.ReadFull(fh, r.buf[:4]); err != nil {
		fh.Close()
		return nil, errors.Wrap(ErrBrokenFile, file)
	}
	n := int32(be.Uint32(r.buf[:4]))
	if n < 0 {
		fh.Close()
		return nil, errors.Wrapf(ErrBrokenFile, "%s: negative length", file)
	}
	r.n = int(n)
	return r, nil
}

// Len returns the number of entries.
func (r *Reader) Len() int { return r.n }

// Next returns the next entry, and io.EOF after the last one.
func (r *Reader) Next() (uint64, error) {
	if r.read == r.n {
		return 0, io.EOF
	}
	if r.enc == Delta {
		d, err := binary.ReadUvarint(r.fh)
		if err != nil {
			return 0, errors.Wrap(ErrBrokenFile, r.file)
		}
		r.pre += d
	} else {
		if _, err := io.ReadFull(r.fh, r.buf[:]); err != nil {
			return 0, errors.Wrap(ErrBrokenFile, r.file)
		}
		r.pre = be.Uint64(r.buf[:])
	}
	r.read++
	return r.pre, nil
}

// Close closes the file.
func (r *Reader) Close() error {
	return r.fh.Close()
}

// Read reads all entries of a bucket file.
func Read(file string, enc Encoding) ([]uint64, error) {
	r, err := NewReader(file, enc)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	entries := make([]uint64, r.Len())
	for i := range entries {
		if entries[i], err = r.Next(); err != nil {
			return nil, err
		}
	}
	return entries, nil
}
