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

package index

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seqio/fastx"
)

// Record is one input sequence.
type Record struct {
	Header []byte // the full header line, without '>' or '@'
	Seq    []byte
}

// Supplier streams sequence records. It can be restarted, as every
// build cycle reads the input again.
type Supplier interface {
	// Next returns the next record, or io.EOF at the end.
	// The record is only valid until the next call.
	Next() (*Record, error)

	// Reset restarts from the first record.
	Reset() error

	// Size returns the total size of the input in bytes.
	Size() int64

	// BytesRead returns the number of bytes consumed since the last Reset.
	BytesRead() int64

	Close() error
}

// FastxSupplier reads records from FASTA/FASTQ files,
// plain or compressed (gzip, xz, zstd, bzip2).
//
// Compressed files are read through a decompressor, so BytesRead is
// estimated from the lengths of the records, a header and a sequence line
// (and a quality line for FASTQ) per record, and may differ from the size
// on disk.
type FastxSupplier struct {
	files []string
	size  int64

	i      int // index of the current file
	reader *fastx.Reader
	read   int64
	record Record
}

// NewFastxSupplier creates a supplier over files.
// Stdin is not supported, as the input is read once per cycle.
func NewFastxSupplier(files []string) (*FastxSupplier, error) {
	if len(files) == 0 {
		return nil, errors.New("index: no input files")
	}
	s := &FastxSupplier{files: files}
	for _, file := range files {
		if file == "-" {
			return nil, errors.New("index: stdin can not be read more than once, please give files")
		}
		info, err := os.Stat(file)
		if err != nil {
			return nil, errors.Wrap(err, file)
		}
		s.size += info.Size()
	}
	return s, s.open()
}

func (s *FastxSupplier) open() error {
	reader, err := fastx.NewReader(nil, s.files[s.i], "")
	if err != nil {
		return errors.Wrap(err, s.files[s.i])
	}
	s.reader = reader
	return nil
}

// Next returns the next record.
func (s *FastxSupplier) Next() (*Record, error) {
	for {
		if s.reader == nil {
			return nil, io.EOF
		}
		record, err := s.reader.Read()
		if err == nil {
			s.record.Header = record.Name
			s.record.Seq = record.Seq.Seq
			s.read += int64(len(record.Name) + len(record.Seq.Seq) + 3)
			if len(record.Seq.Qual) > 0 {
				s.read += int64(len(record.Seq.Qual) + 3)
			}
			return &s.record, nil
		}
		if err != io.EOF {
			return nil, errors.Wrap(err, s.files[s.i])
		}

		s.reader.Close()
		s.reader = nil
		if s.i+1 == len(s.files) {
			return nil, io.EOF
		}
		s.i++
		if err = s.open(); err != nil {
			return nil, err
		}
	}
}

// Reset restarts from the first file.
func (s *FastxSupplier) Reset() error {
	if s.reader != nil {
		s.reader.Close()
		s.reader = nil
	}
	s.i = 0
	s.read = 0
	return s.open()
}

// Files returns the input files.
func (s *FastxSupplier) Files() []string { return s.files }

// Size returns the total size of the files.
func (s *FastxSupplier) Size() int64 { return s.size }

// BytesRead returns the estimated number of bytes read.
func (s *FastxSupplier) BytesRead() int64 { return s.read }

// Close closes the current file.
func (s *FastxSupplier) Close() error {
	if s.reader != nil {
		s.reader.Close()
		s.reader = nil
	}
	return nil
}

// SliceSupplier replays records held in memory.
type SliceSupplier struct {
	records []*Record
	files   []string // where the records were loaded from
	size    int64
	i       int
	read    int64
}

// NewSliceSupplier creates a supplier of the given records.
func NewSliceSupplier(records []*Record) *SliceSupplier {
	s := &SliceSupplier{records: records}
	for _, r := range records {
		s.size += int64(len(r.Header) + len(r.Seq) + 3)
	}
	return s
}

// Next returns the next record.
func (s *SliceSupplier) Next() (*Record, error) {
	if s.i >= len(s.records) {
		return nil, io.EOF
	}
	r := s.records[s.i]
	s.i++
	s.read += int64(len(r.Header) + len(r.Seq) + 3)
	return r, nil
}

// Reset restarts from the first record.
func (s *SliceSupplier) Reset() error {
	s.i = 0
	s.read = 0
	return nil
}

// Size returns the size of all records.
func (s *SliceSupplier) Size() int64 { return s.size }

// BytesRead returns the size of the records returned since the last Reset.
func (s *SliceSupplier) BytesRead() int64 { return s.read }

// Files returns the files the records were loaded from, if any.
func (s *SliceSupplier) Files() []string { return s.files }

// Close does nothing.
func (s *SliceSupplier) Close() error { return nil }

// LoadRecords reads all records of a supplier into memory, so that later
// cycles replay them instead of parsing the input again.
func LoadRecords(sup Supplier) (*SliceSupplier, error) {
	if err := sup.Reset(); err != nil {
		return nil, err
	}
	records := make([]*Record, 0, 1024)
	for {
		r, err := sup.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		records = append(records, &Record{
			Header: append([]byte(nil), r.Header...),
			Seq:    append([]byte(nil), r.Seq...),
		})
	}
	s := NewSliceSupplier(records)
	if f, ok := sup.(interface{ Files() []string }); ok {
		s.files = f.Files()
	}
	return s, nil
}
