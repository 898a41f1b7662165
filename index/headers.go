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
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shenwei356/xopen"
)

// headerWriter writes the mapping from read ordinals to headers:
//
//	number of reads
//	ordinal \t header
type headerWriter struct {
	file  string
	outfh *xopen.Writer
	n     int // expected
	i     int // written
}

func newHeaderWriter(file string) *headerWriter {
	return &headerWriter{file: file}
}

func (w *headerWriter) begin(n int) error {
	var err error
	w.outfh, err = xopen.Wopen(w.file)
	if err != nil {
		return errors.Wrap(err, w.file)
	}
	w.n = n
	_, err = fmt.Fprintf(w.outfh, "%d\n", n)
	return errors.Wrap(err, w.file)
}

func (w *headerWriter) write(ordinal int, header []byte) error {
	if ordinal != w.i {
		return errors.Errorf("index: read %d written as %d", ordinal, w.i)
	}
	w.i++
	_, err := fmt.Fprintf(w.outfh, "%d\t%s\n", ordinal, header)
	return errors.Wrap(err, w.file)
}

func (w *headerWriter) close() error {
	err := w.outfh.Close()
	if err != nil {
		return errors.Wrap(err, w.file)
	}
	if w.i != w.n {
		return errors.Errorf("index: %d reads expected, %d read, the input changed", w.n, w.i)
	}
	return nil
}

// ReadHeaders reads the headers of reads, indexed by read ordinals.
func ReadHeaders(file string) ([]string, error) {
	fh, err := xopen.Ropen(file)
	if err != nil {
		return nil, errors.Wrap(err, file)
	}
	defer fh.Close()

	scanner := bufio.NewScanner(fh)
	scanner.Buffer(make([]byte, 0, 1<<16), 1<<30)

	if !scanner.Scan() {
		if err = scanner.Err(); err != nil {
			return nil, errors.Wrap(err, file)
		}
		return nil, errors.Wrapf(io.ErrUnexpectedEOF, "%s: empty file", file)
	}
	n, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	if err != nil || n < 0 {
		return nil, errors.Errorf("%s: invalid number of reads: %s", file, scanner.Text())
	}

	headers := make([]string, n)
	var line string
	var i, ordinal int
	for scanner.Scan() {
		line = scanner.Text()
		if line == "" {
			continue
		}
		i = strings.IndexByte(line, '\t')
		if i < 0 {
			return nil, errors.Errorf("%s: invalid line: %s", file, line)
		}
		ordinal, err = strconv.Atoi(line[:i])
		if err != nil || ordinal < 0 || ordinal >= n {
			return nil, errors.Errorf("%s: invalid read ordinal: %s", file, line[:i])
		}
		headers[ordinal] = line[i+1:]
	}
	if err = scanner.Err(); err != nil {
		return nil, errors.Wrap(err, file)
	}
	return headers, nil
}
