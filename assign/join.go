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

package assign

import (
	"io"
)

// Stream is a sorted stream of entries, e.g., a bucket.Reader.
type Stream interface {
	// Next returns the next entry, or io.EOF at the end.
	Next() (uint64, error)
}

// Join merges a database bucket with a read bucket of the same name.
// Entries of both are remainder<<bits | id, sorted ascending.
// hit is called once for every read entry whose remainder is in the
// database, with the read ordinal and the taxid. It returns the number of hits.
func Join(db, reads Stream, dbBits, readBits int, hit func(read, taxid uint32) error) (int64, error) {
	dbMask := uint64(1)<<dbBits - 1
	readMask := uint64(1)<<readBits - 1

	var n int64
	d, err := db.Next()
	if err != nil {
		if err == io.EOF {
			return 0, nil
		}
		return 0, err
	}
	dk := d >> dbBits

	var r, rk uint64
	for {
		r, err = reads.Next()
		if err != nil {
			if err == io.EOF {
				return n, nil
			}
			return n, err
		}
		rk = r >> readBits

		for dk < rk {
			d, err = db.Next()
			if err != nil {
				if err == io.EOF {
					return n, nil
				}
				return n, err
			}
			dk = d >> dbBits
		}

		if dk == rk {
			if err = hit(uint32(r&readMask), uint32(d&dbMask)); err != nil {
				return n, err
			}
			n++
		}
	}
}
