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
	"context"
	"path/filepath"

	diamer "github.com/husonlab/diamer1-sub000"
	"github.com/husonlab/diamer1-sub000/bucket"
	"github.com/pkg/errors"
)

// IndexReads builds the index of sequencing reads. Entries carry read
// ordinals, which are mapped to read headers in FileHeaders.
func IndexReads(ctx context.Context, opt *Options, sup Supplier) (*Report, error) {
	c, err := newConfig(opt)
	if err != nil {
		return nil, err
	}
	maxID := c.layout.MaxID()

	b := &builder{
		c:    c,
		sup:  sup,
		kind: diamer.KindReads,
		id: func(r *Record, ordinal int) (uint32, bool, error) {
			if uint64(ordinal) > uint64(maxID) {
				return 0, false, errors.Wrapf(diamer.ErrIDOverflow,
					"read %d, at most %d reads can be indexed with %d bits", ordinal, uint64(maxID)+1, c.layout.BitsForIDs)
			}
			return uint32(ordinal), true, nil
		},
		headers: newHeaderWriter(filepath.Join(opt.OutDir, FileHeaders)),
		write: func(bk *bucket.Bucket, file string) (int, error) {
			entries, _ := bk.Sorted()
			_, err := bucket.Write(file, entries, c.encoding)
			return len(entries), err
		},
	}
	return b.run(ctx)
}
