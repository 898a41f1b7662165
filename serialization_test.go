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

package diamer

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestIndexInfo(t *testing.T) {
	l, err := NewLayout(11, MustParseMask("1111011111111111"), DefaultBitsForIDs, 12)
	if err != nil {
		t.Error(err)
		return
	}
	info := NewIndexInfo(KindDatabase, "base11", l, DefaultFilter)
	info.BucketEncoding = "raw"
	info.Records = 10
	info.Entries = 1000

	file := filepath.Join(t.TempDir(), FileInfo)
	if err = WriteIndexInfo(file, info); err != nil {
		t.Error(err)
		return
	}
	info2, err := ReadIndexInfo(file)
	if err != nil {
		t.Error(err)
		return
	}
	if *info2 != *info {
		t.Errorf("unmatched info: %+v vs %+v", info, info2)
	}

	l2, err := info2.Layout()
	if err != nil {
		t.Error(err)
		return
	}
	if l2.String() != l.String() {
		t.Errorf("unmatched layouts: %s vs %s", l, l2)
	}

	reads := NewIndexInfo(KindReads, "base11", l, DefaultFilter)
	if err = info.CompatibleWith(reads); err != nil {
		t.Errorf("indexes should be compatible: %s", err)
	}
	reads.Mask = "111111111111111"
	if err = info.CompatibleWith(reads); !errors.Is(err, ErrIncompatibleIndexes) {
		t.Errorf("expected ErrIncompatibleIndexes, result: %v", err)
	}
}
