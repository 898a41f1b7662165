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
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/shenwei356/xopen"
)

func readAll(t *testing.T, sup Supplier) int {
	var n int
	for {
		_, err := sup.Next()
		if err == io.EOF {
			return n
		}
		if err != nil {
			t.Fatal(err)
		}
		n++
	}
}

// writeGzip writes a file compressed by its extension.
func writeGzip(t *testing.T, file, content string) {
	outfh, err := xopen.Wopen(file)
	if err != nil {
		t.Fatal(err)
	}
	outfh.WriteString(content)
	if err = outfh.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestBytesRead(t *testing.T) {
	file := filepath.Join(t.TempDir(), "seqs.fasta")
	content := ">s1 one\nMKVLAAGIVG\n>s2\nLLLAQPSRWHCY\n"
	if err := os.WriteFile(file, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	fsup, err := NewFastxSupplier([]string{file})
	if err != nil {
		t.Fatal(err)
	}
	defer fsup.Close()

	ssup := NewSliceSupplier([]*Record{
		{Header: []byte("s1 one"), Seq: []byte("MKVLAAGIVG")},
		{Header: []byte("s2"), Seq: []byte("LLLAQPSRWHCY")},
	})

	for _, sup := range []Supplier{fsup, ssup} {
		for pass := 0; pass < 2; pass++ {
			if err = sup.Reset(); err != nil {
				t.Fatal(err)
			}
			if sup.BytesRead() != 0 {
				t.Errorf("pass %d: %d bytes read after a reset", pass, sup.BytesRead())
			}
			if n := readAll(t, sup); n != 2 {
				t.Errorf("pass %d: expected 2 records, result: %d", pass, n)
			}
			if sup.Size() != int64(len(content)) || sup.BytesRead() != sup.Size() {
				t.Errorf("pass %d: size %d, bytes read %d, expected: %d", pass, sup.Size(), sup.BytesRead(), len(content))
			}
		}
	}

	// a silent bar
	bar := NewBytesProgress(false, "read bytes: ", fsup.Size())
	bar.SetCurrent(fsup.BytesRead())
	bar.Done()
	bar.Wait()
}

func TestLoadRecords(t *testing.T) {
	file := filepath.Join(t.TempDir(), "seqs.fasta.gz")
	content := ">s1 one\nMKVLAAGIVG\n>s2\nLLLAQPSRWHCY\n>s3 three\nMW\n"
	writeGzip(t, file, content)

	fsup, err := NewFastxSupplier([]string{file})
	if err != nil {
		t.Fatal(err)
	}
	defer fsup.Close()
	readAll(t, fsup) // LoadRecords starts over

	sup, err := LoadRecords(fsup)
	if err != nil {
		t.Fatal(err)
	}
	expected := []Record{
		{Header: []byte("s1 one"), Seq: []byte("MKVLAAGIVG")},
		{Header: []byte("s2"), Seq: []byte("LLLAQPSRWHCY")},
		{Header: []byte("s3 three"), Seq: []byte("MW")},
	}
	for pass := 0; pass < 2; pass++ {
		if err = sup.Reset(); err != nil {
			t.Fatal(err)
		}
		for i, e := range expected {
			r, err := sup.Next()
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(r.Header, e.Header) || !bytes.Equal(r.Seq, e.Seq) {
				t.Errorf("pass %d, record %d, expected: %s %s, result: %s %s", pass, i, e.Header, e.Seq, r.Header, r.Seq)
			}
		}
		if _, err = sup.Next(); err != io.EOF {
			t.Errorf("pass %d: expected io.EOF, result: %v", pass, err)
		}
	}
	if sup.Size() != int64(len(content)) {
		t.Errorf("size, expected: %d, result: %d", len(content), sup.Size())
	}
	if files := sup.Files(); len(files) != 1 || files[0] != file {
		t.Errorf("unexpected files: %v", files)
	}
}
