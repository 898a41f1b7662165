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

package alphabet

import (
	"bytes"
	"testing"
)

func TestParse(t *testing.T) {
	type Case struct {
		s    string
		base int
		ok   bool
	}
	tests := []Case{
		{"[DEKNQR][AST][ILV][G][P][F][Y][C][H][M][W]", 11, true},
		{"[AG][CT]", 2, true},
		{"[A]", 0, false},
		{"AG][CT]", 0, false},
		{"[AG][]", 0, false},
		{"[AG][GT]", 0, false}, // G twice
		{"[Ag][aT]", 0, false}, // a is A
	}
	for i, test := range tests {
		a, err := Parse(test.s)
		if test.ok != (err == nil) {
			t.Errorf("[%d] %s, expected ok: %v, error: %v", i, test.s, test.ok, err)
			continue
		}
		if err == nil && a.Base() != test.base {
			t.Errorf("[%d] %s, expected base: %d, result: %d", i, test.s, test.base, a.Base())
		}
	}

	a, err := Get("[dekNQR][AST]")
	if err != nil {
		t.Error(err)
		return
	}
	if a.String() != "[DEKNQR][AST]" {
		t.Errorf("unexpected string: %s", a.String())
	}
}

func TestEncode(t *testing.T) {
	s := Base11.Encode([]byte("NQFLwx*"), nil)
	expected := []byte{0, 0, 5, 2, 10, Invalid, Invalid}
	if !bytes.Equal(s, expected) {
		t.Errorf("expected: %v, result: %v", expected, s)
	}

	if Base11Uniform.Base() != 11 {
		t.Errorf("base11-uniform has %d groups", Base11Uniform.Base())
	}
	if Base11Uniform.Symbol('X') != 5 || Base11Uniform.Symbol('*') != Invalid {
		t.Errorf("unexpected symbols for X and *")
	}

	if string(Base11.Decode([]byte{0, 1, Invalid})) != "DA*" {
		t.Errorf("unexpected decoding: %s", Base11.Decode([]byte{0, 1, Invalid}))
	}
}

func TestDecodeKmer(t *testing.T) {
	// four groups, which must not be shown as bases
	a := MustParse("[DEKNQR][AST][ILV][GPFYCHMW]")
	var code uint64 = 2*16 + 0*4 + 3
	if s := a.DecodeKmer(code, 3); string(s) != "IDG" {
		t.Errorf("expected: IDG, result: %s", s)
	}

	symbols := Base11.Encode([]byte("KAWL"), nil)
	code = 0
	for _, c := range symbols {
		code = code*11 + uint64(c)
	}
	if s := Base11.DecodeKmer(code, 4); !bytes.Equal(s, Base11.Decode(symbols)) {
		t.Errorf("expected: %s, result: %s", Base11.Decode(symbols), s)
	}
}

func TestSplit(t *testing.T) {
	type Case struct {
		s     []byte
		parts int
	}
	tests := []Case{
		{[]byte{}, 0},
		{[]byte{Invalid, Invalid}, 0},
		{[]byte{1, 2, 3}, 1},
		{[]byte{Invalid, 1, 2, Invalid, 3, Invalid}, 2},
		{[]byte{1, Invalid, Invalid, 2}, 2},
	}
	for i, test := range tests {
		parts := Split(test.s, nil)
		if len(parts) != test.parts {
			t.Errorf("[%d] expected %d fragments, result: %d", i, test.parts, len(parts))
		}
		for _, p := range parts {
			if len(p) == 0 || bytes.IndexByte(p, Invalid) >= 0 {
				t.Errorf("[%d] invalid fragment: %v", i, p)
			}
		}
	}

	parts := Base11.EncodeProtein([]byte("MKV*GGX"), nil)
	if len(parts) != 2 || len(parts[0]) != 3 || len(parts[1]) != 2 {
		t.Errorf("unexpected fragments: %v", parts)
	}
}

func TestTranslateDNA(t *testing.T) {
	// ATG GCC TGG TAA: M A W *
	dna := []byte("ATGGCCTGGTAA")
	parts, err := Base11.TranslateDNA(dna, nil)
	if err != nil {
		t.Error(err)
		return
	}
	if len(parts) == 0 {
		t.Errorf("no fragments")
		return
	}
	expected := Base11.Encode([]byte("MAW"), nil)
	if !bytes.Equal(parts[0], expected) {
		t.Errorf("frame 1, expected: %v, result: %v", expected, parts[0])
	}

	var n int
	for _, p := range parts {
		n += len(p)
	}
	// at most 4+3+3 residues per strand
	if n > 20 {
		t.Errorf("too many residues: %d", n)
	}

	parts, err = Base11.TranslateDNA([]byte("AT"), nil)
	if err != nil || len(parts) != 0 {
		t.Errorf("short reads should yield nothing")
	}
}

func TestCounter(t *testing.T) {
	c := NewCounter(3)
	c.Add([]byte{0, 0, 1, Invalid})
	c.Add([]byte{2, 0})

	if c.Total() != 5 || c.Count(0) != 3 {
		t.Errorf("unexpected counts: total %d, symbol 0: %d", c.Total(), c.Count(0))
	}

	freqs := c.Frequencies()
	var sum float64
	for _, f := range freqs {
		if f <= 0 {
			t.Errorf("zero likelihood")
		}
		sum += f
	}
	if sum < 0.999999 || sum > 1.000001 {
		t.Errorf("frequencies sum to %f", sum)
	}
	if !(freqs[0] > freqs[1] && freqs[1] == freqs[2]) {
		t.Errorf("unexpected frequencies: %v", freqs)
	}
}
