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
	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seq"
)

// DefaultTranslTable is the standard genetic code.
var DefaultTranslTable = 1

// Frames are the six reading frames, the negative ones
// on the reverse complement strand.
var Frames = [6]int{1, 2, 3, -1, -2, -3}

func init() {
	// reads may contain any letters, unknown codons become X.
	seq.ValidateSeq = false
}

// TranslateDNA translates a DNA sequence in all six reading frames,
// encodes the peptides with the alphabet, and appends the fragments
// between stop codons and unknown residues to dst.
// Sequences shorter than one codon yield nothing.
func (a *Alphabet) TranslateDNA(s []byte, dst [][]byte) ([][]byte, error) {
	if len(s) < 3 {
		return dst, nil
	}
	dna, err := seq.NewSeq(seq.DNAredundant, s)
	if err != nil {
		return dst, errors.Wrap(err, "translate")
	}

	var p *seq.Seq
	for _, frame := range Frames {
		if len(s) < 2+abs(frame) {
			continue
		}
		p, err = dna.Translate(DefaultTranslTable, frame, false, false, true, false)
		if err != nil {
			return dst, errors.Wrapf(err, "translate frame %d", frame)
		}
		dst = Split(a.Encode(p.Seq, make([]byte, 0, len(p.Seq))), dst)
	}
	return dst, nil
}

// EncodeProtein encodes a protein sequence and appends the fragments
// between stop codons and unknown residues to dst.
func (a *Alphabet) EncodeProtein(s []byte, dst [][]byte) [][]byte {
	return Split(a.Encode(s, make([]byte, 0, len(s))), dst)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
