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

// Package alphabet maps amino acids onto the symbols of reduced alphabets.
package alphabet

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Invalid is the symbol of stop codons and residues outside the alphabet.
// Sequences are split at it.
const Invalid byte = 255

// MaxBase is the largest number of groups of an alphabet.
const MaxBase = 64

// ErrInvalidAlphabet means the alphabet string can not be parsed.
var ErrInvalidAlphabet = errors.New("alphabet: invalid alphabet, it should be like [DEKNQR][AST][ILV]")

// Names of preset alphabets.
const (
	NameBase11        = "base11"
	NameBase11Uniform = "base11-uniform"
)

// Base11 is the base-11 alphabet used by DIAMOND.
var Base11 = MustParse("[DEKNQR][AST][ILV][G][P][F][Y][C][H][M][W]")

// Base11Uniform groups amino acids into 11 groups of roughly uniform
// frequencies in protein databases.
var Base11Uniform = MustParse("[L][A][GC][VWUBJZO][SH][EMX][TY][RQ][DN][IF][PK]")

// Alphabet is a reduced amino acid alphabet, each group of residues
// is one symbol. Letters are case-insensitive.
type Alphabet struct {
	groups []string
	table  [256]byte
}

// Parse parses an alphabet like "[DEKNQR][AST][ILV]".
// The i-th group gets the symbol i.
func Parse(s string) (*Alphabet, error) {
	s = strings.TrimSpace(s)
	if len(s) < 3 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, errors.Wrap(ErrInvalidAlphabet, s)
	}

	a := &Alphabet{}
	for i := range a.table {
		a.table[i] = Invalid
	}

	var c byte
	for _, g := range strings.Split(s[1:len(s)-1], "][") {
		if g == "" || strings.ContainsAny(g, "[]") {
			return nil, errors.Wrap(ErrInvalidAlphabet, s)
		}
		if len(a.groups) == MaxBase {
			return nil, errors.Wrapf(ErrInvalidAlphabet, "too many groups (>%d): %s", MaxBase, s)
		}
		symbol := byte(len(a.groups))
		for i := 0; i < len(g); i++ {
			c = g[i]
			if a.table[c] != Invalid {
				return nil, errors.Wrapf(ErrInvalidAlphabet, "duplicated residue %c: %s", c, s)
			}
			a.table[c] = symbol
			if c >= 'A' && c <= 'Z' {
				a.table[c+32] = symbol
			} else if c >= 'a' && c <= 'z' {
				a.table[c-32] = symbol
			}
		}
		a.groups = append(a.groups, strings.ToUpper(g))
	}
	if len(a.groups) < 2 {
		return nil, errors.Wrap(ErrInvalidAlphabet, "at least two groups are needed")
	}
	return a, nil
}

// MustParse is like Parse but panics on errors.
func MustParse(s string) *Alphabet {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Get returns a preset alphabet by name, or parses a custom one.
func Get(name string) (*Alphabet, error) {
	switch strings.ToLower(name) {
	case NameBase11:
		return Base11, nil
	case NameBase11Uniform:
		return Base11Uniform, nil
	}
	return Parse(name)
}

// Base returns the number of symbols.
func (a *Alphabet) Base() int { return len(a.groups) }

// Symbol returns the symbol of a residue, Invalid for unknown ones.
func (a *Alphabet) Symbol(c byte) byte { return a.table[c] }

// String returns the group string of the alphabet, which is accepted by Parse.
func (a *Alphabet) String() string {
	var buf bytes.Buffer
	for _, g := range a.groups {
		fmt.Fprintf(&buf, "[%s]", g)
	}
	return buf.String()
}

// Encode appends the symbols of a protein sequence to dst.
func (a *Alphabet) Encode(s []byte, dst []byte) []byte {
	for _, c := range s {
		dst = append(dst, a.table[c])
	}
	return dst
}

// Split splits a symbol sequence at Invalid symbols,
// and appends the non-empty fragments to dst.
// Fragments share the memory of s.
func Split(s []byte, dst [][]byte) [][]byte {
	start := -1
	for i, c := range s {
		if c == Invalid {
			if start >= 0 {
				dst = append(dst, s[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		dst = append(dst, s[start:])
	}
	return dst
}

// DecodeKmer returns the first residues of the groups of a k-mer code
// with the given weight, the most significant symbol first.
func (a *Alphabet) DecodeKmer(code uint64, weight int) []byte {
	symbols := make([]byte, weight)
	b := uint64(len(a.groups))
	for i := weight - 1; i >= 0; i-- {
		symbols[i] = byte(code % b)
		code /= b
	}
	return a.Decode(symbols)
}

// Decode returns the first residue of each symbol's group,
// '*' for Invalid.
func (a *Alphabet) Decode(symbols []byte) []byte {
	s := make([]byte, len(symbols))
	for i, c := range symbols {
		if int(c) < len(a.groups) {
			s[i] = a.groups[c][0]
		} else {
			s[i] = '*'
		}
	}
	return s
}
