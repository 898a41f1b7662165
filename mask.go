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
	"strings"
)

// ErrInvalidMask means the spaced-seed mask is empty, contains characters
// other than 0 and 1, or does not start and end with a 1.
var ErrInvalidMask = errors.New("diamer: invalid mask, only 0 and 1 are allowed, and it should start and end with 1")

// DefaultMask is 15 contiguous positions, which together with base 11 and
// 22 bits for ids leaves exactly 10 bits for bucket names.
const DefaultMask = "111111111111111"

// Mask is a spaced seed. true marks a position that is encoded,
// false is a space that is ignored.
// The first element corresponds to the most significant position.
type Mask []bool

// ParseMask parses a mask from a string like "1101011".
func ParseMask(s string) (Mask, error) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || s[0] != '1' || s[len(s)-1] != '1' {
		return nil, ErrInvalidMask
	}
	m := make(Mask, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '1':
			m[i] = true
		case '0':
		default:
			return nil, ErrInvalidMask
		}
	}
	return m, nil
}

// MustParseMask is like ParseMask but panics on errors.
func MustParseMask(s string) Mask {
	m, err := ParseMask(s)
	if err != nil {
		panic(err)
	}
	return m
}

// K returns the window width, spaces included.
func (m Mask) K() int { return len(m) }

// S returns the number of spaces.
func (m Mask) S() int {
	var s int
	for _, b := range m {
		if !b {
			s++
		}
	}
	return s
}

// Weight returns the number of encoded positions, i.e., k-s.
func (m Mask) Weight() int { return len(m) - m.S() }

// Contiguous tells whether the mask has no spaces.
func (m Mask) Contiguous() bool { return m.S() == 0 }

func (m Mask) String() string {
	buf := make([]byte, len(m))
	for i, b := range m {
		if b {
			buf[i] = '1'
		} else {
			buf[i] = '0'
		}
	}
	return string(buf)
}
