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
	"fmt"
	"strconv"
	"strings"

	"github.com/husonlab/diamer1-sub000/tree"
	"github.com/pkg/errors"
)

// Unassigned is the taxid of reads without any hit.
const Unassigned uint32 = 0

// ErrInvalidAlgorithm means the algorithm list can not be parsed.
var ErrInvalidAlgorithm = errors.New("assign: invalid algorithm, it should be like OVO:0.2,OVA:0.8")

// DefaultAlgorithms are used when no algorithm is given.
const DefaultAlgorithms = "OVO:1.0,OVA:0.5"

// Algorithm assigns a read to a taxon from its weighted hits.
type Algorithm interface {
	// Name is used in output headers and property labels.
	Name() string

	// Assign walks an accumulated subtree from the root and
	// returns the taxid of the node it stops at.
	Assign(st *tree.Subtree) uint32
}

// Classify builds the subtree of the weights and assigns it.
// Reads without positive weights of known taxa are Unassigned.
func Classify(t *tree.Tree, alg Algorithm, weights []tree.Weight) uint32 {
	if len(weights) == 0 {
		return Unassigned
	}
	st := t.WeightedSubtree(weights)
	st.Accumulate()
	if !(st.Accumulated[0] > 0) {
		return Unassigned
	}
	return alg.Assign(st)
}

// OVO is the one-vs-one algorithm. From the root, it descends into the child
// with the highest accumulated weight as long as highest * Ratio > runner-up.
// An only child is always descended into.
type OVO struct {
	Ratio float64
}

// Name returns the name with the ratio.
func (a OVO) Name() string { return fmt.Sprintf("OVO (%.2f)", a.Ratio) }

// Assign walks the subtree.
func (a OVO) Assign(st *tree.Subtree) uint32 {
	l := 0
	for {
		best, highest, second := topChildren(st, l)
		if best < 0 {
			return st.TaxID(l)
		}
		if len(st.Children(l)) > 1 && !(highest*a.Ratio > second) {
			return st.TaxID(l)
		}
		l = best
	}
}

// OVA is the one-vs-all algorithm. From the root, it descends into the child
// with the highest accumulated weight as long as highest > Ratio * the sum of all children.
// An only child is always descended into.
type OVA struct {
	Ratio float64
}

// Name returns the name with the ratio.
func (a OVA) Name() string { return fmt.Sprintf("OVA (%.2f)", a.Ratio) }

// Assign walks the subtree.
func (a OVA) Assign(st *tree.Subtree) uint32 {
	l := 0
	var sum float64
	for {
		children := st.Children(l)
		if len(children) == 0 {
			return st.TaxID(l)
		}
		if len(children) == 1 {
			l = children[0]
			continue
		}
		sum = 0
		for _, c := range children {
			sum += st.Accumulated[c]
		}
		best, highest, _ := topChildren(st, l)
		if !(highest > a.Ratio*sum) {
			return st.TaxID(l)
		}
		l = best
	}
}

// topChildren returns the child with the highest accumulated weight,
// the highest and the second highest weights. The first child wins ties.
// best is -1 for leaves.
func topChildren(st *tree.Subtree, l int) (best int, highest, second float64) {
	best = -1
	var w float64
	for _, c := range st.Children(l) {
		w = st.Accumulated[c]
		if best < 0 || w > highest {
			if best >= 0 {
				second = highest
			}
			best, highest = c, w
		} else if w > second {
			second = w
		}
	}
	return
}

// ParseAlgorithms parses algorithm lists like "OVO:0.2,OVA:0.8".
func ParseAlgorithms(s string) ([]Algorithm, error) {
	var algs []Algorithm
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		i := strings.IndexByte(item, ':')
		if i < 0 {
			return nil, errors.Wrap(ErrInvalidAlgorithm, item)
		}
		ratio, err := strconv.ParseFloat(item[i+1:], 64)
		if err != nil || ratio < 0 {
			return nil, errors.Wrap(ErrInvalidAlgorithm, item)
		}
		switch strings.ToUpper(item[:i]) {
		case "OVO":
			algs = append(algs, OVO{Ratio: ratio})
		case "OVA":
			algs = append(algs, OVA{Ratio: ratio})
		default:
			return nil, errors.Wrap(ErrInvalidAlgorithm, item)
		}
	}
	if len(algs) == 0 {
		return nil, errors.Wrap(ErrInvalidAlgorithm, "no algorithms given")
	}
	return algs, nil
}
