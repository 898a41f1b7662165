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
	"testing"

	"github.com/husonlab/diamer1-sub000/tree"
	"github.com/pkg/errors"
)

// newTestTree builds a small taxonomy:
//
//	1 root
//	├── 10 A, species
//	│   └── 11 strain of A
//	└── 20 B, species
func newTestTree(t *testing.T) *tree.Tree {
	tr := tree.New()
	nodes := []struct {
		id, parent uint32
		rank, name string
	}{
		{1, 1, "no rank", "root"},
		{10, 1, "species", "A"},
		{11, 10, "strain", "A1"},
		{20, 1, "species", "B"},
	}
	for _, n := range nodes {
		if err := tr.AddNode(n.id, n.parent, n.rank, n.name); err != nil {
			t.Fatal(err)
		}
	}
	if err := tr.Finish(); err != nil {
		t.Fatal(err)
	}
	return tr
}

func weights(pairs ...float64) []tree.Weight {
	ws := make([]tree.Weight, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		ws = append(ws, tree.Weight{TaxID: uint32(pairs[i]), Weight: pairs[i+1]})
	}
	return ws
}

func TestClassify(t *testing.T) {
	tr := newTestTree(t)

	type Case struct {
		name     string
		alg      Algorithm
		weights  []tree.Weight
		expected uint32
	}
	tests := []Case{
		// two sibling species, descend while highest > ratio * sum of all children
		{"siblings 10:10, one vs all, highest > 1.0 * sum", OVA{Ratio: 1.0}, weights(10, 10, 20, 10), 1},
		{"siblings 11:10, one vs all, highest > 1.0 * sum", OVA{Ratio: 1.0}, weights(10, 11, 20, 10), 1},
		{"siblings 11:10, one vs all, highest > 0.5 * sum", OVA{Ratio: 0.5}, weights(10, 11, 20, 10), 10},
		{"siblings 10:10, one vs all, highest > 0.5 * sum", OVA{Ratio: 0.5}, weights(10, 10, 20, 10), 1},

		// one-vs-one: highest * ratio > runner-up
		{"one vs one, tie", OVO{Ratio: 1.0}, weights(10, 10, 20, 10), 1},
		{"one vs one, narrow lead", OVO{Ratio: 1.0}, weights(10, 11, 20, 10), 10},
		{"one vs one, narrow lead, half ratio", OVO{Ratio: 0.5}, weights(10, 11, 20, 10), 1},
		{"one vs one, wide lead, half ratio", OVO{Ratio: 0.5}, weights(10, 30, 20, 10), 10},

		// the weight of A1 counts for A
		{"one vs one, strain", OVO{Ratio: 1.0}, weights(10, 2, 11, 3), 11},
		{"one vs all, strain, half of all", OVA{Ratio: 0.5}, weights(10, 2, 11, 3), 11},
		{"one vs all, strain", OVA{Ratio: 1.0}, weights(10, 2, 11, 3), 11},
		{"one vs one, strain against species", OVO{Ratio: 1.0}, weights(11, 3, 20, 2), 11},

		{"only child, zero ratio", OVO{Ratio: 0}, weights(20, 1), 20},
		{"only child", OVA{Ratio: 1.0}, weights(20, 1), 20},

		{"hits on the root only", OVO{Ratio: 1.0}, weights(1, 5), 1},

		{"no hits, one vs one", OVO{Ratio: 1.0}, nil, Unassigned},
		{"no hits, one vs all", OVA{Ratio: 0.5}, nil, Unassigned},
		{"unknown taxon", OVO{Ratio: 1.0}, weights(99, 5), Unassigned},
	}
	for _, test := range tests {
		id := Classify(tr, test.alg, test.weights)
		if id != test.expected {
			t.Errorf("%s, %s on %v, expected: %d, result: %d", test.name, test.alg.Name(), test.weights, test.expected, id)
		}
	}
}

func TestTopChildrenTie(t *testing.T) {
	tr := newTestTree(t)

	// the first child wins ties
	st := tr.WeightedSubtree(weights(20, 4, 10, 4))
	st.Accumulate()
	best, highest, second := topChildren(st, 0)
	if st.TaxID(best) != 20 || highest != 4 || second != 4 {
		t.Errorf("unexpected top children: %d %f %f", st.TaxID(best), highest, second)
	}

	best, _, _ = topChildren(st, best)
	if best != -1 {
		t.Errorf("a leaf should have no top child, result: %d", best)
	}
}

func TestParseAlgorithms(t *testing.T) {
	algs, err := ParseAlgorithms("OVO:1.0, ova:0.5")
	if err != nil {
		t.Error(err)
		return
	}
	if len(algs) != 2 || algs[0].Name() != "OVO (1.00)" || algs[1].Name() != "OVA (0.50)" {
		t.Errorf("unexpected algorithms: %v", algs)
	}

	if _, err = ParseAlgorithms(DefaultAlgorithms); err != nil {
		t.Error(err)
	}

	for _, s := range []string{"", "OVO", "OVO:x", "OVO:-1", "XYZ:0.5", "OVO:1.0,LCA:1"} {
		if _, err = ParseAlgorithms(s); errors.Cause(err) != ErrInvalidAlgorithm {
			t.Errorf("%q: expected error: %v, result: %v", s, ErrInvalidAlgorithm, err)
		}
	}
}
