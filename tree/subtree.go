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

package tree

// Weight is a weight of a taxon.
type Weight struct {
	TaxID  uint32
	Weight float64
}

// Subtree is the minimal subtree containing the root and some weighted taxa.
// Local node 0 is the root.
type Subtree struct {
	t *Tree

	nodes    []int32 // node index in the tree
	parents  []int   // -1 for the root
	children [][]int

	Weights     []float64
	Accumulated []float64
}

// WeightedSubtree builds the subtree of the weighted taxa and
// the nodes on their paths to the root.
// Weights of the same taxon are summed, unknown taxa are ignored.
func (t *Tree) WeightedSubtree(weights []Weight) *Subtree {
	st := &Subtree{t: t}
	local := make(map[int32]int, len(weights)*4)
	st.add(t.root, -1, local)

	var i int32
	var ok bool
	var l int
	var path []int32
	for _, w := range weights {
		if !t.Has(w.TaxID) {
			continue
		}
		i = t.index[w.TaxID]

		// climb until a node in the subtree
		path = path[:0]
		for {
			if l, ok = local[i]; ok {
				break
			}
			path = append(path, i)
			i = t.parents[i]
		}
		for k := len(path) - 1; k >= 0; k-- {
			l = st.add(path[k], l, local)
		}
		st.Weights[l] += w.Weight
	}
	return st
}

func (st *Subtree) add(node int32, parent int, local map[int32]int) int {
	l := len(st.nodes)
	local[node] = l
	st.nodes = append(st.nodes, node)
	st.parents = append(st.parents, parent)
	st.children = append(st.children, nil)
	st.Weights = append(st.Weights, 0)
	if parent >= 0 {
		st.children[parent] = append(st.children[parent], l)
	}
	return l
}

// Len returns the number of nodes.
func (st *Subtree) Len() int { return len(st.nodes) }

// TaxID returns the taxon id of a local node.
func (st *Subtree) TaxID(l int) uint32 { return st.t.ids[st.nodes[l]] }

// Children returns the local children of a local node.
func (st *Subtree) Children(l int) []int { return st.children[l] }

// Accumulate sums weights bottom-up into Accumulated.
func (st *Subtree) Accumulate() {
	st.Accumulated = make([]float64, len(st.Weights))
	copy(st.Accumulated, st.Weights)
	// a node is always added after its parent
	for l := len(st.nodes) - 1; l > 0; l-- {
		st.Accumulated[st.parents[l]] += st.Accumulated[l]
	}
}
