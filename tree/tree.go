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

// Package tree implements the taxonomy tree: an arena of nodes addressed
// by taxon ids, with LCA queries and numeric per-node properties.
package tree

import (
	"sync"

	"github.com/pkg/errors"
)

// ErrUnknownTaxon means the taxon id is not in the tree.
var ErrUnknownTaxon = errors.New("tree: unknown taxon")

// ErrUnknownProperty means no property with the label was added.
var ErrUnknownProperty = errors.New("tree: unknown property")

// ErrNoRoot means no or multiple roots are found.
var ErrNoRoot = errors.New("tree: the tree should have exactly one root")

// StandardRanks are the 8 main taxonomic ranks, from the top.
var StandardRanks = []string{"superkingdom", "kingdom", "phylum", "class", "order", "family", "genus", "species"}

const nLocks = 256

// Tree is a rooted taxonomy tree. Nodes are stored in parallel slices
// and refer to each other by node index, never by pointers.
//
// The structure is immutable after Finish.
// Properties are columns of values, one per node; concurrent updates of
// one node are serialized with lock stripes.
type Tree struct {
	index []int32 // taxon id -> node index, -1 for absent

	ids      []uint32
	parents  []int32 // node index of the parent, -1 for the root
	children [][]int32
	depths   []int32
	ranks    []string
	names    []string

	parentIDs []uint32 // only used before Finish
	root      int32
	finished  bool

	intLabels   map[string]int
	intNames    []string
	intCols     [][]int64
	intDefaults []int64

	floatLabels   map[string]int
	floatNames    []string
	floatCols     [][]float64
	floatDefaults []float64

	locks [nLocks]sync.Mutex
}

// New creates an empty tree.
func New() *Tree {
	return &Tree{
		root:        -1,
		intLabels:   make(map[string]int),
		floatLabels: make(map[string]int),
	}
}

// AddNode adds a node. Parents may be added after their children,
// links are resolved in Finish. The root is the node whose parent
// is itself or 0.
func (t *Tree) AddNode(id uint32, parent uint32, rank string, name string) error {
	if t.finished {
		return errors.New("tree: can not add nodes to a finished tree")
	}
	if t.Has(id) {
		return errors.Errorf("tree: duplicated taxon: %d", id)
	}
	if int(id) >= len(t.index) {
		n := len(t.index)
		need := int(id) + 1
		if need < 2*n {
			need = 2 * n
		}
		index := make([]int32, need)
		copy(index, t.index)
		for i := n; i < need; i++ {
			index[i] = -1
		}
		t.index = index
	}

	t.index[id] = int32(len(t.ids))
	t.ids = append(t.ids, id)
	t.parentIDs = append(t.parentIDs, parent)
	t.ranks = append(t.ranks, rank)
	t.names = append(t.names, name)
	return nil
}

// Finish links all nodes and computes node depths.
func (t *Tree) Finish() error {
	n := len(t.ids)
	t.parents = make([]int32, n)
	t.children = make([][]int32, n)
	t.depths = make([]int32, n)

	t.root = -1
	var p uint32
	for i, id := range t.ids {
		p = t.parentIDs[i]
		if p == id || p == 0 {
			if t.root >= 0 {
				return errors.Wrapf(ErrNoRoot, "%d and %d", t.ids[t.root], id)
			}
			t.root = int32(i)
			t.parents[i] = -1
			continue
		}
		if !t.Has(p) {
			return errors.Wrapf(ErrUnknownTaxon, "parent %d of taxon %d", p, id)
		}
		t.parents[i] = t.index[p]
		t.children[t.index[p]] = append(t.children[t.index[p]], int32(i))
	}
	if t.root < 0 {
		return ErrNoRoot
	}

	// depths, in BFS order, which also detects cycles
	queue := make([]int32, 0, n)
	queue = append(queue, t.root)
	for k := 0; k < len(queue); k++ {
		for _, c := range t.children[queue[k]] {
			t.depths[c] = t.depths[queue[k]] + 1
			queue = append(queue, c)
		}
	}
	if len(queue) != n {
		return errors.Errorf("tree: %d nodes are not connected to the root", n-len(queue))
	}

	t.parentIDs = nil
	t.finished = true

	for i, col := range t.intCols {
		t.intCols[i] = growInt(col, n, t.intDefaults[i])
	}
	for i, col := range t.floatCols {
		t.floatCols[i] = growFloat(col, n, t.floatDefaults[i])
	}
	return nil
}

// Len returns the number of nodes.
func (t *Tree) Len() int { return len(t.ids) }

// Has tells whether the taxon is in the tree.
func (t *Tree) Has(id uint32) bool {
	return int(id) < len(t.index) && t.index[id] >= 0
}

func (t *Tree) node(id uint32) (int32, error) {
	if !t.Has(id) {
		return -1, errors.Wrapf(ErrUnknownTaxon, "%d", id)
	}
	return t.index[id], nil
}

// MaxID returns the largest taxon id.
func (t *Tree) MaxID() uint32 {
	var m uint32
	for _, id := range t.ids {
		if id > m {
			m = id
		}
	}
	return m
}

// Root returns the taxon id of the root.
func (t *Tree) Root() uint32 { return t.ids[t.root] }

// Parent returns the parent of a taxon, false for the root and unknown taxa.
func (t *Tree) Parent(id uint32) (uint32, bool) {
	if !t.Has(id) {
		return 0, false
	}
	p := t.parents[t.index[id]]
	if p < 0 {
		return 0, false
	}
	return t.ids[p], true
}

// Children returns the children of a taxon.
func (t *Tree) Children(id uint32) []uint32 {
	if !t.Has(id) {
		return nil
	}
	cs := t.children[t.index[id]]
	ids := make([]uint32, len(cs))
	for i, c := range cs {
		ids[i] = t.ids[c]
	}
	return ids
}

// Depth returns the number of edges between the taxon and the root.
func (t *Tree) Depth(id uint32) int {
	return int(t.depths[t.index[id]])
}

// Rank returns the rank of a taxon.
func (t *Tree) Rank(id uint32) string {
	if !t.Has(id) {
		return ""
	}
	return t.ranks[t.index[id]]
}

// Name returns the name of a taxon.
func (t *Tree) Name(id uint32) string {
	if !t.Has(id) {
		return ""
	}
	return t.names[t.index[id]]
}

// Path returns the taxa from a taxon up to the root, both included.
func (t *Tree) Path(id uint32) []uint32 {
	if !t.Has(id) {
		return nil
	}
	path := make([]uint32, 0, 32)
	for i := t.index[id]; i >= 0; i = t.parents[i] {
		path = append(path, t.ids[i])
	}
	return path
}

// IsAncestor tells whether a is an ancestor of b, or b itself.
func (t *Tree) IsAncestor(a, b uint32) bool {
	ia, ib := t.index[a], t.index[b]
	for ib >= 0 && t.depths[ib] > t.depths[ia] {
		ib = t.parents[ib]
	}
	return ia == ib
}

func (t *Tree) lca(a, b int32) int32 {
	for t.depths[a] > t.depths[b] {
		a = t.parents[a]
	}
	for t.depths[b] > t.depths[a] {
		b = t.parents[b]
	}
	for a != b {
		a = t.parents[a]
		b = t.parents[b]
	}
	return a
}

// LCA returns the lowest common ancestor of two taxa.
// Unknown taxa are ignored, the LCA of two unknown taxa is the root.
func (t *Tree) LCA(a, b uint32) uint32 {
	okA, okB := t.Has(a), t.Has(b)
	switch {
	case okA && okB:
		return t.ids[t.lca(t.index[a], t.index[b])]
	case okA:
		return a
	case okB:
		return b
	}
	return t.Root()
}

// LCAs returns the lowest common ancestor of taxa, stopping early
// once the root is reached. Unknown taxa are ignored.
func (t *Tree) LCAs(ids ...uint32) uint32 {
	var l int32 = -1
	for _, id := range ids {
		if !t.Has(id) {
			continue
		}
		if l < 0 {
			l = t.index[id]
			continue
		}
		l = t.lca(l, t.index[id])
		if l == t.root {
			break
		}
	}
	if l < 0 {
		return t.Root()
	}
	return t.ids[l]
}

// RankAncestor returns the nearest taxon of the given rank
// on the path to the root, the taxon itself included.
func (t *Tree) RankAncestor(id uint32, rank string) (uint32, bool) {
	if !t.Has(id) {
		return 0, false
	}
	for i := t.index[id]; i >= 0; i = t.parents[i] {
		if t.ranks[i] == rank {
			return t.ids[i], true
		}
	}
	return 0, false
}

// Walk visits taxa in BFS order from the root, stopping if fn returns false.
func (t *Tree) Walk(fn func(id uint32) bool) {
	if t.root < 0 {
		return
	}
	queue := make([]int32, 0, len(t.ids))
	queue = append(queue, t.root)
	for k := 0; k < len(queue); k++ {
		if !fn(t.ids[queue[k]]) {
			return
		}
		queue = append(queue, t.children[queue[k]]...)
	}
}

// postOrder returns node indexes with children before parents.
func (t *Tree) postOrder() []int32 {
	order := make([]int32, 0, len(t.ids))
	order = append(order, t.root)
	for k := 0; k < len(order); k++ {
		order = append(order, t.children[order[k]]...)
	}
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order
}
