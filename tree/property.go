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

import (
	"github.com/pkg/errors"
)

// Property labels shared by the indexer and the assigner.
const (
	PropKmersInDatabase  = "kmers in database"
	PropKmersAccumulated = "kmers in database (accumulated)"
)

func growInt(col []int64, n int, def int64) []int64 {
	for len(col) < n {
		col = append(col, def)
	}
	return col
}

func growFloat(col []float64, n int, def float64) []float64 {
	for len(col) < n {
		col = append(col, def)
	}
	return col
}

// AddIntProperty adds an integer property with a default value
// and returns its column id. If the label exists, all values are
// reset to the default.
func (t *Tree) AddIntProperty(label string, def int64) int {
	if col, ok := t.intLabels[label]; ok {
		t.intDefaults[col] = def
		for i := range t.intCols[col] {
			t.intCols[col][i] = def
		}
		return col
	}
	col := len(t.intCols)
	t.intLabels[label] = col
	t.intNames = append(t.intNames, label)
	t.intDefaults = append(t.intDefaults, def)
	t.intCols = append(t.intCols, growInt(make([]int64, 0, len(t.ids)), len(t.ids), def))
	return col
}

// AddFloatProperty adds a float property with a default value
// and returns its column id. If the label exists, all values are
// reset to the default.
func (t *Tree) AddFloatProperty(label string, def float64) int {
	if col, ok := t.floatLabels[label]; ok {
		t.floatDefaults[col] = def
		for i := range t.floatCols[col] {
			t.floatCols[col][i] = def
		}
		return col
	}
	col := len(t.floatCols)
	t.floatLabels[label] = col
	t.floatNames = append(t.floatNames, label)
	t.floatDefaults = append(t.floatDefaults, def)
	t.floatCols = append(t.floatCols, growFloat(make([]float64, 0, len(t.ids)), len(t.ids), def))
	return col
}

// IntProperty returns the column id of an integer property.
func (t *Tree) IntProperty(label string) (int, error) {
	col, ok := t.intLabels[label]
	if !ok {
		return -1, errors.Wrap(ErrUnknownProperty, label)
	}
	return col, nil
}

// FloatProperty returns the column id of a float property.
func (t *Tree) FloatProperty(label string) (int, error) {
	col, ok := t.floatLabels[label]
	if !ok {
		return -1, errors.Wrap(ErrUnknownProperty, label)
	}
	return col, nil
}

// IntLabels returns the labels of integer properties, in the order of adding.
func (t *Tree) IntLabels() []string { return t.intNames }

// FloatLabels returns the labels of float properties, in the order of adding.
func (t *Tree) FloatLabels() []string { return t.floatNames }

// Int returns the value of an integer property of a taxon,
// 0 for unknown taxa.
func (t *Tree) Int(col int, id uint32) int64 {
	if !t.Has(id) {
		return 0
	}
	return t.intCols[col][t.index[id]]
}

// Float returns the value of a float property of a taxon,
// 0 for unknown taxa.
func (t *Tree) Float(col int, id uint32) float64 {
	if !t.Has(id) {
		return 0
	}
	return t.floatCols[col][t.index[id]]
}

// SetInt sets the value of an integer property.
func (t *Tree) SetInt(col int, id uint32, v int64) error {
	i, err := t.node(id)
	if err != nil {
		return err
	}
	l := &t.locks[i%nLocks]
	l.Lock()
	t.intCols[col][i] = v
	l.Unlock()
	return nil
}

// AddInt adds a value to an integer property, it is safe for concurrent use.
func (t *Tree) AddInt(col int, id uint32, v int64) error {
	i, err := t.node(id)
	if err != nil {
		return err
	}
	l := &t.locks[i%nLocks]
	l.Lock()
	t.intCols[col][i] += v
	l.Unlock()
	return nil
}

// SetFloat sets the value of a float property.
func (t *Tree) SetFloat(col int, id uint32, v float64) error {
	i, err := t.node(id)
	if err != nil {
		return err
	}
	l := &t.locks[i%nLocks]
	l.Lock()
	t.floatCols[col][i] = v
	l.Unlock()
	return nil
}

// AddFloat adds a value to a float property, it is safe for concurrent use.
func (t *Tree) AddFloat(col int, id uint32, v float64) error {
	i, err := t.node(id)
	if err != nil {
		return err
	}
	l := &t.locks[i%nLocks]
	l.Lock()
	t.floatCols[col][i] += v
	l.Unlock()
	return nil
}

// AccumulateInt sums an integer property over subtrees into the target property,
// which is created or reset. It returns the column id of the target.
func (t *Tree) AccumulateInt(label, target string) (int, error) {
	src, err := t.IntProperty(label)
	if err != nil {
		return -1, err
	}
	dst := t.AddIntProperty(target, 0)
	vals := t.intCols[dst]
	copy(vals, t.intCols[src])
	for _, i := range t.postOrder() {
		if p := t.parents[i]; p >= 0 {
			vals[p] += vals[i]
		}
	}
	return dst, nil
}

// AccumulateFloat sums a float property over subtrees into the target property,
// which is created or reset. It returns the column id of the target.
func (t *Tree) AccumulateFloat(label, target string) (int, error) {
	src, err := t.FloatProperty(label)
	if err != nil {
		return -1, err
	}
	dst := t.AddFloatProperty(target, 0)
	vals := t.floatCols[dst]
	copy(vals, t.floatCols[src])
	for _, i := range t.postOrder() {
		if p := t.parents[i]; p >= 0 {
			vals[p] += vals[i]
		}
	}
	return dst, nil
}

// ResetProperties removes all properties.
func (t *Tree) ResetProperties() {
	t.intLabels = make(map[string]int)
	t.intNames = nil
	t.intCols = nil
	t.intDefaults = nil
	t.floatLabels = make(map[string]int)
	t.floatNames = nil
	t.floatCols = nil
	t.floatDefaults = nil
}
