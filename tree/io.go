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
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shenwei356/bio/taxdump"
	"github.com/shenwei356/xopen"
	"github.com/twotwotwo/sorts/sortutil"
)

// LoadNCBI loads a tree from NCBI taxdump files nodes.dmp and names.dmp.
// The names file is optional, only scientific names are kept.
func LoadNCBI(nodesFile, namesFile string) (*Tree, error) {
	tax, err := taxdump.NewTaxonomyWithRankFromNCBI(nodesFile)
	if err != nil {
		return nil, errors.Wrap(err, nodesFile)
	}
	if namesFile != "" {
		if err = tax.LoadNamesFromNCBI(namesFile); err != nil {
			return nil, errors.Wrap(err, namesFile)
		}
	}
	if len(tax.Nodes) == 0 {
		return nil, errors.Wrapf(ErrNoRoot, "no taxa found in %s", nodesFile)
	}

	// taxa in ascending order, so the order of children does not depend on map iteration
	ids := make([]uint32, 0, len(tax.Nodes))
	for id := range tax.Nodes {
		ids = append(ids, id)
	}
	sortutil.Uint32Slice(ids).Sort()

	t := New()
	for _, id := range ids {
		if err = t.AddNode(id, tax.Nodes[id], tax.Rank(id), tax.Names[id]); err != nil {
			return nil, err
		}
	}
	return t, t.Finish()
}

// WriteTSV writes the tree as a tab-separated connection table in BFS order:
//
//	parent id, node id, rank, label, properties...
//
// The parent id of the root is empty. If no labels are given,
// all properties are written, integer ones first.
func (t *Tree) WriteTSV(file string, intLabels, floatLabels []string) error {
	if intLabels == nil && floatLabels == nil {
		intLabels, floatLabels = t.intNames, t.floatNames
	}
	intCols := make([]int, len(intLabels))
	for i, label := range intLabels {
		col, err := t.IntProperty(label)
		if err != nil {
			return err
		}
		intCols[i] = col
	}
	floatCols := make([]int, len(floatLabels))
	for i, label := range floatLabels {
		col, err := t.FloatProperty(label)
		if err != nil {
			return err
		}
		floatCols[i] = col
	}

	outfh, err := xopen.Wopen(file)
	if err != nil {
		return err
	}

	fmt.Fprint(outfh, "parent id\tnode id\trank\tlabel")
	for _, label := range intLabels {
		fmt.Fprintf(outfh, "\t%s", label)
	}
	for _, label := range floatLabels {
		fmt.Fprintf(outfh, "\t%s", label)
	}
	fmt.Fprintln(outfh)

	var p uint32
	var ok bool
	t.Walk(func(id uint32) bool {
		if p, ok = t.Parent(id); ok {
			fmt.Fprintf(outfh, "%d\t%d\t%s\t%s", p, id, t.Rank(id), t.Name(id))
		} else {
			fmt.Fprintf(outfh, "\t%d\t%s\t%s", id, t.Rank(id), t.Name(id))
		}
		for _, col := range intCols {
			fmt.Fprintf(outfh, "\t%d", t.Int(col, id))
		}
		for _, col := range floatCols {
			fmt.Fprintf(outfh, "\t%s", strconv.FormatFloat(t.Float(col, id), 'g', -1, 64))
		}
		fmt.Fprintln(outfh)
		return true
	})

	return errors.Wrap(outfh.Close(), file)
}

// ReadTSV reads a tree written by WriteTSV. A property column
// becomes an integer property if all its values are integers,
// a float property otherwise.
func ReadTSV(file string) (*Tree, error) {
	fh, err := xopen.Ropen(file)
	if err != nil {
		return nil, errors.Wrap(err, file)
	}
	defer fh.Close()

	reader := bufio.NewReader(fh)
	header, err := reader.ReadString('\n')
	if err != nil {
		return nil, errors.Wrapf(err, "%s: reading header", file)
	}
	labels := strings.Split(strings.TrimRight(header, "\r\n"), "\t")
	if len(labels) < 4 {
		return nil, errors.Errorf("%s: at least 4 columns needed", file)
	}
	labels = labels[4:]

	t := New()
	values := make([][]string, len(labels))
	var line string
	var fields []string
	var id, parent uint64
	var n int
	for {
		line, err = reader.ReadString('\n')
		if line == "" && err == io.EOF {
			break
		}
		if err != nil && err != io.EOF {
			return nil, errors.Wrap(err, file)
		}
		n++
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}
		fields = strings.Split(line, "\t")
		if len(fields) != 4+len(labels) {
			return nil, errors.Errorf("%s: line %d: %d columns expected", file, n+1, 4+len(labels))
		}
		if id, err = strconv.ParseUint(fields[1], 10, 32); err != nil {
			return nil, errors.Wrapf(err, "%s: line %d", file, n+1)
		}
		parent = 0
		if fields[0] != "" {
			if parent, err = strconv.ParseUint(fields[0], 10, 32); err != nil {
				return nil, errors.Wrapf(err, "%s: line %d", file, n+1)
			}
		}
		if err = t.AddNode(uint32(id), uint32(parent), fields[2], fields[3]); err != nil {
			return nil, errors.Wrapf(err, "%s: line %d", file, n+1)
		}
		for i := range labels {
			values[i] = append(values[i], fields[4+i])
		}
	}
	if err = t.Finish(); err != nil {
		return nil, errors.Wrap(err, file)
	}

	for i, label := range labels {
		if err = t.setColumn(label, values[i]); err != nil {
			return nil, errors.Wrapf(err, "%s: column %s", file, label)
		}
	}
	return t, nil
}

// setColumn sets a property from strings, values are in the order of nodes.
func (t *Tree) setColumn(label string, values []string) error {
	ints := make([]int64, len(values))
	var err error
	for i, v := range values {
		if ints[i], err = strconv.ParseInt(v, 10, 64); err != nil {
			break
		}
	}
	if err == nil {
		col := t.AddIntProperty(label, 0)
		copy(t.intCols[col], ints)
		return nil
	}

	floats := make([]float64, len(values))
	for i, v := range values {
		if floats[i], err = strconv.ParseFloat(v, 64); err != nil {
			return err
		}
	}
	col := t.AddFloatProperty(label, 0)
	copy(t.floatCols[col], floats)
	return nil
}
