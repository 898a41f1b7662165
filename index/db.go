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

package index

import (
	"context"
	"path/filepath"
	"strconv"

	diamer "github.com/husonlab/diamer1-sub000"
	"github.com/husonlab/diamer1-sub000/bucket"
	"github.com/husonlab/diamer1-sub000/tree"
	"github.com/pkg/errors"
)

// IndexDB builds the index of a protein database, whose headers start with taxids.
// K-mers shared by several taxa are assigned to their lowest common ancestor.
// The "kmers in database" property of the tree counts the entries of each taxon,
// and the tree is written to FileTree in the output directory.
func IndexDB(ctx context.Context, opt *Options, sup Supplier, t *tree.Tree) (*Report, error) {
	c, err := newConfig(opt)
	if err != nil {
		return nil, err
	}
	if c.reTaxID == nil {
		return nil, errors.New("index: a regular expression for extracting taxids is needed")
	}
	if err = c.layout.CheckID(t.MaxID()); err != nil {
		return nil, errors.Wrap(err, "the largest taxid of the tree")
	}

	col := t.AddIntProperty(tree.PropKmersInDatabase, 0)

	b := &builder{
		c:       c,
		sup:     sup,
		kind:    diamer.KindDatabase,
		withIDs: true,
		id: func(r *Record, ordinal int) (uint32, bool, error) {
			return parseTaxID(c, t, r.Header)
		},
		write: func(bk *bucket.Bucket, file string) (int, error) {
			rems, ids := bk.Sorted()
			entries, err := Collapse(c.layout, t, col, rems, ids)
			if err != nil {
				return 0, err
			}
			_, err = bucket.Write(file, entries, c.encoding)
			return len(entries), err
		},
	}

	report, err := b.run(ctx)
	if err != nil {
		return nil, err
	}

	file := filepath.Join(opt.OutDir, FileTree)
	if err = t.WriteTSV(file, []string{tree.PropKmersInDatabase}, nil); err != nil {
		return nil, err
	}
	log.Infof("taxonomy with %d nodes saved to %s", t.Len(), file)
	return report, nil
}

// parseTaxID extracts the taxid of a header. Headers without a taxid,
// or with one absent in the tree, are skipped.
func parseTaxID(c *config, t *tree.Tree, header []byte) (uint32, bool, error) {
	m := c.reTaxID.FindSubmatch(header)
	if m == nil {
		return 0, false, nil
	}
	v, err := strconv.ParseUint(string(m[1]), 10, 32)
	if err != nil {
		return 0, false, nil
	}
	id := uint32(v)
	if !t.Has(id) {
		return 0, false, nil
	}
	return id, true, nil
}

// Collapse packs sorted remainders and their taxids into entries.
// Runs of equal remainders become one entry with the lowest common ancestor
// of their taxids, and each entry adds one to the int property col of its taxon.
// The entries are written over rems, which is returned truncated.
func Collapse(layout *diamer.Layout, t *tree.Tree, col int, rems []uint64, ids []uint32) ([]uint64, error) {
	entries := rems[:0]
	var j int
	var rem uint64
	var id uint32
	for i := 0; i < len(rems); i = j {
		rem = rems[i]
		for j = i + 1; j < len(rems) && rems[j] == rem; j++ {
		}
		id = ids[i]
		if j-i > 1 {
			id = t.LCAs(ids[i:j]...)
		}
		if err := t.AddInt(col, id, 1); err != nil {
			return nil, err
		}
		entries = append(entries, layout.Pack(rem, id))
	}
	return entries, nil
}
