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
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// MainVersion is use for checking compatibility of index files.
var MainVersion uint8 = 0

// MinorVersion is less important.
var MinorVersion uint8 = 1

// FileInfo is the summary file of an index directory.
const FileInfo = "info.toml"

// Kinds of indexes.
const (
	KindDatabase = "database"
	KindReads    = "reads"
)

// ErrVersionMismatch means version mismatch between files and program.
var ErrVersionMismatch = errors.New("diamer: version mismatch")

// ErrIncompatibleIndexes means a database index and a read index can not be compared.
var ErrIncompatibleIndexes = errors.New("diamer: incompatible indexes")

// IndexInfo summarizes an index directory.
type IndexInfo struct {
	MainVersion  uint8  `toml:"main-version" comment:"Index format"`
	MinorVersion uint8  `toml:"minor-version"`
	Kind         string `toml:"kind"`

	Alphabet   string `toml:"alphabet" comment:"K-mer encoding"`
	Base       int    `toml:"base"`
	Mask       string `toml:"mask"`
	BitsForIDs int    `toml:"bits-for-ids"`
	BucketBits int    `toml:"bucket-bits"`
	Buckets    int    `toml:"buckets"`
	Filter     string `toml:"filter"`

	BucketEncoding  string `toml:"bucket-encoding" comment:"Bucket files"`
	BucketsPerCycle int    `toml:"buckets-per-cycle"`
	Cycles          int    `toml:"cycles"`

	Records int   `toml:"records" comment:"Input sequences"`
	Skipped int   `toml:"skipped"`
	Kmers   int64 `toml:"kmers"`
	Entries int64 `toml:"entries"`
}

// NewIndexInfo creates an IndexInfo from a layout.
func NewIndexInfo(kind string, alphabet string, layout *Layout, filter Filter) *IndexInfo {
	return &IndexInfo{
		MainVersion:  MainVersion,
		MinorVersion: MinorVersion,
		Kind:         kind,
		Alphabet:     alphabet,
		Base:         layout.Base,
		Mask:         layout.Mask.String(),
		BitsForIDs:   layout.BitsForIDs,
		BucketBits:   layout.BucketBits,
		Buckets:      layout.NumBuckets,
		Filter:       filter.String(),
	}
}

// Layout rebuilds the layout recorded in the info.
func (info *IndexInfo) Layout() (*Layout, error) {
	mask, err := ParseMask(info.Mask)
	if err != nil {
		return nil, err
	}
	return NewLayout(info.Base, mask, info.BitsForIDs, info.BucketBits)
}

// CompatibleWith checks if the k-mers of two indexes are comparable.
func (info *IndexInfo) CompatibleWith(other *IndexInfo) error {
	if info.MainVersion != other.MainVersion {
		return ErrVersionMismatch
	}
	if info.Alphabet != other.Alphabet {
		return errors.Wrapf(ErrIncompatibleIndexes, "alphabets: %s vs %s", info.Alphabet, other.Alphabet)
	}
	if info.Base != other.Base || info.Mask != other.Mask {
		return errors.Wrapf(ErrIncompatibleIndexes, "base and mask: %d %s vs %d %s",
			info.Base, info.Mask, other.Base, other.Mask)
	}
	if info.BitsForIDs != other.BitsForIDs || info.BucketBits != other.BucketBits {
		return errors.Wrapf(ErrIncompatibleIndexes, "id bits and bucket bits: %d %d vs %d %d",
			info.BitsForIDs, info.BucketBits, other.BitsForIDs, other.BucketBits)
	}
	return nil
}

// WriteIndexInfo writes the summary of an index.
func WriteIndexInfo(file string, info *IndexInfo) error {
	data, err := toml.Marshal(info)
	if err != nil {
		return err
	}
	return os.WriteFile(file, data, 0644)
}

// ReadIndexInfo reads the summary of an index.
func ReadIndexInfo(file string) (*IndexInfo, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	info := &IndexInfo{}
	if err = toml.Unmarshal(data, info); err != nil {
		return nil, errors.Wrap(err, file)
	}
	if info.MainVersion != MainVersion {
		return nil, errors.Wrapf(ErrVersionMismatch, "%s: %d vs %d", file, info.MainVersion, MainVersion)
	}
	return info, nil
}
