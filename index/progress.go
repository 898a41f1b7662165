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
	"os"

	"github.com/shenwei356/go-logging"
	"github.com/vbauerster/mpb/v5"
	"github.com/vbauerster/mpb/v5/decor"
)

var log = logging.MustGetLogger("diamer")

// newBar creates a progress bar on stderr.
func newBar(name string, total int64, counters decor.Decorator) (*mpb.Progress, *mpb.Bar) {
	pbs := mpb.New(mpb.WithWidth(40), mpb.WithOutput(os.Stderr))
	bar := pbs.AddBar(total,
		mpb.PrependDecorators(
			decor.Name(name, decor.WC{W: len(name)}),
			decor.Name("", decor.WCSyncSpaceR),
			counters,
		),
		mpb.AppendDecorators(
			decor.Name("ETA: ", decor.WC{W: len("ETA: ")}),
			decor.AverageETA(decor.ET_STYLE_GO),
			decor.OnComplete(decor.Name(""), ". done"),
		),
	)
	return pbs, bar
}

// Progress wraps an optional progress bar, which is safe for concurrent use.
type Progress struct {
	pbs *mpb.Progress
	bar *mpb.Bar
}

// NewProgress creates a progress bar, or a silent one if show is false.
func NewProgress(show bool, name string, total int) *Progress {
	if !show || total <= 0 {
		return &Progress{}
	}
	pbs, bar := newBar(name, int64(total), decor.CountersNoUnit("%d / %d", decor.WCSyncWidth))
	return &Progress{pbs: pbs, bar: bar}
}

// NewBytesProgress creates a progress bar of the bytes read from an input
// of the given size. The number of bytes read may exceed the size,
// e.g., for compressed files, so the bar only completes on Done.
func NewBytesProgress(show bool, name string, size int64) *Progress {
	if !show || size <= 0 {
		return &Progress{}
	}
	pbs, bar := newBar(name, size, decor.CountersKibiByte("% .2f / % .2f", decor.WCSyncWidth))
	bar.SetTotal(size, false)
	return &Progress{pbs: pbs, bar: bar}
}

// Add increments the bar.
func (p *Progress) Add(n int) {
	if p.bar != nil {
		p.bar.IncrBy(n)
	}
}

// SetCurrent sets the current value of the bar.
func (p *Progress) SetCurrent(n int64) {
	if p.bar != nil {
		p.bar.SetCurrent(n)
	}
}

// Done completes the bar at its current value.
func (p *Progress) Done() {
	if p.bar != nil {
		p.bar.SetTotal(0, true)
	}
}

// Wait waits for the bar to complete. An unfinished bar is aborted.
func (p *Progress) Wait() {
	if p.pbs == nil {
		return
	}
	if !p.bar.Completed() {
		p.bar.Abort(false)
	}
	p.pbs.Wait()
}
