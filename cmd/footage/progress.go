package main

import (
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

// progress wraps an optional terminal progress bar. The zero value is a no-op.
type progress struct {
	bar *progressbar.ProgressBar
}

// newProgress shows a bar on w when w is a terminal and JSON output is off.
func newProgress(w io.Writer, enabled bool, total int, description string) *progress {
	if !enabled || total <= 0 || !shouldColorize(w) {
		return &progress{}
	}
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
	return &progress{bar: bar}
}

func (p *progress) step(label string) {
	if p == nil || p.bar == nil {
		return
	}
	if label != "" {
		p.bar.Describe(label)
	}
	_ = p.bar.Add(1)
}

func (p *progress) finish() {
	if p == nil || p.bar == nil {
		return
	}
	_ = p.bar.Finish()
}
