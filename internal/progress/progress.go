// Package progress renders terminal progress for long-running batch work.
package progress

import (
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// Reporter is advanced by batch workers. A nil Reporter is valid and does nothing.
type Reporter interface {
	Start(total int, description string)
	Add(n int)
	Finish()
}

// Bar draws a progress bar on a writer.
type Bar struct {
	out io.Writer
	bar *progressbar.ProgressBar
}

// New returns a Bar on stderr when enabled, or nil.
func New(enabled bool) Reporter {
	if !enabled {
		return nil
	}
	return &Bar{out: os.Stderr}
}

// NewWithWriter returns a Bar writing to w.
func NewWithWriter(w io.Writer) *Bar {
	return &Bar{out: w}
}

func (b *Bar) Start(total int, description string) {
	if total <= 0 {
		return
	}
	b.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(b.out),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(32),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

func (b *Bar) Add(n int) {
	if b.bar == nil {
		return
	}
	_ = b.bar.Add(n)
}

func (b *Bar) Finish() {
	if b.bar == nil {
		return
	}
	_ = b.bar.Finish()
	b.bar = nil
}

// Enabled reports whether stderr is an interactive terminal.
func Enabled() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}
