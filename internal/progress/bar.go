package progress

import (
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// Interactive reports whether w is a terminal.
func Interactive(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Bar renders overall run progress as a terminal progress bar.
type Bar struct {
	mu    sync.Mutex
	bar   *progressbar.ProgressBar
	phase Phase
	done  bool
}

// NewBar returns a progress bar writing to w. When w is not a terminal the
// returned reporter discards events.
func NewBar(w io.Writer) Reporter {
	if !Interactive(w) {
		return Discard
	}
	return newBar(w)
}

func newBar(w io.Writer) *Bar {
	return &Bar{bar: progressbar.NewOptions(100,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(PhaseConfig.Label()),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionClearOnFinish(),
	)}
}

// Report moves the bar to the event's position in the overall run.
func (b *Bar) Report(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done {
		return
	}
	if event.Err != nil {
		_ = b.bar.Exit()
		b.done = true
		return
	}
	if event.Phase != b.phase {
		b.phase = event.Phase
		b.bar.Describe(event.Phase.Label())
	}
	percent := event.Percent()
	if percent < 0 {
		return
	}
	_ = b.bar.Set(int(percent))
	if percent >= 100 {
		_ = b.bar.Finish()
		b.done = true
	}
}

// Close finishes the bar if the run ended early.
func (b *Bar) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done {
		return nil
	}
	b.done = true
	return b.bar.Exit()
}
