// Package console renders run progress and summaries for terminal users.
package console

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"go-batch-generator/internal/model"
	"go-batch-generator/internal/pipeline"
)

// BarReporter draws one progress bar per phase
type BarReporter struct {
	out io.Writer
	bar *progressbar.ProgressBar
}

var _ pipeline.Reporter = (*BarReporter)(nil)

func NewBarReporter(out io.Writer) *BarReporter {
	return &BarReporter{out: out}
}

func (r *BarReporter) PhaseStarted(phase model.Phase, total, workers int) {
	r.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(r.out),
		progressbar.OptionSetDescription(fmt.Sprintf("%-8s (%d workers)", phase, workers)),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("docs"),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(r.out) }),
	)
}

func (r *BarReporter) Observe(msg model.ProgressMessage) {
	if r.bar == nil {
		return
	}
	if msg.Kind == model.KindProgress || msg.Kind == model.KindError {
		_ = r.bar.Add(1)
	}
}

func (r *BarReporter) Heartbeat(pipeline.PhaseSnapshot) {}

func (r *BarReporter) PhaseFinished(s pipeline.PhaseSnapshot) {
	if r.bar == nil {
		return
	}
	if s.Lost > 0 {
		// Exit does not redraw and Describe is throttled, so the anomaly gets its own line
		_ = r.bar.Exit()
		fmt.Fprintf(r.out, "\n%-8s %d lost, %d of %d workers did not finish\n",
			s.Phase, s.Lost, s.Workers-s.DoneWorkers, s.Workers)
	} else {
		_ = r.bar.Finish()
	}
	r.bar = nil
}
