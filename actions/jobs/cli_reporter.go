package jobs

import (
	"fmt"
	"sync"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/PiotrWarzachowski/go-anonymizer/client"
)

// CLIReporter draws one progress bar per uploaded or downloaded file. It can
// be reused after Wait; the next report starts a fresh set of bars.
type CLIReporter struct {
	opts     []mpb.ContainerOption
	mu       sync.Mutex
	progress *mpb.Progress
	bars     map[string]*mpb.Bar
}

func NewCLIReporter(opts ...mpb.ContainerOption) *CLIReporter {
	return &CLIReporter{
		opts: append([]mpb.ContainerOption{mpb.WithWidth(60)}, opts...),
		bars: make(map[string]*mpb.Bar),
	}
}

func (r *CLIReporter) Report(p client.ProgressReport) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.progress == nil {
		r.progress = mpb.New(r.opts...)
	}

	key := string(p.Type) + ":" + p.Name
	bar, ok := r.bars[key]
	if !ok {
		bar = r.addBar(p)
		r.bars[key] = bar
	}

	if p.TotalBytes <= 0 {
		bar.SetTotal(p.BytesSent+1, false)
	}
	bar.SetCurrent(p.BytesSent)
	if p.TotalBytes > 0 && p.BytesSent >= p.TotalBytes {
		bar.SetTotal(-1, true)
	}
}

func (r *CLIReporter) addBar(p client.ProgressReport) *mpb.Bar {
	label := "⬆️  " + p.Name
	if p.Type == client.ProgressDownload {
		label = "⬇️  " + p.Name
	}

	return r.progress.AddBar(p.TotalBytes,
		mpb.PrependDecorators(
			decor.Any(func(st decor.Statistics) string {
				return fmt.Sprintf("%-24s", label)
			}, decor.WCSyncSpaceR),
			decor.Counters(decor.SizeB1024(0), "% .2f / % .2f", decor.WCSyncSpace),
		),
		mpb.AppendDecorators(
			decor.AverageSpeed(decor.SizeB1024(0), "% .2f", decor.WCSyncSpace),
			decor.Name(" | "),
			decor.OnComplete(
				decor.AverageETA(decor.ET_STYLE_GO), "✨ Done!",
			),
		),
	)
}

// Finish completes every bar still open, e.g. after a failed transfer.
func (r *CLIReporter) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finishLocked()
}

func (r *CLIReporter) finishLocked() {
	for _, bar := range r.bars {
		if !bar.Completed() {
			bar.Abort(false)
		}
	}
}

// Wait finishes the bars and blocks until they are rendered.
func (r *CLIReporter) Wait() {
	r.mu.Lock()
	r.finishLocked()
	progress := r.progress
	r.progress = nil
	r.bars = make(map[string]*mpb.Bar)
	r.mu.Unlock()

	if progress != nil {
		progress.Wait()
	}
}
