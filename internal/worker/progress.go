package worker

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// Progress tracks batch generation. With a terminal attached it redraws a
// progress bar; otherwise it logs every tenth of the batch.
type Progress struct {
	startTime time.Time
	output    io.Writer
	logger    *slog.Logger
	total     int
	completed int
	failed    int
	generated time.Duration
	observed  int
	lastTenth int
	mu        sync.RWMutex
	enabled   bool
}

// NewProgress creates a progress tracker. When enabled is false, progress is
// reported through logger (or slog.Default) instead of a bar.
func NewProgress(total int, enabled bool, logger *slog.Logger) *Progress {
	if logger == nil {
		logger = slog.Default()
	}
	return &Progress{
		total:     total,
		startTime: time.Now(),
		output:    os.Stderr,
		logger:    logger,
		enabled:   enabled,
	}
}

// Update records the completion of a task.
func (p *Progress) Update(completed, total, failed int) {
	p.mu.Lock()
	p.completed = completed
	p.total = total
	p.failed = failed
	tenth := 0
	if total > 0 {
		tenth = completed * 10 / total
	}
	logNow := !p.enabled && tenth > p.lastTenth
	if logNow {
		p.lastTenth = tenth
	}
	p.mu.Unlock()

	if p.enabled {
		p.Print()
		return
	}
	if logNow {
		p.logger.Info("Batch progress", "completed", completed, "total", total, "failed", failed)
	}
}

// Observe records how long one successful world took to generate.
func (p *Progress) Observe(r Result) {
	if r.Err != nil {
		return
	}
	p.mu.Lock()
	p.generated += r.Elapsed
	p.observed++
	p.mu.Unlock()
}

// Callback returns a ProgressFunc suitable for use with Pool.Config.
func (p *Progress) Callback() ProgressFunc {
	return p.Update
}

// Print redraws the progress bar on output.
func (p *Progress) Print() {
	p.mu.RLock()
	completed, total, failed := p.completed, p.total, p.failed
	startTime := p.startTime
	p.mu.RUnlock()

	elapsed := time.Since(startTime)

	var rate float64
	var eta time.Duration
	if completed > 0 {
		rate = float64(completed) / elapsed.Seconds()
		if rate > 0 {
			eta = time.Duration(float64(total-completed)/rate) * time.Second
		}
	}

	const barWidth = 30
	filled := 0
	if total > 0 {
		filled = min(barWidth, completed*barWidth/total)
	}
	bar := strings.Repeat("#", filled) + strings.Repeat("-", barWidth-filled)

	var b strings.Builder
	fmt.Fprintf(&b, "\r[%s] %d/%d worlds", bar, completed, total)
	if failed > 0 {
		fmt.Fprintf(&b, " (%d failed)", failed)
	}
	fmt.Fprintf(&b, " - %.1f worlds/sec", rate)
	if eta > 0 && completed < total {
		fmt.Fprintf(&b, " - ETA: %s", formatDuration(eta))
	}
	if completed == total {
		fmt.Fprintf(&b, " - Done in %s", formatDuration(elapsed))
	}
	b.WriteString("          ")

	fmt.Fprint(p.output, b.String())
}

// Done finishes the bar with a newline.
func (p *Progress) Done() {
	if p.enabled {
		p.Print()
		fmt.Fprintln(p.output)
	}
}

// Summary returns a one-line report of the finished batch.
func (p *Progress) Summary() string {
	p.mu.RLock()
	completed, total, failed := p.completed, p.total, p.failed
	generated, observed := p.generated, p.observed
	startTime := p.startTime
	p.mu.RUnlock()

	elapsed := time.Since(startTime)
	line := fmt.Sprintf("Generated %d/%d worlds (%d failed) in %s", completed-failed, total, failed, formatDuration(elapsed))
	if observed > 0 {
		line += fmt.Sprintf(", %s per world", (generated / time.Duration(observed)).Round(time.Millisecond))
	}
	return line
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
