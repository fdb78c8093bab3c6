package diag

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Terminal prints run status for humans (not logs).
//   - TTY: one line rewritten with \r; otherwise one line per milestone.
//   - Safe for concurrent use; after a failed write it turns into a no-op.
type Terminal struct {
	w       io.Writer
	enabled bool
	isTTY   bool
	tags    Tags

	concurrency int
	pdfSet      string
	histsDone   int
	runStart    time.Time

	curHist    string
	binsTotal  int
	binsDone   int
	degenerate int

	lastLen   int
	lastFlush time.Time

	mu sync.Mutex
}

// Tags renders the coloured message prefixes; colours are dropped when the
// writer is not a terminal.
type Tags struct {
	errTag  lipgloss.Style
	infoTag lipgloss.Style
	okTag   lipgloss.Style
}

// NewTags builds the prefixes for w.
func NewTags(w io.Writer) Tags {
	r := lipgloss.NewRenderer(w)
	return Tags{
		errTag:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),
		infoTag: r.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
		okTag:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
	}
}

// Error returns "Error: " followed by msg.
func (t Tags) Error(msg string) string { return t.errTag.Render("Error:") + " " + msg }

// Info returns "[INFO] " followed by msg.
func (t Tags) Info(msg string) string { return "[" + t.infoTag.Render("INFO") + "] " + msg }

func (t Tags) tag(name string, ok bool) string {
	if ok {
		return "[" + t.okTag.Render(name) + "]"
	}
	return "[" + t.errTag.Render(name) + "]"
}

// IsTerminal reports whether w is a (Cygwin) terminal; CI counts as not.
func IsTerminal(w io.Writer) bool {
	if os.Getenv("CI") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// NewTerminal returns a status printer; enabled=false is always a no-op.
func NewTerminal(w io.Writer, enabled bool) *Terminal {
	if w == nil {
		w = os.Stderr
	}
	return &Terminal{w: w, enabled: enabled, isTTY: IsTerminal(w), tags: NewTags(w)}
}

// RunStart records the run context.
func (t *Terminal) RunStart(concurrency int, pdfSet string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return
	}
	t.concurrency = concurrency
	t.pdfSet = pdfSet
	t.histsDone = 0
	t.runStart = time.Now()
	t.println(t.tags.Info(fmt.Sprintf("run | workers=%d | pdfset=%s", concurrency, safe(pdfSet))))
}

// HistogramStart marks the histogram being filled.
func (t *Terminal) HistogramStart(name string, bins int) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return
	}
	t.curHist = safe(name)
	t.binsTotal = bins
	t.binsDone = 0
	t.degenerate = 0
	if !t.isTTY {
		t.println(fmt.Sprintf("[hist] %s | bins=%d", t.curHist, bins))
	}
}

// BinProgress updates the bin counter, throttled to one repaint per 100ms.
func (t *Terminal) BinProgress(done, total, degenerate int) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled || !t.isTTY {
		return
	}
	t.binsDone = done
	t.binsTotal = total
	t.degenerate = degenerate
	now := time.Now()
	if done < total && now.Sub(t.lastFlush) < 100*time.Millisecond {
		return
	}
	t.lastFlush = now
	pct := 0.0
	if total > 0 {
		pct = 100 * float64(done) / float64(total)
	}
	line := fmt.Sprintf("[hist] %s | %5.1f%% (%d/%d) | degenerate %d | workers %d | %s",
		t.curHist, pct, t.binsDone, t.binsTotal, t.degenerate, t.concurrency, formatSince(t.runStart))
	t.printInline(line)
}

// HistogramFinish ends the current histogram line.
func (t *Terminal) HistogramFinish(ok bool, dur time.Duration) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return
	}
	t.histsDone++
	status := "done"
	if !ok {
		status = "fail"
	}
	if t.isTTY && t.lastLen > 0 {
		t.printInline("")
	}
	t.println(fmt.Sprintf("%s %s | bins %d | degenerate %d | %s",
		t.tags.tag(status, ok), t.curHist, t.binsTotal, t.degenerate, formatDur(dur)))
}

// RunFinish prints the overview line.
func (t *Terminal) RunFinish(ok bool, dur time.Duration) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return
	}
	tag := "ok"
	if !ok {
		tag = "fail"
	}
	t.println(fmt.Sprintf("%s finished | histograms %d | %s", t.tags.tag(tag, ok), t.histsDone, formatDur(dur)))
}

func (t *Terminal) println(s string) {
	if t == nil || !t.enabled {
		return
	}
	if _, err := io.WriteString(t.w, s+"\n"); err != nil {
		t.enabled = false
	}
	t.lastLen = 0
}

func (t *Terminal) printInline(s string) {
	if t == nil || !t.enabled {
		return
	}
	// pad with spaces when the new line is shorter than the old one
	pad := 0
	if l := visLen(s); t.lastLen > l {
		pad = t.lastLen - l
	}
	var b strings.Builder
	b.WriteByte('\r')
	b.WriteString(s)
	if pad > 0 {
		b.WriteString(strings.Repeat(" ", pad))
	}
	if _, err := io.WriteString(t.w, b.String()); err != nil {
		t.enabled = false
		return
	}
	t.lastLen = visLen(s)
}

func visLen(s string) int { return lipgloss.Width(s) }

func safe(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return s
}

func formatSince(t0 time.Time) string { return formatDur(time.Since(t0)) }

func formatDur(d time.Duration) string {
	if d < time.Second {
		ms := d.Milliseconds()
		if ms <= 0 {
			ms = 0
		}
		return fmt.Sprintf("%dms", ms)
	}
	s := float64(d.Milliseconds()) / 1000.0
	return fmt.Sprintf("%.1fs", s)
}
