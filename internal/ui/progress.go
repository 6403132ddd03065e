package ui

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

const (
	minBarWidth     = 20
	defaultBarWidth = 40
	statusWidth     = 16
	etaWidth        = 8
)

var (
	progressBarStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#22c55e"))

	progressBgStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#333"))

	progressTextStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#888"))

	currentPkgStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#60a5fa"))

	etaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666"))
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Progress renders a one-line progress bar on stderr while a batch of
// packages is resolved or fetched. On non-TTY output it stays silent until
// Finish.
type Progress struct {
	total      int
	completed  int
	currentPkg string
	barWidth   int
	termWidth  int
	startTime  time.Time
	mu         sync.Mutex
	spinnerIdx int
	stopCh     chan struct{}
	isTTY      bool
	active     bool
}

func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stderr.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

func NewProgress(total int) *Progress {
	w := terminalWidth()
	barWidth := w - statusWidth - etaWidth - 4
	if barWidth < minBarWidth {
		barWidth = minBarWidth
	}
	if barWidth > defaultBarWidth {
		barWidth = defaultBarWidth
	}

	return &Progress{
		total:     total,
		termWidth: w,
		barWidth:  barWidth,
		startTime: time.Now(),
		stopCh:    make(chan struct{}),
		isTTY:     term.IsTerminal(int(os.Stderr.Fd())),
	}
}

func (p *Progress) Start() {
	p.mu.Lock()
	p.active = true
	p.mu.Unlock()

	if !p.isTTY {
		return
	}

	p.render()

	go func() {
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-p.stopCh:
				return
			case <-ticker.C:
				p.mu.Lock()
				p.spinnerIdx = (p.spinnerIdx + 1) % len(spinnerFrames)
				if p.active {
					p.render()
				}
				p.mu.Unlock()
			}
		}
	}()
}

// render assumes p.mu is held (or the caller is single-threaded).
func (p *Progress) render() {
	if !p.isTTY {
		return
	}

	pct := float64(0)
	if p.total > 0 {
		pct = float64(p.completed) / float64(p.total)
	}
	filled := int(pct * float64(p.barWidth))
	empty := p.barWidth - filled

	bar := progressBarStyle.Render(strings.Repeat("█", filled)) +
		progressBgStyle.Render(strings.Repeat("░", empty))

	status := fmt.Sprintf(" %d/%d (%3.0f%%)", p.completed, p.total, pct*100)
	eta := p.estimateRemaining()
	if eta != "" {
		eta = fmt.Sprintf("%-6s", eta)
	}

	spin := ""
	if p.completed < p.total {
		spin = spinnerFrames[p.spinnerIdx] + " "
	}

	pkgDisplay := ""
	if p.currentPkg != "" {
		maxPkgWidth := p.termWidth - p.barWidth - statusWidth - etaWidth - 6
		if maxPkgWidth > 0 {
			pkgDisplay = truncate(p.currentPkg, maxPkgWidth)
		}
	}

	fmt.Fprintf(os.Stderr, "\r\033[K %s%s%s %s %s",
		spin,
		bar,
		progressTextStyle.Render(status),
		etaStyle.Render(eta),
		currentPkgStyle.Render(pkgDisplay))
}

func (p *Progress) SetCurrent(pkgName string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.currentPkg = pkgName
	if p.active {
		p.render()
	}
}

func (p *Progress) Increment() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completed++
	if p.active {
		p.render()
	}
}

func (p *Progress) Finish() {
	close(p.stopCh)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.active = false
	if p.isTTY {
		fmt.Fprint(os.Stderr, "\r\033[K")
	}

	elapsed := time.Since(p.startTime)
	fmt.Fprintf(os.Stderr, "  Resolved %d packages in %s\n", p.completed, formatDuration(elapsed))
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

func (p *Progress) estimateRemaining() string {
	if p.completed == 0 {
		return ""
	}

	elapsed := time.Since(p.startTime)
	avgPerPkg := elapsed / time.Duration(p.completed)
	remaining := p.total - p.completed
	eta := avgPerPkg * time.Duration(remaining)

	if eta < time.Second {
		return "< 1s"
	}

	if eta < time.Minute {
		return fmt.Sprintf("~%ds", int(eta.Seconds()))
	}

	mins := int(eta.Minutes())
	secs := int(eta.Seconds()) % 60
	if secs > 0 {
		return fmt.Sprintf("~%dm%ds", mins, secs)
	}
	return fmt.Sprintf("~%dm", mins)
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	mins := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm%ds", mins, secs)
}
