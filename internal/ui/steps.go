package ui

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	stepCheckStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#22c55e"))

	stepErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ef4444"))

	stepActiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#06b6d4"))

	stepPendingStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#666666"))

	stepDetailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
)

type stepStatus string

const (
	stepPending stepStatus = "pending"
	stepRunning stepStatus = "running"
	stepDone    stepStatus = "done"
	stepFailed  stepStatus = "failed"
)

type stepState struct {
	name    string
	status  stepStatus
	detail  string
	elapsed time.Duration
	printed bool
}

// StepProgress renders a live checklist of named steps, one line each, used
// while doctor runs its environment checks. Falls back to plain sequential
// output when stderr is not a terminal.
type StepProgress struct {
	title          string
	steps          []stepState
	spinnerIdx     int
	spinnerStop    chan bool
	closeOnce      sync.Once
	mu             sync.Mutex
	isTTY          bool
	rendered       bool
	stepStartTimes []time.Time
	completedCount int
}

func NewStepProgress(title string, names []string) *StepProgress {
	steps := make([]stepState, len(names))
	for i, name := range names {
		steps[i] = stepState{name: name, status: stepPending}
	}

	sp := &StepProgress{
		title:          title,
		steps:          steps,
		spinnerStop:    make(chan bool),
		isTTY:          term.IsTerminal(int(os.Stderr.Fd())),
		stepStartTimes: make([]time.Time, len(names)),
	}

	if sp.isTTY {
		go func() {
			ticker := time.NewTicker(80 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-sp.spinnerStop:
					return
				case <-ticker.C:
					sp.mu.Lock()
					sp.spinnerIdx = (sp.spinnerIdx + 1) % len(spinnerFrames)
					hasActive := false
					for _, s := range sp.steps {
						if s.status == stepRunning {
							hasActive = true
							break
						}
					}
					if hasActive {
						sp.render()
					}
					sp.mu.Unlock()
				}
			}
		}()
	}

	return sp
}

func (sp *StepProgress) StartStep(index int) {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	if index < 0 || index >= len(sp.steps) {
		return
	}
	sp.stepStartTimes[index] = time.Now()
	sp.steps[index].status = stepRunning
	sp.render()
}

// FinishStep marks a step done or failed, with an optional detail shown
// next to the step name.
func (sp *StepProgress) FinishStep(index int, ok bool, detail string) {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	if index < 0 || index >= len(sp.steps) {
		return
	}

	if sp.steps[index].status == stepRunning {
		sp.steps[index].elapsed = time.Since(sp.stepStartTimes[index])
		sp.completedCount++
	}

	if ok {
		sp.steps[index].status = stepDone
	} else {
		sp.steps[index].status = stepFailed
	}
	sp.steps[index].detail = detail

	sp.render()
}

func (sp *StepProgress) Finish() {
	sp.closeOnce.Do(func() { close(sp.spinnerStop) })

	sp.mu.Lock()
	defer sp.mu.Unlock()

	sp.render()
	fmt.Fprintf(os.Stderr, "\n")
}

// Failed reports how many steps finished in a failed state.
func (sp *StepProgress) Failed() int {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	failed := 0
	for _, s := range sp.steps {
		if s.status == stepFailed {
			failed++
		}
	}
	return failed
}

func (sp *StepProgress) render() {
	if sp.isTTY {
		sp.renderTTY()
	} else {
		sp.renderPlain()
	}
}

func (sp *StepProgress) renderTTY() {
	if sp.rendered {
		fmt.Fprintf(os.Stderr, "\033[%dA", len(sp.steps)+1)
	}
	sp.rendered = true

	fmt.Fprintf(os.Stderr, "\033[K  %s [%d/%d]\n", sp.title, sp.completedCount, len(sp.steps))

	for i, s := range sp.steps {
		fmt.Fprintf(os.Stderr, "\033[K")

		switch s.status {
		case stepDone:
			fmt.Fprintf(os.Stderr, "  %s %s\n",
				stepCheckStyle.Render("✓ "+s.name),
				stepDetailStyle.Render(sp.stepSuffix(s)))
		case stepFailed:
			fmt.Fprintf(os.Stderr, "  %s %s\n",
				stepErrorStyle.Render("✗ "+s.name),
				stepDetailStyle.Render(sp.stepSuffix(s)))
		case stepRunning:
			spinner := spinnerFrames[sp.spinnerIdx]
			live := time.Since(sp.stepStartTimes[i])
			fmt.Fprintf(os.Stderr, "  %s %s\n",
				stepActiveStyle.Render(spinner+" "+s.name),
				stepDetailStyle.Render(formatStepDuration(live)+"..."))
		default:
			fmt.Fprintf(os.Stderr, "  %s\n",
				stepPendingStyle.Render("  "+s.name))
		}
	}
}

func (sp *StepProgress) renderPlain() {
	for i, s := range sp.steps {
		if s.printed {
			continue
		}
		switch s.status {
		case stepDone:
			sp.printPlainHeader()
			fmt.Fprintf(os.Stderr, "  ✓ %s (%s)\n", s.name, sp.stepSuffix(s))
			sp.steps[i].printed = true
		case stepFailed:
			sp.printPlainHeader()
			fmt.Fprintf(os.Stderr, "  ✗ %s (%s)\n", s.name, sp.stepSuffix(s))
			sp.steps[i].printed = true
		}
	}
}

func (sp *StepProgress) printPlainHeader() {
	if !sp.rendered {
		fmt.Fprintf(os.Stderr, "  %s\n", sp.title)
		sp.rendered = true
	}
}

func (sp *StepProgress) stepSuffix(s stepState) string {
	elapsed := formatStepDuration(s.elapsed)
	if s.detail == "" {
		return elapsed
	}
	return fmt.Sprintf("%s, %s", s.detail, elapsed)
}

func formatStepDuration(d time.Duration) string {
	if d < time.Second {
		return "< 1s"
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
