package ui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatStepDuration(t *testing.T) {
	tests := []struct {
		name     string
		input    time.Duration
		expected string
	}{
		{"zero", 0, "< 1s"},
		{"999ms", 999 * time.Millisecond, "< 1s"},
		{"exactly 1s", 1 * time.Second, "1.0s"},
		{"2.5s", 2500 * time.Millisecond, "2.5s"},
		{"10s", 10 * time.Second, "10.0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatStepDuration(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestNewStepProgressInitialState(t *testing.T) {
	sp := NewStepProgress("Checking", []string{"a", "b", "c"})
	defer sp.Finish()

	assert.Equal(t, 3, len(sp.steps))
	assert.Equal(t, 0, sp.completedCount)

	for _, s := range sp.steps {
		assert.Equal(t, stepPending, s.status)
	}
}

func TestStepProgressLifecycle(t *testing.T) {
	sp := NewStepProgress("Checking", []string{"nix", "store"})
	defer sp.Finish()

	sp.StartStep(0)
	assert.Equal(t, stepRunning, sp.steps[0].status)

	sp.FinishStep(0, true, "ok")
	assert.Equal(t, stepDone, sp.steps[0].status)
	assert.Equal(t, 1, sp.completedCount)

	sp.StartStep(1)
	sp.FinishStep(1, false, "missing")
	assert.Equal(t, stepFailed, sp.steps[1].status)
	assert.Equal(t, 1, sp.Failed())
}

func TestStepProgressIgnoresOutOfRangeIndex(t *testing.T) {
	sp := NewStepProgress("Checking", []string{"only"})
	defer sp.Finish()

	assert.NotPanics(t, func() {
		sp.StartStep(-1)
		sp.StartStep(5)
		sp.FinishStep(-1, true, "")
		sp.FinishStep(5, false, "")
	})
	assert.Equal(t, 0, sp.completedCount)
}
