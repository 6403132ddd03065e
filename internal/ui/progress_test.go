package ui

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{"within limit", "hello", 10, "hello"},
		{"exact limit", "hello", 5, "hello"},
		{"needs truncation with ellipsis", "hello world", 8, "hello..."},
		{"maxLen exactly 3", "hello", 3, "hel"},
		{"maxLen 4 adds ellipsis", "hello world", 4, "h..."},
		{"maxLen 2 no ellipsis", "hello", 2, "he"},
		{"empty string", "", 5, ""},
		{"empty string zero len", "", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := truncate(tt.input, tt.maxLen)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		input    time.Duration
		expected string
	}{
		{"sub-second", 500 * time.Millisecond, "0.5s"},
		{"10 seconds", 10 * time.Second, "10.0s"},
		{"30.5 seconds", 30*time.Second + 500*time.Millisecond, "30.5s"},
		{"exactly 1 minute", 60 * time.Second, "1m0s"},
		{"1 minute 30 seconds", 90 * time.Second, "1m30s"},
		{"2 minutes 15 seconds", 135 * time.Second, "2m15s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatDuration(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestProgressDefaults(t *testing.T) {
	p := NewProgress(10)

	assert.Equal(t, 10, p.total)
	assert.Equal(t, 0, p.completed)
	assert.False(t, p.active)
}

func TestProgressIncrement(t *testing.T) {
	p := NewProgress(5)

	p.Increment()
	p.Increment()

	assert.Equal(t, 2, p.completed)
}

func TestProgressSetCurrentDoesNotPanic(t *testing.T) {
	p := NewProgress(5)
	assert.NotPanics(t, func() {
		p.SetCurrent("some-package")
	})
}

func TestProgressConcurrentSafety(t *testing.T) {
	const goroutines = 50
	p := NewProgress(goroutines)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Increment()
		}()
	}
	wg.Wait()

	assert.Equal(t, goroutines, p.completed)
}

func TestProgressEstimateRemainingEmptyBeforeFirstCompletion(t *testing.T) {
	p := NewProgress(5)
	assert.Equal(t, "", p.estimateRemaining())
}
