// Package eta tracks recent per-unit throughput in a fixed-size window and
// projects the remaining time of a batch from it.
package eta

import (
	"fmt"
	"time"
)

const (
	// windowSize bounds how far back the rate estimate looks.
	windowSize = 200
	// minSamples below which no estimate is given; early-cycle rates are
	// too noisy to project from.
	minSamples = 20
)

// Window is a circular buffer of completion timestamps. It is not safe for
// concurrent use; the orchestrator ticks and queries it from a single
// goroutine.
type Window struct {
	slots [windowSize]time.Time
	end   int
	size  int

	now func() time.Time
}

func NewWindow() *Window {
	return &Window{end: windowSize - 1, now: time.Now}
}

// Tick records the completion of one unit of work.
func (w *Window) Tick() {
	w.end = (w.end + 1) % windowSize
	w.slots[w.end] = w.now()
	if w.size < windowSize {
		w.size++
	}
}

// Estimate projects how long the given number of remaining units will take
// at the recent rate. The result is unknown until enough ticks accumulated.
func (w *Window) Estimate(remaining int) Estimate {
	if w.size <= minSamples {
		return Estimate{}
	}

	newest := w.slots[w.end]

	// Once the buffer wrapped, the oldest sample sits right after the
	// cursor; before that it is slot 0.
	first := 0
	if w.size == windowSize {
		first = (w.end + 1) % windowSize
	}
	oldest := w.slots[first]

	perUnit := float64(newest.Sub(oldest).Milliseconds()) / float64(w.size)
	millis := perUnit * float64(remaining)

	return Estimate{
		duration: time.Duration(millis) * time.Millisecond,
		known:    true,
	}
}

// Estimate is a duration that may be unknown. The zero value is unknown.
type Estimate struct {
	duration time.Duration
	known    bool
}

// Seconds returns the estimate in whole seconds, and whether it is known.
func (e Estimate) Seconds() (uint64, bool) {
	if !e.known {
		return 0, false
	}
	return uint64(e.duration / time.Second), true
}

// String renders the estimate like "2h13m5s", "4m0s" or "32s", or "N/A"
// when unknown.
func (e Estimate) String() string {
	if !e.known {
		return "N/A"
	}

	secs := uint64(e.duration / time.Second)

	hours := secs / 3600
	secs %= 3600
	minutes := secs / 60
	secs %= 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh%dm%ds", hours, minutes, secs)
	case minutes > 0:
		return fmt.Sprintf("%dm%ds", minutes, secs)
	default:
		return fmt.Sprintf("%ds", secs)
	}
}
