package actor

import (
	"math"
	"time"
)

// maxTimerMillis is the safe maximum duration spec.md §4.4 mandates: durations
// are clamped to this ceiling rather than overflowing a 32-bit millisecond
// counter the way the host runtime this spec was distilled from would.
const maxTimerMillis = 2147483647

// clampMillis implements spec.md §4.4's clamping rules: negative or
// non-finite durations clamp to zero, fractional milliseconds truncate
// toward zero, and the result is capped at maxTimerMillis.
func clampMillis(ms float64) int64 {
	if math.IsNaN(ms) || math.IsInf(ms, 0) || ms < 0 {
		return 0
	}
	truncated := math.Trunc(ms)
	if truncated > maxTimerMillis {
		return maxTimerMillis
	}
	return int64(truncated)
}

// timerHandle is a cancelable handle returned by after.
type timerHandle struct {
	t *time.Timer
}

// after schedules fn to run once ms milliseconds from now, clamped per
// clampMillis, and returns a handle that cancel can use to prevent it from
// firing. This is spec component C4; it backs the idle-shutdown timer
// (spec.md §4.6, invariant 6) and the query timeout (spec.md §4.6.6).
func after(ms float64, fn func()) *timerHandle {
	d := time.Duration(clampMillis(ms)) * time.Millisecond
	return &timerHandle{t: time.AfterFunc(d, fn)}
}

// cancel stops the timer if it has not yet fired. Safe to call on a nil
// handle or an already-fired/cancelled one.
func (h *timerHandle) cancel() {
	if h == nil || h.t == nil {
		return
	}
	h.t.Stop()
}
