// Package timeline provides the time code scrubber for the TUI.
package timeline

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/usdinspect/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/usdinspect/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/usdinspect/internal/core/domain"
)

// Timeline holds the current time code and throttles resampling while the
// user scrubs. The displayed time always follows key presses; TimeChanged
// is emitted at most ScrubRate times per second, and the last position of a
// burst is always delivered.
type Timeline struct {
	styles  *styles.Styles
	rng     domain.TimeRange
	current domain.TimeCode
	step    float64
	limiter *rate.Limiter
	now     func() time.Time

	flushSeq int
	pending  bool
	width    int
}

// New creates a timeline stepping step time codes per key press and
// resampling at most scrubRate times per second.
func New(s *styles.Styles, step, scrubRate float64) *Timeline {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if step <= 0 {
		step = 1
	}
	if scrubRate <= 0 {
		scrubRate = 30
	}
	return &Timeline{
		styles:  s,
		step:    step,
		limiter: rate.NewLimiter(rate.Limit(scrubRate), 1),
		now:     time.Now,
		width:   80,
	}
}

// SetRange sets the playback range and moves to its start.
// Any throttled resample still in flight is discarded.
func (t *Timeline) SetRange(r domain.TimeRange) {
	t.rng = r
	t.current = r.Start
	t.flushSeq++
	t.pending = false
}

// Range returns the playback range.
func (t *Timeline) Range() domain.TimeRange {
	return t.rng
}

// Current returns the displayed time code.
func (t *Timeline) Current() domain.TimeCode {
	return t.current
}

// Pending reports whether a throttled resample is scheduled.
func (t *Timeline) Pending() bool {
	return t.pending
}

// SetWidth sets the rendered width.
func (t *Timeline) SetWidth(width int) {
	t.width = width
}

// Forward steps forward by one step.
func (t *Timeline) Forward() tea.Cmd {
	return t.Seek(t.current + domain.TimeCode(t.step))
}

// Back steps back by one step.
func (t *Timeline) Back() tea.Cmd {
	return t.Seek(t.current - domain.TimeCode(t.step))
}

// ToStart jumps to the start of the range.
func (t *Timeline) ToStart() tea.Cmd {
	return t.Seek(t.rng.Start)
}

// ToEnd jumps to the end of the range.
func (t *Timeline) ToEnd() tea.Cmd {
	return t.Seek(t.rng.End)
}

// Seek moves to target, clamped to the range. It returns a command that
// emits TimeChanged now, or schedules a flush when scrubbing too fast.
func (t *Timeline) Seek(target domain.TimeCode) tea.Cmd {
	target = t.rng.Clamp(target)
	if target == t.current {
		return nil
	}
	t.current = target

	if t.pending {
		return nil
	}
	now := t.now()
	if t.limiter.AllowN(now, 1) {
		return changed(t.current)
	}

	reservation := t.limiter.ReserveN(now, 1)
	delay := reservation.DelayFrom(now)
	t.pending = true
	t.flushSeq++
	seq := t.flushSeq
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return messages.ScrubFlush{Seq: seq}
	})
}

// Flush handles a scheduled ScrubFlush, emitting the latest time code.
// Stale flushes are ignored.
func (t *Timeline) Flush(msg messages.ScrubFlush) tea.Cmd {
	if !t.pending || msg.Seq != t.flushSeq {
		return nil
	}
	t.pending = false
	return changed(t.current)
}

func changed(tc domain.TimeCode) tea.Cmd {
	return func() tea.Msg {
		return messages.TimeChanged{Time: tc}
	}
}

// View renders the time code and a position marker across the range.
func (t *Timeline) View() string {
	label := t.styles.Title.Render(fmt.Sprintf("t = %s", t.current))
	if t.rng.IsEmpty() {
		return label + t.styles.Muted.Render("  (no time range authored)")
	}

	start := t.styles.Muted.Render(t.rng.Start.String())
	end := t.styles.Muted.Render(t.rng.End.String())
	fps := ""
	if t.rng.TimeCodesPerSecond > 0 {
		fps = t.styles.Muted.Render(fmt.Sprintf("  %g fps", t.rng.TimeCodesPerSecond))
	}

	track := t.width - len(t.current.String()) - len(t.rng.Start.String()) - len(t.rng.End.String()) - 20
	if track < 10 {
		track = 10
	}
	pos := 0
	if span := float64(t.rng.End - t.rng.Start); span > 0 {
		pos = int(float64(t.current-t.rng.Start) / span * float64(track-1))
	}
	bar := strings.Repeat("─", pos) + "●" + strings.Repeat("─", track-1-pos)

	return label + "  " + start + " " + t.styles.Normal.Render(bar) + " " + end + fps
}
