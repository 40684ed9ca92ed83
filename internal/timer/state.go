package timer

import "fmt"

// Phase is the labeled mode the machine is in. Exactly one is active at a time.
type Phase string

const (
	PhaseFocusStopped Phase = "focus-stopped"
	PhaseFocusRunning Phase = "focus-running"
	PhaseBreakRunning Phase = "break-running"
	PhaseBreakStopped Phase = "break-stopped"
	// PhaseStopwatch is entered automatically when a running focus countdown
	// reaches zero; focus time keeps accumulating until the user stops it.
	PhaseStopwatch Phase = "stopwatch"
)

// IsFocus reports whether p belongs to the focus family (including overtime).
func (p Phase) IsFocus() bool {
	return p == PhaseFocusStopped || p == PhaseFocusRunning || p == PhaseStopwatch
}

// IsBreak reports whether p belongs to the break family.
func (p Phase) IsBreak() bool {
	return p == PhaseBreakRunning || p == PhaseBreakStopped
}

// State is the transient timer state. It is only mutated by Machine.
type State struct {
	Phase               Phase `json:"phase"`
	Running             bool  `json:"running"`
	RemainingSeconds    int   `json:"remainingSeconds"`
	StopwatchSeconds    int   `json:"stopwatchSeconds"`
	SessionFocusSeconds int   `json:"sessionFocusSeconds"`
	SessionBreakSeconds int   `json:"sessionBreakSeconds"`
	FocusMinutes        int   `json:"focusMinutes"`
	BreakMinutes        int   `json:"breakMinutes"`
}

// TotalSeconds is the length of the active countdown, 0 outside running countdowns.
func (s State) TotalSeconds() int {
	switch s.Phase {
	case PhaseFocusRunning:
		return s.FocusMinutes * 60
	case PhaseBreakRunning:
		return s.BreakMinutes * 60
	}
	return 0
}

// Progress is the completed fraction (0..100) of the running countdown.
func (s State) Progress() float64 {
	total := s.TotalSeconds()
	if total <= 0 {
		return 0
	}
	p := float64(total-s.RemainingSeconds) / float64(total) * 100
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// Ready reports whether the machine sits at the start of a fresh focus countdown,
// as opposed to a paused one.
func (s State) Ready() bool {
	return s.Phase == PhaseFocusStopped &&
		s.RemainingSeconds == s.FocusMinutes*60 &&
		s.SessionFocusSeconds == 0 &&
		s.SessionBreakSeconds == 0
}

// Label is the human heading for the current phase.
func (s State) Label() string {
	switch s.Phase {
	case PhaseFocusRunning:
		return "Focus Time"
	case PhaseStopwatch:
		return "Overtime"
	case PhaseBreakRunning, PhaseBreakStopped:
		return "Break Time"
	}
	if s.Ready() {
		return "Ready for next session"
	}
	return "Paused"
}

// Display is the clock face: mm:ss countdown, or +mm:ss in stopwatch.
func (s State) Display() string {
	if s.Phase == PhaseStopwatch {
		return "+" + FormatClock(s.StopwatchSeconds)
	}
	return FormatClock(s.RemainingSeconds)
}

// FormatClock renders seconds as zero padded mm:ss; minutes may exceed 59.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
