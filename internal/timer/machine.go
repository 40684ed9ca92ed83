// Package timer implements the focus/break/stopwatch state machine and the
// runner that drives it from a periodic tick.
package timer

import (
	"errors"
	"fmt"
	"time"

	"pomotrack/internal/config"
	"pomotrack/internal/session"
)

var (
	// ErrInvalidTransition is returned when a command is not valid in the current phase.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrRunning is returned when durations are changed while the timer runs.
	ErrRunning = errors.New("timer is running")
)

// Machine owns one timer State. It is not safe for concurrent use; Runner
// serializes access to it.
type Machine struct {
	state    State
	lastTick time.Time
}

// NewMachine returns a machine in focus-stopped with a full focus countdown.
// Non-positive durations are clamped to one minute.
func NewMachine(focusMinutes, breakMinutes int) *Machine {
	focusMinutes = config.ClampMinutes(focusMinutes)
	breakMinutes = config.ClampMinutes(breakMinutes)
	return &Machine{state: State{
		Phase:            PhaseFocusStopped,
		RemainingSeconds: focusMinutes * 60,
		FocusMinutes:     focusMinutes,
		BreakMinutes:     breakMinutes,
	}}
}

// State returns a copy of the current state.
func (m *Machine) State() State {
	return m.state
}

// StartFocus starts or resumes the focus countdown.
func (m *Machine) StartFocus(now time.Time) error {
	if err := m.expect("start focus", PhaseFocusStopped); err != nil {
		return err
	}
	if m.state.RemainingSeconds <= 0 {
		m.state.RemainingSeconds = m.state.FocusMinutes * 60
	}
	m.state.Phase = PhaseFocusRunning
	m.run(now)
	return nil
}

// PauseFocus freezes the focus countdown, keeping remaining and accumulated time.
func (m *Machine) PauseFocus() error {
	if err := m.expect("pause focus", PhaseFocusRunning); err != nil {
		return err
	}
	m.state.Phase = PhaseFocusStopped
	m.state.Running = false
	return nil
}

// StopFocus ends a focus or stopwatch phase. It finalizes a record holding the
// accumulated focus seconds and immediately starts the break countdown.
func (m *Machine) StopFocus(now time.Time) (session.Record, error) {
	if err := m.expect("stop focus", PhaseFocusRunning, PhaseStopwatch); err != nil {
		return session.Record{}, err
	}
	rec := session.NewRecord(now, m.state.SessionFocusSeconds, 0)

	m.state.Phase = PhaseBreakRunning
	m.state.RemainingSeconds = m.state.BreakMinutes * 60
	m.state.StopwatchSeconds = 0
	m.state.SessionFocusSeconds = 0
	m.run(now)
	return rec, nil
}

// PauseBreak freezes the break countdown.
func (m *Machine) PauseBreak() error {
	if err := m.expect("pause break", PhaseBreakRunning); err != nil {
		return err
	}
	m.state.Phase = PhaseBreakStopped
	m.state.Running = false
	return nil
}

// StartBreak resumes a paused break; an exhausted break restarts from full length.
func (m *Machine) StartBreak(now time.Time) error {
	if err := m.expect("start break", PhaseBreakStopped); err != nil {
		return err
	}
	if m.state.RemainingSeconds <= 0 {
		m.state.RemainingSeconds = m.state.BreakMinutes * 60
	}
	m.state.Phase = PhaseBreakRunning
	m.run(now)
	return nil
}

// FinishSession finalizes a record with the accumulated focus and break seconds,
// then resets every counter and returns to focus-stopped.
func (m *Machine) FinishSession(now time.Time) (session.Record, error) {
	if err := m.expect("finish session", PhaseBreakRunning, PhaseBreakStopped); err != nil {
		return session.Record{}, err
	}
	rec := session.NewRecord(now, m.state.SessionFocusSeconds, m.state.SessionBreakSeconds)
	m.reset()
	return rec, nil
}

// Reset discards the current cycle without recording it.
func (m *Machine) Reset() error {
	if err := m.expect("reset", PhaseFocusStopped, PhaseFocusRunning, PhaseStopwatch); err != nil {
		return err
	}
	m.reset()
	return nil
}

// SetDurations changes the configured focus and break lengths. Values below one
// minute are clamped. Outside the stopwatch the countdown is refilled to the new
// length of the current phase family.
func (m *Machine) SetDurations(focusMinutes, breakMinutes int) error {
	if m.state.Running {
		return ErrRunning
	}
	m.state.FocusMinutes = config.ClampMinutes(focusMinutes)
	m.state.BreakMinutes = config.ClampMinutes(breakMinutes)

	switch {
	case m.state.Phase == PhaseFocusStopped:
		m.state.RemainingSeconds = m.state.FocusMinutes * 60
	case m.state.Phase.IsBreak():
		m.state.RemainingSeconds = m.state.BreakMinutes * 60
	}
	return nil
}

// Tick advances the machine to now. Nothing happens until at least one whole
// second has elapsed since the last effective tick; whole seconds are applied one
// at a time and the fractional remainder is carried to the next tick. It reports
// whether the state changed.
func (m *Machine) Tick(now time.Time) bool {
	if !m.state.Running {
		return false
	}
	elapsed := int(now.Sub(m.lastTick) / time.Second)
	if elapsed < 1 {
		return false
	}
	m.lastTick = m.lastTick.Add(time.Duration(elapsed) * time.Second)

	for i := 0; i < elapsed && m.state.Running; i++ {
		m.step()
	}
	return true
}

func (m *Machine) step() {
	switch m.state.Phase {
	case PhaseFocusRunning:
		m.state.RemainingSeconds--
		m.state.SessionFocusSeconds++
		if m.state.RemainingSeconds <= 0 {
			m.state.RemainingSeconds = 0
			m.state.Phase = PhaseStopwatch
			m.state.StopwatchSeconds = 0
		}
	case PhaseStopwatch:
		m.state.StopwatchSeconds++
		m.state.SessionFocusSeconds++
	case PhaseBreakRunning:
		m.state.RemainingSeconds--
		m.state.SessionBreakSeconds++
		if m.state.RemainingSeconds <= 0 {
			m.state.RemainingSeconds = 0
			m.state.Phase = PhaseBreakStopped
			m.state.Running = false
		}
	}
}

func (m *Machine) run(now time.Time) {
	m.state.Running = true
	m.lastTick = now
}

func (m *Machine) reset() {
	m.state.Phase = PhaseFocusStopped
	m.state.Running = false
	m.state.RemainingSeconds = m.state.FocusMinutes * 60
	m.state.StopwatchSeconds = 0
	m.state.SessionFocusSeconds = 0
	m.state.SessionBreakSeconds = 0
}

func (m *Machine) expect(op string, allowed ...Phase) error {
	for _, p := range allowed {
		if m.state.Phase == p {
			return nil
		}
	}
	return fmt.Errorf("%w: cannot %s in %s", ErrInvalidTransition, op, m.state.Phase)
}
