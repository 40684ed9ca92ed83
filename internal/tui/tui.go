// Package tui is the interactive terminal timer screen.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/sirupsen/logrus"

	"pomotrack/internal/logging"
	"pomotrack/internal/session"
	"pomotrack/internal/timer"
)

const (
	progressWidth  = 40
	recentSessions = 8
	commandTimeout = time.Second
)

// Runner is the subset of timer.Runner the screen drives.
type Runner interface {
	Send(ctx context.Context, cmd timer.Command) (timer.State, error)
	SetDurations(ctx context.Context, focusMinutes, breakMinutes int) (timer.State, error)
	Snapshot(ctx context.Context) (timer.State, error)
	Subscribe(buffer int) <-chan timer.State
}

// SessionSource lists locally recorded sessions, oldest first.
type SessionSource func() []session.Record

type Screen struct {
	app      *tview.Application
	runner   Runner
	sessions SessionSource
	log      *logrus.Entry

	clock    *tview.TextView
	status   *tview.TextView
	history  *tview.Table
	help     *tview.TextView
	lastSeen int
}

func New(runner Runner, sessions SessionSource) *Screen {
	s := &Screen{
		app:      tview.NewApplication(),
		runner:   runner,
		sessions: sessions,
		log:      logging.NewLogger("tui"),
		lastSeen: -1,
	}

	s.clock = tview.NewTextView().SetDynamicColors(true).SetTextAlign(tview.AlignCenter)
	s.clock.SetBorder(true).SetTitle(" Pomodoro ")

	s.status = tview.NewTextView().SetDynamicColors(true).SetTextAlign(tview.AlignCenter)

	s.history = tview.NewTable().SetBorders(false).SetFixed(1, 0)
	s.history.SetBorder(true).SetTitle(" Recent sessions ")

	s.help = tview.NewTextView().SetDynamicColors(true).SetTextAlign(tview.AlignCenter).
		SetText(helpText)

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(s.clock, 9, 0, false).
		AddItem(s.status, 1, 0, false).
		AddItem(s.history, 0, 1, false).
		AddItem(s.help, 2, 0, false)

	s.app.SetRoot(layout, true).SetInputCapture(s.handleKey)
	return s
}

const helpText = "[yellow]space[-] start/pause  [yellow]s[-] stop focus  [yellow]f[-] finish session  " +
	"[yellow]r[-] reset  [yellow]+/-[-] focus min  [yellow]>/<[-] break min  [yellow]q[-] quit"

// Run blocks until the user quits. Snapshots stop being drawn once it returns.
func (s *Screen) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	st, err := s.runner.Snapshot(ctx)
	cancel()
	if err != nil {
		return fmt.Errorf("timer not available: %w", err)
	}
	s.render(st)

	updates := s.runner.Subscribe(16)
	done := make(chan struct{})
	go s.forward(updates, done)
	defer close(done)

	return s.app.Run()
}

// forward draws each snapshot until done is closed or the runner stops.
func (s *Screen) forward(updates <-chan timer.State, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case st, ok := <-updates:
			if !ok {
				return
			}
			s.app.QueueUpdateDraw(func() { s.render(st) })
		}
	}
}

func (s *Screen) handleKey(ev *tcell.EventKey) *tcell.EventKey {
	if ev.Key() == tcell.KeyCtrlC || (ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
		s.app.Stop()
		return nil
	}
	if ev.Key() != tcell.KeyRune {
		return ev
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	current, err := s.runner.Snapshot(ctx)
	if err != nil {
		s.showError(err)
		return nil
	}

	if f, b, ok := AdjustDurations(ev.Rune(), current); ok {
		if _, err := s.runner.SetDurations(ctx, f, b); err != nil {
			s.showError(err)
		}
		return nil
	}

	cmd, ok := CommandFor(ev.Rune(), current)
	if !ok {
		return ev
	}
	if _, err := s.runner.Send(ctx, cmd); err != nil {
		s.showError(err)
	}
	return nil
}

// CommandFor maps a key to the timer command valid in the current phase.
func CommandFor(key rune, st timer.State) (timer.Command, bool) {
	switch key {
	case ' ':
		switch st.Phase {
		case timer.PhaseFocusStopped:
			return timer.CmdStartFocus, true
		case timer.PhaseFocusRunning:
			return timer.CmdPauseFocus, true
		case timer.PhaseBreakRunning:
			return timer.CmdPauseBreak, true
		case timer.PhaseBreakStopped:
			return timer.CmdStartBreak, true
		}
	case 's':
		if st.Phase == timer.PhaseFocusRunning || st.Phase == timer.PhaseStopwatch {
			return timer.CmdStopFocus, true
		}
	case 'f':
		if st.Phase.IsBreak() {
			return timer.CmdFinishSession, true
		}
	case 'r':
		if st.Phase.IsFocus() {
			return timer.CmdReset, true
		}
	}
	return "", false
}

// AdjustDurations maps +/- and >/< to new focus and break minutes. Durations
// are only editable while the timer is stopped.
func AdjustDurations(key rune, st timer.State) (focus, brk int, ok bool) {
	if st.Running {
		return 0, 0, false
	}
	focus, brk = st.FocusMinutes, st.BreakMinutes
	switch key {
	case '+', '=':
		focus++
	case '-':
		focus--
	case '>', '.':
		brk++
	case '<', ',':
		brk--
	default:
		return 0, 0, false
	}
	return focus, brk, true
}

func (s *Screen) render(st timer.State) {
	s.clock.SetText(ClockText(st))
	s.status.SetText(fmt.Sprintf("[gray]focus %d min  break %d min  this cycle: focus %s  break %s",
		st.FocusMinutes, st.BreakMinutes,
		timer.FormatClock(st.SessionFocusSeconds), timer.FormatClock(st.SessionBreakSeconds)))

	if s.sessions == nil {
		return
	}
	records := s.sessions()
	if len(records) != s.lastSeen {
		s.lastSeen = len(records)
		s.renderHistory(records)
	}
}

func (s *Screen) renderHistory(records []session.Record) {
	s.history.Clear()
	for col, h := range []string{"Date", "Focus", "Break"} {
		s.history.SetCell(0, col, tview.NewTableCell(h).SetTextColor(tcell.ColorYellow).SetExpansion(1))
	}
	if len(records) == 0 {
		s.history.SetCell(1, 0, tview.NewTableCell("No sessions yet. Start your first Pomodoro!").SetTextColor(tcell.ColorGray))
		return
	}
	row := 1
	for i := len(records) - 1; i >= 0 && row <= recentSessions; i-- {
		r := records[i]
		s.history.SetCell(row, 0, tview.NewTableCell(r.Date).SetExpansion(1))
		s.history.SetCell(row, 1, tview.NewTableCell(timer.FormatClock(r.FocusDuration)).SetExpansion(1))
		s.history.SetCell(row, 2, tview.NewTableCell(timer.FormatClock(r.BreakDuration)).SetExpansion(1))
		row++
	}
}

func (s *Screen) showError(err error) {
	s.log.WithError(err).Debug("Command rejected")
	s.status.SetText("[red]" + tview.Escape(err.Error()))
}

// ClockText renders the phase heading, the clock face and a progress bar.
func ClockText(st timer.State) string {
	color := "green"
	switch {
	case st.Phase.IsBreak():
		color = "deepskyblue"
	case st.Phase == timer.PhaseStopwatch:
		color = "orange"
	case !st.Running:
		color = "white"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n[%s::b]%s[-::-]\n\n", color, st.Label())
	fmt.Fprintf(&b, "[::b]%s[::-]\n\n", st.Display())
	if total := st.TotalSeconds(); total > 0 {
		filled := int(st.Progress() / 100 * progressWidth)
		fmt.Fprintf(&b, "[%s]%s[gray]%s[-]", color,
			strings.Repeat("█", filled), strings.Repeat("░", progressWidth-filled))
	}
	return b.String()
}
