package timer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"pomotrack/internal/logging"
	"pomotrack/internal/session"
)

// Clock abstracts time so the runner can be driven deterministically in tests.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Recorder receives every finalized session record.
type Recorder interface {
	Record(rec session.Record) error
}

// Command names a user action accepted by the runner.
type Command string

const (
	CmdStartFocus    Command = "start_focus"
	CmdPauseFocus    Command = "pause_focus"
	CmdStopFocus     Command = "stop_focus"
	CmdStartBreak    Command = "start_break"
	CmdPauseBreak    Command = "pause_break"
	CmdFinishSession Command = "finish_session"
	CmdReset         Command = "reset"

	cmdSetDurations Command = "set_durations"
	cmdSnapshot     Command = "snapshot"
)

type request struct {
	cmd          Command
	focusMinutes int
	breakMinutes int
	reply        chan result
}

type result struct {
	state State
	err   error
}

// Options configures a Runner.
type Options struct {
	TickInterval time.Duration
	Clock        Clock
}

// Runner owns a Machine on a single goroutine. Commands are serialized through a
// channel, the tick source exists only while the machine is running, and every
// state change is published to subscribers.
type Runner struct {
	machine  *Machine
	recorder Recorder
	clock    Clock
	interval time.Duration
	log      *logrus.Entry

	cmdChan chan request
	ticker  *time.Ticker

	subsMu     sync.Mutex
	subs       []chan State
	subsClosed bool

	startOnce sync.Once
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewRunner wires a machine to a recorder. recorder may be nil.
func NewRunner(machine *Machine, recorder Recorder, opts Options) *Runner {
	if opts.TickInterval <= 0 {
		opts.TickInterval = 100 * time.Millisecond
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		machine:  machine,
		recorder: recorder,
		clock:    opts.Clock,
		interval: opts.TickInterval,
		log:      logging.NewLogger("timer"),
		cmdChan:  make(chan request),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Subscribe registers an observer channel. Slow observers miss updates rather
// than blocking the runner. Channels are closed when the runner stops; once it
// has stopped, Subscribe returns an already closed channel.
func (r *Runner) Subscribe(buffer int) <-chan State {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan State, buffer)
	r.subsMu.Lock()
	defer r.subsMu.Unlock()
	if r.subsClosed || r.ctx.Err() != nil {
		close(ch)
		return ch
	}
	r.subs = append(r.subs, ch)
	return ch
}

// Start launches the runner loop.
func (r *Runner) Start() {
	r.startOnce.Do(func() {
		r.log.Debug("Starting timer runner")
		go r.runLoop()
	})
}

// Stop terminates the loop and waits for it to exit.
func (r *Runner) Stop() {
	r.cancel()
	r.startOnce.Do(func() {
		r.closeSubscribers()
		close(r.done)
	})
	<-r.done
}

// Send executes a user command and returns the resulting state.
func (r *Runner) Send(ctx context.Context, cmd Command) (State, error) {
	return r.do(ctx, request{cmd: cmd})
}

// SetDurations changes the configured focus and break minutes.
func (r *Runner) SetDurations(ctx context.Context, focusMinutes, breakMinutes int) (State, error) {
	return r.do(ctx, request{cmd: cmdSetDurations, focusMinutes: focusMinutes, breakMinutes: breakMinutes})
}

// Snapshot returns the current state.
func (r *Runner) Snapshot(ctx context.Context) (State, error) {
	return r.do(ctx, request{cmd: cmdSnapshot})
}

func (r *Runner) do(ctx context.Context, req request) (State, error) {
	req.reply = make(chan result, 1)
	select {
	case r.cmdChan <- req:
	case <-ctx.Done():
		return State{}, ctx.Err()
	case <-r.ctx.Done():
		return State{}, fmt.Errorf("timer runner stopped")
	}
	select {
	case res := <-req.reply:
		return res.state, res.err
	case <-ctx.Done():
		return State{}, ctx.Err()
	}
}

func (r *Runner) runLoop() {
	defer close(r.done)
	defer r.closeSubscribers()
	defer r.stopTicker()

	r.publish()
	for {
		var tickC <-chan time.Time
		if r.ticker != nil {
			tickC = r.ticker.C
		}

		select {
		case <-r.ctx.Done():
			r.log.Debug("Timer runner stopped")
			return

		case req := <-r.cmdChan:
			before := r.machine.State()
			err := r.handle(req)
			after := r.machine.State()
			req.reply <- result{state: after, err: err}
			if after != before {
				r.publish()
			}

		case <-tickC:
			before := r.machine.State().Phase
			if r.machine.Tick(r.clock.Now()) {
				if after := r.machine.State().Phase; after != before {
					r.log.WithFields(logrus.Fields{"from": before, "to": after}).Info("Phase changed")
				}
				r.publish()
			}
		}
		r.syncTicker()
	}
}

func (r *Runner) handle(req request) error {
	now := r.clock.Now()
	switch req.cmd {
	case CmdStartFocus:
		return r.machine.StartFocus(now)
	case CmdPauseFocus:
		return r.machine.PauseFocus()
	case CmdStopFocus:
		rec, err := r.machine.StopFocus(now)
		if err == nil {
			r.record(rec)
		}
		return err
	case CmdStartBreak:
		return r.machine.StartBreak(now)
	case CmdPauseBreak:
		return r.machine.PauseBreak()
	case CmdFinishSession:
		rec, err := r.machine.FinishSession(now)
		if err == nil {
			r.record(rec)
		}
		return err
	case CmdReset:
		return r.machine.Reset()
	case cmdSetDurations:
		return r.machine.SetDurations(req.focusMinutes, req.breakMinutes)
	case cmdSnapshot:
		return nil
	default:
		return fmt.Errorf("unknown timer command %q", req.cmd)
	}
}

func (r *Runner) record(rec session.Record) {
	r.log.WithFields(logrus.Fields{
		"focus": rec.FocusDuration,
		"break": rec.BreakDuration,
		"date":  rec.Date,
	}).Info("Session finalized")
	if r.recorder == nil {
		return
	}
	if err := r.recorder.Record(rec); err != nil {
		r.log.WithError(err).Error("Failed to record session")
	}
}

// syncTicker keeps the tick source alive only while the machine runs.
func (r *Runner) syncTicker() {
	running := r.machine.State().Running
	switch {
	case running && r.ticker == nil:
		r.ticker = time.NewTicker(r.interval)
	case !running && r.ticker != nil:
		r.stopTicker()
	}
}

func (r *Runner) stopTicker() {
	if r.ticker != nil {
		r.ticker.Stop()
		r.ticker = nil
	}
}

func (r *Runner) publish() {
	state := r.machine.State()
	r.subsMu.Lock()
	defer r.subsMu.Unlock()
	for _, ch := range r.subs {
		select {
		case ch <- state:
		default:
		}
	}
}

func (r *Runner) closeSubscribers() {
	r.subsMu.Lock()
	defer r.subsMu.Unlock()
	for _, ch := range r.subs {
		close(ch)
	}
	r.subs = nil
	r.subsClosed = true
}
