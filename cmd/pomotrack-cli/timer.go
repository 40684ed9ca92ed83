package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"pomotrack/internal/logging"
	"pomotrack/internal/recorder"
	"pomotrack/internal/storage/local"
	"pomotrack/internal/timer"
	"pomotrack/internal/tui"
)

var timerCmd = &cobra.Command{
	Use:   "timer",
	Short: "Run the interactive focus/break timer",
	RunE: func(cmd *cobra.Command, args []string) error {
		focus, _ := cmd.Flags().GetInt("focus")
		brk, _ := cmd.Flags().GetInt("break")
		offline, _ := cmd.Flags().GetBool("offline")
		if focus == 0 {
			focus = cfg.Timer.FocusMinutes
		}
		if brk == 0 {
			brk = cfg.Timer.BreakMinutes
		}

		// The screen owns the terminal; logs go to the file or nowhere.
		if cfg.Log.File == "" {
			logging.SetOutput(io.Discard)
		}

		store, err := local.Open(cfg.Client.LocalStorePath)
		if err != nil {
			return err
		}
		var fwd recorder.Forwarder
		if !offline {
			fwd = newClient()
		}
		rec := recorder.New(store, fwd, recorder.Options{ForwardTimeout: cfg.Client.RequestTimeout()})

		runner := timer.NewRunner(timer.NewMachine(focus, brk), rec, timer.Options{
			TickInterval: cfg.Timer.TickInterval(),
		})
		runner.Start()

		screenErr := tui.New(runner, rec.Records).Run()
		runner.Stop()

		done := make(chan struct{})
		go func() {
			rec.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(cfg.Client.RequestTimeout() + time.Second):
			fmt.Println("Warning: some sessions may not have reached the backend.")
		}
		return screenErr
	},
}

func init() {
	timerCmd.Flags().Int("focus", 0, "Focus duration in minutes (default from config)")
	timerCmd.Flags().Int("break", 0, "Break duration in minutes (default from config)")
	timerCmd.Flags().Bool("offline", false, "Keep sessions locally without forwarding them")
}
