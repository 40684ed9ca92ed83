package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"pomotrack/internal/recorder"
	"pomotrack/internal/session"
	"pomotrack/internal/storage/local"
	"pomotrack/internal/timer"
)

const noSessionsMessage = "No sessions yet. Start your first Pomodoro!"

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List, add and clear recorded sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions stored in the backend (newest first)",
	RunE: func(cmd *cobra.Command, args []string) error {
		date, _ := cmd.Flags().GetString("date")
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")

		c := newClient()
		ctx := context.Background()

		var (
			records []session.Record
			err     error
		)
		switch {
		case date != "":
			records, err = c.ListSessionsByDate(ctx, date)
		case from != "" || to != "":
			if from == "" || to == "" {
				return fmt.Errorf("--from and --to must be given together")
			}
			records, err = c.ListSessionsInRange(ctx, from, to)
		default:
			records, err = c.ListSessions(ctx)
		}
		if err != nil {
			return err
		}
		printSessions(records)
		return nil
	},
}

var sessionsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a session manually (e.g. --focus 25m --break 5m)",
	RunE: func(cmd *cobra.Command, args []string) error {
		focus, _ := cmd.Flags().GetDuration("focus")
		brk, _ := cmd.Flags().GetDuration("break")
		date, _ := cmd.Flags().GetString("date")

		rec := session.NewRecord(time.Now(), int(focus/time.Second), int(brk/time.Second))
		if date != "" {
			rec.Date = date
		}
		if err := rec.Validate(); err != nil {
			return err
		}

		stored, err := newClient().CreateSession(context.Background(), rec)
		if err != nil {
			return err
		}
		fmt.Printf("Session %s saved for %s (focus %s, break %s)\n", stored.ID, stored.Date,
			timer.FormatClock(stored.FocusDuration), timer.FormatClock(stored.BreakDuration))
		return nil
	},
}

var sessionsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every session from the backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes && !confirm("Delete ALL sessions from the backend? This cannot be undone.") {
			fmt.Println("Aborted.")
			return nil
		}
		n, err := newClient().DeleteAllSessions(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("All sessions deleted (%d removed)\n", n)
		return nil
	},
}

var sessionsLocalCmd = &cobra.Command{
	Use:   "local",
	Short: "Show sessions kept on this machine",
	RunE: func(cmd *cobra.Command, args []string) error {
		wipe, _ := cmd.Flags().GetBool("clear")

		store, err := local.Open(cfg.Client.LocalStorePath)
		if err != nil {
			return err
		}
		rec := recorder.New(store, nil, recorder.Options{})
		if wipe {
			if err := rec.Clear(); err != nil {
				return err
			}
			fmt.Println("Local session list cleared.")
			return nil
		}

		records := rec.Records()
		// Local list is oldest first; show newest first like the backend.
		for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
			records[i], records[j] = records[j], records[i]
		}
		printSessions(records)
		return nil
	},
}

func printSessions(records []session.Record) {
	if len(records) == 0 {
		fmt.Println(noSessionsMessage)
		return
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(subtle)).
		Headers("DATE", "FOCUS", "BREAK", "COMPLETED")
	for _, r := range records {
		t.Row(r.Date, timer.FormatClock(r.FocusDuration), timer.FormatClock(r.BreakDuration),
			r.Timestamp.Local().Format("2006-01-02 15:04"))
	}
	fmt.Println(t.String())
	fmt.Printf("%d session(s)\n", len(records))
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func init() {
	sessionsListCmd.Flags().String("date", "", "Only sessions of this day (YYYY-MM-DD)")
	sessionsListCmd.Flags().String("from", "", "Range start (YYYY-MM-DD, inclusive)")
	sessionsListCmd.Flags().String("to", "", "Range end (YYYY-MM-DD, inclusive)")

	sessionsAddCmd.Flags().Duration("focus", 0, "Focus time, e.g. 25m")
	sessionsAddCmd.Flags().Duration("break", 0, "Break time, e.g. 5m")
	sessionsAddCmd.Flags().String("date", "", "Session date (YYYY-MM-DD, default today)")

	sessionsClearCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")

	sessionsLocalCmd.Flags().Bool("clear", false, "Empty the local session list")

	sessionsCmd.AddCommand(sessionsListCmd, sessionsAddCmd, sessionsClearCmd, sessionsLocalCmd)
}
