package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"pomotrack/internal/analytics"
	"pomotrack/internal/logging"
)

const (
	loadFailedMessage = "Failed to load analytics from the database."
	chartWidth        = 30
)

var (
	accent = lipgloss.Color("#E74C3C")
	subtle = lipgloss.Color("#777777")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(accent).MarginBottom(1)
	cardStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(subtle).
			Padding(0, 1).
			Width(18).
			Align(lipgloss.Center)
	valueStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	labelStyle = lipgloss.NewStyle().Foreground(subtle)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555"))
	barStyle   = lipgloss.NewStyle().Foreground(accent)
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show focus analytics from the backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Client.RequestTimeout())
		defer cancel()

		d, err := newClient().Analytics(ctx)
		if err != nil {
			logging.NewLogger("cli").WithError(err).Debug("Analytics request failed")
			fmt.Println(errorStyle.Render(loadFailedMessage))
			d = analytics.Build(nil, time.Now())
		}
		fmt.Println(renderStats(d))
		return nil
	},
}

func renderStats(d analytics.Dashboard) string {
	s := d.Summary
	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		card(fmt.Sprintf("%.2f", s.TotalFocusMinutes), "focus min"),
		card(fmt.Sprintf("%.2f", s.TotalBreakMinutes), "break min"),
		card(fmt.Sprintf("%d", s.TotalSessions), "sessions"),
		card(fmt.Sprintf("%.2f", s.AverageFocusMinutes), "avg focus min"),
		card(fmt.Sprintf("%.2f", s.TodayFocusMinutes), "today min"),
	)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Your Analytics"))
	b.WriteString("\n")
	b.WriteString(cards)
	b.WriteString("\n\n")
	b.WriteString(chart("Last 7 Days", d.Daily))
	b.WriteString("\n")
	b.WriteString(chart("Last 12 Months", d.Monthly))
	return b.String()
}

func card(value, label string) string {
	return cardStyle.Render(valueStyle.Render(value) + "\n" + labelStyle.Render(label))
}

func chart(title string, points []analytics.Point) string {
	var top float64
	for _, p := range points {
		if p.FocusMinutes > top {
			top = p.FocusMinutes
		}
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(title))
	b.WriteString("\n")
	for _, p := range points {
		width := 0
		if top > 0 {
			width = int(p.FocusMinutes / top * chartWidth)
		}
		fmt.Fprintf(&b, "%-10s %s%s %s\n",
			p.Label,
			barStyle.Render(strings.Repeat("█", width)),
			strings.Repeat(" ", chartWidth-width),
			labelStyle.Render(fmt.Sprintf("%.2f min", p.FocusMinutes)))
	}
	return b.String()
}
