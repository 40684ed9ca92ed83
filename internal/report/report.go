// Package report renders the analytics dashboard as a standalone HTML page.
package report

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"pomotrack/internal/analytics"
	"pomotrack/internal/session"
)

//go:embed template.html
var pageTemplate string

var tmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"clock":   clock,
	"barPct":  barPct,
	"minutes": func(v float64) string { return fmt.Sprintf("%.2f", v) },
}).Parse(pageTemplate))

// Data is everything the page shows.
type Data struct {
	GeneratedAt string
	Dashboard   analytics.Dashboard
	Recent      []session.Record
	DailyMax    float64
	MonthlyMax  float64
	LoadError   string
}

// NewData prepares the page for a dashboard. At most limit recent sessions
// are listed; loadErr, when set, replaces the charts with a failure notice.
func NewData(d analytics.Dashboard, recent []session.Record, limit int, now time.Time, loadErr error) Data {
	if limit >= 0 && len(recent) > limit {
		recent = recent[:limit]
	}
	data := Data{
		GeneratedAt: now.Format("2006-01-02 15:04:05"),
		Dashboard:   d,
		Recent:      recent,
		DailyMax:    maxFocus(d.Daily),
		MonthlyMax:  maxFocus(d.Monthly),
	}
	if loadErr != nil {
		data.LoadError = "Failed to load analytics from the database."
	}
	return data
}

func Render(w io.Writer, data Data) error {
	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}
	return nil
}

// WriteFile renders the page into path, creating parent directories.
func WriteFile(path string, data Data) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file (%s): %w", path, err)
	}
	if err := Render(f, data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// OpenBrowser opens a local file in the default browser.
func OpenBrowser(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	url := "file://" + abs

	var cmd string
	var args []string
	switch runtime.GOOS {
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start"}
	case "darwin":
		cmd = "open"
	default:
		cmd = "xdg-open"
	}
	args = append(args, url)
	return exec.Command(cmd, args...).Start()
}

func maxFocus(points []analytics.Point) float64 {
	var m float64
	for _, p := range points {
		if p.FocusMinutes > m {
			m = p.FocusMinutes
		}
	}
	return m
}

func barPct(v, top float64) string {
	if top <= 0 {
		return "0"
	}
	return fmt.Sprintf("%.1f", v/top*100)
}

// clock renders seconds as "1h 05m 10s" style text.
func clock(seconds int) string {
	d := time.Duration(seconds) * time.Second
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	if h > 0 {
		return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
	}
	return fmt.Sprintf("%dm %02ds", m, s)
}
