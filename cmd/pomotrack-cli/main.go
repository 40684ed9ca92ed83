package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pomotrack/internal/client"
	"pomotrack/internal/config"
	"pomotrack/internal/logging"
)

var (
	configPath string
	logPath    string
	apiURL     string

	cfg     *config.Config
	logFile *os.File
)

var rootCmd = &cobra.Command{
	Use:   "pomotrack-cli",
	Short: "Pomodoro timer and session tracker",
	Long: `An interactive Pomodoro timer with session tracking. Finished sessions are kept
locally and mirrored to the pomotrack backend, which also serves analytics.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if logPath != "" {
			cfg.Log.File = logPath
		}
		if apiURL != "" {
			cfg.Client.APIBaseURL = apiURL
		}
		logFile, err = logging.Setup(cfg.Log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error setting up file logging: %v. Logging to stderr instead.\n", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logFile != nil {
			logFile.Close()
		}
	},
}

func newClient() *client.Client {
	return client.New(cfg.Client.APIBaseURL, cfg.Client.RequestTimeout())
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logPath, "log", "", "Path to log file (optional, defaults to stderr)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "Backend API base URL (default from config)")

	rootCmd.AddCommand(timerCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(healthCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
