package main

import (
	"fmt"
	"os"

	"github.com/sevlyar/go-daemon"
	"github.com/spf13/cobra"

	"pomotrack/internal/app"
	"pomotrack/internal/config"
	"pomotrack/internal/logging"
)

var (
	configPath string
	logPath    string
	detach     bool
)

var rootCmd = &cobra.Command{
	Use:   "pomotrack",
	Short: "Pomodoro session backend",
	Long: `Runs the HTTP API that stores Pomodoro session records in SQLite and serves
analytics to pomotrack-cli. Configuration is read from ./config.yaml,
~/.config/pomotrack/config.yaml or /etc/pomotrack/config.yaml.`,
	SilenceUsage: true,
	RunE:         run,
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if logPath != "" {
		cfg.Log.File = logPath
	}

	if detach {
		dctx := &daemon.Context{
			PidFileName: cfg.Server.PidFile,
			PidFilePerm: 0o644,
			WorkDir:     "./",
			Umask:       0o027,
		}
		child, err := dctx.Reborn()
		if err != nil {
			return fmt.Errorf("failed to daemonize: %w", err)
		}
		if child != nil {
			fmt.Printf("pomotrack started in background (pid %d)\n", child.Pid)
			return nil
		}
		defer dctx.Release()
	}

	logFile, err := logging.Setup(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting up file logging: %v. Logging to stderr instead.\n", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}
	log := logging.NewLogger("main")

	application, err := app.NewApp(cfg)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	if err := application.Run(); err != nil {
		return fmt.Errorf("application exited with error: %w", err)
	}

	log.Info("pomotrack finished successfully")
	return nil
}

func main() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (e.g., config.yaml)")
	rootCmd.Flags().StringVar(&logPath, "log", "", "Path to log file (optional, defaults to stderr)")
	rootCmd.Flags().BoolVarP(&detach, "daemon", "d", false, "Detach and run in the background")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
