package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alexbeattie/cautious-fishstick-only/internal/app"
	"github.com/alexbeattie/cautious-fishstick-only/internal/config"
	"github.com/alexbeattie/cautious-fishstick-only/internal/logger"
	"github.com/alexbeattie/cautious-fishstick-only/internal/metrics"
	"github.com/alexbeattie/cautious-fishstick-only/internal/tui"
)

func main() {
	var configPath, logPath string
	cmd := &cobra.Command{
		Use:          "browse",
		Short:        "Browse the listing feed in the terminal",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			// the terminal belongs to the UI, so logs go to a file
			log, err := logger.New(logger.Config{
				Level:       cfg.Log.Level,
				Format:      "json",
				OutputPaths: []string{logPath},
			})
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			sess, err := app.FromConfig(cfg, log, metrics.New("listings"))
			if err != nil {
				return fmt.Errorf("session: %w", err)
			}
			sess.Start(cmd.Context())
			defer sess.Close()

			m := tui.New(sess, cfg.Feed.Timeout)
			defer m.Close()
			log.Info("browse started", zap.String("session_id", sess.ID))
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file or directory holding config.yaml")
	cmd.Flags().StringVar(&logPath, "log-file", "listings-browse.log", "where to write logs while the UI owns the terminal")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
