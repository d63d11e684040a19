package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/go-telegram/bot"
	"github.com/samber/do/v2"
	slogmulti "github.com/samber/slog-multi"
	"github.com/spf13/cobra"

	"github.com/reshetovitsme/channel-autoposter/internal/di"
	channelRepo "github.com/reshetovitsme/channel-autoposter/internal/modules/channel/repository"
	posting "github.com/reshetovitsme/channel-autoposter/internal/modules/posting/service"
	"github.com/reshetovitsme/channel-autoposter/internal/shared/config"
	httpServer "github.com/reshetovitsme/channel-autoposter/internal/transport/http"
	"github.com/reshetovitsme/channel-autoposter/internal/transport/telegram"
)

// Set by ldflags.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "autoposter",
		Short:         "Posts prepared files to Telegram channels on a schedule",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.PersistentFlags().StringP("config", "c", "", "Path to configuration file")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler, the bot and the HTTP API",
		RunE:  runServe,
	}
	root.AddCommand(serve, cycleCmd(), channelsCmd(), versionCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("autoposter %s (commit: %s)\n", version, commit)
		},
	}
}

func cycleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cycle <channel_id>",
		Short: "Run one posting cycle for a channel and exit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid channel id %q", args[0])
			}
			injector, err := setup(cmd)
			if err != nil {
				return err
			}
			defer shutdown(injector)

			scheduler := do.MustInvoke[*posting.Scheduler](injector)
			result, err := scheduler.RunChannel(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Printf("Cycle finished: %s\n", result)
			return nil
		},
	}
}

func channelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "channels",
		Short: "List channels",
		RunE: func(cmd *cobra.Command, _ []string) error {
			injector, err := setup(cmd)
			if err != nil {
				return err
			}
			defer shutdown(injector)

			channels, err := do.MustInvoke[channelRepo.Repository](injector).GetAll(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCHAT\tINTERVAL\tMODE\tACTIVE")
			for _, ch := range channels {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%t\n", ch.ID, ch.Name, ch.ChatID, ch.Every(), ch.ParseMode, ch.Active)
			}
			return w.Flush()
		},
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	injector, err := setup(cmd)
	if err != nil {
		return err
	}
	defer shutdown(injector)

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := do.MustInvoke[*config.Config](injector)
	scheduler := do.MustInvoke[*posting.Scheduler](injector)
	server := do.MustInvoke[*httpServer.Server](injector)
	b := do.MustInvoke[*bot.Bot](injector)
	_ = do.MustInvoke[*telegram.Handler](injector) // registers bot commands

	n, err := scheduler.RunStartupScan(ctx)
	if err != nil {
		return err
	}
	scheduler.Start()

	go b.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	slog.Info("Application started", "port", cfg.HTTPPort, "active_channels", n, "env", cfg.AppEnv)
	slog.Info("Press Ctrl+C to stop")

	select {
	case <-ctx.Done():
		slog.Info("Shutting down...")
	case err = <-errCh:
	}

	// ctx is already cancelled here, give the services a fresh one.
	if stopErr := di.Stop(context.WithoutCancel(ctx), scheduler, server, b); stopErr != nil {
		slog.Error("Error stopping services", "error", stopErr)
	}
	return err
}

// setup builds the container and switches logging to the configured level and sinks.
func setup(cmd *cobra.Command) (do.Injector, error) {
	var files []string
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		files = append(files, path)
	}

	injector, err := di.Setup(files...)
	if err != nil {
		return nil, err
	}
	cfg, err := do.Invoke[*config.Config](injector)
	if err != nil {
		return nil, err
	}
	if err := configureLogging(cfg); err != nil {
		return nil, err
	}
	return injector, nil
}

func shutdown(injector do.Injector) {
	start := time.Now()
	if err := di.Shutdown(injector); err != nil {
		slog.Error("Error during shutdown", "error", err)
		return
	}
	slog.Debug("Shutdown complete", "took", time.Since(start))
}

// configureLogging fans logs out to a text handler on stdout and a JSON
// handler for errors on stderr, plus an optional JSON log file.
func configureLogging(cfg *config.Config) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	if cfg.AppEnv == config.AppEnvDevelopment || cfg.AppEnv == config.AppEnvLocal {
		level = min(level, slog.LevelDebug)
	}

	handlers := []slog.Handler{
		slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}),
		slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}),
	}

	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file %s: %w", cfg.LogFile, err)
		}
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
	}

	slog.SetDefault(slog.New(slogmulti.Fanout(handlers...)))
	return nil
}
