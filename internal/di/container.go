package di

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/samber/do/v2"
	"github.com/samber/oops"

	channelRepo "github.com/reshetovitsme/channel-autoposter/internal/modules/channel/repository"
	channelService "github.com/reshetovitsme/channel-autoposter/internal/modules/channel/service"
	feedService "github.com/reshetovitsme/channel-autoposter/internal/modules/feed/service"
	"github.com/reshetovitsme/channel-autoposter/internal/modules/files"
	"github.com/reshetovitsme/channel-autoposter/internal/modules/media"
	postRepo "github.com/reshetovitsme/channel-autoposter/internal/modules/post/repository"
	postService "github.com/reshetovitsme/channel-autoposter/internal/modules/post/service"
	posting "github.com/reshetovitsme/channel-autoposter/internal/modules/posting/service"
	userRepo "github.com/reshetovitsme/channel-autoposter/internal/modules/user/repository"
	userService "github.com/reshetovitsme/channel-autoposter/internal/modules/user/service"
	"github.com/reshetovitsme/channel-autoposter/internal/shared/config"
	"github.com/reshetovitsme/channel-autoposter/internal/shared/database"
	"github.com/reshetovitsme/channel-autoposter/internal/shared/errors"
	"github.com/reshetovitsme/channel-autoposter/internal/shared/metrics"
	httpServer "github.com/reshetovitsme/channel-autoposter/internal/transport/http"
	"github.com/reshetovitsme/channel-autoposter/internal/transport/telegram"
)

const shutdownTimeout = 30 * time.Second

// Setup initializes the dependency injection container. configFiles
// overrides the default config file candidates.
func Setup(configFiles ...string) (do.Injector, error) {
	injector := do.New()

	// Register Config
	do.Provide(injector, func(i do.Injector) (*config.Config, error) {
		cfg, err := config.Load(configFiles...)
		if err != nil {
			return nil, oops.With("context", "failed to load config").Wrap(err)
		}
		return cfg, nil
	})

	// Register Database
	do.Provide(injector, func(i do.Injector) (*sqlx.DB, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return database.Open(context.Background(), cfg.DatabasePath)
	})

	// Register Metrics
	do.Provide(injector, func(i do.Injector) (*prometheus.Registry, error) {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		return reg, nil
	})
	do.Provide(injector, func(i do.Injector) (*metrics.Metrics, error) {
		return metrics.New(do.MustInvoke[*prometheus.Registry](i)), nil
	})

	// Register File Store and Compressor
	do.Provide(injector, func(i do.Injector) (*files.Store, error) {
		cfg := do.MustInvoke[*config.Config](i)
		store, err := files.NewStore(cfg.BaseDir, slog.Default(), do.MustInvoke[*metrics.Metrics](i))
		if err != nil {
			return nil, oops.With("base_dir", cfg.BaseDir, "context", "failed to initialize file store").Wrap(err)
		}
		return store, nil
	})
	do.Provide(injector, func(i do.Injector) (*media.Compressor, error) {
		return media.NewCompressor(slog.Default(), do.MustInvoke[*metrics.Metrics](i)), nil
	})

	// Register Repositories
	do.Provide(injector, func(i do.Injector) (channelRepo.Repository, error) {
		return channelRepo.NewSQLiteStorage(do.MustInvoke[*sqlx.DB](i)), nil
	})
	do.Provide(injector, func(i do.Injector) (postRepo.Repository, error) {
		return postRepo.NewSQLiteStorage(do.MustInvoke[*sqlx.DB](i)), nil
	})
	do.Provide(injector, func(i do.Injector) (userRepo.Repository, error) {
		return userRepo.NewSQLiteStorage(do.MustInvoke[*sqlx.DB](i)), nil
	})

	// Register Post Service
	do.Provide(injector, func(i do.Injector) (*postService.Service, error) {
		return postService.New(do.MustInvoke[postRepo.Repository](i)), nil
	})

	// Register User Service, seeding the HTTP admin account
	do.Provide(injector, func(i do.Injector) (*userService.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		svc := userService.New(do.MustInvoke[userRepo.Repository](i))
		if cfg.AdminUsername != "" {
			if err := svc.EnsureAdmin(context.Background(), cfg.AdminUsername, cfg.AdminPassword); err != nil {
				return nil, oops.With("context", "failed to seed admin user").Wrap(err)
			}
		}
		return svc, nil
	})

	// Register Bot
	do.Provide(injector, func(i do.Injector) (*bot.Bot, error) {
		cfg := do.MustInvoke[*config.Config](i)

		opts := []bot.Option{
			bot.WithDefaultHandler(telegram.HandleUpdate),
		}
		if cfg.TelegramAPIURL != "" {
			opts = append(opts, bot.WithServerURL(cfg.TelegramAPIURL))
		}

		b, err := bot.New(cfg.TelegramBotToken, opts...)
		if err != nil {
			return nil, oops.With("context", "failed to create telegram bot").Wrap(err)
		}
		return b, nil
	})

	// Register Telegram Sender
	do.Provide(injector, func(i do.Injector) (*telegram.Sender, error) {
		return telegram.NewSender(do.MustInvoke[*bot.Bot](i)), nil
	})

	// Register Publisher and Scheduler
	do.Provide(injector, func(i do.Injector) (*posting.Publisher, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return posting.NewPublisher(
			posting.PublisherConfig{
				MaxImages:      cfg.MaxImages,
				ImageSizeLimit: cfg.ImageSizeLimit,
				KeepExcess:     cfg.KeepExcessImages,
			},
			do.MustInvoke[*telegram.Sender](i),
			do.MustInvoke[*files.Store](i),
			do.MustInvoke[*media.Compressor](i),
			do.MustInvoke[*postService.Service](i),
			slog.Default(),
			do.MustInvoke[*metrics.Metrics](i),
		), nil
	})
	do.Provide(injector, func(i do.Injector) (*posting.Scheduler, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return posting.NewScheduler(
			posting.SchedulerConfig{GroupsPerCycle: cfg.GroupsPerCycle},
			do.MustInvoke[channelRepo.Repository](i),
			do.MustInvoke[*files.Store](i),
			do.MustInvoke[*posting.Publisher](i),
			slog.Default(),
			do.MustInvoke[*metrics.Metrics](i),
		), nil
	})

	// Register Channel Service
	do.Provide(injector, func(i do.Injector) (*channelService.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return channelService.New(
			do.MustInvoke[channelRepo.Repository](i),
			do.MustInvoke[*files.Store](i),
			do.MustInvoke[*posting.Scheduler](i),
			cfg.DefaultInterval,
			slog.Default(),
		), nil
	})

	// Register Feed Service
	do.Provide(injector, func(i do.Injector) (*feedService.Service, error) {
		return feedService.New(
			do.MustInvoke[*channelService.Service](i),
			do.MustInvoke[*postService.Service](i),
		), nil
	})

	// Register Telegram Handler and its commands
	do.Provide(injector, func(i do.Injector) (*telegram.Handler, error) {
		cfg := do.MustInvoke[*config.Config](i)
		h := telegram.New(
			do.MustInvoke[*channelService.Service](i),
			do.MustInvoke[*postService.Service](i),
			do.MustInvoke[*userService.Service](i),
			cfg.AllowedUsers,
		)
		h.RegisterCommands(do.MustInvoke[*bot.Bot](i))
		return h, nil
	})

	// Register HTTP Server
	do.Provide(injector, func(i do.Injector) (*httpServer.Server, error) {
		cfg := do.MustInvoke[*config.Config](i)
		var auth httpServer.Authenticator
		if cfg.AdminUsername != "" {
			auth = do.MustInvoke[*userService.Service](i)
		}
		server := httpServer.New(
			cfg,
			do.MustInvoke[*channelService.Service](i),
			do.MustInvoke[*feedService.Service](i),
			auth,
			do.MustInvoke[*prometheus.Registry](i),
		)
		server.SetLogger(slog.Default())
		return server, nil
	})

	return injector, nil
}

// Shutdown runs the debug teardown when enabled and closes the database.
// Long-running services are stopped by their owner before this is called.
func Shutdown(injector do.Injector) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error

	cfg, err := do.Invoke[*config.Config](injector)
	if err == nil && cfg.DebugTeardown {
		errs = append(errs, teardown(ctx, injector))
	}

	if db, err := do.Invoke[*sqlx.DB](injector); err == nil && db != nil {
		if err := db.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Stop stops the scheduler, the HTTP server and the bot, in that order.
func Stop(ctx context.Context, scheduler *posting.Scheduler, server *httpServer.Server, b *bot.Bot) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	var errs []error
	if err := scheduler.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := server.Shutdown(ctx); err != nil {
		errs = append(errs, oops.With("context", "failed to shut down http server").Wrap(err))
	}
	if _, err := b.Close(ctx); err != nil {
		slog.Debug("Bot close failed", "error", err)
	}
	return errors.Join(errs...)
}

// teardown wipes the database and every channel tree.
func teardown(ctx context.Context, injector do.Injector) error {
	slog.Warn("Debug teardown: dropping database and channel directories")

	db, err := do.Invoke[*sqlx.DB](injector)
	if err != nil {
		return err
	}
	if err := database.Drop(ctx, db); err != nil {
		return err
	}

	store, err := do.Invoke[*files.Store](injector)
	if err != nil {
		return err
	}
	return store.Clear()
}
