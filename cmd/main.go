package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"mediabot/internal/classifier"
	"mediabot/internal/config"
	"mediabot/internal/dispatcher"
	"mediabot/internal/extractor"
	"mediabot/internal/handlers"
	"mediabot/internal/journal"
	"mediabot/internal/logger"
	"mediabot/internal/router"
	"mediabot/internal/service"
	"mediabot/internal/session"
	"mediabot/internal/telegram"
	"mediabot/internal/utils"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "mediabot",
		Short:         "Telegram bot that downloads videos from supported platforms",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return err
			}

			return run(cmd.Context(), cfg)
		},
	}

	root.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to env file")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	})

	return root
}

func run(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}

	log := logger.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	if err := utils.EnsureDir(cfg.Download.Path); err != nil {
		log.Error("failed to create download dir", slog.String("error", err.Error()))
		return err
	}

	var (
		recorder service.Recorder
		totals   service.TotalsReader
		history  dispatcher.RunHistory
	)

	if cfg.Storage.SQLitePath != "" {
		j, err := journal.Open(cfg.Storage.SQLitePath)
		if err != nil {
			log.Error("failed to open journal", slog.String("path", cfg.Storage.SQLitePath), slog.String("error", err.Error()))
			return err
		}
		defer j.Close()

		recorder, totals, history = j, j, j
	} else {
		log.Info("journal disabled")
	}

	cls := classifier.New(cfg.Download.SupportedDomains)

	ext := extractor.New(extractor.Settings{
		DownloadDir:   cfg.Download.Path,
		CookieFile:    cfg.Download.CookieFile,
		BinaryPath:    cfg.Download.YtDlpPath,
		SocketTimeout: cfg.Download.SocketTimeout,
		MaxFileSize:   cfg.Limits.MaxFileSizeBytes(),
	}, cls, log)

	s := service.NewService(cfg, ext, recorder, log)

	store := session.NewStore(cls, cfg.Limits.MaxBulkItems, cfg.DefaultQuality())
	refs := session.NewRefs(cfg.Sessions.RefTTL, cfg.Sessions.RefCapacity)

	bot, err := telegram.New(cfg.Telegram.Token, log)
	if err != nil {
		log.Error("failed to start telegram bot", slog.String("error", err.Error()))
		return err
	}

	d := dispatcher.New(dispatcher.Options{
		Messenger:    bot,
		Engine:       s,
		Sessions:     store,
		Refs:         refs,
		Classifier:   cls,
		History:      history,
		DefaultCount: cfg.Limits.DefaultChannelCount,
		Log:          log,
	})

	h := handlers.NewHandler(service.Stats{Engine: s, Sessions: store, Journal: totals}, log)

	webhook := cfg.Telegram.WebhookURL != ""
	if webhook {
		if err := bot.SetWebhook(cfg.Telegram.WebhookEndpoint()); err != nil {
			log.Error("failed to register webhook", slog.String("error", err.Error()))
			return err
		}
		h.WithWebhook(ctx, cfg.Telegram.WebhookRoute(), bot, d)
	}

	r := router.NewRouter(h)

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	log.Info("start server", slog.String("host", cfg.Server.Host), slog.String("port", cfg.Server.Port), slog.Bool("webhook", webhook))

	srvErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
	}()

	if !webhook {
		go func() {
			if err := bot.Poll(ctx, cfg.Telegram.PollTimeout, d.Dispatch); err != nil {
				srvErr <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
		log.Info("received shutdown signal")
	case err := <-srvErr:
		log.Error("failed to serve", slog.String("error", err.Error()))
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Info("failed to stop server", slog.String("error", err.Error()))
	}

	d.Wait()
	log.Info("stopped")

	return nil
}
