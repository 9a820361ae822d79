package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/hlog"
	"github.com/spf13/cobra"

	"self-screening-bot/internal/config"
	"self-screening-bot/internal/platform/log"
	"self-screening-bot/internal/platform/telegram"
	"self-screening-bot/internal/provider"
	"self-screening-bot/internal/report"
	"self-screening-bot/internal/screening"
)

const shutdownTimeout = 15 * time.Second

var runMigrations bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the self-screening webhooks",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().BoolVar(&runMigrations, "migrate", true, "apply database migrations before serving")
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context) error {
	logger := log.FromCtx(ctx)

	// 1. Infrastructure
	users, closeUsers, err := openUsers(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeUsers()

	if runMigrations && cfg.StorageBackend == config.StoragePostgres {
		if err := migrateUp(ctx, cfg); err != nil {
			return err
		}
	}

	// 2. Clients
	var alerts report.AlertSender
	if cfg.Telegram.Enabled() {
		alerts = telegram.NewClient(cfg.Telegram.Token, telegram.DefaultBaseURL)
	} else {
		logger.Warn().Msg("TELEGRAM_TOKEN or TELEGRAM_ALERT_CHAT_ID not set, errors will only be logged")
	}
	reporter := report.NewReporter(alerts, cfg.Telegram.AlertChatID, serviceName)
	defer reporter.Wait()

	inference := provider.NewEndlessMedicalClient(cfg.EndlessMedical)
	riskZones := provider.NewNovelCOVIDClient(cfg.NovelCOVID)

	// 3. Services
	svc := screening.NewService(users, riskZones, inference, reporter, screening.Options{
		Threshold:         cfg.OutcomeThreshold,
		SkipRiskQuestion:  cfg.Screening.SkipRiskQuestion,
		SeekAttentionTask: screening.Task(cfg.Screening.SeekAttentionTask),
	})
	handler := screening.NewHandler(svc, reporter)

	// 4. Router
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(*logger))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	screening.RegisterRoutes(r, handler)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
