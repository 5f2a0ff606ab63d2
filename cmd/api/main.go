package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/chibo-dx/roster-api/internal/adapters/httpapi"
	"github.com/chibo-dx/roster-api/internal/platform/auth/tokens"
	"github.com/chibo-dx/roster-api/internal/platform/bootstrap"
	platformclock "github.com/chibo-dx/roster-api/internal/platform/clock"
	"github.com/chibo-dx/roster-api/internal/platform/config"
	"github.com/chibo-dx/roster-api/internal/platform/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logging.New(logging.Options{})
		boot.Fatal().Err(err).Msg("invalid config")
	}
	log := logging.New(logging.Options{Dev: cfg.IsDev()})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("api exited")
	}
}

func run(cfg config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Auth configuration:
	// - Production: HS256 bearer tokens checked against JWT_SECRET/JWT_ISSUER/JWT_AUDIENCE
	// - Local dev: AUTH_MODE=dev trusts X-Debug-Subject
	var authMW func(http.Handler) http.Handler
	switch cfg.Auth.Mode {
	case config.AuthModeDev:
		log.Warn().Str("default_subject", cfg.Auth.DevSubject).Msg("dev auth enabled; do not use in production")
		authMW = httpapi.NewDevAuthMiddleware(cfg.Auth.DevSubject)
	default:
		authMW = httpapi.NewAuthMiddleware(tokens.NewVerifier(cfg.Auth, nil))
	}

	st, err := bootstrap.OpenStorage(ctx, cfg.Storage, cfg.Auth.Issuer, log)
	if err != nil {
		return err
	}
	defer st.Close()

	gen, err := bootstrap.Advisor(ctx, cfg.Advisor)
	if err != nil {
		return err
	}
	if gen == nil {
		log.Info().Msg("GENAI_API_KEY not set; advisor disabled")
	}

	clk := platformclock.NewSystemClock()
	svc := bootstrap.NewServices(st, clk, log, bootstrap.ServiceOptions{
		SinglePending: cfg.SinglePending,
		Generator:     gen,
	})
	if cfg.SeedPath != "" {
		if _, _, err := bootstrap.SeedIfEmpty(ctx, svc.Seed, cfg.SeedPath, log); err != nil {
			return err
		}
	}

	go bootstrap.PurgeIdempotencyKeys(ctx, st.Idempotency, cfg.IdempotencyTTL, time.Hour, clk, log)

	api := httpapi.NewServer(svc.HTTP(), st.Idempotency, log)
	handler := httpapi.NewRouter(api, httpapi.RouterOptions{AuthMiddleware: authMW, Logger: log})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("storage", st.Backend).
			Str("auth", cfg.Auth.Mode).
			Msg("api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
