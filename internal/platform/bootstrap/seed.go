package bootstrap

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/chibo-dx/roster-api/internal/adapters/gemini"
	"github.com/chibo-dx/roster-api/internal/app/seed"
	"github.com/chibo-dx/roster-api/internal/platform/config"
	advisorport "github.com/chibo-dx/roster-api/internal/ports/out/advisor"
)

// SeedIfEmpty loads the seed file at path into an empty roster. A populated roster is
// left alone and reported as applied=false.
func SeedIfEmpty(ctx context.Context, svc *seed.Service, path string, log zerolog.Logger) (seed.Result, bool, error) {
	f, err := seed.LoadFile(path)
	if err != nil {
		return seed.Result{}, false, err
	}
	res, err := svc.Apply(ctx, f)
	if errors.Is(err, seed.ErrRosterNotEmpty) {
		log.Info().Str("path", path).Msg("roster already populated; seed skipped")
		return seed.Result{}, false, nil
	}
	if err != nil {
		return res, false, err
	}
	log.Info().
		Str("path", path).
		Int("members", res.Members).
		Int("meetings", res.Meetings).
		Int("fees", res.Fees).
		Msg("roster seeded")
	return res, true, nil
}

// Advisor returns the configured text generator, or nil when no API key is set.
func Advisor(ctx context.Context, cfg config.AdvisorConfig) (advisorport.Generator, error) {
	if cfg.APIKey == "" {
		return nil, nil
	}
	g, err := gemini.New(ctx, cfg.APIKey, cfg.Model, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return g, nil
}
