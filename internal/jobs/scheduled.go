package jobs

import (
	"context"
	"log/slog"

	"github.com/forgo/shiftboard/api/internal/model"
)

// Job names, also used in lock keys
const (
	RegularGenerationJob = "regular-generation"
	SignupExpiryJob      = "signup-expiry"
	TokenSweepJob        = "token-sweep"
)

// RegularGenerator creates signups from regular volunteer schedules
type RegularGenerator interface {
	Generate(ctx context.Context, days int) (*model.GenerationReport, error)
}

// SignupExpirer cancels pending and waitlisted signups on started shifts
type SignupExpirer interface {
	ExpireStale(ctx context.Context) (int, error)
}

// TokenSweeper removes expired refresh tokens
type TokenSweeper interface {
	DeleteExpiredTokens(ctx context.Context) error
}

// NewRegularGeneration runs regular signup generation over the default
// horizon
func NewRegularGeneration(cfg ProcessorConfig, gen RegularGenerator) *Processor {
	cfg.Name = RegularGenerationJob
	return NewProcessor(cfg, func(ctx context.Context) error {
		report, err := gen.Generate(ctx, 0)
		if err != nil {
			return err
		}
		slog.Info("regular signups generated",
			slog.Int("shifts_scanned", report.ShiftsScanned),
			slog.Int("created", report.Created),
			slog.Int("waitlisted", report.Waitlisted),
			slog.Int("skipped", report.SkippedExisting+report.SkippedConflict+report.SkippedConsent),
			slog.Int("errors", len(report.Errors)),
		)
		return nil
	})
}

// NewSignupExpiry expires signups that never got a spot before their shift
// started
func NewSignupExpiry(cfg ProcessorConfig, expirer SignupExpirer) *Processor {
	cfg.Name = SignupExpiryJob
	return NewProcessor(cfg, func(ctx context.Context) error {
		n, err := expirer.ExpireStale(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			slog.Info("stale signups expired", slog.Int("count", n))
		}
		return nil
	})
}

// NewTokenSweep deletes expired refresh tokens
func NewTokenSweep(cfg ProcessorConfig, sweeper TokenSweeper) *Processor {
	cfg.Name = TokenSweepJob
	return NewProcessor(cfg, sweeper.DeleteExpiredTokens)
}
