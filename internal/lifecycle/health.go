package lifecycle

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pptbot/pptbot/internal/health"
)

// HealthChecker exposes liveness and readiness probes.
type HealthChecker interface {
	Liveness(ctx context.Context) error
	Readiness(ctx context.Context) error
}

// Probes implements HealthChecker over the aggregated component checker.
// Liveness only confirms the process is serving; readiness requires every
// registered dependency to respond.
type Probes struct {
	checker *health.Checker
	log     *slog.Logger
}

// NewProbes creates a new Probes instance.
func NewProbes(checker *health.Checker, log *slog.Logger) *Probes {
	if log == nil {
		log = slog.Default()
	}
	return &Probes{checker: checker, log: log}
}

// Liveness reports success as long as the process can answer.
func (p *Probes) Liveness(ctx context.Context) error {
	if p.log != nil {
		p.log.Debug("liveness probe called")
	}
	return nil
}

// Readiness fails when any dependency check does.
func (p *Probes) Readiness(ctx context.Context) error {
	if p.checker == nil {
		return nil
	}

	for name, status := range p.checker.Check(ctx) {
		if status != "OK" {
			return fmt.Errorf("component %s not ready: %s", name, status)
		}
	}

	return nil
}
