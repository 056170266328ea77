package bootstrap

import (
	"log/slog"

	"github.com/target/fitmatch-auth/config"
	"github.com/target/fitmatch-auth/internal/observability/statsd"
)

// BuildMetrics returns the StatsD client for flow metrics. A disabled config
// yields a client that drops everything. Dial failures degrade to that as well.
func BuildMetrics(cfg config.ObservabilityMetricsConfig, logger *slog.Logger) *statsd.Client {
	client, err := statsd.NewClient(statsd.Config{
		Enabled: cfg.IsEnabled(),
		Address: cfg.StatsdAddress,
		Prefix:  cfg.Prefix,
		Logger:  logger,
	})
	if err != nil {
		if logger != nil {
			logger.Warn("statsd unavailable, metrics disabled", "address", cfg.StatsdAddress, "error", err)
		}
		client, _ = statsd.NewClient(statsd.Config{Logger: logger})
	}
	return client
}
