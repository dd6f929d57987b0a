package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/ashureev/chorechat/internal/metrics"
)

type instrumented struct {
	next    Client
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Instrument wraps c so every call is timed, counted and logged.
func Instrument(c Client, m *metrics.Metrics, logger *slog.Logger) Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &instrumented{next: c, metrics: m, logger: logger}
}

func (i *instrumented) Name() string { return i.next.Name() }

func (i *instrumented) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	start := time.Now()
	out, err := i.next.Complete(ctx, prompt, opts)
	elapsed := time.Since(start)

	i.metrics.ObserveLLMCall(opts.Purpose, i.next.Name(), elapsed, err)
	if err != nil {
		i.logger.Warn("language model call failed",
			"component", opts.Purpose,
			"provider", i.next.Name(),
			"duration", elapsed,
			"error", err,
		)
		return "", err
	}
	i.logger.Debug("language model call",
		"component", opts.Purpose,
		"provider", i.next.Name(),
		"duration", elapsed,
		"prompt_len", len(prompt),
		"response_len", len(out),
	)
	return out, nil
}
