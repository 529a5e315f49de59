package tracing

import (
	"fmt"

	"github.com/traicing/traicing/config"
	"github.com/traicing/traicing/internal/logging"
	"github.com/traicing/traicing/store"
)

// NewFromConfig builds a tracer, its sink, and its diagnostic logger from
// cfg. Configuration problems (an unusable sink path, a bad log level)
// surface here, at construction.
func NewFromConfig(cfg *config.Config, opts ...Option) (*Tracer, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return nil, fmt.Errorf("tracing: build logger: %w", err)
	}

	sink, err := store.New(cfg.Trace.LogFile,
		store.WithAutoFlush(cfg.Trace.AutoFlush),
		store.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	opts = append([]Option{WithLogger(logger)}, opts...)
	return New(sink, opts...), nil
}
