package buildsys

import (
	"context"

	"github.com/rs/zerolog"
)

// WithLogger attaches the given logger to the context
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	return logger.WithContext(ctx)
}

func log(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}
