package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Aashish23092/legaldoc-guardian/dto"
)

// TokenSource runs OCR over an image file and returns word-level tokens.
type TokenSource interface {
	Name() string
	Tokens(ctx context.Context, imagePath string) ([]dto.Token, error)
}

// FallbackSource tries its sources in order. The first one that returns a
// non-empty token list wins.
type FallbackSource struct {
	sources []TokenSource
	logger  *slog.Logger
}

// NewFallbackSource chains sources. Nil sources are dropped.
func NewFallbackSource(logger *slog.Logger, sources ...TokenSource) *FallbackSource {
	if logger == nil {
		logger = slog.Default()
	}
	fs := &FallbackSource{logger: logger}
	for _, s := range sources {
		if s != nil {
			fs.sources = append(fs.sources, s)
		}
	}
	return fs
}

func (f *FallbackSource) Name() string {
	if len(f.sources) == 1 {
		return f.sources[0].Name()
	}
	return "fallback"
}

// Len reports how many sources are chained.
func (f *FallbackSource) Len() int { return len(f.sources) }

// Tokens returns the first non-empty result. If every source failed the
// errors are joined; if some succeeded with nothing, the result is empty.
func (f *FallbackSource) Tokens(ctx context.Context, imagePath string) ([]dto.Token, error) {
	var errs []error
	for _, s := range f.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tokens, err := s.Tokens(ctx, imagePath)
		if err != nil {
			f.logger.Warn("token source failed", "source", s.Name(), "path", imagePath, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		if len(tokens) > 0 {
			f.logger.Debug("token source succeeded", "source", s.Name(), "tokens", len(tokens))
			return tokens, nil
		}
		f.logger.Debug("token source returned no text", "source", s.Name())
	}

	if len(errs) == len(f.sources) && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return []dto.Token{}, nil
}
