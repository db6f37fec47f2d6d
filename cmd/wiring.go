package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Aashish23092/legaldoc-guardian/classifier"
	"github.com/Aashish23092/legaldoc-guardian/client"
	"github.com/Aashish23092/legaldoc-guardian/client/tesseract"
	"github.com/Aashish23092/legaldoc-guardian/config"
	"github.com/Aashish23092/legaldoc-guardian/service"
)

// newLogger builds a text logger at the configured level.
func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// buildSource chains the configured OCR engines. It returns nil when none
// are configured.
func buildSource(cfg config.OCRConfig, logger *slog.Logger) (client.TokenSource, error) {
	var sources []client.TokenSource
	for _, name := range cfg.Engines {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "tesseract":
			var pre *client.Preprocessor
			if cfg.Preprocess {
				pre = client.NewPreprocessor()
			}
			sources = append(sources, tesseract.NewTesseractClient(cfg.TessdataPrefix, cfg.Language, pre, logger))
		case "paddle":
			sources = append(sources, client.NewPaddleClient(client.PaddleConfig{
				APIURL:   cfg.PaddleURL,
				Python:   cfg.PaddlePython,
				Lang:     cfg.PaddleLang,
				ModelDir: cfg.PaddleModelDir,
				Attempts: cfg.PaddleAttempts,
				Delay:    cfg.PaddleDelay,
				Timeout:  cfg.Timeout,
			}, logger))
		case "":
		default:
			return nil, fmt.Errorf("unknown OCR engine %q", name)
		}
	}
	if len(sources) == 0 {
		return nil, nil
	}
	return client.NewFallbackSource(logger, sources...), nil
}

type app struct {
	store   *classifier.Store
	service *service.ForgeryService
}

func newScorer(store *classifier.Store, cfg *config.Config) *service.Scorer {
	return service.NewScorer(store, service.WithLocatorConfig(cfg.Locator.ToLocator()))
}

// buildApp wires the forgery service from configuration.
func buildApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	source, err := buildSource(cfg.OCR, logger)
	if err != nil {
		return nil, err
	}

	store := classifier.NewStore(cfg.Classifier.ModelPath, logger)
	opts := service.Options{
		PDFProcessor:     service.NewPDFProcessor(),
		Scorer:           newScorer(store, cfg),
		MinPDFTextTokens: cfg.PDF.MinTextTokens,
		OCRConcurrency:   cfg.PDF.OCRConcurrency,
		Logger:           logger,
	}
	if source != nil {
		opts.Source = source
	}

	return &app{store: store, service: service.NewForgeryService(opts)}, nil
}
