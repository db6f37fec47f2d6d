// Package tesseract provides the gosseract-backed token source. It lives in
// its own package so the rest of client builds without cgo.
package tesseract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Aashish23092/legaldoc-guardian/client"
	"github.com/Aashish23092/legaldoc-guardian/dto"
	"github.com/otiai10/gosseract/v2"
)

type TesseractClient struct {
	dataPath     string
	language     string
	preprocessor *client.Preprocessor
	logger       *slog.Logger
}

// NewTesseractClient creates a client. An empty dataPath keeps the tesseract
// default; a nil preprocessor OCRs images as they are.
func NewTesseractClient(dataPath, language string, pre *client.Preprocessor, logger *slog.Logger) *TesseractClient {
	if language == "" {
		language = "eng"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TesseractClient{
		dataPath:     dataPath,
		language:     language,
		preprocessor: pre,
		logger:       logger,
	}
}

func (tc *TesseractClient) Name() string { return "tesseract" }

// Tokens runs word-level OCR. Boxes become four-corner polygons and the
// 0..100 confidence is scaled to 0..1.
func (tc *TesseractClient) Tokens(ctx context.Context, imagePath string) ([]dto.Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := imagePath
	if tc.preprocessor != nil {
		enhanced, err := tc.preprocessor.Enhance(imagePath)
		if err != nil {
			tc.logger.Warn("preprocessing failed, using original image", "path", imagePath, "error", err)
		} else {
			defer os.Remove(enhanced)
			path = enhanced
		}
	}

	c := gosseract.NewClient()
	defer c.Close()

	if tc.dataPath != "" {
		c.SetTessdataPrefix(tc.dataPath)
	}
	if err := c.SetLanguage(tc.language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := c.SetImage(path); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("failed to extract words: %w", err)
	}

	tokens := make([]dto.Token, 0, len(boxes))
	for _, b := range boxes {
		word := strings.TrimSpace(b.Word)
		if word == "" {
			continue
		}
		conf := b.Confidence / 100
		r := b.Box
		tokens = append(tokens, dto.Token{
			Text: word,
			Box:  dto.RectBox(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy())),
			Conf: &conf,
		})
	}

	tc.logger.Debug("tesseract finished", "path", imagePath, "tokens", len(tokens))
	return tokens, nil
}

// Version reports the linked tesseract version.
func Version() string {
	return gosseract.Version()
}
