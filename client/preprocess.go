package client

import (
	"fmt"
	"os"

	"github.com/disintegration/imaging"
)

// Preprocessor enhances scans before OCR.
type Preprocessor struct {
	Contrast float64
	Sharpen  float64
}

func NewPreprocessor() *Preprocessor {
	return &Preprocessor{Contrast: 30, Sharpen: 1.5}
}

// Enhance writes an enhanced copy of the image to a temp PNG. The size is kept
// so token coordinates still match the original. The caller removes the file.
func (p *Preprocessor) Enhance(imagePath string) (string, error) {
	src, err := imaging.Open(imagePath, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("failed to open image: %w", err)
	}

	img := imaging.Grayscale(src)
	img = imaging.AdjustContrast(img, p.Contrast)
	img = imaging.Sharpen(img, p.Sharpen)

	tmp, err := os.CreateTemp("", "ocr-pre-*.png")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmp.Close()

	if err := imaging.Save(img, tmp.Name()); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to save processed image: %w", err)
	}
	return tmp.Name(), nil
}
