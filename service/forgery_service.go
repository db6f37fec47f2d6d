package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"
	"time"

	"github.com/Aashish23092/legaldoc-guardian/client"
	"github.com/Aashish23092/legaldoc-guardian/dto"
	"github.com/Aashish23092/legaldoc-guardian/utils"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Sources reported in AnalysisResponse and PageVerdict.
const (
	SourceTokens  = "tokens"
	SourcePDFText = "pdf_text"
	SourcePDFOCR  = "pdf_ocr"
)

const (
	defaultMinPDFTextTokens = 5
	defaultOCRConcurrency   = 4
)

// Options wires a ForgeryService.
type Options struct {
	Source           client.TokenSource
	PDFProcessor     PDFProcessor
	Scorer           *Scorer
	// MinPDFTextTokens is the fewest text-layer tokens a PDF page needs before
	// the text layer is trusted over OCR of the embedded images.
	MinPDFTextTokens int
	// OCRConcurrency caps how many embedded PDF images are OCR'd at once.
	OCRConcurrency int
	Logger         *slog.Logger
}

// ForgeryService screens documents for forgery signals.
type ForgeryService struct {
	source       client.TokenSource
	pdfProcessor PDFProcessor
	scorer       atomic.Pointer[Scorer]
	minPDFTokens int
	ocrLimit     int
	logger       *slog.Logger
	now          func() time.Time
}

func NewForgeryService(opts Options) *ForgeryService {
	if opts.PDFProcessor == nil {
		opts.PDFProcessor = NewPDFProcessor()
	}
	if opts.Scorer == nil {
		opts.Scorer = NewScorer(nil)
	}
	if opts.MinPDFTextTokens <= 0 {
		opts.MinPDFTextTokens = defaultMinPDFTextTokens
	}
	if opts.OCRConcurrency <= 0 {
		opts.OCRConcurrency = defaultOCRConcurrency
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &ForgeryService{
		source:       opts.Source,
		pdfProcessor: opts.PDFProcessor,
		minPDFTokens: opts.MinPDFTextTokens,
		ocrLimit:     opts.OCRConcurrency,
		logger:       opts.Logger,
		now:          time.Now,
	}
	s.scorer.Store(opts.Scorer)
	return s
}

// Scorer returns the scorer currently in use.
func (s *ForgeryService) Scorer() *Scorer { return s.scorer.Load() }

// SetScorer swaps the scorer, e.g. after a config reload. In-flight requests
// finish with the scorer they started with.
func (s *ForgeryService) SetScorer(scorer *Scorer) {
	if scorer != nil {
		s.scorer.Store(scorer)
	}
}

// ExtractFields runs field extraction only.
func (s *ForgeryService) ExtractFields(tokens []dto.Token) dto.FieldRecord {
	return utils.ExtractFields(tokens, s.Scorer().Locator())
}

// AnalyzeTokens scores pre-computed OCR tokens.
func (s *ForgeryService) AnalyzeTokens(tokens []dto.Token) *dto.AnalysisResponse {
	return s.respond(SourceTokens, s.Scorer().Score(tokens), nil)
}

// AnalyzeImage OCRs an image file and scores the tokens.
func (s *ForgeryService) AnalyzeImage(ctx context.Context, path string) (*dto.AnalysisResponse, error) {
	if s.source == nil {
		return nil, dto.ErrNoTokenSource
	}

	tokens, err := s.source.Tokens(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("OCR failed for %s: %w", filepath.Base(path), err)
	}

	s.logger.Info("image analyzed", "path", path, "source", s.source.Name(), "tokens", len(tokens))
	return s.respond(s.source.Name(), s.Scorer().Score(tokens), nil), nil
}

// AnalyzePath analyzes a PDF or image on disk.
func (s *ForgeryService) AnalyzePath(ctx context.Context, path, password string) (*dto.AnalysisResponse, error) {
	if !dto.IsSupportedFile(path) {
		return nil, dto.ErrUnsupportedFileType
	}
	if !dto.IsPDF(path) {
		return s.AnalyzeImage(ctx, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return s.AnalyzePDF(ctx, data, password)
}

// AnalyzeFile analyzes an uploaded document.
func (s *ForgeryService) AnalyzeFile(ctx context.Context, fileHeader *multipart.FileHeader, password string) (*dto.AnalysisResponse, error) {
	req := &dto.AnalyzeFileRequest{File: fileHeader, Password: password}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if dto.IsPDF(fileHeader.Filename) {
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
		return s.AnalyzePDF(ctx, data, password)
	}

	if s.source == nil {
		return nil, dto.ErrNoTokenSource
	}

	tempFile, err := os.CreateTemp("", "ocr-*"+filepath.Ext(fileHeader.Filename))
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tempFile.Name())

	if _, err := io.Copy(tempFile, file); err != nil {
		tempFile.Close()
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	tempFile.Close()

	return s.AnalyzeImage(ctx, tempFile.Name())
}

// AnalyzePDF scores each page of a PDF. The text layer is used when every page
// has enough tokens; scanned documents fall back to OCR of the embedded images.
// The overall verdict is the riskiest page.
func (s *ForgeryService) AnalyzePDF(ctx context.Context, data []byte, password string) (*dto.AnalysisResponse, error) {
	textPages, textErr := s.pdfProcessor.ExtractTokens(data, password)
	if textErr != nil {
		s.logger.Warn("PDF text extraction failed", "error", textErr)
	} else if len(textPages) > 0 && s.textLayerUsable(textPages) {
		return s.respondPages(SourcePDFText, s.scorePages(SourcePDFText, numberPages(textPages))), nil
	}

	if s.source != nil {
		s.logger.Info("PDF seems to be scanned or has minimal text, attempting image-based OCR", "pages", len(textPages))
		ocrPages, err := s.ocrPDFImages(ctx, data, password)
		if err != nil {
			s.logger.Warn("PDF image OCR failed", "error", err)
		} else if len(ocrPages) > 0 {
			return s.respondPages(SourcePDFOCR, s.scorePages(SourcePDFOCR, ocrPages)), nil
		}
	}

	if textErr != nil {
		return nil, fmt.Errorf("failed to read pdf: %w", textErr)
	}
	return s.respondPages(SourcePDFText, s.scorePages(SourcePDFText, numberPages(textPages))), nil
}

func (s *ForgeryService) textLayerUsable(pages [][]dto.Token) bool {
	for _, p := range pages {
		if len(p) < s.minPDFTokens {
			return false
		}
	}
	return true
}

// pageTokens is the token list of one PDF page.
type pageTokens struct {
	page   int
	tokens []dto.Token
}

func numberPages(pages [][]dto.Token) []pageTokens {
	out := make([]pageTokens, len(pages))
	for i, tokens := range pages {
		out[i] = pageTokens{page: i + 1, tokens: tokens}
	}
	return out
}

// ocrPDFImages OCRs the embedded images with at most ocrLimit running at
// once. Tokens of images sharing a page are merged in extraction order, and
// pages come back in ascending page order.
func (s *ForgeryService) ocrPDFImages(ctx context.Context, data []byte, password string) ([]pageTokens, error) {
	images, err := s.pdfProcessor.ExtractImages(data, password)
	if err != nil {
		return nil, err
	}

	results := make([][]dto.Token, len(images))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.ocrLimit)

	for i, img := range images {
		g.Go(func() error {
			path, err := saveImageToTempFile(img.Image)
			if err != nil {
				return err
			}
			defer os.Remove(path)

			tokens, err := s.source.Tokens(gctx, path)
			if err != nil {
				return fmt.Errorf("page %d image %d: %w", img.Page, i+1, err)
			}
			results[i] = tokens
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byPage := make(map[int][]dto.Token)
	for i, img := range images {
		byPage[img.Page] = append(byPage[img.Page], results[i]...)
	}
	pages := make([]pageTokens, 0, len(byPage))
	for page, tokens := range byPage {
		pages = append(pages, pageTokens{page: page, tokens: tokens})
	}
	slices.SortFunc(pages, func(a, b pageTokens) int { return a.page - b.page })
	return pages, nil
}

func (s *ForgeryService) scorePages(source string, pages []pageTokens) []dto.PageVerdict {
	scorer := s.Scorer()
	verdicts := make([]dto.PageVerdict, 0, len(pages))
	for _, p := range pages {
		verdicts = append(verdicts, dto.PageVerdict{
			Page:       p.page,
			Source:     source,
			TokenCount: len(p.tokens),
			Verdict:    scorer.Score(p.tokens),
		})
	}
	return verdicts
}

func (s *ForgeryService) respondPages(source string, pages []dto.PageVerdict) *dto.AnalysisResponse {
	if len(pages) == 0 {
		return s.respond(source, s.Scorer().Score(nil), nil)
	}
	worst := pages[0].Verdict
	for _, p := range pages[1:] {
		if p.Verdict.Score > worst.Score {
			worst = p.Verdict
		}
	}
	s.logger.Info("PDF analyzed", "source", source, "pages", len(pages), "label", worst.Label, "score", worst.Score)
	return s.respond(source, worst, pages)
}

func (s *ForgeryService) respond(source string, v dto.Verdict, pages []dto.PageVerdict) *dto.AnalysisResponse {
	return &dto.AnalysisResponse{
		AnalysisID:  uuid.NewString(),
		Source:      source,
		Verdict:     v,
		Pages:       pages,
		ProcessedAt: s.now().UTC(),
	}
}
