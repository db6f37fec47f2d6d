package service

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/Aashish23092/legaldoc-guardian/dto"
	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// defaultPageHeight is US Letter, used when a page carries no MediaBox.
const defaultPageHeight = 792.0

// imageFilePrefix names the PDF handed to pdfcpu; extracted images are
// written as "<prefix>_<page>_<resource>.<ext>".
const imageFilePrefix = "doc"

// PageImage is an embedded image and the 1-based page it was drawn on.
type PageImage struct {
	Page  int
	Image image.Image
}

// PDFProcessor pulls OCR-equivalent input out of PDF documents.
type PDFProcessor interface {
	// ExtractTokens returns one token list per page, built from the text layer.
	ExtractTokens(pdfData []byte, password string) ([][]dto.Token, error)
	// ExtractImages returns the embedded images in page order, for scanned
	// documents. A page may carry several images.
	ExtractImages(pdfData []byte, password string) ([]PageImage, error)
}

type pdfProcessor struct{}

func NewPDFProcessor() PDFProcessor {
	return &pdfProcessor{}
}

func (p *pdfProcessor) openReader(pdfData []byte, password string) (*pdf.Reader, error) {
	if password == "" {
		return pdf.NewReader(bytes.NewReader(pdfData), int64(len(pdfData)))
	}
	// The reader keeps asking until it gets "", so hand out the password once.
	tried := false
	return pdf.NewReaderEncrypted(bytes.NewReader(pdfData), int64(len(pdfData)), func() string {
		if tried {
			return ""
		}
		tried = true
		return password
	})
}

func (p *pdfProcessor) ExtractTokens(pdfData []byte, password string) (pages [][]dto.Token, err error) {
	r, err := p.openReader(pdfData, password)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	// The reader panics on some malformed content streams.
	defer func() {
		if rec := recover(); rec != nil {
			pages, err = nil, fmt.Errorf("failed to read pdf text: %v", rec)
		}
	}()

	totalPage := r.NumPage()
	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			pages = append(pages, nil)
			continue
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("failed to read text of page %d: %w", pageIndex, err)
		}

		height := pageHeight(page)
		var tokens []dto.Token
		for _, row := range rows {
			tokens = append(tokens, wordsFromGlyphs(row.Content, height)...)
		}
		pages = append(pages, tokens)
	}
	return pages, nil
}

// pageHeight reads the MediaBox height, falling back to Letter.
func pageHeight(page pdf.Page) float64 {
	box := page.V.Key("MediaBox")
	if box.Len() != 4 {
		return defaultPageHeight
	}
	h := box.Index(3).Float64() - box.Index(1).Float64()
	if h <= 0 {
		return defaultPageHeight
	}
	return h
}

// wordsFromGlyphs merges one row of glyph runs into word tokens. A word ends at
// whitespace or where the next glyph starts noticeably past the previous one.
// PDF space grows upwards, so y is flipped against the page height.
func wordsFromGlyphs(glyphs []pdf.Text, height float64) []dto.Token {
	var (
		tokens                   []dto.Token
		word                     strings.Builder
		left, right, top, bottom float64
	)

	flush := func() {
		if word.Len() > 0 {
			tokens = append(tokens, dto.Token{
				Text: word.String(),
				Box:  dto.RectBox(left, top, right-left, bottom-top),
			})
			word.Reset()
		}
	}

	for _, g := range glyphs {
		if word.Len() > 0 && g.X-right > g.FontSize*0.3 {
			flush()
		}

		gTop := height - g.Y - g.FontSize
		gBottom := height - g.Y
		for _, r := range g.S {
			if unicode.IsSpace(r) {
				flush()
				continue
			}
			if word.Len() == 0 {
				left, right, top, bottom = g.X, g.X+g.W, gTop, gBottom
			} else {
				right = max(right, g.X+g.W)
				top = min(top, gTop)
				bottom = max(bottom, gBottom)
			}
			word.WriteRune(r)
		}
	}
	flush()

	return tokens
}

func (p *pdfProcessor) ExtractImages(pdfData []byte, password string) ([]PageImage, error) {
	tempDir, err := os.MkdirTemp("", "pdf_images")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	pdfPath := filepath.Join(tempDir, imageFilePrefix+".pdf")
	if err := os.WriteFile(pdfPath, pdfData, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write pdf data: %w", err)
	}

	outDir := filepath.Join(tempDir, "out")
	if err := os.Mkdir(outDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	conf := model.NewDefaultConfiguration()
	if password != "" {
		conf.UserPW = password
	}

	if err := api.ExtractImagesFile(pdfPath, outDir, nil, conf); err != nil {
		return nil, fmt.Errorf("failed to extract images: %w", err)
	}

	// ReadDir sorts by name, which keeps page order stable.
	files, err := os.ReadDir(outDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read temp dir: %w", err)
	}

	var images []PageImage
	for i, file := range files {
		if file.IsDir() {
			continue
		}

		imgFile, err := os.Open(filepath.Join(outDir, file.Name()))
		if err != nil {
			continue
		}
		img, _, err := image.Decode(imgFile)
		imgFile.Close()
		if err != nil {
			continue
		}
		page, ok := pageFromImageName(file.Name())
		if !ok {
			page = i + 1
		}
		images = append(images, PageImage{Page: page, Image: img})
	}

	return images, nil
}

// pageFromImageName reads the page number pdfcpu encodes in an extracted
// image name, e.g. "doc_03_Im1.png" is page 3.
func pageFromImageName(name string) (int, bool) {
	rest, ok := strings.CutPrefix(name, imageFilePrefix+"_")
	if !ok {
		return 0, false
	}
	digits, _, ok := strings.Cut(rest, "_")
	if !ok {
		return 0, false
	}
	page, err := strconv.Atoi(digits)
	if err != nil || page < 1 {
		return 0, false
	}
	return page, true
}

// saveImageToTempFile saves an image.Image to a temporary PNG file.
func saveImageToTempFile(img image.Image) (string, error) {
	tempFile, err := os.CreateTemp("", "ocr-img-*.png")
	if err != nil {
		return "", fmt.Errorf("failed to create temp image file: %w", err)
	}
	defer tempFile.Close()

	if err := png.Encode(tempFile, img); err != nil {
		os.Remove(tempFile.Name())
		return "", fmt.Errorf("failed to encode image to PNG: %w", err)
	}

	return tempFile.Name(), nil
}
