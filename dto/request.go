package dto

import (
	"mime/multipart"
	"path/filepath"
	"strings"
)

// TokensRequest carries pre-computed OCR tokens, e.g. from an external engine.
type TokensRequest struct {
	Tokens []Token `json:"tokens"`
}

// AnalyzeFileRequest represents an uploaded document to screen.
type AnalyzeFileRequest struct {
	File     *multipart.FileHeader
	Password string
}

var supportedExtensions = map[string]bool{
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// Validate checks that a file is present and has a supported extension.
func (r *AnalyzeFileRequest) Validate() error {
	if r.File == nil {
		return ErrNoFile
	}
	if !IsSupportedFile(r.File.Filename) {
		return ErrUnsupportedFileType
	}
	return nil
}

// IsSupportedFile reports whether the file name has an extension we can analyze.
func IsSupportedFile(name string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(name))]
}

// IsPDF reports whether the file name looks like a PDF.
func IsPDF(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}
