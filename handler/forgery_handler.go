package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Aashish23092/legaldoc-guardian/dto"
	"github.com/Aashish23092/legaldoc-guardian/service"
	"github.com/gin-gonic/gin"
)

const (
	codeAnalysisFailed = "ANALYSIS_FAILED"
	codeInvalidRequest = "INVALID_REQUEST"
)

type ForgeryHandler struct {
	forgeryService *service.ForgeryService
	logger         *slog.Logger
}

func NewForgeryHandler(forgeryService *service.ForgeryService, logger *slog.Logger) *ForgeryHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ForgeryHandler{
		forgeryService: forgeryService,
		logger:         logger,
	}
}

// Analyze handles POST /forgery/analyze with a multipart "file" and optional "password".
func (h *ForgeryHandler) Analyze(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.sendError(c, http.StatusBadRequest, codeInvalidRequest, dto.ErrNoFile)
		return
	}

	h.logger.Info("received analysis request", "file", fileHeader.Filename, "size", fileHeader.Size)

	response, err := h.forgeryService.AnalyzeFile(c.Request.Context(), fileHeader, c.PostForm("password"))
	if err != nil {
		h.sendServiceError(c, err)
		return
	}

	h.logger.Info("analysis completed", "id", response.AnalysisID, "label", response.Verdict.Label, "score", response.Verdict.Score)
	c.JSON(http.StatusOK, response)
}

// AnalyzeTokens handles POST /forgery/tokens with pre-computed OCR tokens.
func (h *ForgeryHandler) AnalyzeTokens(c *gin.Context) {
	var req dto.TokensRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, http.StatusBadRequest, codeInvalidRequest, err)
		return
	}

	c.JSON(http.StatusOK, h.forgeryService.AnalyzeTokens(req.Tokens))
}

// ExtractFields handles POST /forgery/fields and returns the field record only.
func (h *ForgeryHandler) ExtractFields(c *gin.Context) {
	var req dto.TokensRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, http.StatusBadRequest, codeInvalidRequest, err)
		return
	}

	c.JSON(http.StatusOK, h.forgeryService.ExtractFields(req.Tokens))
}

// Health handles GET /health.
func (h *ForgeryHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, dto.HealthResponse{
		Status:  "healthy",
		Service: "LegalDoc Guardian",
	})
}

func (h *ForgeryHandler) sendServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, dto.ErrNoFile), errors.Is(err, dto.ErrUnsupportedFileType), errors.Is(err, dto.ErrNoTokenSource):
		h.sendError(c, http.StatusBadRequest, codeInvalidRequest, err)
	default:
		h.sendError(c, http.StatusInternalServerError, codeAnalysisFailed, err)
	}
}

// sendError sends a structured error response
func (h *ForgeryHandler) sendError(c *gin.Context, statusCode int, code string, err error) {
	h.logger.Error("request failed", "path", c.FullPath(), "status", statusCode, "error", err)

	c.JSON(statusCode, dto.ErrorResponse{
		Error:   code,
		Message: err.Error(),
		Code:    statusCode,
	})
}
