package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/Aashish23092/legaldoc-guardian/dto"
	"github.com/avast/retry-go/v4"
)

// paddleScript prints one JSON object per detected line: {"box", "text", "conf"}.
const paddleScript = `
import json, sys, warnings
warnings.filterwarnings('ignore')
from paddleocr import PaddleOCR

image_path, lang, model_dir = sys.argv[1], sys.argv[2], sys.argv[3]
kwargs = dict(use_angle_cls=True, lang=lang, use_gpu=False, show_log=False)
if model_dir:
    kwargs.update(det_model_dir=model_dir + '/det', rec_model_dir=model_dir + '/rec', cls_model_dir=model_dir + '/cls')
ocr = PaddleOCR(**kwargs)
result = ocr.ocr(image_path, cls=True)
if result and result[0]:
    for line in result[0]:
        if line and len(line) > 1:
            print(json.dumps({"box": line[0], "text": line[1][0], "conf": float(line[1][1])}))
`

// PaddleConfig configures the PaddleOCR source.
type PaddleConfig struct {
	// APIURL selects the HTTP serving mode when set; otherwise the python CLI runs.
	APIURL   string
	Python   string
	Lang     string
	ModelDir string
	Attempts uint
	Delay    time.Duration
	Timeout  time.Duration
}

// PaddleClient wraps PaddleOCR for line-level token extraction.
type PaddleClient struct {
	cfg        PaddleConfig
	httpClient *http.Client
	logger     *slog.Logger
}

// NewPaddleClient creates a new PaddleOCR client, filling unset fields with defaults.
func NewPaddleClient(cfg PaddleConfig, logger *slog.Logger) *PaddleClient {
	if cfg.Python == "" {
		cfg.Python = "python3"
	}
	if cfg.Lang == "" {
		cfg.Lang = "en"
	}
	if cfg.Attempts == 0 {
		cfg.Attempts = 3
	}
	if cfg.Delay == 0 {
		cfg.Delay = 500 * time.Millisecond
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("PaddleOCR initialized", "api_url", cfg.APIURL, "lang", cfg.Lang, "model_dir", cfg.ModelDir)

	return &PaddleClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

func (p *PaddleClient) Name() string { return "paddle" }

func (p *PaddleClient) Tokens(ctx context.Context, imagePath string) ([]dto.Token, error) {
	if p.cfg.APIURL != "" {
		return p.tokensFromAPI(ctx, imagePath)
	}
	return p.tokensFromCLI(ctx, imagePath)
}

// tokensFromCLI executes the PaddleOCR Python package.
func (p *PaddleClient) tokensFromCLI(ctx context.Context, imagePath string) ([]dto.Token, error) {
	cmd := exec.CommandContext(ctx, p.cfg.Python, "-c", paddleScript, imagePath, p.cfg.Lang, p.cfg.ModelDir)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("PaddleOCR command failed: %w, stderr: %s", err, strings.TrimSpace(stderr.String()))
	}

	tokens := parseTokenLines(stdout.Bytes())
	p.logger.Debug("PaddleOCR CLI finished", "path", imagePath, "tokens", len(tokens))
	return tokens, nil
}

// parseTokenLines decodes JSON-lines output. Anything else the interpreter
// prints (warnings, progress) is skipped.
func parseTokenLines(out []byte) []dto.Token {
	tokens := []dto.Token{}
	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "{") {
			continue
		}
		var tok dto.Token
		if err := json.Unmarshal([]byte(line), &tok); err != nil {
			continue
		}
		if strings.TrimSpace(tok.Text) == "" {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

type paddleResponse struct {
	Results [][]struct {
		Text       string  `json:"text"`
		Confidence float64 `json:"confidence"`
		TextRegion dto.Box `json:"text_region"`
	} `json:"results"`
}

// tokensFromAPI posts the image to a PaddleOCR serving endpoint, retrying
// transport failures and 5xx responses.
func (p *PaddleClient) tokensFromAPI(ctx context.Context, imagePath string) ([]dto.Token, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	payload, err := json.Marshal(map[string]any{
		"images": []string{base64.StdEncoding.EncodeToString(data)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	var result paddleResponse
	err = retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.APIURL, bytes.NewReader(payload))
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Content-Type", "application/json")

			resp, err := p.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
				err := fmt.Errorf("PaddleOCR API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
				if resp.StatusCode < http.StatusInternalServerError {
					return retry.Unrecoverable(err)
				}
				return err
			}

			result = paddleResponse{}
			if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
				return retry.Unrecoverable(fmt.Errorf("failed to decode PaddleOCR response: %w", err))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(p.cfg.Attempts),
		retry.Delay(p.cfg.Delay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			p.logger.Warn("retrying PaddleOCR API", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, err
	}

	tokens := []dto.Token{}
	if len(result.Results) > 0 {
		for _, line := range result.Results[0] {
			if strings.TrimSpace(line.Text) == "" {
				continue
			}
			conf := line.Confidence
			tokens = append(tokens, dto.Token{Text: line.Text, Box: line.TextRegion, Conf: &conf})
		}
	}

	p.logger.Debug("PaddleOCR API finished", "path", imagePath, "tokens", len(tokens))
	return tokens, nil
}
