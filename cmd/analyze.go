package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/Aashish23092/legaldoc-guardian/config"
	"github.com/Aashish23092/legaldoc-guardian/dto"
	"github.com/spf13/cobra"
)

var (
	analyzeTokensFile string
	analyzePassword   string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [image|pdf]",
	Short: "Screen a document for forgery",
	Long: `Screen a document and print the verdict.

The input is either an image or PDF to OCR, or a JSON token file produced by
an external OCR engine ({"tokens": [...]} or a bare array).

Examples:
  legaldoc analyze cheque.png
  legaldoc analyze statement.pdf --password secret -o json
  legaldoc analyze --tokens tokens.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if analyzeTokensFile == "" && len(args) == 0 {
			return errors.New("need a document path or --tokens file")
		}

		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			return err
		}
		logger := newLogger(cmd.ErrOrStderr(), cfg.Server.LogLevel)

		a, err := buildApp(cfg, logger)
		if err != nil {
			return err
		}

		if analyzeTokensFile != "" {
			tokens, err := readTokensFile(analyzeTokensFile)
			if err != nil {
				return err
			}
			return output(cmd.OutOrStdout(), a.service.AnalyzeTokens(tokens))
		}

		resp, err := a.service.AnalyzePath(cmd.Context(), args[0], analyzePassword)
		if err != nil {
			return err
		}
		return output(cmd.OutOrStdout(), resp)
	},
}

// readTokensFile accepts {"tokens": [...]} or a bare token array.
func readTokensFile(path string) ([]dto.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tokens file: %w", err)
	}

	var req dto.TokensRequest
	if err := json.Unmarshal(data, &req); err == nil {
		return req.Tokens, nil
	}

	var tokens []dto.Token
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("invalid tokens file: %w", err)
	}
	return tokens, nil
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeTokensFile, "tokens", "", "JSON file with pre-computed OCR tokens")
	analyzeCmd.Flags().StringVar(&analyzePassword, "password", "", "PDF password")
}
