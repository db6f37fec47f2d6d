// Package cmd implements the legaldoc command line.
package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var (
	cfgFile      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "legaldoc",
	Short: "Forgery screening for OCR'd financial documents",
	Long: `LegalDoc Guardian screens scanned cheques, receipts and statements for
signs of tampering.

OCR tokens are paired with their labels by position to recover the account
number, payer name and amounts. The document is then scored:
  - CLEAN     nothing suspicious found
  - POSSIBLE  missing fields or no readable text
  - FORGED    conflicting amounts or a high classifier score`,
	Version:      Version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./legaldoc.yaml or ~/.legaldoc/legaldoc.yaml)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	rootCmd.AddCommand(serveCmd, analyzeCmd, ocrCmd, versionCmd)
}

// Execute runs the root command with a cancellable context.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
