package cmd

import (
	"github.com/Aashish23092/legaldoc-guardian/client"
	"github.com/Aashish23092/legaldoc-guardian/config"
	"github.com/Aashish23092/legaldoc-guardian/dto"
	"github.com/spf13/cobra"
)

const ocrPreviewLimit = 30

var ocrBoxesPath string

var ocrCmd = &cobra.Command{
	Use:   "ocr <image>",
	Short: "Print the OCR tokens of an image",
	Long: `Run the configured OCR engines over an image and print the first tokens
with their boxes. Useful for checking what the locator will see.
With --boxes, every token's box and text is also drawn onto a copy of the image.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			return err
		}
		logger := newLogger(cmd.ErrOrStderr(), cfg.Server.LogLevel)

		source, err := buildSource(cfg.OCR, logger)
		if err != nil {
			return err
		}
		if source == nil {
			return dto.ErrNoTokenSource
		}

		tokens, err := source.Tokens(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if ocrBoxesPath != "" {
			if err := client.DrawBoxes(args[0], tokens, ocrBoxesPath); err != nil {
				return err
			}
			logger.Info("annotated image written", "path", ocrBoxesPath, "tokens", len(tokens))
		}
		if len(tokens) > ocrPreviewLimit {
			tokens = tokens[:ocrPreviewLimit]
		}
		return output(cmd.OutOrStdout(), dto.TokensRequest{Tokens: tokens})
	},
}

func init() {
	ocrCmd.Flags().StringVar(&ocrBoxesPath, "boxes", "", "write an annotated copy of the image to this path")
}
