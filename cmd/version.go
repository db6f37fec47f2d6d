package cmd

import (
	"fmt"
	"runtime"

	"github.com/Aashish23092/legaldoc-guardian/client/tesseract"
	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags "-X .../cmd.Version=...".
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "legaldoc %s\n", Version)
		fmt.Fprintf(out, "  Go:        %s\n", runtime.Version())
		fmt.Fprintf(out, "  Tesseract: %s\n", tesseract.Version())
	},
}
