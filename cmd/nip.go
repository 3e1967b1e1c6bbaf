package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"jpkvat/internal/nip"
)

var nipCmd = &cobra.Command{
	Use:   "nip [nip...]",
	Short: "Check NIP checksums",
	Long: `Check one or more Polish tax identification numbers (NIP).

Separators and a "PL" prefix are ignored. The command exits with status 1
when any number is invalid.`,
	Example: `  jpkvat nip 526-025-09-95
  jpkvat nip 5260250995 PL7790000008`,
	Args: cobra.MinimumNArgs(1),
	RunE: runNIP,
}

func init() {
	rootCmd.AddCommand(nipCmd)
}

func runNIP(cmd *cobra.Command, args []string) error {
	invalid := 0
	for _, raw := range args {
		status := "poprawny"
		if !nip.Valid(raw) {
			status = "niepoprawny"
			invalid++
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", nip.Normalize(raw), status)
	}
	if invalid > 0 {
		return fmt.Errorf("%d invalid NIP(s)", invalid)
	}
	return nil
}
