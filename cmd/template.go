package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"jpkvat/internal/ledger"
	"jpkvat/internal/logger"
)

var templateCmd = &cobra.Command{
	Use:   "template [file.xlsx]",
	Short: "Write an empty ledger workbook",
	Long: `Write an XLSX workbook with the sales and purchase register sheets and
their header rows, ready to be filled and passed to "generate --xlsx".

Sheet names follow SALES_SHEET and PURCHASE_SHEET.`,
	Example: `  jpkvat template rejestr.xlsx`,
	Args:    cobra.ExactArgs(1),
	RunE:    runTemplate,
}

func init() {
	rootCmd.AddCommand(templateCmd)
}

func runTemplate(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("template")
	path := args[0]

	f, err := ledger.NewWorkbook(registerSheets())
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	log.Info().Str("file", path).Msg("Ledger template written")
	fmt.Fprintf(cmd.OutOrStdout(), "Szablon zapisany: %s\n", path)
	return nil
}
