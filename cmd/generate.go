package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"jpkvat/internal/jpk"
	"jpkvat/internal/jpk/v7m"
	"jpkvat/internal/ledger"
	"jpkvat/internal/logger"
	"jpkvat/internal/sheets"
	"jpkvat/internal/summary"
	"jpkvat/pkg/models"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a JPK_V7M declaration from a request file",
	Long: `Generate a JPK_V7M (2) declaration for one company and one month.

The request JSON carries the document kind, period, company profile,
submission purpose and generator info. Register entries come from the
request itself, or replace them with --xlsx (a workbook with Sprzedaz and
Zakup sheets) or --sheet (the Google Sheets ledger at GOOGLE_SHEET_URL).

On success the XML is written to --output (stdout by default). On rejection
every diagnostic is printed and the command exits with status 1.

Optional environment variables:
  JPK_SYSTEM_NAME   - System name used when the request has none
  JPK_OPERATOR_ID   - Operator id used when the request has none
  GOOGLE_SHEET_URL  - Ledger spreadsheet for --sheet and --diagnostics
  SALES_SHEET       - Sales register sheet name (default: Sprzedaz)
  PURCHASE_SHEET    - Purchase register sheet name (default: Zakup)
  DIAGNOSTICS_SHEET - Sheet receiving diagnostics (default: Diagnostics)`,
	Example: `  # Entries inside the request
  jpkvat generate --request march.json -o JPK_V7M_2024-03.xml

  # Entries from a workbook, with a printable summary
  jpkvat generate --request company.json --xlsx rejestr.xlsx --period 2024-03 \
    -o JPK_V7M_2024-03.xml --summary JPK_V7M_2024-03.pdf

  # Entries from Google Sheets, diagnostics appended to the spreadsheet
  jpkvat generate --request company.json --sheet --period 2024-03 --diagnostics`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().String("request", "", "Generation request JSON file [REQUIRED]")
	generateCmd.Flags().String("xlsx", "", "Read register entries from an XLSX workbook")
	generateCmd.Flags().Bool("sheet", false, "Read register entries from the Google Sheets ledger")
	generateCmd.Flags().String("period", "", "Override the request period (YYYY-MM)")
	generateCmd.Flags().StringP("output", "o", "", "Output XML file (default: stdout)")
	generateCmd.Flags().String("summary", "", "Write a printable PDF summary to this file")
	generateCmd.Flags().Bool("diagnostics", false, "Append the run diagnostics to the Google Sheets ledger")
	generateCmd.Flags().Int("timeout", 120, "Timeout in seconds")

	generateCmd.MarkFlagRequired("request")
	generateCmd.MarkFlagsMutuallyExclusive("xlsx", "sheet")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("generate")

	requestPath, _ := cmd.Flags().GetString("request")
	xlsxPath, _ := cmd.Flags().GetString("xlsx")
	fromSheet, _ := cmd.Flags().GetBool("sheet")
	period, _ := cmd.Flags().GetString("period")
	outputPath, _ := cmd.Flags().GetString("output")
	summaryPath, _ := cmd.Flags().GetString("summary")
	writeDiagnostics, _ := cmd.Flags().GetBool("diagnostics")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	ctx, cancel := commandContext(time.Duration(timeoutSecs)*time.Second, log)
	defer cancel()

	req, err := ledger.LoadRequest(requestPath)
	if err != nil {
		return err
	}
	if period != "" {
		req.Period = period
	}
	applyGeneratorDefaults(req)

	source := filepath.Base(requestPath)
	switch {
	case xlsxPath != "":
		entries, err := ledger.OpenWorkbook(xlsxPath, registerSheets(), req.Period)
		if err != nil {
			return err
		}
		req.Entries = entries
		source = filepath.Base(xlsxPath)
	case fromSheet:
		svc, err := newSheetsService(ctx)
		if err != nil {
			return err
		}
		entries, err := ledger.ReadSheets(ctx, svc, registerSheets(), req.Period)
		if err != nil {
			return err
		}
		req.Entries = entries
		source = "Google Sheets"
	}

	if err := ledger.ValidateRequest(req); err != nil {
		return err
	}

	log.Info().
		Str("source", source).
		Str("period", req.Period).
		Int("entries", len(req.Entries)).
		Msg("Generating declaration")

	gen := jpk.NewGenerator(jpk.WithWorkers(cfg.BatchWorkers))
	result := gen.Generate(ctx, req)

	printDiagnostics(os.Stderr, source, result)

	if writeDiagnostics {
		run := sheets.Run{Source: source, Period: req.Period, TaxID: req.Company.TaxID, Result: result}
		if err := appendDiagnostics(ctx, []sheets.Run{run}); err != nil {
			return err
		}
	}

	if !result.Success {
		return fmt.Errorf("declaration rejected with %d error(s)", len(result.Errors))
	}

	if err := writeDocument(outputPath, result.Document, log); err != nil {
		return err
	}

	if summaryPath != "" {
		if err := writeSummary(summaryPath, req, result, log); err != nil {
			return err
		}
	}

	return nil
}

// newSheetsService connects to the spreadsheet at GOOGLE_SHEET_URL.
func newSheetsService(ctx context.Context) (*sheets.Service, error) {
	if cfg.GoogleSheetURL == "" {
		return nil, fmt.Errorf("GOOGLE_SHEET_URL environment variable is required")
	}
	svc, err := sheets.NewSheetsService(ctx, cfg.GoogleSheetURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Sheets service: %w", err)
	}
	return svc, nil
}

// appendDiagnostics writes runs to the configured diagnostics sheet.
func appendDiagnostics(ctx context.Context, runs []sheets.Run) error {
	svc, err := newSheetsService(ctx)
	if err != nil {
		return err
	}
	if err := svc.WriteDiagnostics(ctx, cfg.DiagnosticsSheet, runs); err != nil {
		return fmt.Errorf("failed to write diagnostics: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Diagnostyka zapisana w arkuszu %s\n", cfg.DiagnosticsSheet)
	return nil
}

// printDiagnostics prints one line per finding of result.
func printDiagnostics(w io.Writer, source string, result *models.GenerationResult) {
	status := "OK"
	if !result.Success {
		status = "ODRZUCONO"
	}
	fmt.Fprintf(w, "%s: %s (sprzedaż: %d, zakup: %d)\n", source, status, result.SalesRows, result.PurchaseRows)

	for _, d := range result.Errors {
		fmt.Fprintf(w, "  BŁĄD    %s\n", formatDiagnostic(d))
	}
	for _, d := range result.Warnings {
		fmt.Fprintf(w, "  UWAGA   %s\n", formatDiagnostic(d))
	}
}

func formatDiagnostic(d models.Diagnostic) string {
	var b strings.Builder
	b.WriteString(d.Code)
	if d.Path != "" {
		b.WriteString(" [")
		b.WriteString(d.Path)
		b.WriteString("]")
	}
	b.WriteString(": ")
	b.WriteString(d.Message)
	return b.String()
}

// writeDocument writes the XML to path, or to stdout when path is empty.
func writeDocument(path string, document []byte, log zerolog.Logger) error {
	if path == "" {
		_, err := os.Stdout.Write(document)
		return err
	}

	if err := os.WriteFile(path, document, 0o644); err != nil {
		log.Error().Err(err).Str("file", path).Msg("Failed to write declaration")
		return fmt.Errorf("failed to write declaration: %w", err)
	}
	log.Info().Str("file", path).Int("bytes", len(document)).Msg("Declaration written")
	return nil
}

// writeSummary renders the PDF summary of the declaration generated from req.
func writeSummary(path string, req *models.GenerationRequest, result *models.GenerationResult, log zerolog.Logger) error {
	stamped := *req
	stamped.Generator.GeneratedAt = result.GeneratedAt

	doc, err := v7m.Map(&stamped)
	if err != nil {
		return fmt.Errorf("failed to map declaration for summary: %w", err)
	}
	s, err := summary.Build(doc)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := summary.Render(&buf, s); err != nil {
		return fmt.Errorf("failed to render summary: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		log.Error().Err(err).Str("file", path).Msg("Failed to write summary")
		return fmt.Errorf("failed to write summary: %w", err)
	}
	log.Info().Str("file", path).Int("bytes", buf.Len()).Msg("Summary written")
	return nil
}
