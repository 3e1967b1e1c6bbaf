package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"jpkvat/internal/jpk"
	"jpkvat/internal/ledger"
	"jpkvat/internal/logger"
	"jpkvat/internal/sheets"
	"jpkvat/pkg/models"
)

var batchCmd = &cobra.Command{
	Use:   "batch [requests.json | folder]",
	Short: "Generate many independent declarations in parallel",
	Long: `Generate declarations for many companies or months in one run.

The input is either a JSON file holding an array of generation requests or
a folder of request files (*.json, one request each). Requests are generated
in parallel and independently: a rejected request never affects the others.

Each accepted declaration is written to the output folder as
JPK_V7M_<NIP>_<period>.xml. Rejections are listed with their diagnostics.

Optional environment variables:
  BATCH_WORKERS     - Number of parallel workers (default: 12)
  GOOGLE_SHEET_URL  - Spreadsheet receiving diagnostics with --diagnostics
  DIAGNOSTICS_SHEET - Sheet receiving diagnostics (default: Diagnostics)`,
	Example: `  # Generate every request of a batch file
  jpkvat batch requests.json --out ./jpk

  # Every request file in a folder, diagnostics appended to Google Sheets
  jpkvat batch ./requests --out ./jpk --diagnostics

  # Check the requests without writing any file
  jpkvat batch ./requests --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

// batchInput is one request of a batch labelled by where it came from.
type batchInput struct {
	Source  string
	Request *models.GenerationRequest
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().String("out", ".", "Output folder for generated declarations")
	batchCmd.Flags().Bool("dry-run", false, "Generate but don't write any declaration")
	batchCmd.Flags().Bool("diagnostics", false, "Append diagnostics of every request to the Google Sheets ledger")
	batchCmd.Flags().Bool("verbose", false, "Print warnings of accepted declarations")
	batchCmd.Flags().Int("timeout", 30, "Timeout in minutes")
}

func runBatch(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("batch")

	inputPath := args[0]
	outDir, _ := cmd.Flags().GetString("out")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	writeDiagnostics, _ := cmd.Flags().GetBool("diagnostics")
	verbose, _ := cmd.Flags().GetBool("verbose")
	timeoutMins, _ := cmd.Flags().GetInt("timeout")

	inputs, err := loadBatchInputs(inputPath)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		fmt.Println("Brak wniosków do przetworzenia.")
		return nil
	}

	reqs := make([]*models.GenerationRequest, len(inputs))
	for i, in := range inputs {
		applyGeneratorDefaults(in.Request)
		if err := ledger.ValidateRequest(in.Request); err != nil {
			return fmt.Errorf("%s: %w", in.Source, err)
		}
		reqs[i] = in.Request
	}

	if !dryRun {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output folder: %w", err)
		}
	}

	log.Info().
		Str("input", inputPath).
		Int("requests", len(reqs)).
		Int("workers", cfg.BatchWorkers).
		Bool("dry_run", dryRun).
		Msg("Starting batch generation")

	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("                         JPK_V7M - GENEROWANIE WSADOWE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Wejście: %s\n", inputPath)
	fmt.Printf("Wnioski: %d, równoległość: %d\n", len(reqs), cfg.BatchWorkers)
	if dryRun {
		fmt.Println("Tryb: próbny (bez zapisu plików)")
	}
	fmt.Println()

	ctx, cancel := commandContext(time.Duration(timeoutMins)*time.Minute, log)
	defer cancel()

	gen := jpk.NewGenerator(jpk.WithWorkers(cfg.BatchWorkers))
	results := gen.GenerateBatch(ctx, reqs)

	succeeded, written := 0, 0
	runs := make([]sheets.Run, len(results))
	for i, res := range results {
		in := inputs[i]
		runs[i] = sheets.Run{Source: in.Source, Period: in.Request.Period, TaxID: in.Request.Company.TaxID, Result: res}

		fmt.Printf("[%d/%d] %s - %s", i+1, len(results), in.Source, statusLabel(res))
		if res.Success {
			succeeded++
			fmt.Printf(" (%d wierszy)\n", res.RowCount)
		} else {
			fmt.Printf(" (%d błędów)\n", len(res.Errors))
		}
		if !res.Success || verbose {
			for _, d := range res.Errors {
				fmt.Printf("    BŁĄD  %s\n", formatDiagnostic(d))
			}
			for _, d := range res.Warnings {
				fmt.Printf("    UWAGA %s\n", formatDiagnostic(d))
			}
		}

		if res.Success && !dryRun {
			path := filepath.Join(outDir, declarationFileName(in.Request))
			if err := os.WriteFile(path, res.Document, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			written++
		}
	}

	fmt.Println()
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println("                 WYNIK")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Wygenerowane: %d\n", succeeded)
	if failed := len(results) - succeeded; failed > 0 {
		fmt.Printf("Odrzucone: %d\n", failed)
	}
	if !dryRun {
		fmt.Printf("Zapisane pliki: %d (%s)\n", written, outDir)
	}

	if writeDiagnostics {
		if err := appendDiagnostics(ctx, runs); err != nil {
			return err
		}
	}

	fmt.Println(strings.Repeat("=", 80))

	log.Info().
		Int("total", len(results)).
		Int("success", succeeded).
		Int("rejected", len(results)-succeeded).
		Msg("Batch generation completed")

	return nil
}

// loadBatchInputs reads a batch file or every *.json request in a folder.
func loadBatchInputs(path string) ([]batchInput, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("input not found: %s", path)
	}

	if !info.IsDir() {
		reqs, err := ledger.LoadBatch(path)
		if err != nil {
			return nil, err
		}
		inputs := make([]batchInput, len(reqs))
		for i, req := range reqs {
			inputs[i] = batchInput{Source: fmt.Sprintf("%s#%d", filepath.Base(path), i+1), Request: req}
		}
		return inputs, nil
	}

	files, err := findRequestFiles(path)
	if err != nil {
		return nil, fmt.Errorf("failed to find request files: %w", err)
	}
	inputs := make([]batchInput, 0, len(files))
	for _, file := range files {
		req, err := ledger.LoadRequest(file)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, batchInput{Source: filepath.Base(file), Request: req})
	}
	return inputs, nil
}

// findRequestFiles finds all JSON files in the specified folder.
func findRequestFiles(folderPath string) ([]string, error) {
	var files []string

	err := filepath.Walk(folderPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(strings.ToLower(info.Name()), ".json") {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}

// declarationFileName names the output file after the filer and period.
func declarationFileName(req *models.GenerationRequest) string {
	name := fmt.Sprintf("JPK_V7M_%s_%s", req.Company.TaxID, req.Period)
	if req.CorrectionNumber > 0 {
		name += fmt.Sprintf("_K%d", req.CorrectionNumber)
	}
	return name + ".xml"
}

func statusLabel(res *models.GenerationResult) string {
	switch {
	case !res.Success:
		return "❌ odrzucono"
	case len(res.Warnings) > 0:
		return "⚠️ z uwagami"
	default:
		return "✅"
	}
}
