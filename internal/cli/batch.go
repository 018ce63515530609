package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/tabrules/internal/pipeline"
	"github.com/ppiankov/tabrules/internal/worker"
	"github.com/spf13/cobra"
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Convert many bookmark sources from a list file in parallel",
	Long: `Batch converts multiple bookmark sources concurrently:
- Read sources from the input file (one path or URL per line, # comments)
- Convert them in parallel with a configurable worker count
- Throttle remote sources per host
- Write one <slug>.json rules document per source

Example:
  tabrules batch sources.txt
  tabrules batch sources.txt --workers 8 --output-dir ./rules --policy lazy`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		keys := map[string]string{
			"workers":    "concurrency.workers",
			"output-dir": "output.dir",
			"rps":        "rate_limiting.requests_per_second",
			"burst":      "rate_limiting.burst_size",
		}
		for k, v := range convertFlagKeys {
			keys[k] = v
		}
		return bindFlags(cmd, keys)
	},
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	addConvertFlags(batchCmd.Flags())
	batchCmd.Flags().Int("workers", 4, "number of concurrent workers")
	batchCmd.Flags().String("output-dir", ".", "output directory for rules documents")
	batchCmd.Flags().Float64("rps", 2, "requests per second per remote host")
	batchCmd.Flags().Int("burst", 2, "burst size per remote host")
	batchCmd.Flags().Duration("timeout", 10*time.Minute, "total timeout for batch processing")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyNoCache(cmd, cfg)

	batchTimeout, _ := cmd.Flags().GetDuration("timeout")
	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	workers := cfg.Concurrency.Workers
	outputDir := cfg.Output.Dir

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  tabrules Batch Conversion\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Policy:       %s\n", cfg.Convert.Policy)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", workers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	for _, h := range cfg.RateLimiting.Hosts {
		limiter.SetHostRate(h.Host, h.RequestsPerSecond, h.BurstSize)
	}
	p := pipeline.NewPipeline(cfg).WithThrottle(limiter)

	processor := worker.NewBatchProcessor(p, workers, outputDir)

	fmt.Fprintf(os.Stderr, "⚙️  Converting sources with %d workers...\n\n", workers)
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	successCount := 0
	failureCount := 0

	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Ref, result.Error)
			continue
		}

		successCount++
		fmt.Fprintf(os.Stderr, "✓ %s → %s (%d rules, %d warnings)\n",
			result.Ref, result.OutputPath, result.Result.Document.Len(), len(result.Result.Warnings))
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d sources\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if failureCount > 0 && successCount == 0 {
		return fmt.Errorf("all %d sources failed", failureCount)
	}
	return nil
}
