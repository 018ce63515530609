package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ppiankov/tabrules/internal/pipeline"
	"github.com/ppiankov/tabrules/internal/session"
	"github.com/spf13/cobra"
)

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert <source>",
	Short: "Convert a bookmarks export into a tab-groups rules document",
	Long: `Convert reads one bookmark source and writes a rules document:
- Parse the source (Netscape HTML, Chrome JSON or XBEL)
- Group bookmarks by their folder
- Optionally apply an edit plan (rename, move, select, retarget)
- Build one rule per non-empty folder

The source may be a file path, an http(s) URL or "-" for stdin.

Example:
  tabrules convert bookmarks.html
  tabrules convert Bookmarks --policy lazy -o -
  tabrules convert bookmarks.html --plan edits.yaml --filename timestamped`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, convertCmdKeys())
	},
	RunE: runConvert,
}

func convertCmdKeys() map[string]string {
	keys := map[string]string{
		"output-dir": "output.dir",
		"filename":   "output.filename",
	}
	for k, v := range convertFlagKeys {
		keys[k] = v
	}
	return keys
}

func init() {
	rootCmd.AddCommand(convertCmd)

	addConvertFlags(convertCmd.Flags())
	convertCmd.Flags().StringP("output", "o", "", `output file ("-" for stdout); overrides --output-dir and --filename`)
	convertCmd.Flags().String("output-dir", ".", "directory for the rules document")
	convertCmd.Flags().String("filename", pipeline.FilenameFixed, "file name mode: fixed or timestamped")
	convertCmd.Flags().String("plan", "", "YAML or TOML edit plan applied before export")
}

func runConvert(cmd *cobra.Command, args []string) error {
	ref := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyNoCache(cmd, cfg)

	opts := pipeline.ConvertOptions{}
	if planPath, _ := cmd.Flags().GetString("plan"); planPath != "" {
		plan, err := session.LoadPlan(planPath)
		if err != nil {
			return err
		}
		opts.Plan = plan
	}

	outPath, _ := cmd.Flags().GetString("output")
	if outPath == "" {
		name, err := pipeline.Filename(cfg.Output.Filename, time.Now())
		if err != nil {
			return err
		}
		outPath = filepath.Join(cfg.Output.Dir, name)
	}

	verbose := verbosity > 0 || cfg.Output.Verbose
	if verbose {
		fmt.Fprintf(os.Stderr, "⚙️  Converting %s (%s policy)...\n", ref, cfg.Convert.Policy)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	p := pipeline.NewPipeline(cfg)
	result, err := p.Convert(ctx, ref, opts)
	if err != nil {
		return err
	}

	return p.RenderResult(result, outPath, verbose)
}
