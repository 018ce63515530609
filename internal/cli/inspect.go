package cli

import (
	"encoding/json"
	"fmt"

	"github.com/ppiankov/tabrules/internal/model"
	"github.com/ppiankov/tabrules/internal/pipeline"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <source>",
	Short: "List the folders and bookmarks of a source without converting",
	Long: `Inspect parses a bookmark source and prints each folder with its
bookmarks and the match each one would export. Useful for writing an edit plan.

Example:
  tabrules inspect bookmarks.html
  tabrules inspect Bookmarks --output yaml`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, map[string]string{
			"format":         "convert.format",
			"default-folder": "convert.default_folder",
		})
	},
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringP("format", "f", "", "force the source format (netscape, xbel, chrome)")
	inspectCmd.Flags().String("default-folder", model.DefaultFolder, "folder for bookmarks outside any folder")
	inspectCmd.Flags().StringP("output", "o", "text", "output: text, json or yaml")
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	c, err := pipeline.NewPipeline(cfg).Inspect(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	mode, _ := cmd.Flags().GetString("output")
	switch mode {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(c.Bookmarks())
	case "yaml":
		return yaml.NewEncoder(out).Encode(c.Bookmarks())
	case "text":
	default:
		return fmt.Errorf("unknown output %q (want text, json or yaml)", mode)
	}

	for _, group := range c.Groups() {
		members := c.GroupIDs(group)
		fmt.Fprintf(out, "%s (%d)\n", group, len(members))
		for _, id := range members {
			b, ok := c.Bookmark(id)
			if !ok {
				continue
			}
			mark := " "
			if b.Selected {
				mark = "*"
			}
			fmt.Fprintf(out, "  %s %-12s %s  %s %s %q\n", mark, id, b.URL, b.Target, b.Method, b.Value)
		}
	}
	return nil
}
