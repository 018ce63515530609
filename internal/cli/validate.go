package cli

import (
	"fmt"

	"github.com/ppiankov/tabrules/internal/validate"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a tab-groups rules document",
	Long: `Validate reads a rules document and reports structural problems:
missing or wrong meta header, keys that do not match rule ids, empty group
names, rules without matches and unknown match methods or targets.

Exits non-zero when any error-level issue is found.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := validate.File(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, issue := range report.Issues {
			fmt.Fprintln(out, issue.String())
		}
		fmt.Fprintf(out, "%s: %d rules, %d errors, %d warnings\n",
			args[0], report.Rules, report.Errors(), report.Warnings())

		if report.HasErrors() {
			return fmt.Errorf("validation failed: %d errors", report.Errors())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
