package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/biomap/internal/model"
	"github.com/ppiankov/biomap/internal/summary"
	"github.com/ppiankov/biomap/internal/validate"
)

var summaryOut string

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Rewrite every mapping set in canonical form",
	Long: `Lint sorts and deduplicates the positive, negative and unsure sets,
and removes from the predicted set every pair that has already been curated.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		if err := a.store.Lint(); err != nil {
			return fmt.Errorf("lint: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Linted mapping sets in %s\n", a.cfg.Repository.Dir)
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the mapping repository for integrity violations",
	Long: `Validate checks every record of every set: justifications, normalized
references, authors, confidence, mapping tools, sort order, internal
redundancy and redundancy across sets. It exits non-zero on any violation.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		curators, err := a.curators()
		if err != nil {
			return err
		}

		report, err := validate.NewValidator(a.registry, curators).ValidateStore(a.store)
		if err != nil {
			return err
		}
		for _, w := range report.Warnings {
			fmt.Fprintf(os.Stderr, "! %s\n", w)
		}
		if err := report.Err(); err != nil {
			return err
		}

		for _, set := range model.AllSets {
			fmt.Fprintf(os.Stderr, "✓ %-9s %d records\n", set, report.Records[set])
		}
		return nil
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize the mapping repository as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp()
		if err != nil {
			return err
		}
		snap, err := a.store.ReadAll()
		if err != nil {
			return err
		}
		curators, err := a.curators()
		if err != nil {
			return err
		}

		var out io.Writer = cmd.OutOrStdout()
		if summaryOut != "" {
			f, createErr := os.Create(summaryOut)
			if createErr != nil {
				return fmt.Errorf("create summary file: %w", createErr)
			}
			defer func() {
				if closeErr := f.Close(); closeErr != nil && err == nil {
					err = fmt.Errorf("close summary file: %w", closeErr)
				}
			}()
			out = f
		}
		return summary.Build(snap, curators).WriteYAML(out)
	},
}

func init() {
	summaryCmd.Flags().StringVarP(&summaryOut, "output", "o", "", "write the summary to a file instead of stdout")

	rootCmd.AddCommand(lintCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(summaryCmd)
}
