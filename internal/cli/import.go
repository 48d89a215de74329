package cli

import (
	"context"
	"fmt"
	"maps"
	"os"
	"os/signal"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/biomap/internal/filter"
	"github.com/ppiankov/biomap/internal/pipeline"
	"github.com/ppiankov/biomap/internal/store"
	"github.com/ppiankov/biomap/internal/xref"
)

var (
	importTimeout  time.Duration
	exclusionsPath string
	mutualVia      []string
	useMutual      bool
	noXrefs        bool
	ambiguousOut   string
	importWorkers  int
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <candidates.sssom.tsv>",
	Short: "Filter candidate mappings into the predicted set",
	Long: `Import reads candidate mappings produced by a lexical or embedding
matcher, normalizes their references, drops candidates that are already
curated, excluded or known as cross-references, and appends the rest to the
predicted set.

Example:
  biomap import candidates.sssom.tsv
  biomap import candidates.sssom.tsv --mutual --via chebi --ambiguous-out ambiguous.sssom.tsv
  biomap import candidates.sssom.tsv --exclusions exclusions.tsv --no-xrefs`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().DurationVar(&importTimeout, "timeout", 10*time.Minute, "overall import timeout")
	importCmd.Flags().StringVar(&exclusionsPath, "exclusions", "", "TSV of subject/object CURIE pairs to exclude")
	importCmd.Flags().BoolVar(&useMutual, "mutual", false, "apply the mutual mapping graph filter")
	importCmd.Flags().StringSliceVar(&mutualVia, "via", nil, "extra prefixes the mutual mapping graph walks through")
	importCmd.Flags().BoolVar(&noXrefs, "no-xrefs", false, "skip cross-reference lookups")
	importCmd.Flags().StringVar(&ambiguousOut, "ambiguous-out", "", "hold ambiguous candidates back and write them to this file")
	importCmd.Flags().IntVar(&importWorkers, "workers", 0, "concurrent xref fetches (default: concurrency.fetch_workers)")
}

func runImport(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, importTimeout)
	defer cancel()

	workers := importWorkers
	if workers <= 0 {
		workers = a.cfg.Concurrency.FetchWorkers
	}
	opts := []pipeline.Option{
		pipeline.WithRegistry(a.registry),
		pipeline.WithLogger(a.logger),
		pipeline.WithWorkers(workers),
	}

	if exclusionsPath != "" {
		table, err := loadExclusions(exclusionsPath)
		if err != nil {
			return err
		}
		opts = append(opts, pipeline.WithExclusions(table))
	}

	if !noXrefs {
		if p := a.provider(); p != nil {
			opts = append(opts, pipeline.WithProvider(p))
			if useMutual {
				opts = append(opts, pipeline.WithMutualMappings(mutualVia...))
			}
		} else if useMutual {
			return fmt.Errorf("--mutual needs xrefs.dir or xrefs.base_url")
		}
	}

	if ambiguousOut != "" {
		opts = append(opts, pipeline.WithAmbiguousHeld())
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Importing: %s\n", args[0])
		fmt.Fprintf(os.Stderr, "Repository: %s\n", a.cfg.Repository.Dir)
		fmt.Fprintln(os.Stderr)
	}

	result, err := pipeline.New(a.store, opts...).ImportFile(ctx, args[0])
	if err != nil {
		return err
	}

	if ambiguousOut != "" {
		if err := store.WriteFile(ambiguousOut, store.Header{}, result.Ambiguous); err != nil {
			return fmt.Errorf("write ambiguous candidates: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Wrote %d ambiguous candidates: %s\n", len(result.Ambiguous), ambiguousOut)
	}

	fmt.Fprintf(os.Stderr, "✓ Read %d candidates (%d invalid)\n", result.Read, result.Invalid)
	for _, name := range slices.Sorted(maps.Keys(result.Rejected)) {
		if n := result.Rejected[name]; n > 0 {
			fmt.Fprintf(os.Stderr, "  %-16s %d rejected\n", name, n)
		}
	}
	fmt.Fprintf(os.Stderr, "✓ Added %d predictions\n", result.Added)
	return nil
}

// loadExclusions reads subject/object pairs into a table indexed both ways
func loadExclusions(path string) (filter.ExclusionTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open exclusions: %w", err)
	}
	defer func() { _ = f.Close() }()

	pairs, err := xref.ParseTSV(f)
	if err != nil {
		return nil, fmt.Errorf("parse exclusions: %w", err)
	}
	table := filter.ExclusionTable{}
	for _, p := range pairs {
		table.Add(p.Subject, p.Object)
		table.Add(p.Object, p.Subject)
	}
	return table, nil
}
