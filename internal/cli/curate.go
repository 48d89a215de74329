package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/biomap/internal/curate"
	"github.com/ppiankov/biomap/internal/model"
	"github.com/ppiankov/biomap/internal/server"
)

var (
	serveAddr   string
	targetsPath string
)

// addCmd stores one manually curated exact match
var addCmd = &cobra.Command{
	Use:   "add <subject> <object>",
	Short: "Add a manually curated exact match to the positive set",
	Long: `Add records subject skos:exactMatch object as a manual curation by the
current curator. Both CURIEs are normalized against the prefix registry.

Example:
  biomap add mesh:D001249 doid:2841`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		subject, err := model.ParseCURIE(args[0])
		if err != nil {
			return err
		}
		object, err := model.ParseCURIE(args[1])
		if err != nil {
			return err
		}

		ctrl, err := a.controller()
		if err != nil {
			return err
		}
		if err := ctrl.AddMapping(subject, object); err != nil {
			return err
		}
		if err := ctrl.Persist(); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "✓ Added %s %s %s\n", args[0], model.ExactMatch.CURIE(), args[1])
		return nil
	},
}

// serveCmd runs the curation HTTP surface
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the curation API",
	Long: `Serve starts an HTTP API for reviewing predictions. Each mark is
persisted to the mapping repository as soon as it is made.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		ctrl, err := a.controller()
		if err != nil {
			return err
		}

		addr := serveAddr
		if addr == "" {
			addr = a.cfg.Server.Addr
		}
		srv := server.New(ctrl,
			server.WithResolverBase(a.cfg.Server.ResolverBase),
			server.WithLogger(a.logger),
		)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Fprintf(os.Stderr, "✓ Curating as %s, %d predictions pending\n", ctrl.User(), ctrl.TotalPredictions())
		return srv.Run(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: server.addr)")
	serveCmd.Flags().StringVar(&targetsPath, "targets", "", "file of CURIEs, one per line; only predictions touching one are shown")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(serveCmd)
}

// controller opens a curation session for the current curator
func (a *app) controller() (*curate.Controller, error) {
	user, err := a.currentCurator()
	if err != nil {
		return nil, err
	}

	opts := []curate.Option{curate.WithRegistry(a.registry), curate.WithLogger(a.logger)}
	if targetsPath != "" {
		refs, err := readTargets(targetsPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, curate.WithTargetReferences(refs))
	}
	return curate.New(a.store, user, opts...)
}

func readTargets(path string) ([]model.Reference, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open targets: %w", err)
	}
	defer func() { _ = f.Close() }()

	var refs []model.Reference
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ref, err := model.ParseCURIE(line)
		if err != nil {
			return nil, fmt.Errorf("targets: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read targets: %w", err)
	}
	return refs, nil
}
