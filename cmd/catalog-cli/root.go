package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"storefront/internal/catalog"
	"storefront/internal/docstore"
	"storefront/internal/media"
	"storefront/pkg/logger"
	"storefront/pkg/utils"
)

type app struct {
	cfg    utils.AppConfig
	log    *zap.Logger
	mirror *catalog.Mirror
	close  func() error
}

var (
	storeDriver string
	verbose     bool
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "catalog-cli",
		Short:         "Inspect and edit the storefront catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return utils.LoadEnvFiles()
		},
	}
	root.PersistentFlags().StringVar(&storeDriver, "store", "", "store driver override (memory, redis, sqlite3, postgres)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr")

	root.AddCommand(newInitCmd(), newProductsCmd(), newCategoriesCmd(), newExportCmd(), newImportCmd())
	return root
}

// openApp builds the mirror and initializes it (seeding an empty store).
func openApp(ctx context.Context) (*app, error) {
	cfg := utils.LoadAppConfig()
	if storeDriver != "" {
		cfg.Store.Driver = storeDriver
	}

	log := logger.Nop()
	if verbose {
		cfg.Log.OutputPaths = []string{"stderr"}
		l, err := logger.New(cfg.Log)
		if err != nil {
			return nil, err
		}
		log = l
	}

	store, closeStore, err := docstore.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	var host media.Host
	if cfg.MediaEnabled() {
		host = media.NewClient(cfg.Media)
	}

	m := catalog.NewMirror(store, host, nil, log)
	if err := m.Initialize(ctx); err != nil {
		_ = closeStore()
		return nil, err
	}
	return &app{cfg: cfg, log: log, mirror: m, close: closeStore}, nil
}

// withApp opens the app for the command's context and closes it afterwards.
func withApp(fn func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer func() {
			_ = a.log.Sync()
			_ = a.close()
		}()
		return fn(cmd, args, a)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printWarnings(w io.Writer, out catalog.Outcome) {
	for _, warn := range out.Warnings {
		fmt.Fprintln(w, "warning:", warn.String())
	}
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Seed empty collections and report what the store holds",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, _ []string, a *app) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "categories: %d\n", len(a.mirror.Categories()))
			fmt.Fprintf(out, "products:   %d\n", len(a.mirror.Products()))
			if orphans := a.mirror.Orphans(); len(orphans) > 0 {
				fmt.Fprintf(out, "orphans:    %d\n", len(orphans))
				for _, it := range orphans {
					fmt.Fprintf(out, "  %s (%s) -> unknown category %q\n", it.ID, it.Name, it.Category)
				}
			}
			return nil
		}),
	}
}

func newCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories [id]",
		Short: "List categories, or the item types of one",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			if len(args) == 1 {
				types, err := a.mirror.ItemTypes(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), types)
			}
			return printJSON(cmd.OutOrStdout(), a.mirror.Categories())
		}),
	}
}
