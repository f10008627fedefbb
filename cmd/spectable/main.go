// Command spectable extracts tabular datasets from FITS containers and
// exports them as delimited text.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/VanDung-dev/SpecTable-Engine/api"
	"github.com/VanDung-dev/SpecTable-Engine/cache"
	"github.com/VanDung-dev/SpecTable-Engine/config"
	"github.com/VanDung-dev/SpecTable-Engine/fits"
	"github.com/VanDung-dev/SpecTable-Engine/pipeline"
	"github.com/VanDung-dev/SpecTable-Engine/plot"
	"github.com/VanDung-dev/SpecTable-Engine/table"
	"github.com/VanDung-dev/SpecTable-Engine/tree"
)

var (
	flagConfig   string
	flagCategory string
	flagTable    string
	flagVerbose  bool
)

func main() {
	root := &cobra.Command{
		Use:           "spectable",
		Short:         "Extract tabular datasets from FITS containers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (YAML)")
	root.PersistentFlags().StringVar(&flagCategory, "category", "", "tree category holding the table")
	root.PersistentFlags().StringVar(&flagTable, "table", "", "table key inside the category entry")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	root.AddCommand(inspectCmd(), convertCmd(), serveCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// setup loads configuration and builds the logger and hint shared by
// every subcommand.
func setup() (*config.Config, tree.Hint, zerolog.Logger, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, tree.Hint{}, zerolog.Nop(), err
	}
	if flagCategory != "" {
		cfg.Category = flagCategory
	}
	if flagTable != "" {
		cfg.Table = flagTable
	}

	hint := tree.DefaultHint(cfg.Category)
	if cfg.Table != "" {
		hint.Table = cfg.Table
	}

	level := zerolog.InfoLevel
	if flagVerbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	return cfg, hint, log, nil
}

func inspectCmd() *cobra.Command {
	var xy string
	cmd := &cobra.Command{
		Use:   "inspect <container>",
		Short: "Print the metadata tree without reading table payloads",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, hint, log, err := setup()
			if err != nil {
				return err
			}

			t, err := fits.Open(args[0])
			if err != nil {
				return err
			}
			t.Write(cmd.OutOrStdout())

			ref, err := tree.FindTable(t, hint)
			if err != nil {
				log.Warn().Err(err).Msg("no table under hint")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\ntable %s: shape=%v, %d fields\n",
				hint.Table, ref.Shape(), len(ref.Schema()))
			for _, f := range ref.Schema() {
				fmt.Fprintf(cmd.OutOrStdout(), "  %-12s %s (%s)\n", f.Name, f.Type, f.Order)
			}

			if xy == "" {
				return nil
			}
			return writePreview(cmd.OutOrStdout(), ref, xy)
		},
	}
	cmd.Flags().StringVar(&xy, "xy", "",
		"preview two numeric fields, comma-separated (e.g. WAVELENGTH,FLUX)")
	return cmd
}

// previewRows caps the number of value pairs inspect prints.
const previewRows = 10

// writePreview materializes the table and prints the head of two
// numeric columns named as "X,Y".
func writePreview(w io.Writer, ref *table.Ref, xy string) error {
	names := strings.Split(xy, ",")
	if len(names) != 2 {
		return fmt.Errorf("--xy wants two comma-separated field names, got %q", xy)
	}
	x, y := strings.TrimSpace(names[0]), strings.TrimSpace(names[1])

	tbl, err := ref.Materialize()
	if err != nil {
		return err
	}
	defer tbl.Release()

	xs, ys, err := plot.Columns(tbl, x, y)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%s %s\n", x, y)
	n := len(xs)
	if n > previewRows {
		n = previewRows
	}
	for i := 0; i < n; i++ {
		fmt.Fprintf(w, "%g %g\n", xs[i], ys[i])
	}
	if len(xs) > n {
		fmt.Fprintf(w, "... %d more\n", len(xs)-n)
	}
	return nil
}

func convertCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "convert <container>...",
		Short: "Export each container's table to a CSV file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, hint, log, err := setup()
			if err != nil {
				return err
			}
			metrics := api.NewMetrics("spectable", prometheus.DefaultRegisterer)
			pipe := pipeline.New(hint, log).WithRecorder(metrics)

			if len(args) == 1 {
				dest := ""
				if out != "" {
					dest = pipeline.DeriveDest(args[0], out)
				}
				res, err := pipe.Convert(args[0], dest)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), res.Dest)
				return nil
			}

			results, stats := pipe.ConvertBatch(cmd.Context(), args, out, cfg.Workers)
			for _, r := range results {
				if r.Err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", r.Path, r.Err)
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), r.Dest)
				}
			}
			if stats.Failed > 0 {
				return fmt.Errorf("%d of %d conversions failed", stats.Failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out-dir", "o", "", "directory for CSV output")
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve materialized tables over ZeroMQ with Prometheus metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, hint, log, err := setup()
			if err != nil {
				return err
			}

			metrics := api.NewMetrics("spectable", prometheus.DefaultRegisterer)
			metricsSrv := api.NewMetricsServer(cfg.MetricsAddr)
			metricsSrv.StartAsync()
			defer metricsSrv.Stop()

			c := cache.New(cfg.CacheSize, cfg.CacheTTL)
			srv := api.NewPreviewServer(cfg.ListenAddr, hint, c, metrics, log)
			if err := srv.Start(); err != nil {
				return err
			}
			defer srv.Stop()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()
			log.Info().Msg("shutting down")
			return nil
		},
	}
}
