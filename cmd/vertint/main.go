// Command vertint remaps hybrid sigma-pressure model-level fields in a netCDF file onto
// pressure or height levels.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"go.ngs.io/vertint/internal/adapter/store/cf"
	"go.ngs.io/vertint/internal/adapter/store/csv"
	"go.ngs.io/vertint/internal/config"
	"go.ngs.io/vertint/internal/domain"
	"go.ngs.io/vertint/internal/usecase"
)

const version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.New()
	var cfg config.Config

	root := &cobra.Command{
		Use:   "vertint <operator> <levels|default> <infile> <outfile>",
		Short: "Interpolate model-level fields to pressure or height levels",
		Long: `Interpolate fields on hybrid sigma-pressure model levels to pressure levels
(ml2pl*) or height levels (ml2hl*). Operators with an x suffix extrapolate below the
surface and above the model top; the _lp variants interpolate in log-pressure.

With --levels-file the levels argument is omitted.

Environment variables:
` + config.Usage(),
		Args:         cobra.RangeArgs(3, 4),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(v)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			log := cfg.NewLogger()
			log.SetOutput(cmd.ErrOrStderr())
			return remap(cmd.Context(), cfg, args, log)
		},
	}
	if err := config.BindFlags(v, root.PersistentFlags(), config.KeyConfig, config.KeyLogLevel, config.KeyVerbose); err != nil {
		panic(err)
	}
	if err := config.BindFlags(v, root.Flags(), config.KeyLevelsFile); err != nil {
		panic(err)
	}

	root.AddCommand(&cobra.Command{
		Use:   "operators",
		Short: "List the available operators",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			printOperators(cmd.OutOrStdout())
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number of vertint",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "vertint version %s\n", version)
		},
	})
	return root
}

// remap runs one operator. args are the operator, the levels (unless a levels file is
// configured) and the input and output paths.
func remap(ctx context.Context, cfg config.Config, args []string, log *logrus.Logger) error {
	req := usecase.RemapRequest{Operator: args[0], Extrapolate: cfg.Extrapolate}
	var inPath, outPath string
	if cfg.LevelsFile != "" {
		if len(args) != 3 {
			return fmt.Errorf("expected <operator> <infile> <outfile> with --levels-file, got %d arguments", len(args))
		}
		values, err := csv.LoadFile(cfg.LevelsFile)
		if err != nil {
			return err
		}
		req.Values = values
		inPath, outPath = args[1], args[2]
	} else {
		if len(args) != 4 {
			return fmt.Errorf("expected <operator> <levels|default> <infile> <outfile>, got %d arguments", len(args))
		}
		req.Levels = strings.Fields(args[1])
		inPath, outPath = args[2], args[3]
	}

	// Request errors are reported before the input is touched.
	if _, _, err := req.Validate(); err != nil {
		return err
	}

	src, err := cf.Open(inPath, log)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	dst := cf.Create(outPath)
	defer func() { _ = dst.Abort() }()
	result, err := usecase.NewRemapUseCase(log, nil).Execute(ctx, req, src, dst)
	if err != nil {
		return err
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}

	log.WithFields(logrus.Fields{
		"output":       outPath,
		"timesteps":    result.Timesteps,
		"records":      result.RecordsOut,
		"interpolated": len(result.Interpolated),
		"warnings":     result.Warnings,
	}).Info("Output written")
	return nil
}

func printOperators(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "OPERATOR\tLEVELS\tEXTRAPOLATE\tSCALE")
	for _, op := range domain.Operators {
		extrapolate := "EXTRAPOLATE"
		if op.Extrapolate {
			extrapolate = "always"
		}
		scale := "linear"
		if op.Scale == domain.ScaleLog {
			scale = "log"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", op.Name, op.Description, extrapolate, scale)
	}
	_ = tw.Flush()
}
