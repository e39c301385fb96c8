package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/svanichkin/strata"
	"github.com/svanichkin/strata/internal/entropy"
)

const fileExt = ".strata"

type flags struct {
	output      string
	bandRows    int
	workers     int
	coder       string
	level       int
	rawFallback bool
	verbose     bool
}

func (f *flags) options() (*strata.Options, error) {
	kind, err := entropy.ParseKind(f.coder)
	if err != nil {
		return nil, err
	}
	if f.bandRows < 0 {
		return nil, fmt.Errorf("band-rows must be positive, got %d", f.bandRows)
	}
	return &strata.Options{
		BandRows:    f.bandRows,
		Workers:     f.workers,
		Coder:       kind,
		Level:       f.level,
		RawFallback: f.rawFallback,
	}, nil
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:   "strata <input-image | input.strata>",
		Short: "Lossless banded image codec",
		Long: "Encode: strata <input-image>   (PNG, JPEG or GIF -> .strata)\n" +
			"Decode: strata <input.strata>  (.strata -> PNG)",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := args[0]
			if strings.EqualFold(filepath.Ext(in), fileExt) {
				return runDecode(cmd, f, in)
			}
			return runEncode(cmd, f, in)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&f.output, "output", "o", "", "output path (default: input with the other extension)")
	pf.IntVar(&f.bandRows, "band-rows", strata.DefaultBandRows, "image rows per independently coded band (decode: 0 derives it)")
	pf.IntVar(&f.workers, "workers", 0, "bands processed at once (0 = GOMAXPROCS)")
	pf.StringVar(&f.coder, "coder", string(strata.Zstd), "entropy coder: zstd or zlib")
	pf.IntVar(&f.level, "level", 0, "entropy coder level (0 = coder default)")
	pf.BoolVar(&f.rawFallback, "raw-fallback", false, "keep an unfiltered band when it entropy-codes smaller")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "print timing and size details")

	root.AddCommand(
		&cobra.Command{
			Use:   "encode <input-image>",
			Short: "Encode a PNG, JPEG or GIF image",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runEncode(cmd, f, args[0])
			},
		},
		&cobra.Command{
			Use:   "decode <input.strata>",
			Short: "Decode a .strata file to PNG",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runDecode(cmd, f, args[0])
			},
		},
	)
	return root
}

func outputPath(f *flags, in, ext string) string {
	if f.output != "" {
		return f.output
	}
	return strings.TrimSuffix(in, filepath.Ext(in)) + ext
}
