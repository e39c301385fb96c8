package main

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/svanichkin/strata"
)

func runEncode(cmd *cobra.Command, f *flags, inPath string) error {
	opts, err := f.options()
	if err != nil {
		return err
	}
	outPath := outputPath(f, inPath, fileExt)

	in, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer in.Close()

	img, _, err := image.Decode(in)
	if err != nil {
		return fmt.Errorf("read %s: %w", inPath, err)
	}

	enc, err := strata.NewEncoder(opts)
	if err != nil {
		return err
	}

	start := time.Now()
	data, err := enc.EncodeImage(img)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	elapsed := time.Since(start)

	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Encoded %s → %s\n", inPath, outPath)
	if f.verbose {
		b := img.Bounds()
		st := enc.Stats()
		eff := enc.Options()
		raw := b.Dx() * b.Dy() * strata.BytesPerPixel
		fmt.Fprintf(cmd.ErrOrStderr(), "%dx%d coder=%s band_rows=%d workers=%d\n",
			b.Dx(), b.Dy(), eff.Coder, eff.BandRows, eff.Workers)
		fmt.Fprintf(cmd.ErrOrStderr(), "bands=%d raw_bands=%d encode=%v size=%d ratio=%.3f\n",
			st.Bands, st.RawBands, elapsed, st.ContainerBytes, ratio(raw, st.ContainerBytes))
		for i, n := range st.RowsPerFilter {
			fmt.Fprintf(cmd.ErrOrStderr(), "  %-7s %d rows\n", strata.FilterName(i), n)
		}
	}
	return nil
}

func runDecode(cmd *cobra.Command, f *flags, inPath string) error {
	opts, err := f.options()
	if err != nil {
		return err
	}
	// The band height is recovered from the container unless the user
	// asked for a specific one.
	if !cmd.Flags().Changed("band-rows") {
		opts.BandRows = 0
	}
	outPath := outputPath(f, inPath, ".png")

	dec, err := strata.NewDecoder(opts)
	if err != nil {
		return err
	}

	in, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer in.Close()

	start := time.Now()
	m, err := dec.DecodeFrom(in)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	elapsed := time.Since(start)

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	if err := png.Encode(out, m.NRGBA()); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Decoded %s → %s\n", inPath, outPath)
	if f.verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "%dx%d decode=%v\n", m.Width, m.Height, elapsed)
	}
	return nil
}

func ratio(raw, packed int) float64 {
	if packed == 0 {
		return 0
	}
	return float64(raw) / float64(packed)
}
