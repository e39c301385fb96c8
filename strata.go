// Package strata is a lossless codec for RGBA8 pixel buffers.
//
// An image is cut into horizontal bands. Every band is decorrelated with
// subtract-green, filtered row by row with the cheapest of five PNG-style
// predictors, and handed to a general-purpose entropy coder. Bands never
// read across their own boundary (the first row of each band is predicted
// from a zero row), so they encode and decode in parallel.
//
// The container is:
//
//	int32  width, height, bandCount       (little-endian)
//	int32  bandLength[bandCount]
//	bytes  bandPayload[bandCount]
package strata

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/svanichkin/strata/internal/container"
	"github.com/svanichkin/strata/internal/entropy"
	"github.com/svanichkin/strata/internal/predict"
)

// BytesPerPixel is fixed: R, G, B, A at 8 bits each.
const BytesPerPixel = predict.Bpp

// DefaultBandRows is the default band height.
const DefaultBandRows = 256

// DefaultMaxPixels bounds width*height accepted by the decoder.
const DefaultMaxPixels = 1 << 28

var (
	// ErrShapeMismatch reports a pixel buffer whose length is not
	// width*height*4.
	ErrShapeMismatch = errors.New("strata: pixel buffer does not match dimensions")

	// ErrMalformedContainer reports an inconsistent header, length table or
	// band plaintext.
	ErrMalformedContainer = container.ErrMalformed

	// ErrEntropyCoder reports a band payload rejected by the entropy coder.
	ErrEntropyCoder = entropy.ErrCorrupt
)

// BandError ties a failure to the band that produced it.
type BandError struct {
	Band int
	Err  error
}

func (e *BandError) Error() string { return fmt.Sprintf("strata: band %d: %v", e.Band, e.Err) }

func (e *BandError) Unwrap() error { return e.Err }

// Coder names an entropy coder.
type Coder = entropy.Kind

const (
	Zstd = entropy.Zstd
	Zlib = entropy.Zlib
)

// Options configures encoding and decoding. A nil *Options means
// DefaultOptions.
type Options struct {
	// BandRows is the number of image rows per band. On decode, a non-zero
	// value additionally requires the container to have been written with
	// the same band height.
	BandRows int

	// Workers bounds the number of bands processed at once. Zero means
	// runtime.GOMAXPROCS(0).
	Workers int

	// Coder selects the entropy coder; both sides must agree.
	Coder Coder

	// Level is passed to the entropy coder. Zero selects its default.
	Level int

	// RawFallback also entropy-codes every band without prediction and
	// keeps whichever payload is smaller. Decoding needs no setting.
	RawFallback bool

	// MaxPixels rejects containers declaring more than this many pixels.
	// Zero means DefaultMaxPixels.
	MaxPixels int
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		BandRows:  DefaultBandRows,
		Workers:   runtime.GOMAXPROCS(0),
		Coder:     Zstd,
		MaxPixels: DefaultMaxPixels,
	}
}

// withDefaults fills unset fields. BandRows is left alone on decode so that
// zero keeps meaning "derive from the payloads".
func (o *Options) withDefaults(encoding bool) Options {
	def := DefaultOptions()
	if o == nil {
		if !encoding {
			def.BandRows = 0
		}
		return def
	}
	out := *o
	if out.BandRows <= 0 {
		out.BandRows = 0
		if encoding {
			out.BandRows = def.BandRows
		}
	}
	if out.Workers <= 0 {
		out.Workers = def.Workers
	}
	if out.Coder == "" {
		out.Coder = def.Coder
	}
	if out.MaxPixels <= 0 {
		out.MaxPixels = def.MaxPixels
	}
	return out
}

// Image is a row-major RGBA8 pixel buffer with no padding between rows.
type Image struct {
	Pix    []byte
	Width  int
	Height int
}

// Stride returns the number of bytes per row.
func (m *Image) Stride() int { return m.Width * BytesPerPixel }

// Stats describes the most recent Encode.
type Stats struct {
	Bands          int
	PlainBytes     int
	PayloadBytes   int
	ContainerBytes int
	// RowsPerFilter counts rows by chosen predictor: none, sub, up,
	// average, paeth.
	RowsPerFilter [predict.NumKinds]int
	// RawBands counts bands stored without prediction (RawFallback).
	RawBands int
}

// FilterName returns the predictor name for a RowsPerFilter index.
func FilterName(i int) string { return predict.Kind(i).String() }

// checkShape validates a pixel buffer against its dimensions.
func checkShape(pix []byte, width, height int) error {
	if width < 0 || height < 0 {
		return fmt.Errorf("%w: negative dimensions %dx%d", ErrShapeMismatch, width, height)
	}
	if width > 0 && height > (maxInt/BytesPerPixel)/width {
		return fmt.Errorf("%w: %dx%d overflows", ErrShapeMismatch, width, height)
	}
	if want := width * height * BytesPerPixel; len(pix) != want {
		return fmt.Errorf("%w: have %d bytes, %dx%d needs %d", ErrShapeMismatch, len(pix), width, height, want)
	}
	return nil
}

const maxInt = int(^uint(0) >> 1)
