package strata

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// band is a half-open row range [start, end) of the image.
type band struct {
	index      int
	start, end int
}

func (b band) rows() int { return b.end - b.start }

// partition cuts [0, height) into bands of bandRows rows; the last band
// may be shorter. Every band lies inside the image by construction.
func partition(height, bandRows int) []band {
	if height <= 0 {
		return nil
	}
	n := bandCount(height, bandRows)
	bands := make([]band, n)
	for i := range bands {
		start := i * bandRows
		bands[i] = band{index: i, start: start, end: min(start+bandRows, height)}
	}
	return bands
}

// bandCount is ceil(height / bandRows).
func bandCount(height, bandRows int) int {
	return (height + bandRows - 1) / bandRows
}

// forEachBand runs fn for bands 0..n-1 on at most workers goroutines. A
// failing band does not interrupt bands already running; bands not yet
// started are skipped. Once everything has stopped, the error of the
// lowest-numbered failed band is returned.
func forEachBand(n, workers int, fn func(i int) error) error {
	if n == 0 {
		return nil
	}
	errs := make([]error, n)

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			if err := fn(i); err != nil {
				errs[i] = err
				return err
			}
			return nil
		})
	}
	if g.Wait() == nil {
		return nil
	}

	failed := 0
	var first error
	for i, err := range errs {
		if err == nil {
			continue
		}
		failed++
		if first == nil {
			first = &BandError{Band: i, Err: err}
		}
	}
	if failed == 1 {
		return first
	}
	return fmt.Errorf("%w (%d bands failed)", first, failed)
}
