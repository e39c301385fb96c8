package strata

import (
	"io"
	"sync"

	"github.com/svanichkin/strata/internal/colorxf"
	"github.com/svanichkin/strata/internal/container"
	"github.com/svanichkin/strata/internal/entropy"
	"github.com/svanichkin/strata/internal/predict"
	"github.com/svanichkin/strata/internal/rowfilter"
)

// Encoder keeps an entropy coder pool, per-band scratch buffers and the
// statistics of its last call. It is not safe for concurrent use; the
// bands of a single call run in parallel internally.
type Encoder struct {
	opts    Options
	pool    entropy.Pool
	scratch scratchPool
	stats   Stats
}

// NewEncoder builds an Encoder. A nil opts means DefaultOptions.
func NewEncoder(opts *Options) (*Encoder, error) {
	o := opts.withDefaults(true)
	pool, err := entropy.NewPool(o.Coder, o.Level)
	if err != nil {
		return nil, err
	}
	return &Encoder{opts: o, pool: pool}, nil
}

// Options returns the effective options.
func (e *Encoder) Options() Options { return e.opts }

// Stats returns statistics for the most recent successful Encode.
func (e *Encoder) Stats() Stats { return e.stats }

type bandResult struct {
	payload []byte
	plain   int
	hist    rowfilter.Histogram
	raw     bool
}

// Encode compresses pix, a width*height*4 byte RGBA8 buffer. pix is not
// modified.
func (e *Encoder) Encode(pix []byte, width, height int) ([]byte, error) {
	if err := checkShape(pix, width, height); err != nil {
		return nil, err
	}

	stride := width * BytesPerPixel
	bands := partition(height, e.opts.BandRows)
	results := make([]bandResult, len(bands))

	err := forEachBand(len(bands), e.opts.Workers, func(i int) error {
		return entropy.With(e.pool, func(c entropy.Coder) error {
			res, err := e.encodeBand(pix, stride, bands[i], c)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	payloads := make([][]byte, len(results))
	var st Stats
	var hist rowfilter.Histogram
	st.Bands = len(bands)
	for i, r := range results {
		payloads[i] = r.payload
		st.PlainBytes += r.plain
		st.PayloadBytes += len(r.payload)
		hist.Add(r.hist)
		if r.raw {
			st.RawBands++
		}
	}
	st.RowsPerFilter = hist

	out, err := container.Append(nil, width, height, payloads)
	if err != nil {
		return nil, err
	}
	st.ContainerBytes = len(out)
	e.stats = st
	return out, nil
}

// EncodeTo encodes pix and writes the container to w.
func (e *Encoder) EncodeTo(w io.Writer, pix []byte, width, height int) error {
	out, err := e.Encode(pix, width, height)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// encodeBand copies the band out of pix, decorrelates it, filters every
// row and entropy-codes the result. The working copies live in pooled
// scratch; only the compressed payload escapes.
func (e *Encoder) encodeBand(pix []byte, stride int, b band, c entropy.Coder) (bandResult, error) {
	s := e.scratch.get()
	defer e.scratch.put(s)

	rows := b.rows()
	s.raw = sized(s.raw, rows*stride)
	raw := s.raw
	copy(raw, pix[b.start*stride:b.end*stride])
	colorxf.Forward(raw)

	var res bandResult
	s.plain = rowfilter.EncodeBand(s.plain[:0], raw, rows, stride, &res.hist)
	plain := s.plain
	res.plain = len(plain)

	payload, err := c.Compress(nil, plain)
	if err != nil {
		return res, err
	}
	res.payload = payload

	if e.opts.RawFallback {
		s.plain = rowfilter.EncodeBandRaw(plain[:0], raw, rows, stride)
		unfiltered := s.plain
		alt, err := c.Compress(nil, unfiltered)
		if err != nil {
			return res, err
		}
		if len(alt) < len(res.payload) {
			res.payload = alt
			res.raw = true
			res.hist = rowfilter.Histogram{}
			res.hist[predict.None] = rows
		}
	}
	return res, nil
}

var defaultEncoders = sync.Pool{
	New: func() any {
		e, err := NewEncoder(nil)
		if err != nil {
			panic(err)
		}
		return e
	},
}

// Encode compresses pix with opts (nil means DefaultOptions).
func Encode(pix []byte, width, height int, opts *Options) ([]byte, error) {
	if opts == nil {
		e := defaultEncoders.Get().(*Encoder)
		defer defaultEncoders.Put(e)
		return e.Encode(pix, width, height)
	}
	e, err := NewEncoder(opts)
	if err != nil {
		return nil, err
	}
	return e.Encode(pix, width, height)
}
