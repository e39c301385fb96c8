package strata

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/svanichkin/strata/internal/colorxf"
	"github.com/svanichkin/strata/internal/container"
	"github.com/svanichkin/strata/internal/entropy"
	"github.com/svanichkin/strata/internal/rowfilter"
)

// Decoder keeps an entropy coder pool and per-band scratch buffers between
// calls. It is safe to reuse but not for concurrent use.
type Decoder struct {
	opts    Options
	pool    entropy.Pool
	scratch scratchPool
}

// NewDecoder builds a Decoder. A nil opts means DefaultOptions with band
// height derived from the container.
func NewDecoder(opts *Options) (*Decoder, error) {
	o := opts.withDefaults(false)
	pool, err := entropy.NewPool(o.Coder, o.Level)
	if err != nil {
		return nil, err
	}
	return &Decoder{opts: o, pool: pool}, nil
}

// Decode reconstructs the image stored in data.
//
// Band 0 is entropy-decoded first; its row count is the band height, which
// fixes the absolute row range of every other band. All bands are then
// rebuilt in one parallel round, each decoding its own payload, unfiltering
// it into its rows of the output and undoing the color transform there.
// No payload is allowed to expand past the rows its band can hold.
func (d *Decoder) Decode(data []byte) (*Image, error) {
	c, err := container.Parse(data)
	if err != nil {
		return nil, err
	}
	width, height := c.Width, c.Height
	if height > d.opts.MaxPixels/max(width, 1) {
		return nil, fmt.Errorf("%w: %dx%d exceeds the %d pixel limit", ErrMalformedContainer, width, height, d.opts.MaxPixels)
	}
	stride := width * BytesPerPixel
	rowLen := stride + 1
	count := len(c.Payloads)
	if count == 0 {
		return &Image{Pix: []byte{}, Width: width, Height: height}, nil
	}

	if d.opts.BandRows > 0 {
		if want := bandCount(height, d.opts.BandRows); count != want {
			return nil, fmt.Errorf("%w: %d bands, %d rows at %d rows per band needs %d",
				ErrMalformedContainer, count, height, d.opts.BandRows, want)
		}
	}

	first := d.scratch.get()
	defer d.scratch.put(first)
	bandRows, err := d.bandHeight(c.Payloads[0], first, rowLen, height, count)
	if err != nil {
		return nil, err
	}
	bands := partition(height, bandRows)

	img := &Image{Pix: make([]byte, height*stride), Width: width, Height: height}
	err = forEachBand(count, d.opts.Workers, func(i int) error {
		b := bands[i]
		s := first
		if i > 0 {
			s = d.scratch.get()
			defer d.scratch.put(s)
			if err := d.decompress(s, c.Payloads[i], b.rows()*rowLen); err != nil {
				return err
			}
			if want := b.rows() * rowLen; len(s.plain) != want {
				return fmt.Errorf("%w: plaintext of %d bytes, expected %d rows of %d bytes",
					ErrMalformedContainer, len(s.plain), b.rows(), rowLen)
			}
		}

		dst := img.Pix[b.start*stride : b.end*stride]
		if err := rowfilter.DecodeBand(dst, s.plain, stride); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedContainer, err)
		}
		colorxf.Inverse(dst)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return img, nil
}

// bandHeight entropy-decodes band 0 into s and returns its row count. Every
// band but the last holds that many rows, so count bands of R rows must
// satisfy ceil(height/R) == count; band 0 is never allowed to expand past
// the largest such R.
func (d *Decoder) bandHeight(payload []byte, s *scratch, rowLen, height, count int) (int, error) {
	lo, hi := (height+count-1)/count, height
	if count > 1 {
		hi = (height - 1) / (count - 1)
	}
	if d.opts.BandRows > 0 {
		lo = min(d.opts.BandRows, height)
		hi = lo
	}
	if lo > hi {
		return 0, fmt.Errorf("%w: %d bands of equal height cannot cover %d rows", ErrMalformedContainer, count, height)
	}

	if err := d.decompress(s, payload, hi*rowLen); err != nil {
		return 0, &BandError{Band: 0, Err: err}
	}
	rows := len(s.plain) / rowLen
	if len(s.plain)%rowLen != 0 || rows < lo {
		return 0, &BandError{Band: 0, Err: fmt.Errorf("%w: plaintext of %d bytes is not %d to %d rows of %d bytes",
			ErrMalformedContainer, len(s.plain), lo, hi, rowLen)}
	}
	return rows, nil
}

// decompress entropy-decodes payload into s.plain, reusing its storage.
// Output beyond limit is a container fault, not a coder one.
func (d *Decoder) decompress(s *scratch, payload []byte, limit int) error {
	return entropy.With(d.pool, func(coder entropy.Coder) error {
		plain, err := coder.Decompress(s.plain[:0], payload, limit)
		if errors.Is(err, entropy.ErrTooLarge) {
			return fmt.Errorf("%w: %w", ErrMalformedContainer, err)
		}
		if err != nil {
			return err
		}
		s.plain = plain
		return nil
	})
}

// DecodeFrom reads all of r and decodes it.
func (d *Decoder) DecodeFrom(r io.Reader) (*Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return d.Decode(data)
}

var defaultDecoders = sync.Pool{
	New: func() any {
		d, err := NewDecoder(nil)
		if err != nil {
			panic(err)
		}
		return d
	},
}

// Decode reconstructs an image with opts (nil means defaults).
func Decode(data []byte, opts *Options) (*Image, error) {
	if opts == nil {
		d := defaultDecoders.Get().(*Decoder)
		defer defaultDecoders.Put(d)
		return d.Decode(data)
	}
	d, err := NewDecoder(opts)
	if err != nil {
		return nil, err
	}
	return d.Decode(data)
}
