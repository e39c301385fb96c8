// Package rowfilter implements the adaptive per-row predictive filter.
//
// Every encoded row is one tag byte (a predict.Kind) followed by stride
// residual bytes. The first row of a band is predicted from a virtual
// all-zero row so bands never read across their own boundary.
package rowfilter

import (
	"fmt"

	"github.com/svanichkin/strata/internal/predict"
)

const bpp = predict.Bpp

// Costs holds the selection cost of every predictor for one row.
type Costs [predict.NumKinds]int

// Histogram counts how many rows picked each predictor.
type Histogram [predict.NumKinds]int

// Add accumulates o into h.
func (h *Histogram) Add(o Histogram) {
	for i := range h {
		h[i] += o[i]
	}
}

// RowCosts returns, for each predictor, the sum over the row of the
// absolute signed value of the residual byte.
func RowCosts(cur, prev []byte) Costs {
	var costs Costs
	for i := range cur {
		var a, c byte
		if i >= bpp {
			a = cur[i-bpp]
			c = prev[i-bpp]
		}
		b := prev[i]
		x := cur[i]

		costs[predict.None] += absSigned(x)
		costs[predict.Sub] += absSigned(predict.Encode(x, a))
		costs[predict.Up] += absSigned(predict.Encode(x, b))
		costs[predict.Average] += absSigned(predict.Encode(x, predict.Predict(predict.Average, a, b, c)))
		costs[predict.Paeth] += absSigned(predict.Encode(x, predict.PaethPredictor(a, b, c)))
	}
	return costs
}

// Select returns the cheapest predictor for cur. Ties keep the lower tag.
func Select(cur, prev []byte) predict.Kind {
	costs := RowCosts(cur, prev)
	best := predict.None
	for k := predict.Sub; k < predict.NumKinds; k++ {
		if costs[k] < costs[best] {
			best = k
		}
	}
	return best
}

// Apply writes the residuals of cur under predictor k into dst, which must
// be at least len(cur) long.
func Apply(dst, cur, prev []byte, k predict.Kind) {
	if k == predict.None {
		copy(dst, cur)
		return
	}
	for i := range cur {
		var a, c byte
		if i >= bpp {
			a = cur[i-bpp]
			c = prev[i-bpp]
		}
		dst[i] = predict.Encode(cur[i], predict.Predict(k, a, prev[i], c))
	}
}

// EncodeRow appends the tag and residuals of cur to dst and returns the
// extended slice together with the chosen predictor.
func EncodeRow(dst, cur, prev []byte) ([]byte, predict.Kind) {
	k := Select(cur, prev)
	n := len(dst)
	dst = grow(dst, 1+len(cur))
	dst[n] = byte(k)
	Apply(dst[n+1:], cur, prev, k)
	return dst, k
}

// EncodeBand filters the first rows rows of band (stride bytes per row)
// and appends the band plaintext to dst. The first row uses a zero
// predecessor. If hist is non-nil it receives the per-predictor row counts.
func EncodeBand(dst, band []byte, rows, stride int, hist *Histogram) []byte {
	zero := make([]byte, stride)
	dst = reserve(dst, rows*(stride+1))

	prev := zero
	for y := 0; y < rows; y++ {
		cur := band[y*stride : (y+1)*stride]
		var k predict.Kind
		dst, k = EncodeRow(dst, cur, prev)
		if hist != nil {
			hist[k]++
		}
		prev = cur
	}
	return dst
}

// EncodeBandRaw appends the band with every row tagged None.
func EncodeBandRaw(dst, band []byte, rows, stride int) []byte {
	dst = reserve(dst, rows*(stride+1))
	for y := 0; y < rows; y++ {
		dst = append(dst, byte(predict.None))
		dst = append(dst, band[y*stride:(y+1)*stride]...)
	}
	return dst
}

// DecodeRow reconstructs one row in place: cur holds the residuals on entry
// and the original bytes on return. prev must already be reconstructed.
func DecodeRow(cur, prev []byte, k predict.Kind) error {
	if !k.Valid() {
		return fmt.Errorf("bad filter tag %d", k)
	}
	switch k {
	case predict.None:
		// No-op.
	case predict.Sub:
		for i := bpp; i < len(cur); i++ {
			cur[i] += cur[i-bpp]
		}
	case predict.Up:
		for i, p := range prev {
			cur[i] += p
		}
	case predict.Average:
		// The first pixel has nothing to its left.
		for i := 0; i < bpp && i < len(cur); i++ {
			cur[i] += prev[i] / 2
		}
		for i := bpp; i < len(cur); i++ {
			cur[i] += predict.Predict(predict.Average, cur[i-bpp], prev[i], 0)
		}
	case predict.Paeth:
		for i := 0; i < bpp && i < len(cur); i++ {
			cur[i] += prev[i]
		}
		for i := bpp; i < len(cur); i++ {
			cur[i] += predict.PaethPredictor(cur[i-bpp], prev[i], prev[i-bpp])
		}
	}
	return nil
}

// DecodeBand reverses EncodeBand: plain holds rows*(stride+1) bytes and dst
// receives rows*stride reconstructed bytes. Rows are rebuilt strictly in
// order since each one reads the row above.
func DecodeBand(dst, plain []byte, stride int) error {
	rowLen := stride + 1
	if len(plain)%rowLen != 0 {
		return fmt.Errorf("band plaintext of %d bytes is not a whole number of %d-byte rows", len(plain), rowLen)
	}
	rows := len(plain) / rowLen
	if len(dst) != rows*stride {
		return fmt.Errorf("band holds %d rows but destination has %d bytes", rows, len(dst))
	}

	prev := make([]byte, stride)
	for y := 0; y < rows; y++ {
		src := plain[y*rowLen : (y+1)*rowLen]
		cur := dst[y*stride : (y+1)*stride]
		copy(cur, src[1:])
		if err := DecodeRow(cur, prev, predict.Kind(src[0])); err != nil {
			return fmt.Errorf("row %d: %w", y, err)
		}
		prev = cur
	}
	return nil
}

func absSigned(b byte) int {
	v := predict.AsSigned8(b)
	if v < 0 {
		return -v
	}
	return v
}

// reserve makes room for n more bytes without changing len(dst).
func reserve(dst []byte, n int) []byte {
	if cap(dst)-len(dst) >= n {
		return dst
	}
	out := make([]byte, len(dst), len(dst)+n)
	copy(out, dst)
	return out
}

// grow extends dst by n bytes.
func grow(dst []byte, n int) []byte {
	dst = reserve(dst, n)
	return dst[:len(dst)+n]
}
