package rowfilter

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/svanichkin/strata/internal/predict"
)

func TestSelectTieBreak(t *testing.T) {
	for _, tc := range []struct {
		name      string
		cur, prev []byte
		want      predict.Kind
	}{
		{
			name: "flat_zero_none_ties_up",
			cur:  make([]byte, 16),
			prev: make([]byte, 16),
			want: predict.None,
		},
		{
			name: "sub_ties_up_and_paeth",
			cur:  []byte{5, 5, 5, 5, 5, 5, 5, 5},
			prev: []byte{5, 5, 5, 5, 0, 0, 0, 0},
			want: predict.Sub,
		},
		{
			name: "up_strictly_best",
			cur:  []byte{9, 8, 7, 6, 1, 200, 3, 90},
			prev: []byte{9, 8, 7, 6, 1, 200, 3, 90},
			want: predict.Up,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Select(tc.cur, tc.prev))
		})
	}
}

func TestCostUsesSignedBytes(t *testing.T) {
	costs := RowCosts([]byte{200, 0, 0, 0}, make([]byte, 4))
	require.Equal(t, 56, costs[predict.None])

	costs = RowCosts([]byte{128, 127, 255, 1}, make([]byte, 4))
	require.Equal(t, 128+127+1+1, costs[predict.None])
}

// Row 0 of the 2x2 image (10,20,30,255) after subtract-green. The first
// pixel has no left neighbour, so Sub leaves it untouched.
func TestEncodeRowFirstPixelHasNoLeft(t *testing.T) {
	cur := []byte{246, 20, 10, 255, 246, 20, 10, 255}
	zero := make([]byte, len(cur))

	costs := RowCosts(cur, zero)
	require.Equal(t, 82, costs[predict.None])
	require.Equal(t, 41, costs[predict.Sub])
	require.Equal(t, 82, costs[predict.Up])
	require.Equal(t, 41, costs[predict.Paeth])

	out, k := EncodeRow(nil, cur, zero)
	require.Equal(t, predict.Sub, k)
	require.Equal(t, []byte{1, 246, 20, 10, 255, 0, 0, 0, 0}, out)
}

func TestEncodeBandFirstRowUsesZeroRow(t *testing.T) {
	const stride = 8
	band := []byte{
		3, 3, 3, 3, 3, 3, 3, 3,
		3, 3, 3, 3, 3, 3, 3, 3,
	}
	plain := EncodeBand(nil, band, 2, stride, nil)
	require.Len(t, plain, 2*(stride+1))

	// Row 0 cannot see any real predecessor: Sub is the cheapest.
	require.Equal(t, byte(predict.Sub), plain[0])
	require.Equal(t, []byte{3, 3, 3, 3, 0, 0, 0, 0}, plain[1:stride+1])

	// Row 1 matches the row above exactly.
	require.Equal(t, byte(predict.Up), plain[stride+1])
	require.Equal(t, make([]byte, stride), plain[stride+2:])
}

func TestBandRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, width := range []int{0, 1, 2, 3, 4, 5, 17} {
		for _, rows := range []int{0, 1, 2, 7} {
			stride := width * predict.Bpp
			band := make([]byte, rows*stride)
			for i := range band {
				// Mix smooth gradients with noise so every predictor wins somewhere.
				if rng.Intn(3) == 0 {
					band[i] = byte(rng.Intn(256))
				} else {
					band[i] = byte(i / 3)
				}
			}

			var hist Histogram
			plain := EncodeBand(nil, band, rows, stride, &hist)
			require.Len(t, plain, rows*(stride+1))

			total := 0
			for _, n := range hist {
				total += n
			}
			require.Equal(t, rows, total)

			got := make([]byte, len(band))
			require.NoError(t, DecodeBand(got, plain, stride))
			require.Equal(t, band, got, "width=%d rows=%d", width, rows)

			raw := EncodeBandRaw(nil, band, rows, stride)
			got = make([]byte, len(band))
			require.NoError(t, DecodeBand(got, raw, stride))
			require.Equal(t, band, got)
		}
	}
}

func TestEveryKindRoundTrips(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	cur := make([]byte, 40)
	prev := make([]byte, 40)
	rng.Read(cur)
	rng.Read(prev)

	for k := predict.None; k < predict.NumKinds; k++ {
		filtered := make([]byte, len(cur))
		Apply(filtered, cur, prev, k)
		require.NoError(t, DecodeRow(filtered, prev, k))
		require.Equal(t, cur, filtered, "kind %v", k)
	}
}

func TestDecodeBandErrors(t *testing.T) {
	const stride = 4
	dst := make([]byte, stride)

	err := DecodeBand(dst, []byte{5, 0, 0, 0, 0}, stride)
	require.ErrorContains(t, err, "bad filter tag 5")

	err = DecodeBand(dst, []byte{0, 0, 0}, stride)
	require.Error(t, err)

	err = DecodeBand(make([]byte, 2*stride), []byte{0, 0, 0, 0, 0}, stride)
	require.Error(t, err)
}

func BenchmarkEncodeBand(b *testing.B) {
	const width, rows = 1024, 256
	stride := width * predict.Bpp
	band := make([]byte, rows*stride)
	rand.New(rand.NewSource(3)).Read(band)
	dst := make([]byte, 0, rows*(stride+1))

	b.SetBytes(int64(len(band)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		dst = EncodeBand(dst[:0], band, rows, stride, nil)
	}
}

func TestDecodeRowRejectsUnknownTags(t *testing.T) {
	prev := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	for tag := int(predict.NumKinds); tag < 256; tag++ {
		cur := []byte{9, 9, 9, 9, 9, 9, 9, 9}
		err := DecodeRow(cur, prev, predict.Kind(tag))
		require.ErrorContains(t, err, fmt.Sprintf("bad filter tag %d", tag))
		require.Equal(t, []byte{9, 9, 9, 9, 9, 9, 9, 9}, cur, "tag %d touched the row", tag)
	}
}

func TestHistogramAdd(t *testing.T) {
	const stride = 8
	band := make([]byte, 3*stride)
	for i := range band {
		band[i] = byte(i * 7)
	}

	var a, b, total Histogram
	EncodeBand(nil, band[:stride], 1, stride, &a)
	EncodeBand(nil, band, 3, stride, &b)
	total.Add(a)
	total.Add(b)

	sum := 0
	for k := range total {
		require.Equal(t, a[k]+b[k], total[k])
		sum += total[k]
	}
	require.Equal(t, 4, sum)
}
