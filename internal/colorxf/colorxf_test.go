package colorxf

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestForwardExample(t *testing.T) {
	pix := []byte{10, 20, 30, 255}
	Forward(pix)
	require.Equal(t, []byte{246, 20, 10, 255}, pix)
	Inverse(pix)
	require.Equal(t, []byte{10, 20, 30, 255}, pix)
}

// Every (R, G, B) triple survives a forward/inverse round trip.
func TestInvolutionAllTriples(t *testing.T) {
	buf := make([]byte, 256*256*pixelSize)
	want := make([]byte, len(buf))
	for r := 0; r < 256; r++ {
		i := 0
		for g := 0; g < 256; g++ {
			for b := 0; b < 256; b++ {
				buf[i+0] = byte(r)
				buf[i+1] = byte(g)
				buf[i+2] = byte(b)
				buf[i+3] = byte(r ^ g)
				i += pixelSize
			}
		}
		copy(want, buf)
		Forward(buf)
		Inverse(buf)
		if !bytes.Equal(buf, want) {
			t.Fatalf("round trip failed for r=%d", r)
		}
	}
}

// The word-at-a-time kernel must agree with the per-pixel reference for
// every length, including an odd trailing pixel.
func TestForwardMatchesScalar(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for px := 0; px <= 33; px++ {
		src := make([]byte, px*pixelSize)
		rng.Read(src)

		got := append([]byte(nil), src...)
		Forward(got)

		ref := append([]byte(nil), src...)
		for i := 0; i < len(ref); i += pixelSize {
			ForwardPixel(ref[i : i+pixelSize])
		}
		require.Equal(t, ref, got, "forward, %d pixels", px)

		Inverse(got)
		require.Equal(t, src, got, "inverse, %d pixels", px)
	}
}

func TestLaneArithmetic(t *testing.T) {
	for x := 0; x < 256; x++ {
		for y := 0; y < 256; y++ {
			xw := uint64(x) * 0x0101010101010101
			yw := uint64(y) * 0x0101010101010101
			require.Equal(t, uint64(byte(x-y))*0x0101010101010101, subLanes(xw, yw))
			require.Equal(t, uint64(byte(x+y))*0x0101010101010101, addLanes(xw, yw))
		}
	}
}

func BenchmarkForward(b *testing.B) {
	pix := make([]byte, 1920*1080*pixelSize)
	rand.New(rand.NewSource(2)).Read(pix)
	b.SetBytes(int64(len(pix)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Forward(pix)
	}
}
