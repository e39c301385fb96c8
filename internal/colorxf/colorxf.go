// Package colorxf implements the subtract-green decorrelation applied to
// RGBA8 pixels before filtering: R' = R-G, B' = B-G (mod 256), G and A
// pass through unchanged.
//
// Forward and Inverse work on two pixels per uint64 with byte-lane
// arithmetic that never carries across lanes; a trailing odd pixel takes
// the scalar path.
package colorxf

import "encoding/binary"

const (
	pixelSize = 4
	pairSize  = 2 * pixelSize

	// high bit of every byte lane
	laneHigh = 0x8080808080808080
	// G byte of each pixel after a right shift by 8
	greenLow = 0x000000ff000000ff
)

// Forward applies the decorrelation in place. len(pix) must be a multiple
// of 4.
func Forward(pix []byte) {
	n := len(pix) - len(pix)%pairSize
	for i := 0; i < n; i += pairSize {
		w := binary.LittleEndian.Uint64(pix[i:])
		binary.LittleEndian.PutUint64(pix[i:], subLanes(w, greenMask(w)))
	}
	for i := n; i+pixelSize <= len(pix); i += pixelSize {
		ForwardPixel(pix[i : i+pixelSize])
	}
}

// Inverse undoes Forward in place.
func Inverse(pix []byte) {
	n := len(pix) - len(pix)%pairSize
	for i := 0; i < n; i += pairSize {
		w := binary.LittleEndian.Uint64(pix[i:])
		binary.LittleEndian.PutUint64(pix[i:], addLanes(w, greenMask(w)))
	}
	for i := n; i+pixelSize <= len(pix); i += pixelSize {
		InversePixel(pix[i : i+pixelSize])
	}
}

// ForwardPixel transforms a single 4-byte pixel.
func ForwardPixel(p []byte) {
	g := p[1]
	p[0] -= g
	p[2] -= g
}

// InversePixel restores a single 4-byte pixel.
func InversePixel(p []byte) {
	g := p[1]
	p[0] += g
	p[2] += g
}

// greenMask places each pixel's G in its R and B lanes, zero elsewhere.
func greenMask(w uint64) uint64 {
	g := (w >> 8) & greenLow
	return g | g<<16
}

// subLanes is a byte-wise x-y with no borrow between lanes.
func subLanes(x, y uint64) uint64 {
	return ((x | laneHigh) - (y &^ laneHigh)) ^ ((x ^ ^y) & laneHigh)
}

// addLanes is a byte-wise x+y with no carry between lanes.
func addLanes(x, y uint64) uint64 {
	return ((x &^ laneHigh) + (y &^ laneHigh)) ^ ((x ^ y) & laneHigh)
}
