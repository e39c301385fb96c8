// Package predict holds the per-byte predictors used by the row filter and
// the two byte conversions the filter relies on.
package predict

// Bpp is the number of bytes per pixel (R, G, B, A).
const Bpp = 4

// Kind names a predictor. The numeric value is the filter tag written in
// front of every row.
type Kind uint8

const (
	None Kind = iota
	Sub
	Up
	Average
	Paeth

	// NumKinds is the number of predictor kinds.
	NumKinds = 5
)

var kindNames = [NumKinds]string{"none", "sub", "up", "average", "paeth"}

func (k Kind) String() string {
	if k < NumKinds {
		return kindNames[k]
	}
	return "invalid"
}

// Valid reports whether k is a known predictor tag.
func (k Kind) Valid() bool { return k < NumKinds }

// Wrap8 narrows v to a byte with modulo-256 wraparound.
func Wrap8(v int) byte {
	return byte(v & 0xff)
}

// AsSigned8 reinterprets a wrapped byte as a two's-complement value in
// [-128, 127].
func AsSigned8(b byte) int {
	return int(int8(b))
}

// Predict returns the value predicted by kind k from the left (a), up (b)
// and up-left (c) neighbours.
func Predict(k Kind, a, b, c byte) byte {
	switch k {
	case Sub:
		return a
	case Up:
		return b
	case Average:
		return average(a, b)
	case Paeth:
		return PaethPredictor(a, b, c)
	default:
		return 0
	}
}

func average(a, b byte) byte {
	return Wrap8((int(a) + int(b)) / 2)
}

// PaethPredictor picks whichever of a, b, c is closest to a+b-c. Ties go to
// a, then b.
func PaethPredictor(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa := abs(p - int(a))
	pb := abs(p - int(b))
	pc := abs(p - int(c))

	if pa <= pb && pa <= pc {
		return a
	} else if pb <= pc {
		return b
	}
	return c
}

// Encode returns the residual stored for cur given its prediction.
func Encode(cur, predicted byte) byte {
	return Wrap8(int(cur) - int(predicted))
}

// Decode reverses Encode.
func Decode(filtered, predicted byte) byte {
	return Wrap8(int(filtered) + int(predicted))
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
