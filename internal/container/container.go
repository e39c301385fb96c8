// Package container reads and writes the outer strata layout:
//
//	int32  width
//	int32  height
//	int32  bandCount
//	int32  bandLength[bandCount]
//	bytes  bandPayload[bandCount]
//
// All integers are little-endian. The payloads are opaque entropy-coded
// band plaintexts stored back to back in band order.
package container

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// HeaderSize is the fixed part of the layout before the length table.
const HeaderSize = 12

// ErrMalformed is returned for any container whose header or length table
// is inconsistent with the bytes that follow.
var ErrMalformed = errors.New("malformed container")

// Container is a parsed layout. Payloads alias the parsed buffer.
type Container struct {
	Width    int
	Height   int
	Payloads [][]byte
}

// Size returns the encoded size of a container holding payloads.
func Size(payloads [][]byte) int {
	n := HeaderSize + 4*len(payloads)
	for _, p := range payloads {
		n += len(p)
	}
	return n
}

// Append writes the container for (width, height, payloads) to dst.
func Append(dst []byte, width, height int, payloads [][]byte) ([]byte, error) {
	if !fitsInt32(width) || !fitsInt32(height) || !fitsInt32(len(payloads)) {
		return nil, fmt.Errorf("container: %dx%d image with %d bands exceeds int32 header fields", width, height, len(payloads))
	}
	for i, p := range payloads {
		if !fitsInt32(len(p)) {
			return nil, fmt.Errorf("container: band %d payload of %d bytes exceeds int32 length field", i, len(p))
		}
	}

	if need := Size(payloads); cap(dst)-len(dst) < need {
		out := make([]byte, len(dst), len(dst)+need)
		copy(out, dst)
		dst = out
	}

	dst = appendI32(dst, width)
	dst = appendI32(dst, height)
	dst = appendI32(dst, len(payloads))
	for _, p := range payloads {
		dst = appendI32(dst, len(p))
	}
	for _, p := range payloads {
		dst = append(dst, p...)
	}
	return dst, nil
}

// Parse validates data and slices out every band payload. Nothing past the
// length table is interpreted.
func Parse(data []byte) (*Container, error) {
	pos := 0
	readI32 := func(label string) (int, error) {
		if len(data)-pos < 4 {
			return 0, fmt.Errorf("%w: truncated while reading %s", ErrMalformed, label)
		}
		v := int32(binary.LittleEndian.Uint32(data[pos : pos+4]))
		pos += 4
		return int(v), nil
	}

	width, err := readI32("width")
	if err != nil {
		return nil, err
	}
	height, err := readI32("height")
	if err != nil {
		return nil, err
	}
	count, err := readI32("band count")
	if err != nil {
		return nil, err
	}

	if width < 0 || height < 0 {
		return nil, fmt.Errorf("%w: negative dimensions %dx%d", ErrMalformed, width, height)
	}
	if count < 0 {
		return nil, fmt.Errorf("%w: negative band count %d", ErrMalformed, count)
	}
	// Every band covers at least one row.
	if count > height || (height > 0 && count == 0) {
		return nil, fmt.Errorf("%w: %d bands cannot cover %d rows", ErrMalformed, count, height)
	}
	if count > (len(data)-pos)/4 {
		return nil, fmt.Errorf("%w: length table of %d entries exceeds %d remaining bytes", ErrMalformed, count, len(data)-pos)
	}

	lengths := make([]int, count)
	total := 0
	for i := range lengths {
		n, err := readI32("band length")
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, fmt.Errorf("%w: band %d has negative length %d", ErrMalformed, i, n)
		}
		lengths[i] = n
		total += n
	}

	remaining := len(data) - pos
	if total > remaining {
		return nil, fmt.Errorf("%w: band lengths sum to %d but only %d bytes follow", ErrMalformed, total, remaining)
	}
	if total < remaining {
		return nil, fmt.Errorf("%w: %d trailing bytes after last band", ErrMalformed, remaining-total)
	}

	c := &Container{
		Width:    width,
		Height:   height,
		Payloads: make([][]byte, count),
	}
	for i, n := range lengths {
		c.Payloads[i] = data[pos : pos+n : pos+n]
		pos += n
	}
	return c, nil
}

func appendI32(dst []byte, v int) []byte {
	return binary.LittleEndian.AppendUint32(dst, uint32(int32(v)))
}

func fitsInt32(v int) bool {
	return v >= 0 && v <= math.MaxInt32
}
