// Package entropy adapts general-purpose byte compressors to the band
// payload boundary. A Coder is owned by one band task at a time; Pools
// hand them out and take them back.
package entropy

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCorrupt is returned when a coder rejects a payload.
	ErrCorrupt = errors.New("entropy coder rejected payload")
	// ErrTooLarge is returned when a payload expands past the caller's limit.
	ErrTooLarge = errors.New("decompressed payload exceeds limit")
)

// Coder compresses and decompresses whole payloads. It is not safe for
// concurrent use.
type Coder interface {
	// Compress appends the compressed form of src to dst.
	Compress(dst, src []byte) ([]byte, error)
	// Decompress appends the decompressed form of src to dst. It fails
	// with ErrTooLarge once more than limit bytes would be appended, and
	// never allocates much more than limit doing so.
	Decompress(dst, src []byte, limit int) ([]byte, error)
}

// Pool hands out Coders. Get and Put are safe for concurrent use; every
// Coder obtained from Get must be returned with Put.
type Pool interface {
	Get() Coder
	Put(Coder)
}

// Kind names a supported coder.
type Kind string

const (
	Zstd Kind = "zstd"
	Zlib Kind = "zlib"
)

// Kinds lists the supported coders.
func Kinds() []Kind { return []Kind{Zstd, Zlib} }

// ParseKind maps a user-facing name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case Zstd, Zlib:
		return k, nil
	}
	return "", fmt.Errorf("unknown entropy coder %q (want zstd or zlib)", s)
}

// NewPool builds a pool for kind. level 0 selects the coder's default.
func NewPool(kind Kind, level int) (Pool, error) {
	switch kind {
	case Zstd, "":
		return newZstdPool(level)
	case Zlib:
		return newZlibPool(level)
	}
	return nil, fmt.Errorf("unknown entropy coder %q", kind)
}

// With runs fn with a Coder from p and returns it to the pool on every
// exit path.
func With(p Pool, fn func(Coder) error) error {
	c := p.Get()
	defer p.Put(c)
	return fn(c)
}

func corrupt(name string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrCorrupt, name, err)
}

func tooLarge(name string, limit int) error {
	return fmt.Errorf("%w: %s: more than %d bytes", ErrTooLarge, name, limit)
}
