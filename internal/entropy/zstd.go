package entropy

import (
	"errors"
	"sync"

	"github.com/klauspost/compress/zstd"
)

type zstdPool struct {
	level zstd.EncoderLevel
	pool  sync.Pool
}

type zstdCoder struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func newZstdPool(level int) (*zstdPool, error) {
	p := &zstdPool{level: zstd.SpeedBetterCompression}
	if level != 0 {
		p.level = zstd.EncoderLevelFromZstd(level)
	}

	// Build one coder up front so option errors surface here rather than
	// inside a band task.
	first, err := p.newCoder()
	if err != nil {
		return nil, err
	}
	p.pool.New = func() any {
		c, err := p.newCoder()
		if err != nil {
			panic(err)
		}
		return c
	}
	p.pool.Put(first)
	return p, nil
}

func (p *zstdPool) newCoder() (*zstdCoder, error) {
	enc, err := zstd.NewWriter(
		nil,
		zstd.WithEncoderConcurrency(1),
		zstd.WithEncoderLevel(p.level),
		zstd.WithLowerEncoderMem(true),
	)
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(
		nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderLowmem(true),
		zstd.WithDecodeAllCapLimit(true),
	)
	if err != nil {
		enc.Close()
		return nil, err
	}
	return &zstdCoder{enc: enc, dec: dec}, nil
}

func (p *zstdPool) Get() Coder { return p.pool.Get().(*zstdCoder) }

func (p *zstdPool) Put(c Coder) {
	if zc, ok := c.(*zstdCoder); ok {
		p.pool.Put(zc)
	}
}

func (c *zstdCoder) Compress(dst, src []byte) ([]byte, error) {
	return c.enc.EncodeAll(src, dst), nil
}

// Decompress relies on WithDecodeAllCapLimit: DecodeAll stops once the
// output would outgrow cap(dst), so dst is resliced to exactly limit
// bytes of spare capacity.
func (c *zstdCoder) Decompress(dst, src []byte, limit int) ([]byte, error) {
	n, full := len(dst), dst
	if cap(dst)-n >= limit {
		dst = dst[:n:n+limit]
	} else {
		grown := make([]byte, n, n+limit)
		copy(grown, dst)
		dst = grown
	}
	out, err := c.dec.DecodeAll(src, dst)
	switch {
	case errors.Is(err, zstd.ErrDecoderSizeExceeded):
		return nil, tooLarge(string(Zstd), limit)
	case err != nil:
		return nil, corrupt(string(Zstd), err)
	case len(out)-n > limit:
		return nil, tooLarge(string(Zstd), limit)
	}
	// Hand back the capacity the reslice hid when out still lives in dst.
	if len(out) > 0 && cap(full) > cap(out) && &full[:1][0] == &out[0] {
		out = full[:len(out)]
	}
	return out, nil
}
