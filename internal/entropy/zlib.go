package entropy

import (
	"bytes"
	"io"
	"sync"

	"github.com/klauspost/compress/zlib"
)

type zlibPool struct {
	level int
	pool  sync.Pool
}

type zlibCoder struct {
	buf bytes.Buffer
	w   *zlib.Writer
	r   io.ReadCloser
	src bytes.Reader
}

func newZlibPool(level int) (*zlibPool, error) {
	p := &zlibPool{level: zlib.DefaultCompression}
	if level != 0 {
		p.level = level
	}

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

func (p *zlibPool) newCoder() (*zlibCoder, error) {
	c := &zlibCoder{}
	w, err := zlib.NewWriterLevel(&c.buf, p.level)
	if err != nil {
		return nil, err
	}
	c.w = w
	return c, nil
}

func (p *zlibPool) Get() Coder { return p.pool.Get().(*zlibCoder) }

func (p *zlibPool) Put(c Coder) {
	if zc, ok := c.(*zlibCoder); ok {
		p.pool.Put(zc)
	}
}

func (c *zlibCoder) Compress(dst, src []byte) ([]byte, error) {
	c.buf.Reset()
	c.w.Reset(&c.buf)
	if _, err := c.w.Write(src); err != nil {
		return nil, err
	}
	if err := c.w.Close(); err != nil {
		return nil, err
	}
	return append(dst, c.buf.Bytes()...), nil
}

func (c *zlibCoder) Decompress(dst, src []byte, limit int) ([]byte, error) {
	c.src.Reset(src)
	if c.r == nil {
		r, err := zlib.NewReader(&c.src)
		if err != nil {
			return nil, corrupt(string(Zlib), err)
		}
		c.r = r
	} else if err := c.r.(zlib.Resetter).Reset(&c.src, nil); err != nil {
		return nil, corrupt(string(Zlib), err)
	}

	// One byte past the limit is enough to tell an oversized stream apart.
	out := bytes.NewBuffer(dst)
	n, err := out.ReadFrom(io.LimitReader(c.r, int64(limit)+1))
	if err != nil {
		return nil, corrupt(string(Zlib), err)
	}
	if n > int64(limit) {
		return nil, tooLarge(string(Zlib), limit)
	}
	return out.Bytes(), nil
}
