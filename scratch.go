package strata

import "sync"

// scratch holds the working buffers of one band task. Encoders and
// Decoders recycle them across bands and across calls.
type scratch struct {
	raw   []byte
	plain []byte
}

type scratchPool struct {
	p sync.Pool
}

func (sp *scratchPool) get() *scratch {
	if s, ok := sp.p.Get().(*scratch); ok {
		return s
	}
	return &scratch{}
}

func (sp *scratchPool) put(s *scratch) { sp.p.Put(s) }

// sized returns b resliced to n bytes, reallocating only when it is too
// small. The contents are unspecified.
func sized(b []byte, n int) []byte {
	if cap(b) < n {
		return make([]byte, n)
	}
	return b[:n]
}
