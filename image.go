package strata

import (
	"image"
	"image/draw"
)

// ToNRGBA returns src as a tightly packed *image.NRGBA with bounds at the
// origin. Such an image is returned as is; anything else is copied.
func ToNRGBA(src image.Image) *image.NRGBA {
	b := src.Bounds()
	m, ok := src.(*image.NRGBA)
	if ok && b.Min == (image.Point{}) && m.Stride == b.Dx()*BytesPerPixel {
		return m
	}

	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if !ok {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
		return dst
	}
	// Copy rows directly; going through draw would premultiply alpha.
	rowBytes := b.Dx() * BytesPerPixel
	for y := 0; y < b.Dy(); y++ {
		o := m.PixOffset(b.Min.X, b.Min.Y+y)
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+rowBytes], m.Pix[o:o+rowBytes])
	}
	return dst
}

// EncodeImage compresses any image.Image as straight-alpha RGBA8.
func EncodeImage(img image.Image, opts *Options) ([]byte, error) {
	m := ToNRGBA(img)
	b := m.Bounds()
	return Encode(m.Pix[:b.Dx()*b.Dy()*BytesPerPixel], b.Dx(), b.Dy(), opts)
}

// EncodeImage compresses img with e.
func (e *Encoder) EncodeImage(img image.Image) ([]byte, error) {
	m := ToNRGBA(img)
	b := m.Bounds()
	return e.Encode(m.Pix[:b.Dx()*b.Dy()*BytesPerPixel], b.Dx(), b.Dy())
}

// NRGBA wraps the decoded buffer without copying.
func (m *Image) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    m.Pix,
		Stride: m.Stride(),
		Rect:   image.Rect(0, 0, m.Width, m.Height),
	}
}

// DecodeImage decodes data into an *image.NRGBA.
func DecodeImage(data []byte, opts *Options) (*image.NRGBA, error) {
	m, err := Decode(data, opts)
	if err != nil {
		return nil, err
	}
	return m.NRGBA(), nil
}
