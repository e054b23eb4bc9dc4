package image

import "math/bits"

// LevelCount returns the number of levels in a full mip chain for an image
// of the given size: 1 + floor(log2(max(width, height))).
func LevelCount(width, height int) int {
	m := max(width, height)
	if m <= 0 {
		return 0
	}
	return bits.Len(uint(m))
}

// LevelSize returns the dimensions of mip level n.
func LevelSize(width, height, n int) (int, int) {
	return max(1, width>>n), max(1, height>>n)
}

// MipmapChain holds downscaled versions of an image.
// Level 0 is the source image.
type MipmapChain struct {
	levels []*ImageBuf
}

// GenerateMipmaps creates a mip chain of count levels from src using a box
// filter (2x2 average per channel). A count of 0 or one larger than the full
// chain produces the full chain. The source becomes level 0 and is not
// copied.
//
// Returns nil if src is nil.
func GenerateMipmaps(src *ImageBuf, count int) *MipmapChain {
	if src == nil {
		return nil
	}
	full := LevelCount(src.width, src.height)
	if count <= 0 || count > full {
		count = full
	}
	chain := &MipmapChain{levels: make([]*ImageBuf, count)}
	chain.levels[0] = src
	for i := 1; i < count; i++ {
		chain.levels[i] = downsample(chain.levels[i-1])
	}
	return chain
}

// downsample creates a half-size version of src.
// Odd edges clamp to the last row or column.
func downsample(src *ImageBuf) *ImageBuf {
	srcW, srcH := src.width, src.height
	dstW, dstH := max(1, srcW/2), max(1, srcH/2)
	dst := GetFromDefault(dstW, dstH, src.format)

	bpp := src.format.BytesPerPixel()
	stride := src.Stride()
	for dy := range dstH {
		y0 := dy * 2
		y1 := min(y0+1, srcH-1)
		for dx := range dstW {
			x0 := dx * 2
			x1 := min(x0+1, srcW-1)
			o00 := y0*stride + x0*bpp
			o01 := y0*stride + x1*bpp
			o10 := y1*stride + x0*bpp
			o11 := y1*stride + x1*bpp
			out := (dy*dstW + dx) * bpp
			for c := range bpp {
				sum := uint16(src.data[o00+c]) + uint16(src.data[o01+c]) +
					uint16(src.data[o10+c]) + uint16(src.data[o11+c])
				dst.data[out+c] = byte((sum + 2) / 4)
			}
		}
	}
	return dst
}

// Level returns the mipmap at the specified level, or nil if out of range.
func (m *MipmapChain) Level(n int) *ImageBuf {
	if m == nil || n < 0 || n >= len(m.levels) {
		return nil
	}
	return m.levels[n]
}

// NumLevels returns the total number of mipmap levels in the chain.
func (m *MipmapChain) NumLevels() int {
	if m == nil {
		return 0
	}
	return len(m.levels)
}

// Release returns all generated levels to the pool. Level 0 belongs to the
// caller and is kept. The chain must not be used afterwards.
func (m *MipmapChain) Release() {
	if m == nil {
		return
	}
	for i := 1; i < len(m.levels); i++ {
		PutToDefault(m.levels[i])
		m.levels[i] = nil
	}
}
