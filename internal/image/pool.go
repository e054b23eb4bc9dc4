package image

import "sync"

// Pool recycles ImageBuf instances grouped by dimensions and format.
// Mip generation allocates one buffer per level; the pool keeps repeated
// texture loads from churning the allocator.
//
// All methods are safe for concurrent use.
type Pool struct {
	mu      sync.Mutex
	buckets map[poolKey][]*ImageBuf
	maxSize int // max buffers per bucket, 0 for unlimited
	hits    int
	misses  int
}

type poolKey struct {
	width  int
	height int
	format Format
}

// NewPool creates a pool retaining at most maxPerBucket buffers per size.
func NewPool(maxPerBucket int) *Pool {
	return &Pool{
		buckets: make(map[poolKey][]*ImageBuf),
		maxSize: maxPerBucket,
	}
}

// Get returns a zeroed buffer of the given size and format, or nil when the
// parameters are invalid.
func (p *Pool) Get(width, height int, format Format) *ImageBuf {
	key := poolKey{width: width, height: height, format: format}

	p.mu.Lock()
	if bucket := p.buckets[key]; len(bucket) > 0 {
		buf := bucket[len(bucket)-1]
		p.buckets[key] = bucket[:len(bucket)-1]
		p.hits++
		p.mu.Unlock()
		buf.Clear()
		return buf
	}
	p.misses++
	p.mu.Unlock()

	buf, err := NewImageBuf(width, height, format)
	if err != nil {
		return nil
	}
	return buf
}

// Put returns a buffer to the pool. Buffers that alias foreign memory must
// not be put.
func (p *Pool) Put(buf *ImageBuf) {
	if buf == nil {
		return
	}
	key := poolKey{width: buf.width, height: buf.height, format: buf.format}

	p.mu.Lock()
	defer p.mu.Unlock()
	bucket := p.buckets[key]
	if p.maxSize > 0 && len(bucket) >= p.maxSize {
		return
	}
	p.buckets[key] = append(bucket, buf)
}

// Stats returns the number of Get calls served from the pool and the number
// that allocated.
func (p *Pool) Stats() (hits, misses int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hits, p.misses
}

var defaultPool = NewPool(8)

// GetFromDefault retrieves an image buffer from the default pool.
func GetFromDefault(width, height int, format Format) *ImageBuf {
	return defaultPool.Get(width, height, format)
}

// PutToDefault returns an image buffer to the default pool.
func PutToDefault(buf *ImageBuf) {
	defaultPool.Put(buf)
}
