package g3d

// EngineOption configures an Engine during creation.
//
// Example:
//
//	e, err := g3d.NewHeadlessEngine(
//	    g3d.WithHeapSize(1<<20),
//	    g3d.WithCompressedFormats(g3d.TextureFormatETC2RGB8, g3d.TextureFormatETC2EACRGBA8),
//	)
type EngineOption func(*engineOptions)

// engineOptions holds optional configuration for Engine creation.
type engineOptions struct {
	heapSize    int
	budget      uint64
	compressed  []TextureFormat
	assets      *AssetTable
	labelPrefix string
	mipWorkers  int
}

// defaultOptions returns the default engine options.
func defaultOptions() engineOptions {
	return engineOptions{
		heapSize:    heapPageSize,
		labelPrefix: "g3d",
	}
}

// WithHeapSize sets the initial size of the engine's scratch heap in bytes.
// The size is rounded up to a whole number of 64 KiB pages. The heap grows
// on demand.
func WithHeapSize(n int) EngineOption {
	return func(o *engineOptions) {
		if n > 0 {
			o.heapSize = n
		}
	}
}

// WithMemoryBudget limits the device memory the engine may allocate.
// Zero means unlimited.
func WithMemoryBudget(bytes uint64) EngineOption {
	return func(o *engineOptions) {
		o.budget = bytes
	}
}

// WithCompressedFormats declares which block-compressed texture formats the
// device can sample. Textures in other compressed formats fail to build with
// ErrUnsupportedFormat. Uncompressed formats are always considered.
func WithCompressedFormats(formats ...TextureFormat) EngineOption {
	return func(o *engineOptions) {
		o.compressed = append(o.compressed, formats...)
	}
}

// WithAssetTable sets the table used to resolve Asset sources.
// Without it the engine starts with an empty table.
func WithAssetTable(t *AssetTable) EngineOption {
	return func(o *engineOptions) {
		o.assets = t
	}
}

// WithLabelPrefix sets the prefix of the debug labels given to device
// buffers and textures.
func WithLabelPrefix(prefix string) EngineOption {
	return func(o *engineOptions) {
		o.labelPrefix = prefix
	}
}

// WithMipWorkers sets how many goroutines filter mip chains when the layers
// of a cubemap or array texture are generated together. Zero, the default,
// means GOMAXPROCS; 1 filters every layer on the calling goroutine.
func WithMipWorkers(n int) EngineOption {
	return func(o *engineOptions) {
		if n >= 0 {
			o.mipWorkers = n
		}
	}
}
