package g3d

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source is bulk data accepted by resource calls. It is one of:
//   - Asset: a name resolved through the engine's AssetTable
//   - Bytes: raw, already-encoded data, copied on use
//   - *BufferDescriptor or *PixelBufferDescriptor: consumed on use
type Source interface {
	source()
}

// Asset names data registered in an AssetTable.
type Asset string

func (Asset) source() {}

// Bytes is raw encoded data.
type Bytes []byte

func (Bytes) source() {}

// AssetTable maps asset names to their contents.
type AssetTable struct {
	entries map[string][]byte
}

// NewAssetTable creates an empty table.
func NewAssetTable() *AssetTable {
	return &AssetTable{entries: make(map[string][]byte)}
}

// Register stores a copy of data under name, replacing any previous entry.
func (t *AssetTable) Register(name string, data []byte) {
	t.entries[name] = append([]byte(nil), data...)
}

// Lookup returns the data registered under name. The returned slice must
// not be modified.
func (t *AssetTable) Lookup(name string) ([]byte, bool) {
	data, ok := t.entries[name]
	return data, ok
}

// Names returns the registered names in sorted order.
func (t *AssetTable) Names() []string {
	names := make([]string, 0, len(t.entries))
	for name := range t.entries {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Len returns the number of registered assets.
func (t *AssetTable) Len() int { return len(t.entries) }

// AssetManifest is the YAML document read by LoadAssetManifest:
//
//	assets:
//	  - name: earth
//	    path: textures/earth.png
//	  - path: sphere.bin   # name defaults to "sphere"
type AssetManifest struct {
	Assets []AssetEntry `yaml:"assets"`
}

// AssetEntry is one file listed in an AssetManifest.
type AssetEntry struct {
	Name string `yaml:"name,omitempty"`
	Path string `yaml:"path"`
}

func (m *AssetManifest) normalize() error {
	for i := range m.Assets {
		a := &m.Assets[i]
		if a.Path == "" {
			return fmt.Errorf("asset %d: missing path", i)
		}
		if a.Name == "" {
			base := filepath.Base(a.Path)
			a.Name = strings.TrimSuffix(base, filepath.Ext(base))
		}
	}
	return nil
}

// LoadAssetManifest reads a YAML manifest and the files it lists into a new
// AssetTable. Relative paths are resolved against the manifest's directory.
func LoadAssetManifest(path string) (*AssetTable, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read asset manifest: %w", err)
	}
	var m AssetManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse asset manifest %s: %w", path, err)
	}
	if err := m.normalize(); err != nil {
		return nil, fmt.Errorf("asset manifest %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	t := NewAssetTable()
	for _, a := range m.Assets {
		p := a.Path
		if !filepath.IsAbs(p) {
			p = filepath.Join(dir, p)
		}
		contents, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("asset %q: %w", a.Name, err)
		}
		t.entries[a.Name] = contents
	}
	Logger().Debug("g3d: asset manifest loaded", "path", path, "assets", t.Len())
	return t, nil
}

// Assets returns the engine's asset table.
func (e *Engine) Assets() *AssetTable { return e.assets }

// resolve turns src into a live descriptor owned by e. Raw data and assets
// are copied into a fresh descriptor; descriptors are checked for ownership
// and prior consumption. The pixel tags are nil for plain buffers.
func (e *Engine) resolve(src Source) (*BufferDescriptor, *PixelBufferDescriptor, error) {
	switch s := src.(type) {
	case nil:
		return nil, nil, ErrEmptyBuffer
	case Bytes:
		d, err := e.NewBuffer(s)
		return d, nil, err
	case Asset:
		data, ok := e.assets.Lookup(string(s))
		if !ok {
			return nil, nil, fmt.Errorf("%w: %q", ErrUnknownAsset, string(s))
		}
		d, err := e.NewBuffer(data)
		return d, nil, err
	case *BufferDescriptor:
		if err := e.checkDescriptor(s); err != nil {
			return nil, nil, err
		}
		return s, nil, nil
	case *PixelBufferDescriptor:
		if s == nil {
			return nil, nil, ErrEmptyBuffer
		}
		if err := e.checkDescriptor(&s.BufferDescriptor); err != nil {
			return nil, nil, err
		}
		return &s.BufferDescriptor, s, nil
	default:
		return nil, nil, fmt.Errorf("%w: source %T", ErrInvalidArgument, src)
	}
}

func (e *Engine) checkDescriptor(d *BufferDescriptor) error {
	if d == nil {
		return ErrEmptyBuffer
	}
	if d.e != e {
		return fmt.Errorf("%w: buffer descriptor", ErrForeignEngine)
	}
	if d.released {
		return ErrDescriptorConsumed
	}
	return nil
}

// consume resolves src and passes its bytes to fn. The descriptor is
// released after fn returns, whether or not fn succeeds. The slice given to
// fn aliases the heap and must not be retained.
func (e *Engine) consume(src Source, fn func(data []byte, px *PixelBufferDescriptor) error) error {
	d, px, err := e.resolve(src)
	if err != nil {
		return err
	}
	defer d.release()
	return fn(e.heap.view(d.off, d.size), px)
}

// ReadSource returns a copy of the bytes behind src. Descriptors are
// consumed as by any other resource call.
func (e *Engine) ReadSource(src Source) ([]byte, error) {
	if err := e.checkAlive(); err != nil {
		return nil, err
	}
	var out []byte
	err := e.consume(src, func(data []byte, _ *PixelBufferDescriptor) error {
		out = append([]byte(nil), data...)
		return nil
	})
	return out, err
}
