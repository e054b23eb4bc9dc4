package device

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Texture errors.
var (
	// ErrTextureDestroyed is returned when operating on a destroyed texture.
	ErrTextureDestroyed = errors.New("device: texture has been destroyed")

	// ErrInvalidTextureSize is returned when texture dimensions are invalid.
	ErrInvalidTextureSize = errors.New("device: invalid texture size")

	// ErrInvalidRegion is returned when an upload region does not fit.
	ErrInvalidRegion = errors.New("device: invalid upload region")
)

// TextureDescriptor describes a texture to create.
type TextureDescriptor struct {
	Label     string
	Width     uint32
	Height    uint32
	Layers    uint32
	Levels    uint32
	Dimension gputypes.TextureDimension
	Format    gputypes.TextureFormat
	Usage     gputypes.TextureUsage

	// SizeBytes is the memory accounted for the whole mip chain.
	SizeBytes uint64
}

// Texture is a device texture.
type Texture struct {
	halTexture hal.Texture
	device     *Device
	descriptor TextureDescriptor
	destroyed  bool
}

// CreateTexture creates a new texture.
func (d *Device) CreateTexture(desc *TextureDescriptor) (*Texture, error) {
	if desc == nil {
		return nil, fmt.Errorf("texture descriptor is nil")
	}
	if desc.Width == 0 || desc.Height == 0 || desc.Layers == 0 || desc.Levels == 0 {
		return nil, fmt.Errorf("%w: %dx%dx%d, %d levels",
			ErrInvalidTextureSize, desc.Width, desc.Height, desc.Layers, desc.Levels)
	}
	if err := d.reserve(desc.SizeBytes); err != nil {
		return nil, err
	}
	halTex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label: desc.Label,
		Size: hal.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: desc.Layers,
		},
		MipLevelCount: desc.Levels,
		SampleCount:   1,
		Dimension:     desc.Dimension,
		Format:        desc.Format,
		Usage:         desc.Usage | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		d.unreserve(desc.SizeBytes)
		return nil, fmt.Errorf("create texture %q: %w", desc.Label, err)
	}
	d.textures++
	slogger().Debug("texture created", "label", desc.Label,
		"width", desc.Width, "height", desc.Height, "levels", desc.Levels)

	return &Texture{halTexture: halTex, device: d, descriptor: *desc}, nil
}

// Descriptor returns a copy of the texture descriptor.
func (t *Texture) Descriptor() TextureDescriptor { return t.descriptor }

// IsDestroyed returns true if the texture has been destroyed.
func (t *Texture) IsDestroyed() bool { return t.destroyed }

// WriteLevel uploads one image of a mip level.
// layer selects the array layer (or cubemap face); bytesPerRow is the row
// pitch of data. For block-compressed data rowsPerImage is the number of
// block rows.
func (t *Texture) WriteLevel(level, layer uint32, data []byte, width, height, bytesPerRow, rowsPerImage uint32) error {
	if t.destroyed {
		return ErrTextureDestroyed
	}
	if t.device.closed {
		return ErrClosed
	}
	if level >= t.descriptor.Levels || layer >= t.descriptor.Layers {
		return fmt.Errorf("%w: level %d layer %d", ErrInvalidRegion, level, layer)
	}
	if uint64(len(data)) < uint64(bytesPerRow)*uint64(rowsPerImage) {
		return fmt.Errorf("%w: %d bytes for %d rows of %d bytes",
			ErrInvalidRegion, len(data), rowsPerImage, bytesPerRow)
	}
	t.device.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  t.halTexture,
			MipLevel: level,
			Origin:   hal.Origin3D{X: 0, Y: 0, Z: layer},
		},
		data,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  bytesPerRow,
			RowsPerImage: rowsPerImage,
		},
		&hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
	)
	return nil
}

// Destroy releases the texture.
// This method is idempotent - calling it multiple times is safe.
func (t *Texture) Destroy() {
	if t.destroyed {
		return
	}
	t.destroyed = true
	d := t.device
	halTex := t.halTexture
	t.halTexture = nil
	if d.closed || halTex == nil {
		return
	}
	d.device.DestroyTexture(halTex)
	d.unreserve(t.descriptor.SizeBytes)
	d.textures--
}
