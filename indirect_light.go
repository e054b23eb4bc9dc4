package g3d

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/g3d/internal/device"
)

// DefaultIBLIntensity is the intensity of image-based lights and skyboxes
// when none is set, in lux.
const DefaultIBLIntensity = 30000

// IndirectLight is a handle to an image-based light.
type IndirectLight struct{ h handle }

// IsZero reports whether il is the zero handle.
func (il IndirectLight) IsZero() bool { return il.h.isZero() }

type indirectLightData struct {
	reflections Texture
	bands       int
	sh          [][3]float32
	intensity   float32
	rotation    mgl32.Mat3
	uniforms    *device.Buffer
}

// uniformSize is 9 SH vec4s, one vec4 for the intensity and a mat3 stored
// as three vec4 columns.
const indirectLightUniformSize = (9 + 1 + 3) * 16

func (il *indirectLightData) packUniforms() Bytes {
	v := make([]float32, 0, indirectLightUniformSize/4)
	for i := range 9 {
		var c [3]float32
		if i < len(il.sh) {
			c = il.sh[i]
		}
		v = append(v, c[0], c[1], c[2], 0)
	}
	v = append(v, il.intensity, 0, 0, 0)
	for col := range 3 {
		c := il.rotation.Col(col)
		v = append(v, c[0], c[1], c[2], 0)
	}
	return Float32Bytes(v...)
}

func (il *indirectLightData) writeUniforms() error {
	if err := il.uniforms.Write(0, il.packUniforms()); err != nil {
		return fmt.Errorf("g3d: indirect light uniforms: %w", err)
	}
	return nil
}

func (il *indirectLightData) destroy() {
	if il.uniforms != nil {
		il.uniforms.Destroy()
	}
}

// IndirectLightBuilder configures an IndirectLight. At least one of
// Reflections and Irradiance is required.
type IndirectLightBuilder struct {
	builderState
	reflections Texture
	bands       int
	sh          [][3]float32
	intensity   float32
	rotation    mgl32.Mat3
}

// NewIndirectLightBuilder returns an empty builder.
func NewIndirectLightBuilder() *IndirectLightBuilder {
	return &IndirectLightBuilder{
		builderState: builderState{kind: "indirect light"},
		intensity:    DefaultIBLIntensity,
		rotation:     mgl32.Ident3(),
	}
}

// Reflections sets the specular cubemap.
func (b *IndirectLightBuilder) Reflections(t Texture) *IndirectLightBuilder {
	b.mutate()
	b.reflections = t
	return b
}

// Irradiance sets the diffuse spherical harmonics: bands*bands RGB
// coefficients. The slice is copied.
func (b *IndirectLightBuilder) Irradiance(bands int, sh [][3]float32) *IndirectLightBuilder {
	b.mutate()
	b.bands = bands
	b.sh = append([][3]float32(nil), sh...)
	return b
}

// Intensity sets the light intensity in lux.
func (b *IndirectLightBuilder) Intensity(lux float32) *IndirectLightBuilder {
	b.mutate()
	b.intensity = lux
	return b
}

// Rotation sets the environment rotation.
func (b *IndirectLightBuilder) Rotation(m mgl32.Mat3) *IndirectLightBuilder {
	b.mutate()
	b.rotation = m
	return b
}

// checkEnvironment verifies that t is a live cubemap of e.
func checkEnvironment(e *Engine, t Texture) error {
	d, err := t.data(e)
	if err != nil {
		return err
	}
	if d.sampler != SamplerCubemap {
		return fmt.Errorf("%w: environment must be a cubemap, got %v", ErrInvalidArgument, d.sampler)
	}
	return nil
}

// Build creates the indirect light and consumes the builder.
func (b *IndirectLightBuilder) Build(e *Engine) (IndirectLight, error) {
	if err := b.consume(e); err != nil {
		return IndirectLight{}, err
	}
	if b.reflections.IsZero() && b.bands == 0 {
		return IndirectLight{}, fmt.Errorf("%w: reflections or irradiance", ErrMissingField)
	}
	if !b.reflections.IsZero() {
		if err := checkEnvironment(e, b.reflections); err != nil {
			return IndirectLight{}, err
		}
	}
	if b.bands != 0 {
		if b.bands < 1 || b.bands > 3 {
			return IndirectLight{}, fmt.Errorf("%w: %d SH bands", ErrInvalidArgument, b.bands)
		}
		if len(b.sh) < b.bands*b.bands {
			return IndirectLight{}, fmt.Errorf("%w: %d SH coefficients for %d bands",
				ErrInvalidArgument, len(b.sh), b.bands)
		}
	}

	uniforms, err := e.dev.CreateBuffer(&device.BufferDescriptor{
		Label: e.label("ibl"),
		Size:  indirectLightUniformSize,
		Usage: gputypes.BufferUsageUniform,
	})
	if err != nil {
		return IndirectLight{}, fmt.Errorf("g3d: indirect light: %w", err)
	}
	data := indirectLightData{
		reflections: b.reflections,
		bands:       b.bands,
		sh:          b.sh[:b.bands*b.bands],
		intensity:   b.intensity,
		rotation:    b.rotation,
		uniforms:    uniforms,
	}
	if err := data.writeUniforms(); err != nil {
		data.destroy()
		return IndirectLight{}, err
	}
	return IndirectLight{h: e.indirectLights.insert(e.serial, data)}, nil
}

func (il IndirectLight) data(e *Engine) (*indirectLightData, error) {
	if err := e.checkAlive(); err != nil {
		return nil, err
	}
	return e.indirectLights.get(e.serial, il.h)
}

// Reflections returns the specular cubemap, or the zero Texture.
func (il IndirectLight) Reflections(e *Engine) (Texture, error) {
	d, err := il.data(e)
	if err != nil {
		return Texture{}, err
	}
	return d.reflections, nil
}

// Irradiance returns a copy of the spherical harmonics coefficients.
func (il IndirectLight) Irradiance(e *Engine) ([][3]float32, error) {
	d, err := il.data(e)
	if err != nil {
		return nil, err
	}
	return append([][3]float32(nil), d.sh...), nil
}

// Intensity returns the intensity in lux.
func (il IndirectLight) Intensity(e *Engine) (float32, error) {
	d, err := il.data(e)
	if err != nil {
		return 0, err
	}
	return d.intensity, nil
}

// SetIntensity changes the intensity.
func (il IndirectLight) SetIntensity(e *Engine, lux float32) error {
	d, err := il.data(e)
	if err != nil {
		return err
	}
	d.intensity = lux
	return d.writeUniforms()
}

// SetRotation changes the environment rotation.
func (il IndirectLight) SetRotation(e *Engine, m mgl32.Mat3) error {
	d, err := il.data(e)
	if err != nil {
		return err
	}
	d.rotation = m
	return d.writeUniforms()
}

// DestroyIndirectLight destroys il. The reflections texture is not
// destroyed.
func (e *Engine) DestroyIndirectLight(il IndirectLight) error {
	if err := e.checkAlive(); err != nil {
		return err
	}
	d, err := e.indirectLights.remove(e.serial, il.h)
	if err != nil {
		return err
	}
	d.destroy()
	return nil
}
