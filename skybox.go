package g3d

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Skybox is a handle to a skybox.
type Skybox struct{ h handle }

// IsZero reports whether s is the zero handle.
func (s Skybox) IsZero() bool { return s.h.isZero() }

type skyboxData struct {
	environment Texture
	color       mgl32.Vec4
	showSun     bool
	intensity   float32
}

// SkyboxBuilder configures a Skybox. Either Environment or Color is
// required; the environment takes precedence when both are set.
type SkyboxBuilder struct {
	builderState
	environment Texture
	color       mgl32.Vec4
	hasColor    bool
	showSun     bool
	intensity   float32
}

// NewSkyboxBuilder returns an empty builder.
func NewSkyboxBuilder() *SkyboxBuilder {
	return &SkyboxBuilder{
		builderState: builderState{kind: "skybox"},
		intensity:    DefaultIBLIntensity,
	}
}

// Environment sets the cubemap drawn as the sky.
func (b *SkyboxBuilder) Environment(t Texture) *SkyboxBuilder {
	b.mutate()
	b.environment = t
	return b
}

// Color sets a solid sky color.
func (b *SkyboxBuilder) Color(c mgl32.Vec4) *SkyboxBuilder {
	b.mutate()
	b.color = c
	b.hasColor = true
	return b
}

// ShowSun draws the sun disk of the scene's sun light.
func (b *SkyboxBuilder) ShowSun(show bool) *SkyboxBuilder {
	b.mutate()
	b.showSun = show
	return b
}

// Intensity sets the sky intensity in lux.
func (b *SkyboxBuilder) Intensity(lux float32) *SkyboxBuilder {
	b.mutate()
	b.intensity = lux
	return b
}

// Build creates the skybox and consumes the builder.
func (b *SkyboxBuilder) Build(e *Engine) (Skybox, error) {
	if err := b.consume(e); err != nil {
		return Skybox{}, err
	}
	if b.environment.IsZero() && !b.hasColor {
		return Skybox{}, fmt.Errorf("%w: environment or color", ErrMissingField)
	}
	if !b.environment.IsZero() {
		if err := checkEnvironment(e, b.environment); err != nil {
			return Skybox{}, err
		}
	}
	return Skybox{h: e.skyboxes.insert(e.serial, skyboxData{
		environment: b.environment,
		color:       b.color,
		showSun:     b.showSun,
		intensity:   b.intensity,
	})}, nil
}

func (s Skybox) data(e *Engine) (*skyboxData, error) {
	if err := e.checkAlive(); err != nil {
		return nil, err
	}
	return e.skyboxes.get(e.serial, s.h)
}

// Environment returns the sky cubemap, or the zero Texture for solid skies.
func (s Skybox) Environment(e *Engine) (Texture, error) {
	d, err := s.data(e)
	if err != nil {
		return Texture{}, err
	}
	return d.environment, nil
}

// Color returns the solid sky color.
func (s Skybox) Color(e *Engine) (mgl32.Vec4, error) {
	d, err := s.data(e)
	if err != nil {
		return mgl32.Vec4{}, err
	}
	return d.color, nil
}

// SetColor changes the solid sky color.
func (s Skybox) SetColor(e *Engine, c mgl32.Vec4) error {
	d, err := s.data(e)
	if err != nil {
		return err
	}
	d.color = c
	return nil
}

// Intensity returns the sky intensity in lux.
func (s Skybox) Intensity(e *Engine) (float32, error) {
	d, err := s.data(e)
	if err != nil {
		return 0, err
	}
	return d.intensity, nil
}

// DestroySkybox destroys s. The environment texture is not destroyed.
func (e *Engine) DestroySkybox(s Skybox) error {
	if err := e.checkAlive(); err != nil {
		return err
	}
	_, err := e.skyboxes.remove(e.serial, s.h)
	return err
}
