package g3d

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// LightType is the kind of a light component.
type LightType uint8

// Light types.
const (
	LightSun LightType = iota
	LightDirectional
	LightPoint
	LightFocusedSpot
	LightSpot
)

var lightTypeNames = [...]string{"sun", "directional", "point", "focused spot", "spot"}

// String returns the light type name.
func (t LightType) String() string {
	if int(t) < len(lightTypeNames) {
		return lightTypeNames[t]
	}
	return fmt.Sprintf("LightType(%d)", t)
}

func (t LightType) isSpot() bool { return t == LightSpot || t == LightFocusedSpot }

// Light defaults.
const (
	DefaultLightIntensity   = 100000
	DefaultSunAngularRadius = 0.545
	DefaultSunHaloSize      = 10
	DefaultSunHaloFalloff   = 80
)

type light struct {
	typ            LightType
	color          mgl32.Vec3
	intensity      float32
	direction      mgl32.Vec3
	position       mgl32.Vec3
	falloff        float32
	innerCone      float32
	outerCone      float32
	castShadows    bool
	sunRadius      float32
	sunHaloSize    float32
	sunHaloFalloff float32
}

// LightManager owns the light components of an engine.
type LightManager struct {
	e          *Engine
	components map[Entity]*light
}

func (m *LightManager) init(e *Engine) {
	m.e = e
	m.components = make(map[Entity]*light)
}

// LightBuilder configures a light component.
type LightBuilder struct {
	builderState
	l   light
	err error
}

// NewLightBuilder returns a builder for a light of type t.
func NewLightBuilder(t LightType) *LightBuilder {
	b := &LightBuilder{
		builderState: builderState{kind: "light"},
		l: light{
			typ:            t,
			color:          mgl32.Vec3{1, 1, 1},
			intensity:      DefaultLightIntensity,
			direction:      mgl32.Vec3{0, -1, 0},
			falloff:        1,
			innerCone:      math32.Pi / 8,
			outerCone:      math32.Pi / 4,
			sunRadius:      DefaultSunAngularRadius,
			sunHaloSize:    DefaultSunHaloSize,
			sunHaloFalloff: DefaultSunHaloFalloff,
		},
	}
	if int(t) >= len(lightTypeNames) {
		b.err = fmt.Errorf("%w: light type %d", ErrInvalidArgument, t)
	}
	return b
}

func (b *LightBuilder) setErr(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Color sets the linear RGB color.
func (b *LightBuilder) Color(c mgl32.Vec3) *LightBuilder {
	b.mutate()
	b.l.color = c
	return b
}

// Intensity sets the intensity, in lux for directional lights and lumens
// for punctual ones.
func (b *LightBuilder) Intensity(v float32) *LightBuilder {
	b.mutate()
	if v < 0 {
		b.setErr(fmt.Errorf("%w: negative intensity %g", ErrInvalidArgument, v))
	}
	b.l.intensity = v
	return b
}

// Direction sets the direction the light points at. It is normalized.
func (b *LightBuilder) Direction(d mgl32.Vec3) *LightBuilder {
	b.mutate()
	if d.Len() == 0 {
		b.setErr(fmt.Errorf("%w: zero light direction", ErrInvalidArgument))
		return b
	}
	b.l.direction = d.Normalize()
	return b
}

// Position sets the position of point and spot lights.
func (b *LightBuilder) Position(p mgl32.Vec3) *LightBuilder {
	b.mutate()
	b.l.position = p
	return b
}

// Falloff sets the radius of influence of point and spot lights.
func (b *LightBuilder) Falloff(radius float32) *LightBuilder {
	b.mutate()
	if radius <= 0 {
		b.setErr(fmt.Errorf("%w: falloff %g", ErrInvalidArgument, radius))
	}
	b.l.falloff = radius
	return b
}

// SpotLightCone sets the inner and outer cone angles in radians. The outer
// angle is clamped to [0.5°, π/2] and the inner angle to [0.5°, outer].
func (b *LightBuilder) SpotLightCone(inner, outer float32) *LightBuilder {
	b.mutate()
	const minCone = 0.5 * math32.Pi / 180
	outer = math32.Min(math32.Max(outer, minCone), math32.Pi/2)
	inner = math32.Min(math32.Max(inner, minCone), outer)
	b.l.innerCone, b.l.outerCone = inner, outer
	return b
}

// CastShadows enables shadow casting.
func (b *LightBuilder) CastShadows(enable bool) *LightBuilder {
	b.mutate()
	b.l.castShadows = enable
	return b
}

// SunAngularRadius sets the sun disk radius in degrees, clamped to
// [0.25, 20].
func (b *LightBuilder) SunAngularRadius(deg float32) *LightBuilder {
	b.mutate()
	b.l.sunRadius = math32.Min(math32.Max(deg, 0.25), 20)
	return b
}

// SunHaloSize sets the halo radius as a multiple of the sun radius.
func (b *LightBuilder) SunHaloSize(size float32) *LightBuilder {
	b.mutate()
	b.l.sunHaloSize = size
	return b
}

// SunHaloFalloff sets the halo falloff exponent.
func (b *LightBuilder) SunHaloFalloff(falloff float32) *LightBuilder {
	b.mutate()
	b.l.sunHaloFalloff = falloff
	return b
}

// Build attaches the light component to ent, replacing any existing one.
func (b *LightBuilder) Build(e *Engine, ent Entity) error {
	if err := b.consume(e); err != nil {
		return err
	}
	if b.err != nil {
		return b.err
	}
	if err := e.entities.check(ent); err != nil {
		return err
	}
	l := b.l
	e.lights.components[ent] = &l
	return nil
}

func (m *LightManager) get(ent Entity) (*light, error) {
	if err := m.e.entities.check(ent); err != nil {
		return nil, err
	}
	l, ok := m.components[ent]
	if !ok {
		return nil, fmt.Errorf("%w: %v has no light", ErrInvalidArgument, ent)
	}
	return l, nil
}

// HasComponent reports whether ent has a light component.
func (m *LightManager) HasComponent(ent Entity) bool {
	_, ok := m.components[ent]
	return ok && !m.e.destroyed
}

// Destroy removes the light component of ent, if any.
func (m *LightManager) Destroy(ent Entity) {
	delete(m.components, ent)
}

// Type returns the light type of ent.
func (m *LightManager) Type(ent Entity) (LightType, error) {
	l, err := m.get(ent)
	if err != nil {
		return 0, err
	}
	return l.typ, nil
}

// Intensity returns the intensity of ent.
func (m *LightManager) Intensity(ent Entity) (float32, error) {
	l, err := m.get(ent)
	if err != nil {
		return 0, err
	}
	return l.intensity, nil
}

// SetIntensity changes the intensity of ent.
func (m *LightManager) SetIntensity(ent Entity, v float32) error {
	l, err := m.get(ent)
	if err != nil {
		return err
	}
	if v < 0 {
		return fmt.Errorf("%w: negative intensity %g", ErrInvalidArgument, v)
	}
	l.intensity = v
	return nil
}

// Direction returns the normalized direction of ent.
func (m *LightManager) Direction(ent Entity) (mgl32.Vec3, error) {
	l, err := m.get(ent)
	if err != nil {
		return mgl32.Vec3{}, err
	}
	return l.direction, nil
}

// Color returns the color of ent.
func (m *LightManager) Color(ent Entity) (mgl32.Vec3, error) {
	l, err := m.get(ent)
	if err != nil {
		return mgl32.Vec3{}, err
	}
	return l.color, nil
}

// SpotLightCone returns the inner and outer cone angles of a spot light.
func (m *LightManager) SpotLightCone(ent Entity) (inner, outer float32, err error) {
	l, err := m.get(ent)
	if err != nil {
		return 0, 0, err
	}
	if !l.typ.isSpot() {
		return 0, 0, fmt.Errorf("%w: %v light has no cone", ErrInvalidArgument, l.typ)
	}
	return l.innerCone, l.outerCone, nil
}

// SunAngularRadius returns the sun disk radius in degrees.
func (m *LightManager) SunAngularRadius(ent Entity) (float32, error) {
	l, err := m.get(ent)
	if err != nil {
		return 0, err
	}
	return l.sunRadius, nil
}
