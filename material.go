package g3d

import (
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

// ParameterType is the type of a material parameter.
type ParameterType uint8

// Parameter types. The Go value accepted by SetParameter is given for each.
const (
	ParamBool           ParameterType = iota // bool
	ParamFloat                               // float32
	ParamFloat2                              // mgl32.Vec2
	ParamFloat3                              // mgl32.Vec3
	ParamFloat4                              // mgl32.Vec4
	ParamInt                                 // int32
	ParamSampler2D                           // Texture with Sampler2D or Sampler2DArray
	ParamSamplerCubemap                      // Texture with SamplerCubemap
)

var parameterTypeNames = map[string]ParameterType{
	"bool":           ParamBool,
	"float":          ParamFloat,
	"float2":         ParamFloat2,
	"float3":         ParamFloat3,
	"float4":         ParamFloat4,
	"int":            ParamInt,
	"sampler2d":      ParamSampler2D,
	"samplerCubemap": ParamSamplerCubemap,
}

// String returns the name used in material packages.
func (t ParameterType) String() string {
	for name, v := range parameterTypeNames {
		if v == t {
			return name
		}
	}
	return fmt.Sprintf("ParameterType(%d)", t)
}

// UnmarshalYAML decodes a parameter type name.
func (t *ParameterType) UnmarshalYAML(node *yaml.Node) error {
	v, ok := parameterTypeNames[node.Value]
	if !ok {
		return fmt.Errorf("line %d: unknown parameter type %q", node.Line, node.Value)
	}
	*t = v
	return nil
}

// MaterialParameter declares one parameter of a material.
type MaterialParameter struct {
	Name string        `yaml:"name"`
	Type ParameterType `yaml:"type"`
}

// materialPackage is the document held by the data passed to
// MaterialBuilder.Package:
//
//	name: lit
//	parameters:
//	  - {name: baseColor, type: float4}
//	  - {name: albedo, type: sampler2d}
type materialPackage struct {
	Name       string              `yaml:"name"`
	Parameters []MaterialParameter `yaml:"parameters"`
}

func (p *materialPackage) normalize() error {
	seen := make(map[string]bool, len(p.Parameters))
	for i, param := range p.Parameters {
		if param.Name == "" {
			return fmt.Errorf("parameter %d: missing name", i)
		}
		if seen[param.Name] {
			return fmt.Errorf("parameter %q declared twice", param.Name)
		}
		seen[param.Name] = true
	}
	return nil
}

// Material is a handle to a material definition.
type Material struct{ h handle }

// IsZero reports whether m is the zero handle.
func (m Material) IsZero() bool { return m.h.isZero() }

// MaterialInstance is a handle to a set of parameter values for a Material.
type MaterialInstance struct{ h handle }

// IsZero reports whether mi is the zero handle.
func (mi MaterialInstance) IsZero() bool { return mi.h.isZero() }

type materialData struct {
	name      string
	params    map[string]ParameterType
	order     []string
	instances int
}

type materialInstanceData struct {
	material Material
	values   map[string]any
}

// MaterialBuilder configures a Material. Package is required.
type MaterialBuilder struct {
	builderState
	pkg  Source
	name string
}

// NewMaterialBuilder returns an empty builder.
func NewMaterialBuilder() *MaterialBuilder {
	return &MaterialBuilder{builderState: builderState{kind: "material"}}
}

// Package sets the material package. A descriptor is consumed by Build.
func (b *MaterialBuilder) Package(src Source) *MaterialBuilder {
	b.mutate()
	b.pkg = src
	return b
}

// Name overrides the name stored in the package.
func (b *MaterialBuilder) Name(name string) *MaterialBuilder {
	b.mutate()
	b.name = name
	return b
}

// Build parses the package and creates the material.
func (b *MaterialBuilder) Build(e *Engine) (Material, error) {
	if err := b.consume(e); err != nil {
		return Material{}, err
	}
	if b.pkg == nil {
		return Material{}, fmt.Errorf("%w: package", ErrMissingField)
	}
	var pkg materialPackage
	err := e.consume(b.pkg, func(data []byte, _ *PixelBufferDescriptor) error {
		if err := yaml.Unmarshal(data, &pkg); err != nil {
			return fmt.Errorf("%w: material package: %v", ErrInvalidArgument, err)
		}
		if err := pkg.normalize(); err != nil {
			return fmt.Errorf("%w: material package: %v", ErrInvalidArgument, err)
		}
		return nil
	})
	b.pkg = nil
	if err != nil {
		return Material{}, err
	}

	data := materialData{
		name:   pkg.Name,
		params: make(map[string]ParameterType, len(pkg.Parameters)),
	}
	if b.name != "" {
		data.name = b.name
	}
	for _, p := range pkg.Parameters {
		data.params[p.Name] = p.Type
		data.order = append(data.order, p.Name)
	}
	Logger().Debug("g3d: material built", "name", data.name, "parameters", len(data.order))
	return Material{h: e.materials.insert(e.serial, data)}, nil
}

func (m Material) data(e *Engine) (*materialData, error) {
	if err := e.checkAlive(); err != nil {
		return nil, err
	}
	return e.materials.get(e.serial, m.h)
}

// Name returns the material name.
func (m Material) Name(e *Engine) (string, error) {
	d, err := m.data(e)
	if err != nil {
		return "", err
	}
	return d.name, nil
}

// Parameters returns the declared parameters in package order.
func (m Material) Parameters(e *Engine) ([]MaterialParameter, error) {
	d, err := m.data(e)
	if err != nil {
		return nil, err
	}
	params := make([]MaterialParameter, 0, len(d.order))
	for _, name := range d.order {
		params = append(params, MaterialParameter{Name: name, Type: d.params[name]})
	}
	return params, nil
}

// CreateInstance creates an instance with every parameter unset.
func (m Material) CreateInstance(e *Engine) (MaterialInstance, error) {
	d, err := m.data(e)
	if err != nil {
		return MaterialInstance{}, err
	}
	d.instances++
	return MaterialInstance{h: e.instances.insert(e.serial, materialInstanceData{
		material: m,
		values:   make(map[string]any),
	})}, nil
}

func (mi MaterialInstance) data(e *Engine) (*materialInstanceData, error) {
	if err := e.checkAlive(); err != nil {
		return nil, err
	}
	return e.instances.get(e.serial, mi.h)
}

// Material returns the material mi was created from.
func (mi MaterialInstance) Material(e *Engine) (Material, error) {
	d, err := mi.data(e)
	if err != nil {
		return Material{}, err
	}
	return d.material, nil
}

func checkParameter(e *Engine, typ ParameterType, value any) error {
	ok := false
	switch typ {
	case ParamBool:
		_, ok = value.(bool)
	case ParamFloat:
		_, ok = value.(float32)
	case ParamFloat2:
		_, ok = value.(mgl32.Vec2)
	case ParamFloat3:
		_, ok = value.(mgl32.Vec3)
	case ParamFloat4:
		_, ok = value.(mgl32.Vec4)
	case ParamInt:
		_, ok = value.(int32)
	case ParamSampler2D, ParamSamplerCubemap:
		t, isTex := value.(Texture)
		if !isTex {
			break
		}
		d, err := t.data(e)
		if err != nil {
			return err
		}
		want := d.sampler == SamplerCubemap
		if (typ == ParamSamplerCubemap) != want || d.sampler == Sampler3D {
			return fmt.Errorf("%w: %v texture for %v parameter", ErrInvalidArgument, d.sampler, typ)
		}
		ok = true
	}
	if !ok {
		return fmt.Errorf("%w: %T value for %v parameter", ErrInvalidArgument, value, typ)
	}
	return nil
}

// SetParameter sets a parameter value. The value's Go type must match the
// declared ParameterType; textures must be live and of a matching sampler.
func (mi MaterialInstance) SetParameter(e *Engine, name string, value any) error {
	d, err := mi.data(e)
	if err != nil {
		return err
	}
	m, err := d.material.data(e)
	if err != nil {
		return err
	}
	typ, ok := m.params[name]
	if !ok {
		return fmt.Errorf("%w: material %q has no parameter %q", ErrInvalidArgument, m.name, name)
	}
	if err := checkParameter(e, typ, value); err != nil {
		return fmt.Errorf("parameter %q: %w", name, err)
	}
	d.values[name] = value
	return nil
}

// Parameter returns the value of a parameter and whether it has been set.
func (mi MaterialInstance) Parameter(e *Engine, name string) (any, bool, error) {
	d, err := mi.data(e)
	if err != nil {
		return nil, false, err
	}
	v, ok := d.values[name]
	return v, ok, nil
}

// ParameterNames returns the names of the parameters set on mi, sorted.
func (mi MaterialInstance) ParameterNames(e *Engine) ([]string, error) {
	d, err := mi.data(e)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(d.values))
	for name := range d.values {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// DestroyMaterial destroys m. It fails with ErrResourceInUse while
// instances of m are alive.
func (e *Engine) DestroyMaterial(m Material) error {
	d, err := m.data(e)
	if err != nil {
		return err
	}
	if d.instances > 0 {
		return fmt.Errorf("%w: material %q has %d instances", ErrResourceInUse, d.name, d.instances)
	}
	_, err = e.materials.remove(e.serial, m.h)
	return err
}

// DestroyMaterialInstance destroys mi. Renderables still referencing mi
// fail their next query of it with ErrStaleHandle.
func (e *Engine) DestroyMaterialInstance(mi MaterialInstance) error {
	if err := e.checkAlive(); err != nil {
		return err
	}
	d, err := e.instances.remove(e.serial, mi.h)
	if err != nil {
		return err
	}
	if m, err := d.material.data(e); err == nil {
		m.instances--
	}
	return nil
}
