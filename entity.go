package g3d

import "fmt"

// Entity identifies an object in the scene. Components such as renderables
// and lights are attached to entities through their managers.
type Entity struct{ h handle }

// IsZero reports whether ent is the zero entity.
func (ent Entity) IsZero() bool { return ent.h.isZero() }

// String returns a debug representation.
func (ent Entity) String() string {
	if ent.IsZero() {
		return "Entity(0)"
	}
	return fmt.Sprintf("Entity(%d:%d)", ent.h.index, ent.h.gen)
}

// EntityManager creates and destroys entities.
type EntityManager struct {
	e        *Engine
	entities arena[struct{}]
}

func (m *EntityManager) init(e *Engine) {
	m.e = e
	m.entities = newArena[struct{}]("entity")
}

func (m *EntityManager) reset() { m.entities = newArena[struct{}]("entity") }

func (m *EntityManager) count() int { return m.entities.len() }

// Create returns a new entity.
func (m *EntityManager) Create() (Entity, error) {
	if err := m.e.checkAlive(); err != nil {
		return Entity{}, err
	}
	return Entity{h: m.entities.insert(m.e.serial, struct{}{})}, nil
}

// CreateN returns n new entities.
func (m *EntityManager) CreateN(n int) ([]Entity, error) {
	if err := m.e.checkAlive(); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: %d entities", ErrInvalidArgument, n)
	}
	out := make([]Entity, n)
	for i := range out {
		out[i] = Entity{h: m.entities.insert(m.e.serial, struct{}{})}
	}
	return out, nil
}

// Alive reports whether ent was created by this manager and not destroyed.
func (m *EntityManager) Alive(ent Entity) bool {
	if m.e.destroyed {
		return false
	}
	_, err := m.entities.get(m.e.serial, ent.h)
	return err == nil
}

func (m *EntityManager) check(ent Entity) error {
	if err := m.e.checkAlive(); err != nil {
		return err
	}
	_, err := m.entities.get(m.e.serial, ent.h)
	return err
}

// DestroyEntity destroys ent and every component attached to it.
func (e *Engine) DestroyEntity(ent Entity) error {
	if err := e.checkAlive(); err != nil {
		return err
	}
	if _, err := e.entities.entities.remove(e.serial, ent.h); err != nil {
		return err
	}
	delete(e.renderables.components, ent)
	delete(e.lights.components, ent)
	return nil
}
