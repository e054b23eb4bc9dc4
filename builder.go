package g3d

import "fmt"

// Builder produces a free-standing resource of type T.
// Build consumes the builder: it must not be used afterwards.
type Builder[T any] interface {
	Build(e *Engine) (T, error)
}

// MustBuild builds b and panics on error.
func MustBuild[T any](b Builder[T], e *Engine) T {
	v, err := b.Build(e)
	if err != nil {
		panic(err)
	}
	return v
}

// builderState is embedded by every builder. Setters call mutate, Build
// calls consume; after the first Build the builder is terminal.
type builderState struct {
	kind     string
	consumed bool
}

func (s *builderState) mutate() {
	if s.consumed {
		panic(fmt.Errorf("%w: %s builder modified after Build", ErrBuilderConsumed, s.kind))
	}
}

// consume marks the builder as built. A second call fails with
// ErrBuilderConsumed.
func (s *builderState) consume(e *Engine) error {
	if s.consumed {
		return fmt.Errorf("%w: %s builder", ErrBuilderConsumed, s.kind)
	}
	if e == nil {
		return fmt.Errorf("%w: nil engine", ErrInvalidArgument)
	}
	s.consumed = true
	return e.checkAlive()
}

// Consumed reports whether Build has been called.
func (s *builderState) Consumed() bool { return s.consumed }
