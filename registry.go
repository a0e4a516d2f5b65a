package rowmap

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/zap"
)

// NoDefaults is an option that can be passed to NewRegistry and determines whether the default factories
// (ScalarFactory and TimeFactory) are omitted
type NoDefaults bool

// DefaultFactories returns the factories that a Registry consults after all custom factories
func DefaultFactories() []Factory {
	return []Factory{ScalarFactory(), TimeFactory()}
}

// Registry resolves Mappers for target types
//
// factories are consulted in priority order - the first factory that can map a type wins - and the
// default factories are only consulted after all custom factories.  Types that no factory can map are
// never mapped on a best-effort basis; resolving them fails with an UnregisteredTypeError.
//
// A Registry is immutable once created (see Registry.With) and is safe for concurrent use.  Mappers are
// built on first request for a type and then reused.
type Registry struct {
	custom   []Factory
	defaults []Factory
	logger   *zap.Logger
	mu       sync.RWMutex
	mappers  map[reflect.Type]Mapper
}

// NewRegistry creates a new Registry
//
// options can be any of: Factory (in priority order), []Factory, *zap.Logger or NoDefaults
func NewRegistry(options ...any) (*Registry, error) {
	r := &Registry{
		logger:   zap.NewNop(),
		defaults: DefaultFactories(),
		mappers:  map[reflect.Type]Mapper{},
	}
	for _, o := range options {
		if o != nil {
			switch option := o.(type) {
			case Factory:
				r.custom = append(r.custom, option)
			case []Factory:
				for _, f := range option {
					if f != nil {
						r.custom = append(r.custom, f)
					}
				}
			case *zap.Logger:
				if option != nil {
					r.logger = option
				}
			case NoDefaults:
				if option {
					r.defaults = nil
				} else {
					r.defaults = DefaultFactories()
				}
			default:
				return nil, fmt.Errorf("unknown option type: %T", o)
			}
		}
	}
	return r, nil
}

// MustNewRegistry is the same as NewRegistry, except it panics on error
func MustNewRegistry(options ...any) *Registry {
	r, err := NewRegistry(options...)
	if err != nil {
		panic(err)
	}
	return r
}

// With returns a new Registry with the supplied factories placed in front of the existing custom factories
//
// the supplied factories keep their relative order, so With(a).With(b) gives b priority over a
func (r *Registry) With(factories ...Factory) *Registry {
	custom := make([]Factory, 0, len(factories)+len(r.custom))
	for _, f := range factories {
		if f != nil {
			custom = append(custom, f)
		}
	}
	return &Registry{
		custom:   append(custom, r.custom...),
		defaults: r.defaults,
		logger:   r.logger,
		mappers:  map[reflect.Type]Mapper{},
	}
}

// Factories returns the factories in the order they are consulted
func (r *Registry) Factories() []Factory {
	result := make([]Factory, 0, len(r.custom)+len(r.defaults))
	result = append(result, r.custom...)
	return append(result, r.defaults...)
}

// Resolve returns the Mapper for the target type
//
// if no factory can map the type, returns an UnregisteredTypeError
func (r *Registry) Resolve(target reflect.Type) (Mapper, error) {
	if r == nil {
		return nil, errors.New("nil registry")
	}
	if target == nil {
		return nil, &UnregisteredTypeError{}
	}
	r.mu.RLock()
	if m, ok := r.mappers[target]; ok {
		r.mu.RUnlock()
		return m, nil
	}
	r.mu.RUnlock()
	m, err := r.build(target)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.mappers[target]; ok {
		return existing, nil
	}
	r.mappers[target] = m
	return m, nil
}

// build is called without holding the lock, as factories may resolve component types
func (r *Registry) build(target reflect.Type) (Mapper, error) {
	for i, f := range r.Factories() {
		if f.CanMap(target) {
			m, err := f.Build(target, r)
			if err != nil {
				r.logger.Warn("failed to build mapper",
					zap.Stringer("type", target),
					zap.String("factory", fmt.Sprintf("%T", f)),
					zap.Error(err))
				return nil, err
			}
			r.logger.Debug("mapper resolved",
				zap.Stringer("type", target),
				zap.String("factory", fmt.Sprintf("%T", f)),
				zap.Int("priority", i),
				zap.Bool("default", i >= len(r.custom)))
			return m, nil
		}
	}
	r.logger.Warn("no mapper for type", zap.Stringer("type", target))
	return nil, &UnregisteredTypeError{Type: target}
}
