package device

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/linectl/linectl-go/pkg/wire"
)

// Constructor builds a typed value from response data.
//
// Scalar data (int, str, float) is one positional value; *wire.Dict data
// is matched to field names. Constructors report shape mismatches with
// ErrConstruction.
type Constructor func(data any) (any, error)

// Registry resolves response type tags. The zero value is not usable;
// call NewRegistry.
type Registry struct {
	mu     sync.RWMutex
	ctors  map[string]Constructor
	logger *slog.Logger
}

// NewRegistry creates a registry holding the primitive aliases and the
// dict shapes.
func NewRegistry() *Registry {
	r := &Registry{
		ctors:  make(map[string]Constructor),
		logger: slog.Default(),
	}
	for tag, c := range builtins() {
		r.ctors[tag] = c
	}
	return r
}

// SetLogger sets the logger used to report degraded responses.
func (r *Registry) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	r.mu.Lock()
	r.logger = logger
	r.mu.Unlock()
}

// Register binds tag to c, replacing any previous binding.
func (r *Registry) Register(tag string, c Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctors[tag] = c
}

// Lookup returns the constructor bound to tag.
func (r *Registry) Lookup(tag string) (Constructor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.ctors[tag]
	return c, ok
}

// Tags returns every registered tag in sorted order.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]string, 0, len(r.ctors))
	for t := range r.ctors {
		tags = append(tags, t)
	}
	slices.Sort(tags)
	return tags
}

// Construct runs the constructor for tag. It fails with ErrUnresolvedType
// when no constructor is registered.
func (r *Registry) Construct(tag string, data any) (any, error) {
	c, ok := r.Lookup(tag)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnresolvedType, tag)
	}
	return c(data)
}

// Materialize converts resp into a typed value. Unresolved tags and shape
// mismatches return resp itself with a nil error.
func (r *Registry) Materialize(resp *wire.Response) (any, error) {
	v, err := r.Construct(resp.Type, resp.Data)
	if err == nil {
		return v, nil
	}
	if degradable(err) {
		r.mu.RLock()
		logger := r.logger
		r.mu.RUnlock()
		logger.Debug("response degraded to envelope", "type", resp.Type, "reason", err)
		return resp, nil
	}
	return nil, fmt.Errorf("materialize %q: %w", resp.Type, err)
}

// Degrades reports whether Materialize would return resp itself, either
// because the tag is unknown or because the data does not fit its shape.
func (r *Registry) Degrades(resp *wire.Response) bool {
	_, err := r.Construct(resp.Type, resp.Data)
	return err != nil && degradable(err)
}

// IsEnvelope reports whether v is a degraded raw response.
func IsEnvelope(v any) bool {
	_, ok := v.(*wire.Response)
	return ok
}

// As converts a materialized value to T.
func As[T any](v any) (T, bool) {
	t, ok := v.(T)
	return t, ok
}
