package serializer

import "sync"

// Mapper adapts an application schema descriptor (whatever shape a
// particular validation library uses to describe a type) into a
// Serializer. The registry lets callers plug in additional schema
// libraries beyond the built-in jsonschema/v5 adapter (§4.4).
type Mapper func(descriptor any) (Serializer, error)

// Registry maps named schema-descriptor kinds to the Mapper that knows how
// to turn a descriptor of that kind into a Serializer.
type Registry struct {
	mu      sync.RWMutex
	mappers map[string]Mapper
}

// NewRegistry returns a registry pre-populated with the built-in mappers:
// "any", "empty-object", "void-null" and "jsonschema".
func NewRegistry() *Registry {
	r := &Registry{mappers: make(map[string]Mapper)}
	r.Register("any", func(any) (Serializer, error) { return Any(), nil })
	r.Register("empty-object", func(any) (Serializer, error) { return EmptyObject(), nil })
	r.Register("void-null", func(any) (Serializer, error) { return VoidNull(), nil })
	r.Register("jsonschema", func(descriptor any) (Serializer, error) {
		schemaJSON, _ := descriptor.(string)
		return NewSchemaSerializer(schemaJSON)
	})
	return r
}

// Register installs or replaces the mapper for name.
func (r *Registry) Register(name string, m Mapper) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mappers[name] = m
}

// Resolve looks up the mapper for name and applies it to descriptor.
func (r *Registry) Resolve(name string, descriptor any) (Serializer, error) {
	r.mu.RLock()
	m, ok := r.mappers[name]
	r.mu.RUnlock()
	if !ok {
		return nil, errNoMapper(name)
	}
	return m(descriptor)
}

func errNoMapper(name string) error {
	return &unregisteredMapperError{name: name}
}

type unregisteredMapperError struct{ name string }

func (e *unregisteredMapperError) Error() string {
	return "serializer: no mapper registered for " + e.name
}
