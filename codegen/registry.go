package codegen

import "github.com/fenix-project/arx/ast"

// Registry records the most recent prototype seen for every function name.  It
// outlives individual top-level inputs so calls can name functions declared
// by earlier inputs.
type Registry struct {
	protos map[string]*ast.Prototype
}

// NewRegistry creates an empty function registry.
func NewRegistry() *Registry {
	return &Registry{protos: make(map[string]*ast.Prototype)}
}

// Register stores proto under its name, replacing any earlier prototype.  The
// registry takes ownership of proto: callers should pass a copy they no longer
// mutate.
func (r *Registry) Register(proto *ast.Prototype) {
	r.protos[proto.Name] = proto
}

// Resolve returns the prototype registered under name.
func (r *Registry) Resolve(name string) (*ast.Prototype, bool) {
	proto, ok := r.protos[name]
	return proto, ok
}

// Len returns the number of registered prototypes.
func (r *Registry) Len() int {
	return len(r.protos)
}
