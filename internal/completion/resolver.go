package completion

import "github.com/glsld/glsld/internal/glsl"

// Resolver answers the type questions the machine asks while walking.
// glsl.Snapshot implements it.
type Resolver interface {
	// LookupByName resolves name from scope outward. A nil scope means the
	// global scope.
	LookupByName(scope *glsl.Scope, name string) (*glsl.Symbol, bool)
	// LookupByPrefix lists visible symbols starting with prefix, inner
	// declarations hiding outer ones.
	LookupByPrefix(scope *glsl.Scope, prefix string) []*glsl.Symbol
	LookupBuiltinByName(name string) (*glsl.Symbol, bool)
	LookupBuiltinByPrefix(prefix string) []*glsl.Symbol
	UserDefinedTypes() []glsl.TypeSymbol
	// GlobalAggregates lists anonymous interface blocks whose members are
	// visible as globals.
	GlobalAggregates() []*glsl.StructType
}

// DocumentContext is what a completion request knows about the document.
type DocumentContext struct {
	Resolver Resolver
	// Scope is the innermost scope at the cursor.
	Scope *glsl.Scope
}

var _ Resolver = (*glsl.Snapshot)(nil)
