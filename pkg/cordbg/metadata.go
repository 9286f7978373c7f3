package cordbg

// Metadata is the service that resolves metadata tokens against a
// module's metadata tables. The frame layer uses it for exactly one
// thing: counting the generic parameters declared directly on a type
// or method token when splitting a frame's flat generic argument list.
type Metadata interface {
	// GenericParamCount returns the number of generic parameters
	// declared directly on the entity identified by token in module.
	// Parameters declared on enclosing entities are not counted.
	GenericParamCount(module Module, token uint32) (int, error)
}
