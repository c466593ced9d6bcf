package domain

// Specifier records how a prim spec was introduced in a layer.
type Specifier string

const (
	// SpecifierDef defines a concrete prim.
	SpecifierDef Specifier = "def"
	// SpecifierOver overrides a prim defined elsewhere.
	SpecifierOver Specifier = "over"
	// SpecifierClass defines an abstract prim.
	SpecifierClass Specifier = "class"
)

// Node is a prim of the composed stage.
// Children are referenced by path so nodes stay independently evictable.
type Node struct {
	// Path is the unique hierarchical key.
	Path Path

	// TypeName is the composed schema type, empty for typeless prims.
	TypeName string

	// Specifier is the strongest specifier authored for the prim.
	Specifier Specifier

	// Children lists child paths in composed order.
	Children []Path

	// Properties lists property names in dictionary order.
	Properties []string
}

// Name returns the last path segment.
func (n Node) Name() string {
	return n.Path.Name()
}

// HasChildren reports whether the node has any children.
func (n Node) HasChildren() bool {
	return len(n.Children) > 0
}

// PropertyKind distinguishes attributes from relationships.
type PropertyKind string

const (
	// PropertyAttribute holds typed values.
	PropertyAttribute PropertyKind = "attribute"
	// PropertyRelationship holds target paths.
	PropertyRelationship PropertyKind = "relationship"
)

// PropertyInfo describes a composed property of a node.
type PropertyInfo struct {
	// Name is the property name, possibly namespaced ("xformOp:translate").
	Name string

	// Kind is attribute or relationship.
	Kind PropertyKind

	// TypeName is the declared value type ("double3", "token", "float[]").
	// Relationships report an empty TypeName.
	TypeName string
}

// Label returns the short column label used by presenters.
func (p PropertyInfo) Label() string {
	if p.Kind == PropertyRelationship {
		return "Rel"
	}
	return "Attr"
}
