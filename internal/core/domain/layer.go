package domain

// Arc names the composition arc that brought a layer into the stack.
type Arc string

// Known composition arcs.
const (
	// ArcSession is the session layer, stronger than the root layer.
	ArcSession Arc = "Session"
	// ArcRoot is the stage's root layer.
	ArcRoot Arc = "Root"
	// ArcSublayer is a layer reached through a subLayers list.
	ArcSublayer Arc = "Sublayer"
)

// String returns the string representation.
func (a Arc) String() string {
	return string(a)
}

// LayerSpec is what a document provider reports about one layer.
// Providers list them strongest first.
type LayerSpec struct {
	// Identifier is the unique layer identifier (usually a file path).
	Identifier string

	// DisplayName is the short human-readable label.
	DisplayName string

	// Arc is how the layer entered the stack.
	Arc Arc
}

// Layer is a ranked member of a layer stack. Immutable once the stack is built.
type Layer struct {
	// Identifier is the unique layer identifier.
	Identifier string

	// DisplayName is the short human-readable label.
	DisplayName string

	// Rank is the stack position; lower is stronger and ranks are unique.
	Rank int

	// Arc is how the layer entered the stack.
	Arc Arc

	// Color is the "#rrggbb" tag derived from Identifier.
	Color string
}

// Stronger reports whether l outranks other.
func (l Layer) Stronger(other Layer) bool {
	return l.Rank < other.Rank
}

// TimeRange is the authored playback range of a stage.
type TimeRange struct {
	Start TimeCode
	End   TimeCode

	// TimeCodesPerSecond is informational; sampling never depends on it.
	TimeCodesPerSecond float64
}

// IsEmpty reports whether no range was authored.
func (r TimeRange) IsEmpty() bool {
	return r.Start == 0 && r.End == 0
}

// Clamp restricts t to the range. An empty range leaves t untouched.
func (r TimeRange) Clamp(t TimeCode) TimeCode {
	if r.IsEmpty() {
		return t
	}
	if t < r.Start {
		return r.Start
	}
	if t > r.End {
		return r.End
	}
	return t
}
