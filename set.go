package versioning

// Set is an unordered collection of complex elements. Members are addressed
// by their identity, never by position, and keep insertion order only for
// deterministic iteration.
type Set[T any] []T

func (Set[T]) versionedSet() {}

type setMarker interface {
	versionedSet()
}
