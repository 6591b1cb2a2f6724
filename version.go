package versioning

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// Version is a single atomic change: the operation, the path it applies to
// and the value it carries. Value is nil for deletions and for fields that
// become absent.
type Version struct {
	Op    Op
	Path  Path
	Value any
	// Position is the insertion position of a List addition. It is nil for
	// every other change.
	Position *int
}

// NewVersion builds a Version from a FieldPath string.
func NewVersion(path string, value any) (Version, error) {
	p, op, err := ParsePath(path)
	if err != nil {
		return Version{}, err
	}
	return Version{Op: op, Path: p, Value: value}, nil
}

// MustVersion is like NewVersion but panics on a malformed path.
func MustVersion(path string, value any) Version {
	v, err := NewVersion(path, value)
	if err != nil {
		panic(err)
	}
	return v
}

// PathString renders the path of v, including its mutation marker.
func (v Version) PathString() string {
	return FormatPath(v.Op, v.Path)
}

func (v Version) String() string {
	return v.PathString()
}

// Record is the serializable form of a Version. The operation travels inside
// the path as a mutation marker.
type Record struct {
	Path     string `json:"path" cbor:"path" msgpack:"path" yaml:"path"`
	Value    any    `json:"value" cbor:"value" msgpack:"value" yaml:"value"`
	Position *int   `json:"position,omitempty" cbor:"position,omitempty" msgpack:"position,omitempty" yaml:"position,omitempty"`
}

// Record returns the serializable form of v.
func (v Version) Record() Record {
	return Record{Path: v.PathString(), Value: v.Value, Position: v.Position}
}

// Version parses r back into a Version.
func (r Record) Version() (Version, error) {
	v, err := NewVersion(r.Path, r.Value)
	if err != nil {
		return Version{}, err
	}
	v.Position = r.Position
	return v, nil
}

func (v Version) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Record())
}

// UnmarshalJSON decodes numbers as json.Number so integers survive exactly
// until Apply converts them to the declared type.
func (v *Version) UnmarshalJSON(data []byte) error {
	var r Record
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&r); err != nil {
		return errors.Wrap(err, "decoding version")
	}
	parsed, err := r.Version()
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// DiffPair is the (before, after) input of Extract.
type DiffPair[T any] struct {
	Before T
	After  T
}
