package versioning

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"
)

var (
	// ErrPathResolution is matched by every PathResolutionError.
	ErrPathResolution = errors.New("path resolution failed")

	// ErrElementNotFound is matched by every ElementNotFoundError.
	ErrElementNotFound = errors.New("element not found")

	// ErrNoIdentityField is matched by every NoIdentityFieldError.
	ErrNoIdentityField = errors.New("no identity field")

	// ErrMissingIdentity is returned when a collection element that must be
	// addressed by identity has a nil identity.
	ErrMissingIdentity = errors.New("missing element identity")

	// ErrDuplicateIdentity is returned when two elements of the same
	// collection carry the same identity.
	ErrDuplicateIdentity = errors.New("duplicate element identity")

	// ErrUnsupportedType is returned when a type cannot be described by the
	// schema registry (functions, channels, non-string map keys, ...).
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrTypeMismatch is returned when a carried value cannot be converted to
	// the type of the location it is written to.
	ErrTypeMismatch = errors.New("type mismatch")
)

// PathResolutionError reports a path segment that does not match the
// declared shape of the value it is resolved against.
type PathResolutionError struct {
	Path    string
	Segment string
	Reason  string
}

func (e *PathResolutionError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("cannot resolve segment %q: %s", e.Segment, e.Reason)
	}
	return fmt.Sprintf("cannot resolve segment %q of path %q: %s", e.Segment, e.Path, e.Reason)
}

func (e *PathResolutionError) Is(target error) bool {
	return target == ErrPathResolution
}

// ElementNotFoundError reports an indexed List, Set or Map member that is
// absent while resolving a path for reading.
type ElementNotFoundError struct {
	Path  string
	Field string
	Index string
}

func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("no element %q in %q (path %q)", e.Index, e.Field, e.Path)
}

func (e *ElementNotFoundError) Is(target error) bool {
	return target == ErrElementNotFound
}

// NoIdentityFieldError reports a collection element type without an identity
// field.
type NoIdentityFieldError struct {
	Type reflect.Type
}

func (e *NoIdentityFieldError) Error() string {
	return fmt.Sprintf("type %v declares no identity field (tag a *int field with `version:\"id\"` or name it %s)",
		e.Type, DefaultIdentityField)
}

func (e *NoIdentityFieldError) Is(target error) bool {
	return target == ErrNoIdentityField
}

// IdentityError reports a problem with the identities found in one
// collection. Err is ErrMissingIdentity or ErrDuplicateIdentity.
type IdentityError struct {
	Path string
	Err  error
}

func (e *IdentityError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *IdentityError) Unwrap() error {
	return e.Err
}

// BatchError is returned by batch operations. Index is the position of the
// first failing element in the caller supplied input.
type BatchError struct {
	Index int
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch element %d: %v", e.Index, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

func pathError(path Path, segment, format string, args ...any) error {
	return errors.WithStack(&PathResolutionError{
		Path:    path.String(),
		Segment: segment,
		Reason:  fmt.Sprintf(format, args...),
	})
}
