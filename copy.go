package versioning

import (
	"reflect"

	"github.com/barkimedes/go-deepcopy"
	"github.com/huandu/go-clone"
	"github.com/mitchellh/copystructure"
	"github.com/pkg/errors"
)

// Copier produces deep copies of values. Extract copies every value it puts
// into a Version and Apply copies every value it writes into a target, so a
// change-set never aliases the states it was computed from or applied to.
type Copier interface {
	Copy(v any) (any, error)
}

// CopierFunc adapts a function to the Copier interface.
type CopierFunc func(v any) (any, error)

func (f CopierFunc) Copy(v any) (any, error) {
	return f(v)
}

var (
	// CloneCopier copies with github.com/huandu/go-clone. It is the default.
	CloneCopier Copier = CopierFunc(func(v any) (any, error) {
		return clone.Clone(v), nil
	})

	// CopystructureCopier copies with github.com/mitchellh/copystructure.
	CopystructureCopier Copier = CopierFunc(copystructure.Copy)

	// DeepcopyCopier copies with github.com/barkimedes/go-deepcopy. It skips
	// unexported struct fields, so values such as time.Time do not survive
	// the copy.
	DeepcopyCopier Copier = CopierFunc(deepcopy.Anything)
)

// Copy creates a deep copy of src with the configured Copier (CloneCopier
// unless WithCopier is given).
func Copy[T any](src T, opts ...Option) (T, error) {
	cfg := newConfig(opts)
	return copyAs[T](cfg.copier, src)
}

// MustCopy is like Copy but panics on failure.
func MustCopy[T any](src T, opts ...Option) T {
	dst, err := Copy(src, opts...)
	if err != nil {
		panic(err)
	}
	return dst
}

func copyAs[T any](c Copier, src T) (T, error) {
	var zero T
	out, err := copyValue(c, src)
	if err != nil {
		return zero, err
	}
	if out == nil {
		return zero, nil
	}
	dst, ok := out.(T)
	if !ok {
		return zero, errors.Wrapf(ErrTypeMismatch, "copier returned %T for %T", out, src)
	}
	return dst, nil
}

func copyValue(c Copier, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if rv := reflect.ValueOf(v); (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Slice ||
		rv.Kind() == reflect.Map) && rv.IsNil() {
		return v, nil
	}
	out, err := c.Copy(v)
	if err != nil {
		return nil, errors.Wrapf(err, "copying %T", v)
	}
	return out, nil
}
