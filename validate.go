package versioning

import (
	"reflect"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Validate checks, without touching any value, that every version addresses
// a location that exists in the schema of T and that its operation can be
// performed there. All failures are reported together.
func Validate[T any](versions []Version) error {
	t := reflect.TypeOf((*T)(nil)).Elem()
	d, err := describe(t)
	if err != nil {
		return err
	}
	if d.kind != KindObject {
		return errors.Wrapf(ErrUnsupportedType, "root %v is not an object", t)
	}

	var result *multierror.Error
	for i, v := range versions {
		if err := checkPath(d, v.Path, v.Op); err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "version %d (%s)", i, v))
			continue
		}
		if v.Position != nil && (v.Op != OpAdd || *v.Position < 0) {
			result = multierror.Append(result, errors.Errorf("version %d (%s): position %d is only valid on a list addition",
				i, v, *v.Position))
		}
	}
	return result.ErrorOrNil()
}
