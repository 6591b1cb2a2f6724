package versioning

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"

	"github.com/pkg/errors"
)

// convertValue converts v to targetType. Values decoded from a serialized
// change-set arrive as generic values (float64, json.Number, map[string]any,
// []any, ...) and are converted back into the declared type here.
func convertValue(v reflect.Value, targetType reflect.Type) (reflect.Value, error) {
	if !v.IsValid() {
		return reflect.Zero(targetType), nil
	}

	if v.Type().AssignableTo(targetType) {
		return v, nil
	}

	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Zero(targetType), nil
		}
		return convertValue(v.Elem(), targetType)
	}

	// Handle pointer wrapping and unwrapping.
	if targetType.Kind() == reflect.Pointer {
		if v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return reflect.Zero(targetType), nil
			}
			return convertValue(v.Elem(), targetType)
		}
		inner, err := convertValue(v, targetType.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		ptr := reflect.New(targetType.Elem())
		ptr.Elem().Set(inner)
		return ptr, nil
	}
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Zero(targetType), nil
		}
		return convertValue(v.Elem(), targetType)
	}

	if n, ok := v.Interface().(json.Number); ok && isNumberKind(targetType.Kind()) {
		return convertNumber(n, targetType)
	}

	switch {
	case isNumberKind(v.Kind()) && isNumberKind(targetType.Kind()):
		return convertNumeric(v, targetType)
	case v.Kind() == reflect.String && targetType.Kind() == reflect.String,
		v.Kind() == reflect.Bool && targetType.Kind() == reflect.Bool:
		return v.Convert(targetType), nil
	case v.Kind() == reflect.Slice && targetType.Kind() == reflect.Slice && !IsLeaf(targetType):
		return convertSlice(v, targetType)
	case v.Kind() == reflect.Map && targetType.Kind() == reflect.Map:
		return convertMap(v, targetType)
	}

	// Handle Map -> Struct and string -> time.Time and the like (JSON
	// Unmarshal).
	data, err := json.Marshal(v.Interface())
	if err != nil {
		return reflect.Value{}, errors.Wrapf(ErrTypeMismatch, "cannot convert %v to %v: %v", v.Type(), targetType, err)
	}
	out := reflect.New(targetType)
	if err := json.Unmarshal(data, out.Interface()); err != nil {
		return reflect.Value{}, errors.Wrapf(ErrTypeMismatch, "cannot convert %v to %v: %v", v.Type(), targetType, err)
	}
	return out.Elem(), nil
}

func convertSlice(v reflect.Value, targetType reflect.Type) (reflect.Value, error) {
	if v.IsNil() {
		return reflect.Zero(targetType), nil
	}
	out := reflect.MakeSlice(targetType, v.Len(), v.Len())
	for i := 0; i < v.Len(); i++ {
		elem, err := convertValue(v.Index(i), targetType.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		out.Index(i).Set(elem)
	}
	return out, nil
}

func convertMap(v reflect.Value, targetType reflect.Type) (reflect.Value, error) {
	if v.IsNil() {
		return reflect.Zero(targetType), nil
	}
	out := reflect.MakeMapWithSize(targetType, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		k, err := convertValue(iter.Key(), targetType.Key())
		if err != nil {
			return reflect.Value{}, err
		}
		e, err := convertValue(iter.Value(), targetType.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetMapIndex(k, e)
	}
	return out, nil
}

func convertNumber(n json.Number, targetType reflect.Type) (reflect.Value, error) {
	out := reflect.New(targetType).Elem()
	switch targetType.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(string(n), 10, 64)
		if err != nil {
			f, ferr := n.Float64()
			if ferr != nil {
				return reflect.Value{}, errors.Wrapf(ErrTypeMismatch, "number %s: %v", n, err)
			}
			return convertNumeric(reflect.ValueOf(f), targetType)
		}
		if out.OverflowInt(i) {
			return reflect.Value{}, errors.Wrapf(ErrTypeMismatch, "number %s overflows %v", n, targetType)
		}
		out.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u, err := strconv.ParseUint(string(n), 10, 64)
		if err != nil {
			f, ferr := n.Float64()
			if ferr != nil {
				return reflect.Value{}, errors.Wrapf(ErrTypeMismatch, "number %s: %v", n, err)
			}
			return convertNumeric(reflect.ValueOf(f), targetType)
		}
		if out.OverflowUint(u) {
			return reflect.Value{}, errors.Wrapf(ErrTypeMismatch, "number %s overflows %v", n, targetType)
		}
		out.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := n.Float64()
		if err != nil {
			return reflect.Value{}, errors.Wrapf(ErrTypeMismatch, "number %s: %v", n, err)
		}
		if out.OverflowFloat(f) {
			return reflect.Value{}, errors.Wrapf(ErrTypeMismatch, "number %s overflows %v", n, targetType)
		}
		out.SetFloat(f)
	default:
		return reflect.Value{}, errors.Wrapf(ErrTypeMismatch, "number %s into %v", n, targetType)
	}
	return out, nil
}

// convertNumeric converts between number kinds, refusing values the target
// cannot hold: out of range values, and fractions or negatives where the
// target cannot represent them.
func convertNumeric(v reflect.Value, targetType reflect.Type) (reflect.Value, error) {
	out := reflect.New(targetType).Elem()
	mismatch := func() (reflect.Value, error) {
		return reflect.Value{}, errors.Wrapf(ErrTypeMismatch, "%v does not fit in %v", v.Interface(), targetType)
	}

	switch targetType.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		var i int64
		switch v.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			i = v.Int()
		case reflect.Float32, reflect.Float64:
			f := v.Float()
			if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
				return mismatch()
			}
			i = int64(f)
		default:
			u := v.Uint()
			if u > math.MaxInt64 {
				return mismatch()
			}
			i = int64(u)
		}
		if out.OverflowInt(i) {
			return mismatch()
		}
		out.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		var u uint64
		switch v.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if v.Int() < 0 {
				return mismatch()
			}
			u = uint64(v.Int())
		case reflect.Float32, reflect.Float64:
			f := v.Float()
			if f != math.Trunc(f) || f < 0 || f >= math.MaxUint64 {
				return mismatch()
			}
			u = uint64(f)
		default:
			u = v.Uint()
		}
		if out.OverflowUint(u) {
			return mismatch()
		}
		out.SetUint(u)
	default:
		f := v.Convert(reflect.TypeOf(float64(0))).Float()
		if out.OverflowFloat(f) {
			return mismatch()
		}
		out.SetFloat(f)
	}
	return out, nil
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// leafValue returns the value carried by a Version for a leaf. Pointers to
// basic kinds are dereferenced so serialized change-sets carry plain values;
// nil becomes nil.
func leafValue(v reflect.Value) any {
	for v.Kind() == reflect.Pointer && v.Elem().Kind() != reflect.Struct {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) && v.IsNil() {
		return nil
	}
	return v.Interface()
}
