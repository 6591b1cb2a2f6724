package versioning

import (
	"reflect"
	"sort"
	"strconv"

	"github.com/pkg/errors"
)

// AssignIdentities walks root and gives every complex element of every List
// and Set (at any depth, including inside map values) that has a nil identity
// a fresh one. New identities count upward from one past the largest identity
// already present in the same collection, or from 0. Existing identities are
// never changed.
//
// Elements reachable through pointers and slices are updated in place; the
// returned value also carries the changes made to root's own fields.
func AssignIdentities[T any](root T) (T, error) {
	v := reflect.ValueOf(&root).Elem()
	d, err := describe(v.Type())
	if err != nil {
		return root, err
	}
	if d.kind != KindObject {
		return root, errors.Wrapf(ErrUnsupportedType, "root %v is not an object", v.Type())
	}
	if err := assignValue(v, d, nil); err != nil {
		return root, err
	}
	return root, nil
}

// AssignIdentitiesAll runs AssignIdentities over every root, in order.
func AssignIdentitiesAll[T any](roots []T) ([]T, error) {
	out := make([]T, len(roots))
	for i, root := range roots {
		r, err := AssignIdentities(root)
		if err != nil {
			return nil, &BatchError{Index: i, Err: err}
		}
		out[i] = r
	}
	return out, nil
}

func assignValue(v reflect.Value, d *typeDesc, path Path) error {
	switch d.kind {
	case KindObject:
		if v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return nil
			}
			v = v.Elem()
		}
		for _, f := range d.object().fields {
			if f.Kind == KindLeaf {
				continue
			}
			if err := assignValue(v.Field(f.index), f.desc, path.Field(f.Name)); err != nil {
				return err
			}
		}
	case KindList, KindSet:
		if v.IsNil() || v.Len() == 0 || d.elem.kind != KindObject {
			return nil
		}
		return assignCollection(v, d.elem, path)
	case KindMap:
		if v.IsNil() || d.elem.kind != KindObject {
			return nil
		}
		keys := v.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		for _, k := range keys {
			elemPath := path.Field(k.String())
			val := v.MapIndex(k)
			if val.Kind() == reflect.Pointer {
				if err := assignValue(val, d.elem, elemPath); err != nil {
					return err
				}
				continue
			}
			// Map values are not addressable: modify a copy and store it back.
			tmp := reflect.New(val.Type()).Elem()
			tmp.Set(val)
			if err := assignValue(tmp, d.elem, elemPath); err != nil {
				return err
			}
			v.SetMapIndex(k, tmp)
		}
	}
	return nil
}

func assignCollection(v reflect.Value, elem *typeDesc, path Path) error {
	idf, err := elem.identityField()
	if err != nil {
		return errors.Wrapf(err, "assigning identities to %s", path)
	}

	next := int64(0)
	for i := 0; i < v.Len(); i++ {
		if id, ok := identityOf(v.Index(i), idf); ok && id >= next {
			next = id + 1
		}
	}

	for i := 0; i < v.Len(); i++ {
		e := v.Index(i)
		if e.Kind() == reflect.Pointer && e.IsNil() {
			continue
		}
		id, ok := identityOf(e, idf)
		if !ok {
			id = next
			next++
			setIdentity(e, idf, id)
		}
		if err := assignValue(e, elem, path.withIndex(strconv.FormatInt(id, 10))); err != nil {
			return err
		}
	}
	return nil
}

// identityOf returns the identity of a collection element. ok is false when
// the element or its identity is nil.
func identityOf(e reflect.Value, idf FieldDescriptor) (int64, bool) {
	if e.Kind() == reflect.Pointer {
		if e.IsNil() {
			return 0, false
		}
		e = e.Elem()
	}
	f := e.Field(idf.index)
	if f.IsNil() {
		return 0, false
	}
	f = f.Elem()
	switch f.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(f.Uint()), true
	default:
		return f.Int(), true
	}
}

// setIdentity stores id into the identity field of an addressable element.
func setIdentity(e reflect.Value, idf FieldDescriptor, id int64) {
	if e.Kind() == reflect.Pointer {
		e = e.Elem()
	}
	p := reflect.New(idf.Type.Elem())
	switch p.Elem().Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		p.Elem().SetUint(uint64(id))
	default:
		p.Elem().SetInt(id)
	}
	e.Field(idf.index).Set(p)
}

// withIndex returns a copy of p whose terminal segment carries index.
func (p Path) withIndex(index string) Path {
	out := make(Path, len(p))
	copy(out, p)
	last := &out[len(out)-1]
	last.Index = index
	last.HasIndex = true
	return out
}
