package versioning

import (
	"reflect"
	"strconv"

	"github.com/pkg/errors"
)

// Apply replays versions, in order, onto target and returns it.
//
// Nil intermediate objects, lists and maps are created on demand. Removing
// an element that is not there is a no-op, so delete changes are idempotent.
// Values are deep-copied before they are written, and converted to the type
// of their destination when they come from a decoded change-set.
//
// Deleting a member of a list of leaves is positional and only allowed on the
// last element; an index past the end is a no-op. Extract emits leaf list
// deletions from the tail down, so they replay under this rule.
//
// Apply mutates target in place: if a version fails, the versions before it
// stay applied and an error naming the failing version is returned. Use
// ApplyCopy when the original must be kept intact on failure.
func Apply[T any](target *T, versions []Version, opts ...Option) (*T, error) {
	if target == nil {
		return nil, errors.New("versioning: nil target")
	}

	root := reflect.ValueOf(target).Elem()
	d, err := describe(root.Type())
	if err != nil {
		return target, err
	}
	if d.kind != KindObject {
		return target, errors.Wrapf(ErrUnsupportedType, "root %v is not an object", root.Type())
	}

	ap := &applier{config: newConfig(opts)}
	for i, v := range versions {
		if err := checkPath(d, v.Path, v.Op); err != nil {
			return target, errors.Wrapf(err, "version %d (%s)", i, v)
		}
		if err := ap.walk(root, d, v, 0); err != nil {
			return target, errors.Wrapf(err, "version %d (%s)", i, v)
		}
	}
	return target, nil
}

// ApplyCopy applies versions to a deep copy of target. The copy is returned
// only when every version applied; target itself is never modified.
func ApplyCopy[T any](target T, versions []Version, opts ...Option) (T, error) {
	var zero T

	cfg := newConfig(opts)
	cp, err := copyAs[T](cfg.copier, target)
	if err != nil {
		return zero, err
	}
	if _, err := Apply(&cp, versions, opts...); err != nil {
		return zero, err
	}
	return cp, nil
}

type applier struct {
	config *config
}

// walk resolves v.Path[i:] below v, whose schema is d, and performs the
// change on the terminal segment.
func (ap *applier) walk(v reflect.Value, d *typeDesc, ver Version, i int) error {
	seg := ver.Path[i]
	last := i == len(ver.Path)-1

	if d.kind == KindMap {
		return ap.mapMember(v, d, seg.Name, ver, i)
	}

	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			if ver.Op == OpDelete {
				return nil
			}
			v.Set(reflect.New(v.Type().Elem()))
		}
		v = v.Elem()
	}

	f, _ := d.field(seg.Name)
	fv := v.Field(f.index)
	switch {
	case seg.HasIndex:
		return ap.collection(fv, f.desc, seg.Index, ver, i)
	case last:
		return ap.assign(fv, ver.Value)
	default:
		return ap.walk(fv, f.desc, ver, i+1)
	}
}

func (ap *applier) assign(dst reflect.Value, value any) error {
	nv, err := ap.materialize(value, dst.Type())
	if err != nil {
		return err
	}
	dst.Set(nv)
	return nil
}

// materialize copies value and converts it to t.
func (ap *applier) materialize(value any, t reflect.Type) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(t), nil
	}
	cp, err := copyValue(ap.config.copier, value)
	if err != nil {
		return reflect.Value{}, err
	}
	return convertValue(reflect.ValueOf(cp), t)
}

func (ap *applier) collection(fv reflect.Value, d *typeDesc, index string, ver Version, i int) error {
	if fv.IsNil() {
		if ver.Op == OpDelete {
			return nil
		}
		if d.kind == KindMap {
			fv.Set(reflect.MakeMap(fv.Type()))
		} else {
			fv.Set(reflect.MakeSlice(fv.Type(), 0, 0))
		}
	}

	switch d.kind {
	case KindMap:
		return ap.mapMember(fv, d, index, ver, i)
	case KindSet:
		return ap.set(fv, d, index, ver, i)
	default:
		return ap.list(fv, d, index, ver, i)
	}
}

func (ap *applier) mapMember(m reflect.Value, d *typeDesc, key string, ver Version, i int) error {
	if m.IsNil() {
		if ver.Op == OpDelete {
			return nil
		}
		m.Set(reflect.MakeMap(m.Type()))
	}

	k := reflect.ValueOf(key).Convert(m.Type().Key())
	et := m.Type().Elem()

	if i == len(ver.Path)-1 {
		if ver.Op == OpDelete {
			m.SetMapIndex(k, reflect.Value{})
			return nil
		}
		nv, err := ap.materialize(ver.Value, et)
		if err != nil {
			return err
		}
		m.SetMapIndex(k, nv)
		return nil
	}

	val := m.MapIndex(k)
	if et.Kind() == reflect.Pointer {
		if !val.IsValid() || val.IsNil() {
			if ver.Op == OpDelete {
				return nil
			}
			val = reflect.New(et.Elem())
			m.SetMapIndex(k, val)
		}
		return ap.walk(val, d.elem, ver, i+1)
	}

	// Map values are not addressable: modify a copy and store it back.
	tmp := reflect.New(et).Elem()
	if val.IsValid() {
		tmp.Set(val)
	} else if ver.Op == OpDelete {
		return nil
	}
	if err := ap.walk(tmp, d.elem, ver, i+1); err != nil {
		return err
	}
	m.SetMapIndex(k, tmp)
	return nil
}

func (ap *applier) list(fv reflect.Value, d *typeDesc, index string, ver Version, i int) error {
	complexElems := d.elem.kind == KindObject

	if i < len(ver.Path)-1 {
		n, _ := strconv.Atoi(index)
		if n >= fv.Len() {
			if ver.Op == OpDelete {
				return nil
			}
			return notFound(ver.Path, ver.Path[i].Name, index)
		}
		return ap.walk(fv.Index(n), d.elem, ver, i+1)
	}

	switch ver.Op {
	case OpAdd:
		nv, err := ap.materialize(ver.Value, fv.Type().Elem())
		if err != nil {
			return err
		}
		pos := fv.Len()
		if ver.Position != nil {
			pos = *ver.Position
		} else if !complexElems {
			pos, _ = strconv.Atoi(index)
		}
		if pos < 0 || pos > fv.Len() {
			pos = fv.Len()
		}
		fv.Set(insertAt(fv, pos, nv))
	case OpDelete:
		pos := -1
		if complexElems {
			idf, err := d.elem.identityField()
			if err != nil {
				return err
			}
			id, _ := strconv.ParseInt(index, 10, 64)
			pos = findIdentity(fv, idf, id)
		} else if n, _ := strconv.Atoi(index); n < fv.Len() {
			// Leaf lists only shrink from the tail.
			if n != fv.Len()-1 {
				return pathError(ver.Path, ver.Path[i].String(),
					"only the last element of a leaf list can be deleted (length %d)", fv.Len())
			}
			pos = n
		}
		if pos >= 0 {
			fv.Set(removeAt(fv, pos))
		}
	default:
		n, _ := strconv.Atoi(index)
		if n > fv.Len() {
			return notFound(ver.Path, ver.Path[i].Name, index)
		}
		nv, err := ap.materialize(ver.Value, fv.Type().Elem())
		if err != nil {
			return err
		}
		if n == fv.Len() {
			fv.Set(insertAt(fv, n, nv))
		} else {
			fv.Index(n).Set(nv)
		}
	}
	return nil
}

func (ap *applier) set(fv reflect.Value, d *typeDesc, index string, ver Version, i int) error {
	idf, err := d.elem.identityField()
	if err != nil {
		return err
	}
	id, _ := strconv.ParseInt(index, 10, 64)
	pos := findIdentity(fv, idf, id)

	if i < len(ver.Path)-1 {
		if pos < 0 {
			if ver.Op == OpDelete {
				return nil
			}
			return notFound(ver.Path, ver.Path[i].Name, index)
		}
		return ap.walk(fv.Index(pos), d.elem, ver, i+1)
	}

	if ver.Op == OpDelete {
		if pos >= 0 {
			fv.Set(removeAt(fv, pos))
		}
		return nil
	}

	nv, err := ap.materialize(ver.Value, fv.Type().Elem())
	if err != nil {
		return err
	}
	if pos >= 0 {
		fv.Index(pos).Set(nv)
	} else {
		fv.Set(insertAt(fv, fv.Len(), nv))
	}
	return nil
}

// insertAt returns a new slice with v inserted at pos. The backing array of s
// is never written.
func insertAt(s reflect.Value, pos int, v reflect.Value) reflect.Value {
	out := reflect.MakeSlice(s.Type(), s.Len()+1, s.Len()+1)
	reflect.Copy(out, s.Slice(0, pos))
	out.Index(pos).Set(v)
	reflect.Copy(out.Slice(pos+1, out.Len()), s.Slice(pos, s.Len()))
	return out
}

// removeAt returns a new slice without the element at pos.
func removeAt(s reflect.Value, pos int) reflect.Value {
	out := reflect.MakeSlice(s.Type(), 0, s.Len()-1)
	out = reflect.AppendSlice(out, s.Slice(0, pos))
	return reflect.AppendSlice(out, s.Slice(pos+1, s.Len()))
}
