package versioning

import (
	"reflect"
	"strconv"

	"github.com/pkg/errors"
)

// ResolveField resolves a single path segment against the schema of typ. The
// segment may carry an index and a mutation marker; an indexed segment must
// name a collection field.
func ResolveField(typ reflect.Type, segment string) (FieldDescriptor, error) {
	d, err := describe(typ)
	if err != nil {
		return FieldDescriptor{}, err
	}
	if d.kind != KindObject {
		return FieldDescriptor{}, pathError(nil, segment, "%v is a %s, not an object", typ, d.kind)
	}

	var seg Segment
	if m, ok := DecodeMutationMarker(segment); ok {
		seg = Segment{Name: m.Field, Index: m.Index, HasIndex: true}
	} else {
		seg, err = parseSegment(segment)
		if err != nil {
			return FieldDescriptor{}, pathError(nil, segment, "%v", err)
		}
	}

	f, ok := d.field(seg.Name)
	if !ok {
		return FieldDescriptor{}, pathError(nil, segment, "no field %q in %v", seg.Name, typ)
	}
	if seg.HasIndex && !f.Kind.isCollection() {
		return FieldDescriptor{}, pathError(nil, segment, "field %q is a %s and cannot be indexed", seg.Name, f.Kind)
	}
	return f, nil
}

// ResolveValue navigates instance along path and returns the value found
// there. List indexes are positions, Set indexes are identities and Map
// indexes are keys. An absent element yields an ElementNotFoundError.
func ResolveValue(instance any, path string) (any, error) {
	p, _, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	v := reflect.ValueOf(instance)
	if !v.IsValid() {
		return nil, pathError(p, "", "nil instance")
	}
	d, err := describe(v.Type())
	if err != nil {
		return nil, err
	}
	if err := checkPath(d, p, OpSet); err != nil {
		return nil, err
	}

	for i, seg := range p {
		switch d.kind {
		case KindObject:
			if v.Kind() == reflect.Pointer {
				if v.IsNil() {
					return nil, notFound(p, p[max(i-1, 0)].Name, seg.Name)
				}
				v = v.Elem()
			}
			f, _ := d.field(seg.Name)
			v, d = v.Field(f.index), f.desc
			if seg.HasIndex {
				if v, err = element(v, d, seg.Index, p, seg.Name); err != nil {
					return nil, err
				}
				d = d.elem
			}
		case KindMap:
			if v, err = element(v, d, seg.Name, p, p[i-1].Name); err != nil {
				return nil, err
			}
			d = d.elem
		}
	}

	return v.Interface(), nil
}

// element returns the member of collection v addressed by index.
func element(v reflect.Value, d *typeDesc, index string, path Path, field string) (reflect.Value, error) {
	switch d.kind {
	case KindList:
		n, _ := strconv.Atoi(index)
		if n >= v.Len() {
			return reflect.Value{}, notFound(path, field, index)
		}
		return v.Index(n), nil
	case KindSet:
		idf, err := d.elem.identityField()
		if err != nil {
			return reflect.Value{}, err
		}
		id, _ := strconv.ParseInt(index, 10, 64)
		pos := findIdentity(v, idf, id)
		if pos < 0 {
			return reflect.Value{}, notFound(path, field, index)
		}
		return v.Index(pos), nil
	case KindMap:
		if v.IsNil() {
			return reflect.Value{}, notFound(path, field, index)
		}
		e := v.MapIndex(reflect.ValueOf(index).Convert(v.Type().Key()))
		if !e.IsValid() {
			return reflect.Value{}, notFound(path, field, index)
		}
		return e, nil
	}
	return reflect.Value{}, pathError(path, field, "%s is not a collection", d.kind)
}

// findIdentity returns the position of the element with identity id, or -1.
func findIdentity(v reflect.Value, idf FieldDescriptor, id int64) int {
	for i := 0; i < v.Len(); i++ {
		if got, ok := identityOf(v.Index(i), idf); ok && got == id {
			return i
		}
	}
	return -1
}

func notFound(path Path, field, index string) error {
	return errors.WithStack(&ElementNotFoundError{Path: path.String(), Field: field, Index: index})
}

// checkPath verifies that path addresses a location that exists in the schema
// d and that op can be performed there.
func checkPath(d *typeDesc, path Path, op Op) error {
	if len(path) == 0 {
		return pathError(path, "", "empty path")
	}
	if op != OpSet && !path[len(path)-1].HasIndex {
		return pathError(path, path[len(path)-1].String(), "%s requires an indexed segment", op)
	}

	cur := d
	for i, seg := range path {
		switch cur.kind {
		case KindObject:
			f, ok := cur.field(seg.Name)
			if !ok {
				return pathError(path, seg.String(), "no field %q in %v", seg.Name, cur.typ)
			}
			if !seg.HasIndex {
				cur = f.desc
				continue
			}
			if !f.Kind.isCollection() {
				return pathError(path, seg.String(), "field %q is a %s and cannot be indexed", seg.Name, f.Kind)
			}
			if err := checkIndex(f.desc, seg, path); err != nil {
				return err
			}
			cur = f.desc.elem
		case KindMap:
			if seg.HasIndex {
				return pathError(path, seg.String(), "map member %q cannot be indexed", seg.Name)
			}
			cur = cur.elem
		case KindList, KindSet:
			return pathError(path, seg.String(), "%s %q must be addressed with an index", cur.kind, path[i-1].Name)
		default:
			return pathError(path, seg.String(), "cannot descend into leaf %q", path[i-1].Name)
		}
	}
	return nil
}

func checkIndex(coll *typeDesc, seg Segment, path Path) error {
	switch coll.kind {
	case KindList:
		if n, err := strconv.Atoi(seg.Index); err != nil || n < 0 {
			return pathError(path, seg.String(), "list index %q is not a non-negative integer", seg.Index)
		}
	case KindSet:
		if _, err := strconv.ParseInt(seg.Index, 10, 64); err != nil {
			return pathError(path, seg.String(), "set identity %q is not an integer", seg.Index)
		}
	}
	return nil
}
