package versioning

import (
	"reflect"
	"sort"
	"strconv"

	"github.com/pkg/errors"
)

// Extract computes the change-set that transforms pair.Before into
// pair.After. Applying the result to a deep copy of Before yields a value
// Equal to After.
//
// Within a collection, deletions come first, then additions (in ascending
// position of the after state), then modifications of retained elements.
// Complex List and Set elements are matched by identity, so every one of them
// must carry a non-nil identity that is unique within its collection; see
// AssignIdentities. Neither input is modified.
func Extract[T any](pair DiffPair[T], opts ...Option) ([]Version, error) {
	a := reflect.ValueOf(&pair.Before).Elem()
	b := reflect.ValueOf(&pair.After).Elem()

	d, err := describe(a.Type())
	if err != nil {
		return nil, err
	}
	if d.kind != KindObject {
		return nil, errors.Wrapf(ErrUnsupportedType, "root %v is not an object", a.Type())
	}

	e := &extractor{config: newConfig(opts)}
	if err := e.object(a, b, d, loc{}); err != nil {
		return nil, err
	}
	return e.out, nil
}

type extractor struct {
	config *config
	out    []Version
}

func (e *extractor) emit(op Op, path Path, value any, position *int) error {
	if value != nil {
		cp, err := copyValue(e.config.copier, value)
		if err != nil {
			return errors.Wrapf(err, "path %s", path)
		}
		value = cp
	}
	e.out = append(e.out, Version{Op: op, Path: path, Value: value, Position: position})
	return nil
}

// loc is the extractor's position in the value graph. path is what gets
// emitted; key is what IgnorePath matches. They differ below List elements,
// which are emitted by position but ignored by identity.
type loc struct {
	path Path
	key  Path
}

func (l loc) field(name string) loc {
	return loc{path: l.path.Field(name), key: l.key.Field(name)}
}

func (l loc) index(pathIndex, keyIndex string) loc {
	return loc{path: l.path.withIndex(pathIndex), key: l.key.withIndex(keyIndex)}
}

func (e *extractor) ignored(l loc) bool {
	return e.config.ignored(l.key)
}

// object diffs two objects field by field. A nil pointer on either side is
// diffed as the zero value of the struct.
func (e *extractor) object(a, b reflect.Value, d *typeDesc, l loc) error {
	sa, sb := structOf(a), structOf(b)
	for _, f := range d.object().fields {
		if f.Identity {
			continue
		}
		fl := l.field(f.Name)
		if e.ignored(fl) {
			continue
		}
		if err := e.value(sa.Field(f.index), sb.Field(f.index), f.desc, fl); err != nil {
			return err
		}
	}
	return nil
}

func structOf(v reflect.Value) reflect.Value {
	if v.Kind() != reflect.Pointer {
		return v
	}
	if v.IsNil() {
		return reflect.Zero(v.Type().Elem())
	}
	return v.Elem()
}

func (e *extractor) value(a, b reflect.Value, d *typeDesc, l loc) error {
	if d.kind == KindLeaf {
		if leafEqual(a, b) {
			return nil
		}
		return e.emit(OpSet, l.path, leafValue(b), nil)
	}

	if a.Kind() == reflect.Pointer || a.Kind() == reflect.Slice || a.Kind() == reflect.Map {
		switch {
		case a.IsNil() && b.IsNil():
			return nil
		case b.IsNil():
			return e.emit(OpSet, l.path, nil, nil)
		case a.IsNil():
			return e.emit(OpSet, l.path, b.Interface(), nil)
		}
	}

	switch d.kind {
	case KindObject:
		return e.object(a, b, d, l)
	case KindList:
		if d.elem.kind == KindLeaf {
			return e.leafList(a, b, l)
		}
		return e.collection(a, b, d, l)
	case KindSet:
		return e.collection(a, b, d, l)
	case KindMap:
		return e.mapValue(a, b, d, l)
	}
	return nil
}

// leafList diffs a list of leaves by position: trailing deletions from the
// highest index down, then appended additions, then overwrites. Deletions and
// additions stop at the first ignored index, since only the tail of a leaf
// list can shrink or grow.
func (e *extractor) leafList(a, b reflect.Value, l loc) error {
	la, lb := a.Len(), b.Len()
	for i := la - 1; i >= lb; i-- {
		il := l.index(strconv.Itoa(i), strconv.Itoa(i))
		if e.ignored(il) {
			break
		}
		if err := e.emit(OpDelete, il.path, nil, nil); err != nil {
			return err
		}
	}
	for i := la; i < lb; i++ {
		il := l.index(strconv.Itoa(i), strconv.Itoa(i))
		if e.ignored(il) {
			break
		}
		if err := e.emit(OpAdd, il.path, leafValue(b.Index(i)), nil); err != nil {
			return err
		}
	}
	for i := 0; i < la && i < lb; i++ {
		il := l.index(strconv.Itoa(i), strconv.Itoa(i))
		if leafEqual(a.Index(i), b.Index(i)) || e.ignored(il) {
			continue
		}
		if err := e.emit(OpSet, il.path, leafValue(b.Index(i)), nil); err != nil {
			return err
		}
	}
	return nil
}

// identities indexes the elements of a complex collection by identity.
func identities(v reflect.Value, idf FieldDescriptor, path Path) ([]int64, map[int64]int, error) {
	ids := make([]int64, v.Len())
	pos := make(map[int64]int, v.Len())
	for i := 0; i < v.Len(); i++ {
		id, ok := identityOf(v.Index(i), idf)
		if !ok {
			return nil, nil, errors.WithStack(&IdentityError{
				Path: path.withIndex(strconv.Itoa(i)).String(),
				Err:  ErrMissingIdentity,
			})
		}
		if _, dup := pos[id]; dup {
			return nil, nil, errors.WithStack(&IdentityError{
				Path: path.withIndex(strconv.FormatInt(id, 10)).String(),
				Err:  ErrDuplicateIdentity,
			})
		}
		ids[i] = id
		pos[id] = i
	}
	return ids, pos, nil
}

// collection diffs Lists and Sets of complex elements, matching elements by
// identity.
func (e *extractor) collection(a, b reflect.Value, d *typeDesc, l loc) error {
	if a.Len() == 0 && b.Len() == 0 {
		return nil
	}
	idf, err := d.elem.identityField()
	if err != nil {
		return errors.Wrapf(err, "path %s", l.path)
	}

	idsA, posA, err := identities(a, idf, l.path)
	if err != nil {
		return err
	}
	idsB, posB, err := identities(b, idf, l.path)
	if err != nil {
		return err
	}

	// sim tracks the identities of the collection as the applier will see it
	// while replaying the changes emitted so far.
	sim := make([]int64, 0, len(idsA)+len(idsB))
	for _, id := range idsA {
		if _, kept := posB[id]; kept {
			sim = append(sim, id)
			continue
		}
		el := l.index(formatID(id), formatID(id))
		if e.ignored(el) {
			// Not deleted, so it stays in the target.
			sim = append(sim, id)
			continue
		}
		if err := e.emit(OpDelete, el.path, nil, nil); err != nil {
			return err
		}
	}

	for j, id := range idsB {
		if _, existed := posA[id]; existed {
			continue
		}
		el := l.index(formatID(id), formatID(id))
		if e.ignored(el) {
			continue
		}
		var position *int
		if d.kind == KindList {
			p := j
			if p > len(sim) {
				p = len(sim)
			}
			sim = append(sim, 0)
			copy(sim[p+1:], sim[p:])
			sim[p] = id
			position = &p
		} else {
			sim = append(sim, id)
		}
		if err := e.emit(OpAdd, el.path, b.Index(j).Interface(), position); err != nil {
			return err
		}
	}

	simPos := make(map[int64]int, len(sim))
	for i, id := range sim {
		simPos[id] = i
	}
	for j, id := range idsB {
		ia, existed := posA[id]
		if !existed {
			continue
		}
		index := formatID(id)
		if d.kind == KindList {
			index = strconv.Itoa(simPos[id])
		}
		el := l.index(index, formatID(id))
		if e.ignored(el) {
			continue
		}
		if err := e.object(a.Index(ia), b.Index(j), d.elem, el); err != nil {
			return err
		}
	}
	return nil
}

// mapValue diffs string keyed maps in key order. Deletions and additions use
// the bracket form, modifications address the member with a key segment.
// IgnorePath matches a member in either form.
func (e *extractor) mapValue(a, b reflect.Value, d *typeDesc, l loc) error {
	keysA, keysB := sortedKeys(a), sortedKeys(b)
	ignored := func(key string) bool {
		return e.config.ignored(l.key.Field(key)) || e.config.ignored(l.key.withIndex(key))
	}

	for _, k := range keysA {
		if b.MapIndex(k).IsValid() || ignored(k.String()) {
			continue
		}
		if err := e.emit(OpDelete, l.path.withIndex(k.String()), nil, nil); err != nil {
			return err
		}
	}

	for _, k := range keysB {
		if a.MapIndex(k).IsValid() || ignored(k.String()) {
			continue
		}
		var value any
		if d.elem.kind == KindLeaf {
			value = leafValue(b.MapIndex(k))
		} else {
			value = b.MapIndex(k).Interface()
		}
		if err := e.emit(OpAdd, l.path.withIndex(k.String()), value, nil); err != nil {
			return err
		}
	}

	for _, k := range keysB {
		va := a.MapIndex(k)
		if !va.IsValid() || ignored(k.String()) {
			continue
		}
		if err := e.value(va, b.MapIndex(k), d.elem, l.field(k.String())); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys(m reflect.Value) []reflect.Value {
	keys := m.MapKeys()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
