package versioning

import (
	"fmt"
	"math/big"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// DefaultIdentityField is the path name of the identity field used when no
// field of an element type is tagged with `version:"id"`.
const DefaultIdentityField = "iteratorId"

// Kind is the structural classification of a type.
type Kind int

const (
	// KindLeaf values have a total equality and no further fields.
	KindLeaf Kind = iota
	// KindObject values are structs (or pointers to structs) with named fields.
	KindObject
	// KindList values are ordered collections (slices).
	KindList
	// KindSet values are unordered collections (Set[T]).
	KindSet
	// KindMap values are string keyed maps.
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindObject:
		return "object"
	case KindList:
		return "list"
	case KindSet:
		return "set"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

func (k Kind) isCollection() bool {
	return k == KindList || k == KindSet || k == KindMap
}

// typeDesc is the registered schema of a single type.
type typeDesc struct {
	typ  reflect.Type
	kind Kind

	// Objects. For pointers to structs, fields live on the struct descriptor
	// referenced by elem.
	fields   []FieldDescriptor
	byName   map[string]int
	identity int

	// Element descriptor of collections and of pointers to structs.
	elem *typeDesc
}

// object returns the descriptor holding the fields of an object type.
func (d *typeDesc) object() *typeDesc {
	if d.kind == KindObject && d.typ.Kind() == reflect.Pointer {
		return d.elem
	}
	return d
}

func (d *typeDesc) field(name string) (FieldDescriptor, bool) {
	obj := d.object()
	i, ok := obj.byName[name]
	if !ok {
		return FieldDescriptor{}, false
	}
	return obj.fields[i], true
}

func (d *typeDesc) identityField() (FieldDescriptor, error) {
	obj := d.object()
	if obj.kind != KindObject || obj.identity < 0 {
		return FieldDescriptor{}, errors.WithStack(&NoIdentityFieldError{Type: d.typ})
	}
	return obj.fields[obj.identity], nil
}

// FieldDescriptor describes one field of a registered object type.
type FieldDescriptor struct {
	// Name is the name used in paths: the json tag name when present,
	// otherwise the Go field name.
	Name string
	// GoName is the Go struct field name.
	GoName string
	// Kind is the container kind of the declared field type.
	Kind Kind
	// Type is the declared field type.
	Type reflect.Type
	// Identity is set on the element identity field.
	Identity bool

	index int
	desc  *typeDesc
}

// ElemType returns the element type of a collection field, or nil.
func (f FieldDescriptor) ElemType() reflect.Type {
	if !f.Kind.isCollection() {
		return nil
	}
	return f.desc.elem.typ
}

// ElemKind returns the kind of the elements of a collection field.
func (f FieldDescriptor) ElemKind() Kind {
	if !f.Kind.isCollection() {
		return KindLeaf
	}
	return f.desc.elem.kind
}

var (
	registry   sync.Map // map[reflect.Type]*typeDesc
	registryMu sync.Mutex

	leafTypes sync.Map // map[reflect.Type]struct{}

	setMarkerType = reflect.TypeOf((*setMarker)(nil)).Elem()
)

func init() {
	for _, t := range []reflect.Type{
		reflect.TypeOf(time.Time{}),
		reflect.TypeOf(time.Duration(0)),
		reflect.TypeOf(big.Int{}),
		reflect.TypeOf(big.Float{}),
		reflect.TypeOf(big.Rat{}),
		reflect.TypeOf(uuid.UUID{}),
	} {
		leafTypes.Store(t, struct{}{})
	}
}

// RegisterLeaf adds T to the set of leaf types. Leaf values are compared
// with reflect.DeepEqual and replaced as a whole. It must be called before
// any type containing T is registered.
func RegisterLeaf[T any]() {
	leafTypes.Store(reflect.TypeOf((*T)(nil)).Elem(), struct{}{})
}

// Register builds and caches the schema of T. Registration also happens
// lazily on first use; calling Register at startup surfaces unsupported
// types early.
func Register[T any]() error {
	_, err := describe(reflect.TypeOf((*T)(nil)).Elem())
	return err
}

// IsLeaf reports whether t is classified as a leaf type.
func IsLeaf(t reflect.Type) bool {
	if _, ok := leafTypes.Load(t); ok {
		return true
	}

	switch t.Kind() {
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32,
		reflect.Int64, reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64, reflect.Uintptr, reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128, reflect.String,
		reflect.Interface, reflect.Array:
		return true
	case reflect.Slice:
		return t.Elem().Kind() == reflect.Uint8 && !t.Implements(setMarkerType)
	case reflect.Pointer:
		return IsLeaf(t.Elem())
	}

	return false
}

func describe(t reflect.Type) (*typeDesc, error) {
	if d, ok := registry.Load(t); ok {
		return d.(*typeDesc), nil
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	building := make(map[reflect.Type]*typeDesc)
	d, err := build(t, building)
	if err != nil {
		return nil, err
	}
	for typ, desc := range building {
		registry.Store(typ, desc)
	}

	return d, nil
}

func build(t reflect.Type, building map[reflect.Type]*typeDesc) (*typeDesc, error) {
	if d, ok := registry.Load(t); ok {
		return d.(*typeDesc), nil
	}
	if d, ok := building[t]; ok {
		return d, nil
	}

	d := &typeDesc{typ: t, identity: -1}
	building[t] = d

	var err error
	switch {
	case IsLeaf(t):
		d.kind = KindLeaf
	case t.Kind() == reflect.Struct:
		d.kind = KindObject
		err = buildFields(d, building)
	case t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct:
		d.kind = KindObject
		d.elem, err = build(t.Elem(), building)
	case t.Kind() == reflect.Slice:
		d.kind = KindList
		if t.Implements(setMarkerType) {
			d.kind = KindSet
		}
		d.elem, err = buildElem(t, building)
		if err == nil && d.kind == KindSet && d.elem.kind != KindObject {
			err = errors.Wrapf(ErrUnsupportedType, "set %v: elements must be structs", t)
		}
	case t.Kind() == reflect.Map:
		if t.Key().Kind() != reflect.String {
			return nil, errors.Wrapf(ErrUnsupportedType, "map %v: keys must be strings", t)
		}
		d.kind = KindMap
		d.elem, err = buildElem(t, building)
	default:
		return nil, errors.Wrapf(ErrUnsupportedType, "%v", t)
	}
	if err != nil {
		return nil, err
	}

	return d, nil
}

func buildElem(t reflect.Type, building map[reflect.Type]*typeDesc) (*typeDesc, error) {
	elem, err := build(t.Elem(), building)
	if err != nil {
		return nil, err
	}
	if elem.kind.isCollection() {
		return nil, errors.Wrapf(ErrUnsupportedType, "%v: nested collections cannot be addressed", t)
	}
	return elem, nil
}

func buildFields(d *typeDesc, building map[reflect.Type]*typeDesc) error {
	t := d.typ
	d.byName = make(map[string]int)

	defaultIdentity := -1
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag := parseTag(sf)
		if tag.ignore {
			continue
		}

		fd, err := build(sf.Type, building)
		if err != nil {
			return errors.Wrapf(err, "field %s.%s", t.Name(), sf.Name)
		}

		name := sf.Name
		if jn := jsonName(sf); jn != "" {
			name = jn
		}
		if _, dup := d.byName[name]; dup {
			return errors.Wrapf(ErrUnsupportedType, "%v: duplicate field name %q", t, name)
		}

		field := FieldDescriptor{
			Name:   name,
			GoName: sf.Name,
			Kind:   fd.kind,
			Type:   sf.Type,
			index:  i,
			desc:   fd,
		}

		pos := len(d.fields)
		d.fields = append(d.fields, field)
		d.byName[name] = pos
		if sf.Name != name {
			if _, taken := d.byName[sf.Name]; !taken {
				d.byName[sf.Name] = pos
			}
		}

		switch {
		case tag.identity:
			if d.identity >= 0 {
				return errors.Wrapf(ErrUnsupportedType, "%v: more than one identity field", t)
			}
			d.identity = pos
		case name == DefaultIdentityField || sf.Name == "IteratorID" || sf.Name == "IteratorId":
			defaultIdentity = pos
		}
	}

	if d.identity < 0 {
		d.identity = defaultIdentity
	}
	if d.identity >= 0 {
		f := &d.fields[d.identity]
		if !isNullableInteger(f.Type) {
			return errors.Wrapf(ErrUnsupportedType, "%v: identity field %s must be a pointer to an integer, got %v",
				t, f.GoName, f.Type)
		}
		f.Identity = true
	}

	return nil
}

func isNullableInteger(t reflect.Type) bool {
	if t.Kind() != reflect.Pointer {
		return false
	}
	switch t.Elem().Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func (d *typeDesc) String() string {
	return fmt.Sprintf("%s(%v)", d.kind, d.typ)
}
