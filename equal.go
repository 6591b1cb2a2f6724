package versioning

import (
	"math/big"
	"reflect"
	"time"
)

// Equal performs a deep structural equality check between a and b. Set
// members are matched by identity regardless of order; time.Time values are
// compared as instants and big numbers by value.
func Equal(a, b any) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !va.IsValid() || !vb.IsValid() {
		return va.IsValid() == vb.IsValid()
	}
	if va.Type() != vb.Type() {
		return false
	}
	d, err := describe(va.Type())
	if err != nil {
		return reflect.DeepEqual(a, b)
	}
	return equalValue(va, vb, d)
}

func equalValue(a, b reflect.Value, d *typeDesc) bool {
	switch d.kind {
	case KindLeaf:
		return leafEqual(a, b)
	case KindObject:
		if a.Kind() == reflect.Pointer {
			if a.IsNil() || b.IsNil() {
				return a.IsNil() == b.IsNil()
			}
			a, b = a.Elem(), b.Elem()
		}
		for _, f := range d.object().fields {
			if !equalValue(a.Field(f.index), b.Field(f.index), f.desc) {
				return false
			}
		}
		return true
	case KindList:
		if a.IsNil() != b.IsNil() || a.Len() != b.Len() {
			return false
		}
		for i := 0; i < a.Len(); i++ {
			if !equalValue(a.Index(i), b.Index(i), d.elem) {
				return false
			}
		}
		return true
	case KindSet:
		if a.IsNil() != b.IsNil() || a.Len() != b.Len() {
			return false
		}
		return equalSet(a, b, d.elem)
	case KindMap:
		if a.IsNil() != b.IsNil() || a.Len() != b.Len() {
			return false
		}
		iter := a.MapRange()
		for iter.Next() {
			bv := b.MapIndex(iter.Key())
			if !bv.IsValid() || !equalValue(iter.Value(), bv, d.elem) {
				return false
			}
		}
		return true
	}
	return false
}

func equalSet(a, b reflect.Value, elem *typeDesc) bool {
	idf, err := elem.identityField()
	if err != nil {
		return equalUnordered(a, b, elem)
	}

	byID := make(map[int64]reflect.Value, b.Len())
	for i := 0; i < b.Len(); i++ {
		id, ok := identityOf(b.Index(i), idf)
		if !ok {
			return equalUnordered(a, b, elem)
		}
		byID[id] = b.Index(i)
	}
	for i := 0; i < a.Len(); i++ {
		id, ok := identityOf(a.Index(i), idf)
		if !ok {
			return equalUnordered(a, b, elem)
		}
		bv, found := byID[id]
		if !found || !equalValue(a.Index(i), bv, elem) {
			return false
		}
	}
	return true
}

func equalUnordered(a, b reflect.Value, elem *typeDesc) bool {
	used := make([]bool, b.Len())
outer:
	for i := 0; i < a.Len(); i++ {
		for j := 0; j < b.Len(); j++ {
			if !used[j] && equalValue(a.Index(i), b.Index(j), elem) {
				used[j] = true
				continue outer
			}
		}
		return false
	}
	return true
}

var (
	timeType     = reflect.TypeOf(time.Time{})
	bigIntType   = reflect.TypeOf(big.Int{})
	bigFloatType = reflect.TypeOf(big.Float{})
	bigRatType   = reflect.TypeOf(big.Rat{})
)

// leafEqual compares two leaf values of the same type.
func leafEqual(a, b reflect.Value) bool {
	for a.Kind() == reflect.Pointer || a.Kind() == reflect.Interface {
		if a.IsNil() || b.IsNil() {
			return a.IsNil() == b.IsNil()
		}
		a, b = a.Elem(), b.Elem()
		if a.Type() != b.Type() {
			return false
		}
	}

	switch a.Type() {
	case timeType:
		return a.Interface().(time.Time).Equal(b.Interface().(time.Time))
	case bigIntType:
		return addr(a).Interface().(*big.Int).Cmp(addr(b).Interface().(*big.Int)) == 0
	case bigFloatType:
		return addr(a).Interface().(*big.Float).Cmp(addr(b).Interface().(*big.Float)) == 0
	case bigRatType:
		return addr(a).Interface().(*big.Rat).Cmp(addr(b).Interface().(*big.Rat)) == 0
	}

	return reflect.DeepEqual(a.Interface(), b.Interface())
}

// addr returns a pointer to v, copying it when v is not addressable.
func addr(v reflect.Value) reflect.Value {
	if v.CanAddr() {
		return v.Addr()
	}
	p := reflect.New(v.Type())
	p.Elem().Set(v)
	return p
}
