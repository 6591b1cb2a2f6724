package testmodels

import (
	"time"
)

// Scenario is a named change to an Object produced by NewObject.
type Scenario struct {
	Name   string
	Mutate func(o *Object)
}

// Scenarios returns changes covering every container kind. Every scenario
// keeps element identities assigned and unique.
func Scenarios() []Scenario {
	return []Scenario{
		{"scalars", func(o *Object) {
			o.StringOne = "changed"
			o.IntOne = 42
		}},
		{"optional", func(o *Object) {
			o.Optional = Ptr("set")
		}},
		{"enum", func(o *Object) {
			o.Status = StatusArchived
		}},
		{"time", func(o *Object) {
			o.Updated = o.Updated.Add(time.Hour)
		}},
		{"tags modified", func(o *Object) {
			o.Tags = []string{"a", "x", "c", "d", "e"}
		}},
		{"tags cleared", func(o *Object) {
			o.Tags = nil
		}},
		{"child removed", func(o *Object) {
			o.Child = nil
		}},
		{"child modified", func(o *Object) {
			o.Child.Score = 99
		}},
		{"list prepend", func(o *Object) {
			o.ListObjects = append([]*ListObject{{IteratorID: Ptr(3), Name: "three"}}, o.ListObjects...)
		}},
		{"list insert", func(o *Object) {
			o.ListObjects = []*ListObject{
				o.ListObjects[0],
				{IteratorID: Ptr(4), Name: "four"},
				o.ListObjects[1],
				o.ListObjects[2],
			}
		}},
		{"list append", func(o *Object) {
			o.ListObjects = append(o.ListObjects, &ListObject{IteratorID: Ptr(3), Name: "three"})
		}},
		{"list delete", func(o *Object) {
			o.ListObjects = []*ListObject{o.ListObjects[0], o.ListObjects[2]}
		}},
		{"list emptied", func(o *Object) {
			o.ListObjects = []*ListObject{}
		}},
		{"list mixed", func(o *Object) {
			o.ListObjects[2].Name = "TWO"
			o.ListObjects = []*ListObject{
				{IteratorID: Ptr(8), Name: "eight"},
				o.ListObjects[1],
				o.ListObjects[2],
				{IteratorID: Ptr(9), Name: "nine", SubListObjects: []*SubListObject{{IteratorID: Ptr(0), Value: "n"}}},
			}
		}},
		{"list nested", func(o *Object) {
			sub := o.ListObjects[1].SubListObjects
			sub[0].Value = "changed"
			o.ListObjects[1].SubListObjects = []*SubListObject{sub[0], {IteratorID: Ptr(2), Value: "z"}}
			o.ListObjects[0].SubListObjects = []*SubListObject{{IteratorID: Ptr(0), Value: "first"}}
		}},
		{"set", func(o *Object) {
			o.SetObjects = append(o.SetObjects[1:], SetObject{Key: Ptr[int64](30), Label: "thirty"})
			o.SetObjects[0].Label = "TWENTY"
		}},
		{"map simple", func(o *Object) {
			delete(o.MapSimpleObjects, "other")
			o.MapSimpleObjects["new"] = "n"
			o.MapSimpleObjects["k"] = "changed"
			o.MapSimpleObjects["with.dot"] = "escaped"
		}},
		{"map awkward keys", func(o *Object) {
			o.MapSimpleObjects["x_ADD_y"] = "marker"
			o.MapSimpleObjects["a_DELETE_b"] = "marker"
			o.MapSimpleObjects[""] = "empty"
			o.MapPointers[""] = &Child{Name: "empty"}
		}},
		{"map complex add", func(o *Object) {
			o.MapComplexObjects["n"] = ComplexValue{
				StringOne: "new",
				Items:     []*SubListObject{{IteratorID: Ptr(0), Value: "z"}},
			}
		}},
		{"map complex nested", func(o *Object) {
			v := o.MapComplexObjects["k"]
			v.StringOne = "c2"
			v.Items[0].Value = "changed"
			v.Items = append(v.Items, &SubListObject{IteratorID: Ptr(1), Value: "j"})
			o.MapComplexObjects["k"] = v
		}},
		{"map complex delete", func(o *Object) {
			delete(o.MapComplexObjects, "k")
		}},
		{"map pointers", func(o *Object) {
			o.MapPointers["p"].Score = 5
			o.MapPointers["q"] = &Child{Name: "q"}
		}},
		{"map pointer nil", func(o *Object) {
			o.MapPointers["p"] = nil
		}},
		{"everything absent", func(o *Object) {
			*o = Object{}
		}},
	}
}
