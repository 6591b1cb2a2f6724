// Package testmodels holds the state types shared by the tests and examples.
package testmodels

import (
	"time"

	"github.com/brunoga/versioning"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// Object is a root state exercising every container kind.
type Object struct {
	StringOne         string                    `json:"stringOne"`
	IntOne            int                       `json:"intOne"`
	Optional          *string                   `json:"optional,omitempty"`
	Status            Status                    `json:"status,omitempty"`
	Updated           time.Time                 `json:"updated"`
	Tags              []string                  `json:"tags,omitempty"`
	Child             *Child                    `json:"child,omitempty"`
	ListObjects       []*ListObject             `json:"listObjects,omitempty"`
	SetObjects        versioning.Set[SetObject] `json:"setObjects,omitempty"`
	MapSimpleObjects  map[string]string         `json:"mapSimpleObjects,omitempty"`
	MapComplexObjects map[string]ComplexValue   `json:"mapComplexObjects,omitempty"`
	MapPointers       map[string]*Child         `json:"mapPointers,omitempty"`
	Scratch           string                    `version:"-"`
}

type Child struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// ListObject uses the default identity field.
type ListObject struct {
	IteratorID     *int             `json:"iteratorId,omitempty"`
	Name           string           `json:"name"`
	Count          int              `json:"count"`
	SubListObjects []*SubListObject `json:"subListObjects,omitempty"`
}

type SubListObject struct {
	IteratorID *int   `json:"iteratorId,omitempty"`
	Value      string `json:"value"`
}

// SetObject declares its identity with a tag.
type SetObject struct {
	Key   *int64 `json:"key,omitempty" version:"id"`
	Label string `json:"label"`
}

// ComplexValue is stored by value in maps.
type ComplexValue struct {
	StringOne string           `json:"stringOne"`
	Items     []*SubListObject `json:"items,omitempty"`
}

// NoIdentity is a complex element type without an identity field.
type NoIdentity struct {
	Name string `json:"name"`
}

type WithoutIdentity struct {
	Items []NoIdentity `json:"items"`
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// NewObject returns a populated Object with every identity assigned.
func NewObject() *Object {
	return &Object{
		StringOne: "one",
		IntOne:    1,
		Status:    StatusActive,
		Updated:   time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Tags:      []string{"a", "b", "c"},
		Child:     &Child{Name: "child", Score: 10},
		ListObjects: []*ListObject{
			{IteratorID: Ptr(0), Name: "zero", Count: 0},
			{IteratorID: Ptr(1), Name: "one", Count: 1, SubListObjects: []*SubListObject{
				{IteratorID: Ptr(0), Value: "x"},
				{IteratorID: Ptr(1), Value: "y"},
			}},
			{IteratorID: Ptr(2), Name: "two", Count: 2},
		},
		SetObjects: versioning.Set[SetObject]{
			{Key: Ptr[int64](10), Label: "ten"},
			{Key: Ptr[int64](20), Label: "twenty"},
		},
		MapSimpleObjects: map[string]string{"k": "v", "other": "o"},
		MapComplexObjects: map[string]ComplexValue{
			"k": {StringOne: "complex", Items: []*SubListObject{{IteratorID: Ptr(0), Value: "i"}}},
		},
		MapPointers: map[string]*Child{"p": {Name: "pointed", Score: 1}},
	}
}
