package versioning_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brunoga/versioning"
	"github.com/brunoga/versioning/internal/testmodels"
)

func TestApply_RoundTrip(t *testing.T) {
	for _, sc := range testmodels.Scenarios() {
		t.Run(sc.Name, func(t *testing.T) {
			before, after := mutated(sc.Mutate)
			checkRoundTrip(t, before, after)
		})
		t.Run(sc.Name+" reversed", func(t *testing.T) {
			before, after := mutated(sc.Mutate)
			checkRoundTrip(t, after, before)
		})
	}
}

func checkRoundTrip(t *testing.T, before, after *testmodels.Object) {
	t.Helper()

	versions := extract(t, before, after)

	target, err := versioning.Copy(before)
	require.NoError(t, err)

	got, err := versioning.Apply(&target, versions)
	require.NoError(t, err)
	assert.Same(t, &target, got)
	assert.Truef(t, versioning.Equal(after, target), "versions %v\nwant %+v\ngot  %+v", paths(versions), after, target)

	// Applying the change-set never aliases it into the target.
	again, err := versioning.Copy(before)
	require.NoError(t, err)
	_, err = versioning.Apply(&again, versions)
	require.NoError(t, err)
	assert.True(t, versioning.Equal(target, again))
}

func TestApply_CopierStrategies(t *testing.T) {
	copiers := map[string]versioning.Copier{
		"clone":         versioning.CloneCopier,
		"copystructure": versioning.CopystructureCopier,
	}

	for name, c := range copiers {
		t.Run(name, func(t *testing.T) {
			before, after := mutated(func(o *testmodels.Object) {
				o.ListObjects = append(o.ListObjects, &testmodels.ListObject{IteratorID: testmodels.Ptr(3), Name: "three"})
				o.Child = &testmodels.Child{Name: "replaced"}
			})

			versions, err := versioning.Extract(versioning.DiffPair[*testmodels.Object]{Before: before, After: after},
				versioning.WithCopier(c))
			require.NoError(t, err)

			_, err = versioning.Apply(&before, versions, versioning.WithCopier(c))
			require.NoError(t, err)
			assert.True(t, versioning.Equal(after, before))
			assert.NotSame(t, after.Child, before.Child)
		})
	}
}

func TestApply_IdempotentDelete(t *testing.T) {
	obj := testmodels.NewObject()
	versions := []versioning.Version{
		versioning.MustVersion("_DELETE_listObjects[1]", nil),
		versioning.MustVersion("_DELETE_setObjects[10]", nil),
		versioning.MustVersion("_DELETE_mapSimpleObjects[k]", nil),
		versioning.MustVersion("_DELETE_tags[2]", nil),
		versioning.MustVersion("listObjects[0]._DELETE_subListObjects[5]", nil),
	}

	_, err := versioning.Apply(&obj, versions)
	require.NoError(t, err)
	once, err := versioning.Copy(obj)
	require.NoError(t, err)

	_, err = versioning.Apply(&obj, versions)
	require.NoError(t, err)
	assert.True(t, versioning.Equal(once, obj))

	assert.Len(t, obj.ListObjects, 2)
	assert.Len(t, obj.SetObjects, 1)
	assert.NotContains(t, obj.MapSimpleObjects, "k")
	assert.Equal(t, []string{"a", "b"}, obj.Tags)
}

func TestApply_DeleteFromAbsent(t *testing.T) {
	obj := &testmodels.Object{}
	_, err := versioning.Apply(&obj, []versioning.Version{
		versioning.MustVersion("_DELETE_listObjects[1]", nil),
		versioning.MustVersion("_DELETE_mapComplexObjects[k]", nil),
		versioning.MustVersion("child._DELETE_missing[1]", nil),
	})
	// The last path does not exist in the schema.
	require.Error(t, err)
	assert.ErrorIs(t, err, versioning.ErrPathResolution)
	assert.Nil(t, obj.ListObjects)
	assert.Nil(t, obj.MapComplexObjects)
}

func TestApply_LazyMaterialization(t *testing.T) {
	obj := &testmodels.Object{}
	_, err := versioning.Apply(&obj, []versioning.Version{
		versioning.MustVersion("child.name", "created"),
		versioning.MustVersion("mapPointers.q.score", 3),
		versioning.MustVersion("mapComplexObjects.k.stringOne", "value"),
		versioning.MustVersion("mapComplexObjects.k._ADD_items[4]", map[string]any{"iteratorId": 4, "value": "v"}),
		versioning.MustVersion("_ADD_listObjects[2]", &testmodels.ListObject{IteratorID: testmodels.Ptr(2)}),
		versioning.MustVersion("_ADD_setObjects[7]", testmodels.SetObject{Key: testmodels.Ptr[int64](7)}),
		versioning.MustVersion("mapSimpleObjects.k", "v"),
	})
	require.NoError(t, err)

	require.NotNil(t, obj.Child)
	assert.Equal(t, "created", obj.Child.Name)
	require.Contains(t, obj.MapPointers, "q")
	assert.Equal(t, 3, obj.MapPointers["q"].Score)
	assert.Equal(t, "value", obj.MapComplexObjects["k"].StringOne)
	require.Len(t, obj.MapComplexObjects["k"].Items, 1)
	assert.Equal(t, 4, *obj.MapComplexObjects["k"].Items[0].IteratorID)
	assert.Len(t, obj.ListObjects, 1)
	assert.Len(t, obj.SetObjects, 1)
	assert.Equal(t, map[string]string{"k": "v"}, obj.MapSimpleObjects)
}

func TestApply_NilRoot(t *testing.T) {
	var obj *testmodels.Object
	_, err := versioning.Apply(&obj, []versioning.Version{versioning.MustVersion("stringOne", "s")})
	require.NoError(t, err)
	require.NotNil(t, obj)
	assert.Equal(t, "s", obj.StringOne)
}

func TestApply_Conversion(t *testing.T) {
	obj := testmodels.NewObject()
	_, err := versioning.Apply(&obj, []versioning.Version{
		versioning.MustVersion("intOne", float64(7)),
		versioning.MustVersion("optional", "plain value"),
		versioning.MustVersion("status", "archived"),
		versioning.MustVersion("updated", "2025-06-01T00:00:00Z"),
		versioning.MustVersion("tags", []any{"p", "q"}),
		versioning.MustVersion("child", map[string]any{"name": "decoded", "score": 2}),
	})
	require.NoError(t, err)

	assert.Equal(t, 7, obj.IntOne)
	assert.Equal(t, "plain value", *obj.Optional)
	assert.Equal(t, testmodels.StatusArchived, obj.Status)
	assert.Equal(t, 2025, obj.Updated.Year())
	assert.Equal(t, []string{"p", "q"}, obj.Tags)
	assert.Equal(t, &testmodels.Child{Name: "decoded", Score: 2}, obj.Child)
}

func TestApply_Positions(t *testing.T) {
	obj := &testmodels.Object{Tags: []string{"a", "c"}}
	pos := 0
	add := versioning.MustVersion("_ADD_listObjects[5]", &testmodels.ListObject{IteratorID: testmodels.Ptr(5)})
	add.Position = &pos

	_, err := versioning.Apply(&obj, []versioning.Version{
		versioning.MustVersion("_ADD_tags[1]", "b"),
		versioning.MustVersion("_ADD_tags[99]", "z"),
		versioning.MustVersion("_ADD_listObjects[6]", &testmodels.ListObject{IteratorID: testmodels.Ptr(6)}),
		add,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "z"}, obj.Tags)
	assert.Equal(t, []int{5, 6}, ids(obj.ListObjects))
}

func TestApply_Errors(t *testing.T) {
	tests := []struct {
		name    string
		version versioning.Version
		want    error
	}{
		{"unknown field", versioning.MustVersion("nope", 1), versioning.ErrPathResolution},
		{"indexed leaf", versioning.MustVersion("stringOne[0]", "x"), versioning.ErrPathResolution},
		{"unindexed list", versioning.MustVersion("listObjects.name", "x"), versioning.ErrPathResolution},
		{"bad set identity", versioning.MustVersion("setObjects[x].label", "x"), versioning.ErrPathResolution},
		{"missing element", versioning.MustVersion("listObjects[9].name", "x"), versioning.ErrElementNotFound},
		{"missing set element", versioning.MustVersion("setObjects[99].label", "x"), versioning.ErrElementNotFound},
		{"type mismatch", versioning.MustVersion("intOne", "not a number"), versioning.ErrTypeMismatch},
		{"marker without index", versioning.Version{Op: versioning.OpAdd, Path: versioning.Path{{Name: "tags"}}},
			versioning.ErrPathResolution},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj := testmodels.NewObject()
			_, err := versioning.Apply(&obj, []versioning.Version{
				versioning.MustVersion("stringOne", "applied first"),
				tt.version,
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), "version 1")
			assert.Equal(t, "applied first", obj.StringOne, "earlier versions stay applied")
		})
	}
}

func TestApplyCopy(t *testing.T) {
	obj := testmodels.NewObject()

	got, err := versioning.ApplyCopy(obj, []versioning.Version{
		versioning.MustVersion("stringOne", "copy"),
		versioning.MustVersion("listObjects[0].name", "copy"),
	})
	require.NoError(t, err)
	assert.Equal(t, "copy", got.StringOne)
	assert.Equal(t, "copy", got.ListObjects[0].Name)
	assert.Equal(t, "one", obj.StringOne)
	assert.Equal(t, "zero", obj.ListObjects[0].Name)

	got, err = versioning.ApplyCopy(obj, []versioning.Version{
		versioning.MustVersion("stringOne", "copy"),
		versioning.MustVersion("nope", 1),
	})
	require.Error(t, err)
	assert.Nil(t, got)
	assert.Equal(t, "one", obj.StringOne)
}

func TestApply_LeafListDeletesFromTail(t *testing.T) {
	obj := testmodels.NewObject()

	_, err := versioning.Apply(&obj, []versioning.Version{versioning.MustVersion("_DELETE_tags[0]", nil)})
	require.Error(t, err)
	assert.ErrorIs(t, err, versioning.ErrPathResolution)
	assert.Equal(t, []string{"a", "b", "c"}, obj.Tags)

	before := &testmodels.Object{Tags: []string{"a", "b", "c", "d"}}
	after := &testmodels.Object{Tags: []string{"x"}}
	versions := extract(t, before, after)

	_, err = versioning.Apply(&before, versions)
	require.NoError(t, err)
	_, err = versioning.Apply(&before, versions)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, before.Tags)
}

type narrow struct {
	Small    int8    `json:"small"`
	Unsigned uint16  `json:"unsigned"`
	Ratio    float32 `json:"ratio"`
}

func TestApply_NumberRange(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		value any
		ok    bool
	}{
		{"int fits", "small", json.Number("12"), true},
		{"whole float fits", "unsigned", float64(7), true},
		{"float from json", "ratio", json.Number("0.5"), true},
		{"int overflow", "small", json.Number("300"), false},
		{"float overflow", "small", float64(300), false},
		{"fraction", "small", 1.5, false},
		{"fraction from json", "small", json.Number("1.5"), false},
		{"negative unsigned", "unsigned", -1, false},
		{"negative unsigned from json", "unsigned", json.Number("-1"), false},
		{"unsigned overflow", "unsigned", json.Number("70000"), false},
		{"float32 overflow", "ratio", 1e300, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var n narrow
			_, err := versioning.Apply(&n, []versioning.Version{versioning.MustVersion(tt.path, tt.value)})
			if tt.ok {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, versioning.ErrTypeMismatch)
			assert.Equal(t, narrow{}, n)
		})
	}
}
