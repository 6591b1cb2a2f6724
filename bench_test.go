package versioning_test

import (
	"fmt"
	"testing"

	"github.com/brunoga/versioning"
	"github.com/brunoga/versioning/internal/testmodels"
)

func largeObject(size int) *testmodels.Object {
	o := testmodels.NewObject()
	o.ListObjects = make([]*testmodels.ListObject, size)
	for i := 0; i < size; i++ {
		o.ListObjects[i] = &testmodels.ListObject{IteratorID: testmodels.Ptr(i), Name: fmt.Sprint(i), Count: i}
	}
	return o
}

func BenchmarkExtract_List(b *testing.B) {
	sizes := []int{10, 100, 1000}
	for _, size := range sizes {
		b.Run(fmt.Sprintf("Size%d", size), func(b *testing.B) {
			before := largeObject(size)
			after := largeObject(size)
			after.ListObjects[size/2].Name = "changed"
			after.ListObjects = append(after.ListObjects, &testmodels.ListObject{IteratorID: testmodels.Ptr(size)})
			pair := versioning.DiffPair[*testmodels.Object]{Before: before, After: after}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := versioning.Extract(pair); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkApply_List(b *testing.B) {
	before := largeObject(100)
	after := largeObject(100)
	after.ListObjects[50].Name = "changed"
	versions, err := versioning.Extract(versioning.DiffPair[*testmodels.Object]{Before: before, After: after})
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := versioning.ApplyCopy(before, versions); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCopy_Copiers(b *testing.B) {
	copiers := []struct {
		name   string
		copier versioning.Copier
	}{
		{"GoClone", versioning.CloneCopier},
		{"CopyStructure", versioning.CopystructureCopier},
		{"DeepCopy", versioning.DeepcopyCopier},
	}

	src := largeObject(100).ListObjects
	for _, c := range copiers {
		b.Run(c.name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, err := c.copier.Copy(src); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
