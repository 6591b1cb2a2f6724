package versioning_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/brunoga/versioning"
	"github.com/brunoga/versioning/internal/testmodels"
)

func TestEqual(t *testing.T) {
	assert.True(t, versioning.Equal(testmodels.NewObject(), testmodels.NewObject()))
	assert.True(t, versioning.Equal(nil, nil))
	assert.False(t, versioning.Equal(testmodels.NewObject(), nil))
	assert.False(t, versioning.Equal(1, "1"))

	for _, sc := range testmodels.Scenarios() {
		a, b := mutated(sc.Mutate)
		assert.False(t, versioning.Equal(a, b), sc.Name)
	}
}

func TestEqual_SetIsUnordered(t *testing.T) {
	a := testmodels.NewObject()
	b := testmodels.NewObject()
	b.SetObjects[0], b.SetObjects[1] = b.SetObjects[1], b.SetObjects[0]
	assert.True(t, versioning.Equal(a, b))

	b.ListObjects[0], b.ListObjects[1] = b.ListObjects[1], b.ListObjects[0]
	assert.False(t, versioning.Equal(a, b), "lists are ordered")
}

func TestEqual_NilAndEmpty(t *testing.T) {
	a := &testmodels.Object{Tags: nil}
	b := &testmodels.Object{Tags: []string{}}
	assert.False(t, versioning.Equal(a, b))
}

func TestEqual_Leaves(t *testing.T) {
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.True(t, versioning.Equal(at, at.In(time.FixedZone("X", -7200))))
	assert.True(t, versioning.Equal(big.NewInt(10), new(big.Int).Add(big.NewInt(4), big.NewInt(6))))
	assert.False(t, versioning.Equal(big.NewInt(10), big.NewInt(11)))
	assert.True(t, versioning.Equal(big.NewRat(1, 2), big.NewRat(2, 4)))
	assert.True(t, versioning.Equal([]byte("x"), []byte("x")))
}
