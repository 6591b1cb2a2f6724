package codec_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brunoga/versioning"
	"github.com/brunoga/versioning/codec"
	"github.com/brunoga/versioning/internal/testmodels"
)

func fixedEnvelope() codec.Envelope {
	pos := 1
	add := versioning.MustVersion("_ADD_listObjects[7]", map[string]any{"iteratorId": 7, "name": "seven"})
	add.Position = &pos

	return codec.Envelope{
		ID:            uuid.MustParse("6f1c2d3e-4a5b-4c6d-8e9f-0a1b2c3d4e5f"),
		CorrelationID: "order-42",
		CreatedAt:     time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Versions: []versioning.Version{
			versioning.MustVersion("stringOne", "updated"),
			add,
			versioning.MustVersion("_DELETE_mapSimpleObjects[gone]", nil),
		},
	}
}

func TestJSON_Golden(t *testing.T) {
	data, err := codec.JSON{}.Marshal(fixedEnvelope())
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "envelope_json", data)
}

func TestCodecs_Envelope(t *testing.T) {
	want := fixedEnvelope()

	for _, c := range codec.All() {
		t.Run(c.Name(), func(t *testing.T) {
			data, err := c.Marshal(want)
			require.NoError(t, err)

			got, err := c.Unmarshal(data)
			require.NoError(t, err)

			assert.Equal(t, want.ID, got.ID)
			assert.Equal(t, want.CorrelationID, got.CorrelationID)
			assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
			require.Len(t, got.Versions, len(want.Versions))
			for i := range want.Versions {
				assert.Equal(t, want.Versions[i].Op, got.Versions[i].Op)
				assert.Equal(t, want.Versions[i].Path, got.Versions[i].Path)
			}
			require.NotNil(t, got.Versions[1].Position)
			assert.Equal(t, 1, *got.Versions[1].Position)
			assert.Nil(t, got.Versions[2].Value)
			assert.EqualValues(t, "updated", got.Versions[0].Value)
		})
	}
}

func TestCodecs_RoundTrip(t *testing.T) {
	for _, c := range codec.All() {
		for _, sc := range testmodels.Scenarios() {
			t.Run(c.Name()+"/"+sc.Name, func(t *testing.T) {
				checkWireRoundTrip(t, c, sc, false)
			})
			t.Run(c.Name()+"/"+sc.Name+" reversed", func(t *testing.T) {
				checkWireRoundTrip(t, c, sc, true)
			})
		}
	}
}

func checkWireRoundTrip(t *testing.T, c codec.Codec, sc testmodels.Scenario, reversed bool) {
	t.Helper()

	before, after := testmodels.NewObject(), testmodels.NewObject()
	sc.Mutate(after)
	if reversed {
		before, after = after, before
	}

	versions, err := versioning.Extract(versioning.DiffPair[*testmodels.Object]{Before: before, After: after})
	require.NoError(t, err)

	data, err := c.Marshal(codec.NewEnvelope("round-trip", versions))
	require.NoError(t, err)
	env, err := c.Unmarshal(data)
	require.NoError(t, err)
	require.NoError(t, versioning.Validate[testmodels.Object](env.Versions))

	_, err = versioning.Apply(&before, env.Versions)
	require.NoError(t, err)
	assert.True(t, versioning.Equal(after, before), "decoded change-set did not reproduce the after state")
}

func TestNewEnvelope(t *testing.T) {
	a := codec.NewEnvelope("c", nil)
	b := codec.NewEnvelope("c", nil)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "c", a.CorrelationID)
	assert.WithinDuration(t, time.Now(), a.CreatedAt, time.Minute)
}

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "cbor", "msgpack", "yaml"} {
		c, err := codec.ByName(name)
		require.NoError(t, err)
		assert.Equal(t, name, c.Name())
	}
	_, err := codec.ByName("xml")
	assert.Error(t, err)
}

func TestUnmarshal_Errors(t *testing.T) {
	for _, c := range codec.All() {
		t.Run(c.Name(), func(t *testing.T) {
			_, err := c.Unmarshal([]byte("\x00not an envelope"))
			assert.Error(t, err)
		})
	}

	_, err := codec.JSON{}.Unmarshal([]byte(`{"id":"not-a-uuid","versions":[]}`))
	assert.Error(t, err)

	_, err = codec.JSON{}.Unmarshal([]byte(`{"id":"6f1c2d3e-4a5b-4c6d-8e9f-0a1b2c3d4e5f","versions":[{"path":"a..b"}]}`))
	assert.ErrorIs(t, err, versioning.ErrPathResolution)
}

func TestCodecs_AwkwardMapKeys(t *testing.T) {
	before := &testmodels.Object{MapSimpleObjects: map[string]string{
		"":          "empty",
		"x_ADD_y":   "gone",
		"a.b[c]":    "dotted",
		"keep_ADD_": "same",
	}}
	after := &testmodels.Object{MapSimpleObjects: map[string]string{
		"":          "changed",
		"a.b[c]":    "changed",
		"keep_ADD_": "same",
		"_DELETE_":  "new",
	}}

	versions, err := versioning.Extract(versioning.DiffPair[*testmodels.Object]{Before: before, After: after})
	require.NoError(t, err)
	require.Len(t, versions, 4)

	for _, c := range codec.All() {
		t.Run(c.Name(), func(t *testing.T) {
			data, err := c.Marshal(codec.NewEnvelope("keys", versions))
			require.NoError(t, err)
			env, err := c.Unmarshal(data)
			require.NoError(t, err)
			require.NoError(t, versioning.Validate[testmodels.Object](env.Versions))

			target := versioning.MustCopy(before)
			_, err = versioning.Apply(&target, env.Versions)
			require.NoError(t, err)
			assert.Equal(t, after.MapSimpleObjects, target.MapSimpleObjects)
		})
	}
}
