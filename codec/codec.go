// Package codec serializes change-sets. Every codec writes an Envelope: the
// versions of one change-set plus the metadata identifying it. Versions
// travel as versioning.Record values, with the operation carried by the
// mutation marker of the path.
//
// Values come back as generic values (numbers, strings, maps, slices);
// versioning.Apply converts them to the declared field types.
package codec

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/brunoga/versioning"
)

// Codec encodes and decodes envelopes in one wire format.
type Codec interface {
	Name() string
	Marshal(env Envelope) ([]byte, error)
	Unmarshal(data []byte) (Envelope, error)
}

// Envelope is a change-set together with its identifying metadata.
type Envelope struct {
	ID            uuid.UUID
	CorrelationID string
	CreatedAt     time.Time
	Versions      []versioning.Version
}

// NewEnvelope wraps versions in an Envelope with a fresh random ID.
func NewEnvelope(correlationID string, versions []versioning.Version) Envelope {
	return Envelope{
		ID:            uuid.New(),
		CorrelationID: correlationID,
		CreatedAt:     time.Now().UTC(),
		Versions:      versions,
	}
}

type wireEnvelope struct {
	ID            string              `json:"id" cbor:"id" msgpack:"id" yaml:"id"`
	CorrelationID string              `json:"correlationId,omitempty" cbor:"correlationId,omitempty" msgpack:"correlationId,omitempty" yaml:"correlationId,omitempty"`
	CreatedAt     time.Time           `json:"createdAt" cbor:"createdAt" msgpack:"createdAt" yaml:"createdAt"`
	Versions      []versioning.Record `json:"versions" cbor:"versions" msgpack:"versions" yaml:"versions"`
}

func toWire(env Envelope) wireEnvelope {
	w := wireEnvelope{
		ID:            env.ID.String(),
		CorrelationID: env.CorrelationID,
		CreatedAt:     env.CreatedAt,
		Versions:      make([]versioning.Record, len(env.Versions)),
	}
	for i, v := range env.Versions {
		w.Versions[i] = v.Record()
	}
	return w
}

func fromWire(w wireEnvelope) (Envelope, error) {
	id, err := uuid.Parse(w.ID)
	if err != nil {
		return Envelope{}, errors.Wrapf(err, "envelope id %q", w.ID)
	}
	env := Envelope{
		ID:            id,
		CorrelationID: w.CorrelationID,
		CreatedAt:     w.CreatedAt,
		Versions:      make([]versioning.Version, len(w.Versions)),
	}
	for i, r := range w.Versions {
		v, err := r.Version()
		if err != nil {
			return Envelope{}, errors.Wrapf(err, "version %d", i)
		}
		env.Versions[i] = v
	}
	return env, nil
}

// generic turns v into plain maps, slices, strings, float64 and bool,
// keyed by json field names. Formats without struct tag support of their own
// encode this form.
func generic(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrapf(err, "encoding %T", v)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errors.Wrapf(err, "decoding %T", v)
	}
	return out, nil
}

// ByName returns the codec registered under name ("json", "cbor", "msgpack"
// or "yaml").
func ByName(name string) (Codec, error) {
	for _, c := range All() {
		if c.Name() == name {
			return c, nil
		}
	}
	return nil, errors.Errorf("codec: unknown format %q", name)
}

// All returns every available codec.
func All() []Codec {
	return []Codec{JSON{}, CBOR{}, MsgPack{}, YAML{}}
}
