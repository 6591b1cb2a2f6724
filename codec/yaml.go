package codec

import (
	"bytes"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/brunoga/versioning"
)

// YAML encodes envelopes as YAML documents. Values are normalized to their
// JSON shape first, so numbers go through float64 and integers beyond 2^53
// lose precision.
type YAML struct{}

func (YAML) Name() string { return "yaml" }

func (YAML) Marshal(env Envelope) ([]byte, error) {
	w := toWire(env)
	for i, r := range w.Versions {
		v, err := generic(r.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "yaml: version %d", i)
		}
		w.Versions[i] = versioning.Record{Path: r.Path, Value: v, Position: r.Position}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(w); err != nil {
		return nil, errors.Wrap(err, "yaml: encoding envelope")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, "yaml: encoding envelope")
	}
	return buf.Bytes(), nil
}

func (YAML) Unmarshal(data []byte) (Envelope, error) {
	var w wireEnvelope
	if err := yaml.Unmarshal(data, &w); err != nil {
		return Envelope{}, errors.Wrap(err, "yaml: decoding envelope")
	}
	return fromWire(w)
}
