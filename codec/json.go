package codec

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// JSON encodes envelopes as indented JSON. Numbers are decoded as
// json.Number so integer values survive unchanged.
type JSON struct{}

func (JSON) Name() string { return "json" }

func (JSON) Marshal(env Envelope) ([]byte, error) {
	data, err := json.MarshalIndent(toWire(env), "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "json: encoding envelope")
	}
	return data, nil
}

func (JSON) Unmarshal(data []byte) (Envelope, error) {
	var w wireEnvelope
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&w); err != nil {
		return Envelope{}, errors.Wrap(err, "json: decoding envelope")
	}
	return fromWire(w)
}
