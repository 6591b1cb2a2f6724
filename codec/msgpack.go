package codec

import (
	"bytes"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// MsgPack encodes envelopes as MessagePack. Struct values are keyed by their
// json field names.
type MsgPack struct{}

func (MsgPack) Name() string { return "msgpack" }

func (MsgPack) Marshal(env Envelope) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(toWire(env)); err != nil {
		return nil, errors.Wrap(err, "msgpack: encoding envelope")
	}
	return buf.Bytes(), nil
}

func (MsgPack) Unmarshal(data []byte) (Envelope, error) {
	var w wireEnvelope
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	if err := dec.Decode(&w); err != nil {
		return Envelope{}, errors.Wrap(err, "msgpack: decoding envelope")
	}
	return fromWire(w)
}
