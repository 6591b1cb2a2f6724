package codec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

var (
	cborEnc cbor.EncMode
	cborDec cbor.DecMode
)

func init() {
	var err error
	cborEnc, err = cbor.EncOptions{
		Sort: cbor.SortCanonical,
		Time: cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		panic(err)
	}
	cborDec, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic(err)
	}
}

// CBOR encodes envelopes as canonical CBOR. Struct values are keyed by their
// json field names and decoded into map[string]any.
type CBOR struct{}

func (CBOR) Name() string { return "cbor" }

func (CBOR) Marshal(env Envelope) ([]byte, error) {
	data, err := cborEnc.Marshal(toWire(env))
	if err != nil {
		return nil, errors.Wrap(err, "cbor: encoding envelope")
	}
	return data, nil
}

func (CBOR) Unmarshal(data []byte) (Envelope, error) {
	var w wireEnvelope
	if err := cborDec.Unmarshal(data, &w); err != nil {
		return Envelope{}, errors.Wrap(err, "cbor: decoding envelope")
	}
	return fromWire(w)
}
