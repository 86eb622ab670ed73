// Package hostcodec provides a v8serialize.HostObjectHandler that carries
// arbitrary Go values through the wire format as CBOR, for embedders that
// want a concrete, ready-to-use host-object extension rather than writing
// their own framing over HostObjectHandler's raw byte payload.
package hostcodec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"

	"github.com/acolita/v8clone/pkg/v8serialize"
)

var encMode cbor.EncMode
var decMode cbor.DecMode

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("hostcodec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("hostcodec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Handler is a v8serialize.HostObjectHandler backed by CBOR. Values it
// recognizes on encode are whatever Recognize (if set) accepts, or any value
// by default — callers that only want specific Go types to go through the
// host-object path should set Recognize accordingly.
type Handler struct {
	// Recognize reports whether v should be handled as a host object at all.
	// If nil, every value reaching EncodeHostObject is accepted.
	Recognize func(v v8serialize.Value) bool
}

// EncodeHostObject implements v8serialize.HostObjectHandler by CBOR-encoding
// the value's closest Go representation (via v8serialize.ToGo).
func (h *Handler) EncodeHostObject(v v8serialize.Value) ([]byte, bool, error) {
	if h.Recognize != nil && !h.Recognize(v) {
		return nil, false, nil
	}
	payload, err := encMode.Marshal(v8serialize.ToGo(v))
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

// DecodeHostObject implements v8serialize.HostObjectHandler by CBOR-decoding
// the payload into a generic Go value and wrapping it as a HostObject.
func (h *Handler) DecodeHostObject(payload []byte) (v8serialize.Value, error) {
	var decoded interface{}
	if err := decMode.Unmarshal(payload, &decoded); err != nil {
		return v8serialize.Value{}, err
	}
	return v8serialize.HostObjectVal(&v8serialize.HostObject{
		Payload: payload,
		Decoded: decoded,
	}), nil
}
