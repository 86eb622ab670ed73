package v8serialize

// HostObjectHandler lets an embedder extend the wire format with
// application-defined values the codec has no native representation for,
// mirroring V8's own embedder-defined HostObject delegate callbacks
// (Delegate::WriteHostObject / ReadHostObject).
//
// On encode, EncodeHostObject is offered every value this codec cannot
// dispatch natively (everything past the default case in writeValue). On
// decode, DecodeHostObject is given back exactly the payload bytes the
// handler produced, framed by the codec with a length prefix so handlers
// never need access to the underlying wire.Reader/Writer directly.
type HostObjectHandler interface {
	// EncodeHostObject attempts to produce a wire payload for v. ok is false
	// if the handler does not recognize v (the codec then reports
	// UnhandledValueError).
	EncodeHostObject(v Value) (payload []byte, ok bool, err error)

	// DecodeHostObject reconstructs a Value from a payload previously
	// produced by EncodeHostObject.
	DecodeHostObject(payload []byte) (Value, error)
}
