package v8serialize

// SerializationFeature is a bitmask of optional wire-format capabilities that
// only exist from a given V8 version onward. A feature being "enabled" in a
// Serializer/Deserializer config is necessary but not sufficient: the
// negotiated stream version must also be at least the feature's minimum, or
// the stream is rejected (decode: UnhandledTagError for the
// ResizableArrayBuffer tag, FeatureNotEnabledError for the other features;
// encode: FeatureNotEnabledError).
//
// Modeled on the version-gated IterableFlag enum of the same name in the
// reference Python implementation this codec was ported from.
type SerializationFeature uint8

const (
	// FeatureRegExpUnicodeSets enables the 'v' RegExp flag bit (the
	// UnicodeSets proposal), available from format version 15.
	FeatureRegExpUnicodeSets SerializationFeature = 1 << iota

	// FeatureResizableArrayBuffers enables the ResizableArrayBuffer tag and
	// the view length-tracking / backed-by-resizable flag bits. Like
	// RegExpUnicodeSets, this is a V8-*engine*-version-gated capability
	// layered on top of wire format 15, not a distinct format number of its
	// own — the format's kVersion byte never bumped to introduce it.
	FeatureResizableArrayBuffers

	// FeatureCircularErrorCause allows an Error's `cause` sub-record to be a
	// back-reference to the error under construction. Also a v15 engine
	// feature, not a v13 wire-format one: of the tags this codec supports,
	// only kHostObject (format version 13) is actually gated by the wire
	// format number itself. Enabled by DefaultFeatures; a feature set without
	// it rejects a cause that refers back to the error itself.
	FeatureCircularErrorCause

	// FeatureFloat16Array enables the Float16Array view sub-tag.
	FeatureFloat16Array
)

// featureMinVersion records the lowest wire format version each feature may
// be used at. The reference implementation gates these by V8 *engine*
// version (RegExpUnicodeSets since V8 10.7, ResizableArrayBuffers since V8
// 11.0, CircularErrorCause since V8 12.1, Float16Array unreleased at time of
// writing) — none of them bump the wire format's own kVersion byte, so all
// four require format version 15, the only format version this codec's
// MaxVersion negotiates that predates none of them. kHostObject is the one
// tag actually gated by the wire format number itself (introduced at format
// version 13), which is why MinVersion stays at 13 rather than 15.
var featureMinVersion = map[SerializationFeature]uint32{
	FeatureRegExpUnicodeSets:     15,
	FeatureResizableArrayBuffers: 15,
	FeatureCircularErrorCause:    15,
	FeatureFloat16Array:          15,
}

// DefaultFeatures returns the feature set enabled by default: every feature
// supported by MaxVersion, the codec's own compatibility floor.
func DefaultFeatures() SerializationFeature {
	return FeatureRegExpUnicodeSets | FeatureResizableArrayBuffers | FeatureCircularErrorCause | FeatureFloat16Array
}

// Has reports whether f contains the given feature bit.
func (f SerializationFeature) Has(feature SerializationFeature) bool {
	return f&feature != 0
}

// SupportedBy reports whether feature may be used at the given format
// version, independent of whether it has been enabled in a particular
// Serializer/Deserializer's feature set.
func (feature SerializationFeature) SupportedBy(version uint32) bool {
	min, known := featureMinVersion[feature]
	if !known {
		return false
	}
	return version >= min
}

// Name returns a human-readable name for a single feature bit, used in
// FeatureNotEnabledError messages. Returns "unknown" for a zero or
// multi-bit value.
func (feature SerializationFeature) Name() string {
	switch feature {
	case FeatureRegExpUnicodeSets:
		return "RegExpUnicodeSets"
	case FeatureResizableArrayBuffers:
		return "ResizableArrayBuffers"
	case FeatureCircularErrorCause:
		return "CircularErrorCause"
	case FeatureFloat16Array:
		return "Float16Array"
	default:
		return "unknown"
	}
}
