package v8serialize

import (
	"fmt"

	"github.com/acolita/v8clone/internal/wire"
)

// tagReader wraps a wire.Reader with the header handshake, padding skip, and
// version/feature-gated tag legality that the reference format's tag stream
// layer performs before handing a tag off to the value decoder.
type tagReader struct {
	r        *wire.Reader
	version  uint32
	features SerializationFeature
	headerDone bool
}

func newTagReader(data []byte, features SerializationFeature) *tagReader {
	return &tagReader{r: wire.NewReader(data), features: features}
}

// readHeader validates the 0xFF + varint(version) preamble exactly once.
func (tr *tagReader) readHeader() error {
	if tr.headerDone {
		return nil
	}
	offset := tr.r.Pos()
	b, err := tr.r.ReadByte()
	if err != nil {
		return &HeaderInvalidError{Offset: offset, Got: 0}
	}
	if b != tagVersion {
		return &HeaderInvalidError{Offset: offset, Got: b}
	}
	version, err := tr.r.ReadVarint32()
	if err != nil {
		return fmt.Errorf("%w: reading version varint: %v", ErrInvalidHeader, err)
	}
	if version < MinVersion || version > MaxVersion {
		return fmt.Errorf("%w: version %d (supported range %d-%d)", ErrUnsupportedVersion, version, MinVersion, MaxVersion)
	}
	tr.version = version
	tr.headerDone = true
	return nil
}

// nextTag returns the next non-padding tag byte, the offset it was read
// from, and an error if the tag is illegal for the negotiated version and
// feature set. Padding bytes (0x00) are silently skipped, as they may appear
// between any two tokens.
func (tr *tagReader) nextTag() (tag byte, offset int, err error) {
	for {
		offset = tr.r.Pos()
		tag, err = tr.r.ReadByte()
		if err != nil {
			return 0, offset, err
		}
		if tag == tagPadding {
			continue
		}
		if !tr.tagLegal(tag) {
			return 0, offset, &UnhandledTagError{Offset: offset, Tag: tag, Version: tr.version}
		}
		return tag, offset, nil
	}
}

// peekTag looks at the next non-padding tag without consuming it, skipping
// any padding bytes it passes over (padding is never meaningful to rewind
// into).
func (tr *tagReader) peekTag() (byte, error) {
	for {
		mark := tr.r.Mark()
		b, err := tr.r.ReadByte()
		if err != nil {
			tr.r.Rewind(mark)
			return 0, err
		}
		if b == tagPadding {
			continue
		}
		tr.r.Rewind(mark)
		return b, nil
	}
}

// peekTagOrRead looks at the next non-padding tag without consuming it
// (padding bytes themselves are consumed, since they carry no value and are
// never meaningful to rewind into). The offset returned is that of the
// peeked tag byte itself.
func (tr *tagReader) peekTagOrRead() (tag byte, offset int, err error) {
	for {
		offset = tr.r.Pos()
		b, err := tr.r.Peek()
		if err != nil {
			return 0, offset, err
		}
		if b == tagPadding {
			tr.r.ReadByte()
			continue
		}
		return b, offset, nil
	}
}

// tagLegal reports whether tag may appear at the negotiated version given
// the enabled feature set. Tags gated by a feature that is supported at
// this version but disabled in config are legal at the tag-stream layer
// (the value decoder raises FeatureNotEnabledError with more context);
// tags requiring a version the stream never reached are outright illegal.
func (tr *tagReader) tagLegal(tag byte) bool {
	switch tag {
	case tagResizableArrayBuffer:
		return FeatureResizableArrayBuffers.SupportedBy(tr.version)
	default:
		return true
	}
}

// featureGate returns FeatureNotEnabledError if feature is not enabled in
// this stream's configuration or not supported at its version, else nil.
func (tr *tagReader) featureGate(feature SerializationFeature) error {
	if !feature.SupportedBy(tr.version) || !tr.features.Has(feature) {
		return &FeatureNotEnabledError{Feature: feature, Version: tr.version}
	}
	return nil
}

// tagWriter wraps a wire.Writer with header emission and the same
// feature-gating the reader enforces, applied symmetrically on encode.
type tagWriter struct {
	w          *wire.Writer
	version    uint32
	features   SerializationFeature
	headerDone bool
}

func newTagWriter(version uint32, features SerializationFeature) *tagWriter {
	return &tagWriter{w: wire.NewWriter(256), version: version, features: features}
}

func (tw *tagWriter) writeHeader() {
	if tw.headerDone {
		return
	}
	tw.w.WriteByte(tagVersion)
	tw.w.WriteVarint32(tw.version)
	tw.headerDone = true
}

func (tw *tagWriter) featureGate(feature SerializationFeature) error {
	if !feature.SupportedBy(tw.version) || !tw.features.Has(feature) {
		return &FeatureNotEnabledError{Feature: feature, Version: tw.version}
	}
	return nil
}
