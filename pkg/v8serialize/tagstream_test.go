package v8serialize

import "testing"

func TestTagReaderHeaderValidation(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr bool
	}{
		{"v13", []byte{0xff, 0x0d}, false},
		{"v15", []byte{0xff, 0x0f}, false},
		{"bad-magic", []byte{0x00, 0x0f}, true},
		{"too-short", []byte{0xff}, true},
		{"version-too-old", []byte{0xff, 0x0c}, true},
		{"version-too-new", []byte{0xff, 0x10}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTagReader(tt.data, DefaultFeatures())
			err := tr.readHeader()
			if tt.wantErr && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestTagReaderHeaderIsIdempotent(t *testing.T) {
	tr := newTagReader([]byte{0xff, 0x0f, 0x30}, DefaultFeatures())
	if err := tr.readHeader(); err != nil {
		t.Fatalf("first readHeader failed: %v", err)
	}
	if err := tr.readHeader(); err != nil {
		t.Fatalf("second readHeader failed: %v", err)
	}
	tag, _, err := tr.nextTag()
	if err != nil {
		t.Fatalf("nextTag failed: %v", err)
	}
	if tag != tagNull {
		t.Errorf("expected Null tag after header, got 0x%02x", tag)
	}
}

func TestTagReaderSkipsPadding(t *testing.T) {
	tr := newTagReader([]byte{0x00, 0x00, 0x30}, DefaultFeatures())
	tag, _, err := tr.nextTag()
	if err != nil {
		t.Fatalf("nextTag failed: %v", err)
	}
	if tag != tagNull {
		t.Errorf("expected Null tag past padding, got 0x%02x", tag)
	}
}

func TestTagReaderPeekTagDoesNotConsume(t *testing.T) {
	tr := newTagReader([]byte{0x30}, DefaultFeatures())
	peeked, err := tr.peekTag()
	if err != nil {
		t.Fatalf("peekTag failed: %v", err)
	}
	if peeked != tagNull {
		t.Errorf("expected Null, got 0x%02x", peeked)
	}

	tag, _, err := tr.nextTag()
	if err != nil {
		t.Fatalf("nextTag failed: %v", err)
	}
	if tag != tagNull {
		t.Errorf("expected Null still available after peek, got 0x%02x", tag)
	}
}

func TestTagReaderPeekTagOrReadConsumesPadding(t *testing.T) {
	tr := newTagReader([]byte{0x00, 0x00, 0x30}, DefaultFeatures())
	peeked, _, err := tr.peekTagOrRead()
	if err != nil {
		t.Fatalf("peekTagOrRead failed: %v", err)
	}
	if peeked != tagNull {
		t.Errorf("expected Null, got 0x%02x", peeked)
	}

	tag, _, err := tr.nextTag()
	if err != nil {
		t.Fatalf("nextTag failed: %v", err)
	}
	if tag != tagNull {
		t.Errorf("expected Null still available after peekTagOrRead, got 0x%02x", tag)
	}
}

func TestTagReaderRejectsResizableArrayBufferBeforeV15(t *testing.T) {
	// ResizableArrayBuffer is a V8-engine-version-gated capability layered
	// on wire format 15, not a distinct format number of its own, so it is
	// illegal at every earlier format version this codec negotiates.
	tr := newTagReader([]byte{0x7e}, DefaultFeatures())
	tr.version = 13
	if tr.tagLegal(tagResizableArrayBuffer) {
		t.Error("expected ResizableArrayBuffer tag to be illegal at version 13")
	}
	tr.version = 14
	if tr.tagLegal(tagResizableArrayBuffer) {
		t.Error("expected ResizableArrayBuffer tag to be illegal at version 14")
	}
	tr.version = 15
	if !tr.tagLegal(tagResizableArrayBuffer) {
		t.Error("expected ResizableArrayBuffer tag to be legal at version 15")
	}
}

func TestTagWriterHeaderIsIdempotent(t *testing.T) {
	tw := newTagWriter(MaxVersion, DefaultFeatures())
	tw.writeHeader()
	tw.writeHeader()
	got := tw.w.Bytes()
	want := []byte{0xff, 0x0f}
	if len(got) != len(want) {
		t.Fatalf("expected header written once (%d bytes), got %d bytes: %v", len(want), len(got), got)
	}
}

func TestFeatureGateRejectsDisabledFeature(t *testing.T) {
	tw := newTagWriter(MaxVersion, 0)
	if err := tw.featureGate(FeatureCircularErrorCause); err == nil {
		t.Fatal("expected error for disabled feature")
	}
}

func TestFeatureGateRejectsUnsupportedVersion(t *testing.T) {
	tw := newTagWriter(13, DefaultFeatures())
	if err := tw.featureGate(FeatureRegExpUnicodeSets); err == nil {
		t.Fatal("expected error for feature unsupported at version 13")
	}
}
