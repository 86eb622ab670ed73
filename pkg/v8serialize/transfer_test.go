package v8serialize

import "testing"

func TestMemoryBufferRegistryRegisterLookup(t *testing.T) {
	r := NewMemoryBufferRegistry()

	id := r.Register([]byte{1, 2, 3})
	got, ok := r.Lookup(id)
	if !ok {
		t.Fatal("expected Lookup to find registered buffer")
	}
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Errorf("got %v, want [1 2 3]", got)
	}
}

func TestMemoryBufferRegistryUnknownID(t *testing.T) {
	r := NewMemoryBufferRegistry()
	_, ok := r.Lookup(999)
	if ok {
		t.Error("expected Lookup of unregistered id to fail")
	}
}

func TestMemoryBufferRegistryDistinctIDs(t *testing.T) {
	r := NewMemoryBufferRegistry()
	id1 := r.Register([]byte{1})
	id2 := r.Register([]byte{2})
	if id1 == id2 {
		t.Errorf("expected distinct ids, both were %d", id1)
	}
}

func TestMemoryBufferRegistryDescribeFlagsDuplicateContent(t *testing.T) {
	r := NewMemoryBufferRegistry()
	id1 := r.Register([]byte("same"))
	id2 := r.Register([]byte("same"))

	desc1, err := r.Describe(id1)
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	if !contains(desc1, "duplicate-content-of") {
		t.Errorf("expected duplicate-content-of in description, got %q", desc1)
	}

	desc2, err := r.Describe(id2)
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	if !contains(desc2, "duplicate-content-of") {
		t.Errorf("expected duplicate-content-of in description, got %q", desc2)
	}
}

func TestMemoryBufferRegistryDescribeUnknownID(t *testing.T) {
	r := NewMemoryBufferRegistry()
	_, err := r.Describe(42)
	if err == nil {
		t.Fatal("expected error describing unregistered id")
	}
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

func TestSharedArrayBufferRoundTripViaRegistry(t *testing.T) {
	registry := NewMemoryBufferRegistry()
	id := registry.Register([]byte{9, 8, 7, 6})

	data, err := Serialize(SharedArrayBufferVal(id), WithEncodeSharedBufferRegistry(registry))
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	got, err := Deserialize(data, WithSharedBufferRegistry(registry))
	if err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}

	if got.Type() != TypeSharedArrayBuffer {
		t.Fatalf("expected SharedArrayBuffer, got %s", got.Type())
	}
}

func TestArrayBufferTransferRoundTripViaRegistry(t *testing.T) {
	registry := NewMemoryBufferRegistry()
	id := registry.Register([]byte{1, 2})

	data, err := Serialize(ArrayBufferTransferVal(id), WithEncodeSharedBufferRegistry(registry))
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	got, err := Deserialize(data, WithSharedBufferRegistry(registry))
	if err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}

	if got.Type() != TypeArrayBufferTransfer {
		t.Fatalf("expected ArrayBufferTransfer, got %s", got.Type())
	}
}
