package v8serialize

import (
	"math"
	"math/big"
	"testing"
	"time"
)

func TestOrderedObjectPreservesInsertionOrder(t *testing.T) {
	o := NewOrderedObject()
	o.Set("b", Int32(2))
	o.Set("a", Int32(1))
	o.Set("c", Int32(3))

	keys := o.Keys()
	want := []string{"b", "a", "c"}
	if len(keys) != len(want) {
		t.Fatalf("got %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("key %d: got %q, want %q", i, keys[i], want[i])
		}
	}
	if o.Len() != 3 {
		t.Errorf("Len() = %d, want 3", o.Len())
	}
}

func TestOrderedObjectSetOverwritesWithoutReordering(t *testing.T) {
	o := NewOrderedObject()
	o.Set("a", Int32(1))
	o.Set("b", Int32(2))
	o.Set("a", Int32(99))

	keys := o.Keys()
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Fatalf("expected overwrite to preserve original position, got %v", keys)
	}
	v, ok := o.Get("a")
	if !ok || v.AsInt32() != 99 {
		t.Errorf("expected overwritten value 99, got %v ok=%v", v, ok)
	}
}

func TestOrderedObjectGetMissingKey(t *testing.T) {
	o := NewOrderedObject()
	_, ok := o.Get("missing")
	if ok {
		t.Error("expected Get of missing key to report not found")
	}
}

func TestNewJSArrayStartsAllHoles(t *testing.T) {
	a := NewJSArray(3)
	if a.Length() != 3 {
		t.Fatalf("Length() = %d, want 3", a.Length())
	}
	for i, el := range a.Elements {
		if !el.IsHole() {
			t.Errorf("element %d: expected hole, got %v", i, el)
		}
	}
}

func TestJSArrayIsDense(t *testing.T) {
	dense := NewJSArray(3)
	dense.Elements[0] = Int32(1)
	dense.Elements[1] = Int32(2)
	dense.Elements[2] = Int32(3)
	if !dense.IsDense() {
		t.Error("expected fully-populated array to be dense")
	}

	sparse := NewJSArray(3)
	sparse.Elements[0] = Int32(1)
	sparse.Elements[2] = Int32(3)
	if sparse.IsDense() {
		t.Error("expected array with a hole to be reported as not dense")
	}
}

func TestJSMapSetPreservesInsertionOrder(t *testing.T) {
	m := &JSMap{}
	m.Set(String("x"), Int32(1))
	m.Set(String("y"), Int32(2))

	if len(m.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(m.Entries))
	}
	if m.Entries[0].Key.AsString() != "x" || m.Entries[1].Key.AsString() != "y" {
		t.Errorf("expected insertion order x,y, got %v", m.Entries)
	}
}

func TestJSSetAddAndHas(t *testing.T) {
	s := &JSSet{}
	s.Add(Int32(1))
	s.Add(String("a"))

	if !s.Has(Int32(1)) {
		t.Error("expected set to contain Int32(1)")
	}
	if !s.Has(String("a")) {
		t.Error("expected set to contain String(a)")
	}
	if s.Has(Int32(2)) {
		t.Error("did not expect set to contain Int32(2)")
	}
}

func TestJSSetAddDeduplicatesBySameValueZero(t *testing.T) {
	s := &JSSet{}
	s.Add(Int32(1))
	s.Add(Int32(1))
	if len(s.Values) != 1 {
		t.Errorf("expected duplicate Add to be a no-op, got %d values", len(s.Values))
	}
}

func TestSameValueZero(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"equal-int32", Int32(1), Int32(1), true},
		{"different-int32", Int32(1), Int32(2), false},
		{"nan-equals-nan", Double(math.NaN()), Double(math.NaN()), true},
		{"zero-equals-negzero", Double(0), Double(math.Copysign(0, -1)), true},
		{"equal-strings", String("a"), String("a"), true},
		{"different-strings", String("a"), String("b"), false},
		{"different-types", Int32(1), String("1"), false},
		{"null-equals-null", Null(), Null(), true},
		{"undefined-equals-undefined", Undefined(), Undefined(), true},
		{"null-not-undefined", Null(), Undefined(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameValueZero(tt.a, tt.b); got != tt.want {
				t.Errorf("SameValueZero(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestIsReferenceEligible(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  bool
	}{
		{"object", NewObject(), true},
		{"array", Array(nil), true},
		{"string", String("hi"), true},
		{"bigint", BigInt(big.NewInt(1)), true},
		{"int32-not-eligible", Int32(1), false},
		{"bool-not-eligible", Bool(true), false},
		{"null-not-eligible", Null(), false},
		{"date-not-eligible", Date(time.Unix(0, 0)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.value.IsReferenceEligible(); got != tt.want {
				t.Errorf("IsReferenceEligible() = %v, want %v", got, tt.want)
			}
		})
	}
}
