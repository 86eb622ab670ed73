package v8serialize

import (
	"fmt"
	"math"
	"math/big"
	"time"
)

// Type represents the type of a JavaScript value.
type Type uint8

const (
	TypeUndefined Type = iota
	TypeNull
	TypeBool
	TypeInt32
	TypeUint32
	TypeDouble
	TypeBigInt
	TypeString
	TypeDate
	TypeRegExp
	TypeObject
	TypeArray
	TypeMap
	TypeSet
	TypeArrayBuffer
	TypeSharedArrayBuffer
	TypeArrayBufferTransfer
	TypeArrayBufferView
	TypeHole // Sparse array hole, distinct from Undefined
	TypeError
	TypeBoxedPrimitive // Number/Boolean/String/BigInt object wrappers
	TypeHostObject
)

// String returns the type name.
func (t Type) String() string {
	switch t {
	case TypeUndefined:
		return "undefined"
	case TypeNull:
		return "null"
	case TypeBool:
		return "boolean"
	case TypeInt32:
		return "int32"
	case TypeUint32:
		return "uint32"
	case TypeDouble:
		return "number"
	case TypeBigInt:
		return "bigint"
	case TypeString:
		return "string"
	case TypeDate:
		return "Date"
	case TypeRegExp:
		return "RegExp"
	case TypeObject:
		return "object"
	case TypeArray:
		return "Array"
	case TypeMap:
		return "Map"
	case TypeSet:
		return "Set"
	case TypeArrayBuffer:
		return "ArrayBuffer"
	case TypeSharedArrayBuffer:
		return "SharedArrayBuffer"
	case TypeArrayBufferTransfer:
		return "ArrayBufferTransfer"
	case TypeArrayBufferView:
		return "ArrayBufferView"
	case TypeHole:
		return "hole"
	case TypeError:
		return "Error"
	case TypeBoxedPrimitive:
		return "BoxedPrimitive"
	case TypeHostObject:
		return "HostObject"
	default:
		return fmt.Sprintf("Type(%d)", t)
	}
}

// Value represents a deserialized (or to-be-serialized) JavaScript value.
// Use the accessor methods to safely extract typed values.
type Value struct {
	typ  Type
	data interface{}
}

// Undefined returns a Value representing JavaScript undefined.
func Undefined() Value { return Value{typ: TypeUndefined} }

// Null returns a Value representing JavaScript null.
func Null() Value { return Value{typ: TypeNull} }

// Bool returns a Value representing a JavaScript boolean.
func Bool(b bool) Value { return Value{typ: TypeBool, data: b} }

// Int32 returns a Value representing a JavaScript number (int32 range).
func Int32(n int32) Value { return Value{typ: TypeInt32, data: n} }

// Uint32 returns a Value representing a JavaScript number (uint32 range).
func Uint32(n uint32) Value { return Value{typ: TypeUint32, data: n} }

// Double returns a Value representing a JavaScript number (double).
func Double(f float64) Value { return Value{typ: TypeDouble, data: f} }

// BigInt returns a Value representing a JavaScript BigInt.
func BigInt(n *big.Int) Value { return Value{typ: TypeBigInt, data: n} }

// String returns a Value representing a JavaScript string, carrying the
// preferred wire form it should round-trip through.
func String(s string) Value {
	return Value{typ: TypeString, data: &JSString{Text: s, Form: preferredStringForm(s)}}
}

// StringWithForm returns a Value representing a JavaScript string using an
// explicit wire form, overriding the form String would otherwise pick.
func StringWithForm(s string, form StringForm) Value {
	return Value{typ: TypeString, data: &JSString{Text: s, Form: form}}
}

// Date returns a Value representing a JavaScript Date.
func Date(t time.Time) Value { return Value{typ: TypeDate, data: t} }

// Hole returns a Value representing an array hole: a sparse-array slot with
// no element, distinct from an explicit undefined.
func Hole() Value { return Value{typ: TypeHole} }

// NewObject returns a Value wrapping a fresh, empty OrderedObject.
func NewObject() Value { return Value{typ: TypeObject, data: NewOrderedObject()} }

// ObjectValue wraps an existing OrderedObject in a Value.
func ObjectValue(o *OrderedObject) Value {
	if o == nil {
		o = NewOrderedObject()
	}
	return Value{typ: TypeObject, data: o}
}

// Object returns a Value wrapping a fresh OrderedObject populated from props.
// A Go map has no defined iteration order, so the resulting property order
// is unspecified; build via NewObject and OrderedObject.Set directly when
// insertion order matters.
func Object(props map[string]Value) Value {
	o := NewOrderedObject()
	for k, val := range props {
		o.Set(k, val)
	}
	return ObjectValue(o)
}

// Array returns a Value wrapping a JSArray built from elements verbatim (any
// Hole() elements are preserved as holes).
func Array(elements []Value) Value {
	return ArrayValue(&JSArray{Elements: elements})
}

// ArrayValue wraps a JSArray in a Value.
func ArrayValue(a *JSArray) Value {
	if a == nil {
		a = NewJSArray(0)
	}
	return Value{typ: TypeArray, data: a}
}

// MapValue wraps a JSMap in a Value.
func MapValue(m *JSMap) Value {
	if m == nil {
		m = &JSMap{}
	}
	return Value{typ: TypeMap, data: m}
}

// SetValue wraps a JSSet in a Value.
func SetValue(s *JSSet) Value {
	if s == nil {
		s = &JSSet{}
	}
	return Value{typ: TypeSet, data: s}
}

// RegExpValue wraps a RegExp in a Value.
func RegExpValue(r RegExp) Value { return Value{typ: TypeRegExp, data: r} }

// ArrayBufferVal wraps a JSArrayBuffer in a Value.
func ArrayBufferVal(b *JSArrayBuffer) Value { return Value{typ: TypeArrayBuffer, data: b} }

// NewArrayBuffer returns a Value representing a plain, non-resizable
// JavaScript ArrayBuffer.
func NewArrayBuffer(data []byte) Value {
	if data == nil {
		data = []byte{}
	}
	return Value{typ: TypeArrayBuffer, data: &JSArrayBuffer{Bytes: data}}
}

// NewResizableArrayBuffer returns a Value representing a ResizableArrayBuffer
// (V8 11.0+, wire format 15+), gated on encode by FeatureResizableArrayBuffers.
func NewResizableArrayBuffer(data []byte, maxByteLength int) Value {
	if data == nil {
		data = []byte{}
	}
	return Value{typ: TypeArrayBuffer, data: &JSArrayBuffer{Bytes: data, Resizable: true, MaxByteLength: maxByteLength}}
}

// SharedArrayBufferVal wraps a JSSharedArrayBuffer transfer-id reference.
func SharedArrayBufferVal(transferID uint32) Value {
	return Value{typ: TypeSharedArrayBuffer, data: &JSSharedArrayBuffer{TransferID: transferID}}
}

// ArrayBufferTransferVal wraps a JSArrayBufferTransfer transfer-id reference.
func ArrayBufferTransferVal(transferID uint32) Value {
	return Value{typ: TypeArrayBufferTransfer, data: &JSArrayBufferTransfer{TransferID: transferID}}
}

// ArrayBufferViewVal wraps an ArrayBufferView in a Value.
func ArrayBufferViewVal(v *ArrayBufferView) Value { return Value{typ: TypeArrayBufferView, data: v} }

// ErrorValue wraps a JSError in a Value.
func ErrorValue(e *JSError) Value { return Value{typ: TypeError, data: e} }

// BoxedPrimitiveVal wraps a BoxedPrimitive in a Value.
func BoxedPrimitiveVal(b BoxedPrimitive) Value { return Value{typ: TypeBoxedPrimitive, data: b} }

// HostObjectVal wraps a HostObject in a Value.
func HostObjectVal(h *HostObject) Value { return Value{typ: TypeHostObject, data: h} }

// Type returns the JavaScript type of this value.
func (v Value) Type() Type { return v.typ }

// IsUndefined returns true if this value is JavaScript undefined.
func (v Value) IsUndefined() bool { return v.typ == TypeUndefined }

// IsNull returns true if this value is JavaScript null.
func (v Value) IsNull() bool { return v.typ == TypeNull }

// IsNullish returns true if this value is null or undefined.
func (v Value) IsNullish() bool { return v.typ == TypeNull || v.typ == TypeUndefined }

// IsBool returns true if this value is a boolean.
func (v Value) IsBool() bool { return v.typ == TypeBool }

// IsNumber returns true if this value is a number (int32, uint32, or double).
func (v Value) IsNumber() bool {
	return v.typ == TypeInt32 || v.typ == TypeUint32 || v.typ == TypeDouble
}

// IsBigInt returns true if this value is a BigInt.
func (v Value) IsBigInt() bool { return v.typ == TypeBigInt }

// IsString returns true if this value is a string.
func (v Value) IsString() bool { return v.typ == TypeString }

// IsDate returns true if this value is a Date.
func (v Value) IsDate() bool { return v.typ == TypeDate }

// IsObject returns true if this value is an object (not null).
func (v Value) IsObject() bool { return v.typ == TypeObject }

// IsArray returns true if this value is an array.
func (v Value) IsArray() bool { return v.typ == TypeArray }

// IsHole returns true if this value represents an array hole.
func (v Value) IsHole() bool { return v.typ == TypeHole }

// IsReferenceEligible reports whether this value's identity can be shared
// across an object graph via ObjectReference back-references on encode. V8
// assigns an id to every heap value it serializes, including String and
// BigInt, which are heap-allocated in V8 even though this codec represents
// them as Go value types; Int32/Uint32/Double/Bool/Null/Undefined/Hole are
// SMI/primitive and never get an id. Date is excluded here even though V8
// itself does track it: this codec stores Date as a bare time.Time rather
// than a pointer, so two distinct Date values with an equal instant would
// incorrectly collide under pointer-identity map keying — encoding two
// separate same-instant Dates as a shared reference would be wrong. The
// decoder still assigns Date a reference-table slot on decode, so a back-
// reference to a Date in a stream produced by a real V8 encoder still
// resolves correctly; only this codec's own encoder never emits one.
func (v Value) IsReferenceEligible() bool {
	switch v.typ {
	case TypeObject, TypeArray, TypeMap, TypeSet, TypeArrayBuffer, TypeSharedArrayBuffer,
		TypeArrayBufferTransfer, TypeArrayBufferView, TypeError, TypeRegExp, TypeBoxedPrimitive, TypeHostObject,
		TypeString, TypeBigInt:
		return true
	default:
		return false
	}
}

// AsBool returns the boolean value. Panics if not a boolean.
func (v Value) AsBool() bool {
	if v.typ != TypeBool {
		panic(fmt.Sprintf("Value.AsBool: expected boolean, got %s", v.typ))
	}
	return v.data.(bool)
}

// AsInt32 returns the int32 value. Panics if not an int32.
func (v Value) AsInt32() int32 {
	if v.typ != TypeInt32 {
		panic(fmt.Sprintf("Value.AsInt32: expected int32, got %s", v.typ))
	}
	return v.data.(int32)
}

// AsUint32 returns the uint32 value. Panics if not a uint32.
func (v Value) AsUint32() uint32 {
	if v.typ != TypeUint32 {
		panic(fmt.Sprintf("Value.AsUint32: expected uint32, got %s", v.typ))
	}
	return v.data.(uint32)
}

// AsDouble returns the float64 value. Panics if not a double.
func (v Value) AsDouble() float64 {
	if v.typ != TypeDouble {
		panic(fmt.Sprintf("Value.AsDouble: expected double, got %s", v.typ))
	}
	return v.data.(float64)
}

// AsNumber returns the numeric value as float64.
// Works for int32, uint32, and double types.
func (v Value) AsNumber() float64 {
	switch v.typ {
	case TypeInt32:
		return float64(v.data.(int32))
	case TypeUint32:
		return float64(v.data.(uint32))
	case TypeDouble:
		return v.data.(float64)
	default:
		panic(fmt.Sprintf("Value.AsNumber: expected number, got %s", v.typ))
	}
}

// AsBigInt returns the big.Int value. Panics if not a BigInt.
func (v Value) AsBigInt() *big.Int {
	if v.typ != TypeBigInt {
		panic(fmt.Sprintf("Value.AsBigInt: expected bigint, got %s", v.typ))
	}
	return v.data.(*big.Int)
}

// AsString returns the decoded string text. Panics if not a string.
func (v Value) AsString() string {
	if v.typ != TypeString {
		panic(fmt.Sprintf("Value.AsString: expected string, got %s", v.typ))
	}
	return v.data.(*JSString).Text
}

// AsJSString returns the full JSString (text plus wire form). Panics if not
// a string.
func (v Value) AsJSString() *JSString {
	if v.typ != TypeString {
		panic(fmt.Sprintf("Value.AsJSString: expected string, got %s", v.typ))
	}
	return v.data.(*JSString)
}

// AsDate returns the time.Time value. Panics if not a Date.
func (v Value) AsDate() time.Time {
	if v.typ != TypeDate {
		panic(fmt.Sprintf("Value.AsDate: expected Date, got %s", v.typ))
	}
	return v.data.(time.Time)
}

// AsObject returns the backing OrderedObject. Panics if not an object.
func (v Value) AsObject() *OrderedObject {
	if v.typ != TypeObject {
		panic(fmt.Sprintf("Value.AsObject: expected object, got %s", v.typ))
	}
	return v.data.(*OrderedObject)
}

// AsArray returns the backing JSArray. Panics if not an array.
func (v Value) AsArray() *JSArray {
	if v.typ != TypeArray {
		panic(fmt.Sprintf("Value.AsArray: expected array, got %s", v.typ))
	}
	return v.data.(*JSArray)
}

// AsMap returns the backing JSMap. Panics if not a Map.
func (v Value) AsMap() *JSMap {
	if v.typ != TypeMap {
		panic(fmt.Sprintf("Value.AsMap: expected Map, got %s", v.typ))
	}
	return v.data.(*JSMap)
}

// AsSet returns the backing JSSet. Panics if not a Set.
func (v Value) AsSet() *JSSet {
	if v.typ != TypeSet {
		panic(fmt.Sprintf("Value.AsSet: expected Set, got %s", v.typ))
	}
	return v.data.(*JSSet)
}

// AsRegExp returns the RegExp value. Panics if not a RegExp.
func (v Value) AsRegExp() RegExp {
	if v.typ != TypeRegExp {
		panic(fmt.Sprintf("Value.AsRegExp: expected RegExp, got %s", v.typ))
	}
	return v.data.(RegExp)
}

// AsArrayBuffer returns the backing JSArrayBuffer. Panics if not an
// ArrayBuffer.
func (v Value) AsArrayBuffer() *JSArrayBuffer {
	if v.typ != TypeArrayBuffer {
		panic(fmt.Sprintf("Value.AsArrayBuffer: expected ArrayBuffer, got %s", v.typ))
	}
	return v.data.(*JSArrayBuffer)
}

// AsArrayBufferView returns the backing ArrayBufferView. Panics if not a
// view.
func (v Value) AsArrayBufferView() *ArrayBufferView {
	if v.typ != TypeArrayBufferView {
		panic(fmt.Sprintf("Value.AsArrayBufferView: expected ArrayBufferView, got %s", v.typ))
	}
	return v.data.(*ArrayBufferView)
}

// AsError returns the backing JSError. Panics if not an Error.
func (v Value) AsError() *JSError {
	if v.typ != TypeError {
		panic(fmt.Sprintf("Value.AsError: expected Error, got %s", v.typ))
	}
	return v.data.(*JSError)
}

// AsBoxedPrimitive returns the BoxedPrimitive. Panics if not one.
func (v Value) AsBoxedPrimitive() BoxedPrimitive {
	if v.typ != TypeBoxedPrimitive {
		panic(fmt.Sprintf("Value.AsBoxedPrimitive: expected BoxedPrimitive, got %s", v.typ))
	}
	return v.data.(BoxedPrimitive)
}

// AsHostObject returns the backing HostObject. Panics if not one.
func (v Value) AsHostObject() *HostObject {
	if v.typ != TypeHostObject {
		panic(fmt.Sprintf("Value.AsHostObject: expected HostObject, got %s", v.typ))
	}
	return v.data.(*HostObject)
}

// identityKey returns a key suitable for the encoder's identity map: the
// underlying pointer for composite/boxed kinds, or nil for value kinds that
// are never reference-eligible.
func (v Value) identityKey() interface{} {
	if !v.IsReferenceEligible() {
		return nil
	}
	return v.data
}

// Interface returns the underlying Go value.
// Returns nil for undefined, null, and hole.
func (v Value) Interface() interface{} {
	if v.typ == TypeUndefined || v.typ == TypeNull || v.typ == TypeHole {
		return nil
	}
	return v.data
}

// GoString implements fmt.GoStringer for debugging.
func (v Value) GoString() string {
	switch v.typ {
	case TypeUndefined:
		return "undefined"
	case TypeNull:
		return "null"
	case TypeBool:
		if v.data.(bool) {
			return "true"
		}
		return "false"
	case TypeInt32:
		return fmt.Sprintf("%d", v.data.(int32))
	case TypeUint32:
		return fmt.Sprintf("%d", v.data.(uint32))
	case TypeDouble:
		return fmt.Sprintf("%g", v.data.(float64))
	case TypeBigInt:
		return fmt.Sprintf("%sn", v.data.(*big.Int).String())
	case TypeString:
		return fmt.Sprintf("%q", v.data.(*JSString).Text)
	case TypeDate:
		return fmt.Sprintf("Date(%s)", v.data.(time.Time).Format(time.RFC3339Nano))
	case TypeHole:
		return "<hole>"
	case TypeObject:
		return fmt.Sprintf("Object{%d properties}", v.data.(*OrderedObject).Len())
	case TypeArray:
		return fmt.Sprintf("Array[%d]", v.data.(*JSArray).Length())
	default:
		return fmt.Sprintf("%s(%v)", v.typ, v.data)
	}
}

// StringForm records which wire encoding a JavaScript string should prefer,
// mirroring the three string tags V8 can emit.
type StringForm uint8

const (
	FormOneByte StringForm = iota // Latin-1, every code point <= 0xFF
	FormTwoByte                   // UTF-16LE, any code point
	FormUtf8                      // legacy UTF-8, rarely emitted but accepted on decode
)

// JSString is a decoded string plus the wire form it arrived in (or should
// round-trip through on re-encode).
type JSString struct {
	Text string
	Form StringForm
}

// preferredStringForm picks OneByte when every rune fits in Latin-1,
// otherwise TwoByte. For valid UTF-8 this matches wire.NeedsUTF16; a byte
// that is not valid UTF-8 reads as U+FFFD here and so selects TwoByte.
func preferredStringForm(s string) StringForm {
	for _, r := range s {
		if r > 0xFF {
			return FormTwoByte
		}
	}
	return FormOneByte
}

// RegExp represents a JavaScript RegExp object.
type RegExp struct {
	Pattern string
	Flags   string // characters among g i m s u y v (v = UnicodeSets)
}

// ObjectEntry is one key/value pair of an OrderedObject, in insertion order.
type ObjectEntry struct {
	Key   string
	Value Value
}

// OrderedObject is a JavaScript plain object: an insertion-ordered mapping
// from string property name to Value. Re-setting an existing key overwrites
// its value but keeps its original position, matching JS semantics for
// string-keyed properties (integer-like keys are not reordered by this
// codec; V8 itself would, but reproducing the integer-key-first ordering
// rule is out of scope — see Non-goals).
type OrderedObject struct {
	entries []ObjectEntry
	index   map[string]int
}

// NewOrderedObject returns an empty OrderedObject ready for use.
func NewOrderedObject() *OrderedObject {
	return &OrderedObject{index: make(map[string]int)}
}

// Set inserts or overwrites a property. An existing key keeps its position.
func (o *OrderedObject) Set(key string, v Value) {
	if o.index == nil {
		o.index = make(map[string]int)
	}
	if i, ok := o.index[key]; ok {
		o.entries[i].Value = v
		return
	}
	o.index[key] = len(o.entries)
	o.entries = append(o.entries, ObjectEntry{Key: key, Value: v})
}

// Get returns the value for key and whether it was present.
func (o *OrderedObject) Get(key string) (Value, bool) {
	i, ok := o.index[key]
	if !ok {
		return Value{}, false
	}
	return o.entries[i].Value, true
}

// Len returns the number of properties.
func (o *OrderedObject) Len() int { return len(o.entries) }

// Entries returns the properties in insertion order. The returned slice must
// not be mutated by callers.
func (o *OrderedObject) Entries() []ObjectEntry { return o.entries }

// Keys returns property names in insertion order.
func (o *OrderedObject) Keys() []string {
	keys := make([]string, len(o.entries))
	for i, e := range o.entries {
		keys[i] = e.Key
	}
	return keys
}

// JSArray represents a JavaScript Array: a dense or sparse run of indexed
// elements (holes permitted, represented by Hole()) plus any additional
// non-index ("sparse trailer") string-keyed properties V8 allows an array to
// carry.
type JSArray struct {
	Elements   []Value // index 0..Length()-1; Hole() marks an absent slot
	Properties []ObjectEntry
}

// NewJSArray returns a JSArray of the given length, every slot a hole.
func NewJSArray(length int) *JSArray {
	els := make([]Value, length)
	for i := range els {
		els[i] = Hole()
	}
	return &JSArray{Elements: els}
}

// Length returns the array's length (the dense element count, not counting
// sparse trailer properties).
func (a *JSArray) Length() int { return len(a.Elements) }

// IsDense reports whether every element is present (no holes) and there are
// no sparse trailer properties — i.e. whether the encoder may choose the
// more compact dense array tag.
func (a *JSArray) IsDense() bool {
	if len(a.Properties) > 0 {
		return false
	}
	for _, v := range a.Elements {
		if v.IsHole() {
			return false
		}
	}
	return true
}

// MapEntry represents a key-value pair in a JavaScript Map.
type MapEntry struct {
	Key   Value
	Value Value
}

// JSMap represents a JavaScript Map. Entries preserve insertion order;
// re-setting an existing key (by SameValueZero) overwrites its value but
// keeps its original position — use Set to get this behavior, rather than
// appending to Entries directly.
type JSMap struct {
	Entries []MapEntry
}

// Set inserts or overwrites a key's value, keeping the original insertion
// position on overwrite, per JS Map.prototype.set semantics.
func (m *JSMap) Set(key, value Value) {
	for i := range m.Entries {
		if SameValueZero(m.Entries[i].Key, key) {
			m.Entries[i].Value = value
			return
		}
	}
	m.Entries = append(m.Entries, MapEntry{Key: key, Value: value})
}

// JSSet represents a JavaScript Set (preserves insertion order, SameValueZero
// membership).
type JSSet struct {
	Values []Value
}

// Add inserts v unless an equal (SameValueZero) value is already present.
func (s *JSSet) Add(v Value) {
	if s.Has(v) {
		return
	}
	s.Values = append(s.Values, v)
}

// Has reports whether an equal (SameValueZero) value is present.
func (s *JSSet) Has(v Value) bool {
	for _, existing := range s.Values {
		if SameValueZero(existing, v) {
			return true
		}
	}
	return false
}

// SameValueZero implements the JS SameValueZero algorithm used by Set/Map
// key comparison: like ===, except NaN equals NaN (and +0 equals -0, which
// float64 equality already gives us).
func SameValueZero(a, b Value) bool {
	if a.typ != b.typ {
		// int32/uint32/double are distinct wire types but the same JS number.
		if a.IsNumber() && b.IsNumber() {
			af, bf := a.AsNumber(), b.AsNumber()
			if math.IsNaN(af) && math.IsNaN(bf) {
				return true
			}
			return af == bf
		}
		return false
	}
	switch a.typ {
	case TypeUndefined, TypeNull, TypeHole:
		return true
	case TypeBool:
		return a.data.(bool) == b.data.(bool)
	case TypeInt32:
		return a.data.(int32) == b.data.(int32)
	case TypeUint32:
		return a.data.(uint32) == b.data.(uint32)
	case TypeDouble:
		af, bf := a.data.(float64), b.data.(float64)
		if math.IsNaN(af) && math.IsNaN(bf) {
			return true
		}
		return af == bf
	case TypeString:
		return a.data.(*JSString).Text == b.data.(*JSString).Text
	case TypeBigInt:
		return a.data.(*big.Int).Cmp(b.data.(*big.Int)) == 0
	default:
		// Composite/reference types use identity, same as JS object equality.
		return a.data == b.data
	}
}

// JSArrayBuffer represents a JavaScript ArrayBuffer, optionally resizable.
type JSArrayBuffer struct {
	Bytes         []byte
	Resizable     bool
	MaxByteLength int // meaningful only when Resizable
}

// JSSharedArrayBuffer is an opaque reference to a SharedArrayBuffer living
// outside the wire stream, addressed by transfer id. The actual bytes are
// looked up in a caller-supplied SharedBufferRegistry.
type JSSharedArrayBuffer struct {
	TransferID uint32
}

// JSArrayBufferTransfer is an opaque reference to a transferred ArrayBuffer,
// addressed by transfer id, resolved the same way as JSSharedArrayBuffer.
type JSArrayBufferTransfer struct {
	TransferID uint32
}

// ArrayBufferView represents a typed view (TypedArray or DataView) into a
// backing buffer, referenced by identity so multiple views can alias the
// same bytes.
type ArrayBufferView struct {
	Buffer         Value // the backing ArrayBuffer or SharedArrayBuffer Value
	ViewTag        ArrayBufferViewTag
	ByteOffset     int
	ByteLength     int  // ignored when LengthTracking is true
	LengthTracking bool // ByteLength derives from the backing buffer at access time
	BackedByResizable bool
}

// resolvedByteLength returns the view's effective byte length given the
// backing buffer's current byte length, honoring length-tracking views.
func (v *ArrayBufferView) resolvedByteLength(bufferLen int) int {
	if v.LengthTracking {
		return bufferLen - v.ByteOffset
	}
	return v.ByteLength
}

// Validate checks the view's offset/length against its backing buffer's
// current size, returning BufferViewOutOfBoundsError on violation. A
// length-tracking view backed by a non-resizable buffer is rejected
// outright (Reason "invalid-flag-combination") rather than silently
// guessed at: length-tracking only makes sense when the buffer can change
// size out from under the view, so this combination cannot arise from a
// well-formed wire stream and is never given a best-effort interpretation.
func (v *ArrayBufferView) Validate(bufferLen int) error {
	if v.ByteOffset < 0 || v.ByteOffset > bufferLen {
		return &BufferViewOutOfBoundsError{ByteOffset: v.ByteOffset, ByteLength: v.ByteLength, BufferLen: bufferLen}
	}
	if v.LengthTracking {
		if !v.BackedByResizable {
			return &BufferViewOutOfBoundsError{
				ByteOffset: v.ByteOffset,
				ByteLength: v.ByteLength,
				BufferLen:  bufferLen,
				Reason:     "invalid-flag-combination",
			}
		}
		return nil
	}
	if v.ByteLength < 0 || v.ByteOffset+v.ByteLength > bufferLen {
		return &BufferViewOutOfBoundsError{ByteOffset: v.ByteOffset, ByteLength: v.ByteLength, BufferLen: bufferLen}
	}
	itemSize := v.ViewTag.itemSize()
	if v.ViewTag != ViewDataView && v.ByteLength%itemSize != 0 {
		return &BufferViewOutOfBoundsError{ByteOffset: v.ByteOffset, ByteLength: v.ByteLength, BufferLen: bufferLen}
	}
	return nil
}

// JSError represents a JavaScript Error object.
type JSError struct {
	Name    string // "Error", "TypeError", "RangeError", ...
	Message string
	Stack   string
	Cause   *Value // ES2022 Error.cause (optional); may alias the error itself
}

// BoxedPrimitive represents a boxed primitive (new Number(42), etc).
type BoxedPrimitive struct {
	PrimitiveType Type
	Value         Value
}

// HostObject is an opaque, application-defined value carried verbatim
// through the wire format via a HostObjectHandler. Payload is the raw bytes
// the handler produced on encode (and is handed back to it on decode);
// Decoded is whatever Go value the handler chose to expose, if any.
type HostObject struct {
	Payload []byte
	Decoded interface{}
}
