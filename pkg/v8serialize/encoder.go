package v8serialize

import (
	"fmt"
	"math/big"
	"time"
	"unicode/utf8"

	"github.com/acolita/v8clone/internal/wire"
)

// Serializer serializes Values to V8 Structured Clone format data.
type Serializer struct {
	tw          *tagWriter
	maxDepth    int
	depth       int
	hostHandler HostObjectHandler
	registry    SharedBufferRegistry

	// identity maps a reference-eligible value's underlying data pointer to
	// the reference id it was assigned the first time it was seen, so a
	// later encounter — including one still in progress (a cycle) — emits an
	// ObjectReference instead of writing the value again.
	identity map[interface{}]uint32
	nextID   uint32
	// writing records the identity keys of values currently being written.
	// Cycle handling does not consult it: the identity map above already
	// turns a repeat of an in-progress value into an ObjectReference.
	writing map[interface{}]bool
}

// EncodeOption configures the serializer.
type EncodeOption func(*Serializer)

// WithVersion sets the format version to target (default MaxVersion).
func WithVersion(version uint32) EncodeOption {
	return func(s *Serializer) { s.tw.version = version }
}

// WithEncodeFeatures overrides the enabled SerializationFeature set (default
// DefaultFeatures()).
func WithEncodeFeatures(features SerializationFeature) EncodeOption {
	return func(s *Serializer) { s.tw.features = features }
}

// WithEncodeMaxDepth sets the maximum nesting depth (default 1000).
func WithEncodeMaxDepth(depth int) EncodeOption {
	return func(s *Serializer) { s.maxDepth = depth }
}

// WithEncodeHostObjectHandler installs the handler invoked for values the
// codec has no native wire representation for.
func WithEncodeHostObjectHandler(h HostObjectHandler) EncodeOption {
	return func(s *Serializer) { s.hostHandler = h }
}

// WithEncodeSharedBufferRegistry installs the registry used to register
// SharedArrayBuffer/ArrayBufferTransfer bytes and obtain their transfer ids.
func WithEncodeSharedBufferRegistry(r SharedBufferRegistry) EncodeOption {
	return func(s *Serializer) { s.registry = r }
}

// NewSerializer creates a new serializer.
func NewSerializer(opts ...EncodeOption) *Serializer {
	s := &Serializer{
		tw:       newTagWriter(MaxVersion, DefaultFeatures()),
		maxDepth: 1000,
		registry: NewMemoryBufferRegistry(),
		identity: make(map[interface{}]uint32),
		writing:  make(map[interface{}]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Serialize serializes v and returns the wire bytes, including header.
func Serialize(v Value, opts ...EncodeOption) ([]byte, error) {
	s := NewSerializer(opts...)
	return s.Serialize(v)
}

// SerializeGo converts a native Go value to a Value via goToValue and
// serializes it. Supported inputs: nil, bool, string, the signed/unsigned
// integer and float kinds, *big.Int, time.Time, []byte (→ ArrayBuffer),
// []interface{} (→ array), and map[string]interface{} (→ object, unordered).
func SerializeGo(v interface{}, opts ...EncodeOption) ([]byte, error) {
	s := NewSerializer(opts...)
	return s.SerializeGo(v)
}

// SerializeGo converts v via goToValue and serializes the result.
func (s *Serializer) SerializeGo(v interface{}) ([]byte, error) {
	val, err := goToValue(v)
	if err != nil {
		return nil, err
	}
	return s.Serialize(val)
}

// goToValue converts a native Go value into the Value representation
// goToValue's caller (SerializeGo) will then hand to the ordinary encoder.
func goToValue(v interface{}) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(x), nil
	case int:
		return intToValue(int64(x)), nil
	case int8:
		return intToValue(int64(x)), nil
	case int16:
		return intToValue(int64(x)), nil
	case int32:
		return Int32(x), nil
	case int64:
		return intToValue(x), nil
	case uint:
		return uintToValue(uint64(x)), nil
	case uint8:
		return uintToValue(uint64(x)), nil
	case uint16:
		return uintToValue(uint64(x)), nil
	case uint32:
		return Uint32(x), nil
	case uint64:
		return uintToValue(x), nil
	case float32:
		return Double(float64(x)), nil
	case float64:
		return Double(x), nil
	case string:
		return String(x), nil
	case *big.Int:
		return BigInt(x), nil
	case time.Time:
		return Date(x), nil
	case []byte:
		return NewArrayBuffer(x), nil
	case []interface{}:
		elems := make([]Value, len(x))
		for i, elem := range x {
			ev, err := goToValue(elem)
			if err != nil {
				return Value{}, err
			}
			elems[i] = ev
		}
		return Array(elems), nil
	case map[string]interface{}:
		o := NewOrderedObject()
		for k, elem := range x {
			ev, err := goToValue(elem)
			if err != nil {
				return Value{}, err
			}
			o.Set(k, ev)
		}
		return ObjectValue(o), nil
	default:
		return Value{}, fmt.Errorf("%w: cannot convert Go value of type %T", ErrUnhandledValue, v)
	}
}

// intToValue picks Int32 when n fits, otherwise Double, matching how V8
// itself represents a JS number that overflows the Smi/int32 range.
func intToValue(n int64) Value {
	if n >= -(1<<31) && n <= (1<<31)-1 {
		return Int32(int32(n))
	}
	return Double(float64(n))
}

// uintToValue picks Uint32 when n fits, otherwise Double.
func uintToValue(n uint64) Value {
	if n <= (1<<32)-1 {
		return Uint32(uint32(n))
	}
	return Double(float64(n))
}

// Serialize writes the header followed by v.
func (s *Serializer) Serialize(v Value) ([]byte, error) {
	s.tw.writeHeader()
	if err := s.writeValue(v); err != nil {
		return nil, err
	}
	return s.tw.w.Bytes(), nil
}

// writeValue dispatches on v's type, handling the reference table for
// reference-eligible values: a value already written (or currently being
// written, i.e. a cycle) is emitted as an ObjectReference instead.
func (s *Serializer) writeValue(v Value) error {
	s.depth++
	if s.depth > s.maxDepth {
		s.depth--
		return ErrMaxDepthExceeded
	}
	defer func() { s.depth-- }()

	key := v.identityKey()
	if key != nil {
		if id, seen := s.identity[key]; seen {
			s.tw.w.WriteByte(tagObjectReference)
			s.tw.w.WriteVarint32(id)
			return nil
		}
		// A view's id follows its buffer's, which writeArrayBufferView
		// writes first; it assigns the view's id itself.
		if v.Type() != TypeArrayBufferView {
			s.identity[key] = s.nextID
			s.nextID++
		}
		s.writing[key] = true
		defer delete(s.writing, key)
	}

	switch v.Type() {
	case TypeUndefined:
		s.tw.w.WriteByte(tagUndefined)
		return nil
	case TypeNull:
		s.tw.w.WriteByte(tagNull)
		return nil
	case TypeHole:
		s.tw.w.WriteByte(tagHole)
		return nil
	case TypeBool:
		if v.AsBool() {
			s.tw.w.WriteByte(tagTrue)
		} else {
			s.tw.w.WriteByte(tagFalse)
		}
		return nil
	case TypeInt32:
		s.tw.w.WriteByte(tagInt32)
		s.tw.w.WriteZigZag32(v.AsInt32())
		return nil
	case TypeUint32:
		s.tw.w.WriteByte(tagUint32)
		s.tw.w.WriteVarint32(v.AsUint32())
		return nil
	case TypeDouble:
		s.tw.w.WriteByte(tagDouble)
		s.tw.w.WriteDouble(v.AsDouble())
		return nil
	case TypeBigInt:
		return s.writeBigInt(v.AsBigInt())
	case TypeString:
		return s.writeString(v.AsJSString())
	case TypeDate:
		// Not reference-eligible here, but the decoder gives every Date a
		// reference-table slot, so the id counter advances to match.
		s.nextID++
		s.tw.w.WriteByte(tagDate)
		t := v.AsDate()
		ms := float64(t.UnixNano()) / 1e6
		s.tw.w.WriteDouble(ms)
		return nil
	case TypeObject:
		return s.writeObject(v.AsObject())
	case TypeArray:
		return s.writeArray(v.AsArray())
	case TypeMap:
		return s.writeMap(v.AsMap())
	case TypeSet:
		return s.writeSet(v.AsSet())
	case TypeArrayBuffer:
		return s.writeArrayBuffer(v.AsArrayBuffer())
	case TypeSharedArrayBuffer:
		return s.writeSharedArrayBuffer(v)
	case TypeArrayBufferTransfer:
		return s.writeArrayBufferTransfer(v)
	case TypeArrayBufferView:
		return s.writeArrayBufferView(v.AsArrayBufferView())
	case TypeRegExp:
		return s.writeRegExp(v.AsRegExp())
	case TypeError:
		return s.writeError(v, v.AsError())
	case TypeBoxedPrimitive:
		return s.writeBoxedPrimitive(v.AsBoxedPrimitive())
	case TypeHostObject:
		return s.writeHostObjectValue(v.AsHostObject())
	default:
		return s.writeViaHostHandler(v)
	}
}

func (s *Serializer) writeViaHostHandler(v Value) error {
	if s.hostHandler == nil {
		return &UnhandledValueError{Kind: v.Type().String()}
	}
	payload, ok, err := s.hostHandler.EncodeHostObject(v)
	if err != nil {
		return err
	}
	if !ok {
		return &UnhandledValueError{Kind: v.Type().String()}
	}
	s.tw.w.WriteByte(tagHostObject)
	s.tw.w.WriteVarint32(uint32(len(payload)))
	s.tw.w.WriteBytes(payload)
	return nil
}

func (s *Serializer) writeHostObjectValue(h *HostObject) error {
	s.tw.w.WriteByte(tagHostObject)
	s.tw.w.WriteVarint32(uint32(len(h.Payload)))
	s.tw.w.WriteBytes(h.Payload)
	return nil
}

// writeBigInt writes a bitfield (sign bit + byte-length<<1) followed by the
// little-endian magnitude bytes.
func (s *Serializer) writeBigInt(n *big.Int) error {
	if n.BitLen() > DefaultMaxBigIntBytes*8 {
		byteLen := (n.BitLen() + 7) / 8
		return &BigIntTooLargeError{ByteLength: byteLen, Max: DefaultMaxBigIntBytes}
	}
	s.tw.w.WriteByte(tagBigInt)
	negative := n.Sign() < 0
	mag := new(big.Int).Abs(n)
	bytes := mag.Bytes() // big-endian
	reversed := make([]byte, len(bytes))
	for i, b := range bytes {
		reversed[len(bytes)-1-i] = b
	}
	bitfield := uint64(len(reversed)) << 1
	if negative {
		bitfield |= 1
	}
	s.tw.w.WriteVarint(bitfield)
	s.tw.w.WriteBytes(reversed)
	return nil
}

func (s *Serializer) writeString(js *JSString) error {
	switch js.Form {
	case FormOneByte:
		s.tw.w.WriteByte(tagOneByteString)
		s.tw.w.WriteVarint32(uint32(utf8.RuneCountInString(js.Text)))
		s.tw.w.WriteOneByteString(js.Text)
		return nil
	case FormUtf8:
		s.tw.w.WriteByte(tagUtf8String)
		s.tw.w.WriteVarint32(uint32(len(js.Text)))
		s.tw.w.WriteUTF8String(js.Text)
		return nil
	default:
		s.tw.w.WriteByte(tagTwoByteString)
		s.tw.w.WriteVarint32(uint32(wire.UTF16Length(js.Text) * 2))
		s.tw.w.WriteTwoByteString(js.Text)
		return nil
	}
}

func (s *Serializer) writeObject(o *OrderedObject) error {
	s.tw.w.WriteByte(tagBeginJSObject)
	for _, entry := range o.Entries() {
		if err := s.writeValue(String(entry.Key)); err != nil {
			return err
		}
		if err := s.writeValue(entry.Value); err != nil {
			return err
		}
	}
	s.tw.w.WriteByte(tagEndJSObject)
	s.tw.w.WriteVarint32(uint32(o.Len()))
	return nil
}

// writeArray picks the dense or sparse wire form based on whether the array
// actually has holes or trailer properties, matching what V8 itself chooses
// (a plain fully-populated array is always written dense).
func (s *Serializer) writeArray(a *JSArray) error {
	if a.IsDense() {
		return s.writeDenseArray(a)
	}
	return s.writeSparseArray(a)
}

func (s *Serializer) writeDenseArray(a *JSArray) error {
	s.tw.w.WriteByte(tagBeginDenseArray)
	s.tw.w.WriteVarint32(uint32(len(a.Elements)))
	for _, elem := range a.Elements {
		if err := s.writeValue(elem); err != nil {
			return err
		}
	}
	s.tw.w.WriteByte(tagEndDenseArray)
	s.tw.w.WriteVarint32(uint32(len(a.Properties)))
	s.tw.w.WriteVarint32(uint32(len(a.Elements)))
	return nil
}

func (s *Serializer) writeSparseArray(a *JSArray) error {
	s.tw.w.WriteByte(tagBeginSparseArray)
	s.tw.w.WriteVarint32(uint32(len(a.Elements)))
	// The trailer counts every key/value pair written: present elements
	// plus named properties.
	pairs := len(a.Properties)
	for i, elem := range a.Elements {
		if elem.IsHole() {
			continue
		}
		if err := s.writeValue(Uint32(uint32(i))); err != nil {
			return err
		}
		if err := s.writeValue(elem); err != nil {
			return err
		}
		pairs++
	}
	for _, prop := range a.Properties {
		if err := s.writeValue(String(prop.Key)); err != nil {
			return err
		}
		if err := s.writeValue(prop.Value); err != nil {
			return err
		}
	}
	s.tw.w.WriteByte(tagEndSparseArray)
	s.tw.w.WriteVarint32(uint32(pairs))
	s.tw.w.WriteVarint32(uint32(len(a.Elements)))
	return nil
}

func (s *Serializer) writeMap(m *JSMap) error {
	s.tw.w.WriteByte(tagBeginMap)
	for _, entry := range m.Entries {
		if err := s.writeValue(entry.Key); err != nil {
			return err
		}
		if err := s.writeValue(entry.Value); err != nil {
			return err
		}
	}
	s.tw.w.WriteByte(tagEndMap)
	s.tw.w.WriteVarint32(uint32(len(m.Entries) * 2))
	return nil
}

func (s *Serializer) writeSet(set *JSSet) error {
	s.tw.w.WriteByte(tagBeginSet)
	for _, val := range set.Values {
		if err := s.writeValue(val); err != nil {
			return err
		}
	}
	s.tw.w.WriteByte(tagEndSet)
	s.tw.w.WriteVarint32(uint32(len(set.Values)))
	return nil
}

func (s *Serializer) writeArrayBuffer(ab *JSArrayBuffer) error {
	if ab.Resizable {
		if err := s.tw.featureGate(FeatureResizableArrayBuffers); err != nil {
			return err
		}
		s.tw.w.WriteByte(tagResizableArrayBuffer)
		s.tw.w.WriteVarint32(uint32(len(ab.Bytes)))
		s.tw.w.WriteVarint32(uint32(ab.MaxByteLength))
		s.tw.w.WriteBytes(ab.Bytes)
		return nil
	}
	s.tw.w.WriteByte(tagArrayBuffer)
	s.tw.w.WriteVarint32(uint32(len(ab.Bytes)))
	s.tw.w.WriteBytes(ab.Bytes)
	return nil
}

func (s *Serializer) writeSharedArrayBuffer(v Value) error {
	shared := v.data.(*JSSharedArrayBuffer)
	s.tw.w.WriteByte(tagSharedArrayBuffer)
	s.tw.w.WriteVarint32(shared.TransferID)
	return nil
}

func (s *Serializer) writeArrayBufferTransfer(v Value) error {
	transfer := v.data.(*JSArrayBufferTransfer)
	s.tw.w.WriteByte(tagArrayBufferTransfer)
	s.tw.w.WriteVarint32(transfer.TransferID)
	return nil
}

// bufferByteLenFor returns the backing byte length for view bounds-checking
// at encode time, resolving shared/transferred buffers via the registry.
func (s *Serializer) bufferByteLenFor(buf Value) (int, error) {
	switch buf.Type() {
	case TypeArrayBuffer:
		return len(buf.AsArrayBuffer().Bytes), nil
	case TypeSharedArrayBuffer:
		b, ok := s.registry.Lookup(buf.data.(*JSSharedArrayBuffer).TransferID)
		if !ok {
			return 0, fmt.Errorf("%w: no registered buffer for shared transfer id", ErrMalformedData)
		}
		return len(b), nil
	case TypeArrayBufferTransfer:
		b, ok := s.registry.Lookup(buf.data.(*JSArrayBufferTransfer).TransferID)
		if !ok {
			return 0, fmt.Errorf("%w: no registered buffer for transfer id", ErrMalformedData)
		}
		return len(b), nil
	default:
		return 0, fmt.Errorf("%w: array buffer view backed by non-buffer value %s", ErrMalformedData, buf.Type())
	}
}

// writeArrayBufferView writes the backing buffer inline (a fresh value, or
// an ObjectReference if it was already written elsewhere — writeValue's
// identity map handles that transparently) followed by the view's own
// sub-tag, offset, length, and flags.
func (s *Serializer) writeArrayBufferView(view *ArrayBufferView) error {
	bufLen, err := s.bufferByteLenFor(view.Buffer)
	if err != nil {
		return err
	}
	if err := view.Validate(bufLen); err != nil {
		return err
	}
	if view.ViewTag == ViewFloat16 {
		if err := s.tw.featureGate(FeatureFloat16Array); err != nil {
			return err
		}
	}
	if view.BackedByResizable || view.LengthTracking {
		if err := s.tw.featureGate(FeatureResizableArrayBuffers); err != nil {
			return err
		}
	}

	if err := s.writeValue(view.Buffer); err != nil {
		return err
	}
	s.identity[view] = s.nextID
	s.nextID++

	s.tw.w.WriteByte(tagArrayBufferView)
	s.tw.w.WriteByte(byte(view.ViewTag))
	s.tw.w.WriteVarint32(uint32(view.ByteOffset))
	s.tw.w.WriteVarint32(uint32(view.ByteLength))

	var flags uint32
	if view.LengthTracking {
		flags |= uint32(viewFlagLengthTracking)
	}
	if view.BackedByResizable {
		flags |= uint32(viewFlagResizableBound)
	}
	s.tw.w.WriteVarint32(flags)
	return nil
}

func (s *Serializer) writeRegExp(r RegExp) error {
	s.tw.w.WriteByte(tagRegExp)
	if err := s.writeValue(String(r.Pattern)); err != nil {
		return err
	}

	var bits uint32
	hasUnicodeSets := false
	for _, c := range r.Flags {
		switch c {
		case 'g':
			bits |= 1
		case 'i':
			bits |= 2
		case 'm':
			bits |= 4
		case 'y':
			bits |= 8
		case 'u':
			bits |= 16
		case 's':
			bits |= 32
		case 'v':
			hasUnicodeSets = true
		}
	}
	if hasUnicodeSets {
		if err := s.tw.featureGate(FeatureRegExpUnicodeSets); err != nil {
			return err
		}
		bits |= 256
	}
	s.tw.w.WriteVarint32(bits)
	return nil
}

func (s *Serializer) writeBoxedPrimitive(b BoxedPrimitive) error {
	switch b.PrimitiveType {
	case TypeDouble:
		s.tw.w.WriteByte(tagNumberObject)
		s.tw.w.WriteDouble(b.Value.AsDouble())
		return nil
	case TypeBool:
		if b.Value.AsBool() {
			s.tw.w.WriteByte(tagTrueObject)
		} else {
			s.tw.w.WriteByte(tagFalseObject)
		}
		return nil
	case TypeString:
		s.tw.w.WriteByte(tagStringObject)
		s.nextID++ // the decoder gives the inner string its own slot
		return s.writeString(b.Value.AsJSString())
	case TypeBigInt:
		s.tw.w.WriteByte(tagBigIntObject)
		s.nextID++ // the decoder gives the inner BigInt its own slot
		return s.writeBigInt(b.Value.AsBigInt())
	default:
		return fmt.Errorf("%w: boxed primitive of type %s", ErrMalformedData, b.PrimitiveType)
	}
}

// writeError writes 'r' + name sub-tag + body sub-tags + errorTagEnd. A
// Cause that aliases the error itself (by Go pointer identity) is only
// legal when FeatureCircularErrorCause is enabled.
func (s *Serializer) writeError(self Value, e *JSError) error {
	s.tw.w.WriteByte(tagError)

	switch e.Name {
	case "EvalError":
		s.tw.w.WriteByte(errorTypeEvalError)
	case "RangeError":
		s.tw.w.WriteByte(errorTypeRangeError)
	case "ReferenceError":
		s.tw.w.WriteByte(errorTypeReferenceError)
	case "SyntaxError":
		s.tw.w.WriteByte(errorTypeSyntaxError)
	case "TypeError":
		s.tw.w.WriteByte(errorTypeTypeError)
	case "URIError":
		s.tw.w.WriteByte(errorTypeURIError)
	default:
		s.tw.w.WriteByte(errorTypeErrorWithMessage)
		if err := s.writeValue(String(e.Message)); err != nil {
			return err
		}
	}

	if e.Name != "" && e.Name != "Error" {
		if e.Message != "" {
			s.tw.w.WriteByte(errorTagMessage)
			if err := s.writeValue(String(e.Message)); err != nil {
				return err
			}
		}
	}
	if e.Stack != "" {
		s.tw.w.WriteByte(errorTagStack)
		if err := s.writeValue(String(e.Stack)); err != nil {
			return err
		}
	}
	if e.Cause != nil {
		if e.Cause.identityKey() == self.identityKey() {
			if err := s.tw.featureGate(FeatureCircularErrorCause); err != nil {
				return err
			}
		}
		s.tw.w.WriteByte(errorTagCause)
		if err := s.writeValue(*e.Cause); err != nil {
			return err
		}
	}

	s.tw.w.WriteByte(errorTagEnd)
	return nil
}
