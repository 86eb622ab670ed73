package v8serialize

import (
	"fmt"
	"math/big"
	"time"
)

// DefaultMaxArrayLen is the default maximum array length: unlimited. A
// sparse array's wire length is just an index plus one and V8 places no
// meaningful ceiling on it (index 123456789 decoding to length 123456790 is
// an ordinary, valid stream, not an attack), so this codec does not invent
// an "array too large" error kind of its own. Callers that need a ceiling
// against hostile input can opt in with WithMaxArrayLen.
const DefaultMaxArrayLen = 0

// DefaultMaxObjectKeys is the default maximum object keys (1 million keys),
// preventing memory exhaustion from malicious input.
const DefaultMaxObjectKeys = 1_000_000

// DefaultMaxBigIntBytes bounds a decoded BigInt's magnitude to 64 KiB,
// matching V8's own kMaxBigIntDigits-derived ceiling closely enough to stop
// a hostile stream from requesting an enormous allocation.
const DefaultMaxBigIntBytes = 64 * 1024

// Deserializer deserializes V8 Structured Clone format data.
type Deserializer struct {
	tr            *tagReader
	maxDepth      int
	maxSize       int
	maxArrayLen   int
	maxObjectKeys int
	maxBigIntLen  int
	depth         int
	hostHandler   HostObjectHandler
	registry      SharedBufferRegistry

	// objects is the append-only decode reference table: every
	// reference-eligible value is registered here, in encounter order, the
	// moment its identity is known (before its children are decoded), so a
	// later ObjectReference tag — including a self-reference from within
	// the value's own body — resolves correctly.
	objects []Value
}

// Option configures the deserializer.
type Option func(*Deserializer)

// WithMaxDepth sets the maximum nesting depth (default 1000).
func WithMaxDepth(depth int) Option {
	return func(d *Deserializer) { d.maxDepth = depth }
}

// WithMaxSize sets the maximum input size in bytes (default unlimited).
func WithMaxSize(size int) Option {
	return func(d *Deserializer) { d.maxSize = size }
}

// WithMaxArrayLen sets the maximum array length (default unlimited).
func WithMaxArrayLen(length int) Option {
	return func(d *Deserializer) { d.maxArrayLen = length }
}

// WithMaxObjectKeys sets the maximum number of object keys (default 1 million).
func WithMaxObjectKeys(keys int) Option {
	return func(d *Deserializer) { d.maxObjectKeys = keys }
}

// WithFeatures overrides the enabled SerializationFeature set (default
// DefaultFeatures()).
func WithFeatures(features SerializationFeature) Option {
	return func(d *Deserializer) { d.tr.features = features }
}

// WithHostObjectHandler installs the handler invoked for HostObject tags.
func WithHostObjectHandler(h HostObjectHandler) Option {
	return func(d *Deserializer) { d.hostHandler = h }
}

// WithSharedBufferRegistry installs the registry used to resolve
// SharedArrayBuffer/ArrayBufferTransfer transfer ids. Defaults to a fresh
// MemoryBufferRegistry per Deserializer.
func WithSharedBufferRegistry(r SharedBufferRegistry) Option {
	return func(d *Deserializer) { d.registry = r }
}

// NewDeserializer creates a new deserializer for the given data.
func NewDeserializer(data []byte, opts ...Option) *Deserializer {
	d := &Deserializer{
		tr:            newTagReader(data, DefaultFeatures()),
		maxDepth:      1000,
		maxArrayLen:   DefaultMaxArrayLen,
		maxObjectKeys: DefaultMaxObjectKeys,
		maxBigIntLen:  DefaultMaxBigIntBytes,
		registry:      NewMemoryBufferRegistry(),
		objects:       make([]Value, 0, 16),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Deserialize deserializes the data and returns the root value.
func Deserialize(data []byte, opts ...Option) (Value, error) {
	d := NewDeserializer(data, opts...)
	return d.Deserialize()
}

// Deserialize reads the header and deserializes the root value.
func (d *Deserializer) Deserialize() (Value, error) {
	if d.maxSize > 0 && d.tr.r.Len() > d.maxSize {
		return Value{}, fmt.Errorf("%w: input size %d exceeds limit %d", ErrMaxSizeExceeded, d.tr.r.Len(), d.maxSize)
	}
	if err := d.tr.readHeader(); err != nil {
		return Value{}, err
	}
	return d.readValue()
}

// Version returns the serialization format version (valid after Deserialize).
func (d *Deserializer) Version() uint32 { return d.tr.version }

// readValue reads a single value from the stream.
func (d *Deserializer) readValue() (Value, error) {
	d.depth++
	if d.depth > d.maxDepth {
		return Value{}, ErrMaxDepthExceeded
	}
	defer func() { d.depth-- }()

	tag, offset, err := d.tr.nextTag()
	if err != nil {
		if _, ok := err.(*UnhandledTagError); ok {
			return Value{}, err
		}
		return Value{}, fmt.Errorf("%w: %v", ErrMalformedData, err)
	}

	switch tag {
	case tagNull:
		return Null(), nil
	case tagUndefined:
		return Undefined(), nil
	case tagTrue:
		return Bool(true), nil
	case tagFalse:
		return Bool(false), nil
	case tagHole:
		return Hole(), nil
	case tagInt32:
		return d.readInt32()
	case tagUint32:
		return d.readUint32()
	case tagDouble:
		return d.readDouble()
	case tagBigInt:
		return d.readBigInt()
	case tagOneByteString:
		return d.readOneByteString()
	case tagTwoByteString:
		return d.readTwoByteString()
	case tagUtf8String:
		return d.readUtf8String()
	case tagDate:
		return d.readDate()
	case tagBeginJSObject:
		return d.readObject()
	case tagBeginDenseArray:
		return d.readDenseArray()
	case tagBeginSparseArray:
		return d.readSparseArray()
	case tagObjectReference:
		return d.readViewAfter(d.readObjectReference())
	case tagBeginMap:
		return d.readMap()
	case tagBeginSet:
		return d.readSet()
	case tagArrayBuffer:
		return d.readViewAfter(d.readArrayBuffer(false))
	case tagResizableArrayBuffer:
		return d.readViewAfter(d.readArrayBuffer(true))
	case tagSharedArrayBuffer:
		return d.readViewAfter(d.readSharedArrayBuffer())
	case tagArrayBufferTransfer:
		return d.readViewAfter(d.readArrayBufferTransfer())
	case tagArrayBufferView:
		return Value{}, fmt.Errorf("%w: ArrayBufferView tag with no preceding buffer", ErrMalformedData)
	case tagRegExp:
		return d.readRegExp()
	case tagNumberObject:
		return d.readNumberObject()
	case tagTrueObject:
		return d.readTrueObject()
	case tagFalseObject:
		return d.readFalseObject()
	case tagStringObject:
		return d.readStringObject()
	case tagBigIntObject:
		return d.readBigIntObject()
	case tagError:
		return d.readError()
	case tagHostObject:
		return d.readHostObject()
	default:
		return Value{}, &UnhandledTagError{Offset: offset, Tag: tag, Version: d.tr.version}
	}
}

// register appends a reference-eligible value to the decode reference table
// and returns its index for later in-place update once fully populated.
func (d *Deserializer) register(v Value) int {
	d.objects = append(d.objects, v)
	return len(d.objects) - 1
}

func (d *Deserializer) readInt32() (Value, error) {
	n, err := d.tr.r.ReadZigZag32()
	if err != nil {
		return Value{}, err
	}
	return Int32(n), nil
}

func (d *Deserializer) readUint32() (Value, error) {
	n, err := d.tr.r.ReadVarint32()
	if err != nil {
		return Value{}, err
	}
	return Uint32(n), nil
}

func (d *Deserializer) readDouble() (Value, error) {
	f, err := d.tr.r.ReadDouble()
	if err != nil {
		return Value{}, err
	}
	return Double(f), nil
}

// readBigInt reads a BigInt: bitfield (varint, bit 0 = sign, remaining bits
// = byte length) followed by little-endian magnitude bytes.
func (d *Deserializer) readBigInt() (Value, error) {
	bitfield, err := d.tr.r.ReadVarint()
	if err != nil {
		return Value{}, err
	}
	negative := bitfield&1 == 1
	byteLength := int(bitfield >> 1)
	if byteLength > d.maxBigIntLen {
		return Value{}, &BigIntTooLargeError{ByteLength: byteLength, Max: d.maxBigIntLen}
	}
	if byteLength == 0 {
		v := BigInt(big.NewInt(0))
		d.register(v)
		return v, nil
	}
	bytes, err := d.tr.r.ReadBytes(byteLength)
	if err != nil {
		return Value{}, err
	}
	reversed := make([]byte, len(bytes))
	for i, b := range bytes {
		reversed[len(bytes)-1-i] = b
	}
	result := new(big.Int).SetBytes(reversed)
	if negative {
		result.Neg(result)
	}
	v := BigInt(result)
	d.register(v)
	return v, nil
}

func (d *Deserializer) readOneByteString() (Value, error) {
	length, err := d.tr.r.ReadVarint32()
	if err != nil {
		return Value{}, err
	}
	s, err := d.tr.r.ReadOneByteString(int(length))
	if err != nil {
		return Value{}, err
	}
	v := StringWithForm(s, FormOneByte)
	d.register(v)
	return v, nil
}

func (d *Deserializer) readTwoByteString() (Value, error) {
	byteLength, err := d.tr.r.ReadVarint32()
	if err != nil {
		return Value{}, err
	}
	s, err := d.tr.r.ReadTwoByteString(int(byteLength) / 2)
	if err != nil {
		return Value{}, err
	}
	v := StringWithForm(s, FormTwoByte)
	d.register(v)
	return v, nil
}

func (d *Deserializer) readUtf8String() (Value, error) {
	byteLength, err := d.tr.r.ReadVarint32()
	if err != nil {
		return Value{}, err
	}
	s, err := d.tr.r.ReadUTF8String(int(byteLength))
	if err != nil {
		return Value{}, err
	}
	v := StringWithForm(s, FormUtf8)
	d.register(v)
	return v, nil
}

func (d *Deserializer) readDate() (Value, error) {
	ms, err := d.tr.r.ReadDouble()
	if err != nil {
		return Value{}, err
	}
	sec := int64(ms / 1000)
	nsec := int64((ms - float64(sec)*1000) * 1e6)
	v := Date(time.Unix(sec, nsec).UTC())
	d.register(v)
	return v, nil
}

// objectKeyString converts a decoded key value (string or number, per the
// wire format's allowance for integer property keys) to a Go string.
func objectKeyString(key Value) (string, error) {
	switch key.Type() {
	case TypeString:
		return key.AsString(), nil
	case TypeInt32:
		return fmt.Sprintf("%d", key.AsInt32()), nil
	case TypeUint32:
		return fmt.Sprintf("%d", key.AsUint32()), nil
	case TypeDouble:
		return fmt.Sprintf("%g", key.AsDouble()), nil
	default:
		return "", fmt.Errorf("%w: object key must be string or number, got %s", ErrMalformedData, key.Type())
	}
}

func (d *Deserializer) readObject() (Value, error) {
	obj := NewOrderedObject()
	v := ObjectValue(obj)
	idx := d.register(v)

	for {
		tag, offset, err := d.tr.peekTagOrRead()
		if err != nil {
			return Value{}, err
		}
		if tag == tagEndJSObject {
			d.tr.r.ReadByte()
			count, err := d.tr.r.ReadVarint32()
			if err != nil {
				return Value{}, err
			}
			if int(count) != obj.Len() {
				return Value{}, &CountMismatchError{Offset: offset, Tag: tagEndJSObject, Expected: int(count), Actual: obj.Len()}
			}
			break
		}

		if obj.Len() >= d.maxObjectKeys {
			return Value{}, fmt.Errorf("%w: object key count exceeds limit %d", ErrMaxSizeExceeded, d.maxObjectKeys)
		}

		key, err := d.readValue()
		if err != nil {
			return Value{}, err
		}
		keyStr, err := objectKeyString(key)
		if err != nil {
			return Value{}, err
		}
		val, err := d.readValue()
		if err != nil {
			return Value{}, err
		}
		obj.Set(keyStr, val)
	}

	d.objects[idx] = v
	return v, nil
}

func (d *Deserializer) readDenseArray() (Value, error) {
	length, err := d.tr.r.ReadVarint32()
	if err != nil {
		return Value{}, err
	}
	if d.maxArrayLen > 0 && int(length) > d.maxArrayLen {
		return Value{}, fmt.Errorf("%w: array length %d exceeds limit %d", ErrMalformedData, length, d.maxArrayLen)
	}

	arr := NewJSArray(0)
	v := ArrayValue(arr)
	idx := d.register(v)

	elements := make([]Value, 0, length)
	for i := uint32(0); i < length; i++ {
		elem, err := d.readValue()
		if err != nil {
			return Value{}, err
		}
		elements = append(elements, elem)
	}
	arr.Elements = elements

	for {
		tag, offset, err := d.tr.peekTagOrRead()
		if err != nil {
			return Value{}, err
		}
		if tag == tagEndDenseArray {
			d.tr.r.ReadByte()
			propCount, err := d.tr.r.ReadVarint32()
			if err != nil {
				return Value{}, err
			}
			finalLength, err := d.tr.r.ReadVarint32()
			if err != nil {
				return Value{}, err
			}
			if int(propCount) != len(arr.Properties) {
				return Value{}, &CountMismatchError{Offset: offset, Tag: tagEndDenseArray, Expected: int(propCount), Actual: len(arr.Properties)}
			}
			if int(finalLength) != len(arr.Elements) {
				return Value{}, &CountMismatchError{Offset: offset, Tag: tagEndDenseArray, Expected: int(finalLength), Actual: len(arr.Elements)}
			}
			break
		}
		key, err := d.readValue()
		if err != nil {
			return Value{}, err
		}
		val, err := d.readValue()
		if err != nil {
			return Value{}, err
		}
		keyStr, err := objectKeyString(key)
		if err != nil {
			return Value{}, err
		}
		arr.Properties = append(arr.Properties, ObjectEntry{Key: keyStr, Value: val})
	}

	d.objects[idx] = v
	return v, nil
}

func (d *Deserializer) readSparseArray() (Value, error) {
	length, err := d.tr.r.ReadVarint32()
	if err != nil {
		return Value{}, err
	}
	if d.maxArrayLen > 0 && int(length) > d.maxArrayLen {
		return Value{}, fmt.Errorf("%w: array length %d exceeds limit %d", ErrMalformedData, length, d.maxArrayLen)
	}

	arr := NewJSArray(int(length))
	v := ArrayValue(arr)
	idx := d.register(v)

	// The trailer counts every key/value pair read: elements and named
	// properties alike.
	pairs := 0
	for {
		tag, offset, err := d.tr.peekTagOrRead()
		if err != nil {
			return Value{}, err
		}
		if tag == tagEndSparseArray {
			d.tr.r.ReadByte()
			propCount, err := d.tr.r.ReadVarint32()
			if err != nil {
				return Value{}, err
			}
			finalLength, err := d.tr.r.ReadVarint32()
			if err != nil {
				return Value{}, err
			}
			if int(propCount) != pairs {
				return Value{}, &CountMismatchError{Offset: offset, Tag: tagEndSparseArray, Expected: int(propCount), Actual: pairs}
			}
			if int(finalLength) != len(arr.Elements) {
				return Value{}, &CountMismatchError{Offset: offset, Tag: tagEndSparseArray, Expected: int(finalLength), Actual: len(arr.Elements)}
			}
			break
		}

		key, err := d.readValue()
		if err != nil {
			return Value{}, err
		}
		val, err := d.readValue()
		if err != nil {
			return Value{}, err
		}
		pairs++

		if key.IsNumber() {
			f := key.AsNumber()
			idx := int(f)
			if float64(idx) == f && idx >= 0 && idx < len(arr.Elements) {
				arr.Elements[idx] = val
				continue
			}
		}
		keyStr, err := objectKeyString(key)
		if err != nil {
			return Value{}, err
		}
		arr.Properties = append(arr.Properties, ObjectEntry{Key: keyStr, Value: val})
	}

	d.objects[idx] = v
	return v, nil
}

func (d *Deserializer) readObjectReference() (Value, error) {
	id, err := d.tr.r.ReadVarint32()
	if err != nil {
		return Value{}, err
	}
	if int(id) >= len(d.objects) {
		return Value{}, fmt.Errorf("%w: reference %d (only %d objects seen)", ErrInvalidReference, id, len(d.objects))
	}
	return d.objects[id], nil
}

func (d *Deserializer) readMap() (Value, error) {
	jsMap := &JSMap{}
	v := MapValue(jsMap)
	idx := d.register(v)

	for {
		tag, offset, err := d.tr.peekTagOrRead()
		if err != nil {
			return Value{}, err
		}
		if tag == tagEndMap {
			d.tr.r.ReadByte()
			count, err := d.tr.r.ReadVarint32()
			if err != nil {
				return Value{}, err
			}
			if int(count) != len(jsMap.Entries)*2 {
				return Value{}, &CountMismatchError{Offset: offset, Tag: tagEndMap, Expected: int(count), Actual: len(jsMap.Entries) * 2}
			}
			break
		}
		key, err := d.readValue()
		if err != nil {
			return Value{}, err
		}
		val, err := d.readValue()
		if err != nil {
			return Value{}, err
		}
		jsMap.Set(key, val)
	}

	d.objects[idx] = v
	return v, nil
}

func (d *Deserializer) readSet() (Value, error) {
	jsSet := &JSSet{}
	v := SetValue(jsSet)
	idx := d.register(v)

	for {
		tag, offset, err := d.tr.peekTagOrRead()
		if err != nil {
			return Value{}, err
		}
		if tag == tagEndSet {
			d.tr.r.ReadByte()
			count, err := d.tr.r.ReadVarint32()
			if err != nil {
				return Value{}, err
			}
			if int(count) != len(jsSet.Values) {
				return Value{}, &CountMismatchError{Offset: offset, Tag: tagEndSet, Expected: int(count), Actual: len(jsSet.Values)}
			}
			break
		}
		val, err := d.readValue()
		if err != nil {
			return Value{}, err
		}
		jsSet.Add(val)
	}

	d.objects[idx] = v
	return v, nil
}

func (d *Deserializer) readArrayBuffer(resizable bool) (Value, error) {
	byteLength, err := d.tr.r.ReadVarint32()
	if err != nil {
		return Value{}, err
	}
	var maxByteLength uint32
	if resizable {
		if err := d.tr.featureGate(FeatureResizableArrayBuffers); err != nil {
			return Value{}, err
		}
		maxByteLength, err = d.tr.r.ReadVarint32()
		if err != nil {
			return Value{}, err
		}
	}
	data, err := d.tr.r.ReadBytes(int(byteLength))
	if err != nil {
		return Value{}, err
	}
	buf := make([]byte, len(data))
	copy(buf, data)

	ab := &JSArrayBuffer{Bytes: buf, Resizable: resizable, MaxByteLength: int(maxByteLength)}
	v := ArrayBufferVal(ab)
	d.register(v)
	return v, nil
}

func (d *Deserializer) readSharedArrayBuffer() (Value, error) {
	id, err := d.tr.r.ReadVarint32()
	if err != nil {
		return Value{}, err
	}
	v := SharedArrayBufferVal(id)
	d.register(v)
	return v, nil
}

func (d *Deserializer) readArrayBufferTransfer() (Value, error) {
	id, err := d.tr.r.ReadVarint32()
	if err != nil {
		return Value{}, err
	}
	v := ArrayBufferTransferVal(id)
	d.register(v)
	return v, nil
}

// bufferBytesFor resolves the raw bytes backing buf, looking up the shared
// registry for SharedArrayBuffer/ArrayBufferTransfer values.
func (d *Deserializer) bufferBytesFor(buf Value) ([]byte, error) {
	switch buf.Type() {
	case TypeArrayBuffer:
		return buf.AsArrayBuffer().Bytes, nil
	case TypeSharedArrayBuffer:
		id := buf.data.(*JSSharedArrayBuffer).TransferID
		b, ok := d.registry.Lookup(id)
		if !ok {
			return nil, fmt.Errorf("%w: no registered buffer for shared transfer id %d", ErrMalformedData, id)
		}
		return b, nil
	case TypeArrayBufferTransfer:
		id := buf.data.(*JSArrayBufferTransfer).TransferID
		b, ok := d.registry.Lookup(id)
		if !ok {
			return nil, fmt.Errorf("%w: no registered buffer for transfer id %d", ErrMalformedData, id)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("%w: array buffer view backed by non-buffer value %s", ErrMalformedData, buf.Type())
	}
}

// readViewAfter returns a just-decoded buffer unchanged unless the next tag
// is tagArrayBufferView: the wire form writes a view's backing buffer first
// and the view tag right after it, so the view is then read over that buffer.
func (d *Deserializer) readViewAfter(bufferVal Value, err error) (Value, error) {
	if err != nil {
		return Value{}, err
	}
	if tag, perr := d.tr.r.Peek(); perr != nil || tag != tagArrayBufferView {
		return bufferVal, nil
	}
	d.tr.r.ReadByte()
	return d.readArrayBufferView(bufferVal)
}

// readArrayBufferView reads the view sub-tag, offset, length, and flags that
// follow the 'V' tag, over the backing buffer decoded just before it.
func (d *Deserializer) readArrayBufferView(bufferVal Value) (Value, error) {
	subTag, err := d.tr.r.ReadByte()
	if err != nil {
		return Value{}, err
	}
	byteOffset, err := d.tr.r.ReadVarint32()
	if err != nil {
		return Value{}, err
	}
	byteLength, err := d.tr.r.ReadVarint32()
	if err != nil {
		return Value{}, err
	}
	flags, err := d.tr.r.ReadVarint32()
	if err != nil {
		return Value{}, err
	}

	viewTag := ArrayBufferViewTag(subTag)
	if viewTag == ViewFloat16 {
		if err := d.tr.featureGate(FeatureFloat16Array); err != nil {
			return Value{}, err
		}
	}

	view := &ArrayBufferView{
		Buffer:            bufferVal,
		ViewTag:           viewTag,
		ByteOffset:        int(byteOffset),
		ByteLength:        int(byteLength),
		LengthTracking:    flags&uint32(viewFlagLengthTracking) != 0,
		BackedByResizable: flags&uint32(viewFlagResizableBound) != 0,
	}

	bufBytes, err := d.bufferBytesFor(bufferVal)
	if err != nil {
		return Value{}, err
	}
	if err := view.Validate(len(bufBytes)); err != nil {
		return Value{}, err
	}

	v := ArrayBufferViewVal(view)
	d.register(v)
	return v, nil
}

func (d *Deserializer) readRegExp() (Value, error) {
	idx := d.register(Value{})
	pattern, err := d.readValue()
	if err != nil {
		return Value{}, err
	}
	if !pattern.IsString() {
		return Value{}, fmt.Errorf("%w: regexp pattern must be string", ErrMalformedData)
	}
	flagBits, err := d.tr.r.ReadVarint32()
	if err != nil {
		return Value{}, err
	}

	var flags string
	if flagBits&1 != 0 {
		flags += "g"
	}
	if flagBits&2 != 0 {
		flags += "i"
	}
	if flagBits&4 != 0 {
		flags += "m"
	}
	if flagBits&8 != 0 {
		flags += "y"
	}
	if flagBits&16 != 0 {
		flags += "u"
	}
	if flagBits&32 != 0 {
		flags += "s"
	}
	if flagBits&256 != 0 {
		if err := d.tr.featureGate(FeatureRegExpUnicodeSets); err != nil {
			return Value{}, err
		}
		flags += "v"
	}

	v := RegExpValue(RegExp{Pattern: pattern.AsString(), Flags: flags})
	d.objects[idx] = v
	return v, nil
}

func (d *Deserializer) readNumberObject() (Value, error) {
	f, err := d.tr.r.ReadDouble()
	if err != nil {
		return Value{}, err
	}
	v := BoxedPrimitiveVal(BoxedPrimitive{PrimitiveType: TypeDouble, Value: Double(f)})
	d.register(v)
	return v, nil
}

func (d *Deserializer) readTrueObject() (Value, error) {
	v := BoxedPrimitiveVal(BoxedPrimitive{PrimitiveType: TypeBool, Value: Bool(true)})
	d.register(v)
	return v, nil
}

func (d *Deserializer) readFalseObject() (Value, error) {
	v := BoxedPrimitiveVal(BoxedPrimitive{PrimitiveType: TypeBool, Value: Bool(false)})
	d.register(v)
	return v, nil
}

func (d *Deserializer) readStringObject() (Value, error) {
	idx := d.register(Value{})
	inner, err := d.readValue()
	if err != nil {
		return Value{}, err
	}
	if inner.Type() != TypeString {
		return Value{}, fmt.Errorf("%w: boxed String contains %s, not String", ErrMalformedData, inner.Type())
	}
	v := BoxedPrimitiveVal(BoxedPrimitive{PrimitiveType: TypeString, Value: inner})
	d.objects[idx] = v
	return v, nil
}

func (d *Deserializer) readBigIntObject() (Value, error) {
	idx := d.register(Value{})
	inner, err := d.readValue()
	if err != nil {
		return Value{}, err
	}
	if inner.Type() != TypeBigInt {
		return Value{}, fmt.Errorf("%w: boxed BigInt contains %s, not BigInt", ErrMalformedData, inner.Type())
	}
	v := BoxedPrimitiveVal(BoxedPrimitive{PrimitiveType: TypeBigInt, Value: inner})
	d.objects[idx] = v
	return v, nil
}

// readError reads a JavaScript Error: 'r' + optional name sub-tag + body
// sub-tags terminated by errorTagEnd. Cause may reference the error under
// construction; that cycle is only legal with FeatureCircularErrorCause.
func (d *Deserializer) readError() (Value, error) {
	errType, err := d.tr.r.ReadByte()
	if err != nil {
		return Value{}, err
	}

	jsErr := &JSError{}
	v := ErrorValue(jsErr)
	idx := d.register(v)

	if errType == errorTypeErrorWithMessage {
		jsErr.Name = "Error"
		val, err := d.readValue()
		if err != nil {
			return Value{}, err
		}
		if val.IsString() {
			jsErr.Message = val.AsString()
		}
	} else {
		switch errType {
		case errorTypeEvalError:
			jsErr.Name = "EvalError"
		case errorTypeRangeError:
			jsErr.Name = "RangeError"
		case errorTypeReferenceError:
			jsErr.Name = "ReferenceError"
		case errorTypeSyntaxError:
			jsErr.Name = "SyntaxError"
		case errorTypeTypeError:
			jsErr.Name = "TypeError"
		case errorTypeURIError:
			jsErr.Name = "URIError"
		default:
			// No name sub-tag: this byte is the first body sub-tag.
			jsErr.Name = "Error"
			d.tr.r.Rewind(d.tr.r.Pos() - 1)
		}
	}

	for {
		subTag, err := d.tr.r.ReadByte()
		if err != nil {
			return Value{}, err
		}
		if subTag == errorTagEnd {
			break
		}

		if subTag == errorTagCause {
			mark := d.tr.r.Mark()
			if peeked, perr := d.tr.r.Peek(); perr == nil && peeked == tagObjectReference {
				d.tr.r.ReadByte()
				refID, rerr := d.tr.r.ReadVarint32()
				if rerr != nil {
					return Value{}, rerr
				}
				if int(refID) == idx {
					if err := d.tr.featureGate(FeatureCircularErrorCause); err != nil {
						return Value{}, err
					}
					jsErr.Cause = &v
					continue
				}
				d.tr.r.Rewind(mark)
			}
			val, err := d.readValue()
			if err != nil {
				return Value{}, err
			}
			jsErr.Cause = &val
			continue
		}

		val, err := d.readValue()
		if err != nil {
			return Value{}, err
		}
		switch subTag {
		case errorTagMessage:
			if val.IsString() {
				jsErr.Message = val.AsString()
			}
		case errorTagStack:
			if val.IsString() {
				jsErr.Stack = val.AsString()
			}
		}
	}

	d.objects[idx] = v
	return v, nil
}

// readHostObject reads a length-prefixed opaque payload and hands it to the
// configured HostObjectHandler. Without a handler, HostObject data cannot be
// interpreted and decoding fails.
func (d *Deserializer) readHostObject() (Value, error) {
	length, err := d.tr.r.ReadVarint32()
	if err != nil {
		return Value{}, err
	}
	payload, err := d.tr.r.ReadBytes(int(length))
	if err != nil {
		return Value{}, err
	}
	buf := make([]byte, len(payload))
	copy(buf, payload)

	if d.hostHandler == nil {
		return Value{}, fmt.Errorf("%w: HostObject tag with no handler configured", ErrUnhandledValue)
	}
	v, err := d.hostHandler.DecodeHostObject(buf)
	if err != nil {
		return Value{}, err
	}
	d.register(v)
	return v, nil
}
