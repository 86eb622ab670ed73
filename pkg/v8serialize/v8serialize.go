// Package v8serialize provides serialization and deserialization of V8's
// structured clone ("value serialization") wire format.
//
// This format is used by Node.js v8.serialize() and v8.deserialize(), Deno
// KV, and various web APIs like postMessage, IndexedDB, and the Clipboard
// API.
//
// # Basic Usage
//
// Deserialize V8 data:
//
//	data := []byte{0xff, 0x0f, 0x49, 0x54} // V8-serialized int32(42)
//	val, err := v8serialize.Deserialize(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(val.AsInt32()) // 42
//
// Serialize values:
//
//	data, err := v8serialize.Serialize(v8serialize.String("Hello from Go!"))
//
// # Supported Types
//
// The library supports all common JavaScript types including:
//   - Primitives: null, undefined, boolean, numbers (int32, double), BigInt, strings
//   - Objects: plain objects (insertion-ordered), arrays (dense and sparse with holes)
//   - Collections: Map, Set (preserving insertion order)
//   - Binary: ArrayBuffer (plain, resizable, shared, transferred), ArrayBufferView
//     (every TypedArray kind plus DataView)
//   - Special: Date, RegExp (including the 'v' UnicodeSets flag), Error (including
//     ES2022 cause), boxed primitives (new Number(), etc.), host objects via
//     HostObjectHandler
//   - Circular references: self-referencing and mutual references, both directions
//
// # Compatibility
//
// Supported V8 serialization format versions: 13-15 (Node.js 18-22). Most
// capability changes within that range (RegExp UnicodeSets, resizable
// ArrayBuffers, circular Error cause, Float16Array) are gated by V8's own
// engine version, not by the wire format number — the format's version byte
// stayed at 15 while V8 added them — so SerializationFeature gates all of
// those at format version 15, the only version this codec speaks that
// postdates every one of them. The one exception is HostObject support,
// which the wire format itself gates at version 13 via MinVersion/tag
// legality rather than a SerializationFeature.
package v8serialize

import (
	"fmt"
)

// ToGo converts a Value to its closest Go equivalent:
//   - null, undefined, hole → nil
//   - boolean → bool
//   - int32 → int32
//   - uint32 → uint32
//   - double → float64
//   - BigInt → *big.Int
//   - string → string
//   - Date → time.Time
//   - Array → []interface{} (holes become nil)
//   - Object → map[string]interface{} (insertion order is lost; use AsObject
//     directly to preserve it)
//   - Map → map[interface{}]interface{} (non-comparable keys are skipped; use
//     AsMap directly to handle every key type safely)
//   - Set → []interface{}
//   - ArrayBuffer → *JSArrayBuffer; SharedArrayBuffer → *JSSharedArrayBuffer;
//     ArrayBufferTransfer → *JSArrayBufferTransfer (the latter two carry the
//     transfer id)
//   - ArrayBufferView → *ArrayBufferView
//   - RegExp → RegExp
//   - BoxedPrimitive → BoxedPrimitive
//   - HostObject → *HostObject
//
// A value graph containing a cycle converts to a Go graph with the same
// cycle (maps and slices aliasing themselves), rather than recursing forever.
func ToGo(v Value) interface{} {
	return toGo(v, make(map[interface{}]interface{}))
}

func toGo(v Value, seen map[interface{}]interface{}) interface{} {
	if key := v.identityKey(); key != nil {
		if existing, ok := seen[key]; ok {
			return existing
		}
	}

	switch v.Type() {
	case TypeUndefined, TypeNull, TypeHole:
		return nil
	case TypeBool:
		return v.AsBool()
	case TypeInt32:
		return v.AsInt32()
	case TypeUint32:
		return v.AsUint32()
	case TypeDouble:
		return v.AsDouble()
	case TypeBigInt:
		return v.AsBigInt()
	case TypeString:
		return v.AsString()
	case TypeDate:
		return v.AsDate()
	case TypeObject:
		obj := v.AsObject()
		result := make(map[string]interface{}, obj.Len())
		seen[v.identityKey()] = result
		for _, entry := range obj.Entries() {
			result[entry.Key] = toGo(entry.Value, seen)
		}
		return result
	case TypeArray:
		arr := v.AsArray()
		result := make([]interface{}, len(arr.Elements))
		seen[v.identityKey()] = result
		for i, val := range arr.Elements {
			if val.IsHole() {
				result[i] = nil
				continue
			}
			result[i] = toGo(val, seen)
		}
		return result
	case TypeMap:
		m := v.AsMap()
		result := make(map[interface{}]interface{}, len(m.Entries))
		seen[v.identityKey()] = result
		for _, entry := range m.Entries {
			k := toGo(entry.Key, seen)
			if !isComparable(k) {
				continue
			}
			result[k] = toGo(entry.Value, seen)
		}
		return result
	case TypeSet:
		s := v.AsSet()
		result := make([]interface{}, len(s.Values))
		seen[v.identityKey()] = result
		for i, val := range s.Values {
			result[i] = toGo(val, seen)
		}
		return result
	case TypeArrayBuffer:
		return v.AsArrayBuffer()
	case TypeSharedArrayBuffer, TypeArrayBufferTransfer:
		return v.Interface()
	case TypeArrayBufferView:
		return v.AsArrayBufferView()
	case TypeRegExp:
		return v.AsRegExp()
	case TypeBoxedPrimitive:
		return v.AsBoxedPrimitive()
	case TypeHostObject:
		return v.AsHostObject()
	default:
		return v.Interface()
	}
}

// isComparable reports whether x may be used as a Go map key, guarding
// toGo's Map conversion against panics from slice/map-valued keys (a
// JavaScript Map may legally use an Array or another Map as a key; such
// entries are skipped rather than converted, since they have no safe Go map
// key representation).
func isComparable(x interface{}) bool {
	switch x.(type) {
	case []interface{}, map[string]interface{}, map[interface{}]interface{}:
		return false
	default:
		return true
	}
}

// MustDeserialize deserializes V8 data and panics on error.
// Use this only when you're certain the data is valid.
func MustDeserialize(data []byte) Value {
	v, err := Deserialize(data)
	if err != nil {
		panic(fmt.Sprintf("v8serialize.MustDeserialize: %v", err))
	}
	return v
}

// IsValidV8Data checks if the data starts with a valid V8 serialization header.
// This is a quick check and doesn't validate the entire payload.
func IsValidV8Data(data []byte) bool {
	if len(data) < 2 {
		return false
	}
	if data[0] != tagVersion {
		return false
	}
	// Check version is in supported range
	version := uint32(data[1])
	if data[1]&0x80 != 0 {
		// Multi-byte varint, just check it starts reasonably
		return true
	}
	return version >= MinVersion && version <= MaxVersion
}
