package v8serialize

import (
	"encoding/binary"

	"github.com/x448/float16"
)

// float16Elements reinterprets a Float16Array view's backing bytes as Go
// float32 values, widening each IEEE 754 binary16 lane via x448/float16 (the
// Go standard library has no float16 type).
func float16Elements(buf []byte) []float32 {
	n := len(buf) / 2
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		bits := binary.LittleEndian.Uint16(buf[i*2:])
		out[i] = float16.Frombits(bits).Float32()
	}
	return out
}

// putFloat16Elements encodes Go float32 values as Float16Array backing bytes,
// narrowing each lane via x448/float16.
func putFloat16Elements(values []float32) []byte {
	buf := make([]byte, len(values)*2)
	for i, v := range values {
		bits := float16.Fromfloat32(v).Bits()
		binary.LittleEndian.PutUint16(buf[i*2:], bits)
	}
	return buf
}
