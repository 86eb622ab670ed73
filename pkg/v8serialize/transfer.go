package v8serialize

import (
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// SharedBufferRegistry resolves the opaque transfer ids carried by
// SharedArrayBuffer and ArrayBufferTransfer values to actual bytes. It is
// caller-owned and must outlive any Serializer/Deserializer call that
// references it, matching the codec's single-call resource model: the
// registry is not part of the wire stream, only the id is.
type SharedBufferRegistry interface {
	// Lookup returns the bytes registered under transferID.
	Lookup(transferID uint32) ([]byte, bool)
	// Register assigns a fresh transfer id to buf and returns it.
	Register(buf []byte) uint32
}

// bufferRecord is what the in-memory registry keeps per transfer id.
type bufferRecord struct {
	bytes  []byte
	handle string // diagnostic uuid, see Describe
	digest uint64 // xxhash of bytes, used for re-registration dedup detection
}

// MemoryBufferRegistry is the default SharedBufferRegistry: an in-process
// map from transfer id to bytes, with diagnostics to help an operator
// correlate transfer ids across processes and notice accidental
// re-registration of identical content under a new id.
type MemoryBufferRegistry struct {
	mu      sync.Mutex
	records map[uint32]bufferRecord
	nextID  uint32
	byHash  map[uint64][]uint32
}

// NewMemoryBufferRegistry returns an empty MemoryBufferRegistry.
func NewMemoryBufferRegistry() *MemoryBufferRegistry {
	return &MemoryBufferRegistry{
		records: make(map[uint32]bufferRecord),
		byHash:  make(map[uint64][]uint32),
	}
}

// Lookup implements SharedBufferRegistry.
func (m *MemoryBufferRegistry) Lookup(transferID uint32) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[transferID]
	if !ok {
		return nil, false
	}
	return rec.bytes, true
}

// Register implements SharedBufferRegistry, stamping the buffer with a
// diagnostic uuid handle and a content digest used to flag duplicate
// registrations of the same bytes under distinct transfer ids.
func (m *MemoryBufferRegistry) Register(buf []byte) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := m.nextID
	digest := xxhash.Sum64(buf)
	m.records[id] = bufferRecord{bytes: buf, handle: uuid.NewString(), digest: digest}
	m.byHash[digest] = append(m.byHash[digest], id)
	return id
}

// Describe returns a diagnostic summary of a registered transfer id: its
// uuid handle, byte length, and any other ids already holding the same
// content (a likely accidental duplicate registration).
func (m *MemoryBufferRegistry) Describe(transferID uint32) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[transferID]
	if !ok {
		return "", fmt.Errorf("v8serialize: no buffer registered under transfer id %d", transferID)
	}
	desc := fmt.Sprintf("transfer=%d handle=%s bytes=%d", transferID, rec.handle, len(rec.bytes))
	if dupes := m.byHash[rec.digest]; len(dupes) > 1 {
		desc += fmt.Sprintf(" duplicate-content-of=%v", otherIDs(dupes, transferID))
	}
	return desc, nil
}

func otherIDs(ids []uint32, exclude uint32) []uint32 {
	out := make([]uint32, 0, len(ids)-1)
	for _, id := range ids {
		if id != exclude {
			out = append(out, id)
		}
	}
	return out
}
