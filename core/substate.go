package core

import (
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
)

// PhysicalSubstateId is the (transaction hash, sequence) pair stamped onto
// every substate write, per spec §3 "Substate".
type PhysicalSubstateId struct {
	TxHash   [32]byte
	Sequence uint64
}

// Substate is one stored value together with the physical id of the write
// that produced it.
type Substate struct {
	Value      []byte
	PhysicalId PhysicalSubstateId
}

// SubstateKey addresses a top-level substate, optionally scoped to a child
// sub-key (spec §4.1 read_child/write_child — e.g. a vault or lazy-map entry
// nested under its owning component).
type SubstateKey struct {
	Key    string
	SubKey string
}

func childKey(key []byte, subkey []byte) SubstateKey {
	return SubstateKey{Key: string(key), SubKey: hex.EncodeToString(subkey)}
}

func topKey(key []byte) SubstateKey {
	return SubstateKey{Key: string(key)}
}

// SubstateStore is the content-addressed key/value journal described in
// spec §4.1. The concrete on-disk persistence backing a production store is
// an external collaborator (spec §1); this package only depends on the
// interface plus the in-memory implementation below, which is sufficient
// for the Track's buffering and for tests.
type SubstateStore interface {
	Read(key []byte) (Substate, bool, error)
	ReadChild(key, subkey []byte) (Substate, bool, error)
	Write(key, value []byte) (PhysicalSubstateId, error)
	WriteChild(key, subkey, value []byte) (PhysicalSubstateId, error)
	GetEpoch() (uint64, error)
	GetNonce() (uint64, error)
	BumpNonce() (uint64, error)
}

// InMemorySubstateStore is a simple, mutex-guarded map-backed SubstateStore.
// It stamps each write with a strictly increasing sequence number under a
// single shared transaction hash, matching spec §5's ordering guarantee
// ("each producing a physical id with a strictly increasing counter under a
// shared transaction hash").
type InMemorySubstateStore struct {
	mu       sync.RWMutex
	data     map[SubstateKey]Substate
	seq      uint64
	epoch    uint64
	nonce    uint64
	storeTx  [32]byte
}

// NewInMemorySubstateStore constructs an empty store. storeTxHash seeds the
// physical-id namespace; callers typically use the genesis/bootstrap
// transaction's hash.
func NewInMemorySubstateStore(storeTxHash [32]byte) *InMemorySubstateStore {
	return &InMemorySubstateStore{
		data:    make(map[SubstateKey]Substate),
		storeTx: storeTxHash,
	}
}

func (s *InMemorySubstateStore) Read(key []byte) (Substate, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[topKey(key)]
	return v, ok, nil
}

func (s *InMemorySubstateStore) ReadChild(key, subkey []byte) (Substate, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[childKey(key, subkey)]
	return v, ok, nil
}

func (s *InMemorySubstateStore) Write(key, value []byte) (PhysicalSubstateId, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(topKey(key), value)
}

func (s *InMemorySubstateStore) WriteChild(key, subkey, value []byte) (PhysicalSubstateId, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(childKey(key, subkey), value)
}

func (s *InMemorySubstateStore) writeLocked(k SubstateKey, value []byte) (PhysicalSubstateId, error) {
	s.seq++
	pid := PhysicalSubstateId{TxHash: s.storeTx, Sequence: s.seq}
	cpy := make([]byte, len(value))
	copy(cpy, value)
	s.data[k] = Substate{Value: cpy, PhysicalId: pid}
	return pid, nil
}

func (s *InMemorySubstateStore) GetEpoch() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch, nil
}

func (s *InMemorySubstateStore) SetEpoch(e uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch = e
}

func (s *InMemorySubstateStore) GetNonce() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nonce, nil
}

func (s *InMemorySubstateStore) BumpNonce() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nonce++
	return s.nonce, nil
}

// snapshot returns a shallow, deterministically-ordered copy of every key
// and its current substate, used by tests asserting atomicity (spec §8
// "a transaction that ends in error leaves the store byte-identical to its
// pre-transaction snapshot").
func (s *InMemorySubstateStore) snapshot() map[SubstateKey][]byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[SubstateKey][]byte, len(s.data))
	for k, v := range s.data {
		cpy := make([]byte, len(v.Value))
		copy(cpy, v.Value)
		out[k] = cpy
	}
	return out
}

func sortedKeys(m map[SubstateKey][]byte) []SubstateKey {
	keys := make([]SubstateKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Key != keys[j].Key {
			return keys[i].Key < keys[j].Key
		}
		return keys[i].SubKey < keys[j].SubKey
	})
	return keys
}

// substateKeyString renders a SubstateKey for diagnostics/logging.
func substateKeyString(k SubstateKey) string {
	if k.SubKey == "" {
		return k.Key
	}
	return fmt.Sprintf("%s/%s", k.Key, k.SubKey)
}
