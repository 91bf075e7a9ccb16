// Package core implements the deterministic resource-oriented execution
// engine: the substate store, resource containers, buckets/vaults/proofs,
// the object ownership tracker, the call-frame process state machine, and
// the guest host-call API.
package core

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"
)

// PackageAddress identifies an immutable, published package of validated
// bytecode plus its blueprint ABIs.
type PackageAddress [26]byte

// ComponentAddress identifies a globally addressable component instance.
type ComponentAddress [26]byte

// ResourceAddress identifies a globally addressable resource manager.
type ResourceAddress [26]byte

// BucketId identifies a transient, frame-owned resource holder. Unique
// within a transaction.
type BucketId uint32

// ProofId identifies a transient capability attestation. Unique within a
// transaction.
type ProofId uint32

// VaultId identifies a persistent, component-owned resource holder. Scoped
// under the owning component.
type VaultId [36]byte

// LazyMapId identifies a persistent, component-owned keyed map. Scoped
// under the owning component.
type LazyMapId [36]byte

// NonFungibleId identifies one non-fungible unit within a resource address's
// id space.
type NonFungibleId []byte

func (id NonFungibleId) String() string { return hex.EncodeToString(id) }

func (a PackageAddress) String() string   { return "package_" + hex.EncodeToString(a[:]) }
func (a ComponentAddress) String() string { return "component_" + hex.EncodeToString(a[:]) }
func (a ResourceAddress) String() string  { return "resource_" + hex.EncodeToString(a[:]) }
func (v VaultId) String() string          { return "vault_" + hex.EncodeToString(v[:]) }
func (m LazyMapId) String() string        { return "lazymap_" + hex.EncodeToString(m[:]) }

// deriveAddress derives a 26-byte global address from the transaction hash
// and a monotonically increasing sequence number, following the teacher's
// DeriveContractAddress pattern (hash(creator-ish-material) truncated), but
// keyed off (tx hash, sequence) per spec §3 "Identifiers".
func deriveAddress(txHash [32]byte, seq uint32, kind byte) [26]byte {
	buf := make([]byte, 0, 32+4+1)
	buf = append(buf, txHash[:]...)
	var seqBytes [4]byte
	binary.BigEndian.PutUint32(seqBytes[:], seq)
	buf = append(buf, seqBytes[:]...)
	buf = append(buf, kind)
	digest := crypto.Keccak256(buf)
	var out [26]byte
	copy(out[:], digest[:26])
	return out
}

const (
	addressKindPackage   byte = 0x01
	addressKindComponent byte = 0x02
	addressKindResource  byte = 0x03
	objectKindVault      byte = 0x10
	objectKindLazyMap    byte = 0x11
)

// IdAllocator is the deterministic, per-transaction allocator for global
// addresses and object-local ids described in spec §3. At depth 0 it derives
// addresses from the transaction hash directly; BucketId/ProofId allocation
// uses a flat per-transaction counter shared across all depths (see the
// "Open question — buckets returned at depth 0" decision in DESIGN.md: both
// the deterministic depth-0 stream and the data-dependent worktop-sweep
// stream draw from this single counter, so there is exactly one BucketId
// namespace per transaction).
type IdAllocator struct {
	mu sync.Mutex

	txHash [32]byte

	addressSeq uint32
	bucketSeq  uint32
	proofSeq   uint32
	objectSeq  uint32
}

// NewIdAllocator returns an allocator scoped to one transaction, identified
// by its hash.
func NewIdAllocator(txHash [32]byte) *IdAllocator {
	return &IdAllocator{txHash: txHash}
}

func (a *IdAllocator) NewPackageAddress() PackageAddress {
	a.mu.Lock()
	defer a.mu.Unlock()
	seq := a.addressSeq
	a.addressSeq++
	return PackageAddress(deriveAddress(a.txHash, seq, addressKindPackage))
}

func (a *IdAllocator) NewComponentAddress() ComponentAddress {
	a.mu.Lock()
	defer a.mu.Unlock()
	seq := a.addressSeq
	a.addressSeq++
	return ComponentAddress(deriveAddress(a.txHash, seq, addressKindComponent))
}

func (a *IdAllocator) NewResourceAddress() ResourceAddress {
	a.mu.Lock()
	defer a.mu.Unlock()
	seq := a.addressSeq
	a.addressSeq++
	return ResourceAddress(deriveAddress(a.txHash, seq, addressKindResource))
}

func (a *IdAllocator) NewBucketId() BucketId {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.bucketSeq
	a.bucketSeq++
	return BucketId(id)
}

func (a *IdAllocator) NewProofId() ProofId {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.proofSeq
	a.proofSeq++
	return ProofId(id)
}

// NewVaultId allocates an object-local vault id scoped under owner.
func (a *IdAllocator) NewVaultId(owner ComponentAddress) VaultId {
	a.mu.Lock()
	defer a.mu.Unlock()
	seq := a.objectSeq
	a.objectSeq++
	digest := deriveAddress(a.txHash, seq, objectKindVault)
	var out VaultId
	copy(out[:26], digest[:])
	binary.BigEndian.PutUint32(out[26:30], seq)
	copy(out[30:], owner[:6])
	return out
}

// NewLazyMapId allocates an object-local lazy-map id scoped under owner.
func (a *IdAllocator) NewLazyMapId(owner ComponentAddress) LazyMapId {
	a.mu.Lock()
	defer a.mu.Unlock()
	seq := a.objectSeq
	a.objectSeq++
	digest := deriveAddress(a.txHash, seq, objectKindLazyMap)
	var out LazyMapId
	copy(out[:26], digest[:])
	binary.BigEndian.PutUint32(out[26:30], seq)
	copy(out[30:], owner[:6])
	return out
}

func mustParseHexAddress(s string, n int) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", s, err)
	}
	if len(b) != n {
		return nil, fmt.Errorf("invalid address %q: want %d bytes, got %d", s, n, len(b))
	}
	return b, nil
}
