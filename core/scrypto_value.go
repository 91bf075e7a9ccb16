package core

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ScryptoValue is the engine's SBOR-equivalent self-describing value: the
// wire representation for instruction arguments, component state, and
// lazy-map entries. It is deliberately just bytes plus a lazily-decoded
// reference index; the schema-checked decode into blueprint-declared Go
// types is left to the guest ABI layer (host_api.go), matching the spec's
// design note "parse arguments against the blueprint's declared schema
// before invocation; do not embed the decoding in each blueprint."
//
// CBOR (github.com/fxamacker/cbor/v2) is used as the concrete codec: it is
// a real deterministic, self-describing binary format already present in
// this retrieval pack (onflow-cadence's CCF/CBOR family), rather than a
// hand-rolled byte format.
type ScryptoValue struct {
	Bytes []byte

	// References are the BucketId/ProofId/VaultId/LazyMapId values found
	// while harvesting this value's encoded bytes (spec §4.7 step 1).
	refs *referenceSet
}

// referenceSet is the result of walking an encoded value for embedded
// object/transient references (spec §4.7 invoke-protocol step 1-2).
type referenceSet struct {
	Buckets   []BucketId
	Proofs    []ProofId
	Vaults    []VaultId
	LazyMaps  []LazyMapId
}

// scryptoRefTag is the CBOR-encoded wrapper used to tag an embedded
// reference inline in an otherwise arbitrary value tree, analogous to how
// the original engine's SBOR format reserves custom type ids for
// Bucket/Proof/Vault/LazyMap. We use a map with a single reserved key so
// the tag survives round-tripping through cbor.Marshal/Unmarshal of
// map[string]interface{}-shaped guest state without any custom tag
// registration.
const scryptoRefKey = "__scrypto_ref__"

type scryptoRefKind string

const (
	refKindBucket  scryptoRefKind = "bucket"
	refKindProof   scryptoRefKind = "proof"
	refKindVault   scryptoRefKind = "vault"
	refKindLazyMap scryptoRefKind = "lazymap"
)

type scryptoRef struct {
	Kind scryptoRefKind `cbor:"__scrypto_ref__"`
	Raw  []byte         `cbor:"raw"`
}

// EncodeScryptoValue serializes an arbitrary Go value (typically a
// map[string]interface{} tree possibly containing BucketId/ProofId/VaultId/
// LazyMapId leaves) into a ScryptoValue.
func EncodeScryptoValue(v interface{}) (ScryptoValue, error) {
	wrapped := wrapRefs(v)
	b, err := cbor.Marshal(wrapped)
	if err != nil {
		return ScryptoValue{}, fmt.Errorf("encode scrypto value: %w", err)
	}
	return ScryptoValue{Bytes: b}, nil
}

// Decode deserializes the value into dst the way cbor.Unmarshal would, with
// embedded references unwrapped back into their original Go types and
// integers held in interface{} values decoded as int64.
func (sv ScryptoValue) Decode(dst interface{}) error {
	var raw interface{}
	if err := cbor.Unmarshal(sv.Bytes, &raw); err != nil {
		return fmt.Errorf("decode scrypto value: %w", err)
	}
	unwrapped := unwrapRefs(raw)
	b, err := cbor.Marshal(unwrapped)
	if err != nil {
		return fmt.Errorf("decode scrypto value: %w", err)
	}
	dm, err := cbor.DecOptions{IntDec: cbor.IntDecConvertSigned}.DecMode()
	if err != nil {
		return fmt.Errorf("decode scrypto value: %w", err)
	}
	return dm.Unmarshal(b, dst)
}

// harvest walks the encoded value and collects every embedded
// BucketId/ProofId/VaultId/LazyMapId reference, per spec §4.7 step 1. The
// result is cached on the ScryptoValue.
func (sv *ScryptoValue) harvest() (*referenceSet, error) {
	if sv.refs != nil {
		return sv.refs, nil
	}
	var raw interface{}
	if err := cbor.Unmarshal(sv.Bytes, &raw); err != nil {
		return nil, fmt.Errorf("harvest scrypto value: %w", err)
	}
	refs := &referenceSet{}
	walkRefs(raw, refs)
	sv.refs = refs
	return refs, nil
}

func walkRefs(v interface{}, out *referenceSet) {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		if kindRaw, ok := t[scryptoRefKey]; ok {
			appendRef(out, kindRaw, t)
			return
		}
		for _, sub := range t {
			walkRefs(sub, out)
		}
	case map[string]interface{}:
		if kindRaw, ok := t[scryptoRefKey]; ok {
			m := make(map[interface{}]interface{}, len(t))
			for k, val := range t {
				m[k] = val
			}
			appendRef(out, kindRaw, m)
			return
		}
		for _, sub := range t {
			walkRefs(sub, out)
		}
	case []interface{}:
		for _, sub := range t {
			walkRefs(sub, out)
		}
	}
}

func appendRef(out *referenceSet, kindRaw interface{}, m map[interface{}]interface{}) {
	kind, _ := kindRaw.(string)
	raw, _ := m["raw"].([]byte)
	switch scryptoRefKind(kind) {
	case refKindBucket:
		if len(raw) >= 4 {
			out.Buckets = append(out.Buckets, BucketId(beUint32(raw)))
		}
	case refKindProof:
		if len(raw) >= 4 {
			out.Proofs = append(out.Proofs, ProofId(beUint32(raw)))
		}
	case refKindVault:
		if len(raw) >= 36 {
			var id VaultId
			copy(id[:], raw)
			out.Vaults = append(out.Vaults, id)
		}
	case refKindLazyMap:
		if len(raw) >= 36 {
			var id LazyMapId
			copy(id[:], raw)
			out.LazyMaps = append(out.LazyMaps, id)
		}
	}
}

func beUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func beBytes32(v uint32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

// wrapRefs walks a Go value tree before encoding and replaces any
// BucketId/ProofId/VaultId/LazyMapId leaf with its tagged wire form.
func wrapRefs(v interface{}) interface{} {
	switch t := v.(type) {
	case BucketId:
		return scryptoRef{Kind: refKindBucket, Raw: beBytes32(uint32(t))}
	case ProofId:
		return scryptoRef{Kind: refKindProof, Raw: beBytes32(uint32(t))}
	case VaultId:
		return scryptoRef{Kind: refKindVault, Raw: append([]byte{}, t[:]...)}
	case LazyMapId:
		return scryptoRef{Kind: refKindLazyMap, Raw: append([]byte{}, t[:]...)}
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, sub := range t {
			out[k] = wrapRefs(sub)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, sub := range t {
			out[i] = wrapRefs(sub)
		}
		return out
	default:
		return v
	}
}

// unwrapRefs is the inverse of wrapRefs applied to a decoded generic tree,
// producing plain byte/ map shapes that cbor can re-marshal into dst's
// concrete struct tags untouched (references inside dst fields typed as
// BucketId or ProofId round-trip via their own MarshalCBOR, added below).
func unwrapRefs(v interface{}) interface{} {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, sub := range t {
			ks, _ := k.(string)
			out[ks] = unwrapRefs(sub)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, sub := range t {
			out[i] = unwrapRefs(sub)
		}
		return out
	default:
		return v
	}
}

// MarshalCBOR/UnmarshalCBOR implementations let BucketId and ProofId be
// embedded directly as struct fields (not just inside
// map[string]interface{} trees) and still round-trip through the reference
// harvester, since cbor.Marshal calls these before falling back to the
// default integer encoding. VaultId and LazyMapId have no such methods: they
// are tagged only as top-level values or inside map[string]interface{} and
// []interface{} trees, and a struct field of either type encodes as a plain
// byte array.

func (b BucketId) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(scryptoRef{Kind: refKindBucket, Raw: beBytes32(uint32(b))})
}

func (b *BucketId) UnmarshalCBOR(data []byte) error {
	var r scryptoRef
	if err := cbor.Unmarshal(data, &r); err != nil {
		return err
	}
	if len(r.Raw) < 4 {
		return fmt.Errorf("short bucket ref")
	}
	*b = BucketId(beUint32(r.Raw))
	return nil
}

func (p ProofId) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(scryptoRef{Kind: refKindProof, Raw: beBytes32(uint32(p))})
}

func (p *ProofId) UnmarshalCBOR(data []byte) error {
	var r scryptoRef
	if err := cbor.Unmarshal(data, &r); err != nil {
		return err
	}
	if len(r.Raw) < 4 {
		return fmt.Errorf("short proof ref")
	}
	*p = ProofId(beUint32(r.Raw))
	return nil
}
