package core

import "testing"

func newTestProcess() *Process {
	store := NewInMemorySubstateStore([32]byte{9})
	track := NewTrack(store, [32]byte{9})
	ids := NewIdAllocator([32]byte{9})
	return NewProcess(ids, track)
}

func TestCallFunctionIdentityExecutor(t *testing.T) {
	p := newTestProcess()
	addr := p.PublishPackage(nil, map[string]*Blueprint{
		"Greeter": {
			Name:      "Greeter",
			Functions: map[string]Abi{"new": {ArgCount: 0}},
			Methods:   map[string]Abi{},
		},
	})

	args, err := EncodeScryptoValue(map[string]interface{}{"hello": "world"})
	if err != nil {
		t.Fatalf("EncodeScryptoValue: %v", err)
	}
	result, buckets, err := p.CallFunction(addr, "Greeter", "new", args)
	if err != nil {
		t.Fatalf("CallFunction: %v", err)
	}
	if len(buckets) != 0 {
		t.Fatalf("got %d buckets, want 0", len(buckets))
	}
	var decoded map[string]interface{}
	if err := result.Decode(&decoded); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded["hello"] != "world" {
		t.Fatalf("got %v, want hello=world (identity executor echoes args)", decoded)
	}
}

func TestCallFunctionUnknownPackage(t *testing.T) {
	p := newTestProcess()
	args, _ := EncodeScryptoValue(map[string]interface{}{})
	if _, _, err := p.CallFunction(PackageAddress{}, "X", "new", args); err != ErrPackageNotFound {
		t.Fatalf("got %v, want ErrPackageNotFound", err)
	}
}

func TestCallFunctionAuthorizationRejected(t *testing.T) {
	p := newTestProcess()
	badge := testResourceAddress(7)
	addr := p.PublishPackage(nil, map[string]*Blueprint{
		"Vault": {
			Name:        "Vault",
			Functions:   map[string]Abi{"admin_only": {ArgCount: 0}},
			Methods:     map[string]Abi{},
			AccessRules: NewAccessRules(map[string]*AuthRule{"admin_only": RequireResource(badge)}, nil),
		},
	})
	args, _ := EncodeScryptoValue(map[string]interface{}{})
	if _, _, err := p.CallFunction(addr, "Vault", "admin_only", args); err == nil {
		t.Fatal("expected authorization failure without the admin badge proof")
	}
}

func TestCallFunctionHarvestsAndMovesBucketArgument(t *testing.T) {
	p := newTestProcess()
	addr := p.PublishPackage(nil, map[string]*Blueprint{
		"Sink": {
			Name:      "Sink",
			Functions: map[string]Abi{"accept": {ArgCount: 1}},
			Methods:   map[string]Abi{},
		},
	})

	// The bare identity default never hands buckets back on its own (that is
	// what a real guest does via HarvestReturnValue); model a minimal guest
	// here that returns whatever buckets it was given, so the call itself
	// does not trip the callee frame's own resource-leak check.
	p.Executor = func(_ *Process, frame *Frame, args ScryptoValue) (ScryptoValue, []*Bucket, error) {
		var out []*Bucket
		for id, b := range frame.buckets {
			delete(frame.buckets, id)
			out = append(out, b)
		}
		return args, out, nil
	}

	root := p.current
	resourceAddr := testResourceAddress(5)
	emptyBucket := NewBucket(NewEmptyFungibleContainer(resourceAddr, 18))
	bucketId := p.ids.NewBucketId()
	root.buckets[bucketId] = emptyBucket

	args, err := EncodeScryptoValue(bucketId)
	if err != nil {
		t.Fatalf("EncodeScryptoValue: %v", err)
	}

	if _, ok := root.buckets[bucketId]; !ok {
		t.Fatal("precondition: bucket should start out owned by root")
	}
	_, buckets, err := p.CallFunction(addr, "Sink", "accept", args)
	if err != nil {
		t.Fatalf("CallFunction: %v", err)
	}
	if len(buckets) != 1 {
		t.Fatalf("got %d buckets, want 1 (the bucket the callee handed back)", len(buckets))
	}
	if _, ok := root.buckets[bucketId]; ok {
		t.Fatal("bucket passed as an argument should have been moved out of the caller frame")
	}
}

func TestCallFunctionLeavesEmptyBucketFailsLeakCheck(t *testing.T) {
	p := newTestProcess()
	addr := p.PublishPackage(nil, map[string]*Blueprint{
		"Sink": {
			Name:      "Sink",
			Functions: map[string]Abi{"accept": {ArgCount: 1}},
			Methods:   map[string]Abi{},
		},
	})

	root := p.current
	resourceAddr := testResourceAddress(6)
	emptyBucket := NewBucket(NewEmptyFungibleContainer(resourceAddr, 18))
	bucketId := p.ids.NewBucketId()
	root.buckets[bucketId] = emptyBucket
	args, err := EncodeScryptoValue(bucketId)
	if err != nil {
		t.Fatalf("EncodeScryptoValue: %v", err)
	}

	// The identity default (no Executor installed) never returns the bucket
	// it received, so the callee frame exits still owning it -- a leak even
	// though the bucket is empty.
	if _, _, err := p.CallFunction(addr, "Sink", "accept", args); err != ErrResourceCheckFailure {
		t.Fatalf("got %v, want ErrResourceCheckFailure", err)
	}
}

func TestHarvestTransientsRejectsRestrictedProof(t *testing.T) {
	p := newTestProcess()
	root := p.current
	addr := testResourceAddress(7)
	c := NewEmptyFungibleContainer(addr, 18)
	_ = c.mint(AmountFromInt(1))
	proof, err := ComposeFull([]*ResourceContainer{c}, addr, ResourceTypeFungible)
	if err != nil {
		t.Fatalf("ComposeFull: %v", err)
	}
	proofId := p.ids.NewProofId()
	root.proofs[proofId] = proof

	args, err := EncodeScryptoValue(proofId)
	if err != nil {
		t.Fatalf("EncodeScryptoValue: %v", err)
	}

	harvestedBuckets, harvestedProofs, err := p.harvestTransients(root, args)
	if err != nil {
		t.Fatalf("first harvest: %v", err)
	}
	if len(harvestedBuckets) != 0 || len(harvestedProofs) != 1 {
		t.Fatalf("got %d buckets, %d proofs, want 0, 1", len(harvestedBuckets), len(harvestedProofs))
	}
	if !harvestedProofs[0].IsRestricted() {
		t.Fatal("a proof moved across a frame boundary must come back marked restricted")
	}

	// Forwarding that same (now restricted) proof on as another call
	// argument must fail rather than silently re-harvesting it.
	secondId := p.ids.NewProofId()
	root.proofs[secondId] = harvestedProofs[0]
	args2, err := EncodeScryptoValue(secondId)
	if err != nil {
		t.Fatalf("EncodeScryptoValue: %v", err)
	}
	if _, _, err := p.harvestTransients(root, args2); err != ErrCantMoveRestrictedProof {
		t.Fatalf("got %v, want ErrCantMoveRestrictedProof", err)
	}
	_ = harvestedProofs[0].Drop()
}
