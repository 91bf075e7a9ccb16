package core

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

var txLog = logrus.WithField("component", "transaction")

// Instruction is one step of a transaction manifest, executed in order at
// depth 0 (spec §6.1). Exactly one of the Call* fields is meaningful,
// selected by Kind.
type Instruction struct {
	Kind InstructionKind

	// CallFunction / CallMethod
	PackageAddress   PackageAddress
	ComponentAddress ComponentAddress
	BlueprintName    string
	Name             string // function or method name
	Args             ScryptoValue

	// TakeFromWorktop / AssertWorktopContains family
	ResourceAddress ResourceAddress
	ResourceType    ResourceType
	Amount          Amount
	NonFungibleIds  []NonFungibleId

	// CreateProofFromAuthZone family reuses ResourceAddress/Amount/
	// NonFungibleIds above.

	// CallMethodWithAllResources has no further fields: it drains the
	// worktop and invokes ComponentAddress.Name with the drained buckets.

	// ReturnToWorktop / CloneProof / DropProof / PushToAuthZone /
	// CreateProofFromBucket reference an already-allocated bucket or proof
	// by id.
	Bucket BucketId
	Proof  ProofId

	// PublishPackage
	Code       []byte
	Blueprints map[string]*Blueprint
}

type InstructionKind int

const (
	InstructionCallFunction InstructionKind = iota
	InstructionCallMethod
	InstructionCallMethodWithAllResources
	InstructionTakeFromWorktop
	InstructionTakeAllFromWorktop
	InstructionTakeNonFungiblesFromWorktop
	InstructionReturnToWorktop
	InstructionAssertWorktopContains
	InstructionAssertWorktopContainsByAmount
	InstructionAssertWorktopContainsByIds
	InstructionCreateProofFromAuthZone
	InstructionCreateProofFromAuthZoneByAmount
	InstructionCreateProofFromAuthZoneByIds
	InstructionCreateProofFromBucket
	InstructionCloneProof
	InstructionDropProof
	InstructionDropAllProofs
	InstructionPushToAuthZone
	InstructionPopFromAuthZone
	InstructionPublishPackage
)

// TransactionResult is the outcome of running a manifest to completion or
// to its first failing instruction (spec §5 "Atomicity").
type TransactionResult struct {
	Committed bool
	Outputs   []ScryptoValue
	Err       error
}

// RunManifest executes instructions in order against process's depth-0
// frame, committing process.track on success and aborting it (leaving the
// underlying store untouched) on the first failing instruction (spec §5,
// §8 "Atomicity": a transaction either commits in full or leaves no
// trace").
func RunManifest(process *Process, instructions []Instruction) TransactionResult {
	root := process.current
	if root.depth != 0 {
		return TransactionResult{Err: fmt.Errorf("RunManifest must run at depth 0")}
	}

	// Instructions reference buckets and proofs directly by the
	// BucketId/ProofId the corresponding Take*/CreateProof* instruction
	// allocated, in place of a manifest compiler's named bindings (e.g.
	// "bucket1" in a human-authored manifest).
	outputs := make([]ScryptoValue, 0, len(instructions))

	for i, instr := range instructions {
		out, err := runInstruction(process, root, instr)
		if err != nil {
			txLog.WithError(err).WithField("instruction", i).Warn("transaction aborted")
			process.track.Abort()
			return TransactionResult{Committed: false, Err: fmt.Errorf("instruction %d: %w", i, err)}
		}
		outputs = append(outputs, out)
	}

	if !root.worktop.IsEmpty() {
		process.track.Abort()
		return TransactionResult{Committed: false, Err: ErrResourceCheckFailure}
	}
	if err := root.auth.Clear(); err != nil {
		process.track.Abort()
		return TransactionResult{Committed: false, Err: err}
	}

	if err := process.track.Commit(); err != nil {
		return TransactionResult{Committed: false, Err: err}
	}
	return TransactionResult{Committed: true, Outputs: outputs}
}

func runInstruction(process *Process, root *Frame, instr Instruction) (ScryptoValue, error) {
	switch instr.Kind {
	case InstructionCallFunction:
		result, buckets, err := process.CallFunction(instr.PackageAddress, instr.BlueprintName, instr.Name, instr.Args)
		if err != nil {
			return ScryptoValue{}, err
		}
		for _, b := range buckets {
			if err := root.worktop.Put(b); err != nil {
				return ScryptoValue{}, err
			}
		}
		return result, nil

	case InstructionCallMethod:
		result, buckets, err := process.CallMethod(instr.ComponentAddress, instr.Name, instr.Args)
		if err != nil {
			return ScryptoValue{}, err
		}
		for _, b := range buckets {
			if err := root.worktop.Put(b); err != nil {
				return ScryptoValue{}, err
			}
		}
		return result, nil

	case InstructionCallMethodWithAllResources:
		drained := root.worktop.DrainAll()
		args, err := encodeBucketArgs(process, root, drained)
		if err != nil {
			return ScryptoValue{}, err
		}
		result, buckets, err := process.CallMethod(instr.ComponentAddress, instr.Name, args)
		if err != nil {
			return ScryptoValue{}, err
		}
		for _, b := range buckets {
			if err := root.worktop.Put(b); err != nil {
				return ScryptoValue{}, err
			}
		}
		return result, nil

	case InstructionTakeFromWorktop:
		b, err := root.worktop.Take(instr.Amount, instr.ResourceAddress, instr.ResourceType)
		if err != nil {
			return ScryptoValue{}, err
		}
		id := process.ids.NewBucketId()
		root.buckets[id] = b
		return EncodeScryptoValue(id)

	case InstructionTakeAllFromWorktop:
		b, err := root.worktop.TakeAll(instr.ResourceAddress)
		if err != nil {
			return ScryptoValue{}, err
		}
		id := process.ids.NewBucketId()
		root.buckets[id] = b
		return EncodeScryptoValue(id)

	case InstructionTakeNonFungiblesFromWorktop:
		b, err := root.worktop.TakeNonFungibles(instr.NonFungibleIds, instr.ResourceAddress)
		if err != nil {
			return ScryptoValue{}, err
		}
		id := process.ids.NewBucketId()
		root.buckets[id] = b
		return EncodeScryptoValue(id)

	case InstructionReturnToWorktop:
		b, ok := root.buckets[instr.Bucket]
		if !ok {
			return ScryptoValue{}, ErrBucketNotFound
		}
		delete(root.buckets, instr.Bucket)
		return ScryptoValue{}, root.worktop.Put(b)

	case InstructionCloneProof:
		p, ok := root.proofs[instr.Proof]
		if !ok {
			return ScryptoValue{}, ErrProofNotFound
		}
		clone, err := p.Clone()
		if err != nil {
			return ScryptoValue{}, err
		}
		id := process.ids.NewProofId()
		root.proofs[id] = clone
		return EncodeScryptoValue(id)

	case InstructionDropProof:
		p, ok := root.proofs[instr.Proof]
		if !ok {
			return ScryptoValue{}, ErrProofNotFound
		}
		delete(root.proofs, instr.Proof)
		return ScryptoValue{}, p.Drop()

	case InstructionPushToAuthZone:
		p, ok := root.proofs[instr.Proof]
		if !ok {
			return ScryptoValue{}, ErrProofNotFound
		}
		if err := root.auth.Push(p); err != nil {
			return ScryptoValue{}, err
		}
		delete(root.proofs, instr.Proof)
		return ScryptoValue{}, nil

	case InstructionPopFromAuthZone:
		p, err := root.auth.Pop()
		if err != nil {
			return ScryptoValue{}, err
		}
		id := process.ids.NewProofId()
		root.proofs[id] = p
		return EncodeScryptoValue(id)

	case InstructionCreateProofFromBucket:
		b, ok := root.buckets[instr.Bucket]
		if !ok {
			return ScryptoValue{}, ErrBucketNotFound
		}
		p, err := ComposeFull([]*ResourceContainer{b.container}, instr.ResourceAddress, instr.ResourceType)
		if err != nil {
			return ScryptoValue{}, err
		}
		id := process.ids.NewProofId()
		root.proofs[id] = p
		return EncodeScryptoValue(id)

	case InstructionAssertWorktopContains:
		return ScryptoValue{}, root.worktop.AssertContains(instr.ResourceAddress)

	case InstructionAssertWorktopContainsByAmount:
		return ScryptoValue{}, root.worktop.AssertContainsByAmount(instr.Amount, instr.ResourceAddress)

	case InstructionAssertWorktopContainsByIds:
		return ScryptoValue{}, root.worktop.AssertContainsByIds(instr.NonFungibleIds, instr.ResourceAddress)

	case InstructionCreateProofFromAuthZone:
		p, err := root.auth.CreateProof(instr.ResourceAddress, instr.ResourceType)
		if err != nil {
			return ScryptoValue{}, err
		}
		id := process.ids.NewProofId()
		root.proofs[id] = p
		return EncodeScryptoValue(id)

	case InstructionCreateProofFromAuthZoneByAmount:
		p, err := root.auth.CreateProofByAmount(instr.Amount, instr.ResourceAddress)
		if err != nil {
			return ScryptoValue{}, err
		}
		id := process.ids.NewProofId()
		root.proofs[id] = p
		return EncodeScryptoValue(id)

	case InstructionCreateProofFromAuthZoneByIds:
		p, err := root.auth.CreateProofByIds(instr.NonFungibleIds, instr.ResourceAddress)
		if err != nil {
			return ScryptoValue{}, err
		}
		id := process.ids.NewProofId()
		root.proofs[id] = p
		return EncodeScryptoValue(id)

	case InstructionDropAllProofs:
		if err := root.auth.Clear(); err != nil {
			return ScryptoValue{}, err
		}
		for id, p := range root.proofs {
			if err := p.Drop(); err != nil {
				return ScryptoValue{}, err
			}
			delete(root.proofs, id)
		}
		return ScryptoValue{}, nil

	case InstructionPublishPackage:
		addr := process.PublishPackage(instr.Code, instr.Blueprints)
		return EncodeScryptoValue(addr)
	}
	return ScryptoValue{}, fmt.Errorf("unsupported instruction kind %d", instr.Kind)
}

// encodeBucketArgs packs drained worktop buckets into a single encoded
// argument value referencing their newly allocated BucketIds, for
// call_method_with_all_resources (spec §6.1).
func encodeBucketArgs(process *Process, root *Frame, buckets []*Bucket) (ScryptoValue, error) {
	ids := make([]interface{}, 0, len(buckets))
	for _, b := range buckets {
		id := process.ids.NewBucketId()
		root.buckets[id] = b
		ids = append(ids, id)
	}
	return EncodeScryptoValue(ids)
}
