package core

import "fmt"

// InterpreterState distinguishes a frame invoked against a bare blueprint
// function (no existing instance) from one invoked against an instantiated
// Component's method (spec §4.7 "Call-Frame / Process state machine").
type InterpreterState int

const (
	InterpreterStateBlueprint InterpreterState = iota
	InterpreterStateComponent
)

// Frame is one activation record in the call stack: the owned transient
// resources (buckets, proofs), the auth zone accumulated during its
// execution, and the object ownership tracker guarding its vault/lazy-map
// references (spec §4.7). Depth 0 additionally owns the transaction's
// single Worktop.
type Frame struct {
	depth int
	state InterpreterState

	packageAddress PackageAddress
	blueprintName  string
	componentAddr  ComponentAddress // zero value unless state == Component
	entryPoint     string           // function or method name this frame was invoked with

	buckets map[BucketId]*Bucket
	proofs  map[ProofId]*Proof
	auth    *AuthZone
	objects *ObjectOwnershipTracker

	worktop *Worktop // non-nil only at depth 0

	parent *Frame
}

// PackageAddress, BlueprintName, and ComponentAddress expose the frame's
// invocation target to an externally installed Process.Executor, which
// cannot reach the unexported fields directly from outside this package.
func (f *Frame) PackageAddress() PackageAddress     { return f.packageAddress }
func (f *Frame) BlueprintName() string              { return f.blueprintName }
func (f *Frame) ComponentAddress() ComponentAddress { return f.componentAddr }
func (f *Frame) Depth() int                         { return f.depth }
func (f *Frame) EntryPoint() string                 { return f.entryPoint }

// Process drives the transaction's call-frame state machine: it owns the
// id allocator, the package/component/resource-manager registries, and the
// Track the frames read and write through (spec §4.1, §4.7).
type Process struct {
	ids   *IdAllocator
	track *Track

	packages  map[PackageAddress]*Package
	resources map[ResourceAddress]*ResourceManager
	vaults    map[VaultId]*Vault
	lazyMaps  map[LazyMapId]*LazyMap
	components map[ComponentAddress]*Component

	current *Frame

	// Executor hosts and invokes guest bytecode for one frame; cmd/enginectl
	// installs one (newGuestExecutor) that runs the frame through
	// GuestRuntime.Invoke. Left nil, executeFrame degenerates to an
	// identity pass-through, which is sufficient for exercising the frame
	// state machine (harvesting, authorization, leak detection) without a
	// wasm host loaded.
	Executor func(p *Process, frame *Frame, args ScryptoValue) (ScryptoValue, []*Bucket, error)
}

// NewProcess constructs a Process for one transaction, rooted at an empty
// depth-0 frame owning a fresh worktop and auth zone.
func NewProcess(ids *IdAllocator, track *Track) *Process {
	root := &Frame{
		depth:   0,
		state:   InterpreterStateBlueprint,
		buckets: make(map[BucketId]*Bucket),
		proofs:  make(map[ProofId]*Proof),
		auth:    NewAuthZone(),
		objects: NewObjectOwnershipTracker(nil),
		worktop: NewWorktop(),
	}
	return &Process{
		ids:        ids,
		track:      track,
		packages:   make(map[PackageAddress]*Package),
		resources:  make(map[ResourceAddress]*ResourceManager),
		vaults:     make(map[VaultId]*Vault),
		lazyMaps:   make(map[LazyMapId]*LazyMap),
		components: make(map[ComponentAddress]*Component),
		current:    root,
	}
}

// PublishPackage registers a validated package, allocating its address.
func (p *Process) PublishPackage(code []byte, blueprints map[string]*Blueprint) PackageAddress {
	addr := p.ids.NewPackageAddress()
	p.packages[addr] = NewPackage(addr, code, blueprints)
	return addr
}

// Package returns the published package at addr, failing ErrPackageNotFound.
// Exposed so an externally installed Executor (core/guest_runtime.go's
// GuestRuntime.Invoke, wired by cmd/enginectl) can load a frame's bytecode
// without reaching into Process's unexported registry.
func (p *Process) Package(addr PackageAddress) (*Package, error) {
	pkg, ok := p.packages[addr]
	if !ok {
		return nil, ErrPackageNotFound
	}
	return pkg, nil
}

// RegisterResourceManager registers a freshly constructed resource
// manager, allocating its address.
func (p *Process) RegisterResourceManager(resourceType ResourceType, divisibility uint8, metadata map[string]string, maxSupply Amount, rules MethodAuthRules) *ResourceManager {
	addr := p.ids.NewResourceAddress()
	rm := NewResourceManager(addr, resourceType, divisibility, metadata, maxSupply, rules)
	p.resources[addr] = rm
	return rm
}

// registerComponent allocates an address and registers a freshly
// instantiated component, mirroring RegisterResourceManager's pattern. Used
// by the create_component host call (core/host_api.go).
func (p *Process) registerComponent(packageAddress PackageAddress, blueprintName string, state ScryptoValue) *Component {
	addr := p.ids.NewComponentAddress()
	c := NewComponent(addr, packageAddress, blueprintName, state)
	p.components[addr] = c
	return c
}

// harvestTransients extracts the buckets and proofs named by ids embedded
// in value, moving them out of frame's owned maps (spec §4.7 invoke-
// protocol step 1-3: harvest ids, reject Vault/LazyMap references, move
// Buckets/Proofs). Used both for a call's arguments (moving out of the
// caller) and for a frame's return value on exit (moving out of the
// callee), since a value crossing either direction of a frame boundary is
// subject to the same transient-reference discipline.
func (p *Process) harvestTransients(frame *Frame, value ScryptoValue) ([]*Bucket, []*Proof, error) {
	refs, err := value.harvest()
	if err != nil {
		return nil, nil, err
	}
	if len(refs.Vaults) > 0 {
		return nil, nil, ErrVaultNotAllowed
	}
	if len(refs.LazyMaps) > 0 {
		return nil, nil, ErrLazyMapNotAllowed
	}
	buckets := make([]*Bucket, 0, len(refs.Buckets))
	for _, id := range refs.Buckets {
		b, ok := frame.buckets[id]
		if !ok {
			return nil, nil, ErrBucketNotFound
		}
		if b.IsLocked() {
			return nil, nil, ErrCantMoveLockedBucket
		}
		delete(frame.buckets, id)
		buckets = append(buckets, b)
	}
	proofs := make([]*Proof, 0, len(refs.Proofs))
	for _, id := range refs.Proofs {
		pr, ok := frame.proofs[id]
		if !ok {
			return nil, nil, ErrProofNotFound
		}
		if pr.IsRestricted() {
			return nil, nil, ErrCantMoveRestrictedProof
		}
		delete(frame.proofs, id)
		pr.markRestricted()
		proofs = append(proofs, pr)
	}
	return buckets, proofs, nil
}

// HarvestReturnValue moves any Bucket/Proof referenced by result out of
// frame's owned maps, for an Executor to call before returning control to
// runAndExit, so buckets/proofs a guest hands back in its result value
// are attached to the caller rather than tripping the exiting frame's
// resource-leak check.
func (p *Process) HarvestReturnValue(frame *Frame, result ScryptoValue) ([]*Bucket, []*Proof, error) {
	return p.harvestTransients(frame, result)
}

// proofVector is the union of a frame's auth zone and any proofs passed as
// explicit call arguments, against which authorization rules are evaluated
// (spec §4.7 "authorization check against a proof vector").
func proofVector(zone *AuthZone, argProofs []*Proof) []*Proof {
	out := zone.Proofs()
	out = append(out, argProofs...)
	return out
}

// CallFunction invokes a blueprint function with no existing component
// instance, spawning a child frame (spec §4.7). It is the entry point for
// both root-frame transaction instructions and nested guest-to-guest
// function calls.
func (p *Process) CallFunction(packageAddress PackageAddress, blueprintName, function string, args ScryptoValue) (ScryptoValue, []*Bucket, error) {
	pkg, ok := p.packages[packageAddress]
	if !ok {
		return ScryptoValue{}, nil, ErrPackageNotFound
	}
	bp, err := pkg.Blueprint(blueprintName)
	if err != nil {
		return ScryptoValue{}, nil, err
	}
	if _, ok := bp.Function(function); !ok {
		return ScryptoValue{}, nil, fmt.Errorf("function %q: %w", function, ErrBlueprintNotFound)
	}

	caller := p.current
	buckets, argProofs, err := p.harvestTransients(caller, args)
	if err != nil {
		return ScryptoValue{}, nil, err
	}
	if err := bp.AccessRules.Check(function, proofVector(caller.auth, argProofs)); err != nil {
		return ScryptoValue{}, nil, err
	}

	child := p.spawnFrame(InterpreterStateBlueprint, packageAddress, blueprintName, ComponentAddress{}, function, buckets, argProofs)
	return p.runAndExit(child, args)
}

// CallMethod invokes an existing component's method, spawning a child
// frame seeded with the component's own object references (spec §4.7).
func (p *Process) CallMethod(componentAddress ComponentAddress, method string, args ScryptoValue) (ScryptoValue, []*Bucket, error) {
	comp, ok := p.components[componentAddress]
	if !ok {
		return ScryptoValue{}, nil, ErrComponentNotFound
	}
	pkg, ok := p.packages[comp.PackageAddress]
	if !ok {
		return ScryptoValue{}, nil, ErrPackageNotFound
	}
	bp, err := pkg.Blueprint(comp.BlueprintName)
	if err != nil {
		return ScryptoValue{}, nil, err
	}
	if _, ok := bp.Method(method); !ok {
		return ScryptoValue{}, nil, fmt.Errorf("method %q: %w", method, ErrComponentNotFound)
	}

	caller := p.current
	buckets, argProofs, err := p.harvestTransients(caller, args)
	if err != nil {
		return ScryptoValue{}, nil, err
	}
	if err := bp.AccessRules.Check(method, proofVector(caller.auth, argProofs)); err != nil {
		return ScryptoValue{}, nil, err
	}

	child := p.spawnFrame(InterpreterStateComponent, comp.PackageAddress, comp.BlueprintName, componentAddress, method, buckets, argProofs)

	vaultIds, lazyMapIds, err := comp.ObjectRefs()
	if err != nil {
		return ScryptoValue{}, nil, err
	}
	for _, id := range vaultIds {
		child.objects.initialObjectRefs[id] = true
	}
	for _, id := range lazyMapIds {
		child.objects.initialObjectRefs[id] = true
	}

	return p.runAndExit(child, args)
}

// spawnFrame allocates a new child frame, pre-loading its owned-bucket/
// proof maps with the harvested call arguments (spec §4.7 step 3 "move
// Buckets/Proofs into the new frame").
func (p *Process) spawnFrame(state InterpreterState, packageAddress PackageAddress, blueprintName string, componentAddr ComponentAddress, entryPoint string, buckets []*Bucket, proofs []*Proof) *Frame {
	f := &Frame{
		depth:          p.current.depth + 1,
		state:          state,
		packageAddress: packageAddress,
		blueprintName:  blueprintName,
		componentAddr:  componentAddr,
		entryPoint:     entryPoint,
		buckets:        make(map[BucketId]*Bucket),
		proofs:         make(map[ProofId]*Proof),
		auth:           NewAuthZone(),
		objects:        NewObjectOwnershipTracker(nil),
		parent:         p.current,
	}
	for _, b := range buckets {
		f.buckets[p.ids.NewBucketId()] = b
	}
	for _, pr := range proofs {
		f.proofs[p.ids.NewProofId()] = pr
	}
	return f
}

// runAndExit makes child the current frame for the duration of running
// its guest logic (via executeFrame), then tears it down and restores the
// parent frame, enforcing the resource-leak check (spec §4.7 step 5
// "harvest results, then verify no resource was leaked").
//
// The guest's own bytecode runs through Process.Executor, whose result and
// returned buckets are passed back from here. With no Executor installed,
// executeFrame returns the call arguments as the result and no buckets, so
// the frame machinery can be unit tested without the wasmer-go host.
func (p *Process) runAndExit(child *Frame, args ScryptoValue) (ScryptoValue, []*Bucket, error) {
	p.current = child
	defer func() { p.current = child.parent }()

	result, returnedBuckets, err := p.executeFrame(child, args)
	if err != nil {
		p.teardownFrame(child)
		return ScryptoValue{}, nil, err
	}

	if err := p.checkResourceLeak(child); err != nil {
		return ScryptoValue{}, nil, err
	}
	return result, returnedBuckets, nil
}

// executeFrame delegates to Process.Executor (installed by cmd/enginectl);
// when no executor is installed it is the identity function used by
// frame-machinery unit tests.
func (p *Process) executeFrame(child *Frame, args ScryptoValue) (ScryptoValue, []*Bucket, error) {
	if p.Executor == nil {
		return args, nil, nil
	}
	return p.Executor(p, child, args)
}

// checkResourceLeak fails ErrResourceCheckFailure if the exiting frame
// still owns any bucket or proof it did not hand back, or holds a
// non-empty worktop (spec §4.7 step 5, §8 "Resource leak detection"). A
// bucket counts as a leak even when empty: the frame is still holding onto
// it instead of returning or dropping it. Vaults and lazy maps the frame
// created but did not attach to a component are not checked here. Proofs
// remaining in the frame's own auth zone are dropped automatically, not
// treated as a leak, since the zone itself is scoped to the frame.
func (p *Process) checkResourceLeak(f *Frame) error {
	if err := f.auth.Clear(); err != nil {
		return err
	}
	if len(f.buckets) != 0 {
		return ErrResourceCheckFailure
	}
	for range f.proofs {
		return ErrResourceCheckFailure
	}
	if f.worktop != nil && !f.worktop.IsEmpty() {
		return ErrResourceCheckFailure
	}
	return nil
}

// teardownFrame drops a frame's auth zone and any proofs it still owns
// after an error, without enforcing the leak check (the error already
// dominates the outcome).
func (p *Process) teardownFrame(f *Frame) {
	_ = f.auth.Clear()
	for _, pr := range f.proofs {
		_ = pr.Drop()
	}
}
