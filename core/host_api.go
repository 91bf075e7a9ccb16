package core

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	wasmer "github.com/wasmerio/wasmer-go/wasmer"
)

// HostCall names the guest-callable host functions, grouped the way spec
// §6.2 groups them (Package / Component / LazyMap / Resource / Vault /
// Bucket / Proof / Other). The guest imports them from the "env" namespace
// by these names, which also key the metering cost table and diagnostics.
type HostCall string

const (
	HostCallInvokeFunction HostCall = "invoke_function"
	HostCallInvokeMethod   HostCall = "invoke_method"

	HostCallCreateComponent HostCall = "create_component"
	HostCallGetComponentInfo HostCall = "get_component_info"
	HostCallPutComponentState HostCall = "put_component_state"
	HostCallGetComponentState HostCall = "get_component_state"

	HostCallCreateLazyMap HostCall = "create_lazy_map"
	HostCallGetLazyMapEntry HostCall = "get_lazy_map_entry"
	HostCallPutLazyMapEntry HostCall = "put_lazy_map_entry"

	HostCallCreateResource HostCall = "create_resource"
	HostCallGetResourceMetadata HostCall = "get_resource_metadata"
	HostCallGetResourceTotalSupply HostCall = "get_resource_total_supply"
	HostCallMintResource    HostCall = "mint_resource"
	HostCallBurnResource    HostCall = "burn_resource"
	HostCallGetNonFungibleData HostCall = "get_non_fungible_data"
	HostCallUpdateNonFungibleData HostCall = "update_non_fungible_data"

	HostCallCreateEmptyVault HostCall = "create_empty_vault"
	HostCallPutIntoVault    HostCall = "put_into_vault"
	HostCallTakeFromVault   HostCall = "take_from_vault"
	HostCallGetVaultAmount  HostCall = "get_vault_amount"
	HostCallGetVaultNonFungibleIds HostCall = "get_vault_non_fungible_ids"

	HostCallCreateBucket    HostCall = "create_bucket"
	HostCallPutIntoBucket   HostCall = "put_into_bucket"
	HostCallTakeFromBucket  HostCall = "take_from_bucket"
	HostCallGetBucketAmount HostCall = "get_bucket_amount"

	HostCallCreateProof     HostCall = "create_proof"
	HostCallCloneProof      HostCall = "clone_proof"
	HostCallDropProof       HostCall = "drop_proof"
	HostCallPushToAuthZone  HostCall = "push_to_auth_zone"
	HostCallPopFromAuthZone HostCall = "pop_from_auth_zone"
	HostCallClearAuthZone   HostCall = "clear_auth_zone"

	HostCallGenerateUuid HostCall = "generate_uuid"
	HostCallGetCallData  HostCall = "get_call_data"
	HostCallGetActor     HostCall = "get_actor"
	HostCallEmitLog      HostCall = "emit_log"
)

// HostDispatcher binds every HostCall to a Process, charging TBD for each
// invocation before servicing it (spec §5 "every host call carries a flat
// metering surcharge"). cmd/enginectl creates one dispatcher per frame
// invocation, all charging the same transaction meter; frame identity is
// threaded in by GuestRuntime.Invoke via the frame parameter given to
// Register.
type HostDispatcher struct {
	process *Process
	meter   *TbdMeter

	// instance/memory are bound by GuestRuntime.Invoke once the guest module
	// is instantiated, after Register has already installed the import
	// functions below -- the module's own linear memory does not exist yet
	// at Register time, so any host call reading or writing guest memory
	// must defer to whatever bindGuest last set.
	instance *wasmer.Instance
	memory   *wasmer.Memory
}

// NewHostDispatcher binds a dispatcher to process, charging against meter.
func NewHostDispatcher(process *Process, meter *TbdMeter) *HostDispatcher {
	return &HostDispatcher{process: process, meter: meter}
}

// bindGuest records the live instance/memory of the guest module currently
// executing, so host calls that exchange more than a scalar or two can read
// and write (ptr,len) regions of it.
func (d *HostDispatcher) bindGuest(instance *wasmer.Instance, memory *wasmer.Memory) {
	d.instance = instance
	d.memory = memory
}

// decodeRequest reads length bytes at ptr out of guest memory and decodes
// them as CBOR into dst.
func (d *HostDispatcher) decodeRequest(ptr, length int32, dst interface{}) error {
	if d.memory == nil {
		return ErrMemoryAccessError
	}
	raw, err := readFromGuestMemory(d.memory, ptr, length)
	if err != nil {
		return err
	}
	if err := cbor.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequestData, err)
	}
	return nil
}

// encodeResponse CBOR-encodes v, writes it into freshly allocated guest
// memory, and returns the (ptr,len) pair packed the same way a guest export
// packs its own return value.
func (d *HostDispatcher) encodeResponse(v interface{}) (int64, error) {
	if d.instance == nil || d.memory == nil {
		return 0, ErrMemoryAccessError
	}
	data, err := cbor.Marshal(v)
	if err != nil {
		return 0, err
	}
	ptr, err := writeToGuestMemory(d.instance, d.memory, data)
	if err != nil {
		return 0, err
	}
	return packPointerLen(ptr, int32(len(data))), nil
}

// checkEmbeddedObjectRefs rejects persisting a Bucket/Proof reference into
// component state or a lazy-map entry (spec §4.6 "transient ids may not
// survive inside committed state"), and rejects embedding a Vault/LazyMap
// reference frame does not itself legitimately hold (spec §4.6 "a component
// may never fabricate a reference to an object it was not given").
func checkEmbeddedObjectRefs(frame *Frame, value ScryptoValue) error {
	refs, err := value.harvest()
	if err != nil {
		return err
	}
	if len(refs.Buckets) > 0 {
		return ErrBucketNotAllowed
	}
	if len(refs.Proofs) > 0 {
		return ErrProofNotAllowed
	}
	for _, id := range refs.Vaults {
		if !frame.objects.CheckRef(id) {
			return ErrVaultNotFound
		}
	}
	for _, id := range refs.LazyMaps {
		if !frame.objects.CheckRef(id) {
			return ErrLazyMapNotFound
		}
	}
	return nil
}

// hostComponentRequest/hostComponentResponse and the other host* types below
// are the dispatcher's private wire shapes for the richer host calls --
// distinct from ScryptoValue, which is the guest-visible contract-argument
// codec. Addresses/ids round-trip through CBOR as plain byte arrays (the
// same mechanism ScryptoValue itself relies on for PackageAddress et al.);
// only the opaque payload fields (state/value/args) are themselves
// ScryptoValue-encoded bytes.
type hostCreateComponentRequest struct {
	BlueprintName string `cbor:"blueprint_name"`
	State         []byte `cbor:"state"`
}

type hostComponentResponse struct {
	Address ComponentAddress `cbor:"address"`
}

type hostStateResponse struct {
	State []byte `cbor:"state"`
}

type hostPutComponentStateRequest struct {
	State []byte `cbor:"state"`
}

type hostLazyMapResponse struct {
	Id LazyMapId `cbor:"id"`
}

type hostLazyMapGetRequest struct {
	Id  LazyMapId `cbor:"id"`
	Key []byte    `cbor:"key"`
}

type hostLazyMapGetResponse struct {
	Found bool   `cbor:"found"`
	Value []byte `cbor:"value"`
}

type hostLazyMapPutRequest struct {
	Id    LazyMapId `cbor:"id"`
	Key   []byte    `cbor:"key"`
	Value []byte    `cbor:"value"`
}

type hostCreateResourceRequest struct {
	Fungible     bool              `cbor:"fungible"`
	Divisibility uint8             `cbor:"divisibility"`
	Metadata     map[string]string `cbor:"metadata"`
	MaxSupply    string            `cbor:"max_supply"` // empty means unbounded
}

type hostResourceResponse struct {
	Address ResourceAddress `cbor:"address"`
}

type hostMintResourceRequest struct {
	Address ResourceAddress `cbor:"address"`
	Amount  string          `cbor:"amount"`
}

type hostBucketResponse struct {
	Bucket BucketId `cbor:"bucket"`
}

type hostBurnResourceRequest struct {
	Bucket BucketId `cbor:"bucket"`
}

type hostMetadataResponse struct {
	Metadata map[string]string `cbor:"metadata"`
}

type hostCreateVaultOrBucketRequest struct {
	Address ResourceAddress `cbor:"address"`
}

type hostVaultResponse struct {
	Vault VaultId `cbor:"vault"`
}

type hostPutIntoVaultRequest struct {
	Vault  VaultId  `cbor:"vault"`
	Bucket BucketId `cbor:"bucket"`
}

type hostTakeFromVaultRequest struct {
	Vault  VaultId `cbor:"vault"`
	Amount string  `cbor:"amount"`
}

type hostInvokeFunctionRequest struct {
	Package   PackageAddress `cbor:"package"`
	Blueprint string         `cbor:"blueprint"`
	Function  string         `cbor:"function"`
	Args      []byte         `cbor:"args"`
}

type hostInvokeMethodRequest struct {
	Component ComponentAddress `cbor:"component"`
	Method    string           `cbor:"method"`
	Args      []byte           `cbor:"args"`
}

type hostInvokeResponse struct {
	Result  []byte     `cbor:"result"`
	Buckets []BucketId `cbor:"buckets"`
}

type hostEmitLogRequest struct {
	Level   string `cbor:"level"`
	Message string `cbor:"message"`
}

type hostCallDataResponse struct {
	PackageAddress   PackageAddress   `cbor:"package_address"`
	BlueprintName    string           `cbor:"blueprint_name"`
	ComponentAddress ComponentAddress `cbor:"component_address"`
	EntryPoint       string           `cbor:"entry_point"`
}

// createComponent instantiates a component from state, checking that any
// Vault/LazyMap reference state embeds is one frame already legitimately
// holds (spec §4.6, §4.7 "constructor functions return freshly built
// state").
func (d *HostDispatcher) createComponent(frame *Frame, blueprintName string, state ScryptoValue) (ComponentAddress, error) {
	if err := checkEmbeddedObjectRefs(frame, state); err != nil {
		return ComponentAddress{}, err
	}
	c := d.process.registerComponent(frame.packageAddress, blueprintName, state)
	return c.Address, nil
}

// getComponentState/putComponentState always operate on the component the
// current frame was invoked against, never an arbitrary guest-supplied
// address -- a method frame may only read or replace its own state (spec
// §4.1, and the "Open question" decision recorded in DESIGN.md).
func (d *HostDispatcher) getComponentState(frame *Frame) (ScryptoValue, error) {
	c, ok := d.process.components[frame.componentAddr]
	if !ok {
		return ScryptoValue{}, ErrComponentNotFound
	}
	return c.State, nil
}

func (d *HostDispatcher) putComponentState(frame *Frame, state ScryptoValue) error {
	c, ok := d.process.components[frame.componentAddr]
	if !ok {
		return ErrComponentNotFound
	}
	if err := checkEmbeddedObjectRefs(frame, state); err != nil {
		return err
	}
	c.SetState(state)
	return nil
}

// createLazyMap allocates a fresh, empty lazy map owned by frame.
func (d *HostDispatcher) createLazyMap(frame *Frame) (LazyMapId, error) {
	id := d.process.ids.NewLazyMapId(frame.componentAddr)
	m := NewLazyMap(id)
	if err := frame.objects.TakeOwnershipLazyMap(m); err != nil {
		return LazyMapId{}, err
	}
	d.process.lazyMaps[id] = m
	return id, nil
}

func (d *HostDispatcher) getLazyMapEntry(frame *Frame, id LazyMapId, key []byte) (ScryptoValue, bool, error) {
	if !frame.objects.CheckRef(id) {
		return ScryptoValue{}, false, ErrLazyMapNotFound
	}
	m, ok := d.process.lazyMaps[id]
	if !ok {
		return ScryptoValue{}, false, ErrLazyMapNotFound
	}
	v, found := m.Get(key)
	return v, found, nil
}

func (d *HostDispatcher) putLazyMapEntry(frame *Frame, id LazyMapId, key []byte, value ScryptoValue) error {
	if !frame.objects.CheckRef(id) {
		return ErrLazyMapNotFound
	}
	m, ok := d.process.lazyMaps[id]
	if !ok {
		return ErrLazyMapNotFound
	}
	if err := checkEmbeddedObjectRefs(frame, value); err != nil {
		return err
	}
	m.Put(key, value)
	return nil
}

// createResource registers a new resource manager. A guest-created resource
// carries no mint/burn/update authorization rules -- AccessRules are not
// expressible through the guest ABI, the same simplification
// cmd/enginectl/manifest.go documents for publish_package.
func (d *HostDispatcher) createResource(req hostCreateResourceRequest) (ResourceAddress, error) {
	resourceType := ResourceTypeNonFungible
	divisibility := req.Divisibility
	if req.Fungible {
		resourceType = ResourceTypeFungible
	} else {
		divisibility = 0
	}
	maxSupply := ZeroAmount()
	if req.MaxSupply != "" {
		amt, err := ParseAmount(req.MaxSupply)
		if err != nil {
			return ResourceAddress{}, err
		}
		maxSupply = amt
	}
	rm := d.process.RegisterResourceManager(resourceType, divisibility, req.Metadata, maxSupply, MethodAuthRules{})
	return rm.ResourceAddress(), nil
}

func (d *HostDispatcher) mintResource(frame *Frame, addr ResourceAddress, amountStr string) (BucketId, error) {
	rm, ok := d.process.resources[addr]
	if !ok {
		return 0, ErrResourceManagerNotFound
	}
	amt, err := ParseAmount(amountStr)
	if err != nil {
		return 0, err
	}
	container, err := rm.Mint(amt, proofVector(frame.auth, nil))
	if err != nil {
		return 0, err
	}
	id := d.process.ids.NewBucketId()
	frame.buckets[id] = NewBucket(container)
	return id, nil
}

func (d *HostDispatcher) burnResource(frame *Frame, bucketId BucketId) error {
	b, ok := frame.buckets[bucketId]
	if !ok {
		return ErrBucketNotFound
	}
	container, err := b.TakeContainer()
	if err != nil {
		return err
	}
	rm, ok := d.process.resources[container.ResourceAddress()]
	if !ok {
		return ErrResourceManagerNotFound
	}
	if err := rm.Burn(container, proofVector(frame.auth, nil)); err != nil {
		return err
	}
	delete(frame.buckets, bucketId)
	return nil
}

func (d *HostDispatcher) getResourceMetadata(addr ResourceAddress) (map[string]string, error) {
	rm, ok := d.process.resources[addr]
	if !ok {
		return nil, ErrResourceManagerNotFound
	}
	return rm.Metadata(), nil
}

func (d *HostDispatcher) emptyContainerFor(addr ResourceAddress) (*ResourceContainer, error) {
	rm, ok := d.process.resources[addr]
	if !ok {
		return nil, ErrResourceManagerNotFound
	}
	if rm.ResourceType() == ResourceTypeFungible {
		return NewEmptyFungibleContainer(addr, rm.Divisibility()), nil
	}
	return NewEmptyNonFungibleContainer(addr), nil
}

func (d *HostDispatcher) createEmptyVault(frame *Frame, addr ResourceAddress) (VaultId, error) {
	container, err := d.emptyContainerFor(addr)
	if err != nil {
		return VaultId{}, err
	}
	id := d.process.ids.NewVaultId(frame.componentAddr)
	v := NewVault(id, container)
	if err := frame.objects.TakeOwnershipVault(v); err != nil {
		return VaultId{}, err
	}
	d.process.vaults[id] = v
	return id, nil
}

func (d *HostDispatcher) putIntoVault(frame *Frame, vaultId VaultId, bucketId BucketId) error {
	if !frame.objects.CheckRef(vaultId) {
		return ErrVaultNotFound
	}
	v, ok := d.process.vaults[vaultId]
	if !ok {
		return ErrVaultNotFound
	}
	b, ok := frame.buckets[bucketId]
	if !ok {
		return ErrBucketNotFound
	}
	if err := v.Put(b); err != nil {
		return err
	}
	delete(frame.buckets, bucketId)
	return nil
}

func (d *HostDispatcher) takeFromVault(frame *Frame, vaultId VaultId, amountStr string) (BucketId, error) {
	if !frame.objects.CheckRef(vaultId) {
		return 0, ErrVaultNotFound
	}
	v, ok := d.process.vaults[vaultId]
	if !ok {
		return 0, ErrVaultNotFound
	}
	amt, err := ParseAmount(amountStr)
	if err != nil {
		return 0, err
	}
	b, err := v.Take(amt)
	if err != nil {
		return 0, err
	}
	id := d.process.ids.NewBucketId()
	frame.buckets[id] = b
	return id, nil
}

func (d *HostDispatcher) createBucket(frame *Frame, addr ResourceAddress) (BucketId, error) {
	container, err := d.emptyContainerFor(addr)
	if err != nil {
		return 0, err
	}
	id := d.process.ids.NewBucketId()
	frame.buckets[id] = NewBucket(container)
	return id, nil
}

// attachBuckets gives each returned bucket a fresh id owned by frame -- the
// same "fresh id on every frame-boundary crossing" rule spawnFrame applies
// to a call's arguments (core/process.go).
func (d *HostDispatcher) attachBuckets(frame *Frame, buckets []*Bucket) []BucketId {
	ids := make([]BucketId, 0, len(buckets))
	for _, b := range buckets {
		id := d.process.ids.NewBucketId()
		frame.buckets[id] = b
		ids = append(ids, id)
	}
	return ids
}

func (d *HostDispatcher) invokeFunction(frame *Frame, pkg PackageAddress, blueprint, function string, args ScryptoValue) (ScryptoValue, []BucketId, error) {
	result, buckets, err := d.process.CallFunction(pkg, blueprint, function, args)
	if err != nil {
		return ScryptoValue{}, nil, err
	}
	return result, d.attachBuckets(frame, buckets), nil
}

func (d *HostDispatcher) invokeMethod(frame *Frame, component ComponentAddress, method string, args ScryptoValue) (ScryptoValue, []BucketId, error) {
	result, buckets, err := d.process.CallMethod(component, method, args)
	if err != nil {
		return ScryptoValue{}, nil, err
	}
	return result, d.attachBuckets(frame, buckets), nil
}

func (d *HostDispatcher) emitLog(level, message string) {
	entry := guestLog.WithField("source", "guest")
	switch level {
	case "error":
		entry.Error(message)
	case "warn":
		entry.Warn(message)
	case "debug":
		entry.Debug(message)
	default:
		entry.Info(message)
	}
}

func (d *HostDispatcher) callData(frame *Frame) hostCallDataResponse {
	return hostCallDataResponse{
		PackageAddress:   frame.packageAddress,
		BlueprintName:    frame.blueprintName,
		ComponentAddress: frame.componentAddr,
		EntryPoint:       frame.entryPoint,
	}
}

// Register installs the host calls as wasmer-go import functions in the
// "env" namespace, closing over frame so each trampoline operates on the
// correct call frame's buckets/proofs/auth-zone/objects (spec §6.2).
// get_component_info, get_resource_total_supply, get_non_fungible_data,
// update_non_fungible_data, get_vault_amount, get_vault_non_fungible_ids
// and create_proof are declared above but not installed.
func (d *HostDispatcher) Register(store *wasmer.Store, importObject *wasmer.ImportObject, frame *Frame) {
	fns := make(map[string]wasmer.IntoExtern)

	// Host calls whose request or response does not fit a scalar take a
	// (ptr,len) pair of raw i32 guest-memory offsets and/or return a
	// (ptr,len) packed into an i64, mirroring GuestRuntime.Invoke's own
	// request/response convention (two raw i32 in, one packed i64 out).
	// Calls whose payload is just ids/amounts instead take/return i32/i64
	// scalars directly, avoiding a memory round trip on the hottest-path
	// calls (amount reads, id allocation, bucket/proof movement).

	fns[string(HostCallGenerateUuid)] = wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(wasmer.NewValueTypes(), wasmer.NewValueTypes(wasmer.I64)),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			if err := d.meter.ChargeHostCall(string(HostCallGenerateUuid)); err != nil {
				return nil, err
			}
			id := uuid.New()
			hi := int64(beUint32(id[:4]))<<32 | int64(beUint32(id[4:8]))
			return []wasmer.Value{wasmer.NewI64(hi)}, nil
		},
	)

	fns[string(HostCallGetBucketAmount)] = wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(wasmer.NewValueTypes(wasmer.I32), wasmer.NewValueTypes(wasmer.I64)),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			if err := d.meter.ChargeHostCall(string(HostCallGetBucketAmount)); err != nil {
				return nil, err
			}
			id := BucketId(uint32(args[0].I32()))
			b, ok := frame.buckets[id]
			if !ok {
				return nil, ErrBucketNotFound
			}
			whole, _ := b.Amount().AsUint64Count()
			return []wasmer.Value{wasmer.NewI64(int64(whole))}, nil
		},
	)

	fns[string(HostCallDropProof)] = wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(wasmer.NewValueTypes(wasmer.I32), wasmer.NewValueTypes()),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			if err := d.meter.ChargeHostCall(string(HostCallDropProof)); err != nil {
				return nil, err
			}
			id := ProofId(uint32(args[0].I32()))
			p, ok := frame.proofs[id]
			if !ok {
				return nil, ErrProofNotFound
			}
			delete(frame.proofs, id)
			return nil, p.Drop()
		},
	)

	fns[string(HostCallPopFromAuthZone)] = wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(wasmer.NewValueTypes(), wasmer.NewValueTypes(wasmer.I32)),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			if err := d.meter.ChargeHostCall(string(HostCallPopFromAuthZone)); err != nil {
				return nil, err
			}
			p, err := frame.auth.Pop()
			if err != nil {
				return nil, err
			}
			id := d.process.ids.NewProofId()
			frame.proofs[id] = p
			return []wasmer.Value{wasmer.NewI32(int32(id))}, nil
		},
	)

	fns[string(HostCallPushToAuthZone)] = wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(wasmer.NewValueTypes(wasmer.I32), wasmer.NewValueTypes()),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			if err := d.meter.ChargeHostCall(string(HostCallPushToAuthZone)); err != nil {
				return nil, err
			}
			id := ProofId(uint32(args[0].I32()))
			p, ok := frame.proofs[id]
			if !ok {
				return nil, ErrProofNotFound
			}
			if err := frame.auth.Push(p); err != nil {
				return nil, err
			}
			delete(frame.proofs, id)
			return nil, nil
		},
	)

	fns[string(HostCallClearAuthZone)] = wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(wasmer.NewValueTypes(), wasmer.NewValueTypes()),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			if err := d.meter.ChargeHostCall(string(HostCallClearAuthZone)); err != nil {
				return nil, err
			}
			return nil, frame.auth.Clear()
		},
	)

	fns[string(HostCallPutIntoBucket)] = wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(wasmer.NewValueTypes(wasmer.I32, wasmer.I32), wasmer.NewValueTypes()),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			if err := d.meter.ChargeHostCall(string(HostCallPutIntoBucket)); err != nil {
				return nil, err
			}
			dst := BucketId(uint32(args[0].I32()))
			src := BucketId(uint32(args[1].I32()))
			target, ok := frame.buckets[dst]
			if !ok {
				return nil, ErrBucketNotFound
			}
			source, ok := frame.buckets[src]
			if !ok {
				return nil, ErrBucketNotFound
			}
			if err := target.Put(source); err != nil {
				return nil, err
			}
			delete(frame.buckets, src)
			return nil, nil
		},
	)

	fns[string(HostCallTakeFromBucket)] = wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(wasmer.NewValueTypes(wasmer.I32, wasmer.I64), wasmer.NewValueTypes(wasmer.I32)),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			if err := d.meter.ChargeHostCall(string(HostCallTakeFromBucket)); err != nil {
				return nil, err
			}
			src := BucketId(uint32(args[0].I32()))
			b, ok := frame.buckets[src]
			if !ok {
				return nil, ErrBucketNotFound
			}
			taken, err := b.Take(AmountFromInt(args[1].I64()))
			if err != nil {
				return nil, err
			}
			id := d.process.ids.NewBucketId()
			frame.buckets[id] = taken
			return []wasmer.Value{wasmer.NewI32(int32(id))}, nil
		},
	)

	fns[string(HostCallCloneProof)] = wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(wasmer.NewValueTypes(wasmer.I32), wasmer.NewValueTypes(wasmer.I32)),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			if err := d.meter.ChargeHostCall(string(HostCallCloneProof)); err != nil {
				return nil, err
			}
			src := ProofId(uint32(args[0].I32()))
			p, ok := frame.proofs[src]
			if !ok {
				return nil, ErrProofNotFound
			}
			clone, err := p.Clone()
			if err != nil {
				return nil, err
			}
			id := d.process.ids.NewProofId()
			frame.proofs[id] = clone
			return []wasmer.Value{wasmer.NewI32(int32(id))}, nil
		},
	)

	fns[string(HostCallGetActor)] = wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(wasmer.NewValueTypes(), wasmer.NewValueTypes(wasmer.I32)),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			if err := d.meter.ChargeHostCall(string(HostCallGetActor)); err != nil {
				return nil, err
			}
			return []wasmer.Value{wasmer.NewI32(int32(frame.state))}, nil
		},
	)

	fns[string(HostCallCreateComponent)] = wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(wasmer.NewValueTypes(wasmer.I32, wasmer.I32), wasmer.NewValueTypes(wasmer.I64)),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			if err := d.meter.ChargeHostCall(string(HostCallCreateComponent)); err != nil {
				return nil, err
			}
			var req hostCreateComponentRequest
			if err := d.decodeRequest(args[0].I32(), args[1].I32(), &req); err != nil {
				return nil, err
			}
			addr, err := d.createComponent(frame, req.BlueprintName, ScryptoValue{Bytes: req.State})
			if err != nil {
				return nil, err
			}
			packed, err := d.encodeResponse(hostComponentResponse{Address: addr})
			if err != nil {
				return nil, err
			}
			return []wasmer.Value{wasmer.NewI64(packed)}, nil
		},
	)

	fns[string(HostCallGetComponentState)] = wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(wasmer.NewValueTypes(), wasmer.NewValueTypes(wasmer.I64)),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			if err := d.meter.ChargeHostCall(string(HostCallGetComponentState)); err != nil {
				return nil, err
			}
			state, err := d.getComponentState(frame)
			if err != nil {
				return nil, err
			}
			packed, err := d.encodeResponse(hostStateResponse{State: state.Bytes})
			if err != nil {
				return nil, err
			}
			return []wasmer.Value{wasmer.NewI64(packed)}, nil
		},
	)

	fns[string(HostCallPutComponentState)] = wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(wasmer.NewValueTypes(wasmer.I32, wasmer.I32), wasmer.NewValueTypes()),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			if err := d.meter.ChargeHostCall(string(HostCallPutComponentState)); err != nil {
				return nil, err
			}
			var req hostPutComponentStateRequest
			if err := d.decodeRequest(args[0].I32(), args[1].I32(), &req); err != nil {
				return nil, err
			}
			return nil, d.putComponentState(frame, ScryptoValue{Bytes: req.State})
		},
	)

	fns[string(HostCallCreateLazyMap)] = wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(wasmer.NewValueTypes(), wasmer.NewValueTypes(wasmer.I64)),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			if err := d.meter.ChargeHostCall(string(HostCallCreateLazyMap)); err != nil {
				return nil, err
			}
			id, err := d.createLazyMap(frame)
			if err != nil {
				return nil, err
			}
			packed, err := d.encodeResponse(hostLazyMapResponse{Id: id})
			if err != nil {
				return nil, err
			}
			return []wasmer.Value{wasmer.NewI64(packed)}, nil
		},
	)

	fns[string(HostCallGetLazyMapEntry)] = wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(wasmer.NewValueTypes(wasmer.I32, wasmer.I32), wasmer.NewValueTypes(wasmer.I64)),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			if err := d.meter.ChargeHostCall(string(HostCallGetLazyMapEntry)); err != nil {
				return nil, err
			}
			var req hostLazyMapGetRequest
			if err := d.decodeRequest(args[0].I32(), args[1].I32(), &req); err != nil {
				return nil, err
			}
			value, found, err := d.getLazyMapEntry(frame, req.Id, req.Key)
			if err != nil {
				return nil, err
			}
			packed, err := d.encodeResponse(hostLazyMapGetResponse{Found: found, Value: value.Bytes})
			if err != nil {
				return nil, err
			}
			return []wasmer.Value{wasmer.NewI64(packed)}, nil
		},
	)

	fns[string(HostCallPutLazyMapEntry)] = wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(wasmer.NewValueTypes(wasmer.I32, wasmer.I32), wasmer.NewValueTypes()),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			if err := d.meter.ChargeHostCall(string(HostCallPutLazyMapEntry)); err != nil {
				return nil, err
			}
			var req hostLazyMapPutRequest
			if err := d.decodeRequest(args[0].I32(), args[1].I32(), &req); err != nil {
				return nil, err
			}
			return nil, d.putLazyMapEntry(frame, req.Id, req.Key, ScryptoValue{Bytes: req.Value})
		},
	)

	fns[string(HostCallCreateResource)] = wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(wasmer.NewValueTypes(wasmer.I32, wasmer.I32), wasmer.NewValueTypes(wasmer.I64)),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			if err := d.meter.ChargeHostCall(string(HostCallCreateResource)); err != nil {
				return nil, err
			}
			var req hostCreateResourceRequest
			if err := d.decodeRequest(args[0].I32(), args[1].I32(), &req); err != nil {
				return nil, err
			}
			addr, err := d.createResource(req)
			if err != nil {
				return nil, err
			}
			packed, err := d.encodeResponse(hostResourceResponse{Address: addr})
			if err != nil {
				return nil, err
			}
			return []wasmer.Value{wasmer.NewI64(packed)}, nil
		},
	)

	fns[string(HostCallGetResourceMetadata)] = wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(wasmer.NewValueTypes(wasmer.I32, wasmer.I32), wasmer.NewValueTypes(wasmer.I64)),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			if err := d.meter.ChargeHostCall(string(HostCallGetResourceMetadata)); err != nil {
				return nil, err
			}
			var req hostCreateVaultOrBucketRequest
			if err := d.decodeRequest(args[0].I32(), args[1].I32(), &req); err != nil {
				return nil, err
			}
			metadata, err := d.getResourceMetadata(req.Address)
			if err != nil {
				return nil, err
			}
			packed, err := d.encodeResponse(hostMetadataResponse{Metadata: metadata})
			if err != nil {
				return nil, err
			}
			return []wasmer.Value{wasmer.NewI64(packed)}, nil
		},
	)

	fns[string(HostCallMintResource)] = wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(wasmer.NewValueTypes(wasmer.I32, wasmer.I32), wasmer.NewValueTypes(wasmer.I32)),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			if err := d.meter.ChargeHostCall(string(HostCallMintResource)); err != nil {
				return nil, err
			}
			var req hostMintResourceRequest
			if err := d.decodeRequest(args[0].I32(), args[1].I32(), &req); err != nil {
				return nil, err
			}
			id, err := d.mintResource(frame, req.Address, req.Amount)
			if err != nil {
				return nil, err
			}
			return []wasmer.Value{wasmer.NewI32(int32(id))}, nil
		},
	)

	fns[string(HostCallBurnResource)] = wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(wasmer.NewValueTypes(wasmer.I32), wasmer.NewValueTypes()),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			if err := d.meter.ChargeHostCall(string(HostCallBurnResource)); err != nil {
				return nil, err
			}
			return nil, d.burnResource(frame, BucketId(uint32(args[0].I32())))
		},
	)

	fns[string(HostCallCreateEmptyVault)] = wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(wasmer.NewValueTypes(wasmer.I32, wasmer.I32), wasmer.NewValueTypes(wasmer.I64)),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			if err := d.meter.ChargeHostCall(string(HostCallCreateEmptyVault)); err != nil {
				return nil, err
			}
			var req hostCreateVaultOrBucketRequest
			if err := d.decodeRequest(args[0].I32(), args[1].I32(), &req); err != nil {
				return nil, err
			}
			id, err := d.createEmptyVault(frame, req.Address)
			if err != nil {
				return nil, err
			}
			packed, err := d.encodeResponse(hostVaultResponse{Vault: id})
			if err != nil {
				return nil, err
			}
			return []wasmer.Value{wasmer.NewI64(packed)}, nil
		},
	)

	fns[string(HostCallPutIntoVault)] = wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(wasmer.NewValueTypes(wasmer.I32, wasmer.I32), wasmer.NewValueTypes()),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			if err := d.meter.ChargeHostCall(string(HostCallPutIntoVault)); err != nil {
				return nil, err
			}
			var req hostPutIntoVaultRequest
			if err := d.decodeRequest(args[0].I32(), args[1].I32(), &req); err != nil {
				return nil, err
			}
			return nil, d.putIntoVault(frame, req.Vault, req.Bucket)
		},
	)

	fns[string(HostCallTakeFromVault)] = wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(wasmer.NewValueTypes(wasmer.I32, wasmer.I32), wasmer.NewValueTypes(wasmer.I32)),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			if err := d.meter.ChargeHostCall(string(HostCallTakeFromVault)); err != nil {
				return nil, err
			}
			var req hostTakeFromVaultRequest
			if err := d.decodeRequest(args[0].I32(), args[1].I32(), &req); err != nil {
				return nil, err
			}
			id, err := d.takeFromVault(frame, req.Vault, req.Amount)
			if err != nil {
				return nil, err
			}
			return []wasmer.Value{wasmer.NewI32(int32(id))}, nil
		},
	)

	fns[string(HostCallCreateBucket)] = wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(wasmer.NewValueTypes(wasmer.I32, wasmer.I32), wasmer.NewValueTypes(wasmer.I32)),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			if err := d.meter.ChargeHostCall(string(HostCallCreateBucket)); err != nil {
				return nil, err
			}
			var req hostCreateVaultOrBucketRequest
			if err := d.decodeRequest(args[0].I32(), args[1].I32(), &req); err != nil {
				return nil, err
			}
			id, err := d.createBucket(frame, req.Address)
			if err != nil {
				return nil, err
			}
			return []wasmer.Value{wasmer.NewI32(int32(id))}, nil
		},
	)

	fns[string(HostCallInvokeFunction)] = wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(wasmer.NewValueTypes(wasmer.I32, wasmer.I32), wasmer.NewValueTypes(wasmer.I64)),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			if err := d.meter.ChargeHostCall(string(HostCallInvokeFunction)); err != nil {
				return nil, err
			}
			var req hostInvokeFunctionRequest
			if err := d.decodeRequest(args[0].I32(), args[1].I32(), &req); err != nil {
				return nil, err
			}
			result, buckets, err := d.invokeFunction(frame, req.Package, req.Blueprint, req.Function, ScryptoValue{Bytes: req.Args})
			if err != nil {
				return nil, err
			}
			packed, err := d.encodeResponse(hostInvokeResponse{Result: result.Bytes, Buckets: buckets})
			if err != nil {
				return nil, err
			}
			return []wasmer.Value{wasmer.NewI64(packed)}, nil
		},
	)

	fns[string(HostCallInvokeMethod)] = wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(wasmer.NewValueTypes(wasmer.I32, wasmer.I32), wasmer.NewValueTypes(wasmer.I64)),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			if err := d.meter.ChargeHostCall(string(HostCallInvokeMethod)); err != nil {
				return nil, err
			}
			var req hostInvokeMethodRequest
			if err := d.decodeRequest(args[0].I32(), args[1].I32(), &req); err != nil {
				return nil, err
			}
			result, buckets, err := d.invokeMethod(frame, req.Component, req.Method, ScryptoValue{Bytes: req.Args})
			if err != nil {
				return nil, err
			}
			packed, err := d.encodeResponse(hostInvokeResponse{Result: result.Bytes, Buckets: buckets})
			if err != nil {
				return nil, err
			}
			return []wasmer.Value{wasmer.NewI64(packed)}, nil
		},
	)

	fns[string(HostCallEmitLog)] = wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(wasmer.NewValueTypes(wasmer.I32, wasmer.I32), wasmer.NewValueTypes()),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			if err := d.meter.ChargeHostCall(string(HostCallEmitLog)); err != nil {
				return nil, err
			}
			var req hostEmitLogRequest
			if err := d.decodeRequest(args[0].I32(), args[1].I32(), &req); err != nil {
				return nil, err
			}
			d.emitLog(req.Level, req.Message)
			return nil, nil
		},
	)

	fns[string(HostCallGetCallData)] = wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(wasmer.NewValueTypes(), wasmer.NewValueTypes(wasmer.I64)),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			if err := d.meter.ChargeHostCall(string(HostCallGetCallData)); err != nil {
				return nil, err
			}
			packed, err := d.encodeResponse(d.callData(frame))
			if err != nil {
				return nil, err
			}
			return []wasmer.Value{wasmer.NewI64(packed)}, nil
		},
	)

	imports := make(map[string]wasmer.IntoExtern, len(fns))
	for name, fn := range fns {
		imports[name] = fn
	}
	importObject.Register("env", imports)
}
