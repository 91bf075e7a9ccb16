package core

import "testing"

// newTestDispatcher returns a dispatcher bound to a fresh process, with no
// guest instance/memory -- sufficient for exercising the business-logic
// methods directly, the same way process_test.go exercises frame machinery
// without a wasm host loaded.
func newTestDispatcher() (*HostDispatcher, *Process) {
	p := newTestProcess()
	return NewHostDispatcher(p, NewTbdMeter(1_000_000, DefaultCostTable())), p
}

func newTestFrame(componentAddr ComponentAddress) *Frame {
	return &Frame{
		componentAddr: componentAddr,
		buckets:       make(map[BucketId]*Bucket),
		proofs:        make(map[ProofId]*Proof),
		auth:          NewAuthZone(),
		objects:       NewObjectOwnershipTracker(nil),
	}
}

func TestCreateComponentAndStateRoundTrip(t *testing.T) {
	d, p := newTestDispatcher()
	frame := newTestFrame(ComponentAddress{})

	state, err := EncodeScryptoValue(map[string]interface{}{"count": int64(0)})
	if err != nil {
		t.Fatalf("EncodeScryptoValue: %v", err)
	}
	addr, err := d.createComponent(frame, "Counter", state)
	if err != nil {
		t.Fatalf("createComponent: %v", err)
	}
	if _, ok := p.components[addr]; !ok {
		t.Fatal("createComponent did not register the component")
	}

	owner := newTestFrame(addr)
	got, err := d.getComponentState(owner)
	if err != nil {
		t.Fatalf("getComponentState: %v", err)
	}
	var decoded map[string]interface{}
	if err := got.Decode(&decoded); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if decoded["count"] != int64(0) {
		t.Fatalf("got %v, want count=0", decoded)
	}

	next, err := EncodeScryptoValue(map[string]interface{}{"count": int64(1)})
	if err != nil {
		t.Fatalf("EncodeScryptoValue: %v", err)
	}
	if err := d.putComponentState(owner, next); err != nil {
		t.Fatalf("putComponentState: %v", err)
	}
	if p.components[addr].State.Bytes == nil {
		t.Fatal("putComponentState did not update the component")
	}
}

func TestGetPutComponentStateScopedToOwnFrame(t *testing.T) {
	d, _ := newTestDispatcher()
	frame := newTestFrame(ComponentAddress{})
	state, _ := EncodeScryptoValue(map[string]interface{}{})
	addr, err := d.createComponent(frame, "Thing", state)
	if err != nil {
		t.Fatalf("createComponent: %v", err)
	}

	other := newTestFrame(ComponentAddress{0xff})
	if _, err := d.getComponentState(other); err != ErrComponentNotFound {
		t.Fatalf("got %v, want ErrComponentNotFound when the frame's own component address is not the one created", err)
	}

	owner := newTestFrame(addr)
	if err := d.putComponentState(owner, state); err != nil {
		t.Fatalf("putComponentState on the owning frame: %v", err)
	}
	if err := d.putComponentState(other, state); err != ErrComponentNotFound {
		t.Fatalf("got %v, want ErrComponentNotFound writing through an unrelated frame", err)
	}
}

func TestCreateComponentRejectsEmbeddedBucket(t *testing.T) {
	d, _ := newTestDispatcher()
	frame := newTestFrame(ComponentAddress{})
	bucketId := BucketId(7)
	frame.buckets[bucketId] = NewBucket(NewEmptyFungibleContainer(testResourceAddress(1), 18))

	state, err := EncodeScryptoValue(bucketId)
	if err != nil {
		t.Fatalf("EncodeScryptoValue: %v", err)
	}
	if _, err := d.createComponent(frame, "Bad", state); err != ErrBucketNotAllowed {
		t.Fatalf("got %v, want ErrBucketNotAllowed", err)
	}
}

func TestCreateComponentRejectsForgedVaultRef(t *testing.T) {
	d, _ := newTestDispatcher()
	frame := newTestFrame(ComponentAddress{})

	var forged VaultId
	forged[0] = 0xaa
	state, err := EncodeScryptoValue(forged)
	if err != nil {
		t.Fatalf("EncodeScryptoValue: %v", err)
	}
	if _, err := d.createComponent(frame, "Bad", state); err != ErrVaultNotFound {
		t.Fatalf("got %v, want ErrVaultNotFound for a vault id the frame never took ownership of", err)
	}
}

func TestLazyMapCreateGetPut(t *testing.T) {
	d, _ := newTestDispatcher()
	frame := newTestFrame(ComponentAddress{1})

	id, err := d.createLazyMap(frame)
	if err != nil {
		t.Fatalf("createLazyMap: %v", err)
	}
	if !frame.objects.CheckRef(id) {
		t.Fatal("createLazyMap should grant the owning frame a reference")
	}

	if _, found, err := d.getLazyMapEntry(frame, id, []byte("k")); err != nil || found {
		t.Fatalf("got (found=%v, err=%v), want (false, nil) before any Put", found, err)
	}

	value, err := EncodeScryptoValue("v")
	if err != nil {
		t.Fatalf("EncodeScryptoValue: %v", err)
	}
	if err := d.putLazyMapEntry(frame, id, []byte("k"), value); err != nil {
		t.Fatalf("putLazyMapEntry: %v", err)
	}

	got, found, err := d.getLazyMapEntry(frame, id, []byte("k"))
	if err != nil || !found {
		t.Fatalf("got (found=%v, err=%v), want (true, nil)", found, err)
	}
	var decoded string
	if err := got.Decode(&decoded); err != nil || decoded != "v" {
		t.Fatalf("got %q, err=%v, want \"v\"", decoded, err)
	}
}

func TestLazyMapRejectsForgedRef(t *testing.T) {
	d, _ := newTestDispatcher()
	owner := newTestFrame(ComponentAddress{1})
	id, err := d.createLazyMap(owner)
	if err != nil {
		t.Fatalf("createLazyMap: %v", err)
	}

	stranger := newTestFrame(ComponentAddress{2})
	if _, _, err := d.getLazyMapEntry(stranger, id, []byte("k")); err != ErrLazyMapNotFound {
		t.Fatalf("got %v, want ErrLazyMapNotFound for a lazy map the frame was never given", err)
	}
	value, _ := EncodeScryptoValue("v")
	if err := d.putLazyMapEntry(stranger, id, []byte("k"), value); err != ErrLazyMapNotFound {
		t.Fatalf("got %v, want ErrLazyMapNotFound", err)
	}
}

func TestLazyMapPutRejectsEmbeddedProof(t *testing.T) {
	d, _ := newTestDispatcher()
	frame := newTestFrame(ComponentAddress{1})
	id, err := d.createLazyMap(frame)
	if err != nil {
		t.Fatalf("createLazyMap: %v", err)
	}
	proofId := ProofId(3)
	frame.proofs[proofId] = nil // presence in refs is all harvest checks, not nilness
	value, err := EncodeScryptoValue(proofId)
	if err != nil {
		t.Fatalf("EncodeScryptoValue: %v", err)
	}
	if err := d.putLazyMapEntry(frame, id, []byte("k"), value); err != ErrProofNotAllowed {
		t.Fatalf("got %v, want ErrProofNotAllowed", err)
	}
}

func TestCreateResourceMintBurn(t *testing.T) {
	d, p := newTestDispatcher()
	addr, err := d.createResource(hostCreateResourceRequest{
		Fungible:     true,
		Divisibility: 18,
		Metadata:     map[string]string{"symbol": "VS"},
	})
	if err != nil {
		t.Fatalf("createResource: %v", err)
	}
	if _, ok := p.resources[addr]; !ok {
		t.Fatal("createResource did not register a resource manager")
	}

	metadata, err := d.getResourceMetadata(addr)
	if err != nil {
		t.Fatalf("getResourceMetadata: %v", err)
	}
	if metadata["symbol"] != "VS" {
		t.Fatalf("got %v, want symbol=VS", metadata)
	}

	frame := newTestFrame(ComponentAddress{})
	bucketId, err := d.mintResource(frame, addr, "10")
	if err != nil {
		t.Fatalf("mintResource: %v", err)
	}
	b, ok := frame.buckets[bucketId]
	if !ok {
		t.Fatal("mintResource did not attach the minted bucket to the frame")
	}
	if b.Amount().Cmp(AmountFromInt(10)) != 0 {
		t.Fatalf("got %s, want 10", b.Amount())
	}

	if err := d.burnResource(frame, bucketId); err != nil {
		t.Fatalf("burnResource: %v", err)
	}
	if _, ok := frame.buckets[bucketId]; ok {
		t.Fatal("burnResource should remove the bucket from the frame")
	}
	if p.resources[addr].TotalSupply().Cmp(ZeroAmount()) != 0 {
		t.Fatalf("got total supply %s, want 0 after burning everything minted", p.resources[addr].TotalSupply())
	}
}

func TestMintResourceUnknownAddress(t *testing.T) {
	d, _ := newTestDispatcher()
	frame := newTestFrame(ComponentAddress{})
	if _, err := d.mintResource(frame, testResourceAddress(99), "1"); err != ErrResourceManagerNotFound {
		t.Fatalf("got %v, want ErrResourceManagerNotFound", err)
	}
}

func TestVaultCreatePutTake(t *testing.T) {
	d, p := newTestDispatcher()
	addr, err := d.createResource(hostCreateResourceRequest{Fungible: true, Divisibility: 18})
	if err != nil {
		t.Fatalf("createResource: %v", err)
	}

	frame := newTestFrame(ComponentAddress{5})
	vaultId, err := d.createEmptyVault(frame, addr)
	if err != nil {
		t.Fatalf("createEmptyVault: %v", err)
	}
	if !frame.objects.CheckRef(vaultId) {
		t.Fatal("createEmptyVault should grant the owning frame a reference")
	}
	if _, ok := p.vaults[vaultId]; !ok {
		t.Fatal("createEmptyVault did not register the vault")
	}

	bucketId, err := d.mintResource(frame, addr, "5")
	if err != nil {
		t.Fatalf("mintResource: %v", err)
	}
	if err := d.putIntoVault(frame, vaultId, bucketId); err != nil {
		t.Fatalf("putIntoVault: %v", err)
	}
	if _, ok := frame.buckets[bucketId]; ok {
		t.Fatal("putIntoVault should consume the source bucket")
	}
	if p.vaults[vaultId].Amount().Cmp(AmountFromInt(5)) != 0 {
		t.Fatalf("got vault amount %s, want 5", p.vaults[vaultId].Amount())
	}

	takenId, err := d.takeFromVault(frame, vaultId, "2")
	if err != nil {
		t.Fatalf("takeFromVault: %v", err)
	}
	taken, ok := frame.buckets[takenId]
	if !ok {
		t.Fatal("takeFromVault did not attach the withdrawn bucket to the frame")
	}
	if taken.Amount().Cmp(AmountFromInt(2)) != 0 {
		t.Fatalf("got %s, want 2", taken.Amount())
	}
	if p.vaults[vaultId].Amount().Cmp(AmountFromInt(3)) != 0 {
		t.Fatalf("got remaining vault amount %s, want 3", p.vaults[vaultId].Amount())
	}
}

func TestVaultOperationsRejectForgedRef(t *testing.T) {
	d, p := newTestDispatcher()
	addr, _ := d.createResource(hostCreateResourceRequest{Fungible: true, Divisibility: 18})
	owner := newTestFrame(ComponentAddress{5})
	vaultId, err := d.createEmptyVault(owner, addr)
	if err != nil {
		t.Fatalf("createEmptyVault: %v", err)
	}
	_ = p

	stranger := newTestFrame(ComponentAddress{6})
	if _, err := d.takeFromVault(stranger, vaultId, "1"); err != ErrVaultNotFound {
		t.Fatalf("got %v, want ErrVaultNotFound", err)
	}
	bucketId, _ := d.mintResource(stranger, addr, "1")
	if err := d.putIntoVault(stranger, vaultId, bucketId); err != ErrVaultNotFound {
		t.Fatalf("got %v, want ErrVaultNotFound", err)
	}
}

func TestCreateBucketEmpty(t *testing.T) {
	d, _ := newTestDispatcher()
	addr, err := d.createResource(hostCreateResourceRequest{Fungible: true, Divisibility: 18})
	if err != nil {
		t.Fatalf("createResource: %v", err)
	}
	frame := newTestFrame(ComponentAddress{})
	bucketId, err := d.createBucket(frame, addr)
	if err != nil {
		t.Fatalf("createBucket: %v", err)
	}
	b, ok := frame.buckets[bucketId]
	if !ok {
		t.Fatal("createBucket did not attach the new bucket to the frame")
	}
	if !b.Amount().IsZero() {
		t.Fatalf("got %s, want an empty bucket", b.Amount())
	}
}

func TestInvokeFunctionAttachesReturnedBuckets(t *testing.T) {
	d, p := newTestDispatcher()
	addr := p.PublishPackage(nil, map[string]*Blueprint{
		"Faucet": {
			Name:      "Faucet",
			Functions: map[string]Abi{"dispense": {ArgCount: 0}},
			Methods:   map[string]Abi{},
		},
	})

	resourceAddr := testResourceAddress(11)
	p.Executor = func(proc *Process, frame *Frame, args ScryptoValue) (ScryptoValue, []*Bucket, error) {
		b := NewBucket(NewEmptyFungibleContainer(resourceAddr, 18))
		_ = b.container.mint(AmountFromInt(3))
		return args, []*Bucket{b}, nil
	}

	caller := newTestFrame(ComponentAddress{})
	p.current = caller
	args, _ := EncodeScryptoValue(map[string]interface{}{})
	result, buckets, err := d.invokeFunction(caller, addr, "Faucet", "dispense", args)
	if err != nil {
		t.Fatalf("invokeFunction: %v", err)
	}
	_ = result
	if len(buckets) != 1 {
		t.Fatalf("got %d buckets, want 1", len(buckets))
	}
	b, ok := caller.buckets[buckets[0]]
	if !ok {
		t.Fatal("invokeFunction did not attach the returned bucket to the calling frame")
	}
	if b.Amount().Cmp(AmountFromInt(3)) != 0 {
		t.Fatalf("got %s, want 3", b.Amount())
	}
}

func TestInvokeMethodAttachesReturnedBuckets(t *testing.T) {
	d, p := newTestDispatcher()
	addr := p.PublishPackage(nil, map[string]*Blueprint{
		"Faucet": {
			Name:      "Faucet",
			Functions: map[string]Abi{"new": {ArgCount: 0}},
			Methods:   map[string]Abi{"dispense": {ArgCount: 0}},
		},
	})
	state, _ := EncodeScryptoValue(map[string]interface{}{})
	comp := p.registerComponent(addr, "Faucet", state)

	resourceAddr := testResourceAddress(12)
	p.Executor = func(proc *Process, frame *Frame, args ScryptoValue) (ScryptoValue, []*Bucket, error) {
		b := NewBucket(NewEmptyFungibleContainer(resourceAddr, 18))
		_ = b.container.mint(AmountFromInt(7))
		return args, []*Bucket{b}, nil
	}

	caller := newTestFrame(ComponentAddress{})
	p.current = caller
	args, _ := EncodeScryptoValue(map[string]interface{}{})
	_, buckets, err := d.invokeMethod(caller, comp.Address, "dispense", args)
	if err != nil {
		t.Fatalf("invokeMethod: %v", err)
	}
	if len(buckets) != 1 {
		t.Fatalf("got %d buckets, want 1", len(buckets))
	}
	if _, ok := caller.buckets[buckets[0]]; !ok {
		t.Fatal("invokeMethod did not attach the returned bucket to the calling frame")
	}
}

func TestEmitLogDoesNotPanic(t *testing.T) {
	d, _ := newTestDispatcher()
	for _, level := range []string{"error", "warn", "debug", "info", ""} {
		d.emitLog(level, "test message")
	}
}

func TestCallData(t *testing.T) {
	d, _ := newTestDispatcher()
	frame := &Frame{
		packageAddress: PackageAddress{1},
		blueprintName:  "Widget",
		componentAddr:  ComponentAddress{2},
		entryPoint:     "do_thing",
	}
	resp := d.callData(frame)
	if resp.BlueprintName != "Widget" || resp.EntryPoint != "do_thing" {
		t.Fatalf("got %+v, want blueprint=Widget entry_point=do_thing", resp)
	}
	if resp.PackageAddress != frame.packageAddress || resp.ComponentAddress != frame.componentAddr {
		t.Fatal("callData did not echo the frame's addresses")
	}
}
