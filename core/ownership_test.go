package core

import "testing"

func TestObjectOwnershipTrackerRejectsForgedRef(t *testing.T) {
	tracker := NewObjectOwnershipTracker(nil)
	var vaultId VaultId
	vaultId[0] = 1
	if tracker.CheckRef(vaultId) {
		t.Fatal("an id never handed to this frame must not check out as valid")
	}
}

func TestObjectOwnershipTrackerAcceptsInitialRef(t *testing.T) {
	var vaultId VaultId
	vaultId[0] = 2
	tracker := NewObjectOwnershipTracker([]interface{}{vaultId})
	if !tracker.CheckRef(vaultId) {
		t.Fatal("an id the frame was seeded with should check out as valid")
	}
}

func TestObjectOwnershipTrackerTakeOwnershipVault(t *testing.T) {
	tracker := NewObjectOwnershipTracker(nil)
	resourceAddr := testResourceAddress(1)
	v := NewVault(VaultId{3}, NewEmptyFungibleContainer(resourceAddr, 18))

	if err := tracker.TakeOwnershipVault(v); err != nil {
		t.Fatalf("TakeOwnershipVault: %v", err)
	}
	if !tracker.CheckRef(v.Id()) {
		t.Fatal("a newly taken vault should be a valid ref")
	}
	got, err := tracker.Vault(v.Id())
	if err != nil || got != v {
		t.Fatalf("Vault lookup = %v, %v", got, err)
	}

	if err := tracker.TakeOwnershipVault(v); err != ErrDuplicateVault {
		t.Fatalf("got %v, want ErrDuplicateVault on re-registration", err)
	}
}

func TestObjectOwnershipTrackerVaultNotFound(t *testing.T) {
	tracker := NewObjectOwnershipTracker(nil)
	if _, err := tracker.Vault(VaultId{9}); err != ErrVaultNotFound {
		t.Fatalf("got %v, want ErrVaultNotFound", err)
	}
}

func TestLazyMapGetPutKeys(t *testing.T) {
	m := NewLazyMap(LazyMapId{1})
	value, err := EncodeScryptoValue("hello")
	if err != nil {
		t.Fatalf("EncodeScryptoValue: %v", err)
	}
	m.Put([]byte("greeting"), value)

	got, ok := m.Get([]byte("greeting"))
	if !ok {
		t.Fatal("expected the stored entry to be found")
	}
	var decoded string
	if err := got.Decode(&decoded); err != nil || decoded != "hello" {
		t.Fatalf("decoded = %q, err = %v", decoded, err)
	}
	if keys := m.Keys(); len(keys) != 1 || string(keys[0]) != "greeting" {
		t.Fatalf("Keys() = %v", keys)
	}
}

func TestDetectCycleNoCycle(t *testing.T) {
	a, b, c := LazyMapId{1}, LazyMapId{2}, LazyMapId{3}
	graph := map[LazyMapId][]LazyMapId{a: {b}, b: {c}, c: {}}
	err := DetectCycle(a, func(id LazyMapId) (*LazyMap, []LazyMapId, bool) {
		children, ok := graph[id]
		return nil, children, ok
	})
	if err != nil {
		t.Fatalf("DetectCycle on an acyclic graph: %v", err)
	}
}

func TestDetectCycleFindsCycle(t *testing.T) {
	a, b := LazyMapId{1}, LazyMapId{2}
	graph := map[LazyMapId][]LazyMapId{a: {b}, b: {a}}
	err := DetectCycle(a, func(id LazyMapId) (*LazyMap, []LazyMapId, bool) {
		children, ok := graph[id]
		return nil, children, ok
	})
	if err != ErrCyclicLazyMap {
		t.Fatalf("got %v, want ErrCyclicLazyMap", err)
	}
}
