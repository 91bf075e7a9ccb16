package core

import "testing"

func TestComponentObjectRefsHarvestsVaultAndLazyMap(t *testing.T) {
	var vaultId VaultId
	vaultId[0] = 1
	var lazyMapId LazyMapId
	lazyMapId[0] = 2

	state, err := EncodeScryptoValue(map[string]interface{}{
		"balance": vaultId,
		"entries": lazyMapId,
	})
	if err != nil {
		t.Fatalf("EncodeScryptoValue: %v", err)
	}

	c := NewComponent(ComponentAddress{9}, PackageAddress{8}, "Wallet", state)
	vaults, lazyMaps, err := c.ObjectRefs()
	if err != nil {
		t.Fatalf("ObjectRefs: %v", err)
	}
	if len(vaults) != 1 || vaults[0] != vaultId {
		t.Fatalf("vaults = %v, want [%v]", vaults, vaultId)
	}
	if len(lazyMaps) != 1 || lazyMaps[0] != lazyMapId {
		t.Fatalf("lazyMaps = %v, want [%v]", lazyMaps, lazyMapId)
	}
}

func TestComponentSetStateReplacesState(t *testing.T) {
	initial, _ := EncodeScryptoValue(map[string]interface{}{"phase": "init"})
	c := NewComponent(ComponentAddress{1}, PackageAddress{1}, "Counter", initial)

	updated, _ := EncodeScryptoValue(map[string]interface{}{"phase": "running"})
	c.SetState(updated)

	var decoded map[string]interface{}
	if err := c.State.Decode(&decoded); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded["phase"] != "running" {
		t.Fatalf("phase = %v, want running", decoded["phase"])
	}
}
