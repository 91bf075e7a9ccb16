package core

import "testing"

func TestResourceManagerMintRespectsMaxSupply(t *testing.T) {
	rm := NewResourceManager(testResourceAddress(1), ResourceTypeFungible, 18, nil, AmountFromInt(10), MethodAuthRules{})

	c, err := rm.Mint(AmountFromInt(10), nil)
	if err != nil {
		t.Fatalf("Mint up to max supply: %v", err)
	}
	if c.LiquidAmount().Cmp(AmountFromInt(10)) != 0 {
		t.Fatalf("minted = %s, want 10", c.LiquidAmount())
	}

	if _, err := rm.Mint(AmountFromInt(1), nil); err != ErrMaxMintAmountExceeded {
		t.Fatalf("got %v, want ErrMaxMintAmountExceeded", err)
	}
}

func TestResourceManagerMintRequiresAuth(t *testing.T) {
	authAddr := testResourceAddress(99)
	rules := MethodAuthRules{Mint: RequireResource(authAddr)}
	rm := NewResourceManager(testResourceAddress(1), ResourceTypeFungible, 18, nil, ZeroAmount(), rules)

	if _, err := rm.Mint(AmountFromInt(1), nil); err == nil {
		t.Fatal("expected mint without a badge proof to fail")
	}

	badge := NewEmptyFungibleContainer(authAddr, 18)
	_ = badge.mint(AmountFromInt(1))
	proof, err := ComposeFull([]*ResourceContainer{badge}, authAddr, ResourceTypeFungible)
	if err != nil {
		t.Fatalf("ComposeFull: %v", err)
	}
	if _, err := rm.Mint(AmountFromInt(1), []*Proof{proof}); err != nil {
		t.Fatalf("mint with badge proof: %v", err)
	}
}

func TestResourceManagerMintRejectsAmountBelowDivisibility(t *testing.T) {
	rm := NewResourceManager(testResourceAddress(1), ResourceTypeFungible, 0, nil, ZeroAmount(), MethodAuthRules{})

	amt, err := ParseAmount("0.1")
	if err != nil {
		t.Fatalf("ParseAmount: %v", err)
	}
	_, err = rm.Mint(amt, nil)
	invalid, ok := err.(*InvalidAmount)
	if !ok {
		t.Fatalf("got %v (%T), want *InvalidAmount", err, err)
	}
	if invalid.Divisibility != 0 {
		t.Fatalf("got divisibility %d, want 0", invalid.Divisibility)
	}
	if !rm.TotalSupply().IsZero() {
		t.Fatalf("total supply should be unchanged by a rejected mint, got %s", rm.TotalSupply())
	}
}

func TestResourceManagerBurnUpdatesSupply(t *testing.T) {
	rm := NewResourceManager(testResourceAddress(1), ResourceTypeFungible, 18, nil, ZeroAmount(), MethodAuthRules{})
	c, err := rm.Mint(AmountFromInt(5), nil)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if err := rm.Burn(c, nil); err != nil {
		t.Fatalf("Burn: %v", err)
	}
	if !rm.TotalSupply().IsZero() {
		t.Fatalf("total supply after burning everything = %s, want 0", rm.TotalSupply())
	}
}

func TestResourceManagerNonFungibleMintAndData(t *testing.T) {
	rm := NewResourceManager(testResourceAddress(2), ResourceTypeNonFungible, 0, nil, ZeroAmount(), MethodAuthRules{})
	id := NonFungibleId{1, 2, 3}
	data, err := EncodeScryptoValue(map[string]interface{}{"name": "widget"})
	if err != nil {
		t.Fatalf("EncodeScryptoValue: %v", err)
	}
	if _, err := rm.MintNonFungible(id, data, nil); err != nil {
		t.Fatalf("MintNonFungible: %v", err)
	}
	if _, err := rm.MintNonFungible(id, data, nil); err == nil {
		t.Fatal("minting a duplicate id should fail")
	}

	got, err := rm.GetNonFungibleData(id)
	if err != nil {
		t.Fatalf("GetNonFungibleData: %v", err)
	}
	var decoded map[string]interface{}
	if err := got.Decode(&decoded); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded["name"] != "widget" {
		t.Fatalf("got %v, want name=widget", decoded)
	}
}
