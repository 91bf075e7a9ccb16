package core

import "testing"

func testResourceAddress(b byte) ResourceAddress {
	var a ResourceAddress
	a[0] = b
	return a
}

func TestResourceContainerPutTake(t *testing.T) {
	addr := testResourceAddress(1)
	c := NewEmptyFungibleContainer(addr, 18)
	if err := c.mint(AmountFromInt(10)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	taken, err := c.Take(AmountFromInt(4))
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	if taken.LiquidAmount().Cmp(AmountFromInt(4)) != 0 {
		t.Fatalf("taken amount = %s, want 4", taken.LiquidAmount())
	}
	if c.LiquidAmount().Cmp(AmountFromInt(6)) != 0 {
		t.Fatalf("remaining = %s, want 6", c.LiquidAmount())
	}

	if err := c.Put(taken); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if c.LiquidAmount().Cmp(AmountFromInt(10)) != 0 {
		t.Fatalf("after put = %s, want 10", c.LiquidAmount())
	}
}

func TestResourceContainerTakeInsufficient(t *testing.T) {
	c := NewEmptyFungibleContainer(testResourceAddress(1), 18)
	_ = c.mint(AmountFromInt(1))
	if _, err := c.Take(AmountFromInt(2)); err != ErrInsufficientBalance {
		t.Fatalf("got %v, want ErrInsufficientBalance", err)
	}
}

func TestResourceContainerLockUnlockAmount(t *testing.T) {
	c := NewEmptyFungibleContainer(testResourceAddress(1), 18)
	_ = c.mint(AmountFromInt(10))

	if err := c.LockAmount(AmountFromInt(4)); err != nil {
		t.Fatalf("LockAmount: %v", err)
	}
	if !c.IsLocked() {
		t.Fatal("container should be locked")
	}
	if c.LiquidAmount().Cmp(AmountFromInt(6)) != 0 {
		t.Fatalf("liquid = %s, want 6", c.LiquidAmount())
	}
	if _, err := c.Take(AmountFromInt(7)); err != ErrInsufficientBalance {
		t.Fatalf("taking beyond liquid should fail insufficient balance, got %v", err)
	}

	// a second lock at the same amount increments the same bucket's count
	if err := c.LockAmount(AmountFromInt(4)); err != nil {
		t.Fatalf("second LockAmount: %v", err)
	}
	if err := c.UnlockAmount(AmountFromInt(4)); err != nil {
		t.Fatalf("first UnlockAmount: %v", err)
	}
	if !c.IsLocked() {
		t.Fatal("container should still be locked after one of two unlocks")
	}
	if err := c.UnlockAmount(AmountFromInt(4)); err != nil {
		t.Fatalf("second UnlockAmount: %v", err)
	}
	if c.IsLocked() {
		t.Fatal("container should be unlocked")
	}
	if c.LiquidAmount().Cmp(AmountFromInt(10)) != 0 {
		t.Fatalf("liquid after full unlock = %s, want 10", c.LiquidAmount())
	}
}

func TestResourceContainerNonFungibleLockTakeOrdering(t *testing.T) {
	addr := testResourceAddress(2)
	c := NewEmptyNonFungibleContainer(addr)
	ids := []NonFungibleId{{3}, {1}, {2}}
	for _, id := range ids {
		c.mintNonFungible(id)
	}

	sorted := c.sortedLiquidIds()
	if len(sorted) != 3 || sorted[0].String() >= sorted[1].String() || sorted[1].String() >= sorted[2].String() {
		t.Fatalf("sortedLiquidIds not ascending: %v", sorted)
	}

	if err := c.LockNonFungibles([]NonFungibleId{{1}}); err != nil {
		t.Fatalf("LockNonFungibles: %v", err)
	}
	if _, err := c.TakeNonFungibles([]NonFungibleId{{1}}); err != ErrInsufficientBalance {
		t.Fatalf("taking a locked id should fail, got %v", err)
	}
	if err := c.UnlockNonFungibles([]NonFungibleId{{1}}); err != nil {
		t.Fatalf("UnlockNonFungibles: %v", err)
	}
	if _, err := c.TakeNonFungibles([]NonFungibleId{{1}}); err != nil {
		t.Fatalf("taking an unlocked id should succeed, got %v", err)
	}
}

func TestResourceContainerPutResourceAddressMismatch(t *testing.T) {
	a := NewEmptyFungibleContainer(testResourceAddress(1), 18)
	b := NewEmptyFungibleContainer(testResourceAddress(2), 18)
	if err := a.Put(b); err != ErrResourceAddressNotMatching {
		t.Fatalf("got %v, want ErrResourceAddressNotMatching", err)
	}
}
