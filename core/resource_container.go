package core

import (
	"bytes"
	"sort"
)

// ResourceType distinguishes fungible resources (divisible amounts) from
// non-fungible resources (discrete, individually-identified units).
type ResourceType int

const (
	ResourceTypeFungible ResourceType = iota
	ResourceTypeNonFungible
)

// FungibleLock records how much of a liquid amount has been locked at a
// given amount-level, and by how many outstanding proofs (spec §4.2
// "ordered mapping from locked amount -> lock count"). Multiple proofs can
// each lock the same amount independently; the count tracks how many are
// currently alive for that amount.
type fungibleLock struct {
	amount Amount
	count  uint32
}

// nonFungibleLock tracks how many outstanding proofs have locked a given
// non-fungible id.
type nonFungibleLock struct {
	id    string
	count uint32
}

// ResourceContainer is the tagged fungible/non-fungible accumulator
// described in spec §4.2. A single struct models both variants, switching
// on resourceType, mirroring the teacher's BalanceTable pattern but adding
// the lock-counter bookkeeping proofs require.
type ResourceContainer struct {
	resourceAddress ResourceAddress
	resourceType    ResourceType
	divisibility    uint8 // meaningful only when resourceType == Fungible

	liquidAmount Amount
	liquidIds    map[string]NonFungibleId

	fungibleLocks    []fungibleLock
	nonFungibleLocks map[string]*nonFungibleLock
}

// NewEmptyFungibleContainer returns an empty fungible container for
// resourceAddress at the given divisibility.
func NewEmptyFungibleContainer(resourceAddress ResourceAddress, divisibility uint8) *ResourceContainer {
	return &ResourceContainer{
		resourceAddress: resourceAddress,
		resourceType:    ResourceTypeFungible,
		divisibility:    divisibility,
		liquidAmount:    ZeroAmount(),
	}
}

// NewEmptyNonFungibleContainer returns an empty non-fungible container for
// resourceAddress.
func NewEmptyNonFungibleContainer(resourceAddress ResourceAddress) *ResourceContainer {
	return &ResourceContainer{
		resourceAddress:  resourceAddress,
		resourceType:     ResourceTypeNonFungible,
		liquidIds:        make(map[string]NonFungibleId),
		nonFungibleLocks: make(map[string]*nonFungibleLock),
	}
}

func (c *ResourceContainer) ResourceAddress() ResourceAddress { return c.resourceAddress }
func (c *ResourceContainer) ResourceType() ResourceType        { return c.resourceType }
func (c *ResourceContainer) Divisibility() uint8                { return c.divisibility }

// LiquidAmount returns the unlocked quantity held (the non-fungible variant
// reports its liquid id count as a whole-number Amount).
func (c *ResourceContainer) LiquidAmount() Amount {
	if c.resourceType == ResourceTypeNonFungible {
		return AmountFromInt(int64(len(c.liquidIds)))
	}
	return c.liquidAmount
}

// LockedAmount returns the total currently locked, across all outstanding
// proofs (each amount-level or id contributes once to the total regardless
// of how many proofs reference it, since the resource itself is only
// unavailable once).
func (c *ResourceContainer) LockedAmount() Amount {
	if c.resourceType == ResourceTypeNonFungible {
		return AmountFromInt(int64(len(c.nonFungibleLocks)))
	}
	total := ZeroAmount()
	for _, l := range c.fungibleLocks {
		total, _ = total.Add(l.amount)
	}
	return total
}

// IsLocked reports whether any amount/id in this container is currently
// locked by a live proof (spec §4.3 "a bucket with lock count > 0 cannot be
// moved, merged, emptied, or burned").
func (c *ResourceContainer) IsLocked() bool {
	if c.resourceType == ResourceTypeNonFungible {
		return len(c.nonFungibleLocks) > 0
	}
	return len(c.fungibleLocks) > 0
}

func (c *ResourceContainer) checkAddress(other *ResourceContainer) error {
	if c.resourceAddress != other.resourceAddress {
		return ErrResourceAddressNotMatching
	}
	return nil
}

// Put merges other's liquid contents into c. Fails if addresses differ or
// if other is currently locked (spec §4.2).
func (c *ResourceContainer) Put(other *ResourceContainer) error {
	if err := c.checkAddress(other); err != nil {
		return err
	}
	if other.IsLocked() {
		return ErrCantMoveLockedBucket
	}
	switch c.resourceType {
	case ResourceTypeFungible:
		sum, err := c.liquidAmount.Add(other.liquidAmount)
		if err != nil {
			return err
		}
		c.liquidAmount = sum
		other.liquidAmount = ZeroAmount()
	case ResourceTypeNonFungible:
		for k, v := range other.liquidIds {
			c.liquidIds[k] = v
		}
		other.liquidIds = make(map[string]NonFungibleId)
	}
	return nil
}

// Take removes amount from the container's liquid holdings and returns a
// new container holding exactly that much (spec §4.2). For fungible
// resources amount must be aligned to the resource's divisibility
// granularity; for non-fungible resources amount is interpreted as an
// integer count and ids are removed in canonical (sorted) order.
func (c *ResourceContainer) Take(amount Amount) (*ResourceContainer, error) {
	switch c.resourceType {
	case ResourceTypeFungible:
		if !amount.DivisibilityAligned(c.divisibility) {
			return nil, &InvalidAmount{Amount: amount, Divisibility: c.divisibility}
		}
		if c.liquidAmount.Cmp(amount) < 0 {
			return nil, ErrInsufficientBalance
		}
		remaining, err := c.liquidAmount.Sub(amount)
		if err != nil {
			return nil, err
		}
		c.liquidAmount = remaining
		out := NewEmptyFungibleContainer(c.resourceAddress, c.divisibility)
		out.liquidAmount = amount
		return out, nil
	case ResourceTypeNonFungible:
		count, ok := amount.AsUint64Count()
		if !ok {
			return nil, &InvalidAmount{Amount: amount}
		}
		if uint64(len(c.liquidIds)) < count {
			return nil, ErrInsufficientBalance
		}
		ids := c.sortedLiquidIds()[:count]
		out := NewEmptyNonFungibleContainer(c.resourceAddress)
		for _, id := range ids {
			out.liquidIds[id.String()] = id
			delete(c.liquidIds, id.String())
		}
		return out, nil
	}
	return nil, ErrNonFungibleOperationNotAllowed
}

// TakeNonFungibles removes exactly the requested ids from liquid holdings.
// Fails ErrInsufficientBalance if any id is not liquid.
func (c *ResourceContainer) TakeNonFungibles(ids []NonFungibleId) (*ResourceContainer, error) {
	if c.resourceType != ResourceTypeNonFungible {
		return nil, ErrNonFungibleOperationNotAllowed
	}
	for _, id := range ids {
		if _, ok := c.liquidIds[id.String()]; !ok {
			return nil, ErrInsufficientBalance
		}
	}
	out := NewEmptyNonFungibleContainer(c.resourceAddress)
	for _, id := range ids {
		out.liquidIds[id.String()] = id
		delete(c.liquidIds, id.String())
	}
	return out, nil
}

// sortedLiquidIds returns the liquid non-fungible ids in canonical
// (ascending byte) order, per the "Supplemented features" note in
// SPEC_FULL.md grounded on the original engine's id ordering.
func (c *ResourceContainer) sortedLiquidIds() []NonFungibleId {
	out := make([]NonFungibleId, 0, len(c.liquidIds))
	for _, id := range c.liquidIds {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i], out[j]) < 0 })
	return out
}

// LockAmount locks amount of fungible liquidity (moving it conceptually
// from "spendable" to "attested but still present"); the amount stays
// counted in LiquidAmount()+LockedAmount() for conservation purposes but
// cannot be taken while locked. Locking an amount equal to one already
// locked only increments that lock's count and draws nothing further from
// liquid holdings; any other amount must be held as liquid, failing
// ErrInsufficientBalance otherwise (amounts locked at a different level are
// not drawn on).
func (c *ResourceContainer) LockAmount(amount Amount) error {
	if c.resourceType != ResourceTypeFungible {
		return ErrNonFungibleOperationNotAllowed
	}
	for i := range c.fungibleLocks {
		if c.fungibleLocks[i].amount.Cmp(amount) == 0 {
			c.fungibleLocks[i].count++
			return nil
		}
	}
	if c.liquidAmount.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	remaining, err := c.liquidAmount.Sub(amount)
	if err != nil {
		return err
	}
	c.liquidAmount = remaining
	c.fungibleLocks = append(c.fungibleLocks, fungibleLock{amount: amount, count: 1})
	return nil
}

// UnlockAmount reverses one LockAmount(amount) call, returning the amount
// back to liquid once its lock count reaches zero.
func (c *ResourceContainer) UnlockAmount(amount Amount) error {
	if c.resourceType != ResourceTypeFungible {
		return ErrNonFungibleOperationNotAllowed
	}
	for i := range c.fungibleLocks {
		if c.fungibleLocks[i].amount.Cmp(amount) == 0 {
			c.fungibleLocks[i].count--
			if c.fungibleLocks[i].count == 0 {
				c.fungibleLocks = append(c.fungibleLocks[:i], c.fungibleLocks[i+1:]...)
				sum, err := c.liquidAmount.Add(amount)
				if err != nil {
					return err
				}
				c.liquidAmount = sum
			}
			return nil
		}
	}
	return ErrInsufficientBalance
}

// LockNonFungibles locks the given ids, moving them out of liquid holdings
// until unlocked.
func (c *ResourceContainer) LockNonFungibles(ids []NonFungibleId) error {
	if c.resourceType != ResourceTypeNonFungible {
		return ErrNonFungibleOperationNotAllowed
	}
	for _, id := range ids {
		key := id.String()
		if _, liquid := c.liquidIds[key]; !liquid {
			if _, locked := c.nonFungibleLocks[key]; !locked {
				return ErrInsufficientBalance
			}
		}
	}
	for _, id := range ids {
		key := id.String()
		if l, ok := c.nonFungibleLocks[key]; ok {
			l.count++
			continue
		}
		delete(c.liquidIds, key)
		c.nonFungibleLocks[key] = &nonFungibleLock{id: key, count: 1}
	}
	return nil
}

// UnlockNonFungibles reverses one LockNonFungibles(ids) call per id.
func (c *ResourceContainer) UnlockNonFungibles(ids []NonFungibleId) error {
	if c.resourceType != ResourceTypeNonFungible {
		return ErrNonFungibleOperationNotAllowed
	}
	for _, id := range ids {
		key := id.String()
		l, ok := c.nonFungibleLocks[key]
		if !ok {
			return ErrInsufficientBalance
		}
		l.count--
		if l.count == 0 {
			delete(c.nonFungibleLocks, key)
			c.liquidIds[key] = id
		}
	}
	return nil
}

// Mint adds freshly created liquidity/ids directly, bypassing conservation
// (spec §8 "Conservation... across any sequence of host calls that excludes
// mint and burn"). Only ResourceManager.Mint should call this.
func (c *ResourceContainer) mint(amount Amount) error {
	sum, err := c.liquidAmount.Add(amount)
	if err != nil {
		return err
	}
	c.liquidAmount = sum
	return nil
}

func (c *ResourceContainer) mintNonFungible(id NonFungibleId) {
	c.liquidIds[id.String()] = id
}

// Burn removes amount from liquid holdings permanently (no corresponding
// container receives it), bypassing conservation by design.
func (c *ResourceContainer) burn(amount Amount) error {
	if c.liquidAmount.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	remaining, err := c.liquidAmount.Sub(amount)
	if err != nil {
		return err
	}
	c.liquidAmount = remaining
	return nil
}

func (c *ResourceContainer) burnNonFungibles(ids []NonFungibleId) error {
	for _, id := range ids {
		if _, ok := c.liquidIds[id.String()]; !ok {
			return ErrInsufficientBalance
		}
	}
	for _, id := range ids {
		delete(c.liquidIds, id.String())
	}
	return nil
}

// IsEmpty reports whether the container holds no liquid or locked
// resources at all.
func (c *ResourceContainer) IsEmpty() bool {
	return c.LiquidAmount().IsZero() && !c.IsLocked()
}
