package core

import "fmt"

// proofLock records what a Proof locked on one source container: for a
// fungible resource, an amount; for a non-fungible resource, a set of ids.
type proofLock struct {
	amount Amount
	ids    []NonFungibleId
}

// Proof is a non-consuming attestation that the bearer controls a specified
// quantity of a resource, implemented by incrementing lock counters on one
// or more source containers (spec §3, §4.3). Dropping a proof decrements
// every source's lock counter by the amount that proof locked there;
// cloning re-increments.
type Proof struct {
	resourceAddress ResourceAddress
	resourceType    ResourceType

	// restricted proofs were received as a call argument and may not be
	// re-parented into an auth zone nor moved again as an argument (spec
	// §3, §4.3).
	restricted bool

	totalAmount Amount

	locks map[*ResourceContainer]proofLock
}

// ComposeFull locks the entire liquid amount of every source container,
// all of which must match resourceAddress/resourceType (spec §4.3
// "compose").
func ComposeFull(sources []*ResourceContainer, resourceAddress ResourceAddress, resourceType ResourceType) (*Proof, error) {
	for _, c := range sources {
		if c.ResourceAddress() != resourceAddress || c.ResourceType() != resourceType {
			return nil, ErrResourceAddressNotMatching
		}
	}
	p := newProof(resourceAddress, resourceType)
	for _, c := range sources {
		switch resourceType {
		case ResourceTypeFungible:
			amt := c.LiquidAmount()
			if amt.IsZero() {
				continue
			}
			if err := c.LockAmount(amt); err != nil {
				p.undoLocks()
				return nil, err
			}
			p.recordFungibleLock(c, amt)
		case ResourceTypeNonFungible:
			ids := c.sortedLiquidIds()
			if len(ids) == 0 {
				continue
			}
			if err := c.LockNonFungibles(ids); err != nil {
				p.undoLocks()
				return nil, err
			}
			p.recordNonFungibleLock(c, ids)
		}
	}
	if p.totalAmount.IsZero() {
		return nil, ErrInsufficientBalance
	}
	return p, nil
}

// ComposeByAmount locks amount drawn greedily from sources in list order
// until satisfied (spec §4.3 "compose_by_amount").
func ComposeByAmount(sources []*ResourceContainer, amount Amount, resourceAddress ResourceAddress, resourceType ResourceType) (*Proof, error) {
	if resourceType != ResourceTypeFungible {
		return nil, ErrNonFungibleOperationNotAllowed
	}
	for _, c := range sources {
		if c.ResourceAddress() != resourceAddress || c.ResourceType() != resourceType {
			return nil, ErrResourceAddressNotMatching
		}
	}
	p := newProof(resourceAddress, resourceType)
	remaining := amount
	for _, c := range sources {
		if remaining.IsZero() {
			break
		}
		avail := c.LiquidAmount()
		take := avail
		if avail.Cmp(remaining) > 0 {
			take = remaining
		}
		if take.IsZero() {
			continue
		}
		if err := c.LockAmount(take); err != nil {
			p.undoLocks()
			return nil, err
		}
		p.recordFungibleLock(c, take)
		remaining, _ = remaining.Sub(take)
	}
	if !remaining.IsZero() {
		p.undoLocks()
		return nil, ErrInsufficientBalance
	}
	return p, nil
}

// ComposeByIds locks exactly the given non-fungible ids, which must all be
// available (liquid) somewhere across sources (spec §4.3
// "compose_by_ids").
func ComposeByIds(sources []*ResourceContainer, ids []NonFungibleId, resourceAddress ResourceAddress) (*Proof, error) {
	for _, c := range sources {
		if c.ResourceAddress() != resourceAddress || c.ResourceType() != ResourceTypeNonFungible {
			return nil, ErrResourceAddressNotMatching
		}
	}
	p := newProof(resourceAddress, ResourceTypeNonFungible)
	remaining := make(map[string]NonFungibleId, len(ids))
	for _, id := range ids {
		remaining[id.String()] = id
	}
	for _, c := range sources {
		if len(remaining) == 0 {
			break
		}
		var take []NonFungibleId
		for key, id := range remaining {
			if _, ok := c.liquidIds[key]; ok {
				take = append(take, id)
			}
		}
		if len(take) == 0 {
			continue
		}
		if err := c.LockNonFungibles(take); err != nil {
			p.undoLocks()
			return nil, err
		}
		p.recordNonFungibleLock(c, take)
		for _, id := range take {
			delete(remaining, id.String())
		}
	}
	if len(remaining) != 0 {
		p.undoLocks()
		return nil, ErrInsufficientBalance
	}
	return p, nil
}

func newProof(resourceAddress ResourceAddress, resourceType ResourceType) *Proof {
	return &Proof{
		resourceAddress: resourceAddress,
		resourceType:    resourceType,
		totalAmount:     ZeroAmount(),
		locks:           make(map[*ResourceContainer]proofLock),
	}
}

func (p *Proof) recordFungibleLock(c *ResourceContainer, amount Amount) {
	l := p.locks[c]
	sum, _ := l.amount.Add(amount)
	l.amount = sum
	p.locks[c] = l
	p.totalAmount, _ = p.totalAmount.Add(amount)
}

func (p *Proof) recordNonFungibleLock(c *ResourceContainer, ids []NonFungibleId) {
	l := p.locks[c]
	l.ids = append(l.ids, ids...)
	p.locks[c] = l
	p.totalAmount, _ = p.totalAmount.Add(AmountFromInt(int64(len(ids))))
}

// undoLocks reverses any partial locking performed before a compose
// operation failed partway through, so a failed compose never leaves
// containers in a partially-locked state.
func (p *Proof) undoLocks() {
	for c, l := range p.locks {
		switch p.resourceType {
		case ResourceTypeFungible:
			_ = c.UnlockAmount(l.amount)
		case ResourceTypeNonFungible:
			_ = c.UnlockNonFungibles(l.ids)
		}
	}
	p.locks = make(map[*ResourceContainer]proofLock)
	p.totalAmount = ZeroAmount()
}

func (p *Proof) ResourceAddress() ResourceAddress { return p.resourceAddress }
func (p *Proof) ResourceType() ResourceType       { return p.resourceType }
func (p *Proof) Amount() Amount                   { return p.totalAmount }
func (p *Proof) IsRestricted() bool               { return p.restricted }

// markRestricted is called by the invoke protocol when a proof moves as a
// call argument (spec §3 "received as an argument — may no longer cross
// frame boundaries").
func (p *Proof) markRestricted() { p.restricted = true }

// Clone increments every source container's lock by this proof's
// contribution, producing an independent Proof with its own drop
// lifecycle.
func (p *Proof) Clone() (*Proof, error) {
	clone := newProof(p.resourceAddress, p.resourceType)
	clone.restricted = p.restricted
	for c, l := range p.locks {
		switch p.resourceType {
		case ResourceTypeFungible:
			if err := c.LockAmount(l.amount); err != nil {
				clone.undoLocks()
				return nil, fmt.Errorf("clone proof: %w", err)
			}
			clone.recordFungibleLock(c, l.amount)
		case ResourceTypeNonFungible:
			if err := c.LockNonFungibles(l.ids); err != nil {
				clone.undoLocks()
				return nil, fmt.Errorf("clone proof: %w", err)
			}
			clone.recordNonFungibleLock(c, l.ids)
		}
	}
	return clone, nil
}

// Drop decrements every source container's lock by this proof's
// contribution. A dropped proof must not be used again.
func (p *Proof) Drop() error {
	for c, l := range p.locks {
		switch p.resourceType {
		case ResourceTypeFungible:
			if err := c.UnlockAmount(l.amount); err != nil {
				return err
			}
		case ResourceTypeNonFungible:
			if err := c.UnlockNonFungibles(l.ids); err != nil {
				return err
			}
		}
	}
	p.locks = make(map[*ResourceContainer]proofLock)
	return nil
}
