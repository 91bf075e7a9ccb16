package core

// Worktop is the transaction-root frame's transient collection of resources
// not yet held in any named bucket (spec §3, §4.4). It exists only at
// depth 0.
type Worktop struct {
	entries map[ResourceAddress]*ResourceContainer
}

// NewWorktop returns an empty worktop.
func NewWorktop() *Worktop {
	return &Worktop{entries: make(map[ResourceAddress]*ResourceContainer)}
}

// Put deposits a bucket's contents into the worktop's entry for its
// resource address, consuming the bucket.
func (w *Worktop) Put(b *Bucket) error {
	addr := b.ResourceAddress()
	entry, ok := w.entries[addr]
	if !ok {
		entry = emptyLikeContainer(b.container)
		w.entries[addr] = entry
	}
	return entry.Put(b.container)
}

func emptyLikeContainer(like *ResourceContainer) *ResourceContainer {
	if like.ResourceType() == ResourceTypeFungible {
		return NewEmptyFungibleContainer(like.ResourceAddress(), like.Divisibility())
	}
	return NewEmptyNonFungibleContainer(like.ResourceAddress())
}

// Take withdraws amount of resourceAddress into a new bucket, returning an
// empty bucket if the worktop holds none of that resource yet (spec §4.4).
func (w *Worktop) Take(amount Amount, resourceAddress ResourceAddress, resourceType ResourceType) (*Bucket, error) {
	entry, ok := w.entries[resourceAddress]
	if !ok {
		return w.emptyBucket(resourceAddress, resourceType), nil
	}
	c, err := entry.Take(amount)
	if err != nil {
		return nil, err
	}
	return NewBucket(c), nil
}

// TakeNonFungibles withdraws exactly the given ids from the worktop's entry.
func (w *Worktop) TakeNonFungibles(ids []NonFungibleId, resourceAddress ResourceAddress) (*Bucket, error) {
	entry, ok := w.entries[resourceAddress]
	if !ok {
		return NewBucket(NewEmptyNonFungibleContainer(resourceAddress)), nil
	}
	c, err := entry.TakeNonFungibles(ids)
	if err != nil {
		return nil, err
	}
	return NewBucket(c), nil
}

// TakeAll withdraws every liquid unit held for resourceAddress.
func (w *Worktop) TakeAll(resourceAddress ResourceAddress) (*Bucket, error) {
	entry, ok := w.entries[resourceAddress]
	if !ok {
		return NewBucket(NewEmptyFungibleContainer(resourceAddress, AmountDecimals)), nil
	}
	return w.Take(entry.LiquidAmount(), resourceAddress, entry.ResourceType())
}

func (w *Worktop) emptyBucket(resourceAddress ResourceAddress, resourceType ResourceType) *Bucket {
	if resourceType == ResourceTypeNonFungible {
		return NewBucket(NewEmptyNonFungibleContainer(resourceAddress))
	}
	return NewBucket(NewEmptyFungibleContainer(resourceAddress, AmountDecimals))
}

// AssertContains fails ErrAssertionFailed unless the worktop holds a
// non-zero amount of resourceAddress.
func (w *Worktop) AssertContains(resourceAddress ResourceAddress) error {
	entry, ok := w.entries[resourceAddress]
	if !ok || entry.LiquidAmount().IsZero() {
		return ErrAssertionFailed
	}
	return nil
}

// AssertContainsByAmount fails ErrAssertionFailed unless the worktop holds
// at least amount of resourceAddress.
func (w *Worktop) AssertContainsByAmount(amount Amount, resourceAddress ResourceAddress) error {
	entry, ok := w.entries[resourceAddress]
	if !ok || entry.LiquidAmount().Cmp(amount) < 0 {
		return ErrAssertionFailed
	}
	return nil
}

// AssertContainsByIds fails ErrAssertionFailed unless every id is liquid in
// the worktop's entry for resourceAddress.
func (w *Worktop) AssertContainsByIds(ids []NonFungibleId, resourceAddress ResourceAddress) error {
	entry, ok := w.entries[resourceAddress]
	if !ok {
		return ErrAssertionFailed
	}
	for _, id := range ids {
		if _, ok := entry.liquidIds[id.String()]; !ok {
			return ErrAssertionFailed
		}
	}
	return nil
}

// IsEmpty reports whether every entry on the worktop is empty, used at
// frame exit to enforce "Worktop cleanup" (spec §8).
func (w *Worktop) IsEmpty() bool {
	for _, e := range w.entries {
		if !e.IsEmpty() {
			return false
		}
	}
	return true
}

// NonEmptyResourceAddresses lists resource addresses with a non-zero
// residual, for diagnostics on ResourceCheckFailure.
func (w *Worktop) NonEmptyResourceAddresses() []ResourceAddress {
	var out []ResourceAddress
	for addr, e := range w.entries {
		if !e.IsEmpty() {
			out = append(out, addr)
		}
	}
	return out
}

// DrainAll removes and returns every non-empty entry as a bucket, used by
// call_method_with_all_resources to sweep the worktop into a single
// method-call argument (spec §6.1).
func (w *Worktop) DrainAll() []*Bucket {
	var out []*Bucket
	for addr, e := range w.entries {
		if e.IsEmpty() {
			continue
		}
		out = append(out, NewBucket(e))
		delete(w.entries, addr)
	}
	return out
}
