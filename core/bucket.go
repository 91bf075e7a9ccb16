package core

// Bucket is a transient, uniquely-owned resource holder (spec §3, §4.3).
// Buckets live only inside a frame's owned map; they are never persisted.
type Bucket struct {
	container *ResourceContainer
}

// NewBucket wraps container in a fresh Bucket.
func NewBucket(container *ResourceContainer) *Bucket {
	return &Bucket{container: container}
}

func (b *Bucket) ResourceAddress() ResourceAddress { return b.container.ResourceAddress() }
func (b *Bucket) ResourceType() ResourceType       { return b.container.ResourceType() }
func (b *Bucket) Amount() Amount                   { return b.container.LiquidAmount() }
func (b *Bucket) IsLocked() bool                   { return b.container.IsLocked() }

// Put merges other into this bucket.
func (b *Bucket) Put(other *Bucket) error {
	return b.container.Put(other.container)
}

// Take removes amount from the bucket, returning a new bucket.
func (b *Bucket) Take(amount Amount) (*Bucket, error) {
	c, err := b.container.Take(amount)
	if err != nil {
		return nil, err
	}
	return NewBucket(c), nil
}

// TakeNonFungibles removes exactly the given ids from the bucket.
func (b *Bucket) TakeNonFungibles(ids []NonFungibleId) (*Bucket, error) {
	c, err := b.container.TakeNonFungibles(ids)
	if err != nil {
		return nil, err
	}
	return NewBucket(c), nil
}

// TakeContainer consumes the bucket entirely, returning its underlying
// container. Fails ErrCantMoveLockedBucket if the bucket is locked (spec
// §4.3 "a bucket can only be consumed if not locked").
func (b *Bucket) TakeContainer() (*ResourceContainer, error) {
	if b.container.IsLocked() {
		return nil, ErrCantMoveLockedBucket
	}
	return b.container, nil
}

// Container exposes the underlying container for proof composition (spec
// §4.3 "compose(containers, ...)"), without consuming the bucket.
func (b *Bucket) Container() *ResourceContainer { return b.container }
