package core

// Vault is a persistent resource holder always owned by exactly one
// component (spec §3, §4.3). Unlike a Bucket, a Vault is addressed by a
// stable VaultId and is journaled through the Track.
type Vault struct {
	id        VaultId
	container *ResourceContainer
}

// NewVault wraps container under the given id.
func NewVault(id VaultId, container *ResourceContainer) *Vault {
	return &Vault{id: id, container: container}
}

func (v *Vault) Id() VaultId                          { return v.id }
func (v *Vault) ResourceAddress() ResourceAddress     { return v.container.ResourceAddress() }
func (v *Vault) ResourceType() ResourceType           { return v.container.ResourceType() }
func (v *Vault) Amount() Amount                       { return v.container.LiquidAmount() }
func (v *Vault) IsLocked() bool                       { return v.container.IsLocked() }
func (v *Vault) Container() *ResourceContainer        { return v.container }

// Put deposits a bucket's contents into the vault, consuming the bucket.
func (v *Vault) Put(b *Bucket) error {
	return v.container.Put(b.container)
}

// Take withdraws amount from the vault into a new bucket.
func (v *Vault) Take(amount Amount) (*Bucket, error) {
	c, err := v.container.Take(amount)
	if err != nil {
		return nil, err
	}
	return NewBucket(c), nil
}

// TakeNonFungibles withdraws exactly the given ids into a new bucket.
func (v *Vault) TakeNonFungibles(ids []NonFungibleId) (*Bucket, error) {
	c, err := v.container.TakeNonFungibles(ids)
	if err != nil {
		return nil, err
	}
	return NewBucket(c), nil
}

// NonFungibleIds lists the ids currently liquid in this vault (for the
// "get_non_fungible_ids" host call, spec §6.2).
func (v *Vault) NonFungibleIds() []NonFungibleId {
	return v.container.sortedLiquidIds()
}
