package core

// ResourceManager is the global, singleton authority for one resource
// address: it holds the resource's metadata, mutable non-fungible data
// table, total supply, and the per-method authorization rules gating
// mint/burn/update operations (spec §4.2, and the non-fungible per-method
// authorization table supplemented from the original engine's
// ResourceManager).
type ResourceManager struct {
	resourceAddress ResourceAddress
	resourceType    ResourceType
	divisibility    uint8

	metadata map[string]string

	totalSupply Amount
	maxSupply   Amount // zero Amount means unbounded

	nonFungibleData map[string]ScryptoValue

	authRules MethodAuthRules
}

// MethodAuthRules names the proof-vector predicate guarding each of a
// resource manager's privileged methods. A nil entry for a method means
// "anyone may call it".
type MethodAuthRules struct {
	Mint               *AuthRule
	Burn               *AuthRule
	UpdateMetadata     *AuthRule
	UpdateNonFungibleData *AuthRule
}

// NewResourceManager constructs a resource manager for a freshly allocated
// resourceAddress. maxSupply may be the zero Amount to mean unbounded.
func NewResourceManager(resourceAddress ResourceAddress, resourceType ResourceType, divisibility uint8, metadata map[string]string, maxSupply Amount, rules MethodAuthRules) *ResourceManager {
	m := make(map[string]string, len(metadata))
	for k, v := range metadata {
		m[k] = v
	}
	rm := &ResourceManager{
		resourceAddress: resourceAddress,
		resourceType:    resourceType,
		divisibility:    divisibility,
		metadata:        m,
		totalSupply:     ZeroAmount(),
		maxSupply:       maxSupply,
		authRules:       rules,
	}
	if resourceType == ResourceTypeNonFungible {
		rm.nonFungibleData = make(map[string]ScryptoValue)
	}
	return rm
}

func (rm *ResourceManager) ResourceAddress() ResourceAddress { return rm.resourceAddress }
func (rm *ResourceManager) ResourceType() ResourceType       { return rm.resourceType }
func (rm *ResourceManager) Divisibility() uint8              { return rm.divisibility }
func (rm *ResourceManager) TotalSupply() Amount              { return rm.totalSupply }
func (rm *ResourceManager) Metadata() map[string]string      { return rm.metadata }

// Mint creates amount of new fungible liquidity into a fresh container,
// checking maxSupply and the mint authorization rule (spec §4.2 "mint
// operations bypass conservation but must respect max supply and auth").
func (rm *ResourceManager) Mint(amount Amount, proofs []*Proof) (*ResourceContainer, error) {
	if rm.resourceType != ResourceTypeFungible {
		return nil, ErrNonFungibleOperationNotAllowed
	}
	if err := checkAuthRule(rm.authRules.Mint, proofs); err != nil {
		return nil, err
	}
	if !amount.DivisibilityAligned(rm.divisibility) {
		return nil, &InvalidAmount{Amount: amount, Divisibility: rm.divisibility}
	}
	newSupply, err := rm.totalSupply.Add(amount)
	if err != nil {
		return nil, err
	}
	if !rm.maxSupply.IsZero() && newSupply.Cmp(rm.maxSupply) > 0 {
		return nil, ErrMaxMintAmountExceeded
	}
	out := NewEmptyFungibleContainer(rm.resourceAddress, rm.divisibility)
	if err := out.mint(amount); err != nil {
		return nil, err
	}
	rm.totalSupply = newSupply
	return out, nil
}

// MintNonFungible creates a single new non-fungible unit carrying data,
// checking the mint authorization rule and rejecting a reused id.
func (rm *ResourceManager) MintNonFungible(id NonFungibleId, data ScryptoValue, proofs []*Proof) (*ResourceContainer, error) {
	if rm.resourceType != ResourceTypeNonFungible {
		return nil, ErrNonFungibleOperationNotAllowed
	}
	if err := checkAuthRule(rm.authRules.Mint, proofs); err != nil {
		return nil, err
	}
	key := id.String()
	if _, exists := rm.nonFungibleData[key]; exists {
		return nil, ErrResourceAddressNotMatching
	}
	newSupply, err := rm.totalSupply.Add(AmountFromInt(1))
	if err != nil {
		return nil, err
	}
	if !rm.maxSupply.IsZero() && newSupply.Cmp(rm.maxSupply) > 0 {
		return nil, ErrMaxMintAmountExceeded
	}
	out := NewEmptyNonFungibleContainer(rm.resourceAddress)
	out.mintNonFungible(id)
	rm.nonFungibleData[key] = data
	rm.totalSupply = newSupply
	return out, nil
}

// Burn permanently destroys container's entire contents, checking the burn
// authorization rule. container must belong to this resource address.
func (rm *ResourceManager) Burn(container *ResourceContainer, proofs []*Proof) error {
	if container.ResourceAddress() != rm.resourceAddress {
		return ErrResourceAddressNotMatching
	}
	if err := checkAuthRule(rm.authRules.Burn, proofs); err != nil {
		return err
	}
	switch rm.resourceType {
	case ResourceTypeFungible:
		amt := container.LiquidAmount()
		if err := container.burn(amt); err != nil {
			return err
		}
		remaining, err := rm.totalSupply.Sub(amt)
		if err != nil {
			return err
		}
		rm.totalSupply = remaining
	case ResourceTypeNonFungible:
		ids := container.sortedLiquidIds()
		if err := container.burnNonFungibles(ids); err != nil {
			return err
		}
		for _, id := range ids {
			delete(rm.nonFungibleData, id.String())
		}
		remaining, err := rm.totalSupply.Sub(AmountFromInt(int64(len(ids))))
		if err != nil {
			return err
		}
		rm.totalSupply = remaining
	}
	return nil
}

// GetNonFungibleData reads the mutable data stored for id. Fails
// ErrNonFungibleNotFound if id was never minted or has been burned.
func (rm *ResourceManager) GetNonFungibleData(id NonFungibleId) (ScryptoValue, error) {
	v, ok := rm.nonFungibleData[id.String()]
	if !ok {
		return ScryptoValue{}, ErrNonFungibleNotFound
	}
	return v, nil
}

// UpdateNonFungibleData overwrites the mutable data stored for id, checking
// the update authorization rule.
func (rm *ResourceManager) UpdateNonFungibleData(id NonFungibleId, data ScryptoValue, proofs []*Proof) error {
	if err := checkAuthRule(rm.authRules.UpdateNonFungibleData, proofs); err != nil {
		return err
	}
	key := id.String()
	if _, ok := rm.nonFungibleData[key]; !ok {
		return ErrNonFungibleNotFound
	}
	rm.nonFungibleData[key] = data
	return nil
}

// UpdateMetadata replaces the resource's metadata map wholesale, checking
// the update-metadata authorization rule.
func (rm *ResourceManager) UpdateMetadata(metadata map[string]string, proofs []*Proof) error {
	if err := checkAuthRule(rm.authRules.UpdateMetadata, proofs); err != nil {
		return err
	}
	m := make(map[string]string, len(metadata))
	for k, v := range metadata {
		m[k] = v
	}
	rm.metadata = m
	return nil
}
