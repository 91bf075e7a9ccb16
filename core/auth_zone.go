package core

// AuthZone is a frame-local stack of proofs used to satisfy authorization
// predicates for the remainder of the frame's lifetime (spec §3, §4.5). Each
// call frame owns exactly one auth zone; it is torn down when the frame
// exits, dropping every proof still on it.
type AuthZone struct {
	proofs []*Proof
}

// NewAuthZone returns an empty auth zone.
func NewAuthZone() *AuthZone {
	return &AuthZone{}
}

// Push adds a proof to the top of the zone (spec §4.5 "push_to_auth_zone").
// A proof marked restricted (received as a call argument) may not be
// re-parented into an auth zone and fails ErrCantMoveRestrictedProof (spec
// §3, §4.3).
func (z *AuthZone) Push(p *Proof) error {
	if p.IsRestricted() {
		return ErrCantMoveRestrictedProof
	}
	z.proofs = append(z.proofs, p)
	return nil
}

// Pop removes and returns the most recently pushed proof. Fails
// ErrEmptyAuthZone if the zone holds nothing (spec §4.5 "pop_from_auth_zone").
func (z *AuthZone) Pop() (*Proof, error) {
	if len(z.proofs) == 0 {
		return nil, ErrEmptyAuthZone
	}
	last := len(z.proofs) - 1
	p := z.proofs[last]
	z.proofs = z.proofs[:last]
	return p, nil
}

// Proofs returns every proof currently on the zone, bottom to top, for
// authorization predicate evaluation (spec §4.5 "create_proof operations
// search the entire zone, not only the top").
func (z *AuthZone) Proofs() []*Proof {
	out := make([]*Proof, len(z.proofs))
	copy(out, z.proofs)
	return out
}

// CreateProof composes a new unrestricted proof drawn from every matching
// proof currently in the zone (spec §4.5 "create_proof(resource_address)").
func (z *AuthZone) CreateProof(resourceAddress ResourceAddress, resourceType ResourceType) (*Proof, error) {
	sources := z.matchingContainers(resourceAddress, resourceType)
	if len(sources) == 0 {
		return nil, ErrInsufficientBalance
	}
	return ComposeFull(sources, resourceAddress, resourceType)
}

// CreateProofByAmount composes a proof for exactly amount, drawn from the
// zone's matching proofs (spec §4.5 "create_proof_by_amount").
func (z *AuthZone) CreateProofByAmount(amount Amount, resourceAddress ResourceAddress) (*Proof, error) {
	sources := z.matchingContainers(resourceAddress, ResourceTypeFungible)
	return ComposeByAmount(sources, amount, resourceAddress, ResourceTypeFungible)
}

// CreateProofByIds composes a proof for exactly the given ids (spec §4.5
// "create_proof_by_ids").
func (z *AuthZone) CreateProofByIds(ids []NonFungibleId, resourceAddress ResourceAddress) (*Proof, error) {
	sources := z.matchingContainers(resourceAddress, ResourceTypeNonFungible)
	return ComposeByIds(sources, ids, resourceAddress)
}

// matchingContainers collects the underlying containers of every proof in
// the zone matching resourceAddress/resourceType, for reuse as compose
// sources. A zone proof's backing containers may legitimately appear more
// than once if multiple zone proofs were cloned from the same source; each
// distinct *ResourceContainer is still a single compose source since
// ComposeFull etc. key locks by pointer.
func (z *AuthZone) matchingContainers(resourceAddress ResourceAddress, resourceType ResourceType) []*ResourceContainer {
	seen := make(map[*ResourceContainer]bool)
	var out []*ResourceContainer
	for _, p := range z.proofs {
		if p.resourceAddress != resourceAddress || p.resourceType != resourceType {
			continue
		}
		for c := range p.locks {
			if seen[c] {
				continue
			}
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// Clear drops every proof on the zone, unlocking their underlying sources,
// and empties the zone (spec §4.5 "clear_auth_zone", and implicitly at
// frame exit).
func (z *AuthZone) Clear() error {
	for _, p := range z.proofs {
		if err := p.Drop(); err != nil {
			return err
		}
	}
	z.proofs = nil
	return nil
}

// CheckAuth reports whether any proof currently in the zone satisfies the
// given resource address (spec §4.7 "authorization check against a proof
// vector" — the simple single-resource predicate form; composite
// AND/OR rules are evaluated by core/authorization.go over this same
// proof vector).
func (z *AuthZone) CheckAuth(resourceAddress ResourceAddress) bool {
	for _, p := range z.proofs {
		if p.resourceAddress == resourceAddress && !p.Amount().IsZero() {
			return true
		}
	}
	return false
}
