package core

// Component is one instantiated, globally addressable object: the package
// address and blueprint name it was instantiated from, plus its encoded
// state tuple (spec §4.1 "Component"). The state tuple's bytes may embed
// VaultId/LazyMapId references into objects the component owns; it may
// never embed a BucketId or ProofId (spec §4.6 "transient ids may not
// survive inside committed state").
type Component struct {
	Address         ComponentAddress
	PackageAddress  PackageAddress
	BlueprintName   string
	State           ScryptoValue
}

// NewComponent constructs a freshly instantiated component. state must
// already have been checked (by the invoke protocol) to embed no
// Bucket/Proof references.
func NewComponent(address ComponentAddress, packageAddress PackageAddress, blueprintName string, state ScryptoValue) *Component {
	return &Component{
		Address:        address,
		PackageAddress: packageAddress,
		BlueprintName:  blueprintName,
		State:          state,
	}
}

// ObjectRefs harvests every VaultId/LazyMapId embedded in the component's
// current state, used to seed a newly entered frame's
// ObjectOwnershipTracker with the refs the component itself is entitled to
// (spec §4.6, §4.7 "on component invocation, seed initial_object_refs from
// the component's own committed state").
func (c *Component) ObjectRefs() ([]VaultId, []LazyMapId, error) {
	refs, err := c.State.harvest()
	if err != nil {
		return nil, nil, err
	}
	return refs.Vaults, refs.LazyMaps, nil
}

// SetState replaces the component's state tuple after a method call
// commits, following the "Open question" decision recorded in DESIGN.md:
// put_component_state always targets the most recently committed state,
// never an uncommitted local mutation from a concurrently re-entered
// frame.
func (c *Component) SetState(state ScryptoValue) {
	c.State = state
}
