package core

// ObjectOwnershipTracker enforces the invariant that a component's vaults
// and lazy maps are only ever reachable through exactly one owning path,
// and that frame code cannot forge references to objects it was never
// handed (spec §4.6 "Object Ownership Tracker"). One tracker exists per
// call frame.
type ObjectOwnershipTracker struct {
	ownedVaults   map[VaultId]*Vault
	ownedLazyMaps map[LazyMapId]*LazyMap

	// initialObjectRefs are the object ids the frame was invoked with
	// (reachable from its arguments or its component's already-committed
	// state); additionalObjectRefs accumulate as new objects are created or
	// discovered reachable during the frame's execution. A reference not in
	// either set is treated as forged.
	initialObjectRefs    map[interface{}]bool
	additionalObjectRefs map[interface{}]bool
}

// NewObjectOwnershipTracker returns a tracker seeded with the object ids
// the owning frame is entitled to reference from the outset.
func NewObjectOwnershipTracker(initialRefs []interface{}) *ObjectOwnershipTracker {
	t := &ObjectOwnershipTracker{
		ownedVaults:          make(map[VaultId]*Vault),
		ownedLazyMaps:        make(map[LazyMapId]*LazyMap),
		initialObjectRefs:    make(map[interface{}]bool),
		additionalObjectRefs: make(map[interface{}]bool),
	}
	for _, ref := range initialRefs {
		t.initialObjectRefs[ref] = true
	}
	return t
}

// TakeOwnershipVault registers a newly created or newly received vault as
// owned by this frame and grants it a reference. Fails ErrDuplicateVault if
// the id is already owned.
func (t *ObjectOwnershipTracker) TakeOwnershipVault(v *Vault) error {
	if _, exists := t.ownedVaults[v.Id()]; exists {
		return ErrDuplicateVault
	}
	t.ownedVaults[v.Id()] = v
	t.additionalObjectRefs[v.Id()] = true
	return nil
}

// TakeOwnershipLazyMap registers a newly created or newly received lazy map
// as owned by this frame. Fails ErrDuplicateLazyMap if the id is already
// owned.
func (t *ObjectOwnershipTracker) TakeOwnershipLazyMap(m *LazyMap) error {
	if _, exists := t.ownedLazyMaps[m.Id()]; exists {
		return ErrDuplicateLazyMap
	}
	t.ownedLazyMaps[m.Id()] = m
	t.additionalObjectRefs[m.Id()] = true
	return nil
}

// CheckRef reports whether ref (a VaultId or LazyMapId) is one this frame
// may legitimately dereference: either handed to it initially or created /
// discovered during its own execution. Any other id is a forged reference
// (spec §4.6 "a component may never fabricate a reference to an object it
// was not given").
func (t *ObjectOwnershipTracker) CheckRef(ref interface{}) bool {
	return t.initialObjectRefs[ref] || t.additionalObjectRefs[ref]
}

// Vault returns the owned vault for id, failing ErrVaultNotFound if this
// frame does not own it.
func (t *ObjectOwnershipTracker) Vault(id VaultId) (*Vault, error) {
	v, ok := t.ownedVaults[id]
	if !ok {
		return nil, ErrVaultNotFound
	}
	return v, nil
}

// LazyMap returns the owned lazy map for id, failing ErrLazyMapNotFound if
// this frame does not own it.
func (t *ObjectOwnershipTracker) LazyMap(id LazyMapId) (*LazyMap, error) {
	m, ok := t.ownedLazyMaps[id]
	if !ok {
		return nil, ErrLazyMapNotFound
	}
	return m, nil
}

// OwnedVaults lists every vault this frame currently owns, for attachment
// to the owning component at commit time.
func (t *ObjectOwnershipTracker) OwnedVaults() []*Vault {
	out := make([]*Vault, 0, len(t.ownedVaults))
	for _, v := range t.ownedVaults {
		out = append(out, v)
	}
	return out
}

// OwnedLazyMaps lists every lazy map this frame currently owns.
func (t *ObjectOwnershipTracker) OwnedLazyMaps() []*LazyMap {
	out := make([]*LazyMap, 0, len(t.ownedLazyMaps))
	for _, m := range t.ownedLazyMaps {
		out = append(out, m)
	}
	return out
}

// LazyMap is a persistent, component-owned key/value store whose values may
// themselves embed further Vault/LazyMap references, nested without limit
// except the acyclicity check performed by DetectCycle (spec §4.6).
type LazyMap struct {
	id      LazyMapId
	entries map[string]ScryptoValue
}

// NewLazyMap returns an empty lazy map under id.
func NewLazyMap(id LazyMapId) *LazyMap {
	return &LazyMap{id: id, entries: make(map[string]ScryptoValue)}
}

func (m *LazyMap) Id() LazyMapId { return m.id }

// Get returns the value stored at key, if any.
func (m *LazyMap) Get(key []byte) (ScryptoValue, bool) {
	v, ok := m.entries[string(key)]
	return v, ok
}

// Put stores value at key, replacing any existing entry.
func (m *LazyMap) Put(key []byte, value ScryptoValue) {
	m.entries[string(key)] = value
}

// Keys returns every key currently stored, in no particular order.
func (m *LazyMap) Keys() [][]byte {
	out := make([][]byte, 0, len(m.entries))
	for k := range m.entries {
		out = append(out, []byte(k))
	}
	return out
}

// DetectCycle walks the lazy-map reference graph reachable from root using
// resolve to look up child maps by id, failing ErrCyclicLazyMap if any map
// is reachable from itself (spec §4.6 "lazy maps may reference other lazy
// maps but must not form a cycle").
func DetectCycle(root LazyMapId, resolve func(LazyMapId) (*LazyMap, []LazyMapId, bool)) error {
	visiting := make(map[LazyMapId]bool)
	var walk func(id LazyMapId) error
	walk = func(id LazyMapId) error {
		if visiting[id] {
			return ErrCyclicLazyMap
		}
		visiting[id] = true
		defer delete(visiting, id)
		_, children, ok := resolve(id)
		if !ok {
			return nil
		}
		for _, child := range children {
			if err := walk(child); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(root)
}
