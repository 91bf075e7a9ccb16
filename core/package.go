package core

// Blueprint is one exported type in a published package: its function/
// method ABI plus the access rules guarding each entry point (spec §4.1
// "Package / Blueprint").
type Blueprint struct {
	Name string

	// Functions are entry points invoked without an existing component
	// instance (typically constructors). Methods are invoked against an
	// existing Component.
	Functions map[string]Abi
	Methods   map[string]Abi

	AccessRules *AccessRules
}

// Abi describes one function or method's argument/return shape purely for
// validation of the invoke protocol's "harvest and reject" step (spec
// §4.7); the guest itself is responsible for decoding its own arguments
// according to this same shape.
type Abi struct {
	// ArgCount is the number of positional arguments the function/method
	// expects, not counting an implicit receiver.
	ArgCount int
}

// Package is an immutable, published unit of validated guest bytecode plus
// the blueprints it exports (spec §4.1). Once published, neither the code
// nor the blueprint ABIs may change.
type Package struct {
	Address    PackageAddress
	Code       []byte // validated, instrumented wasm bytes
	Blueprints map[string]*Blueprint
}

// NewPackage constructs a package from already-validated code and its
// blueprint table. Validation/instrumentation of code itself is performed
// by the guest runtime before publication (spec §1 "external collaborator:
// the validator/instrumenter").
func NewPackage(address PackageAddress, code []byte, blueprints map[string]*Blueprint) *Package {
	return &Package{Address: address, Code: code, Blueprints: blueprints}
}

// Blueprint looks up a blueprint by name, failing ErrBlueprintNotFound.
func (p *Package) Blueprint(name string) (*Blueprint, error) {
	bp, ok := p.Blueprints[name]
	if !ok {
		return nil, ErrBlueprintNotFound
	}
	return bp, nil
}

// Function looks up a blueprint's function ABI by name, reporting whether
// it exists.
func (bp *Blueprint) Function(name string) (Abi, bool) {
	abi, ok := bp.Functions[name]
	return abi, ok
}

// Method looks up a blueprint's method ABI by name.
func (bp *Blueprint) Method(name string) (Abi, bool) {
	abi, ok := bp.Methods[name]
	return abi, ok
}
