package core

import "testing"

func TestPackageBlueprintLookup(t *testing.T) {
	pkg := NewPackage(PackageAddress{1}, nil, map[string]*Blueprint{
		"Counter": {
			Name:      "Counter",
			Functions: map[string]Abi{"new": {ArgCount: 0}},
			Methods:   map[string]Abi{"increment": {ArgCount: 1}},
		},
	})

	bp, err := pkg.Blueprint("Counter")
	if err != nil {
		t.Fatalf("Blueprint: %v", err)
	}
	if abi, ok := bp.Function("new"); !ok || abi.ArgCount != 0 {
		t.Fatalf("Function(new) = %v, %v", abi, ok)
	}
	if abi, ok := bp.Method("increment"); !ok || abi.ArgCount != 1 {
		t.Fatalf("Method(increment) = %v, %v", abi, ok)
	}
	if _, ok := bp.Method("nonexistent"); ok {
		t.Fatal("Method(nonexistent) should not be found")
	}
}

func TestPackageBlueprintNotFound(t *testing.T) {
	pkg := NewPackage(PackageAddress{2}, nil, map[string]*Blueprint{})
	if _, err := pkg.Blueprint("Missing"); err != ErrBlueprintNotFound {
		t.Fatalf("got %v, want ErrBlueprintNotFound", err)
	}
}
