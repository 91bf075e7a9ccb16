package core

import "testing"

func badgeProof(t *testing.T, addr ResourceAddress) *Proof {
	t.Helper()
	c := NewEmptyFungibleContainer(addr, 18)
	_ = c.mint(AmountFromInt(1))
	p, err := ComposeFull([]*ResourceContainer{c}, addr, ResourceTypeFungible)
	if err != nil {
		t.Fatalf("ComposeFull: %v", err)
	}
	return p
}

func TestAuthRuleAllOf(t *testing.T) {
	a, b := testResourceAddress(1), testResourceAddress(2)
	rule := AllOf(RequireResource(a), RequireResource(b))

	pa := badgeProof(t, a)
	if rule.Evaluate([]*Proof{pa}) {
		t.Fatal("AllOf should fail with only one of two required badges")
	}
	pb := badgeProof(t, b)
	if !rule.Evaluate([]*Proof{pa, pb}) {
		t.Fatal("AllOf should succeed once both required badges are present")
	}
	_ = pa.Drop()
	_ = pb.Drop()
}

func TestAuthRuleAnyOf(t *testing.T) {
	a, b := testResourceAddress(1), testResourceAddress(2)
	rule := AnyOf(RequireResource(a), RequireResource(b))

	pb := badgeProof(t, b)
	if !rule.Evaluate([]*Proof{pb}) {
		t.Fatal("AnyOf should succeed with just one matching badge")
	}
	_ = pb.Drop()

	if rule.Evaluate(nil) {
		t.Fatal("AnyOf should fail with no proofs at all")
	}
}

func TestAccessRulesDefaultAndPerMethod(t *testing.T) {
	a := testResourceAddress(1)
	rules := NewAccessRules(map[string]*AuthRule{
		"withdraw": RequireResource(a),
	}, nil)

	if err := rules.Check("deposit", nil); err != nil {
		t.Fatalf("method with no specific rule should fall back to default (nil = open): %v", err)
	}
	if err := rules.Check("withdraw", nil); err == nil {
		t.Fatal("withdraw should require the configured badge")
	}
	p := badgeProof(t, a)
	if err := rules.Check("withdraw", []*Proof{p}); err != nil {
		t.Fatalf("withdraw with badge: %v", err)
	}
	_ = p.Drop()
}
