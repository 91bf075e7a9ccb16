package core

// AuthRule is a predicate tree evaluated against a frame's proof vector
// (the union of its auth zone and any proofs passed explicitly as call
// arguments), per spec §4.5/§4.7 "authorization check against a proof
// vector". A rule is one of: require one resource, require all of a list,
// or require any of a list; composite rules nest arbitrarily.
type AuthRule struct {
	kind      authRuleKind
	resource  ResourceAddress
	children  []*AuthRule
}

type authRuleKind int

const (
	authRuleRequire authRuleKind = iota
	authRuleAllOf
	authRuleAnyOf
)

// RequireResource builds a leaf rule satisfied by any proof of
// resourceAddress present in the proof vector.
func RequireResource(resourceAddress ResourceAddress) *AuthRule {
	return &AuthRule{kind: authRuleRequire, resource: resourceAddress}
}

// AllOf builds a rule satisfied only when every child rule is satisfied.
func AllOf(children ...*AuthRule) *AuthRule {
	return &AuthRule{kind: authRuleAllOf, children: children}
}

// AnyOf builds a rule satisfied when at least one child rule is satisfied.
func AnyOf(children ...*AuthRule) *AuthRule {
	return &AuthRule{kind: authRuleAnyOf, children: children}
}

// Evaluate reports whether rule is satisfied by the given proof vector. A
// nil rule is always satisfied (spec §4.5 "a method with no rule configured
// is callable by anyone").
func (rule *AuthRule) Evaluate(proofs []*Proof) bool {
	if rule == nil {
		return true
	}
	switch rule.kind {
	case authRuleRequire:
		for _, p := range proofs {
			if p.ResourceAddress() == rule.resource && !p.Amount().IsZero() {
				return true
			}
		}
		return false
	case authRuleAllOf:
		for _, c := range rule.children {
			if !c.Evaluate(proofs) {
				return false
			}
		}
		return true
	case authRuleAnyOf:
		for _, c := range rule.children {
			if c.Evaluate(proofs) {
				return true
			}
		}
		return false
	}
	return false
}

// checkAuthRule evaluates rule against proofs, translating a failed
// evaluation into the call's AuthorizationError.
func checkAuthRule(rule *AuthRule, proofs []*Proof) error {
	if rule.Evaluate(proofs) {
		return nil
	}
	return &AuthorizationError{Reason: "required proof not present in proof vector"}
}

// AccessRules maps blueprint function or component method names to the
// authorization predicate guarding each, with a default rule for names not
// listed (spec §4.5). MethodAuthRules (resource
// manager methods) and a blueprint/component's AccessRules table both
// resolve to an *AuthRule via this shared evaluator.
type AccessRules struct {
	byMethod map[string]*AuthRule
	defaultRule *AuthRule
}

// NewAccessRules builds an access-rule table; byMethod is a (possibly
// empty) method-name -> rule map, defaultRule governs any method not
// listed (nil meaning callable by anyone).
func NewAccessRules(byMethod map[string]*AuthRule, defaultRule *AuthRule) *AccessRules {
	m := make(map[string]*AuthRule, len(byMethod))
	for k, v := range byMethod {
		m[k] = v
	}
	return &AccessRules{byMethod: m, defaultRule: defaultRule}
}

// Check evaluates the rule for methodName against proofs.
func (a *AccessRules) Check(methodName string, proofs []*Proof) error {
	if a == nil {
		return nil
	}
	rule, ok := a.byMethod[methodName]
	if !ok {
		rule = a.defaultRule
	}
	return checkAuthRule(rule, proofs)
}
