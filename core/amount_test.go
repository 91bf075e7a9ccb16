package core

import "testing"

func TestAmountAddSub(t *testing.T) {
	a := AmountFromInt(5)
	b := AmountFromInt(3)

	sum, err := a.Add(b)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if sum.String() != "8.000000000000000000" {
		t.Fatalf("got %s, want 8.0...", sum.String())
	}

	diff, err := a.Sub(b)
	if err != nil {
		t.Fatalf("Sub: %v", err)
	}
	if diff.String() != "2.000000000000000000" {
		t.Fatalf("got %s, want 2.0...", diff.String())
	}
}

func TestAmountAddOverflow(t *testing.T) {
	max := AmountFromRaw(amountMax)
	_, err := max.Add(AmountFromInt(1))
	if err == nil {
		t.Fatal("expected InvalidAmount on overflow")
	}
	var ia *InvalidAmount
	if _, ok := err.(*InvalidAmount); !ok {
		t.Fatalf("got %T, want *InvalidAmount", err)
	}
	_ = ia
}

func TestAmountDivisibilityAligned(t *testing.T) {
	amt, err := ParseAmount("1.5")
	if err != nil {
		t.Fatalf("ParseAmount: %v", err)
	}
	if !amt.DivisibilityAligned(18) {
		t.Fatal("1.5 should align at divisibility 18")
	}
	if amt.DivisibilityAligned(0) {
		t.Fatal("1.5 should not align at divisibility 0")
	}
	whole, err := ParseAmount("3")
	if err != nil {
		t.Fatalf("ParseAmount: %v", err)
	}
	if !whole.DivisibilityAligned(0) {
		t.Fatal("3 should align at divisibility 0")
	}
}

func TestParseAmountRoundTrip(t *testing.T) {
	cases := []string{"0.000000000000000001", "1.500000000000000000", "-2.250000000000000000", "0.000000000000000000"}
	for _, c := range cases {
		amt, err := ParseAmount(c)
		if err != nil {
			t.Fatalf("ParseAmount(%q): %v", c, err)
		}
		if got := amt.String(); got != c {
			t.Errorf("ParseAmount(%q).String() = %q", c, got)
		}
	}
}

func TestAmountAsUint64Count(t *testing.T) {
	whole := AmountFromInt(7)
	n, ok := whole.AsUint64Count()
	if !ok || n != 7 {
		t.Fatalf("got (%d,%v), want (7,true)", n, ok)
	}

	frac, err := ParseAmount("7.5")
	if err != nil {
		t.Fatalf("ParseAmount: %v", err)
	}
	if _, ok := frac.AsUint64Count(); ok {
		t.Fatal("fractional amount should not be a valid count")
	}

	neg := AmountFromInt(-1)
	if _, ok := neg.AsUint64Count(); ok {
		t.Fatal("negative amount should not be a valid count")
	}
}
