package core

import "testing"

// TestMeteringExhaustsAtExactLimit reproduces the two-scenario check
// supplemented from the original engine's metering tests: a transaction
// whose exact cost equals the budget succeeds, and one unit more exhausts
// it with OutOfTbd rather than ever going negative.
func TestMeteringExhaustsAtExactLimit(t *testing.T) {
	costs := DefaultCostTable()
	costs.PerWasmInstruction = 1
	costs.HostCallBase = 0
	costs.HostCallCost = map[string]uint64{}

	meter := NewTbdMeter(100, costs)
	if err := meter.ChargeWasmInstructions(100); err != nil {
		t.Fatalf("charging exactly the limit should succeed: %v", err)
	}
	if meter.Balance() != 0 {
		t.Fatalf("balance = %d, want 0", meter.Balance())
	}

	if err := meter.ChargeWasmInstructions(1); err == nil {
		t.Fatal("charging past an exhausted meter should fail")
	} else if _, ok := err.(*OutOfTbd); !ok {
		t.Fatalf("got %T, want *OutOfTbd", err)
	}
	if meter.Balance() != 0 {
		t.Fatalf("balance must not go negative or change on a failed charge, got %d", meter.Balance())
	}
}

func TestMeteringHostCallSurcharge(t *testing.T) {
	costs := DefaultCostTable()
	meter := NewTbdMeter(costs.HostCallBase+costs.HostCallCost["invoke_function"], costs)
	if err := meter.ChargeHostCall("invoke_function"); err != nil {
		t.Fatalf("ChargeHostCall: %v", err)
	}
	if meter.Balance() != 0 {
		t.Fatalf("balance = %d, want 0", meter.Balance())
	}
}

func TestMeteringUnknownHostCallChargesBaseOnly(t *testing.T) {
	costs := DefaultCostTable()
	meter := NewTbdMeter(costs.HostCallBase, costs)
	if err := meter.ChargeHostCall("some_unregistered_call"); err != nil {
		t.Fatalf("ChargeHostCall: %v", err)
	}
	if meter.Balance() != 0 {
		t.Fatalf("balance = %d, want 0 (base surcharge only)", meter.Balance())
	}
}
