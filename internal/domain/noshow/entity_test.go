package noshow

import "testing"

func TestStandingForThresholds(t *testing.T) {
	// Shop thresholds: caution at 2, deposit at 4, suspension at 6.
	cases := []struct {
		count int
		want  Standing
	}{
		{0, StandingNone},
		{1, StandingNone},
		{2, StandingCaution},
		{3, StandingCaution},
		{4, StandingDepositRequired},
		{5, StandingDepositRequired},
		{6, StandingSuspended},
		{10, StandingSuspended},
	}

	for _, c := range cases {
		if got := StandingFor(c.count, 2, 4, 6); got != c.want {
			t.Errorf("StandingFor(%d) = %s, want %s", c.count, got, c.want)
		}
	}
}

func TestStandingForDisabledRungs(t *testing.T) {
	// A zero threshold disables that rung.
	if got := StandingFor(100, 0, 0, 0); got != StandingNone {
		t.Errorf("all rungs disabled: got %s, want none", got)
	}
	if got := StandingFor(3, 0, 3, 0); got != StandingDepositRequired {
		t.Errorf("deposit-only shop: got %s, want deposit_required", got)
	}
}

func TestStandingForReversalRecompute(t *testing.T) {
	// Three no-shows put the customer at caution; reversing one drops the
	// effective count below the threshold. Re-deriving from the count makes
	// the recompute idempotent: the same count always maps to the same
	// standing.
	before := StandingFor(3, 3, 5, 7)
	if before != StandingCaution {
		t.Fatalf("count 3: got %s, want caution", before)
	}

	after := StandingFor(2, 3, 5, 7)
	if after != StandingNone {
		t.Errorf("count 2 after reversal: got %s, want none", after)
	}
	if again := StandingFor(2, 3, 5, 7); again != after {
		t.Errorf("recompute not stable: %s then %s", after, again)
	}
}
