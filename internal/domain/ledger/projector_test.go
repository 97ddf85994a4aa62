package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestComputeBasic(t *testing.T) {
	p := compute(
		counters{LifetimeEarnings: dec("130.00"), PendingMintBalance: dec("0")},
		aggregates{Redeemed: dec("0"), Refunded: dec("0"), Minted: dec("0")},
	)

	if !p.AvailableBalance.Equal(dec("130.00")) {
		t.Errorf("available = %s, want 130.00", p.AvailableBalance)
	}
	if !p.TotalEarned.Equal(dec("130.00")) {
		t.Errorf("total earned = %s, want 130.00", p.TotalEarned)
	}
}

func TestComputeRefundRestoresBalance(t *testing.T) {
	// Earn 130, redeem 99, refund 99: full restore.
	p := compute(
		counters{LifetimeEarnings: dec("130.00")},
		aggregates{Redeemed: dec("99.00"), Refunded: dec("99.00")},
	)

	if !p.AvailableBalance.Equal(dec("130.00")) {
		t.Errorf("available = %s, want 130.00", p.AvailableBalance)
	}
	if !p.TotalRedeemedNet.Equal(dec("0")) {
		t.Errorf("redeemed net = %s, want 0", p.TotalRedeemedNet)
	}
}

func TestComputePartialRefund(t *testing.T) {
	p := compute(
		counters{LifetimeEarnings: dec("130.00")},
		aggregates{Redeemed: dec("99.00"), Refunded: dec("40.00")},
	)

	if !p.AvailableBalance.Equal(dec("71.00")) {
		t.Errorf("available = %s, want 71.00", p.AvailableBalance)
	}
}

func TestComputeClampsToZero(t *testing.T) {
	p := compute(
		counters{LifetimeEarnings: dec("50.00"), PendingMintBalance: dec("30.00")},
		aggregates{Redeemed: dec("40.00")},
	)

	if !p.AvailableBalance.Equal(decimal.Zero) {
		t.Errorf("available = %s, want 0", p.AvailableBalance)
	}
}

func TestComputeMintReducesAvailable(t *testing.T) {
	// Request moves 25 into pending, completion moves it to minted. The
	// available balance is the same at every step of the handoff.
	pending := compute(
		counters{LifetimeEarnings: dec("100.00"), PendingMintBalance: dec("25.00")},
		aggregates{},
	)
	completed := compute(
		counters{LifetimeEarnings: dec("100.00")},
		aggregates{Minted: dec("25.00")},
	)

	if !pending.AvailableBalance.Equal(dec("75.00")) {
		t.Errorf("pending available = %s, want 75.00", pending.AvailableBalance)
	}
	if !completed.AvailableBalance.Equal(dec("75.00")) {
		t.Errorf("completed available = %s, want 75.00", completed.AvailableBalance)
	}
}

func TestComputeExactDecimalAddition(t *testing.T) {
	// 0.10 + 0.20 must be exactly 0.30, never 0.30000000000000004.
	sum := dec("0.10").Add(dec("0.20"))
	p := compute(counters{LifetimeEarnings: sum}, aggregates{})

	if !p.AvailableBalance.Equal(dec("0.30")) {
		t.Errorf("available = %s, want 0.30", p.AvailableBalance)
	}
	if p.AvailableBalance.String() != "0.3" {
		t.Errorf("string form = %q, want %q", p.AvailableBalance.String(), "0.3")
	}
}

func TestKindEarnClass(t *testing.T) {
	earnClass := []Kind{KindEarn, KindReward, KindReferralBonus, KindTierBonus}
	for _, k := range earnClass {
		if !k.IsEarnClass() {
			t.Errorf("%s should be earn-class", k)
		}
	}

	rest := []Kind{KindRedeem, KindServiceRedemption, KindServiceRedemptionRefund, KindMintToWallet, KindTransferIn, KindTransferOut}
	for _, k := range rest {
		if k.IsEarnClass() {
			t.Errorf("%s should not be earn-class", k)
		}
	}
}

func TestKindIsRedemption(t *testing.T) {
	if !KindRedeem.IsRedemption() || !KindServiceRedemption.IsRedemption() {
		t.Error("redeem kinds should be redemptions")
	}
	if KindServiceRedemptionRefund.IsRedemption() {
		t.Error("a refund is not a redemption")
	}
}
