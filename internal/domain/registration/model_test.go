package registration

import "testing"

func TestRegistration_Eligibility(t *testing.T) {
	points := 0
	cases := []struct {
		name     string
		reg      Registration
		eligible bool
		counts   bool
		locked   bool
	}{
		{name: "pending unpaid", reg: Registration{Status: StatusPending, PaymentStatus: PaymentPending}, counts: true},
		{name: "approved unpaid", reg: Registration{Status: StatusApproved, PaymentStatus: PaymentPending}, counts: true},
		{name: "approved paid", reg: Registration{Status: StatusApproved, PaymentStatus: PaymentPaid}, eligible: true, counts: true},
		{name: "rejected paid", reg: Registration{Status: StatusRejected, PaymentStatus: PaymentPaid}},
		{name: "scored", reg: Registration{Status: StatusApproved, PaymentStatus: PaymentPaid, Points: &points}, eligible: true, counts: true, locked: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.reg.EligibleForHeat(); got != tc.eligible {
				t.Fatalf("EligibleForHeat=%v, want %v", got, tc.eligible)
			}
			if got := tc.reg.CountsTowardsCapacity(); got != tc.counts {
				t.Fatalf("CountsTowardsCapacity=%v, want %v", got, tc.counts)
			}
			if got := tc.reg.StatusLocked(); got != tc.locked {
				t.Fatalf("StatusLocked=%v, want %v", got, tc.locked)
			}
		})
	}
}

func TestInitialPaymentStatus(t *testing.T) {
	if got := InitialPaymentStatus(0); got != PaymentPaid {
		t.Fatalf("free event should start paid, got %s", got)
	}
	if got := InitialPaymentStatus(5000); got != PaymentPending {
		t.Fatalf("paid event should start pending, got %s", got)
	}
}
