package model

import "testing"

func TestComputeBagStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		quantity int64
		isActive bool
		want     BagStatus
	}{
		{5, true, BagStatusAvailable},
		{1, true, BagStatusAvailable},
		{0, true, BagStatusSold},
		{5, false, BagStatusSold},
		{0, false, BagStatusSold},
	}

	for _, tc := range cases {
		if got := ComputeBagStatus(tc.quantity, tc.isActive); got != tc.want {
			t.Errorf("ComputeBagStatus(%d, %v) = %s, want %s", tc.quantity, tc.isActive, got, tc.want)
		}
	}
}

func TestSurpriseBagAvailable(t *testing.T) {
	t.Parallel()

	bag := SurpriseBag{Quantity: 3, IsActive: true, Status: BagStatusAvailable}
	if !bag.Available() {
		t.Fatalf("expected available")
	}

	bag.Quantity = 0
	if bag.Available() {
		t.Fatalf("expected unavailable at zero quantity")
	}
}

func TestRoleIsValid(t *testing.T) {
	t.Parallel()

	for _, r := range []Role{RoleCustomer, RoleStore} {
		if !r.IsValid() {
			t.Errorf("expected %s to be valid", r)
		}
	}
	for _, r := range []Role{"", "admin", "Customer"} {
		if r.IsValid() {
			t.Errorf("expected %s to be invalid", r)
		}
	}
}
