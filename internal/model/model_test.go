package model

import "testing"

func TestCartTotals(t *testing.T) {
	cart := &Cart{
		Lines: []CartLine{
			{Price: 10000, Discount: 500, Quantity: 2},
			{Price: 5000, Quantity: 1},
		},
	}

	if got := cart.Total(); got != 25000 {
		t.Fatalf("Total = %d, want 25000", got)
	}
	if got := cart.TotalDiscount(); got != 1000 {
		t.Fatalf("TotalDiscount = %d, want 1000", got)
	}

	empty := &Cart{}
	if got := empty.Total(); got != 0 {
		t.Fatalf("empty cart Total = %d, want 0", got)
	}
}

func TestValidCategory(t *testing.T) {
	valid := []CardCategory{CategoryMarriage, CategoryBirthday, CategoryFestival, CategoryBabyShower, CategoryBusiness}
	for _, c := range valid {
		if !ValidCategory(c) {
			t.Fatalf("category %q must be valid", c)
		}
	}
	if ValidCategory("postcard") {
		t.Fatalf("unknown category must be invalid")
	}
}

func TestHasRole(t *testing.T) {
	u := &User{Roles: []Role{RoleUser, RoleWholesaler}}

	if !u.HasRole(RoleWholesaler) {
		t.Fatalf("expected wholesaler role")
	}
	if u.HasRole(RoleAdmin) {
		t.Fatalf("unexpected admin role")
	}
}
