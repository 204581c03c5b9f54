package validation

import "testing"

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"user@example.com", true},
		{"a@b.co", true},
		{"", false},
		{"no-at-sign", false},
		{"user@nodot", false},
		{"spa ce@example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if got := IsValidEmail(tt.email); got != tt.want {
				t.Errorf("IsValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}

func TestIsValidPhone(t *testing.T) {
	tests := []struct {
		phone string
		want  bool
	}{
		{"9876543210", true},
		{"6000000000", true},
		{"5876543210", false},
		{"98765", false},
		{"98765432100", false},
		{"abcdefghij", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			if got := IsValidPhone(tt.phone); got != tt.want {
				t.Errorf("IsValidPhone(%q) = %v, want %v", tt.phone, got, tt.want)
			}
		})
	}
}

func TestIsValidPincode(t *testing.T) {
	tests := []struct {
		pincode string
		want    bool
	}{
		{"110001", true},
		{"11000", false},
		{"1100011", false},
		{"11000a", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.pincode, func(t *testing.T) {
			if got := IsValidPincode(tt.pincode); got != tt.want {
				t.Errorf("IsValidPincode(%q) = %v, want %v", tt.pincode, got, tt.want)
			}
		})
	}
}
