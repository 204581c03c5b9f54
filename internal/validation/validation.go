// Package validation содержит функции валидации входных данных.
package validation

import "regexp"

var (
	emailRe   = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	phoneRe   = regexp.MustCompile(`^[6-9]\d{9}$`)
	pincodeRe = regexp.MustCompile(`^\d{6}$`)
)

// IsValidEmail проверяет формат адреса электронной почты.
func IsValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// IsValidPhone проверяет формат десятизначного номера телефона.
func IsValidPhone(phone string) bool {
	return phoneRe.MatchString(phone)
}

// IsValidPincode проверяет формат шестизначного почтового индекса.
func IsValidPincode(pincode string) bool {
	return pincodeRe.MatchString(pincode)
}
