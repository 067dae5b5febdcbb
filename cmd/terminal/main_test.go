package main

import "testing"

func TestValidatePINStrengthRejectsWeakValues(t *testing.T) {
	for _, pin := range []string{"12", "1234", "0000", "8888", "123456", "987654", "112233"} {
		if err := validatePINStrength(pin); err == nil {
			t.Fatalf("expected weak pin %q to be rejected", pin)
		}
	}
}

func TestValidatePINStrengthAcceptsStrongValues(t *testing.T) {
	for _, pin := range []string{"7294", "739154", "40872"} {
		if err := validatePINStrength(pin); err != nil {
			t.Fatalf("expected pin %q to pass, got %v", pin, err)
		}
	}
}
