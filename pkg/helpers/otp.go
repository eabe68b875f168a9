package helpers

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// OTP helpers

var otpSpace = big.NewInt(1_000_000)

// GenOTPCode generates a uniformly distributed 6-digit OTP code as a zero-padded string.
func GenOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, otpSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// IsOTPCode reports whether s has the shape of a code produced by GenOTPCode.
func IsOTPCode(s string) bool {
	if len(s) != 6 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
