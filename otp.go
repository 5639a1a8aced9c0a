package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"math/big"
	"strconv"

	goerrors "github.com/goliatone/go-errors"
)

const (
	otpMin = 100000
	otpMax = 999999
)

// OTPGenerator returns a fresh verification code
type OTPGenerator func() (string, error)

// GenerateOTP draws a 6 digit code uniformly from [100000, 999999]
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpMax-otpMin+1))
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate verification code").
			WithCode(goerrors.CodeInternal)
	}
	return strconv.FormatInt(n.Int64()+otpMin, 10), nil
}

// OTPMatches compares codes in constant time
func OTPMatches(expected, submitted string) bool {
	if expected == "" || submitted == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(submitted)) == 1
}
