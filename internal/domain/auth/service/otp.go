package service

import (
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// otpPeriod is the TOTP step. Codes derived at issue time stay checkable for
// the whole validity window because validation allows one step of skew.
const otpPeriod = 5 * time.Minute

// OTPValidity is how long an emailed verification code is accepted.
const OTPValidity = 10 * time.Minute

// GenerateOTPSecret creates a fresh TOTP secret for one verification flow.
func GenerateOTPSecret(accountName string) (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "Spendora",
		AccountName: accountName,
		Period:      uint(otpPeriod.Seconds()),
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate verification secret: %w", err)
	}
	return key.Secret(), nil
}

// GenerateOTPCode derives the six-digit code for the secret at the given time.
func GenerateOTPCode(secret string, at time.Time) (string, error) {
	code, err := totp.GenerateCodeCustom(secret, at, totp.ValidateOpts{
		Period:    uint(otpPeriod.Seconds()),
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("failed to derive verification code: %w", err)
	}
	return code, nil
}

// ValidateOTPCode checks a submitted code against the secret. at must be the
// code's issue time so the emailed code stays checkable for the whole
// validity window; expiry is enforced separately by the stored expires_at.
func ValidateOTPCode(secret, code string, at time.Time) bool {
	valid, err := totp.ValidateCustom(code, secret, at, totp.ValidateOpts{
		Period:    uint(otpPeriod.Seconds()),
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && valid
}
