package pin

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/BradenHooton/posauth/internal/models"
)

// maxGenerateRetries bounds the rejection-sampling loop. The strong-PIN
// acceptance rate is high enough that hitting this cap is vanishingly rare;
// if it happens anyway we accept a medium-strength result instead of
// spinning forever.
const maxGenerateRetries = 1000

// GenerateSecurePin draws a uniformly random permutation of four distinct
// digits (Fisher-Yates over 0-9, take the first four) and retries until the
// result evaluates as strong.
func GenerateSecurePin() (string, error) {
	var fallback string

	for i := 0; i < maxGenerateRetries; i++ {
		candidate, err := randomDistinctDigits()
		if err != nil {
			return "", fmt.Errorf("failed to generate pin: %w", err)
		}

		switch EvaluateStrength(candidate).Strength {
		case models.PinStrong:
			return candidate, nil
		case models.PinMedium:
			fallback = candidate
		}
	}

	if fallback != "" {
		return fallback, nil
	}
	return "", fmt.Errorf("failed to generate pin: retry budget exhausted")
}

// randomDistinctDigits shuffles the digits 0-9 and takes the first four.
func randomDistinctDigits() (string, error) {
	digits := []byte{'0', '1', '2', '3', '4', '5', '6', '7', '8', '9'}
	for i := len(digits) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		j := int(n.Int64())
		digits[i], digits[j] = digits[j], digits[i]
	}
	return string(digits[:PinLength]), nil
}
