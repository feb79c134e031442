// Package pin implements the client-side PIN policy: format and complexity
// heuristics for the 4-digit secondary authentication factor. PINs are
// compared server-side; this package only classifies and advises.
package pin

import (
	"strconv"

	"github.com/BradenHooton/posauth/internal/models"
)

const (
	PinLength = 4

	yearMin = 1900
	yearMax = 2025
)

// Common keypad walking patterns on a phone-style PIN pad. Straight lines
// and simple geometric shapes that show up constantly in breach corpora.
var keypadPatterns = map[string]bool{
	"2580": true, // middle column down
	"0852": true,
	"1470": true, // left column
	"0741": true,
	"3690": true, // right column
	"0963": true,
	"1590": true, // diagonals
	"0951": true,
	"3570": true,
	"0753": true,
	"2468": true, // evens / odds
	"8642": true,
	"1357": true,
	"7531": true,
	"1379": true, // corners
	"9731": true,
}

// IsValidFormat reports whether pin is exactly four numeric characters.
func IsValidFormat(pin string) bool {
	if len(pin) != PinLength {
		return false
	}
	for _, c := range pin {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// IsCommon reports membership in the fixed denylist: all-same digits,
// full ascending/descending sequences, year-like values and keypad patterns.
func IsCommon(pin string) bool {
	if !IsValidFormat(pin) {
		return false
	}
	return HasRepeatedDigits(pin) || HasSequentialDigits(pin) || IsYearLike(pin) || keypadPatterns[pin]
}

// HasSequentialDigits reports whether all four digits form a strictly
// ascending or strictly descending run (e.g. 1234, 9876).
func HasSequentialDigits(pin string) bool {
	if !IsValidFormat(pin) {
		return false
	}
	ascending, descending := true, true
	for i := 1; i < len(pin); i++ {
		diff := int(pin[i]) - int(pin[i-1])
		if diff != 1 {
			ascending = false
		}
		if diff != -1 {
			descending = false
		}
	}
	return ascending || descending
}

// HasRepeatedDigits reports whether all four digits are identical.
func HasRepeatedDigits(pin string) bool {
	if !IsValidFormat(pin) {
		return false
	}
	return pin[0] == pin[1] && pin[1] == pin[2] && pin[2] == pin[3]
}

// HasRepeatedPairs reports ABAB and AABB shapes (e.g. 1212, 1122).
func HasRepeatedPairs(pin string) bool {
	if !IsValidFormat(pin) {
		return false
	}
	if pin[:2] == pin[2:] {
		return true
	}
	return pin[0] == pin[1] && pin[2] == pin[3]
}

// IsYearLike reports values in the 1900-2025 range.
func IsYearLike(pin string) bool {
	if !IsValidFormat(pin) {
		return false
	}
	n, err := strconv.Atoi(pin)
	if err != nil {
		return false
	}
	return n >= yearMin && n <= yearMax
}

// IsDateLike reports MMDD or DDMM shapes with plausible month/day parts.
func IsDateLike(pin string) bool {
	if !IsValidFormat(pin) {
		return false
	}
	first, _ := strconv.Atoi(pin[:2])
	second, _ := strconv.Atoi(pin[2:])

	isMonth := func(n int) bool { return n >= 1 && n <= 12 }
	isDay := func(n int) bool { return n >= 1 && n <= 31 }

	return (isMonth(first) && isDay(second)) || (isDay(first) && isMonth(second))
}

// EvaluateStrength classifies a PIN. Checks run in a fixed order and the
// first matching category decides the strength: a PIN hitting several weak
// rules is still just "weak". Violations lists every matched category so
// setup UIs can explain themselves.
func EvaluateStrength(pin string) models.PinPolicyResult {
	if !IsValidFormat(pin) {
		return models.PinPolicyResult{
			Strength:   models.PinWeak,
			Violations: []models.PinViolation{models.ViolationFormat},
		}
	}

	var violations []models.PinViolation
	if IsCommon(pin) {
		violations = append(violations, models.ViolationCommon)
	}
	if HasSequentialDigits(pin) {
		violations = append(violations, models.ViolationSequential)
	}
	if HasRepeatedDigits(pin) {
		violations = append(violations, models.ViolationRepeated)
	}
	if HasRepeatedPairs(pin) {
		violations = append(violations, models.ViolationPairs)
	}
	if IsYearLike(pin) {
		violations = append(violations, models.ViolationYearLike)
	}
	if IsDateLike(pin) {
		violations = append(violations, models.ViolationDateLike)
	}

	strength := models.PinStrong
	switch {
	case IsCommon(pin), HasSequentialDigits(pin), HasRepeatedDigits(pin):
		strength = models.PinWeak
	case HasRepeatedPairs(pin), IsYearLike(pin), IsDateLike(pin):
		strength = models.PinMedium
	}

	return models.PinPolicyResult{Strength: strength, Violations: violations}
}

// ValidateComplexity returns the first failing reason in priority order:
// format, common, sequential, repeated. Medium-strength PINs pass.
func ValidateComplexity(pin string) models.ComplexityResult {
	switch {
	case !IsValidFormat(pin):
		return models.ComplexityResult{Reason: models.ViolationFormat}
	case IsCommon(pin):
		return models.ComplexityResult{Reason: models.ViolationCommon}
	case HasSequentialDigits(pin):
		return models.ComplexityResult{Reason: models.ViolationSequential}
	case HasRepeatedDigits(pin):
		return models.ComplexityResult{Reason: models.ViolationRepeated}
	}
	return models.ComplexityResult{Valid: true}
}
