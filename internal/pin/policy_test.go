package pin_test

import (
	"testing"

	"github.com/BradenHooton/posauth/internal/models"
	"github.com/BradenHooton/posauth/internal/pin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidFormat(t *testing.T) {
	tests := []struct {
		name  string
		pin   string
		valid bool
	}{
		{name: "four digits", pin: "4829", valid: true},
		{name: "all zeros still valid format", pin: "0000", valid: true},
		{name: "too short", pin: "123", valid: false},
		{name: "too long", pin: "12345", valid: false},
		{name: "letter in the middle", pin: "12a4", valid: false},
		{name: "empty", pin: "", valid: false},
		{name: "unicode digit lookalike", pin: "12٣4", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, pin.IsValidFormat(tt.pin))
		})
	}
}

func TestEvaluateStrength_WeakCategories(t *testing.T) {
	weak := []string{"1234", "0000", "9876", "2580", "1111", "2023", "0123"}
	for _, p := range weak {
		result := pin.EvaluateStrength(p)
		assert.Equal(t, models.PinWeak, result.Strength, "pin %q", p)
		assert.NotEmpty(t, result.Violations, "pin %q", p)
	}
}

func TestEvaluateStrength_MediumCategories(t *testing.T) {
	result := pin.EvaluateStrength("1212")
	assert.Equal(t, models.PinMedium, result.Strength)
	assert.Contains(t, result.Violations, models.ViolationPairs)

	result = pin.EvaluateStrength("7744")
	assert.Equal(t, models.PinMedium, result.Strength)

	// Date-like: 03/14 reads as a date either way round
	result = pin.EvaluateStrength("0314")
	assert.Equal(t, models.PinMedium, result.Strength)
	assert.Contains(t, result.Violations, models.ViolationDateLike)
}

func TestEvaluateStrength_Strong(t *testing.T) {
	// Distinct non-sequential digits with no date or year reading
	for _, p := range []string{"8305", "7392", "4936"} {
		result := pin.EvaluateStrength(p)
		assert.Equal(t, models.PinStrong, result.Strength, "pin %q", p)
		assert.Empty(t, result.Violations, "pin %q", p)
	}
}

func TestEvaluateStrength_FirstMatchWins(t *testing.T) {
	// 1234 is common, sequential AND date-like; it is reported weak, not
	// anything stronger, and every matched category appears in Violations.
	result := pin.EvaluateStrength("1234")
	assert.Equal(t, models.PinWeak, result.Strength)
	assert.Contains(t, result.Violations, models.ViolationCommon)
	assert.Contains(t, result.Violations, models.ViolationSequential)
}

func TestEvaluateStrength_InvalidFormat(t *testing.T) {
	result := pin.EvaluateStrength("12a4")
	assert.Equal(t, models.PinWeak, result.Strength)
	assert.Equal(t, []models.PinViolation{models.ViolationFormat}, result.Violations)
}

func TestValidateComplexity_PriorityOrder(t *testing.T) {
	tests := []struct {
		name   string
		pin    string
		valid  bool
		reason models.PinViolation
	}{
		{name: "bad format reported first", pin: "12a", reason: models.ViolationFormat},
		{name: "keypad pattern is common", pin: "2580", reason: models.ViolationCommon},
		{name: "sequence is reported as common", pin: "3456", reason: models.ViolationCommon},
		{name: "repeated is reported as common", pin: "7777", reason: models.ViolationCommon},
		{name: "medium pin passes", pin: "1212", valid: true},
		{name: "strong pin passes", pin: "8305", valid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := pin.ValidateComplexity(tt.pin)
			assert.Equal(t, tt.valid, result.Valid)
			if !tt.valid {
				assert.Equal(t, tt.reason, result.Reason)
			}
		})
	}
}

func TestIsDateLike(t *testing.T) {
	assert.True(t, pin.IsDateLike("0314")) // March 14th
	assert.True(t, pin.IsDateLike("3101")) // 31st of January
	assert.False(t, pin.IsDateLike("0000"))
	assert.False(t, pin.IsDateLike("3232"))
	assert.False(t, pin.IsDateLike("9999"))
}

func TestIsYearLike(t *testing.T) {
	assert.True(t, pin.IsYearLike("1900"))
	assert.True(t, pin.IsYearLike("2025"))
	assert.False(t, pin.IsYearLike("1899"))
	assert.False(t, pin.IsYearLike("2026"))
}

func TestGenerateSecurePin_AlwaysStrong(t *testing.T) {
	for i := 0; i < 200; i++ {
		p, err := pin.GenerateSecurePin()
		require.NoError(t, err)
		require.True(t, pin.IsValidFormat(p))
		require.Equal(t, models.PinStrong, pin.EvaluateStrength(p).Strength, "pin %q", p)

		// Distinct digits by construction
		seen := map[byte]bool{}
		for j := 0; j < len(p); j++ {
			require.False(t, seen[p[j]], "pin %q repeats a digit", p)
			seen[p[j]] = true
		}
	}
}
