package models

// PinStrength classifies a PIN. Weak PINs are rejected at setup time,
// medium PINs are allowed with a warning, strong PINs pass silently.
type PinStrength string

const (
	PinWeak   PinStrength = "weak"
	PinMedium PinStrength = "medium"
	PinStrong PinStrength = "strong"
)

// PinViolation names one weakness category a PIN matched.
type PinViolation string

const (
	ViolationFormat     PinViolation = "format"
	ViolationCommon     PinViolation = "common"
	ViolationSequential PinViolation = "sequential"
	ViolationRepeated   PinViolation = "repeated"
	ViolationPairs      PinViolation = "repeated_pairs"
	ViolationYearLike   PinViolation = "year_like"
	ViolationDateLike   PinViolation = "date_like"
)

// PinPolicyResult is the full evaluation of a candidate PIN.
type PinPolicyResult struct {
	Strength   PinStrength
	Violations []PinViolation
}

// ComplexityResult is the pass/fail view used at PIN setup and change time.
// Reason carries the first failing violation in priority order.
type ComplexityResult struct {
	Valid  bool
	Reason PinViolation
}
