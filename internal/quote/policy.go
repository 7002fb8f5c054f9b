package quote

import "github.com/shopspring/decimal"

// DefaultThreshold is the trigger point used when none is configured.
var DefaultThreshold = decimal.RequireFromString("5.50")

// Status labels a record relative to the threshold.
type Status string

const (
	StatusNormal Status = "normal"
	StatusAlert  Status = "alert"
)

// Policy is the single threshold decision shared by recording and alerting.
type Policy struct {
	Threshold decimal.Decimal
}

// NewPolicy returns a Policy, falling back to DefaultThreshold for non-positive values.
func NewPolicy(threshold decimal.Decimal) Policy {
	if !threshold.IsPositive() {
		threshold = DefaultThreshold
	}
	return Policy{Threshold: threshold}
}

// Exceeded reports whether the amount is strictly above the threshold.
func (p Policy) Exceeded(r Record) bool {
	return r.Amount.GreaterThan(p.Threshold)
}

// Status maps a record onto its label.
func (p Policy) Status(r Record) Status {
	if p.Exceeded(r) {
		return StatusAlert
	}
	return StatusNormal
}
