package models

// RiskLevel is the four-bucket severity shared by the form engine and the keyword classifier
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

// Form score thresholds (inclusive lower bounds)
const (
	RiskThresholdCritical = 26
	RiskThresholdHigh     = 16
	RiskThresholdMedium   = 6
)

// RiskLevelFromScore buckets a total form risk score
func RiskLevelFromScore(score int) RiskLevel {
	switch {
	case score >= RiskThresholdCritical:
		return RiskLevelCritical
	case score >= RiskThresholdHigh:
		return RiskLevelHigh
	case score >= RiskThresholdMedium:
		return RiskLevelMedium
	default:
		return RiskLevelLow
	}
}

// Rank orders levels so two levels can be compared; unknown levels rank lowest
func (l RiskLevel) Rank() int {
	switch l {
	case RiskLevelLow:
		return 1
	case RiskLevelMedium:
		return 2
	case RiskLevelHigh:
		return 3
	case RiskLevelCritical:
		return 4
	}
	return 0
}

// MaxRiskLevel returns the more severe of two levels
func MaxRiskLevel(a, b RiskLevel) RiskLevel {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// IsValid checks if the level is one of the four known buckets
func (l RiskLevel) IsValid() bool {
	return l.Rank() > 0
}
