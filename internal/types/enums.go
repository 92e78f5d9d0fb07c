package types

// Action identifies which AWS event family a parsed record belongs to.
// It is the discriminant tag on Fact and drives renderer dispatch.
type Action string

const (
	ActionCloudWatch  Action = "CloudWatch"
	ActionGuardDuty   Action = "GuardDuty"
	ActionHealth      Action = "Health"
	ActionBackup      Action = "Backup"
	ActionBudget      Action = "Budget"
	ActionSavingsPlan Action = "SavingsPlan"
	ActionSecurityHub Action = "SecurityHub"
	ActionDMS         Action = "DMS"
	ActionCostAnomaly Action = "CostAnomaly"
	ActionUnknown     Action = "Unknown"
)

// Priority is the normalized severity vocabulary shared by all event
// families. Sources map their native severities onto this set during
// extraction; renderers collapse it further into presentation tiers.
type Priority string

const (
	PriorityNoError  Priority = "NO_ERROR"
	PriorityGood     Priority = "GOOD"
	PriorityInfo     Priority = "INFO"
	PriorityLow      Priority = "LOW"
	PriorityAdvisory Priority = "ADVISORY"
	PriorityWarning  Priority = "WARNING"
	PriorityMedium   Priority = "MEDIUM"
	PriorityError    Priority = "ERROR"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

// Tier is the presentation grouping every Priority collapses to.
type Tier int

const (
	TierGood Tier = iota
	TierLow
	TierWarning
	TierError
)

// Tier collapses the priority onto the presentation tier that drives the
// accent color and whether an attention or warning emblem is shown.
func (p Priority) Tier() Tier {
	switch p {
	case PriorityError, PriorityHigh, PriorityCritical:
		return TierError
	case PriorityWarning, PriorityMedium:
		return TierWarning
	case PriorityLow, PriorityAdvisory:
		return TierLow
	default:
		return TierGood
	}
}

// Vendor identifies a chat platform a card payload targets.
type Vendor string

const (
	VendorSlack Vendor = "slack"
	VendorTeams Vendor = "teams"
)
