package types

// Fact is the normalized record produced by extraction. It is a tagged
// union: Action names the variant and exactly one of the variant pointers
// is non-nil (none for ActionUnknown). A Fact is immutable once built and
// owned by the record that produced it; it is never shared across records.
type Fact struct {
	Action Action

	CloudWatch  *CloudWatchFact
	GuardDuty   *GuardDutyFact
	Health      *HealthFact
	Backup      *BackupFact
	Budget      *BudgetFact
	SavingsPlan *SavingsPlanFact
	SecurityHub *SecurityHubFact
	DMS         *DMSFact
	CostAnomaly *CostAnomalyFact
}

// CloudWatchFact carries the normalized fields of a CloudWatch alarm
// state-change notification.
type CloudWatchFact struct {
	Priority       Priority
	Name           string
	Description    string
	URL            string
	At             string
	AtEpoch        int64
	AccountID      string
	AccountName    string
	Reason         string
	State          string
	OldState       string
	Region         string // human-readable region locale, e.g. "EU (Ireland)"
	TopicRegion    string
	AlarmARN       string
	AlarmARNRegion string
}

// GuardDutyFact carries the normalized fields of a GuardDuty finding.
type GuardDutyFact struct {
	Priority      Priority
	Title         string
	Description   string
	Region        string
	Type          string
	FirstSeen     string
	LastSeen      string
	Severity      string
	SeverityScore float64
	AccountID     string
	AccountName   string
	Count         int64
	URL           string
	ID            string
	AtEpoch       int64
}

// HealthFact carries the normalized fields of an AWS Health event.
type HealthFact struct {
	Priority    Priority
	Description string
	Region      string
	Category    string
	AccountID   string
	AccountName string
	URL         string
	AtEpoch     int64
	StartTime   string
	EndTime     string
	Code        string
	Service     string
	Resources   string // comma-joined affected resources
}

// BackupField is one field mined out of the Backup message body. Order is
// preserved from the extraction pass so rendering is deterministic.
type BackupField struct {
	Title string
	Value string
}

// BackupFact carries the normalized fields of an AWS Backup notification.
// The event carries no usable timestamp, so there is no epoch field.
type BackupFact struct {
	Priority    Priority
	Status      string
	Region      string
	AccountID   string
	AccountName string
	BackupID    string
	StartTime   string
	Fields      []BackupField
	Description string
}

// BudgetFact carries an AWS Budgets alert. The message body is already a
// human-formatted block of text, so it is carried through verbatim.
type BudgetFact struct {
	Subject string
	Info    string
}

// SavingsPlanFact carries a Savings Plans coverage alert, same shape as a
// budget alert.
type SavingsPlanFact struct {
	Subject string
	Info    string
}

// SecurityHubResource is one affected resource attached to a finding.
type SecurityHubResource struct {
	Type string
	ID   string
}

// SecurityHubFact carries the normalized fields of a Security Hub finding.
// AccountID and Region are derived positionally from the FindingId ARN;
// the finding carries the account name directly.
type SecurityHubFact struct {
	Priority         Priority
	Severity         string
	Source           string
	Description      string
	AccountID        string
	AccountName      string
	Region           string
	RuleProvider     string
	ProviderVersion  string
	ProviderCategory string
	RuleID           string
	Resources        []SecurityHubResource
	URL              string
}

// DMSFact carries the normalized fields of a DMS notification. DMS events
// carry no account identification at all.
type DMSFact struct {
	Title         string
	Source        string
	SourceID      string
	Documentation string
	URL           string
	At            string
	AtEpoch       int64
}

// CostAnomalyFact carries the normalized fields of a Cost Anomaly
// Detection alert. Account, region and service come from the first root
// cause; spend figures are carried as the source emits them.
type CostAnomalyFact struct {
	Priority      Priority
	Started       string
	Ended         string
	AnomalyID     string
	MonitorName   string
	ExpectedSpend float64
	ActualSpend   float64
	TotalImpact   float64
	AccountID     string
	AccountName   string
	Region        string
	Service       string
	Usage         string
	URL           string
}

// DeliveryResponse is the outcome of one webhook POST.
type DeliveryResponse struct {
	Code int
	Info string
}
