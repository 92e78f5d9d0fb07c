package parse

import (
	"encoding/json"
	"fmt"
	"strings"

	"awsnotify/internal/accounts"
	"awsnotify/internal/types"
)

// Parser turns classified messages into Facts. It carries the two read-only
// collaborators extraction needs: the account directory for id-to-name
// resolution and the URL builder for console deep-links.
type Parser struct {
	accounts *accounts.Directory
	urls     *URLBuilder
}

// NewParser creates a Parser. Both collaborators are required; the account
// directory may be empty but never nil.
func NewParser(dir *accounts.Directory, urls *URLBuilder) *Parser {
	return &Parser{accounts: dir, urls: urls}
}

// Result is the outcome of parsing one record. Original keeps the decoded
// message for the Unknown/default renderer, which works off the raw shape.
type Result struct {
	Action   types.Action
	Fact     *types.Fact
	Original any
}

// Parse classifies and extracts one message. topicRegion is the region of
// the SNS topic the record arrived on; attrs are the SNS message attributes
// (Backup events carry their identity there rather than in the body).
//
// An extraction failure inside a matched branch is a hard error for the
// record. It is not reclassified as Unknown: a recognized shape with missing
// required fields indicates upstream breakage that should be visible.
func (p *Parser) Parse(message any, topicRegion string, attrs map[string]any, subject string) (*Result, error) {
	decoded := DecodeMessage(message)
	action := Classify(decoded, subject)

	fact := &types.Fact{Action: action}
	var err error

	switch action {
	case types.ActionCloudWatch:
		fact.CloudWatch, err = p.extractCloudWatch(decoded.(map[string]any), topicRegion)
	case types.ActionSecurityHub:
		fact.SecurityHub, err = p.extractSecurityHub(asMap(decoded))
	case types.ActionDMS:
		fact.DMS, err = p.extractDMS(asMap(decoded))
	case types.ActionGuardDuty:
		fact.GuardDuty, err = p.extractGuardDuty(decoded.(map[string]any))
	case types.ActionHealth:
		fact.Health, err = p.extractHealth(decoded.(map[string]any))
	case types.ActionBackup:
		fact.Backup, err = p.extractBackup(stringify(decoded), attrs)
	case types.ActionBudget:
		fact.Budget = extractBudget(subject, stringify(decoded))
	case types.ActionSavingsPlan:
		fact.SavingsPlan = extractSavingsPlan(subject, stringify(decoded))
	case types.ActionCostAnomaly:
		fact.CostAnomaly, err = p.extractCostAnomaly(asMap(decoded))
	case types.ActionUnknown:
		// No extraction; the default renderer works off the raw message.
	}

	if err != nil {
		return nil, err
	}

	return &Result{Action: action, Fact: fact, Original: decoded}, nil
}

// asMap coerces a decoded message to a map for extractors whose branches are
// selected by subject rather than structure; a non-object message fails the
// record inside the extractor via missing-field errors on the empty map.
func asMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// stringify renders a decoded message back to text for the extractors that
// mine plain-text bodies.
func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

// cloudWatchStatePriority maps a CloudWatch alarm state to the normalized
// priority.
var cloudWatchStatePriority = map[string]types.Priority{
	"OK":                types.PriorityNoError,
	"INSUFFICIENT_DATA": types.PriorityWarning,
	"ALARM":             types.PriorityError,
}

func (p *Parser) extractCloudWatch(msg map[string]any, topicRegion string) (*types.CloudWatchFact, error) {
	const action = types.ActionCloudWatch

	state, err := requireString(action, msg, "NewStateValue")
	if err != nil {
		return nil, err
	}
	priority, ok := cloudWatchStatePriority[state]
	if !ok {
		return nil, types.NewAppError(types.ErrCodeParseInvalidValue,
			fmt.Sprintf("CloudWatch alarm state %q has no priority mapping", state), nil)
	}

	name, err := requireString(action, msg, "AlarmName")
	if err != nil {
		return nil, err
	}
	region, err := requireString(action, msg, "Region")
	if err != nil {
		return nil, err
	}
	at, err := requireString(action, msg, "StateChangeTime")
	if err != nil {
		return nil, err
	}
	atEpoch, err := epochSeconds(at)
	if err != nil {
		return nil, err
	}
	// Alarms created without a description carry AlarmDescription: null.
	description, err := nullableString(action, msg, "AlarmDescription")
	if err != nil {
		return nil, err
	}
	accountID, err := requireString(action, msg, "AWSAccountId")
	if err != nil {
		return nil, err
	}
	reason, err := requireString(action, msg, "NewStateReason")
	if err != nil {
		return nil, err
	}
	oldState, err := requireString(action, msg, "OldStateValue")
	if err != nil {
		return nil, err
	}
	alarmARN, err := requireString(action, msg, "AlarmArn")
	if err != nil {
		return nil, err
	}
	alarmARNRegion, err := arnSegment(action, alarmARN, 3)
	if err != nil {
		return nil, err
	}

	consoleURL, err := p.urls.ConsoleURL(alarmARNRegion, "cloudwatch")
	if err != nil {
		return nil, err
	}
	url := p.urls.Target(accountID, consoleURL) +
		"#alarm:alarmFilter=ANY;name=" + quote(name)

	return &types.CloudWatchFact{
		Priority:       priority,
		Name:           name,
		Description:    description,
		URL:            url,
		At:             at,
		AtEpoch:        atEpoch,
		AccountID:      accountID,
		AccountName:    p.accounts.Name(accountID),
		Reason:         reason,
		State:          state,
		OldState:       oldState,
		Region:         region,
		TopicRegion:    topicRegion,
		AlarmARN:       alarmARN,
		AlarmARNRegion: alarmARNRegion,
	}, nil
}

// guardDutySeverity collapses the numeric finding severity onto the
// three-level GuardDuty vocabulary. Boundaries are inclusive on the upper
// side: 4.0 is Medium, 7.0 is High.
func guardDutySeverity(score float64) (string, types.Priority) {
	switch {
	case score < 4.0:
		return "Low", types.PriorityLow
	case score < 7.0:
		return "Medium", types.PriorityMedium
	default:
		return "High", types.PriorityHigh
	}
}

func (p *Parser) extractGuardDuty(msg map[string]any) (*types.GuardDutyFact, error) {
	const action = types.ActionGuardDuty

	detail, err := requireMap(action, msg, "detail")
	if err != nil {
		return nil, err
	}
	service, err := requireMap(action, detail, "service")
	if err != nil {
		return nil, err
	}
	region, err := requireString(action, msg, "region")
	if err != nil {
		return nil, err
	}

	score, err := requireNumber(action, detail, "severity")
	if err != nil {
		return nil, err
	}
	severity, priority := guardDutySeverity(score)

	description, err := requireString(action, detail, "description")
	if err != nil {
		return nil, err
	}
	findingType, err := requireString(action, detail, "type")
	if err != nil {
		return nil, err
	}
	firstSeen, err := requireString(action, service, "eventFirstSeen")
	if err != nil {
		return nil, err
	}
	lastSeen, err := requireString(action, service, "eventLastSeen")
	if err != nil {
		return nil, err
	}
	accountID, err := requireString(action, detail, "accountId")
	if err != nil {
		return nil, err
	}
	count, err := requireNumber(action, service, "count")
	if err != nil {
		return nil, err
	}
	findingID, err := requireString(action, detail, "id")
	if err != nil {
		return nil, err
	}
	atEpoch, err := epochSeconds(lastSeen)
	if err != nil {
		return nil, err
	}

	consoleURL, err := p.urls.ConsoleURL(region, "guardduty")
	if err != nil {
		return nil, err
	}

	return &types.GuardDutyFact{
		Priority:      priority,
		Title:         optionalString(detail, "title", ""),
		Description:   description,
		Region:        region,
		Type:          findingType,
		FirstSeen:     firstSeen,
		LastSeen:      lastSeen,
		Severity:      severity,
		SeverityScore: score,
		AccountID:     accountID,
		AccountName:   p.accounts.Name(accountID),
		Count:         int64(count),
		URL:           p.urls.Target(accountID, consoleURL),
		ID:            findingID,
		AtEpoch:       atEpoch,
	}, nil
}

// healthCategoryPriority maps an AWS Health eventTypeCategory to the
// normalized priority.
var healthCategoryPriority = map[string]types.Priority{
	"accountNotification": types.PriorityLow,
	"scheduledChange":     types.PriorityMedium,
	"issue":               types.PriorityHigh,
}

func (p *Parser) extractHealth(msg map[string]any) (*types.HealthFact, error) {
	const action = types.ActionHealth

	detail, err := requireMap(action, msg, "detail")
	if err != nil {
		return nil, err
	}

	category, err := requireString(action, detail, "eventTypeCategory")
	if err != nil {
		return nil, err
	}
	priority, ok := healthCategoryPriority[category]
	if !ok {
		return nil, types.NewAppError(types.ErrCodeParseInvalidValue,
			fmt.Sprintf("Health event category %q has no priority mapping", category), nil)
	}

	accountID, err := requireString(action, msg, "account")
	if err != nil {
		return nil, err
	}
	description, err := healthDescription(detail)
	if err != nil {
		return nil, err
	}
	at, err := requireString(action, msg, "time")
	if err != nil {
		return nil, err
	}
	atEpoch, err := epochSeconds(at)
	if err != nil {
		return nil, err
	}

	// The originating region for the event is encoded in detail.eventArn.
	eventARN, err := requireString(action, detail, "eventArn")
	if err != nil {
		return nil, err
	}
	eventRegion, err := arnSegment(action, eventARN, 3)
	if err != nil {
		return nil, err
	}

	return &types.HealthFact{
		Priority:    priority,
		Description: description,
		Region:      eventRegion,
		Category:    category,
		AccountID:   accountID,
		AccountName: p.accounts.Name(accountID),
		URL: fmt.Sprintf(
			"https://phd.aws.amazon.com/phd/home?region=%s#/dashboard/open-issues", eventRegion),
		AtEpoch:   atEpoch,
		StartTime: optionalString(detail, "startTime", "<unknown>"),
		EndTime:   optionalString(detail, "endTime", "<unknown>"),
		Code:      optionalString(detail, "eventTypeCode", ""),
		Service:   optionalString(detail, "service", "<unknown>"),
		Resources: joinResources(msg["resources"]),
	}, nil
}

// healthDescription pulls the latest description out of the Health event's
// eventDescription list.
func healthDescription(detail map[string]any) (string, error) {
	descriptions, ok := detail["eventDescription"].([]any)
	if !ok || len(descriptions) == 0 {
		return "", types.NewMissingFieldError(types.ActionHealth, "eventDescription")
	}
	first, ok := descriptions[0].(map[string]any)
	if !ok {
		return "", types.NewAppError(types.ErrCodeParseInvalidValue,
			"Health eventDescription[0] is not an object", nil)
	}
	latest, ok := first["latestDescription"].(string)
	if !ok {
		return "", types.NewMissingFieldError(types.ActionHealth, "latestDescription")
	}
	return latest, nil
}

// joinResources renders the affected-resources list as a comma-joined
// string, defaulting to "<unknown>" when the event omits it.
func joinResources(v any) string {
	list, ok := v.([]any)
	if !ok || len(list) == 0 {
		return "<unknown>"
	}
	parts := make([]string, 0, len(list))
	for _, r := range list {
		parts = append(parts, fmt.Sprintf("%v", r))
	}
	return strings.Join(parts, ",")
}

// backupStatusPriority maps an AWS Backup job state to the normalized
// priority.
var backupStatusPriority = map[string]types.Priority{
	"COMPLETED": types.PriorityNoError,
	"EXPIRED":   types.PriorityWarning,
	"FAILED":    types.PriorityError,
}

func (p *Parser) extractBackup(message string, attrs map[string]any) (*types.BackupFact, error) {
	const action = types.ActionBackup

	description, _, _ := strings.Cut(message, ".")
	fields := ParseBackupFields(message)

	startTime, err := attributeString(action, attrs, "StartTime")
	if err != nil {
		return nil, err
	}
	accountID, err := attributeString(action, attrs, "AccountId")
	if err != nil {
		return nil, err
	}
	backupID, err := attributeString(action, attrs, "Id")
	if err != nil {
		return nil, err
	}
	status, err := attributeString(action, attrs, "State")
	if err != nil {
		return nil, err
	}

	priority, ok := backupStatusPriority[status]
	if !ok {
		return nil, types.NewAppError(types.ErrCodeParseInvalidValue,
			fmt.Sprintf("Backup state %q has no priority mapping", status), nil)
	}

	// The job region is only available inside the mined Resource ARN; the
	// event body and attributes carry no region of their own.
	resourceARN, ok := backupFieldValue(fields, "Resource ARN")
	if !ok {
		return nil, types.NewMissingFieldError(action, "Resource ARN")
	}
	region, err := arnSegment(action, resourceARN, 3)
	if err != nil {
		return nil, err
	}

	return &types.BackupFact{
		Priority:    priority,
		Status:      status,
		Region:      region,
		AccountID:   accountID,
		AccountName: p.accounts.Name(accountID),
		BackupID:    backupID,
		StartTime:   startTime,
		Fields:      fields,
		Description: description,
	}, nil
}

// extractBudget strips the subject prefix and carries the already-formatted
// message body through verbatim; there is little to gain from parsing it.
func extractBudget(subject, message string) *types.BudgetFact {
	return &types.BudgetFact{
		Subject: strings.TrimPrefix(subject, "AWS Budgets:"),
		Info:    message,
	}
}

func extractSavingsPlan(subject, message string) *types.SavingsPlanFact {
	return &types.SavingsPlanFact{
		Subject: strings.TrimPrefix(subject, "Savings Plans Coverage Alert:"),
		Info:    message,
	}
}

// securityHubSeverities is the five-level Security Hub vocabulary, passed
// through unchanged as the normalized priority.
var securityHubSeverities = map[string]types.Priority{
	"INFORMATIONAL": types.PriorityInfo,
	"INFO":          types.PriorityInfo,
	"LOW":           types.PriorityLow,
	"MEDIUM":        types.PriorityMedium,
	"HIGH":          types.PriorityHigh,
	"CRITICAL":      types.PriorityCritical,
}

func (p *Parser) extractSecurityHub(msg map[string]any) (*types.SecurityHubFact, error) {
	const action = types.ActionSecurityHub

	severity, err := requireString(action, msg, "Severity")
	if err != nil {
		return nil, err
	}
	priority, ok := securityHubSeverities[severity]
	if !ok {
		return nil, types.NewAppError(types.ErrCodeParseInvalidValue,
			fmt.Sprintf("Security Hub severity %q has no priority mapping", severity), nil)
	}

	source, err := requireString(action, msg, "GeneratorId")
	if err != nil {
		return nil, err
	}
	description, err := requireString(action, msg, "Description")
	if err != nil {
		return nil, err
	}
	accountName, err := requireString(action, msg, "AccountName")
	if err != nil {
		return nil, err
	}
	findingID, err := requireString(action, msg, "FindingId")
	if err != nil {
		return nil, err
	}

	// The finding carries no separate account or region fields; both are
	// encoded positionally in the FindingId ARN, and the generator/rule
	// identity positionally in its trailing slash-delimited segment:
	//   arn:aws:securityhub:<region>:<account>:<provider>/v/<version>/<category>/finding/.../<rule>
	accountID, err := arnSegment(action, findingID, 4)
	if err != nil {
		return nil, err
	}
	region, err := arnSegment(action, findingID, 3)
	if err != nil {
		return nil, err
	}
	trailing, err := arnSegment(action, findingID, 5)
	if err != nil {
		return nil, err
	}
	provider, err := slashSegment(action, trailing, 1)
	if err != nil {
		return nil, err
	}
	version, err := slashSegment(action, trailing, 3)
	if err != nil {
		return nil, err
	}
	category, err := slashSegment(action, trailing, 4)
	if err != nil {
		return nil, err
	}
	ruleID, err := slashSegment(action, trailing, 6)
	if err != nil {
		return nil, err
	}

	consoleURL, err := p.urls.ConsoleURL(region, "securityhub")
	if err != nil {
		return nil, err
	}
	url := p.urls.Target(accountID, consoleURL) +
		"#findings?search=GeneratorId%3D%255Coperator%255C%253AEQUALS%255C%253A" + quote(source)

	var resources []types.SecurityHubResource
	if list, ok := msg["Resources"].([]any); ok {
		for _, raw := range list {
			r, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			resources = append(resources, types.SecurityHubResource{
				Type: optionalString(r, "Type", ""),
				ID:   optionalString(r, "Id", ""),
			})
		}
	}

	return &types.SecurityHubFact{
		Priority:         priority,
		Severity:         severity,
		Source:           source,
		Description:      description,
		AccountID:        accountID,
		AccountName:      accountName,
		Region:           region,
		RuleProvider:     provider,
		ProviderVersion:  version,
		ProviderCategory: category,
		RuleID:           ruleID,
		Resources:        resources,
		URL:              url,
	}, nil
}

func (p *Parser) extractDMS(msg map[string]any) (*types.DMSFact, error) {
	const action = types.ActionDMS

	title, err := requireString(action, msg, "Event Message")
	if err != nil {
		return nil, err
	}
	documentation, err := requireString(action, msg, "Event ID")
	if err != nil {
		return nil, err
	}
	source, err := requireString(action, msg, "Event Source")
	if err != nil {
		return nil, err
	}
	sourceID, err := requireString(action, msg, "SourceId")
	if err != nil {
		return nil, err
	}
	url, err := requireString(action, msg, "Identifier Link")
	if err != nil {
		return nil, err
	}
	at, err := requireString(action, msg, "Event Time")
	if err != nil {
		return nil, err
	}
	atEpoch, err := epochSeconds(at)
	if err != nil {
		return nil, err
	}

	return &types.DMSFact{
		Title:         title,
		Source:        source,
		SourceID:      sourceID,
		Documentation: documentation,
		URL:           url,
		At:            at,
		AtEpoch:       atEpoch,
	}, nil
}

func (p *Parser) extractCostAnomaly(msg map[string]any) (*types.CostAnomalyFact, error) {
	const action = types.ActionCostAnomaly

	score, err := requireMap(action, msg, "anomalyScore")
	if err != nil {
		return nil, err
	}
	current, err := requireNumber(action, score, "currentScore")
	if err != nil {
		return nil, err
	}
	max, err := requireNumber(action, score, "maxScore")
	if err != nil {
		return nil, err
	}

	// A current score below the historical max means the anomaly is
	// receding; the current event being the max is the real alert.
	priority := types.PriorityError
	if current < max {
		priority = types.PriorityWarning
	}

	originatingAccountID, err := requireString(action, msg, "accountId")
	if err != nil {
		return nil, err
	}
	detailsLink, err := requireString(action, msg, "anomalyDetailsLink")
	if err != nil {
		return nil, err
	}

	started, err := requireString(action, msg, "anomalyStartDate")
	if err != nil {
		return nil, err
	}
	ended, err := requireString(action, msg, "anomalyEndDate")
	if err != nil {
		return nil, err
	}
	anomalyID, err := requireString(action, msg, "anomalyId")
	if err != nil {
		return nil, err
	}
	monitorName, err := requireString(action, msg, "monitorName")
	if err != nil {
		return nil, err
	}

	impact, err := requireMap(action, msg, "impact")
	if err != nil {
		return nil, err
	}
	expected, err := requireNumber(action, impact, "totalExpectedSpend")
	if err != nil {
		return nil, err
	}
	actual, err := requireNumber(action, impact, "totalActualSpend")
	if err != nil {
		return nil, err
	}
	total, err := requireNumber(action, impact, "totalImpact")
	if err != nil {
		return nil, err
	}

	// The first root cause carries the linked account that originated the
	// anomaly, including its display name.
	causes, ok := msg["rootCauses"].([]any)
	if !ok || len(causes) == 0 {
		return nil, types.NewMissingFieldError(action, "rootCauses")
	}
	rootCause, ok := causes[0].(map[string]any)
	if !ok {
		return nil, types.NewAppError(types.ErrCodeParseInvalidValue,
			"Cost Anomaly rootCauses[0] is not an object", nil)
	}

	return &types.CostAnomalyFact{
		Priority:      priority,
		Started:       started,
		Ended:         ended,
		AnomalyID:     anomalyID,
		MonitorName:   monitorName,
		ExpectedSpend: expected,
		ActualSpend:   actual,
		TotalImpact:   total,
		AccountID:     optionalString(rootCause, "linkedAccount", ""),
		AccountName:   optionalString(rootCause, "linkedAccountName", ""),
		Region:        optionalString(rootCause, "region", ""),
		Service:       optionalString(rootCause, "service", ""),
		Usage:         optionalString(rootCause, "usageType", ""),
		URL:           p.urls.Target(originatingAccountID, detailsLink),
	}, nil
}
