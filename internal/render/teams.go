package render

import (
	"encoding/json"
	"fmt"
	"strconv"

	"awsnotify/internal/types"
)

// Teams renders Facts as Adaptive Card webhook payloads. The card schema is
// validated strictly on the receiving side, so element names and nesting
// must match the published 1.2 schema exactly.
type Teams struct{}

// NewTeams creates the Teams renderer.
func NewTeams() *Teams {
	return &Teams{}
}

func (t *Teams) Vendor() types.Vendor { return types.VendorTeams }

// SuccessCode is the status Teams workflow webhooks return on accepted
// posts.
func (t *Teams) SuccessCode() int { return 202 }

type teamsMessage struct {
	Type        string            `json:"type"`
	Attachments []teamsAttachment `json:"attachments"`
}

type teamsAttachment struct {
	ContentType string       `json:"contentType"`
	Content     adaptiveCard `json:"content"`
}

type adaptiveCard struct {
	Schema  string        `json:"$schema"`
	Type    string        `json:"type"`
	Version string        `json:"version"`
	Body    []cardElement `json:"body"`
}

// cardElement is a single Adaptive Card body element. The populated fields
// depend on Type: Container uses Items, TextBlock uses Text/Weight/Size/
// Color, Image uses URL/Size, FactSet uses Facts.
type cardElement struct {
	Type   string        `json:"type"`
	Items  []cardElement `json:"items,omitempty"`
	Text   string        `json:"text,omitempty"`
	Weight string        `json:"weight,omitempty"`
	Size   string        `json:"size,omitempty"`
	Color  string        `json:"color,omitempty"`
	URL    string        `json:"url,omitempty"`
	Facts  []cardFact    `json:"facts,omitempty"`
}

type cardFact struct {
	Title string `json:"title,omitempty"`
	Value string `json:"value"`
}

// teamsColor maps the presentation tier onto Adaptive Card TextBlock color
// tokens.
func teamsColor(p types.Priority) string {
	switch p.Tier() {
	case types.TierError:
		return "Attention"
	case types.TierWarning:
		return "Warning"
	case types.TierLow:
		return "Default"
	default:
		return "Good"
	}
}

// teamsCard wraps a card body in the message envelope Teams expects.
func teamsCard(body []cardElement) teamsMessage {
	return teamsMessage{
		Type: "message",
		Attachments: []teamsAttachment{
			{
				ContentType: "application/vnd.microsoft.card.adaptive",
				Content: adaptiveCard{
					Schema:  "http://adaptivecards.io/schemas/adaptive-card.json",
					Type:    "AdaptiveCard",
					Version: "1.2",
					Body:    body,
				},
			},
		},
	}
}

// teamsTitle builds the leading card items: for error and warning tiers an
// emblem image, then the colored title block.
func teamsTitle(p types.Priority, title string) []cardElement {
	var items []cardElement
	switch p.Tier() {
	case types.TierError:
		items = append(items, cardElement{Type: "Image", URL: attentionIconURL, Size: "small"})
	case types.TierWarning:
		items = append(items, cardElement{Type: "Image", URL: warningIconURL, Size: "small"})
	}
	return append(items, cardElement{
		Type:   "TextBlock",
		Text:   code(title),
		Weight: "bolder",
		Size:   "medium",
		Color:  teamsColor(p),
	})
}

// linkContainer is the trailing container carrying the card's deep-link.
func linkContainer(label, url string) cardElement {
	return cardElement{
		Type: "Container",
		Items: []cardElement{
			{Type: "TextBlock", Text: fmt.Sprintf("[%s](%s)", label, url)},
		},
	}
}

// Render dispatches on the fact's action kind and wraps the card in the
// message envelope.
func (t *Teams) Render(fact *types.Fact, original any, subject string) ([]byte, error) {
	var body []cardElement
	var err error

	switch fact.Action {
	case types.ActionCloudWatch:
		body, err = t.cloudWatchAlarm(fact.CloudWatch)
	case types.ActionGuardDuty:
		body, err = t.guardDutyFinding(fact.GuardDuty)
	case types.ActionHealth:
		body, err = t.healthAlert(fact.Health)
	case types.ActionBackup:
		body, err = t.backupStatus(fact.Backup)
	case types.ActionSecurityHub:
		body, err = t.securityHubFinding(fact.SecurityHub)
	case types.ActionBudget:
		body, err = t.budgetAlert(fact.Budget)
	case types.ActionSavingsPlan:
		body, err = t.savingsPlanAlert(fact.SavingsPlan)
	case types.ActionDMS:
		body, err = t.dmsNotification(fact.DMS)
	case types.ActionCostAnomaly:
		body, err = t.costAnomaly(fact.CostAnomaly)
	default:
		body = t.defaultCard(original, subject)
	}
	if err != nil {
		return nil, err
	}

	return json.Marshal(teamsCard(body))
}

func (t *Teams) cloudWatchAlarm(alarm *types.CloudWatchFact) ([]cardElement, error) {
	if alarm == nil {
		return nil, missingVariant(types.VendorTeams, types.ActionCloudWatch)
	}
	items := teamsTitle(alarm.Priority, alarm.Name)
	items = append(items,
		cardElement{Type: "TextBlock", Text: code(alarm.Description)},
		cardElement{Type: "FactSet", Facts: []cardFact{
			{Title: "At", Value: code(alarm.At)},
			{Title: "Account Name", Value: code(alarm.AccountName)},
			{Title: "Account Id", Value: code(alarm.AccountID)},
			{Title: "Region", Value: code(alarm.AlarmARNRegion)},
			{Title: "Region Locale", Value: code(alarm.Region)},
			{Title: "Old State", Value: code(alarm.OldState)},
			{Title: "New State", Value: code(alarm.State)},
		}},
		cardElement{Type: "TextBlock", Text: code(alarm.Reason)},
	)
	return []cardElement{
		{Type: "Container", Items: items},
		linkContainer("The Alarm", alarm.URL),
	}, nil
}

func (t *Teams) guardDutyFinding(finding *types.GuardDutyFact) ([]cardElement, error) {
	if finding == nil {
		return nil, missingVariant(types.VendorTeams, types.ActionGuardDuty)
	}
	items := teamsTitle(finding.Priority, "GuardDuty Finding: "+finding.Title)
	items = append(items,
		cardElement{Type: "TextBlock", Text: code(finding.Description)},
		cardElement{Type: "FactSet", Facts: []cardFact{
			{Title: "ID", Value: code(finding.ID)},
			{Title: "Severity", Value: code(finding.Severity)},
			{Title: "Account Name", Value: code(finding.AccountName)},
			{Title: "Account Id", Value: code(finding.AccountID)},
			{Title: "Region", Value: code(finding.Region)},
			{Title: "First Seen", Value: code(finding.FirstSeen)},
			{Title: "Last Seen", Value: code(finding.LastSeen)},
			{Title: "Count", Value: code(strconv.FormatInt(finding.Count, 10))},
		}},
	)
	link := fmt.Sprintf("%s#/findings?search=id%%3D%s", finding.URL, finding.ID)
	return []cardElement{
		{Type: "Container", Items: items},
		linkContainer("The Finding", link),
	}, nil
}

func (t *Teams) healthAlert(alert *types.HealthFact) ([]cardElement, error) {
	if alert == nil {
		return nil, missingVariant(types.VendorTeams, types.ActionHealth)
	}
	items := teamsTitle(alert.Priority, "AWS Health Event for service: "+alert.Service)
	items = append(items,
		cardElement{Type: "TextBlock", Text: code(alert.Description)},
		cardElement{Type: "FactSet", Facts: []cardFact{
			{Title: "Category", Value: code(alert.Category)},
			{Title: "Priority", Value: code(string(alert.Priority))},
			{Title: "Code", Value: code(alert.Code)},
			{Title: "Account Name", Value: code(alert.AccountName)},
			{Title: "Account Id", Value: code(alert.AccountID)},
			{Title: "Region", Value: code(alert.Region)},
			{Title: "Start Time", Value: code(alert.StartTime)},
			{Title: "End Time", Value: code(alert.EndTime)},
			{Title: "Affected Resources", Value: code(alert.Resources)},
		}},
	)
	return []cardElement{
		{Type: "Container", Items: items},
		linkContainer("The Healthcheck", alert.URL),
	}, nil
}

func (t *Teams) backupStatus(status *types.BackupFact) ([]cardElement, error) {
	if status == nil {
		return nil, missingVariant(types.VendorTeams, types.ActionBackup)
	}
	facts := []cardFact{
		{Title: "Backup Id", Value: code(status.BackupID)},
		{Title: "Account Name", Value: code(status.AccountName)},
		{Title: "Account Id", Value: code(status.AccountID)},
		{Title: "Region", Value: code(status.Region)},
		{Title: "Status", Value: code(status.Status)},
		{Title: "Priority", Value: code(string(status.Priority))},
		{Title: "Start Time", Value: code(status.StartTime)},
	}
	for _, f := range status.Fields {
		facts = append(facts, cardFact{Title: f.Title, Value: code(f.Value)})
	}
	items := teamsTitle(status.Priority, "AWS Backup: "+status.BackupID)
	items = append(items,
		cardElement{Type: "TextBlock", Text: code(status.Description)},
		cardElement{Type: "FactSet", Facts: facts},
	)
	return []cardElement{
		{Type: "Container", Items: items},
	}, nil
}

func (t *Teams) securityHubFinding(finding *types.SecurityHubFact) ([]cardElement, error) {
	if finding == nil {
		return nil, missingVariant(types.VendorTeams, types.ActionSecurityHub)
	}
	facts := []cardFact{
		{Title: "Account Name", Value: code(finding.AccountName)},
		{Title: "Account Id", Value: code(finding.AccountID)},
		{Title: "Region", Value: code(finding.Region)},
		{Title: "Severity", Value: code(finding.Severity)},
		{Title: "Provider", Value: code(fmt.Sprintf("%s v%s", finding.RuleProvider, finding.ProviderVersion))},
		{Title: "Category", Value: code(finding.ProviderCategory)},
		{Title: "Rule Id", Value: code(finding.RuleID)},
	}
	for i, r := range finding.Resources {
		facts = append(facts,
			cardFact{Title: fmt.Sprintf("Type %d", i+1), Value: code(r.Type)},
			cardFact{Title: fmt.Sprintf("Arn %d", i+1), Value: code(r.ID)},
		)
	}
	items := teamsTitle(finding.Priority, "Security Hub: "+finding.Source)
	items = append(items,
		cardElement{Type: "TextBlock", Text: code(finding.Description)},
		cardElement{Type: "FactSet", Facts: facts},
	)
	return []cardElement{
		{Type: "Container", Items: items},
		linkContainer("The Finding", finding.URL),
	}, nil
}

func (t *Teams) budgetAlert(alarm *types.BudgetFact) ([]cardElement, error) {
	if alarm == nil {
		return nil, missingVariant(types.VendorTeams, types.ActionBudget)
	}
	items := teamsTitle(types.PriorityHigh, "Budget: "+alarm.Subject)
	items = append(items, cardElement{Type: "TextBlock", Text: alarm.Info})
	return []cardElement{
		{Type: "Container", Items: items},
	}, nil
}

func (t *Teams) savingsPlanAlert(alarm *types.SavingsPlanFact) ([]cardElement, error) {
	if alarm == nil {
		return nil, missingVariant(types.VendorTeams, types.ActionSavingsPlan)
	}
	items := teamsTitle(types.PriorityHigh, "Savings Plan: "+alarm.Subject)
	items = append(items, cardElement{Type: "TextBlock", Text: alarm.Info})
	return []cardElement{
		{Type: "Container", Items: items},
	}, nil
}

func (t *Teams) dmsNotification(event *types.DMSFact) ([]cardElement, error) {
	if event == nil {
		return nil, missingVariant(types.VendorTeams, types.ActionDMS)
	}
	items := teamsTitle(types.PriorityWarning, "DMS Notification: "+event.Title)
	items = append(items,
		cardElement{Type: "TextBlock", Text: code(event.Documentation)},
		cardElement{Type: "FactSet", Facts: []cardFact{
			{Title: "When", Value: code(event.At)},
			{Title: "When (Epoch)", Value: code(strconv.FormatInt(event.AtEpoch, 10))},
			{Title: "Source", Value: code(event.Source)},
			{Title: "Source ID", Value: code(event.SourceID)},
		}},
	)
	return []cardElement{
		{Type: "Container", Items: items},
		linkContainer("The Event", event.URL),
	}, nil
}

func (t *Teams) costAnomaly(anomaly *types.CostAnomalyFact) ([]cardElement, error) {
	if anomaly == nil {
		return nil, missingVariant(types.VendorTeams, types.ActionCostAnomaly)
	}
	items := teamsTitle(anomaly.Priority, "Cost Anomaly: "+anomaly.Usage)
	items = append(items,
		cardElement{Type: "TextBlock", Text: code(anomaly.MonitorName)},
		cardElement{Type: "FactSet", Facts: []cardFact{
			{Title: "Account Name", Value: code(anomaly.AccountName)},
			{Title: "Account Id", Value: code(anomaly.AccountID)},
			{Title: "Region", Value: code(anomaly.Region)},
			{Title: "Service", Value: code(anomaly.Service)},
			{Title: "Started At", Value: code(anomaly.Started)},
			{Title: "Ended At", Value: code(anomaly.Ended)},
			{Title: "Expected Spend ($)", Value: code(formatFloat(anomaly.ExpectedSpend))},
			{Title: "Actual Spend ($)", Value: code(formatFloat(anomaly.ActualSpend))},
			{Title: "Impact", Value: code(formatFloat(anomaly.TotalImpact))},
			{Title: "ID", Value: code(anomaly.AnomalyID)},
		}},
	)
	return []cardElement{
		{Type: "Container", Items: items},
		linkContainer("The Anomaly", anomaly.URL),
	}, nil
}

// defaultCard is the fallback for unrecognized messages. Keys are sorted so
// the rendered card is deterministic; it never fails, whatever the message
// shape.
func (t *Teams) defaultCard(original any, subject string) []cardElement {
	var facts []cardFact
	if m, ok := original.(map[string]any); ok {
		for _, k := range sortedKeys(m) {
			facts = append(facts, cardFact{Title: k, Value: code(flattenValue(m[k]))})
		}
	} else {
		facts = append(facts, cardFact{Value: flattenValue(original)})
	}

	return []cardElement{
		{
			Type: "Container",
			Items: []cardElement{
				{Type: "TextBlock", Text: defaultTitle(subject), Weight: "bolder", Size: "medium"},
				{Type: "FactSet", Facts: facts},
			},
		},
	}
}
