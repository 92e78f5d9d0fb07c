package render

import (
	"encoding/json"
	"fmt"
	"strconv"

	"awsnotify/internal/types"
)

// Slack renders Facts as legacy-attachment webhook payloads:
// https://api.slack.com/reference/messaging/attachments. Slack cannot embed
// image data inline and its image_url gives no size control, so the accent
// color bar carries the priority and a small leading attachment carries the
// emblem icon.
type Slack struct {
	channel   string
	username  string
	iconEmoji string
}

// NewSlack creates the Slack renderer. The channel, username and emoji are
// stamped onto every payload header.
func NewSlack(channel, username, iconEmoji string) *Slack {
	return &Slack{channel: channel, username: username, iconEmoji: iconEmoji}
}

func (s *Slack) Vendor() types.Vendor { return types.VendorSlack }

// SuccessCode is the status Slack webhooks return on accepted posts.
func (s *Slack) SuccessCode() int { return 200 }

type slackPayload struct {
	Channel     string            `json:"channel,omitempty"`
	Username    string            `json:"username,omitempty"`
	IconEmoji   string            `json:"icon_emoji,omitempty"`
	Attachments []slackAttachment `json:"attachments,omitempty"`
}

type slackAttachment struct {
	Color     string       `json:"color,omitempty"`
	ImageURL  string       `json:"image_url,omitempty"`
	Title     string       `json:"title,omitempty"`
	TitleLink string       `json:"title_link,omitempty"`
	Fallback  string       `json:"fallback,omitempty"`
	Text      string       `json:"text,omitempty"`
	Ts        int64        `json:"ts,omitempty"`
	MrkdwnIn  []string     `json:"mrkdwn_in,omitempty"`
	Fields    []slackField `json:"fields,omitempty"`
}

type slackField struct {
	Title string `json:"title,omitempty"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// slackColor maps the presentation tier onto Slack's attachment color
// vocabulary.
func slackColor(p types.Priority) string {
	switch p.Tier() {
	case types.TierError:
		return "danger"
	case types.TierWarning:
		return "warning"
	case types.TierLow:
		return "#777777"
	default:
		return "good"
	}
}

// code wraps a value in inline-code markup.
func code(s string) string {
	return "`" + s + "`"
}

// slackHeader builds the leading attachment carrying the title, link and,
// for error and warning tiers, the emblem icon.
func slackHeader(p types.Priority, title, link string) slackAttachment {
	header := slackAttachment{
		Color:     slackColor(p),
		Title:     title,
		TitleLink: link,
	}
	switch p.Tier() {
	case types.TierError:
		header.ImageURL = attentionIconURL
	case types.TierWarning:
		header.ImageURL = warningIconURL
	}
	return header
}

// Render dispatches on the fact's action kind and wraps the resulting
// attachments in the webhook payload envelope.
func (s *Slack) Render(fact *types.Fact, original any, subject string) ([]byte, error) {
	var attachments []slackAttachment
	var err error

	switch fact.Action {
	case types.ActionCloudWatch:
		attachments, err = s.cloudWatchAlarm(fact.CloudWatch)
	case types.ActionGuardDuty:
		attachments, err = s.guardDutyFinding(fact.GuardDuty)
	case types.ActionHealth:
		attachments, err = s.healthAlert(fact.Health)
	case types.ActionBackup:
		attachments, err = s.backupStatus(fact.Backup)
	case types.ActionSecurityHub:
		attachments, err = s.securityHubFinding(fact.SecurityHub)
	case types.ActionBudget:
		attachments, err = s.budgetAlert(fact.Budget)
	case types.ActionSavingsPlan:
		attachments, err = s.savingsPlanAlert(fact.SavingsPlan)
	case types.ActionDMS:
		attachments, err = s.dmsNotification(fact.DMS)
	case types.ActionCostAnomaly:
		attachments, err = s.costAnomaly(fact.CostAnomaly)
	default:
		attachments = s.defaultCard(original, subject)
	}
	if err != nil {
		return nil, err
	}

	return json.Marshal(slackPayload{
		Channel:     s.channel,
		Username:    s.username,
		IconEmoji:   s.iconEmoji,
		Attachments: attachments,
	})
}

func (s *Slack) cloudWatchAlarm(alarm *types.CloudWatchFact) ([]slackAttachment, error) {
	if alarm == nil {
		return nil, missingVariant(types.VendorSlack, types.ActionCloudWatch)
	}
	return []slackAttachment{
		slackHeader(alarm.Priority, "CloudWatch: "+alarm.Name, alarm.URL),
		{
			Color:    slackColor(alarm.Priority),
			Fallback: fmt.Sprintf("Alarm %s triggered", alarm.Name),
			Text:     alarm.Description,
			Ts:       alarm.AtEpoch,
			Fields: []slackField{
				{Title: "When", Value: code(alarm.At), Short: false},
				{Title: "Account Name", Value: code(alarm.AccountName), Short: true},
				{Title: "Account ID", Value: code(alarm.AccountID), Short: true},
				{Title: "Region", Value: code(alarm.AlarmARNRegion), Short: true},
				{Title: "Region Locale", Value: code(alarm.Region), Short: true},
				{Title: "Alarm reason", Value: alarm.Reason, Short: false},
				{Title: "Current State", Value: code(alarm.State), Short: true},
				{Title: "Old State", Value: code(alarm.OldState), Short: true},
			},
		},
	}, nil
}

func (s *Slack) guardDutyFinding(finding *types.GuardDutyFact) ([]slackAttachment, error) {
	if finding == nil {
		return nil, missingVariant(types.VendorSlack, types.ActionGuardDuty)
	}
	link := fmt.Sprintf("%s#/findings?search=id%%3D%s", finding.URL, finding.ID)
	return []slackAttachment{
		slackHeader(finding.Priority, "GuardDuty: "+finding.Title, link),
		{
			Color:    slackColor(finding.Priority),
			Fallback: "GuardDuty Finding: " + finding.Title,
			Text:     finding.Description,
			Ts:       finding.AtEpoch,
			Fields: []slackField{
				{Title: "Finding Type", Value: code(finding.Type), Short: false},
				{Title: "First Seen", Value: code(finding.FirstSeen), Short: true},
				{Title: "Last Seen", Value: code(finding.LastSeen), Short: true},
				{Title: "Severity/Score", Value: code(finding.Severity + "/" + formatFloat(finding.SeverityScore)), Short: true},
				{Title: "Count", Value: code(strconv.FormatInt(finding.Count, 10)), Short: true},
				{Title: "Account Name", Value: code(finding.AccountName), Short: true},
				{Title: "Account ID", Value: code(finding.AccountID), Short: true},
				{Title: "Region", Value: code(finding.Region), Short: true},
			},
		},
	}, nil
}

func (s *Slack) healthAlert(alert *types.HealthFact) ([]slackAttachment, error) {
	if alert == nil {
		return nil, missingVariant(types.VendorSlack, types.ActionHealth)
	}
	return []slackAttachment{
		slackHeader(alert.Priority, "AWS Health: "+alert.Service, alert.URL),
		{
			Color:    slackColor(alert.Priority),
			Fallback: "New AWS Health Event for " + alert.Service,
			Text:     alert.Description,
			Ts:       alert.AtEpoch,
			Fields: []slackField{
				{Title: "Affected Service", Value: code(alert.Service), Short: true},
				{Title: "Category", Value: code(alert.Category), Short: true},
				{Title: "Account Name", Value: code(alert.AccountName), Short: true},
				{Title: "Account Id", Value: code(alert.AccountID), Short: true},
				{Title: "Start Time", Value: code(alert.StartTime), Short: true},
				{Title: "End Time", Value: code(alert.EndTime), Short: true},
				{Title: "Code", Value: code(alert.Code), Short: false},
				{Title: "Region", Value: code(alert.Region), Short: false},
				{Title: "Affected Resources", Value: alert.Resources, Short: false},
			},
		},
	}, nil
}

func (s *Slack) backupStatus(status *types.BackupFact) ([]slackAttachment, error) {
	if status == nil {
		return nil, missingVariant(types.VendorSlack, types.ActionBackup)
	}
	fields := []slackField{
		{Title: "Backup Id", Value: code(status.BackupID), Short: false},
		{Title: "Account Name", Value: code(status.AccountName), Short: true},
		{Title: "Account Id", Value: code(status.AccountID), Short: true},
		{Title: "Status", Value: code(status.Status), Short: true},
		{Title: "Priority", Value: code(string(status.Priority)), Short: true},
		{Title: "Region", Value: code(status.Region), Short: true},
		{Title: "Start Time", Value: code(status.StartTime), Short: true},
	}
	for _, f := range status.Fields {
		fields = append(fields, slackField{Title: f.Title, Value: code(f.Value), Short: false})
	}
	return []slackAttachment{
		slackHeader(status.Priority, "Backup : "+status.BackupID, ""),
		{
			Color:    slackColor(status.Priority),
			Fallback: "Backup event for " + status.BackupID,
			Text:     status.Description,
			Fields:   fields,
		},
	}, nil
}

func (s *Slack) securityHubFinding(finding *types.SecurityHubFact) ([]slackAttachment, error) {
	if finding == nil {
		return nil, missingVariant(types.VendorSlack, types.ActionSecurityHub)
	}
	fields := []slackField{
		{Title: "Account Name", Value: code(finding.AccountName), Short: true},
		{Title: "Account ID", Value: code(finding.AccountID), Short: true},
		{Title: "Region", Value: code(finding.Region), Short: true},
		{Title: "Severity", Value: code(finding.Severity), Short: true},
		{Title: "Provider", Value: code(fmt.Sprintf("%s v%s", finding.RuleProvider, finding.ProviderVersion)), Short: true},
		{Title: "Category", Value: code(finding.ProviderCategory), Short: true},
		{Title: "Rule Id", Value: code(finding.RuleID), Short: false},
	}
	for i, r := range finding.Resources {
		fields = append(fields,
			slackField{Title: fmt.Sprintf("Type %d", i+1), Value: code(r.Type), Short: true},
			slackField{Title: fmt.Sprintf("Arn %d", i+1), Value: code(r.ID), Short: false},
		)
	}
	return []slackAttachment{
		slackHeader(finding.Priority, "Security Hub: "+finding.Source, finding.URL),
		{
			Color:    slackColor(finding.Priority),
			Fallback: fmt.Sprintf("Security Hub finding %s triggered", finding.Source),
			Text:     finding.Description,
			Fields:   fields,
		},
	}, nil
}

func (s *Slack) budgetAlert(alarm *types.BudgetFact) ([]slackAttachment, error) {
	if alarm == nil {
		return nil, missingVariant(types.VendorSlack, types.ActionBudget)
	}
	return []slackAttachment{
		{
			Color:    slackColor(types.PriorityHigh),
			ImageURL: warningIconURL,
			Title:    "Budget: " + alarm.Subject,
		},
		{
			Color:    slackColor(types.PriorityHigh),
			Fallback: fmt.Sprintf("Budget %s triggered", alarm.Subject),
			MrkdwnIn: []string{"value"},
			Fields: []slackField{
				{Value: alarm.Info, Short: false},
			},
		},
	}, nil
}

func (s *Slack) savingsPlanAlert(alarm *types.SavingsPlanFact) ([]slackAttachment, error) {
	if alarm == nil {
		return nil, missingVariant(types.VendorSlack, types.ActionSavingsPlan)
	}
	return []slackAttachment{
		{
			Color:    slackColor(types.PriorityHigh),
			ImageURL: warningIconURL,
			Title:    "Savings Plan: " + alarm.Subject,
		},
		{
			Color:    slackColor(types.PriorityHigh),
			Fallback: fmt.Sprintf("Savings Plan %s triggered", alarm.Subject),
			MrkdwnIn: []string{"value"},
			Fields: []slackField{
				{Value: alarm.Info, Short: false},
			},
		},
	}, nil
}

func (s *Slack) dmsNotification(event *types.DMSFact) ([]slackAttachment, error) {
	if event == nil {
		return nil, missingVariant(types.VendorSlack, types.ActionDMS)
	}
	return []slackAttachment{
		{
			Color:     slackColor(types.PriorityWarning),
			Fallback:  fmt.Sprintf("DMS Notification %s triggered", event.Title),
			Title:     "DMS Notification: " + event.Title,
			TitleLink: event.URL,
			Text:      event.Documentation,
			Ts:        event.AtEpoch,
			Fields: []slackField{
				{Title: "When", Value: code(event.At), Short: true},
				{Title: "When (Epoch)", Value: code(strconv.FormatInt(event.AtEpoch, 10)), Short: true},
				{Title: "Source", Value: code(event.Source), Short: true},
				{Title: "Source ID", Value: code(event.SourceID), Short: true},
			},
		},
	}, nil
}

func (s *Slack) costAnomaly(anomaly *types.CostAnomalyFact) ([]slackAttachment, error) {
	if anomaly == nil {
		return nil, missingVariant(types.VendorSlack, types.ActionCostAnomaly)
	}
	return []slackAttachment{
		slackHeader(anomaly.Priority, "Cost Anomaly: "+anomaly.Usage, anomaly.URL),
		{
			Color:    slackColor(anomaly.Priority),
			Fallback: fmt.Sprintf("Cost Anomaly %s triggered", anomaly.Usage),
			Text:     anomaly.MonitorName,
			Fields: []slackField{
				{Title: "Account Name", Value: code(anomaly.AccountName), Short: true},
				{Title: "Account ID", Value: code(anomaly.AccountID), Short: true},
				{Title: "Region", Value: code(anomaly.Region), Short: true},
				{Title: "Service", Value: code(anomaly.Service), Short: true},
				{Title: "Started At", Value: code(anomaly.Started), Short: true},
				{Title: "Ended At", Value: code(anomaly.Ended), Short: true},
				{Title: "Expected Spend ($)", Value: code(formatFloat(anomaly.ExpectedSpend)), Short: true},
				{Title: "Actual Spend ($)", Value: code(formatFloat(anomaly.ActualSpend)), Short: true},
				{Title: "Impact", Value: code(formatFloat(anomaly.TotalImpact)), Short: true},
				{Title: "ID", Value: code(anomaly.AnomalyID), Short: false},
			},
		},
	}, nil
}

// defaultCard is the fallback for unrecognized messages. It renders the raw
// key/value pairs (keys sorted so the output is deterministic) and never
// fails, whatever the message shape.
func (s *Slack) defaultCard(original any, subject string) []slackAttachment {
	attachment := slackAttachment{
		Fallback: "A new message",
		Text:     "AWS notification",
		Title:    defaultTitle(subject),
		MrkdwnIn: []string{"value"},
	}

	if m, ok := original.(map[string]any); ok {
		for _, k := range sortedKeys(m) {
			value := flattenValue(m[k])
			attachment.Fields = append(attachment.Fields, slackField{
				Title: k,
				Value: code(value),
				Short: len(value) < 25,
			})
		}
	} else {
		attachment.Fields = append(attachment.Fields, slackField{
			Value: flattenValue(original),
			Short: false,
		})
	}

	return []slackAttachment{attachment}
}
