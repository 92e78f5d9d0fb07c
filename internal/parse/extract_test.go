package parse

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"awsnotify/internal/accounts"
	"awsnotify/internal/types"
)

func testParser() *Parser {
	dir := accounts.FromMap(map[string]string{
		"111122223333": "prod",
		"444455556666": "staging",
	})
	return NewParser(dir, NewURLBuilder("", ""))
}

func cloudWatchMessage(state string) map[string]any {
	return map[string]any{
		"AlarmName":        "cpu-high",
		"AlarmDescription": "CPU above 90%",
		"AWSAccountId":     "111122223333",
		"NewStateValue":    state,
		"OldStateValue":    "OK",
		"NewStateReason":   "Threshold Crossed",
		"StateChangeTime":  "2024-03-01T12:00:00.000+0000",
		"Region":           "EU (Ireland)",
		"AlarmArn":         "arn:aws:cloudwatch:eu-west-1:111122223333:alarm:cpu-high",
	}
}

func TestParseCloudWatch(t *testing.T) {
	p := testParser()

	tests := []struct {
		state string
		want  types.Priority
	}{
		{"OK", types.PriorityNoError},
		{"INSUFFICIENT_DATA", types.PriorityWarning},
		{"ALARM", types.PriorityError},
	}
	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			result, err := p.Parse(cloudWatchMessage(tt.state), "eu-west-1", nil, "")
			require.NoError(t, err)
			require.Equal(t, types.ActionCloudWatch, result.Action)
			require.NotNil(t, result.Fact.CloudWatch)
			assert.Equal(t, tt.want, result.Fact.CloudWatch.Priority)
		})
	}

	t.Run("derived fields", func(t *testing.T) {
		result, err := p.Parse(cloudWatchMessage("ALARM"), "eu-west-1", nil, "")
		require.NoError(t, err)
		alarm := result.Fact.CloudWatch
		assert.Equal(t, "cpu-high", alarm.Name)
		assert.Equal(t, "prod", alarm.AccountName)
		assert.Equal(t, "eu-west-1", alarm.AlarmARNRegion)
		assert.Equal(t, int64(1709294400), alarm.AtEpoch)
		assert.Equal(t,
			"https://console.aws.amazon.com/cloudwatch/home?region=eu-west-1#alarm:alarmFilter=ANY;name=cpu-high",
			alarm.URL)
	})

	t.Run("null description is delivered with an empty description", func(t *testing.T) {
		msg := cloudWatchMessage("ALARM")
		msg["AlarmDescription"] = nil
		result, err := p.Parse(msg, "eu-west-1", nil, "")
		require.NoError(t, err)
		assert.Equal(t, "", result.Fact.CloudWatch.Description)
	})

	t.Run("missing required field fails the record", func(t *testing.T) {
		msg := cloudWatchMessage("ALARM")
		delete(msg, "NewStateReason")
		_, err := p.Parse(msg, "eu-west-1", nil, "")
		var appErr *types.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, types.ErrCodeParseMissingField, appErr.Code)
	})

	t.Run("unmapped alarm state fails the record", func(t *testing.T) {
		_, err := p.Parse(cloudWatchMessage("PENDING"), "eu-west-1", nil, "")
		assert.Error(t, err)
	})
}

func TestGuardDutySeverity(t *testing.T) {
	tests := []struct {
		score    float64
		severity string
		priority types.Priority
	}{
		{3.99, "Low", types.PriorityLow},
		{4.0, "Medium", types.PriorityMedium},
		{6.99, "Medium", types.PriorityMedium},
		{7.0, "High", types.PriorityHigh},
		{8.5, "High", types.PriorityHigh},
		{0, "Low", types.PriorityLow},
	}
	for _, tt := range tests {
		severity, priority := guardDutySeverity(tt.score)
		assert.Equal(t, tt.severity, severity, "score %v", tt.score)
		assert.Equal(t, tt.priority, priority, "score %v", tt.score)
	}
}

func TestParseGuardDuty(t *testing.T) {
	p := testParser()
	msg := map[string]any{
		"detail-type": "GuardDuty Finding",
		"region":      "eu-west-1",
		"detail": map[string]any{
			"severity":    7.8,
			"title":       "Unusual console login",
			"description": "API was invoked from a Tor exit node.",
			"type":        "UnauthorizedAccess:IAMUser/TorIPCaller",
			"accountId":   "444455556666",
			"id":          "finding-1234",
			"service": map[string]any{
				"eventFirstSeen": "2024-03-01T11:00:00Z",
				"eventLastSeen":  "2024-03-01T12:00:00Z",
				"count":          float64(3),
			},
		},
	}

	result, err := p.Parse(msg, "eu-west-1", nil, "")
	require.NoError(t, err)
	require.Equal(t, types.ActionGuardDuty, result.Action)

	finding := result.Fact.GuardDuty
	require.NotNil(t, finding)
	assert.Equal(t, types.PriorityHigh, finding.Priority)
	assert.Equal(t, "High", finding.Severity)
	assert.Equal(t, 7.8, finding.SeverityScore)
	assert.Equal(t, "staging", finding.AccountName)
	assert.Equal(t, int64(3), finding.Count)
	assert.Equal(t, int64(1709294400), finding.AtEpoch)
	assert.Equal(t, "https://console.aws.amazon.com/guardduty/home?region=eu-west-1", finding.URL)
}

func TestParseHealth(t *testing.T) {
	p := testParser()

	healthMessage := func(category string) map[string]any {
		return map[string]any{
			"detail-type": "AWS Health Event",
			"account":     "111122223333",
			"time":        "2024-03-01T12:00:00Z",
			"resources":   []any{"i-0123", "i-4567"},
			"detail": map[string]any{
				"eventTypeCategory": category,
				"eventTypeCode":     "AWS_EC2_INSTANCE_STORE_DRIVE_PERFORMANCE_DEGRADED",
				"service":           "EC2",
				"eventArn":          "arn:aws:health:eu-west-2::event/EC2/ABC",
				"startTime":         "2024-03-01T10:00:00Z",
				"eventDescription": []any{
					map[string]any{"latestDescription": "Degraded instance store performance."},
				},
			},
		}
	}

	tests := []struct {
		category string
		want     types.Priority
	}{
		{"accountNotification", types.PriorityLow},
		{"scheduledChange", types.PriorityMedium},
		{"issue", types.PriorityHigh},
	}
	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			result, err := p.Parse(healthMessage(tt.category), "eu-west-1", nil, "")
			require.NoError(t, err)
			require.NotNil(t, result.Fact.Health)
			assert.Equal(t, tt.want, result.Fact.Health.Priority)
		})
	}

	t.Run("derived fields", func(t *testing.T) {
		result, err := p.Parse(healthMessage("issue"), "eu-west-1", nil, "")
		require.NoError(t, err)
		alert := result.Fact.Health
		assert.Equal(t, "eu-west-2", alert.Region)
		assert.Equal(t, "Degraded instance store performance.", alert.Description)
		assert.Equal(t, "i-0123,i-4567", alert.Resources)
		assert.Equal(t, "<unknown>", alert.EndTime)
		assert.Equal(t, "prod", alert.AccountName)
		assert.Equal(t, "https://phd.aws.amazon.com/phd/home?region=eu-west-2#/dashboard/open-issues", alert.URL)
	})
}

func TestParseBackup(t *testing.T) {
	p := testParser()
	message := "An AWS Backup job was completed successfully.\n" +
		"BackupJob ID : aaaa1111\n" +
		"Resource ARN : arn:aws:dynamodb:eu-west-2:111122223333:table/orders."
	attrs := map[string]any{
		"StartTime": map[string]any{"Type": "String", "Value": "2024-03-01T01:00:00Z"},
		"AccountId": map[string]any{"Type": "String", "Value": "111122223333"},
		"Id":        map[string]any{"Type": "String", "Value": "aaaa1111"},
		"State":     map[string]any{"Type": "String", "Value": "COMPLETED"},
	}

	result, err := p.Parse(message, "eu-west-1", attrs, "Notification from AWS Backup")
	require.NoError(t, err)
	require.Equal(t, types.ActionBackup, result.Action)

	status := result.Fact.Backup
	require.NotNil(t, status)
	assert.Equal(t, types.PriorityNoError, status.Priority)
	assert.Equal(t, "COMPLETED", status.Status)
	assert.Equal(t, "eu-west-2", status.Region)
	assert.Equal(t, "prod", status.AccountName)
	assert.Equal(t, "An AWS Backup job was completed successfully", status.Description)
	require.Len(t, status.Fields, 2)

	t.Run("failed state maps to error", func(t *testing.T) {
		failedAttrs := map[string]any{
			"StartTime": attrs["StartTime"],
			"AccountId": attrs["AccountId"],
			"Id":        attrs["Id"],
			"State":     map[string]any{"Type": "String", "Value": "FAILED"},
		}
		result, err := p.Parse(message, "eu-west-1", failedAttrs, "Notification from AWS Backup")
		require.NoError(t, err)
		assert.Equal(t, types.PriorityError, result.Fact.Backup.Priority)
	})

	t.Run("missing attribute fails the record", func(t *testing.T) {
		_, err := p.Parse(message, "eu-west-1", map[string]any{}, "Notification from AWS Backup")
		assert.Error(t, err)
	})
}

func TestParseSecurityHub(t *testing.T) {
	p := testParser()
	findingID := "arn:aws:securityhub:eu-west-1:111122223333:" +
		"security-control/aws-foundational-security-best-practices/v/1.0.0/S3.8/finding/abcd-1234"
	msg := map[string]any{
		"Severity":    "HIGH",
		"GeneratorId": "security-control/S3.8",
		"Description": "S3 general purpose buckets should block public access.",
		"AccountName": "prod",
		"FindingId":   findingID,
		"Resources": []any{
			map[string]any{"Type": "AwsS3Bucket", "Id": "arn:aws:s3:::my-bucket"},
		},
	}

	result, err := p.Parse(msg, "eu-west-1", nil, "Security Hub Finding")
	require.NoError(t, err)
	require.Equal(t, types.ActionSecurityHub, result.Action)

	finding := result.Fact.SecurityHub
	require.NotNil(t, finding)
	assert.Equal(t, types.PriorityHigh, finding.Priority)
	assert.Equal(t, "111122223333", finding.AccountID)
	assert.Equal(t, "eu-west-1", finding.Region)
	assert.Equal(t, "aws-foundational-security-best-practices", finding.RuleProvider)
	assert.Equal(t, "1.0.0", finding.ProviderVersion)
	assert.Equal(t, "S3.8", finding.ProviderCategory)
	assert.Equal(t, "abcd-1234", finding.RuleID)
	require.Len(t, finding.Resources, 1)
	assert.Equal(t, "AwsS3Bucket", finding.Resources[0].Type)

	t.Run("short finding arn fails instead of panicking", func(t *testing.T) {
		bad := map[string]any{}
		for k, v := range msg {
			bad[k] = v
		}
		bad["FindingId"] = "arn:aws:securityhub:eu-west-1:111122223333:short"
		_, err := p.Parse(bad, "eu-west-1", nil, "Security Hub Finding")
		var appErr *types.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, types.ErrCodeParseMalformedARN, appErr.Code)
	})

	t.Run("severity vocabulary passes through", func(t *testing.T) {
		for severity, want := range map[string]types.Priority{
			"INFORMATIONAL": types.PriorityInfo,
			"LOW":           types.PriorityLow,
			"MEDIUM":        types.PriorityMedium,
			"HIGH":          types.PriorityHigh,
			"CRITICAL":      types.PriorityCritical,
		} {
			m := map[string]any{}
			for k, v := range msg {
				m[k] = v
			}
			m["Severity"] = severity
			result, err := p.Parse(m, "eu-west-1", nil, "Security Hub Finding")
			require.NoError(t, err)
			assert.Equal(t, want, result.Fact.SecurityHub.Priority)
		}
	})
}

func TestParseDMS(t *testing.T) {
	p := testParser()
	msg := map[string]any{
		"Event Message":   "Replication task has stopped.",
		"Event ID":        "http://docs.aws.amazon.com/dms/latest/userguide/CHAP_Events.html#DMS-EVENT-0079",
		"Event Source":    "replication-task",
		"SourceId":        "task-1234",
		"Identifier Link": "https://console.aws.amazon.com/dms/v2/home?region=eu-west-1#taskDetails/task-1234",
		"Event Time":      "2024-03-01T12:00:00.000Z",
	}

	result, err := p.Parse(msg, "eu-west-1", nil, "DMS Notification Message")
	require.NoError(t, err)
	require.Equal(t, types.ActionDMS, result.Action)

	event := result.Fact.DMS
	require.NotNil(t, event)
	assert.Equal(t, "Replication task has stopped.", event.Title)
	assert.Equal(t, "task-1234", event.SourceID)
	assert.Equal(t, int64(1709294400), event.AtEpoch)

	t.Run("space-separated event time", func(t *testing.T) {
		spaced := map[string]any{}
		for k, v := range msg {
			spaced[k] = v
		}
		spaced["Event Time"] = "2024-03-01 12:00:00.632"
		result, err := p.Parse(spaced, "eu-west-1", nil, "DMS Notification Message")
		require.NoError(t, err)
		assert.Equal(t, int64(1709294400), result.Fact.DMS.AtEpoch)
	})
}

func TestParseCostAnomaly(t *testing.T) {
	p := testParser()

	anomalyMessage := func(current, max float64) map[string]any {
		return map[string]any{
			"accountId":          "111122223333",
			"anomalyDetailsLink": "https://console.aws.amazon.com/cost-management/home#/anomaly-detection/monitors/m-1/anomalies/a-1",
			"anomalyId":          "a-1",
			"anomalyStartDate":   "2024-03-01T00:00:00Z",
			"anomalyEndDate":     "2024-03-02T00:00:00Z",
			"monitorName":        "spend-monitor",
			"anomalyScore":       map[string]any{"currentScore": current, "maxScore": max},
			"impact": map[string]any{
				"totalExpectedSpend": 100.0,
				"totalActualSpend":   250.0,
				"totalImpact":        150.0,
			},
			"rootCauses": []any{
				map[string]any{
					"linkedAccount":     "444455556666",
					"linkedAccountName": "staging",
					"region":            "eu-west-1",
					"service":           "AmazonEC2",
					"usageType":         "BoxUsage:m5.xlarge",
				},
			},
		}
	}

	t.Run("receding anomaly is a warning", func(t *testing.T) {
		result, err := p.Parse(anomalyMessage(0.3, 0.9), "eu-west-1", nil, "AWS Cost Management: anomaly detected")
		require.NoError(t, err)
		assert.Equal(t, types.PriorityWarning, result.Fact.CostAnomaly.Priority)
	})

	t.Run("peak anomaly is an error", func(t *testing.T) {
		result, err := p.Parse(anomalyMessage(0.9, 0.9), "eu-west-1", nil, "AWS Cost Management: anomaly detected")
		require.NoError(t, err)

		anomaly := result.Fact.CostAnomaly
		assert.Equal(t, types.PriorityError, anomaly.Priority)
		assert.Equal(t, "444455556666", anomaly.AccountID)
		assert.Equal(t, "staging", anomaly.AccountName)
		assert.Equal(t, "BoxUsage:m5.xlarge", anomaly.Usage)
		assert.Equal(t, 150.0, anomaly.TotalImpact)
	})
}

func TestParseBudgetAndSavingsPlan(t *testing.T) {
	p := testParser()

	t.Run("budget subject prefix is trimmed", func(t *testing.T) {
		result, err := p.Parse("You have exceeded your budget.", "eu-west-1", nil,
			"AWS Budgets: monthly-spend has exceeded your alert threshold")
		require.NoError(t, err)
		require.Equal(t, types.ActionBudget, result.Action)
		assert.Equal(t, " monthly-spend has exceeded your alert threshold", result.Fact.Budget.Subject)
		assert.Equal(t, "You have exceeded your budget.", result.Fact.Budget.Info)
	})

	t.Run("savings plan subject prefix is trimmed", func(t *testing.T) {
		result, err := p.Parse("Coverage dropped.", "eu-west-1", nil,
			"Savings Plans Coverage Alert: coverage below 80%")
		require.NoError(t, err)
		require.Equal(t, types.ActionSavingsPlan, result.Action)
		assert.Equal(t, " coverage below 80%", result.Fact.SavingsPlan.Subject)
	})
}

func TestParseUnknown(t *testing.T) {
	p := testParser()

	result, err := p.Parse(`{"hello":"world"}`, "eu-west-1", nil, "Something else")
	require.NoError(t, err)
	assert.Equal(t, types.ActionUnknown, result.Action)
	assert.Nil(t, result.Fact.CloudWatch)

	m, ok := result.Original.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "world", m["hello"])
}
