package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleURL(t *testing.T) {
	b := NewURLBuilder("", "")

	t.Run("standard region", func(t *testing.T) {
		url, err := b.ConsoleURL("eu-west-1", "cloudwatch")
		require.NoError(t, err)
		assert.Equal(t, "https://console.aws.amazon.com/cloudwatch/home?region=eu-west-1", url)
	})

	t.Run("government region uses gov host", func(t *testing.T) {
		url, err := b.ConsoleURL("us-gov-west-1", "guardduty")
		require.NoError(t, err)
		assert.Equal(t, "https://console.amazonaws-us-gov.com/guardduty/home?region=us-gov-west-1", url)
	})

	t.Run("unsupported service fails", func(t *testing.T) {
		_, err := b.ConsoleURL("eu-west-1", "dynamodb")
		assert.Error(t, err)
	})
}

func TestTarget(t *testing.T) {
	t.Run("broker rewrite", func(t *testing.T) {
		b := NewURLBuilder("https://sso.example.com/start", "Admin")
		got := b.Target("111222333444", "https://console.aws.amazon.com/cloudwatch/home?region=eu-west-1")
		want := "https://sso.example.com/start/#/console?account_id=111222333444&role_name=Admin" +
			"&destination=https%3A//console.aws.amazon.com/cloudwatch/home%3Fregion%3Deu-west-1"
		assert.Equal(t, want, got)
	})

	t.Run("no broker configured passes through", func(t *testing.T) {
		b := NewURLBuilder("", "Admin")
		got := b.Target("111222333444", "https://console.aws.amazon.com/cloudwatch/home?region=eu-west-1")
		assert.Equal(t, "https://console.aws.amazon.com/cloudwatch/home?region=eu-west-1", got)
	})

	t.Run("no account id passes through", func(t *testing.T) {
		b := NewURLBuilder("https://sso.example.com/start", "Admin")
		got := b.Target("", "https://example.com")
		assert.Equal(t, "https://example.com", got)
	})

	t.Run("trailing slash and console path are trimmed", func(t *testing.T) {
		b := NewURLBuilder("https://sso.example.com/start/console/", "Admin")
		got := b.Target("111222333444", "https://example.com")
		assert.Equal(t,
			"https://sso.example.com/start/#/console?account_id=111222333444&role_name=Admin&destination=https%3A//example.com",
			got)
	})
}

func TestQuote(t *testing.T) {
	// Slashes stay literal, everything else outside the unreserved set is
	// percent-encoded.
	assert.Equal(t, "https%3A//a.example.com/b%3Fc%3Dd%26e%3Df", quote("https://a.example.com/b?c=d&e=f"))
	assert.Equal(t, "plain-text_.~/ok", quote("plain-text_.~/ok"))
	assert.Equal(t, "a%20b", quote("a b"))
}
