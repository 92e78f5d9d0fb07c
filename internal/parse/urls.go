package parse

import (
	"fmt"
	"strings"

	"awsnotify/internal/types"
)

// consoleServices are the AWS services we can build console deep-links for.
// Anything else is a typed error so an extractor bug surfaces loudly instead
// of producing a dead link.
var consoleServices = map[string]struct{}{
	"cloudwatch":  {},
	"guardduty":   {},
	"securityhub": {},
}

// URLBuilder builds AWS console deep-links, optionally rewriting them
// through an identity-broker redirect so that clicking a link lands the
// reader in the right account via the SSO console-access flow.
type URLBuilder struct {
	brokerURL  string
	brokerRole string
}

// NewURLBuilder creates a URLBuilder. brokerURL may be empty, in which case
// links are emitted directly. A trailing slash and a trailing "/console"
// path segment are trimmed so operators can paste the SSO start URL as-is.
func NewURLBuilder(brokerURL, brokerRole string) *URLBuilder {
	brokerURL = strings.TrimSuffix(brokerURL, "/")
	brokerURL = strings.TrimSuffix(brokerURL, "/console")
	return &URLBuilder{
		brokerURL:  brokerURL,
		brokerRole: brokerRole,
	}
}

// ConsoleURL returns the console home URL for a service in a region.
// Government regions use a distinct console host.
func (b *URLBuilder) ConsoleURL(region, service string) (string, error) {
	if _, ok := consoleServices[service]; !ok {
		return "", types.NewAppError(types.ErrCodeURLServiceUnsupported,
			fmt.Sprintf("service %q has no console URL mapping", service), nil)
	}

	host := "https://console.aws.amazon.com"
	if strings.HasPrefix(region, "us-gov-") {
		host = "https://console.amazonaws-us-gov.com"
	}
	return fmt.Sprintf("%s/%s/home?region=%s", host, service, region), nil
}

// Target rewrites an absolute URL through the identity broker when one is
// configured and the originating account is known. Otherwise the URL is
// returned unchanged.
func (b *URLBuilder) Target(accountID, absolute string) string {
	if b.brokerURL == "" || accountID == "" {
		return absolute
	}
	return fmt.Sprintf("%s/#/console?account_id=%s&role_name=%s&destination=%s",
		b.brokerURL, accountID, b.brokerRole, quote(absolute))
}

// quote percent-encodes every byte except RFC 3986 unreserved characters
// and "/", matching the encoding the broker's console redirect expects for
// its destination parameter.
func quote(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			sb.WriteByte(c)
		case c == '-' || c == '_' || c == '.' || c == '~' || c == '/':
			sb.WriteByte(c)
		default:
			fmt.Fprintf(&sb, "%%%02X", c)
		}
	}
	return sb.String()
}
