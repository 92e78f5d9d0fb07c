package render

// Emblem icons prepended to error- and warning-tier cards. Teams can embed
// base64 image data but Slack cannot, so both vendors reference the hosted
// icons by URL.
const (
	attentionIconURL = "https://raw.githubusercontent.com/appvia/terraform-aws-notifications/main/resources/posts-attention-icon.png"
	warningIconURL   = "https://raw.githubusercontent.com/appvia/terraform-aws-notifications/main/resources/posts-warning-icon.png"
)
