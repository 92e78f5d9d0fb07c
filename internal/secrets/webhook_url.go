// Package secrets resolves the configured webhook URL. Deployments may set
// the URL either as plaintext or as a base64-encoded KMS ciphertext; the
// latter is decrypted once at cold start.
package secrets

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/kms"

	"awsnotify/internal/types"
)

// kmsClient is the subset of the KMS SDK client used here.
type kmsClient interface {
	Decrypt(ctx context.Context, params *kms.DecryptInput, optFns ...func(*kms.Options)) (*kms.DecryptOutput, error)
}

// ResolveWebhookURL returns the plaintext webhook URL. A value that already
// looks like a URL (http prefix) is passed through untouched; anything else
// is treated as base64 KMS ciphertext and decrypted.
func ResolveWebhookURL(ctx context.Context, client kmsClient, value types.SecretString) (types.SecretString, error) {
	raw := value.Unmask()
	if strings.HasPrefix(raw, "http") {
		return value, nil
	}

	blob, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return "", types.NewAppError(types.ErrCodeSecretUnresolved,
			"webhook URL is neither a URL nor valid base64 ciphertext", err)
	}

	out, err := client.Decrypt(ctx, &kms.DecryptInput{CiphertextBlob: blob})
	if err != nil {
		return "", types.NewAppError(types.ErrCodeSecretUnresolved,
			"KMS decryption of webhook URL failed", err)
	}

	return types.SecretString(out.Plaintext), nil
}
