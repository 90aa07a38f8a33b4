package secheaders

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"io"
)

// nonceBytes gives 128 bits of entropy per response nonce.
const nonceBytes = 16

type nonceKey struct{}

// GenerateNonce returns a fresh base64 nonce read from source.
func GenerateNonce(source io.Reader) (string, error) {
	buf := make([]byte, nonceBytes)
	if _, err := io.ReadFull(source, buf); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

// WithNonce stores the response nonce in the context so templates can mark
// inline scripts with the same value the CSP header carries.
func WithNonce(ctx context.Context, nonce string) context.Context {
	return context.WithValue(ctx, nonceKey{}, nonce)
}

// GetNonce returns the response nonce, or "" when header composition did not
// run or degraded without one.
func GetNonce(ctx context.Context) string {
	if n, ok := ctx.Value(nonceKey{}).(string); ok {
		return n
	}
	return ""
}

// defaultRandSource is crypto/rand; tests substitute a failing reader to
// exercise degraded composition.
var defaultRandSource io.Reader = rand.Reader
