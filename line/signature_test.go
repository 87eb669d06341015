package line

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestValidateSignature(t *testing.T) {
	secret := "test-channel-secret"
	body := []byte(`{"events":[]}`)

	assert.True(t, ValidateSignature(secret, signBody(secret, body), body))
}

func TestValidateSignatureRejects(t *testing.T) {
	secret := "test-channel-secret"
	body := []byte(`{"events":[]}`)

	assert.False(t, ValidateSignature(secret, signBody("other-secret", body), body), "wrong secret")
	assert.False(t, ValidateSignature(secret, signBody(secret, []byte(`{"events":[{}]}`)), body), "tampered body")
	assert.False(t, ValidateSignature(secret, "not base64!!", body), "malformed header")
	assert.False(t, ValidateSignature(secret, "", body), "missing header")
}
