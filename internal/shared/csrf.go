package shared

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// csrfSessionKey names the session value holding the issued token.
const csrfSessionKey = "csrf_token"

// CSRFManager issues signed per-session tokens. A token is a random nonce and
// its HMAC, so forged values are rejected before the session is consulted.
type CSRFManager struct {
	secret []byte
}

// NewCSRFManager returns a CSRFManager signing with secret.
func NewCSRFManager(secret string) *CSRFManager {
	return &CSRFManager{secret: []byte(secret)}
}

// Token returns the session's token, issuing one on first use. The token
// survives Renew, so a login does not invalidate a page's token.
func (m *CSRFManager) Token(sess *Session) (string, error) {
	if sess == nil {
		return "", errors.New("csrf: session missing")
	}
	if token := sess.Get(csrfSessionKey); token != "" {
		return token, nil
	}
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("csrf: nonce: %w", err)
	}
	encoded := base64.RawURLEncoding.EncodeToString(nonce)
	token := encoded + "." + m.sign(encoded)
	sess.Set(csrfSessionKey, token)
	return token, nil
}

// Verify checks presented against the token issued to sess.
func (m *CSRFManager) Verify(sess *Session, presented string) error {
	if presented == "" || sess == nil {
		return ErrCSRFTokenMissing
	}
	nonce, sig, ok := strings.Cut(presented, ".")
	if !ok || !hmac.Equal([]byte(sig), []byte(m.sign(nonce))) {
		return ErrCSRFTokenMismatch
	}
	expected := sess.Get(csrfSessionKey)
	if expected == "" {
		return ErrCSRFTokenMissing
	}
	if !hmac.Equal([]byte(expected), []byte(presented)) {
		return ErrCSRFTokenMismatch
	}
	return nil
}

func (m *CSRFManager) sign(nonce string) string {
	mac := hmac.New(sha256.New, m.secret)
	_, _ = mac.Write([]byte(nonce))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
