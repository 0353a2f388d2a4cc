package paycom

import (
	"crypto/subtle"
	"encoding/base64"
	"strings"

	"paygate_backend/internal/logger"
)

// Authenticator validates the provider's HTTP Basic credentials against the
// configured merchant key.
type Authenticator struct {
	login string
	key   string
}

func NewAuthenticator(login, key string) *Authenticator {
	return &Authenticator{login: login, key: key}
}

// Authenticate checks an Authorization header value. On any mismatch it
// returns the Unauthorized protocol error; the failure reason is logged but
// the key never is.
func (a *Authenticator) Authenticate(header string) *Error {
	if header == "" {
		logger.Warn("paycom auth failed", "reason", "missing authorization header")
		return ErrUnauthorized()
	}

	scheme, encoded, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Basic") {
		logger.Warn("paycom auth failed", "reason", "unsupported scheme", "scheme", scheme)
		return ErrUnauthorized()
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		logger.Warn("paycom auth failed", "reason", "malformed base64 credentials")
		return ErrUnauthorized()
	}

	username, password, found := strings.Cut(string(decoded), ":")
	if !found {
		logger.Warn("paycom auth failed", "reason", "malformed credential pair")
		return ErrUnauthorized()
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.login)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.key)) == 1
	if !userOK || !passOK {
		logger.Warn("paycom auth failed", "reason", "wrong credentials", "username", username)
		return ErrUnauthorized()
	}
	return nil
}
