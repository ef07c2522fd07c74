// Package auth provides the credential capability used to authorize
// upstream requests. Callers receive an injected provider instead of
// reading tokens from ambient process state, so tests can substitute one.
package auth

import "os"

// CredentialProvider supplies the bearer token for upstream calls.
// An empty token with a nil error means "send the request unauthenticated";
// the upstream's 401 is handled like any other failure by the caller.
type CredentialProvider interface {
	GetToken() (string, error)
}

// StaticProvider returns a fixed token.
type StaticProvider struct {
	Token string
}

// GetToken returns the configured token.
func (p StaticProvider) GetToken() (string, error) {
	return p.Token, nil
}

// EnvProvider reads the token from an environment variable on every call,
// picking up rotation without a restart.
type EnvProvider struct {
	Var string
}

// GetToken returns the current value of the environment variable.
func (p EnvProvider) GetToken() (string, error) {
	return os.Getenv(p.Var), nil
}
