package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// DefaultEnvPrefix namespaces secrets in the environment.
const DefaultEnvPrefix = "JUDGMENT_SECRET_"

// EnvProvider loads secrets from environment variables. The secret
// "model-token" is read from <Prefix>MODEL_TOKEN.
type EnvProvider struct {
	Prefix string
}

// NewEnvProvider creates an environment provider with the given prefix.
func NewEnvProvider(prefix string) *EnvProvider {
	return &EnvProvider{Prefix: prefix}
}

// GetSecret reads the secret's environment variable. An empty variable
// counts as missing.
func (p *EnvProvider) GetSecret(ctx context.Context, name string) (string, error) {
	envVar := p.EnvVar(name)
	value := os.Getenv(envVar)
	if value == "" {
		return "", fmt.Errorf("%w in environment: %s (env var: %s)", ErrNotFound, name, envVar)
	}
	return value, nil
}

// Name returns "env".
func (p *EnvProvider) Name() string {
	return "env"
}

// EnvVar returns the environment variable holding the named secret.
func (p *EnvProvider) EnvVar(name string) string {
	return p.Prefix + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}
