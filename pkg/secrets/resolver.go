package secrets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
)

// secretRefRegex matches ${secret:name} patterns.
var secretRefRegex = regexp.MustCompile(`\$\{secret:([^}]+)\}`)

// Resolver looks secrets up across providers in priority order.
type Resolver struct {
	providers []Provider
	logger    *slog.Logger
}

// NewResolver creates a resolver over providers. A nil logger uses
// slog.Default().
func NewResolver(logger *slog.Logger, providers ...Provider) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		providers: providers,
		logger:    logger.With("component", "secrets"),
	}
}

// GetSecret returns the value from the first provider holding name. A
// provider failing for any reason other than ErrNotFound stops the lookup.
func (r *Resolver) GetSecret(ctx context.Context, name string) (string, error) {
	for _, p := range r.providers {
		value, err := p.GetSecret(ctx, name)
		if err == nil {
			r.logger.Debug("secret resolved", "provider", p.Name(), "name", name)
			return value, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return "", fmt.Errorf("secret %q from %s provider: %w", name, p.Name(), err)
		}
	}
	return "", fmt.Errorf("%w: %q", ErrNotFound, name)
}

// Resolve replaces every ${secret:name} reference in input. All failures
// are reported together; unresolved references are left in place.
func (r *Resolver) Resolve(ctx context.Context, input string) (string, error) {
	var errs []error

	output := secretRefRegex.ReplaceAllStringFunc(input, func(match string) string {
		name := secretRefRegex.FindStringSubmatch(match)[1]
		value, err := r.GetSecret(ctx, name)
		if err != nil {
			errs = append(errs, err)
			return match
		}
		return value
	})

	return output, errors.Join(errs...)
}

// ResolveMap resolves every value of m into a new map. Keys are kept as-is.
func (r *Resolver) ResolveMap(ctx context.Context, m map[string]string) (map[string]string, error) {
	if m == nil {
		return nil, nil
	}

	out := make(map[string]string, len(m))
	var errs []error
	for k, v := range m {
		resolved, err := r.Resolve(ctx, v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", k, err))
		}
		out[k] = resolved
	}
	return out, errors.Join(errs...)
}

// HasReferences reports whether s contains a ${secret:name} reference.
func HasReferences(s string) bool {
	return secretRefRegex.MatchString(s)
}
