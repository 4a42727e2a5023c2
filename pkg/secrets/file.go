package secrets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileProvider loads secrets from files in a directory, one secret per
// file named after the secret. Files must be regular with mode 0600 or
// 0400; surrounding whitespace is trimmed.
type FileProvider struct {
	basePath string
}

// NewFileProvider creates a provider reading from basePath, which must be
// an existing directory.
func NewFileProvider(basePath string) (*FileProvider, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve secrets directory: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to stat secrets directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("secrets path is not a directory: %s", basePath)
	}

	return &FileProvider{basePath: abs}, nil
}

// GetSecret reads <basePath>/<name>.
func (p *FileProvider) GetSecret(ctx context.Context, name string) (string, error) {
	path := filepath.Join(p.basePath, name)
	if !strings.HasPrefix(path, p.basePath+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid secret name %q: path escapes the secrets directory", name)
	}

	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w in %s: %s", ErrNotFound, p.basePath, name)
		}
		return "", fmt.Errorf("failed to stat secret file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("secret path is not a regular file: %s", name)
	}
	if mode := info.Mode().Perm(); mode != 0600 && mode != 0400 {
		return "", fmt.Errorf("insecure permissions on %s: %o (expected 0600 or 0400)", path, mode)
	}

	// #nosec G304 - path is confined to basePath above
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read secret file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Name returns "file".
func (p *FileProvider) Name() string {
	return "file"
}
