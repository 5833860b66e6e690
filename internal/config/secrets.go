package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

const redacted = "**********"

// Secret holds a sensitive config value. Its string and log forms never expose Value.
type Secret struct {
	Name    string // lower-case lookup name
	Version int    // 0 means latest
	Value   string
}

func (s Secret) String() string {
	return fmt.Sprintf("Secret-%s-Ver[%d]('%s')", s.Name, s.Version, redacted)
}

// LogValue keeps slog from printing the raw value.
func (s Secret) LogValue() slog.Value {
	return slog.StringValue(s.String())
}

// IsSet reports whether a value has been loaded.
func (s Secret) IsSet() bool {
	return s.Value != ""
}

// SecretLoader resolves the value of a declared secret.
type SecretLoader interface {
	FetchSecret(ctx context.Context, secret Secret) (Secret, error)
}

// ErrSecretNotFound is returned when a loader has no value for a secret.
type ErrSecretNotFound struct {
	Name string
}

func (e ErrSecretNotFound) Error() string {
	return "secret not found: " + e.Name
}

// secretFields lists every Secret the configuration carries.
func (c *Config) secretFields() []*Secret {
	return []*Secret{
		&c.Postgres.URL,
		&c.MongoDB.URI,
	}
}

// LoadSecrets fills each declared secret through loader. With a nil loader the
// values already read from the environment must be present.
func (c *Config) LoadSecrets(ctx context.Context, loader SecretLoader) error {
	var missing []string
	for _, field := range c.secretFields() {
		if loader == nil {
			if !field.IsSet() {
				missing = append(missing, field.Name)
			}
			continue
		}

		loaded, err := loader.FetchSecret(ctx, *field)
		if err != nil {
			return fmt.Errorf("failed to load secret %s: %w", field.Name, err)
		}
		*field = loaded
	}

	if len(missing) > 0 {
		return fmt.Errorf("secrets not defined: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ViperSecretLoader reads secrets from a dedicated viper instance, typically backed by
// a mounted secrets file, falling back to upper-cased environment variables.
type ViperSecretLoader struct {
	v *viper.Viper
}

// NewViperSecretLoader builds a loader over path. An empty path uses the environment only.
func NewViperSecretLoader(path string) (*ViperSecretLoader, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read secrets file %s: %w", path, err)
		}
	}
	v.AutomaticEnv()

	return &ViperSecretLoader{v: v}, nil
}

// FetchSecret returns a copy of secret with its value populated. A versioned secret
// is looked up as NAME_V<version> first.
func (l *ViperSecretLoader) FetchSecret(_ context.Context, secret Secret) (Secret, error) {
	if secret.Name == "" {
		return secret, errors.New("secret name cannot be empty")
	}

	key := strings.ToUpper(secret.Name)
	if secret.Version > 0 {
		if value := l.v.GetString(fmt.Sprintf("%s_V%d", key, secret.Version)); value != "" {
			secret.Value = value
			return secret, nil
		}
	}

	value := l.v.GetString(key)
	if value == "" {
		if secret.IsSet() {
			return secret, nil
		}
		return secret, ErrSecretNotFound{Name: secret.Name}
	}

	secret.Value = value
	return secret, nil
}
