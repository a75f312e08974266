// Package secret resolves API credentials from the OS keyring with
// an environment variable fallback.
package secret

import (
	"fmt"
	"os"

	"github.com/zalando/go-keyring"
)

const ServiceName = "taskpilot"

type ErrSecretNotFound struct {
	Key string
	Err error
}

func (e *ErrSecretNotFound) Error() string {
	return fmt.Sprintf("secret %q not found: %s", e.Key, e.Err)
}

func (e *ErrSecretNotFound) Is(target error) bool {
	_, ok := target.(*ErrSecretNotFound)
	return ok
}

func (e *ErrSecretNotFound) Unwrap() error {
	return e.Err
}

type Provider interface {
	Get(key string) (string, error)
	Set(key string, value string) error
	Delete(key string) error
}

// KeyringProvider stores secrets in the operating system keyring.
type KeyringProvider struct {
	service string
}

func NewKeyringProvider() *KeyringProvider {
	return &KeyringProvider{service: ServiceName}
}

func (k *KeyringProvider) Get(key string) (string, error) {
	secret, err := keyring.Get(k.service, key)
	if err != nil {
		return "", toError(key, err)
	}
	return secret, nil
}

func (k *KeyringProvider) Set(key string, value string) error {
	if err := keyring.Set(k.service, key, value); err != nil {
		return toError(key, err)
	}
	return nil
}

func (k *KeyringProvider) Delete(key string) error {
	if err := keyring.Delete(k.service, key); err != nil {
		return toError(key, err)
	}
	return nil
}

func toError(key string, err error) error {
	if err == keyring.ErrNotFound {
		return &ErrSecretNotFound{Key: key, Err: err}
	}
	return err
}

var _ Provider = (*KeyringProvider)(nil)

// EnvProvider reads secrets from environment variables. Set and
// Delete affect only this process.
type EnvProvider struct{}

func NewEnvProvider() *EnvProvider {
	return &EnvProvider{}
}

func (e *EnvProvider) Get(key string) (string, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return "", &ErrSecretNotFound{Key: key, Err: fmt.Errorf("environment variable not set")}
	}
	return value, nil
}

func (e *EnvProvider) Set(key string, value string) error {
	return os.Setenv(key, value)
}

func (e *EnvProvider) Delete(key string) error {
	return os.Unsetenv(key)
}

var _ Provider = (*EnvProvider)(nil)

// Chain tries providers in order and returns the first hit.
type Chain struct {
	providers []Provider
}

func NewChain(providers ...Provider) *Chain {
	return &Chain{providers: providers}
}

func (c *Chain) Get(key string) (string, error) {
	var lastErr error
	for _, p := range c.providers {
		value, err := p.Get(key)
		if err == nil {
			return value, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = &ErrSecretNotFound{Key: key, Err: fmt.Errorf("no providers configured")}
	}
	return "", lastErr
}

func (c *Chain) Set(key string, value string) error {
	if len(c.providers) == 0 {
		return fmt.Errorf("no providers configured")
	}
	return c.providers[0].Set(key, value)
}

func (c *Chain) Delete(key string) error {
	if len(c.providers) == 0 {
		return fmt.Errorf("no providers configured")
	}
	return c.providers[0].Delete(key)
}

var _ Provider = (*Chain)(nil)
