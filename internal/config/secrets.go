package config

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"toiler/internal/models"
)

// ResolveSecrets fills the Redis password from the OS keyring when neither the
// file nor the environment set it. A missing entry is not an error.
func (c *Config) ResolveSecrets() error {
	if c.Notifier.Redis.Password != "" || !c.UsesRedis() {
		return nil
	}
	password, err := RedisPassword()
	if err != nil {
		return err
	}
	c.Notifier.Redis.Password = password
	return nil
}

// RedisPassword reads the stored password; it returns "" when none is stored
func RedisPassword() (string, error) {
	password, err := keyring.Get(models.KeyringServiceName, models.KeyringRedisPasswordKey)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read redis password from keyring: %w", err)
	}
	return password, nil
}

// SetRedisPassword stores the password, or deletes it when empty
func SetRedisPassword(password string) error {
	if password == "" {
		err := keyring.Delete(models.KeyringServiceName, models.KeyringRedisPasswordKey)
		if err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("delete redis password: %w", err)
		}
		return nil
	}
	if err := keyring.Set(models.KeyringServiceName, models.KeyringRedisPasswordKey, password); err != nil {
		return fmt.Errorf("store redis password: %w", err)
	}
	return nil
}
