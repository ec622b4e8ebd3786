package opfield

import (
	"errors"

	"github.com/zalando/go-keyring"
)

// Keyring entry holding the service account token.
const (
	KeyringService = "opfield"
	KeyringAccount = SettingServiceAccountToken
)

// Keyring is a token store consulted after settings and the environment.
type Keyring interface {
	// Token returns the stored token, or "" when none is stored.
	Token() (string, error)
}

// SystemKeyring stores the token in the OS keyring (macOS Keychain,
// Secret Service on Linux, Windows Credential Manager).
type SystemKeyring struct {
	Service string
	Account string
}

// NewSystemKeyring uses the default service and account names.
func NewSystemKeyring() *SystemKeyring {
	return &SystemKeyring{Service: KeyringService, Account: KeyringAccount}
}

func (k *SystemKeyring) Token() (string, error) {
	token, err := keyring.Get(k.Service, k.Account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	return token, err
}

// SetToken stores token, replacing any previous value.
func (k *SystemKeyring) SetToken(token string) error {
	return keyring.Set(k.Service, k.Account, token)
}

// DeleteToken removes the stored token. A missing entry is not an error.
func (k *SystemKeyring) DeleteToken() error {
	err := keyring.Delete(k.Service, k.Account)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}
