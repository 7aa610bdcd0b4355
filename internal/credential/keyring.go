package credential

import (
	"errors"
	"fmt"
	"time"

	"github.com/99designs/keyring"
)

const serviceName = "greenspace"

// TokenKey is the keyring key holding the API bearer token.
const TokenKey = "api-token"

// ErrNoToken is returned by Token when login has not been run.
var ErrNoToken = errors.New("no API token stored, run login first")

// Vault keeps the API bearer token in a keyring.
type Vault struct {
	ring keyring.Keyring
}

// NewVault wraps an already opened keyring.
func NewVault(ring keyring.Keyring) *Vault {
	return &Vault{ring: ring}
}

// OpenVault opens the system keyring, falling back to an encrypted file
// under ~/.config/greenspace when no OS keychain is available.
func OpenVault() (*Vault, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/greenspace/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("greenspace-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return NewVault(ring), nil
}

// Token returns the stored bearer token.
func (v *Vault) Token() (string, error) {
	item, err := v.ring.Get(TokenKey)
	switch {
	case errors.Is(err, keyring.ErrKeyNotFound):
		return "", ErrNoToken
	case err != nil:
		return "", fmt.Errorf("reading token: %w", err)
	}
	return string(item.Data), nil
}

// SaveToken stores token after checking it is a readable, unexpired JWT.
func (v *Vault) SaveToken(token string, now time.Time) (Session, error) {
	s, err := Check(token, now)
	if err != nil {
		return Session{}, err
	}
	err = v.ring.Set(keyring.Item{
		Key:         TokenKey,
		Data:        []byte(token),
		Label:       "GreenSpace API token",
		Description: "bearer token for " + s.UserID,
	})
	if err != nil {
		return Session{}, fmt.Errorf("storing token: %w", err)
	}
	return s, nil
}

// Forget removes the stored token. Removing a missing token is not an
// error.
func (v *Vault) Forget() error {
	err := v.ring.Remove(TokenKey)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("removing token: %w", err)
	}
	return nil
}

// Token reads the bearer token from the system keyring.
func Token() (string, error) {
	v, err := OpenVault()
	if err != nil {
		return "", err
	}
	return v.Token()
}

// SaveToken validates token and stores it in the system keyring.
func SaveToken(token string, now time.Time) (Session, error) {
	v, err := OpenVault()
	if err != nil {
		return Session{}, err
	}
	return v.SaveToken(token, now)
}

// Forget removes the bearer token from the system keyring.
func Forget() error {
	v, err := OpenVault()
	if err != nil {
		return err
	}
	return v.Forget()
}
