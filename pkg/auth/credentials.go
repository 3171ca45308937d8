// Package auth verifies API credentials. Passwords are stored as peppered
// SHA-256 hashes; the pepper lives in the OS keychain.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// HashPrefix marks a stored credential hash.
	HashPrefix = "sha256:"

	// PepperEnvVar overrides the keychain pepper.
	PepperEnvVar = "RISKPULSE_AUTH_PEPPER"

	keyringService = "riskpulse"
	keyringUser    = "auth_pepper"
)

var (
	// ErrNoPepper is returned when neither the keychain nor the environment
	// hold a pepper.
	ErrNoPepper = errors.New("auth pepper not configured")
)

// Hash returns the stored form of a credential: "sha256:" followed by the hex
// SHA-256 of "user:password:pepper".
func Hash(user, password, pepper string) string {
	sum := sha256.Sum256([]byte(user + ":" + password + ":" + pepper))
	return HashPrefix + hex.EncodeToString(sum[:])
}

// Verifier checks username/password pairs against configured hashes.
type Verifier struct {
	users  map[string]string
	pepper string
}

// NewVerifier creates a verifier over users (username to stored hash).
func NewVerifier(users map[string]string, pepper string) *Verifier {
	return &Verifier{users: users, pepper: pepper}
}

// Verify reports whether password matches the stored hash of user. It fails
// closed when the user or the pepper is missing.
func (v *Verifier) Verify(user, password string) bool {
	stored, ok := v.users[user]
	if !ok || stored == "" || v.pepper == "" {
		return false
	}
	want := strings.TrimPrefix(stored, HashPrefix)
	got := strings.TrimPrefix(Hash(user, password, v.pepper), HashPrefix)
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// Enabled reports whether any users are configured.
func (v *Verifier) Enabled() bool {
	return len(v.users) > 0
}

// GetPepper returns the pepper from the environment or the OS keychain.
func GetPepper() (string, error) {
	if p := strings.TrimSpace(os.Getenv(PepperEnvVar)); p != "" {
		return p, nil
	}
	p, err := keyring.Get(keyringService, keyringUser)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNoPepper
		}
		return "", fmt.Errorf("reading pepper from keychain: %w", err)
	}
	if p == "" {
		return "", ErrNoPepper
	}
	return p, nil
}

// SavePepper stores pepper in the OS keychain.
func SavePepper(pepper string) error {
	if strings.TrimSpace(pepper) == "" {
		return errors.New("pepper cannot be empty")
	}
	if err := keyring.Set(keyringService, keyringUser, pepper); err != nil {
		slog.Warn("keychain unavailable", "error", err)
		return fmt.Errorf("saving pepper to keychain: %w", err)
	}
	return nil
}

// DeletePepper removes the pepper from the OS keychain.
func DeletePepper() error {
	if err := keyring.Delete(keyringService, keyringUser); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("deleting pepper from keychain: %w", err)
	}
	return nil
}
