package auth

import (
	"os"
	"time"
)

// Environment variables read by EnvironmentStore. They match the names the
// config loader reads.
const (
	envClientID     = "BIRBBOT_CLIENT_ID"
	envClientSecret = "BIRBBOT_CLIENT_SECRET"
	envUsername     = "BIRBBOT_USERNAME"
	envPassword     = "BIRBBOT_PASSWORD"
	envUserAgent    = "BIRBBOT_USER_AGENT"
)

// EnvironmentStore is a read-only CredentialStore over BIRBBOT_* variables
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve returns the environment account. An empty username matches it,
// otherwise the username must equal BIRBBOT_USERNAME.
func (e *EnvironmentStore) Retrieve(username string) (*Account, error) {
	account := &Account{
		Username:     os.Getenv(envUsername),
		Password:     os.Getenv(envPassword),
		ClientID:     os.Getenv(envClientID),
		ClientSecret: os.Getenv(envClientSecret),
		UserAgent:    os.Getenv(envUserAgent),
		LastModified: time.Now(),
	}
	if account.Validate() != nil {
		return nil, ErrCredentialsNotFound
	}
	if username != "" && username != account.Username {
		return nil, ErrCredentialsNotFound
	}
	return account, nil
}

// List returns the environment account if one is fully configured
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(username string) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Exists(username string) bool {
	_, err := e.Retrieve(username)
	return err == nil
}
