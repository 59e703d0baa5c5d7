package auth

import (
	"os"
	"time"
)

// EnvironmentStore implements TokenStore using environment variables.
// This is primarily for CI and one-off runs.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based token store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve gets the credential from environment variables
func (e *EnvironmentStore) Retrieve(username string) (*Account, error) {
	accessToken := os.Getenv("IGPUBLISHER_ACCESS_TOKEN")
	accountID := os.Getenv("IGPUBLISHER_ACCOUNT_ID")

	if accessToken == "" {
		return nil, ErrAccountNotFound
	}

	// Environment variables don't store a username, so we use "default"
	// or the provided one
	if username == "" {
		username = "default"
	}

	return &Account{
		Username:     username,
		AccessToken:  accessToken,
		AccountID:    accountID,
		LastModified: time.Now(),
	}, nil
}

// List returns a single account if environment variables are set
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

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(username string) bool {
	return os.Getenv("IGPUBLISHER_ACCESS_TOKEN") != ""
}
