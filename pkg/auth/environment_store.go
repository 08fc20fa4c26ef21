package auth

import (
	"os"
	"time"
)

const (
	envAuthToken = "LIBSQL_AUTH_TOKEN"
	envSyncURL   = "LIBSQL_SYNC_URL"
)

// EnvironmentStore implements CredentialStore over LIBSQL_AUTH_TOKEN. The
// token is bound to LIBSQL_SYNC_URL when that is set and to any endpoint
// otherwise. It is read-only.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(cred *Credential) error {
	return ErrStoreUnavailable
}

// Retrieve returns the environment token if it applies to endpoint
func (e *EnvironmentStore) Retrieve(endpoint string) (*Credential, error) {
	token := os.Getenv(envAuthToken)
	if token == "" {
		return nil, ErrCredentialsNotFound
	}

	bound := NormalizeEndpoint(os.Getenv(envSyncURL))
	endpoint = NormalizeEndpoint(endpoint)
	switch {
	case bound != "" && endpoint != "" && bound != endpoint:
		return nil, ErrCredentialsNotFound
	case endpoint == "":
		endpoint = bound
	}

	return &Credential{
		Endpoint:     endpoint,
		AuthToken:    token,
		LastModified: time.Now(),
	}, nil
}

// List returns the environment credential if one is set
func (e *EnvironmentStore) List() ([]*Credential, error) {
	cred, err := e.Retrieve("")
	if err != nil {
		return []*Credential{}, nil
	}
	if cred.Endpoint == "" {
		cred.Endpoint = "(environment)"
	}
	return []*Credential{cred}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(endpoint string) error {
	return ErrStoreUnavailable
}

// Exists checks if the environment token applies to endpoint
func (e *EnvironmentStore) Exists(endpoint string) bool {
	_, err := e.Retrieve(endpoint)
	return err == nil
}
