package auth

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "libsql-sync"
	keyringPrefix  = "endpoint:"
	// keyringIndex holds the JSON list of stored endpoints
	keyringIndex = "index"
)

// KeyringStore implements CredentialStore using the system keychain
type KeyringStore struct{}

// NewKeyringStore creates a keyring-backed store after checking the keychain answers
func NewKeyringStore() (*KeyringStore, error) {
	testKey := "test_availability"
	if err := keyring.Set(keyringService, testKey, "test"); err != nil {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}
	_ = keyring.Delete(keyringService, testKey)

	return &KeyringStore{}, nil
}

// Store saves the credential to the system keychain
func (k *KeyringStore) Store(cred *Credential) error {
	if cred == nil || cred.Endpoint == "" {
		return ErrInvalidCredentials
	}

	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}

	if err := keyring.Set(keyringService, keyringPrefix+cred.Endpoint, string(data)); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}
	return k.updateIndex(cred.Endpoint, true)
}

// Retrieve gets the credential from the system keychain
func (k *KeyringStore) Retrieve(endpoint string) (*Credential, error) {
	if endpoint == "" {
		return nil, ErrInvalidCredentials
	}

	data, err := keyring.Get(keyringService, keyringPrefix+endpoint)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrCredentialsNotFound
		}
		return nil, fmt.Errorf("failed to retrieve from keyring: %w", err)
	}

	var cred Credential
	if err := json.Unmarshal([]byte(data), &cred); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credential: %w", err)
	}
	return &cred, nil
}

// List returns the credentials recorded in the endpoint index. go-keyring
// cannot enumerate entries itself.
func (k *KeyringStore) List() ([]*Credential, error) {
	endpoints, err := k.readIndex()
	if err != nil {
		return nil, err
	}

	creds := make([]*Credential, 0, len(endpoints))
	for _, endpoint := range endpoints {
		cred, err := k.Retrieve(endpoint)
		if err != nil {
			continue
		}
		creds = append(creds, cred)
	}
	return creds, nil
}

// Delete removes the credential from the system keychain
func (k *KeyringStore) Delete(endpoint string) error {
	if endpoint == "" {
		return ErrInvalidCredentials
	}

	err := keyring.Delete(keyringService, keyringPrefix+endpoint)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrCredentialsNotFound
		}
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return k.updateIndex(endpoint, false)
}

// Exists checks if a credential exists in the keychain
func (k *KeyringStore) Exists(endpoint string) bool {
	if endpoint == "" {
		return false
	}
	_, err := keyring.Get(keyringService, keyringPrefix+endpoint)
	return err == nil
}

func (k *KeyringStore) readIndex() ([]string, error) {
	data, err := keyring.Get(keyringService, keyringIndex)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read keyring index: %w", err)
	}

	var endpoints []string
	if err := json.Unmarshal([]byte(data), &endpoints); err != nil {
		return nil, fmt.Errorf("failed to parse keyring index: %w", err)
	}
	return endpoints, nil
}

func (k *KeyringStore) updateIndex(endpoint string, present bool) error {
	endpoints, err := k.readIndex()
	if err != nil {
		return err
	}

	kept := endpoints[:0]
	for _, e := range endpoints {
		if e != endpoint {
			kept = append(kept, e)
		}
	}
	if present {
		kept = append(kept, endpoint)
	}

	if len(kept) == 0 {
		if err := keyring.Delete(keyringService, keyringIndex); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("failed to clear keyring index: %w", err)
		}
		return nil
	}

	data, err := json.Marshal(kept)
	if err != nil {
		return fmt.Errorf("failed to marshal keyring index: %w", err)
	}
	if err := keyring.Set(keyringService, keyringIndex, string(data)); err != nil {
		return fmt.Errorf("failed to write keyring index: %w", err)
	}
	return nil
}
