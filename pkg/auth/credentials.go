package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"
)

// Credential is the bearer token used to authenticate against one sync endpoint
type Credential struct {
	Endpoint     string    `json:"endpoint"`
	AuthToken    string    `json:"auth_token"`
	LastModified time.Time `json:"last_modified"`
}

// CredentialStore is the interface for storing and retrieving credentials
type CredentialStore interface {
	// Store saves the credential for its endpoint
	Store(cred *Credential) error

	// Retrieve gets the credential for an endpoint
	Retrieve(endpoint string) (*Credential, error)

	// List returns all stored credentials
	List() ([]*Credential, error)

	// Delete removes the credential for an endpoint
	Delete(endpoint string) error

	// Exists checks if a credential exists for an endpoint
	Exists(endpoint string) bool
}

// Manager handles credential storage with fallback mechanisms
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a credential manager backed by the system keychain when
// available, an encrypted file, and finally the environment
func NewManager() (*Manager, error) {
	var stores []CredentialStore

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a Manager trying the given stores in order
func NewManagerWithStores(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves the credential in the first store that accepts it
func (m *Manager) Store(cred *Credential) error {
	if cred == nil || cred.Endpoint == "" {
		return errors.New("endpoint is required")
	}
	if cred.AuthToken == "" {
		return errors.New("auth token is required")
	}

	cred.Endpoint = NormalizeEndpoint(cred.Endpoint)
	cred.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		err := store.Store(cred)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return ErrStoreUnavailable
}

// Retrieve gets the credential from the first store that has it
func (m *Manager) Retrieve(endpoint string) (*Credential, error) {
	endpoint = NormalizeEndpoint(endpoint)
	for _, store := range m.stores {
		if cred, err := store.Retrieve(endpoint); err == nil && cred != nil {
			return cred, nil
		}
	}
	return nil, fmt.Errorf("%w for endpoint: %s", ErrCredentialsNotFound, endpoint)
}

// Token returns the auth token for endpoint, or "" when none is stored.
// Store failures other than a missing credential are reported.
func (m *Manager) Token(endpoint string) (string, error) {
	endpoint = NormalizeEndpoint(endpoint)
	var lastErr error
	for _, store := range m.stores {
		cred, err := store.Retrieve(endpoint)
		if err == nil && cred != nil {
			return cred.AuthToken, nil
		}
		if err != nil && !errors.Is(err, ErrCredentialsNotFound) {
			lastErr = err
		}
	}
	if lastErr != nil {
		return "", fmt.Errorf("failed to look up credentials: %w", lastErr)
	}
	return "", nil
}

// List returns credentials from all stores, one per endpoint, sorted by endpoint
func (m *Manager) List() ([]*Credential, error) {
	byEndpoint := make(map[string]*Credential)

	for _, store := range m.stores {
		creds, err := store.List()
		if err != nil {
			continue
		}
		for _, cred := range creds {
			// Most recently modified wins
			if existing, ok := byEndpoint[cred.Endpoint]; !ok || cred.LastModified.After(existing.LastModified) {
				byEndpoint[cred.Endpoint] = cred
			}
		}
	}

	result := make([]*Credential, 0, len(byEndpoint))
	for _, cred := range byEndpoint {
		result = append(result, cred)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Endpoint < result[j].Endpoint })

	return result, nil
}

// Delete removes the credential from every store holding it
func (m *Manager) Delete(endpoint string) error {
	endpoint = NormalizeEndpoint(endpoint)
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(endpoint); err == nil {
			deleted = true
		} else if !errors.Is(err, ErrCredentialsNotFound) && !errors.Is(err, ErrStoreUnavailable) {
			lastErr = err
		}
	}

	if !deleted && lastErr != nil {
		return fmt.Errorf("failed to delete credentials: %w", lastErr)
	}
	if !deleted {
		return fmt.Errorf("%w for endpoint: %s", ErrCredentialsNotFound, endpoint)
	}

	return nil
}

// NormalizeEndpoint trims whitespace and trailing slashes so the same
// endpoint always maps to the same key
func NormalizeEndpoint(endpoint string) string {
	return strings.TrimRight(strings.TrimSpace(endpoint), "/")
}

// getConfigDir returns the configuration directory path
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "libsql-sync")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "libsql-sync")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "libsql-sync")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "libsql-sync")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// SanitizeCredential returns a copy with the token masked for display
func SanitizeCredential(cred *Credential) *Credential {
	if cred == nil {
		return nil
	}

	return &Credential{
		Endpoint:     cred.Endpoint,
		AuthToken:    maskString(cred.AuthToken),
		LastModified: cred.LastModified,
	}
}

// maskString masks all but the first 4 and last 4 characters of a string
func maskString(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
