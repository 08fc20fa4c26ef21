package auth

import "sync"

// MockStore is an in-memory CredentialStore with error injection for tests
type MockStore struct {
	creds map[string]*Credential
	mu    sync.RWMutex

	StoreError    error
	RetrieveError error
	ListError     error
	DeleteError   error
}

// NewMockStore creates a new mock credential store
func NewMockStore() *MockStore {
	return &MockStore{creds: make(map[string]*Credential)}
}

// Store saves a copy of the credential
func (m *MockStore) Store(cred *Credential) error {
	if m.StoreError != nil {
		return m.StoreError
	}
	if cred == nil || cred.Endpoint == "" {
		return ErrInvalidCredentials
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c := *cred
	m.creds[cred.Endpoint] = &c
	return nil
}

// Retrieve returns a copy of the credential for endpoint
func (m *MockStore) Retrieve(endpoint string) (*Credential, error) {
	if m.RetrieveError != nil {
		return nil, m.RetrieveError
	}
	if endpoint == "" {
		return nil, ErrInvalidCredentials
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	cred, ok := m.creds[endpoint]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	c := *cred
	return &c, nil
}

// List returns copies of all credentials
func (m *MockStore) List() ([]*Credential, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Credential, 0, len(m.creds))
	for _, cred := range m.creds {
		c := *cred
		result = append(result, &c)
	}
	return result, nil
}

// Delete removes the credential for endpoint
func (m *MockStore) Delete(endpoint string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}
	if endpoint == "" {
		return ErrInvalidCredentials
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.creds[endpoint]; !ok {
		return ErrCredentialsNotFound
	}
	delete(m.creds, endpoint)
	return nil
}

// Exists checks if a credential exists for endpoint
func (m *MockStore) Exists(endpoint string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.creds[endpoint]
	return ok
}

// Count returns the number of stored credentials
func (m *MockStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.creds)
}

// NewMockManager creates a Manager over a single mock store
func NewMockManager() (*Manager, *MockStore) {
	store := NewMockStore()
	return NewManagerWithStores(store), store
}
