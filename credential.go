// Package credential issues and verifies RWA credentials whose sections and
// whole document carry independent, domain-bound EIP-712 proofs.
//
// The heavy lifting lives in credential/rwa; this package wires it to a
// key store and raw JSON input for callers that do not need finer control.
package credential

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pilacorp/go-rwa-vc-sdk/credential/common/eip712"
	"github.com/pilacorp/go-rwa-vc-sdk/credential/common/jsonmap"
	"github.com/pilacorp/go-rwa-vc-sdk/credential/rwa"
)

// ErrKeyNotFound is returned when a role has no key in the store.
var ErrKeyNotFound = errors.New("key not found")

// KeyStore holds the signing key of each role. It is safe for concurrent
// use; issuance only reads from it.
type KeyStore struct {
	domain eip712.Domain
	keys   map[rwa.Role]string
	mu     sync.RWMutex
}

// NewKeyStore initializes a KeyStore signing under domain.
func NewKeyStore(domain eip712.Domain) *KeyStore {
	return &KeyStore{
		domain: domain,
		keys:   make(map[rwa.Role]string),
	}
}

// NewKeyStoreFromConfig initializes a KeyStore from a parsed keys configuration.
func NewKeyStoreFromConfig(cfg *rwa.Config) *KeyStore {
	s := NewKeyStore(cfg.Domain)
	for role, key := range cfg.Keys {
		s.keys[role] = key
	}
	return s
}

// AddKey sets the key of role.
func (s *KeyStore) AddKey(role rwa.Role, key string) error {
	if role == "" || key == "" {
		return errors.New("role and key cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.keys[role] = key
	return nil
}

// GetKey retrieves the key of role.
func (s *KeyStore) GetKey(role rwa.Role) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key, exists := s.keys[role]
	if !exists {
		return "", fmt.Errorf("%w: %s", ErrKeyNotFound, role)
	}
	return key, nil
}

// DeleteKey removes the key of role.
func (s *KeyStore) DeleteKey(role rwa.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.keys[role]; !exists {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, role)
	}
	delete(s.keys, role)
	return nil
}

// Config returns a snapshot of the store as an issuing configuration.
func (s *KeyStore) Config() *rwa.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make(map[rwa.Role]string, len(s.keys))
	for role, key := range s.keys {
		keys[role] = key
	}
	return &rwa.Config{Domain: s.domain, Keys: keys}
}

// Issue signs a raw JSON credential with the keys in the store and returns
// the issued credential as JSON.
func (s *KeyStore) Issue(rawCredential []byte, opts ...rwa.Opt) ([]byte, []rwa.ProofRecord, error) {
	doc, err := jsonmap.FromRaw(rawCredential)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", rwa.ErrInvalidDocument, err)
	}

	issued, records, err := rwa.NewIssuer(opts...).Issue(doc, s.Config())
	if err != nil {
		return nil, nil, err
	}

	out, err := issued.ToJSON()
	if err != nil {
		return nil, nil, err
	}

	return out, records, nil
}

// Verify checks a raw JSON credential. Proofs without an embedded domain
// are checked under the domain of cfg.
func Verify(rawCredential []byte, cfg *rwa.Config, opts ...rwa.Opt) ([]rwa.Result, error) {
	doc, err := jsonmap.FromRaw(rawCredential)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", rwa.ErrInvalidDocument, err)
	}

	domain := rwa.DefaultDomain()
	var expected map[rwa.Role]string
	if cfg != nil {
		domain = cfg.Domain.WithDefaults(domain)
		if expected, err = cfg.ExpectedSigners(); err != nil {
			return nil, err
		}
	}

	opts = append([]rwa.Opt{rwa.WithDefaultDomain(domain)}, opts...)
	return rwa.NewVerifier(opts...).Verify(doc, expected)
}
