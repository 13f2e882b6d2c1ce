package rwa

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/pilacorp/go-rwa-vc-sdk/credential/common/eip712"
	"github.com/pilacorp/go-rwa-vc-sdk/credential/common/jsonmap"
)

const (
	keyIdentity   = "0x0000000000000000000000000000000000000000000000000000000000000001"
	keyCompliance = "0x0000000000000000000000000000000000000000000000000000000000000002"
	keyCustody    = "0x0000000000000000000000000000000000000000000000000000000000000003"
	keyDocument   = "0x0000000000000000000000000000000000000000000000000000000000000004"
)

func proofTemplate() map[string]interface{} {
	return map[string]interface{}{"type": "x", "sectionHash": "", "proofValue": ""}
}

// scenarioDoc has identity and custody sections and no compliance section.
func scenarioDoc() jsonmap.JSONMap {
	return jsonmap.JSONMap{
		"@context": []interface{}{"https://www.w3.org/ns/credentials/v2"},
		"type":     []interface{}{"VerifiableCredential", "RWACredential"},
		"issuer":   "did:example:issuer",
		"credentialSubject": map[string]interface{}{
			"identity": map[string]interface{}{"a": float64(1), "sProof": proofTemplate()},
			"custody":  map[string]interface{}{"b": float64(2), "sProof": proofTemplate()},
		},
		"proof": proofTemplate(),
	}
}

func fullDoc(t *testing.T) jsonmap.JSONMap {
	t.Helper()
	doc, err := jsonmap.FromRaw([]byte(`{
		"@context": ["https://www.w3.org/ns/credentials/v2"],
		"type": ["VerifiableCredential", "RWACredential"],
		"issuer": "did:example:issuer",
		"credentialSubject": {
			"id": "did:example:asset-1",
			"identity": {"vin": "WVWZZZ1JZXW000001", "owner": "Alice", "sProof": {"type": "", "sectionHash": "", "proofValue": ""}},
			"compliance": {"kyc": true, "jurisdiction": "VN", "sProof": {"type": "", "sectionHash": "", "proofValue": ""}},
			"custody": {"holder": "Bank A", "since": "2025-01-01", "sProof": {"type": "", "sectionHash": "", "proofValue": ""}}
		},
		"proof": {"type": "", "proofValue": ""}
	}`))
	require.NoError(t, err)
	return doc
}

func testDomain() eip712.Domain {
	return eip712.Domain{Name: "T", Version: "1", ChainID: 1}
}

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := &Config{
		Domain: testDomain(),
		Keys: map[Role]string{
			RoleIdentity:   keyIdentity,
			RoleCompliance: keyCompliance,
			RoleCustody:    keyCustody,
			RoleDocument:   keyDocument,
		},
	}
	require.NoError(t, cfg.DeriveAddresses())
	return cfg
}

func expectedSigners(t *testing.T, cfg *Config) map[Role]string {
	t.Helper()
	expected, err := cfg.ExpectedSigners()
	require.NoError(t, err)
	return expected
}

func sectionProof(t *testing.T, doc jsonmap.JSONMap, s Section) map[string]interface{} {
	t.Helper()
	section, ok := doc.ResolveMap(s.Path())
	require.True(t, ok)
	proof, ok := section["sProof"].(map[string]interface{})
	require.True(t, ok)
	return proof
}

// fakeSigner signs by concatenating the key with the typed-message digest,
// so recovery still depends on the domain and the message.
type fakeSigner struct{}

func fakeAddress(key string) string {
	return common.BytesToAddress(crypto.Keccak256([]byte(key))).Hex()
}

func (fakeSigner) Sign(key string, msg *eip712.TypedMessage) (string, string, error) {
	if key == "" {
		return "", "", errors.New("no key")
	}
	hash, err := msg.Hash()
	if err != nil {
		return "", "", err
	}
	return key + "|" + hexutil.Encode(hash), fakeAddress(key), nil
}

// ctxSigner is a fakeSigner that records the contexts it is handed.
type ctxSigner struct {
	fakeSigner
	mu   sync.Mutex
	seen []context.Context
}

func (s *ctxSigner) SignContext(ctx context.Context, key string, msg *eip712.TypedMessage) (string, string, error) {
	s.mu.Lock()
	s.seen = append(s.seen, ctx)
	s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", "", err
	}
	return s.Sign(key, msg)
}

type fakeRecoverer struct{}

func (fakeRecoverer) Recover(msg *eip712.TypedMessage, signature string) (string, error) {
	key, digest, ok := strings.Cut(signature, "|")
	if !ok {
		return "", errors.New("malformed fake signature")
	}
	hash, err := msg.Hash()
	if err != nil {
		return "", err
	}
	if hexutil.Encode(hash) != digest {
		return fakeAddress("forged:" + key), nil
	}
	return fakeAddress(key), nil
}
