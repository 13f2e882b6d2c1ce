// Package signer is the signing capability boundary of the SDK.
//
// Issuance only needs something that turns a typed message and a key
// reference into a signature and the identity of whoever signed; verification
// only needs the inverse. Any elliptic-curve scheme with domain-separated,
// schema-bound signatures can implement these interfaces. The defaults here
// sign EIP-712 digests with secp256k1 keys held in memory.
package signer

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"

	rwacrypto "github.com/pilacorp/go-rwa-vc-sdk/credential/common/crypto"
	"github.com/pilacorp/go-rwa-vc-sdk/credential/common/eip712"
)

// Signer signs a typed message with the key identified by key.
// It returns the hex signature and the signer identity (an address).
type Signer interface {
	Sign(key string, msg *eip712.TypedMessage) (signature string, signerID string, err error)
}

// ContextSigner is a Signer whose signing call can be cancelled. Issuers
// prefer SignContext when the configured signer provides it.
type ContextSigner interface {
	Signer
	SignContext(ctx context.Context, key string, msg *eip712.TypedMessage) (signature string, signerID string, err error)
}

// SignWithContext signs through SignContext when s supports it. Otherwise it
// checks ctx once and falls back to Sign.
func SignWithContext(ctx context.Context, s Signer, key string, msg *eip712.TypedMessage) (string, string, error) {
	if cs, ok := s.(ContextSigner); ok {
		return cs.SignContext(ctx, key, msg)
	}
	if err := ctx.Err(); err != nil {
		return "", "", err
	}
	return s.Sign(key, msg)
}

// Recoverer returns the identity that produced signature over msg.
type Recoverer interface {
	Recover(msg *eip712.TypedMessage, signature string) (string, error)
}

// DefaultSigner signs with hex secp256k1 private keys passed by the caller.
// It holds no state and is safe for concurrent use.
type DefaultSigner struct{}

// NewDefaultSigner creates a signer for local private keys.
func NewDefaultSigner() *DefaultSigner {
	return &DefaultSigner{}
}

// Sign signs the EIP-712 digest of msg.
func (s *DefaultSigner) Sign(key string, msg *eip712.TypedMessage) (string, string, error) {
	privKey, err := rwacrypto.ParsePrivateKey(key)
	if err != nil {
		return "", "", err
	}

	hash, err := msg.Hash()
	if err != nil {
		return "", "", err
	}

	signature, err := rwacrypto.SignHash(hash, privKey)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign payload: %w", err)
	}

	return rwacrypto.EncodeSignature(signature), crypto.PubkeyToAddress(privKey.PublicKey).Hex(), nil
}

// DefaultRecoverer recovers signer addresses from EIP-712 signatures.
type DefaultRecoverer struct{}

// NewDefaultRecoverer creates the default recoverer.
func NewDefaultRecoverer() *DefaultRecoverer {
	return &DefaultRecoverer{}
}

// Recover returns the checksummed address that signed msg.
func (r *DefaultRecoverer) Recover(msg *eip712.TypedMessage, signature string) (string, error) {
	hash, err := msg.Hash()
	if err != nil {
		return "", err
	}

	return rwacrypto.RecoverAddress(hash, signature)
}
