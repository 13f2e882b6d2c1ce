package crypto

import (
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// DigestHexLength is the length of a rendered Keccak-256 digest, prefix included.
const DigestHexLength = 2 + 2*32

var (
	// ErrInvalidKey is returned when a private key cannot be parsed.
	ErrInvalidKey = errors.New("invalid private key")
	// ErrInvalidSigner is returned when a signer id is neither an address nor a public key.
	ErrInvalidSigner = errors.New("invalid signer identity")
)

// Keccak256Hex hashes data with Keccak-256 and renders it as 0x-prefixed hex.
func Keccak256Hex(data []byte) string {
	return hexutil.Encode(crypto.Keccak256(data))
}

// KeyToBytes converts a hex string, with or without the 0x prefix, to bytes.
func KeyToBytes(key string) ([]byte, error) {
	key = strings.TrimPrefix(strings.TrimSpace(key), "0x")
	if key == "" {
		return nil, errors.New("key is empty")
	}

	return hex.DecodeString(key)
}

// ParsePrivateKey parses a secp256k1 private key given as hex.
// The length of the private key is 32 bytes.
func ParsePrivateKey(keyHex string) (*ecdsa.PrivateKey, error) {
	keyBytes, err := KeyToBytes(keyHex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(keyBytes) != 32 {
		return nil, fmt.Errorf("%w: private key must be 32 bytes, got %d", ErrInvalidKey, len(keyBytes))
	}

	privKey, err := crypto.ToECDSA(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	return privKey, nil
}

// AddressFromPrivateKey derives the checksummed address of a hex private key.
func AddressFromPrivateKey(keyHex string) (string, error) {
	privKey, err := ParsePrivateKey(keyHex)
	if err != nil {
		return "", err
	}

	return crypto.PubkeyToAddress(privKey.PublicKey).Hex(), nil
}

// GenerateKey creates a fresh secp256k1 key and returns it as 0x hex with its address.
func GenerateKey() (string, string, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return "", "", fmt.Errorf("failed to generate key: %w", err)
	}

	keyHex := hexutil.Encode(priv.Serialize())
	address, err := AddressFromPrivateKey(keyHex)
	if err != nil {
		return "", "", err
	}

	return keyHex, address, nil
}

// NormalizeSigner turns a signer identity into a checksummed address.
// Addresses are accepted as is; compressed (33 bytes) and uncompressed
// (65 bytes) secp256k1 public keys are converted to their address.
func NormalizeSigner(id string) (string, error) {
	id = strings.TrimSpace(id)
	if common.IsHexAddress(id) {
		return common.HexToAddress(id).Hex(), nil
	}

	pubBytes, err := KeyToBytes(id)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidSigner, id)
	}
	if len(pubBytes) != 33 && len(pubBytes) != 65 {
		return "", fmt.Errorf("%w: unexpected length %d", ErrInvalidSigner, len(pubBytes))
	}

	pub, err := secp256k1.ParsePubKey(pubBytes)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSigner, err)
	}

	ecdsaPub, err := crypto.UnmarshalPubkey(pub.SerializeUncompressed())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSigner, err)
	}

	return crypto.PubkeyToAddress(*ecdsaPub).Hex(), nil
}

// SameSigner compares two signer identities. Either side may be a public key.
func SameSigner(a, b string) bool {
	na, err := NormalizeSigner(a)
	if err != nil {
		return false
	}
	nb, err := NormalizeSigner(b)
	if err != nil {
		return false
	}

	return strings.EqualFold(na, nb)
}
