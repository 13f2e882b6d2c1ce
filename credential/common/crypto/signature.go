package crypto

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// SignatureLength is the length of an [R || S || V] signature.
const SignatureLength = 65

// ErrInvalidSignature is returned when a signature cannot be decoded or recovered.
var ErrInvalidSignature = errors.New("invalid signature")

// SignHash signs a 32-byte digest and returns a 65-byte [R || S || V] signature
// with V in {27, 28}.
func SignHash(hash []byte, privKey *ecdsa.PrivateKey) ([]byte, error) {
	if len(hash) != 32 {
		return nil, fmt.Errorf("hash must be 32 bytes, got %d", len(hash))
	}

	signature, err := crypto.Sign(hash, privKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign hash: %w", err)
	}
	if len(signature) != SignatureLength {
		return nil, fmt.Errorf("invalid signature length: expected %d bytes, got %d", SignatureLength, len(signature))
	}

	signature[64] += 27
	return signature, nil
}

// EncodeSignature renders a signature as 0x-prefixed hex.
func EncodeSignature(signature []byte) string {
	return hexutil.Encode(signature)
}

// DecodeSignature parses a 0x hex signature. V may be 0/1 or 27/28;
// the result always carries V in {0, 1} as go-ethereum expects.
func DecodeSignature(signatureHex string) ([]byte, error) {
	signatureHex = strings.TrimSpace(signatureHex)
	if !strings.HasPrefix(signatureHex, "0x") {
		signatureHex = "0x" + signatureHex
	}

	sig, err := hexutil.Decode(signatureHex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if len(sig) != SignatureLength {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidSignature, SignatureLength, len(sig))
	}

	switch sig[64] {
	case 0, 1:
	case 27, 28:
		sig[64] -= 27
	default:
		return nil, fmt.Errorf("%w: unexpected recovery id %d", ErrInvalidSignature, sig[64])
	}

	return sig, nil
}

// RecoverAddress recovers the checksummed signer address of a digest.
func RecoverAddress(hash []byte, signatureHex string) (string, error) {
	sig, err := DecodeSignature(signatureHex)
	if err != nil {
		return "", err
	}

	pub, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	return crypto.PubkeyToAddress(*pub).Hex(), nil
}
