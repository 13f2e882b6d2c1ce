package credentialstatus

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"fmt"
	"io"
)

// EncodeList gzips a bitstring and encodes it as unpadded base64url.
func EncodeList(bits []byte) (string, error) {
	var buf bytes.Buffer

	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(bits); err != nil {
		return "", fmt.Errorf("failed to compress status list: %w", err)
	}
	if err := gz.Close(); err != nil {
		return "", fmt.Errorf("failed to compress status list: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeList reverses EncodeList.
func DecodeList(encoded string) ([]byte, error) {
	compressed, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode status list: %w", err)
	}

	gz, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("failed to decompress status list: %w", err)
	}
	defer gz.Close()

	bits, err := io.ReadAll(gz)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress status list: %w", err)
	}

	return bits, nil
}

// BitAt reports the bit at position, least significant bit first within a byte.
func BitAt(bits []byte, position int) (bool, error) {
	if position < 0 || position/8 >= len(bits) {
		return false, fmt.Errorf("%w: %d", ErrIndexOutOfRange, position)
	}

	return (bits[position/8]>>(position%8))&1 == 1, nil
}

// SetBit sets the bit at position, growing the list when needed.
func SetBit(bits []byte, position int) []byte {
	if position < 0 {
		return bits
	}
	for len(bits) <= position/8 {
		bits = append(bits, 0)
	}
	bits[position/8] |= 1 << (position % 8)

	return bits
}
