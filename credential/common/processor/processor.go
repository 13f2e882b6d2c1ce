// Package processor turns credential values into the canonical bytes that
// every hash in the SDK is computed over.
//
// Canonical form follows RFC 8785 (JCS): object keys sorted at every depth
// by UTF-16 code units, no insignificant whitespace and strings as raw UTF-8
// with only the escapes JSON requires. Two values that are equal up to key
// order always canonicalize to the same bytes.
//
// Numbers deviate from JCS in one place: an integer literal (no fraction or
// exponent) is written with its exact decimal digits instead of being passed
// through an IEEE-754 double. Token amounts beyond 2^53 therefore hash by
// their true value. Every other number uses the JCS ES6 form.
package processor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/gowebpki/jcs"

	"github.com/pilacorp/go-rwa-vc-sdk/credential/common/crypto"
	"github.com/pilacorp/go-rwa-vc-sdk/credential/common/jsonmap"
)

// CanonicalizeDocument returns the canonical serialization of any JSON-compatible value.
// Decode documents with json.Decoder.UseNumber (as jsonmap.FromRaw does) to
// keep large integers exact.
func CanonicalizeDocument(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return nil, fmt.Errorf("failed to canonicalize document: %w", err)
	}

	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v interface{}) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case string:
		return writeString(buf, val)
	case json.Number:
		return writeNumber(buf, val.String())
	case float64:
		s, err := jcs.NumberToJSON(val)
		if err != nil {
			return err
		}
		buf.WriteString(s)
	case map[string]interface{}:
		return writeObject(buf, val)
	case jsonmap.JSONMap:
		return writeObject(buf, val)
	case []interface{}:
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		generic, err := normalize(val)
		if err != nil {
			return err
		}
		return writeCanonical(buf, generic)
	}

	return nil
}

// normalize turns any encodable Go value into the generic JSON tree, with
// numbers kept as json.Number.
func normalize(v interface{}) (interface{}, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}

	dec := json.NewDecoder(&buf)
	dec.UseNumber()
	var out interface{}
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}

	return out, nil
}

func writeObject(buf *bytes.Buffer, obj map[string]interface{}) error {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return lessUTF16(keys[i], keys[j]) })

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(buf, k); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := writeCanonical(buf, obj[k]); err != nil {
			return err
		}
	}
	buf.WriteByte('}')

	return nil
}

func lessUTF16(a, b string) bool {
	ua := utf16.Encode([]rune(a))
	ub := utf16.Encode([]rune(b))
	for i := 0; i < len(ua) && i < len(ub); i++ {
		if ua[i] != ub[i] {
			return ua[i] < ub[i]
		}
	}
	return len(ua) < len(ub)
}

// writeString emits s with the JCS string escaping.
func writeString(buf *bytes.Buffer, s string) error {
	var raw bytes.Buffer
	enc := json.NewEncoder(&raw)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}

	out, err := jcs.Transform(bytes.TrimRight(raw.Bytes(), "\n"))
	if err != nil {
		return err
	}
	buf.Write(out)

	return nil
}

func writeNumber(buf *bytes.Buffer, lit string) error {
	if !strings.ContainsAny(lit, ".eE") {
		n, ok := new(big.Int).SetString(lit, 10)
		if !ok {
			return fmt.Errorf("invalid number %q", lit)
		}
		// big.Int prints -0 as 0 and drops leading zeros.
		buf.WriteString(n.String())
		return nil
	}

	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return fmt.Errorf("invalid number %q: %w", lit, err)
	}
	s, err := jcs.NumberToJSON(f)
	if err != nil {
		return err
	}
	buf.WriteString(s)

	return nil
}

// ComputeDigest returns the Keccak-256 digest of data as 0x-prefixed hex.
func ComputeDigest(data []byte) string {
	return crypto.Keccak256Hex(data)
}

// HashDocument canonicalizes v and returns its digest.
func HashDocument(v interface{}) (string, error) {
	canonical, err := CanonicalizeDocument(v)
	if err != nil {
		return "", err
	}

	return ComputeDigest(canonical), nil
}
