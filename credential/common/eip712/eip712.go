// Package eip712 builds the two domain-bound typed messages that RWA
// credential proofs sign: a Section message {path, sectionHash} and a
// Document message {documentHash}.
//
// Both messages declare their schema and the signing domain, so a signature
// produced for one message type, or for one domain, never verifies as
// another. New signable shapes must be added as new primary types rather
// than by overloading these two.
package eip712

import (
	"encoding/json"
	"errors"
	"fmt"
	gomath "math"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Default domain values.
const (
	DefaultName              = "RWA-VC"
	DefaultVersion           = "1"
	DefaultChainID           = int64(1)
	DefaultVerifyingContract = "0x0000000000000000000000000000000000000000"
)

// Primary types.
const (
	SectionType  = "Section"
	DocumentType = "Document"
	domainType   = "EIP712Domain"
)

// Domain scopes every signature to one application and network.
type Domain struct {
	Name              string `json:"name" mapstructure:"name"`
	Version           string `json:"version" mapstructure:"version"`
	ChainID           int64  `json:"chainId" mapstructure:"chainId"`
	VerifyingContract string `json:"verifyingContract" mapstructure:"verifyingContract"`
}

// DefaultDomain returns the domain used when nothing else is configured.
func DefaultDomain() Domain {
	return Domain{
		Name:              DefaultName,
		Version:           DefaultVersion,
		ChainID:           DefaultChainID,
		VerifyingContract: DefaultVerifyingContract,
	}
}

// ErrMalformedDomain is returned when an embedded or configured domain has
// a field of the wrong type or out of range.
var ErrMalformedDomain = errors.New("malformed EIP-712 domain")

// WithDefaults fills every empty field from fallback. Zero values count as
// unset; use DomainFromMap to tell an absent field from an explicit zero.
func (d Domain) WithDefaults(fallback Domain) Domain {
	if d.Name == "" {
		d.Name = fallback.Name
	}
	if d.Version == "" {
		d.Version = fallback.Version
	}
	if d.ChainID == 0 {
		d.ChainID = fallback.ChainID
	}
	if d.VerifyingContract == "" {
		d.VerifyingContract = fallback.VerifyingContract
	}
	return d
}

// Map renders the domain the way it is embedded into proof objects.
func (d Domain) Map() map[string]interface{} {
	return map[string]interface{}{
		"name":              d.Name,
		"version":           d.Version,
		"chainId":           d.ChainID,
		"verifyingContract": d.VerifyingContract,
	}
}

// DomainFromMap reads a domain embedded in a proof object or a config file.
// Absent sub-fields take the values of fallback. A present sub-field is taken
// as given, and one that cannot be read yields ErrMalformedDomain. chainId
// must be a positive integer.
func DomainFromMap(m map[string]interface{}, fallback Domain) (Domain, error) {
	d := fallback

	if v, ok := m["name"]; ok {
		name, isString := v.(string)
		if !isString {
			return Domain{}, fmt.Errorf("%w: name must be a string, got %T", ErrMalformedDomain, v)
		}
		d.Name = name
	}
	if v, ok := m["version"]; ok {
		version, err := versionValue(v)
		if err != nil {
			return Domain{}, err
		}
		d.Version = version
	}
	if v, ok := m["chainId"]; ok {
		chainID, err := chainIDValue(v)
		if err != nil {
			return Domain{}, err
		}
		d.ChainID = chainID
	}
	if v, ok := m["verifyingContract"]; ok {
		contract, isString := v.(string)
		if !isString || !common.IsHexAddress(contract) {
			return Domain{}, fmt.Errorf("%w: verifyingContract %v is not an address", ErrMalformedDomain, v)
		}
		d.VerifyingContract = contract
	}

	return d, nil
}

func versionValue(v interface{}) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case json.Number:
		return val.String(), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	default:
		return "", fmt.Errorf("%w: version must be a string, got %T", ErrMalformedDomain, v)
	}
}

func chainIDValue(v interface{}) (int64, error) {
	var n int64
	switch val := v.(type) {
	case json.Number:
		i, err := strconv.ParseInt(val.String(), 10, 64)
		if err != nil {
			f, ferr := val.Float64()
			if ferr != nil {
				return 0, fmt.Errorf("%w: chainId %s", ErrMalformedDomain, val)
			}
			return chainIDFromFloat(f)
		}
		n = i
	case float64:
		return chainIDFromFloat(val)
	case int:
		n = int64(val)
	case int64:
		n = val
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(val), 0, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: chainId %q", ErrMalformedDomain, val)
		}
		n = i
	default:
		return 0, fmt.Errorf("%w: chainId must be a number, got %T", ErrMalformedDomain, v)
	}

	if n <= 0 {
		return 0, fmt.Errorf("%w: chainId %d is not positive", ErrMalformedDomain, n)
	}
	return n, nil
}

// maxExactChainID is the largest float64 below 2^63.
const maxExactChainID = float64(1<<63 - 1024)

func chainIDFromFloat(f float64) (int64, error) {
	if f != gomath.Trunc(f) || f < 1 || f > maxExactChainID {
		return 0, fmt.Errorf("%w: chainId %v is not a positive integer", ErrMalformedDomain, f)
	}
	return int64(f), nil
}

func (d Domain) typedDomain() apitypes.TypedDataDomain {
	contract := d.VerifyingContract
	if common.IsHexAddress(contract) {
		contract = common.HexToAddress(contract).Hex()
	}
	return apitypes.TypedDataDomain{
		Name:              d.Name,
		Version:           d.Version,
		ChainId:           (*math.HexOrDecimal256)(big.NewInt(d.ChainID)),
		VerifyingContract: contract,
	}
}

var domainFields = []apitypes.Type{
	{Name: "name", Type: "string"},
	{Name: "version", Type: "string"},
	{Name: "chainId", Type: "uint256"},
	{Name: "verifyingContract", Type: "address"},
}

// TypedMessage is a schema- and domain-bound message handed to the signer.
type TypedMessage struct {
	data apitypes.TypedData
}

// NewSectionMessage builds the Section message for one credential section.
func NewSectionMessage(domain Domain, path, sectionHash string) *TypedMessage {
	return &TypedMessage{data: apitypes.TypedData{
		Types: apitypes.Types{
			domainType: domainFields,
			SectionType: {
				{Name: "path", Type: "string"},
				{Name: "sectionHash", Type: "bytes32"},
			},
		},
		PrimaryType: SectionType,
		Domain:      domain.typedDomain(),
		Message: apitypes.TypedDataMessage{
			"path":        path,
			"sectionHash": sectionHash,
		},
	}}
}

// NewDocumentMessage builds the Document message for the whole credential.
func NewDocumentMessage(domain Domain, documentHash string) *TypedMessage {
	return &TypedMessage{data: apitypes.TypedData{
		Types: apitypes.Types{
			domainType: domainFields,
			DocumentType: {
				{Name: "documentHash", Type: "bytes32"},
			},
		},
		PrimaryType: DocumentType,
		Domain:      domain.typedDomain(),
		Message: apitypes.TypedDataMessage{
			"documentHash": documentHash,
		},
	}}
}

// PrimaryType returns Section or Document.
func (m *TypedMessage) PrimaryType() string {
	return m.data.PrimaryType
}

// Message returns a copy of the message fields.
func (m *TypedMessage) Message() map[string]interface{} {
	out := make(map[string]interface{}, len(m.data.Message))
	for k, v := range m.data.Message {
		out[k] = v
	}
	return out
}

// TypedData exposes the underlying EIP-712 structure, e.g. for eth_signTypedData_v4 clients.
func (m *TypedMessage) TypedData() apitypes.TypedData {
	return m.data
}

// Hash returns the 32-byte EIP-712 digest keccak256("\x19\x01" || domainSeparator || hashStruct(message)).
func (m *TypedMessage) Hash() ([]byte, error) {
	hash, _, err := apitypes.TypedDataAndHash(m.data)
	if err != nil {
		return nil, fmt.Errorf("failed to hash typed data %s: %w", m.data.PrimaryType, err)
	}

	return hash, nil
}
