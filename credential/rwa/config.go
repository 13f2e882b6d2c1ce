package rwa

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/mitchellh/mapstructure"

	rwacrypto "github.com/pilacorp/go-rwa-vc-sdk/credential/common/crypto"
	"github.com/pilacorp/go-rwa-vc-sdk/credential/common/eip712"
)

var configLogger = log.New("rwa-vc/config")

// Environment variable names for the default signing domain.
const (
	EnvDomainName        = "RWAVC_DOMAIN_NAME"
	EnvDomainVersion     = "RWAVC_DOMAIN_VERSION"
	EnvChainID           = "RWAVC_CHAIN_ID"
	EnvVerifyingContract = "RWAVC_VERIFYING_CONTRACT"
)

// DefaultDomain returns the signing domain from the environment, falling
// back to the built-in defaults field by field.
func DefaultDomain() eip712.Domain {
	d := eip712.DefaultDomain()
	if v := os.Getenv(EnvDomainName); v != "" {
		d.Name = v
	}
	if v := os.Getenv(EnvDomainVersion); v != "" {
		d.Version = v
	}
	if v := os.Getenv(EnvChainID); v != "" {
		chainID, err := strconv.ParseInt(strings.TrimSpace(v), 0, 64)
		if err != nil || chainID <= 0 {
			configLogger.Debugf("ignoring %s=%q: not a positive chain id", EnvChainID, v)
		} else {
			d.ChainID = chainID
		}
	}
	if v := os.Getenv(EnvVerifyingContract); v != "" {
		d.VerifyingContract = v
	}
	return d
}

// Config holds the signing domain, the per-role keys and the optional
// per-role expected signers.
type Config struct {
	Domain    eip712.Domain   `json:"domain" mapstructure:"domain"`
	Keys      map[Role]string `json:"keys" mapstructure:"keys"`
	Addresses map[Role]string `json:"addresses,omitempty" mapstructure:"addresses"`
}

// ParseConfig decodes a keys configuration such as
// {"domain":{...},"keys":{"identity":"0x..."},"addresses":{...}}.
// Numeric fields may be given as numbers or strings.
func ParseConfig(raw []byte) (*Config, error) {
	var m map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return DecodeConfig(m)
}

// DecodeConfig decodes a loosely typed map into a Config. Absent domain
// fields take the values of DefaultDomain. A present field is used as given
// and must be well-formed: an explicit chainId of 0 is rejected rather than
// replaced.
func DecodeConfig(m map[string]interface{}) (*Config, error) {
	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create config decoder: %w", err)
	}
	if err := decoder.Decode(m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	domain, err := decodeDomain(m["domain"])
	if err != nil {
		return nil, err
	}
	cfg.Domain = domain

	return cfg, nil
}

func decodeDomain(raw interface{}) (eip712.Domain, error) {
	switch v := raw.(type) {
	case nil:
		return DefaultDomain(), nil
	case map[string]interface{}:
		d, err := eip712.DomainFromMap(v, DefaultDomain())
		if err != nil {
			return eip712.Domain{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		return d, nil
	case eip712.Domain:
		return v.WithDefaults(DefaultDomain()), nil
	default:
		return eip712.Domain{}, fmt.Errorf("%w: domain must be an object, got %T", ErrInvalidConfig, raw)
	}
}

// Key returns the signing key of role.
func (c *Config) Key(role Role) (string, error) {
	key := strings.TrimSpace(c.Keys[role])
	if key == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingKey, role)
	}
	return key, nil
}

// ExpectedSigners returns the configured expected signers with every
// identity normalized to a checksummed address.
func (c *Config) ExpectedSigners() (map[Role]string, error) {
	out := make(map[Role]string, len(c.Addresses))
	for role, id := range c.Addresses {
		if strings.TrimSpace(id) == "" {
			continue
		}
		addr, err := rwacrypto.NormalizeSigner(id)
		if err != nil {
			return nil, fmt.Errorf("%w: address of %s: %v", ErrInvalidConfig, role, err)
		}
		out[role] = addr
	}
	return out, nil
}

// DeriveAddresses fills Addresses from the private keys in Keys.
func (c *Config) DeriveAddresses() error {
	if c.Addresses == nil {
		c.Addresses = make(map[Role]string, len(c.Keys))
	}
	for role, key := range c.Keys {
		addr, err := rwacrypto.AddressFromPrivateKey(key)
		if err != nil {
			return fmt.Errorf("failed to derive address of %s: %w", role, err)
		}
		c.Addresses[role] = addr
	}
	return nil
}

// GenerateConfig creates a configuration with a fresh key for every role.
func GenerateConfig(domain eip712.Domain) (*Config, error) {
	cfg := &Config{
		Domain:    domain,
		Keys:      make(map[Role]string, len(Roles())),
		Addresses: make(map[Role]string, len(Roles())),
	}
	for _, role := range Roles() {
		key, addr, err := rwacrypto.GenerateKey()
		if err != nil {
			return nil, fmt.Errorf("failed to generate %s key: %w", role, err)
		}
		cfg.Keys[role] = key
		cfg.Addresses[role] = addr
	}
	return cfg, nil
}
