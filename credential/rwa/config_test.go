package rwa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pilacorp/go-rwa-vc-sdk/credential/common/eip712"
)

func TestParseConfig(t *testing.T) {
	raw := []byte(`{
		"domain": {"name": "T", "version": 2, "chainId": "5"},
		"keys": {"identity": "` + keyIdentity + `", "document": "` + keyDocument + `"},
		"addresses": {"identity": "0x7e5f4552091a69125d5dfcb7b8c2659029395bdf"}
	}`)

	cfg, err := ParseConfig(raw)
	require.NoError(t, err)

	assert.Equal(t, "T", cfg.Domain.Name)
	assert.Equal(t, "2", cfg.Domain.Version)
	assert.Equal(t, int64(5), cfg.Domain.ChainID)
	assert.Equal(t, eip712.DefaultVerifyingContract, cfg.Domain.VerifyingContract)

	key, err := cfg.Key(RoleIdentity)
	require.NoError(t, err)
	assert.Equal(t, keyIdentity, key)

	_, err = cfg.Key(RoleCustody)
	assert.ErrorIs(t, err, ErrMissingKey)

	expected, err := cfg.ExpectedSigners()
	require.NoError(t, err)
	assert.Equal(t, "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf", expected[RoleIdentity])
}

func TestParseConfigErrors(t *testing.T) {
	_, err := ParseConfig([]byte(`{not json`))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = ParseConfig([]byte(`{"domain": {"chainId": "abc"}}`))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = ParseConfig([]byte(`{"domain": {"chainId": 0}}`))
	assert.ErrorIs(t, err, ErrInvalidConfig, "an explicit zero chain id is not replaced")

	_, err = ParseConfig([]byte(`{"domain": {"chainId": 1e30}}`))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = ParseConfig([]byte(`{"domain": {"verifyingContract": "vault"}}`))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = ParseConfig([]byte(`{"domain": "T"}`))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg, err := ParseConfig([]byte(`{"addresses": {"identity": "nope"}}`))
	require.NoError(t, err)
	_, err = cfg.ExpectedSigners()
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestDefaultDomainFromEnv(t *testing.T) {
	t.Setenv(EnvDomainName, "Env")
	t.Setenv(EnvChainID, "0x10")

	d := DefaultDomain()
	assert.Equal(t, "Env", d.Name)
	assert.Equal(t, eip712.DefaultVersion, d.Version)
	assert.Equal(t, int64(16), d.ChainID)

	cfg, err := ParseConfig([]byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, "Env", cfg.Domain.Name)

	t.Setenv(EnvChainID, "0")
	assert.Equal(t, eip712.DefaultChainID, DefaultDomain().ChainID)
}

func TestParseConfigExplicitEmptyVersion(t *testing.T) {
	cfg, err := ParseConfig([]byte(`{"domain": {"name": "T", "version": "", "chainId": 9007199254740993}}`))
	require.NoError(t, err)
	assert.Equal(t, "", cfg.Domain.Version, "an explicit empty version is kept")
	assert.Equal(t, int64(9007199254740993), cfg.Domain.ChainID)
	assert.Equal(t, eip712.DefaultVerifyingContract, cfg.Domain.VerifyingContract)

	cfg, err = DecodeConfig(map[string]interface{}{"domain": eip712.Domain{Name: "S"}})
	require.NoError(t, err)
	assert.Equal(t, "S", cfg.Domain.Name)
	assert.Equal(t, eip712.DefaultChainID, cfg.Domain.ChainID)
}

func TestGenerateConfig(t *testing.T) {
	cfg, err := GenerateConfig(eip712.DefaultDomain())
	require.NoError(t, err)

	require.Len(t, cfg.Keys, len(Roles()))
	derived := &Config{Keys: cfg.Keys}
	require.NoError(t, derived.DeriveAddresses())
	assert.Equal(t, cfg.Addresses, derived.Addresses)

	bad := &Config{Keys: map[Role]string{RoleIdentity: "0x01"}}
	assert.Error(t, bad.DeriveAddresses())
}
