package rwa

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pilacorp/go-rwa-vc-sdk/credential/common/eip712"
	"github.com/pilacorp/go-rwa-vc-sdk/credential/common/jsonmap"
)

func issue(t *testing.T, doc jsonmap.JSONMap, cfg *Config) jsonmap.JSONMap {
	t.Helper()
	issued, _, err := NewIssuer().Issue(doc, cfg)
	require.NoError(t, err)
	return issued
}

func TestVerifyScenario(t *testing.T) {
	cfg := testConfig(t)
	issued := issue(t, scenarioDoc(), cfg)

	results, err := NewVerifier(WithDefaultDomain(cfg.Domain)).Verify(issued, expectedSigners(t, cfg))
	require.NoError(t, err)

	require.Len(t, results, 3)
	assert.Equal(t, "/credentialSubject/identity", results[0].Path)
	assert.Equal(t, RoleIdentity, results[0].Role)
	assert.Equal(t, "/credentialSubject/custody", results[1].Path)
	assert.Equal(t, RoleCustody, results[1].Role)
	assert.True(t, results[2].IsDocument())

	for _, r := range results {
		assert.True(t, r.OK, r.Path)
		assert.True(t, r.AddrOK, r.Path)
		assert.True(t, r.TypeOK, r.Path)
		assert.Empty(t, r.Reason, r.Path)
	}
	assert.True(t, results[0].HashOK)
	assert.Equal(t, cfg.Addresses[RoleIdentity], results[0].RecoveredSigner)
	assert.Equal(t, cfg.Addresses[RoleDocument], results[2].RecoveredSigner)
	assert.True(t, AllValid(results))
}

func TestVerifyRoundTripFullDocument(t *testing.T) {
	cfg := testConfig(t)
	doc := fullDoc(t)
	issued := issue(t, doc, cfg)

	// Through JSON and back, as a credential travels.
	raw, err := issued.ToJSON()
	require.NoError(t, err)
	parsed, err := jsonmap.FromRaw(raw)
	require.NoError(t, err)

	before := parsed.Clone()
	results, err := NewVerifier(WithDefaultDomain(cfg.Domain)).Verify(parsed, expectedSigners(t, cfg))
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.True(t, AllValid(results))
	assert.Equal(t, before, parsed)
}

func TestVerifyWithoutExpectedSigners(t *testing.T) {
	cfg := testConfig(t)
	issued := issue(t, scenarioDoc(), cfg)

	results, err := NewVerifier(WithDefaultDomain(cfg.Domain)).Verify(issued, nil)
	require.NoError(t, err)
	assert.True(t, AllValid(results))
	assert.Empty(t, results[0].ExpectedSigner)
}

func TestVerifyTamperedSection(t *testing.T) {
	cfg := testConfig(t)
	issued := issue(t, fullDoc(t), cfg)

	identity, ok := issued.ResolveMap(SectionIdentity.Path())
	require.True(t, ok)
	identity["owner"] = "Mallory"

	results, err := NewVerifier(WithDefaultDomain(cfg.Domain)).Verify(issued, expectedSigners(t, cfg))
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.False(t, results[0].OK)
	assert.False(t, results[0].HashOK)
	assert.Equal(t, ReasonHashMismatch, results[0].Reason)

	assert.True(t, results[1].OK, "compliance does not depend on identity")
	assert.True(t, results[2].OK, "custody does not depend on identity")

	assert.False(t, results[3].OK, "document covers every section")
	assert.False(t, results[3].AddrOK)
	assert.False(t, AllValid(results))
}

func TestVerifyOtherDomain(t *testing.T) {
	cfg := testConfig(t)
	issued := issue(t, scenarioDoc(), cfg)

	other := cfg.Domain
	other.ChainID = 2
	results, err := NewVerifier(WithDefaultDomain(other)).Verify(issued, expectedSigners(t, cfg))
	require.NoError(t, err)

	for _, r := range results {
		assert.False(t, r.AddrOK, r.Path)
		assert.False(t, r.OK, r.Path)
	}
	assert.True(t, results[0].HashOK)
}

func TestVerifyEmbeddedDomain(t *testing.T) {
	doc := scenarioDoc()
	sectionProof(t, doc, SectionIdentity)["domain"] = map[string]interface{}{}
	doc["proof"].(map[string]interface{})["domain"] = map[string]interface{}{}

	cfg := testConfig(t)
	issued := issue(t, doc, cfg)

	// Through JSON so chainId is read back as a number.
	raw, err := issued.ToJSON()
	require.NoError(t, err)
	parsed, err := jsonmap.FromRaw(raw)
	require.NoError(t, err)

	results, err := NewVerifier().Verify(parsed, expectedSigners(t, cfg))
	require.NoError(t, err)
	assert.True(t, results[0].OK, "identity carries its domain")
	assert.False(t, results[1].OK, "custody falls back to the default domain")
	assert.True(t, results[2].OK, "document carries its domain")

	// Missing sub-fields of an embedded domain take the defaults.
	partial, err := eip712.DomainFromMap(map[string]interface{}{"name": "T"}, eip712.DefaultDomain())
	require.NoError(t, err)
	assert.Equal(t, eip712.DefaultChainID, partial.ChainID)
}

func TestVerifyMalformedEmbeddedDomain(t *testing.T) {
	doc := scenarioDoc()
	sectionProof(t, doc, SectionIdentity)["domain"] = map[string]interface{}{}
	doc["proof"].(map[string]interface{})["domain"] = map[string]interface{}{}

	cfg := testConfig(t)
	issued := issue(t, doc, cfg)

	sectionProof(t, issued, SectionIdentity)["domain"].(map[string]interface{})["chainId"] = "abc"
	issued["proof"].(map[string]interface{})["domain"] = "not-an-object"

	results, err := NewVerifier(WithDefaultDomain(cfg.Domain)).Verify(issued, expectedSigners(t, cfg))
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.True(t, results[0].HashOK)
	assert.False(t, results[0].AddrOK)
	assert.False(t, results[0].OK)
	assert.True(t, strings.HasPrefix(results[0].Reason, ReasonBadDomain), results[0].Reason)
	assert.Empty(t, results[0].RecoveredSigner)

	assert.True(t, results[1].OK, "custody has no embedded domain")

	assert.False(t, results[2].OK)
	assert.True(t, strings.HasPrefix(results[2].Reason, ReasonBadDomain), results[2].Reason)
}

func TestVerifyLargeIntegerTamper(t *testing.T) {
	cfg := testConfig(t)
	doc, err := jsonmap.FromRaw([]byte(`{
		"credentialSubject": {
			"identity": {"amountWei": 9007199254740993, "sProof": {"type": "", "sectionHash": "", "proofValue": ""}}
		},
		"proof": {"type": "", "proofValue": ""}
	}`))
	require.NoError(t, err)

	issued := issue(t, doc, cfg)
	raw, err := issued.ToJSON()
	require.NoError(t, err)
	require.Contains(t, string(raw), `"amountWei":9007199254740993`)

	verify := func(raw []byte) []Result {
		parsed, err := jsonmap.FromRaw(raw)
		require.NoError(t, err)
		results, err := NewVerifier(WithDefaultDomain(cfg.Domain)).Verify(parsed, expectedSigners(t, cfg))
		require.NoError(t, err)
		return results
	}

	assert.True(t, AllValid(verify(raw)))

	// 9007199254740992 is the same float64 as the signed value.
	tampered := []byte(strings.Replace(string(raw), "9007199254740993", "9007199254740992", 1))
	results := verify(tampered)
	require.Len(t, results, 2)
	assert.False(t, results[0].HashOK)
	assert.Equal(t, ReasonHashMismatch, results[0].Reason)
	assert.False(t, results[1].OK)
	assert.False(t, AllValid(results))
}

func TestVerifyMissingProofs(t *testing.T) {
	cfg := testConfig(t)
	issued := issue(t, scenarioDoc(), cfg)
	delete(issued["credentialSubject"].(map[string]interface{})["identity"].(map[string]interface{}), "sProof")
	delete(issued, "proof")

	results, err := NewVerifier(WithDefaultDomain(cfg.Domain)).Verify(issued, expectedSigners(t, cfg))
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.False(t, results[0].OK)
	assert.Equal(t, ReasonMissingProof, results[0].Reason)
	assert.True(t, results[1].OK)
	assert.Equal(t, DocumentPath, results[2].Path)
	assert.Equal(t, ReasonMissingProof, results[2].Reason)
	assert.False(t, results[2].OK)
}

func TestVerifyAbsentSection(t *testing.T) {
	results, err := NewVerifier().Verify(jsonmap.JSONMap{"credentialSubject": map[string]interface{}{}}, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, DocumentPath, results[0].Path)
}

func TestVerifySignerChecks(t *testing.T) {
	cfg := testConfig(t)
	issued := issue(t, scenarioDoc(), cfg)
	expected := expectedSigners(t, cfg)

	t.Run("wrong expected signer", func(t *testing.T) {
		wrong := map[Role]string{RoleIdentity: expected[RoleCustody]}
		results, err := NewVerifier(WithDefaultDomain(cfg.Domain)).Verify(issued, wrong)
		require.NoError(t, err)
		assert.False(t, results[0].AddrOK)
		assert.True(t, results[0].HashOK)
		assert.True(t, results[1].AddrOK, "no constraint for custody")
	})

	t.Run("signer on proof takes precedence", func(t *testing.T) {
		doc := issued.Clone()
		sectionProof(t, doc, SectionIdentity)["signer"] = expected[RoleCustody]
		results, err := NewVerifier(WithDefaultDomain(cfg.Domain)).Verify(doc, expected)
		require.NoError(t, err)
		assert.False(t, results[0].AddrOK)
		assert.Equal(t, expected[RoleCustody], results[0].ExpectedSigner)
	})

	t.Run("unrecoverable signature", func(t *testing.T) {
		doc := issued.Clone()
		sectionProof(t, doc, SectionCustody)["proofValue"] = "0x1234"
		results, err := NewVerifier(WithDefaultDomain(cfg.Domain)).Verify(doc, expected)
		require.NoError(t, err)
		assert.False(t, results[1].AddrOK)
		assert.False(t, results[1].OK)
		assert.True(t, strings.HasPrefix(results[1].Reason, ReasonUnrecovered))
	})

	t.Run("wrong proof type", func(t *testing.T) {
		doc := issued.Clone()
		doc["proof"].(map[string]interface{})["type"] = "EcdsaSecp256k1Signature2019"
		results, err := NewVerifier(WithDefaultDomain(cfg.Domain)).Verify(doc, expected)
		require.NoError(t, err)
		assert.False(t, results[2].TypeOK)
		assert.True(t, results[2].AddrOK)
		assert.False(t, results[2].OK)
	})
}

func TestVerifyInvalidInput(t *testing.T) {
	_, err := NewVerifier().Verify(nil, nil)
	assert.ErrorIs(t, err, ErrInvalidDocument)

	unencodable := jsonmap.JSONMap{
		"bad":   func() {},
		"proof": map[string]interface{}{"proofValue": ""},
	}
	_, err = NewVerifier().Verify(unencodable, nil)
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestResultJSON(t *testing.T) {
	cfg := testConfig(t)
	issued := issue(t, scenarioDoc(), cfg)
	delete(issued["credentialSubject"].(map[string]interface{})["custody"].(map[string]interface{}), "sProof")

	results, err := NewVerifier(WithDefaultDomain(cfg.Domain)).Verify(issued, expectedSigners(t, cfg))
	require.NoError(t, err)

	raw, err := json.Marshal(results)
	require.NoError(t, err)

	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded, 3)

	assert.ElementsMatch(t,
		[]string{"path", "ok", "hashOk", "addrOk", "typeOk", "recoveredSigner", "expectedSigner", "role"},
		keysOf(decoded[0]))
	assert.Equal(t, "identity", decoded[0]["role"])
	assert.ElementsMatch(t, []string{"path", "ok", "reason"}, keysOf(decoded[1]))
	assert.ElementsMatch(t,
		[]string{"path", "ok", "addrOk", "typeOk", "recoveredSigner", "expectedSigner"},
		keysOf(decoded[2]))
}

func TestAllValid(t *testing.T) {
	assert.False(t, AllValid(nil))
	assert.True(t, AllValid([]Result{{OK: true}}))
	assert.False(t, AllValid([]Result{{OK: true}, {OK: false}}))
}
