package eip712

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHash = "0x1111111111111111111111111111111111111111111111111111111111111111"

func TestMessageShapes(t *testing.T) {
	section := NewSectionMessage(DefaultDomain(), "/credentialSubject/identity", testHash)
	assert.Equal(t, SectionType, section.PrimaryType())
	assert.Equal(t, map[string]interface{}{
		"path":        "/credentialSubject/identity",
		"sectionHash": testHash,
	}, section.Message())

	document := NewDocumentMessage(DefaultDomain(), testHash)
	assert.Equal(t, DocumentType, document.PrimaryType())
	assert.Equal(t, map[string]interface{}{"documentHash": testHash}, document.Message())

	td := section.TypedData()
	assert.Contains(t, td.Types, "EIP712Domain")
	assert.Contains(t, td.Types, SectionType)
	assert.NotContains(t, td.Types, DocumentType)
}

func TestHashSeparation(t *testing.T) {
	base := DefaultDomain()
	other := base
	other.ChainID = 2

	hash := func(m *TypedMessage) string {
		h, err := m.Hash()
		require.NoError(t, err)
		require.Len(t, h, 32)
		return string(h)
	}

	sectionD1 := hash(NewSectionMessage(base, "/credentialSubject/identity", testHash))
	sectionD1Again := hash(NewSectionMessage(base, "/credentialSubject/identity", testHash))
	sectionD2 := hash(NewSectionMessage(other, "/credentialSubject/identity", testHash))
	sectionOtherPath := hash(NewSectionMessage(base, "/credentialSubject/custody", testHash))
	document := hash(NewDocumentMessage(base, testHash))

	assert.Equal(t, sectionD1, sectionD1Again)
	assert.NotEqual(t, sectionD1, sectionD2, "domain must bind the digest")
	assert.NotEqual(t, sectionD1, sectionOtherPath, "path must bind the digest")
	assert.NotEqual(t, sectionD1, document, "schema must bind the digest")

	contract := base
	contract.VerifyingContract = "0x00000000000000000000000000000000000000aa"
	assert.NotEqual(t, sectionD1, hash(NewSectionMessage(contract, "/credentialSubject/identity", testHash)))
}

func TestHashRejectsMalformedDigest(t *testing.T) {
	_, err := NewDocumentMessage(DefaultDomain(), "0x1234").Hash()
	assert.Error(t, err)

	_, err = NewSectionMessage(DefaultDomain(), "/p", "not-hex").Hash()
	assert.Error(t, err)
}

func TestDomainFromMap(t *testing.T) {
	tests := []struct {
		name   string
		input  map[string]interface{}
		expect Domain
	}{
		{
			name:   "empty map uses defaults",
			input:  map[string]interface{}{},
			expect: DefaultDomain(),
		},
		{
			name:  "partial domain",
			input: map[string]interface{}{"name": "T", "chainId": 5.0},
			expect: Domain{
				Name:              "T",
				Version:           DefaultVersion,
				ChainID:           5,
				VerifyingContract: DefaultVerifyingContract,
			},
		},
		{
			name: "numeric version and string chain id",
			input: map[string]interface{}{
				"version":           2.0,
				"chainId":           "0x10",
				"verifyingContract": "0x00000000000000000000000000000000000000aa",
			},
			expect: Domain{
				Name:              DefaultName,
				Version:           "2",
				ChainID:           16,
				VerifyingContract: "0x00000000000000000000000000000000000000aa",
			},
		},
		{
			name:  "decoded json numbers",
			input: map[string]interface{}{"version": json.Number("3"), "chainId": json.Number("137")},
			expect: Domain{
				Name:              DefaultName,
				Version:           "3",
				ChainID:           137,
				VerifyingContract: DefaultVerifyingContract,
			},
		},
		{
			name:  "explicit empty strings are kept",
			input: map[string]interface{}{"name": "", "version": ""},
			expect: Domain{
				ChainID:           DefaultChainID,
				VerifyingContract: DefaultVerifyingContract,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := DomainFromMap(tt.input, DefaultDomain())
			require.NoError(t, err)
			assert.Equal(t, tt.expect, d)
		})
	}
}

func TestDomainFromMapMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input map[string]interface{}
	}{
		{name: "name is not a string", input: map[string]interface{}{"name": 1.0}},
		{name: "chain id is a bool", input: map[string]interface{}{"chainId": true}},
		{name: "chain id is not numeric", input: map[string]interface{}{"chainId": "abc"}},
		{name: "chain id is zero", input: map[string]interface{}{"chainId": json.Number("0")}},
		{name: "chain id is negative", input: map[string]interface{}{"chainId": -1.0}},
		{name: "chain id is fractional", input: map[string]interface{}{"chainId": 1.5}},
		{name: "chain id out of range", input: map[string]interface{}{"chainId": 1e30}},
		{name: "chain id literal out of range", input: map[string]interface{}{"chainId": json.Number("99999999999999999999")}},
		{name: "version is an object", input: map[string]interface{}{"version": map[string]interface{}{}}},
		{name: "contract is not an address", input: map[string]interface{}{"verifyingContract": "vault"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DomainFromMap(tt.input, DefaultDomain())
			assert.ErrorIs(t, err, ErrMalformedDomain)
		})
	}
}

func TestDomainMapRoundTrip(t *testing.T) {
	d := Domain{Name: "T", Version: "1", ChainID: 1, VerifyingContract: DefaultVerifyingContract}
	got, err := DomainFromMap(d.Map(), DefaultDomain())
	require.NoError(t, err)
	assert.Equal(t, d, got)
}
