package model

import (
	"fmt"

	"github.com/pilacorp/go-rwa-vc-sdk/credential/common/eip712"
)

// ProofTypeEip712 is the scheme tag written into every proof this SDK produces.
const ProofTypeEip712 = "Eip712Signature2023"

// Keys of the proof slots inside a credential.
const (
	SectionProofKey  = "sProof"
	DocumentProofKey = "proof"
)

// Field names of a proof object.
const (
	FieldType        = "type"
	FieldSectionHash = "sectionHash"
	FieldProofValue  = "proofValue"
	FieldSigner      = "signer"
	FieldDomain      = "domain"
)

// proofFields holds the fields shared by section and document proofs.
// A nil pointer means the key was absent from the template; setters never
// turn an absent field into a present one.
type proofFields struct {
	Type       *string
	ProofValue *string
	Signer     *string

	domain        map[string]interface{}
	domainPresent bool
}

// SectionProof is the fixed-shape sProof record of a credential section.
type SectionProof struct {
	proofFields
	SectionHash *string
}

// DocumentProof is the fixed-shape root proof record of a credential.
type DocumentProof struct {
	proofFields
}

// ParseSectionProof reads a section proof template.
func ParseSectionProof(raw map[string]interface{}) *SectionProof {
	p := &SectionProof{proofFields: parseFields(raw)}
	p.SectionHash = stringField(raw, FieldSectionHash)
	return p
}

// ParseDocumentProof reads a document proof template.
func ParseDocumentProof(raw map[string]interface{}) *DocumentProof {
	return &DocumentProof{proofFields: parseFields(raw)}
}

func parseFields(raw map[string]interface{}) proofFields {
	f := proofFields{
		Type:       stringField(raw, FieldType),
		ProofValue: stringField(raw, FieldProofValue),
		Signer:     stringField(raw, FieldSigner),
	}
	if v, ok := raw[FieldDomain]; ok {
		f.domainPresent = true
		f.domain, _ = v.(map[string]interface{})
	}
	return f
}

// stringField reports a present key as a non-nil pointer. Non-string values
// read as the empty string.
func stringField(raw map[string]interface{}, key string) *string {
	v, ok := raw[key]
	if !ok {
		return nil
	}
	s, _ := v.(string)
	return &s
}

func setIfPresent(field *string, value string) {
	if field != nil {
		*field = value
	}
}

func valueOf(field *string) string {
	if field == nil {
		return ""
	}
	return *field
}

// TypeValue returns the proof type, or "" when absent.
func (f *proofFields) TypeValue() string { return valueOf(f.Type) }

// ProofValueString returns the signature, or "" when absent.
func (f *proofFields) ProofValueString() string { return valueOf(f.ProofValue) }

// SignerValue returns the explicit signer, or "" when absent.
func (f *proofFields) SignerValue() string { return valueOf(f.Signer) }

// HasDomain reports whether the template carries an embedded domain.
func (f *proofFields) HasDomain() bool { return f.domainPresent }

// DomainOr returns the embedded domain with absent sub-fields taken from
// fallback, or fallback itself when no domain is embedded. A domain slot
// that is not an object, or holds unreadable fields, yields
// eip712.ErrMalformedDomain.
func (f *proofFields) DomainOr(fallback eip712.Domain) (eip712.Domain, error) {
	if !f.domainPresent {
		return fallback, nil
	}
	if f.domain == nil {
		return eip712.Domain{}, fmt.Errorf("%w: domain is not an object", eip712.ErrMalformedDomain)
	}
	return eip712.DomainFromMap(f.domain, fallback)
}

// SetSignature records the scheme tag, signature and signer, each only if
// its key exists in the template.
func (f *proofFields) SetSignature(proofType, proofValue, signer string) {
	setIfPresent(f.Type, proofType)
	setIfPresent(f.ProofValue, proofValue)
	setIfPresent(f.Signer, signer)
}

// SetDomain embeds the signing domain if the template has a domain slot.
func (f *proofFields) SetDomain(d eip712.Domain) {
	if f.domainPresent {
		f.domain = d.Map()
	}
}

func (f *proofFields) mergeInto(raw map[string]interface{}) {
	if f.Type != nil {
		raw[FieldType] = *f.Type
	}
	if f.ProofValue != nil {
		raw[FieldProofValue] = *f.ProofValue
	}
	if f.Signer != nil {
		raw[FieldSigner] = *f.Signer
	}
	if f.domainPresent && f.domain != nil {
		raw[FieldDomain] = f.domain
	}
}

// SectionHashValue returns the stored section hash, or "" when absent.
func (p *SectionProof) SectionHashValue() string { return valueOf(p.SectionHash) }

// SetSectionHash records the section hash if the template has the slot.
func (p *SectionProof) SetSectionHash(hash string) {
	setIfPresent(p.SectionHash, hash)
}

// MergeInto writes the present fields back into the template object.
// Keys that were absent when the template was parsed are never added.
func (p *SectionProof) MergeInto(raw map[string]interface{}) {
	p.proofFields.mergeInto(raw)
	if p.SectionHash != nil {
		raw[FieldSectionHash] = *p.SectionHash
	}
}

// MergeInto writes the present fields back into the template object.
func (p *DocumentProof) MergeInto(raw map[string]interface{}) {
	p.proofFields.mergeInto(raw)
}
