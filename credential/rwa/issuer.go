package rwa

import (
	"context"
	"fmt"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/pilacorp/go-rwa-vc-sdk/credential/common/eip712"
	"github.com/pilacorp/go-rwa-vc-sdk/credential/common/jsonmap"
	"github.com/pilacorp/go-rwa-vc-sdk/credential/common/model"
	"github.com/pilacorp/go-rwa-vc-sdk/credential/common/processor"
	"github.com/pilacorp/go-rwa-vc-sdk/credential/common/signer"
)

var issuerLogger = log.New("rwa-vc/issuer")

// ProofRecord describes one signed target. It is informational only and is
// never written into the credential.
type ProofRecord struct {
	Path         string `json:"path"`
	SectionHash  string `json:"sectionHash,omitempty"`
	DocumentHash string `json:"documentHash,omitempty"`
}

// Issuer signs the sections and the whole document of RWA credentials.
// An Issuer holds no per-call state and is safe for concurrent use.
type Issuer struct {
	opts *options
}

// NewIssuer creates an Issuer.
func NewIssuer(opts ...Opt) *Issuer {
	return &Issuer{opts: getOptions(opts...)}
}

// Domain returns the domain Issue signs under for cfg.
func (i *Issuer) Domain(cfg *Config) eip712.Domain {
	d := cfg.Domain.WithDefaults(i.opts.defaultDomain)
	if i.opts.verifyingContract != "" {
		d.VerifyingContract = i.opts.verifyingContract
	}
	return d
}

// Issue signs every present section and then the document. The input is
// never modified: proofs are written into a deep copy, which is returned
// together with one ProofRecord per signed target.
//
// Proof templates are updated in place and never gain keys. A section
// without an sProof template is still hashed and signed so the records
// stay complete.
func (i *Issuer) Issue(doc jsonmap.JSONMap, cfg *Config) (jsonmap.JSONMap, []ProofRecord, error) {
	return i.IssueContext(context.Background(), doc, cfg)
}

// IssueContext is Issue with a context passed to signers that accept one,
// such as signer.RemoteSigner.
func (i *Issuer) IssueContext(ctx context.Context, doc jsonmap.JSONMap, cfg *Config) (jsonmap.JSONMap, []ProofRecord, error) {
	if err := i.opts.validate(doc); err != nil {
		return nil, nil, err
	}
	if cfg == nil {
		return nil, nil, fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}

	domain := i.Domain(cfg)
	issued := doc.Clone()
	records := make([]ProofRecord, 0, len(Sections())+1)

	clean := stripProofs(issued)
	for _, s := range Sections() {
		section, ok := issued.ResolveMap(s.Path())
		if !ok {
			continue
		}

		record, err := i.signSection(ctx, s, section, clean, domain, cfg)
		if err != nil {
			return nil, nil, err
		}
		records = append(records, record)
	}

	record, err := i.signDocument(ctx, issued, domain, cfg)
	if err != nil {
		return nil, nil, err
	}
	records = append(records, record)

	return issued, records, nil
}

func (i *Issuer) signSection(ctx context.Context, s Section, section map[string]interface{}, clean jsonmap.JSONMap, domain eip712.Domain, cfg *Config) (ProofRecord, error) {
	key, err := cfg.Key(s.Role())
	if err != nil {
		return ProofRecord{}, err
	}

	cleanSection, _ := clean.ResolveMap(s.Path())
	sectionHash, err := processor.HashDocument(cleanSection)
	if err != nil {
		return ProofRecord{}, fmt.Errorf("failed to hash section %s: %w", s.Path(), err)
	}

	msg := eip712.NewSectionMessage(domain, s.Path(), sectionHash)
	signature, signerID, err := signer.SignWithContext(ctx, i.opts.signer, key, msg)
	if err != nil {
		return ProofRecord{}, fmt.Errorf("%w: section %s: %w", ErrSigning, s.Path(), err)
	}

	if raw, ok := section[model.SectionProofKey].(map[string]interface{}); ok {
		proof := model.ParseSectionProof(raw)
		proof.SetSignature(model.ProofTypeEip712, signature, signerID)
		proof.SetSectionHash(sectionHash)
		proof.SetDomain(domain)
		proof.MergeInto(raw)
	}

	issuerLogger.Debugf("signed section %s with hash %s", s.Path(), sectionHash)

	return ProofRecord{Path: s.Path(), SectionHash: sectionHash}, nil
}

func (i *Issuer) signDocument(ctx context.Context, issued jsonmap.JSONMap, domain eip712.Domain, cfg *Config) (ProofRecord, error) {
	key, err := cfg.Key(RoleDocument)
	if err != nil {
		return ProofRecord{}, err
	}

	documentHash, err := processor.HashDocument(stripProofs(issued))
	if err != nil {
		return ProofRecord{}, fmt.Errorf("failed to hash document: %w", err)
	}

	msg := eip712.NewDocumentMessage(domain, documentHash)
	signature, signerID, err := signer.SignWithContext(ctx, i.opts.signer, key, msg)
	if err != nil {
		return ProofRecord{}, fmt.Errorf("%w: document: %w", ErrSigning, err)
	}

	if raw, ok := issued[model.DocumentProofKey].(map[string]interface{}); ok {
		proof := model.ParseDocumentProof(raw)
		proof.SetSignature(model.ProofTypeEip712, signature, signerID)
		proof.SetDomain(domain)
		proof.MergeInto(raw)
	}

	issuerLogger.Debugf("signed document with hash %s", documentHash)

	return ProofRecord{Path: DocumentPath, DocumentHash: documentHash}, nil
}
