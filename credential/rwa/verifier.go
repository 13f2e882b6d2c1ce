package rwa

import (
	"encoding/json"
	"fmt"

	"github.com/hyperledger/aries-framework-go/component/log"

	rwacrypto "github.com/pilacorp/go-rwa-vc-sdk/credential/common/crypto"
	"github.com/pilacorp/go-rwa-vc-sdk/credential/common/eip712"
	"github.com/pilacorp/go-rwa-vc-sdk/credential/common/jsonmap"
	"github.com/pilacorp/go-rwa-vc-sdk/credential/common/model"
	"github.com/pilacorp/go-rwa-vc-sdk/credential/common/processor"
)

var verifierLogger = log.New("rwa-vc/verifier")

// Failure reasons recorded in results.
const (
	ReasonMissingProof = "missing proof"
	ReasonHashMismatch = "section hash mismatch"
	ReasonUnrecovered  = "signer could not be recovered"
	ReasonBadDomain    = "malformed domain"
)

// Result is the outcome of verifying one target. Document results carry
// no hash flag: the document hash is bound only through the signature.
type Result struct {
	Path            string
	OK              bool
	Reason          string
	HashOK          bool
	AddrOK          bool
	TypeOK          bool
	RecoveredSigner string
	ExpectedSigner  string
	Role            Role

	evaluated bool
}

// IsDocument reports whether r is the whole-document result.
func (r Result) IsDocument() bool {
	return r.Path == DocumentPath
}

type resultJSON struct {
	Path            string  `json:"path"`
	OK              bool    `json:"ok"`
	Reason          string  `json:"reason,omitempty"`
	HashOK          *bool   `json:"hashOk,omitempty"`
	AddrOK          *bool   `json:"addrOk,omitempty"`
	TypeOK          *bool   `json:"typeOk,omitempty"`
	RecoveredSigner *string `json:"recoveredSigner,omitempty"`
	ExpectedSigner  *string `json:"expectedSigner,omitempty"`
	Role            Role    `json:"role,omitempty"`
}

// MarshalJSON emits only the fields that apply to the kind of target.
func (r Result) MarshalJSON() ([]byte, error) {
	out := resultJSON{Path: r.Path, OK: r.OK, Reason: r.Reason}
	if r.evaluated {
		out.AddrOK = &r.AddrOK
		out.TypeOK = &r.TypeOK
		out.RecoveredSigner = &r.RecoveredSigner
		out.ExpectedSigner = &r.ExpectedSigner
		if !r.IsDocument() {
			out.HashOK = &r.HashOK
			out.Role = r.Role
		}
	}
	return json.Marshal(out)
}

// AllValid reports whether every result is ok. An empty set is not valid.
func AllValid(results []Result) bool {
	if len(results) == 0 {
		return false
	}
	for _, r := range results {
		if !r.OK {
			return false
		}
	}
	return true
}

// Verifier checks the proofs of RWA credentials. It never modifies its input.
type Verifier struct {
	opts *options
}

// NewVerifier creates a Verifier.
func NewVerifier(opts ...Opt) *Verifier {
	return &Verifier{opts: getOptions(opts...)}
}

// Verify evaluates every present section and then the document. expected
// maps roles to signer identities and may be nil. Invalid proofs are
// reported in the results; an error is returned only for unusable input.
func (v *Verifier) Verify(doc jsonmap.JSONMap, expected map[Role]string) ([]Result, error) {
	if err := v.opts.validate(doc); err != nil {
		return nil, err
	}

	clean := stripProofs(doc)
	results := make([]Result, 0, len(Sections())+1)

	for _, s := range Sections() {
		section, ok := doc.ResolveMap(s.Path())
		if !ok {
			continue
		}

		raw, ok := section[model.SectionProofKey].(map[string]interface{})
		if !ok {
			verifierLogger.Debugf("section %s has no proof", s.Path())
			results = append(results, Result{Path: s.Path(), Reason: ReasonMissingProof})
			continue
		}

		cleanSection, _ := clean.ResolveMap(s.Path())
		r, err := v.verifySection(s, model.ParseSectionProof(raw), cleanSection, expected)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}

	raw, ok := doc[model.DocumentProofKey].(map[string]interface{})
	if !ok {
		verifierLogger.Debugf("document has no proof")
		return append(results, Result{Path: DocumentPath, Reason: ReasonMissingProof}), nil
	}

	r, err := v.verifyDocument(model.ParseDocumentProof(raw), clean, expected)
	if err != nil {
		return nil, err
	}

	return append(results, r), nil
}

func (v *Verifier) verifySection(s Section, proof *model.SectionProof, cleanSection map[string]interface{}, expected map[Role]string) (Result, error) {
	sectionHash, err := processor.HashDocument(cleanSection)
	if err != nil {
		return Result{}, fmt.Errorf("%w: section %s: %v", ErrInvalidDocument, s.Path(), err)
	}

	role, _ := RoleForPath(s.Path())
	r := Result{Path: s.Path(), Role: role, evaluated: true}

	r.HashOK = sectionHash == proof.SectionHashValue()
	r.TypeOK = proof.TypeValue() == model.ProofTypeEip712
	r.ExpectedSigner = expectedSigner(proof.SignerValue(), expected, role)

	if domain, ok := v.domainOf(&r, proof.DomainOr); ok {
		msg := eip712.NewSectionMessage(domain, s.Path(), sectionHash)
		v.checkSigner(&r, msg, proof.ProofValueString())
	}

	r.OK = r.HashOK && r.AddrOK && r.TypeOK
	if !r.HashOK && r.Reason == "" {
		r.Reason = ReasonHashMismatch
	}
	v.logFailure(r)

	return r, nil
}

func (v *Verifier) verifyDocument(proof *model.DocumentProof, clean jsonmap.JSONMap, expected map[Role]string) (Result, error) {
	documentHash, err := processor.HashDocument(clean)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	r := Result{Path: DocumentPath, Role: RoleDocument, evaluated: true}
	r.TypeOK = proof.TypeValue() == model.ProofTypeEip712
	r.ExpectedSigner = expectedSigner(proof.SignerValue(), expected, RoleDocument)

	if domain, ok := v.domainOf(&r, proof.DomainOr); ok {
		msg := eip712.NewDocumentMessage(domain, documentHash)
		v.checkSigner(&r, msg, proof.ProofValueString())
	}

	r.OK = r.AddrOK && r.TypeOK
	v.logFailure(r)

	return r, nil
}

// domainOf resolves the signing domain of a proof. A malformed embedded
// domain fails the address check instead of falling back to the default.
func (v *Verifier) domainOf(r *Result, resolve func(eip712.Domain) (eip712.Domain, error)) (eip712.Domain, bool) {
	domain, err := resolve(v.opts.defaultDomain)
	if err != nil {
		verifierLogger.Debugf("proof at %s has a malformed domain: %v", r.Path, err)
		r.AddrOK = false
		r.Reason = fmt.Sprintf("%s: %v", ReasonBadDomain, err)
		return eip712.Domain{}, false
	}
	return domain, true
}

// checkSigner recovers the signer of msg and compares it with the expected
// signer. An unrecoverable signature fails the address check.
func (v *Verifier) checkSigner(r *Result, msg *eip712.TypedMessage, signature string) {
	recovered, err := v.opts.recoverer.Recover(msg, signature)
	if err != nil {
		r.AddrOK = false
		r.Reason = fmt.Sprintf("%s: %v", ReasonUnrecovered, err)
		return
	}

	r.RecoveredSigner = recovered
	r.AddrOK = r.ExpectedSigner == "" || rwacrypto.SameSigner(recovered, r.ExpectedSigner)
}

// expectedSigner applies the precedence: the signer named on the proof,
// then the role's expected signer, then no constraint.
func expectedSigner(onProof string, expected map[Role]string, role Role) string {
	if onProof != "" {
		return onProof
	}
	if role == "" {
		return ""
	}
	return expected[role]
}

func (v *Verifier) logFailure(r Result) {
	if r.OK {
		return
	}
	verifierLogger.Debugf("proof at %s failed: hashOk=%t addrOk=%t typeOk=%t recovered=%s expected=%s",
		r.Path, r.HashOK, r.AddrOK, r.TypeOK, r.RecoveredSigner, r.ExpectedSigner)
}
