package rwa

import (
	"github.com/pilacorp/go-rwa-vc-sdk/credential/common/eip712"
	"github.com/pilacorp/go-rwa-vc-sdk/credential/common/processor"
	"github.com/pilacorp/go-rwa-vc-sdk/credential/common/schema"
	"github.com/pilacorp/go-rwa-vc-sdk/credential/common/signer"
)

const defaultConcurrency = 8

// Opt configures an Issuer or a Verifier.
type Opt func(*options)

type options struct {
	signer            signer.Signer
	recoverer         signer.Recoverer
	defaultDomain     eip712.Domain
	verifyingContract string
	isValidateSchema  bool
	schemaOpts        []schema.ValidatorOpt
	isValidateJSONLD  bool
	processorOpts     []processor.ProcessorOpt
	concurrency       int
}

// WithSigner replaces the local-key signer, e.g. with a RemoteSigner.
func WithSigner(s signer.Signer) Opt {
	return func(o *options) {
		if s != nil {
			o.signer = s
		}
	}
}

// WithRecoverer replaces the signature recoverer used by verification.
func WithRecoverer(r signer.Recoverer) Opt {
	return func(o *options) {
		if r != nil {
			o.recoverer = r
		}
	}
}

// WithDefaultDomain sets the domain used for absent fields of a configured
// domain when issuing, and for proofs without an embedded domain when verifying.
func WithDefaultDomain(d eip712.Domain) Opt {
	return func(o *options) {
		o.defaultDomain = d.WithDefaults(eip712.DefaultDomain())
	}
}

// WithVerifyingContract overrides the verifying contract of the issuing domain.
func WithVerifyingContract(addr string) Opt {
	return func(o *options) {
		o.verifyingContract = addr
	}
}

// WithSchemaValidation validates input credentials against the envelope schema.
func WithSchemaValidation(opts ...schema.ValidatorOpt) Opt {
	return func(o *options) {
		o.isValidateSchema = true
		o.schemaOpts = opts
	}
}

// WithJSONLDValidation expands input credentials as JSON-LD before signing.
func WithJSONLDValidation(opts ...processor.ProcessorOpt) Opt {
	return func(o *options) {
		o.isValidateJSONLD = true
		o.processorOpts = opts
	}
}

// WithConcurrency bounds the number of documents processed at once by
// IssueAll and VerifyAll.
func WithConcurrency(n int) Opt {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

func getOptions(opts ...Opt) *options {
	options := &options{
		signer:        signer.NewDefaultSigner(),
		recoverer:     signer.NewDefaultRecoverer(),
		defaultDomain: DefaultDomain(),
		concurrency:   defaultConcurrency,
	}

	for _, opt := range opts {
		opt(options)
	}

	return options
}
