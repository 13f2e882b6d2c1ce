package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/pilacorp/go-rwa-vc-sdk/credential/common/jsonmap"
)

// ErrInvalidCredential is returned when a credential does not match its schema.
var ErrInvalidCredential = errors.New("credential does not match schema")

// RWACredentialSchema describes the envelope of an RWA credential: the
// three optional sections, their sProof templates and the root proof.
// credentialStatus may be a single entry or a list of entries.
const RWACredentialSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "RWA verifiable credential",
  "type": "object",
  "required": ["@context", "type", "credentialSubject"],
  "properties": {
    "@context": {"type": ["array", "string"]},
    "type": {"type": ["array", "string"]},
    "issuer": {"type": ["string", "object"]},
    "credentialSubject": {
      "type": "object",
      "properties": {
        "identity": {"$ref": "#/definitions/section"},
        "compliance": {"$ref": "#/definitions/section"},
        "custody": {"$ref": "#/definitions/section"}
      }
    },
    "credentialStatus": {
      "type": ["object", "array"],
      "properties": {
        "statusListCredential": {"type": "string"},
        "statusListIndex": {"type": ["string", "integer"]}
      },
      "items": {"$ref": "#/definitions/statusEntry"}
    },
    "proof": {"$ref": "#/definitions/proof"}
  },
  "definitions": {
    "statusEntry": {
      "type": "object",
      "properties": {
        "statusListCredential": {"type": "string"},
        "statusListIndex": {"type": ["string", "integer"]}
      }
    },
    "section": {
      "type": "object",
      "properties": {
        "sProof": {"$ref": "#/definitions/proof"}
      }
    },
    "proof": {
      "type": "object",
      "properties": {
        "type": {"type": "string"},
        "sectionHash": {"type": "string"},
        "proofValue": {"type": "string"},
        "signer": {"type": "string"},
        "domain": {"type": "object"}
      }
    }
  }
}`

// ValidatorOpt configures validation.
type ValidatorOpt func(*validatorOptions)

type validatorOptions struct {
	schema string
}

// WithSchema replaces the embedded schema with a custom JSON schema document.
func WithSchema(schema string) ValidatorOpt {
	return func(o *validatorOptions) {
		o.schema = schema
	}
}

// Validate checks a credential against the RWA credential schema.
func Validate(doc jsonmap.JSONMap, opts ...ValidatorOpt) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidCredential)
	}

	options := &validatorOptions{schema: RWACredentialSchema}
	for _, opt := range opts {
		opt(options)
	}

	schemaLoader := gojsonschema.NewStringLoader(options.schema)
	credentialLoader := gojsonschema.NewGoLoader(map[string]interface{}(doc))

	result, err := gojsonschema.Validate(schemaLoader, credentialLoader)
	if err != nil {
		return fmt.Errorf("failed to validate schema: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidCredential, strings.Join(msgs, "; "))
	}

	return nil
}
