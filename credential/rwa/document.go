package rwa

import (
	"fmt"

	"github.com/pilacorp/go-rwa-vc-sdk/credential/common/jsonmap"
	"github.com/pilacorp/go-rwa-vc-sdk/credential/common/model"
	"github.com/pilacorp/go-rwa-vc-sdk/credential/common/processor"
	"github.com/pilacorp/go-rwa-vc-sdk/credential/common/schema"
)

// stripProofs returns a copy of doc with every section proof and the root
// proof removed. Hashes are always computed over this form.
func stripProofs(doc jsonmap.JSONMap) jsonmap.JSONMap {
	clean := doc.Clone()
	for _, s := range Sections() {
		if section, ok := clean.ResolveMap(s.Path()); ok {
			delete(section, model.SectionProofKey)
		}
	}
	delete(clean, model.DocumentProofKey)
	return clean
}

func (o *options) validate(doc jsonmap.JSONMap) error {
	if doc == nil {
		return fmt.Errorf("%w: document is not an object", ErrInvalidDocument)
	}
	if o.isValidateSchema {
		if err := schema.Validate(doc, o.schemaOpts...); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
		}
	}
	if o.isValidateJSONLD {
		if err := processor.ValidateJSONLD(stripProofs(doc), o.processorOpts...); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
		}
	}
	return nil
}
