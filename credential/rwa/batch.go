package rwa

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/pilacorp/go-rwa-vc-sdk/credential/common/jsonmap"
)

// Issued is the output of issuing one credential.
type Issued struct {
	Document jsonmap.JSONMap
	Records  []ProofRecord
}

// IssueAll issues docs concurrently with the same config. Results keep the
// order of docs. The first error cancels the remaining work.
func (i *Issuer) IssueAll(ctx context.Context, docs []jsonmap.JSONMap, cfg *Config) ([]Issued, error) {
	out := make([]Issued, len(docs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(i.opts.concurrency)

	for n, doc := range docs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			issued, records, err := i.IssueContext(ctx, doc, cfg)
			if err != nil {
				return err
			}
			out[n] = Issued{Document: issued, Records: records}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

// VerifyAll verifies docs concurrently. Results keep the order of docs.
func (v *Verifier) VerifyAll(ctx context.Context, docs []jsonmap.JSONMap, expected map[Role]string) ([][]Result, error) {
	out := make([][]Result, len(docs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(v.opts.concurrency)

	for n, doc := range docs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results, err := v.Verify(doc, expected)
			if err != nil {
				return err
			}
			out[n] = results
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}
