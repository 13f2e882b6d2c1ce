package rwa

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	credentialstatus "github.com/pilacorp/go-rwa-vc-sdk/credential/common/credential-status"
	"github.com/pilacorp/go-rwa-vc-sdk/credential/common/jsonmap"
)

const (
	credentialStatusKey     = "credentialStatus"
	statusListCredentialKey = "statusListCredential"
	statusListIndexKey      = "statusListIndex"
)

// Report combines proof verification with the credential's status.
type Report struct {
	Results []Result                `json:"results"`
	Status  credentialstatus.Status `json:"status"`
	Valid   bool                    `json:"valid"`
}

// StatusEntry locates a credential in a status list.
type StatusEntry struct {
	ListID string
	Index  int
}

// StatusEntries reads the credentialStatus of doc, which may be a single
// object or a list of objects. Entries without a list are ignored.
func StatusEntries(doc jsonmap.JSONMap) ([]StatusEntry, error) {
	raw, ok := doc[credentialStatusKey]
	if !ok {
		return nil, nil
	}

	var items []interface{}
	switch v := raw.(type) {
	case []interface{}:
		items = v
	default:
		items = []interface{}{v}
	}

	entries := make([]StatusEntry, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: credentialStatus entry is not an object", ErrInvalidDocument)
		}
		listID, _ := obj[statusListCredentialKey].(string)
		if listID == "" {
			continue
		}
		index, err := statusIndex(obj[statusListIndexKey])
		if err != nil {
			return nil, err
		}
		entries = append(entries, StatusEntry{ListID: listID, Index: index})
	}

	return entries, nil
}

func statusIndex(v interface{}) (int, error) {
	switch val := v.(type) {
	case json.Number:
		n, err := strconv.Atoi(val.String())
		if err != nil {
			return 0, fmt.Errorf("%w: statusListIndex %s", ErrInvalidDocument, val)
		}
		return n, nil
	case float64:
		return int(val), nil
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0, fmt.Errorf("%w: statusListIndex %q", ErrInvalidDocument, val)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: statusListIndex missing", ErrInvalidDocument)
	}
}

// CheckStatus consults checker for every status entry of doc. The first
// revoked or suspended entry wins. A credential without status entries is
// reported as unknown.
func CheckStatus(ctx context.Context, doc jsonmap.JSONMap, checker credentialstatus.Checker) (credentialstatus.Status, error) {
	entries, err := StatusEntries(doc)
	if err != nil {
		return credentialstatus.StatusUnknown, err
	}
	if len(entries) == 0 {
		return credentialstatus.StatusUnknown, nil
	}

	status := credentialstatus.StatusValid
	for _, e := range entries {
		s, err := checker.CheckStatus(ctx, e.ListID, e.Index)
		if err != nil {
			return credentialstatus.StatusUnknown, fmt.Errorf("failed to check status in %s: %w", e.ListID, err)
		}
		switch s {
		case credentialstatus.StatusRevoked, credentialstatus.StatusSuspended:
			return s, nil
		case credentialstatus.StatusUnknown:
			status = credentialstatus.StatusUnknown
		}
	}

	return status, nil
}

// VerifyWithStatus verifies the proofs of doc and then its status. The
// credential is valid when every proof holds and it is neither revoked
// nor suspended.
func (v *Verifier) VerifyWithStatus(ctx context.Context, doc jsonmap.JSONMap, expected map[Role]string, checker credentialstatus.Checker) (*Report, error) {
	results, err := v.Verify(doc, expected)
	if err != nil {
		return nil, err
	}

	status, err := CheckStatus(ctx, doc, checker)
	if err != nil {
		return nil, err
	}

	return &Report{
		Results: results,
		Status:  status,
		Valid: AllValid(results) &&
			status != credentialstatus.StatusRevoked &&
			status != credentialstatus.StatusSuspended,
	}, nil
}
