package credentialstatus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ErrIndexOutOfRange is returned when a status index points past the list.
var ErrIndexOutOfRange = errors.New("status index out of range")

// Checker resolves the status of the credential at index in list listID.
type Checker interface {
	CheckStatus(ctx context.Context, listID string, index int) (Status, error)
}

// Client fetches status list credentials over HTTP. The list ID is the
// statusListCredential URL.
type Client struct {
	httpClient *http.Client
}

// ClientOpt configures a Client.
type ClientOpt func(*Client)

// WithHTTPClient replaces the HTTP client used to fetch lists.
func WithHTTPClient(client *http.Client) ClientOpt {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient creates a new credential status client with a 10 second timeout.
func NewClient(opts ...ClientOpt) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// CheckStatus fetches the list and reads the bit at index.
func (c *Client) CheckStatus(ctx context.Context, listID string, index int) (Status, error) {
	list, err := c.FetchStatusListCredential(ctx, listID)
	if err != nil {
		return StatusUnknown, err
	}

	return StatusAt(index, list.Data.CredentialSubject)
}

// FetchStatusListCredential fetches and parses the status list credential
// located at statusListCredentialURL.
func (c *Client) FetchStatusListCredential(ctx context.Context, statusListCredentialURL string) (*StatusListCredentialResponse, error) {
	if statusListCredentialURL == "" {
		return nil, fmt.Errorf("statusListCredential URL is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusListCredentialURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build status list request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call status list credential endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status list credential API returned non-200 status: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read status list credential response body: %w", err)
	}

	var result StatusListCredentialResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status list credential JSON: %w", err)
	}

	return &result, nil
}

// StatusAt maps the bit at position to a Status according to the list purpose.
// Lists with an unrecognised purpose yield StatusUnknown.
func StatusAt(position int, subject StatusListCredentialSubject) (Status, error) {
	bits, err := DecodeList(subject.EncodedList)
	if err != nil {
		return StatusUnknown, err
	}

	set, err := BitAt(bits, position)
	if err != nil {
		return StatusUnknown, err
	}
	if !set {
		return StatusValid, nil
	}

	switch subject.StatusPurpose {
	case PurposeRevocation:
		return StatusRevoked, nil
	case PurposeSuspension:
		return StatusSuspended, nil
	default:
		return StatusUnknown, nil
	}
}
