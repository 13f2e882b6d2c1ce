package signer

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	rwacrypto "github.com/pilacorp/go-rwa-vc-sdk/credential/common/crypto"
	"github.com/pilacorp/go-rwa-vc-sdk/credential/common/eip712"
)

// ErrRemoteSigner is returned when the remote signing service fails or answers garbage.
var ErrRemoteSigner = errors.New("remote signer failed")

// RemoteSigner signs EIP-712 digests through an HTTP signing service.
// The key passed to Sign is a key reference understood by the service,
// never the private key itself.
type RemoteSigner struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// RemoteSignerOpt configures a RemoteSigner.
type RemoteSignerOpt func(*RemoteSigner)

// WithHTTPClient replaces the HTTP client used to reach the service.
func WithHTTPClient(client *http.Client) RemoteSignerOpt {
	return func(s *RemoteSigner) {
		if client != nil {
			s.client = client
		}
	}
}

// NewRemoteSigner creates a new RemoteSigner.
func NewRemoteSigner(endpoint, apiKey string, opts ...RemoteSignerOpt) (*RemoteSigner, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, fmt.Errorf("endpoint required")
	}

	s := &RemoteSigner{
		endpoint: endpoint,
		apiKey:   apiKey,
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

type remoteSignRequest struct {
	KeyID      string `json:"key_id"`
	PayloadHex string `json:"payload_hex"`
}

type remoteSignResponse struct {
	SignatureHex string `json:"signature_hex"`
}

// Sign sends the digest of msg to the remote service and derives the signer
// identity from the returned signature.
func (s *RemoteSigner) Sign(keyRef string, msg *eip712.TypedMessage) (string, string, error) {
	return s.SignContext(context.Background(), keyRef, msg)
}

// SignContext is Sign bound to ctx: cancelling ctx aborts the request.
func (s *RemoteSigner) SignContext(ctx context.Context, keyRef string, msg *eip712.TypedMessage) (string, string, error) {
	hash, err := msg.Hash()
	if err != nil {
		return "", "", err
	}

	reqBody, err := json.Marshal(remoteSignRequest{
		KeyID:      keyRef,
		PayloadHex: hex.EncodeToString(hash),
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal sign request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrRemoteSigner, err)
	}

	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("x-api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrRemoteSigner, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("%w: http %d", ErrRemoteSigner, resp.StatusCode)
	}

	var out remoteSignResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrRemoteSigner, err)
	}

	sig, err := rwacrypto.DecodeSignature(out.SignatureHex)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrRemoteSigner, err)
	}
	sig[64] += 27
	signature := rwacrypto.EncodeSignature(sig)

	signerID, err := rwacrypto.RecoverAddress(hash, signature)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrRemoteSigner, err)
	}

	return signature, signerID, nil
}
