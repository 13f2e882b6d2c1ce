package credentialstatus

// StatusListCredentialResponse is the envelope returned by the status list service.
type StatusListCredentialResponse struct {
	Data StatusListCredential `json:"data"`
}

// StatusListCredential models the status list credential. Only the fields
// needed to consult the list are typed.
type StatusListCredential struct {
	Context           []string                    `json:"@context"`
	CredentialSubject StatusListCredentialSubject `json:"credentialSubject"`
	ID                string                      `json:"id"`
	Issuer            string                      `json:"issuer"`
	Type              []string                    `json:"type"`
	ValidFrom         string                      `json:"validFrom"`
	ValidUntil        string                      `json:"validUntil"`
}

// StatusListCredentialSubject carries the encoded bitstring and its purpose.
type StatusListCredentialSubject struct {
	EncodedList   string `json:"encodedList"`
	ID            string `json:"id"`
	StatusPurpose string `json:"statusPurpose"`
	Type          string `json:"type"`
}

// Status is the state of a credential in a status list.
type Status string

const (
	StatusValid     Status = "valid"
	StatusRevoked   Status = "revoked"
	StatusSuspended Status = "suspended"
	StatusUnknown   Status = "unknown"
)

const (
	PurposeRevocation = "revocation"
	PurposeSuspension = "suspension"
)
