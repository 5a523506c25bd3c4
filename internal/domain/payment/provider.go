package payment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrProviderNotRegistered is returned when no provider matches the requested name
	ErrProviderNotRegistered = errors.New("payment: provider not registered")
	// ErrInvalidIntentRequest is returned when an intent request fails validation
	ErrInvalidIntentRequest = errors.New("payment: invalid intent request")
	// ErrInvalidCallback is returned when a callback payload or signature is invalid
	ErrInvalidCallback = errors.New("payment: invalid callback payload")
	// ErrIntentNotFound is returned when the provider does not know the external ID
	ErrIntentNotFound = errors.New("payment: payment intent not found")
)

// IntentRequest asks a provider to open a payment intent
type IntentRequest struct {
	OrganizationID uuid.UUID
	ReferenceID    string
	Method         Method
	AmountMinor    int64
	Description    string
	ExpiresAt      time.Time
}

// Validate checks the intent request
func (r *IntentRequest) Validate() error {
	if r.ReferenceID == "" || r.AmountMinor <= 0 || !r.Method.IsExternal() {
		return ErrInvalidIntentRequest
	}
	return nil
}

// Intent is the provider's handle for a pending payment, with whatever the
// customer needs to complete it (QR payload, virtual account number).
type Intent struct {
	ExternalID       string
	Method           Method
	AmountMinor      int64
	PresentationData map[string]string
	ExpiresAt        time.Time
}

// CallbackResult is a provider callback normalized into movement terms
type CallbackResult struct {
	ExternalID  string
	Status      Status
	AmountMinor int64
	Reason      string
	PaidAt      *time.Time
	Raw         []byte
}

// Provider is the port interface for an external payment provider.
// Implementations live in the infrastructure layer; the mock provider stands
// in for QRIS and virtual-account rails.
type Provider interface {
	// Name identifies the provider in movements and webhook routes
	Name() string

	// CreateIntent opens a payment intent for an external-method movement
	CreateIntent(ctx context.Context, req *IntentRequest) (*Intent, error)

	// ParseCallback verifies and normalizes a raw webhook payload.
	// Returns ErrInvalidCallback when the signature or payload is bad.
	ParseCallback(ctx context.Context, payload []byte, signature string) (*CallbackResult, error)

	// QueryStatus asks the provider for the authoritative status of an intent.
	// Returns ErrProviderUnavailable on transient failure.
	QueryStatus(ctx context.Context, externalID string) (Status, error)
}

// ProviderRegistry resolves providers by name
type ProviderRegistry struct {
	providers map[string]Provider
}

// NewProviderRegistry builds a registry from the given providers
func NewProviderRegistry(providers ...Provider) *ProviderRegistry {
	r := &ProviderRegistry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

// Register adds or replaces a provider
func (r *ProviderRegistry) Register(p Provider) {
	r.providers[p.Name()] = p
}

// Get returns the provider for the given name
func (r *ProviderRegistry) Get(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, ErrProviderNotRegistered
	}
	return p, nil
}
