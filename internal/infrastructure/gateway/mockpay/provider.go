// Package mockpay is an in-process payment provider standing in for QRIS and
// virtual-account rails. It issues intents, signs callbacks with HMAC-SHA256
// and answers status queries, so the full external settlement flow can run
// without a real gateway.
package mockpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/koperasi/backend/internal/domain/payment"
)

// ProviderName is the registry key and webhook route segment for this provider
const ProviderName = "mockpay"

// callbackPayload is the wire format of a mockpay webhook
type callbackPayload struct {
	CallbackID  string `json:"callback_id"`
	ExternalID  string `json:"external_id"`
	Status      string `json:"status"`
	AmountMinor int64  `json:"amount_minor"`
	Reason      string `json:"reason,omitempty"`
	PaidAt      string `json:"paid_at,omitempty"`
}

// intentState is the provider-side view of one payment intent
type intentState struct {
	intent payment.Intent
	status payment.Status
}

// Provider implements payment.Provider in-process
type Provider struct {
	secret []byte

	mu      sync.Mutex
	intents map[string]*intentState

	// unavailable simulates provider downtime for QueryStatus
	unavailable bool
}

// New creates a mockpay provider with the given callback signing secret
func New(secret string) *Provider {
	return &Provider{
		secret:  []byte(secret),
		intents: make(map[string]*intentState),
	}
}

// Name identifies the provider
func (p *Provider) Name() string {
	return ProviderName
}

// CreateIntent opens a payment intent
func (p *Provider) CreateIntent(_ context.Context, req *payment.IntentRequest) (*payment.Intent, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	externalID := "mp_" + uuid.NewString()
	presentation := make(map[string]string, 2)
	switch req.Method {
	case payment.MethodQRIS:
		presentation["qr_string"] = fmt.Sprintf("00020101mockpay%s5204", externalID)
	case payment.MethodVirtualAccount:
		presentation["va_number"] = fmt.Sprintf("8808%012d", time.Now().UnixNano()%1_000_000_000_000)
		presentation["bank_code"] = "MOCK"
	}

	intent := payment.Intent{
		ExternalID:       externalID,
		Method:           req.Method,
		AmountMinor:      req.AmountMinor,
		PresentationData: presentation,
		ExpiresAt:        req.ExpiresAt,
	}

	p.mu.Lock()
	p.intents[externalID] = &intentState{intent: intent, status: payment.StatusPending}
	p.mu.Unlock()

	return &intent, nil
}

// ParseCallback verifies the HMAC signature and normalizes the payload
func (p *Provider) ParseCallback(_ context.Context, payload []byte, signature string) (*payment.CallbackResult, error) {
	if !p.verifySignature(payload, signature) {
		return nil, fmt.Errorf("%w: bad signature", payment.ErrInvalidCallback)
	}

	var cb callbackPayload
	if err := json.Unmarshal(payload, &cb); err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrInvalidCallback, err)
	}

	status := payment.Status(cb.Status)
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", payment.ErrInvalidCallback, cb.Status)
	}

	result := &payment.CallbackResult{
		ExternalID:  cb.ExternalID,
		Status:      status,
		AmountMinor: cb.AmountMinor,
		Reason:      cb.Reason,
		Raw:         payload,
	}
	if cb.PaidAt != "" {
		if paidAt, err := time.Parse(time.RFC3339, cb.PaidAt); err == nil {
			result.PaidAt = &paidAt
		}
	}
	return result, nil
}

// QueryStatus returns the provider-side status of an intent
func (p *Provider) QueryStatus(_ context.Context, externalID string) (payment.Status, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.unavailable {
		return "", payment.ErrProviderUnavailable
	}
	state, ok := p.intents[externalID]
	if !ok {
		return "", payment.ErrIntentNotFound
	}
	return state.status, nil
}

// Sign computes the HMAC-SHA256 hex signature for a payload.
// Exposed so tests and the settlement simulator can produce valid webhooks.
func (p *Provider) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, p.secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func (p *Provider) verifySignature(payload []byte, signature string) bool {
	expected, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, p.secret)
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), expected)
}

// SettleIntent moves an intent to a terminal status on the provider side and
// returns a signed webhook for it. Used by tests and the local sandbox.
func (p *Provider) SettleIntent(externalID string, status payment.Status, reason string) (body []byte, signature string, err error) {
	p.mu.Lock()
	state, ok := p.intents[externalID]
	if ok {
		state.status = status
	}
	p.mu.Unlock()
	if !ok {
		return nil, "", payment.ErrIntentNotFound
	}

	cb := callbackPayload{
		CallbackID:  uuid.NewString(),
		ExternalID:  externalID,
		Status:      status.String(),
		AmountMinor: state.intent.AmountMinor,
		Reason:      reason,
	}
	if status == payment.StatusSuccess {
		cb.PaidAt = time.Now().UTC().Format(time.RFC3339)
	}

	body, err = json.Marshal(cb)
	if err != nil {
		return nil, "", err
	}
	return body, p.Sign(body), nil
}

// SetUnavailable toggles simulated downtime for QueryStatus
func (p *Provider) SetUnavailable(down bool) {
	p.mu.Lock()
	p.unavailable = down
	p.mu.Unlock()
}

var _ payment.Provider = (*Provider)(nil)
