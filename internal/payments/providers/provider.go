package providers

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrUnknownProvider  = errors.New("unknown payment provider")
	ErrBadSignature     = errors.New("callback signature verification failed")
	ErrMissingReference = errors.New("callback carries no provider reference")
)

// Outcome is the normalized result of a payment attempt at a provider.
type Outcome string

const (
	OutcomePaid      Outcome = "paid"
	OutcomeFailed    Outcome = "failed"
	OutcomeCancelled Outcome = "cancelled"
	OutcomePending   Outcome = "pending"

	// OutcomeIndeterminate means the provider could not tell us; the
	// caller falls back to verifying the callback parameters locally.
	OutcomeIndeterminate Outcome = "indeterminate"
)

// CheckoutRequest carries everything a provider needs to start a hosted
// checkout for one booking.
type CheckoutRequest struct {
	BookingRef    string
	Amount        float64
	Currency      string
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	ReturnURL     string
	CancelURL     string
}

// CheckoutSession is a started checkout. ProviderRef is the identifier the
// provider will echo back on return and is persisted before redirecting.
type CheckoutSession struct {
	RedirectURL string
	ProviderRef string
}

// Verification is a classified return callback.
type Verification struct {
	Outcome       Outcome
	TransactionID string
	Reason        string
}

// Provider abstracts one external payment gateway.
type Provider interface {
	Name() string

	// CreateCheckout starts a hosted checkout session for the booking.
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)

	// ExtractRef pulls the provider reference out of raw return
	// parameters, or returns ErrMissingReference.
	ExtractRef(params map[string]string) (string, error)

	// VerifyRemote asks the provider's own API for the authoritative
	// payment state. OutcomeIndeterminate with a nil error means the
	// provider could not answer.
	VerifyRemote(ctx context.Context, providerRef string) (*Verification, error)

	// VerifyLocal checks the callback signature and classifies the return
	// parameters. It must never trust unsigned parameters.
	VerifyLocal(params map[string]string) (*Verification, error)
}

// Registry holds the configured providers keyed by name.
type Registry struct {
	providers map[string]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider)}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return p, nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}
