package providers

import (
	"context"
	"crypto/md5"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"courtside/internal/shared/config"
)

// PayHere status codes as sent on the return callback.
const (
	payhereStatusSuccess    = "2"
	payhereStatusPending    = "0"
	payhereStatusCancelled  = "-1"
	payhereStatusFailed     = "-2"
	payhereStatusChargeback = "-3"
)

type PayHere struct {
	config config.PayHereConfig
	client *http.Client
}

func NewPayHere(cfg config.PayHereConfig) *PayHere {
	return &PayHere{
		config: cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *PayHere) Name() string {
	return "payhere"
}

func (p *PayHere) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	amount := fmt.Sprintf("%.2f", req.Amount)

	params := url.Values{}
	params.Set("merchant_id", p.config.MerchantID)
	params.Set("order_id", req.BookingRef)
	params.Set("items", "Court booking "+req.BookingRef)
	params.Set("amount", amount)
	params.Set("currency", req.Currency)
	params.Set("first_name", req.CustomerName)
	params.Set("phone", req.CustomerPhone)
	params.Set("email", req.CustomerEmail)
	params.Set("return_url", req.ReturnURL)
	params.Set("cancel_url", req.CancelURL)
	params.Set("hash", p.checkoutHash(req.BookingRef, amount, req.Currency))

	return &CheckoutSession{
		RedirectURL: p.config.CheckoutURL + "?" + params.Encode(),
		ProviderRef: req.BookingRef,
	}, nil
}

func (p *PayHere) ExtractRef(params map[string]string) (string, error) {
	if ref := params["order_id"]; ref != "" {
		return ref, nil
	}
	return "", ErrMissingReference
}

func (p *PayHere) VerifyRemote(ctx context.Context, providerRef string) (*Verification, error) {
	if p.config.StatusURL == "" {
		return &Verification{Outcome: OutcomeIndeterminate}, nil
	}

	form := url.Values{}
	form.Set("merchant_id", p.config.MerchantID)
	form.Set("order_id", providerRef)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.StatusURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		// Provider unreachable, not a verdict
		return &Verification{Outcome: OutcomeIndeterminate}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &Verification{Outcome: OutcomeIndeterminate}, nil
	}

	var payload struct {
		StatusCode string `json:"status_code"`
		PaymentID  string `json:"payment_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return &Verification{Outcome: OutcomeIndeterminate}, nil
	}

	verification := p.classify(payload.StatusCode)
	verification.TransactionID = payload.PaymentID
	return verification, nil
}

func (p *PayHere) VerifyLocal(params map[string]string) (*Verification, error) {
	expected := p.callbackSignature(
		params["order_id"],
		params["payhere_amount"],
		params["payhere_currency"],
		params["status_code"],
	)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(params["md5sig"])) != 1 {
		return nil, ErrBadSignature
	}

	verification := p.classify(params["status_code"])
	verification.TransactionID = params["payment_id"]
	return verification, nil
}

func (p *PayHere) classify(statusCode string) *Verification {
	switch statusCode {
	case payhereStatusSuccess:
		return &Verification{Outcome: OutcomePaid}
	case payhereStatusPending:
		return &Verification{Outcome: OutcomePending, Reason: "payment pending at gateway"}
	case payhereStatusCancelled:
		return &Verification{Outcome: OutcomeCancelled, Reason: "payment cancelled by customer"}
	case payhereStatusFailed:
		return &Verification{Outcome: OutcomeFailed, Reason: "payment declined"}
	case payhereStatusChargeback:
		return &Verification{Outcome: OutcomeFailed, Reason: "payment charged back"}
	default:
		return &Verification{Outcome: OutcomeFailed, Reason: "unknown status code " + statusCode}
	}
}

// checkoutHash signs the outgoing checkout request.
func (p *PayHere) checkoutHash(orderID, amount, currency string) string {
	secretHash := upperMD5(p.config.MerchantSecret)
	return upperMD5(p.config.MerchantID + orderID + amount + currency + secretHash)
}

// callbackSignature recomputes the md5sig PayHere attaches to callbacks.
func (p *PayHere) callbackSignature(orderID, amount, currency, statusCode string) string {
	secretHash := upperMD5(p.config.MerchantSecret)
	return upperMD5(p.config.MerchantID + orderID + amount + currency + statusCode + secretHash)
}

func upperMD5(value string) string {
	return strings.ToUpper(fmt.Sprintf("%x", md5.Sum([]byte(value))))
}
