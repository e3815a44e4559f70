package providers

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"courtside/internal/shared/config"

	"github.com/google/uuid"
)

// VNPay response codes on the return callback.
const (
	vnpayCodeSuccess   = "00"
	vnpayCodeCancelled = "24"
)

type VNPay struct {
	config config.VNPayConfig
	client *http.Client
	now    func() time.Time
}

func NewVNPay(cfg config.VNPayConfig) *VNPay {
	return &VNPay{
		config: cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		now:    time.Now,
	}
}

func (v *VNPay) Name() string {
	return "vnpay"
}

func (v *VNPay) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	createDate := v.now().Format("20060102150405")

	params := map[string]string{
		"vnp_Version":    "2.1.0",
		"vnp_Command":    "pay",
		"vnp_TmnCode":    v.config.TmnCode,
		"vnp_Amount":     fmt.Sprintf("%.0f", req.Amount*100),
		"vnp_CurrCode":   req.Currency,
		"vnp_TxnRef":     req.BookingRef,
		"vnp_OrderInfo":  "Court booking " + req.BookingRef,
		"vnp_OrderType":  "other",
		"vnp_Locale":     "en",
		"vnp_ReturnUrl":  req.ReturnURL,
		"vnp_CreateDate": createDate,
	}

	query := encodeSorted(params)
	secureHash := v.sign(query)

	return &CheckoutSession{
		RedirectURL: v.config.PayURL + "?" + query + "&vnp_SecureHash=" + secureHash,
		ProviderRef: req.BookingRef,
	}, nil
}

func (v *VNPay) ExtractRef(params map[string]string) (string, error) {
	if ref := params["vnp_TxnRef"]; ref != "" {
		return ref, nil
	}
	return "", ErrMissingReference
}

func (v *VNPay) VerifyRemote(ctx context.Context, providerRef string) (*Verification, error) {
	if v.config.QueryURL == "" {
		return &Verification{Outcome: OutcomeIndeterminate}, nil
	}

	body, err := json.Marshal(map[string]string{
		"vnp_RequestId":  uuid.NewString(),
		"vnp_Version":    "2.1.0",
		"vnp_Command":    "querydr",
		"vnp_TmnCode":    v.config.TmnCode,
		"vnp_TxnRef":     providerRef,
		"vnp_CreateDate": v.now().Format("20060102150405"),
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, v.config.QueryURL, strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(httpReq)
	if err != nil {
		return &Verification{Outcome: OutcomeIndeterminate}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &Verification{Outcome: OutcomeIndeterminate}, nil
	}

	var payload struct {
		ResponseCode      string `json:"vnp_ResponseCode"`
		TransactionStatus string `json:"vnp_TransactionStatus"`
		TransactionNo     string `json:"vnp_TransactionNo"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return &Verification{Outcome: OutcomeIndeterminate}, nil
	}

	verification := v.classify(payload.TransactionStatus)
	verification.TransactionID = payload.TransactionNo
	return verification, nil
}

func (v *VNPay) VerifyLocal(params map[string]string) (*Verification, error) {
	received := params["vnp_SecureHash"]

	// The signature covers every vnp_ parameter except the hash itself
	signed := make(map[string]string, len(params))
	for key, value := range params {
		if key == "vnp_SecureHash" || key == "vnp_SecureHashType" {
			continue
		}
		if strings.HasPrefix(key, "vnp_") {
			signed[key] = value
		}
	}

	expected := v.sign(encodeSorted(signed))
	if subtle.ConstantTimeCompare([]byte(strings.ToLower(expected)), []byte(strings.ToLower(received))) != 1 {
		return nil, ErrBadSignature
	}

	verification := v.classify(params["vnp_ResponseCode"])
	verification.TransactionID = params["vnp_TransactionNo"]
	return verification, nil
}

func (v *VNPay) classify(code string) *Verification {
	switch code {
	case vnpayCodeSuccess:
		return &Verification{Outcome: OutcomePaid}
	case vnpayCodeCancelled:
		return &Verification{Outcome: OutcomeCancelled, Reason: "payment cancelled by customer"}
	case "":
		return &Verification{Outcome: OutcomeIndeterminate}
	default:
		return &Verification{Outcome: OutcomeFailed, Reason: "gateway response code " + code}
	}
}

func (v *VNPay) sign(query string) string {
	mac := hmac.New(sha512.New, []byte(v.config.HashSecret))
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}

// encodeSorted builds the canonical query string VNPay signs: keys sorted
// ascending, values url-encoded.
func encodeSorted(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var builder strings.Builder
	for i, key := range keys {
		if i > 0 {
			builder.WriteByte('&')
		}
		builder.WriteString(key)
		builder.WriteByte('=')
		builder.WriteString(url.QueryEscape(params[key]))
	}
	return builder.String()
}
