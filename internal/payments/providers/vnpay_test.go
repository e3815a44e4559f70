package providers

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/url"
	"testing"

	"courtside/internal/shared/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVNPay() *VNPay {
	return NewVNPay(config.VNPayConfig{
		TmnCode:    "COURTSID",
		HashSecret: "test-hash-secret",
		PayURL:     "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
	})
}

func vnpaySign(secret string, params map[string]string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(encodeSorted(params)))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVNPayCheckoutSignatureMatchesQuery(t *testing.T) {
	v := testVNPay()

	session, err := v.CreateCheckout(context.Background(), CheckoutRequest{
		BookingRef: "CRT-20260905-ABCDEF",
		Amount:     3000,
		Currency:   "LKR",
		ReturnURL:  "https://courtside.example/payments/return/vnpay",
	})
	require.NoError(t, err)

	parsed, err := url.Parse(session.RedirectURL)
	require.NoError(t, err)
	query := parsed.Query()

	signed := make(map[string]string)
	for key := range query {
		if key != "vnp_SecureHash" {
			signed[key] = query.Get(key)
		}
	}

	assert.Equal(t, "300000", query.Get("vnp_Amount"))
	assert.Equal(t, vnpaySign("test-hash-secret", signed), query.Get("vnp_SecureHash"))
}

func TestVNPayVerifyLocalAcceptsValidSignature(t *testing.T) {
	v := testVNPay()

	params := map[string]string{
		"vnp_TmnCode":       "COURTSID",
		"vnp_TxnRef":        "CRT-20260905-ABCDEF",
		"vnp_Amount":        "300000",
		"vnp_ResponseCode":  "00",
		"vnp_TransactionNo": "14697212",
	}
	params["vnp_SecureHash"] = vnpaySign("test-hash-secret", params)

	verification, err := v.VerifyLocal(params)
	require.NoError(t, err)
	assert.Equal(t, OutcomePaid, verification.Outcome)
	assert.Equal(t, "14697212", verification.TransactionID)
}

func TestVNPayVerifyLocalRejectsTamperedAmount(t *testing.T) {
	v := testVNPay()

	params := map[string]string{
		"vnp_TmnCode":      "COURTSID",
		"vnp_TxnRef":       "CRT-20260905-ABCDEF",
		"vnp_Amount":       "300000",
		"vnp_ResponseCode": "00",
	}
	params["vnp_SecureHash"] = vnpaySign("test-hash-secret", params)
	params["vnp_Amount"] = "100"

	_, err := v.VerifyLocal(params)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestVNPayClassifiesCancellation(t *testing.T) {
	v := testVNPay()

	params := map[string]string{
		"vnp_TxnRef":       "CRT-20260905-ABCDEF",
		"vnp_ResponseCode": "24",
	}
	params["vnp_SecureHash"] = vnpaySign("test-hash-secret", params)

	verification, err := v.VerifyLocal(params)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCancelled, verification.Outcome)
}

func TestVNPayExtractRef(t *testing.T) {
	v := testVNPay()

	ref, err := v.ExtractRef(map[string]string{"vnp_TxnRef": "CRT-20260905-ABCDEF"})
	require.NoError(t, err)
	assert.Equal(t, "CRT-20260905-ABCDEF", ref)

	_, err = v.ExtractRef(map[string]string{})
	assert.ErrorIs(t, err, ErrMissingReference)
}
