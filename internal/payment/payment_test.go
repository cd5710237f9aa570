package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"event":"charge.success"}`)
	sig := Sign("sk_test", body)

	assert.NoError(t, VerifySignature("sk_test", body, sig))
	assert.NoError(t, VerifySignature("sk_test", body, strings.ToUpper(sig)))
	assert.ErrorIs(t, VerifySignature("sk_test", body, ""), ErrMissingSignature)
	assert.ErrorIs(t, VerifySignature("", body, sig), ErrNotConfigured)
	assert.ErrorIs(t, VerifySignature("other", body, sig), ErrInvalidSignature)
}

func TestVerifyToken(t *testing.T) {
	assert.NoError(t, VerifyToken("postback", "postback"))
	assert.ErrorIs(t, VerifyToken("postback", ""), ErrInvalidSignature)
	assert.ErrorIs(t, VerifyToken("postback", "postbacks"), ErrInvalidSignature)
	assert.ErrorIs(t, VerifyToken("", "anything"), ErrNotConfigured)
}

func TestVerifyNowPaymentsSignatureSortedKeys(t *testing.T) {
	body := []byte(`{"payment_status":"finished","order_id":"nowpayments_1_abc","price_amount":10000.50}`)
	canonical := []byte(`{"order_id":"nowpayments_1_abc","payment_status":"finished","price_amount":10000.50}`)

	assert.NoError(t, VerifyNowPaymentsSignature("ipn", body, Sign("ipn", canonical)))
	assert.NoError(t, VerifyNowPaymentsSignature("ipn", body, Sign("ipn", body)))
	assert.ErrorIs(t, VerifyNowPaymentsSignature("ipn", body, Sign("nope", body)), ErrInvalidSignature)
}

func TestMoney(t *testing.T) {
	assert.Equal(t, 100000.0, KoboToNaira(10000000))
	assert.Equal(t, int64(1050), NairaToKobo(10.5))
	assert.Equal(t, int64(123), NairaToCoins(1239.99))
	assert.Equal(t, int64(0), NairaToCoins(-5))
	assert.True(t, WithinTolerance(10000, 10001))
	assert.True(t, WithinTolerance(10000, 9999))
	assert.False(t, WithinTolerance(10000, 10001.01))
	assert.Equal(t, 10.0, ParseAmount("10.00"))
	assert.Equal(t, 0.0, ParseAmount("abc"))
}

func TestDefaultPackages(t *testing.T) {
	pkgs := DefaultPackages()
	require.Len(t, pkgs, 6)

	p := FindPackage(pkgs, "coins-5000")
	require.NotNil(t, p)
	assert.Equal(t, "5,000 Coins", p.DisplayName)
	assert.Equal(t, 50000.0, p.Price)
	assert.Equal(t, int64(5000000), p.PriceInKobo)
	assert.True(t, p.Popular)
	assert.True(t, FindPackage(pkgs, "coins-15000").IsRecommended)
	assert.Nil(t, FindPackage(pkgs, "coins-7"))
}

func TestNewReference(t *testing.T) {
	ref := NewReference("paystack", time.UnixMilli(1700000000000))
	parts := strings.Split(ref, "_")
	require.Len(t, parts, 3)
	assert.Equal(t, "paystack", parts[0])
	assert.Equal(t, "1700000000000", parts[1])
	assert.Len(t, parts[2], 7)
}

func TestPaystackVerify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/verify/ref_1", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"status":true,"data":{"reference":"ref_1","amount":1000000,"status":"success"}}`))
	}))
	defer srv.Close()

	tx, err := NewPaystack(srv.URL, "sk_test").Verify(context.Background(), "ref_1")
	require.NoError(t, err)
	assert.Equal(t, "success", tx.Status)
	assert.Equal(t, int64(1000000), tx.Amount)

	_, err = NewPaystack(srv.URL, "").Verify(context.Background(), "ref_1")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestPaystackVerifyHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":false,"message":"Transaction reference not found"}`))
	}))
	defer srv.Close()

	_, err := NewPaystack(srv.URL, "sk").Verify(context.Background(), "missing")
	assert.Error(t, err)
}

func TestNowPaymentsCreateInvoice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/invoice", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("x-api-key"))

		var in InvoiceRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "ngn", in.PriceCurrency)
		assert.Equal(t, "ref", in.OrderID)

		_, _ = w.Write([]byte(`{"id":"5077125051","invoice_url":"https://nowpayments.io/payment/?iid=5077125051"}`))
	}))
	defer srv.Close()

	inv, err := NewNowPayments(srv.URL, "key", "").CreateInvoice(context.Background(), InvoiceRequest{
		PriceAmount: 10000, PriceCurrency: "ngn", PayCurrency: "btc", OrderID: "ref",
	})
	require.NoError(t, err)
	assert.Equal(t, "5077125051", inv.ID)
	assert.Contains(t, inv.InvoiceURL, "iid=5077125051")

	_, err = NewNowPayments(srv.URL, "", "").CreateInvoice(context.Background(), InvoiceRequest{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSegpayCheckoutURL(t *testing.T) {
	raw, err := NewSegpay("https://secure.segpay.com/billing/poset", "pkg1", "").CheckoutURL(SegpayCheckout{
		Reference:   "segpay_1_abc",
		Amount:      10000,
		Currency:    "NGN",
		Description: "Purchase 1,000 Coins",
		ApprovedURL: "http://app/dashboard/wallet?status=success&ref=segpay_1_abc",
		DeclinedURL: "http://app/dashboard/wallet?status=cancel&ref=segpay_1_abc",
	})
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "pkg1", q.Get("x-eticketid"))
	assert.Equal(t, "10000.00", q.Get("x-amount"))
	assert.Equal(t, "segpay_1_abc", q.Get("x-biller-ref"))
	assert.Equal(t, "http://app/dashboard/wallet?status=success&ref=segpay_1_abc", q.Get("approved_url"))
}

func TestParseEvents(t *testing.T) {
	ev := ParsePaystackEvent([]byte(`{"event":"charge.success","data":{"reference":"r1","amount":500000}}`))
	assert.True(t, ev.Process)
	assert.Equal(t, "r1", ev.Reference)
	assert.Equal(t, 5000.0, ev.Amount)

	assert.False(t, ParsePaystackEvent([]byte(`{"event":"transfer.success","data":{}}`)).Process)

	ev = ParseNowPaymentsEvent([]byte(`{"payment_status":"finished","order_id":"r2","price_amount":"10000"}`))
	assert.True(t, ev.Process)
	assert.Equal(t, 10000.0, ev.Amount)

	ev = ParseNowPaymentsEvent([]byte(`{"payment_status":"waiting","order_id":"r2"}`))
	assert.False(t, ev.Process)
	assert.Equal(t, "Status not finished", ev.Reason)

	ev = ParseSegpayEvent(url.Values{"x-biller-ref": {"r3"}, "trans-status": {"approved"}, "amount": {"10.00"}})
	assert.True(t, ev.Process)
	assert.Equal(t, "r3", ev.Reference)
	assert.Equal(t, 10.0, ev.Amount)

	assert.Equal(t, "Missing reference", ParseSegpayEvent(url.Values{"stage": {"approved"}}).Reason)
	assert.Equal(t, "Not approved", ParseSegpayEvent(url.Values{"ref": {"r"}, "stage": {"declined"}}).Reason)
}
