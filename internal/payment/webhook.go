package payment

import (
	"net/url"

	"github.com/tidwall/gjson"
)

// Event is a provider notification reduced to what crediting needs.
// Process is false when the notification is valid but not a completed payment.
type Event struct {
	Provider  string
	Reference string
	Amount    float64
	Process   bool
	Reason    string
}

// ParsePaystackEvent reads a Paystack webhook body. Only charge.success is processed.
func ParsePaystackEvent(body []byte) Event {
	res := gjson.ParseBytes(body)
	ev := Event{Provider: "paystack"}
	data := res.Get("data")
	if res.Get("event").String() != "charge.success" || !data.Exists() {
		ev.Reason = "ignored"
		return ev
	}
	ev.Reference = data.Get("reference").String()
	ev.Amount = KoboToNaira(data.Get("amount").Int())
	ev.Process = true
	return ev
}

// ParseNowPaymentsEvent reads an IPN callback. Only finished payments are processed.
func ParseNowPaymentsEvent(body []byte) Event {
	res := gjson.ParseBytes(body)
	ev := Event{Provider: "nowpayments", Reference: res.Get("order_id").String()}
	if res.Get("payment_status").String() != "finished" {
		ev.Reason = "Status not finished"
		return ev
	}
	ev.Amount = ParseAmount(res.Get("price_amount").String())
	ev.Process = true
	return ev
}

// ParseSegpayEvent reads a Segpay postback from form or query values.
func ParseSegpayEvent(values url.Values) Event {
	ev := Event{Provider: "segpay", Reference: firstOf(values, "merchant_ref", "ref", "extra_info", "x-biller-ref")}
	if ev.Reference == "" {
		ev.Reason = "Missing reference"
		return ev
	}
	switch firstOf(values, "stage", "trans-status") {
	case "approved", "success":
	default:
		ev.Reason = "Not approved"
		return ev
	}
	ev.Amount = ParseAmount(firstOf(values, "amount", "x-amount"))
	ev.Process = true
	return ev
}

func firstOf(values url.Values, keys ...string) string {
	for _, k := range keys {
		if v := values.Get(k); v != "" {
			return v
		}
	}
	return ""
}
