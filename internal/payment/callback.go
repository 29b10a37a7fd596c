package payment

import (
	"net/url"
)

// Query parameters the payment gateway appends when redirecting back.
const (
	ParamStatus        = "status"
	ParamTxRef         = "tx_ref"
	ParamTransactionID = "transaction_id"

	StatusSuccessful = "successful"
)

// Callback is a successful redirect back from the payment gateway.
type Callback struct {
	TxRef         string
	TransactionID string
}

func (c Callback) key() string { return c.TxRef + "\x00" + c.TransactionID }

// ParseCallback extracts a successful callback from q. Anything else,
// including a successful status without both identifiers, is not a callback.
func ParseCallback(q url.Values) (Callback, bool) {
	if q.Get(ParamStatus) != StatusSuccessful {
		return Callback{}, false
	}
	cb := Callback{TxRef: q.Get(ParamTxRef), TransactionID: q.Get(ParamTransactionID)}
	if cb.TxRef == "" || cb.TransactionID == "" {
		return Callback{}, false
	}
	return cb, true
}

// StripCallback returns u without the gateway's transactional parameters, so
// that reloading the page cannot replay a verification.
func StripCallback(u *url.URL) string {
	out := *u
	q := out.Query()
	q.Del(ParamStatus)
	q.Del(ParamTxRef)
	q.Del(ParamTransactionID)
	out.RawQuery = q.Encode()
	out.Fragment = ""
	return out.String()
}
