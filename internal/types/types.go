// README: Common value objects shared across modules.
package types

// ID identifies a session or stored record.
type ID string

// Money is an amount in major units of the given ISO 4217 currency.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency,omitempty"`
}

// IsZero reports whether no amount has been set.
func (m Money) IsZero() bool {
	return m.Amount == 0 && m.Currency == ""
}
