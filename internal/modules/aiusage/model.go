package aiusage

import "errors"

// ErrQuotaExhausted is returned when a session has no model calls remaining for the current month.
var ErrQuotaExhausted = errors.New("model call quota exhausted")

// DefaultCalls is the number of model-fallback calls granted per month.
const DefaultCalls = 50
