package reconcile

import (
	"math"
	"net/http"
	"strings"

	"raffle-bff/clients"
)

var (
	staleDraftWords   = []string{"draft", "order", "confirm", "closed", "expired"}
	raffleClosedWords = []string{"winner", "drawn"}
)

// IsRaffleClosed reports whether err says the gift was already drawn. That is
// terminal for the line and never retried.
func IsRaffleClosed(err error) bool {
	apiErr, ok := clients.AsAPIError(err)
	if !ok {
		return false
	}
	return containsAny(apiErr.Message, raffleClosedWords)
}

// IsStaleDraft reports whether err says the draft order being appended to no
// longer exists or can no longer take items.
func IsStaleDraft(err error) bool {
	apiErr, ok := clients.AsAPIError(err)
	if !ok || containsAny(apiErr.Message, raffleClosedWords) {
		return false
	}
	switch apiErr.Status {
	case http.StatusNotFound, http.StatusGone:
		return true
	case http.StatusBadRequest:
		return containsAny(apiErr.Message, staleDraftWords)
	}
	return false
}

func containsAny(msg string, words []string) bool {
	msg = strings.ToLower(msg)
	for _, w := range words {
		if strings.Contains(msg, w) {
			return true
		}
	}
	return false
}

// NormalizeQuantity turns user input into a ticket count of at least 1.
// Fractions truncate.
func NormalizeQuantity(q float64) int {
	if math.IsNaN(q) || math.IsInf(q, 0) || q < 1 {
		return 1
	}
	if q > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(q)
}
