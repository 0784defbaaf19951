package wizard

import "strings"

// OrderLookup answers whether a merchant order exists
type OrderLookup interface {
	OrderExists(orderID string) (bool, error)
}

// OrderLookupFunc adapts a plain function to OrderLookup
type OrderLookupFunc func(orderID string) (bool, error)

func (f OrderLookupFunc) OrderExists(orderID string) (bool, error) {
	return f(orderID)
}

// ParityLookup is the demo stand-in for a merchant order database: an order
// exists when its identifier is an even integer.
type ParityLookup struct{}

func (ParityLookup) OrderExists(orderID string) (bool, error) {
	return IsEvenOrderID(orderID), nil
}

// IsEvenOrderID reports whether orderID, ignoring surrounding spaces, is a
// base-10 integer with an even value. Identifiers of any length are accepted.
func IsEvenOrderID(orderID string) bool {
	digits := strings.TrimSpace(orderID)
	if digits != "" && (digits[0] == '-' || digits[0] == '+') {
		digits = digits[1:]
	}
	if digits == "" {
		return false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return false
		}
	}
	return (digits[len(digits)-1]-'0')%2 == 0
}
