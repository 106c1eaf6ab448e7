// Package id generates short, URL-safe identifiers in the "prefix_random" style.
package id

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

const (
	// Base62 alphabet: 0-9, A-Z, a-z
	alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// DefaultLength is the default length of the random part
	DefaultLength = 12
)

// Prefixes for the billing entities.
const (
	PrefixPlan         = "plan"
	PrefixSubscription = "sub"
	PrefixPayment      = "pay"
)

// publicIDPattern is the accepted shape of identifiers arriving on public routes.
var publicIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{5,50}$`)

// Generate creates a random short ID with the specified length using Base62 encoding.
func Generate(length int) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}

	result := make([]byte, length)
	alphabetLen := big.NewInt(int64(len(alphabet)))

	for i := 0; i < length; i++ {
		num, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		result[i] = alphabet[num.Int64()]
	}

	return string(result), nil
}

// GenerateWithPrefix creates a prefixed ID in the format "prefix_randomstring".
func GenerateWithPrefix(prefix string, length int) (string, error) {
	id, err := Generate(length)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s_%s", prefix, id), nil
}

func NewPlanID() (string, error) {
	return GenerateWithPrefix(PrefixPlan, DefaultLength)
}

func NewSubscriptionID() (string, error) {
	return GenerateWithPrefix(PrefixSubscription, DefaultLength)
}

func NewPaymentID() (string, error) {
	return GenerateWithPrefix(PrefixPayment, DefaultLength)
}

// ParsePrefixedID extracts the prefix and short ID from a prefixed ID string.
func ParsePrefixedID(prefixedID string) (prefix, shortID string, err error) {
	parts := strings.SplitN(prefixedID, "_", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid prefixed ID format: %s", prefixedID)
	}
	return parts[0], parts[1], nil
}

// ValidatePublicID reports whether s is an acceptable identifier for a public route.
func ValidatePublicID(s string) bool {
	return publicIDPattern.MatchString(s)
}
