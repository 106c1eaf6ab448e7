package valueobjects

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidBillingInterval is returned when a billing interval is not recognized
	ErrInvalidBillingInterval = errors.New("invalid billing interval")
)

type BillingInterval string

const (
	IntervalDaily   BillingInterval = "daily"
	IntervalWeekly  BillingInterval = "weekly"
	IntervalMonthly BillingInterval = "monthly"
	IntervalYearly  BillingInterval = "yearly"
)

var ValidBillingIntervals = map[BillingInterval]bool{
	IntervalDaily:   true,
	IntervalWeekly:  true,
	IntervalMonthly: true,
	IntervalYearly:  true,
}

// ParseBillingInterval normalizes case and surrounding whitespace before validating.
func ParseBillingInterval(value string) (BillingInterval, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return "", fmt.Errorf("%w: billing interval cannot be empty", ErrInvalidBillingInterval)
	}

	interval := BillingInterval(normalized)
	if !ValidBillingIntervals[interval] {
		return "", fmt.Errorf("%w: %s", ErrInvalidBillingInterval, value)
	}

	return interval, nil
}

func (b BillingInterval) String() string {
	return string(b)
}

func (b BillingInterval) IsValid() bool {
	return ValidBillingIntervals[b]
}

func (b BillingInterval) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(b))
}

func (b *BillingInterval) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	interval, err := ParseBillingInterval(s)
	if err != nil {
		return err
	}

	*b = interval
	return nil
}
