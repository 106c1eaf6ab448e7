package subscription

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MaxEmailLength         = 255
	MaxSubscriberNameLen   = 100
	MaxMetadataSize        = 1000
	MaxMetadataKeyLength   = 50
	MaxMetadataValueLength = 200
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Subscriber is the optional contact and reference data attached to a subscription.
type Subscriber struct {
	Email    *string
	Name     *string
	Metadata map[string]any
}

// Validate trims the contact fields in place and checks every limit.
func (s *Subscriber) Validate() error {
	if s.Email != nil {
		email := strings.TrimSpace(*s.Email)
		switch {
		case email == "":
			s.Email = nil
		case len(email) > MaxEmailLength:
			return fmt.Errorf("%w: email must be at most %d characters", ErrInvalidSubscriber, MaxEmailLength)
		case !emailPattern.MatchString(email):
			return fmt.Errorf("%w: invalid email format", ErrInvalidSubscriber)
		default:
			s.Email = &email
		}
	}

	if s.Name != nil {
		name := strings.TrimSpace(*s.Name)
		if name == "" || utf8.RuneCountInString(name) > MaxSubscriberNameLen {
			return fmt.Errorf("%w: name must be between 1 and %d characters", ErrInvalidSubscriber, MaxSubscriberNameLen)
		}
		s.Name = &name
	}

	return ValidateMetadata(s.Metadata)
}

// ValidateMetadata accepts a flat object of short keys and scalar values.
func ValidateMetadata(metadata map[string]any) error {
	if len(metadata) == 0 {
		return nil
	}

	for key, value := range metadata {
		if key == "" || utf8.RuneCountInString(key) > MaxMetadataKeyLength {
			return fmt.Errorf("%w: metadata keys must be 1 to %d characters", ErrInvalidSubscriber, MaxMetadataKeyLength)
		}

		switch v := value.(type) {
		case string:
			if utf8.RuneCountInString(v) > MaxMetadataValueLength {
				return fmt.Errorf("%w: metadata value for %q exceeds %d characters", ErrInvalidSubscriber, key, MaxMetadataValueLength)
			}
		case bool, int, int32, int64:
		case float64:
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: metadata value for %q is not a finite number", ErrInvalidSubscriber, key)
			}
		case json.Number:
		default:
			return fmt.Errorf("%w: metadata value for %q must be a string, number or boolean", ErrInvalidSubscriber, key)
		}
	}

	encoded, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("%w: metadata is not serializable", ErrInvalidSubscriber)
	}
	if len(encoded) > MaxMetadataSize {
		return fmt.Errorf("%w: metadata exceeds %d characters", ErrInvalidSubscriber, MaxMetadataSize)
	}

	return nil
}
