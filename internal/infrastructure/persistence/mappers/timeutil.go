package mappers

import "time"

// Drivers hand back times in their session location; entities are UTC only.
func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
