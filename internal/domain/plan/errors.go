package plan

import (
	"errors"
	"fmt"
)

var (
	ErrPlanNotFound     = errors.New("plan not found")
	ErrPlanInUse        = errors.New("plan has live subscriptions")
	ErrCapacityExceeded = errors.New("plan capacity exceeded")
	ErrInvalidPlan      = errors.New("invalid plan")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidPlan, fmt.Sprintf(format, args...))
}
