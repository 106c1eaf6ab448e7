package valueobjects

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

var validPaymentStatuses = map[PaymentStatus]bool{
	PaymentStatusPending: true,
	PaymentStatusPaid:    true,
	PaymentStatusFailed:  true,
}

func (s PaymentStatus) String() string {
	return string(s)
}

func (s PaymentStatus) IsValid() bool {
	return validPaymentStatuses[s]
}

// IsSettled reports whether the attempt reached a final state.
func (s PaymentStatus) IsSettled() bool {
	return s == PaymentStatusPaid || s == PaymentStatusFailed
}
