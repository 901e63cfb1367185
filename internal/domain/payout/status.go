package payout

import "strings"

// PayoutStatus represents the lifecycle state of a payout request
type PayoutStatus string

const (
	StatusPending   PayoutStatus = "pending"   // Requested by the owner, awaiting review
	StatusApproved  PayoutStatus = "approved"  // Approved by an administrator
	StatusRejected  PayoutStatus = "rejected"  // Rejected by an administrator (terminal)
	StatusPaid      PayoutStatus = "paid"      // Money sent, awaiting owner confirmation
	StatusCompleted PayoutStatus = "completed" // Receipt confirmed by the owner (terminal)
)

// AllStatuses lists every payout status in lifecycle order
var AllStatuses = []PayoutStatus{StatusPending, StatusApproved, StatusRejected, StatusPaid, StatusCompleted}

// ReservedStatuses are the in-flight statuses whose amounts still reserve funds
var ReservedStatuses = []PayoutStatus{StatusPending, StatusApproved, StatusPaid}

// IsValid checks if the status is a valid PayoutStatus
func (s PayoutStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusPaid, StatusCompleted:
		return true
	}
	return false
}

// String returns the string representation of PayoutStatus
func (s PayoutStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no transition leaves this status
func (s PayoutStatus) IsTerminal() bool {
	return s == StatusRejected || s == StatusCompleted
}

// IsReserved returns true if a request in this status counts towards pending payouts
func (s PayoutStatus) IsReserved() bool {
	return s == StatusPending || s == StatusApproved || s == StatusPaid
}

// ParseStatus parses a status name case-insensitively
func ParseStatus(s string) (PayoutStatus, bool) {
	status := PayoutStatus(strings.ToLower(strings.TrimSpace(s)))
	return status, status.IsValid()
}

// PaymentMethod is how an administrator sent the money
type PaymentMethod string

const (
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCheck        PaymentMethod = "check"
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodPayPal       PaymentMethod = "paypal"
	PaymentMethodWire         PaymentMethod = "wire"
	PaymentMethodOther        PaymentMethod = "other"
)

// IsValid checks if the method is a valid PaymentMethod
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodBankTransfer, PaymentMethodCheck, PaymentMethodCash,
		PaymentMethodPayPal, PaymentMethodWire, PaymentMethodOther:
		return true
	}
	return false
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}
